package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ntpkit/ntpkit/internal/sugar"
	"github.com/ntpkit/ntpkit/pkg/ntp"
)

func handleQueryCommand(server string, timeout time.Duration) {
	m := queryCommandModel{server: server, timeout: timeout}
	m.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))

	if _, err := sugar.RunProgram(m); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	textStyle = lipgloss.NewStyle().Inline(true).Bold(true).Foreground(lipgloss.Color("252")).Render
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render
)

type queryCommandModel struct {
	spinner spinner.Model
	server  string
	timeout time.Duration
	result  string
	err     error
}

type ntpQueryMessage struct {
	address string
	status  ntp.Status
	packet  ntp.Packet
	rtt     time.Duration
	when    time.Time
}

func ntpQueryCommand(server string, timeout time.Duration) tea.Cmd {
	return func() tea.Msg {
		results := make(chan ntpQueryMessage, 1)
		ntp.StartQuery(server, func(_, address string, status ntp.Status, packet ntp.Packet, rtt time.Duration) {
			results <- ntpQueryMessage{
				address: address,
				status:  status,
				packet:  packet,
				rtt:     rtt,
				when:    time.Now(),
			}
		}, timeout)
		return <-results
	}
}

func formatResult(server string, msg ntpQueryMessage) string {
	offset := msg.packet.OffsetAt(msg.when)
	delay := msg.packet.Delay(ntp.TimestampFromTime(msg.when).Value())
	if delay < 0 {
		delay = 0
	}
	offsetString := fmt.Sprintf("%+.6f", offset.Seconds())
	return fmt.Sprint(offsetString, " +/- ", delay.Seconds(), " ", server, " ", msg.address,
		" stratum ", msg.packet.Stratum(), " rtt ", msg.rtt.Round(time.Microsecond))
}

func (m queryCommandModel) Init() tea.Cmd {
	return tea.Batch(ntpQueryCommand(m.server, m.timeout), m.spinner.Tick)
}

func (m queryCommandModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}
		return m, nil
	case ntpQueryMessage:
		if msg.status != ntp.Succeeded {
			m.err = fmt.Errorf("query %s: %s", m.server, msg.status)
			return m, tea.Quit
		}
		m.result = formatResult(m.server, msg)
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	default:
		return m, nil
	}
}

func (m queryCommandModel) View() (s string) {
	if m.err != nil {
		return
	}

	if m.result == "" {
		s += textStyle("ntpkit - Query") + "\n\n"
		s += m.spinner.View() + " querying " + m.server + "\n\n"
		s += helpStyle("q: exit\n")
	} else {
		s += m.result + "\n"
	}
	return
}

func (m queryCommandModel) Err() error {
	return m.err
}
