// Command ntpdiff queries the same NTP server through this module's client
// and through github.com/beevik/ntp, then prints both clock offsets side by
// side. Useful as a sanity check of the offset computation against an
// independent implementation.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	beevik "github.com/beevik/ntp"
	ntpc "github.com/ntpkit/ntpkit/pkg/ntp"
)

func main() {
	var timeout time.Duration
	flag.DurationVar(&timeout, "timeout", ntpc.DefaultQueryTimeout, "Per-query timeout.")
	flag.Parse()

	server := flag.Arg(0)
	if server == "" {
		server = "pool.ntp.org"
	}

	ours, err := queryOffset(server, timeout)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	resp, err := beevik.QueryWithOptions(server, beevik.QueryOptions{Timeout: timeout})
	if err != nil {
		fmt.Printf("Error: beevik/ntp query %s: %v\n", server, err)
		os.Exit(1)
	}

	fmt.Printf("server       %s\n", server)
	fmt.Printf("ntpkit       offset %+.6fs\n", ours.Seconds())
	fmt.Printf("beevik/ntp   offset %+.6fs\n", resp.ClockOffset.Seconds())
	fmt.Printf("difference   %.6fs\n", (ours - resp.ClockOffset).Abs().Seconds())
}

func queryOffset(server string, timeout time.Duration) (time.Duration, error) {
	type result struct {
		status ntpc.Status
		packet ntpc.Packet
		when   time.Time
	}
	results := make(chan result, 1)
	ntpc.StartQuery(server, func(_, _ string, status ntpc.Status, packet ntpc.Packet, _ time.Duration) {
		results <- result{status: status, packet: packet, when: time.Now()}
	}, timeout)

	res := <-results
	if res.status != ntpc.Succeeded {
		return 0, fmt.Errorf("query %s: %s", server, res.status)
	}
	return res.packet.OffsetAt(res.when), nil
}
