package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ntpkit/ntpkit/pkg/ntp"
	"golang.org/x/sys/unix"
)

// runMonitor samples every server once per interval and logs each result.
// It returns once a SIGINT/SIGTERM arrives and the in-flight queries have
// drained.
func runMonitor(servers []string, interval, timeout time.Duration) {
	client := ntp.NewClient(logSample)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sample := func() {
		for _, server := range servers {
			client.QueryWithTimeout(server, timeout)
		}
	}
	sample()
	for {
		select {
		case <-ticker.C:
			sample()
		case sig := <-stop:
			log.Print("monitor stopping on ", sig)
			client.Cancel()
			client.Wait()
			return
		}
	}
}

func logSample(server, address string, status ntp.Status, packet ntp.Packet, rtt time.Duration) {
	if status != ntp.Succeeded {
		log.Printf("%s (%s): %s", server, address, status)
		return
	}

	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_REALTIME, &ts); err != nil {
		log.Printf("%s (%s): reading system clock: %v", server, address, err)
		return
	}
	destination := ntp.TimestampFromUnix(ts)
	offset := packet.OffsetAt(destination.Time())
	delay := packet.Delay(destination.Value())
	if delay < 0 {
		delay = 0
	}
	log.Printf("%s (%s): offset %+.6fs delay %.6fs rtt %s stratum %d",
		server, address, offset.Seconds(), delay.Seconds(), rtt.Round(time.Microsecond), packet.Stratum())
}
