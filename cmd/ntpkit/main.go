package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ntpkit/ntpkit/pkg/ntp"
	"github.com/sevlyar/go-daemon"
)

const defaultServers = "0.pool.ntp.org,1.pool.ntp.org,2.pool.ntp.org"

func main() {
	var query string
	var servers string
	var interval time.Duration
	var timeout time.Duration
	var noDaemon bool
	flag.StringVar(&query, "query", "", "Server to query once.")
	flag.StringVar(&query, "q", query, "Server to query once.")
	flag.StringVar(&servers, "servers", defaultServers, "Comma-separated servers to monitor.")
	flag.DurationVar(&interval, "interval", time.Minute, "Monitor sampling interval.")
	flag.DurationVar(&timeout, "timeout", ntp.DefaultQueryTimeout, "Per-query timeout.")
	flag.BoolVar(&noDaemon, "no-daemon", false, "Don't run the monitor as a daemon.")
	flag.Parse()

	if query != "" {
		handleQueryCommand(query, timeout)
		return
	}

	if !noDaemon {
		d, err := daemonCtx.Reborn()
		if err != nil {
			if errors.Is(err, daemon.ErrWouldBlock) {
				killDaemon()
				fmt.Println("Successfully stopped ntpkit monitor.")
				return
			}
			log.Fatal("Unable to run: ", err)
		}
		if d != nil {
			fmt.Printf("Monitor process (%s, %d) started successfully.\n", daemonName, d.Pid)
			return
		}
		defer daemonCtx.Release()

		log.Print("- - - - - - - - - - - - - - -")
		log.Print("monitor started ", os.Args)
	}

	runMonitor(strings.Split(servers, ","), interval, timeout)
}
