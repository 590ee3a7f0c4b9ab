//go:build linux

package main

import (
	"time"

	"github.com/hackebrot/go-green-scheduler/pkg/scheduler"
)

// signalTicker returns a SIGALRM driven tick source.
func signalTicker(interval time.Duration) (scheduler.TickSource, error) {
	return scheduler.SignalTicker{Interval: interval}, nil
}
