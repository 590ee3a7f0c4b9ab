//go:build !linux

package main

import (
	"errors"
	"time"

	"github.com/hackebrot/go-green-scheduler/pkg/scheduler"
)

// signalTicker reports that interval timer signals are unsupported here.
func signalTicker(time.Duration) (scheduler.TickSource, error) {
	return nil, errors.New("signal timer ticks are only supported on linux")
}
