//go:build linux

package scheduler

import (
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// SignalTicker delivers ticks from an ITIMER_REAL interval timer, one per
// SIGALRM. Signals that arrive while a tick is still being posted coalesce.
// Only one SignalTicker may run per process; Start fails with
// ErrTickSourceBusy while another is running.
type SignalTicker struct {
	Interval time.Duration
}

// signalTickerActive guards the process interval timer.
var signalTickerActive atomic.Bool

var _ TickSource = SignalTicker{}

// Start arms the interval timer and forwards SIGALRM to tick.
func (st SignalTicker) Start(tick func()) (func(), error) {
	interval := st.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	if !signalTickerActive.CompareAndSwap(false, true) {
		return nil, ErrTickSourceBusy
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGALRM)

	tv := unix.NsecToTimeval(interval.Nanoseconds())
	if _, err := unix.Setitimer(unix.ItimerReal, unix.Itimerval{Interval: tv, Value: tv}); err != nil {
		signal.Stop(sigs)
		signalTickerActive.Store(false)
		return nil, fmt.Errorf("setitimer: %w", err)
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-sigs:
				tick()
			case <-done:
				return
			}
		}
	}()

	return func() {
		_, _ = unix.Setitimer(unix.ItimerReal, unix.Itimerval{})
		signal.Stop(sigs)
		close(done)
		<-stopped
		signalTickerActive.Store(false)
	}, nil
}
