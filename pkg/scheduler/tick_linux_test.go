//go:build linux

package scheduler

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalTicker_Sleep(t *testing.T) {
	s, _ := newTestSystem(t, WithTickSource(SignalTicker{Interval: time.Millisecond}))

	var start, woke uint64
	_, err := s.Create(func(any) {
		start = s.Clock()
		s.Sleep(3)
		woke = s.Clock()
	}, nil)
	require.NoError(t, err)

	s.Exit(0)
	assert.GreaterOrEqual(t, woke-start, uint64(3))
}

func TestSignalTicker_OnePerProcess(t *testing.T) {
	first := SignalTicker{Interval: time.Second}
	stop, err := first.Start(func() {})
	require.NoError(t, err)

	_, err = SignalTicker{Interval: time.Second}.Start(func() {})
	assert.ErrorIs(t, err, ErrTickSourceBusy)

	_, err = New(
		WithTickSource(SignalTicker{Interval: time.Second}),
		WithLogger(slog.New(&recorder{})),
	)
	assert.ErrorIs(t, err, ErrTickSourceBusy)

	stop()
	stop, err = first.Start(func() {})
	require.NoError(t, err)
	stop()
}
