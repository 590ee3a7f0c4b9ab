package scheduler

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpoint_QuantumPreemption(t *testing.T) {
	m := newCountingMetrics()
	s, _ := newTestSystem(t, WithQuantum(3), WithMetrics(m))

	var trace strings.Builder
	body := func(arg any) {
		for i := 0; i < 6; i++ {
			trace.WriteString(arg.(string))
			s.Tick()
			s.Checkpoint()
		}
	}
	a, err := s.Create(body, "A")
	require.NoError(t, err)
	b, err := s.Create(body, "B")
	require.NoError(t, err)

	s.Exit(0)

	assert.Equal(t, "AAABBBAAABBB", trace.String())
	assert.Equal(t, 4, m.preemptions)
	assert.Equal(t, uint64(12), s.Clock())

	want := map[TaskID]TaskStats{
		a: {
			ID: a, Class: ClassUser, Status: StatusTerminated, Exited: true,
			ExecutionTicks: 12, ProcessorTicks: 6, Activations: 3,
			FirstActivation: 0, LastActivation: 12,
		},
		b: {
			ID: b, Class: ClassUser, Status: StatusTerminated, Exited: true,
			ExecutionTicks: 12, ProcessorTicks: 6, Activations: 3,
			FirstActivation: 3, LastActivation: 12,
		},
	}
	for id, w := range want {
		got, err := s.Stats(id)
		require.NoError(t, err)
		if diff := cmp.Diff(w, got); diff != "" {
			t.Errorf("task %d stats mismatch (-want +got):\n%s", id, diff)
		}
	}
}

func TestCheckpoint_BootstrapIsNotPreempted(t *testing.T) {
	m := newCountingMetrics()
	s, _ := newTestSystem(t, WithQuantum(1), WithMetrics(m))

	_, err := s.Create(func(any) {}, nil)
	require.NoError(t, err)

	s.Tick()
	s.Checkpoint()
	assert.Equal(t, MainID, s.ID())
	assert.Equal(t, uint64(1), s.Clock())
	assert.Zero(t, m.preemptions)

	s.Exit(0)
}

func TestCheckpoint_NoTicksNoYield(t *testing.T) {
	s, _ := newTestSystem(t, WithQuantum(1))

	var trace strings.Builder
	body := func(arg any) {
		for i := 0; i < 3; i++ {
			trace.WriteString(arg.(string))
			s.Checkpoint()
		}
	}
	_, err := s.Create(body, "A")
	require.NoError(t, err)
	_, err = s.Create(body, "B")
	require.NoError(t, err)

	s.Exit(0)
	assert.Equal(t, "AAABBB", trace.String())
}

func TestIntervalTicker_StartStop(t *testing.T) {
	var n atomic.Int64
	stop, err := IntervalTicker{Interval: 100 * time.Microsecond}.Start(func() { n.Add(1) })
	require.NoError(t, err)

	require.Eventually(t, func() bool { return n.Load() >= 3 }, time.Second, time.Millisecond)
	stop()

	after := n.Load()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, after, n.Load(), "no ticks after stop")
}

func TestIntervalTicker_PreemptsSpinningTask(t *testing.T) {
	s, _ := newTestSystem(t,
		WithTickSource(IntervalTicker{Interval: 100 * time.Microsecond}),
		WithQuantum(2),
	)

	var other bool
	spins := 0
	_, err := s.Create(func(any) {
		for !other {
			spins++
			s.Checkpoint()
		}
	}, nil)
	require.NoError(t, err)
	_, err = s.Create(func(any) { other = true }, nil)
	require.NoError(t, err)

	s.Exit(0)
	assert.True(t, other)
	assert.Positive(t, spins)
}

func TestIntervalTicker_Sleep(t *testing.T) {
	s, _ := newTestSystem(t, WithTickSource(IntervalTicker{Interval: 100 * time.Microsecond}))

	var start, woke uint64
	_, err := s.Create(func(any) {
		start = s.Clock()
		s.Sleep(5)
		woke = s.Clock()
	}, nil)
	require.NoError(t, err)

	s.Exit(0)
	assert.GreaterOrEqual(t, woke-start, uint64(5))
}
