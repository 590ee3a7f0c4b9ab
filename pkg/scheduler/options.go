package scheduler

import (
	"log/slog"
	"time"

	"github.com/hackebrot/go-green-scheduler/pkg/coro"
	"github.com/hackebrot/go-green-scheduler/pkg/stack"
)

const (
	// DefaultStackSize is the stack buffer size of every task.
	DefaultStackSize = 64 * 1024

	// DefaultPriority is the static priority of new tasks.
	DefaultPriority = 0

	// MinPriority is the most favorable priority value.
	MinPriority = -20

	// MaxPriority is the least favorable priority value.
	MaxPriority = 20

	// AgingStep is added to the dynamic priority of every task passed over.
	AgingStep = -1

	// DefaultQuantum is the number of ticks a user task runs before preemption.
	DefaultQuantum = 20

	// DefaultTickInterval is the period of the default tick source.
	DefaultTickInterval = time.Millisecond
)

// Option configures a System.
type Option func(*System)

// WithQuantum sets the preemption quantum in ticks. Non-positive values keep the default.
func WithQuantum(ticks int) Option {
	return func(s *System) {
		if ticks > 0 {
			s.quantumTicks = ticks
		}
	}
}

// WithDefaultPriority sets the initial static priority of new tasks.
func WithDefaultPriority(prio int) Option {
	return func(s *System) {
		s.defaultPriority = clampPriority(prio)
	}
}

// WithStackSize sets the stack buffer size. Non-positive values keep the default.
func WithStackSize(size int) Option {
	return func(s *System) {
		if size > 0 {
			s.stackSize = size
		}
	}
}

// WithTickSource sets the tick source. A nil source selects the virtual
// clock: time only advances when the dispatcher is idle or Tick is called.
func WithTickSource(src TickSource) Option {
	return func(s *System) {
		s.ticks = src
	}
}

// WithLogger sets the logger receiving lifecycle and statistics records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *System) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *System) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithPlatform sets the context switching platform.
func WithPlatform(p coro.Platform) Option {
	return func(s *System) {
		if p != nil {
			s.platform = p
		}
	}
}

// WithStackAllocator sets the allocator for task stacks.
func WithStackAllocator(a stack.Allocator) Option {
	return func(s *System) {
		if a != nil {
			s.stacks = a
		}
	}
}
