// Package scheduler implements a user-level task runtime: tasks with their
// own execution contexts, a dispatcher task that picks the next task by
// priority with aging, tick-driven preemption, timed sleep and join.
//
// A System runs exactly one task at a time. Every method must be called from
// the task currently holding control (the goroutine that called New is the
// bootstrap task). Tick is the only method that is safe to call from any
// goroutine.
package scheduler

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/hackebrot/go-green-scheduler/pkg/coro"
	"github.com/hackebrot/go-green-scheduler/pkg/queue"
	"github.com/hackebrot/go-green-scheduler/pkg/stack"
)

// System is the scheduler state: the task arena, the ready and sleeping
// queues, the live user task count and the logical clock.
type System struct {
	quantumTicks    int
	defaultPriority int
	stackSize       int
	ticks           TickSource
	logger          *slog.Logger
	metrics         Metrics
	platform        coro.Platform
	stacks          stack.Allocator

	arena      *arena
	current    *tcb
	main       *tcb
	dispatcher *tcb
	ready      *queue.Queue
	sleeping   *queue.Queue
	userTasks  int
	clock      uint64
	quantum    int
	preemptDue bool
	closed     bool

	pending   atomic.Uint64
	wake      chan struct{}
	stopTicks func()
}

// New initializes a System: it adopts the calling goroutine as the bootstrap
// task (id 0), creates the dispatcher (id 1) and starts the tick source.
// Failing to create the dispatcher is fatal to the System and returned.
func New(opts ...Option) (*System, error) {
	s := &System{
		quantumTicks:    DefaultQuantum,
		defaultPriority: DefaultPriority,
		stackSize:       DefaultStackSize,
		ticks:           IntervalTicker{Interval: DefaultTickInterval},
		logger:          slog.Default(),
		metrics:         &NilMetrics{},
		platform:        coro.Goroutines{},
		stacks:          stack.Heap{},
		arena:           &arena{},
		wake:            make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ready = queue.New(s.arena)
	s.sleeping = queue.New(s.arena)
	s.quantum = s.quantumTicks

	s.main = &tcb{
		ctx:         s.platform.Bootstrap(),
		status:      StatusRunning,
		class:       ClassUser,
		static:      s.defaultPriority,
		dynamic:     s.defaultPriority,
		activations: 1,
		dispatched:  true,
	}
	s.main.waiting = queue.New(s.arena)
	s.arena.add(s.main)
	s.current = s.main

	dispatcher, err := s.newTask(s.dispatch, nil, ClassSystem)
	if err != nil {
		return nil, fmt.Errorf("create dispatcher: %w", err)
	}
	s.dispatcher = dispatcher

	if s.ticks != nil {
		stop, err := s.ticks.Start(s.Tick)
		if err != nil {
			s.release(dispatcher)
			return nil, fmt.Errorf("start tick source: %w", err)
		}
		s.stopTicks = stop
	}

	s.logger.Info("system initialized",
		"quantum", s.quantumTicks,
		"default_priority", s.defaultPriority,
		"stack_size", s.stackSize,
		"virtual_clock", s.ticks == nil,
	)
	return s, nil
}

// ID returns the id of the running task.
func (s *System) ID() TaskID {
	return s.current.id
}

// shutdown stops the tick source and tears down the dispatcher once the
// bootstrap task is exiting for good.
func (s *System) shutdown() {
	s.account()
	s.closed = true
	if s.stopTicks != nil {
		s.stopTicks()
		s.stopTicks = nil
	}

	// Tasks still parked here were deadlocked; unwind their goroutines.
	for _, t := range s.arena.tasks {
		if t == s.main || t == s.dispatcher || t.status == StatusTerminated {
			continue
		}
		s.release(t)
	}

	d := s.dispatcher
	d.execution = s.clock - d.created
	d.status = StatusTerminated
	s.report(d)
	s.release(d)
}
