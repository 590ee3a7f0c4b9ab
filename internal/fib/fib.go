package fib

import (
	"fmt"
	"log/slog"

	"github.com/hackebrot/go-fibonacci"

	"github.com/hackebrot/go-green-scheduler/pkg/scheduler"
)

// ExitUnsupported is the exit code of a task asked for an unsupported term.
const ExitUnsupported = 1

// Task computes the Fibonacci numbers F(1)..F(n) using a specified strategy,
// as the body of a scheduler task.
type Task struct {
	name     string
	n        int
	strategy fibonacci.Strategy
	sys      *scheduler.System

	terms  int
	result any
}

// Run is the task body. It offers the scheduler a preemption point after
// every term.
func (t *Task) Run(any) {
	slog.Info("starting computation", "task_name", t.name, "task_id", t.sys.ID(), "n", t.n)

	if t.n < 1 {
		slog.Error("computation failed", "task_name", t.name, "error", fmt.Errorf("n=%d is not supported", t.n))
		t.sys.Exit(ExitUnsupported)
		return
	}

	for k := 1; k <= t.n; k++ {
		t.result = t.strategy.Compute(k)
		t.terms = k
		t.sys.Checkpoint()
	}
	slog.Info("computation complete", "task_name", t.name, "task_id", t.sys.ID(), "n", t.n, "result", t.result)
}

// Name returns the task name.
func (t *Task) Name() string {
	return t.name
}

// Terms returns how many terms have been computed so far.
func (t *Task) Terms() int {
	return t.terms
}

// Result returns the last computed term, or nil before the first.
func (t *Task) Result() any {
	return t.result
}

// NewTask creates a new Fibonacci computation task for sys.
func NewTask(sys *scheduler.System, name string, n int, strategy fibonacci.Strategy) *Task {
	return &Task{
		name:     name,
		n:        n,
		strategy: strategy,
		sys:      sys,
	}
}
