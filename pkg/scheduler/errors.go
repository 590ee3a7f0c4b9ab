package scheduler

import "errors"

var (
	// ErrNoTask is returned for ids that name no task.
	ErrNoTask = errors.New("scheduler: no such task")

	// ErrNilEntry is returned when creating a task without a body.
	ErrNilEntry = errors.New("scheduler: nil entry function")

	// ErrTerminated is returned when switching to a terminated task.
	ErrTerminated = errors.New("scheduler: task terminated")

	// ErrSystemTask is returned when an operation does not apply to the dispatcher.
	ErrSystemTask = errors.New("scheduler: not permitted for system task")

	// ErrWaitSelf is returned when a task waits for itself.
	ErrWaitSelf = errors.New("scheduler: task cannot wait for itself")

	// ErrDeadlock is returned by Wait when every remaining task is blocked.
	ErrDeadlock = errors.New("scheduler: deadlock, all tasks blocked")

	// ErrClosed is returned after the bootstrap task has exited.
	ErrClosed = errors.New("scheduler: system shut down")

	// ErrTickSourceBusy is returned when a process-wide tick source is already running.
	ErrTickSourceBusy = errors.New("scheduler: tick source already running")

	// ErrResourceExhausted wraps stack allocation and context initialization failures.
	ErrResourceExhausted = errors.New("scheduler: resource exhausted")
)
