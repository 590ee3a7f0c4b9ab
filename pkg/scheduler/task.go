package scheduler

import (
	"fmt"
	"runtime/debug"

	"github.com/hackebrot/go-green-scheduler/pkg/coro"
	"github.com/hackebrot/go-green-scheduler/pkg/queue"
)

// TaskID identifies a task. The bootstrap task is 0, the dispatcher 1 and
// user tasks are numbered from 2 in creation order.
type TaskID int

const (
	// Self refers to the running task wherever a TaskID is accepted.
	Self TaskID = -1

	// NoTask is returned alongside an error when no task was created.
	NoTask TaskID = -2

	// MainID is the bootstrap task.
	MainID TaskID = 0

	// DispatcherID is the dispatcher task.
	DispatcherID TaskID = 1
)

// ExitPanic is the exit code of a task whose body panicked.
const ExitPanic = -1

// Entry is the body of a task.
type Entry func(arg any)

// Status is the scheduling state of a task.
type Status int

const (
	// StatusReady tasks wait in the ready queue for the processor.
	StatusReady Status = iota
	// StatusRunning is the task that holds the processor.
	StatusRunning
	// StatusSuspended tasks sleep or wait for another task to exit.
	StatusSuspended
	// StatusTerminated tasks have exited and keep only their exit code.
	StatusTerminated
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusRunning:
		return "running"
	case StatusSuspended:
		return "suspended"
	case StatusTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Class separates the dispatcher from ordinary tasks. System tasks are
// never preempted and never counted as live user tasks.
type Class int

const (
	// ClassUser is the class of the bootstrap task and every created task.
	ClassUser Class = iota
	// ClassSystem is the class of the dispatcher.
	ClassSystem
)

// String returns the lower-case name of the class.
func (c Class) String() string {
	switch c {
	case ClassUser:
		return "user"
	case ClassSystem:
		return "system"
	default:
		return "unknown"
	}
}

// tcb is the task control block.
type tcb struct {
	links queue.Links

	id    TaskID
	ctx   coro.Context
	stack []byte
	entry Entry
	arg   any

	status   Status
	class    Class
	exitCode int
	exited   bool

	static  int
	dynamic int

	execution       uint64
	processor       uint64
	activations     uint64
	created         uint64
	firstActivation uint64
	lastActivation  uint64
	dispatched      bool

	wakeAt  uint64
	waiting *queue.Queue
}

// ref returns the queue reference of the task.
func (t *tcb) ref() queue.Ref {
	return queue.Ref(t.id + 1)
}

// arena owns every task control block. Slots are never reused, so a
// terminated task's exit code stays readable.
type arena struct {
	tasks []*tcb
}

var _ queue.Arena = (*arena)(nil)

// Links resolves a queue reference to the task's links.
func (a *arena) Links(r queue.Ref) *queue.Links {
	t := a.task(r)
	if t == nil {
		return nil
	}
	return &t.links
}

// task resolves a queue reference to its task, or nil.
func (a *arena) task(r queue.Ref) *tcb {
	if r == queue.Nil || int(r) > len(a.tasks) {
		return nil
	}
	return a.tasks[r-1]
}

// add assigns the next id to t and stores it.
func (a *arena) add(t *tcb) {
	t.id = TaskID(len(a.tasks))
	a.tasks = append(a.tasks, t)
}

// Create makes a user task that will run entry(arg), puts it at the tail of
// the ready queue and returns its id.
func (s *System) Create(entry Entry, arg any) (TaskID, error) {
	if s.closed {
		return NoTask, ErrClosed
	}
	if entry == nil {
		return NoTask, ErrNilEntry
	}
	s.account()

	t, err := s.newTask(entry, arg, ClassUser)
	if err != nil {
		s.logger.Error("task creation failed", "error", err)
		return NoTask, err
	}
	if err := s.ready.Append(t.ref()); err != nil {
		return NoTask, fmt.Errorf("enqueue task %d: %w", t.id, err)
	}
	s.userTasks++

	s.logger.Debug("task created", "task_id", t.id, "count_tasks", s.userTasks)
	return t.id, nil
}

// newTask allocates a stack and a suspended context for entry(arg) and adds
// the task to the arena. It touches no queue and no counter.
func (s *System) newTask(entry Entry, arg any, class Class) (*tcb, error) {
	buf, err := s.stacks.Alloc(s.stackSize)
	if err != nil {
		return nil, fmt.Errorf("%w: allocate stack: %w", ErrResourceExhausted, err)
	}

	t := &tcb{
		stack:   buf,
		entry:   entry,
		arg:     arg,
		status:  StatusReady,
		class:   class,
		static:  s.defaultPriority,
		dynamic: s.defaultPriority,
		created: s.clock,
	}
	ctx, err := s.platform.Make(buf, s.run, t)
	if err != nil {
		_ = s.stacks.Free(buf)
		return nil, fmt.Errorf("%w: initialize context: %w", ErrResourceExhausted, err)
	}
	t.ctx = ctx
	t.waiting = queue.New(s.arena)
	s.arena.add(t)

	s.metrics.RecordTaskCreated(class)
	return t, nil
}

// run is the first frame of every task context. A body that returns exits
// with code 0; a body that panics exits with ExitPanic.
func (s *System) run(arg any) {
	t := arg.(*tcb)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if t.class == ClassSystem {
			panic(r)
		}
		s.logger.Error("task panicked", "task_id", t.id, "panic", r, "stack", string(debug.Stack()))
		s.metrics.RecordTaskPanic(t.id, r)
		s.Exit(ExitPanic)
	}()

	t.entry(t.arg)
	s.Exit(0)
}

// Switch transfers control from the running task to the given task. The
// caller must have set its own status beforehand; Switch returns when some
// later switch resumes the caller.
func (s *System) Switch(id TaskID) error {
	t, err := s.lookup(id)
	if err != nil {
		return err
	}
	if t.status == StatusTerminated {
		return fmt.Errorf("switch to task %d: %w", t.id, ErrTerminated)
	}
	return s.switchTo(t)
}

// switchTo makes t the running task and resumes its context.
func (s *System) switchTo(t *tcb) error {
	prev := s.current
	if prev == t {
		return nil
	}

	s.current = t
	t.status = StatusRunning
	t.activations++
	t.lastActivation = s.clock
	if !t.dispatched {
		t.dispatched = true
		t.firstActivation = s.clock
	}
	s.metrics.RecordContextSwitch()

	if err := s.platform.Swap(prev.ctx, t.ctx); err != nil {
		s.current = prev
		prev.status = StatusRunning
		s.logger.Error("context switch failed", "from_task_id", prev.id, "task_id", t.id, "error", err)
		return fmt.Errorf("switch to task %d: %w", t.id, err)
	}
	return nil
}

// Exit terminates the running task with the given exit code and wakes every
// task waiting for it. For the bootstrap task, Exit first lets the
// dispatcher run all remaining tasks, then shuts the System down and returns.
// For any other task Exit does not return.
func (s *System) Exit(code int) {
	if s.closed {
		return
	}
	s.account()

	t := s.current
	if t.class == ClassSystem {
		s.logger.Error("system task cannot exit", "task_id", t.id)
		return
	}

	t.exitCode = code
	t.exited = true
	t.execution = s.clock - t.created
	for !t.waiting.Empty() {
		s.awake(s.arena.task(t.waiting.Head()), t.waiting)
	}
	s.report(t)

	if t == s.main {
		if s.userTasks > 0 || !s.sleeping.Empty() {
			t.status = StatusSuspended
			_ = s.switchTo(s.dispatcher)
		}
		s.shutdown()
		return
	}

	t.status = StatusTerminated
	_ = s.switchTo(s.dispatcher)
}

// Yield gives up the processor: the running task goes back to the tail of
// the ready queue. It is a no-op for the bootstrap task and the dispatcher.
func (s *System) Yield() {
	s.account()
	t := s.current
	if s.closed || t == s.main || t.class == ClassSystem {
		return
	}
	t.status = StatusReady
	_ = s.switchTo(s.dispatcher)
}

// StackOf returns the stack buffer owned by a task, or nil once released.
func (s *System) StackOf(id TaskID) ([]byte, error) {
	t, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return t.stack, nil
}

// lookup resolves id, with Self meaning the running task.
func (s *System) lookup(id TaskID) (*tcb, error) {
	if id == Self {
		return s.current, nil
	}
	if id < 0 || int(id) >= len(s.arena.tasks) {
		return nil, fmt.Errorf("%w: %d", ErrNoTask, id)
	}
	return s.arena.tasks[id], nil
}

// release frees a task's stack and discards its context, each exactly once.
func (s *System) release(t *tcb) {
	if t.stack != nil {
		if err := s.stacks.Free(t.stack); err != nil {
			s.logger.Error("stack release failed", "task_id", t.id, "error", err)
		}
		t.stack = nil
	}
	if t.ctx != nil && !t.ctx.Released() {
		if err := s.platform.Release(t.ctx); err != nil {
			s.logger.Error("context release failed", "task_id", t.id, "error", err)
		}
	}
}
