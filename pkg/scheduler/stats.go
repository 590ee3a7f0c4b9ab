package scheduler

import (
	"fmt"
	"io"

	"github.com/hackebrot/go-green-scheduler/pkg/queue"
)

// TaskStats is a snapshot of a task control block.
type TaskStats struct {
	ID              TaskID
	Class           Class
	Status          Status
	Exited          bool
	ExitCode        int
	StaticPriority  int
	DynamicPriority int

	// ExecutionTicks is the span from creation to exit, set at exit.
	ExecutionTicks  uint64
	ProcessorTicks  uint64
	Activations     uint64
	CreatedAt       uint64
	FirstActivation uint64
	LastActivation  uint64
	WakeAt          uint64
}

// Stats returns a snapshot of the given task.
func (s *System) Stats(id TaskID) (TaskStats, error) {
	t, err := s.lookup(id)
	if err != nil {
		return TaskStats{}, err
	}
	return t.stats(), nil
}

// stats snapshots the task's accounting.
func (t *tcb) stats() TaskStats {
	return TaskStats{
		ID:              t.id,
		Class:           t.class,
		Status:          t.status,
		Exited:          t.exited,
		ExitCode:        t.exitCode,
		StaticPriority:  t.static,
		DynamicPriority: t.dynamic,
		ExecutionTicks:  t.execution,
		ProcessorTicks:  t.processor,
		Activations:     t.activations,
		CreatedAt:       t.created,
		FirstActivation: t.firstActivation,
		LastActivation:  t.lastActivation,
		WakeAt:          t.wakeAt,
	}
}

// Tasks returns the ids of every task ever created, in creation order.
func (s *System) Tasks() []TaskID {
	ids := make([]TaskID, len(s.arena.tasks))
	for i, t := range s.arena.tasks {
		ids[i] = t.id
	}
	return ids
}

// Ready returns the ids in the ready queue, head first.
func (s *System) Ready() []TaskID {
	return s.ids(s.ready)
}

// Sleeping returns the ids in the sleeping queue, head first.
func (s *System) Sleeping() []TaskID {
	return s.ids(s.sleeping)
}

// ids lists the members of q in queue order.
func (s *System) ids(q *queue.Queue) []TaskID {
	refs := q.Refs()
	ids := make([]TaskID, len(refs))
	for i, r := range refs {
		ids[i] = s.arena.task(r).id
	}
	return ids
}

// Dump writes the ready and sleeping queues, one line each.
func (s *System) Dump(w io.Writer) error {
	format := func(r queue.Ref) string {
		t := s.arena.task(r)
		return fmt.Sprintf("%d<%d>", t.id, t.dynamic)
	}
	if err := s.ready.Print(w, "ready", format); err != nil {
		return err
	}
	return s.sleeping.Print(w, "sleeping", func(r queue.Ref) string {
		t := s.arena.task(r)
		return fmt.Sprintf("%d@%d", t.id, t.wakeAt)
	})
}

// report emits the exit statistics record of a task.
func (s *System) report(t *tcb) {
	s.logger.Info("task exit",
		"task_id", t.id,
		"task_class", t.class.String(),
		"exit_code", t.exitCode,
		"execution_ticks", t.execution,
		"processor_ticks", t.processor,
		"activations", t.activations,
	)
	s.metrics.RecordTaskExit(t.stats())
}
