package scheduler

import "github.com/hackebrot/go-green-scheduler/pkg/queue"

// selectNext picks the ready task with the lowest dynamic priority, the
// earliest in queue order on ties. Every other ready task ages by AgingStep
// down to MinPriority; the chosen task drops back to its static priority.
// It returns nil when the ready queue is empty and does not dequeue.
func selectNext(ready *queue.Queue, tasks *arena) *tcb {
	var next *tcb
	ready.Each(func(r queue.Ref) bool {
		t := tasks.task(r)
		if next == nil || t.dynamic < next.dynamic {
			next = t
		}
		return true
	})
	if next == nil {
		return nil
	}

	ready.Each(func(r queue.Ref) bool {
		t := tasks.task(r)
		if t != next {
			t.dynamic = max(t.dynamic+AgingStep, MinPriority)
		}
		return true
	})
	next.dynamic = next.static
	return next
}

// SetPriority sets a task's static priority, clamped to
// [MinPriority, MaxPriority], and resets its dynamic priority to match.
func (s *System) SetPriority(id TaskID, prio int) error {
	t, err := s.lookup(id)
	if err != nil {
		return err
	}
	prio = clampPriority(prio)
	t.static = prio
	t.dynamic = prio
	return nil
}

// Priority returns a task's static priority.
func (s *System) Priority(id TaskID) (int, error) {
	t, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	return t.static, nil
}

// clampPriority limits prio to [MinPriority, MaxPriority].
func clampPriority(prio int) int {
	return min(max(prio, MinPriority), MaxPriority)
}
