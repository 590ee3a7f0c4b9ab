package scheduler

import "github.com/hackebrot/go-green-scheduler/pkg/queue"

// Sleep suspends the running task for the given number of ticks. It does
// nothing for non-positive durations or when called by the dispatcher.
func (s *System) Sleep(ticks int) {
	if ticks <= 0 || s.closed {
		return
	}
	s.account()

	t := s.current
	if t.class == ClassSystem {
		return
	}
	t.wakeAt = s.clock + uint64(ticks)
	s.suspend(s.sleeping)
}

// suspend takes the running task out of the ready queue, parks it in q and
// returns control to the dispatcher.
func (s *System) suspend(q *queue.Queue) {
	t := s.current
	if s.ready.Contains(t.ref()) {
		_ = s.ready.Remove(t.ref())
	}
	t.status = StatusSuspended
	if q != nil {
		if err := q.Append(t.ref()); err != nil {
			s.logger.Error("suspend failed", "task_id", t.id, "error", err)
		}
	}
	_ = s.switchTo(s.dispatcher)
}

// awake moves a suspended task out of q into the ready queue. The running
// task keeps the processor.
func (s *System) awake(t *tcb, q *queue.Queue) {
	if t == nil {
		return
	}
	if !q.Empty() {
		if err := q.Remove(t.ref()); err != nil {
			s.logger.Error("awake failed", "task_id", t.id, "error", err)
		}
	}
	t.status = StatusReady
	if err := s.ready.Append(t.ref()); err != nil {
		s.logger.Error("awake failed", "task_id", t.id, "error", err)
	}
}

// wakeSleepers readies every sleeping task whose wake time has come, in
// sleeping queue order. Due tasks are collected before any is removed.
func (s *System) wakeSleepers() {
	var due []*tcb
	s.sleeping.Each(func(r queue.Ref) bool {
		if t := s.arena.task(r); s.clock >= t.wakeAt {
			due = append(due, t)
		}
		return true
	})
	for _, t := range due {
		s.awake(t, s.sleeping)
	}
}
