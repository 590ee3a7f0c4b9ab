package scheduler

// dispatch is the dispatcher body. Each pass of the outer loop runs tasks
// until no user task is live and nobody sleeps, then hands control back to
// the bootstrap task. The bootstrap task may come back (Exit, Sleep, Wait)
// and start another pass.
func (s *System) dispatch(any) {
	for {
		s.dispatchRound()

		if s.ready.Contains(s.main.ref()) {
			_ = s.ready.Remove(s.main.ref())
		}
		_ = s.switchTo(s.main)
	}
}

// dispatchRound runs tasks until no user task is live and nobody sleeps, or
// until the remaining tasks are deadlocked.
func (s *System) dispatchRound() {
	for s.userTasks > 0 || !s.sleeping.Empty() {
		s.account()
		s.wakeSleepers()

		next := selectNext(s.ready, s.arena)
		s.metrics.RecordQueueDepth("ready", s.ready.Size())
		s.metrics.RecordQueueDepth("sleeping", s.sleeping.Size())
		s.metrics.RecordClock(s.clock)

		if next == nil {
			if s.sleeping.Empty() {
				s.logger.Error("deadlock detected", "count_tasks", s.userTasks, "clock", s.clock)
				return
			}
			s.idle()
			continue
		}

		if err := s.ready.Remove(next.ref()); err != nil {
			s.logger.Error("dequeue failed", "task_id", next.id, "error", err)
			continue
		}
		s.quantum = s.quantumTicks
		s.preemptDue = false
		if err := s.switchTo(next); err != nil {
			next.status = StatusReady
			_ = s.ready.Append(next.ref())
			continue
		}

		switch next.status {
		case StatusTerminated:
			s.userTasks--
			s.release(next)
		case StatusReady:
			// On the virtual clock a task that yields while others sleep
			// spends one tick, so sleepers still reach their wake time.
			if s.ticks == nil && !s.sleeping.Empty() {
				s.pending.Add(1)
			}
			if err := s.ready.Append(next.ref()); err != nil {
				s.logger.Error("requeue failed", "task_id", next.id, "error", err)
			}
		}
	}
}
