package scheduler

import "fmt"

// Wait blocks the running task until the given task terminates and returns
// its exit code. A task that already terminated answers immediately without
// a context switch. Every waiter of a task is woken, in arrival order, when
// that task exits.
func (s *System) Wait(id TaskID) (int, error) {
	target, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	if target.exited {
		return target.exitCode, nil
	}
	if s.closed {
		return 0, ErrClosed
	}
	if target.class == ClassSystem {
		return 0, fmt.Errorf("wait for task %d: %w", target.id, ErrSystemTask)
	}

	t := s.current
	if t == target {
		return 0, ErrWaitSelf
	}
	if t.class == ClassSystem {
		return 0, fmt.Errorf("wait from task %d: %w", t.id, ErrSystemTask)
	}

	s.account()
	s.suspend(target.waiting)

	if !target.exited {
		if target.waiting.Contains(t.ref()) {
			_ = target.waiting.Remove(t.ref())
		}
		return 0, fmt.Errorf("wait for task %d: %w", target.id, ErrDeadlock)
	}
	return target.exitCode, nil
}
