package scheduler

import "time"

// TickSource delivers periodic ticks by calling tick from its own goroutine.
// Start returns a function that stops delivery and waits for it to cease.
type TickSource interface {
	Start(tick func()) (stop func(), err error)
}

// IntervalTicker delivers ticks from a time.Ticker.
type IntervalTicker struct {
	Interval time.Duration
}

var _ TickSource = IntervalTicker{}

// Start launches the ticker goroutine.
func (it IntervalTicker) Start(tick func()) (func(), error) {
	interval := it.Interval
	if interval <= 0 {
		interval = DefaultTickInterval
	}

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				tick()
			case <-done:
				return
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}, nil
}

// Tick posts one tick. It is the only System method safe to call from any
// goroutine; the tick is accounted at the running task's next checkpoint.
func (s *System) Tick() {
	s.pending.Add(1)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Checkpoint accounts posted ticks and, if the running task's quantum ran
// out, yields on its behalf. CPU-bound task bodies call it periodically.
func (s *System) Checkpoint() {
	s.account()
	if !s.preemptDue {
		return
	}
	s.preemptDue = false
	if s.current == s.main || s.current.class == ClassSystem {
		return
	}
	s.metrics.RecordPreemption()
	s.Yield()
}

// Clock returns the logical time in ticks.
func (s *System) Clock() uint64 {
	s.account()
	return s.clock
}

// account applies every tick posted since the last checkpoint to the clock,
// the running task's processor time and the quantum.
func (s *System) account() {
	for n := s.pending.Swap(0); n > 0; n-- {
		s.advance()
	}
}

// advance applies one tick.
func (s *System) advance() {
	s.clock++
	t := s.current
	if t == nil {
		return
	}
	t.processor++
	if t.class != ClassUser {
		return
	}
	s.quantum--
	if s.quantum == 0 && t.status == StatusRunning {
		s.preemptDue = true
	}
}

// idle waits for the next tick. On the virtual clock the dispatcher posts
// the tick itself.
func (s *System) idle() {
	if s.ticks == nil {
		s.pending.Add(1)
		return
	}
	<-s.wake
}
