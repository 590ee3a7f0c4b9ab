package scheduler

// Metrics receives scheduler events for monitoring.
//
// Methods are called from whichever task holds control and must not call
// back into the System.
type Metrics interface {
	// RecordTaskCreated counts a new task of the given class.
	RecordTaskCreated(class Class)

	// RecordTaskExit records the final statistics of a task.
	RecordTaskExit(stats TaskStats)

	// RecordContextSwitch counts one transfer of control.
	RecordContextSwitch()

	// RecordPreemption counts a yield forced by quantum expiry.
	RecordPreemption()

	// RecordTaskPanic counts a task body that panicked.
	RecordTaskPanic(id TaskID, value any)

	// RecordQueueDepth records the length of a named queue.
	RecordQueueDepth(queue string, depth int)

	// RecordClock records the logical clock.
	RecordClock(ticks uint64)
}

// NilMetrics discards every event. It is the default.
type NilMetrics struct{}

var _ Metrics = (*NilMetrics)(nil)

// RecordTaskCreated is a no-op.
func (m *NilMetrics) RecordTaskCreated(class Class) {}

// RecordTaskExit is a no-op.
func (m *NilMetrics) RecordTaskExit(stats TaskStats) {}

// RecordContextSwitch is a no-op.
func (m *NilMetrics) RecordContextSwitch() {}

// RecordPreemption is a no-op.
func (m *NilMetrics) RecordPreemption() {}

// RecordTaskPanic is a no-op.
func (m *NilMetrics) RecordTaskPanic(id TaskID, value any) {}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(queue string, depth int) {}

// RecordClock is a no-op.
func (m *NilMetrics) RecordClock(ticks uint64) {}
