package queue

import "errors"

var (
	// ErrNoQueue is returned when the queue handle is nil.
	ErrNoQueue = errors.New("queue: queue does not exist")

	// ErrNilElement is returned for a Nil reference or one the arena does not know.
	ErrNilElement = errors.New("queue: element does not exist")

	// ErrElementQueued is returned when appending an element that already belongs to a queue.
	ErrElementQueued = errors.New("queue: element already belongs to a queue")

	// ErrEmpty is returned when removing from an empty queue.
	ErrEmpty = errors.New("queue: queue is empty")

	// ErrNotMember is returned when removing an element that is not in the queue.
	ErrNotMember = errors.New("queue: element does not belong to this queue")
)
