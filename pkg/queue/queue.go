// Package queue implements an intrusive, circular, doubly linked queue.
//
// Elements are not owned by the queue. Each element carries its own Links
// and lives in an Arena that resolves a Ref to those links, so the same
// queue code works for any element type. An element belongs to at most one
// queue at a time: Append refuses elements whose links are still set.
package queue

import (
	"fmt"
	"io"
	"strings"
)

// Ref identifies an element of an Arena. The zero Ref is no element.
type Ref uint32

// Nil is the reference to no element.
const Nil Ref = 0

// Links are the neighbor references embedded in every queueable element.
//
// The zero value means the element is not in any queue. A queued element
// alone in its queue links to itself on both sides.
type Links struct {
	Prev, Next Ref
}

// Linked reports whether the element is currently a member of some queue.
func (l *Links) Linked() bool {
	return l.Prev != Nil || l.Next != Nil
}

// reset detaches the links from any queue.
func (l *Links) reset() {
	l.Prev, l.Next = Nil, Nil
}

// Arena resolves element references to their links.
//
// Links returns nil when r does not identify an element.
type Arena interface {
	Links(r Ref) *Links
}

// Queue is a circular queue of arena elements. The zero value is not usable;
// create queues with New.
type Queue struct {
	arena Arena
	head  Ref
}

// New creates an empty queue over the given arena.
func New(arena Arena) *Queue {
	return &Queue{arena: arena}
}

// Head returns the first element, or Nil if the queue is empty.
func (q *Queue) Head() Ref {
	if q == nil {
		return Nil
	}
	return q.head
}

// Empty reports whether the queue has no elements.
func (q *Queue) Empty() bool {
	return q == nil || q.head == Nil
}

// Size returns the number of elements in the queue.
func (q *Queue) Size() int {
	if q.Empty() {
		return 0
	}
	count := 1
	for r := q.links(q.head).Next; r != q.head; r = q.links(r).Next {
		count++
	}
	return count
}

// Each calls fn for every element from head to tail, stopping early if fn
// returns false. fn may remove the element it was given, but only if it
// then returns false.
func (q *Queue) Each(fn func(r Ref) bool) {
	if q.Empty() {
		return
	}
	head := q.head
	r := head
	for {
		next := q.links(r).Next
		if !fn(r) {
			return
		}
		r = next
		if r == head {
			return
		}
	}
}

// Refs returns the elements in queue order.
func (q *Queue) Refs() []Ref {
	refs := make([]Ref, 0, q.Size())
	q.Each(func(r Ref) bool {
		refs = append(refs, r)
		return true
	})
	return refs
}

// Contains reports whether r is a member of this queue.
func (q *Queue) Contains(r Ref) bool {
	if r == Nil {
		return false
	}
	found := false
	q.Each(func(e Ref) bool {
		found = e == r
		return !found
	})
	return found
}

// Append inserts r at the tail of the queue.
func (q *Queue) Append(r Ref) error {
	if q == nil || q.arena == nil {
		return ErrNoQueue
	}
	l := q.lookup(r)
	if l == nil {
		return ErrNilElement
	}
	if l.Linked() {
		return fmt.Errorf("append %d: %w", r, ErrElementQueued)
	}

	if q.head == Nil {
		q.head = r
		l.Prev, l.Next = r, r
		return nil
	}

	first := q.links(q.head)
	last := first.Prev
	l.Next = q.head
	l.Prev = last
	q.links(last).Next = r
	first.Prev = r
	return nil
}

// Remove takes r out of the queue after verifying it is a member. The
// membership check walks the queue; use Unlink when membership is known.
func (q *Queue) Remove(r Ref) error {
	if q == nil || q.arena == nil {
		return ErrNoQueue
	}
	if q.head == Nil {
		return ErrEmpty
	}
	if q.lookup(r) == nil {
		return ErrNilElement
	}
	if !q.Contains(r) {
		return fmt.Errorf("remove %d: %w", r, ErrNotMember)
	}
	q.unlink(r)
	return nil
}

// Unlink takes r out of the queue without walking it. r must be a member of
// q; passing an element of another queue corrupts both.
func (q *Queue) Unlink(r Ref) error {
	if q == nil || q.arena == nil {
		return ErrNoQueue
	}
	if q.head == Nil {
		return ErrEmpty
	}
	l := q.lookup(r)
	if l == nil {
		return ErrNilElement
	}
	if !l.Linked() {
		return fmt.Errorf("unlink %d: %w", r, ErrNotMember)
	}
	q.unlink(r)
	return nil
}

// unlink removes r, which must be a member of q.
func (q *Queue) unlink(r Ref) {
	l := q.links(r)
	if l.Next == r {
		q.head = Nil
	} else {
		if q.head == r {
			q.head = l.Next
		}
		q.links(l.Prev).Next = l.Next
		q.links(l.Next).Prev = l.Prev
	}
	l.reset()
}

// Print writes the queue as "name: [e1 e2 ...]" followed by a newline,
// formatting each element with format. An empty name prints as "QUEUE".
func (q *Queue) Print(w io.Writer, name string, format func(r Ref) string) error {
	if name == "" {
		name = "QUEUE"
	}
	if format == nil {
		format = func(r Ref) string { return fmt.Sprint(uint32(r)) }
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteString(": [")
	first := true
	q.Each(func(r Ref) bool {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(format(r))
		return true
	})
	b.WriteString("]\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// lookup returns the links of r, or nil for an unknown reference.
func (q *Queue) lookup(r Ref) *Links {
	if r == Nil {
		return nil
	}
	return q.arena.Links(r)
}

// links is lookup for references already known to be members.
func (q *Queue) links(r Ref) *Links {
	return q.arena.Links(r)
}
