// Package stack allocates the raw byte buffers owned by tasks.
package stack

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrExhausted is returned when an allocator cannot satisfy a request.
	ErrExhausted = errors.New("stack: memory exhausted")

	// ErrInvalidSize is returned for non-positive sizes.
	ErrInvalidSize = errors.New("stack: invalid size")

	// ErrUnknownBuffer is returned when freeing a buffer the allocator does not own.
	ErrUnknownBuffer = errors.New("stack: buffer not allocated here")
)

// Allocator hands out and takes back stack buffers.
type Allocator interface {
	Alloc(size int) ([]byte, error)
	Free(buf []byte) error
}

// Heap allocates every stack from the Go heap.
type Heap struct{}

var _ Allocator = Heap{}

// Alloc returns a zeroed buffer of the given size.
func (Heap) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	return make([]byte, size), nil
}

// Free drops the buffer; the garbage collector reclaims it.
func (Heap) Free(buf []byte) error {
	if buf == nil {
		return ErrUnknownBuffer
	}
	return nil
}

// Budget allocates from the heap but caps the total bytes outstanding.
type Budget struct {
	limit int

	mu   sync.Mutex
	used int
	live map[*byte]int
}

var _ Allocator = (*Budget)(nil)

// NewBudget creates an allocator that refuses to exceed limit outstanding bytes.
func NewBudget(limit int) *Budget {
	return &Budget{
		limit: limit,
		live:  make(map[*byte]int),
	}
}

// Alloc returns a buffer of the given size, or ErrExhausted when the budget
// would be exceeded.
func (b *Budget) Alloc(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.used+size > b.limit {
		return nil, fmt.Errorf("%w: %d of %d bytes in use, %d requested", ErrExhausted, b.used, b.limit, size)
	}
	buf := make([]byte, size)
	b.used += size
	b.live[&buf[0]] = size
	return buf, nil
}

// Free returns the buffer's bytes to the budget. Freeing the same buffer
// twice fails.
func (b *Budget) Free(buf []byte) error {
	if len(buf) == 0 {
		return ErrUnknownBuffer
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	size, ok := b.live[&buf[0]]
	if !ok {
		return ErrUnknownBuffer
	}
	delete(b.live, &buf[0])
	b.used -= size
	return nil
}

// InUse returns the number of bytes currently allocated.
func (b *Budget) InUse() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}
