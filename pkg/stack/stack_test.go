package stack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeap(t *testing.T) {
	var h Heap
	buf, err := h.Alloc(128)
	require.NoError(t, err)
	assert.Len(t, buf, 128)
	assert.NoError(t, h.Free(buf))

	_, err = h.Alloc(0)
	assert.ErrorIs(t, err, ErrInvalidSize)
	assert.ErrorIs(t, h.Free(nil), ErrUnknownBuffer)
}

func TestBudget_Exhaustion(t *testing.T) {
	b := NewBudget(100)

	first, err := b.Alloc(60)
	require.NoError(t, err)
	assert.Equal(t, 60, b.InUse())

	_, err = b.Alloc(50)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 60, b.InUse())

	require.NoError(t, b.Free(first))
	assert.Equal(t, 0, b.InUse())

	second, err := b.Alloc(100)
	require.NoError(t, err)
	assert.Len(t, second, 100)
}

func TestBudget_DoubleFree(t *testing.T) {
	b := NewBudget(10)
	buf, err := b.Alloc(10)
	require.NoError(t, err)

	require.NoError(t, b.Free(buf))
	assert.ErrorIs(t, b.Free(buf), ErrUnknownBuffer)
	assert.ErrorIs(t, b.Free(make([]byte, 10)), ErrUnknownBuffer)
	assert.Equal(t, 0, b.InUse())
}
