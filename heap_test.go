package segheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segheap/alloc/brk"
)

func TestNewAllocatorBootstrapsSentinelsAndOneFreeChunk(t *testing.T) {
	a, _ := newTestAllocator(t)

	assert.Equal(t, uintptr(0), a.blockSize(0))
	assert.True(t, a.isAllocated(0))

	first := blockRef(wordSize)
	assert.False(t, a.isAllocated(first))
	assert.Equal(t, uintptr(defaultChunk), a.blockSize(first))

	assert.Equal(t, uintptr(0), a.blockSize(a.epilogue))
	assert.True(t, a.isAllocated(a.epilogue))
	assert.Empty(t, a.Verify())
}

func TestNewAllocatorFailsWhenBrokerTooSmall(t *testing.T) {
	b, err := brk.NewFixedBroker(8)
	require.NoError(t, err)
	_, err = NewAllocator(b)
	assert.Error(t, err)
}

func TestExtendHeapMergesIntoPriorFreeTail(t *testing.T) {
	a, _ := newTestAllocator(t)
	first := blockRef(wordSize)
	before := a.blockSize(first)

	merged, ok := a.extendHeap(defaultChunk)
	require.True(t, ok)
	assert.Equal(t, first, merged, "extending while the last block is free merges into it")
	assert.Equal(t, before+uintptr(defaultChunk), a.blockSize(merged))
	assert.Empty(t, a.Verify())
}

func TestExtendHeapFailsWhenBrokerExhausted(t *testing.T) {
	b, err := brk.NewFixedBroker(2*wordSize + defaultChunk)
	require.NoError(t, err)
	a, err := NewAllocator(b)
	require.NoError(t, err)

	_, ok := a.extendHeap(defaultChunk)
	assert.False(t, ok)
}
