package segheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalesceNoFreeNeighbors(t *testing.T) {
	a, _ := newTestAllocator(t)
	a.heads = [numFreeLists]blockRef{}

	b := blockRef(wordSize)
	a.writeBlock(b, 48, true, true, false) // will be freed below
	after := b + 48
	a.writeBlock(after, 0, true, true, false)
	a.epilogue = after

	a.writeBlock(b, 48, false, true, false)
	got := a.coalesce(b)

	assert.Equal(t, b, got)
	assert.False(t, a.isAllocated(got))
	assert.Equal(t, b, a.heads[sizeClassIndex(48)])
	assert.False(t, a.isPrevAlloc(after))
	assert.False(t, a.isPrevMini(after))
}

func TestCoalesceNoFreeNeighborsMiniPredecessor(t *testing.T) {
	a, _ := newTestAllocator(t)
	a.heads = [numFreeLists]blockRef{}

	b := blockRef(wordSize)
	a.writeBlock(b, 16, true, true, false)
	after := b + 16
	a.writeBlock(after, 0, true, true, false)
	a.epilogue = after

	a.writeBlock(b, 16, false, true, false)
	got := a.coalesce(b)

	assert.Equal(t, b, got)
	assert.Equal(t, b, a.heads[0])
	assert.False(t, a.isPrevAlloc(after))
	assert.True(t, a.isPrevMini(after))
}

func TestCoalesceMergesBackward(t *testing.T) {
	a, _ := newTestAllocator(t)
	a.heads = [numFreeLists]blockRef{}

	prev := blockRef(wordSize)
	a.writeBlock(prev, 48, false, true, false)
	a.insertFree(prev)

	b := prev + 48
	a.writeBlock(b, 32, true, false, false)
	after := b + 32
	a.writeBlock(after, 0, true, true, false)
	a.epilogue = after

	a.writeBlock(b, 32, false, false, false)
	got := a.coalesce(b)

	require.Equal(t, prev, got)
	assert.Equal(t, uintptr(80), a.blockSize(got))
	assert.False(t, a.isAllocated(got))
	assert.Equal(t, prev, a.heads[sizeClassIndex(80)])
	assert.False(t, a.isPrevAlloc(after))
	assert.False(t, a.isPrevMini(after))
}

func TestCoalesceMergesForward(t *testing.T) {
	a, _ := newTestAllocator(t)
	a.heads = [numFreeLists]blockRef{}

	b := blockRef(wordSize)
	a.writeBlock(b, 32, true, true, false)

	next := b + 32
	a.writeBlock(next, 48, false, false, false)
	a.insertFree(next)

	after := next + 48
	a.writeBlock(after, 0, true, true, false)
	a.epilogue = after

	a.writeBlock(b, 32, false, true, false)
	got := a.coalesce(b)

	require.Equal(t, b, got)
	assert.Equal(t, uintptr(80), a.blockSize(got))
	assert.Equal(t, b, a.heads[sizeClassIndex(80)])
	assert.False(t, a.isPrevAlloc(after))
}

func TestCoalesceMergesBothSides(t *testing.T) {
	a, _ := newTestAllocator(t)
	a.heads = [numFreeLists]blockRef{}

	prev := blockRef(wordSize)
	a.writeBlock(prev, 32, false, true, false)
	a.insertFree(prev)

	b := prev + 32
	a.writeBlock(b, 32, true, false, false)

	next := b + 32
	a.writeBlock(next, 48, false, false, false)
	a.insertFree(next)

	after := next + 48
	a.writeBlock(after, 0, true, true, false)
	a.epilogue = after

	a.writeBlock(b, 32, false, false, false)
	got := a.coalesce(b)

	require.Equal(t, prev, got)
	assert.Equal(t, uintptr(112), a.blockSize(got))
	assert.Equal(t, prev, a.heads[sizeClassIndex(112)])
	assert.False(t, a.isPrevAlloc(after))
	assert.False(t, a.isPrevMini(after))
}
