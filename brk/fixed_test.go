package brk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFixedBrokerRejectsNonPositiveCapacity(t *testing.T) {
	_, err := NewFixedBroker(0)
	assert.Error(t, err)
	_, err = NewFixedBroker(-1)
	assert.Error(t, err)
}

func TestSbrkGrowsWithinCapacity(t *testing.T) {
	b, err := NewFixedBroker(64)
	require.NoError(t, err)

	p1, ok := b.Sbrk(16)
	require.True(t, ok)
	require.NotNil(t, p1)
	assert.Equal(t, 16, b.Len())

	p2, ok := b.Sbrk(16)
	require.True(t, ok)
	assert.Equal(t, 32, b.Len())
	assert.NotEqual(t, p1, p2)
}

func TestSbrkFailsPastCapacity(t *testing.T) {
	b, err := NewFixedBroker(16)
	require.NoError(t, err)

	_, ok := b.Sbrk(32)
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
}

func TestSbrkZeroFails(t *testing.T) {
	b, err := NewFixedBroker(16)
	require.NoError(t, err)
	_, ok := b.Sbrk(0)
	assert.False(t, ok)
}

func TestHeapBoundsTrackGrantedRegion(t *testing.T) {
	b, err := NewFixedBroker(32)
	require.NoError(t, err)

	assert.Nil(t, b.HeapLo())
	assert.Nil(t, b.HeapHi())

	_, ok := b.Sbrk(16)
	require.True(t, ok)
	assert.NotNil(t, b.HeapLo())
	assert.NotNil(t, b.HeapHi())
	assert.NotEqual(t, b.HeapLo(), b.HeapHi())
}

func TestArenaNeverRelocatesAcrossGrowth(t *testing.T) {
	b, err := NewFixedBroker(1 << 20)
	require.NoError(t, err)

	_, ok := b.Sbrk(64)
	require.True(t, ok)
	lo := b.HeapLo()

	for i := 0; i < 1000; i++ {
		_, ok := b.Sbrk(64)
		require.True(t, ok)
	}

	// HeapLo always names the arena's first byte; if growth ever
	// reallocated the backing array this address would change.
	assert.Equal(t, lo, b.HeapLo())
}
