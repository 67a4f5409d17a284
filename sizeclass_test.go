package segheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeClassIndexBoundaries(t *testing.T) {
	tests := []struct {
		size uintptr
		want int
	}{
		{16, 0},
		{31, 0},
		{32, 1},
		{64, 1},
		{65, 2},
		{128, 2},
		{129, 3},
		{256, 3},
		{512, 4},
		{1024, 5},
		{2048, 6},
		{4096, 7},
		{8192, 8},
		{16384, 9},
		{32768, 10},
		{65536, 11},
		{131072, 12},
		{262144, 13},
		{262145, 14},
		{1 << 30, 14},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, sizeClassIndex(tt.size), "size=%d", tt.size)
	}
}

func TestSizeClassIndexMonotonic(t *testing.T) {
	prev := sizeClassIndex(minNormalSize)
	for size := uintptr(minNormalSize); size < 1<<20; size += 997 {
		got := sizeClassIndex(size)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}
