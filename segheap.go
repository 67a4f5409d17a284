/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package segheap

import "unsafe"

// Allocate returns a slice of at least size payload bytes, 16-byte aligned,
// or nil. The memory is not initialized. size <= 0 returns nil without
// touching the heap; a broker unable to grant more bytes also returns nil.
//
// The returned slice's cap may exceed size -- the allocator rounds every
// request up to its internal block granularity and, when a chosen free
// block doesn't split cleanly, hands back the whole thing. Use UsableSize
// to recover the true capacity after reslicing.
func (a *Allocator) Allocate(size int) []byte {
	if size <= 0 {
		return nil
	}

	want := adjustSize(uintptr(size))
	b := a.findFit(want)
	if b.isNil() {
		extend := want
		if extend < defaultChunk {
			extend = defaultChunk
		}
		merged, ok := a.extendHeap(extend)
		if !ok {
			return nil
		}
		a.deleteFree(merged)
		b = merged
	} else {
		a.deleteFree(b)
	}

	b = a.placeAndAlloc(b, want)
	a.allocs++

	ptr := a.payloadPtr(b)
	usable := int(a.blockSize(b)) - wordSize
	return unsafe.Slice((*byte)(ptr), usable)[:size]
}

// Free releases memory previously returned by Allocate, ZeroAlloc, or
// Reallocate. A nil or zero-capacity slice is a no-op; freeing anything
// else is undefined, including double-frees.
func (a *Allocator) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}

	b := a.refFromPayload(dataPtr(buf))
	size := a.blockSize(b)
	a.writeBlock(b, size, false, a.isPrevAlloc(b), a.isPrevMini(b))
	a.coalesce(b)
	a.frees++
}

// Reallocate resizes buf to size bytes. A nil/zero-capacity buf behaves
// like Allocate(size); size == 0 behaves like Free(buf) and returns nil.
// Otherwise a new block is allocated, the first min(size, len(buf)) bytes
// of buf are copied into it, and buf is freed.
func (a *Allocator) Reallocate(buf []byte, size int) []byte {
	if cap(buf) == 0 {
		return a.Allocate(size)
	}
	if size == 0 {
		a.Free(buf)
		return nil
	}

	next := a.Allocate(size)
	if next == nil {
		return nil
	}
	n := len(buf)
	if size < n {
		n = size
	}
	copy(next, buf[:n])
	a.Free(buf)
	return next
}

// ZeroAlloc allocates space for count elements of elemSize bytes each, zero
// filled, or nil if count or elemSize is negative, either is zero, or their
// product overflows.
func (a *Allocator) ZeroAlloc(count, elemSize int) []byte {
	if count < 0 || elemSize < 0 || count == 0 || elemSize == 0 {
		return nil
	}
	total, overflow := mulOverflow(count, elemSize)
	if overflow {
		return nil
	}

	buf := a.Allocate(total)
	if buf == nil {
		return nil
	}
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// UsableSize reports the full payload capacity of the block backing buf,
// which may be larger than buf's own length if the allocator couldn't
// split off the difference as a separate free block.
func (a *Allocator) UsableSize(buf []byte) int {
	if cap(buf) == 0 {
		return 0
	}
	b := a.refFromPayload(dataPtr(buf))
	return int(a.blockSize(b)) - wordSize
}

// Available returns the payload bytes (block size less its header word) of
// every block currently sitting in the free-list registry, summed across
// every class.
func (a *Allocator) Available() int {
	total := 0
	for class := 0; class < numFreeLists; class++ {
		if class == 0 {
			for cur := a.heads[0]; !cur.isNil(); cur = a.miniNext(cur) {
				total += int(a.blockSize(cur)) - wordSize
			}
			continue
		}
		for cur := a.heads[class]; !cur.isNil(); cur = a.normalNext(cur) {
			total += int(a.blockSize(cur)) - wordSize
		}
	}
	return total
}

// Stats reports running allocation counters, mirroring the bookkeeping
// cache/mempool's Allocator keeps (allocs/bytes) in the teacher repo.
func (a *Allocator) Stats() (allocs, frees int) { return a.allocs, a.frees }

// dataPtr reads a slice's data pointer directly out of its header word,
// the same trick the teacher's BuddyAllocator.Free uses, so that a
// zero-length-but-non-nil slice (cap > 0, len 0) still yields its backing
// address without an out-of-range index into an empty len.
func dataPtr(b []byte) unsafe.Pointer {
	return unsafe.Pointer(*(*uintptr)(unsafe.Pointer(&b)))
}

// refFromPayload recovers the block owning a payload address previously
// handed out by Allocate.
func (a *Allocator) refFromPayload(ptr unsafe.Pointer) blockRef {
	off := uintptr(ptr) - uintptr(a.arenaStart) - wordSize
	return blockRef(off)
}

// mulOverflow multiplies two non-negative ints, reporting overflow instead
// of wrapping.
func mulOverflow(x, y int) (int, bool) {
	if x == 0 || y == 0 {
		return 0, false
	}
	p := x * y
	if p/x != y {
		return 0, true
	}
	return p, false
}
