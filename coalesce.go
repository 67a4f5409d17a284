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

// coalesce absorbs b's free neighbors, if any, and leaves exactly one free
// block -- inserted into the registry -- covering the merged region. b must
// already carry a correct free header (size, prevAlloc, prevMini) and must
// not yet be on any free list. It returns the final block. Whenever a merge
// occurs, the result is always >= 32 bytes (two or more 16-byte-minimum
// blocks summed), so fixSuccessorMeta never needs to consider the merged
// result being mini; the no-merge case has no such guarantee, since b itself
// may be a mini block, so it computes the successor's prevMini bit from b
// directly instead of hardcoding false.
//
// Both Free and the heap extender route through this single function, so
// the four cases below cover both a plain user free and a freshly-extended
// block settling in next to whatever used to be the last block on the
// heap.
func (a *Allocator) coalesce(b blockRef) blockRef {
	prevFree := !a.isPrevAlloc(b)
	var prev blockRef
	if prevFree {
		prev, _ = a.findPrev(b)
	}
	next := a.findNext(b)
	nextFree := !a.isAllocated(next)

	switch {
	case !prevFree && !nextFree:
		a.updateBlock(next, false, a.isMini(b))
		a.insertFree(b)
		return b

	case prevFree && !nextFree:
		a.deleteFree(prev)
		merged := a.blockSize(prev) + a.blockSize(b)
		a.writeBlock(prev, merged, false, a.isPrevAlloc(prev), a.isPrevMini(prev))
		a.fixSuccessorMeta(prev)
		a.insertFree(prev)
		return prev

	case !prevFree && nextFree:
		a.deleteFree(next)
		merged := a.blockSize(b) + a.blockSize(next)
		a.writeBlock(b, merged, false, a.isPrevAlloc(b), a.isPrevMini(b))
		a.fixSuccessorMeta(b)
		a.insertFree(b)
		return b

	default: // both neighbors free
		a.deleteFree(prev)
		a.deleteFree(next)
		merged := a.blockSize(prev) + a.blockSize(b) + a.blockSize(next)
		a.writeBlock(prev, merged, false, a.isPrevAlloc(prev), a.isPrevMini(prev))
		a.fixSuccessorMeta(prev)
		a.insertFree(prev)
		return prev
	}
}

// fixSuccessorMeta updates the block immediately following merged to
// reflect that merged is free and, since any merge yields a block of at
// least 32 bytes, not mini. Required by invariant 6 (prev_alloc/prev_mini
// must track the actual predecessor).
func (a *Allocator) fixSuccessorMeta(merged blockRef) {
	a.updateBlock(a.findNext(merged), false, false)
}
