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

import (
	"encoding/binary"
	"fmt"

	"github.com/bytedance/gopkg/util/xxhash3"
)

// Violation describes one independently-failing invariant check. Verify
// reports every violation it finds rather than collapsing them into a
// single boolean -- a single pass/fail bit discards exactly the
// information a debugger needs.
type Violation struct {
	Rule   string
	Detail string
}

func (v Violation) String() string { return v.Rule + ": " + v.Detail }

// Verify walks the whole heap and every free list, checking each of the
// invariants spec.md lists independently. It's meant for tests and for a
// driver to call between operations while debugging; production code paths
// never call it.
func (a *Allocator) Verify() []Violation {
	var out []Violation
	add := func(rule, format string, args ...interface{}) {
		out = append(out, Violation{Rule: rule, Detail: fmt.Sprintf(format, args...)})
	}

	if a.blockSize(0) != 0 || !a.isAllocated(0) {
		add("sentinel-prologue", "prologue must have size 0 and be allocated")
	}
	if a.blockSize(a.epilogue) != 0 || !a.isAllocated(a.epilogue) {
		add("sentinel-epilogue", "epilogue at offset %d must have size 0 and be allocated", a.epilogue)
	}

	lo, hi := a.broker.HeapLo(), a.broker.HeapHi()
	freeOnHeap := map[blockRef]bool{}

	prevAllocated, prevMini := true, false
	for cur := blockRef(wordSize); a.blockSize(cur) != 0; {
		size := a.blockSize(cur)
		allocated := a.isAllocated(cur)

		if size < minBlockSize || size%alignment != 0 {
			add("block-size", "block at offset %d has invalid size %d", cur, size)
		}
		if addr := a.at(cur); lo != nil && hi != nil &&
			(uintptr(addr) < uintptr(lo) || uintptr(addr) > uintptr(hi)) {
			add("block-bounds", "block at offset %d lies outside the heap bounds", cur)
		}
		if !allocated && !prevAllocated {
			add("adjacent-free", "block at offset %d and its predecessor are both free", cur)
		}
		if a.isPrevAlloc(cur) != prevAllocated {
			add("prev-alloc-bit", "block at offset %d has a stale prevAlloc bit", cur)
		}
		if a.isPrevMini(cur) != prevMini {
			add("prev-mini-bit", "block at offset %d has a stale prevMini bit", cur)
		}
		if !allocated && size > minBlockSize && a.footerWord(cur) != a.headerWord(cur) {
			add("footer-mismatch", "free block at offset %d has a footer that doesn't match its header", cur)
		}
		if !allocated {
			freeOnHeap[cur] = true
		}

		prevAllocated, prevMini = allocated, size == minBlockSize
		cur = a.findNext(cur)
	}

	if a.isPrevAlloc(a.epilogue) != prevAllocated {
		add("prev-alloc-bit", "epilogue at offset %d has a stale prevAlloc bit", a.epilogue)
	}
	if a.isPrevMini(a.epilogue) != prevMini {
		add("prev-mini-bit", "epilogue at offset %d has a stale prevMini bit", a.epilogue)
	}

	listed := map[blockRef]bool{}
	checkListed := func(rule string, cur blockRef) {
		if listed[cur] {
			add("list-membership", "block at offset %d appears in more than one free list", cur)
		}
		listed[cur] = true
	}

	seenMini := map[blockRef]bool{}
	for cur := a.heads[0]; !cur.isNil(); {
		if seenMini[cur] {
			add("mini-list-cycle", "mini free list cycles back to offset %d", cur)
			break
		}
		seenMini[cur] = true
		if a.isAllocated(cur) {
			add("mini-list-allocated", "block at offset %d is in the mini free list but marked allocated", cur)
		}
		if a.blockSize(cur) != minBlockSize {
			add("mini-list-size", "block at offset %d is in the mini free list but is not 16 bytes", cur)
		}
		checkListed("mini-list", cur)
		cur = a.miniNext(cur)
	}

	for class := 1; class < numFreeLists; class++ {
		seen := map[blockRef]bool{}
		prevInList := nilRef
		for cur := a.heads[class]; !cur.isNil(); {
			if seen[cur] {
				add("normal-list-cycle", "free list %d cycles back to offset %d", class, cur)
				break
			}
			seen[cur] = true
			if a.isAllocated(cur) {
				add("normal-list-allocated", "block at offset %d is in free list %d but marked allocated", cur, class)
			}
			if got := sizeClassIndex(a.blockSize(cur)); got != class {
				add("normal-list-class", "block at offset %d is in free list %d but its size maps to class %d", cur, class, got)
			}
			if a.normalPrev(cur) != prevInList {
				add("normal-list-backlink", "block at offset %d has an inconsistent prev back-pointer", cur)
			}
			checkListed("normal-list", cur)
			prevInList = cur
			cur = a.normalNext(cur)
		}
	}

	for ref := range freeOnHeap {
		if !listed[ref] {
			add("free-block-unlisted", "free block at offset %d is not present in any free list", ref)
		}
	}
	for ref := range listed {
		if !freeOnHeap[ref] {
			add("listed-block-not-free", "block at offset %d is in a free list but is not free on the heap walk", ref)
		}
	}

	return out
}

// PayloadChecksum fingerprints the block backing buf -- its header, and its
// footer when it has one -- using xxhash3, the corpus's hashing primitive
// (see internal/hash/maphash in the teacher repo). It's a debug aid: take a
// checksum before an operation a caller doesn't fully trust and compare it
// after, to catch a stray write into block metadata that the structural
// checks in Verify wouldn't otherwise catch until the heap is walked.
func (a *Allocator) PayloadChecksum(buf []byte) uint64 {
	if cap(buf) == 0 {
		return 0
	}
	b := a.refFromPayload(dataPtr(buf))

	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], a.headerWord(b))
	sum := xxhash3.Hash(tmp[:])

	if !a.isAllocated(b) && a.blockSize(b) > minBlockSize {
		binary.LittleEndian.PutUint64(tmp[:], a.footerWord(b))
		sum ^= xxhash3.Hash(tmp[:])
	}
	return sum
}
