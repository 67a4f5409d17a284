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

const (
	// searchLimit bounds how many blocks of a single size class the fit
	// search will examine before moving to the next class. Reset at the
	// top of every class's inner loop -- the source this spec was distilled
	// from let the counter carry over between classes, which meant later
	// classes inherited whatever budget the previous class didn't spend.
	// That's corrected here: the budget is per class.
	searchLimit = 10

	// closeEnough short-circuits the fit search once a candidate's excess
	// (size - requested) drops to this many bytes or fewer.
	closeEnough = 46

	// defaultChunk is how many bytes the heap grows by when no free block
	// satisfies a request and the requested size itself is smaller than
	// this.
	defaultChunk = 2048
)

// adjustSize converts a user-requested payload size to the internal
// allocation size: one header word is always reserved, but never a footer
// (allocated blocks carry no footer). Requests of 8 bytes or fewer still
// need a full mini block, since that's the smallest unit the allocator can
// hand out.
func adjustSize(userSize uintptr) uintptr {
	if userSize <= wordSize {
		return minBlockSize
	}
	return roundUp16(userSize + wordSize)
}

// findFit performs a best-fit search bounded two ways: a per-class probe
// budget (searchLimit) and a global "good enough" excess threshold
// (closeEnough). It returns nilRef if no free block fits.
func (a *Allocator) findFit(want uintptr) blockRef {
	class := sizeClassIndex(want)
	if class == 0 {
		// want == minBlockSize: the mini list, if non-empty, is an exact
		// fit and returned immediately. An empty mini list falls through
		// to searching class 1 upward -- the mini list is singly linked
		// and must never be walked with the normal-block next-link
		// accessor, so it is never entered by the loop below.
		if head := a.heads[0]; !head.isNil() {
			return head
		}
		class = 1
	}

	var best blockRef
	haveBest := false
	var bestExcess uintptr

	for ; class < numFreeLists; class++ {
		cont := 0
		for cur := a.heads[class]; !cur.isNil() && cont < searchLimit; cur, cont = a.normalNext(cur), cont+1 {
			size := a.blockSize(cur)
			if size < want {
				continue
			}
			excess := size - want
			if !haveBest || excess < bestExcess {
				haveBest, bestExcess, best = true, excess, cur
				if bestExcess <= closeEnough {
					return best
				}
			}
		}
	}
	return best
}

// placeAndAlloc marks b allocated at size want, splitting off and freeing
// the remainder when it's large enough to form its own block, and fixes up
// the metadata of whatever block follows. b must already be unlinked from
// its free list.
func (a *Allocator) placeAndAlloc(b blockRef, want uintptr) blockRef {
	total := a.blockSize(b)
	prevAlloc := a.isPrevAlloc(b)
	prevMini := a.isPrevMini(b)
	remainder := total - want

	if remainder >= minBlockSize {
		a.writeBlock(b, want, true, prevAlloc, prevMini)

		free := b + blockRef(want)
		freeIsMini := want == minBlockSize
		a.writeBlock(free, remainder, false, true, freeIsMini)

		// The block after the free remainder is the one whose metadata
		// invariant 6 requires updating; the free remainder's own header,
		// just written above, already carries the post-allocation
		// metadata (prevAlloc=1, prevMini=(want==16)) that the no-split
		// branch below computes explicitly.
		after := a.findNext(free)
		a.updateBlock(after, false, remainder == minBlockSize)
		a.insertFree(free)
		return b
	}

	a.writeBlock(b, total, true, prevAlloc, prevMini)
	after := a.findNext(b)
	a.updateBlock(after, true, total == minBlockSize)
	return b
}
