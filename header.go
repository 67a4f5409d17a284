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

// Package segheap implements a single-threaded, segregated free-list
// dynamic memory allocator over one contiguous, monotonically growable heap
// region supplied by a brk.Broker. It follows the classic four-primitive
// interface (Allocate, Free, Reallocate, ZeroAlloc) with boundary-tag
// coalescing, best-fit-with-bound block splitting, and dedicated handling
// of minimum-size ("mini") blocks.
package segheap

import "unsafe"

const (
	// wordSize is the size in bytes of one header/footer/link slot.
	wordSize = 8

	// alignment is the allocator's fixed alignment; every block's address
	// and size is a multiple of it.
	alignment = 16

	// minBlockSize is the size of a mini block: one header word plus one
	// payload/link word, no footer.
	minBlockSize = 16

	// minNormalSize is the smallest size a normal (non-mini) block may be.
	minNormalSize = 32
)

// Header bits, low to high. Bit 3 is reserved and always 0; bits 4..63 hold
// the block size, which is always a 16-byte multiple, so stealing the low 4
// bits for flags never collides with the size field.
const (
	flagAllocated uint64 = 1 << 0
	flagPrevAlloc uint64 = 1 << 1
	flagPrevMini  uint64 = 1 << 2
	flagMask      uint64 = 0xF
)

// packHeader builds a header (or footer) word from its fields. Packing is
// total: it never fails, and it touches only the bits listed above. Callers
// are responsible for size already being a 16-byte multiple.
func packHeader(size uintptr, allocated, prevAlloc, prevMini bool) uint64 {
	w := uint64(size)
	if allocated {
		w |= flagAllocated
	}
	if prevAlloc {
		w |= flagPrevAlloc
	}
	if prevMini {
		w |= flagPrevMini
	}
	return w
}

func headerBlockSize(w uint64) uintptr { return uintptr(w &^ flagMask) }
func headerAllocated(w uint64) bool    { return w&flagAllocated != 0 }
func headerPrevAlloc(w uint64) bool    { return w&flagPrevAlloc != 0 }
func headerPrevMini(w uint64) bool     { return w&flagPrevMini != 0 }

// roundUp16 rounds n up to the next multiple of 16.
func roundUp16(n uintptr) uintptr { return (n + alignment - 1) &^ (alignment - 1) }

// blockRef addresses a block as a byte offset from the allocator's arena
// base, rather than as a raw unsafe.Pointer. Every "pointer" the spec
// describes (prologue/epilogue addresses, free-list prev/next links, the
// epilogue anchor) is represented this way; the zero offset is reserved as
// the null reference since the prologue, which always occupies offset 0, is
// never itself a list member or a block handed back to a caller. Offsets
// are converted to unsafe.Pointer only at the point of a memory access, in
// (*Allocator).at.
type blockRef uintptr

const nilRef blockRef = 0

func (b blockRef) isNil() bool { return b == nilRef }

// at resolves a blockRef to the address of its header word.
func (a *Allocator) at(b blockRef) unsafe.Pointer {
	return unsafe.Add(a.arenaStart, uintptr(b))
}

func (a *Allocator) headerWord(b blockRef) uint64 {
	return *(*uint64)(a.at(b))
}

func (a *Allocator) setHeaderWord(b blockRef, w uint64) {
	*(*uint64)(a.at(b)) = w
}

func (a *Allocator) blockSize(b blockRef) uintptr  { return headerBlockSize(a.headerWord(b)) }
func (a *Allocator) isAllocated(b blockRef) bool   { return headerAllocated(a.headerWord(b)) }
func (a *Allocator) isPrevAlloc(b blockRef) bool   { return headerPrevAlloc(a.headerWord(b)) }
func (a *Allocator) isPrevMini(b blockRef) bool    { return headerPrevMini(a.headerWord(b)) }
func (a *Allocator) isMini(b blockRef) bool        { return a.blockSize(b) == minBlockSize }

func (a *Allocator) footerRef(b blockRef) blockRef {
	return b + blockRef(a.blockSize(b)) - wordSize
}

func (a *Allocator) footerWord(b blockRef) uint64 {
	return a.headerWord(a.footerRef(b))
}

// payloadRef is the first word of a block's body: the user's payload for an
// allocated block, the prev-link for a free normal block, or the next-link
// for a free mini block.
func (a *Allocator) payloadRef(b blockRef) blockRef { return b + wordSize }
func (a *Allocator) payloadPtr(b blockRef) unsafe.Pointer {
	return a.at(a.payloadRef(b))
}

// writeBlock writes the header for b, and its footer too iff the block is
// free and larger than a mini block (invariant: footers exist only on
// non-mini free blocks, and always mirror the header bit-for-bit).
func (a *Allocator) writeBlock(b blockRef, size uintptr, allocated, prevAlloc, prevMini bool) {
	w := packHeader(size, allocated, prevAlloc, prevMini)
	a.setHeaderWord(b, w)
	if !allocated && size > minBlockSize {
		a.setHeaderWord(a.footerRef(b), w)
	}
}

// updateBlock rewrites only the prevAlloc/prevMini bits of b's header (and,
// for non-mini free blocks, its footer), leaving size and allocated status
// untouched. Used when a neighbor's allocation or mini-ness changes without
// b itself changing size or allocation status.
func (a *Allocator) updateBlock(b blockRef, prevAlloc, prevMini bool) {
	w := a.headerWord(b)
	a.writeBlock(b, headerBlockSize(w), headerAllocated(w), prevAlloc, prevMini)
}
