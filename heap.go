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
	"fmt"
	"unsafe"

	"github.com/segheap/alloc/brk"
)

// Allocator manages one heap region obtained from a brk.Broker. It is
// strictly single-threaded: nothing in it synchronizes access, and a value
// must not be shared across goroutines without external locking. There is
// no teardown primitive; heap bytes are never returned to the broker.
type Allocator struct {
	broker     brk.Broker
	arenaStart unsafe.Pointer // address blockRef offsets are relative to
	epilogue   blockRef       // current top-of-heap sentinel
	heads      [numFreeLists]blockRef

	allocs int // successful Allocate calls, for Stats
	frees  int // Free calls observed
}

// NewAllocator bootstraps a fresh heap on top of broker: it clears the
// free-list registry, writes the prologue and epilogue sentinels, and
// extends by one default chunk so the first allocation has somewhere to
// come from.
func NewAllocator(broker brk.Broker) (*Allocator, error) {
	base, ok := broker.Sbrk(2 * wordSize)
	if !ok {
		return nil, fmt.Errorf("segheap: broker failed to grant initial %d bytes", 2*wordSize)
	}

	a := &Allocator{broker: broker, arenaStart: base}

	const prologue blockRef = 0
	epilogue := blockRef(wordSize)

	// Prologue: size 0, allocated, its own predecessor fictitiously
	// allocated and non-mini -- there is no real block before it, and this
	// combination is what lets findPrev recognize it as the scan's end.
	a.writeBlock(prologue, 0, true, true, false)
	// Epilogue: size 0, allocated, inheriting the (so far, nonexistent)
	// last real block's status -- i.e. the prologue's.
	a.writeBlock(epilogue, 0, true, true, false)
	a.epilogue = epilogue

	if _, ok := a.extendHeap(defaultChunk); !ok {
		return nil, fmt.Errorf("segheap: broker failed to grant initial %d-byte chunk", defaultChunk)
	}
	return a, nil
}

// extendHeap grows the heap by n bytes (rounded up to a 16-byte multiple),
// turning the old epilogue's word into the header of one fresh free block
// and placing a new epilogue after it. The broker is asked to extend the
// heap by exactly the rounded byte count; it returns the address of the
// first newly granted byte, which -- since the old epilogue occupied the
// last word before that point -- is one word past the old epilogue, i.e.
// the payload position of the block now being created there.
//
// The new block is then run through the coalescer, which merges it
// backward with the previous last block if that block was free, and
// inserts whatever results into the free-list registry.
func (a *Allocator) extendHeap(n uintptr) (blockRef, bool) {
	n = roundUp16(n)
	if _, ok := a.broker.Sbrk(n); !ok {
		return nilRef, false
	}

	newBlock := a.epilogue
	oldEpilogue := a.headerWord(newBlock)
	a.writeBlock(newBlock, n, false, headerPrevAlloc(oldEpilogue), headerPrevMini(oldEpilogue))

	newEpilogue := newBlock + blockRef(n)
	a.writeBlock(newEpilogue, 0, true, false, n == minBlockSize)
	a.epilogue = newEpilogue

	return a.coalesce(newBlock), true
}
