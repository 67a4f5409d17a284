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

// findNext returns the block immediately following b in the implicit list.
// Valid for any real block; on the last real block it yields the epilogue.
func (a *Allocator) findNext(b blockRef) blockRef {
	return b + blockRef(a.blockSize(b))
}

// findPrev locates the block immediately preceding b. If b's prevMini bit
// is set, the predecessor is exactly one mini block (16 bytes) before b, a
// mini block carrying no footer to read. Otherwise the word directly before
// b's header is the predecessor's footer; its size locates the predecessor.
// A predecessor size of zero means that word belongs to the prologue, which
// has no predecessor of its own.
func (a *Allocator) findPrev(b blockRef) (blockRef, bool) {
	if a.isPrevMini(b) {
		return b - minBlockSize, true
	}
	prevFooter := a.headerWord(b - wordSize)
	size := headerBlockSize(prevFooter)
	if size == 0 {
		return nilRef, false
	}
	return b - blockRef(size), true
}
