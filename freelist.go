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

// Link accessors. Free-block links are stored as blockRef offsets written
// into the block's own body words, never as raw unsafe.Pointers -- see the
// blockRef doc comment in header.go for why.
//
// A free mini block's single body word is its next-link (no prev-link, no
// footer: a 16-byte block has no room for either once the header is
// accounted for). A free normal block's first body word is its prev-link,
// the second its next-link, and its last word is its footer.

func (a *Allocator) miniNext(b blockRef) blockRef {
	return blockRef(*(*uint64)(a.payloadPtr(b)))
}

func (a *Allocator) setMiniNext(b blockRef, n blockRef) {
	*(*uint64)(a.payloadPtr(b)) = uint64(n)
}

func (a *Allocator) normalPrev(b blockRef) blockRef {
	return blockRef(*(*uint64)(a.payloadPtr(b)))
}

func (a *Allocator) setNormalPrev(b blockRef, n blockRef) {
	*(*uint64)(a.payloadPtr(b)) = uint64(n)
}

func (a *Allocator) normalNext(b blockRef) blockRef {
	return blockRef(*(*uint64)(a.at(a.payloadRef(b) + wordSize)))
}

func (a *Allocator) setNormalNext(b blockRef, n blockRef) {
	*(*uint64)(a.at(a.payloadRef(b) + wordSize)) = uint64(n)
}

// insertNormal pushes b onto the head of its size class's doubly-linked
// list. O(1).
func (a *Allocator) insertNormal(b blockRef) {
	class := sizeClassIndex(a.blockSize(b))
	head := a.heads[class]
	a.setNormalPrev(b, nilRef)
	a.setNormalNext(b, head)
	if !head.isNil() {
		a.setNormalPrev(head, b)
	}
	a.heads[class] = b
}

// insertMini pushes b onto the head of the singly-linked mini list. O(1).
func (a *Allocator) insertMini(b blockRef) {
	a.setMiniNext(b, a.heads[0])
	a.heads[0] = b
}

// deleteNormal unlinks b from its size class's list using its prev/next
// links. O(1).
func (a *Allocator) deleteNormal(b blockRef) {
	prev := a.normalPrev(b)
	next := a.normalNext(b)
	if prev.isNil() {
		class := sizeClassIndex(a.blockSize(b))
		a.heads[class] = next
	} else {
		a.setNormalNext(prev, next)
	}
	if !next.isNil() {
		a.setNormalPrev(next, prev)
	}
}

// deleteMini unlinks b from the mini list. Mini blocks carry no back-link,
// so this walks from the head to find b's predecessor: O(n) in the list's
// length. Acceptable since mini blocks are fixed-size and mini lists stay
// short in practice.
func (a *Allocator) deleteMini(b blockRef) {
	if a.heads[0] == b {
		a.heads[0] = a.miniNext(b)
		return
	}
	for prev := a.heads[0]; !prev.isNil(); prev = a.miniNext(prev) {
		if cur := a.miniNext(prev); cur == b {
			a.setMiniNext(prev, a.miniNext(b))
			return
		}
	}
}

// insertFree routes b to insertMini or insertNormal by its size.
func (a *Allocator) insertFree(b blockRef) {
	if a.isMini(b) {
		a.insertMini(b)
	} else {
		a.insertNormal(b)
	}
}

// deleteFree routes b to deleteMini or deleteNormal by its size.
func (a *Allocator) deleteFree(b blockRef) {
	if a.isMini(b) {
		a.deleteMini(b)
	} else {
		a.deleteNormal(b)
	}
}
