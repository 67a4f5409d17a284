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

package brk

import (
	"fmt"
	"unsafe"

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// FixedBroker is a Broker backed by one pre-reserved, fixed-capacity byte
// arena. Sbrk only ever grows the arena's logical length toward its
// capacity; it never reallocates the backing array, so every address
// handed out stays valid for the broker's lifetime. Once the reservation
// is exhausted, Sbrk reports failure rather than growing further -- there
// is no way to reserve more space after construction, matching
// segheap.Allocator's "never releases bytes back to the broker, never
// relocates what it already granted" contract.
type FixedBroker struct {
	arena []byte // len is the current heap size, cap is the reservation
}

// NewFixedBroker reserves capacity bytes, uninitialized, using
// dirtmake.Bytes -- the corpus's helper for exactly this "give me n bytes
// without the zero-fill malloc would normally do" need (see
// bufiox/bytesbuf.go and protocol/thrift/bufferreader.go in the teacher
// repo). The allocator will zero-fill on ZeroAlloc itself where it matters;
// reserving the arena unzeroed just means bootstrap doesn't pay for zeroing
// bytes no one has asked to see yet.
func NewFixedBroker(capacity int) (*FixedBroker, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("brk: capacity must be positive, got %d", capacity)
	}
	return &FixedBroker{arena: dirtmake.Bytes(0, capacity)}, nil
}

// Sbrk implements Broker.
func (b *FixedBroker) Sbrk(n uintptr) (unsafe.Pointer, bool) {
	if n == 0 {
		return nil, false
	}
	start := len(b.arena)
	grown := start + int(n)
	if grown < start || grown > cap(b.arena) {
		return nil, false
	}
	b.arena = b.arena[:grown]
	return unsafe.Pointer(&b.arena[start]), true
}

// HeapLo implements Broker.
func (b *FixedBroker) HeapLo() unsafe.Pointer {
	if len(b.arena) == 0 {
		return nil
	}
	return unsafe.Pointer(&b.arena[0])
}

// HeapHi implements Broker.
func (b *FixedBroker) HeapHi() unsafe.Pointer {
	if len(b.arena) == 0 {
		return nil
	}
	return unsafe.Pointer(&b.arena[len(b.arena)-1])
}

// Cap reports the total reservation, used bytes included.
func (b *FixedBroker) Cap() int { return cap(b.arena) }

// Len reports the heap's current logical size.
func (b *FixedBroker) Len() int { return len(b.arena) }
