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

// Package brk is the page-broker collaborator segheap.Allocator grows its
// heap through. It is deliberately thin: segheap owns every allocation
// policy decision, brk only ever hands out raw bytes and reports bounds.
package brk

import "unsafe"

// Broker is the single downstream dependency a segheap.Allocator depends
// on. Implementations MUST NOT move bytes already granted by a prior Sbrk
// call -- segheap.Allocator hands out addresses into the region Sbrk
// returns and never expects them to relocate.
type Broker interface {
	// Sbrk grows the heap by n bytes and returns the address of the first
	// new byte, or ok=false if the broker cannot grant the request.
	Sbrk(n uintptr) (addr unsafe.Pointer, ok bool)

	// HeapLo and HeapHi report the current inclusive bounds of bytes this
	// broker has granted so far.
	HeapLo() unsafe.Pointer
	HeapHi() unsafe.Pointer
}
