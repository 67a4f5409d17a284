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

// numFreeLists is the size of the free-list head array: index 0 for mini
// blocks, 1..14 for normal blocks partitioned by the size-class table
// below.
const numFreeLists = 15

// sizeClassIndex maps a block size to its free-list index: 0 for sizes
// below the normal minimum (the mini list), 1..14 for the smallest class
// whose upper bound is >= size, saturating at 14. This is a direct
// branching table rather than the bit-length bucketing
// cache/mempool.poolIndex uses in the teacher repo: the upper bounds double
// from 64 (class 1) to 262144 (class 13), but sizes below 32 go to the mini
// list and class 14 has no upper bound. The *shape* of the lookup (a deterministic, pure function
// from size to bucket index, with no allocation) is carried over from it.
func sizeClassIndex(size uintptr) int {
	switch {
	case size < minNormalSize:
		return 0
	case size <= 64:
		return 1
	case size <= 128:
		return 2
	case size <= 256:
		return 3
	case size <= 512:
		return 4
	case size <= 1024:
		return 5
	case size <= 2048:
		return 6
	case size <= 4096:
		return 7
	case size <= 8192:
		return 8
	case size <= 16384:
		return 9
	case size <= 32768:
		return 10
	case size <= 65536:
		return 11
	case size <= 131072:
		return 12
	case size <= 262144:
		return 13
	default:
		return 14
	}
}
