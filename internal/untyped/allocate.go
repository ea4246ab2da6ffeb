/*
 * Copyright (c) 2024 the l4sm authors.
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

package untyped

import "github.com/CharlyCst/l4sm/internal/capa"

// Allocate bumps self's watermark by enough to return a naturally
// aligned address for a size-byte object, per spec.md §4.3. self must
// have no CDT children (U-I4); the returned address is monotone
// non-decreasing across successful calls on the same capability (P7).
func Allocate(self *capa.Capa, size uintptr, alignment uint) (uintptr, error) {
	u, ok := self.Untyped()
	if !ok {
		return 0, capa.ErrWrongVariant
	}
	if len(capa.DirectChildren(self)) > 0 {
		return 0, ErrNotInAllocationMode
	}
	capa.Assert(size > 0, "allocate called with size == 0")

	base := u.Start + u.Watermark
	mask := uintptr(1)<<alignment - 1
	aligned := (base + mask) &^ mask

	if aligned+size > u.End {
		return 0, ErrOutOfMemory
	}

	u.Watermark = (aligned + size) - u.Start
	return aligned, nil
}
