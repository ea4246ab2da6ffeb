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

import (
	"github.com/CharlyCst/l4sm/internal/capa"
)

// overlaps reports whether [aStart,aEnd) and [bStart,bEnd) share any byte.
func overlaps(aStart, aEnd, bStart, bEnd uintptr) bool {
	return aStart < bEnd && bStart < aEnd
}

// checkBoundsAndMode validates the preconditions shared by alias and
// carve: the requested range must be well-formed and fully inside
// self, and self must be in delegation mode (watermark zero, U-I3).
func checkBoundsAndMode(self *capa.UntypedCapa, start, end uintptr) error {
	if start >= end || start < self.Start || end > self.End {
		return ErrOutOfBounds
	}
	if self.Watermark != 0 {
		return ErrNotInDelegationMode
	}
	return nil
}

// deriveChild validates and splices a new untyped child of kind k,
// spanning [start,end), into dest. siblingCheck implements the
// kind-specific disjointness rule (R-I2/R-I3) over self's existing
// direct children.
func deriveChild(self *capa.Capa, start, end uintptr, k capa.UntypedKind, dest *capa.Capa, siblingCheck func(children []*capa.Capa) error) error {
	u, ok := self.Untyped()
	if !ok {
		return capa.ErrWrongVariant
	}
	if err := checkBoundsAndMode(u, start, end); err != nil {
		return err
	}
	if !dest.IsEmpty() {
		return capa.ErrSlotOccupied
	}

	children := capa.DirectChildren(self)
	if err := siblingCheck(children); err != nil {
		return err
	}

	child := capa.NewUntyped(start, end, 0, k)
	anchor := capa.InsertionAnchorForUntypedChild(self, start)
	if err := capa.WriteAfter(dest, child, anchor); err != nil {
		return err
	}
	capa.SetParent(dest, self)
	return nil
}
