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

// RetypeCNode carves [start,end) off self and initialises it as a fresh
// CNode capability with numSlots empty slots, written into dest. This is
// SPEC_FULL.md's one additive operation: spec.md §3.1 requires the
// CNode variant to exist but defers retype in general to a later
// syscall layer. RetypeCNode gives CNode a constructor without touching
// any of spec.md's invariants or errors — it shares carve's exact
// precondition and disjointness rules (R-I1, R-I2, R-I3), because a
// CNode occupies its carved range exclusively just like a Carved
// untyped sibling.
func RetypeCNode(self *capa.Capa, start, end uintptr, numSlots int, dest *capa.Capa) error {
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
	capa.Assert(numSlots > 0, "retype CNode called with numSlots == 0")

	children := capa.DirectChildren(self)
	for _, sibling := range children {
		sStart, sEnd, rok := sibling.Range()
		if !rok {
			continue
		}
		if overlaps(start, end, sStart, sEnd) {
			return ErrOverlapsSibling
		}
	}

	child := capa.NewCNodeFromRange(start, end, numSlots)
	anchor := capa.InsertionAnchorForUntypedChild(self, start)
	if err := capa.WriteAfter(dest, child, anchor); err != nil {
		return err
	}
	capa.SetParent(dest, self)
	return nil
}
