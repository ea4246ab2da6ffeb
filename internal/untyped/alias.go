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

// Alias derives a new Aliased untyped child of self spanning
// [start,end) into dest, per spec.md §4.2. Aliased children may overlap
// each other freely but must stay clear of every Carved sibling
// (R-I3). self must be in delegation mode and dest must be empty; on
// any precondition failure no state is changed (P10).
func Alias(self *capa.Capa, start, end uintptr, dest *capa.Capa) error {
	return deriveChild(self, start, end, capa.Aliased, dest, func(children []*capa.Capa) error {
		for _, sibling := range children {
			// A RetypeCNode child (SPEC_FULL.md ADDED) carries no UKind
			// of its own but is carved out exclusively, so it is treated
			// like a Carved sibling for the purposes of R-I3.
			su, isUntyped := sibling.Untyped()
			if isUntyped && su.UKind != capa.Carved {
				continue
			}
			sStart, sEnd, ok := sibling.Range()
			if !ok {
				continue
			}
			if overlaps(start, end, sStart, sEnd) {
				return ErrOverlapsCarvedSibling
			}
		}
		return nil
	})
}
