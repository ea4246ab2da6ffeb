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

// Carve derives a new Carved untyped child of self spanning
// [start,end) into dest, per spec.md §4.2. A Carved child's range must
// be disjoint from every other direct child, aliased or carved
// (R-I2/R-I3). self must be in delegation mode and dest must be empty;
// on any precondition failure no state is changed (P10).
func Carve(self *capa.Capa, start, end uintptr, dest *capa.Capa) error {
	return deriveChild(self, start, end, capa.Carved, dest, func(children []*capa.Capa) error {
		for _, sibling := range children {
			sStart, sEnd, ok := sibling.Range()
			if !ok {
				continue
			}
			if overlaps(start, end, sStart, sEnd) {
				return ErrOverlapsSibling
			}
		}
		return nil
	})
}
