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

package capa

import "errors"

// Capability-shape errors (§7).
var (
	ErrSlotOccupied   = errors.New("slot occupied")
	ErrNotACapability = errors.New("not a capability")
	ErrWrongVariant   = errors.New("wrong capability variant")
)

// WriteAfter writes capa into slot, which must be empty (ErrSlotOccupied
// otherwise), and — if capa is non-null — splices it into the CDT list
// immediately after anchor. slot_write in §4.1.
func WriteAfter(slot *Capa, capa Capa, anchor *Capa) error {
	if !slot.IsEmpty() {
		return ErrSlotOccupied
	}
	*slot = capa
	if !slot.IsEmpty() {
		InsertAfter(anchor, slot)
	}
	return nil
}
