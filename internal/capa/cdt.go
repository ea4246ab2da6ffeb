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

// Next returns the next node in the CDT list, or nil at the tail. Null
// slots have no CDT node and always return nil.
func (c *Capa) Next() *Capa {
	if c.IsEmpty() {
		return nil
	}
	return c.cdt.next
}

// Prev returns the previous node in the CDT list, or nil at the head.
func (c *Capa) Prev() *Capa {
	if c.IsEmpty() {
		return nil
	}
	return c.cdt.prev
}

// InsertAfter splices new in between anchor and anchor's current next
// node, preserving CDT-I3 (list consistency). new must not already be
// linked. anchor may be nil, in which case new simply gets no
// predecessor recorded here — callers that need new at the true head of
// a disconnected root forest use this form.
func InsertAfter(anchor, new *Capa) {
	if anchor == nil {
		new.cdt.prev = nil
		new.cdt.next = nil
		return
	}
	next := anchor.cdt.next
	new.cdt.prev = anchor
	new.cdt.next = next
	anchor.cdt.next = new
	if next != nil {
		next.cdt.prev = new
	}
}

// Unlink detaches node from the CDT list, preserving CDT-I3, and clears
// its own links. It does not touch node's payload or reset it to Null —
// callers that are revoking the slot do that separately.
func Unlink(node *Capa) {
	prev := node.cdt.prev
	next := node.cdt.next
	if prev != nil {
		prev.cdt.next = next
	}
	if next != nil {
		next.cdt.prev = prev
	}
	node.cdt.prev = nil
	node.cdt.next = nil
}

// IsDescendant is the ancestry test of §4.4: ancestor must be untyped
// (only untyped capabilities derive children today), and cursor is its
// descendant iff walking cursor's Parent chain reaches ancestor.
//
// This walks real derivation lineage rather than comparing byte ranges.
// Range containment alone cannot tell a true descendant from an
// unrelated sibling once R-I3 allows two Aliased children of the same
// parent to nest — e.g. alias(U, 0, 0x4000) and alias(U, 0x1000, 0x2000)
// both derive directly from U, but the second's range sits entirely
// inside the first's, so a containment test would wrongly call it the
// first's descendant. §9 anticipates this exact gap and calls for a
// parent-pointer representation; Parent is that representation.
func IsDescendant(ancestor, cursor *Capa) bool {
	if _, ok := ancestor.Untyped(); !ok {
		return false
	}
	for p := cursor.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}

// DirectChildren walks the contiguous descendant run following parent
// and returns the slots that are direct children, i.e. those whose
// Parent is exactly parent. The scan stays bounded by IsDescendant so
// it still stops at the end of parent's contiguous run (CDT-I2);
// grandchildren are simply skipped rather than requiring a separate
// subtree-skipping pass, since their Parent points at an intervening
// child instead of at parent.
func DirectChildren(parent *Capa) []*Capa {
	var children []*Capa
	cursor := parent.Next()
	for cursor != nil && IsDescendant(parent, cursor) {
		if cursor.Parent() == parent {
			children = append(children, cursor)
		}
		cursor = cursor.Next()
	}
	return children
}

// InsertionAnchorForUntypedChild finds the node a new untyped child of
// parent, starting at start, must be spliced after to keep direct
// untyped children in address order (CDT-I4) while keeping all
// descendants of parent contiguous (CDT-I2). Grandchildren of a prior
// sibling are skipped by jumping to that sibling's own last descendant,
// per §4.1. Direct children that are not themselves untyped (a
// RetypeCNode product) carry no address-order constraint, so the scan
// simply treats them as preceding any new untyped sibling and skips
// over them.
func InsertionAnchorForUntypedChild(parent *Capa, start uintptr) *Capa {
	anchor := parent
	for _, child := range DirectChildren(parent) {
		if cu, ok := child.Untyped(); ok && cu.Start >= start {
			break
		}
		anchor = LastDescendant(child)
	}
	return anchor
}

// LastDescendant returns the last node in parent's contiguous
// descendant run, or parent itself if it has no descendants. New
// children are spliced in immediately after whatever this returns,
// which is how §4.1 keeps descendants contiguous (CDT-I2) while still
// placing untyped children in address order (CDT-I4) among themselves.
func LastDescendant(parent *Capa) *Capa {
	last := parent
	cursor := parent.Next()
	for cursor != nil && IsDescendant(parent, cursor) {
		last = cursor
		cursor = cursor.Next()
	}
	return last
}
