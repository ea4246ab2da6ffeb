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

// Package capa holds the capability value type and the Capability
// Derivation Tree (CDT) list it is threaded through. A Capa is the unit
// of storage in a CNode slot: Null, a CNode reference, or an untyped
// memory descriptor. Non-null variants carry the CDT link embedded in
// the value itself, so insertion and unlinking are O(1) pointer
// surgery with no side table.
package capa

// Kind tags the variant currently held by a Capa.
type Kind uint8

const (
	// KindNull marks an empty slot. It is the zero value of Kind so that
	// the zero value of Capa is already a valid, empty slot.
	KindNull Kind = iota
	KindCNode
	KindUntyped
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindCNode:
		return "CNode"
	case KindUntyped:
		return "Untyped"
	default:
		return "Unknown"
	}
}

// UntypedKind records how an untyped capability was derived from its
// parent, which in turn governs the sibling-overlap rules in R-I2/R-I3.
type UntypedKind uint8

const (
	Aliased UntypedKind = iota
	Carved
)

func (k UntypedKind) String() string {
	if k == Carved {
		return "Carved"
	}
	return "Aliased"
}

// cdtNode is the embedded CDT link. prev/next point at neighbouring
// slots in the single global preorder list (CDT-I2); they are a
// relation between slots, not an ownership edge.
type cdtNode struct {
	prev *Capa
	next *Capa
}

// CNodeCapa is a table of capability slots. Its Slots backing array is
// allocated once, at construction, and never resized: slot references
// handed out to callers are *Capa pointers directly into it, and they
// must stay valid for the CNode's lifetime.
type CNodeCapa struct {
	Base  uintptr
	Slots []Capa

	// Start/End record the physical range a CNode was retyped out of, if
	// any (RetypeCNode, SPEC_FULL.md §3.6 ADDED). Zero for CNodes that
	// are not backed by a carved range. Used by the sibling disjointness
	// checks in internal/untyped (R-I2/R-I3) to treat a retyped CNode
	// like a Carved byte range; unrelated to CDT lineage, which is
	// tracked separately via parent.
	Start uintptr
	End   uintptr
}

// UntypedCapa names a contiguous physical byte range plus the bump
// watermark and derivation kind that govern it (§3.1, §3.4).
type UntypedCapa struct {
	Start     uintptr
	End       uintptr
	Watermark uintptr
	UKind     UntypedKind
}

// Size returns the number of bytes spanned by the untyped's range.
func (u *UntypedCapa) Size() uintptr {
	return u.End - u.Start
}

// Capa is the tagged sum stored in every capability slot.
type Capa struct {
	kind    Kind
	cnode   CNodeCapa
	untyped UntypedCapa
	cdt     cdtNode

	// parent is the slot c was derived from (Alias, Carve, RetypeCNode),
	// or nil for a root installed directly into a CNode (§3.5) and for
	// unlinked, freshly constructed values. This is the actual
	// derivation edge the CDT list threads in preorder; IsDescendant
	// walks it directly rather than inferring ancestry from byte-range
	// containment, which R-I3 makes ambiguous once sibling Aliased
	// children are allowed to nest.
	parent *Capa
}

// NewCNode constructs a non-null CNode capability with the given number
// of (initially Null) slots. It is not yet linked into any CDT list;
// callers splice it in via InsertAfter or write it into a slot with
// WriteAfter.
func NewCNode(base uintptr, numSlots int) Capa {
	return Capa{
		kind:  KindCNode,
		cnode: CNodeCapa{Base: base, Slots: make([]Capa, numSlots)},
	}
}

// NewCNodeFromRange constructs a CNode capability backed by the given
// physical range, as produced by RetypeCNode. Recording the range lets
// the sibling overlap checks in internal/untyped treat it like a Carved
// untyped child; CDT ancestry still comes from Parent.
func NewCNodeFromRange(start, end uintptr, numSlots int) Capa {
	c := NewCNode(start, numSlots)
	c.cnode.Start = start
	c.cnode.End = end
	return c
}

// NewUntyped constructs a non-null, unlinked untyped capability.
func NewUntyped(start, end uintptr, watermark uintptr, kind UntypedKind) Capa {
	return Capa{
		kind: KindUntyped,
		untyped: UntypedCapa{
			Start:     start,
			End:       end,
			Watermark: watermark,
			UKind:     kind,
		},
	}
}

// Kind reports the variant currently held by c.
func (c *Capa) Kind() Kind {
	return c.kind
}

// IsEmpty is true iff the slot holds Null (CDT-I1).
func (c *Capa) IsEmpty() bool {
	return c.kind == KindNull
}

// CNode returns the CNode payload and true iff c holds a CNode.
func (c *Capa) CNode() (*CNodeCapa, bool) {
	if c.kind != KindCNode {
		return nil, false
	}
	return &c.cnode, true
}

// Range returns the physical byte range backing c and true, for any
// variant that occupies one (Untyped always; CNode only when it was
// produced by RetypeCNode). Used by internal/untyped's sibling overlap
// checks (R-I2/R-I3); CDT ancestry is a distinct question answered by
// Parent, not Range.
func (c *Capa) Range() (start, end uintptr, ok bool) {
	switch c.kind {
	case KindUntyped:
		return c.untyped.Start, c.untyped.End, true
	case KindCNode:
		if c.cnode.Start == 0 && c.cnode.End == 0 {
			return 0, 0, false
		}
		return c.cnode.Start, c.cnode.End, true
	default:
		return 0, 0, false
	}
}

// Untyped returns the untyped payload and true iff c holds an Untyped.
func (c *Capa) Untyped() (*UntypedCapa, bool) {
	if c.kind != KindUntyped {
		return nil, false
	}
	return &c.untyped, true
}

// Parent returns the slot c was derived from, or nil if c is a root or
// is unlinked.
func (c *Capa) Parent() *Capa {
	return c.parent
}

// SetParent records that child was derived from parent. Callers in
// internal/untyped call this once, right after splicing child into the
// CDT list with WriteAfter, so that IsDescendant can walk real
// derivation lineage instead of inferring it from the child's byte
// range.
func SetParent(child, parent *Capa) {
	child.parent = parent
}

// Clear resets c to Null without touching its CDT neighbours. Callers
// that need the slot removed from the list must Unlink first.
func (c *Capa) Clear() {
	*c = Capa{}
}
