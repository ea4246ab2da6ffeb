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

// Package untyped implements the alias/carve/allocate/revoke operations
// on untyped memory capabilities (spec.md §4.2-§4.4), the mode gate
// between delegation and allocation (§3.4), and the range invariants
// between siblings (§3.5).
package untyped

import "errors"

// Range errors.
var (
	ErrOutOfBounds           = errors.New("range out of bounds of parent")
	ErrOverlapsSibling       = errors.New("overlaps a sibling range")
	ErrOverlapsCarvedSibling = errors.New("overlaps a carved sibling range")
)

// Mode errors.
var (
	ErrNotInDelegationMode = errors.New("untyped is not in delegation mode")
	ErrNotInAllocationMode = errors.New("untyped is not in allocation mode")
)

// Resource errors.
var (
	ErrOutOfMemory = errors.New("allocation would exceed untyped's range")
)
