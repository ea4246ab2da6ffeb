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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CharlyCst/l4sm/internal/capa"
)

// TestRevocationCascade is scenario 5 of spec.md §8: build U -> A -> A1,
// U -> B, then revoke(A) must drop A1, keep A live, and leave B untouched.
func TestRevocationCascade(t *testing.T) {
	u := capa.NewUntyped(0, 0x10000, 0, capa.Carved)
	var a, a1, b capa.Capa

	require.NoError(t, Carve(&u, 0, 0x1000, &a))
	require.NoError(t, Carve(&a, 0, 0x100, &a1))
	require.NoError(t, Carve(&u, 0x1000, 0x2000, &b))

	require.NoError(t, Revoke(&a))

	// A itself remains live (Revoke spares the node it is called on); only
	// its descendants are unlinked and nulled.
	require.False(t, a.IsEmpty())
	require.True(t, a1.IsEmpty())
	require.Empty(t, capa.DirectChildren(&a))

	au, ok := a.Untyped()
	require.True(t, ok)
	require.Equal(t, uintptr(0), au.Watermark)

	require.Equal(t, []*capa.Capa{&a, &b}, capa.DirectChildren(&u))

	uu, _ := u.Untyped()
	require.Equal(t, uintptr(0), uu.Watermark)
}

// TestRevocationCascadeDepthTwo revokes an ancestor two levels above a
// grandchild (U -> A -> A1), the deepest case spec.md §1 calls out as
// the hardest engineering in the core: the walk must keep invalidating
// past the first level rather than stopping once A is unlinked.
func TestRevocationCascadeDepthTwo(t *testing.T) {
	u := capa.NewUntyped(0, 0x10000, 0, capa.Carved)
	var a, a1 capa.Capa

	require.NoError(t, Carve(&u, 0, 0x1000, &a))
	require.NoError(t, Carve(&a, 0, 0x100, &a1))

	require.NoError(t, Revoke(&u))

	require.True(t, a.IsEmpty())
	require.True(t, a1.IsEmpty())
	require.Empty(t, capa.DirectChildren(&u))
	require.Nil(t, u.Next())

	uu, _ := u.Untyped()
	require.Equal(t, uintptr(0), uu.Watermark)
}

// TestAllocateAfterRevoke is scenario 6 of spec.md §8: continuing from
// scenario 5, revoking U drops its last remaining child B, which returns
// U to Fresh, and allocate succeeds again.
func TestAllocateAfterRevoke(t *testing.T) {
	u := capa.NewUntyped(0, 0x10000, 0, capa.Carved)
	var b capa.Capa
	require.NoError(t, Carve(&u, 0x1000, 0x2000, &b))

	require.NoError(t, Revoke(&u))
	require.True(t, b.IsEmpty())
	require.Empty(t, capa.DirectChildren(&u))

	addr, err := Allocate(&u, 128, 12)
	require.NoError(t, err)
	require.Equal(t, uintptr(0), addr%0x1000, "must be 4KiB aligned")
	require.GreaterOrEqual(t, addr, uintptr(0))
	uu, _ := u.Untyped()
	require.Less(t, addr+128, uu.End)
}

// TestRevokeIdempotent is P8.
func TestRevokeIdempotent(t *testing.T) {
	u := capa.NewUntyped(0, 0x10000, 0, capa.Carved)
	var a capa.Capa
	require.NoError(t, Carve(&u, 0, 0x100, &a))

	require.NoError(t, Revoke(&u))
	stateAfterFirst := capa.DirectChildren(&u)

	require.NoError(t, Revoke(&u))
	require.Equal(t, stateAfterFirst, capa.DirectChildren(&u))
	require.Empty(t, capa.DirectChildren(&u))
}

// TestRevokeResetsToFresh is P9.
func TestRevokeResetsToFresh(t *testing.T) {
	u := capa.NewUntyped(0, 0x10000, 0, capa.Carved)
	_, err := Allocate(&u, 256, 4)
	require.NoError(t, err)

	require.NoError(t, Revoke(&u))

	uu, _ := u.Untyped()
	require.Equal(t, uintptr(0), uu.Watermark)
	require.Empty(t, capa.DirectChildren(&u))
}

// TestRevokeOfChildDoesNotResetParentWatermark pins the Open Question
// resolution in spec.md §9: revoking a plain (non-ancestor-of-self)
// child leaves the parent's own watermark untouched, because the
// parent was never in allocation mode to begin with while it has
// children (U-I1).
func TestRevokeOfChildDoesNotResetParentWatermark(t *testing.T) {
	u := capa.NewUntyped(0, 0x10000, 0, capa.Carved)
	var a capa.Capa
	require.NoError(t, Carve(&u, 0, 0x100, &a))

	require.NoError(t, Revoke(&a))

	uu, _ := u.Untyped()
	require.Equal(t, uintptr(0), uu.Watermark)
}
