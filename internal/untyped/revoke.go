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

// Revoke atomically invalidates every capability transitively derived
// from node, per spec.md §4.4. node itself remains live; if it is an
// untyped in allocation mode its watermark is reset to 0 (U-I5), since
// the kernel objects it bumped out are unreachable once their backing
// slots are gone. Revoke is idempotent (P8): revoking an already-fresh
// node is a no-op beyond the watermark reset.
//
// The descendant run is collected in full before any node is unlinked
// or cleared. IsDescendant walks a cursor's Parent chain up to node,
// so clearing a node mid-walk would zero its parent field and sever
// the chain for its own children, silently stranding grandchildren as
// live, linked, but unreachable from node's child list. Snapshotting
// first keeps every lineage pointer intact for the whole walk, so a
// multi-level subtree — node -> child -> grandchild — is invalidated
// all the way down, not just one level.
//
// The open question in spec.md §9 — whether revoking a capability that
// is itself a child also resets its *parent's* watermark — is resolved
// here as "no": only node's own watermark, if it has one, is touched.
// The revoked subtree is simply removed from the parent's child list.
func Revoke(node *capa.Capa) error {
	var descendants []*capa.Capa
	for cursor := node.Next(); cursor != nil && capa.IsDescendant(node, cursor); cursor = cursor.Next() {
		descendants = append(descendants, cursor)
	}

	for _, d := range descendants {
		capa.Unlink(d)
		d.Clear()
	}

	if u, ok := node.Untyped(); ok {
		u.Watermark = 0
	}
	return nil
}
