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

// Package capspace owns the process-wide capability space: the root
// CNode, the global capability lock spec.md §5 anticipates for a
// future multicore monitor, and the thin wrapper methods that drive
// internal/untyped and internal/capa while emitting an audit trail.
//
// This mirrors the teacher's resourceManager/ResourceManager split in
// internal/rm: a small struct holding state, with methods that
// syscall handlers (here, cmd/capsim) are coded against rather than
// reaching into internal/capa or internal/untyped directly.
package capspace

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/CharlyCst/l4sm/internal/capa"
	"github.com/CharlyCst/l4sm/internal/logger"
	"github.com/CharlyCst/l4sm/internal/untyped"
)

// Space is the single process-wide capability space. The zero value
// is not usable; construct with New.
type Space struct {
	mu sync.Mutex

	// root is the top-level CNode that slot references passed to
	// Space's methods ultimately live in. Space does not interpret
	// slot indices itself (spec.md §6: this repo does not implement
	// address translation) — callers hold *capa.Capa directly.
	root capa.Capa

	log logger.Logger
}

// errNoRootSlots is returned by New when asked to build a root CNode
// with no slots, which would make InstallRootUntyped unreachable.
var errNoRootSlots = errors.New("capspace: root CNode must have at least one slot")

// New allocates a capability space whose root CNode has numRootSlots
// empty slots, based at address 0 (the root CNode itself is bookkeeping,
// not backed by physical memory, so its base is a placeholder).
func New(numRootSlots int, log logger.Logger) (*Space, error) {
	if numRootSlots <= 0 {
		return nil, errNoRootSlots
	}
	if log == nil {
		log = logger.ToKlog
	}
	s := &Space{log: log}
	s.root = capa.NewCNode(0, numRootSlots)
	return s, nil
}

// Root returns the slot table of the space's root CNode so callers
// (cmd/capsim) can pick empty slots to pass as destinations.
func (s *Space) Root() *capa.CNodeCapa {
	c, ok := s.root.CNode()
	if !ok {
		capa.Assert(false, "capspace.Space root is not a CNode")
	}
	return c
}

// opLog tags every log line emitted for one operation invocation with
// the op name and a correlation id, so the audit trail is
// self-describing without each call site repeating its own message
// string.
type opLog struct {
	log logger.Logger
	op  string
	id  string
}

func (o opLog) info(keysAndValues ...interface{}) {
	o.log.InfoS(o.op, append([]interface{}{"correlationID", o.id}, keysAndValues...)...)
}

func (o opLog) error(err error, keysAndValues ...interface{}) {
	o.log.ErrorS(err, o.op+" failed", append([]interface{}{"correlationID", o.id}, keysAndValues...)...)
}

// begin acquires the space lock and returns an opLog tagging this
// call's log lines with op and a fresh correlation id, plus a
// deferred-style release function. Every exported Space method
// follows the same lock/log/unlock shape, matching the teacher's
// single mutating entrypoint-per-call style in internal/rm.
func (s *Space) begin(op string) (opLog, func()) {
	s.mu.Lock()
	return opLog{log: s.log, op: op, id: uuid.NewString()}, func() { s.mu.Unlock() }
}

// InstallRootUntyped writes a fresh, Fresh-state untyped capability
// covering [start,end) into slot, which must be an empty slot in the
// space's root CNode. This is the boot-time seeding step spec.md §3.5
// defers to "the platform"; cmd/capsim calls it once per range
// described in the boot manifest.
func (s *Space) InstallRootUntyped(slot *capa.Capa, start, end uintptr) error {
	ol, done := s.begin("install_root_untyped")
	defer done()

	if !slot.IsEmpty() {
		ol.error(capa.ErrSlotOccupied)
		return capa.ErrSlotOccupied
	}
	if start >= end {
		err := errors.New("capspace: empty or inverted range")
		ol.error(err, "start", start, "end", end)
		return err
	}

	*slot = capa.NewUntyped(start, end, 0, capa.Carved)

	// Append after the current tail of the global CDT list so that
	// successive boot-time roots keep the order they were installed in,
	// rather than each new root displacing the previous one right
	// after s.root.
	tail := &s.root
	for next := tail.Next(); next != nil; next = tail.Next() {
		tail = next
	}
	capa.InsertAfter(tail, slot)

	ol.info("start", start, "end", end)
	return nil
}

// Alias derives an overlap-permitted child of self covering [start,end)
// into dest. See untyped.Alias.
func (s *Space) Alias(self *capa.Capa, start, end uintptr, dest *capa.Capa) error {
	ol, done := s.begin("alias")
	defer done()

	err := untyped.Alias(self, start, end, dest)
	if err != nil {
		ol.error(err, "start", start, "end", end)
		return err
	}
	ol.info("start", start, "end", end)
	return nil
}

// Carve derives an exclusive child of self covering [start,end) into
// dest. See untyped.Carve.
func (s *Space) Carve(self *capa.Capa, start, end uintptr, dest *capa.Capa) error {
	ol, done := s.begin("carve")
	defer done()

	err := untyped.Carve(self, start, end, dest)
	if err != nil {
		ol.error(err, "start", start, "end", end)
		return err
	}
	ol.info("start", start, "end", end)
	return nil
}

// Allocate bumps self's watermark and returns a fresh, aligned address
// for a size-byte object. See untyped.Allocate.
func (s *Space) Allocate(self *capa.Capa, size uintptr, alignment uint) (uintptr, error) {
	ol, done := s.begin("allocate")
	defer done()

	addr, err := untyped.Allocate(self, size, alignment)
	if err != nil {
		ol.error(err, "size", size, "alignment", alignment)
		return 0, err
	}
	ol.info("size", size, "alignment", alignment, "address", addr)
	return addr, nil
}

// Revoke atomically invalidates every capability transitively derived
// from node. See untyped.Revoke.
func (s *Space) Revoke(node *capa.Capa) error {
	ol, done := s.begin("revoke")
	defer done()

	if err := untyped.Revoke(node); err != nil {
		ol.error(err)
		return err
	}
	ol.info()
	return nil
}

// RetypeCNode carves [start,end) off self and initialises it as a
// fresh CNode with numSlots empty slots, written into dest. See
// untyped.RetypeCNode.
func (s *Space) RetypeCNode(self *capa.Capa, start, end uintptr, numSlots int, dest *capa.Capa) error {
	ol, done := s.begin("retype_cnode")
	defer done()

	err := untyped.RetypeCNode(self, start, end, numSlots, dest)
	if err != nil {
		ol.error(err, "start", start, "end", end, "numSlots", numSlots)
		return err
	}
	ol.info("start", start, "end", end, "numSlots", numSlots)
	return nil
}
