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

// Package scenario replays a scripted sequence of capspace operations
// against a capability space. It is test/demo scaffolding for
// cmd/capsim, standing in for a real syscall layer: spec.md §6 is
// explicit that slot references reaching the core are already
// resolved, so a scenario names capability slots by string and the
// runner resolves them to *capa.Capa itself.
package scenario

import (
	"fmt"
	"io"

	"sigs.k8s.io/yaml"

	"github.com/CharlyCst/l4sm/internal/capa"
	"github.com/CharlyCst/l4sm/internal/capspace"
)

// Version identifies the Scenario struct shape used below.
const Version = "v1"

// Step is one operation in a scenario. Which fields are meaningful
// depends on Op; unused fields are simply ignored.
type Step struct {
	Op string `json:"op" yaml:"op"`

	// RootSlot addresses a slot in the space's root CNode; used only by
	// the install_root_untyped op.
	RootSlot int `json:"rootSlot,omitempty" yaml:"rootSlot,omitempty"`

	// Self and Dest name capability cells tracked by the runner. A name
	// not seen before resolves to a new empty cell. For
	// install_root_untyped, Self is the name the installed root slot is
	// registered under.
	Self string `json:"self,omitempty" yaml:"self,omitempty"`
	Dest string `json:"dest,omitempty" yaml:"dest,omitempty"`

	Start     uintptr `json:"start,omitempty"     yaml:"start,omitempty"`
	End       uintptr `json:"end,omitempty"       yaml:"end,omitempty"`
	Size      uintptr `json:"size,omitempty"      yaml:"size,omitempty"`
	Alignment uint    `json:"alignment,omitempty" yaml:"alignment,omitempty"`
	NumSlots  int     `json:"numSlots,omitempty"  yaml:"numSlots,omitempty"`
}

// Scenario is a versioned, named sequence of steps.
type Scenario struct {
	Version string `json:"version" yaml:"version"`
	Name    string `json:"name"    yaml:"name"`
	Steps   []Step `json:"steps"   yaml:"steps"`
}

// Parse reads and validates a Scenario.
func Parse(r io.Reader) (*Scenario, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}
	if s.Version == "" {
		return nil, fmt.Errorf("missing version field")
	}
	if s.Version != Version {
		return nil, fmt.Errorf("unknown version: %v", s.Version)
	}
	return &s, nil
}

// Runner holds the live named-cell table a scenario's steps address
// by string. Cells are plain *capa.Capa; the runner does not itself
// interpret CNode slot indices, matching capspace.Space.
type Runner struct {
	space *capspace.Space
	cells map[string]*capa.Capa
}

// NewRunner constructs a Runner bound to space.
func NewRunner(space *capspace.Space) *Runner {
	return &Runner{space: space, cells: make(map[string]*capa.Capa)}
}

// Seed preloads a named cell, e.g. to expose a root untyped installed
// directly from a boot manifest under the name a scenario's steps
// will refer to it by.
func (r *Runner) Seed(name string, c *capa.Capa) {
	r.cells[name] = c
}

// cell returns the named cell, creating an empty one on first use.
func (r *Runner) cell(name string) *capa.Capa {
	c, ok := r.cells[name]
	if !ok {
		c = new(capa.Capa)
		r.cells[name] = c
	}
	return c
}

// Run executes every step in order, stopping at the first error.
func (r *Runner) Run(steps []Step) error {
	for i, step := range steps {
		if err := r.runStep(step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}
	return nil
}

func (r *Runner) runStep(step Step) error {
	switch step.Op {
	case "install_root_untyped":
		root := r.space.Root()
		if step.RootSlot < 0 || step.RootSlot >= len(root.Slots) {
			return fmt.Errorf("root slot %d out of range (root has %d slots)", step.RootSlot, len(root.Slots))
		}
		slot := &root.Slots[step.RootSlot]
		if err := r.space.InstallRootUntyped(slot, step.Start, step.End); err != nil {
			return err
		}
		r.cells[step.Self] = slot
		return nil

	case "alias":
		return r.space.Alias(r.cell(step.Self), step.Start, step.End, r.cell(step.Dest))

	case "carve":
		return r.space.Carve(r.cell(step.Self), step.Start, step.End, r.cell(step.Dest))

	case "allocate":
		_, err := r.space.Allocate(r.cell(step.Self), step.Size, step.Alignment)
		return err

	case "revoke":
		return r.space.Revoke(r.cell(step.Self))

	case "retype_cnode":
		return r.space.RetypeCNode(r.cell(step.Self), step.Start, step.End, step.NumSlots, r.cell(step.Dest))

	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}
