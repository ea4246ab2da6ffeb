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

// Package v1 describes the boot manifest cmd/capsim reads to seed a
// capspace.Space: the physical memory ranges the platform hands off
// to install_root_untyped, standing in for the real platform layer
// spec.md §3.5 names but does not specify. This is test/demo
// scaffolding, not part of the monitor's trusted interface (spec.md
// §6: the core itself consumes no wire or file format).
package v1

import (
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"
)

// Version identifies the Manifest struct shape used below.
const Version = "v1"

// Manifest is a versioned list of physical memory ranges to install as
// root untyped capabilities at boot.
type Manifest struct {
	Version string `json:"version" yaml:"version"`
	Roots   []Root `json:"roots"   yaml:"roots"`
}

// Root names one physical range, in the half-open form [Start, End),
// that becomes a single root untyped capability.
type Root struct {
	Name  string  `json:"name"  yaml:"name"`
	Start uintptr `json:"start" yaml:"start"`
	End   uintptr `json:"end"   yaml:"end"`
}

// Parse reads and validates a Manifest from path.
func Parse(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening boot manifest: %w", err)
	}
	defer f.Close()

	m, err := ParseFrom(f)
	if err != nil {
		return nil, fmt.Errorf("error parsing boot manifest: %w", err)
	}
	return m, nil
}

// ParseFrom reads and validates a Manifest from an arbitrary reader.
func ParseFrom(r io.Reader) (*Manifest, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	if m.Version == "" {
		return nil, fmt.Errorf("missing version field")
	}
	if m.Version != Version {
		return nil, fmt.Errorf("unknown version: %v", m.Version)
	}
	if len(m.Roots) == 0 {
		return nil, fmt.Errorf("manifest names no roots")
	}

	for _, root := range m.Roots {
		if root.Name == "" {
			return nil, fmt.Errorf("root missing name field")
		}
		if root.Start >= root.End {
			return nil, fmt.Errorf("root %q: empty or inverted range [%#x, %#x)", root.Name, root.Start, root.End)
		}
	}

	return &m, nil
}
