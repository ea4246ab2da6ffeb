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

package scenario

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CharlyCst/l4sm/internal/capspace"
)

func TestParseRejectsMissingVersion(t *testing.T) {
	_, err := Parse(strings.NewReader("steps: []\n"))
	require.ErrorContains(t, err, "missing version")
}

func TestRunnerReplaysEndToEndScenario(t *testing.T) {
	const doc = `
version: v1
name: smoke
steps:
  - op: install_root_untyped
    rootSlot: 0
    self: ram
    start: 0x0
    end: 0x10000
  - op: carve
    self: ram
    dest: child
    start: 0x1000
    end: 0x2000
  - op: allocate
    self: child
    size: 64
    alignment: 3
  - op: revoke
    self: ram
`
	s, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	space, err := capspace.New(4, nil)
	require.NoError(t, err)

	r := NewRunner(space)
	require.NoError(t, r.Run(s.Steps))
}

func TestRunnerPropagatesStepErrors(t *testing.T) {
	const doc = `
version: v1
steps:
  - op: carve
    self: nonexistent
    dest: child
    start: 0x0
    end: 0x100
`
	s, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	space, err := capspace.New(4, nil)
	require.NoError(t, err)

	r := NewRunner(space)
	err = r.Run(s.Steps)
	require.ErrorContains(t, err, "step 0 (carve)")
}

func TestRunnerRejectsUnknownOp(t *testing.T) {
	const doc = `
version: v1
steps:
  - op: teleport
`
	s, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)

	space, err := capspace.New(4, nil)
	require.NoError(t, err)

	r := NewRunner(space)
	err = r.Run(s.Steps)
	require.ErrorContains(t, err, "unknown op")
}
