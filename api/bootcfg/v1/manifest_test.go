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

package v1

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseFromValidManifest(t *testing.T) {
	const doc = `
version: v1
roots:
  - name: ddr-low
    start: 0x0
    end: 0x10000000
  - name: ddr-high
    start: 0x100000000
    end: 0x180000000
`
	m, err := ParseFrom(strings.NewReader(doc))
	require.NoError(t, err)
	require.Equal(t, Version, m.Version)
	require.Len(t, m.Roots, 2)
	require.Equal(t, "ddr-low", m.Roots[0].Name)
	require.Equal(t, uintptr(0x10000000), m.Roots[0].End)
}

func TestParseFromRejectsMissingVersion(t *testing.T) {
	const doc = `
roots:
  - name: ddr-low
    start: 0x0
    end: 0x1000
`
	_, err := ParseFrom(strings.NewReader(doc))
	require.ErrorContains(t, err, "missing version")
}

func TestParseFromRejectsUnknownVersion(t *testing.T) {
	const doc = `
version: v2
roots:
  - name: ddr-low
    start: 0x0
    end: 0x1000
`
	_, err := ParseFrom(strings.NewReader(doc))
	require.ErrorContains(t, err, "unknown version")
}

func TestParseFromRejectsEmptyRoots(t *testing.T) {
	const doc = `
version: v1
roots: []
`
	_, err := ParseFrom(strings.NewReader(doc))
	require.ErrorContains(t, err, "no roots")
}

func TestParseFromRejectsInvertedRange(t *testing.T) {
	const doc = `
version: v1
roots:
  - name: bogus
    start: 0x1000
    end: 0x1000
`
	_, err := ParseFrom(strings.NewReader(doc))
	require.ErrorContains(t, err, "empty or inverted range")
}

func TestParseRejectsMissingFile(t *testing.T) {
	_, err := Parse("/nonexistent/boot-manifest.yaml")
	require.Error(t, err)
}
