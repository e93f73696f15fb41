// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package caseidx implements a case-insensitive name index:
// keys are folded to lower-case for lookup and hashing, but
// the original case of the first insertion is preserved for
// iteration and re-emission.
package caseidx

import (
	"strings"

	"github.com/dchest/siphash"
)

// fixed process-local key so that hashes are stable across
// repeated calls within one run (we need schema fingerprints
// to compare equal across calls, not just within a map).
const k0, k1 = 0x5ca1ab1ecafed00d, 0x0ddba11f00dba5e5

// Hash returns a stable 64-bit hash of the lower-cased name,
// so names differing only in case hash equally. Index itself
// does not use it: its lookups go through a Go map keyed by
// the lower-cased name.
func Hash(name string) uint64 {
	lower := strings.ToLower(name)
	return siphash.Hash(k0, k1, []byte(lower))
}

// Index maps lower-cased names to an integer slot,
// preserving the original-case spelling of each name.
type Index struct {
	slots map[string]int // lower(name) -> slot
	names []string       // slot -> original-case name
}

// New returns an empty Index.
func New() *Index {
	return &Index{slots: make(map[string]int)}
}

// Add inserts name and returns its slot. If an
// equivalent (case-insensitively) name already
// exists, its existing slot is returned and the
// original case on record is left unchanged.
func (x *Index) Add(name string) int {
	key := strings.ToLower(name)
	if slot, ok := x.slots[key]; ok {
		return slot
	}
	slot := len(x.names)
	x.slots[key] = slot
	x.names = append(x.names, name)
	return slot
}

// Find returns the slot for name and whether it was found.
func (x *Index) Find(name string) (int, bool) {
	slot, ok := x.slots[strings.ToLower(name)]
	return slot, ok
}

// Name returns the original-case spelling stored for slot.
func (x *Index) Name(slot int) string {
	return x.names[slot]
}

// Len returns the number of distinct names held.
func (x *Index) Len() int {
	return len(x.names)
}

// Clone returns an independent copy of the index.
func (x *Index) Clone() *Index {
	c := &Index{
		slots: make(map[string]int, len(x.slots)),
		names: append([]string(nil), x.names...),
	}
	for k, v := range x.slots {
		c.slots[k] = v
	}
	return c
}
