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

// Package smoother implements schema smoothing (4.5): across
// reader boundaries within one scan, it decides whether the
// new reader's resolved schema can reuse the prior output
// schema (and column order) rather than forcing a visible
// schema-version bump downstream.
package smoother

import (
	"encoding/binary"
	"strings"

	"github.com/SnellerInc/sneller/schema"
	"golang.org/x/crypto/blake2b"
)

// Options configures compatibility rules that depend on scan
// configuration rather than the schemas alone.
type Options struct {
	// LegacyWildcardExpansion mirrors the project-level flag:
	// when set, a new file's partition depth must not exceed
	// the prior schema's partition depth to reuse it.
	LegacyWildcardExpansion bool
	// PriorPartitionDepth is the partition depth the prior
	// schema was built with (only meaningful alongside
	// LegacyWildcardExpansion).
	PriorPartitionDepth int
	// NewPartitionDepth is the new file's partition depth.
	NewPartitionDepth int
}

// CachedColumns reports which prior column names still have a
// live backing vector in the scan's vector cache -- consulted
// when a prior column is absent from the new schema but its
// cardinality is not optional/repeated (4.5's third rule).
type CachedColumns interface {
	Cached(name string) bool
}

type noCache struct{}

func (noCache) Cached(string) bool { return false }

// NoCache is a CachedColumns that reports nothing cached.
var NoCache CachedColumns = noCache{}

// Smoother holds the most recently emitted schema and exposes
// Smooth to compare it against a candidate new schema.
type Smoother struct {
	prior      *schema.Tuple
	priorDepth int
	version    uint64
	fp         [32]byte
	hasPrior   bool
}

// New returns a Smoother with no prior schema: the first
// schema it sees always becomes version 1.
func New() *Smoother {
	return &Smoother{}
}

// Version returns the current schema version. It is 0 until
// the first call to Smooth.
func (s *Smoother) Version() uint64 {
	return s.version
}

// Result is the outcome of one Smooth call.
type Result struct {
	// Schema is the schema downstream should see: either the
	// prior schema (reuse) or the new schema (replace).
	Schema *schema.Tuple
	// VersionBumped reports whether the caller should surface
	// OK_NEW_SCHEMA (true) or OK (false, reuse with unchanged
	// version).
	VersionBumped bool
	// Permutation maps output position -> index into the new
	// schema's columns, or -1 if the column has no counterpart
	// in the new schema (filled with null). Present only when
	// VersionBumped is false and len(Permutation) > 0.
	Permutation []int
}

// Smooth implements 4.5: given the new reader's resolved
// schema, decide reuse vs. replace.
func (s *Smoother) Smooth(next *schema.Tuple, opts Options, cache CachedColumns) Result {
	if cache == nil {
		cache = NoCache
	}
	if !s.hasPrior {
		s.adopt(next, opts.NewPartitionDepth)
		return Result{Schema: next, VersionBumped: true}
	}

	if Fingerprint(next) == s.fp && !(opts.LegacyWildcardExpansion && opts.NewPartitionDepth > s.priorDepth) {
		perm := make([]int, s.prior.Len())
		for i := range perm {
			perm[i] = i
		}
		return Result{Schema: s.prior, VersionBumped: false, Permutation: perm}
	}
	perm, ok := compatible(s.prior, next, opts, s.priorDepth, cache)
	if !ok {
		s.adopt(next, opts.NewPartitionDepth)
		return Result{Schema: next, VersionBumped: true}
	}
	return Result{Schema: s.prior, VersionBumped: false, Permutation: perm}
}

func (s *Smoother) adopt(next *schema.Tuple, depth int) {
	s.prior = next
	s.priorDepth = depth
	s.version++
	s.fp = Fingerprint(next)
	s.hasPrior = true
}

// compatible checks the four compatibility rules of 4.5 and,
// if they all hold, returns the permutation from prior-order
// output positions to indices in next's columns (-1 = no
// counterpart, to be null-filled).
func compatible(prior, next *schema.Tuple, opts Options, priorDepth int, cache CachedColumns) ([]int, bool) {
	if opts.LegacyWildcardExpansion && opts.NewPartitionDepth > priorDepth {
		return nil, false
	}

	nextByName := map[string]int{}
	for i, c := range next.Columns() {
		nextByName[strings.ToLower(c.Name)] = i
	}

	perm := make([]int, prior.Len())
	matched := make([]bool, next.Len())
	for i, pc := range prior.Columns() {
		j, ok := nextByName[strings.ToLower(pc.Name)]
		if !ok {
			// rule 3: absent columns must be optional/repeated,
			// or still backed by a cached vector.
			if pc.Cardinality == schema.Required && !cache.Cached(pc.Name) {
				return nil, false
			}
			perm[i] = -1
			continue
		}
		nc := next.Columns()[j]
		if nc.Type != pc.Type {
			return nil, false
		}
		matched[j] = true
		perm[i] = j
	}
	// every column in `next` must have a same-named prior
	// counterpart (rule 1, stated the other direction too: the
	// new schema cannot introduce a column the prior schema
	// didn't have, since that would change the output shape).
	for j := range matched {
		if !matched[j] {
			return nil, false
		}
	}
	return perm, true
}

// Fingerprint returns a content hash of a schema's column
// names, types, and cardinalities, cheap enough to compare on
// every reader boundary to rule out the common case (I4) of
// an unchanged schema before running the full compatibility
// check, in the spirit of the teacher's blockfmt index
// fingerprinting (blake2b over a descriptor's canonical
// encoding).
func Fingerprint(t *schema.Tuple) [32]byte {
	h, _ := blake2b.New256(nil)
	for _, c := range t.Columns() {
		h.Write([]byte(strings.ToLower(c.Name)))
		h.Write([]byte{0})
		var buf [8]byte
		binary.LittleEndian.PutUint32(buf[0:4], uint32(c.Type))
		binary.LittleEndian.PutUint32(buf[4:8], uint32(c.Cardinality))
		h.Write(buf[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
