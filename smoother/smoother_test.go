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

package smoother

import (
	"testing"

	"github.com/SnellerInc/sneller/schema"
)

func schemaAB(bOptional bool) *schema.Tuple {
	t := schema.NewTuple()
	t.Add(schema.Column{Name: "a", Type: schema.Int64, Cardinality: schema.Required})
	card := schema.Required
	if bOptional {
		card = schema.Optional
	}
	t.Add(schema.Column{Name: "b", Type: schema.VarChar, Cardinality: card})
	return t
}

func schemaAOnly() *schema.Tuple {
	t := schema.NewTuple()
	t.Add(schema.Column{Name: "a", Type: schema.Int64, Cardinality: schema.Required})
	return t
}

// TestSmoothingAcrossThreeReaders exercises scenario S5.
func TestSmoothingAcrossThreeReaders(t *testing.T) {
	sm := New()

	r1 := sm.Smooth(schemaAB(true), Options{}, nil)
	if !r1.VersionBumped || sm.Version() != 1 {
		t.Fatalf("expected first schema to bump version to 1, got bumped=%v version=%d", r1.VersionBumped, sm.Version())
	}

	r2 := sm.Smooth(schemaAOnly(), Options{}, nil)
	if r2.VersionBumped {
		t.Fatalf("expected reader2 (missing optional b) to reuse prior schema")
	}
	if sm.Version() != 1 {
		t.Fatalf("expected version to stay 1, got %d", sm.Version())
	}
	if r2.Schema.Len() != 2 {
		t.Fatalf("expected output schema (a,b) to be retained, got %d columns", r2.Schema.Len())
	}

	r3 := sm.Smooth(schemaAB(true), Options{}, nil)
	if r3.VersionBumped {
		t.Fatalf("expected reader3 (identical schema) to reuse prior schema")
	}
	if sm.Version() != 1 {
		t.Fatalf("expected version to stay 1 across all three readers, got %d", sm.Version())
	}
}

// TestSmoothSameTwiceNoBump exercises (R3): smooth(S, S) = S,
// no version bump.
func TestSmoothSameTwiceNoBump(t *testing.T) {
	sm := New()
	s := schemaAB(true)
	r1 := sm.Smooth(s, Options{}, nil)
	if !r1.VersionBumped {
		t.Fatal("expected first call to bump")
	}
	r2 := sm.Smooth(s, Options{}, nil)
	if r2.VersionBumped {
		t.Fatal("expected smoothing the same schema twice not to bump")
	}
}

// TestRequiredColumnMissingForcesReplace checks rule 3: a
// required (non-optional, non-repeated) prior column absent
// from the new schema, with nothing in the vector cache,
// forces a replace.
func TestRequiredColumnMissingForcesReplace(t *testing.T) {
	sm := New()
	sm.Smooth(schemaAB(false), Options{}, nil) // b required
	r2 := sm.Smooth(schemaAOnly(), Options{}, NoCache)
	if !r2.VersionBumped {
		t.Fatal("expected missing required column to force a schema replace")
	}
}

// TestCachedColumnAllowsReuseDespiteRequired checks the
// vector-cache exception to rule 3.
func TestCachedColumnAllowsReuseDespiteRequired(t *testing.T) {
	sm := New()
	sm.Smooth(schemaAB(false), Options{}, nil)
	r2 := sm.Smooth(schemaAOnly(), Options{}, cachedNames{"b": true})
	if r2.VersionBumped {
		t.Fatal("expected cached backing vector to allow reuse despite required cardinality")
	}
}

type cachedNames map[string]bool

func (c cachedNames) Cached(name string) bool { return c[name] }

// TestMismatchedTypeForcesReplace checks rule 2.
func TestMismatchedTypeForcesReplace(t *testing.T) {
	sm := New()
	sm.Smooth(schemaAB(true), Options{}, nil)
	next := schema.NewTuple()
	next.Add(schema.Column{Name: "a", Type: schema.VarChar, Cardinality: schema.Required})
	r2 := sm.Smooth(next, Options{}, nil)
	if !r2.VersionBumped {
		t.Fatal("expected a type mismatch to force a schema replace")
	}
}

// TestFingerprintStableAcrossCase checks that fingerprints
// used for cheap I4 pre-checks are case-insensitive on name,
// matching the tuple's own equivalence rule.
func TestFingerprintStableAcrossCase(t *testing.T) {
	a := schema.NewTuple()
	a.Add(schema.Column{Name: "Foo", Type: schema.Int64, Cardinality: schema.Required})
	b := schema.NewTuple()
	b.Add(schema.Column{Name: "foo", Type: schema.Int64, Cardinality: schema.Required})
	if Fingerprint(a) != Fingerprint(b) {
		t.Fatal("expected case-insensitive fingerprint equality")
	}
}
