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

package schema

import "testing"

func TestTupleAddIsCaseInsensitiveIdempotent(t *testing.T) {
	tup := NewTuple()
	id1 := tup.Add(Column{Name: "Foo", Type: Int64})
	id2 := tup.Add(Column{Name: "foo", Type: VarChar})
	if id1 != id2 {
		t.Fatalf("expected re-add of equivalent name to return same id, got %d and %d", id1, id2)
	}
	if tup.Len() != 1 {
		t.Fatalf("expected 1 column, got %d", tup.Len())
	}
	col, id, ok := tup.Find("FOO")
	if !ok || id != id1 || col.Name != "Foo" {
		t.Fatalf("expected case-insensitive lookup to find original-case column, got %+v", col)
	}
}

func TestTupleIsEquivalentOrderSensitive(t *testing.T) {
	a := NewTuple()
	a.Add(Column{Name: "a", Type: Int64})
	a.Add(Column{Name: "b", Type: VarChar})

	b := NewTuple()
	b.Add(Column{Name: "b", Type: VarChar})
	b.Add(Column{Name: "a", Type: Int64})

	if a.IsEquivalent(b) {
		t.Fatal("expected differently-ordered tuples to be non-equivalent")
	}

	c := NewTuple()
	c.Add(Column{Name: "A", Type: Int64})
	c.Add(Column{Name: "b", Type: VarChar})
	if !a.IsEquivalent(c) {
		t.Fatal("expected case-insensitive equivalence to hold")
	}
}

func TestTupleFlatten(t *testing.T) {
	child := NewTuple()
	child.Add(Column{Name: "x", Type: Int64})
	child.Add(Column{Name: "y", Type: VarChar})

	root := NewTuple()
	root.Add(Column{Name: "a", Type: Int64})
	root.Add(Column{Name: "nested", Type: Struct, Child: child})

	leaves := root.Flatten()
	want := []string{"a", "nested.x", "nested.y"}
	if len(leaves) != len(want) {
		t.Fatalf("expected %d leaves, got %d: %+v", len(want), len(leaves), leaves)
	}
	for i, w := range want {
		if leaves[i].Path != w {
			t.Errorf("leaf %d: expected path %q, got %q", i, w, leaves[i].Path)
		}
	}
}

func TestParsePath(t *testing.T) {
	cases := []struct {
		in   string
		want Path
	}{
		{"*", Path{Root: Wildcard}},
		{"a", Path{Root: "a"}},
		{"a.b", Path{Root: "a", Rest: []PathElem{{Name: "b"}}}},
		{"columns[0]", Path{Root: "columns", Rest: []PathElem{{Index: 0, IsIndex: true}}}},
		{"dir0", Path{Root: "dir0"}},
	}
	for _, c := range cases {
		got, err := ParsePath(c.in)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", c.in, err)
		}
		if got.String() != c.want.String() {
			t.Errorf("ParsePath(%q) = %q, want %q", c.in, got.String(), c.want.String())
		}
	}
}

func TestParsePathRejectsEmpty(t *testing.T) {
	if _, err := ParsePath(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}
