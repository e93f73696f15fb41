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

import (
	"github.com/SnellerInc/sneller/internal/caseidx"
)

// Tuple is an ordered list of columns plus a
// case-insensitive name index. Insertion order
// is preserved for iteration; lookups are
// case-insensitive by default.
type Tuple struct {
	cols []Column
	idx  *caseidx.Index
}

// NewTuple returns an empty Tuple.
func NewTuple() *Tuple {
	return &Tuple{idx: caseidx.New()}
}

// Add appends schema as a new column and returns its id.
// If a column with an equivalent (case-insensitive) name
// already exists, its existing id is returned instead and
// no new column is appended -- this matches the teacher's
// symbol-interning convention (ion.Symtab.Intern) of
// treating re-adds as idempotent lookups.
func (t *Tuple) Add(col Column) ColumnID {
	if id, ok := t.idx.Find(col.Name); ok {
		return ColumnID(id)
	}
	slot := t.idx.Add(col.Name)
	t.cols = append(t.cols, col)
	return ColumnID(slot)
}

// Find looks up a column by name (case-insensitive) and
// returns a pointer to it along with its id.
func (t *Tuple) Find(name string) (*Column, ColumnID, bool) {
	slot, ok := t.idx.Find(name)
	if !ok {
		return nil, 0, false
	}
	return &t.cols[slot], ColumnID(slot), true
}

// At returns the column at id.
func (t *Tuple) At(id ColumnID) *Column {
	return &t.cols[id]
}

// Len returns the number of top-level columns.
func (t *Tuple) Len() int {
	return len(t.cols)
}

// Columns returns the underlying slice in insertion order.
// Callers must not mutate the returned slice's length.
func (t *Tuple) Columns() []Column {
	return t.cols
}

// IsEquivalent reports whether two tuples have the same
// columns, in the same order, by Column.Equal. Order
// sensitivity matches the spec's definition of tuple
// equivalence.
func (t *Tuple) IsEquivalent(other *Tuple) bool {
	if other == nil || len(t.cols) != len(other.cols) {
		return false
	}
	for i := range t.cols {
		if !t.cols[i].Equal(&other.cols[i], false) {
			return false
		}
	}
	return true
}

// Clone makes an independent deep copy.
func (t *Tuple) Clone() *Tuple {
	c := NewTuple()
	for _, col := range t.cols {
		c.Add(*col.Clone())
	}
	return c
}

// Leaf is one flattened column: its dotted path name
// and its physical column.
type Leaf struct {
	Path string
	Col  *Column
}

// Flatten performs a pre-order walk of t, descending into
// Struct children, and returns the leaf (non-Struct)
// columns with dotted path names. Repeated/List columns
// are treated as leaves (their element type is scalar from
// the flattening's point of view).
func (t *Tuple) Flatten() []Leaf {
	var out []Leaf
	var walk func(prefix string, tup *Tuple)
	walk = func(prefix string, tup *Tuple) {
		for i := range tup.cols {
			col := &tup.cols[i]
			name := col.Name
			if prefix != "" {
				name = prefix + "." + col.Name
			}
			if col.Type == Struct && col.Child != nil {
				walk(name, col.Child)
				continue
			}
			out = append(out, Leaf{Path: name, Col: col})
		}
	}
	walk("", t)
	return out
}
