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

package project

import (
	"testing"

	"github.com/SnellerInc/sneller/filemeta"
	"github.com/SnellerInc/sneller/schema"
)

func tableSchema(cols ...schema.Column) *schema.Tuple {
	t := schema.NewTuple()
	for _, c := range cols {
		t.Add(c)
	}
	return t
}

// TestWildcardPlusMetadata exercises scenario S1.
func TestWildcardPlusMetadata(t *testing.T) {
	scanList, err := ParseScanList([]string{"*"}, ScanListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	info, err := filemeta.New("/w/x/y/z.csv", "/w")
	if err != nil {
		t.Fatal(err)
	}
	fileList, err := ResolveFile(scanList, info, FileOptions{
		LegacyWildcardExpansion:      true,
		LegacyPartitionColumnLocation: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	table := tableSchema(
		schema.Column{Name: "a", Type: schema.Int64, Cardinality: schema.Required},
		schema.Column{Name: "b", Type: schema.VarChar, Cardinality: schema.Required},
	)
	resolved, outSchema := ResolveSchema(fileList, table, schema.Column{Type: schema.Int64, Cardinality: schema.Optional})

	wantNames := []string{"a", "b", "dir0", "dir1"}
	if outSchema.Len() != len(wantNames) {
		t.Fatalf("expected %d output columns, got %d: %+v", len(wantNames), outSchema.Len(), resolved)
	}
	for i, name := range wantNames {
		if outSchema.Columns()[i].Name != name {
			t.Errorf("column %d: expected %q, got %q", i, name, outSchema.Columns()[i].Name)
		}
	}
	// dir0/dir1 constants resolve to x/y.
	var dir0, dir1 string
	for _, rc := range resolved {
		switch rc.OutputName {
		case "dir0":
			dir0 = rc.ConstantValue
		case "dir1":
			dir1 = rc.ConstantValue
		}
	}
	if dir0 != "x" || dir1 != "y" {
		t.Fatalf("expected dir0=x dir1=y, got dir0=%q dir1=%q", dir0, dir1)
	}
}

// TestMissingColumnBecomesNull exercises scenario S2.
func TestMissingColumnBecomesNull(t *testing.T) {
	scanList, err := ParseScanList([]string{"a", "b", "c"}, ScanListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	info, _ := filemeta.New("/w/z.csv", "")
	fileList, err := ResolveFile(scanList, info, FileOptions{})
	if err != nil {
		t.Fatal(err)
	}
	table := tableSchema(
		schema.Column{Name: "a", Type: schema.Int64, Cardinality: schema.Required},
		schema.Column{Name: "b", Type: schema.VarChar, Cardinality: schema.Required},
	)
	resolved, _ := ResolveSchema(fileList, table, schema.Column{Type: schema.Int64, Cardinality: schema.Optional})
	if len(resolved) != 3 {
		t.Fatalf("expected 3 resolved columns, got %d", len(resolved))
	}
	c := resolved[2]
	if c.Kind != ResolvedNullColumn || c.OutputName != "c" {
		t.Fatalf("expected c to resolve to a null column, got %+v", c)
	}
	if c.NullType.Type != schema.Int64 || c.NullType.Cardinality != schema.Optional {
		t.Fatalf("expected default null type (optional int), got %+v", c.NullType)
	}
}

// TestColumnsArray exercises scenario S6.
func TestColumnsArray(t *testing.T) {
	scanList, err := ParseScanList([]string{"columns[0]", "columns[2]"}, ScanListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(scanList.Columns) != 1 || scanList.Columns[0].Kind != KindColumnsArray {
		t.Fatalf("expected a single columns[] entry, got %+v", scanList.Columns)
	}
	if len(scanList.Columns[0].Indices) != 2 || scanList.Columns[0].Indices[0] != 0 || scanList.Columns[0].Indices[1] != 2 {
		t.Fatalf("expected indices [0 2], got %v", scanList.Columns[0].Indices)
	}

	info, _ := filemeta.New("/w/z.csv", "")
	fileList, err := ResolveFile(scanList, info, FileOptions{})
	if err != nil {
		t.Fatal(err)
	}
	resolved, outSchema := ResolveSchema(fileList, schema.NewTuple(), schema.Column{})
	if outSchema.Len() != 1 || outSchema.Columns()[0].Name != "columns" || outSchema.Columns()[0].Cardinality != schema.Repeated {
		t.Fatalf("expected a single repeated 'columns' output column, got %+v", outSchema.Columns())
	}
	if resolved[0].Kind != ResolvedColumnsArray {
		t.Fatalf("expected ResolvedColumnsArray, got %+v", resolved[0])
	}
}

func TestColumnsConflictsWithBareAndIndexed(t *testing.T) {
	if _, err := ParseScanList([]string{"columns", "columns[0]"}, ScanListOptions{}); err == nil {
		t.Fatal("expected error for columns + columns[i] conflict")
	}
}

func TestColumnsConflictsWithTableColumn(t *testing.T) {
	if _, err := ParseScanList([]string{"columns[0]", "a"}, ScanListOptions{}); err == nil {
		t.Fatal("expected error for columns[] + table column conflict")
	}
}

func TestColumnsConflictsWithWildcardUnlessOptedIn(t *testing.T) {
	if _, err := ParseScanList([]string{"*", "columns[0]"}, ScanListOptions{}); err == nil {
		t.Fatal("expected error for columns[] + wildcard conflict")
	}
	if _, err := ParseScanList([]string{"*", "columns[0]"}, ScanListOptions{WildcardExpandsToColumns: true}); err != nil {
		t.Fatalf("expected no error when reader opts in, got %v", err)
	}
}

// TestDuplicateSpecsAreIdempotent checks 4.4(a)'s conflict
// rule that duplicate implicit-column specs collapse to one.
func TestDuplicateSpecsAreIdempotent(t *testing.T) {
	scanList, err := ParseScanList([]string{"fqn", "fqn", "dir0", "dir0", "a", "A"}, ScanListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(scanList.Columns) != 3 {
		t.Fatalf("expected 3 deduplicated columns, got %d: %+v", len(scanList.Columns), scanList.Columns)
	}
}

// TestParseThenReemitIsEquivalent exercises (R1).
func TestParseThenReemitIsEquivalent(t *testing.T) {
	entries := []string{"a", "fqn", "dir0"}
	first, err := ParseScanList(entries, ScanListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := ParseScanList(entries, ScanListOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(first.Columns) != len(second.Columns) {
		t.Fatalf("expected equal length, got %d vs %d", len(first.Columns), len(second.Columns))
	}
	for i := range first.Columns {
		if !first.Columns[i].Equivalent(second.Columns[i]) {
			t.Errorf("column %d not equivalent: %+v vs %+v", i, first.Columns[i], second.Columns[i])
		}
	}
}
