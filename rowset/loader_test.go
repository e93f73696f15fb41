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

package rowset

import (
	"testing"

	"github.com/SnellerInc/sneller/schema"
	"github.com/SnellerInc/sneller/vector"
)

// writeRow writes id and name into their columns and saves the row.
func writeRow(l *Loader, ids *vector.Int64Writer, names *vector.VarCharWriter, id int64, name string) (bool, error) {
	ids.SetInt(id, 64)
	names.SetString(name)
	return l.Save()
}

func TestLoaderHarvestsWithoutOverflow(t *testing.T) {
	l := NewLoader(Limits{MaxRows: 10, MaxBytes: 1 << 20})
	ids := vector.NewInt64Writer("id", schema.Required)
	names := vector.NewVarCharWriter("name", schema.Required)
	l.AddWriter(ids)
	l.AddWriter(names)

	for i := int64(0); i < 3; i++ {
		overflowed, err := writeRow(l, ids, names, i, "row")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if overflowed {
			t.Fatalf("unexpected overflow at row %d", i)
		}
	}

	n := l.Harvest()
	if n != 3 {
		t.Fatalf("expected 3 rows, got %d", n)
	}
	vals, valid := ids.Values()
	if len(vals) != 3 || !valid[0] || !valid[1] || !valid[2] {
		t.Fatalf("unexpected values/valid: %v %v", vals, valid)
	}
	if vals[0] != 0 || vals[1] != 1 || vals[2] != 2 {
		t.Fatalf("unexpected id values: %v", vals)
	}

	l.Advance()
	if l.Row() != 0 {
		t.Fatalf("expected row reset to 0, got %d", l.Row())
	}
}

// TestLoaderVectorOverflow exercises (S4): a byte-size
// overflow mid-row must harvest the prior rows without losing
// or duplicating the row that triggered the overflow.
func TestLoaderVectorOverflow(t *testing.T) {
	// MaxBytes is small enough that the 4th row's string value
	// pushes the batch over the limit.
	l := NewLoader(Limits{MaxRows: 1000, MaxBytes: 9})
	ids := vector.NewInt64Writer("id", schema.Required)
	names := vector.NewVarCharWriter("name", schema.Required)
	l.AddWriter(ids)
	l.AddWriter(names)

	rows := []struct {
		id   int64
		name string
	}{
		{0, "aaa"}, // 3 bytes, total 3
		{1, "aaa"}, // total 6
		{2, "aaa"}, // total 9 (at the limit, not over)
		{3, "bbbb"},
	}

	var overflowedAt = -1
	for i, r := range rows {
		overflowed, err := writeRow(l, ids, names, r.id, r.name)
		if err != nil {
			t.Fatalf("unexpected error at row %d: %v", i, err)
		}
		if overflowed {
			overflowedAt = i
			break
		}
	}
	if overflowedAt != 3 {
		t.Fatalf("expected overflow at row 3, got overflow at %d", overflowedAt)
	}

	n := l.Harvest()
	if n != 3 {
		t.Fatalf("expected harvested batch of 3 rows (I2), got %d", n)
	}
	vals, valid := ids.HarvestValues()
	if len(vals) != 3 {
		t.Fatalf("expected 3 harvested id values, got %d", len(vals))
	}
	for i := 0; i < 3; i++ {
		if !valid[i] || vals[i] != int64(i) {
			t.Fatalf("harvested row %d corrupted: val=%v valid=%v", i, vals[i], valid[i])
		}
	}

	// the row that triggered overflow (row 3) must survive,
	// carried into the next batch -- neither lost nor duplicated.
	l.Advance()
	overflowed, err := writeRow(l, ids, names, 4, "ccc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if overflowed {
		t.Fatalf("unexpected overflow continuing the carried batch")
	}
	n2 := l.Harvest()
	if n2 != 2 {
		t.Fatalf("expected 2 rows in the next batch (carried row 3 + new row 4), got %d", n2)
	}
	vals2, valid2 := ids.Values()
	if len(vals2) != 2 || !valid2[0] || !valid2[1] {
		t.Fatalf("unexpected carried values: %v %v", vals2, valid2)
	}
	if vals2[0] != 3 || vals2[1] != 4 {
		t.Fatalf("expected carried ids [3 4], got %v", vals2)
	}
}

// TestLoaderRowTooLarge ensures (B3): a single row that alone
// exceeds MaxBytes produces RowTooLarge rather than an
// overflow with nothing to harvest.
func TestLoaderRowTooLarge(t *testing.T) {
	l := NewLoader(Limits{MaxRows: 10, MaxBytes: 2})
	names := vector.NewVarCharWriter("name", schema.Required)
	l.AddWriter(names)

	names.SetString("far too long for the limit")
	_, err := l.Save()
	if err == nil {
		t.Fatalf("expected RowTooLarge error")
	}
	if _, ok := err.(*RowTooLarge); !ok {
		t.Fatalf("expected *RowTooLarge, got %T: %v", err, err)
	}
}

// TestLoaderFillEmptyOptional checks that an optional column
// with no value for the trailing rows of a batch is filled
// with null rather than a zero value (I1/I5).
func TestLoaderFillEmptyOptional(t *testing.T) {
	l := NewLoader(Limits{MaxRows: 10, MaxBytes: 1 << 20})
	ids := vector.NewInt64Writer("id", schema.Required)
	opt := vector.NewInt64Writer("opt", schema.Optional)
	l.AddWriter(ids)
	l.AddWriter(opt)

	ids.SetInt(0, 64)
	opt.SetInt(7, 64)
	if _, err := l.Save(); err != nil {
		t.Fatal(err)
	}
	ids.SetInt(1, 64)
	// opt left unwritten for this row
	if _, err := l.Save(); err != nil {
		t.Fatal(err)
	}

	n := l.Harvest()
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
	_, valid := opt.Values()
	if !valid[0] || valid[1] {
		t.Fatalf("expected row 0 valid and row 1 null, got %v", valid)
	}
}
