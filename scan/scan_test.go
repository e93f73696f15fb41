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

package scan_test

import (
	"context"
	"testing"

	"github.com/SnellerInc/sneller/readers/mock"
	"github.com/SnellerInc/sneller/scan"
	"github.com/SnellerInc/sneller/schema"
)

func TestSingleReaderWildcardPlusMetadata(t *testing.T) {
	cfg := scan.DefaultConfig()
	s, err := scan.New([]string{"*", "filename"}, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	factory := &mock.Factory{Readers: []*mock.Reader{
		{
			FilePath:      "/data/a.json",
			SelectionRoot: "/data",
			Fields: []mock.Field{
				{Name: "a", Type: schema.Int64},
				{Name: "b", Type: schema.VarChar},
			},
			Rows: []mock.Row{
				{"a": int64(1), "b": "x"},
				{"a": int64(2), "b": "y"},
			},
		},
	}}
	op := scan.NewOperator(s, factory, cfg)
	if err := op.BuildSchema(context.Background()); err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}
	batch, outcome, err := op.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if outcome != scan.OutcomeNewSchema {
		t.Fatalf("expected OutcomeNewSchema for the first batch of the scan, got %v", outcome)
	}
	if batch.RowCount != 2 {
		t.Fatalf("expected 2 rows, got %d", batch.RowCount)
	}
	if batch.NumColumns() != 3 {
		t.Fatalf("expected 3 output columns (a, b, filename), got %d", batch.NumColumns())
	}
	op.Close()
}

func TestEmptyScanWithoutAllowErrors(t *testing.T) {
	cfg := scan.DefaultConfig()
	s, err := scan.New([]string{"*"}, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	factory := &mock.Factory{}
	op := scan.NewOperator(s, factory, cfg)
	err = op.BuildSchema(context.Background())
	if err == nil {
		t.Fatalf("expected an error for an empty scan")
	}
	var serr *scan.Error
	if e, ok := err.(*scan.Error); ok {
		serr = e
	}
	if serr == nil || serr.Kind != scan.UserSchema {
		t.Fatalf("expected a UserSchema error, got %v", err)
	}
}

func TestEmptyScanAllowed(t *testing.T) {
	cfg := scan.DefaultConfig()
	cfg.AllowEmptyScan = true
	s, err := scan.New([]string{"*"}, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	factory := &mock.Factory{}
	op := scan.NewOperator(s, factory, cfg)
	if err := op.BuildSchema(context.Background()); err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}
	_, outcome, err := op.Next(context.Background())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if outcome != scan.OutcomeStop {
		t.Fatalf("expected OutcomeStop for an empty, allowed scan")
	}
}

func TestSchemaChangeAcrossReadersSignalled(t *testing.T) {
	cfg := scan.DefaultConfig()
	s, err := scan.New([]string{"*"}, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	factory := &mock.Factory{Readers: []*mock.Reader{
		{
			FilePath: "/data/a.json", SelectionRoot: "/data",
			Fields: []mock.Field{{Name: "a", Type: schema.Int64}},
			Rows:   []mock.Row{{"a": int64(1)}},
		},
		{
			FilePath: "/data/b.json", SelectionRoot: "/data",
			Fields: []mock.Field{{Name: "a", Type: schema.Int64}, {Name: "c", Type: schema.VarChar}},
			Rows:   []mock.Row{{"a": int64(2), "c": "z"}},
		},
	}}
	op := scan.NewOperator(s, factory, cfg)
	if err := op.BuildSchema(context.Background()); err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}

	_, outcome1, err := op.Next(context.Background())
	if err != nil {
		t.Fatalf("Next #1: %v", err)
	}
	if outcome1 != scan.OutcomeNewSchema {
		t.Fatalf("expected OutcomeNewSchema for the first batch of the scan, got %v", outcome1)
	}

	_, outcome2, err := op.Next(context.Background())
	if err != nil {
		t.Fatalf("Next #2: %v", err)
	}
	if outcome2 != scan.OutcomeNewSchema {
		t.Fatalf("expected OutcomeNewSchema for the second reader's wider schema, got %v", outcome2)
	}
	op.Close()
}
