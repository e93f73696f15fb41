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

// Package mock is an in-memory scan.Reader used in place of a
// real format adapter to exercise the scan core's own tests:
// it carries a canned table schema and a fixed set of rows,
// and never touches a filesystem.
package mock

import (
	"context"
	"fmt"

	"github.com/SnellerInc/sneller/schema"
	"github.com/SnellerInc/sneller/vector"

	"github.com/SnellerInc/sneller/scan"
)

// Field describes one column this reader declares.
type Field struct {
	Name        string
	Type        schema.MinorType
	Cardinality schema.Cardinality
}

// Row is one record, keyed by field name. A field present in
// Fields but absent from a Row is written as null (SetNull)
// for that row.
type Row map[string]any

// Reader is a canned scan.Reader: Open declares Fields, then
// Next replays Rows one at a time, finally always reporting
// EOF. FilePath/SelectionRoot feed the implicit metadata and
// partition columns.
type Reader struct {
	Fields        []Field
	Rows          []Row
	FilePath      string
	SelectionRoot string

	rw  *scan.RowWriter
	row int
}

func (r *Reader) Open(ctx context.Context, neg scan.Negotiator) (bool, error) {
	if len(r.Rows) == 0 {
		return false, nil
	}
	for _, f := range r.Fields {
		neg.AddTableColumnCard(f.Name, f.Type, f.Cardinality)
	}
	neg.SetFilePath(r.FilePath)
	neg.SetSelectionRoot(r.SelectionRoot)
	rw, err := neg.Build()
	if err != nil {
		return false, err
	}
	r.rw = rw
	r.row = 0
	return true, nil
}

func (r *Reader) Next(ctx context.Context) (bool, error) {
	if r.row >= len(r.Rows) {
		return false, nil
	}
	row := r.Rows[r.row]
	r.row++
	for _, f := range r.Fields {
		w, ok := r.rw.Column(f.Name)
		if !ok {
			continue
		}
		v, present := row[f.Name]
		if !present {
			w.SetNull()
			continue
		}
		if err := setValue(w, v); err != nil {
			return false, err
		}
	}
	return true, nil
}

func setValue(w vector.Writer, v any) error {
	switch tw := w.(type) {
	case *vector.Int64Writer:
		n, ok := asInt64(v)
		if !ok {
			return fmt.Errorf("mock: %s: value %v is not an integer", w.Name(), v)
		}
		return tw.SetInt(n, 64)
	case *vector.Float64Writer:
		f, ok := asFloat64(v)
		if !ok {
			return fmt.Errorf("mock: %s: value %v is not a float", w.Name(), v)
		}
		tw.SetFloat(f, false)
		return nil
	case *vector.BoolWriter:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("mock: %s: value %v is not a bool", w.Name(), v)
		}
		tw.SetBool(b)
		return nil
	case *vector.VarCharWriter:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("mock: %s: value %v is not a string", w.Name(), v)
		}
		tw.SetString(s)
		return nil
	case *vector.DateTimeWriter:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("mock: %s: value %v is not a datetime string", w.Name(), v)
		}
		return tw.SetString(s)
	default:
		return fmt.Errorf("mock: %s: unsupported writer type", w.Name())
	}
}

func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func (r *Reader) Close() error { return nil }

func (r *Reader) SchemaVersion() uint64 { return 1 }

// Factory replays a fixed slice of Readers, in order.
type Factory struct {
	Readers []*Reader
	idx     int
}

func (f *Factory) Next(ctx context.Context) (scan.Reader, bool, error) {
	if f.idx >= len(f.Readers) {
		return nil, false, nil
	}
	r := f.Readers[f.idx]
	f.idx++
	return r, true, nil
}

func (f *Factory) Close() error { return nil }
