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

package csv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/SnellerInc/sneller/schema"
	"github.com/SnellerInc/sneller/vector"

	"github.com/SnellerInc/sneller/scan"
)

// FieldType is one of the supported per-column conversions
// a Hint declares for a CSV field.
type FieldType int

const (
	TypeString FieldType = iota
	TypeNumber
	TypeInt
	TypeBool
	TypeDateTime
)

// FieldHint declares how to interpret and name one CSV column.
type FieldHint struct {
	Name       string
	Type       FieldType
	Default    string
	AllowEmpty bool
}

// Hint is the per-reader CSV parsing configuration, adapted
// from the teacher's ingestion-time field hints to drive the
// scan core's table-column negotiation directly instead of
// emitting ION.
type Hint struct {
	SkipRecords int
	Separator   rune
	Fields      []FieldHint
}

// Reader adapts one CSV stream into a scan.Reader. FilePath
// and SelectionRoot feed the implicit metadata/partition
// columns the same as any other format reader.
type Reader struct {
	Src           io.Reader
	Hint          Hint
	FilePath      string
	SelectionRoot string

	ch chopper
	rw *scan.RowWriter
}

func (r *Reader) Open(ctx context.Context, neg scan.Negotiator) (bool, error) {
	if len(r.Hint.Fields) == 0 {
		return false, fmt.Errorf("csv: hints are mandatory")
	}
	r.ch = chopper{skipRecords: r.Hint.SkipRecords, separator: r.Hint.Separator}

	for _, f := range r.Hint.Fields {
		typ, card := fieldSchema(f)
		neg.AddTableColumnCard(f.Name, typ, card)
	}
	neg.SetFilePath(r.FilePath)
	neg.SetSelectionRoot(r.SelectionRoot)

	rw, err := neg.Build()
	if err != nil {
		return false, err
	}
	r.rw = rw
	return true, nil
}

func fieldSchema(f FieldHint) (schema.MinorType, schema.Cardinality) {
	card := schema.Required
	if f.AllowEmpty || f.Default != "" {
		card = schema.Optional
	}
	switch f.Type {
	case TypeNumber:
		return schema.Float64, card
	case TypeInt:
		return schema.Int64, card
	case TypeBool:
		return schema.Bool, card
	case TypeDateTime:
		return schema.DateTime, card
	default:
		return schema.VarChar, card
	}
}

func (r *Reader) Next(ctx context.Context) (bool, error) {
	fields, err := r.ch.getNext(r.Src)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, &scan.Error{Kind: scan.ReaderSyntax, Err: err, File: r.FilePath}
	}

	for i, hint := range r.Hint.Fields {
		w, ok := r.rw.Column(hint.Name)
		if !ok {
			continue
		}
		var text string
		if i < len(fields) {
			text = fields[i]
		}
		if text == "" {
			text = hint.Default
		}
		if text == "" && !hint.AllowEmpty {
			w.SetNull()
			continue
		}
		if err := writeField(w, hint, text); err != nil {
			return false, &scan.Error{Kind: scan.InvalidConversion, Err: err, File: r.FilePath}
		}
	}

	if arr, indices, ok := r.rw.ColumnsArray(); ok {
		writeColumnsArray(arr, fields, indices)
	}

	return true, nil
}

func writeField(w vector.Writer, hint FieldHint, text string) error {
	switch hint.Type {
	case TypeNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fmt.Errorf("field %s: %w", hint.Name, err)
		}
		w.(*vector.Float64Writer).SetFloat(f, false)
	case TypeInt:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fmt.Errorf("field %s: %w", hint.Name, err)
		}
		return w.(*vector.Int64Writer).SetInt(n, 64)
	case TypeBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return fmt.Errorf("field %s: %w", hint.Name, err)
		}
		w.(*vector.BoolWriter).SetBool(b)
	case TypeDateTime:
		return w.(*vector.DateTimeWriter).SetString(text)
	default:
		w.(*vector.VarCharWriter).SetString(text)
	}
	return nil
}

// writeColumnsArray approximates the columns/columns[i]
// projection (S6): the vector model has no native per-row
// repeated-value writer, so instead of materializing one
// element per array position it joins the selected raw field
// texts into a single comma-separated string. indices empty
// means "all fields".
func writeColumnsArray(w *vector.VarCharWriter, fields []string, indices []int) {
	if len(indices) == 0 {
		w.SetString(strings.Join(fields, ","))
		return
	}
	parts := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(fields) {
			parts = append(parts, fields[idx])
		} else {
			parts = append(parts, "")
		}
	}
	w.SetString(strings.Join(parts, ","))
}

func (r *Reader) Close() error {
	if c, ok := r.Src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (r *Reader) SchemaVersion() uint64 { return 1 }
