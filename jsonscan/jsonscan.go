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

// Package jsonscan is a scan.Reader over newline- or
// array-delimited JSON records. Unlike the CSV reader, a JSON
// reader's schema is not known up front (SchemaLate): Open
// sniffs a small sample of leading records to discover field
// names and types -- including deferring a decision for any
// field whose sampled values are all null -- before declaring
// the table schema and building the row writer.
package jsonscan

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/SnellerInc/sneller/date"
	"github.com/SnellerInc/sneller/internal/scanlog"
	"github.com/SnellerInc/sneller/schema"

	"github.com/SnellerInc/sneller/scan"
)

// sampleSize bounds how many leading records Open buffers
// while sniffing field types; a field still null after this
// many samples is forcibly resolved to VARCHAR-in-text-mode
// (deferred-null resolution, mirroring the teacher's "on batch
// end, any still-unresolved placeholder is forcibly resolved
// to VARCHAR" rule).
const sampleSize = 16

// extendedTypeKeys maps a recognised Mongo extended-JSON
// wrapper key ({"$type": value}) to the columnar type its
// unwrapped value should be written as.
var extendedTypeKeys = map[string]schema.MinorType{
	"$date":       schema.DateTime,
	"$binary":     schema.VarChar,
	"$decimal":    schema.Float64,
	"$decimal128": schema.Float64,
	"$document":   schema.VarChar,
	"$double":     schema.Float64,
	"$int32":      schema.Int64,
	"$int64":      schema.Int64,
	"$timestamp":  schema.DateTime,
}

// extendedType recognises a canonical single-key extended
// type wrapper and reports the columnar type it maps to; ok
// is false for any other map shape (a plain nested object, or
// one with more than one key).
func extendedType(m map[string]any) (typ schema.MinorType, ok bool) {
	if len(m) != 1 {
		return 0, false
	}
	for k := range m {
		typ, ok = extendedTypeKeys[k]
	}
	return typ, ok
}

// Options mirrors the scan core's json.* configuration keys.
type Options struct {
	AllTextMode         bool
	ReadNumbersAsDouble bool
	AllowNaNInf         bool
	ExtendedTypes       bool
	SkipOuterList       bool
	UseRepeatedArrays   bool
}

// Reader adapts one JSON stream (a sequence of objects,
// optionally wrapped in an outer array) into a scan.Reader.
type Reader struct {
	Src           io.Reader
	Opts          Options
	FilePath      string
	SelectionRoot string

	dec    *json.Decoder
	rw     *scan.RowWriter
	fields []fieldInfo
	// buffered holds sample records read during sniffing that
	// still need to be replayed through Next.
	buffered []map[string]any
}

type fieldInfo struct {
	name     string
	typ      schema.MinorType
	card     schema.Cardinality
	deferred bool // every sampled value was null/absent
}

func (r *Reader) Open(ctx context.Context, neg scan.Negotiator) (bool, error) {
	r.dec = json.NewDecoder(bufio.NewReader(r.Src))
	r.dec.UseNumber()

	if r.Opts.SkipOuterList {
		if err := r.enterOuterList(); err != nil {
			if err == io.EOF {
				return false, nil
			}
			return false, &scan.Error{Kind: scan.ReaderSyntax, Err: err, File: r.FilePath}
		}
	}

	samples, err := r.sniff()
	if err != nil {
		return false, &scan.Error{Kind: scan.ReaderSyntax, Err: err, File: r.FilePath}
	}
	if len(samples) == 0 {
		return false, nil
	}
	r.buffered = samples
	r.fields = inferFields(samples, r.Opts)

	for _, f := range r.fields {
		typ := f.typ
		if f.deferred {
			// Every sampled value for this field was null: the
			// batch-lifetime schema declaration can't defer the
			// decision past Open, so force the same resolution
			// the teacher applies at batch end to any field that
			// never saw a non-null value -- VARCHAR-in-text-mode,
			// which writeValue's VarCharWriter branch can encode
			// any later value into.
			typ = schema.VarChar
			scanlog.Warnf("jsonscan %s: field %q never sampled a non-null value, forcing VARCHAR", r.FilePath, f.name)
		}
		neg.AddTableColumnCard(f.name, typ, f.card)
	}
	neg.SetTableSchemaType(scan.SchemaLate)
	neg.SetFilePath(r.FilePath)
	neg.SetSelectionRoot(r.SelectionRoot)

	rw, err := neg.Build()
	if err != nil {
		return false, err
	}
	r.rw = rw
	return true, nil
}

// enterOuterList consumes a leading '[' so that the remaining
// stream is a sequence of bare objects (the teacher's
// parseFlattenList behavior), matching JSON input that wraps
// its records in a top-level array.
func (r *Reader) enterOuterList() error {
	tok, err := r.dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return fmt.Errorf("jsonscan: skip_outer_list set but input does not start with '['")
	}
	return nil
}

// sniff buffers up to sampleSize decoded records without
// losing them, so Next can replay them before resuming direct
// decoding.
func (r *Reader) sniff() ([]map[string]any, error) {
	var samples []map[string]any
	for len(samples) < sampleSize {
		if !r.dec.More() {
			break
		}
		var rec map[string]any
		if err := r.dec.Decode(&rec); err != nil {
			return nil, err
		}
		samples = append(samples, rec)
	}
	return samples, nil
}

// inferFields derives a stable, sorted field list and per-field
// type from the sniffed samples. A field whose every sampled
// value is null or absent is marked deferred; the caller
// forces such fields to VARCHAR (deferred-null resolution).
func inferFields(samples []map[string]any, opts Options) []fieldInfo {
	order := []string{}
	seen := map[string]bool{}
	sawNonNull := map[string]bool{}
	sawNull := map[string]bool{}
	types := map[string]schema.MinorType{}

	for _, rec := range samples {
		for k, v := range rec {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
			if v == nil {
				sawNull[k] = true
				continue
			}
			t := sniffType(v, opts)
			if !sawNonNull[k] {
				sawNonNull[k] = true
				types[k] = t
			} else if types[k] != t {
				types[k] = schema.VarChar // mixed types widen to string
			}
		}
	}
	sort.Strings(order)

	out := make([]fieldInfo, 0, len(order))
	for _, name := range order {
		card := schema.Required
		if sawNull[name] || !allRecordsHave(samples, name) {
			card = schema.Optional
		}
		typ, ok := types[name]
		out = append(out, fieldInfo{name: name, typ: typ, card: card, deferred: !ok})
	}
	return out
}

func allRecordsHave(samples []map[string]any, name string) bool {
	for _, rec := range samples {
		if _, ok := rec[name]; !ok {
			return false
		}
	}
	return true
}

func sniffType(v any, opts Options) schema.MinorType {
	if opts.AllTextMode {
		return schema.VarChar
	}
	switch vv := v.(type) {
	case bool:
		return schema.Bool
	case json.Number:
		if opts.ReadNumbersAsDouble {
			return schema.Float64
		}
		if _, err := vv.Int64(); err == nil {
			return schema.Int64
		}
		return schema.Float64
	case string:
		if _, ok := date.Parse([]byte(vv)); ok {
			return schema.DateTime
		}
		return schema.VarChar
	case map[string]any:
		if opts.ExtendedTypes {
			if typ, ok := extendedType(vv); ok {
				return typ
			}
		}
		// plain objects have no flat vector representation;
		// approximate as a joined string (see writeValue).
		return schema.VarChar
	case []any:
		// arrays have no flat vector representation; approximate
		// as a joined string (see arrayText).
		return schema.VarChar
	default:
		return schema.VarChar
	}
}
