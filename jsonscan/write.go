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

package jsonscan

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/SnellerInc/sneller/date"
	"github.com/SnellerInc/sneller/internal/scanlog"
	"github.com/SnellerInc/sneller/vector"

	"github.com/SnellerInc/sneller/scan"
)

func (r *Reader) Next(ctx context.Context) (bool, error) {
	var rec map[string]any
	if len(r.buffered) > 0 {
		rec = r.buffered[0]
		r.buffered = r.buffered[1:]
	} else {
		if !r.dec.More() {
			return false, nil
		}
		if err := r.dec.Decode(&rec); err != nil {
			return false, &scan.Error{Kind: scan.ReaderSyntax, Err: err, File: r.FilePath}
		}
	}

	seen := make(map[string]bool, len(r.fields))
	for _, f := range r.fields {
		w, ok := r.rw.Column(f.name)
		if !ok {
			continue
		}
		seen[f.name] = true
		v, present := rec[f.name]
		if !present || v == nil {
			w.SetNull()
			continue
		}
		if err := r.writeValue(w, v); err != nil {
			return false, &scan.Error{Kind: scan.InvalidConversion, Err: err, File: r.FilePath}
		}
	}

	for k := range rec {
		if !seen[k] {
			scanlog.Warnf("jsonscan %s: field %q not present in the negotiated schema, dropping", r.FilePath, k)
		}
	}

	return true, nil
}

// writeValue converts one decoded JSON value into the target
// writer, honoring AllTextMode (every value becomes its string
// form) and ExtendedTypes ($date/$binary wrapper objects).
func (r *Reader) writeValue(w vector.Writer, v any) error {
	if r.Opts.ExtendedTypes {
		if m, ok := v.(map[string]any); ok && len(m) == 1 {
			for k, dv := range m {
				if _, ok := extendedTypeKeys[k]; ok {
					return r.writeValue(w, dv)
				}
			}
		}
	}
	if r.Opts.AllTextMode {
		vc, ok := w.(*vector.VarCharWriter)
		if !ok {
			return fmt.Errorf("jsonscan: %s: all_text_mode requires a VARCHAR column", w.Name())
		}
		vc.SetString(textOf(v))
		return nil
	}

	switch tw := w.(type) {
	case *vector.Int64Writer:
		n, ok := asNumber(v)
		if !ok {
			return fmt.Errorf("jsonscan: %s: value %v is not numeric", w.Name(), v)
		}
		return tw.SetInt(int64(n), 64)
	case *vector.Float64Writer:
		n, ok := asNumber(v)
		if !ok {
			return fmt.Errorf("jsonscan: %s: value %v is not numeric", w.Name(), v)
		}
		if !r.Opts.AllowNaNInf && (math.IsNaN(n) || math.IsInf(n, 0)) {
			return fmt.Errorf("jsonscan: %s: NaN/Inf not allowed", w.Name())
		}
		tw.SetFloat(n, false)
		return nil
	case *vector.BoolWriter:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("jsonscan: %s: value %v is not a bool", w.Name(), v)
		}
		tw.SetBool(b)
		return nil
	case *vector.DateTimeWriter:
		switch vv := v.(type) {
		case string:
			return tw.SetString(vv)
		case json.Number:
			// an extended-type $date/$timestamp value unwrapped to
			// a bare epoch number (milliseconds for $date, seconds
			// for $timestamp); treat it as a Unix epoch in seconds.
			n, err := vv.Int64()
			if err != nil {
				return fmt.Errorf("jsonscan: %s: epoch value %v is not an integer", w.Name(), v)
			}
			tw.SetTime(date.Unix(n, 0))
			return nil
		default:
			return fmt.Errorf("jsonscan: %s: value %v is not a datetime string or epoch", w.Name(), v)
		}
	case *vector.VarCharWriter:
		vc := tw
		switch vv := v.(type) {
		case []any:
			s, err := arrayText(vv, r.Opts.UseRepeatedArrays)
			if err != nil {
				return err
			}
			vc.SetString(s)
		case map[string]any:
			// no flat vector representation for nested structure;
			// fall back to a JSON-text rendering of the value.
			b, err := json.Marshal(vv)
			if err != nil {
				return err
			}
			vc.SetString(string(b))
		default:
			vc.SetString(textOf(v))
		}
		return nil
	default:
		return fmt.Errorf("jsonscan: %s: unsupported writer type", w.Name())
	}
}

// arrayText renders a JSON array as the text form stored in a
// VARCHAR column. When useRepeated is set and the array is flat
// (every element a scalar, no nesting or nulls), it is rendered
// as a semicolon-joined list of element texts -- a dense,
// "repeated value" encoding -- instead of falling back to the
// generic JSON-text "list vector" rendering.
func arrayText(vv []any, useRepeated bool) (string, error) {
	if useRepeated && isFlatScalarArray(vv) {
		parts := make([]string, len(vv))
		for i, e := range vv {
			parts[i] = textOf(e)
		}
		return strings.Join(parts, ";"), nil
	}
	b, err := json.Marshal(vv)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// isFlatScalarArray reports whether every element of vv is a
// scalar, non-null value; a nested array/object or a null
// element forces the caller back to the generic list encoding.
func isFlatScalarArray(vv []any) bool {
	for _, e := range vv {
		switch e.(type) {
		case nil, map[string]any, []any:
			return false
		}
	}
	return true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case float64:
		return n, true
	}
	return 0, false
}

func textOf(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case json.Number:
		return vv.String()
	case bool:
		if vv {
			return "true"
		}
		return "false"
	default:
		b, _ := json.Marshal(vv)
		return string(b)
	}
}

func (r *Reader) Close() error {
	if c, ok := r.Src.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

func (r *Reader) SchemaVersion() uint64 { return 1 }
