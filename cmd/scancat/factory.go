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

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SnellerInc/sneller/jsonscan"
	"github.com/SnellerInc/sneller/readers/csv"

	"github.com/SnellerInc/sneller/scan"
)

type csvHints struct {
	skip   int
	sep    rune
	fields []csv.FieldHint
}

// fileFactory opens one scan.Reader per command-line path (or
// stdin for "-"), in order, dispatching to the csv or jsonscan
// reader by extension unless format is forced.
type fileFactory struct {
	paths    []string
	idx      int
	format   string
	csvHints csvHints
	jsonOpts scan.JSONConfig
}

func (f *fileFactory) Next(ctx context.Context) (scan.Reader, bool, error) {
	if f.idx >= len(f.paths) {
		return nil, false, nil
	}
	path := f.paths[f.idx]
	f.idx++

	var src *os.File
	if path == "-" {
		src = os.Stdin
	} else {
		var err error
		src, err = os.Open(path)
		if err != nil {
			return nil, false, err
		}
	}

	switch f.formatFor(path) {
	case "csv":
		if len(f.csvHints.fields) == 0 {
			src.Close()
			return nil, false, fmt.Errorf("%s: -csv-fields is required to read CSV input", path)
		}
		return &csv.Reader{
			Src:           src,
			FilePath:      path,
			SelectionRoot: selectionRoot(path),
			Hint: csv.Hint{
				SkipRecords: f.csvHints.skip,
				Separator:   f.csvHints.sep,
				Fields:      f.csvHints.fields,
			},
		}, true, nil
	case "json":
		return &jsonscan.Reader{
			Src:           src,
			FilePath:      path,
			SelectionRoot: selectionRoot(path),
			Opts: jsonscan.Options{
				AllTextMode:         f.jsonOpts.AllTextMode,
				ReadNumbersAsDouble: f.jsonOpts.ReadNumbersAsDouble,
				AllowNaNInf:         f.jsonOpts.AllowNaNInf,
				ExtendedTypes:       f.jsonOpts.ExtendedTypes,
				SkipOuterList:       f.jsonOpts.SkipOuterList,
				UseRepeatedArrays:   f.jsonOpts.UseRepeatedArrays,
			},
		}, true, nil
	default:
		src.Close()
		return nil, false, fmt.Errorf("%s: cannot infer format (pass -format csv|json)", path)
	}
}

func (f *fileFactory) formatFor(path string) string {
	if f.format != "" {
		return f.format
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".tsv":
		return "csv"
	case ".json", ".ndjson", ".jsonl":
		return "json"
	default:
		return ""
	}
}

func (f *fileFactory) Close() error { return nil }

func selectionRoot(path string) string {
	if path == "-" {
		return ""
	}
	return filepath.Dir(path)
}

// parseCSVFields parses "-csv-fields" entries of the form
// name:type[?], where a trailing '?' marks the field as
// allowed to be empty/null.
func parseCSVFields(spec string) ([]csv.FieldHint, error) {
	var out []csv.FieldHint
	for _, part := range splitNonEmpty(spec, ",") {
		nameType := strings.SplitN(part, ":", 2)
		if len(nameType) != 2 {
			return nil, fmt.Errorf("-csv-fields: %q must be name:type", part)
		}
		name := nameType[0]
		typ := nameType[1]
		allowEmpty := strings.HasSuffix(typ, "?")
		typ = strings.TrimSuffix(typ, "?")
		ft, err := parseFieldType(typ)
		if err != nil {
			return nil, fmt.Errorf("-csv-fields: field %q: %w", name, err)
		}
		out = append(out, csv.FieldHint{Name: name, Type: ft, AllowEmpty: allowEmpty})
	}
	return out, nil
}

func parseFieldType(s string) (csv.FieldType, error) {
	switch s {
	case "string":
		return csv.TypeString, nil
	case "number":
		return csv.TypeNumber, nil
	case "int":
		return csv.TypeInt, nil
	case "bool":
		return csv.TypeBool, nil
	case "datetime":
		return csv.TypeDateTime, nil
	default:
		return 0, fmt.Errorf("unknown type %q", s)
	}
}
