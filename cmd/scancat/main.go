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

// scancat drives the scan core over one or more CSV or JSON
// files (or stdin) and prints the resulting rows, tab
// separated, one line per row. It exists to exercise
// scan.Scan/scan.Operator end to end against real format
// readers instead of the mock.Reader test double.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/SnellerInc/sneller/scan"
)

var (
	dashformat  string
	dashproject string
	dashfields  string
	dashskip    int
	dashsep     string

	dashskiplist      bool
	dashalltext       bool
	dashextended      bool
	dashallownaninf   bool
	dashnumdouble     bool
	dashrepeatedarray bool

	dashallowempty bool
	dashbatch      int
)

func init() {
	flag.StringVar(&dashformat, "format", "", "input format: csv or json (default: by file extension)")
	flag.StringVar(&dashproject, "project", "*", "comma-separated projection list (see project.ParseScanList)")
	flag.StringVar(&dashfields, "csv-fields", "", "comma-separated CSV field hints: name:type[?], type one of string,number,int,bool,datetime")
	flag.IntVar(&dashskip, "csv-skip", 0, "CSV leading records to skip (e.g. a header row)")
	flag.StringVar(&dashsep, "csv-sep", ",", "CSV field separator")
	flag.BoolVar(&dashskiplist, "json-skip-outer-list", false, "input is a single JSON array of records rather than newline-delimited records")
	flag.BoolVar(&dashalltext, "json-all-text", false, "coerce every JSON value to text")
	flag.BoolVar(&dashextended, "json-extended-types", false, "unwrap {\"$date\": ...} wrapper objects")
	flag.BoolVar(&dashallownaninf, "json-allow-nan-inf", false, "accept NaN/Infinity JSON numbers")
	flag.BoolVar(&dashnumdouble, "json-numbers-as-double", false, "read every JSON number as DOUBLE instead of inferring INT64 vs DOUBLE")
	flag.BoolVar(&dashrepeatedarray, "json-repeated-arrays", false, "encode flat scalar arrays as a dense repeated value instead of a JSON-text list")
	flag.BoolVar(&dashallowempty, "allow-empty", false, "succeed (printing nothing) when no input yields any data")
	flag.IntVar(&dashbatch, "batch", 0, "max rows per batch (default: scan.DefaultConfig)")
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "scancat:", err)
		os.Exit(1)
	}
}

func run() error {
	args := flag.Args()
	if len(args) == 0 {
		args = []string{"-"}
	}

	fields, err := parseCSVFields(dashfields)
	if err != nil {
		return err
	}
	sep := ','
	if dashsep != "" {
		sep = []rune(dashsep)[0]
	}

	cfg := scan.DefaultConfig()
	if dashbatch > 0 {
		cfg.MaxBatchRows = dashbatch
	}
	cfg.AllowEmptyScan = dashallowempty
	cfg.JSON = scan.JSONConfig{
		AllTextMode:         dashalltext,
		ReadNumbersAsDouble: dashnumdouble,
		ExtendedTypes:       dashextended,
		AllowNaNInf:         dashallownaninf,
		SkipOuterList:       dashskiplist,
		UseRepeatedArrays:   dashrepeatedarray,
	}

	projectList := splitNonEmpty(dashproject, ",")
	s, err := scan.New(projectList, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	factory := &fileFactory{
		paths:    args,
		format:   dashformat,
		csvHints: csvHints{skip: dashskip, sep: sep, fields: fields},
		jsonOpts: cfg.JSON,
	}

	op := scan.NewOperator(s, factory, cfg)
	ctx := context.Background()
	if err := op.BuildSchema(ctx); err != nil {
		return err
	}
	defer op.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	headerPrinted := false
	for {
		batch, outcome, err := op.Next(ctx)
		if err != nil {
			return err
		}
		if outcome == scan.OutcomeStop {
			return nil
		}
		if outcome == scan.OutcomeNewSchema && headerPrinted {
			fmt.Fprintln(os.Stderr, "scancat: schema changed, printing header again")
		}
		if !headerPrinted || outcome == scan.OutcomeNewSchema {
			printHeader(out, batch)
			headerPrinted = true
		}
		printBatch(out, batch)
	}
}

func splitNonEmpty(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

