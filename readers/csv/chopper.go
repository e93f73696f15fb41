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

// Package csv is a scan.Reader over RFC 4180 CSV data.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
)

// chopper reads CSV records and splits each into fields,
// skipping the configured number of leading records (e.g. a
// header row already consumed by Hint.Fields) and any fully
// blank record past that point -- the same "ignore empty
// lines" tolerance the sibling TSV reader gives its own
// (newline-delimited, escape-based) format, generalized to
// encoding/csv's parsed-record shape: a one-field record whose
// sole field is empty is what a blank line parses to.
type chopper struct {
	skipRecords int
	separator   rune

	r      io.Reader
	cr     *csv.Reader
	lineNr int
}

func (c *chopper) getNext(r io.Reader) ([]string, error) {
	c.init(r)
	for {
		fields, err := c.cr.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			return nil, fmt.Errorf("record %d: %w", c.lineNr+1, err)
		}
		c.lineNr++
		if c.lineNr <= c.skipRecords {
			continue
		}
		if isBlankRecord(fields) {
			continue
		}
		return fields, nil
	}
}

func isBlankRecord(fields []string) bool {
	return len(fields) == 1 && fields[0] == ""
}

func (c *chopper) init(r io.Reader) {
	if c.r != r {
		c.r = r
		c.cr = csv.NewReader(c.r)
		c.cr.FieldsPerRecord = -1
		c.cr.ReuseRecord = true
		c.cr.LazyQuotes = true
		if c.separator != 0 {
			c.cr.Comma = c.separator
		}
	}
}
