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
	"io"
	"strconv"
	"strings"

	"github.com/SnellerInc/sneller/vector"

	"github.com/SnellerInc/sneller/scan"
)

func printHeader(out io.Writer, batch scan.BatchAccessor) {
	names := make([]string, batch.NumColumns())
	for i := range names {
		names[i] = batch.Writer(i).Name()
	}
	io.WriteString(out, strings.Join(names, "\t"))
	io.WriteString(out, "\n")
}

func printBatch(out io.Writer, batch scan.BatchAccessor) {
	n := batch.NumColumns()
	cells := make([]string, n)
	for row := 0; row < batch.RowCount; row++ {
		for col := 0; col < n; col++ {
			cells[col] = cellText(batch.Writer(col), batch.Overflowed(), row)
		}
		io.WriteString(out, strings.Join(cells, "\t"))
		io.WriteString(out, "\n")
	}
}

// cellText reads one writer's value at row, choosing between
// the live buffer and the post-overflow snapshot depending on
// how the batch ended (BatchAccessor.Overflowed).
func cellText(w vector.Writer, overflowed bool, row int) string {
	switch tw := w.(type) {
	case *vector.Int64Writer:
		vals, valid := pick(overflowed, tw.Values, tw.HarvestValues)
		if row >= len(vals) || !valid[row] {
			return ""
		}
		return strconv.FormatInt(vals[row], 10)
	case *vector.Float64Writer:
		vals, valid := pick(overflowed, tw.Values, tw.HarvestValues)
		if row >= len(vals) || !valid[row] {
			return ""
		}
		return strconv.FormatFloat(vals[row], 'g', -1, 64)
	case *vector.BoolWriter:
		vals, valid := pick(overflowed, tw.Values, tw.HarvestValues)
		if row >= len(vals) || !valid[row] {
			return ""
		}
		return strconv.FormatBool(vals[row])
	case *vector.DateTimeWriter:
		vals, valid := pick(overflowed, tw.Values, tw.HarvestValues)
		if row >= len(vals) || !valid[row] {
			return ""
		}
		return vals[row].String()
	case *vector.VarCharWriter:
		vals, valid := pick(overflowed, tw.Values, tw.HarvestValues)
		if row >= len(vals) || !valid[row] {
			return ""
		}
		return vals[row]
	default:
		return "?"
	}
}

// pick chooses a writer's live-buffer accessor or its
// post-overflow snapshot accessor based on how the current
// batch ended.
func pick[T any](overflowed bool, live, harvested func() ([]T, []bool)) ([]T, []bool) {
	if overflowed {
		return harvested()
	}
	return live()
}
