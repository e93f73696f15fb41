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

package scan

import (
	"strings"

	"github.com/SnellerInc/sneller/rowset"
	"github.com/SnellerInc/sneller/vector"
)

// constantColumn is a metadata or null column the orchestrator
// fills in on every row, since the reader never writes it
// itself (the reader only knows about its own table columns).
type constantColumn struct {
	writer *vector.VarCharWriter
	value  string
}

// RowWriter is the RowWriter a reader writes its own
// table-column values into (§6's schema_negotiator.build()
// return value). It wraps a rowset.Loader with the columns
// the scan's projection actually needs, plus the bookkeeping
// to fill in implicit/null columns the reader itself never
// touches.
type RowWriter struct {
	loader *rowset.Loader

	// byName maps a reader's own declared column name to the
	// writer it should use -- the "real" registered writer if
	// the column is projected, or an inert unprojected one
	// (never registered with the loader) otherwise.
	byName map[string]vector.Writer

	constants   []constantColumn
	nullColumns []vector.Writer

	columnsArray        *vector.VarCharWriter
	columnsArrayIndices []int
}

// Column looks up the writer for one of the reader's own
// declared column names.
func (rw *RowWriter) Column(name string) (vector.Writer, bool) {
	w, ok := rw.byName[strings.ToLower(name)]
	return w, ok
}

// ColumnsArray returns the repeated-varchar writer backing the
// special columns/columns[i] projection, if requested, along
// with the (possibly empty, meaning "all") set of indices the
// reader should restrict itself to materializing.
func (rw *RowWriter) ColumnsArray() (*vector.VarCharWriter, []int, bool) {
	if rw.columnsArray == nil {
		return nil, nil, false
	}
	return rw.columnsArray, rw.columnsArrayIndices, true
}

// FinishRow fills in the implicit/null columns for the row the
// reader just populated via Column(), then finalizes the row.
// Readers must not call this themselves -- see Reader.Next.
func (rw *RowWriter) FinishRow() (overflowed bool, err error) {
	for _, c := range rw.constants {
		c.writer.SetString(c.value)
	}
	for _, w := range rw.nullColumns {
		w.SetNull()
	}
	return rw.loader.Save()
}

// Full reports whether the loader has already overflowed.
func (rw *RowWriter) Full() bool { return rw.loader.Full() }

// Overflowed reports whether the ready batch ended via row
// overflow; callers reading raw writer values (rather than
// going through Column/FinishRow) need this to know whether to
// read a writer's Values() or its HarvestValues().
func (rw *RowWriter) Overflowed() bool { return rw.loader.Overflowed() }

// Harvest exposes the ready batch's row count.
func (rw *RowWriter) Harvest() int { return rw.loader.Harvest() }

// Advance prepares the loader for the next batch.
func (rw *RowWriter) Advance() { rw.loader.Advance() }

// Writers returns the registered output writers in output
// column order.
func (rw *RowWriter) Writers() []vector.Writer { return rw.loader.Writers() }
