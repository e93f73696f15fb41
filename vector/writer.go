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

package vector

import (
	"github.com/SnellerInc/sneller/schema"
)

// Writer is the common surface every typed column writer
// implements. save()/overflow()/harvest() are consumed only
// by rowset.Loader, which orchestrates all of a row's
// writers together; they are exported so rowset can live in
// its own package.
type Writer interface {
	// Name is the column's name, for error messages.
	Name() string
	// Cardinality reports the column's repetition mode,
	// consulted when filling empty rows on harvest.
	Cardinality() schema.Cardinality
	// SetNull writes a null/absent value at the writer's
	// current row. A no-op if the writer is unprojected.
	SetNull()
	// Save finalizes the current row and is how the result
	// set loader's row writer dispatches "end of row" to
	// every column writer. Writers that were never Set*
	// this row remain unwritten (see LastWriteIndex).
	Save()
	// LastWriteIndex is the row index of the most recently
	// written value.
	LastWriteIndex() int
	// IsProjected reports whether downstream wants this
	// column's values at all; false means all setters are
	// no-ops, letting readers skip decoding work.
	IsProjected() bool
	SetProjected(bool)

	// overflow implements §4.3 steps 1-4 for this column.
	overflow(n int)
	// startNextBatch clears the post-overflow pending buffer,
	// keeping the carried-over row (if any) in place.
	startNextBatch()
	// resetCurrent clears the buffer being written outright,
	// used when a batch ends without overflow (e.g. reader EOF).
	resetCurrent()
	// fillEmptyCurrent fills the buffer being written, up to
	// and including upto, for a harvest that did not involve
	// overflow.
	fillEmptyCurrent(upto int)
	// fillEmptyHarvest fills the pending (already-overflowed,
	// not yet exposed) snapshot, up to and including upto.
	fillEmptyHarvest(upto int)
	// harvestLastWriteIndex is the pending snapshot's last
	// write index; meaningful only right after overflow.
	harvestLastWriteIndex() int
	// byteSize reports the writer's current variable-width
	// footprint (0 for fixed-width writers).
	byteSize() int
	rowCount() int

	// setCursor repositions the writer's "row about to be
	// written" pointer. rowset.Loader calls this after every
	// Save so that writers which received no value this row
	// (and therefore never advanced on their own) stay in
	// lockstep with the rest of the row.
	setCursor(next int)

	// reserve pre-allocates backing capacity for n rows, called
	// by rowset.Loader.Reserve once a row-width estimate (via
	// sortmem.Planner) is available, ahead of any actual writes.
	reserve(n int)
}

// base carries the fields every concrete writer shares.
type base struct {
	name        string
	cardinality schema.Cardinality
	projected   bool
	cur         int // the row index about to be written
}

func (b *base) Name() string                   { return b.name }
func (b *base) Cardinality() schema.Cardinality { return b.cardinality }
func (b *base) IsProjected() bool              { return b.projected }
func (b *base) SetProjected(p bool)            { b.projected = p }
func (b *base) setCursor(next int)             { b.cur = next }
