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

// Package rowset implements the result set loader: a
// row-oriented driver over column writers that enforces
// per-batch size limits and performs vector overflow
// (splitting an oversized row into a lookahead batch).
package rowset

import (
	"github.com/SnellerInc/sneller/sortmem"
	"github.com/SnellerInc/sneller/vector"
)

// Limits bounds one batch.
type Limits struct {
	// MaxRows caps the number of rows per batch (vector hard cap).
	MaxRows int
	// MaxBytes caps the aggregate variable-width bytes per batch.
	MaxBytes int
}

// DefaultLimits matches the configuration defaults in §6.
var DefaultLimits = Limits{MaxRows: 65535, MaxBytes: 16 << 20}

// Loader is the row writer a reader writes into. It owns no
// columns itself; writers are registered with AddWriter and
// addressed by their declared order.
type Loader struct {
	limits  Limits
	writers []vector.Writer
	row     int // index of the row currently being assembled
	done    bool
}

// NewLoader returns a Loader enforcing limits.
func NewLoader(limits Limits) *Loader {
	if limits.MaxRows <= 0 {
		limits.MaxRows = DefaultLimits.MaxRows
	}
	if limits.MaxBytes <= 0 {
		limits.MaxBytes = DefaultLimits.MaxBytes
	}
	return &Loader{limits: limits}
}

// AddWriter registers a writer with the loader. Writers must
// be added before the first Save call.
func (l *Loader) AddWriter(w vector.Writer) {
	l.writers = append(l.writers, w)
}

// Reserve pre-allocates every registered writer's backing
// buffer capacity ahead of the first Save call, sizing it via
// sortmem.Planner.SpillRowCount against this loader's own
// MaxBytes budget and rowWidth, an estimate of the average
// encoded width of one row. This trades a single up-front
// allocation per column for the repeated append-driven growth
// Save would otherwise trigger while filling a batch.
func (l *Loader) Reserve(rowWidth int64) {
	if rowWidth <= 0 {
		return
	}
	planner := sortmem.NewPlanner(sortmem.Config{SpillBatchSize: int64(l.limits.MaxBytes)})
	n := planner.SpillRowCount(rowWidth)
	if n > l.limits.MaxRows {
		n = l.limits.MaxRows
	}
	for _, w := range l.writers {
		w.reserve(n)
	}
}

// Writers returns the registered writers in registration order.
func (l *Loader) Writers() []vector.Writer {
	return l.writers
}

// Row returns the index of the row currently being written.
func (l *Loader) Row() int {
	return l.row
}

// Full reports whether the loader has already overflowed and
// is refusing further Save calls until Harvest/Advance.
func (l *Loader) Full() bool {
	return l.done
}

// Overflowed reports whether the batch ready to harvest ended
// via row overflow (its values live in each writer's pending
// snapshot, read with HarvestValues) rather than reader EOF
// (its values live in the buffer still being written, read
// with Values). Meaningful only between a Save/Next call that
// reported a ready batch and the following Advance.
func (l *Loader) Overflowed() bool {
	return l.done
}

// Save finalizes the current row across every registered
// writer and checks batch limits. It returns true if this
// save triggered an overflow (the row just saved spilled
// into the lookahead buffers and the batch is ready to
// harvest); the caller (typically the scan orchestrator)
// should stop feeding rows for this batch once Save returns
// true.
//
// RowTooLarge is returned, per (B3), if row 0 alone (i.e. no
// prior row exists to harvest) already exceeds MaxBytes --
// there is nothing to split it away from.
func (l *Loader) Save() (overflowed bool, err error) {
	if l.done {
		return true, nil
	}
	n := l.row
	rows := n + 1
	bytes := 0
	for _, w := range l.writers {
		bytes += w.byteSize()
	}
	overflowRows := rows > l.limits.MaxRows
	overflowBytes := bytes > l.limits.MaxBytes
	if overflowRows || overflowBytes {
		if n == 0 {
			return false, &RowTooLarge{Row: n, Bytes: bytes, Limit: l.limits.MaxBytes}
		}
		for _, w := range l.writers {
			w.overflow(n)
		}
		l.done = true
		return true, nil
	}
	for _, w := range l.writers {
		w.Save()
		w.setCursor(n + 1)
	}
	l.row++
	return false, nil
}

// RowTooLarge is returned by Save when a single row alone
// exceeds the configured byte limit (B3).
type RowTooLarge struct {
	Row   int
	Bytes int
	Limit int
}

func (e *RowTooLarge) Error() string {
	return "rowset: row too large for configured batch byte limit"
}

// Harvest returns the row count of the batch ready to be
// exposed downstream: the harvested batch holds rows
// [0, RowCount), with every writer's visible length filled
// up to RowCount-1 per the cardinality-driven fill rule.
//
// If the batch ended via overflow, the harvested rows are the
// pending (already-clamped) snapshot each writer's overflow()
// call produced; otherwise they are the buffer still being
// written (e.g. a reader-EOF harvest with no overflow).
func (l *Loader) Harvest() int {
	if l.done {
		n := l.harvestedRowCount()
		for _, w := range l.writers {
			if w.harvestLastWriteIndex() < n-1 {
				w.fillEmptyHarvest(n - 1)
			}
		}
		return n
	}
	n := l.row
	for _, w := range l.writers {
		if w.LastWriteIndex() < n-1 {
			w.fillEmptyCurrent(n - 1)
		}
	}
	return n
}

// harvestedRowCount derives the overflowed batch's row count
// from the writers' own clamped state: every writer's pending
// snapshot (post Save-time overflow call) has its
// lastWriteIndex set to at most n-1 where n is the triggering
// row; the maximum observed +1 across all writers is
// therefore the batch row count, matching invariant (I2).
func (l *Loader) harvestedRowCount() int {
	max := -1
	for _, w := range l.writers {
		if li := w.harvestLastWriteIndex(); li > max {
			max = li
		}
	}
	return max + 1
}

// Advance prepares the loader to begin writing the next
// batch. If the prior batch ended via overflow, writers keep
// writing into the buffer that already holds the single
// carried-over row (already complete -- it was fully written
// before Save detected the overflow), only clearing their
// now-stale pending snapshot (see §4.3 "On start of next
// batch"); the loader's own row cursor must then resume at
// row 1, not row 0, or the next row written would overwrite
// the carried one. Otherwise writers reset outright since
// there is no row to carry over.
func (l *Loader) Advance() {
	if l.done {
		carried := 0
		for _, w := range l.writers {
			if rc := w.rowCount(); rc > carried {
				carried = rc
			}
		}
		for _, w := range l.writers {
			w.startNextBatch()
		}
		l.row = carried
	} else {
		for _, w := range l.writers {
			w.resetCurrent()
			w.setCursor(0)
		}
		l.row = 0
	}
	l.done = false
}
