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

import "github.com/SnellerInc/sneller/vector"

// BatchAccessor is the caller-facing view of one ready batch:
// the row count and the ordered set of column vectors backing
// it. Callers derive the current output schema from the
// writers themselves (Writer(i).Name()) or from the most recent
// OutcomeNewSchema notification. The accessor is only valid
// until the next Operator.Next call, which may reclaim or
// overwrite the underlying writer buffers.
type BatchAccessor struct {
	RowCount   int
	writers    []vector.Writer
	overflowed bool
}

// Writer returns the i'th output column's writer, in the order
// the current schema declares them.
func (b BatchAccessor) Writer(i int) vector.Writer {
	return b.writers[i]
}

// NumColumns returns the number of output columns in this batch.
func (b BatchAccessor) NumColumns() int {
	return len(b.writers)
}

// Overflowed reports whether this batch ended via row overflow
// rather than reader EOF -- callers reading a writer's raw
// values directly need this to pick Values() vs
// HarvestValues() on each concrete writer type.
func (b BatchAccessor) Overflowed() bool {
	return b.overflowed
}
