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
	"math"
	"strconv"

	"github.com/SnellerInc/sneller/date"
	"github.com/SnellerInc/sneller/schema"
)

// Int64Writer is a fixed-width writer for INT64 columns.
type Int64Writer struct {
	base
	buf *buffered[int64]
}

func NewInt64Writer(name string, card schema.Cardinality) *Int64Writer {
	return &Int64Writer{base: base{name: name, cardinality: card, projected: true}, buf: newBuffered[int64]()}
}

// SetInt writes an int64 value, applying the narrowing
// overflow check from §4.2 when target is narrower than
// int64 (width is the target bit width: 8, 16, 32, or 64).
func (w *Int64Writer) SetInt(v int64, width int) error {
	if !w.projected {
		return nil
	}
	if width < 64 {
		lo, hi := narrowIntBounds(width)
		if v < lo || v > hi {
			return &ConversionOverflow{Column: w.name, Value: v, Target: "INT" + strconv.Itoa(width)}
		}
	}
	w.buf.set(w.cur, v)
	return nil
}

// SetFloatAsInt rounds a float64 half-away-from-zero into
// an int64, per §4.2's float->int conversion rule, checking
// overflow against the target width.
func (w *Int64Writer) SetFloatAsInt(f float64, width int) error {
	if !w.projected {
		return nil
	}
	r := roundHalfAwayFromZero(f)
	lo, hi := narrowIntBounds(width)
	if r < lo || r > hi {
		return &ConversionOverflow{Column: w.name, Value: f, Target: "INT" + strconv.Itoa(width)}
	}
	w.buf.set(w.cur, int64(r))
	return nil
}

func (w *Int64Writer) SetNull() {
	if !w.projected {
		return
	}
	w.buf.setNull(w.cur)
}
func (w *Int64Writer) Save()                       {}
func (w *Int64Writer) LastWriteIndex() int         { return w.buf.lastWriteIndex() }
func (w *Int64Writer) harvestLastWriteIndex() int  { return w.buf.harvestLastWriteIndex() }
func (w *Int64Writer) overflow(n int) {
	w.buf.overflow(n)
	w.cur = w.buf.cur().rowCount()
}
func (w *Int64Writer) startNextBatch() { w.buf.startNextBatch() }
func (w *Int64Writer) resetCurrent()   { w.buf.resetCurrent(); w.cur = 0 }
func (w *Int64Writer) reserve(n int)   { w.buf.reserve(n) }
func (w *Int64Writer) byteSize() int   { return 0 }
func (w *Int64Writer) rowCount() int   { return w.buf.cur().rowCount() }
func (w *Int64Writer) fillEmptyCurrent(upto int) {
	w.buf.fillEmptyCurrent(upto, 0, w.cardinality == schema.Optional)
}
func (w *Int64Writer) fillEmptyHarvest(upto int) {
	w.buf.fillEmptyHarvest(upto, 0, w.cardinality == schema.Optional)
}

// Values returns the committed values of the buffer
// currently being written (used by tests and
// BatchAccessor-style consumers when no overflow is live).
func (w *Int64Writer) Values() ([]int64, []bool) {
	s := w.buf.cur()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}

// HarvestValues returns the pending (post-overflow,
// not-yet-exposed) snapshot's values.
func (w *Int64Writer) HarvestValues() ([]int64, []bool) {
	s := w.buf.pending()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}

// Float64Writer is a fixed-width writer for FLOAT64 columns.
type Float64Writer struct {
	base
	buf *buffered[float64]
}

func NewFloat64Writer(name string, card schema.Cardinality) *Float64Writer {
	return &Float64Writer{base: base{name: name, cardinality: card, projected: true}, buf: newBuffered[float64]()}
}

// SetFloat writes v, narrowing to float32 range when
// narrowToFloat32 is set; per §4.2 wider->narrower float
// conversion follows the IEEE default (no error raised,
// may become +/-Inf).
func (w *Float64Writer) SetFloat(v float64, narrowToFloat32 bool) {
	if !w.projected {
		return
	}
	if narrowToFloat32 {
		v = float64(float32(v))
	}
	w.buf.set(w.cur, v)
}
func (w *Float64Writer) SetNull() {
	if !w.projected {
		return
	}
	w.buf.setNull(w.cur)
}
func (w *Float64Writer) Save()                      {}
func (w *Float64Writer) LastWriteIndex() int        { return w.buf.lastWriteIndex() }
func (w *Float64Writer) harvestLastWriteIndex() int { return w.buf.harvestLastWriteIndex() }
func (w *Float64Writer) overflow(n int) {
	w.buf.overflow(n)
	w.cur = w.buf.cur().rowCount()
}
func (w *Float64Writer) startNextBatch() { w.buf.startNextBatch() }
func (w *Float64Writer) resetCurrent()   { w.buf.resetCurrent(); w.cur = 0 }
func (w *Float64Writer) reserve(n int)   { w.buf.reserve(n) }
func (w *Float64Writer) byteSize() int   { return 0 }
func (w *Float64Writer) rowCount() int   { return w.buf.cur().rowCount() }
func (w *Float64Writer) fillEmptyCurrent(upto int) {
	w.buf.fillEmptyCurrent(upto, 0, w.cardinality == schema.Optional)
}
func (w *Float64Writer) fillEmptyHarvest(upto int) {
	w.buf.fillEmptyHarvest(upto, 0, w.cardinality == schema.Optional)
}
func (w *Float64Writer) Values() ([]float64, []bool) {
	s := w.buf.cur()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}
func (w *Float64Writer) HarvestValues() ([]float64, []bool) {
	s := w.buf.pending()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}

// BoolWriter is a fixed-width writer for BOOL columns.
type BoolWriter struct {
	base
	buf *buffered[bool]
}

func NewBoolWriter(name string, card schema.Cardinality) *BoolWriter {
	return &BoolWriter{base: base{name: name, cardinality: card, projected: true}, buf: newBuffered[bool]()}
}
func (w *BoolWriter) SetBool(v bool) {
	if !w.projected {
		return
	}
	w.buf.set(w.cur, v)
}
func (w *BoolWriter) SetNull() {
	if !w.projected {
		return
	}
	w.buf.setNull(w.cur)
}
func (w *BoolWriter) Save()                      {}
func (w *BoolWriter) LastWriteIndex() int        { return w.buf.lastWriteIndex() }
func (w *BoolWriter) harvestLastWriteIndex() int { return w.buf.harvestLastWriteIndex() }
func (w *BoolWriter) overflow(n int) {
	w.buf.overflow(n)
	w.cur = w.buf.cur().rowCount()
}
func (w *BoolWriter) startNextBatch() { w.buf.startNextBatch() }
func (w *BoolWriter) resetCurrent()   { w.buf.resetCurrent(); w.cur = 0 }
func (w *BoolWriter) reserve(n int)   { w.buf.reserve(n) }
func (w *BoolWriter) byteSize() int   { return 0 }
func (w *BoolWriter) rowCount() int   { return w.buf.cur().rowCount() }
func (w *BoolWriter) fillEmptyCurrent(upto int) {
	w.buf.fillEmptyCurrent(upto, false, w.cardinality == schema.Optional)
}
func (w *BoolWriter) fillEmptyHarvest(upto int) {
	w.buf.fillEmptyHarvest(upto, false, w.cardinality == schema.Optional)
}
func (w *BoolWriter) Values() ([]bool, []bool) {
	s := w.buf.cur()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}
func (w *BoolWriter) HarvestValues() ([]bool, []bool) {
	s := w.buf.pending()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}

// VarCharWriter is the variable-width writer for VARCHAR
// columns. Its byteSize() is what rowset.Loader checks
// against max_batch_bytes.
type VarCharWriter struct {
	base
	buf      *buffered[string]
	curBytes int
}

func NewVarCharWriter(name string, card schema.Cardinality) *VarCharWriter {
	return &VarCharWriter{base: base{name: name, cardinality: card, projected: true}, buf: newBuffered[string]()}
}

func (w *VarCharWriter) SetString(v string) {
	if !w.projected {
		return
	}
	w.buf.set(w.cur, v)
	w.curBytes += len(v)
}
func (w *VarCharWriter) SetNull() {
	if !w.projected {
		return
	}
	w.buf.setNull(w.cur)
}
func (w *VarCharWriter) Save()                      {}
func (w *VarCharWriter) LastWriteIndex() int        { return w.buf.lastWriteIndex() }
func (w *VarCharWriter) harvestLastWriteIndex() int { return w.buf.harvestLastWriteIndex() }

// overflow hands off the (at most one) carried-over value's
// bytes to the new current buffer's byte count; the
// harvested buffer's byte count is no longer tracked since
// it will not receive further writes.
func (w *VarCharWriter) overflow(n int) {
	w.buf.overflow(n)
	w.cur = w.buf.cur().rowCount()
	w.curBytes = sumBytes(w.buf.cur())
}
func (w *VarCharWriter) startNextBatch() { w.buf.startNextBatch() }
func (w *VarCharWriter) resetCurrent() {
	w.buf.resetCurrent()
	w.cur = 0
	w.curBytes = 0
}
func (w *VarCharWriter) reserve(n int) { w.buf.reserve(n) }
func (w *VarCharWriter) byteSize() int { return w.curBytes }
func (w *VarCharWriter) rowCount() int { return w.buf.cur().rowCount() }
func (w *VarCharWriter) fillEmptyCurrent(upto int) {
	w.buf.fillEmptyCurrent(upto, "", w.cardinality == schema.Optional)
	w.curBytes = sumBytes(w.buf.cur())
}
func (w *VarCharWriter) fillEmptyHarvest(upto int) {
	w.buf.fillEmptyHarvest(upto, "", w.cardinality == schema.Optional)
}
func (w *VarCharWriter) Values() ([]string, []bool) {
	s := w.buf.cur()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}
func (w *VarCharWriter) HarvestValues() ([]string, []bool) {
	s := w.buf.pending()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}

func sumBytes(s *store[string]) int {
	total := 0
	n := s.rowCount()
	if n < 0 {
		return 0
	}
	for i := 0; i < n && i < len(s.values); i++ {
		if s.valid[i] {
			total += len(s.values[i])
		}
	}
	return total
}

// DateTimeWriter parses date/time strings with date.Parse
// and stores the adapted teacher date.Time representation.
// The column's "format" property is stored in format but
// not used for parsing.
type DateTimeWriter struct {
	base
	buf    *buffered[date.Time]
	format string
}

func NewDateTimeWriter(name string, card schema.Cardinality, format string) *DateTimeWriter {
	return &DateTimeWriter{base: base{name: name, cardinality: card, projected: true}, buf: newBuffered[date.Time](), format: format}
}

// SetString parses v with date.Parse, which accepts
// RFC3339-style timestamps whatever the writer's format
// property says; a string date.Parse does not recognize
// produces InvalidConversion.
func (w *DateTimeWriter) SetString(v string) error {
	if !w.projected {
		return nil
	}
	t, ok := date.Parse([]byte(v))
	if !ok {
		return &InvalidConversion{Column: w.name, Value: v, Target: "DATETIME"}
	}
	w.buf.set(w.cur, t)
	return nil
}
func (w *DateTimeWriter) SetTime(t date.Time) {
	if !w.projected {
		return
	}
	w.buf.set(w.cur, t)
}
func (w *DateTimeWriter) SetNull() {
	if !w.projected {
		return
	}
	w.buf.setNull(w.cur)
}
func (w *DateTimeWriter) Save()                      {}
func (w *DateTimeWriter) LastWriteIndex() int        { return w.buf.lastWriteIndex() }
func (w *DateTimeWriter) harvestLastWriteIndex() int { return w.buf.harvestLastWriteIndex() }
func (w *DateTimeWriter) overflow(n int) {
	w.buf.overflow(n)
	w.cur = w.buf.cur().rowCount()
}
func (w *DateTimeWriter) startNextBatch() { w.buf.startNextBatch() }
func (w *DateTimeWriter) resetCurrent()   { w.buf.resetCurrent(); w.cur = 0 }
func (w *DateTimeWriter) reserve(n int)   { w.buf.reserve(n) }
func (w *DateTimeWriter) byteSize() int   { return 0 }
func (w *DateTimeWriter) rowCount() int   { return w.buf.cur().rowCount() }
func (w *DateTimeWriter) fillEmptyCurrent(upto int) {
	w.buf.fillEmptyCurrent(upto, date.Time{}, w.cardinality == schema.Optional)
}
func (w *DateTimeWriter) fillEmptyHarvest(upto int) {
	w.buf.fillEmptyHarvest(upto, date.Time{}, w.cardinality == schema.Optional)
}
func (w *DateTimeWriter) Values() ([]date.Time, []bool) {
	s := w.buf.cur()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}
func (w *DateTimeWriter) HarvestValues() ([]date.Time, []bool) {
	s := w.buf.pending()
	n := s.rowCount()
	if n < 0 {
		n = 0
	}
	return s.values[:n], s.valid[:n]
}

func narrowIntBounds(width int) (int64, int64) {
	switch width {
	case 8:
		return math.MinInt8, math.MaxInt8
	case 16:
		return math.MinInt16, math.MaxInt16
	case 32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func roundHalfAwayFromZero(f float64) float64 {
	if f >= 0 {
		return math.Floor(f + 0.5)
	}
	return math.Ceil(f - 0.5)
}
