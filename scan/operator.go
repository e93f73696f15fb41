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
	"context"

	"github.com/SnellerInc/sneller/internal/scanlog"
)

// opState is the operator's internal state machine position
// (§4.7): Start -> Reader -> (End | Failed) -> Closed.
type opState int

const (
	opStart opState = iota
	opReader
	opEnd
	opFailed
	opClosed
)

// IterOutcome is the result of one Operator.Next call.
type IterOutcome int

const (
	// OutcomeOK means a batch is ready and its schema matches
	// the previously emitted one.
	OutcomeOK IterOutcome = iota
	// OutcomeNewSchema means a batch is ready under a schema
	// different from the previous one (I4); callers must
	// re-fetch the output schema.
	OutcomeNewSchema
	// OutcomeNone means no rows are currently available but the
	// scan is not finished (e.g. a reader yielded zero rows);
	// call Next again.
	OutcomeNone
	// OutcomeStop means the scan is finished; no more batches
	// will ever be produced.
	OutcomeStop
)

// Operator drives a sequence of readers pulled from a
// ReaderFactory, one at a time, through the scan orchestrator,
// and exposes ready batches via Next.
type Operator struct {
	scan    *Scan
	factory ReaderFactory
	cfg     Config

	state  opState
	reader Reader
	rw     *RowWriter
	neg    *negotiator

	// pendingAdvance and pendingReaderSwap defer mutating work
	// that would invalidate the batch just returned from Next
	// (Advance() resets the very buffers BatchAccessor points
	// at, and swapping readers rebuilds/reuses cached writers)
	// until the following Next call, after the caller has had
	// the batch in hand.
	pendingAdvance    bool
	pendingReaderSwap bool

	// schemaReported is set once the current reader's first
	// batch has been returned, so only that batch can carry
	// OutcomeNewSchema.
	schemaReported bool
}

// NewOperator builds an Operator over factory using scan's
// projection, smoother, and vector cache.
func NewOperator(scan *Scan, factory ReaderFactory, cfg Config) *Operator {
	return &Operator{scan: scan, factory: factory, cfg: cfg, state: opStart}
}

// BuildSchema advances the operator from Start to Reader,
// opening readers from the factory until one yields a schema
// (ok=true from Open) or the factory is exhausted (B1).
func (op *Operator) BuildSchema(ctx context.Context) error {
	if op.state != opStart {
		return &Error{Kind: Internal, Err: errWrongState("BuildSchema", op.state)}
	}
	for {
		r, ok, err := op.factory.Next(ctx)
		if err != nil {
			op.state = opFailed
			return &Error{Kind: Internal, Err: err}
		}
		if !ok {
			op.state = opEnd
			if op.cfg.AllowEmptyScan || op.cfg.AllowEmptyBatch {
				return nil
			}
			return ErrEmptyScan
		}
		n := op.scan.StartReader().(*negotiator)
		opened, err := r.Open(ctx, n)
		if err != nil {
			r.Close()
			op.state = opFailed
			return err
		}
		if !opened {
			r.Close()
			continue
		}
		rw, err := n.Build()
		if err != nil {
			r.Close()
			op.state = opFailed
			return err
		}
		op.reader = r
		op.neg = n
		op.rw = rw
		op.state = opReader
		return nil
	}
}

// Next pulls rows from the current reader until its row writer
// is ready to harvest a batch, advances to the next reader at
// EOF, and reports whether the emitted batch's schema changed
// (I4) or the scan has ended (B2).
func (op *Operator) Next(ctx context.Context) (BatchAccessor, IterOutcome, error) {
	// Apply whatever the previous Next call deferred: the
	// caller has now seen that batch, so it is safe to reclaim
	// its buffers and/or swap in the following reader.
	if op.pendingAdvance {
		op.pendingAdvance = false
		op.rw.Advance()
	}
	if op.pendingReaderSwap {
		op.pendingReaderSwap = false
		op.closeCurrentReader()
		if err := op.advanceReader(ctx); err != nil {
			return BatchAccessor{}, OutcomeStop, err
		}
		if op.state == opEnd {
			op.state = opClosed
			return BatchAccessor{}, OutcomeStop, nil
		}
	}
	for {
		switch op.state {
		case opReader:
			more, rows, err := op.drainReader(ctx)
			if err != nil {
				op.state = opFailed
				return BatchAccessor{}, OutcomeStop, err
			}
			if rows > 0 {
				acc := BatchAccessor{RowCount: rows, writers: op.rw.Writers(), overflowed: op.rw.Overflowed()}
				outcome := OutcomeOK
				if op.scan.LastVersionBumped() && !op.schemaReported {
					outcome = OutcomeNewSchema
				}
				op.schemaReported = true
				op.pendingAdvance = true
				if !more {
					op.pendingReaderSwap = true
				}
				return acc, outcome, nil
			}
			// reader produced no rows this pass; move to the next one.
			op.closeCurrentReader()
			if err := op.advanceReader(ctx); err != nil {
				return BatchAccessor{}, OutcomeStop, err
			}
			if op.state == opEnd {
				op.state = opClosed
				return BatchAccessor{}, OutcomeStop, nil
			}
			continue
		case opEnd:
			op.state = opClosed
			return BatchAccessor{}, OutcomeStop, nil
		case opClosed:
			return BatchAccessor{}, OutcomeStop, nil
		case opFailed:
			return BatchAccessor{}, OutcomeStop, &Error{Kind: Internal, Err: errWrongState("Next", op.state)}
		default:
			return BatchAccessor{}, OutcomeStop, &Error{Kind: Internal, Err: errWrongState("Next", op.state)}
		}
	}
}

// drainReader calls Next/FinishRow on the current reader until
// it either fills a batch (rw.Full()) or hits EOF, returning
// the row count harvested so far and whether the reader has
// more rows left to give (false at EOF).
func (op *Operator) drainReader(ctx context.Context) (more bool, rows int, err error) {
	for {
		if op.rw.Full() {
			return true, op.rw.Harvest(), nil
		}
		ok, err := op.reader.Next(ctx)
		if err != nil {
			return false, 0, err
		}
		if !ok {
			return false, op.rw.Harvest(), nil
		}
		overflowed, err := op.rw.FinishRow()
		if err != nil {
			return false, 0, err
		}
		if overflowed {
			return true, op.rw.Harvest(), nil
		}
	}
}

func (op *Operator) closeCurrentReader() {
	if op.reader != nil {
		if err := op.reader.Close(); err != nil {
			scanlog.Warnf("scan %s: reader close: %v", op.scan.ID(), err)
		}
		op.reader = nil
	}
	op.scan.CloseReader()
}

// advanceReader opens the next non-empty reader from the
// factory, or transitions to End if the factory is exhausted.
func (op *Operator) advanceReader(ctx context.Context) error {
	for {
		r, ok, err := op.factory.Next(ctx)
		if err != nil {
			op.state = opFailed
			return &Error{Kind: Internal, Err: err}
		}
		if !ok {
			op.state = opEnd
			op.reader, op.rw, op.neg = nil, nil, nil
			return nil
		}
		n := op.scan.StartReader().(*negotiator)
		opened, err := r.Open(ctx, n)
		if err != nil {
			r.Close()
			op.state = opFailed
			return err
		}
		if !opened {
			r.Close()
			continue
		}
		rw, err := n.Build()
		if err != nil {
			r.Close()
			op.state = opFailed
			return err
		}
		op.reader = r
		op.neg = n
		op.rw = rw
		op.state = opReader
		op.schemaReported = false
		return nil
	}
}

// Cancel transitions the operator to Closed from any state,
// closing the current reader if one is open.
func (op *Operator) Cancel() {
	op.closeCurrentReader()
	op.state = opClosed
}

// Close releases the current reader (if any) and the
// underlying factory; errors from either are logged, not
// returned, matching the teacher's best-effort Close
// convention.
func (op *Operator) Close() error {
	if op.state == opClosed {
		return nil
	}
	op.closeCurrentReader()
	op.state = opClosed
	if err := op.factory.Close(); err != nil {
		scanlog.Warnf("scan %s: factory close: %v", op.scan.ID(), err)
	}
	return nil
}

type wrongStateError struct {
	call  string
	state opState
}

func (e *wrongStateError) Error() string {
	return "scan: " + e.call + " called in wrong operator state"
}

func errWrongState(call string, state opState) error {
	return &wrongStateError{call: call, state: state}
}
