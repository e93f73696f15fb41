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

// Package scan wires the projection resolution pipeline,
// schema smoothing, and the result set loader into a
// per-reader lifecycle (the scan orchestrator, 4.6) and a
// state machine that drives a sequence of readers pulled from
// a factory (the scan operator, 4.7).
package scan

import (
	"context"

	"github.com/SnellerInc/sneller/schema"
)

// Reader is the external interface a storage-format adapter
// (CSV, JSON, mock, ...) implements; it is the "external
// collaborator" the scan core consumes (§6).
type Reader interface {
	// Open negotiates the reader's schema with neg and builds
	// its row writer. false means the reader has no data and no
	// schema to offer (skip it); this is the only way open may
	// legitimately fail without raising an error.
	Open(ctx context.Context, neg Negotiator) (bool, error)
	// Next writes one row's worth of table-column values into
	// the row writer obtained from neg.Build(), returning false
	// at EOF. It must not call RowWriter.FinishRow itself: the
	// orchestrator calls it after filling in any implicit
	// columns for the row.
	Next(ctx context.Context) (bool, error)
	// Close releases any reader-owned resources.
	Close() error
	// SchemaVersion is a monotonic per-reader counter a reader
	// may bump if its own schema changes mid-stream (rare; most
	// readers return a constant).
	SchemaVersion() uint64
}

// SchemaType distinguishes readers that know their full
// schema up front (Early) from readers that infer it
// incrementally as they parse (Late, e.g. JSON).
type SchemaType int

const (
	SchemaEarly SchemaType = iota
	SchemaLate
)

// Negotiator is the handshake object a reader uses to declare
// its schema and request a row writer (§6's schema_negotiator).
type Negotiator interface {
	// AddTableColumn declares one of the reader's own columns.
	AddTableColumn(name string, typ schema.MinorType)
	// AddTableColumnCard is AddTableColumn with an explicit
	// cardinality; AddTableColumn defaults to Required.
	AddTableColumnCard(name string, typ schema.MinorType, card schema.Cardinality)
	SetTableSchemaType(SchemaType)
	SetFilePath(path string)
	SetSelectionRoot(root string)
	SetNullType(col schema.Column)
	SetBatchSize(rows int)
	// Build resolves the declared schema against the scan's
	// projection and schema smoother, and returns the RowWriter
	// the reader should write rows into.
	Build() (*RowWriter, error)
}

// ReaderFactory produces readers one at a time, in order,
// matching the "one reader at a time" lifecycle rule (§3).
type ReaderFactory interface {
	// Next returns the next reader, or ok=false if the factory
	// is exhausted.
	Next(ctx context.Context) (r Reader, ok bool, err error)
	Close() error
}
