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

// Package project implements the three-phase projection
// resolution pipeline: scan-level parsing of a query's
// project list, file-level resolution of implicit/partition
// columns against a file's identity, and schema-level
// resolution against a reader's table schema.
package project

import "github.com/SnellerInc/sneller/schema"

// Kind discriminates the tagged ProjectedColumn variant, the
// way the teacher's plan package tags expression nodes with
// an Op for dispatch instead of relying on a type switch
// scattered across call sites.
type Kind int

const (
	// KindTable is a not-yet-resolved table column reference.
	KindTable Kind = iota
	// KindWildcard is the "*" marker.
	KindWildcard
	// KindMetadata is one of fqn/filepath/filename/suffix.
	KindMetadata
	// KindPartition is a dirN reference.
	KindPartition
	// KindColumnsArray is the special columns/columns[i] form.
	KindColumnsArray
)

// MetadataKind enumerates the implicit file-identity columns.
type MetadataKind int

const (
	MetaFQN MetadataKind = iota
	MetaFilePath
	MetaFileName
	MetaSuffix
)

func (k MetadataKind) String() string {
	switch k {
	case MetaFQN:
		return "fqn"
	case MetaFilePath:
		return "filepath"
	case MetaFileName:
		return "filename"
	case MetaSuffix:
		return "suffix"
	default:
		return "unknown"
	}
}

// Column is a tagged variant: exactly the fields relevant to
// Kind are meaningful. This mirrors the source's class
// hierarchy collapsed into one struct with an id
// discriminator, per the dynamic-dispatch design note.
type Column struct {
	Kind Kind

	// Name is set for KindTable: the requested table column name.
	Name string

	// Meta is set for KindMetadata.
	Meta MetadataKind

	// Depth is set for KindPartition: the dirN index N.
	Depth int

	// Indices is set for KindColumnsArray: the requested
	// indices, in request order. A nil/empty Indices with
	// Kind == KindColumnsArray means "columns" was requested
	// bare (every index the reader yields).
	Indices []int
}

// Equivalent reports whether two ProjectedColumns are
// interchangeable under projection-equivalence (R1): the
// same Kind and the same resolved identity, irrespective of
// surface spelling (e.g. name case).
func (c Column) Equivalent(other Column) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case KindTable:
		return equalFold(c.Name, other.Name)
	case KindWildcard:
		return true
	case KindMetadata:
		return c.Meta == other.Meta
	case KindPartition:
		return c.Depth == other.Depth
	case KindColumnsArray:
		if len(c.Indices) != len(other.Indices) {
			return false
		}
		for i := range c.Indices {
			if c.Indices[i] != other.Indices[i] {
				return false
			}
		}
		return true
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// ScanList is the output of scan-level resolution (4.4a).
type ScanList struct {
	Columns    []Column
	ProjectAll bool
	HasWildcard bool
}

// ResolvedKind discriminates ResolvedColumn.
type ResolvedKind int

const (
	// ResolvedTableColumn projects an underlying reader column by index.
	ResolvedTableColumn ResolvedKind = iota
	// ResolvedNullColumn is missing from the reader; filled with
	// a constant null of the declared null type.
	ResolvedNullColumn
	// ResolvedMetadataColumn is a constant string for this file.
	ResolvedMetadataColumn
	// ResolvedColumnsArray is the special columns/columns[i]
	// form: a single repeated-varchar column fed by the
	// reader's own per-row value list, restricted to Indices
	// when non-empty (S6).
	ResolvedColumnsArray
)

// ResolvedColumn is one column of the fully resolved output
// schema (4.4c).
type ResolvedColumn struct {
	Kind ResolvedKind

	// OutputName is the name the column carries downstream.
	OutputName string

	// SourceID is set for ResolvedTableColumn: the reader
	// TupleSchema column id it projects.
	SourceID schema.ColumnID

	// NullType is set for ResolvedNullColumn: the declared type
	// to present for the (always-null) column.
	NullType schema.Column

	// ConstantValue is set for ResolvedMetadataColumn: the
	// per-file constant string value.
	ConstantValue string

	// Indices is set for ResolvedColumnsArray: the requested
	// reader-column indices, in request order; empty means
	// every index the reader yields.
	Indices []int
}
