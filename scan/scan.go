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

	"github.com/SnellerInc/sneller/filemeta"
	"github.com/SnellerInc/sneller/internal/scanlog"
	"github.com/SnellerInc/sneller/project"
	"github.com/SnellerInc/sneller/rowset"
	"github.com/SnellerInc/sneller/schema"
	"github.com/SnellerInc/sneller/smoother"
	"github.com/SnellerInc/sneller/vector"
)

// Scan is the scan orchestrator (4.6): it composes the
// projection pipeline, schema smoother, result set loader, and
// vector cache into a per-reader lifecycle. It is driven by
// Operator, which owns the reader factory.
type Scan struct {
	cfg      Config
	scanList project.ScanList
	cache    *vectorCache
	smoother *smoother.Smoother

	id string

	version    uint64
	lastBumped bool
	lastSchema *schema.Tuple
	priorDepth int
}

// cachedColumns adapts vectorCache to smoother.CachedColumns.
type cachedColumns struct{ c *vectorCache }

func (a cachedColumns) Cached(name string) bool { return a.c.cached(name) }

// New constructs a Scan for the given project list and
// configuration.
func New(projectList []string, cfg Config) (*Scan, error) {
	scanList, err := project.ParseScanList(projectList, project.ScanListOptions{
		WildcardExpandsToColumns: cfg.WildcardExpandsToColumns,
	})
	if err != nil {
		return nil, &Error{Kind: UserProjection, Err: err}
	}
	return &Scan{
		cfg:      cfg,
		scanList: scanList,
		cache:    newVectorCache(),
		smoother: smoother.New(),
		id:       newScanID(),
	}, nil
}

// ID returns the scan's correlation id, suitable for log
// lines spanning multiple readers.
func (s *Scan) ID() string { return s.id }

// StartReader returns a fresh Negotiator for a just-opened
// reader to populate.
func (s *Scan) StartReader() Negotiator {
	return &negotiator{
		scan:      s,
		table:     schema.NewTuple(),
		nullType:  s.cfg.NullType,
		batchSize: s.cfg.MaxBatchRows,
	}
}

// CloseReader is a no-op placeholder for symmetry with §4.6's
// lifecycle description; the vector cache (the only state that
// must survive a reader boundary) lives on Scan itself and is
// untouched here.
func (s *Scan) CloseReader() {}

// Close releases the vector cache, ending the scan.
func (s *Scan) Close() {
	s.cache.release()
}

// LastVersionBumped reports whether the most recently built
// RowWriter's schema differed from the previously emitted one
// (I4): the operator consults this to decide OK_NEW_SCHEMA vs OK.
func (s *Scan) LastVersionBumped() bool { return s.lastBumped }

// Version is the current schema version (monotonically
// non-decreasing, per the smoothing invariant).
func (s *Scan) Version() uint64 { return s.version }

// negotiator implements Negotiator for one reader.
type negotiator struct {
	scan          *Scan
	table         *schema.Tuple
	schemaType    SchemaType
	filePath      string
	selectionRoot string
	nullType      schema.Column
	batchSize     int
}

func (n *negotiator) AddTableColumn(name string, typ schema.MinorType) {
	n.AddTableColumnCard(name, typ, schema.Required)
}

func (n *negotiator) AddTableColumnCard(name string, typ schema.MinorType, card schema.Cardinality) {
	n.table.Add(schema.Column{Name: name, Type: typ, Cardinality: card})
}

func (n *negotiator) SetTableSchemaType(t SchemaType) { n.schemaType = t }
func (n *negotiator) SetFilePath(p string)             { n.filePath = p }
func (n *negotiator) SetSelectionRoot(r string)        { n.selectionRoot = r }
func (n *negotiator) SetNullType(c schema.Column)      { n.nullType = c }
func (n *negotiator) SetBatchSize(rows int)            { n.batchSize = rows }

func (n *negotiator) Build() (*RowWriter, error) {
	return n.scan.build(n)
}

// build performs the full 4.4(b)/(c) resolution plus schema
// smoothing, instantiates writers from the scan's vector
// cache, and assembles the RowWriter the reader will use.
func (s *Scan) build(n *negotiator) (*RowWriter, error) {
	info, err := filemeta.New(n.filePath, n.selectionRoot)
	if err != nil {
		return nil, &Error{Kind: UserSchema, Err: err, File: n.filePath}
	}

	fileList, err := project.ResolveFile(s.scanList, info, project.FileOptions{
		LegacyWildcardExpansion:       s.cfg.LegacyWildcardExpansion,
		LegacyPartitionColumnLocation: s.cfg.LegacyPartitionColumnLocation,
		PartitionDepthHint:            s.cfg.PartitionDepthHint,
	})
	if err != nil {
		return nil, &Error{Kind: UserProjection, Err: err, File: n.filePath}
	}

	nullType := n.nullType
	resolved, outSchema := project.ResolveSchema(fileList, n.table, nullType)

	finalSchema := outSchema
	effective := resolved
	bumped := true

	if s.cfg.SchemaSmoothing {
		res := s.smoother.Smooth(outSchema, smoother.Options{
			LegacyWildcardExpansion: s.cfg.LegacyWildcardExpansion,
			PriorPartitionDepth:     s.priorDepth,
			NewPartitionDepth:       info.MaxDepth(),
		}, cachedColumns{s.cache})
		finalSchema = res.Schema
		bumped = res.VersionBumped
		if bumped {
			s.priorDepth = info.MaxDepth()
		} else {
			effective = permute(resolved, finalSchema, res.Permutation)
		}
	} else {
		bumped = !outSchema.IsEquivalent(s.lastSchema)
	}

	if bumped {
		s.version++
	}
	s.lastBumped = bumped
	s.lastSchema = finalSchema

	return s.assemble(n, finalSchema, effective)
}

// permute reorders resolved (in outSchema's order) into
// finalSchema's (the reused prior schema's) order, using perm
// (finalSchema position -> outSchema position, or -1 for "no
// counterpart, null-fill").
func permute(resolved []project.ResolvedColumn, finalSchema *schema.Tuple, perm []int) []project.ResolvedColumn {
	out := make([]project.ResolvedColumn, finalSchema.Len())
	for i, j := range perm {
		if j < 0 {
			col := finalSchema.Columns()[i]
			out[i] = project.ResolvedColumn{Kind: project.ResolvedNullColumn, OutputName: col.Name, NullType: col}
			continue
		}
		out[i] = resolved[j]
	}
	return out
}

// assemble instantiates (or reuses, via the vector cache) a
// writer for each column of finalSchema, wires the reader's own
// declared columns to their writers, and registers the ones
// that actually accept reader-driven or constant values with a
// fresh rowset.Loader.
func (s *Scan) assemble(n *negotiator, finalSchema *schema.Tuple, effective []project.ResolvedColumn) (*RowWriter, error) {
	loader := rowset.NewLoader(rowset.Limits{MaxRows: s.cfg.MaxBatchRows, MaxBytes: s.cfg.MaxBatchBytes})
	rw := &RowWriter{byName: map[string]vector.Writer{}}

	outCols := finalSchema.Columns()
	for i, rc := range effective {
		col := outCols[i]
		w := s.cache.get(col.Name, col.Type, func() vector.Writer { return newTypedWriter(col) })
		loader.AddWriter(w)

		switch rc.Kind {
		case project.ResolvedTableColumn:
			rw.byName[strings.ToLower(rc.OutputName)] = w
		case project.ResolvedNullColumn:
			rw.nullColumns = append(rw.nullColumns, w)
		case project.ResolvedMetadataColumn:
			vc, ok := w.(*vector.VarCharWriter)
			if !ok {
				return nil, &Error{Kind: Internal, Err: errNotVarChar(col.Name)}
			}
			rw.constants = append(rw.constants, constantColumn{writer: vc, value: rc.ConstantValue})
		case project.ResolvedColumnsArray:
			vc, ok := w.(*vector.VarCharWriter)
			if !ok {
				return nil, &Error{Kind: Internal, Err: errNotVarChar(col.Name)}
			}
			rw.columnsArray = vc
			rw.columnsArrayIndices = rc.Indices
		}
	}

	// declared-but-unprojected reader columns get a throwaway,
	// unregistered writer so the reader can still call Set* on
	// every field it parses without special-casing the no-ops.
	for _, col := range n.table.Columns() {
		key := strings.ToLower(col.Name)
		if _, ok := rw.byName[key]; ok {
			continue
		}
		w := newTypedWriter(col)
		w.SetProjected(false)
		rw.byName[key] = w
	}

	loader.Reserve(estimatedRowWidth(outCols))
	rw.loader = loader
	if !s.cfg.SchemaSmoothing && s.lastBumped {
		scanlog.Infof("scan %s: schema replaced (smoothing disabled)", s.id)
	}
	return rw, nil
}

// avgVarCharWidth is the assumed average encoded width of one
// VARCHAR value, used only to size Reserve's up-front capacity
// guess; it never bounds an actual write the way MaxBytes does.
const avgVarCharWidth = 32

// estimatedRowWidth approximates one row's encoded byte width
// for sortmem.Planner.SpillRowCount's budget/width division:
// fixed-width columns contribute 8 bytes, variable-width
// (VARCHAR) columns the assumed average.
func estimatedRowWidth(cols []schema.Column) int64 {
	var width int64
	for _, c := range cols {
		if c.Type == schema.VarChar {
			width += avgVarCharWidth
		} else {
			width += 8
		}
	}
	return width
}

func newTypedWriter(col schema.Column) vector.Writer {
	switch col.Type {
	case schema.Int64:
		return vector.NewInt64Writer(col.Name, col.Cardinality)
	case schema.Float64:
		return vector.NewFloat64Writer(col.Name, col.Cardinality)
	case schema.Bool:
		return vector.NewBoolWriter(col.Name, col.Cardinality)
	case schema.DateTime:
		return vector.NewDateTimeWriter(col.Name, col.Cardinality, col.Format(""))
	default:
		return vector.NewVarCharWriter(col.Name, col.Cardinality)
	}
}

type notVarCharError string

func (e notVarCharError) Error() string { return string(e) }

func errNotVarChar(name string) error {
	return notVarCharError("scan: column " + name + " must be VARCHAR for this projection kind")
}
