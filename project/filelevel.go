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

package project

import (
	"fmt"

	"github.com/SnellerInc/sneller/filemeta"
)

// FileColumnKind discriminates FileColumn.
type FileColumnKind int

const (
	// FileTable passes a scan-level table reference through unresolved.
	FileTable FileColumnKind = iota
	// FileWildcard passes the wildcard through unresolved.
	FileWildcard
	// FileColumnsArray passes the columns[] request through unresolved.
	FileColumnsArray
	// FileConstant is a metadata or partition column resolved to
	// a per-file constant string value.
	FileConstant
)

// FileColumn is one entry of the file-level resolved list
// (4.4b). Metadata and partition entries are now constants;
// table/wildcard/columns entries pass through for schema-level
// resolution.
type FileColumn struct {
	Kind    FileColumnKind
	Name    string
	Indices []int
	Value   string
}

// FileOptions configures file-level resolution (the legacy
// vs. modern wildcard/partition policies from 4.4b).
type FileOptions struct {
	// LegacyWildcardExpansion, when set, makes a wildcard
	// automatically emit dir0..dir_{depth-1} partition columns.
	LegacyWildcardExpansion bool
	// LegacyPartitionColumnLocation, when set, places the
	// auto-expanded partitions immediately next to the
	// wildcard; otherwise they are appended at the end of the
	// output list.
	LegacyPartitionColumnLocation bool
	// PartitionDepthHint is the configured max partition depth.
	// If zero, the file's own DirSegments length is used.
	PartitionDepthHint int
}

func partitionName(depth int) string {
	return fmt.Sprintf("dir%d", depth)
}

// ResolveFile implements 4.4(b).
func ResolveFile(list ScanList, info filemeta.Info, opts FileOptions) (FileList, error) {
	depth := opts.PartitionDepthHint
	if depth == 0 {
		depth = info.MaxDepth()
	}

	explicitDepths := map[int]bool{}
	for _, c := range list.Columns {
		if c.Kind == KindPartition {
			explicitDepths[c.Depth] = true
		}
	}

	var out FileList
	var trailingPartitions []FileColumn
	expandPartitions := func() []FileColumn {
		var cols []FileColumn
		for d := 0; d < depth; d++ {
			if explicitDepths[d] {
				continue
			}
			val, _ := info.Dir(d)
			cols = append(cols, FileColumn{Kind: FileConstant, Name: partitionName(d), Value: val})
		}
		return cols
	}

	for _, c := range list.Columns {
		switch c.Kind {
		case KindTable:
			out.Columns = append(out.Columns, FileColumn{Kind: FileTable, Name: c.Name})
		case KindWildcard:
			out.Columns = append(out.Columns, FileColumn{Kind: FileWildcard})
			if list.HasWildcard && opts.LegacyWildcardExpansion {
				if opts.LegacyPartitionColumnLocation {
					out.Columns = append(out.Columns, expandPartitions()...)
				} else {
					trailingPartitions = expandPartitions()
				}
			}
		case KindColumnsArray:
			out.Columns = append(out.Columns, FileColumn{Kind: FileColumnsArray, Indices: c.Indices})
		case KindMetadata:
			out.Columns = append(out.Columns, FileColumn{Kind: FileConstant, Name: c.Meta.String(), Value: resolveMetadata(c.Meta, info)})
		case KindPartition:
			val, _ := info.Dir(c.Depth)
			out.Columns = append(out.Columns, FileColumn{Kind: FileConstant, Name: partitionName(c.Depth), Value: val})
		}
	}
	out.Columns = append(out.Columns, trailingPartitions...)
	return out, nil
}

func resolveMetadata(kind MetadataKind, info filemeta.Info) string {
	switch kind {
	case MetaFQN:
		return info.FQN()
	case MetaFilePath:
		return info.FilePathDir()
	case MetaFileName:
		return info.FileName()
	case MetaSuffix:
		return info.Suffix()
	default:
		return ""
	}
}

// FileList is the output of file-level resolution.
type FileList struct {
	Columns []FileColumn
}
