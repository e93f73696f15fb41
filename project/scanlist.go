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
	"strconv"
	"strings"

	"github.com/SnellerInc/sneller/schema"
)

// ScanListOptions configures scan-level parsing.
type ScanListOptions struct {
	// WildcardExpandsToColumns lets a reader declare that its
	// wildcard is defined in terms of the columns[] form,
	// relaxing the columns/wildcard conflict rule.
	WildcardExpandsToColumns bool
}

// ParseScanList implements 4.4(a): parses a query's ordered
// project list into ProjectedColumns plus the project_all/
// has_wildcard flags. Entries are matched against a fixed set
// of plug-in parsers in priority order: wildcard, metadata
// names, dirN, columns[i]/columns, then the base table-column
// parser -- mirroring the teacher's plan.Rewrite dispatch,
// where specialised rules are tried before the catch-all.
func ParseScanList(entries []string, opts ScanListOptions) (ScanList, error) {
	var out ScanList
	seenTable := map[string]bool{}
	seenMeta := map[MetadataKind]bool{}
	seenPartition := map[int]bool{}
	var colsIndices []int
	seenColsIndex := map[int]bool{}
	haveColumnsBare := false
	haveColumnsArray := false
	haveNonMetadataOther := false

	for _, raw := range entries {
		p, err := schema.ParsePath(raw)
		if err != nil {
			return ScanList{}, &ProjectionError{Reason: err.Error(), Entry: raw}
		}

		switch {
		case p.IsWildcard():
			if !out.HasWildcard {
				out.Columns = append(out.Columns, Column{Kind: KindWildcard})
				out.HasWildcard = true
				out.ProjectAll = true
			}
			continue
		}

		root := strings.ToLower(p.Root)
		if meta, ok := metadataNames[root]; ok && len(p.Rest) == 0 {
			if !seenMeta[meta] {
				out.Columns = append(out.Columns, Column{Kind: KindMetadata, Meta: meta})
				seenMeta[meta] = true
			}
			continue
		}
		if depth, ok := parseDirN(root); ok && len(p.Rest) == 0 {
			if !seenPartition[depth] {
				out.Columns = append(out.Columns, Column{Kind: KindPartition, Depth: depth})
				seenPartition[depth] = true
			}
			continue
		}
		if root == "columns" {
			if len(p.Rest) == 1 && p.Rest[0].IsIndex {
				haveColumnsArray = true
				idx := p.Rest[0].Index
				if !seenColsIndex[idx] {
					colsIndices = append(colsIndices, idx)
					seenColsIndex[idx] = true
				}
				continue
			}
			if len(p.Rest) == 0 {
				haveColumnsBare = true
				continue
			}
		}

		// base parser: table column (possibly nested/indexed,
		// but scan-level resolution only tracks the root name;
		// schema-level resolution handles the rest of the path).
		key := strings.ToLower(p.Root)
		haveNonMetadataOther = true
		if !seenTable[key] {
			out.Columns = append(out.Columns, Column{Kind: KindTable, Name: p.Root})
			seenTable[key] = true
		}
	}

	if haveColumnsBare && haveColumnsArray {
		return ScanList{}, &ProjectionError{Reason: "columns and columns[i] cannot coexist"}
	}
	if (haveColumnsBare || haveColumnsArray) && haveNonMetadataOther {
		return ScanList{}, &ProjectionError{Reason: "columns cannot coexist with other table columns"}
	}
	if (haveColumnsBare || haveColumnsArray) && out.HasWildcard && !opts.WildcardExpandsToColumns {
		return ScanList{}, &ProjectionError{Reason: "columns cannot coexist with a wildcard for this reader"}
	}
	if haveColumnsBare {
		out.Columns = append(out.Columns, Column{Kind: KindColumnsArray})
	} else if haveColumnsArray {
		out.Columns = append(out.Columns, Column{Kind: KindColumnsArray, Indices: colsIndices})
	}

	return out, nil
}

var metadataNames = map[string]MetadataKind{
	"fqn":      MetaFQN,
	"filepath": MetaFilePath,
	"filename": MetaFileName,
	"suffix":   MetaSuffix,
}

// parseDirN recognises "dir" followed by a non-negative
// integer, e.g. "dir0", "dir12".
func parseDirN(s string) (int, bool) {
	const prefix = "dir"
	if !strings.HasPrefix(s, prefix) || len(s) == len(prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(s[len(prefix):])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ProjectionError is the UserProjection error kind (§7): an
// invalid project list.
type ProjectionError struct {
	Reason string
	Entry  string
}

func (e *ProjectionError) Error() string {
	if e.Entry != "" {
		return fmt.Sprintf("project: invalid projection entry %q: %s", e.Entry, e.Reason)
	}
	return fmt.Sprintf("project: %s", e.Reason)
}
