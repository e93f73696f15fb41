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

package schema

import (
	"strconv"
	"strings"
)

// Wildcard is the distinguished root name denoting "all
// reader columns in reader order".
const Wildcard = "*"

// PathElem is one segment of a SchemaPath: either a
// dotted child name or an array index.
type PathElem struct {
	Name    string
	Index   int
	IsIndex bool
}

// Path is a root name followed by zero or more child-name
// or array-index segments, e.g. `a.b[2].c`.
type Path struct {
	Root string
	Rest []PathElem
}

// IsWildcard reports whether p is exactly the wildcard root
// with no further segments.
func (p Path) IsWildcard() bool {
	return p.Root == Wildcard && len(p.Rest) == 0
}

// String renders p in canonical dotted/indexed form.
func (p Path) String() string {
	var b strings.Builder
	b.WriteString(p.Root)
	for _, e := range p.Rest {
		if e.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(e.Index))
			b.WriteByte(']')
		} else {
			b.WriteByte('.')
			b.WriteString(e.Name)
		}
	}
	return b.String()
}

// ParsePath parses a dotted/indexed project-list entry into
// a Path. `*` alone is the wildcard. Indexes must be
// non-negative integers in square brackets immediately
// following a name, e.g. `columns[0]`.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, errEmptyPath
	}
	if s == Wildcard {
		return Path{Root: Wildcard}, nil
	}
	segs := strings.Split(s, ".")
	root, rest0, err := splitIndexes(segs[0])
	if err != nil {
		return Path{}, err
	}
	p := Path{Root: root, Rest: rest0}
	for _, seg := range segs[1:] {
		name, idxs, err := splitIndexes(seg)
		if err != nil {
			return Path{}, err
		}
		if name != "" {
			p.Rest = append(p.Rest, PathElem{Name: name})
		}
		p.Rest = append(p.Rest, idxs...)
	}
	return p, nil
}

// splitIndexes splits "name[0][1]" into "name" and a list
// of index PathElems.
func splitIndexes(seg string) (string, []PathElem, error) {
	i := strings.IndexByte(seg, '[')
	if i < 0 {
		return seg, nil, nil
	}
	name := seg[:i]
	rest := seg[i:]
	var idxs []PathElem
	for len(rest) > 0 {
		if rest[0] != '[' {
			return "", nil, errBadIndex
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return "", nil, errBadIndex
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil || n < 0 {
			return "", nil, errBadIndex
		}
		idxs = append(idxs, PathElem{Index: n, IsIndex: true})
		rest = rest[end+1:]
	}
	return name, idxs, nil
}

type pathErr string

func (e pathErr) Error() string { return string(e) }

const (
	errEmptyPath pathErr = "schema: empty projection key"
	errBadIndex  pathErr = "schema: malformed array index"
)
