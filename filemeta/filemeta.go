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

// Package filemeta derives the implicit file-identity
// columns (fqn, filepath, filename, suffix, dirN) that a
// scan can project alongside a file's own table columns.
package filemeta

import (
	"fmt"
	"path"
	"strings"
)

// Info holds the file-path/selection-root pair a scan
// resolves implicit columns against. SelectionRoot and
// DirSegments are both optional: a scan over a single named
// file (not a directory selection) may leave them unset.
type Info struct {
	FilePath      string
	SelectionRoot string
	DirSegments   []string
}

// New derives an Info from a file path and the selection
// root it was discovered under, computing DirSegments as the
// path components strictly between the two, exclusive of the
// file name (I5). If root is empty, DirSegments is nil.
//
// Both paths are treated as '/'-separated regardless of OS,
// matching the teacher's fsutil convention of normalizing
// storage keys to forward slashes.
func New(filePath, selectionRoot string) (Info, error) {
	info := Info{FilePath: filePath, SelectionRoot: selectionRoot}
	if selectionRoot == "" {
		return info, nil
	}
	root := strings.TrimSuffix(selectionRoot, "/")
	if filePath != root && !strings.HasPrefix(filePath, root+"/") {
		return Info{}, fmt.Errorf("filemeta: file path %q is not under selection root %q", filePath, selectionRoot)
	}
	rel := strings.TrimPrefix(filePath, root+"/")
	dir := path.Dir(rel)
	if dir == "." {
		info.DirSegments = nil
	} else {
		info.DirSegments = strings.Split(dir, "/")
	}
	return info, nil
}

// FQN is the full file path.
func (i Info) FQN() string { return i.FilePath }

// FilePathDir is the parent directory of the file (the
// "filepath" implicit column).
func (i Info) FilePathDir() string {
	return path.Dir(i.FilePath)
}

// FileName is the terminal path segment.
func (i Info) FileName() string {
	return path.Base(i.FilePath)
}

// Suffix is the characters after the last '.' in FileName,
// or "" if there is none.
func (i Info) Suffix() string {
	name := i.FileName()
	idx := strings.LastIndexByte(name, '.')
	if idx < 0 {
		return ""
	}
	return name[idx+1:]
}

// Dir returns the n-th path segment between SelectionRoot
// and FilePath, or ("", false) if there is no such segment.
func (i Info) Dir(n int) (string, bool) {
	if n < 0 || n >= len(i.DirSegments) {
		return "", false
	}
	return i.DirSegments[n], true
}

// MaxDepth returns the number of partition segments (the
// length of DirSegments), used by the legacy wildcard
// expansion policy to decide how many dirN columns to emit.
func (i Info) MaxDepth() int {
	return len(i.DirSegments)
}
