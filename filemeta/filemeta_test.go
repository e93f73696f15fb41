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

package filemeta

import (
	"strings"
	"testing"
)

func TestNewDerivesImplicitColumns(t *testing.T) {
	info, err := New("/w/x/y/z.csv", "/w")
	if err != nil {
		t.Fatal(err)
	}
	if info.FQN() != "/w/x/y/z.csv" {
		t.Fatalf("unexpected fqn: %s", info.FQN())
	}
	if info.FilePathDir() != "/w/x/y" {
		t.Fatalf("unexpected filepath: %s", info.FilePathDir())
	}
	if info.FileName() != "z.csv" {
		t.Fatalf("unexpected filename: %s", info.FileName())
	}
	if info.Suffix() != "csv" {
		t.Fatalf("unexpected suffix: %s", info.Suffix())
	}
	if len(info.DirSegments) != 2 || info.DirSegments[0] != "x" || info.DirSegments[1] != "y" {
		t.Fatalf("unexpected dir segments: %v", info.DirSegments)
	}
}

// TestDirConcatenationMatchesRelativePath checks (I5): dirN
// values, concatenated with '/' in order, equal the relative
// path between selection_root and file_path.
func TestDirConcatenationMatchesRelativePath(t *testing.T) {
	info, err := New("/w/x/y/z.csv", "/w")
	if err != nil {
		t.Fatal(err)
	}
	rel := strings.Join(info.DirSegments, "/")
	if rel != "x/y" {
		t.Fatalf("expected relative path x/y, got %s", rel)
	}
}

func TestNewRejectsFilePathOutsideRoot(t *testing.T) {
	if _, err := New("/other/z.csv", "/w"); err == nil {
		t.Fatal("expected error for file path outside selection root")
	}
}

func TestNewWithoutSelectionRoot(t *testing.T) {
	info, err := New("/w/x/y/z.csv", "")
	if err != nil {
		t.Fatal(err)
	}
	if info.DirSegments != nil {
		t.Fatalf("expected nil dir segments without a selection root, got %v", info.DirSegments)
	}
}

func TestNoSubdirectory(t *testing.T) {
	info, err := New("/w/z.csv", "/w")
	if err != nil {
		t.Fatal(err)
	}
	if len(info.DirSegments) != 0 {
		t.Fatalf("expected no dir segments for a file directly under the root, got %v", info.DirSegments)
	}
	if _, ok := info.Dir(0); ok {
		t.Fatal("expected Dir(0) to report absent")
	}
}
