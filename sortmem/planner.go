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

// Package sortmem implements the external-sort memory
// planner shape (4.9): a resource-budget sizing utility used
// as the canonical pattern for "how many rows fit in a batch
// given a byte budget" elsewhere in the scan core.
package sortmem

import (
	"bytes"

	"github.com/klauspost/compress/zstd"
)

// Config is the planner's fixed input (4.9).
type Config struct {
	MemoryLimit      int64
	SpillBatchSize   int64
	MergeBatchSize   int64
	MergeFanoutLimit int
}

// Observed is the planner's per-call observed workload shape.
type Observed struct {
	BatchBytes int64
	RowWidth   int64
	RowCount   int64
}

// Planner sizes spill/merge batches and decides when to spill
// or merge, given Config and the Observed shape of the data
// currently flowing through a sort operator.
type Planner struct {
	cfg         Config
	mayOverflow bool
}

// NewPlanner returns a Planner for cfg.
func NewPlanner(cfg Config) *Planner {
	return &Planner{cfg: cfg}
}

// MayOverflow reports whether even a minimal plan failed to
// fit the memory budget on some prior call (low-memory mode,
// 4.9's last paragraph).
func (p *Planner) MayOverflow() bool {
	return p.mayOverflow
}

// SpillRowCount computes the spill batch row count: the
// configured spill batch byte size divided by the observed
// row width, rounded down, clamped to [1, 65535].
func (p *Planner) SpillRowCount(rowWidth int64) int {
	return clampRowCount(p.cfg.SpillBatchSize, rowWidth)
}

// MergeRowCount computes the merge batch row count the same
// way, from the configured merge batch byte size.
func (p *Planner) MergeRowCount(rowWidth int64) int {
	return clampRowCount(p.cfg.MergeBatchSize, rowWidth)
}

func clampRowCount(budget, rowWidth int64) int {
	if rowWidth <= 0 {
		rowWidth = 1
	}
	n := budget / rowWidth
	if n < 1 {
		n = 1
		return int(n)
	}
	if n > 65535 {
		n = 65535
	}
	return int(n)
}

// IsSpillNeeded reports whether adding incoming bytes to the
// allocated total would exceed the memory budget, leaving
// spillBatchSize of headroom (so that a subsequent spill batch
// always has room to be built).
func (p *Planner) IsSpillNeeded(allocated, incoming int64) bool {
	return allocated+incoming > p.cfg.MemoryLimit-p.cfg.SpillBatchSize
}

// Action is the outcome of ConsolidateBatches.
type Action int

const (
	ActionNone Action = iota
	ActionSpill
	ActionMerge
)

// Plan is the result of ConsolidateBatches: Action and, for
// ActionMerge, the chosen merge width.
type Plan struct {
	Action Action
	Width  int
}

// ConsolidateBatches decides whether the sort operator should
// keep accumulating in-memory batches, spill the current
// in-memory set to disk, or merge existing spill runs. Merge
// width is at least 2 and at most MergeFanoutLimit.
func (p *Planner) ConsolidateBatches(allocatedMemory int64, inMemBatchCount, spillRunCount int) Plan {
	if allocatedMemory >= p.cfg.MemoryLimit {
		if spillRunCount >= 2 {
			width := spillRunCount
			if width > p.cfg.MergeFanoutLimit {
				width = p.cfg.MergeFanoutLimit
			}
			if width < 2 {
				width = 2
			}
			if allocatedMemory >= p.cfg.MemoryLimit && width < 2 {
				p.mayOverflow = true
			}
			return Plan{Action: ActionMerge, Width: width}
		}
		if inMemBatchCount > 0 {
			return Plan{Action: ActionSpill}
		}
		p.mayOverflow = true
		return Plan{Action: ActionNone}
	}
	return Plan{Action: ActionNone}
}

// EstimateSpillBytes estimates the on-disk size of spilling
// sample, using a zstd compression pass at the fastest level
// as a cheap stand-in for the real spill codec's ratio --
// mirroring the teacher's ion/zion use of zstd for compressed
// block-size estimation ahead of an actual write.
func EstimateSpillBytes(sample []byte) (int64, error) {
	if len(sample) == 0 {
		return 0, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return 0, err
	}
	defer enc.Close()
	var buf bytes.Buffer
	enc.Reset(&buf)
	if _, err := enc.Write(sample); err != nil {
		return 0, err
	}
	if err := enc.Close(); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}
