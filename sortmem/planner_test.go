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

package sortmem

import "testing"

func TestSpillRowCountClampedToRange(t *testing.T) {
	p := NewPlanner(Config{SpillBatchSize: 1 << 20, MergeBatchSize: 1 << 20, MemoryLimit: 1 << 30, MergeFanoutLimit: 8})
	if n := p.SpillRowCount(16); n != 65535 {
		t.Fatalf("expected clamp to 65535 for a tiny row width, got %d", n)
	}
	if n := p.SpillRowCount(1 << 30); n != 1 {
		t.Fatalf("expected clamp to 1 for a huge row width, got %d", n)
	}
	if n := p.SpillRowCount(1024); n != (1<<20)/1024 {
		t.Fatalf("unexpected row count: %d", n)
	}
}

func TestIsSpillNeeded(t *testing.T) {
	p := NewPlanner(Config{MemoryLimit: 100, SpillBatchSize: 10})
	if p.IsSpillNeeded(50, 30) {
		t.Fatal("expected no spill needed: 50+30 <= 100-10")
	}
	if !p.IsSpillNeeded(50, 45) {
		t.Fatal("expected spill needed: 50+45 > 100-10")
	}
}

func TestConsolidateBatchesMergeWidthBounded(t *testing.T) {
	p := NewPlanner(Config{MemoryLimit: 100, MergeFanoutLimit: 4})
	plan := p.ConsolidateBatches(100, 0, 10)
	if plan.Action != ActionMerge || plan.Width != 4 {
		t.Fatalf("expected a merge capped at fanout 4, got %+v", plan)
	}
}

func TestConsolidateBatchesSpillsWhenOverBudget(t *testing.T) {
	p := NewPlanner(Config{MemoryLimit: 100})
	plan := p.ConsolidateBatches(100, 3, 0)
	if plan.Action != ActionSpill {
		t.Fatalf("expected spill, got %+v", plan)
	}
}

func TestEstimateSpillBytes(t *testing.T) {
	sample := make([]byte, 4096)
	n, err := EstimateSpillBytes(sample)
	if err != nil {
		t.Fatal(err)
	}
	if n <= 0 || n >= int64(len(sample)) {
		t.Fatalf("expected a nonzero compressed estimate smaller than the input, got %d", n)
	}
}

func TestEstimateSpillBytesEmpty(t *testing.T) {
	n, err := EstimateSpillBytes(nil)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected 0 for an empty sample, got %d", n)
	}
}
