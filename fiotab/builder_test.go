// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiotab

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perftools/fiostat/fiofmt"
)

// rec builds a minimal record for table tests. Measured metrics
// start absent, as the extractors produce them.
func rec(task, runner string, op fiofmt.Op) *fiofmt.Record {
	nan := math.NaN()
	return &fiofmt.Record{
		Task:          task,
		Runner:        runner,
		Op:            op,
		AccessPattern: fiofmt.PatternUnknown,
		RuntimeSec:    nan,
		IOPS:          nan,
		BandwidthMBps: nan,
		LatMeanMs:     nan,
		LatP50Ms:      nan,
		LatP95Ms:      nan,
		LatP99Ms:      nan,
		TotalIOs:      nan,
	}
}

func TestTableCanonicalOrder(t *testing.T) {
	var b Builder

	r1 := rec("parallel-9-seq-read", "fio-runner-b", fiofmt.OpRead)
	r2 := rec("parallel-3-rand-write", "fio-runner-a", fiofmt.OpWrite)
	r3 := rec("parallel-3-rand-write", "fio-runner-a", fiofmt.OpRead)
	r3.Timestamp = time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	r4 := rec("parallel-3-rand-write", "fio-runner-a", fiofmt.OpRead)
	b.Add(r1)
	b.Add(r2)
	b.Add(r3)
	b.Add(r4)

	tab := b.Table()
	require.Equal(t, 4, b.Len())
	// parallel-3 before parallel-9; within a runner, zero timestamp
	// first, then read before write at equal timestamps.
	require.Equal(t, []*fiofmt.Record{r4, r2, r3, r1}, tab.Rows)
}

func TestTableTasksAndBlockSizes(t *testing.T) {
	var b Builder
	r1 := rec("parallel-6-rand-write", "", fiofmt.OpWrite)
	r1.BlockSize, r1.BlockSizeBytes = "1M", 1 << 20
	r2 := rec("parallel-3-seq-read", "", fiofmt.OpRead)
	r2.BlockSize, r2.BlockSizeBytes = "4k", 4 << 10
	r3 := rec("parallel-6-rand-write", "", fiofmt.OpWrite)
	r3.BlockSize, r3.BlockSizeBytes = "4k", 4 << 10
	b.Add(r1)
	b.Add(r2)
	b.Add(r3)

	tab := b.Table()
	require.Equal(t, []string{"parallel-3-seq-read", "parallel-6-rand-write"}, tab.Tasks())
	require.Equal(t, []string{"4k", "1M"}, tab.BlockSizes())
	require.Len(t, tab.FilterTask("parallel-6-rand-write"), 2)
}
