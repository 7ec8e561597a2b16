// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiotab

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perftools/fiostat/fiofmt"
)

func TestTableToCSV(t *testing.T) {
	var b Builder
	r := rec("parallel-6-rand-write", "fio-runner-a", fiofmt.OpWrite)
	r.SourceFile = "parallel-6-rand-write/fio-runner-a/result.json"
	r.Timestamp = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	r.JobName = "job0"
	r.RWMode = "randwrite"
	r.AccessPattern = fiofmt.Random
	r.BlockSize, r.BlockSizeBytes = "4k", 4096
	r.IODepth, r.NumJobs = 16, 4
	r.RuntimeSec = 30
	r.IOPS, r.BandwidthMBps = 1250.5, 5.12
	r.LatMeanMs = 0.8
	r.TotalIOs = 37515
	b.Add(r)

	var buf bytes.Buffer
	require.NoError(t, b.Table().ToCSV(&buf))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, Columns, recs[0])

	row := recs[1]
	require.Len(t, row, len(Columns))
	get := func(col string) string {
		for i, c := range Columns {
			if c == col {
				return row[i]
			}
		}
		t.Fatalf("no column %q", col)
		return ""
	}
	require.Equal(t, "2025-01-02T03:04:05Z", get("timestamp"))
	require.Equal(t, "randwrite", get("rw"))
	require.Equal(t, "4096", get("bs_bytes"))
	require.Equal(t, "1250.5", get("iops"))
	require.Equal(t, "0.8", get("lat_mean_ms"))
	// Metrics never reported render as empty cells.
	require.Equal(t, "", get("clat_p99_ms"))
	require.Equal(t, "", get("size_bytes"))
}

func TestAggregatesToCSV(t *testing.T) {
	var b Builder
	r := rec("parallel-3-seq-read", "fio-runner-a", fiofmt.OpRead)
	r.BlockSize, r.BlockSizeBytes, r.IOPS = "4k", 4096, 100
	b.Add(r)

	var buf bytes.Buffer
	agg := Aggregate(b.Table(), ByTaskBlockSize)
	require.NoError(t, agg.ToCSV(&buf))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, AggregateColumns(ByTaskBlockSize), recs[0])
	require.Equal(t, "parallel-3-seq-read", recs[1][0])
	require.Equal(t, "4k", recs[1][1])
	require.Equal(t, "unknown", recs[1][2])
}

func TestTableToText(t *testing.T) {
	var b Builder
	r := rec("parallel-3-seq-read", "", fiofmt.OpRead)
	r.IOPS = 100
	b.Add(r)

	var buf bytes.Buffer
	b.Table().ToText(&buf)
	out := buf.String()
	require.Contains(t, out, "iops")
	require.Contains(t, out, "100")
	// Absent cells render as a dash, not as zero.
	require.True(t, strings.Contains(out, "-"))
}
