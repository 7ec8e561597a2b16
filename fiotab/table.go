// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiotab

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"

	"github.com/perftools/fiostat/fiofmt"
)

// Columns is the canonical table's column set, in output order.
// Sinks that persist the table use these names verbatim.
var Columns = []string{
	"source_file", "task", "timestamp", "runner", "jobname",
	"op", "rw", "access_pattern", "bs", "bs_bytes",
	"iodepth", "numjobs", "runtime_s", "size_bytes",
	"iops", "bw_MBps",
	"lat_mean_ms", "clat_p50_ms", "clat_p95_ms", "clat_p99_ms",
	"total_ios",
}

// RowStrings renders one record as canonical-table cells, aligned
// with Columns. Absent values render empty.
func RowStrings(r *fiofmt.Record) []string {
	ts := ""
	if !r.Timestamp.IsZero() {
		ts = r.Timestamp.UTC().Format(time.RFC3339)
	}
	return []string{
		r.SourceFile, r.Task, ts, r.Runner, r.JobName,
		string(r.Op), r.RWMode, string(r.AccessPattern),
		r.BlockSize, formatInt(r.BlockSizeBytes),
		formatInt(int64(r.IODepth)), formatInt(int64(r.NumJobs)),
		formatFloat(r.RuntimeSec), formatInt(r.SizeBytes),
		formatFloat(r.IOPS), formatFloat(r.BandwidthMBps),
		formatFloat(r.LatMeanMs), formatFloat(r.LatP50Ms),
		formatFloat(r.LatP95Ms), formatFloat(r.LatP99Ms),
		formatFloat(r.TotalIOs),
	}
}

// ToCSV writes the table, header included, as CSV.
func (t *Table) ToCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, r := range t.Rows {
		if err := cw.Write(RowStrings(r)); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// ToText renders the table for terminal display.
func (t *Table) ToText(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(Columns)
	tw.SetAutoFormatHeaders(false)
	for _, r := range t.Rows {
		tw.Append(dashMissing(RowStrings(r)))
	}
	tw.Render()
}

// AggregateColumns returns the aggregate view's column set for
// grouping g; grouping key columns lead.
func AggregateColumns(g Grouping) []string {
	cols := []string{"task"}
	switch g {
	case ByTaskBlockSize:
		cols = append(cols, "bs")
	case ByTaskRunner:
		cols = append(cols, "runner")
	}
	return append(cols,
		"access_pattern",
		"read_iops", "write_iops", "total_iops",
		"read_bw_MBps", "write_bw_MBps", "total_bw_MBps",
		"lat_mean_ms", "clat_p50_ms", "clat_p95_ms", "clat_p99_ms",
		"lat_mean_weighted_ms", "lat_spread_ms",
		"total_ios", "runs",
		"iops_per_runner", "bw_MBps_per_runner",
	)
}

// RowStrings renders one aggregate row, aligned with
// AggregateColumns for the view's grouping.
func (a *Aggregates) RowStrings(r *AggregateRow) []string {
	cells := []string{r.Task}
	switch a.Grouping {
	case ByTaskBlockSize:
		cells = append(cells, r.BlockSize)
	case ByTaskRunner:
		cells = append(cells, r.Runner)
	}
	return append(cells,
		string(r.AccessPattern),
		formatFloat(r.ReadIOPS), formatFloat(r.WriteIOPS), formatFloat(r.TotalIOPS),
		formatFloat(r.ReadBandwidthMBps), formatFloat(r.WriteBandwidthMBps), formatFloat(r.TotalBandwidthMBps),
		formatFloat(r.LatMeanMs), formatFloat(r.LatP50Ms),
		formatFloat(r.LatP95Ms), formatFloat(r.LatP99Ms),
		formatFloat(r.LatMeanWeightedMs), formatFloat(r.LatencySpreadMs),
		formatFloat(r.TotalIOs), strconv.Itoa(r.RunsCount),
		formatFloat(r.PerRunnerIOPS), formatFloat(r.PerRunnerBandwidthMBps),
	)
}

// ToCSV writes the aggregate view, header included, as CSV.
func (a *Aggregates) ToCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(AggregateColumns(a.Grouping)); err != nil {
		return errors.Wrap(err, "writing csv header")
	}
	for _, r := range a.Rows {
		if err := cw.Write(a.RowStrings(r)); err != nil {
			return errors.Wrap(err, "writing csv row")
		}
	}
	cw.Flush()
	return errors.Wrap(cw.Error(), "flushing csv")
}

// ToText renders the aggregate view for terminal display.
func (a *Aggregates) ToText(w io.Writer) {
	tw := tablewriter.NewWriter(w)
	tw.SetHeader(AggregateColumns(a.Grouping))
	tw.SetAutoFormatHeaders(false)
	for _, r := range a.Rows {
		tw.Append(dashMissing(a.RowStrings(r)))
	}
	tw.Render()
}

func formatFloat(v float64) string {
	if fiofmt.IsMissing(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatInt(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func dashMissing(cells []string) []string {
	for i, c := range cells {
		if c == "" {
			cells[i] = "-"
		}
	}
	return cells
}
