// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiotab

import (
	"math"
	"sort"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/aclements/go-moremath/stats"

	"github.com/perftools/fiostat/fiofmt"
	"github.com/perftools/fiostat/fioproc"
)

// A Grouping selects the key an aggregate view is computed over.
type Grouping int

const (
	// ByTask groups all rows of one task together.
	ByTask Grouping = iota
	// ByTaskBlockSize groups by task and block size.
	ByTaskBlockSize
	// ByTaskRunner groups by task and runner.
	ByTaskRunner
)

func (g Grouping) String() string {
	switch g {
	case ByTask:
		return "task"
	case ByTaskBlockSize:
		return "task,bs"
	case ByTaskRunner:
		return "task,runner"
	}
	return "unknown"
}

// An AggregateRow is one group's summary.
//
// Both metric families are normalized in two steps so repeated
// attempts by one runner are not double counted: attempt values are
// averaged within each runner first. Per-runner throughput averages
// are then summed across runners; per-runner latency averages are
// averaged across runners, because latency does not add up with
// parallelism. Absent throughput aggregates are 0; absent latency
// stays NaN. TotalIOs is the raw sum over all rows, attempts
// included.
type AggregateRow struct {
	Task      string
	BlockSize string // set for ByTaskBlockSize
	Runner    string // set for ByTaskRunner

	// AccessPattern is the group's workload classification when the
	// group is uniform, PatternUnknown when its rows disagree.
	AccessPattern fiofmt.AccessPattern

	ReadIOPS           float64
	WriteIOPS          float64
	TotalIOPS          float64
	ReadBandwidthMBps  float64
	WriteBandwidthMBps float64
	TotalBandwidthMBps float64

	LatMeanMs float64
	LatP50Ms  float64
	LatP95Ms  float64
	LatP99Ms  float64

	// LatMeanWeightedMs is an additional statistic beside LatMeanMs:
	// the mean latency with each runner weighted by its completed
	// I/O count, so a runner that barely ran does not pull the group
	// mean as hard as a runner that completed the workload.
	LatMeanWeightedMs float64

	// LatencySpreadMs is the spread between the smallest and largest
	// per-attempt mean latency, a stability signal across repeated
	// runs. NaN below two attempts.
	LatencySpreadMs float64

	TotalIOs float64

	// RunsCount is the number of distinct runners in the group, or
	// the number of distinct source files when no runner naming was
	// resolved, or the plain row count as a last resort.
	RunsCount int

	PerRunnerIOPS          float64
	PerRunnerBandwidthMBps float64
}

// Aggregates is one aggregate view over a table.
type Aggregates struct {
	Grouping Grouping
	Rows     []*AggregateRow
}

// Aggregate computes the aggregate view of t under grouping g. Rows
// come back in canonical task order, then by block size and runner.
func Aggregate(t *Table, g Grouping) *Aggregates {
	// Whether runner naming resolved anywhere is decided over the
	// whole table, not per group; it controls how RunsCount falls
	// back when a group has no named runner.
	runnerKnown := false
	for _, r := range t.Rows {
		if r.Runner != "" {
			runnerKnown = true
			break
		}
	}

	type groupKey struct {
		task, bs, runner string
	}
	groups := make(map[groupKey][]*fiofmt.Record)
	var order []groupKey
	bsBytes := make(map[string]int64)
	for _, r := range t.Rows {
		k := groupKey{task: r.Task}
		switch g {
		case ByTaskBlockSize:
			k.bs = r.BlockSize
			bsBytes[r.BlockSize] = r.BlockSizeBytes
		case ByTaskRunner:
			k.runner = r.Runner
		}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.task != b.task {
			return fioproc.TaskLess(a.task, b.task)
		}
		if a.bs != b.bs {
			if ab, bb := bsBytes[a.bs], bsBytes[b.bs]; ab != bb {
				return ab < bb
			}
			return a.bs < b.bs
		}
		return a.runner < b.runner
	})

	agg := &Aggregates{Grouping: g}
	for _, k := range order {
		row := summarize(groups[k], runnerKnown)
		row.Task, row.BlockSize, row.Runner = k.task, k.bs, k.runner
		agg.Rows = append(agg.Rows, row)
	}
	return agg
}

func summarize(rows []*fiofmt.Record, runnerKnown bool) *AggregateRow {
	a := &AggregateRow{
		AccessPattern:     groupPattern(rows),
		LatMeanMs:         math.NaN(),
		LatP50Ms:          math.NaN(),
		LatP95Ms:          math.NaN(),
		LatP99Ms:          math.NaN(),
		LatMeanWeightedMs: math.NaN(),
		LatencySpreadMs:   math.NaN(),
	}

	byOp := func(op fiofmt.Op) []*fiofmt.Record {
		var out []*fiofmt.Record
		for _, r := range rows {
			if r.Op == op {
				out = append(out, r)
			}
		}
		return out
	}
	reads, writes := byOp(fiofmt.OpRead), byOp(fiofmt.OpWrite)

	a.ReadIOPS = throughput(reads, func(r *fiofmt.Record) float64 { return r.IOPS })
	a.WriteIOPS = throughput(writes, func(r *fiofmt.Record) float64 { return r.IOPS })
	a.ReadBandwidthMBps = throughput(reads, func(r *fiofmt.Record) float64 { return r.BandwidthMBps })
	a.WriteBandwidthMBps = throughput(writes, func(r *fiofmt.Record) float64 { return r.BandwidthMBps })
	a.TotalIOPS = a.ReadIOPS + a.WriteIOPS
	a.TotalBandwidthMBps = a.ReadBandwidthMBps + a.WriteBandwidthMBps

	a.LatMeanMs = latency(rows, func(r *fiofmt.Record) float64 { return r.LatMeanMs })
	a.LatP50Ms = latency(rows, func(r *fiofmt.Record) float64 { return r.LatP50Ms })
	a.LatP95Ms = latency(rows, func(r *fiofmt.Record) float64 { return r.LatP95Ms })
	a.LatP99Ms = latency(rows, func(r *fiofmt.Record) float64 { return r.LatP99Ms })
	a.LatMeanWeightedMs = weightedLatency(rows, func(r *fiofmt.Record) float64 { return r.LatMeanMs })
	a.LatencySpreadMs = latencySpread(rows)

	for _, r := range rows {
		if !fiofmt.IsMissing(r.TotalIOs) {
			a.TotalIOs += r.TotalIOs
		}
	}

	a.RunsCount = runsCount(rows, runnerKnown)
	if a.RunsCount > 0 {
		a.PerRunnerIOPS = a.TotalIOPS / float64(a.RunsCount)
		a.PerRunnerBandwidthMBps = a.TotalBandwidthMBps / float64(a.RunsCount)
	}
	return a
}

func groupPattern(rows []*fiofmt.Record) fiofmt.AccessPattern {
	p := fiofmt.PatternUnknown
	for _, r := range rows {
		if r.AccessPattern == fiofmt.PatternUnknown {
			continue
		}
		if p != fiofmt.PatternUnknown && p != r.AccessPattern {
			return fiofmt.PatternUnknown
		}
		p = r.AccessPattern
	}
	return p
}

// perRunnerMeans computes the mean of a metric over each runner's
// attempts, in first-seen runner order. Rows without a resolved
// runner share one bucket, so a table with no runner naming at all
// collapses to a single plain mean. Rows missing the metric are
// skipped.
func perRunnerMeans(rows []*fiofmt.Record, metric func(*fiofmt.Record) float64) []float64 {
	perRunner := make(map[string]*stats.Sample)
	var runners []string
	for _, r := range rows {
		v := metric(r)
		if fiofmt.IsMissing(v) {
			continue
		}
		s, ok := perRunner[r.Runner]
		if !ok {
			s = new(stats.Sample)
			perRunner[r.Runner] = s
			runners = append(runners, r.Runner)
		}
		s.Xs = append(s.Xs, v)
	}
	means := make([]float64, 0, len(runners))
	for _, runner := range runners {
		means = append(means, perRunner[runner].Mean())
	}
	return means
}

// throughput is the two-step normalization: mean over each runner's
// attempts, then sum over runners. Groups with no reported values
// aggregate to 0.
func throughput(rows []*fiofmt.Record, metric func(*fiofmt.Record) float64) float64 {
	total := 0.0
	for _, m := range perRunnerMeans(rows, metric) {
		total += m
	}
	return total
}

// latency is the two-step normalization for latency metrics: mean
// over each runner's attempts, then mean over the per-runner means.
// Latency does not sum across parallel runners.
func latency(rows []*fiofmt.Record, metric func(*fiofmt.Record) float64) float64 {
	means := perRunnerMeans(rows, metric)
	if len(means) == 0 {
		return math.NaN()
	}
	s := stats.Sample{Xs: means}
	return s.Mean()
}

// weightedLatency is the two-step mean with each runner weighted by
// its completed I/O count, at both steps: attempts within a runner
// by their own counts, runners within the group by their summed
// counts. Attempts and runners without a count weigh 1.
func weightedLatency(rows []*fiofmt.Record, metric func(*fiofmt.Record) float64) float64 {
	type acc struct {
		s   stats.Sample
		ios float64
	}
	perRunner := make(map[string]*acc)
	var runners []string
	for _, r := range rows {
		v := metric(r)
		if fiofmt.IsMissing(v) {
			continue
		}
		a, ok := perRunner[r.Runner]
		if !ok {
			a = new(acc)
			perRunner[r.Runner] = a
			runners = append(runners, r.Runner)
		}
		w := 1.0
		if !fiofmt.IsMissing(r.TotalIOs) && r.TotalIOs > 0 {
			w = r.TotalIOs
			a.ios += r.TotalIOs
		}
		a.s.Xs = append(a.s.Xs, v)
		a.s.Weights = append(a.s.Weights, w)
	}
	if len(runners) == 0 {
		return math.NaN()
	}
	var outer stats.Sample
	for _, runner := range runners {
		a := perRunner[runner]
		w := a.ios
		if w <= 0 {
			w = 1
		}
		outer.Xs = append(outer.Xs, a.s.Mean())
		outer.Weights = append(outer.Weights, w)
	}
	return outer.Mean()
}

// latencySpread records each attempt's mean latency, in whole
// microseconds, and reports the min-to-max spread in milliseconds.
func latencySpread(rows []*fiofmt.Record) float64 {
	h := hdrhistogram.New(1, int64(time1hUs), 3)
	n := 0
	for _, r := range rows {
		if fiofmt.IsMissing(r.LatMeanMs) {
			continue
		}
		us := int64(r.LatMeanMs * 1000)
		if us < 1 {
			us = 1
		}
		if err := h.RecordValue(us); err != nil {
			continue
		}
		n++
	}
	if n < 2 {
		return math.NaN()
	}
	return float64(h.Max()-h.Min()) / 1000
}

// time1hUs bounds the spread histogram; a single mean above an hour
// is clamped by RecordValue and dropped.
const time1hUs = 3600 * 1000 * 1000

func runsCount(rows []*fiofmt.Record, runnerKnown bool) int {
	distinct := func(key func(*fiofmt.Record) string) int {
		seen := make(map[string]bool)
		for _, r := range rows {
			if k := key(r); k != "" {
				seen[k] = true
			}
		}
		return len(seen)
	}
	if runnerKnown {
		if n := distinct(func(r *fiofmt.Record) string { return r.Runner }); n > 0 {
			return n
		}
	}
	if n := distinct(func(r *fiofmt.Record) string { return r.SourceFile }); n > 0 {
		return n
	}
	return len(rows)
}
