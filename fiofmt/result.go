// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fiofmt extracts canonical metric records from fio output.
//
// fio output is not a stable format. Field names, unit bases, and
// percentile key formats vary across fio versions and run
// configurations, and some captured outputs are plain console text
// with no structure at all. This package tolerates all of that: the
// structured extractor applies a unit-detection cascade across the
// field layouts fio has used, and the text extractor recovers the
// same canonical fields from console logs on a best-effort basis.
//
// The unit of output is Record: one row per (source record, I/O
// direction), with every quantity on a single canonical basis
// (milliseconds, decimal MB/s). Records are immutable once extracted.
package fiofmt

import (
	"math"
	"strings"
	"time"
)

// An Op identifies the I/O direction of a metric record.
type Op string

const (
	OpRead  Op = "read"
	OpWrite Op = "write"
	// OpUnknown marks a degraded record recovered from text that
	// carried a latency signal but no per-direction throughput.
	OpUnknown Op = "unknown"
)

// An AccessPattern classifies a workload's rw mode.
type AccessPattern string

const (
	Sequential     AccessPattern = "sequential"
	Random         AccessPattern = "random"
	PatternUnknown AccessPattern = "unknown"
)

// PatternOf classifies a raw fio rw mode string. Modes beginning with
// "rand" are random; the plain read/write/rw/readwrite modes are
// sequential; anything else is unknown.
func PatternOf(rw string) AccessPattern {
	switch l := strings.ToLower(rw); {
	case l == "":
		return PatternUnknown
	case strings.HasPrefix(l, "rand"):
		return Random
	case l == "read" || l == "write" || l == "rw" || l == "readwrite":
		return Sequential
	}
	return PatternUnknown
}

// An Identity carries the identifiers derived from a record's
// location under the scan root. Zero values mean the identifier could
// not be resolved; an unresolved identifier is never guessed.
type Identity struct {
	Task      string
	Runner    string
	Timestamp time.Time
}

// A Record is one canonical metric row: the results of one I/O
// direction of one benchmark job, with units normalized.
//
// Absence is explicit and is never conflated with a measured zero:
//
//   - Measured metrics (IOPS, BandwidthMBps, the latency fields,
//     TotalIOs, RuntimeSec) are float64 and use NaN for "absent".
//     Use IsMissing to test them.
//   - Structural descriptors that are >= 1 whenever fio reports them
//     (IODepth, NumJobs, BlockSizeBytes, SizeBytes) use 0 for
//     "absent".
//   - String identifiers use "" and Timestamp uses the zero time.
type Record struct {
	SourceFile string // base name of the originating file
	Task       string
	Timestamp  time.Time
	Runner     string
	JobName    string

	RWMode         string // raw rw mode as reported by fio
	AccessPattern  AccessPattern
	BlockSize      string // raw block-size string, e.g. "4k"
	BlockSizeBytes int64  // power-of-two expansion of BlockSize
	IODepth        int
	NumJobs        int
	RuntimeSec     float64
	SizeBytes      int64

	Op Op

	IOPS          float64
	BandwidthMBps float64 // decimal-MB basis
	LatMeanMs     float64
	LatP50Ms      float64
	LatP95Ms      float64
	LatP99Ms      float64
	TotalIOs      float64
}

// IsMissing reports whether a measured float metric is absent.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// missing is the absent value for measured float metrics.
func missing() float64 { return math.NaN() }

// newRecord returns a Record with every measured metric absent and
// the identifiers from id attached.
func newRecord(sourceFile string, id Identity) *Record {
	return &Record{
		SourceFile:    sourceFile,
		Task:          id.Task,
		Runner:        id.Runner,
		Timestamp:     id.Timestamp,
		AccessPattern: PatternUnknown,
		RuntimeSec:    missing(),
		IOPS:          missing(),
		BandwidthMBps: missing(),
		LatMeanMs:     missing(),
		LatP50Ms:      missing(),
		LatP95Ms:      missing(),
		LatP99Ms:      missing(),
		TotalIOs:      missing(),
	}
}

// Clone returns a copy of r. Records are immutable after extraction,
// so callers that want to mutate one (for example to normalize task
// names) should clone it first.
func (r *Record) Clone() *Record {
	r2 := *r
	return &r2
}
