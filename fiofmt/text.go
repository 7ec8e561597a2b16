// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiofmt

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/perftools/fiostat/fiounit"
)

// The text grammar: three independent scans over raw console output.
// Each pattern is deliberately loose; console output varies even more
// than JSON output does.
var (
	// Workload metadata. fio may put rw=, bs=, and iodepth= on one
	// line or spread them over several, so the scan crosses newlines.
	textMetaRe = regexp.MustCompile(`(?is)\brw=(\w+).*?bs=(\S+)\b.*?(?:iodepth|iodepth_batch)=(\d+)`)

	// First average completion-or-submission latency. The unit token
	// lives in the parentheses ("clat (usec): ... avg=120.5").
	textLatRe = regexp.MustCompile(`(?is)\b(?:clat|lat)\s*\(\s*(n?sec|usec|msec|ms|us|ns)\s*\)\s*:.*?avg\s*=\s*([\d.]+)`)

	// Per-direction throughput lines: "read: IOPS=..., BW=... (unit)".
	textIOPSRe = regexp.MustCompile(`(?i)(read|write):.*?IOPS\s*=\s*([\d.]+)\s*,\s*BW\s*=\s*([\d.]+)\s*((?:[KMG]i?)?B/s)`)
)

// ExtractText recovers canonical metric records from unstructured fio
// console output on a best-effort basis. It is applied only when
// structured parsing fails entirely.
//
// The three scans are order-independent: workload metadata and the
// first average latency are recovered once and attached to every
// direction row found by the throughput scan. If throughput lines are
// absent but a latency was found, ExtractText emits exactly one
// degraded row with Op=OpUnknown carrying the latency. With no signal
// at all it contributes nothing.
func ExtractText(text string, sourcePath string, id Identity) []*Record {
	src := filepath.Base(sourcePath)

	var rw, bs string
	var iodepth int
	if m := textMetaRe.FindStringSubmatch(text); m != nil {
		rw, bs = m[1], m[2]
		if d, err := strconv.Atoi(m[3]); err == nil {
			iodepth = d
		}
	}

	latMs := missing()
	if m := textLatRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			if ms, ok := fiounit.ParseLatency(v, m[1]); ok {
				latMs = ms
			}
		}
	}

	base := func(op Op) *Record {
		r := newRecord(src, id)
		r.Op = op
		r.RWMode = rw
		r.AccessPattern = PatternOf(rw)
		r.BlockSize = bs
		if n, ok := fiounit.ParseBlockSize(bs); ok {
			r.BlockSizeBytes = n
		}
		r.IODepth = iodepth
		r.LatMeanMs = latMs
		return r
	}

	var recs []*Record
	for _, m := range textIOPSRe.FindAllStringSubmatch(text, -1) {
		r := base(Op(strings.ToLower(m[1])))
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			r.IOPS = v
		}
		if v, err := strconv.ParseFloat(m[3], 64); err == nil {
			if mbps, ok := fiounit.ParseBandwidth(v, m[4]); ok {
				r.BandwidthMBps = mbps
			}
		}
		recs = append(recs, r)
	}

	if len(recs) == 0 && !IsMissing(latMs) {
		recs = append(recs, base(OpUnknown))
	}
	return recs
}
