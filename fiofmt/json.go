// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiofmt

import (
	"encoding/json"
	"math"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/perftools/fiostat/fiounit"
)

// ErrNotFioJSON reports that a document decoded as JSON but does not
// expose the top-level "jobs" list fio writes. Callers should fall
// back to text extraction on the raw content.
var ErrNotFioJSON = errors.New("document has no jobs list")

// A latencyContainer names one of the sub-mappings fio may report
// latency in, together with the conversion its unit basis implies.
type latencyContainer struct {
	key  string
	toMs func(float64) float64
}

// Completion-latency containers, in strict probe order. Newer fio
// versions key the container by unit; fio v2 used a bare "clat" in
// microseconds, so the generic container is treated as microseconds.
var completionLatency = []latencyContainer{
	{"clat_ns", fiounit.NsToMs},
	{"clat_us", fiounit.UsToMs},
	{"clat", fiounit.UsToMs},
}

// Submission/total-latency containers, probed only after every
// completion container has been ruled out for the mean.
var submissionLatency = []latencyContainer{
	{"lat_ns", fiounit.NsToMs},
	{"lat_us", fiounit.UsToMs},
	{"lat", fiounit.UsToMs},
}

// ExtractJSON extracts canonical metric records from a decoded fio
// JSON document: one Record per (job, direction) for each of the
// read/write direction sub-mappings present.
//
// A malformed job or direction sub-document is skipped for that job
// or direction only; siblings are still extracted. ExtractJSON
// returns ErrNotFioJSON when doc carries no jobs list at all.
func ExtractJSON(doc map[string]any, sourcePath string, id Identity) ([]*Record, error) {
	jobs, ok := doc["jobs"].([]any)
	if !ok {
		return nil, ErrNotFioJSON
	}
	src := filepath.Base(sourcePath)

	var recs []*Record
	for _, j := range jobs {
		job, ok := asMap(j)
		if !ok {
			continue
		}
		for _, op := range []Op{OpRead, OpWrite} {
			dir, ok := asMap(job[string(op)])
			if !ok {
				continue
			}
			r := newRecord(src, id)
			r.Op = op
			fillJobFields(r, job, doc)
			fillDirection(r, dir)
			recs = append(recs, r)
		}
	}
	return recs, nil
}

// fillJobFields populates the workload descriptors shared by every
// direction of a job.
func fillJobFields(r *Record, job, doc map[string]any) {
	r.JobName, _ = asString(job["jobname"])

	opts, _ := asMap(job["job options"])
	if rw, ok := asString(opts["rw"]); ok {
		r.RWMode = rw
	} else if rw, ok := asString(opts["readwrite"]); ok {
		r.RWMode = rw
	}
	r.AccessPattern = PatternOf(r.RWMode)
	r.BlockSize, _ = asString(opts["bs"])
	if bs, ok := fiounit.ParseBlockSize(r.BlockSize); ok {
		r.BlockSizeBytes = bs
	}
	if d, ok := asInt(opts["iodepth"]); ok {
		r.IODepth = int(d)
	}
	if n, ok := asInt(opts["numjobs"]); ok {
		r.NumJobs = int(n)
	}
	if sz, ok := asInt(opts["size"]); ok {
		r.SizeBytes = sz
	} else if s, ok := asString(opts["size"]); ok {
		if sz, ok := fiounit.ParseSize(s); ok {
			r.SizeBytes = sz
		}
	}

	rt, ok := asFloat(job["runtime"])
	if !ok {
		if global, gok := asMap(doc["global options"]); gok {
			rt, ok = asFloat(global["runtime"])
		}
	}
	if ok {
		// Some fio versions report runtime in milliseconds, others in
		// seconds, under the same key. Values above 1000 are taken as
		// milliseconds. This threshold is a documented contract; the
		// producing fio version is not observable from the output.
		if rt > 1000 {
			rt /= 1000
		}
		r.RuntimeSec = rt
	}
}

// fillDirection populates the measured metrics of one direction
// sub-mapping, applying the latency container cascade.
func fillDirection(r *Record, dir map[string]any) {
	if v, ok := asFloat(dir["iops"]); ok {
		r.IOPS = v
	}
	if v, ok := asFloat(dir["bw"]); ok {
		r.BandwidthMBps = fiounit.KiBpsToMBps(v)
	}
	if v, ok := asFloat(dir["total_ios"]); ok {
		r.TotalIOs = v
	}

	// Latency mean: first container that both exists and exposes a
	// mean wins. Completion containers outrank submission containers.
	mean, meanContainer := probeMean(dir, completionLatency)
	if meanContainer == "" {
		mean, _ = probeMean(dir, submissionLatency)
	}
	if !math.IsNaN(mean) {
		r.LatMeanMs = mean
	}

	// Percentiles come from the completion container the mean was
	// taken from, so mean and percentile never mix unit bases within
	// one row. When the mean came from a submission container (or is
	// absent), the first completion container present supplies them;
	// submission and completion are distinct measurement families, so
	// no mixing occurs there either.
	pct := containerByKey(completionLatency, meanContainer)
	if pct == nil {
		pct = firstPresent(dir, completionLatency)
	}
	if pct == nil {
		return
	}
	c, _ := asMap(dir[pct.key])
	pcts, ok := asMap(c["percentile"])
	if !ok {
		pcts, ok = asMap(c["percentiles"])
	}
	if !ok {
		return
	}
	if v, ok := Percentile(pcts, 50); ok {
		r.LatP50Ms = pct.toMs(v)
	}
	if v, ok := Percentile(pcts, 95); ok {
		r.LatP95Ms = pct.toMs(v)
	}
	if v, ok := Percentile(pcts, 99); ok {
		r.LatP99Ms = pct.toMs(v)
	}
}

// probeMean returns the converted mean of the first container in the
// list that exists and exposes a numeric mean, along with the
// container's key. Later containers are not consulted.
func probeMean(dir map[string]any, list []latencyContainer) (float64, string) {
	for _, lc := range list {
		c, ok := asMap(dir[lc.key])
		if !ok {
			continue
		}
		m, ok := asFloat(c["mean"])
		if !ok {
			continue
		}
		return lc.toMs(m), lc.key
	}
	return math.NaN(), ""
}

func containerByKey(list []latencyContainer, key string) *latencyContainer {
	for i := range list {
		if list[i].key == key {
			return &list[i]
		}
	}
	return nil
}

func firstPresent(dir map[string]any, list []latencyContainer) *latencyContainer {
	for i := range list {
		if _, ok := asMap(dir[list[i].key]); ok {
			return &list[i]
		}
	}
	return nil
}

// asMap, asFloat, asInt, and asString coerce decoded JSON values.
// fio's JSON nests maps of maps, and option values are strings even
// when numeric, so the coercions accept both native numbers and
// numeric strings.

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	}
	return 0, false
}

func asInt(v any) (int64, bool) {
	f, ok := asFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int64(f), true
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
