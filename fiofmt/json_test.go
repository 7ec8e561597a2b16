// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiofmt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// decode parses a JSON literal into the map form ExtractJSON takes.
func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &doc))
	return doc
}

func TestExtractJSONBasic(t *testing.T) {
	doc := decode(t, `{
		"jobs": [{
			"jobname": "randread-4k",
			"job options": {
				"rw": "randread", "bs": "4k",
				"iodepth": "16", "numjobs": "4", "size": "4G"
			},
			"runtime": 30000,
			"read": {
				"iops": 12345.5,
				"bw": 49382,
				"total_ios": 370365,
				"clat_ns": {
					"mean": 1250000,
					"percentile": {
						"50.000000": 1000000,
						"95.000000": 2000000,
						"99.000000": 3000000
					}
				}
			}
		}]
	}`)

	id := Identity{Task: "parallel-3-seq-read", Runner: "fio-runner-a1",
		Timestamp: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}
	recs, err := ExtractJSON(doc, "/results/parallel-3-seq-read/fio-runner-a1/out.json", id)
	require.NoError(t, err)
	require.Len(t, recs, 1)

	r := recs[0]
	require.Equal(t, "out.json", r.SourceFile)
	require.Equal(t, "parallel-3-seq-read", r.Task)
	require.Equal(t, "fio-runner-a1", r.Runner)
	require.Equal(t, OpRead, r.Op)
	require.Equal(t, "randread-4k", r.JobName)
	require.Equal(t, "randread", r.RWMode)
	require.Equal(t, Random, r.AccessPattern)
	require.Equal(t, "4k", r.BlockSize)
	require.Equal(t, int64(4096), r.BlockSizeBytes)
	require.Equal(t, 16, r.IODepth)
	require.Equal(t, 4, r.NumJobs)
	require.Equal(t, int64(4)<<30, r.SizeBytes)
	require.InDelta(t, 30.0, r.RuntimeSec, 1e-9) // 30000 ms
	require.InDelta(t, 12345.5, r.IOPS, 1e-9)
	require.InDelta(t, 49382*1024.0/1e6, r.BandwidthMBps, 1e-9)
	require.InDelta(t, 370365, r.TotalIOs, 1e-9)
	require.InDelta(t, 1.25, r.LatMeanMs, 1e-9)
	require.InDelta(t, 1.0, r.LatP50Ms, 1e-9)
	require.InDelta(t, 2.0, r.LatP95Ms, 1e-9)
	require.InDelta(t, 3.0, r.LatP99Ms, 1e-9)
}

func TestExtractJSONBothDirections(t *testing.T) {
	doc := decode(t, `{
		"jobs": [{
			"read":  {"iops": 100},
			"write": {"iops": 200}
		}]
	}`)
	recs, err := ExtractJSON(doc, "mix.json", Identity{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, OpRead, recs[0].Op)
	require.Equal(t, OpWrite, recs[1].Op)
	require.InDelta(t, 100, recs[0].IOPS, 1e-9)
	require.InDelta(t, 200, recs[1].IOPS, 1e-9)
	// Absent metrics stay absent, never zero.
	require.True(t, IsMissing(recs[0].BandwidthMBps))
	require.True(t, IsMissing(recs[0].LatMeanMs))
}

func TestExtractJSONLatencyCascade(t *testing.T) {
	// clat_us outranked by clat_ns; generic clat is microseconds.
	doc := decode(t, `{
		"jobs": [
			{"read": {"clat_us": {"mean": 1500}}},
			{"read": {"clat": {"mean": 1500}}},
			{"read": {"lat_ns": {"mean": 1500000}}}
		]
	}`)
	recs, err := ExtractJSON(doc, "lat.json", Identity{})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, r := range recs {
		require.InDelta(t, 1.5, r.LatMeanMs, 1e-9)
	}
}

func TestExtractJSONNoMixedBases(t *testing.T) {
	// Both clat_ns and clat_us present: mean and percentiles must both
	// come from clat_ns. If the percentile were read from clat_us the
	// p99 would come out 1000x off.
	doc := decode(t, `{
		"jobs": [{
			"read": {
				"clat_ns": {
					"mean": 2000000,
					"percentile": {"99.000000": 4000000}
				},
				"clat_us": {
					"mean": 2000,
					"percentile": {"99.000000": 4000}
				}
			}
		}]
	}`)
	recs, err := ExtractJSON(doc, "mixed.json", Identity{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.InDelta(t, 2.0, recs[0].LatMeanMs, 1e-9)
	require.InDelta(t, 4.0, recs[0].LatP99Ms, 1e-9)
}

func TestExtractJSONMeanlessContainerSkipped(t *testing.T) {
	// clat_ns exists but has no mean; the mean cascade moves on to
	// clat_us, and the percentiles follow the container that supplied
	// the mean rather than the meanless one.
	doc := decode(t, `{
		"jobs": [{
			"read": {
				"clat_ns": {"percentile": {"99.000000": 9000000}},
				"clat_us": {"mean": 1500, "percentile": {"99.000000": 3000}}
			}
		}]
	}`)
	recs, err := ExtractJSON(doc, "meanless.json", Identity{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.InDelta(t, 1.5, recs[0].LatMeanMs, 1e-9)
	require.InDelta(t, 3.0, recs[0].LatP99Ms, 1e-9)
}

func TestExtractJSONRuntimeHeuristic(t *testing.T) {
	// Values above 1000 are milliseconds; small values are seconds.
	doc := decode(t, `{
		"jobs": [
			{"runtime": 60, "read": {"iops": 1}},
			{"runtime": 60000, "read": {"iops": 1}}
		]
	}`)
	recs, err := ExtractJSON(doc, "rt.json", Identity{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.InDelta(t, 60.0, recs[0].RuntimeSec, 1e-9)
	require.InDelta(t, 60.0, recs[1].RuntimeSec, 1e-9)
}

func TestExtractJSONGlobalRuntimeFallback(t *testing.T) {
	doc := decode(t, `{
		"global options": {"runtime": "30"},
		"jobs": [{"read": {"iops": 1}}]
	}`)
	recs, err := ExtractJSON(doc, "global.json", Identity{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.InDelta(t, 30.0, recs[0].RuntimeSec, 1e-9)
}

func TestExtractJSONMalformedSiblingsIsolated(t *testing.T) {
	// A garbage job and a garbage direction must not take their
	// siblings down with them.
	doc := decode(t, `{
		"jobs": [
			"not a job",
			{"read": "not a direction", "write": {"iops": 50}},
			{"read": {"iops": 75}}
		]
	}`)
	recs, err := ExtractJSON(doc, "mangled.json", Identity{})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, OpWrite, recs[0].Op)
	require.InDelta(t, 50, recs[0].IOPS, 1e-9)
	require.Equal(t, OpRead, recs[1].Op)
	require.InDelta(t, 75, recs[1].IOPS, 1e-9)
}

func TestExtractJSONNotFio(t *testing.T) {
	_, err := ExtractJSON(decode(t, `{"results": []}`), "other.json", Identity{})
	require.ErrorIs(t, err, ErrNotFioJSON)
}

func TestExtractJSONZeroIsAValue(t *testing.T) {
	doc := decode(t, `{"jobs": [{"write": {"iops": 0}}]}`)
	recs, err := ExtractJSON(doc, "zero.json", Identity{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.False(t, IsMissing(recs[0].IOPS))
	require.Equal(t, 0.0, recs[0].IOPS)
}
