// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fioproc

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestResolveDefaults(t *testing.T) {
	rs := DefaultRules()
	id := rs.Resolve("parallel-6-rand-write-20250102T030405Z/fio-runner-a1b2/result.json")

	require.Equal(t, "parallel-6-rand-write-20250102T030405Z", id.Task)
	require.Equal(t, "fio-runner-a1b2", id.Runner)
	require.Equal(t, time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC), id.Timestamp)
}

func TestResolveFallbackTask(t *testing.T) {
	rs := DefaultRules()

	// An unrecognized leading segment still names the task.
	id := rs.Resolve("nightly-seq-read/host-17/out.json")
	require.Equal(t, "nightly-seq-read", id.Task)
	require.Empty(t, id.Runner)
	require.True(t, id.Timestamp.IsZero())

	// A lone filename carries no task information.
	id = rs.Resolve("out.json")
	require.Empty(t, id.Task)
}

func TestResolveTimestampAnywhere(t *testing.T) {
	rs := DefaultRules()
	id := rs.Resolve("runs/fio-20250630T120000Z.json")
	require.Equal(t, time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC), id.Timestamp)
}

func TestResolveBackslashPaths(t *testing.T) {
	rs := DefaultRules()
	id := rs.Resolve(`parallel-3-seq-read\fio-runner-x\r.json`)
	require.Equal(t, "parallel-3-seq-read", id.Task)
	require.Equal(t, "fio-runner-x", id.Runner)
}

func TestParseRulesOverride(t *testing.T) {
	rs, err := ParseRules([]byte(`
task:
  - pattern: '^job_(\w+)$'
timestamp:
  - pattern: '(\d{4}-\d{2}-\d{2})'
    layout: "2006-01-02"
`))
	require.NoError(t, err)

	id := rs.Resolve("job_randread/fio-runner-7/2025-03-04.json")
	require.Equal(t, "randread", id.Task)
	// Runner rules were not overridden and keep their defaults.
	require.Equal(t, "fio-runner-7", id.Runner)
	require.Equal(t, time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), id.Timestamp)
}

func TestParseRulesBadPattern(t *testing.T) {
	_, err := ParseRules([]byte("runner:\n  - pattern: '('\n"))
	require.Error(t, err)
}

func TestRuleWholeMatchWithoutGroup(t *testing.T) {
	r := Rule{Pattern: mustCompile(t, `fio-runner-\w+`)}
	v, ok := r.extract("x-fio-runner-abc-y")
	require.True(t, ok)
	require.Equal(t, "fio-runner-abc", v)
}

func mustCompile(t *testing.T, expr string) *regexp.Regexp {
	t.Helper()
	re, err := regexp.Compile(expr)
	require.NoError(t, err)
	return re
}
