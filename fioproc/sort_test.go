// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fioproc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDegree(t *testing.T) {
	require.Equal(t, 6, Degree("parallel-6-rand-write"))
	require.Equal(t, 12, Degree("Parallel-12-seq-read-20250101T000000Z"))
	require.Equal(t, 0, Degree("nightly-seq-read"))
}

func TestSortTasks(t *testing.T) {
	tasks := []string{
		"custom-run",
		"parallel-15-seq-read",
		"parallel-7-rand-write",
		"parallel-3-rand-write",
		"parallel-4-seq-read",
		"parallel-9-seq-read",
	}
	SortTasks(tasks)
	require.Equal(t, []string{
		// Canonical degrees first, in canonical order.
		"parallel-3-rand-write",
		"parallel-9-seq-read",
		"parallel-15-seq-read",
		// Then the rest by degree, degree-less names last.
		"parallel-4-seq-read",
		"parallel-7-rand-write",
		"custom-run",
	}, tasks)
}

func TestSortTasksDegreelessLast(t *testing.T) {
	tasks := []string{"zz-custom", "parallel-20-x-y", "parallel-3-x-y"}
	SortTasks(tasks)
	require.Equal(t, []string{"parallel-3-x-y", "parallel-20-x-y", "zz-custom"}, tasks)
}

func TestTaskLessTieBreak(t *testing.T) {
	require.True(t, TaskLess("parallel-6-rand-read", "parallel-6-rand-write"))
	require.False(t, TaskLess("parallel-6-rand-write", "parallel-6-rand-read"))
}

func TestTrimTimestampSuffix(t *testing.T) {
	require.Equal(t, "parallel-6-rand-write",
		TrimTimestampSuffix("parallel-6-rand-write-20250102T030405Z"))
	require.Equal(t, "parallel-6-rand-write",
		TrimTimestampSuffix("parallel-6-rand-write"))
	// Only a trailing suffix is removed.
	require.Equal(t, "run-20250102T030405Z-retry",
		TrimTimestampSuffix("run-20250102T030405Z-retry"))
}
