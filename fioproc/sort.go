// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fioproc

import (
	"math"
	"regexp"
	"sort"
	"strconv"
)

// canonicalDegrees is the display order of parallelism degrees in
// reports. Tasks with a recognized degree sort in this order; all
// others come after.
var canonicalDegrees = []int{3, 6, 9, 12, 15}

var (
	degreeRe   = regexp.MustCompile(`(?i)parallel-(\d+)`)
	tsSuffixRe = regexp.MustCompile(`-20\d{6}T\d{6}Z$`)
)

// Degree reports the parallelism degree encoded in a task name, or
// 0 when the name encodes none.
func Degree(task string) int {
	m := degreeRe.FindStringSubmatch(task)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// canonicalRank maps a degree to its position in canonicalDegrees,
// or -1 for degrees outside the canonical list.
func canonicalRank(degree int) int {
	for i, d := range canonicalDegrees {
		if d == degree {
			return i
		}
	}
	return -1
}

// TaskLess is the canonical task ordering: tasks with a canonical
// degree first, in canonical order; then the rest by degree with
// degree-less names last, then by name. Equal-rank tasks tie-break
// by name so the order is total.
func TaskLess(a, b string) bool {
	ra, rb := canonicalRank(Degree(a)), canonicalRank(Degree(b))
	switch {
	case ra != -1 && rb != -1:
		if ra != rb {
			return ra < rb
		}
	case ra != -1:
		return true
	case rb != -1:
		return false
	default:
		if da, db := sortDegree(a), sortDegree(b); da != db {
			return da < db
		}
	}
	return a < b
}

// sortDegree maps a degree-less task past every numbered one.
func sortDegree(task string) int {
	if d := Degree(task); d != 0 {
		return d
	}
	return math.MaxInt
}

// SortTasks sorts task names in place into canonical order.
func SortTasks(tasks []string) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return TaskLess(tasks[i], tasks[j])
	})
}

// TrimTimestampSuffix removes a trailing -YYYYMMDDThhmmssZ from a
// task name, collapsing repeated runs of one task into one group.
// Names without the suffix pass through unchanged.
func TrimTimestampSuffix(task string) string {
	return tsSuffixRe.ReplaceAllString(task, "")
}
