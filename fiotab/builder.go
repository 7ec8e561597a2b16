// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fiotab assembles extracted records into the canonical
// metric table and computes aggregate views over it.
//
// The canonical table is the single flat surface downstream sinks
// consume: one row per (file, job, direction) observation, fixed
// column set, deterministic order. Aggregation never mutates the
// table; each view is derived fresh from the rows.
package fiotab

import (
	"sort"

	"github.com/perftools/fiostat/fiofmt"
	"github.com/perftools/fiostat/fioproc"
)

// A Builder accumulates extracted records and produces the canonical
// table. The zero value is ready to use.
type Builder struct {
	rows []*fiofmt.Record
}

// Add appends a record to the table under construction. The builder
// keeps the pointer; callers that reuse records must clone first.
func (b *Builder) Add(r *fiofmt.Record) {
	b.rows = append(b.rows, r)
}

// Len reports the number of records added so far.
func (b *Builder) Len() int { return len(b.rows) }

// Table returns the canonical table: all added rows in canonical
// order. Order is by task (canonical task order), then runner,
// timestamp, block size, queue depth, source file, job name, and
// direction, so repeated builds over the same inputs are
// byte-identical downstream.
func (b *Builder) Table() *Table {
	rows := make([]*fiofmt.Record, len(b.rows))
	copy(rows, b.rows)
	sort.SliceStable(rows, func(i, j int) bool {
		a, c := rows[i], rows[j]
		if a.Task != c.Task {
			return fioproc.TaskLess(a.Task, c.Task)
		}
		if a.Runner != c.Runner {
			return a.Runner < c.Runner
		}
		if !a.Timestamp.Equal(c.Timestamp) {
			return a.Timestamp.Before(c.Timestamp)
		}
		if a.BlockSizeBytes != c.BlockSizeBytes {
			return a.BlockSizeBytes < c.BlockSizeBytes
		}
		if a.IODepth != c.IODepth {
			return a.IODepth < c.IODepth
		}
		if a.SourceFile != c.SourceFile {
			return a.SourceFile < c.SourceFile
		}
		if a.JobName != c.JobName {
			return a.JobName < c.JobName
		}
		return a.Op < c.Op
	})
	return &Table{Rows: rows}
}

// A Table is the canonical metric table.
type Table struct {
	Rows []*fiofmt.Record
}

// Tasks returns the distinct task names in the table, in canonical
// task order.
func (t *Table) Tasks() []string {
	seen := make(map[string]bool)
	var tasks []string
	for _, r := range t.Rows {
		if r.Task != "" && !seen[r.Task] {
			seen[r.Task] = true
			tasks = append(tasks, r.Task)
		}
	}
	fioproc.SortTasks(tasks)
	return tasks
}

// BlockSizes returns the distinct block sizes in the table, ordered
// by byte count. Sizes that never parsed keep their raw spelling and
// sort first.
func (t *Table) BlockSizes() []string {
	type bs struct {
		label string
		bytes int64
	}
	seen := make(map[string]bool)
	var sizes []bs
	for _, r := range t.Rows {
		if r.BlockSize != "" && !seen[r.BlockSize] {
			seen[r.BlockSize] = true
			sizes = append(sizes, bs{r.BlockSize, r.BlockSizeBytes})
		}
	}
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i].bytes != sizes[j].bytes {
			return sizes[i].bytes < sizes[j].bytes
		}
		return sizes[i].label < sizes[j].label
	})
	labels := make([]string, len(sizes))
	for i, s := range sizes {
		labels[i] = s.label
	}
	return labels
}

// FilterTask returns the rows belonging to one task, preserving
// table order.
func (t *Table) FilterTask(task string) []*fiofmt.Record {
	var rows []*fiofmt.Record
	for _, r := range t.Rows {
		if r.Task == task {
			rows = append(rows, r)
		}
	}
	return rows
}
