// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/xuri/excelize/v2"

	"github.com/perftools/fiostat/fiofmt"
	"github.com/perftools/fiostat/fiotab"
)

// sheetRegistry hands out workbook-legal sheet names. Excel caps
// names at 31 characters and rejects : \ / ? * [ ], and names must
// be unique within the workbook; colliding names get a numeric
// suffix.
type sheetRegistry struct {
	used map[string]int
}

func newSheetRegistry() *sheetRegistry {
	return &sheetRegistry{used: make(map[string]int)}
}

const sheetNameMax = 31

var sheetNameCleaner = strings.NewReplacer(
	":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
)

func (sr *sheetRegistry) Name(raw string) string {
	name := sheetNameCleaner.Replace(raw)
	if name == "" {
		name = "sheet"
	}
	if len(name) > sheetNameMax {
		name = name[:sheetNameMax]
	}
	key := strings.ToLower(name)
	n := sr.used[key]
	sr.used[key] = n + 1
	if n == 0 {
		return name
	}
	suffix := fmt.Sprintf("~%d", n+1)
	if len(name)+len(suffix) > sheetNameMax {
		name = name[:sheetNameMax-len(suffix)]
	}
	return name + suffix
}

func writeWorkbook(opts *options, table *fiotab.Table, summary, byBS, byRunner *fiotab.Aggregates) error {
	f := excelize.NewFile()
	defer f.Close()
	reg := newSheetRegistry()

	if len(table.Rows) == 0 {
		name := reg.Name("summary")
		if err := f.SetSheetName("Sheet1", name); err != nil {
			return err
		}
		if err := f.SetCellValue(name, "A1", "no fio results found"); err != nil {
			return err
		}
		return f.SaveAs(opts.output)
	}

	first, err := writeAggSheet(f, reg.Name("summary"), summary)
	if err != nil {
		return err
	}
	if _, err := writeAggSheet(f, reg.Name("summary_detailed"), byBS); err != nil {
		return err
	}
	if _, err := writeAggSheet(f, reg.Name("summary_per_runner"), byRunner); err != nil {
		return err
	}
	// One sheet per block size, carrying the task-by-block-size
	// aggregate rows for that size.
	for _, bs := range table.BlockSizes() {
		sub := &fiotab.Aggregates{Grouping: byBS.Grouping}
		for _, r := range byBS.Rows {
			if r.BlockSize == bs {
				sub.Rows = append(sub.Rows, r)
			}
		}
		if _, err := writeAggSheet(f, reg.Name("bs_"+bs), sub); err != nil {
			return err
		}
	}
	if err := writeRecordSheet(f, reg.Name("records"), table.Rows); err != nil {
		return err
	}
	if opts.detailed {
		for _, task := range table.Tasks() {
			if err := writeTaskSheet(f, reg, table, byRunner, task); err != nil {
				return errors.Wrapf(err, "task sheet %q", task)
			}
		}
	}

	f.SetActiveSheet(first)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	return f.SaveAs(opts.output)
}

// cellValue maps absent measurements to empty cells rather than
// writing NaN text into the workbook.
func cellValue(v float64) interface{} {
	if fiofmt.IsMissing(v) {
		return nil
	}
	return v
}

func structuralCell(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func writeAggSheet(f *excelize.File, name string, agg *fiotab.Aggregates) (int, error) {
	idx, err := f.NewSheet(name)
	if err != nil {
		return 0, err
	}
	header := toCells(fiotab.AggregateColumns(agg.Grouping))
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return 0, err
	}
	for i, r := range agg.Rows {
		cells := []interface{}{r.Task}
		switch agg.Grouping {
		case fiotab.ByTaskBlockSize:
			cells = append(cells, r.BlockSize)
		case fiotab.ByTaskRunner:
			cells = append(cells, r.Runner)
		}
		cells = append(cells,
			string(r.AccessPattern),
			cellValue(r.ReadIOPS), cellValue(r.WriteIOPS), cellValue(r.TotalIOPS),
			cellValue(r.ReadBandwidthMBps), cellValue(r.WriteBandwidthMBps), cellValue(r.TotalBandwidthMBps),
			cellValue(r.LatMeanMs), cellValue(r.LatP50Ms), cellValue(r.LatP95Ms), cellValue(r.LatP99Ms),
			cellValue(r.LatMeanWeightedMs), cellValue(r.LatencySpreadMs),
			cellValue(r.TotalIOs), r.RunsCount,
			cellValue(r.PerRunnerIOPS), cellValue(r.PerRunnerBandwidthMBps),
		)
		anchor, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return 0, err
		}
		if err := f.SetSheetRow(name, anchor, &cells); err != nil {
			return 0, err
		}
	}
	return idx, nil
}

func writeRecordSheet(f *excelize.File, name string, rows []*fiofmt.Record) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}
	header := toCells(fiotab.Columns)
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}
	for i, r := range rows {
		var ts interface{}
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.UTC()
		}
		cells := []interface{}{
			r.SourceFile, r.Task, ts, r.Runner, r.JobName,
			string(r.Op), r.RWMode, string(r.AccessPattern),
			r.BlockSize, structuralCell(r.BlockSizeBytes),
			structuralCell(int64(r.IODepth)), structuralCell(int64(r.NumJobs)),
			cellValue(r.RuntimeSec), structuralCell(r.SizeBytes),
			cellValue(r.IOPS), cellValue(r.BandwidthMBps),
			cellValue(r.LatMeanMs), cellValue(r.LatP50Ms),
			cellValue(r.LatP95Ms), cellValue(r.LatP99Ms),
			cellValue(r.TotalIOs),
		}
		anchor, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, anchor, &cells); err != nil {
			return err
		}
	}
	return nil
}

// writeTaskSheet renders one task's rows plus a per-runner
// throughput chart, a per-block-size latency chart, and a block
// size by queue depth throughput heatmap.
func writeTaskSheet(f *excelize.File, reg *sheetRegistry, table *fiotab.Table, byRunner *fiotab.Aggregates, task string) error {
	rows := table.FilterTask(task)
	name := reg.Name(task)
	if err := writeRecordSheet(f, name, rows); err != nil {
		return err
	}

	chartRow := len(rows) + 3
	if err := writeRunnerChart(f, name, byRunner, task, chartRow); err != nil {
		return err
	}
	return writeHeatmap(f, name, rows, chartRow)
}

// writeRunnerChart tabulates per-runner throughput and latency
// below the record rows and charts both from that block.
func writeRunnerChart(f *excelize.File, sheet string, byRunner *fiotab.Aggregates, task string, row int) error {
	var runners []*fiotab.AggregateRow
	for _, r := range byRunner.Rows {
		if r.Task == task && r.Runner != "" {
			runners = append(runners, r)
		}
	}
	if len(runners) == 0 {
		return nil
	}

	header := []interface{}{"runner", "total_iops", "lat_mean_ms"}
	anchor, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, anchor, &header); err != nil {
		return err
	}
	for i, r := range runners {
		cells := []interface{}{r.Runner, cellValue(r.TotalIOPS), cellValue(r.LatMeanMs)}
		anchor, err := excelize.CoordinatesToCellName(1, row+1+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, anchor, &cells); err != nil {
			return err
		}
	}

	cats := fmt.Sprintf("'%s'!$A$%d:$A$%d", sheet, row+1, row+len(runners))
	iopsVals := fmt.Sprintf("'%s'!$B$%d:$B$%d", sheet, row+1, row+len(runners))
	latVals := fmt.Sprintf("'%s'!$C$%d:$C$%d", sheet, row+1, row+len(runners))

	colAnchor, err := excelize.CoordinatesToCellName(5, row)
	if err != nil {
		return err
	}
	if err := f.AddChart(sheet, colAnchor, &excelize.Chart{
		Type:  excelize.Col,
		Title: []excelize.RichTextRun{{Text: "IOPS per runner"}},
		Series: []excelize.ChartSeries{{
			Name:       "total_iops",
			Categories: cats,
			Values:     iopsVals,
		}},
	}); err != nil {
		return err
	}

	lineAnchor, err := excelize.CoordinatesToCellName(13, row)
	if err != nil {
		return err
	}
	return f.AddChart(sheet, lineAnchor, &excelize.Chart{
		Type:  excelize.Line,
		Title: []excelize.RichTextRun{{Text: "mean latency per runner (ms)"}},
		Series: []excelize.ChartSeries{{
			Name:       "lat_mean_ms",
			Categories: cats,
			Values:     latVals,
		}},
	})
}

// writeHeatmap lays out mean total throughput per (block size,
// queue depth) cell and color-scales the block.
func writeHeatmap(f *excelize.File, sheet string, rows []*fiofmt.Record, above int) error {
	type cell struct {
		sum float64
		n   int
	}
	byKey := make(map[string]map[int]*cell)
	var bsLabels []string
	depthSeen := make(map[int]bool)
	var depths []int
	for _, r := range rows {
		if r.BlockSize == "" || r.IODepth == 0 || fiofmt.IsMissing(r.IOPS) {
			continue
		}
		m, ok := byKey[r.BlockSize]
		if !ok {
			m = make(map[int]*cell)
			byKey[r.BlockSize] = m
			bsLabels = append(bsLabels, r.BlockSize)
		}
		c, ok := m[r.IODepth]
		if !ok {
			c = new(cell)
			m[r.IODepth] = c
		}
		c.sum += r.IOPS
		c.n++
		if !depthSeen[r.IODepth] {
			depthSeen[r.IODepth] = true
			depths = append(depths, r.IODepth)
		}
	}
	if len(bsLabels) == 0 || len(depths) == 0 {
		return nil
	}
	sort.Ints(depths)

	start := above + 18
	title := []interface{}{"iops by bs and iodepth"}
	anchor, err := excelize.CoordinatesToCellName(1, start)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, anchor, &title); err != nil {
		return err
	}

	header := []interface{}{"bs"}
	for _, d := range depths {
		header = append(header, fmt.Sprintf("qd%d", d))
	}
	anchor, err = excelize.CoordinatesToCellName(1, start+1)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, anchor, &header); err != nil {
		return err
	}
	for i, bs := range bsLabels {
		cells := []interface{}{bs}
		for _, d := range depths {
			if c, ok := byKey[bs][d]; ok {
				cells = append(cells, c.sum/float64(c.n))
			} else {
				cells = append(cells, nil)
			}
		}
		anchor, err := excelize.CoordinatesToCellName(1, start+2+i)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, anchor, &cells); err != nil {
			return err
		}
	}

	topLeft, err := excelize.CoordinatesToCellName(2, start+2)
	if err != nil {
		return err
	}
	bottomRight, err := excelize.CoordinatesToCellName(1+len(depths), start+1+len(bsLabels))
	if err != nil {
		return err
	}
	return f.SetConditionalFormat(sheet, topLeft+":"+bottomRight, []excelize.ConditionalFormatOptions{{
		Type:     "3_color_scale",
		Criteria: "=",
		MinType:  "min",
		MidType:  "percentile",
		MidValue: "50",
		MaxType:  "max",
		MinColor: "#F8696B",
		MidColor: "#FFEB84",
		MaxColor: "#63BE7B",
	}})
}

func toCells(cols []string) []interface{} {
	cells := make([]interface{}, len(cols))
	for i, c := range cols {
		cells[i] = c
	}
	return cells
}
