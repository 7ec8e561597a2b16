// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Fiostat extracts fio benchmark results from a directory tree and
// renders normalized summary tables.
//
// Usage:
//
//	fiostat [flags] --input DIR
//
// Every result file under the input tree is parsed (structured JSON
// where possible, console text otherwise), normalized into one flat
// metric table, and aggregated per task. The aggregate summaries are
// printed to standard output and written to an xlsx workbook;
// optional CSV and SQLite sinks persist the flat table for further
// analysis. Files that cannot be parsed are reported on standard
// error and skipped; only an unreadable input root is fatal.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/perftools/fiostat/fiofmt"
	"github.com/perftools/fiostat/fioproc"
	"github.com/perftools/fiostat/fiotab"
)

type options struct {
	input          string
	output         string
	include        []string
	recurse        bool
	detailed       bool
	normalizeTasks bool
	conventions    string
	csvPath        string
	sqlitePath     string
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("fiostat: ")

	if err := newRootCommand().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCommand() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:           "fiostat",
		Short:         "summarize fio benchmark results",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(&opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.input, "input", "i", ".", "directory tree holding fio result files")
	f.StringVarP(&opts.output, "output", "o", "fio_summary.xlsx", "xlsx workbook to write")
	f.StringSliceVar(&opts.include, "include", fiofmt.DefaultExtensions, "file extensions to scan")
	f.BoolVarP(&opts.recurse, "recurse", "r", false, "descend into subdirectories")
	f.BoolVar(&opts.detailed, "detailed", false, "add per-task sheets with charts to the workbook")
	f.BoolVar(&opts.normalizeTasks, "normalize-tasks", false, "strip timestamp suffixes so repeated runs fold into one task")
	f.StringVar(&opts.conventions, "conventions", "", "YAML file overriding path naming conventions")
	f.StringVar(&opts.csvPath, "csv", "", "also write the flat metric table as CSV (- for stdout)")
	f.StringVar(&opts.sqlitePath, "sqlite", "", "also write metric and aggregate tables to a SQLite database")
	return cmd
}

func run(opts *options) error {
	rules := fioproc.DefaultRules()
	if opts.conventions != "" {
		var err error
		if rules, err = fioproc.LoadRules(opts.conventions); err != nil {
			return err
		}
	}

	files := &fiofmt.Files{
		Root:       opts.input,
		Extensions: opts.include,
		Recurse:    opts.recurse,
		Identify:   rules.Resolve,
	}

	var b fiotab.Builder
	for files.Scan() {
		r := files.Record()
		if opts.normalizeTasks {
			r = r.Clone()
			r.Task = fioproc.TrimTimestampSuffix(r.Task)
		}
		b.Add(r)
	}
	if err := files.Err(); err != nil {
		return err
	}
	for _, w := range files.Warnings() {
		log.Printf("warning: %s", w)
	}

	table := b.Table()
	if len(table.Rows) == 0 {
		log.Printf("no fio results under %s", opts.input)
	}

	summary := fiotab.Aggregate(table, fiotab.ByTask)
	byBS := fiotab.Aggregate(table, fiotab.ByTaskBlockSize)
	byRunner := fiotab.Aggregate(table, fiotab.ByTaskRunner)

	if len(table.Rows) > 0 {
		summary.ToText(os.Stdout)
	}

	if err := writeWorkbook(opts, table, summary, byBS, byRunner); err != nil {
		return errors.Wrapf(err, "writing %s", opts.output)
	}
	fmt.Fprintf(os.Stderr, "wrote %s (%d records)\n", opts.output, len(table.Rows))

	if opts.csvPath != "" {
		if err := writeCSV(opts.csvPath, table); err != nil {
			return err
		}
	}
	if opts.sqlitePath != "" {
		if err := writeSQLite(opts.sqlitePath, table, summary, byBS, byRunner); err != nil {
			return errors.Wrapf(err, "writing %s", opts.sqlitePath)
		}
	}
	return nil
}

func writeCSV(path string, table *fiotab.Table) error {
	if path == "-" {
		return table.ToCSV(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating csv")
	}
	defer f.Close()
	if err := table.ToCSV(f); err != nil {
		return err
	}
	return errors.Wrap(f.Close(), "closing csv")
}
