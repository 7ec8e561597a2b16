// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"database/sql"
	"time"

	"github.com/cockroachdb/errors"
	_ "modernc.org/sqlite"

	"github.com/perftools/fiostat/fiofmt"
	"github.com/perftools/fiostat/fiotab"
)

const sqliteSchema = `
DROP TABLE IF EXISTS metric_records;
CREATE TABLE metric_records (
	source_file TEXT,
	task        TEXT,
	timestamp   TEXT,
	runner      TEXT,
	jobname     TEXT,
	op          TEXT,
	rw          TEXT,
	access_pattern TEXT,
	bs          TEXT,
	bs_bytes    INTEGER,
	iodepth     INTEGER,
	numjobs     INTEGER,
	runtime_s   REAL,
	size_bytes  INTEGER,
	iops        REAL,
	bw_mbps     REAL,
	lat_mean_ms REAL,
	clat_p50_ms REAL,
	clat_p95_ms REAL,
	clat_p99_ms REAL,
	total_ios   REAL
);
DROP TABLE IF EXISTS aggregate_rows;
CREATE TABLE aggregate_rows (
	grouping    TEXT,
	task        TEXT,
	bs          TEXT,
	runner      TEXT,
	access_pattern TEXT,
	read_iops   REAL,
	write_iops  REAL,
	total_iops  REAL,
	read_bw_mbps  REAL,
	write_bw_mbps REAL,
	total_bw_mbps REAL,
	lat_mean_ms REAL,
	clat_p50_ms REAL,
	clat_p95_ms REAL,
	clat_p99_ms REAL,
	lat_mean_weighted_ms REAL,
	lat_spread_ms REAL,
	total_ios   REAL,
	runs        INTEGER,
	iops_per_runner    REAL,
	bw_mbps_per_runner REAL
);
`

// writeSQLite persists the flat table and every aggregate view.
// Existing tables are replaced so reruns over the same database are
// idempotent. Absent values are stored as NULL, never as zero.
func writeSQLite(path string, table *fiotab.Table, views ...*fiotab.Aggregates) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return errors.Wrap(err, "opening database")
	}
	defer db.Close()

	if _, err := db.Exec(sqliteSchema); err != nil {
		return errors.Wrap(err, "creating schema")
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer tx.Rollback()

	if err := insertRecords(tx, table.Rows); err != nil {
		return err
	}
	for _, v := range views {
		if err := insertAggregates(tx, v); err != nil {
			return err
		}
	}
	return errors.Wrap(tx.Commit(), "committing")
}

func insertRecords(tx *sql.Tx, rows []*fiofmt.Record) error {
	stmt, err := tx.Prepare(`INSERT INTO metric_records VALUES
		(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return errors.Wrap(err, "preparing record insert")
	}
	defer stmt.Close()

	for _, r := range rows {
		var ts interface{}
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.UTC().Format(time.RFC3339)
		}
		_, err := stmt.Exec(
			r.SourceFile, r.Task, ts, r.Runner, r.JobName,
			string(r.Op), r.RWMode, string(r.AccessPattern),
			r.BlockSize, structuralCell(r.BlockSizeBytes),
			structuralCell(int64(r.IODepth)), structuralCell(int64(r.NumJobs)),
			cellValue(r.RuntimeSec), structuralCell(r.SizeBytes),
			cellValue(r.IOPS), cellValue(r.BandwidthMBps),
			cellValue(r.LatMeanMs), cellValue(r.LatP50Ms),
			cellValue(r.LatP95Ms), cellValue(r.LatP99Ms),
			cellValue(r.TotalIOs),
		)
		if err != nil {
			return errors.Wrapf(err, "inserting record from %q", r.SourceFile)
		}
	}
	return nil
}

func insertAggregates(tx *sql.Tx, agg *fiotab.Aggregates) error {
	stmt, err := tx.Prepare(`INSERT INTO aggregate_rows VALUES
		(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return errors.Wrap(err, "preparing aggregate insert")
	}
	defer stmt.Close()

	for _, r := range agg.Rows {
		_, err := stmt.Exec(
			agg.Grouping.String(), r.Task, r.BlockSize, r.Runner,
			string(r.AccessPattern),
			cellValue(r.ReadIOPS), cellValue(r.WriteIOPS), cellValue(r.TotalIOPS),
			cellValue(r.ReadBandwidthMBps), cellValue(r.WriteBandwidthMBps), cellValue(r.TotalBandwidthMBps),
			cellValue(r.LatMeanMs), cellValue(r.LatP50Ms), cellValue(r.LatP95Ms), cellValue(r.LatP99Ms),
			cellValue(r.LatMeanWeightedMs), cellValue(r.LatencySpreadMs),
			cellValue(r.TotalIOs), r.RunsCount,
			cellValue(r.PerRunnerIOPS), cellValue(r.PerRunnerBandwidthMBps),
		)
		if err != nil {
			return errors.Wrapf(err, "inserting aggregate for task %q", r.Task)
		}
	}
	return nil
}
