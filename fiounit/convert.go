// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fiounit converts fio's assorted measurement units to the
// canonical bases used throughout this module: milliseconds for
// latency and decimal megabytes per second for bandwidth.
//
// fio is not consistent about units across versions or output modes.
// Latency appears in nanoseconds, microseconds, or milliseconds
// depending on the reporting container; bandwidth appears in KiB/s in
// JSON output but with an explicit unit token in console output. The
// conversions here collapse all of that onto one basis. Once
// converted, the original unit is discarded; downstream consumers see
// exactly one basis per quantity.
//
// Absent values are represented as NaN. All conversions propagate NaN
// to NaN, so absence survives conversion without special-casing at
// call sites.
package fiounit

// NsToMs converts a nanosecond latency to milliseconds.
func NsToMs(ns float64) float64 { return ns / 1e6 }

// UsToMs converts a microsecond latency to milliseconds.
func UsToMs(us float64) float64 { return us / 1e3 }

// MsToMs is the identity conversion for values already in
// milliseconds. It exists so unit tables can treat every basis
// uniformly.
func MsToMs(ms float64) float64 { return ms }

// KiBpsToMBps converts a KiB/s bandwidth, the basis fio uses for the
// "bw" field in JSON output, to decimal MB/s.
func KiBpsToMBps(kibps float64) float64 { return kibps * 1024 / 1e6 }
