// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiounit

import (
	"regexp"
	"strconv"
	"strings"
)

var sizeRe = regexp.MustCompile(`^(\d+)([KkMmGgTtPp]?)[Bb]?$`)

// sizePow maps a size suffix to its power-of-two exponent.
var sizePow = map[string]uint{
	"":  0,
	"k": 10,
	"m": 20,
	"g": 30,
	"t": 40,
	"p": 50,
}

// ParseSize parses a fio size string such as "4G", "256k", or "128MB"
// into a byte count using power-of-two unit expansion. A bare integer
// string is taken as a byte count directly. It returns ok=false for
// anything it cannot parse; an unparseable size is absent, never zero.
func ParseSize(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return n << sizePow[strings.ToLower(m[2])], true
}

// ParseBlockSize parses a block-size string. Block sizes use the same
// grammar as sizes (e.g. "4k", "1m").
func ParseBlockSize(s string) (int64, bool) {
	return ParseSize(s)
}

// ParseBandwidth converts a bandwidth value with the unit token that
// accompanied it in console output ("B/s", "KB/s", "KiB/s", "MiB/s",
// "GB/s", ...) to decimal MB/s. fio's decimal-looking tokens are
// binary in practice, so K/M/G are all scaled by 1024 regardless of
// the "i". It returns ok=false for unit tokens outside the grammar.
func ParseBandwidth(v float64, unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "kb/s", "kib/s":
		return v * 1024 / 1e6, true
	case "mb/s", "mib/s":
		return v * 1024 * 1024 / 1e6, true
	case "gb/s", "gib/s":
		return v * 1024 * 1024 * 1024 / 1e6, true
	}
	if strings.HasSuffix(strings.ToLower(unit), "b/s") {
		// Plain bytes per second.
		return v / 1e6, true
	}
	return 0, false
}

// ParseLatency converts a latency value with its console unit token
// to milliseconds. Supported tokens are the ns/us/ms families in both
// short ("us") and long ("usec") form.
func ParseLatency(v float64, unit string) (float64, bool) {
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "ns", "nsec":
		return NsToMs(v), true
	case "us", "usec":
		return UsToMs(v), true
	case "ms", "msec":
		return MsToMs(v), true
	}
	return 0, false
}
