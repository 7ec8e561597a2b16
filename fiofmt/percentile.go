// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiofmt

import (
	"fmt"
	"math"
	"strconv"
)

// Percentile finds the value for the target percentile in a fio
// percentile map, tolerating the label formats different fio versions
// emit. Resolution order:
//
//  1. exact match on the bare number ("99"),
//  2. exact match on fio's 6-decimal format ("99.000000"),
//  3. the numerically nearest key among all keys that parse as a
//     float, ties broken by key string.
//
// It returns ok=false only when no key parses as a number. An exact
// match always wins over a nearer-sounding inexact one, so version
// skew in label formatting never silently picks a wrong percentile
// when the right one is present. The returned value is NaN when the
// matched key's value is not numeric.
func Percentile(pcts map[string]any, target float64) (float64, bool) {
	if len(pcts) == 0 {
		return 0, false
	}
	if v, ok := pcts[strconv.FormatFloat(target, 'f', -1, 64)]; ok {
		return coerce(v), true
	}
	if v, ok := pcts[fmt.Sprintf("%.6f", target)]; ok {
		return coerce(v), true
	}

	bestKey, bestDist := "", math.Inf(1)
	for key := range pcts {
		f, err := strconv.ParseFloat(key, 64)
		if err != nil {
			continue
		}
		d := math.Abs(f - target)
		if d < bestDist || (d == bestDist && key < bestKey) {
			bestKey, bestDist = key, d
		}
	}
	if math.IsInf(bestDist, 1) {
		return 0, false
	}
	return coerce(pcts[bestKey]), true
}

// coerce converts a decoded JSON value to float64, returning NaN for
// non-numeric values.
func coerce(v any) float64 {
	f, ok := asFloat(v)
	if !ok {
		return math.NaN()
	}
	return f
}
