// Copyright 2025 The Fiostat Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fiounit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversions(t *testing.T) {
	require.InDelta(t, 1.0, NsToMs(1e6), 1e-12)
	require.InDelta(t, 1.0, UsToMs(1e3), 1e-12)
	require.InDelta(t, 0.1205, UsToMs(120.5), 1e-12)
	require.InDelta(t, 1.024, KiBpsToMBps(1000), 1e-12)
}

func TestConversionRoundTrip(t *testing.T) {
	// A microsecond quantity converted via the nanosecond path must
	// land on the same milliseconds as the direct conversion.
	for _, us := range []float64{0, 0.5, 120.5, 1e6, 3.75e9} {
		require.InEpsilon(t, UsToMs(us)+1, NsToMs(us*1e3)+1, 1e-12)
	}
}

func TestConversionsPropagateNaN(t *testing.T) {
	nan := math.NaN()
	require.True(t, math.IsNaN(NsToMs(nan)))
	require.True(t, math.IsNaN(UsToMs(nan)))
	require.True(t, math.IsNaN(KiBpsToMBps(nan)))
}
