package testutil

import (
	"math"
	"testing"
)

// RequireSliceNearlyEqual fails if got and want differ in length or any
// pair differs by more than eps.
func RequireSliceNearlyEqual(tb testing.TB, got, want []float64, eps float64) {
	tb.Helper()

	if len(got) != len(want) {
		tb.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}

	for i := range got {
		if diff := math.Abs(got[i] - want[i]); diff > eps {
			tb.Fatalf("index %d: got %v, want %v (diff %v > eps %v)", i, got[i], want[i], diff, eps)
		}
	}
}

// RequireFinite fails on any NaN or Inf.
func RequireFinite(tb testing.TB, data []float64) {
	tb.Helper()

	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			tb.Fatalf("index %d: non-finite value %v", i, v)
		}
	}
}

// RequireSilent fails if any sample is non-zero.
func RequireSilent(tb testing.TB, data []float64) {
	tb.Helper()

	for i, v := range data {
		if v != 0 {
			tb.Fatalf("index %d: expected silence, got %v", i, v)
		}
	}
}

// RequireAudible fails if the RMS of data is at or below floor.
func RequireAudible(tb testing.TB, data []float64, floor float64) {
	tb.Helper()

	if rms := RMS(data); rms <= floor {
		tb.Fatalf("rms %v <= %v", rms, floor)
	}
}

// RMS returns the root mean square of data, or 0 for an empty slice.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}

	var sum float64
	for _, v := range data {
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(data)))
}

// Peak returns the largest absolute sample.
func Peak(data []float64) float64 {
	var p float64
	for _, v := range data {
		p = max(p, math.Abs(v))
	}

	return p
}
