package testutil

import (
	"math"
	"math/rand"
)

// Sine returns length samples of a sine starting at phase 0.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// Noise returns seeded white noise in [-amplitude, amplitude).
func Noise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	rng := rand.New(rand.NewSource(seed))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// DC returns length copies of value.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Ones is DC(1, n).
func Ones(n int) []float64 { return DC(1, n) }

// Pulses returns a gate signal: high for width samples at the start of
// every period.
func Pulses(period, width, length int) []float64 {
	out := make([]float64, length)
	if period <= 0 {
		return out
	}

	for i := range out {
		if i%period < width {
			out[i] = 1
		}
	}

	return out
}

// Stereo returns two zeroed channels of frames samples.
func Stereo(frames int) [][]float64 {
	return [][]float64{make([]float64, frames), make([]float64, frames)}
}
