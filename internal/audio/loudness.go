package audio

import (
	"github.com/cwbudde/algo-dsp/measure/loudness"
)

// Metered wraps a Source and measures the integrated loudness of everything
// it renders.
type Metered struct {
	src   Source
	meter *loudness.Meter
	frame [Channels]float64
}

// NewMetered returns a Metered source at sampleRate.
func NewMetered(src Source, sampleRate float64) *Metered {
	m := loudness.NewMeter(loudness.WithSampleRate(sampleRate), loudness.WithChannels(Channels))
	m.StartIntegration()

	return &Metered{src: src, meter: m}
}

// Process implements Source.
func (m *Metered) Process(out [][]float64) int {
	frames := m.src.Process(out)

	for i := 0; i < frames; i++ {
		m.frame[0], m.frame[1] = out[0][i], out[1][i]
		m.meter.ProcessSample(m.frame[:])
	}

	return frames
}

// Integrated returns the gated integrated loudness in LUFS.
func (m *Metered) Integrated() float64 { return m.meter.Integrated() }

// Peak returns the largest absolute sample over both channels.
func (m *Metered) Peak() float64 {
	peak := 0.0
	for _, p := range m.meter.Peaks() {
		peak = max(peak, p)
	}

	return peak
}
