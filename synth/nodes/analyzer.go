package nodes

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-dsp/dsp/window"
	"github.com/cwbudde/algo-dsp/stats/frequency"
	timestats "github.com/cwbudde/algo-dsp/stats/time"
	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

// AnalyzerFrameSize is the FFT size of the analyzer.
const AnalyzerFrameSize = 2048

// Analyzer passes audio through unchanged. Once per frame it publishes the
// frequency of the strongest spectrum bin as "peak_hz" and the spectral
// centroid as "centroid_hz"; every block it publishes the block RMS as "rms".
type Analyzer struct {
	node.Base

	sampleRate float64
	plan       *algofft.Plan[complex128]
	window     []float64
	frame      []float64
	pos        int
	spectrum   []complex128
	re, im     []float64
	power      []float64
	magnitude  []float64

	peakHz, centroidHz, rms *bridge.Cell
}

// NewAnalyzer returns an analyzer node.
func NewAnalyzer(node.Context) (node.Node, error) {
	a := &Analyzer{}

	err := a.Init(node.Spec{
		Ports: node.Ports{
			Inputs:  []node.Bus{node.NewBus("in", node.Audio, "in")},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")},
		},
		Telemetry: []string{"peak_hz", "centroid_hz", "rms"},
	})
	if err != nil {
		return nil, err
	}

	a.peakHz, _ = a.Telemetry().Lookup("peak_hz")
	a.centroidHz, _ = a.Telemetry().Lookup("centroid_hz")
	a.rms, _ = a.Telemetry().Lookup("rms")

	return a, nil
}

// Prepare implements node.Node.
func (a *Analyzer) Prepare(ctx node.Context) error {
	if ctx.SampleRate <= 0 {
		return errors.New("nodes: analyzer: sample rate must be positive")
	}

	plan, err := algofft.NewPlan64(AnalyzerFrameSize)
	if err != nil {
		return fmt.Errorf("nodes: analyzer: failed to create FFT plan: %w", err)
	}

	win, err := window.Hann(AnalyzerFrameSize, window.WithPeriodic())
	if err != nil {
		return fmt.Errorf("nodes: analyzer: %w", err)
	}

	bins := AnalyzerFrameSize/2 + 1

	a.sampleRate = ctx.SampleRate
	a.plan = plan
	a.window = win
	a.frame = make([]float64, AnalyzerFrameSize)
	a.pos = 0
	a.spectrum = make([]complex128, AnalyzerFrameSize)
	a.re = make([]float64, bins)
	a.im = make([]float64, bins)
	a.power = make([]float64, bins)
	a.magnitude = make([]float64, bins)

	return nil
}

// InPlace implements node.InPlacer.
func (a *Analyzer) InPlace() [][2]int { return [][2]int{{0, 0}} }

// Render implements node.Node.
func (a *Analyzer) Render(b *node.Block) {
	in := b.In[0][:b.Frames]
	if len(in) == 0 {
		return
	}

	for _, x := range in {
		a.frame[a.pos] = x
		a.pos++

		if a.pos == len(a.frame) {
			a.analyze()
			a.pos = 0
		}
	}

	a.rms.Store(timestats.RMS(in))

	// out aliases in; the audio passes through untouched.
}

func (a *Analyzer) analyze() {
	for i, x := range a.frame {
		a.spectrum[i] = complex(x*a.window[i], 0)
	}

	err := a.plan.Forward(a.spectrum, a.spectrum)
	if err != nil {
		return
	}

	for k := range a.power {
		a.re[k] = real(a.spectrum[k])
		a.im[k] = imag(a.spectrum[k])
	}

	vecmath.Power(a.power, a.re, a.im)
	vecmath.Magnitude(a.magnitude, a.re, a.im)

	best := 0
	for k := 1; k < len(a.power); k++ {
		if a.power[k] > a.power[best] {
			best = k
		}
	}

	a.peakHz.Store(float64(best) * a.sampleRate / AnalyzerFrameSize)
	a.centroidHz.Store(frequency.Centroid(a.magnitude, a.sampleRate))
}
