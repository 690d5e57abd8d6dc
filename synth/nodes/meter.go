package nodes

import (
	"errors"

	"github.com/cwbudde/algo-dsp/measure/loudness"
	timestats "github.com/cwbudde/algo-dsp/stats/time"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

// Meter is a stereo pass-through with a BS.1770 loudness meter. It publishes
// "momentary_lufs" and "short_lufs" every block, and "max_peak", the largest
// absolute sample seen since Prepare.
type Meter struct {
	node.Base

	meter *loudness.Meter
	frame [2]float64
	held  float64

	momentary, shortTerm, maxPeak *bridge.Cell
}

// NewMeter returns a loudness meter node.
func NewMeter(node.Context) (node.Node, error) {
	m := &Meter{}

	err := m.Init(node.Spec{
		Ports: node.Ports{
			Inputs:  []node.Bus{node.NewBus("in", node.Audio, "left", "right")},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "left", "right")},
		},
		Telemetry: []string{"momentary_lufs", "short_lufs", "max_peak"},
	})
	if err != nil {
		return nil, err
	}

	m.momentary, _ = m.Telemetry().Lookup("momentary_lufs")
	m.shortTerm, _ = m.Telemetry().Lookup("short_lufs")
	m.maxPeak, _ = m.Telemetry().Lookup("max_peak")

	return m, nil
}

// Prepare implements node.Node. It rebuilds the K-weighting filters.
func (m *Meter) Prepare(ctx node.Context) error {
	if ctx.SampleRate <= 0 {
		return errors.New("nodes: meter: sample rate must be positive")
	}

	m.meter = loudness.NewMeter(loudness.WithSampleRate(ctx.SampleRate), loudness.WithChannels(2))
	m.held = 0

	return nil
}

// InPlace implements node.InPlacer.
func (m *Meter) InPlace() [][2]int { return [][2]int{{0, 0}, {1, 1}} }

// Render implements node.Node.
func (m *Meter) Render(b *node.Block) {
	left, right := b.In[0][:b.Frames], b.In[1][:b.Frames]
	if b.Frames == 0 {
		return
	}

	for i := range left {
		m.frame[0], m.frame[1] = left[i], right[i]
		m.meter.ProcessSample(m.frame[:])
	}

	m.held = max(m.held, timestats.Peak(left), timestats.Peak(right))

	m.momentary.Store(m.meter.Momentary())
	m.shortTerm.Store(m.meter.ShortTerm())
	m.maxPeak.Store(m.held)
}
