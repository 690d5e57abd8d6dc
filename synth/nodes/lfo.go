package nodes

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

const (
	lfoRate = iota
	lfoDepth
	lfoShape
)

// LFO is a low-frequency CV oscillator. rate_mod is exponential.
type LFO struct {
	node.Base

	sampleRate float64
	phase      float64 // render thread only
	saved      bridge.Cell
	value      *bridge.Cell
}

// NewLFO returns an LFO node.
func NewLFO(node.Context) (node.Node, error) {
	l := &LFO{}

	err := l.Init(node.Spec{
		Ports: node.Ports{
			Inputs:  []node.Bus{node.NewBus("mod", node.CV, "rate")},
			Outputs: []node.Bus{node.NewBus("out", node.CV, "out")},
		},
		Params: []node.ParamDescriptor{
			{ID: "rate", Name: "Rate", Min: 0.01, Max: 50, Default: 1, ModID: "rate_mod"},
			{ID: "depth", Name: "Depth", Min: 0, Max: 1, Default: 1},
			{ID: "shape", Name: "Shape", Min: ShapeSine, Max: ShapeTriangle, Default: ShapeSine},
		},
		Routes:    map[string]node.Route{"rate_mod": {Bus: 0, Channel: 0}},
		Telemetry: []string{"value"},
	})
	if err != nil {
		return nil, err
	}

	l.value, _ = l.Telemetry().Lookup("value")

	return l, nil
}

// Prepare implements node.Node.
func (l *LFO) Prepare(ctx node.Context) error {
	l.sampleRate = ctx.SampleRate
	return nil
}

// Render implements node.Node.
func (l *LFO) Render(b *node.Block) {
	rate, depth := l.Param(lfoRate), l.Param(lfoDepth)
	shape := int(math.Round(l.Param(lfoShape)))
	rateMod, hasRate := l.Modulation(b, "rate_mod")

	out := b.Out[0][:b.Frames]
	for i := range out {
		r := rate
		if hasRate {
			r = core.Clamp(rate*math.Exp2(core.Clamp(rateMod[i], -10, 10)), 0, l.sampleRate/2)
		}

		out[i] = depth * waveform(shape, l.phase)
		l.phase = wrapPhase(l.phase + r/l.sampleRate)
	}

	if len(out) > 0 {
		l.value.Store(out[len(out)-1])
	}

	l.saved.Store(l.phase)
}

// MarshalState implements node.Node.
func (l *LFO) MarshalState() ([]byte, error) {
	return marshalState("lfo", phaseState{Phase: l.saved.Load()})
}

// UnmarshalState implements node.Node.
func (l *LFO) UnmarshalState(data []byte) error {
	s := phaseState{Phase: l.saved.Load()}
	if err := unmarshalState("lfo", data, &s); err != nil {
		return err
	}

	l.phase = wrapPhase(s.Phase)
	l.saved.Store(l.phase)

	return nil
}
