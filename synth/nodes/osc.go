package nodes

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

// Waveform shapes for osc and lfo.
const (
	ShapeSine = iota
	ShapeSaw
	ShapeSquare
	ShapeTriangle
)

const (
	oscFreq = iota
	oscAmp
	oscShape
)

// Osc is an audio oscillator. freq_mod is exponential (one unit is one
// octave); amp_mod adds to the amplitude.
type Osc struct {
	node.Base

	sampleRate float64
	phase      float64 // render thread only
	saved      bridge.Cell
}

// NewOsc returns an oscillator node.
func NewOsc(node.Context) (node.Node, error) {
	o := &Osc{}

	return o, o.Init(node.Spec{
		Ports: node.Ports{
			Inputs:  []node.Bus{node.NewBus("mod", node.CV, "freq", "amp")},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")},
		},
		Params: []node.ParamDescriptor{
			{ID: "freq", Name: "Frequency", Min: 0.1, Max: 20000, Default: 440, ModID: "freq_mod"},
			{ID: "amp", Name: "Amplitude", Min: 0, Max: 1, Default: 0.5, ModID: "amp_mod"},
			{ID: "shape", Name: "Shape", Min: ShapeSine, Max: ShapeTriangle, Default: ShapeSine},
		},
		Routes: map[string]node.Route{
			"freq_mod": {Bus: 0, Channel: 0},
			"amp_mod":  {Bus: 0, Channel: 1},
		},
	})
}

// Prepare implements node.Node.
func (o *Osc) Prepare(ctx node.Context) error {
	o.sampleRate = ctx.SampleRate
	return nil
}

// Render implements node.Node.
func (o *Osc) Render(b *node.Block) {
	freq, amp := o.Param(oscFreq), o.Param(oscAmp)
	shape := int(math.Round(o.Param(oscShape)))
	nyquist := o.sampleRate / 2

	freqMod, hasFreq := o.Modulation(b, "freq_mod")
	ampMod, hasAmp := o.Modulation(b, "amp_mod")

	out := b.Out[0][:b.Frames]
	for i := range out {
		f, a := freq, amp
		if hasFreq {
			f = core.Clamp(freq*math.Exp2(core.Clamp(freqMod[i], -10, 10)), 0, nyquist)
		}

		if hasAmp {
			a = core.Clamp(amp+ampMod[i], 0, 1)
		}

		out[i] = a * waveform(shape, o.phase)
		o.phase = wrapPhase(o.phase + f/o.sampleRate)
	}

	o.saved.Store(o.phase)
}

type phaseState struct {
	Phase float64 `json:"phase"`
}

// MarshalState implements node.Node.
func (o *Osc) MarshalState() ([]byte, error) {
	return marshalState("osc", phaseState{Phase: o.saved.Load()})
}

// UnmarshalState implements node.Node.
func (o *Osc) UnmarshalState(data []byte) error {
	s := phaseState{Phase: o.saved.Load()}
	if err := unmarshalState("osc", data, &s); err != nil {
		return err
	}

	o.phase = wrapPhase(s.Phase)
	o.saved.Store(o.phase)

	return nil
}

// waveform evaluates shape at phase in [0, 1). Output is in [-1, 1].
func waveform(shape int, phase float64) float64 {
	switch shape {
	case ShapeSaw:
		return 2*phase - 1
	case ShapeSquare:
		if phase < 0.5 {
			return 1
		}

		return -1
	case ShapeTriangle:
		return 1 - 4*math.Abs(phase-0.5)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}
