package nodes

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

const (
	filterCutoff = iota
	filterQ
)

// Filter is a biquad low-pass. cutoff_mod is exponential and sampled once
// per block; coefficients are only redesigned when the effective cutoff or
// Q changes. The section's delay state is kept across snapshots.
type Filter struct {
	node.Base

	sampleRate float64
	section    *biquad.Section
	cutoff, q  float64
	effective  *bridge.Cell
	saved      [2]bridge.Cell
}

// NewFilter returns a low-pass filter node.
func NewFilter(node.Context) (node.Node, error) {
	f := &Filter{section: biquad.NewSection(biquad.Coefficients{B0: 1})}

	err := f.Init(node.Spec{
		Ports: node.Ports{
			Inputs: []node.Bus{{Name: "in", Channels: []node.Channel{
				{Name: "in", Type: node.Audio},
				{Name: "cutoff", Type: node.CV},
			}}},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")},
		},
		Params: []node.ParamDescriptor{
			{ID: "cutoff", Name: "Cutoff", Min: 20, Max: 20000, Default: 1000, ModID: "cutoff_mod"},
			{ID: "q", Name: "Resonance", Min: 0.1, Max: 20, Default: 1 / math.Sqrt2},
		},
		Routes:    map[string]node.Route{"cutoff_mod": {Bus: 0, Channel: 1}},
		Telemetry: []string{"cutoff"},
	})
	if err != nil {
		return nil, err
	}

	f.effective, _ = f.Telemetry().Lookup("cutoff")

	return f, nil
}

// Prepare implements node.Node.
func (f *Filter) Prepare(ctx node.Context) error {
	f.sampleRate = ctx.SampleRate
	f.cutoff, f.q = 0, 0
	f.section.Reset()
	f.saved[0].Store(0)
	f.saved[1].Store(0)

	return nil
}

// Render implements node.Node.
func (f *Filter) Render(b *node.Block) {
	cutoff := f.Param(filterCutoff)
	if mod, ok := f.Modulation(b, "cutoff_mod"); ok && b.Frames > 0 {
		cutoff *= math.Exp2(core.Clamp(mod[0], -10, 10))
	}

	cutoff = core.Clamp(cutoff, 20, 0.49*f.sampleRate)
	q := f.Param(filterQ)

	if cutoff != f.cutoff || q != f.q {
		f.section.Coefficients = design.Lowpass(cutoff, q, f.sampleRate)
		f.cutoff, f.q = cutoff, q
		f.effective.Store(cutoff)
	}

	in, out := b.In[0][:b.Frames], b.Out[0][:b.Frames]
	for i, x := range in {
		out[i] = f.section.ProcessSample(x)
	}

	d := f.section.State()
	f.saved[0].Store(d[0])
	f.saved[1].Store(d[1])
}

func (f *Filter) delay() [2]float64 {
	return [2]float64{f.saved[0].Load(), f.saved[1].Load()}
}

type filterState struct {
	Delay [2]float64 `json:"delay"`
}

// MarshalState implements node.Node.
func (f *Filter) MarshalState() ([]byte, error) {
	return marshalState("filter", filterState{Delay: f.delay()})
}

// UnmarshalState implements node.Node.
func (f *Filter) UnmarshalState(data []byte) error {
	s := filterState{Delay: f.delay()}
	if err := unmarshalState("filter", data, &s); err != nil {
		return err
	}

	f.section.SetState(s.Delay)
	f.saved[0].Store(s.Delay[0])
	f.saved[1].Store(s.Delay[1])

	return nil
}
