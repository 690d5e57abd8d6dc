package nodes

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

const (
	clockBPM = iota
	clockWidth
)

// Clock emits a gate that is high for width of each beat and a one-sample
// trigger at every beat start. bpm_mod is exponential.
type Clock struct {
	node.Base

	sampleRate float64
	phase      float64 // render thread only
	started    bool
	saved      bridge.Cell // phase; negative before the first pulse
}

// NewClock returns a clock node.
func NewClock(node.Context) (node.Node, error) {
	c := &Clock{}

	return c, c.Init(node.Spec{
		Ports: node.Ports{
			Inputs: []node.Bus{node.NewBus("mod", node.CV, "bpm")},
			Outputs: []node.Bus{{Name: "out", Channels: []node.Channel{
				{Name: "gate", Type: node.Gate},
				{Name: "trig", Type: node.Trigger},
			}}},
		},
		Params: []node.ParamDescriptor{
			{ID: "bpm", Name: "Tempo", Min: 1, Max: 999, Default: 120, ModID: "bpm_mod"},
			{ID: "width", Name: "Gate width", Min: 0.01, Max: 0.99, Default: 0.5},
		},
		Routes: map[string]node.Route{"bpm_mod": {Bus: 0, Channel: 0}},
	})
}

// Prepare implements node.Node.
func (c *Clock) Prepare(ctx node.Context) error {
	c.sampleRate = ctx.SampleRate
	c.phase, c.started = 0, false
	c.saved.Store(-1)

	return nil
}

// Render implements node.Node.
func (c *Clock) Render(b *node.Block) {
	bpm, width := c.Param(clockBPM), c.Param(clockWidth)
	mod, hasMod := c.Modulation(b, "bpm_mod")

	gate, trig := b.Out[0][:b.Frames], b.Out[1][:b.Frames]
	for i := range gate {
		trig[i] = 0
		if !c.started || c.phase == 0 {
			trig[i] = 1
			c.started = true
		}

		gate[i] = 0
		if c.phase < width {
			gate[i] = 1
		}

		tempo := bpm
		if hasMod {
			tempo = core.Clamp(bpm*math.Exp2(core.Clamp(mod[i], -10, 10)), 1, 999)
		}

		next := c.phase + tempo/60/c.sampleRate
		if next >= 1 {
			next = 0
		}

		c.phase = next
	}

	if c.started {
		c.saved.Store(c.phase)
	}
}

type clockState struct {
	Phase   float64 `json:"phase"`
	Started bool    `json:"started"`
}

// MarshalState implements node.Node.
func (c *Clock) MarshalState() ([]byte, error) {
	phase := c.saved.Load()
	return marshalState("clock", clockState{Phase: max(phase, 0), Started: phase >= 0})
}

// UnmarshalState implements node.Node.
func (c *Clock) UnmarshalState(data []byte) error {
	var s clockState
	if err := unmarshalState("clock", data, &s); err != nil {
		return err
	}

	c.phase, c.started = wrapPhase(s.Phase), s.Started

	c.saved.Store(-1)
	if c.started {
		c.saved.Store(c.phase)
	}

	return nil
}
