package nodes

import (
	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/effects/modulation"

	"github.com/cwbudde/algo-modsynth/synth/node"
)

const (
	chorusMix = iota
	chorusSpeed
)

// Chorus wraps the algo-dsp chorus and renders in place. mix_mod is added to
// the mix once per block.
type Chorus struct {
	node.Base

	fx         *modulation.Chorus
	mix, speed float64
}

// NewChorus returns a chorus node.
func NewChorus(node.Context) (node.Node, error) {
	fx, err := modulation.NewChorus()
	if err != nil {
		return nil, err
	}

	c := &Chorus{fx: fx}

	return c, c.Init(node.Spec{
		Ports: node.Ports{
			Inputs: []node.Bus{{Name: "in", Channels: []node.Channel{
				{Name: "in", Type: node.Audio},
				{Name: "mix", Type: node.CV},
			}}},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")},
		},
		Params: []node.ParamDescriptor{
			{ID: "mix", Name: "Mix", Min: 0, Max: 1, Default: 0.18, ModID: "mix_mod"},
			{ID: "speed", Name: "Speed", Min: 0.05, Max: 5, Default: 0.35},
		},
		Routes: map[string]node.Route{"mix_mod": {Bus: 0, Channel: 1}},
	})
}

// Prepare implements node.Node. It reallocates the delay line.
func (c *Chorus) Prepare(ctx node.Context) error {
	err := c.fx.SetSampleRate(ctx.SampleRate)
	if err != nil {
		return err
	}

	c.fx.Reset()
	c.mix, c.speed = -1, -1

	return nil
}

// InPlace implements node.InPlacer.
func (c *Chorus) InPlace() [][2]int { return [][2]int{{0, 0}} }

// Render implements node.Node.
func (c *Chorus) Render(b *node.Block) {
	mix := c.Param(chorusMix)
	if mod, ok := c.Modulation(b, "mix_mod"); ok && b.Frames > 0 {
		mix = core.Clamp(mix+mod[0], 0, 1)
	}

	if mix != c.mix {
		_ = c.fx.SetMix(mix)
		c.mix = mix
	}

	if speed := c.Param(chorusSpeed); speed != c.speed {
		_ = c.fx.SetSpeedHz(speed)
		c.speed = speed
	}

	c.fx.ProcessInPlace(b.Out[0][:b.Frames])
}
