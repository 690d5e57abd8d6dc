package nodes

import (
	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modsynth/synth/node"
)

// VCA scales its audio input by gain, rendering in place. gain_mod adds to
// the gain per sample.
type VCA struct {
	node.Base

	gain []float64
}

// NewVCA returns an amplifier node.
func NewVCA(node.Context) (node.Node, error) {
	v := &VCA{}

	return v, v.Init(node.Spec{
		Ports: node.Ports{
			Inputs: []node.Bus{{Name: "in", Channels: []node.Channel{
				{Name: "in", Type: node.Audio},
				{Name: "gain", Type: node.CV},
			}}},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")},
		},
		Params: []node.ParamDescriptor{
			{ID: "gain", Name: "Gain", Min: 0, Max: 2, Default: 1, ModID: "gain_mod"},
		},
		Routes: map[string]node.Route{"gain_mod": {Bus: 0, Channel: 1}},
	})
}

// Prepare implements node.Node.
func (v *VCA) Prepare(ctx node.Context) error {
	v.gain = make([]float64, ctx.BlockSize)
	return nil
}

// InPlace implements node.InPlacer.
func (v *VCA) InPlace() [][2]int { return [][2]int{{0, 0}} }

// Render implements node.Node.
func (v *VCA) Render(b *node.Block) {
	in, out := b.In[0][:b.Frames], b.Out[0][:b.Frames]
	base := v.Param(0)

	mod, ok := v.Modulation(b, "gain_mod")
	if !ok {
		vecmath.ScaleBlock(out, in, base)
		return
	}

	gain := v.gain[:b.Frames]
	for i := range gain {
		gain[i] = core.Clamp(base+mod[i], 0, 2)
	}

	vecmath.MulBlock(out, in, gain)
}
