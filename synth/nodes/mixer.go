package nodes

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modsynth/synth/node"
)

const mixerInputs = 4

// Mixer sums four audio inputs, each with its own level, then applies the
// master level. Unconnected inputs are skipped.
type Mixer struct {
	node.Base

	scratch []float64
}

// NewMixer returns a mixer node.
func NewMixer(node.Context) (node.Node, error) {
	m := &Mixer{}

	return m, m.Init(node.Spec{
		Ports: node.Ports{
			Inputs:  []node.Bus{node.NewBus("in", node.Audio, "in1", "in2", "in3", "in4")},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")},
		},
		Params: []node.ParamDescriptor{
			{ID: "level1", Name: "Level 1", Min: 0, Max: 2, Default: 1},
			{ID: "level2", Name: "Level 2", Min: 0, Max: 2, Default: 1},
			{ID: "level3", Name: "Level 3", Min: 0, Max: 2, Default: 1},
			{ID: "level4", Name: "Level 4", Min: 0, Max: 2, Default: 1},
			{ID: "master", Name: "Master", Min: 0, Max: 2, Default: 1},
		},
	})
}

// Prepare implements node.Node.
func (m *Mixer) Prepare(ctx node.Context) error {
	m.scratch = make([]float64, ctx.BlockSize)
	return nil
}

// Render implements node.Node.
func (m *Mixer) Render(b *node.Block) {
	out := b.Out[0][:b.Frames]
	tmp := m.scratch[:b.Frames]

	clear(out)

	for ch := range mixerInputs {
		if !b.IsConnected(ch) {
			continue
		}

		vecmath.ScaleBlock(tmp, b.In[ch][:b.Frames], m.Param(ch))
		vecmath.AddBlockInPlace(out, tmp)
	}

	vecmath.ScaleBlock(out, out, m.Param(mixerInputs))
}
