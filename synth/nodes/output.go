package nodes

import (
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modsynth/synth/node"
)

// Output is the stereo sink. Its outputs are summed into the engine output.
type Output struct {
	node.Base
}

// NewOutput returns a stereo output node.
func NewOutput(node.Context) (node.Node, error) {
	o := &Output{}

	return o, o.Init(node.Spec{
		Ports: node.Ports{
			Inputs:  []node.Bus{node.NewBus("in", node.Audio, "left", "right")},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "left", "right")},
		},
		Params: []node.ParamDescriptor{
			{ID: "gain", Name: "Gain", Min: 0, Max: 2, Default: 1},
		},
	})
}

// Prepare implements node.Node.
func (o *Output) Prepare(node.Context) error { return nil }

// Sink implements node.Sink.
func (o *Output) Sink() bool { return true }

// InPlace implements node.InPlacer.
func (o *Output) InPlace() [][2]int { return [][2]int{{0, 0}, {1, 1}} }

// Render implements node.Node.
func (o *Output) Render(b *node.Block) {
	gain := o.Param(0)

	for ch := range b.Out {
		vecmath.ScaleBlock(b.Out[ch][:b.Frames], b.In[ch][:b.Frames], gain)
	}
}
