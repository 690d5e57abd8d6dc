package nodes

import (
	"github.com/cwbudde/algo-modsynth/synth/node"
)

// Const outputs its value parameter as CV.
type Const struct {
	node.Base
}

// NewConst returns a constant CV source.
func NewConst(node.Context) (node.Node, error) {
	c := &Const{}

	return c, c.Init(node.Spec{
		Ports: node.Ports{Outputs: []node.Bus{node.NewBus("out", node.CV, "out")}},
		Params: []node.ParamDescriptor{
			{ID: "value", Name: "Value", Min: -10, Max: 10},
		},
	})
}

// Prepare implements node.Node.
func (c *Const) Prepare(node.Context) error { return nil }

// Render implements node.Node.
func (c *Const) Render(b *node.Block) {
	v := c.Param(0)

	out := b.Out[0][:b.Frames]
	for i := range out {
		out[i] = v
	}
}
