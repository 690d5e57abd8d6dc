package node

// testNode is a minimal Node built on Base.
type testNode struct {
	Base

	prepared Context
}

func (n *testNode) Prepare(ctx Context) error {
	n.prepared = ctx
	return nil
}

func (n *testNode) Render(b *Block) {
	for _, out := range b.Out {
		for i := range out[:b.Frames] {
			out[i] = 0
		}
	}
}

// modSpec has one audio input bus with three channels and a CV modulation
// target on channel 2 of bus 0.
func modSpec() Spec {
	return Spec{
		Ports: Ports{
			Inputs: []Bus{
				{Name: "in", Channels: []Channel{
					{Name: "left", Type: Audio},
					{Name: "right", Type: Audio},
					{Name: "x", Type: CV},
				}},
				NewBus("aux", Gate, "gate"),
			},
			Outputs: []Bus{NewBus("out", Audio, "out")},
		},
		Params: []ParamDescriptor{
			{ID: "x", Min: 0, Max: 10, Default: 5, ModID: "x_mod"},
			{ID: "level", Min: -1, Max: 1, Default: 0},
		},
		Routes:    map[string]Route{"x_mod": {Bus: 0, Channel: 2}},
		Telemetry: []string{"level"},
	}
}

func newTestNode(ctx Context) (Node, error) {
	n := &testNode{}
	if err := n.Init(modSpec()); err != nil {
		return nil, err
	}

	return n, nil
}
