package graph

import (
	"github.com/cwbudde/algo-modsynth/synth/node"
)

// unit is a test node with two audio inputs, a CV input and a gate input,
// and audio, CV and gate outputs.
type unit struct {
	node.Base
}

func (u *unit) Prepare(node.Context) error { return nil }

func (u *unit) Render(b *node.Block) {}

func newUnit(node.Context) (node.Node, error) {
	u := &unit{}

	err := u.Init(node.Spec{
		Ports: node.Ports{
			Inputs: []node.Bus{{Name: "in", Channels: []node.Channel{
				{Name: "a", Type: node.Audio},
				{Name: "b", Type: node.Audio},
				{Name: "x", Type: node.CV},
				{Name: "g", Type: node.Gate},
			}}},
			Outputs: []node.Bus{{Name: "out", Channels: []node.Channel{
				{Name: "out", Type: node.Audio},
				{Name: "cv", Type: node.CV},
				{Name: "gate", Type: node.Gate},
			}}},
		},
		Params: []node.ParamDescriptor{{ID: "x", Min: 0, Max: 1, Default: 0, ModID: "x_mod"}},
		Routes: map[string]node.Route{"x_mod": {Bus: 0, Channel: 2}},
	})
	if err != nil {
		return nil, err
	}

	return u, nil
}

func testRegistry() *node.Registry {
	r := node.NewRegistry()
	r.MustRegister("unit", newUnit)

	return r
}

func newTestStore() *Store {
	return New(testRegistry(), node.DefaultContext(), WithIDGenerator(SequentialIDs("n")))
}

func mustAdd(s *Store, kind string) NodeID {
	id, err := s.AddNode(kind)
	if err != nil {
		panic(err)
	}

	return id
}
