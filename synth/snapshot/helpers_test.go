package snapshot

import (
	"errors"
	"strconv"

	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

// voice has an audio input, a CV input mapped to "gain_mod", an audio
// output and a private counter serialized as its extra state.
type voice struct {
	node.Base

	steps int
}

func (v *voice) Prepare(node.Context) error { return nil }

func (v *voice) Render(*node.Block) {}

func (v *voice) MarshalState() ([]byte, error) {
	return []byte(strconv.Itoa(v.steps)), nil
}

func (v *voice) UnmarshalState(data []byte) error {
	if len(data) == 0 {
		v.steps = 0
		return nil
	}

	n, err := strconv.Atoi(string(data))
	if err != nil {
		return errors.New("voice: bad step count")
	}

	v.steps = n

	return nil
}

func newVoice(node.Context) (node.Node, error) {
	v := &voice{}

	return v, v.Init(node.Spec{
		Ports: node.Ports{
			Inputs: []node.Bus{{Name: "in", Channels: []node.Channel{
				{Name: "in", Type: node.Audio},
				{Name: "gain", Type: node.CV},
			}}},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")},
		},
		Params: []node.ParamDescriptor{
			{ID: "gain", Min: 0, Max: 2, Default: 1, ModID: "gain_mod"},
			{ID: "pan", Min: -1, Max: 1},
		},
		Routes: map[string]node.Route{"gain_mod": {Bus: 0, Channel: 1}},
	})
}

func testRegistry() *node.Registry {
	r := node.NewRegistry()
	r.MustRegister("voice", newVoice)

	return r
}

func newTestStore() *graph.Store {
	return graph.New(testRegistry(), node.DefaultContext(), graph.WithIDGenerator(graph.SequentialIDs("v")))
}

func mustAdd(s *graph.Store) graph.NodeID {
	id, err := s.AddNode("voice")
	if err != nil {
		panic(err)
	}

	return id
}

func mustConnect(s *graph.Store, src graph.NodeID, srcChan int, dst graph.NodeID, dstChan int) {
	if _, err := s.Connect(src, srcChan, dst, dstChan); err != nil {
		panic(err)
	}
}

// workspace is an in-memory Workspace.
type workspace struct {
	store    *graph.Store
	layout   *Layout
	replaced int
	fail     error
}

func newWorkspace() *workspace {
	return &workspace{store: newTestStore(), layout: NewLayout()}
}

func (w *workspace) Store() *graph.Store { return w.store }

func (w *workspace) Layout() *Layout { return w.layout }

func (w *workspace) Replace(store *graph.Store, layout *Layout) error {
	if w.fail != nil {
		return w.fail
	}

	w.store = store
	w.layout = layout
	w.replaced++

	return nil
}

func mustEncode(s *graph.Store) string {
	data, err := EncodeGraph(s)
	if err != nil {
		panic(err)
	}

	return string(data)
}
