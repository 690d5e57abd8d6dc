package render

import (
	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

const testBlock = 8

// constant writes its "value" parameter to one CV output.
type constant struct{ node.Base }

func (c *constant) Prepare(node.Context) error { return nil }

func (c *constant) Render(b *node.Block) {
	v := c.Param(0)
	for i := range b.Out[0][:b.Frames] {
		b.Out[0][i] = v
	}
}

func newConstant(node.Context) (node.Node, error) {
	c := &constant{}

	return c, c.Init(node.Spec{
		Ports:  node.Ports{Outputs: []node.Bus{node.NewBus("out", node.CV, "out")}},
		Params: []node.ParamDescriptor{{ID: "value", Min: -100, Max: 100}},
	})
}

// pass copies its audio input to its output; a CV input is added on top.
type pass struct{ node.Base }

func (p *pass) Prepare(node.Context) error { return nil }

func (p *pass) Render(b *node.Block) {
	for i := range b.Out[0][:b.Frames] {
		b.Out[0][i] = b.In[0][i] + b.In[1][i]
	}
}

func newPass(node.Context) (node.Node, error) {
	p := &pass{}

	return p, p.Init(node.Spec{
		Ports: node.Ports{
			Inputs: []node.Bus{{Name: "in", Channels: []node.Channel{
				{Name: "in", Type: node.Audio},
				{Name: "mod", Type: node.CV},
			}}},
			Outputs: []node.Bus{node.NewBus("out", node.CV, "out")},
		},
	})
}

// counter outputs the number of blocks it has rendered and records the
// first sample of its feedback input for each block.
type counter struct {
	node.Base

	blocks int
	seen   []float64
}

func (c *counter) Prepare(node.Context) error { return nil }

func (c *counter) Render(b *node.Block) {
	if len(c.seen) < cap(c.seen) {
		c.seen = append(c.seen, b.In[0][0])
	}

	c.blocks++
	for i := range b.Out[0][:b.Frames] {
		b.Out[0][i] = float64(c.blocks)
	}
}

func newCounter(node.Context) (node.Node, error) {
	c := &counter{seen: make([]float64, 0, 64)}

	return c, c.Init(node.Spec{
		Ports: node.Ports{
			Inputs:  []node.Bus{node.NewBus("fb", node.CV, "fb")},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")},
		},
	})
}

// stereoSink forwards two audio inputs.
type stereoSink struct{ node.Base }

func (s *stereoSink) Prepare(node.Context) error { return nil }

func (s *stereoSink) Render(b *node.Block) {
	copy(b.Out[0][:b.Frames], b.In[0])
	copy(b.Out[1][:b.Frames], b.In[1])
}

func (s *stereoSink) Sink() bool { return true }

func newSink(node.Context) (node.Node, error) {
	s := &stereoSink{}

	return s, s.Init(node.Spec{Ports: node.Ports{
		Inputs:  []node.Bus{node.NewBus("in", node.Audio, "left", "right")},
		Outputs: []node.Bus{node.NewBus("out", node.Audio, "left", "right")},
	}})
}

// doubler renders in place. When careful it reads every input sample
// before clearing the aliased output; otherwise it clears first.
type doubler struct {
	node.Base

	careful  bool
	inPlace  bool
	observed []float64
}

func (d *doubler) Prepare(ctx node.Context) error {
	d.observed = make([]float64, ctx.BlockSize)
	return nil
}

func (d *doubler) InPlace() [][2]int {
	if !d.inPlace {
		return nil
	}

	return [][2]int{{0, 0}}
}

func (d *doubler) Render(b *node.Block) {
	in, out := b.In[0][:b.Frames], b.Out[0][:b.Frames]

	if d.careful {
		copy(d.observed, in)
		clear(out)
	} else {
		clear(out)
		copy(d.observed, in)
	}

	for i := range out {
		out[i] = 2 * d.observed[i]
	}
}

func doublerFactory(careful, inPlace bool) node.Factory {
	return func(node.Context) (node.Node, error) {
		d := &doubler{careful: careful, inPlace: inPlace}

		return d, d.Init(node.Spec{Ports: node.Ports{
			Inputs:  []node.Bus{node.NewBus("in", node.Audio, "in")},
			Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")},
		}})
	}
}

// bomb panics while its "armed" parameter is above 0.5.
type bomb struct{ node.Base }

func (b *bomb) Prepare(node.Context) error { return nil }

func (b *bomb) Render(blk *node.Block) {
	if b.Param(0) > 0.5 {
		panic("armed")
	}

	clear(blk.Out[0][:blk.Frames])
}

func newBomb(node.Context) (node.Node, error) {
	b := &bomb{}

	return b, b.Init(node.Spec{
		Ports:  node.Ports{Outputs: []node.Bus{node.NewBus("out", node.Audio, "out")}},
		Params: []node.ParamDescriptor{{ID: "armed", Min: 0, Max: 1}},
	})
}

func testStore() *graph.Store {
	r := node.NewRegistry()
	r.MustRegister("const", newConstant)
	r.MustRegister("pass", newPass)
	r.MustRegister("counter", newCounter)
	r.MustRegister("sink", newSink)
	r.MustRegister("careful", doublerFactory(true, true))
	r.MustRegister("careless", doublerFactory(false, true))
	r.MustRegister("careless-copy", doublerFactory(false, false))
	r.MustRegister("bomb", newBomb)

	ctx := node.Context{SampleRate: 48000, BlockSize: testBlock}

	return graph.New(r, ctx, graph.WithIDGenerator(graph.SequentialIDs("n")))
}

func add(s *graph.Store, kind string) graph.NodeID {
	id, err := s.AddNode(kind)
	if err != nil {
		panic(err)
	}

	return id
}

func connect(s *graph.Store, src graph.NodeID, srcChan int, dst graph.NodeID, dstChan int) {
	if _, err := s.Connect(src, srcChan, dst, dstChan); err != nil {
		panic(err)
	}
}

func setParam(s *graph.Store, id graph.NodeID, param string, v float64) {
	n, _ := s.Node(id)
	if err := n.Params().Set(param, v); err != nil {
		panic(err)
	}
}

func stereo(frames int) [][]float64 {
	return [][]float64{make([]float64, frames), make([]float64, frames)}
}
