package nodes

import (
	"testing"

	"github.com/cwbudde/algo-modsynth/synth/node"
)

func newNode(t *testing.T, kind string, ctx node.Context) node.Node {
	t.Helper()

	n, err := DefaultRegistry().New(kind, ctx)
	if err != nil {
		t.Fatalf("New(%q): %v", kind, err)
	}

	return n
}

// newBlock allocates frames samples per channel. Inputs listed in connected
// are marked as driven. In-place pairs declared by n share storage.
func newBlock(n node.Node, frames int, connected ...int) *node.Block {
	ports := n.Ports()

	b := &node.Block{
		In:        make([][]float64, ports.NumInputs()),
		Out:       make([][]float64, ports.NumOutputs()),
		Frames:    frames,
		Connected: make([]bool, ports.NumInputs()),
	}

	for i := range b.In {
		b.In[i] = make([]float64, frames)
	}

	for i := range b.Out {
		b.Out[i] = make([]float64, frames)
	}

	if ip, ok := n.(node.InPlacer); ok {
		for _, pair := range ip.InPlace() {
			b.Out[pair[0]] = b.In[pair[1]]
		}
	}

	for _, ch := range connected {
		b.Connected[ch] = true
	}

	return b
}

func ctxAt(sampleRate float64, blockSize int) node.Context {
	return node.Context{SampleRate: sampleRate, BlockSize: blockSize}
}

func setParam(t *testing.T, n node.Node, id string, v float64) {
	t.Helper()

	if err := n.Params().Set(id, v); err != nil {
		t.Fatalf("Set(%q): %v", id, err)
	}
}

func telemetry(t *testing.T, n node.Node, name string) float64 {
	t.Helper()

	c, ok := n.Telemetry().Lookup(name)
	if !ok {
		t.Fatalf("no telemetry %q", name)
	}

	return c.Load()
}
