package render

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

var errBlockSize = errors.New("render: block size must be positive")

type copyOp struct {
	dst []float64
	src []float64
}

// delayOp keeps the previous block of one feedback source. buf is matched to
// a new plan by from when the render thread switches plans.
type delayOp struct {
	from source
	buf  []float64
	src  []float64
}

type step struct {
	id      graph.NodeID
	node    node.Node
	block   node.Block
	gathers []copyOp
	clears  [][]float64
	peak    *bridge.Cell
	sink    bool
}

// Plan is an immutable, render-ready view of a graph.
type Plan struct {
	steps     []step
	delays    []delayOp
	arena     []float64
	blockSize int
	version   uint64
	channels  int
}

// BlockSize returns the maximum frames per block.
func (p *Plan) BlockSize() int { return p.blockSize }

// Version returns the store version the plan was compiled from.
func (p *Plan) Version() uint64 { return p.version }

// Order returns the node ids in render order.
func (p *Plan) Order() []graph.NodeID {
	out := make([]graph.NodeID, len(p.steps))
	for i := range p.steps {
		out[i] = p.steps[i].id
	}

	return out
}

// Slots returns the number of arena slots.
func (p *Plan) Slots() int {
	if p.blockSize == 0 {
		return 0
	}

	return len(p.arena) / p.blockSize
}

// OutputChannels returns the widest sink output.
func (p *Plan) OutputChannels() int { return p.channels }

type arena struct {
	buf  []float64
	size int
	next int
}

func (a *arena) slot() []float64 {
	s := a.buf[a.next*a.size : (a.next+1)*a.size : (a.next+1)*a.size]
	a.next++

	return s
}

type source struct {
	node graph.NodeID
	ch   int
}

// Compile builds a plan for the current contents of store. It allocates and
// must run on the control thread.
func Compile(store *graph.Store) (*Plan, error) {
	blockSize := store.Context().BlockSize
	if blockSize <= 0 {
		return nil, errBlockSize
	}

	order, err := store.Order()
	if err != nil {
		return nil, fmt.Errorf("render: compile: %w", err)
	}

	conns := store.Connections()

	slots := 0
	aliases := make(map[graph.NodeID]map[int]int, len(order))

	for _, id := range order {
		n, _ := store.Node(id)
		ports := n.Ports()
		numIn, numOut := ports.NumInputs(), ports.NumOutputs()

		alias := inPlacePairs(n, numIn, numOut)
		aliases[id] = alias
		slots += numIn + numOut - len(alias)
	}

	delaySlots := make(map[source]int)
	for _, c := range conns {
		if c.Feedback {
			if _, ok := delaySlots[source{c.Src, c.SrcChan}]; !ok {
				delaySlots[source{c.Src, c.SrcChan}] = len(delaySlots)
			}
		}
	}

	slots += len(delaySlots)

	a := &arena{buf: make([]float64, slots*blockSize), size: blockSize}
	p := &Plan{
		steps:     make([]step, len(order)),
		arena:     a.buf,
		blockSize: blockSize,
		version:   store.Version(),
	}

	index := make(map[graph.NodeID]int, len(order))

	for i, id := range order {
		n, _ := store.Node(id)
		ports := n.Ports()

		st := &p.steps[i]
		st.id = id
		st.node = n
		st.block.In = make([][]float64, ports.NumInputs())
		st.block.Out = make([][]float64, ports.NumOutputs())
		st.block.Connected = make([]bool, ports.NumInputs())

		for ch := range st.block.In {
			st.block.In[ch] = a.slot()
		}

		for ch := range st.block.Out {
			if in, ok := aliases[id][ch]; ok {
				st.block.Out[ch] = st.block.In[in]
				continue
			}

			st.block.Out[ch] = a.slot()
		}

		st.peak, _ = n.Telemetry().Lookup(node.TelemetryPeak)

		if sink, ok := n.(node.Sink); ok && sink.Sink() {
			st.sink = true
			p.channels = max(p.channels, len(st.block.Out))
		}

		index[id] = i
	}

	delays := make([][]float64, len(delaySlots))
	for i := range delays {
		delays[i] = a.slot()
	}

	p.delays = make([]delayOp, len(delaySlots))
	for src, i := range delaySlots {
		p.delays[i] = delayOp{from: src, buf: delays[i], src: p.steps[index[src.node]].block.Out[src.ch]}
	}

	for _, c := range conns {
		dst := &p.steps[index[c.Dst]]
		dst.block.Connected[c.DstChan] = true

		src := p.steps[index[c.Src]].block.Out[c.SrcChan]
		if c.Feedback {
			src = delays[delaySlots[source{c.Src, c.SrcChan}]]
		}

		dst.gathers = append(dst.gathers, copyOp{dst: dst.block.In[c.DstChan], src: src})
	}

	for i := range p.steps {
		st := &p.steps[i]
		for ch, connected := range st.block.Connected {
			if !connected {
				st.clears = append(st.clears, st.block.In[ch])
			}
		}
	}

	return p, nil
}

// carryDelays copies the feedback history of from into the matching delay
// slots of to, so a recompile does not reset feedback edges to zero.
func carryDelays(from, to *Plan) {
	if from == nil || to == nil {
		return
	}

	for i := range to.delays {
		for j := range from.delays {
			if from.delays[j].from == to.delays[i].from {
				copy(to.delays[i].buf, from.delays[j].buf)
				break
			}
		}
	}
}

// inPlacePairs returns output -> input aliases a node asked for, skipping
// invalid pairs and inputs claimed twice.
func inPlacePairs(n node.Node, numIn, numOut int) map[int]int {
	ip, ok := n.(node.InPlacer)
	if !ok {
		return nil
	}

	alias := make(map[int]int)
	used := make(map[int]bool)

	for _, pair := range ip.InPlace() {
		out, in := pair[0], pair[1]
		if out < 0 || out >= numOut || in < 0 || in >= numIn || used[in] {
			continue
		}

		if _, dup := alias[out]; dup {
			continue
		}

		alias[out] = in
		used[in] = true
	}

	return alias
}
