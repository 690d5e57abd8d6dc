package node

import (
	"errors"
	"fmt"
	"math"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
)

// ErrUnknownParam is returned when a parameter id is not declared by a node.
var ErrUnknownParam = errors.New("unknown parameter")

// ParamDescriptor declares one parameter.
//
// ModID is the parameter's virtual modulation identifier. It has no stored
// value; it only names an input channel through the node's modulation
// routes. An empty ModID means the parameter cannot be modulated.
type ParamDescriptor struct {
	ID      string
	Name    string
	Min     float64
	Max     float64
	Default float64
	ModID   string
}

// Clamp limits v to the descriptor's range and replaces non-finite values
// with the default.
func (d ParamDescriptor) Clamp(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return d.Default
	}

	return dspcore.Clamp(v, d.Min, d.Max)
}

// Params holds the current values of a node's parameters.
//
// Values live in atomic cells: the control thread writes, the render thread
// reads, and neither locks.
type Params struct {
	descs []ParamDescriptor
	cells []bridge.Cell
	index map[string]int
}

// NewParams returns a Params initialized to every descriptor's default.
func NewParams(descs []ParamDescriptor) *Params {
	p := &Params{
		descs: append([]ParamDescriptor(nil), descs...),
		cells: make([]bridge.Cell, len(descs)),
		index: make(map[string]int, len(descs)),
	}

	for i, d := range p.descs {
		p.index[d.ID] = i
		p.cells[i].Store(d.Clamp(d.Default))
	}

	return p
}

// Len returns the number of parameters.
func (p *Params) Len() int { return len(p.descs) }

// Index returns the position of parameter id.
func (p *Params) Index(id string) (int, bool) {
	i, ok := p.index[id]
	return i, ok
}

// Value returns the current value of the parameter at index i, or 0 when i
// is out of range. Safe on the render thread.
func (p *Params) Value(i int) float64 {
	if i < 0 || i >= len(p.cells) {
		return 0
	}

	return p.cells[i].Load()
}

// Get returns the current value of parameter id.
func (p *Params) Get(id string) (float64, bool) {
	i, ok := p.index[id]
	if !ok {
		return 0, false
	}

	return p.cells[i].Load(), true
}

// Set clamps v to the parameter range and stores it.
func (p *Params) Set(id string, v float64) error {
	i, ok := p.index[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownParam, id)
	}

	p.cells[i].Store(p.descs[i].Clamp(v))

	return nil
}

// Values returns a copy of all current values keyed by parameter id.
func (p *Params) Values() map[string]float64 {
	out := make(map[string]float64, len(p.descs))
	for i, d := range p.descs {
		out[d.ID] = p.cells[i].Load()
	}

	return out
}

// Reset restores every parameter to its default.
func (p *Params) Reset() {
	for i, d := range p.descs {
		p.cells[i].Store(d.Clamp(d.Default))
	}
}
