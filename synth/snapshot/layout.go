package snapshot

import (
	"maps"

	"github.com/cwbudde/algo-modsynth/synth/graph"
)

// Placement is the visual state of one node.
type Placement struct {
	X         float64 `json:"x"                   yaml:"x"`
	Y         float64 `json:"y"                   yaml:"y"`
	Muted     bool    `json:"muted,omitempty"     yaml:"muted,omitempty"`
	Selected  bool    `json:"selected,omitempty"  yaml:"selected,omitempty"`
	Collapsed bool    `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
}

// Layout holds placements keyed by node id. It is independent of graph
// state. The zero value is an empty layout.
type Layout struct {
	Nodes map[graph.NodeID]Placement `json:"nodes" yaml:"nodes"`
}

// NewLayout returns an empty layout.
func NewLayout() *Layout {
	return &Layout{Nodes: make(map[graph.NodeID]Placement)}
}

// Set stores the placement of id.
func (l *Layout) Set(id graph.NodeID, p Placement) {
	if l.Nodes == nil {
		l.Nodes = make(map[graph.NodeID]Placement)
	}

	l.Nodes[id] = p
}

// Get returns the placement of id.
func (l *Layout) Get(id graph.NodeID) (Placement, bool) {
	if l == nil {
		return Placement{}, false
	}

	p, ok := l.Nodes[id]

	return p, ok
}

// Delete removes the placement of id.
func (l *Layout) Delete(id graph.NodeID) {
	delete(l.Nodes, id)
}

// Len returns the number of placed nodes.
func (l *Layout) Len() int {
	if l == nil {
		return 0
	}

	return len(l.Nodes)
}

// Clone returns a deep copy. Cloning nil yields an empty layout.
func (l *Layout) Clone() *Layout {
	out := NewLayout()
	if l != nil {
		maps.Copy(out.Nodes, l.Nodes)
	}

	return out
}

// Equal reports whether both layouts hold the same placements.
func (l *Layout) Equal(o *Layout) bool {
	if l.Len() != o.Len() {
		return false
	}

	if l.Len() == 0 {
		return true
	}

	return maps.Equal(l.Nodes, o.Nodes)
}
