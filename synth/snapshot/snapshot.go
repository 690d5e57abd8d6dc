package snapshot

import (
	"bytes"
	"slices"
	"time"
)

// Snapshot is an immutable capture of graph and layout state.
type Snapshot struct {
	graph  []byte
	layout *Layout
	label  string
	taken  time.Time
}

// New returns a snapshot holding copies of graphState and layout.
func New(graphState []byte, layout *Layout, label string, taken time.Time) *Snapshot {
	return &Snapshot{
		graph:  slices.Clone(graphState),
		layout: layout.Clone(),
		label:  label,
		taken:  taken,
	}
}

// GraphState returns a copy of the encoded graph state.
func (s *Snapshot) GraphState() []byte { return slices.Clone(s.graph) }

// Layout returns a copy of the captured layout.
func (s *Snapshot) Layout() *Layout { return s.layout.Clone() }

// Label names the user action the snapshot was taken after.
func (s *Snapshot) Label() string { return s.label }

// Taken returns the capture time.
func (s *Snapshot) Taken() time.Time { return s.taken }

// Equal reports whether both snapshots hold the same graph and layout
// state. Labels and times are ignored.
func (s *Snapshot) Equal(o *Snapshot) bool {
	return bytes.Equal(s.graph, o.graph) && s.layout.Equal(o.layout)
}
