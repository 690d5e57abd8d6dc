package node

import "github.com/cwbudde/algo-modsynth/synth/bridge"

// TelemetryPeak is the telemetry key the scheduler publishes every block:
// the absolute peak over all output channels.
const TelemetryPeak = "peak"

// Telemetry is a fixed set of named live values a node publishes from the
// render thread.
type Telemetry struct {
	names []string
	cells []bridge.Cell
	index map[string]int
}

// NewTelemetry returns a Telemetry with one cell per distinct name.
func NewTelemetry(names ...string) *Telemetry {
	t := &Telemetry{index: make(map[string]int, len(names))}
	for _, name := range names {
		if _, dup := t.index[name]; dup {
			continue
		}

		t.index[name] = len(t.names)
		t.names = append(t.names, name)
	}

	t.cells = make([]bridge.Cell, len(t.names))

	return t
}

// Cell returns the cell at index i. Kinds resolve indices once and publish
// through the cell directly on the render thread.
func (t *Telemetry) Cell(i int) *bridge.Cell {
	return &t.cells[i]
}

// Lookup returns the cell named name.
func (t *Telemetry) Lookup(name string) (*bridge.Cell, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}

	return &t.cells[i], true
}

// Names returns the published value names in declaration order.
func (t *Telemetry) Names() []string {
	return append([]string(nil), t.names...)
}

// Read returns the latest value of every cell. Values may be one block old.
func (t *Telemetry) Read() map[string]float64 {
	out := make(map[string]float64, len(t.names))
	for i, name := range t.names {
		out[name] = t.cells[i].Load()
	}

	return out
}
