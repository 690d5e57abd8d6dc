package node

import (
	"errors"
	"fmt"
)

// ErrUnexpectedState is returned by Base.UnmarshalState for kinds without
// private state when they are handed a non-empty blob.
var ErrUnexpectedState = errors.New("node has no private state")

// Spec declares the descriptive half of a node kind.
type Spec struct {
	Ports  Ports
	Params []ParamDescriptor
	// Routes maps each ParamDescriptor.ModID to an input channel.
	Routes    map[string]Route
	Telemetry []string
}

// Base implements Node except for Prepare and Render.
type Base struct {
	ports     Ports
	descs     []ParamDescriptor
	params    *Params
	routes    map[string]Route
	flat      map[string]int
	telemetry *Telemetry
}

// Init validates spec and initializes b. Every ModID must have a route and
// every route must point at an existing input channel.
func (b *Base) Init(spec Spec) error {
	flat := make(map[string]int, len(spec.Routes))

	for id, r := range spec.Routes {
		i, ok := spec.Ports.InputIndex(r)
		if !ok {
			return fmt.Errorf("node: route %q points at missing input %d/%d", id, r.Bus, r.Channel)
		}

		flat[id] = i
	}

	for _, d := range spec.Params {
		if d.Min > d.Max {
			return fmt.Errorf("node: parameter %q has min > max", d.ID)
		}

		if d.ModID == "" {
			continue
		}

		if _, ok := flat[d.ModID]; !ok {
			return fmt.Errorf("node: parameter %q: modulation id %q has no route", d.ID, d.ModID)
		}
	}

	b.ports = spec.Ports
	b.descs = append([]ParamDescriptor(nil), spec.Params...)
	b.params = NewParams(spec.Params)
	b.routes = spec.Routes
	b.flat = flat
	b.telemetry = NewTelemetry(append([]string{TelemetryPeak}, spec.Telemetry...)...)

	return nil
}

// Ports implements Node.
func (b *Base) Ports() Ports { return b.ports }

// Parameters implements Node. The returned slice is a copy.
func (b *Base) Parameters() []ParamDescriptor {
	return append([]ParamDescriptor(nil), b.descs...)
}

// Params implements Node.
func (b *Base) Params() *Params { return b.params }

// ModulationRoute implements Node.
func (b *Base) ModulationRoute(virtualID string) (Route, bool) {
	r, ok := b.routes[virtualID]
	return r, ok
}

// Telemetry implements Node.
func (b *Base) Telemetry() *Telemetry { return b.telemetry }

// MarshalState implements Node for kinds without private state.
func (b *Base) MarshalState() ([]byte, error) { return nil, nil }

// UnmarshalState implements Node for kinds without private state.
func (b *Base) UnmarshalState(data []byte) error {
	if len(data) != 0 {
		return ErrUnexpectedState
	}

	return nil
}

// Modulation returns the input slice behind virtualID when a connection
// drives it in this block. Safe on the render thread.
func (b *Base) Modulation(blk *Block, virtualID string) ([]float64, bool) {
	i, ok := b.flat[virtualID]
	if !ok || !blk.IsConnected(i) || i >= len(blk.In) {
		return nil, false
	}

	return blk.In[i], true
}

// Param returns the current value of the parameter at index i.
func (b *Base) Param(i int) float64 { return b.params.Value(i) }
