// Package route resolves virtual modulation identifiers to input channels
// and reports whether a connection drives them.
//
// Resolution is two steps: the node maps the identifier to a (bus, channel)
// route, then the store is asked for a connection terminating there. The
// router keeps no state of its own, so its answers always match the store's
// current connection set.
package route

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

// ErrNoRoute is returned when a node does not declare the virtual
// modulation identifier.
var ErrNoRoute = errors.New("no modulation route")

// Router answers modulation queries against a graph store.
type Router struct {
	store *graph.Store
}

// New returns a Router reading from store.
func New(store *graph.Store) *Router {
	return &Router{store: store}
}

// Resolve returns the route behind virtualID on node id and its flat input
// index.
func (r *Router) Resolve(id graph.NodeID, virtualID string) (node.Route, int, error) {
	n, ok := r.store.Node(id)
	if !ok {
		return node.Route{}, 0, fmt.Errorf("route: resolve %s/%s: %w", id, virtualID, graph.ErrUnknownNode)
	}

	rt, ok := n.ModulationRoute(virtualID)
	if !ok {
		return node.Route{}, 0, fmt.Errorf("route: resolve %s/%s: %w", id, virtualID, ErrNoRoute)
	}

	flat, ok := n.Ports().InputIndex(rt)
	if !ok {
		return node.Route{}, 0, fmt.Errorf("route: resolve %s/%s: %w", id, virtualID, graph.ErrUnknownChannel)
	}

	return rt, flat, nil
}

// IsConnected reports whether a connection terminates at the channel
// virtualID resolves to.
func (r *Router) IsConnected(id graph.NodeID, virtualID string) (bool, error) {
	_, ok, err := r.Source(id, virtualID)
	return ok, err
}

// Source returns the connection driving virtualID.
func (r *Router) Source(id graph.NodeID, virtualID string) (graph.Connection, bool, error) {
	_, flat, err := r.Resolve(id, virtualID)
	if err != nil {
		return graph.Connection{}, false, err
	}

	c, ok := r.store.Incoming(id, flat)

	return c, ok, nil
}

// Status describes one modulatable parameter of a node.
type Status struct {
	Param     string
	ModID     string
	Route     node.Route
	Input     int
	Connected bool
	Source    graph.Connection
}

// Modulations lists every modulatable parameter of node id in declaration
// order.
func (r *Router) Modulations(id graph.NodeID) ([]Status, error) {
	n, ok := r.store.Node(id)
	if !ok {
		return nil, fmt.Errorf("route: modulations %s: %w", id, graph.ErrUnknownNode)
	}

	var out []Status

	for _, d := range n.Parameters() {
		if d.ModID == "" {
			continue
		}

		rt, flat, err := r.Resolve(id, d.ModID)
		if err != nil {
			return nil, err
		}

		c, connected := r.store.Incoming(id, flat)
		out = append(out, Status{
			Param:     d.ID,
			ModID:     d.ModID,
			Route:     rt,
			Input:     flat,
			Connected: connected,
			Source:    c,
		})
	}

	return out, nil
}
