package engine

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/snapshot"
)

// Request is a multi-step graph edit applied by Poll as one undoable unit.
type Request interface {
	// Label names the edit in the history.
	Label() string
	// Apply performs the edit. Returning an error rolls back every step.
	Apply(tx *Tx) error
}

// Tx is the mutation view a Request applies through. Its changes reach the
// render thread in a single commit after Apply returns.
type Tx struct {
	e *Engine
}

// Store returns the graph being edited, for reading.
func (tx *Tx) Store() *graph.Store { return tx.e.store }

// AddNode creates a node of the given kind.
func (tx *Tx) AddNode(kind string) (graph.NodeID, error) {
	return retryValue(tx.e, func() (graph.NodeID, error) { return tx.e.store.AddNode(kind) })
}

// RemoveNode deletes a node, its connections and its placement.
func (tx *Tx) RemoveNode(id graph.NodeID) error {
	err := tx.e.retry(func() error { return tx.e.store.RemoveNode(id) })
	if err != nil {
		return err
	}

	tx.e.layout.Delete(id)

	return nil
}

// Connect adds a connection.
func (tx *Tx) Connect(src graph.NodeID, srcChan int, dst graph.NodeID, dstChan int) (graph.ConnectionID, error) {
	return retryValue(tx.e, func() (graph.ConnectionID, error) {
		return tx.e.store.Connect(src, srcChan, dst, dstChan)
	})
}

// Reconnect adds c keeping its feedback classification. See
// graph.Store.Reconnect.
func (tx *Tx) Reconnect(c graph.Connection) (graph.ConnectionID, error) {
	return retryValue(tx.e, func() (graph.ConnectionID, error) { return tx.e.store.Reconnect(c) })
}

// Disconnect removes a connection.
func (tx *Tx) Disconnect(id graph.ConnectionID) error {
	return tx.e.retry(func() error { return tx.e.store.Disconnect(id) })
}

// SetParam sets a parameter value.
func (tx *Tx) SetParam(id graph.NodeID, param string, v float64) error {
	return tx.e.SetParam(id, param, v)
}

// SetPlacement sets the visual placement of a node.
func (tx *Tx) SetPlacement(id graph.NodeID, p snapshot.Placement) error {
	return tx.e.SetPlacement(id, p)
}

// ChainSpacing is the horizontal distance between nodes placed by Chain.
const ChainSpacing = 160

type chain struct {
	label string
	kinds []string
}

// Chain returns a request that creates one node per kind and wires output 0
// of each node to input 0 of the next. Nodes are placed in a row.
func Chain(label string, kinds ...string) Request {
	return chain{label: label, kinds: kinds}
}

func (c chain) Label() string { return c.label }

func (c chain) Apply(tx *Tx) error {
	if len(c.kinds) == 0 {
		return errors.New("engine: chain: no kinds")
	}

	var prev graph.NodeID

	for i, kind := range c.kinds {
		id, err := tx.AddNode(kind)
		if err != nil {
			return err
		}

		err = tx.SetPlacement(id, snapshot.Placement{X: float64(i * ChainSpacing)})
		if err != nil {
			return err
		}

		if prev != "" {
			_, err = tx.Connect(prev, 0, id, 0)
			if err != nil {
				return fmt.Errorf("engine: chain %s -> %s: %w", prev, id, err)
			}
		}

		prev = id
	}

	return nil
}

type funcRequest struct {
	label string
	fn    func(*Tx) error
}

// Func wraps fn as a request.
func Func(label string, fn func(*Tx) error) Request {
	return funcRequest{label: label, fn: fn}
}

func (f funcRequest) Label() string { return f.label }

func (f funcRequest) Apply(tx *Tx) error { return f.fn(tx) }

// Request queues r for the next Poll. It reports false when the queue is
// full. Request never blocks.
func (e *Engine) Request(r Request) bool {
	if r == nil {
		return false
	}

	ok := e.requests.Push(r)
	if !ok {
		e.metrics.RequestRejected()
		e.logger.Warn("request queue full", "label", r.Label())
	}

	return ok
}
