package snapshot

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

// GraphVersion is the graph state document version written by EncodeGraph.
const GraphVersion = 1

type nodeState struct {
	ID     graph.NodeID       `json:"id"`
	Kind   string             `json:"kind"`
	Params map[string]float64 `json:"params,omitempty"`
	State  []byte             `json:"state,omitempty"`
}

type connectionState struct {
	ID       graph.ConnectionID `json:"id,omitempty"`
	Src      graph.NodeID       `json:"src"`
	SrcChan  int                `json:"srcChan"` //nolint:tagliatelle
	Dst      graph.NodeID       `json:"dst"`
	DstChan  int                `json:"dstChan"` //nolint:tagliatelle
	Feedback bool               `json:"feedback,omitempty"`
}

type graphState struct {
	Version     int               `json:"version"`
	Nodes       []nodeState       `json:"nodes"`
	Connections []connectionState `json:"connections"`
	// LastConnection is the store's id counter; removed ids stay retired.
	LastConnection graph.ConnectionID `json:"lastConnection,omitempty"` //nolint:tagliatelle
}

// EncodeGraph serializes every node, parameter value, private node state and
// connection of store.
func EncodeGraph(store *graph.Store) ([]byte, error) {
	state := graphState{
		Version:        GraphVersion,
		Nodes:          make([]nodeState, 0, store.Len()),
		Connections:    []connectionState{},
		LastConnection: store.LastConnectionID(),
	}

	for _, id := range store.Nodes() {
		n, _ := store.Node(id)
		kind, _ := store.Kind(id)

		extra, err := n.MarshalState()
		if err != nil {
			return nil, fmt.Errorf("snapshot: encode %s: %w", id, err)
		}

		ns := nodeState{ID: id, Kind: kind, State: extra}
		if n.Params().Len() > 0 {
			ns.Params = n.Params().Values()
		}

		state.Nodes = append(state.Nodes, ns)
	}

	for _, c := range store.Connections() {
		state.Connections = append(state.Connections, connectionState{
			ID:       c.ID,
			Src:      c.Src,
			SrcChan:  c.SrcChan,
			Dst:      c.Dst,
			DstChan:  c.DstChan,
			Feedback: c.Feedback,
		})
	}

	data, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}

	return data, nil
}

// DecodeGraph builds a new store from data. Nodes are created through
// registry and prepared with ctx; opts configure the new store. Nothing is
// returned unless every node and connection was restored.
func DecodeGraph(data []byte, registry *node.Registry, ctx node.Context, opts ...graph.Option) (*graph.Store, error) {
	var state graphState

	err := json.Unmarshal(data, &state)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
	}

	if state.Version != GraphVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, state.Version)
	}

	store := graph.New(registry, ctx, opts...)

	for _, ns := range state.Nodes {
		err = decodeNode(store, ns)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
		}
	}

	for _, cs := range state.Connections {
		_, err = store.Reconnect(graph.Connection{
			ID:       cs.ID,
			Src:      cs.Src,
			SrcChan:  cs.SrcChan,
			Dst:      cs.Dst,
			DstChan:  cs.DstChan,
			Feedback: cs.Feedback,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorruptState, err)
		}
	}

	store.ReserveConnectionIDs(state.LastConnection)

	return store, nil
}

func decodeNode(store *graph.Store, ns nodeState) error {
	err := store.AddNodeWithID(ns.ID, ns.Kind)
	if err != nil {
		return err
	}

	n, _ := store.Node(ns.ID)

	for id, v := range ns.Params {
		err = n.Params().Set(id, v)
		if err != nil {
			return fmt.Errorf("node %s: %w", ns.ID, err)
		}
	}

	err = n.UnmarshalState(ns.State)
	if err != nil {
		return fmt.Errorf("node %s: %w", ns.ID, err)
	}

	return nil
}
