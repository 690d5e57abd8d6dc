package patch

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-modsynth/synth/engine"
	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/snapshot"
)

// ErrInvalid is returned for patch files that do not describe a valid graph.
var ErrInvalid = errors.New("patch: invalid patch")

// Node is one node entry of a patch file.
type Node struct {
	ID     graph.NodeID       `yaml:"id"`
	Kind   string             `yaml:"kind"`
	Params map[string]float64 `yaml:"params,omitempty"`
	X      float64            `yaml:"x"`
	Y      float64            `yaml:"y"`
	Muted  bool               `yaml:"muted,omitempty"`

	Selected  bool `yaml:"selected,omitempty"`
	Collapsed bool `yaml:"collapsed,omitempty"`
}

// Connection is one connection entry of a patch file. Feedback may be left
// unset in hand-written files; a CV connection closing a loop is detected.
type Connection struct {
	From     graph.NodeID `yaml:"from"`
	FromChan int          `yaml:"from_chan"`
	To       graph.NodeID `yaml:"to"`
	ToChan   int          `yaml:"to_chan"`
	Feedback bool         `yaml:"feedback,omitempty"`
}

// File is a patch document.
type File struct {
	Name        string       `yaml:"name,omitempty"`
	Nodes       []Node       `yaml:"nodes"`
	Connections []Connection `yaml:"connections"`
}

// Parse decodes a patch document. Unknown keys are rejected.
func Parse(data []byte) (*File, error) {
	var f File

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	err := dec.Decode(&f)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("patch: parse: %w", err)
	}

	return &f, nil
}

// Load reads and parses a patch file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("patch: load: %w", err)
	}

	return Parse(data)
}

// Marshal encodes f as YAML.
func Marshal(f *File) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	err := enc.Encode(f)
	if err != nil {
		return nil, fmt.Errorf("patch: encode: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("patch: encode: %w", err)
	}

	return buf.Bytes(), nil
}

// Save writes f to path.
func Save(path string, f *File) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("patch: save: %w", err)
	}

	return nil
}

// Build checks f against the engine's registry and returns the encoded
// graph state and layout it describes.
func Build(e *engine.Engine, f *File) ([]byte, *snapshot.Layout, error) {
	store := graph.New(e.Registry(), e.Context())
	layout := snapshot.NewLayout()

	for _, n := range f.Nodes {
		if n.ID == "" {
			return nil, nil, fmt.Errorf("%w: node of kind %q has no id", ErrInvalid, n.Kind)
		}

		err := store.AddNodeWithID(n.ID, n.Kind)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}

		err = setParams(store, n)
		if err != nil {
			return nil, nil, err
		}

		layout.Set(n.ID, placement(n))
	}

	for _, c := range f.Connections {
		_, err := link(store.Connect, store.Reconnect, connection(c))
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}

	data, err := snapshot.EncodeGraph(store)
	if err != nil {
		return nil, nil, err
	}

	return data, layout, nil
}

// Apply replaces the engine's graph with f and starts a new history. On
// error the engine is unchanged.
func Apply(e *engine.Engine, f *File) error {
	data, layout, err := Build(e, f)
	if err != nil {
		return err
	}

	label := f.Name
	if label == "" {
		label = "load patch"
	}

	return e.LoadGraph(data, layout, label)
}

// Insert returns a request adding the nodes and connections of f to the
// current graph. Nodes get fresh ids; f's ids only name connection ends.
func Insert(f *File) engine.Request {
	label := "insert patch"
	if f.Name != "" {
		label = "insert " + f.Name
	}

	return engine.Func(label, func(tx *engine.Tx) error {
		ids := make(map[graph.NodeID]graph.NodeID, len(f.Nodes))

		for _, n := range f.Nodes {
			id, err := tx.AddNode(n.Kind)
			if err != nil {
				return err
			}

			ids[n.ID] = id

			for param, v := range n.Params {
				err = tx.SetParam(id, param, v)
				if err != nil {
					return err
				}
			}

			err = tx.SetPlacement(id, placement(n))
			if err != nil {
				return err
			}
		}

		for _, c := range f.Connections {
			gc := connection(c)
			gc.Src, gc.Dst = ids[c.From], ids[c.To]

			if gc.Src == "" || gc.Dst == "" {
				return fmt.Errorf("%w: connection %s -> %s names an unknown node", ErrInvalid, c.From, c.To)
			}

			_, err := link(tx.Connect, tx.Reconnect, gc)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// FromEngine describes the engine's current graph and layout. Nodes are
// listed in insertion order and connections in creation order.
func FromEngine(e *engine.Engine) *File {
	store := e.Store()
	layout := e.Layout()

	f := &File{
		Nodes:       make([]Node, 0, store.Len()),
		Connections: []Connection{},
	}

	for _, id := range store.Nodes() {
		n, _ := store.Node(id)
		kind, _ := store.Kind(id)
		p, _ := layout.Get(id)

		entry := Node{
			ID: id, Kind: kind,
			X: p.X, Y: p.Y,
			Muted: p.Muted, Selected: p.Selected, Collapsed: p.Collapsed,
		}
		if n.Params().Len() > 0 {
			entry.Params = n.Params().Values()
		}

		f.Nodes = append(f.Nodes, entry)
	}

	for _, c := range store.Connections() {
		f.Connections = append(f.Connections, Connection{
			From:     c.Src,
			FromChan: c.SrcChan,
			To:       c.Dst,
			ToChan:   c.DstChan,
			Feedback: c.Feedback,
		})
	}

	return f
}

func setParams(store *graph.Store, n Node) error {
	gn, _ := store.Node(n.ID)

	for param, v := range n.Params {
		err := gn.Params().Set(param, v)
		if err != nil {
			return fmt.Errorf("%w: node %s: %w", ErrInvalid, n.ID, err)
		}
	}

	return nil
}

// link adds c. Connections marked as feedback keep that classification;
// the rest are classified as they are added.
func link(
	connect func(graph.NodeID, int, graph.NodeID, int) (graph.ConnectionID, error),
	reconnect func(graph.Connection) (graph.ConnectionID, error),
	c graph.Connection,
) (graph.ConnectionID, error) {
	if c.Feedback {
		return reconnect(c)
	}

	return connect(c.Src, c.SrcChan, c.Dst, c.DstChan)
}

func placement(n Node) snapshot.Placement {
	return snapshot.Placement{X: n.X, Y: n.Y, Muted: n.Muted, Selected: n.Selected, Collapsed: n.Collapsed}
}

func connection(c Connection) graph.Connection {
	return graph.Connection{
		Src:      c.From,
		SrcChan:  c.FromChan,
		Dst:      c.To,
		DstChan:  c.ToChan,
		Feedback: c.Feedback,
	}
}
