package graph

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strconv"

	"github.com/google/uuid"

	"github.com/cwbudde/algo-modsynth/synth/node"
)

// NodeID is the stable logical identity of a node. It survives snapshot
// round trips and is independent of any internal index.
type NodeID string

// ConnectionID identifies a connection within one store.
type ConnectionID uint64

// Connection is a directed edge from an output channel to an input channel.
// Channels are flat indices (see node.Ports).
type Connection struct {
	ID       ConnectionID
	Src      NodeID
	SrcChan  int
	Dst      NodeID
	DstChan  int
	Feedback bool
}

type entry struct {
	kind string
	node node.Node
}

type endpoint struct {
	node NodeID
	ch   int
}

// Option configures a Store.
type Option func(*Store)

// WithGate shares g with the render scheduler.
func WithGate(g *Gate) Option {
	return func(s *Store) {
		if g != nil {
			s.gate = g
		}
	}
}

// WithIDGenerator replaces the default uuid node ids.
func WithIDGenerator(fn func() NodeID) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// SequentialIDs returns a generator producing prefix1, prefix2, ...
func SequentialIDs(prefix string) func() NodeID {
	n := 0

	return func() NodeID {
		n++
		return NodeID(prefix + strconv.Itoa(n))
	}
}

// Store owns all nodes and connections of a graph.
//
// Store is not safe for concurrent use; it belongs to the control thread.
type Store struct {
	registry *node.Registry
	ctx      node.Context
	gate     *Gate
	newID    func() NodeID
	logger   *slog.Logger

	nodes    map[NodeID]*entry
	ids      []NodeID
	conns    map[ConnectionID]Connection
	incoming map[endpoint]ConnectionID
	nextConn ConnectionID
	version  uint64
}

// New creates an empty store whose nodes are built by registry and prepared
// with ctx.
func New(registry *node.Registry, ctx node.Context, opts ...Option) *Store {
	s := &Store{
		registry: registry,
		ctx:      ctx,
		gate:     &Gate{},
		newID:    func() NodeID { return NodeID(uuid.NewString()) },
		logger:   slog.Default(),
		nodes:    make(map[NodeID]*entry),
		conns:    make(map[ConnectionID]Connection),
		incoming: make(map[endpoint]ConnectionID),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Context returns the context nodes are prepared with.
func (s *Store) Context() node.Context { return s.ctx }

// Registry returns the kind registry.
func (s *Store) Registry() *node.Registry { return s.registry }

// Gate returns the gate guarding mutations.
func (s *Store) Gate() *Gate { return s.gate }

// UseGate replaces the gate, used when a detached store built during a
// restore takes over from the live one.
func (s *Store) UseGate(g *Gate) {
	if g != nil {
		s.gate = g
	}
}

// Version increases on every successful mutation.
func (s *Store) Version() uint64 { return s.version }

func (s *Store) lock() error {
	if !s.gate.TryLock() {
		return ErrRenderInFlight
	}

	return nil
}

// AddNode creates a node of the given kind under a fresh id.
func (s *Store) AddNode(kind string) (NodeID, error) {
	id := s.newID()
	for s.nodes[id] != nil {
		id = s.newID()
	}

	err := s.AddNodeWithID(id, kind)
	if err != nil {
		return "", err
	}

	return id, nil
}

// AddNodeWithID creates a node of the given kind under id.
func (s *Store) AddNodeWithID(id NodeID, kind string) error {
	if _, exists := s.nodes[id]; exists {
		return fmt.Errorf("graph: add %s: %w", id, ErrDuplicateNode)
	}

	n, err := s.registry.New(kind, s.ctx)
	if err != nil {
		return fmt.Errorf("graph: add %s: %w", id, err)
	}

	return s.Insert(id, kind, n)
}

// Insert adds an already built and prepared node.
func (s *Store) Insert(id NodeID, kind string, n node.Node) error {
	if id == "" {
		return fmt.Errorf("graph: insert: empty node id")
	}

	if _, exists := s.nodes[id]; exists {
		return fmt.Errorf("graph: insert %s: %w", id, ErrDuplicateNode)
	}

	err := s.lock()
	if err != nil {
		return err
	}
	defer s.gate.Unlock()

	s.nodes[id] = &entry{kind: kind, node: n}
	s.ids = append(s.ids, id)
	s.version++

	s.logger.Debug("node added", slog.String("node", string(id)), slog.String("kind", kind))

	return nil
}

// RemoveNode deletes a node and every connection touching it.
func (s *Store) RemoveNode(id NodeID) error {
	if _, ok := s.nodes[id]; !ok {
		return fmt.Errorf("graph: remove %s: %w", id, ErrUnknownNode)
	}

	err := s.lock()
	if err != nil {
		return err
	}
	defer s.gate.Unlock()

	for cid, c := range s.conns {
		if c.Src == id || c.Dst == id {
			s.dropConnection(cid)
		}
	}

	delete(s.nodes, id)
	s.ids = slices.DeleteFunc(s.ids, func(v NodeID) bool { return v == id })
	s.version++

	s.logger.Debug("node removed", slog.String("node", string(id)))

	return nil
}

// Connect adds a connection from output srcChan of src to input dstChan of
// dst. Failures are *RoutingError values.
func (s *Store) Connect(src NodeID, srcChan int, dst NodeID, dstChan int) (ConnectionID, error) {
	return s.connect(Connection{Src: src, SrcChan: srcChan, Dst: dst, DstChan: dstChan}, false)
}

// Reconnect adds c keeping its feedback classification instead of deriving
// it from the current graph. It is used when a graph is rebuilt from saved
// state, where connections replay without the history that classified them.
// A feedback edge must target a CV input; a non-feedback edge must not close
// a cycle. A non-zero c.ID is kept; ids handed out later are larger.
func (s *Store) Reconnect(c Connection) (ConnectionID, error) {
	return s.connect(c, true)
}

func (s *Store) connect(c Connection, keep bool) (ConnectionID, error) {
	rerr := func(err error, detail string) error {
		return &RoutingError{Err: err, Src: c.Src, SrcChan: c.SrcChan, Dst: c.Dst, DstChan: c.DstChan, Detail: detail}
	}

	se, ok := s.nodes[c.Src]
	if !ok {
		return 0, rerr(ErrUnknownNode, "source")
	}

	de, ok := s.nodes[c.Dst]
	if !ok {
		return 0, rerr(ErrUnknownNode, "destination")
	}

	out, ok := se.node.Ports().Output(c.SrcChan)
	if !ok {
		return 0, rerr(ErrUnknownChannel, "source output")
	}

	in, ok := de.node.Ports().Input(c.DstChan)
	if !ok {
		return 0, rerr(ErrUnknownChannel, "destination input")
	}

	if !node.Compatible(out.Type, in.Type) {
		return 0, rerr(ErrChannelTypeMismatch, out.Type.String()+" -> "+in.Type.String())
	}

	if _, occupied := s.incoming[endpoint{c.Dst, c.DstChan}]; occupied {
		return 0, rerr(ErrDestinationOccupied, "")
	}

	if _, dup := s.conns[c.ID]; keep && dup {
		return 0, fmt.Errorf("graph: reconnect %d: %w", c.ID, ErrDuplicateConnection)
	}

	closes := c.Src == c.Dst || s.reaches(c.Dst, c.Src)
	if !keep {
		c.Feedback = closes
	}

	if (closes && !c.Feedback) || (c.Feedback && !in.Type.IsModulation()) {
		return 0, rerr(ErrWouldCreateCycle, in.Type.String()+" input")
	}

	err := s.lock()
	if err != nil {
		return 0, err
	}
	defer s.gate.Unlock()

	if !keep || c.ID == 0 {
		s.nextConn++
		c.ID = s.nextConn
	}

	s.nextConn = max(s.nextConn, c.ID)
	s.conns[c.ID] = c
	s.incoming[endpoint{c.Dst, c.DstChan}] = c.ID
	s.version++

	s.logger.Debug("connected",
		slog.String("src", string(c.Src)), slog.Int("src_chan", c.SrcChan),
		slog.String("dst", string(c.Dst)), slog.Int("dst_chan", c.DstChan),
		slog.Bool("feedback", c.Feedback),
	)

	return c.ID, nil
}

// LastConnectionID returns the most recently assigned connection id.
func (s *Store) LastConnectionID() ConnectionID { return s.nextConn }

// ReserveConnectionIDs makes every later connection id larger than id, so
// ids of removed connections are not handed out again after a restore.
func (s *Store) ReserveConnectionIDs(id ConnectionID) {
	s.nextConn = max(s.nextConn, id)
}

// Disconnect removes a connection.
func (s *Store) Disconnect(id ConnectionID) error {
	if _, ok := s.conns[id]; !ok {
		return fmt.Errorf("graph: disconnect %d: %w", id, ErrUnknownConnection)
	}

	err := s.lock()
	if err != nil {
		return err
	}
	defer s.gate.Unlock()

	s.dropConnection(id)
	s.version++

	return nil
}

func (s *Store) dropConnection(id ConnectionID) {
	c := s.conns[id]
	delete(s.conns, id)
	delete(s.incoming, endpoint{c.Dst, c.DstChan})
}

// Node returns the node with the given id.
func (s *Store) Node(id NodeID) (node.Node, bool) {
	e, ok := s.nodes[id]
	if !ok {
		return nil, false
	}

	return e.node, true
}

// Kind returns the kind name of a node.
func (s *Store) Kind(id NodeID) (string, bool) {
	e, ok := s.nodes[id]
	if !ok {
		return "", false
	}

	return e.kind, true
}

// Nodes returns all node ids in insertion order.
func (s *Store) Nodes() []NodeID {
	return slices.Clone(s.ids)
}

// Len returns the number of nodes.
func (s *Store) Len() int { return len(s.ids) }

// Connections returns all connections ordered by id.
func (s *Store) Connections() []Connection {
	out := make([]Connection, 0, len(s.conns))
	for _, c := range s.conns {
		out = append(out, c)
	}

	slices.SortFunc(out, func(a, b Connection) int { return cmp.Compare(a.ID, b.ID) })

	return out
}

// Connection returns the connection with the given id.
func (s *Store) Connection(id ConnectionID) (Connection, bool) {
	c, ok := s.conns[id]
	return c, ok
}

// Incoming returns the connection terminating at input ch of dst.
func (s *Store) Incoming(dst NodeID, ch int) (Connection, bool) {
	id, ok := s.incoming[endpoint{dst, ch}]
	if !ok {
		return Connection{}, false
	}

	return s.conns[id], true
}
