package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/node"
	"github.com/cwbudde/algo-modsynth/synth/render"
	"github.com/cwbudde/algo-modsynth/synth/route"
	"github.com/cwbudde/algo-modsynth/synth/snapshot"
)

// ErrUnknownTelemetry is returned for telemetry keys a node does not publish.
var ErrUnknownTelemetry = errors.New("engine: unknown telemetry key")

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithClock replaces time.Now for snapshot times and poll durations.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator replaces the default uuid node ids.
func WithIDGenerator(fn func() graph.NodeID) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

// WithSchedulerOptions passes options to the render scheduler.
func WithSchedulerOptions(opts ...render.Option) Option {
	return func(e *Engine) {
		e.schedOpts = opts
	}
}

// Engine is a live synth graph.
type Engine struct {
	cfg       Config
	ctx       node.Context
	registry  *node.Registry
	logger    *slog.Logger
	metrics   Metrics
	now       func() time.Time
	newID     func() graph.NodeID
	schedOpts []render.Option
	window    time.Duration

	gate     *graph.Gate
	store    *graph.Store
	router   *route.Router
	layout   *snapshot.Layout
	faults   *bridge.FaultLog
	sched    *render.Scheduler
	requests *bridge.Ring[Request]
	history  *snapshot.Manager

	// publish is sched.Publish outside tests.
	publish func(*render.Plan) error
	// stale is set when the store no longer matches the published plan and
	// cleared by the next successful commit.
	stale bool
}

// New returns an engine with an empty graph whose nodes are built from
// registry. The empty graph is captured as the first snapshot.
func New(cfg Config, registry *node.Registry, opts ...Option) (*Engine, error) {
	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:      cfg,
		ctx:      cfg.Context(),
		registry: registry,
		logger:   slog.Default(),
		metrics:  nopMetrics{},
		now:      time.Now,
		gate:     &graph.Gate{},
		layout:   snapshot.NewLayout(),
		faults:   bridge.NewFaultLog(cfg.FaultLog),
		requests: bridge.NewRing[Request](cfg.RequestQueue),
	}

	for _, opt := range opts {
		opt(e)
	}

	// A render pass holds the gate for at most one block.
	block := time.Duration(float64(cfg.BlockSize) / cfg.SampleRate * float64(time.Second))
	e.window = max(4*block, 10*time.Millisecond)

	e.store = graph.New(registry, e.ctx, e.storeOptions(graph.WithGate(e.gate))...)
	e.router = route.New(e.store)
	e.sched = render.NewScheduler(e.gate, cfg.SampleRate, e.faults, e.schedOpts...)
	e.publish = e.sched.Publish
	e.history = snapshot.NewManager(
		workspace{e},
		snapshot.NewHistory(cfg.HistoryCapacity),
		snapshot.WithClock(e.now),
		snapshot.WithLogger(e.logger),
		snapshot.WithStoreOptions(e.storeOptions()...),
	)

	err = e.commit()
	if err != nil {
		return nil, err
	}

	_, err = e.history.Reset("new patch")
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (e *Engine) storeOptions(extra ...graph.Option) []graph.Option {
	opts := append([]graph.Option{graph.WithLogger(e.logger)}, extra...)
	if e.newID != nil {
		opts = append(opts, graph.WithIDGenerator(e.newID))
	}

	return opts
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Context returns the context nodes are prepared with.
func (e *Engine) Context() node.Context { return e.ctx }

// Registry returns the node kind registry.
func (e *Engine) Registry() *node.Registry { return e.registry }

// Store returns the live graph store. Mutating it directly bypasses plan
// publication; use the engine methods instead.
func (e *Engine) Store() *graph.Store { return e.store }

// History returns the undo/redo history.
func (e *Engine) History() *snapshot.History { return e.history.History() }

// Blocks returns the number of blocks rendered.
func (e *Engine) Blocks() uint64 { return e.sched.Blocks() }

// Process renders one block into out. It is the only method safe to call
// from the render thread. See render.Scheduler.Process.
func (e *Engine) Process(out [][]float64) int {
	return e.sched.Process(out)
}

// retry runs fn until it stops failing with graph.ErrRenderInFlight or the
// retry window has passed.
func (e *Engine) retry(fn func() error) error {
	deadline := time.Now().Add(e.window)

	for {
		err := fn()
		if !errors.Is(err, graph.ErrRenderInFlight) || time.Now().After(deadline) {
			return err
		}

		runtime.Gosched()
	}
}

// retryValue is retry for store calls that return a value.
func retryValue[T any](e *Engine, fn func() (T, error)) (T, error) {
	var v T

	err := e.retry(func() (err error) {
		v, err = fn()
		return err
	})

	return v, err
}

// commit compiles the live store and publishes the plan.
func (e *Engine) commit() error {
	plan, err := render.Compile(e.store)
	if err != nil {
		return fmt.Errorf("engine: commit: %w", err)
	}

	err = e.retry(func() error { return e.publish(plan) })
	if err != nil {
		return fmt.Errorf("engine: commit: %w", err)
	}

	e.stale = false

	return nil
}

// mutate applies an edit and commits it. When the commit fails, revert
// undoes the edit so the store keeps matching the plan being rendered. If
// the revert fails as well the engine stays stale until Poll republishes.
func (e *Engine) mutate(apply, revert func(tx *Tx) error) error {
	tx := &Tx{e: e}

	err := apply(tx)
	if err != nil {
		return err
	}

	err = e.commit()
	if err == nil {
		return nil
	}

	rerr := revert(tx)
	if rerr != nil {
		e.stale = true
		e.logger.Error("revert failed", slog.Any("error", rerr))

		return errors.Join(err, rerr)
	}

	return err
}

// AddNode creates a node of the given kind.
func (e *Engine) AddNode(kind string) (graph.NodeID, error) {
	var id graph.NodeID

	err := e.mutate(
		func(tx *Tx) (err error) {
			id, err = tx.AddNode(kind)
			return err
		},
		func(tx *Tx) error { return tx.RemoveNode(id) },
	)
	if err != nil {
		return "", err
	}

	return id, nil
}

// RemoveNode deletes a node, its connections and its placement. If the
// removal cannot be published the node is put back at the end of the
// insertion order.
func (e *Engine) RemoveNode(id graph.NodeID) error {
	n, _ := e.store.Node(id)
	kind, _ := e.store.Kind(id)
	p, placed := e.layout.Get(id)

	var conns []graph.Connection

	for _, c := range e.store.Connections() {
		if c.Src == id || c.Dst == id {
			conns = append(conns, c)
		}
	}

	return e.mutate(
		func(tx *Tx) error { return tx.RemoveNode(id) },
		func(tx *Tx) error {
			err := e.retry(func() error { return e.store.Insert(id, kind, n) })
			if err != nil {
				return err
			}

			for _, c := range conns {
				_, err = tx.Reconnect(c)
				if err != nil {
					return err
				}
			}

			if placed {
				e.layout.Set(id, p)
			}

			return nil
		},
	)
}

// Connect adds a connection. Failures are *graph.RoutingError values.
func (e *Engine) Connect(src graph.NodeID, srcChan int, dst graph.NodeID, dstChan int) (graph.ConnectionID, error) {
	var cid graph.ConnectionID

	err := e.mutate(
		func(tx *Tx) (err error) {
			cid, err = tx.Connect(src, srcChan, dst, dstChan)
			return err
		},
		func(tx *Tx) error { return tx.Disconnect(cid) },
	)
	if err != nil {
		return 0, err
	}

	return cid, nil
}

// Disconnect removes a connection.
func (e *Engine) Disconnect(id graph.ConnectionID) error {
	c, _ := e.store.Connection(id)

	return e.mutate(
		func(tx *Tx) error { return tx.Disconnect(id) },
		func(tx *Tx) error {
			_, err := tx.Reconnect(c)
			return err
		},
	)
}

// SetParam sets a parameter. The value is clamped to the parameter range
// and is picked up by the next block without a commit.
func (e *Engine) SetParam(id graph.NodeID, param string, v float64) error {
	n, ok := e.store.Node(id)
	if !ok {
		return fmt.Errorf("engine: set %s.%s: %w", id, param, graph.ErrUnknownNode)
	}

	err := n.Params().Set(param, v)
	if err != nil {
		return fmt.Errorf("engine: set %s.%s: %w", id, param, err)
	}

	return nil
}

// Param returns the current value of a parameter.
func (e *Engine) Param(id graph.NodeID, param string) (float64, error) {
	n, ok := e.store.Node(id)
	if !ok {
		return 0, fmt.Errorf("engine: param %s.%s: %w", id, param, graph.ErrUnknownNode)
	}

	v, ok := n.Params().Get(param)
	if !ok {
		return 0, fmt.Errorf("engine: param %s.%s: %w", id, param, node.ErrUnknownParam)
	}

	return v, nil
}

// SetPlacement sets the visual placement of a node.
func (e *Engine) SetPlacement(id graph.NodeID, p snapshot.Placement) error {
	if _, ok := e.store.Node(id); !ok {
		return fmt.Errorf("engine: place %s: %w", id, graph.ErrUnknownNode)
	}

	e.layout.Set(id, p)

	return nil
}

// Layout returns a copy of the current layout.
func (e *Engine) Layout() *snapshot.Layout { return e.layout.Clone() }

// IsConnected reports whether the modulation input behind virtualID of node
// id is driven by a connection.
func (e *Engine) IsConnected(id graph.NodeID, virtualID string) (bool, error) {
	return e.router.IsConnected(id, virtualID)
}

// Modulations lists the modulatable parameters of a node.
func (e *Engine) Modulations(id graph.NodeID) ([]route.Status, error) {
	return e.router.Modulations(id)
}

// Telemetry returns the latest value a node published under key. The value
// may be one block old.
func (e *Engine) Telemetry(id graph.NodeID, key string) (float64, error) {
	n, ok := e.store.Node(id)
	if !ok {
		return 0, fmt.Errorf("engine: telemetry %s: %w", id, graph.ErrUnknownNode)
	}

	c, ok := n.Telemetry().Lookup(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownTelemetry, id, key)
	}

	return c.Load(), nil
}

// TelemetrySnapshot reads every telemetry value of every node.
func (e *Engine) TelemetrySnapshot() map[graph.NodeID]map[string]float64 {
	out := make(map[graph.NodeID]map[string]float64, e.store.Len())
	for _, id := range e.store.Nodes() {
		n, _ := e.store.Node(id)
		out[id] = n.Telemetry().Read()
	}

	return out
}

// GraphState encodes the live graph.
func (e *Engine) GraphState() ([]byte, error) {
	return snapshot.EncodeGraph(e.store)
}

// Capture snapshots the graph and layout as the current undo state.
func (e *Engine) Capture(label string) (*snapshot.Snapshot, error) {
	s, err := e.history.Capture(label)
	if err != nil {
		return nil, err
	}

	e.metrics.Snapshot("capture")

	return s, nil
}

// Undo restores the previous snapshot. It reports false when there is
// nothing to undo.
func (e *Engine) Undo() (bool, error) {
	ok, err := e.history.Undo()
	if ok {
		e.metrics.Snapshot("undo")
	}

	return ok, err
}

// Redo restores the most recently undone snapshot. It reports false when
// the redo stack is empty.
func (e *Engine) Redo() (bool, error) {
	ok, err := e.history.Redo()
	if ok {
		e.metrics.Snapshot("redo")
	}

	return ok, err
}

// LoadGraph replaces the graph with an encoded graph state and layout,
// then starts a new history. A nil layout is treated as empty. On error the
// live graph is unchanged.
func (e *Engine) LoadGraph(data []byte, layout *snapshot.Layout, label string) error {
	err := e.history.Restore(snapshot.New(data, layout, label, e.now()))
	if err != nil {
		return err
	}

	_, err = e.history.Reset(label)
	if err != nil {
		return err
	}

	e.metrics.Snapshot("load")

	return nil
}

// workspace exposes the engine to the snapshot manager.
type workspace struct{ e *Engine }

func (w workspace) Store() *graph.Store { return w.e.store }

func (w workspace) Layout() *snapshot.Layout { return w.e.layout }

// Replace installs a restored store. The plan is compiled and published
// before anything live changes.
func (w workspace) Replace(store *graph.Store, layout *snapshot.Layout) error {
	e := w.e

	plan, err := render.Compile(store)
	if err != nil {
		return err
	}

	err = e.retry(func() error { return e.publish(plan) })
	if err != nil {
		return err
	}

	e.stale = false

	store.UseGate(e.gate)

	e.store = store
	e.router = route.New(store)
	e.layout = layout

	return nil
}
