package snapshot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/algo-modsynth/synth/graph"
)

// Workspace is the live state a Manager captures and restores.
type Workspace interface {
	// Store returns the live graph.
	Store() *graph.Store
	// Layout returns the live layout. The manager only reads it.
	Layout() *Layout
	// Replace swaps in a restored graph and layout. On error the live
	// state must be unchanged.
	Replace(store *graph.Store, layout *Layout) error
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces time.Now for capture times.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithStoreOptions sets the options restored stores are created with.
func WithStoreOptions(opts ...graph.Option) ManagerOption {
	return func(m *Manager) {
		m.storeOpts = opts
	}
}

// Manager captures workspace state into a History and restores it.
//
// Manager belongs to the control thread.
type Manager struct {
	ws        Workspace
	history   *History
	now       func() time.Time
	logger    *slog.Logger
	storeOpts []graph.Option
}

// NewManager returns a manager for ws. A nil history gets the default
// capacity.
func NewManager(ws Workspace, history *History, opts ...ManagerOption) *Manager {
	if history == nil {
		history = NewHistory(DefaultCapacity)
	}

	m := &Manager{
		ws:      ws,
		history: history,
		now:     time.Now,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// History returns the managed history.
func (m *Manager) History() *History { return m.history }

// Take encodes the workspace into a snapshot without touching the history.
func (m *Manager) Take(label string) (*Snapshot, error) {
	data, err := EncodeGraph(m.ws.Store())
	if err != nil {
		return nil, err
	}

	return New(data, m.ws.Layout(), label, m.now()), nil
}

// Capture takes a snapshot, makes it current and clears the redo stack.
func (m *Manager) Capture(label string) (*Snapshot, error) {
	s, err := m.Take(label)
	if err != nil {
		return nil, fmt.Errorf("snapshot: capture %q: %w", label, err)
	}

	m.history.Push(s)
	m.logger.Debug("snapshot captured",
		slog.String("label", label),
		slog.Int("undo_depth", m.history.UndoLen()),
	)

	return s, nil
}

// Restore rebuilds the graph from s, then applies its layout. The history
// is not changed. A failed restore returns *SnapshotError and leaves the
// workspace untouched.
func (m *Manager) Restore(s *Snapshot) error {
	store, err := DecodeGraph(s.graph, m.ws.Store().Registry(), m.ws.Store().Context(), m.storeOpts...)
	if err != nil {
		return &SnapshotError{Op: "restore", Label: s.label, Err: err}
	}

	err = m.ws.Replace(store, s.Layout())
	if err != nil {
		return &SnapshotError{Op: "restore", Label: s.label, Err: err}
	}

	m.logger.Debug("snapshot restored", slog.String("label", s.label))

	return nil
}

// Undo restores the previous snapshot. It reports false without error when
// there is nothing to undo. If the restore fails the stacks are put back.
func (m *Manager) Undo() (bool, error) {
	prev, ok := m.history.Undo()
	if !ok {
		return false, nil
	}

	err := m.Restore(prev)
	if err != nil {
		m.history.Redo()
		return false, err
	}

	return true, nil
}

// Redo restores the most recently undone snapshot. It reports false without
// error when the redo stack is empty. If the restore fails the stacks are
// put back.
func (m *Manager) Redo() (bool, error) {
	next, ok := m.history.Redo()
	if !ok {
		return false, nil
	}

	err := m.Restore(next)
	if err != nil {
		m.history.Undo()
		return false, err
	}

	return true, nil
}

// Reset clears the history and captures the workspace as the new baseline.
// It is called when a patch is loaded or replaced.
func (m *Manager) Reset(label string) (*Snapshot, error) {
	m.history.Reset()

	return m.Capture(label)
}
