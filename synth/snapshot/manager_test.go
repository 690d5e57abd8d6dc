package snapshot

import (
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/algo-modsynth/synth/graph"
)

func TestCaptureRestoreRoundTrip(t *testing.T) {
	t.Parallel()

	ws := newWorkspace()
	a := mustAdd(ws.store)
	b := mustAdd(ws.store)
	mustConnect(ws.store, a, 0, b, 1)

	n, _ := ws.store.Node(a)
	_ = n.Params().Set("pan", 0.75)

	ws.layout.Set(a, Placement{X: 1, Y: 2})
	ws.layout.Set(b, Placement{X: 3, Y: 4, Collapsed: true})

	m := NewManager(ws, NewHistory(8))

	s, err := m.Capture("wire")
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}

	before := mustEncode(ws.store)
	beforeLayout := ws.layout.Clone()

	if err := m.Restore(s); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if ws.replaced != 1 {
		t.Fatalf("Replace called %d times", ws.replaced)
	}

	if got := mustEncode(ws.store); got != before {
		t.Fatalf("graph after restore:\n got %s\nwant %s", got, before)
	}

	if !ws.layout.Equal(beforeLayout) {
		t.Fatalf("layout after restore = %+v", ws.layout)
	}

	if on, _ := ws.store.Incoming(b, 1); on.Src != a {
		t.Fatalf("connection lost: %+v", on)
	}
}

// Capture S1, add a node and connect it, capture S2; undo gives S1 and redo
// gives S2 back.
func TestUndoRedoRestoresCapturedGraphs(t *testing.T) {
	t.Parallel()

	ws := newWorkspace()
	a := mustAdd(ws.store)
	ws.layout.Set(a, Placement{X: 5})

	m := NewManager(ws, nil)

	s1, err := m.Capture("initial")
	if err != nil {
		t.Fatalf("Capture s1: %v", err)
	}

	b := mustAdd(ws.store)
	mustConnect(ws.store, a, 0, b, 0)
	ws.layout.Set(b, Placement{X: 50})

	s2, err := m.Capture("add voice")
	if err != nil {
		t.Fatalf("Capture s2: %v", err)
	}

	ok, err := m.Undo()
	if err != nil || !ok {
		t.Fatalf("Undo = %v, %v", ok, err)
	}

	if got := mustEncode(ws.store); got != string(s1.GraphState()) {
		t.Fatalf("after undo:\n got %s\nwant %s", got, s1.GraphState())
	}

	if !ws.layout.Equal(s1.Layout()) {
		t.Fatal("layout after undo differs from s1")
	}

	ok, err = m.Redo()
	if err != nil || !ok {
		t.Fatalf("Redo = %v, %v", ok, err)
	}

	if got := mustEncode(ws.store); got != string(s2.GraphState()) {
		t.Fatalf("after redo:\n got %s\nwant %s", got, s2.GraphState())
	}

	if !ws.layout.Equal(s2.Layout()) {
		t.Fatal("layout after redo differs from s2")
	}
}

func TestManagerNoOps(t *testing.T) {
	t.Parallel()

	ws := newWorkspace()
	m := NewManager(ws, NewHistory(4))

	if ok, err := m.Undo(); ok || err != nil {
		t.Fatalf("Undo on empty = %v, %v", ok, err)
	}

	if _, err := m.Capture("only"); err != nil {
		t.Fatal(err)
	}

	if ok, err := m.Undo(); ok || err != nil {
		t.Fatalf("Undo with one snapshot = %v, %v", ok, err)
	}

	if ok, err := m.Redo(); ok || err != nil {
		t.Fatalf("Redo with empty stack = %v, %v", ok, err)
	}

	if ws.replaced != 0 {
		t.Fatal("no-op touched the workspace")
	}
}

func TestFailedRestoreLeavesWorkspace(t *testing.T) {
	t.Parallel()

	ws := newWorkspace()
	id := mustAdd(ws.store)
	ws.layout.Set(id, Placement{X: 7})

	m := NewManager(ws, NewHistory(4))
	live := ws.store
	before := mustEncode(live)

	// The first node restores fine; the second one cannot be built.
	data := `{"version":1,"nodes":[{"id":"a","kind":"voice"},{"id":"b","kind":"gone"}],"connections":[]}`
	bad := New([]byte(data), NewLayout(), "bad", time.Time{})

	err := m.Restore(bad)

	var serr *SnapshotError
	if !errors.As(err, &serr) || !errors.Is(err, ErrCorruptState) {
		t.Fatalf("Restore err = %v, want *SnapshotError wrapping ErrCorruptState", err)
	}

	if ws.store != live || ws.replaced != 0 {
		t.Fatal("failed restore replaced the live graph")
	}

	if mustEncode(ws.store) != before {
		t.Fatal("failed restore mutated the live graph")
	}

	if p, _ := ws.layout.Get(id); p.X != 7 {
		t.Fatal("failed restore touched the layout")
	}
}

func TestFailedUndoRestoresStacks(t *testing.T) {
	t.Parallel()

	ws := newWorkspace()
	m := NewManager(ws, NewHistory(4))

	if _, err := m.Capture("s1"); err != nil {
		t.Fatal(err)
	}

	mustAdd(ws.store)

	if _, err := m.Capture("s2"); err != nil {
		t.Fatal(err)
	}

	ws.fail = graph.ErrRenderInFlight

	ok, err := m.Undo()
	if ok || !errors.Is(err, graph.ErrRenderInFlight) {
		t.Fatalf("Undo = %v, %v", ok, err)
	}

	var serr *SnapshotError
	if !errors.As(err, &serr) || serr.Label != "s1" {
		t.Fatalf("err = %#v, want *SnapshotError for s1", err)
	}

	if cur, _ := m.History().Current(); cur.Label() != "s2" || m.History().CanRedo() {
		t.Fatal("failed undo moved the stacks")
	}

	ws.fail = nil

	if ok, err := m.Undo(); !ok || err != nil {
		t.Fatalf("Undo after recovery = %v, %v", ok, err)
	}

	ws.fail = graph.ErrRenderInFlight

	if ok, _ := m.Redo(); ok {
		t.Fatal("Redo succeeded with failing workspace")
	}

	if cur, _ := m.History().Current(); cur.Label() != "s1" || !m.History().CanRedo() {
		t.Fatal("failed redo moved the stacks")
	}
}

func TestResetStartsNewBaseline(t *testing.T) {
	t.Parallel()

	ws := newWorkspace()
	m := NewManager(ws, NewHistory(4))

	_, _ = m.Capture("a")
	_, _ = m.Capture("b")

	if _, err := m.Reset("loaded"); err != nil {
		t.Fatal(err)
	}

	if m.History().UndoLen() != 1 || m.History().CanRedo() {
		t.Fatalf("history after Reset: undo=%d", m.History().UndoLen())
	}
}
