package engine

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-dsp/dsp/core"

	"github.com/cwbudde/algo-modsynth/internal/testutil"
	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/node"
	"github.com/cwbudde/algo-modsynth/synth/nodes"
)

const testBlock = 64

func testConfig() Config {
	return DefaultConfig(core.WithSampleRate(48000), core.WithBlockSize(testBlock))
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()

	opts = append([]Option{WithIDGenerator(graph.SequentialIDs("n"))}, opts...)

	e, err := New(testConfig(), nodes.DefaultRegistry(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return e
}

func mustAdd(t *testing.T, e *Engine, kind string) graph.NodeID {
	t.Helper()

	id, err := e.AddNode(kind)
	if err != nil {
		t.Fatalf("AddNode(%s): %v", kind, err)
	}

	return id
}

func mustConnect(t *testing.T, e *Engine, src graph.NodeID, srcChan int, dst graph.NodeID, dstChan int) graph.ConnectionID {
	t.Helper()

	id, err := e.Connect(src, srcChan, dst, dstChan)
	if err != nil {
		t.Fatalf("Connect(%s:%d -> %s:%d): %v", src, srcChan, dst, dstChan, err)
	}

	return id
}

func mustState(t *testing.T, e *Engine) []byte {
	t.Helper()

	data, err := e.GraphState()
	if err != nil {
		t.Fatalf("GraphState: %v", err)
	}

	return data
}

func stereo(frames int) [][]float64 { return testutil.Stereo(frames) }

// bufferLogger returns a text logger writing into a buffer.
func bufferLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

// recorder counts metrics events.
type recorder struct {
	mu        sync.Mutex
	faults    map[bridge.FaultKind]int
	dropped   uint64
	requests  map[bool]int
	rejected  int
	snapshots map[string]int
	nodes     int
	conns     int
	undo      int
	polls     int
}

func newRecorder() *recorder {
	return &recorder{
		faults:    map[bridge.FaultKind]int{},
		requests:  map[bool]int{},
		snapshots: map[string]int{},
	}
}

func (r *recorder) Fault(k bridge.FaultKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.faults[k]++
}

func (r *recorder) FaultsDropped(n uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped += n
}

func (r *recorder) Request(_ string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[ok]++
}

func (r *recorder) RequestRejected() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejected++
}

func (r *recorder) Snapshot(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[op]++
}

func (r *recorder) Graph(nodes, conns, undo int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes, r.conns, r.undo = nodes, conns, undo
}

func (r *recorder) Poll(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.polls++
}

func testRegistry() *node.Registry { return nodes.DefaultRegistry() }
