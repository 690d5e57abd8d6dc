package render

import (
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/algo-modsynth/internal/testutil"
	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/graph"
	"github.com/cwbudde/algo-modsynth/synth/node"
)

func newScheduler(t *testing.T, s *graph.Store, opts ...Option) (*Scheduler, *bridge.FaultLog) {
	t.Helper()

	faults := bridge.NewFaultLog(16)
	sched := NewScheduler(s.Gate(), s.Context().SampleRate, faults, opts...)

	p, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if err := sched.Publish(p); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	return sched, faults
}

func TestProcessWithoutPlanIsSilent(t *testing.T) {
	t.Parallel()

	sched := NewScheduler(&graph.Gate{}, 48000, nil)
	out := [][]float64{{1, 1, 1}, {1, 1, 1}}

	if n := sched.Process(out); n != 3 {
		t.Fatalf("Process() = %d, want 3", n)
	}

	testutil.RequireSliceNearlyEqual(t, out[0], []float64{0, 0, 0}, 0)
}

func TestProcessChainToSink(t *testing.T) {
	t.Parallel()

	s := testStore()
	c := add(s, "const")
	p := add(s, "pass")
	sink := add(s, "sink")

	connect(s, c, 0, p, 0)
	connect(s, p, 0, sink, 0)
	connect(s, c, 0, sink, 1)
	setParam(s, c, "value", 0.5)

	sched, _ := newScheduler(t, s)
	out := stereo(testBlock)

	if n := sched.Process(out); n != testBlock {
		t.Fatalf("Process() = %d, want %d", n, testBlock)
	}

	testutil.RequireSliceNearlyEqual(t, out[0], testutil.DC(0.5, testBlock), 0)
	testutil.RequireSliceNearlyEqual(t, out[1], testutil.DC(0.5, testBlock), 0)

	peak, _ := mustNode(s, p).Telemetry().Lookup(node.TelemetryPeak)
	if peak.Load() != 0.5 {
		t.Fatalf("peak telemetry = %v, want 0.5", peak.Load())
	}
}

func TestProcessShortBuffer(t *testing.T) {
	t.Parallel()

	s := testStore()
	c := add(s, "const")
	sink := add(s, "sink")
	connect(s, c, 0, sink, 0)
	setParam(s, c, "value", 1)

	sched, _ := newScheduler(t, s)

	out := [][]float64{make([]float64, 3), make([]float64, 5)}
	if n := sched.Process(out); n != 3 {
		t.Fatalf("Process() = %d, want 3", n)
	}

	testutil.RequireSliceNearlyEqual(t, out[0], testutil.Ones(3), 0)

	long := stereo(3 * testBlock)
	if n := sched.Process(long); n != testBlock {
		t.Fatalf("Process(long) = %d, want block size %d", n, testBlock)
	}
}

// The modulation input of pass is unconnected, so it must read as zero even
// after the slot was used by an earlier plan.
func TestUnconnectedInputsAreCleared(t *testing.T) {
	t.Parallel()

	s := testStore()
	c := add(s, "const")
	p := add(s, "pass")
	sink := add(s, "sink")
	connect(s, c, 0, p, 0)
	connect(s, p, 0, sink, 0)
	setParam(s, c, "value", 0.25)

	sched, _ := newScheduler(t, s)

	blk := &sched.Plan().steps[1].block
	blk.In[1][0] = 99

	out := stereo(testBlock)
	sched.Process(out)

	if out[0][0] != 0.25 {
		t.Fatalf("out = %v, stale modulation leaked in", out[0][0])
	}
}

func TestFeedbackObservesPreviousBlock(t *testing.T) {
	t.Parallel()

	s := testStore()
	a := add(s, "counter")
	b := add(s, "pass")

	// a -> b on audio, b -> a closes the loop on a CV input.
	connect(s, a, 0, b, 0)

	id, err := s.Connect(b, 0, a, 0)
	if err != nil {
		t.Fatalf("closing CV edge: %v", err)
	}

	if c, _ := s.Connection(id); !c.Feedback {
		t.Fatal("closing edge should be feedback")
	}

	sched, _ := newScheduler(t, s)
	out := stereo(testBlock)

	for i := 0; i < 4; i++ {
		sched.Process(out)
	}

	cnt := mustNode(s, a).(*counter)
	testutil.RequireSliceNearlyEqual(t, cnt.seen, []float64{0, 1, 2, 3}, 0)
}

func TestFeedbackSurvivesRecompile(t *testing.T) {
	t.Parallel()

	s := testStore()
	a := add(s, "counter")
	b := add(s, "pass")
	connect(s, a, 0, b, 0)
	connect(s, b, 0, a, 0)

	sched, _ := newScheduler(t, s)
	out := stereo(testBlock)

	sched.Process(out)
	sched.Process(out)

	// An unrelated edit republishes the plan.
	add(s, "const")

	p, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if err := sched.Publish(p); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	sched.Process(out)

	cnt := mustNode(s, a).(*counter)
	testutil.RequireSliceNearlyEqual(t, cnt.seen, []float64{0, 1, 2}, 0)
}

func TestFeedbackDroppedEdgeStartsFromZero(t *testing.T) {
	t.Parallel()

	s := testStore()
	a := add(s, "counter")
	b := add(s, "pass")
	connect(s, a, 0, b, 0)

	id, err := s.Connect(b, 0, a, 0)
	if err != nil {
		t.Fatalf("closing CV edge: %v", err)
	}

	sched, _ := newScheduler(t, s)
	out := stereo(testBlock)

	sched.Process(out)
	sched.Process(out)

	// Remove and re-add the source: the new node has no history.
	if err := s.Disconnect(id); err != nil {
		t.Fatalf("Disconnect: %v", err)
	}

	if err := s.RemoveNode(b); err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}

	c := add(s, "pass")
	connect(s, a, 0, c, 0)
	connect(s, c, 0, a, 0)

	p, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if err := sched.Publish(p); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	sched.Process(out)

	cnt := mustNode(s, a).(*counter)
	testutil.RequireSliceNearlyEqual(t, cnt.seen, []float64{0, 1, 0}, 0)
}

func TestInPlaceAliasing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind    string
		want    float64
		aliased bool
	}{
		{kind: "careful", want: 1.5, aliased: true},
		// Clearing first zeroes the aliased input before it is read.
		{kind: "careless", want: 0, aliased: true},
		// Without in-place aliasing the scheduler gives separate storage.
		{kind: "careless-copy", want: 1.5, aliased: false},
	}

	for _, tc := range tests {
		t.Run(tc.kind, func(t *testing.T) {
			t.Parallel()

			s := testStore()
			c := add(s, "const")
			d := add(s, tc.kind)
			sink := add(s, "sink")
			connect(s, c, 0, d, 0)
			connect(s, d, 0, sink, 0)
			setParam(s, c, "value", 0.75)

			sched, _ := newScheduler(t, s)
			blk := sched.Plan().steps[1].block

			if aliased := &blk.In[0][0] == &blk.Out[0][0]; aliased != tc.aliased {
				t.Fatalf("aliased = %v, want %v", aliased, tc.aliased)
			}

			out := stereo(testBlock)
			sched.Process(out)

			testutil.RequireSliceNearlyEqual(t, out[0], testutil.DC(tc.want, testBlock), 0)
		})
	}
}

func TestPlanSlots(t *testing.T) {
	t.Parallel()

	s := testStore()
	add(s, "careful") // 1 in, 1 aliased out
	add(s, "pass")    // 2 in, 1 out
	a := add(s, "counter")
	b := add(s, "pass")
	connect(s, a, 0, b, 0)
	connect(s, b, 0, a, 0) // feedback -> one delay slot

	p, err := Compile(s)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	if want := 1 + 3 + 2 + 3 + 1; p.Slots() != want {
		t.Fatalf("Slots() = %d, want %d", p.Slots(), want)
	}

	if p.Version() != s.Version() || len(p.Order()) != 4 {
		t.Fatalf("plan version/order mismatch: %d %v", p.Version(), p.Order())
	}
}

func TestNodePanicDropsBlock(t *testing.T) {
	t.Parallel()

	s := testStore()
	c := add(s, "const")
	bm := add(s, "bomb")
	sink := add(s, "sink")
	connect(s, c, 0, sink, 0)
	connect(s, bm, 0, sink, 1)
	setParam(s, c, "value", 1)

	sched, faults := newScheduler(t, s)
	out := stereo(testBlock)

	sched.Process(out)
	testutil.RequireSliceNearlyEqual(t, out[0], testutil.Ones(testBlock), 0)

	setParam(s, bm, "armed", 1)
	sched.Process(out)
	testutil.RequireSliceNearlyEqual(t, out[0], make([]float64, testBlock), 0)

	var got []bridge.Fault

	faults.Drain(func(f bridge.Fault) { got = append(got, f) })

	if len(got) != 1 || got[0].Kind != bridge.FaultNode || got[0].Node != string(bm) {
		t.Fatalf("faults = %+v", got)
	}

	setParam(s, bm, "armed", 0)
	sched.Process(out)
	testutil.RequireSliceNearlyEqual(t, out[0], testutil.Ones(testBlock), 0)
}

func TestDeadlineFault(t *testing.T) {
	t.Parallel()

	now := time.Unix(0, 0)
	clock := func() time.Time {
		now = now.Add(time.Second)
		return now
	}

	s := testStore()
	add(s, "const")

	sched, faults := newScheduler(t, s, WithClock(clock))
	sched.Process(stereo(testBlock))

	n, _ := faults.Drain(func(f bridge.Fault) {
		if f.Kind != bridge.FaultDeadline || f.Elapsed != time.Second {
			t.Errorf("unexpected fault %+v", f)
		}
	})
	if n != 1 {
		t.Fatalf("drained %d faults, want 1", n)
	}
}

func TestPublishAndGate(t *testing.T) {
	t.Parallel()

	s := testStore()
	c := add(s, "const")
	sink := add(s, "sink")
	connect(s, c, 0, sink, 0)
	setParam(s, c, "value", 1)

	sched, _ := newScheduler(t, s)
	out := stereo(testBlock)
	sched.Process(out)

	// A mutation holding the gate: the render thread keeps the previous plan.
	if !s.Gate().TryLock() {
		t.Fatal("TryLock failed")
	}

	empty, _ := Compile(testStore())
	sched.plan.Store(empty)
	sched.Process(out)

	if out[0][0] != 1 {
		t.Fatal("render switched plans while a commit held the gate")
	}

	s.Gate().Unlock()
	sched.Process(out)

	if out[0][0] != 0 {
		t.Fatal("render did not pick up the new plan at the next block")
	}

	if !s.Gate().BeginRender() {
		t.Fatal("BeginRender failed")
	}

	if err := sched.Publish(empty); !errors.Is(err, graph.ErrRenderInFlight) {
		t.Fatalf("Publish during render err = %v", err)
	}

	s.Gate().EndRender()

	if sched.Blocks() != 3 {
		t.Fatalf("Blocks() = %d, want 3", sched.Blocks())
	}
}

func TestProcessDoesNotAllocate(t *testing.T) {
	s := testStore()
	c := add(s, "const")
	p := add(s, "pass")
	d := add(s, "careful")
	sink := add(s, "sink")
	connect(s, c, 0, p, 0)
	connect(s, p, 0, d, 0)
	connect(s, d, 0, sink, 0)
	connect(s, p, 0, sink, 1)

	sched, _ := newScheduler(t, s)
	out := stereo(testBlock)

	allocs := testing.AllocsPerRun(200, func() {
		sched.Process(out)
	})
	if allocs != 0 {
		t.Fatalf("expected zero allocations for Process, got %f", allocs)
	}
}

func mustNode(s *graph.Store, id graph.NodeID) node.Node {
	n, ok := s.Node(id)
	if !ok {
		panic("missing node " + string(id))
	}

	return n
}
