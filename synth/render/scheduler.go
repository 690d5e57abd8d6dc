package render

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
	"github.com/cwbudde/algo-modsynth/synth/graph"
)

// Scheduler renders the most recently published plan.
//
// Publish is called on the control thread; Process on the render thread.
type Scheduler struct {
	gate       *graph.Gate
	faults     *bridge.FaultLog
	sampleRate float64
	now        func() time.Time

	plan   atomic.Pointer[Plan]
	active *Plan // render thread only
	blocks atomic.Uint64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces time.Now for deadline measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// NewScheduler returns a Scheduler sharing gate with the graph store.
// Faults are recorded into faults.
func NewScheduler(gate *graph.Gate, sampleRate float64, faults *bridge.FaultLog, opts ...Option) *Scheduler {
	s := &Scheduler{
		gate:       gate,
		faults:     faults,
		sampleRate: sampleRate,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Publish makes p the plan for the next block. It fails with
// graph.ErrRenderInFlight while a block is rendering; the caller retries.
func (s *Scheduler) Publish(p *Plan) error {
	if !s.gate.TryLock() {
		return graph.ErrRenderInFlight
	}
	defer s.gate.Unlock()

	s.plan.Store(p)

	return nil
}

// Plan returns the published plan.
func (s *Scheduler) Plan() *Plan { return s.plan.Load() }

// Blocks returns the number of blocks rendered.
func (s *Scheduler) Blocks() uint64 { return s.blocks.Load() }

// Process renders one block into out and returns the frame count. The
// block is as long as the shortest out channel, capped at the plan's block
// size. Sink outputs are summed into out; missing channels are left silent.
//
// Process never blocks, allocates or panics. If a commit holds the gate,
// the plan used for the previous block is rendered again.
func (s *Scheduler) Process(out [][]float64) int {
	if s.gate.BeginRender() {
		if next := s.plan.Load(); next != s.active {
			carryDelays(s.active, next)
			s.active = next
		}
		defer s.gate.EndRender()
	}

	p := s.active
	block := s.blocks.Add(1)

	frames := -1
	for _, ch := range out {
		if frames < 0 || len(ch) < frames {
			frames = len(ch)
		}
	}

	if p != nil && (frames < 0 || frames > p.blockSize) {
		frames = p.blockSize
	}

	frames = max(frames, 0)

	for _, ch := range out {
		clear(ch[:frames])
	}

	if p == nil || frames == 0 {
		return frames
	}

	start := s.now()

	if !s.renderSteps(p, frames, block) {
		return frames
	}

	for _, d := range p.delays {
		copy(d.buf[:frames], d.src[:frames])
	}

	for i := range p.steps {
		st := &p.steps[i]
		if !st.sink {
			continue
		}

		for ch := 0; ch < len(out) && ch < len(st.block.Out); ch++ {
			vecmath.AddBlockInPlace(out[ch][:frames], st.block.Out[ch][:frames])
		}
	}

	if s.sampleRate > 0 {
		budget := time.Duration(float64(frames) / s.sampleRate * float64(time.Second))
		if elapsed := s.now().Sub(start); elapsed > budget && s.faults != nil {
			s.faults.Record(bridge.Fault{
				Kind:    bridge.FaultDeadline,
				Block:   block,
				Elapsed: elapsed,
				Budget:  budget,
			})
		}
	}

	return frames
}

// renderSteps runs every node in order. A panicking node drops the block:
// the fault is recorded and false is returned, leaving out silent.
func (s *Scheduler) renderSteps(p *Plan, frames int, block uint64) (ok bool) {
	i := 0

	defer func() {
		if r := recover(); r != nil {
			if s.faults != nil {
				s.faults.Record(bridge.Fault{
					Kind:   bridge.FaultNode,
					Node:   string(p.steps[i].id),
					Block:  block,
					Detail: r,
				})
			}

			ok = false
		}
	}()

	for i = range p.steps {
		st := &p.steps[i]

		for _, c := range st.clears {
			clear(c[:frames])
		}

		for _, g := range st.gathers {
			copy(g.dst[:frames], g.src[:frames])
		}

		st.block.Frames = frames
		st.node.Render(&st.block)

		if st.peak != nil {
			st.peak.Store(peak(st.block.Out, frames))
		}
	}

	return true
}

func peak(chans [][]float64, frames int) float64 {
	m := 0.0
	for _, ch := range chans {
		for _, v := range ch[:frames] {
			m = max(m, math.Abs(v))
		}
	}

	return m
}
