package bridge

import (
	"fmt"
	"sync/atomic"
	"time"
)

// FaultKind classifies a render fault.
type FaultKind uint8

const (
	// FaultDeadline means a block took longer than its playback duration.
	FaultDeadline FaultKind = iota + 1
	// FaultNode means a node panicked while rendering; the block was silenced.
	FaultNode
)

func (k FaultKind) String() string {
	switch k {
	case FaultDeadline:
		return "deadline-exceeded"
	case FaultNode:
		return "node-fault"
	default:
		return fmt.Sprintf("fault(%d)", uint8(k))
	}
}

// Fault describes one render fault. Faults are recorded on the render thread
// and never returned as errors across the render boundary.
type Fault struct {
	Kind    FaultKind
	Node    string // empty for whole-block faults
	Block   uint64
	Elapsed time.Duration
	Budget  time.Duration
	Detail  any
}

// Error implements error so drained faults can be logged and wrapped.
func (f Fault) Error() string {
	if f.Node != "" {
		return fmt.Sprintf("render fault %s in node %s at block %d: %v", f.Kind, f.Node, f.Block, f.Detail)
	}

	return fmt.Sprintf("render fault %s at block %d: %v > %v", f.Kind, f.Block, f.Elapsed, f.Budget)
}

// FaultLog queues faults from the render thread to the control thread.
// When full, new faults are counted and dropped.
type FaultLog struct {
	ring    *Ring[Fault]
	dropped atomic.Uint64
}

// NewFaultLog returns a FaultLog holding at least capacity faults.
func NewFaultLog(capacity int) *FaultLog {
	return &FaultLog{ring: NewRing[Fault](capacity)}
}

// Record queues f. Safe to call from the render thread.
func (l *FaultLog) Record(f Fault) {
	if !l.ring.Push(f) {
		l.dropped.Add(1)
	}
}

// Drain hands every queued fault to fn and returns the number of faults
// drained and the number dropped since the previous Drain.
func (l *FaultLog) Drain(fn func(Fault)) (int, uint64) {
	n := l.ring.Drain(fn)
	return n, l.dropped.Swap(0)
}
