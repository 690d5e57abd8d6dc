package engine

import (
	"time"

	"github.com/cwbudde/algo-modsynth/synth/bridge"
)

// Metrics receives engine events. It is only called from the control
// thread, during Poll and snapshot operations.
type Metrics interface {
	Fault(kind bridge.FaultKind)
	FaultsDropped(n uint64)
	Request(label string, ok bool)
	RequestRejected()
	Snapshot(op string)
	Graph(nodes, connections, undoDepth int)
	Poll(d time.Duration)
}

type nopMetrics struct{}

func (nopMetrics) Fault(bridge.FaultKind) {}
func (nopMetrics) FaultsDropped(uint64)   {}
func (nopMetrics) Request(string, bool)   {}
func (nopMetrics) RequestRejected()       {}
func (nopMetrics) Snapshot(string)        {}
func (nopMetrics) Graph(int, int, int)    {}
func (nopMetrics) Poll(time.Duration)     {}
