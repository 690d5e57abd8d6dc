package graph

import "sync/atomic"

const (
	gateIdle int32 = iota
	gateRendering
	gateMutating
)

// Gate separates render passes from graph mutation with compare-and-swap.
// Neither side ever blocks: a failed exchange is reported to the caller.
type Gate struct {
	state atomic.Int32
}

// BeginRender marks a render pass as in flight. It returns false when a
// mutation currently holds the gate.
func (g *Gate) BeginRender() bool {
	return g.state.CompareAndSwap(gateIdle, gateRendering)
}

// EndRender releases a gate taken by BeginRender.
func (g *Gate) EndRender() {
	g.state.CompareAndSwap(gateRendering, gateIdle)
}

// TryLock takes the gate for a mutation. It returns false while a render
// pass is in flight.
func (g *Gate) TryLock() bool {
	return g.state.CompareAndSwap(gateIdle, gateMutating)
}

// Unlock releases a gate taken by TryLock.
func (g *Gate) Unlock() {
	g.state.CompareAndSwap(gateMutating, gateIdle)
}

// Rendering reports whether a render pass holds the gate.
func (g *Gate) Rendering() bool {
	return g.state.Load() == gateRendering
}
