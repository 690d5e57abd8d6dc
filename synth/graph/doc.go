// Package graph owns the nodes and connections of a synth patch and resolves
// the order nodes render in.
//
// A [Store] is owned by the control thread. The render thread never touches
// it; it renders from plans compiled out of the store. Mutations take the
// store's [Gate] and are rejected with [ErrRenderInFlight] while a render
// pass holds it.
//
// Connections are directed from an output channel to an input channel. An
// input channel accepts at most one connection: signals are mixed with an
// explicit mixer node. A connection that would close a cycle is accepted
// only when its destination is a CV channel; it becomes a feedback edge that
// carries the previous block's value.
package graph
