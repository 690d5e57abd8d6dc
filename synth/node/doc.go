// Package node defines the contract every processing unit of the synth
// graph implements: typed ports, parameters with atomic current values,
// virtual modulation routes, and a non-blocking render function.
//
// Node kinds are created through a [Registry] that maps a kind name to a
// [Factory]. Most kinds embed [Base], which implements the descriptive half
// of the contract from a declarative [Spec] so a kind only supplies
// Prepare and Render.
//
// # Render contract
//
// Render runs on the render thread. It must not block, allocate or panic on
// out-of-range input; it clamps or substitutes defaults instead. Input
// slices in a [Block] are owned by the scheduler for the duration of the
// call. An output channel shares storage with an input channel only when
// the node asked for it through [InPlacer]; such nodes must read every
// input value they need before writing or clearing the aliased output.
//
// # Private state
//
// MarshalState runs on the control thread while the node keeps rendering.
// Kinds with private state publish it at the end of every block through
// bridge.Cell values and marshal from those. UnmarshalState is only called
// on nodes that are not rendering yet.
package node
