// Package engine ties the graph store, modulation router, render scheduler,
// cross-thread bridge and snapshot history together.
//
// An Engine has two sides. Process is the render thread entry point and is
// safe to call from the audio callback. Every other method belongs to the
// control thread and must be called from one goroutine at a time, except
// Request, which one producer goroutine may call concurrently with Poll.
//
// Direct mutations (AddNode, Connect, ...) commit immediately: the render
// plan is recompiled and published before they return. Snapshots are only
// taken at user-action boundaries through Capture. Multi-step edits should
// be submitted as a Request instead: Poll applies each request completely,
// commits once and captures exactly one snapshot, or rolls the graph back
// when any step fails.
package engine
