// Package render walks a compiled graph once per audio block.
//
// [Compile] runs on the control thread and turns a graph store into an
// immutable [Plan]: the render order, one arena of sample slots addressed by
// index, and the copy operations that move data between slots. A
// [Scheduler] publishes plans with an atomic pointer swap and renders them
// on the render thread without locking or allocating.
//
// # Buffers
//
// Every node input is a slot owned by that node for the block. The
// scheduler fills it by copying the upstream output, so a node can never
// observe or corrupt another node's output through its inputs. An output
// shares storage with an input only when the node asks for it through
// node.InPlacer, and such a node must read each input sample it needs
// before writing or clearing the aliased output.
//
// # Feedback
//
// Feedback connections (CV edges that close a cycle) read from a delay slot
// that holds the source's output from the previous block. Delay slots are
// refreshed after every node has rendered, so every feedback edge observes
// the previous block's value, regardless of how many feedback edges target
// the same node or in which order they were made.
package render
