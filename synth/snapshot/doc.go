// Package snapshot captures and restores complete graph and layout state.
//
// Graph state is a versioned JSON document holding every node's identity,
// kind, parameter values and private state, plus the connection table.
// Encoding is deterministic: equal graphs encode to equal bytes.
//
// Restores are all-or-nothing. DecodeGraph builds a fresh graph.Store and
// the live graph is only replaced once decoding succeeded.
//
// A Manager owns the undo/redo History. Captures happen at user-action
// boundaries on the control thread, never from the render thread.
package snapshot
