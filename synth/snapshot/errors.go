package snapshot

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptState reports graph state that cannot be decoded or does
	// not describe a valid graph.
	ErrCorruptState = errors.New("snapshot: corrupt state")
	// ErrUnsupportedVersion reports a graph state document of unknown
	// version.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
)

// SnapshotError is returned by failed restores. The live graph is left
// untouched.
type SnapshotError struct {
	Op    string
	Label string
	Err   error
}

func (e *SnapshotError) Error() string {
	if e.Label == "" {
		return fmt.Sprintf("snapshot: %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("snapshot: %s %q: %v", e.Op, e.Label, e.Err)
}

func (e *SnapshotError) Unwrap() error { return e.Err }
