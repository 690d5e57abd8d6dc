package graph

import (
	"errors"
	"fmt"
)

// Routing failures. Connect returns them wrapped in a *RoutingError.
var (
	ErrChannelTypeMismatch = errors.New("channel type mismatch")
	ErrDestinationOccupied = errors.New("destination channel occupied")
	ErrUnknownNode         = errors.New("unknown node")
	ErrUnknownChannel      = errors.New("unknown channel")
	ErrWouldCreateCycle    = errors.New("connection would create a cycle")
)

// Store failures outside routing.
var (
	ErrRenderInFlight      = errors.New("render pass in flight")
	ErrDuplicateNode       = errors.New("duplicate node id")
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrDuplicateConnection = errors.New("duplicate connection id")
)

// RoutingError describes a rejected connection.
type RoutingError struct {
	Err     error
	Src     NodeID
	SrcChan int
	Dst     NodeID
	DstChan int
	Detail  string
}

func (e *RoutingError) Error() string {
	msg := fmt.Sprintf("graph: connect %s:%d -> %s:%d: %v", e.Src, e.SrcChan, e.Dst, e.DstChan, e.Err)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}

	return msg
}

func (e *RoutingError) Unwrap() error { return e.Err }
