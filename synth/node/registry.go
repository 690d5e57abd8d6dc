package node

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

// Kind registration and lookup failures.
var (
	ErrUnknownKind   = errors.New("unknown node kind")
	ErrDuplicateKind = errors.New("node kind already registered")
	ErrInvalidKind   = errors.New("invalid node kind")
)

// Factory builds an unprepared node for ctx. Registry.New prepares it.
type Factory func(ctx Context) (Node, error)

// Registry is the set of node kinds a graph can instantiate. Kinds are
// registered once at startup and never removed.
type Registry struct {
	kinds map[string]Factory
}

// NewRegistry returns a registry with no kinds.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[string]Factory)}
}

// Register makes kind available. The name must be non-empty and unused,
// and build must be non-nil.
func (r *Registry) Register(kind string, build Factory) error {
	switch {
	case kind == "":
		return fmt.Errorf("node: register: %w: empty name", ErrInvalidKind)
	case build == nil:
		return fmt.Errorf("node: register %q: %w: no factory", kind, ErrInvalidKind)
	}

	if _, taken := r.kinds[kind]; taken {
		return fmt.Errorf("node: register %q: %w", kind, ErrDuplicateKind)
	}

	r.kinds[kind] = build

	return nil
}

// MustRegister calls Register and panics on failure. It is meant for
// package-level kind tables.
func (r *Registry) MustRegister(kind string, build Factory) {
	if err := r.Register(kind, build); err != nil {
		panic(err)
	}
}

// Lookup returns the factory of kind, or nil when kind is not registered.
func (r *Registry) Lookup(kind string) Factory { return r.kinds[kind] }

// New builds a node of kind and prepares it for ctx.
func (r *Registry) New(kind string, ctx Context) (Node, error) {
	build := r.Lookup(kind)
	if build == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	n, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("node: create %s: %w", kind, err)
	}

	err = n.Prepare(ctx)
	if err != nil {
		return nil, fmt.Errorf("node: prepare %s: %w", kind, err)
	}

	return n, nil
}

// Kinds returns the registered kind names in sorted order.
func (r *Registry) Kinds() []string {
	return slices.Sorted(maps.Keys(r.kinds))
}
