// Package registry implements the Embedding-B Variable Registry: an
// in-memory, immutable-after-startup map of client-visible name to typed
// binding.
package registry

import (
	"fmt"

	"github.com/ehrlich-b/go-simctl/internal/interfaces"
	"github.com/ehrlich-b/go-simctl/internal/util"
)

// PrimitiveKind is how a binding's underlying cell is loaded/stored.
type PrimitiveKind int

const (
	U8 PrimitiveKind = iota
	U16
	U32
	U64
	F64
	PString
	PEvent
)

// Kind is the client-visible semantic of a binding.
type Kind int

const (
	Scalar Kind = iota
	Param
	Array
	Event
	Clock
)

// Binding is one Variable Registry entry (spec §3 "Variable binding").
type Binding struct {
	Name      string
	Handle    interfaces.Handle
	Primitive PrimitiveKind
	Kind      Kind
	Dims      int
	Width     int
	Depth     int
}

func (b Binding) validate() error {
	if b.Kind == Array && (b.Dims != 2 || b.Depth < 1) {
		return fmt.Errorf("registry: array binding %q must have dims=2 and depth>=1", b.Name)
	}
	if b.Kind == Event && (b.Primitive != PEvent || b.Width != 1) {
		return fmt.Errorf("registry: event binding %q must have primitive_kind=event and width=1", b.Name)
	}
	return nil
}

// Registry is populated at startup and immutable thereafter (spec §4.4).
// Name lookup is exact-match, case-sensitive.
type Registry struct {
	entries map[string]Binding
}

// New returns an empty registry ready for Insert calls.
func New() *Registry {
	return &Registry{entries: make(map[string]Binding)}
}

// Insert adds a binding. It is an error to insert a name twice, or to
// insert a binding that violates the kind/dims/width invariants.
func (r *Registry) Insert(b Binding) error {
	if err := b.validate(); err != nil {
		return err
	}
	if _, exists := r.entries[b.Name]; exists {
		return fmt.Errorf("registry: duplicate name %q", b.Name)
	}
	r.entries[b.Name] = b
	return nil
}

// Get looks up a binding by exact, case-sensitive name.
func (r *Registry) Get(name string) (Binding, bool) {
	b, ok := r.entries[name]
	return b, ok
}

// Contains reports whether name is registered.
func (r *Registry) Contains(name string) bool {
	_, ok := r.entries[name]
	return ok
}

// ResolveSelector parses a client path ("name", "name[i]", "name[hi:lo]")
// and returns the matching binding plus an optional array Range. It
// enforces spec §4.4's range rules: the parser rejects out-of-range or
// negative indices; hi>=lo descends, hi<lo ascends; a single index has
// length 1.
func (r *Registry) ResolveSelector(path string) (Binding, util.Range, bool, error) {
	name, rng, hasRange, err := util.ParsePath(path)
	if err != nil {
		return Binding{}, util.Range{}, false, err
	}
	b, ok := r.Get(name)
	if !ok {
		return Binding{}, util.Range{}, false, fmt.Errorf("registry: unknown path %q", path)
	}
	if hasRange {
		if b.Kind != Array {
			return Binding{}, util.Range{}, false, fmt.Errorf("registry: range selector on non-array %q", name)
		}
		if rng.Hi < 0 || rng.Lo < 0 || rng.Hi >= b.Depth || rng.Lo >= b.Depth {
			return Binding{}, util.Range{}, false, fmt.Errorf("registry: range [%d:%d] out of bounds for %q (depth %d)", rng.Hi, rng.Lo, name, b.Depth)
		}
	} else if b.Kind == Array {
		// Whole-array read: the caller distinguishes "no selector" from a
		// 1-wide range by checking hasRange.
	}
	return b, rng, hasRange, nil
}
