package node

import (
	"github.com/vk/statgraph/internal/eval"
)

// Handle is the stable index of a node inside its graph's arena.
type Handle int

// None is the invalid handle.
const None Handle = -1

// Kind classifies how a node produces its value.
type Kind int

const (
	// Source nodes hold a value written from outside.
	Source Kind = iota
	// Derived nodes combine their parents' values and cache the result.
	Derived
	// Temporal nodes mirror a history channel aggregate written by the registry.
	Temporal
)

func (k Kind) String() string {
	switch k {
	case Source:
		return "base"
	case Derived:
		return "derived"
	case Temporal:
		return "history"
	default:
		return "unknown"
	}
}

// Inputs is what a combine function receives.
type Inputs struct {
	// ID and Base describe the node being computed.
	ID   string
	Base float64
	// Values holds the contributing parent values, plain parents first and
	// then the active conditional parents, each in link order.
	Values []float64
	// From holds the parent id for each entry of Values.
	From []string
}

// Sum returns the arithmetic sum of Values.
func (in Inputs) Sum() float64 {
	var s float64
	for _, v := range in.Values {
		s += v
	}
	return s
}

// Get returns the value contributed by parent id.
func (in Inputs) Get(id string) (float64, bool) {
	for i, from := range in.From {
		if from == id {
			return in.Values[i], true
		}
	}
	return 0, false
}

// CombineFunc computes a derived value. It must not retain ctx or in.
type CombineFunc func(ctx eval.Context, in Inputs) float64

// Sum is the default CombineFunc.
func Sum(_ eval.Context, in Inputs) float64 { return in.Sum() }

// ConditionalParent is a dependency that contributes only while When holds.
type ConditionalParent struct {
	Parent      Handle
	When        eval.Predicate
	Description string
}

// Node is one vertex of the stat graph.
type Node struct {
	// ID is the unique, machine-readable identifier, e.g. "maxLife".
	ID string
	// Label is the human-readable name. It defaults to ID.
	Label string
	// Category groups nodes for display, e.g. "defense".
	Category string
	Kind     Kind
	// Combine is nil for the default sum.
	Combine CombineFunc

	Parents     []Handle
	Conditional []ConditionalParent
	// Children are back-links used only for invalidation.
	Children []Handle

	// --- Internal state management ---

	base   float64
	cached float64
	dirty  bool

	// recomputes counts Derived recomputations.
	recomputes uint64
	// invalidations counts how often the node was marked dirty.
	invalidations uint64
}

// New builds a node. Derived nodes start dirty; other kinds start clean with
// their cache mirroring base.
func New(id, label, category string, kind Kind, base float64, combine CombineFunc) Node {
	if label == "" {
		label = id
	}
	n := Node{ID: id, Label: label, Category: category, Kind: kind, Combine: combine, base: base}
	if kind == Derived {
		n.dirty = true
	} else {
		n.cached = base
	}
	return n
}

// Base returns the stored base value.
func (n *Node) Base() float64 { return n.base }

// Cached returns the last computed value without evaluating anything.
func (n *Node) Cached() float64 { return n.cached }

// IsDirty reports whether the cached value is stale.
func (n *Node) IsDirty() bool { return n.dirty }

// Recomputes returns how many times a Derived node has recomputed.
func (n *Node) Recomputes() uint64 { return n.recomputes }

// Invalidations returns how many times the node was marked dirty.
func (n *Node) Invalidations() uint64 { return n.invalidations }

// SetBase stores v and reports whether it differed from the previous base.
// Source and Temporal nodes also mirror v into the cache.
func (n *Node) SetBase(v float64) bool {
	if n.base == v {
		return false
	}
	n.base = v
	if n.Kind != Derived {
		n.cached = v
	}
	return true
}

// MarkDirty flags the node stale. It reports false if it already was.
func (n *Node) MarkDirty() bool {
	if n.dirty {
		return false
	}
	n.dirty = true
	n.invalidations++
	return true
}

// Store caches a freshly computed value and clears the dirty flag.
func (n *Node) Store(v float64) {
	n.cached = v
	n.dirty = false
	n.recomputes++
}

// Refresh re-mirrors base into the cache of a Source or Temporal node and clears the dirty flag.
func (n *Node) Refresh() float64 {
	n.cached = n.base
	n.dirty = false
	return n.base
}

// HasConditionalParents reports whether any conditional link exists.
func (n *Node) HasConditionalParents() bool { return len(n.Conditional) > 0 }
