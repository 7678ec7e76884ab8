package graph

import (
	"fmt"

	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/node"
)

// Observer is notified of evaluation work. It is used for metrics.
type Observer interface {
	Recomputed(id string)
	Invalidated(id string)
}

// ContextFunc supplies the evaluation context at call time.
type ContextFunc func() eval.Context

// Graph is the node arena.
type Graph struct {
	nodes    []node.Node
	index    map[string]node.Handle
	context  ContextFunc
	observer Observer
}

// Option configures a Graph.
type Option func(*Graph)

// WithContext sets the provider of the evaluation context.
func WithContext(fn ContextFunc) Option {
	return func(g *Graph) { g.context = fn }
}

// WithObserver attaches an Observer.
func WithObserver(o Observer) Option {
	return func(g *Graph) { g.observer = o }
}

// New creates an empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{index: make(map[string]node.Handle)}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Spec describes a node to add.
type Spec struct {
	ID       string
	Label    string
	Category string
	Kind     node.Kind
	Base     float64
	Combine  node.CombineFunc
}

// Add inserts a node and returns its handle. A duplicate ID is a
// construction bug and panics.
func (g *Graph) Add(s Spec) node.Handle {
	if _, exists := g.index[s.ID]; exists {
		panic(fmt.Sprintf("graph: duplicate node id %q", s.ID))
	}
	h := node.Handle(len(g.nodes))
	g.nodes = append(g.nodes, node.New(s.ID, s.Label, s.Category, s.Kind, s.Base, s.Combine))
	g.index[s.ID] = h
	return h
}

// Lookup resolves an id to its handle.
func (g *Graph) Lookup(id string) (node.Handle, bool) {
	h, ok := g.index[id]
	return h, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the node behind h. The pointer is valid until the next Add.
func (g *Graph) Node(h node.Handle) *node.Node {
	return &g.nodes[h]
}

// Handles returns every handle in insertion order.
func (g *Graph) Handles() []node.Handle {
	out := make([]node.Handle, len(g.nodes))
	for i := range g.nodes {
		out[i] = node.Handle(i)
	}
	return out
}

// Context returns the current evaluation context.
func (g *Graph) Context() eval.Context {
	if g.context == nil {
		return eval.Context{}
	}
	return g.context()
}

// AddParent links parent -> child. A Derived child becomes dirty and its
// descendants are invalidated.
func (g *Graph) AddParent(child, parent node.Handle) {
	g.nodes[child].Parents = append(g.nodes[child].Parents, parent)
	g.nodes[parent].Children = append(g.nodes[parent].Children, child)
	g.linked(child)
}

// AddConditionalParent links parent -> child, active only while when holds.
func (g *Graph) AddConditionalParent(child, parent node.Handle, when eval.Predicate, description string) {
	g.nodes[child].Conditional = append(g.nodes[child].Conditional, node.ConditionalParent{
		Parent:      parent,
		When:        when,
		Description: description,
	})
	g.nodes[parent].Children = append(g.nodes[parent].Children, child)
	g.linked(child)
}

func (g *Graph) linked(child node.Handle) {
	if g.nodes[child].Kind == node.Derived {
		g.MarkDirty(child)
	}
}

// Value returns the current value of h, recomputing dirty Derived ancestors.
// Panics raised by combine functions or predicates propagate to the caller.
func (g *Graph) Value(h node.Handle) float64 {
	n := &g.nodes[h]
	if n.Kind != node.Derived {
		return n.Refresh()
	}
	if !n.IsDirty() {
		return n.Cached()
	}

	in := node.Inputs{ID: n.ID, Base: n.Base()}
	for _, p := range n.Parents {
		in.Values = append(in.Values, g.Value(p))
		in.From = append(in.From, g.nodes[p].ID)
	}
	ctx := g.Context()
	for _, cp := range n.Conditional {
		if cp.When == nil || cp.When(ctx) {
			in.Values = append(in.Values, g.Value(cp.Parent))
			in.From = append(in.From, g.nodes[cp.Parent].ID)
		}
	}

	combine := n.Combine
	if combine == nil {
		combine = node.Sum
	}
	v := combine(ctx, in)

	n = &g.nodes[h]
	n.Store(v)
	if g.observer != nil {
		g.observer.Recomputed(n.ID)
	}
	return v
}

// SetBaseValue writes v. Equal writes are ignored. Otherwise descendants
// are invalidated; a Derived node is itself marked dirty since its combine
// function may read the base.
func (g *Graph) SetBaseValue(h node.Handle, v float64) bool {
	n := &g.nodes[h]
	if !n.SetBase(v) {
		return false
	}
	if n.Kind == node.Derived {
		g.MarkDirty(h)
		return true
	}
	g.invalidateChildren(h)
	return true
}

// MarkDirty flags h stale and invalidates its descendants. It is a no-op if
// h is already dirty.
func (g *Graph) MarkDirty(h node.Handle) {
	if !g.nodes[h].MarkDirty() {
		return
	}
	g.invalidated(h)
	g.invalidateChildren(h)
}

// invalidateChildren runs the depth-first wave below h, skipping nodes that
// are already dirty.
func (g *Graph) invalidateChildren(h node.Handle) {
	stack := append([]node.Handle(nil), g.nodes[h].Children...)
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !g.nodes[c].MarkDirty() {
			continue
		}
		g.invalidated(c)
		stack = append(stack, g.nodes[c].Children...)
	}
}

func (g *Graph) invalidated(h node.Handle) {
	if g.observer != nil {
		g.observer.Invalidated(g.nodes[h].ID)
	}
}

// ConditionalNodes returns every node with at least one conditional parent.
func (g *Graph) ConditionalNodes() []node.Handle {
	var out []node.Handle
	for i := range g.nodes {
		if g.nodes[i].HasConditionalParents() {
			out = append(out, node.Handle(i))
		}
	}
	return out
}

// Edge is one parent -> child link as seen from outside.
type Edge struct {
	From        string
	To          string
	Active      bool
	Conditional bool
	Condition   string
}

// Edges lists every link in node insertion order. Conditional edges report
// whether their predicate holds right now.
func (g *Graph) Edges() []Edge {
	var (
		out []Edge
		ctx eval.Context
		got bool
	)
	for i := range g.nodes {
		n := &g.nodes[i]
		for _, p := range n.Parents {
			out = append(out, Edge{From: g.nodes[p].ID, To: n.ID, Active: true})
		}
		for _, cp := range n.Conditional {
			if !got {
				ctx, got = g.Context(), true
			}
			out = append(out, Edge{
				From:        g.nodes[cp.Parent].ID,
				To:          n.ID,
				Active:      cp.When == nil || cp.When(ctx),
				Conditional: true,
				Condition:   cp.Description,
			})
		}
	}
	return out
}
