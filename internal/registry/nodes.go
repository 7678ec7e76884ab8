package registry

import (
	"math"

	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/graph"
	"github.com/vk/statgraph/internal/node"
)

// CreateSource adds a node whose value is written from outside.
func (r *Registry) CreateSource(id, label, category string, value float64) node.Handle {
	return r.graph.Add(graph.Spec{ID: id, Label: label, Category: category, Kind: node.Source, Base: value})
}

// CreateDerived adds a node computed by combine (nil for sum) from the given
// parents. Unknown parent ids are a construction bug and panic.
func (r *Registry) CreateDerived(id, label, category string, combine node.CombineFunc, parents ...string) node.Handle {
	return r.createDerived(graph.Spec{ID: id, Label: label, Category: category, Kind: node.Derived, Combine: combine}, parents)
}

// CreateModified adds a derived node that sums its parents, adds base and
// runs the result through its own modifier stack.
func (r *Registry) CreateModified(id, label, category string, base float64, parents ...string) node.Handle {
	return r.createDerived(graph.Spec{ID: id, Label: label, Category: category, Kind: node.Derived, Base: base, Combine: Modified}, parents)
}

// CreateFormula adds a derived node computed by formula, with the modifier
// stack applied to the formula result.
func (r *Registry) CreateFormula(id, label, category string, base float64, formula node.CombineFunc, parents ...string) node.Handle {
	return r.createDerived(graph.Spec{ID: id, Label: label, Category: category, Kind: node.Derived, Base: base, Combine: ThenModifiers(formula)}, parents)
}

func (r *Registry) createDerived(s graph.Spec, parents []string) node.Handle {
	h := r.graph.Add(s)
	for _, p := range parents {
		ph, ok := r.graph.Lookup(p)
		if !ok {
			panic("registry: node " + s.ID + " references unknown parent " + p)
		}
		r.graph.AddParent(h, ph)
	}
	return h
}

// AddParent links parent -> child by id.
func (r *Registry) AddParent(child, parent string) bool {
	ch, ok := r.graph.Lookup(child)
	if !ok {
		return false
	}
	ph, ok := r.graph.Lookup(parent)
	if !ok {
		return false
	}
	r.graph.AddParent(ch, ph)
	r.pending = true
	return true
}

// AddConditionalParent links parent -> child, contributing only while when holds.
func (r *Registry) AddConditionalParent(child, parent string, when eval.Predicate, description string) bool {
	ch, ok := r.graph.Lookup(child)
	if !ok {
		return false
	}
	ph, ok := r.graph.Lookup(parent)
	if !ok {
		return false
	}
	r.graph.AddConditionalParent(ch, ph, when, description)
	r.pending = true
	return true
}

// Lookup resolves a node id.
func (r *Registry) Lookup(id string) (node.Handle, bool) {
	return r.graph.Lookup(id)
}

// NodeInfo is a read-only view of a node.
type NodeInfo struct {
	ID       string
	Label    string
	Category string
	Kind     node.Kind
	Value    float64
	Dirty    bool
}

// Node returns a view of id, evaluating it if needed.
func (r *Registry) Node(id string) (NodeInfo, bool) {
	h, ok := r.graph.Lookup(id)
	if !ok {
		return NodeInfo{}, false
	}
	n := r.graph.Node(h)
	info := NodeInfo{ID: n.ID, Label: n.Label, Category: n.Category, Kind: n.Kind, Dirty: n.IsDirty()}
	info.Value = r.graph.Value(h)
	return info, true
}

// NodeIDs returns every node id in insertion order.
func (r *Registry) NodeIDs() []string {
	ids := make([]string, 0, r.graph.Len())
	for _, h := range r.graph.Handles() {
		ids = append(ids, r.graph.Node(h).ID)
	}
	return ids
}

// NodeValue evaluates id.
func (r *Registry) NodeValue(id string) (float64, bool) {
	h, ok := r.graph.Lookup(id)
	if !ok {
		return 0, false
	}
	return r.graph.Value(h), true
}

// NodeLabel returns the label of id.
func (r *Registry) NodeLabel(id string) (string, bool) {
	h, ok := r.graph.Lookup(id)
	if !ok {
		return "", false
	}
	return r.graph.Node(h).Label, true
}

// SetNodeValue writes the base value of id. It reports false for an unknown
// id or a NaN or infinite value.
func (r *Registry) SetNodeValue(id string, v float64) bool {
	h, ok := r.graph.Lookup(id)
	if !ok || !finite(v) {
		return false
	}
	if r.graph.SetBaseValue(h, v) {
		r.pending = true
		r.logger.Debug("Node value set.", "node", id, "value", v)
	}
	return true
}

// MarkContextSensitive makes id recompute whenever tags change or a recency
// fact flips, for combine functions that read the context directly.
func (r *Registry) MarkContextSensitive(id string) bool {
	h, ok := r.graph.Lookup(id)
	if !ok {
		return false
	}
	r.contextual[h] = struct{}{}
	return true
}

// MarkDirty invalidates id and its descendants.
func (r *Registry) MarkDirty(id string) bool {
	h, ok := r.graph.Lookup(id)
	if !ok {
		return false
	}
	r.graph.MarkDirty(h)
	r.pending = true
	return true
}

// RecalculateAll evaluates every node so that no node is left dirty.
func (r *Registry) RecalculateAll() {
	for _, h := range r.graph.Handles() {
		r.graph.Value(h)
	}
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
