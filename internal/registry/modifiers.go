package registry

import (
	"sort"

	"github.com/vk/statgraph/internal/modifier"
)

// AddModifier attaches m to its target stat, creating the aggregator on
// first use. It reports false, and keeps nothing, if the target is unknown.
func (r *Registry) AddModifier(m *modifier.Modifier) bool {
	h, ok := r.graph.Lookup(m.Target)
	if !ok {
		r.logger.Debug("Modifier target not found.", "modifier", m.ID, "target", m.Target)
		return false
	}
	if old, ok := r.detach(m.ID); ok && old != m.Target {
		r.MarkDirty(old)
	}
	agg, ok := r.aggregators[m.Target]
	if !ok {
		agg = modifier.NewAggregator(m.Target)
		r.aggregators[m.Target] = agg
	}
	agg.Add(m)
	r.graph.MarkDirty(h)
	r.pending = true
	r.logger.Debug("Modifier added.", "modifier", m.ID, "target", m.Target, "kind", m.Kind.String(), "value", m.Value, "source", m.Source)
	return true
}

// detach removes a modifier id from whichever stack holds it.
func (r *Registry) detach(id string) (string, bool) {
	for target, agg := range r.aggregators {
		if agg.Remove(id) {
			return target, true
		}
	}
	return "", false
}

// RemoveModifier deletes the modifier with the given id.
func (r *Registry) RemoveModifier(id string) bool {
	target, ok := r.detach(id)
	if !ok {
		return false
	}
	r.MarkDirty(target)
	r.logger.Debug("Modifier removed.", "modifier", id, "target", target)
	return true
}

// RemoveModifiersBySource deletes every modifier created by src and
// returns the number removed.
func (r *Registry) RemoveModifiersBySource(src string) int {
	total := 0
	for _, target := range r.aggregatorTargets() {
		if n := r.aggregators[target].RemoveBySource(src); n > 0 {
			total += n
			r.MarkDirty(target)
		}
	}
	if total > 0 {
		r.logger.Debug("Modifiers removed by source.", "source", src, "count", total)
	}
	return total
}

// SetModifierActive flips the manual switch of a modifier.
func (r *Registry) SetModifierActive(id string, active bool) bool {
	for target, agg := range r.aggregators {
		if agg.SetActive(id, active) {
			r.MarkDirty(target)
			return true
		}
	}
	return false
}

// Modifiers returns the stack of target in sort order.
func (r *Registry) Modifiers(target string) []*modifier.Modifier {
	agg, ok := r.aggregators[target]
	if !ok {
		return nil
	}
	return agg.Modifiers()
}

// Aggregator returns the stack of target, if one was created.
func (r *Registry) Aggregator(target string) (*modifier.Aggregator, bool) {
	agg, ok := r.aggregators[target]
	return agg, ok
}

func (r *Registry) aggregatorTargets() []string {
	targets := make([]string, 0, len(r.aggregators))
	for t := range r.aggregators {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	return targets
}
