package modifier

import (
	"sort"

	"github.com/vk/statgraph/internal/eval"
)

// Aggregator is the sorted modifier stack of one target stat.
type Aggregator struct {
	target string
	mods   []*Modifier
}

// NewAggregator creates an empty stack for target.
func NewAggregator(target string) *Aggregator {
	return &Aggregator{target: target}
}

// Target returns the stat id this aggregator modifies.
func (a *Aggregator) Target() string { return a.target }

// Add inserts m after every modifier that sorts at or before it, so equal
// (kind, priority) keys keep insertion order. A modifier with the same ID
// is replaced.
func (a *Aggregator) Add(m *Modifier) {
	a.Remove(m.ID)
	i := sort.Search(len(a.mods), func(i int) bool { return m.less(a.mods[i]) })
	a.mods = append(a.mods, nil)
	copy(a.mods[i+1:], a.mods[i:])
	a.mods[i] = m
}

// Remove deletes the modifier with the given id.
func (a *Aggregator) Remove(id string) bool {
	for i, m := range a.mods {
		if m.ID == id {
			a.mods = append(a.mods[:i], a.mods[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveBySource deletes every modifier created by src and returns the count.
func (a *Aggregator) RemoveBySource(src string) int {
	kept := a.mods[:0]
	for _, m := range a.mods {
		if m.Source != src {
			kept = append(kept, m)
		}
	}
	removed := len(a.mods) - len(kept)
	for i := len(kept); i < len(a.mods); i++ {
		a.mods[i] = nil
	}
	a.mods = kept
	return removed
}

// SetActive flips the manual switch of a modifier.
func (a *Aggregator) SetActive(id string, active bool) bool {
	if m := a.Get(id); m != nil {
		m.active = active
		if !active {
			m.contributing = false
		}
		return true
	}
	return false
}

// Get returns the modifier with the given id or nil.
func (a *Aggregator) Get(id string) *Modifier {
	for _, m := range a.mods {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// Modifiers returns the stack in sort order. The slice is a copy; the
// modifiers are shared.
func (a *Aggregator) Modifiers() []*Modifier {
	out := make([]*Modifier, len(a.mods))
	copy(out, a.mods)
	return out
}

// Len returns the number of modifiers.
func (a *Aggregator) Len() int { return len(a.mods) }

// ActiveCount counts modifiers that contributed to the last calculation.
func (a *Aggregator) ActiveCount() int {
	n := 0
	for _, m := range a.mods {
		if m.contributing {
			n++
		}
	}
	return n
}

// HasDynamic reports whether any modifier computes its value at evaluation time.
func (a *Aggregator) HasDynamic() bool {
	for _, m := range a.mods {
		if m.Dynamic != nil {
			return true
		}
	}
	return false
}

// Clear removes every modifier.
func (a *Aggregator) Clear() { a.mods = nil }

// Calculate applies the stack to base.
func (a *Aggregator) Calculate(base float64, ctx eval.Context) float64 {
	var (
		flat, increased float64
		more            = 1.0
		override        float64
		overridden      bool
	)
	for _, m := range a.mods {
		if !m.evaluate(ctx) {
			continue
		}
		v := m.EffectiveValue(ctx)
		switch m.Kind {
		case Flat:
			flat += v
		case Increased:
			increased += v
		case More:
			more *= 1 + v
		case Override:
			override, overridden = v, true
		}
	}
	if overridden {
		return override
	}
	return (base + flat) * (1 + increased) * more
}
