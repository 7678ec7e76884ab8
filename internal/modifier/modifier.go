package modifier

import (
	"github.com/vk/statgraph/internal/eval"
)

// Modifier is one adjustment to a target stat.
type Modifier struct {
	ID       string
	Target   string
	Kind     Kind
	Value    float64
	Priority int32
	// Source is the producer that created the modifier, e.g. an item id.
	Source      string
	Description string
	// Dynamic, when set, replaces Value at evaluation time.
	Dynamic func(eval.Context) float64
	// Condition, when set, gates the modifier at evaluation time.
	Condition eval.Predicate

	active       bool
	contributing bool
}

// Option configures a Modifier.
type Option func(*Modifier)

// WithCondition gates the modifier on p.
func WithCondition(p eval.Predicate) Option {
	return func(m *Modifier) { m.Condition = p }
}

// WithDynamic computes the value from the context on every evaluation.
func WithDynamic(fn func(eval.Context) float64) Option {
	return func(m *Modifier) { m.Dynamic = fn }
}

// WithPriority orders the modifier among others of the same kind.
func WithPriority(p int32) Option {
	return func(m *Modifier) { m.Priority = p }
}

// WithSource records the producer id.
func WithSource(src string) Option {
	return func(m *Modifier) { m.Source = src }
}

// WithDescription sets a human-readable description.
func WithDescription(d string) Option {
	return func(m *Modifier) { m.Description = d }
}

// New creates an active modifier.
func New(id, target string, kind Kind, value float64, opts ...Option) *Modifier {
	m := &Modifier{ID: id, Target: target, Kind: kind, Value: value, active: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsActive reports the manual on/off switch.
func (m *Modifier) IsActive() bool { return m.active }

// IsContributing reports whether the modifier contributed to the most recent calculation.
func (m *Modifier) IsContributing() bool { return m.contributing }

// HasCondition reports whether the modifier is conditional.
func (m *Modifier) HasCondition() bool { return m.Condition != nil }

// IsDynamic reports whether the value is computed at evaluation time.
func (m *Modifier) IsDynamic() bool { return m.Dynamic != nil }

// EffectiveValue returns the dynamic value if present, otherwise Value.
func (m *Modifier) EffectiveValue(ctx eval.Context) float64 {
	if m.Dynamic != nil {
		return m.Dynamic(ctx)
	}
	return m.Value
}

// evaluate refreshes and returns the contributing flag.
func (m *Modifier) evaluate(ctx eval.Context) bool {
	m.contributing = m.active && (m.Condition == nil || m.Condition(ctx))
	return m.contributing
}

func (m *Modifier) less(o *Modifier) bool {
	if m.Kind != o.Kind {
		return m.Kind < o.Kind
	}
	return m.Priority < o.Priority
}
