package producer

import (
	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/modifier"
	"github.com/vk/statgraph/internal/tag"
)

// Target is the slice of the registry a producer writes to.
type Target interface {
	AddModifier(m *modifier.Modifier) bool
	RemoveModifiersBySource(src string) int
	AddTag(t tag.Tag) bool
	RemoveTag(t tag.Tag) bool
}

// ModifierSpec is a modifier template. A fresh modifier is built from it
// every time its producer is applied.
type ModifierSpec struct {
	ID          string
	Target      string
	Kind        modifier.Kind
	Value       float64
	Priority    int32
	Description string
	Condition   eval.Predicate
}

func (s ModifierSpec) build(source string) *modifier.Modifier {
	opts := []modifier.Option{
		modifier.WithSource(source),
		modifier.WithPriority(s.Priority),
		modifier.WithDescription(s.Description),
	}
	if s.Condition != nil {
		opts = append(opts, modifier.WithCondition(s.Condition))
	}
	return modifier.New(s.ID, s.Target, s.Kind, s.Value, opts...)
}

// Item is an equippable producer. Two items sharing a non-empty Slot cannot
// be equipped at once.
type Item struct {
	ID         string
	Name       string
	Slot       string
	GrantsTags []tag.Tag
	Modifiers  []ModifierSpec
}

func (i *Item) slotKey() string {
	if i.Slot == "" {
		return "item:" + i.ID
	}
	return i.Slot
}

// Aura is a timed producer. A zero Duration never expires.
type Aura struct {
	ID         string
	Name       string
	Duration   float64
	GrantsTags []tag.Tag
	Modifiers  []ModifierSpec
}

// IsPermanent reports whether the aura lasts until expired by hand.
func (a *Aura) IsPermanent() bool { return a.Duration <= 0 }
