package config

import (
	"github.com/hashicorp/hcl/v2"
)

// Model is the unified representation of one or more stat sheets.
// Slices keep declaration order.
type Model struct {
	Stats     []*Stat
	Histories []*History
	Trackers  []*Tracker
	Derived   []*Derived
	Modifiers []*Modifier
	Items     []*Item
	Auras     []*Aura
}

// Stat is a source node.
type Stat struct {
	ID       string
	Label    string
	Category string
	Value    float64
}

// History is a temporal node backed by an event channel.
type History struct {
	ID       string
	Label    string
	Category string
	// Window is the sliding window in seconds whose sum the node exposes.
	Window float64
	// Capacity overrides the default event cap when positive.
	Capacity int
}

// Tracker is a named recency fact.
type Tracker struct {
	Name   string
	Window float64
}

// Derived is a computed node.
type Derived struct {
	ID       string
	Label    string
	Category string
	Base     float64
	Parents  []string
	// Conditional parents contribute only while their condition holds.
	Conditional []*ConditionalParent
	// Formula is nil for a plain sum.
	Formula hcl.Expression
	// Modified runs the result through the node's modifier stack.
	Modified bool
}

// ConditionalParent is a gated dependency.
type ConditionalParent struct {
	Stat      string
	Condition *Condition
}

// Condition gates a modifier or a conditional parent. Every populated field
// must hold.
type Condition struct {
	RequiresTags    []string
	RequiresAnyTags []string
	RequiresRecent  string
	// When is an optional boolean expression.
	When        hcl.Expression
	Description string
}

// IsEmpty reports whether the condition constrains nothing.
func (c *Condition) IsEmpty() bool {
	return c == nil || (len(c.RequiresTags) == 0 && len(c.RequiresAnyTags) == 0 && c.RequiresRecent == "" && c.When == nil)
}

// Modifier is a standing modifier or a template carried by a producer.
type Modifier struct {
	ID          string
	Target      string
	Kind        string
	Value       float64
	Priority    int32
	Source      string
	Description string
	Condition   *Condition
}

// Item is an equippable producer.
type Item struct {
	ID         string
	Name       string
	Slot       string
	GrantsTags []string
	Modifiers  []*Modifier
}

// Aura is a timed producer. A zero Duration never expires.
type Aura struct {
	ID         string
	Name       string
	Duration   float64
	GrantsTags []string
	Modifiers  []*Modifier
}
