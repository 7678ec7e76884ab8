package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// This file defines the Go structs gohcl decodes a stat sheet into.

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Stats     []*StatBlock     `hcl:"stat,block"`
	Histories []*HistoryBlock  `hcl:"history,block"`
	Trackers  []*TrackerBlock  `hcl:"tracker,block"`
	Derived   []*DerivedBlock  `hcl:"derived,block"`
	Modifiers []*ModifierBlock `hcl:"modifier,block"`
	Items     []*ItemBlock     `hcl:"item,block"`
	Auras     []*AuraBlock     `hcl:"aura,block"`
}

// StatBlock is `stat "<id>" { ... }`.
type StatBlock struct {
	ID       string  `hcl:"id,label"`
	Value    float64 `hcl:"value,optional"`
	Label    string  `hcl:"label,optional"`
	Category string  `hcl:"category,optional"`
}

// HistoryBlock is `history "<id>" { ... }`.
type HistoryBlock struct {
	ID       string  `hcl:"id,label"`
	Window   float64 `hcl:"window,optional"`
	Capacity int     `hcl:"capacity,optional"`
	Label    string  `hcl:"label,optional"`
	Category string  `hcl:"category,optional"`
}

// TrackerBlock is `tracker "<name>" { ... }`.
type TrackerBlock struct {
	Name   string  `hcl:"name,label"`
	Window float64 `hcl:"window,optional"`
}

// DerivedBlock is `derived "<id>" { ... }`.
type DerivedBlock struct {
	ID          string                    `hcl:"id,label"`
	Label       string                    `hcl:"label,optional"`
	Category    string                    `hcl:"category,optional"`
	Base        float64                   `hcl:"base,optional"`
	Parents     []string                  `hcl:"parents,optional"`
	Formula     hcl.Expression            `hcl:"formula,optional"`
	Modified    bool                      `hcl:"modified,optional"`
	Conditional []*ConditionalParentBlock `hcl:"conditional_parent,block"`
}

// ConditionalParentBlock is `conditional_parent "<stat>" { ... }`.
type ConditionalParentBlock struct {
	Stat            string         `hcl:"stat,label"`
	RequiresTag     string         `hcl:"requires_tag,optional"`
	RequiresTags    []string       `hcl:"requires_tags,optional"`
	RequiresAnyTags []string       `hcl:"requires_any_tags,optional"`
	RequiresRecent  string         `hcl:"requires_recent,optional"`
	When            hcl.Expression `hcl:"when,optional"`
	Description     string         `hcl:"description,optional"`
}

// ModifierBlock is a standing `modifier "<id>" { ... }`.
type ModifierBlock struct {
	ID              string         `hcl:"id,label"`
	Target          string         `hcl:"target"`
	Kind            string         `hcl:"kind"`
	Value           float64        `hcl:"value"`
	Priority        int32          `hcl:"priority,optional"`
	Source          string         `hcl:"source,optional"`
	Description     string         `hcl:"description,optional"`
	RequiresTag     string         `hcl:"requires_tag,optional"`
	RequiresTags    []string       `hcl:"requires_tags,optional"`
	RequiresAnyTags []string       `hcl:"requires_any_tags,optional"`
	RequiresRecent  string         `hcl:"requires_recent,optional"`
	When            hcl.Expression `hcl:"when,optional"`
}

// TemplateModifierBlock is `modifier "<target>" { ... }` inside an item or aura.
type TemplateModifierBlock struct {
	Target          string         `hcl:"target,label"`
	ID              string         `hcl:"id,optional"`
	Kind            string         `hcl:"kind"`
	Value           float64        `hcl:"value"`
	Priority        int32          `hcl:"priority,optional"`
	Description     string         `hcl:"description,optional"`
	RequiresTag     string         `hcl:"requires_tag,optional"`
	RequiresTags    []string       `hcl:"requires_tags,optional"`
	RequiresAnyTags []string       `hcl:"requires_any_tags,optional"`
	RequiresRecent  string         `hcl:"requires_recent,optional"`
	When            hcl.Expression `hcl:"when,optional"`
}

// ItemBlock is `item "<id>" { ... }`.
type ItemBlock struct {
	ID         string                   `hcl:"id,label"`
	Name       string                   `hcl:"name,optional"`
	Slot       string                   `hcl:"slot,optional"`
	GrantsTags []string                 `hcl:"grants_tags,optional"`
	Modifiers  []*TemplateModifierBlock `hcl:"modifier,block"`
}

// AuraBlock is `aura "<id>" { ... }`.
type AuraBlock struct {
	ID         string                   `hcl:"id,label"`
	Name       string                   `hcl:"name,optional"`
	Duration   float64                  `hcl:"duration,optional"`
	GrantsTags []string                 `hcl:"grants_tags,optional"`
	Modifiers  []*TemplateModifierBlock `hcl:"modifier,block"`
}
