// This file contains the logic for translating HCL schema structs into the
// format-agnostic stat sheet model defined in the config package.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/statgraph/internal/config"
	"github.com/vk/statgraph/internal/ctxlog"
)

// Defaults applied when a sheet omits a window.
const (
	DefaultHistoryWindow = 5.0
	DefaultTrackerWindow = 4.0
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with zero-width
// placeholder expressions, so a nil check alone is insufficient.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

func definedOrNil(ctx context.Context, expr hcl.Expression, attrName string) hcl.Expression {
	if isExprDefined(ctx, expr, attrName) {
		return expr
	}
	return nil
}

func translateStat(b *StatBlock) *config.Stat {
	return &config.Stat{ID: b.ID, Label: b.Label, Category: b.Category, Value: b.Value}
}

func translateHistory(b *HistoryBlock) *config.History {
	window := b.Window
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	return &config.History{ID: b.ID, Label: b.Label, Category: b.Category, Window: window, Capacity: b.Capacity}
}

func translateTracker(b *TrackerBlock) *config.Tracker {
	window := b.Window
	if window <= 0 {
		window = DefaultTrackerWindow
	}
	return &config.Tracker{Name: b.Name, Window: window}
}

func translateDerived(ctx context.Context, b *DerivedBlock) *config.Derived {
	logger := ctxlog.FromContext(ctx).With("derived", b.ID)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Translating HCL derived block to internal config model.")

	d := &config.Derived{
		ID:       b.ID,
		Label:    b.Label,
		Category: b.Category,
		Base:     b.Base,
		Parents:  b.Parents,
		Formula:  definedOrNil(ctx, b.Formula, "formula"),
		Modified: b.Modified,
	}
	for _, cp := range b.Conditional {
		d.Conditional = append(d.Conditional, &config.ConditionalParent{
			Stat: cp.Stat,
			Condition: condition(ctx, conditionFields{
				tag:         cp.RequiresTag,
				tags:        cp.RequiresTags,
				anyTags:     cp.RequiresAnyTags,
				recent:      cp.RequiresRecent,
				when:        cp.When,
				description: cp.Description,
			}),
		})
	}
	return d
}

func translateModifier(ctx context.Context, b *ModifierBlock) *config.Modifier {
	return &config.Modifier{
		ID:          b.ID,
		Target:      b.Target,
		Kind:        b.Kind,
		Value:       b.Value,
		Priority:    b.Priority,
		Source:      b.Source,
		Description: b.Description,
		Condition: condition(ctx, conditionFields{
			tag:     b.RequiresTag,
			tags:    b.RequiresTags,
			anyTags: b.RequiresAnyTags,
			recent:  b.RequiresRecent,
			when:    b.When,
		}),
	}
}

// translateTemplates converts producer modifiers. Missing ids are derived
// from the producer, the target and the position, so two modifiers of one
// producer on the same stat stay distinct.
func translateTemplates(ctx context.Context, producer string, blocks []*TemplateModifierBlock) []*config.Modifier {
	out := make([]*config.Modifier, 0, len(blocks))
	for i, b := range blocks {
		id := b.ID
		if id == "" {
			id = fmt.Sprintf("%s.%s.%d", producer, b.Target, i)
		}
		out = append(out, &config.Modifier{
			ID:          id,
			Target:      b.Target,
			Kind:        b.Kind,
			Value:       b.Value,
			Priority:    b.Priority,
			Source:      producer,
			Description: b.Description,
			Condition: condition(ctx, conditionFields{
				tag:     b.RequiresTag,
				tags:    b.RequiresTags,
				anyTags: b.RequiresAnyTags,
				recent:  b.RequiresRecent,
				when:    b.When,
			}),
		})
	}
	return out
}

func translateItem(ctx context.Context, b *ItemBlock) *config.Item {
	name := b.Name
	if name == "" {
		name = b.ID
	}
	return &config.Item{
		ID:         b.ID,
		Name:       name,
		Slot:       b.Slot,
		GrantsTags: b.GrantsTags,
		Modifiers:  translateTemplates(ctx, b.ID, b.Modifiers),
	}
}

func translateAura(ctx context.Context, b *AuraBlock) *config.Aura {
	name := b.Name
	if name == "" {
		name = b.ID
	}
	return &config.Aura{
		ID:         b.ID,
		Name:       name,
		Duration:   b.Duration,
		GrantsTags: b.GrantsTags,
		Modifiers:  translateTemplates(ctx, b.ID, b.Modifiers),
	}
}

type conditionFields struct {
	tag         string
	tags        []string
	anyTags     []string
	recent      string
	when        hcl.Expression
	description string
}

// condition returns nil when no gate was declared.
func condition(ctx context.Context, f conditionFields) *config.Condition {
	c := &config.Condition{
		RequiresTags:    f.tags,
		RequiresAnyTags: f.anyTags,
		RequiresRecent:  f.recent,
		When:            definedOrNil(ctx, f.when, "when"),
		Description:     f.description,
	}
	if f.tag != "" {
		c.RequiresTags = append([]string{f.tag}, c.RequiresTags...)
	}
	if c.IsEmpty() {
		return nil
	}
	return c
}
