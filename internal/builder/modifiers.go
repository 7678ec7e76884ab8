package builder

import (
	"fmt"

	"github.com/vk/statgraph/internal/config"
	"github.com/vk/statgraph/internal/modifier"
	"github.com/vk/statgraph/internal/producer"
)

// checkModifier validates the fields shared by standing modifiers and
// producer templates. seen maps modifier ids to where they were declared.
func (p *buildPlan) checkModifier(cm *config.Modifier, seen map[string]string, where string) (producer.ModifierSpec, error) {
	var spec producer.ModifierSpec
	if cm.ID == "" {
		return spec, fmt.Errorf("%s: modifier on %q has an empty id", where, cm.Target)
	}
	if prev, dup := seen[cm.ID]; dup {
		return spec, fmt.Errorf("%s: duplicate modifier id %q (first declared in %s)", where, cm.ID, prev)
	}
	seen[cm.ID] = where

	kind, err := modifier.ParseKind(cm.Kind)
	if err != nil {
		return spec, fmt.Errorf("%s: modifier %q: %w", where, cm.ID, err)
	}
	if _, ok := p.defs[cm.Target]; !ok {
		return spec, fmt.Errorf("%s: modifier %q targets unknown stat %q", where, cm.ID, cm.Target)
	}
	if dp, ok := p.derived[cm.Target]; !ok || !dp.modified {
		return spec, fmt.Errorf("%s: modifier %q targets %q, which does not apply modifiers", where, cm.ID, cm.Target)
	}
	cond, err := p.predicate(cm.Condition)
	if err != nil {
		return spec, fmt.Errorf("%s: modifier %q: %w", where, cm.ID, err)
	}

	return producer.ModifierSpec{
		ID:          cm.ID,
		Target:      cm.Target,
		Kind:        kind,
		Value:       cm.Value,
		Priority:    cm.Priority,
		Description: cm.Description,
		Condition:   cond,
	}, nil
}

func (p *buildPlan) compileModifier(cm *config.Modifier, seen map[string]string, where string) (*modifier.Modifier, error) {
	spec, err := p.checkModifier(cm, seen, where)
	if err != nil {
		return nil, err
	}
	opts := []modifier.Option{
		modifier.WithPriority(spec.Priority),
		modifier.WithSource(cm.Source),
		modifier.WithDescription(spec.Description),
	}
	if spec.Condition != nil {
		opts = append(opts, modifier.WithCondition(spec.Condition))
	}
	return modifier.New(spec.ID, spec.Target, spec.Kind, spec.Value, opts...), nil
}

func (p *buildPlan) templates(owner string, mods []*config.Modifier, seen map[string]string) ([]producer.ModifierSpec, problems) {
	var errs problems
	specs := make([]producer.ModifierSpec, 0, len(mods))
	for _, cm := range mods {
		spec, err := p.checkModifier(cm, seen, owner)
		if err != nil {
			errs.add(err)
			continue
		}
		specs = append(specs, spec)
	}
	return specs, errs
}

func (p *buildPlan) compileItem(ci *config.Item, seen map[string]string) (*producer.Item, error) {
	where := fmt.Sprintf("item %q", ci.ID)
	specs, errs := p.templates(where, ci.Modifiers, seen)
	tags, err := parseTags(ci.GrantsTags)
	if err != nil {
		errs.add(fmt.Errorf("%s: %w", where, err))
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return &producer.Item{ID: ci.ID, Name: ci.Name, Slot: ci.Slot, GrantsTags: tags, Modifiers: specs}, nil
}

func (p *buildPlan) compileAura(ca *config.Aura, seen map[string]string) (*producer.Aura, error) {
	where := fmt.Sprintf("aura %q", ca.ID)
	specs, errs := p.templates(where, ca.Modifiers, seen)
	if ca.Duration < 0 {
		errs.addf("%s: duration must not be negative", where)
	}
	tags, err := parseTags(ca.GrantsTags)
	if err != nil {
		errs.add(fmt.Errorf("%s: %w", where, err))
	}
	if err := errs.err(); err != nil {
		return nil, err
	}
	return &producer.Aura{ID: ca.ID, Name: ca.Name, Duration: ca.Duration, GrantsTags: tags, Modifiers: specs}, nil
}
