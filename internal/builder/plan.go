package builder

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/vk/statgraph/internal/config"
	"github.com/vk/statgraph/internal/ctxlog"
	"github.com/vk/statgraph/internal/dag"
	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/formula"
	"github.com/vk/statgraph/internal/modifier"
	"github.com/vk/statgraph/internal/node"
	"github.com/vk/statgraph/internal/producer"
	"github.com/vk/statgraph/internal/registry"
)

// buildPlan is a validated model, ready to be instantiated.
type buildPlan struct {
	// defs maps a node id to its *config.Stat, *config.History or *config.Derived.
	defs     map[string]any
	order    []string
	derived  map[string]*derivedPlan
	trackers map[string]bool

	modifiers []*modifier.Modifier
	items     []*producer.Item
	auras     []*producer.Aura
}

type derivedPlan struct {
	parents     []string
	conditional []conditionalPlan
	combine     node.CombineFunc
	// modified reports whether the node applies its modifier stack.
	modified bool
	// contextual is set when the formula reads tags or recency facts.
	contextual bool
}

type conditionalPlan struct {
	stat        string
	when        eval.Predicate
	description string
}

func plan(ctx context.Context, m *config.Model) (*buildPlan, error) {
	if m == nil {
		return nil, errors.New("stat sheet is empty")
	}
	logger := ctxlog.FromContext(ctx)

	p := &buildPlan{
		defs:     make(map[string]any),
		derived:  make(map[string]*derivedPlan),
		trackers: map[string]bool{registry.FactCrit: true, registry.FactBlock: true, registry.FactKill: true},
	}
	var errs problems

	// Phase 1: indexing.
	g := dag.New()
	index := func(id string, def any) {
		if id == "" {
			errs.addf("a %s block has an empty id", kindName(def))
			return
		}
		if prev, exists := p.defs[id]; exists {
			errs.addf("duplicate id %q: declared as %s and %s", id, kindName(prev), kindName(def))
			return
		}
		p.defs[id] = def
		g.AddNode(id)
	}
	for _, s := range m.Stats {
		index(s.ID, s)
	}
	for _, h := range m.Histories {
		index(h.ID, h)
	}
	for _, d := range m.Derived {
		index(d.ID, d)
	}
	seenTrackers := make(map[string]bool)
	for _, tr := range m.Trackers {
		if seenTrackers[tr.Name] {
			errs.addf("duplicate tracker %q", tr.Name)
		}
		seenTrackers[tr.Name] = true
		p.trackers[tr.Name] = true
	}

	// Phase 2: linking.
	for _, d := range m.Derived {
		if def, ok := p.defs[d.ID].(*config.Derived); !ok || def != d {
			continue
		}
		dp, err := p.planDerived(ctx, g, d)
		errs.add(err)
		if dp != nil {
			p.derived[d.ID] = dp
		}
	}

	// Phase 3: validation.
	order, err := g.TopologicalOrder()
	if err != nil {
		errs.add(fmt.Errorf("stat dependencies: %w", err))
	}
	p.order = order

	modIDs := make(map[string]string)
	for _, cm := range m.Modifiers {
		mod, err := p.compileModifier(cm, modIDs, "standing modifiers")
		if err != nil {
			errs.add(err)
			continue
		}
		p.modifiers = append(p.modifiers, mod)
	}
	producers := make(map[string]string)
	claim := func(id, kind string) bool {
		if prev, dup := producers[id]; dup {
			errs.addf("duplicate producer id %q: declared as %s and %s", id, prev, kind)
			return false
		}
		producers[id] = kind
		return true
	}
	for _, ci := range m.Items {
		if !claim(ci.ID, "item") {
			continue
		}
		it, err := p.compileItem(ci, modIDs)
		errs.add(err)
		if it != nil {
			p.items = append(p.items, it)
		}
	}
	for _, ca := range m.Auras {
		if !claim(ca.ID, "aura") {
			continue
		}
		a, err := p.compileAura(ca, modIDs)
		errs.add(err)
		if a != nil {
			p.auras = append(p.auras, a)
		}
	}

	if err := errs.err(); err != nil {
		logger.Debug("Stat sheet validation failed.", "problems", len(errs))
		return nil, err
	}
	logger.Debug("Stat sheet validated.", "nodes", len(p.order), "trackers", len(p.trackers))
	return p, nil
}

func kindName(def any) string {
	switch def.(type) {
	case *config.Stat:
		return "stat"
	case *config.History:
		return "history"
	case *config.Derived:
		return "derived"
	}
	return "unknown"
}

// planDerived links a derived node into g and compiles its combine function.
func (p *buildPlan) planDerived(ctx context.Context, g *dag.Graph, d *config.Derived) (*derivedPlan, error) {
	logger := ctxlog.FromContext(ctx).With("derived", d.ID)
	var errs problems
	dp := &derivedPlan{modified: d.Modified}

	link := func(parent, how string) bool {
		if _, ok := p.defs[parent]; !ok {
			errs.addf("derived %q: %s %q is not a declared stat", d.ID, how, parent)
			return false
		}
		if err := g.AddEdge(parent, d.ID); err != nil {
			errs.add(fmt.Errorf("derived %q: %w", d.ID, err))
			return false
		}
		return true
	}

	for _, parent := range d.Parents {
		if slices.Contains(dp.parents, parent) {
			errs.addf("derived %q: parent %q is listed twice", d.ID, parent)
			continue
		}
		if link(parent, "parent") {
			dp.parents = append(dp.parents, parent)
		}
	}

	var conditionalStats []string
	for _, cp := range d.Conditional {
		if slices.Contains(dp.parents, cp.Stat) || slices.Contains(conditionalStats, cp.Stat) {
			errs.addf("derived %q: %q is already a parent", d.ID, cp.Stat)
			continue
		}
		if !link(cp.Stat, "conditional parent") {
			continue
		}
		when, err := p.predicate(cp.Condition)
		if err != nil {
			errs.add(fmt.Errorf("derived %q: conditional parent %q: %w", d.ID, cp.Stat, err))
			continue
		}
		if when == nil {
			when = eval.Always
		}
		desc := ""
		if cp.Condition != nil {
			desc = cp.Condition.Description
		}
		conditionalStats = append(conditionalStats, cp.Stat)
		dp.conditional = append(dp.conditional, conditionalPlan{stat: cp.Stat, when: when, description: desc})
	}

	base := d.Base
	if d.Formula == nil {
		if d.Modified {
			dp.combine = registry.ThenModifiers(withBase(base, sumWithBase))
		} else {
			dp.combine = withBase(base, sumWithBase)
		}
		return dp, errs.err()
	}

	// Implicit links: a formula may read a stat without listing it.
	for _, ref := range formula.References(d.Formula) {
		if ref == formula.VarBase || ref == formula.VarValue || ref == d.ID {
			continue
		}
		if slices.Contains(dp.parents, ref) || slices.Contains(conditionalStats, ref) {
			continue
		}
		if _, known := p.defs[ref]; !known {
			continue
		}
		if link(ref, "formula reference") {
			logger.Debug("Formula reference added as implicit parent.", "parent", ref)
			dp.parents = append(dp.parents, ref)
		}
	}

	params := append(append([]string(nil), dp.parents...), conditionalStats...)
	f, err := formula.Compile(d.Formula, params)
	if err != nil {
		errs.add(fmt.Errorf("derived %q: %w", d.ID, err))
		return dp, errs.err()
	}
	dp.contextual = f.ReadsContext()
	if d.Modified {
		dp.combine = registry.ThenModifiers(withBase(base, f.Combine))
	} else {
		dp.combine = withBase(base, f.Combine)
	}
	return dp, errs.err()
}

func sumWithBase(_ eval.Context, in node.Inputs) float64 { return in.Sum() + in.Base }

// withBase pins the node's declared base into the inputs.
func withBase(base float64, fn node.CombineFunc) node.CombineFunc {
	return func(ctx eval.Context, in node.Inputs) float64 {
		in.Base = base
		return fn(ctx, in)
	}
}
