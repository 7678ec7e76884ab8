package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/statgraph/internal/config"
	"github.com/vk/statgraph/internal/ctxlog"
	"github.com/vk/statgraph/internal/history"
	"github.com/vk/statgraph/internal/producer"
	"github.com/vk/statgraph/internal/registry"
)

// Character is a built sheet: the registry and the producers that feed it.
type Character struct {
	Registry  *registry.Registry
	Producers *producer.Manager
}

type options struct {
	registry []registry.Option
	producer []producer.Option
}

// Option configures Build.
type Option func(*options)

// WithRegistryOptions forwards options to registry.New.
func WithRegistryOptions(opts ...registry.Option) Option {
	return func(o *options) { o.registry = append(o.registry, opts...) }
}

// WithProducerOptions forwards options to producer.NewManager.
func WithProducerOptions(opts ...producer.Option) Option {
	return func(o *options) { o.producer = append(o.producer, opts...) }
}

// Validate checks a model without building it. The returned error joins
// every problem found.
func Validate(ctx context.Context, m *config.Model) error {
	_, err := plan(ctx, m)
	return err
}

// Build validates m and constructs a Character from it.
func Build(ctx context.Context, m *config.Model, opts ...Option) (*Character, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	p, err := plan(ctx, m)
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	r := registry.New(o.registry...)

	for _, tr := range m.Trackers {
		r.AddTracker(tr.Name, tr.Window)
	}

	for _, id := range p.order {
		switch d := p.defs[id].(type) {
		case *config.Stat:
			r.CreateSource(d.ID, d.Label, d.Category, d.Value)
		case *config.History:
			var hopts []history.Option
			if d.Capacity > 0 {
				hopts = append(hopts, history.WithCapacity(d.Capacity))
			}
			r.CreateTemporal(d.ID, d.Label, d.Category, d.Window, hopts...)
		case *config.Derived:
			dp := p.derived[id]
			r.CreateDerived(d.ID, d.Label, d.Category, dp.combine, dp.parents...)
			if dp.contextual {
				r.MarkContextSensitive(d.ID)
			}
			for _, cp := range dp.conditional {
				r.AddConditionalParent(d.ID, cp.stat, cp.when, cp.description)
			}
		}
	}

	for _, mod := range p.modifiers {
		r.AddModifier(mod)
	}

	pm := producer.NewManager(r, o.producer...)
	for _, it := range p.items {
		if err := pm.RegisterItem(it); err != nil {
			return nil, err
		}
	}
	for _, a := range p.auras {
		if err := pm.RegisterAura(a); err != nil {
			return nil, err
		}
	}

	// Nothing has been observed yet.
	r.ClearPendingChanges()

	logger.Info("Stat sheet built.",
		"nodes", len(p.order),
		"modifiers", len(p.modifiers),
		"items", len(p.items),
		"auras", len(p.auras),
		"session", r.Session(),
	)
	return &Character{Registry: r, Producers: pm}, nil
}

// problems collects validation errors.
type problems []error

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Errorf(format, args...))
}

func (p *problems) add(err error) {
	if err != nil {
		*p = append(*p, err)
	}
}

func (p problems) err() error {
	return errors.Join(p...)
}
