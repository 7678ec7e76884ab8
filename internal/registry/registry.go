package registry

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vk/statgraph/internal/clock"
	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/graph"
	"github.com/vk/statgraph/internal/history"
	"github.com/vk/statgraph/internal/modifier"
	"github.com/vk/statgraph/internal/node"
	"github.com/vk/statgraph/internal/tag"
)

// Well-known recency facts.
const (
	FactCrit  = "crit"
	FactBlock = "block"
	FactKill  = "kill"
)

const (
	// DefaultMaxEventAge bounds how long events are retained by Tick.
	DefaultMaxEventAge = 10.0
	// ChangeEpsilon is the smallest temporal value move Tick reports.
	ChangeEpsilon = 0.01
	// cleanupInterval throttles history cleanup during Tick.
	cleanupInterval = time.Second
)

// Registry owns every piece of engine state for one session.
type Registry struct {
	graph       *graph.Graph
	tags        *tag.Registry
	aggregators map[string]*modifier.Aggregator
	// contextual holds nodes whose combine reads tags or facts directly.
	contextual map[node.Handle]struct{}

	channels     map[string]*Channel
	channelOrder []string

	trackers     map[string]*history.RecencyTracker
	trackerOrder []string
	lastRecent   map[string]bool

	clk         clock.Clock
	logger      *slog.Logger
	observer    graph.Observer
	maxEventAge float64
	session     string
	pending     bool
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces the real clock for histories, trackers and snapshots.
func WithClock(c clock.Clock) Option {
	return func(r *Registry) { r.clk = c }
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithObserver forwards graph evaluation events, e.g. to metrics.
func WithObserver(o graph.Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithMaxEventAge overrides DefaultMaxEventAge.
func WithMaxEventAge(seconds float64) Option {
	return func(r *Registry) {
		if seconds > 0 {
			r.maxEventAge = seconds
		}
	}
}

// New creates a Registry with the crit, block and kill trackers installed.
func New(opts ...Option) *Registry {
	r := &Registry{
		tags:        tag.NewRegistry(),
		aggregators: make(map[string]*modifier.Aggregator),
		contextual:  make(map[node.Handle]struct{}),
		channels:    make(map[string]*Channel),
		trackers:    make(map[string]*history.RecencyTracker),
		lastRecent:  make(map[string]bool),
		clk:         clock.Real{},
		logger:      slog.New(slog.DiscardHandler),
		maxEventAge: DefaultMaxEventAge,
		session:     uuid.NewString(),
	}
	for _, opt := range opts {
		opt(r)
	}

	graphOpts := []graph.Option{graph.WithContext(r.Context)}
	if r.observer != nil {
		graphOpts = append(graphOpts, graph.WithObserver(r.observer))
	}
	r.graph = graph.New(graphOpts...)

	r.tags.OnChange(r.onTagChange)
	for _, fact := range []string{FactCrit, FactBlock, FactKill} {
		r.AddTracker(fact, history.DefaultRecencyWindow)
	}
	return r
}

// Context builds the evaluation context handed to user functions.
func (r *Registry) Context() eval.Context {
	return eval.Context{Tags: r.tags, Facts: r, Modifiers: r, Now: r.clk.Now()}
}

// Graph exposes the underlying arena for read-only inspection.
func (r *Registry) Graph() *graph.Graph { return r.graph }

// Clock returns the registry clock.
func (r *Registry) Clock() clock.Clock { return r.clk }

// Session returns the id of this registry instance.
func (r *Registry) Session() string { return r.session }

// HasPendingChanges reports whether anything changed since the last clear.
func (r *Registry) HasPendingChanges() bool { return r.pending }

// ClearPendingChanges resets the change flag.
func (r *Registry) ClearPendingChanges() { r.pending = false }

// ConsumePendingChanges returns the change flag and clears it.
func (r *Registry) ConsumePendingChanges() bool {
	p := r.pending
	r.pending = false
	return p
}

// sweep dirties every node whose value may depend on tags or trackers.
func (r *Registry) sweep() {
	for _, h := range r.graph.Handles() {
		n := r.graph.Node(h)
		if n.HasConditionalParents() {
			r.graph.MarkDirty(h)
			continue
		}
		if _, ok := r.aggregators[n.ID]; ok {
			r.graph.MarkDirty(h)
			continue
		}
		if _, ok := r.contextual[h]; ok {
			r.graph.MarkDirty(h)
		}
	}
}
