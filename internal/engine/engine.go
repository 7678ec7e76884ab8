package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/vk/statgraph/internal/builder"
	"github.com/vk/statgraph/internal/registry"
)

// DefaultTickInterval is how often the engine advances time-based state.
const DefaultTickInterval = 100 * time.Millisecond

// ErrStopped is returned by Do once Run has returned.
var ErrStopped = errors.New("engine stopped")

// TickObserver is notified after every tick.
type TickObserver interface {
	ObserveTick(d time.Duration, changed bool)
}

type request struct {
	fn   func(*builder.Character)
	done chan struct{}
}

// Engine serializes access to a Character.
type Engine struct {
	char     *builder.Character
	interval time.Duration
	logger   *slog.Logger
	observer TickObserver

	requests chan request
	stopped  chan struct{}
}

// Option configures an Engine.
type Option func(*Engine)

// WithTickInterval overrides DefaultTickInterval. Non-positive values
// disable the ticker; Tick can still be requested through Do.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTickObserver reports tick timings, e.g. to metrics.
func WithTickObserver(o TickObserver) Option {
	return func(e *Engine) { e.observer = o }
}

// New creates an engine around c. Nothing runs until Run is called.
func New(c *builder.Character, opts ...Option) *Engine {
	e := &Engine{
		char:     c,
		interval: DefaultTickInterval,
		logger:   slog.New(slog.DiscardHandler),
		requests: make(chan request),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes requests and ticks until ctx is cancelled. It must be
// called once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.stopped)
	e.logger.Info("Engine started.", "tick_interval", e.interval.String(), "session", e.char.Registry.Session())

	var tick <-chan time.Time
	if e.interval > 0 {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("Engine stopped.")
			return nil
		case <-tick:
			e.tick()
		case req := <-e.requests:
			req.fn(e.char)
			close(req.done)
		}
	}
}

// Do runs fn on the engine goroutine and waits for it to finish. If ctx
// ends after fn was accepted, fn still runs but Do returns early; callers
// must not read anything fn writes unless Do returned nil.
func (e *Engine) Do(ctx context.Context, fn func(*builder.Character)) error {
	req := request{fn: fn, done: make(chan struct{})}
	select {
	case e.requests <- req:
	case <-ctx.Done():
		return ctx.Err()
	case <-e.stopped:
		return ErrStopped
	}
	select {
	case <-req.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Tick advances auras and time-based registry state once and reports
// whether anything visible changed.
func (e *Engine) Tick(ctx context.Context) (bool, error) {
	var changed bool
	if err := e.Do(ctx, func(*builder.Character) { changed = e.tick() }); err != nil {
		return false, err
	}
	return changed, nil
}

func (e *Engine) tick() bool {
	start := time.Now()
	expired := e.char.Producers.Tick()
	changed := e.char.Registry.Tick() || len(expired) > 0
	if len(expired) > 0 {
		e.logger.Info("Auras expired.", "auras", expired)
	}
	if e.observer != nil {
		e.observer.ObserveTick(time.Since(start), changed)
	}
	return changed
}

// Snapshot captures the current graph state.
func (e *Engine) Snapshot(ctx context.Context) (registry.Snapshot, error) {
	var snap registry.Snapshot
	if err := e.Do(ctx, func(c *builder.Character) { snap = c.Registry.Snapshot() }); err != nil {
		return registry.Snapshot{}, err
	}
	return snap, nil
}

// SnapshotIfChanged returns a snapshot and clears the pending flag when
// something changed since the last call. force skips the check.
func (e *Engine) SnapshotIfChanged(ctx context.Context, force bool) (registry.Snapshot, bool, error) {
	var (
		snap registry.Snapshot
		ok   bool
	)
	err := e.Do(ctx, func(c *builder.Character) {
		if c.Registry.ConsumePendingChanges() || force {
			snap, ok = c.Registry.Snapshot(), true
		}
	})
	if err != nil {
		return registry.Snapshot{}, false, err
	}
	return snap, ok, nil
}
