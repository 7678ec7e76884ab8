package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/statgraph/internal/builder"
	"github.com/vk/statgraph/internal/config"
	"github.com/vk/statgraph/internal/console"
	"github.com/vk/statgraph/internal/ctxlog"
	"github.com/vk/statgraph/internal/engine"
	"github.com/vk/statgraph/internal/metrics"
	"github.com/vk/statgraph/internal/producer"
	"github.com/vk/statgraph/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	logger  *slog.Logger
	config  *Config
	metrics *metrics.Metrics
	engine  *engine.Engine
	console *console.Console
}

// NewApp loads the sheet at cfg.SheetPath with loader, builds the character
// and wires the engine, console and metrics around it. Nothing runs until
// Run or RunConsole is called.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := NewLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.SheetPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load stat sheet: %w", err)
	}
	logger.Debug("Stat sheet loaded into unified model.", "path", cfg.SheetPath)

	m := metrics.New()
	character, err := builder.Build(ctx, model,
		builder.WithRegistryOptions(
			registry.WithLogger(logger.With("component", "registry")),
			registry.WithObserver(m),
		),
		builder.WithProducerOptions(producer.WithLogger(logger.With("component", "producers"))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build stat graph: %w", err)
	}
	logger.Info("Stat graph built.",
		"nodes", len(character.Registry.NodeIDs()),
		"items", len(character.Producers.ItemIDs()),
		"auras", len(character.Producers.AuraIDs()),
		"session", character.Registry.Session(),
	)

	eng := engine.New(character,
		engine.WithTickInterval(cfg.TickInterval),
		engine.WithLogger(logger.With("component", "engine")),
		engine.WithTickObserver(m),
	)
	cons := console.New(eng,
		console.WithLogger(logger.With("component", "console")),
		console.WithObserver(m),
	)

	return &App{
		logger:  logger,
		config:  cfg,
		metrics: m,
		engine:  eng,
		console: cons,
	}, nil
}

// Engine returns the application's engine. This is primarily for testing.
func (a *App) Engine() *engine.Engine {
	return a.engine
}

// Metrics returns the application's metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Check loads the sheets under path and validates them without building.
func Check(ctx context.Context, loader config.Loader, path string) error {
	model, err := loader.Load(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to load stat sheet: %w", err)
	}
	return builder.Validate(ctx, model)
}
