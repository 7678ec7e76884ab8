package app

import (
	"context"
	"fmt"
	"io"
	"net"

	"github.com/vk/statgraph/internal/ctxlog"
	"github.com/vk/statgraph/internal/server"
	"golang.org/x/sync/errgroup"
)

// Run serves the engine over socket.io, plus the health check server when
// a port is configured, until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	l, err := net.Listen("tcp", a.config.ServerAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.ServerAddr, err)
	}
	var healthL net.Listener
	if a.config.HealthcheckPort > 0 {
		healthL, err = net.Listen("tcp", fmt.Sprintf(":%d", a.config.HealthcheckPort))
		if err != nil {
			l.Close()
			return fmt.Errorf("failed to listen on health check port %d: %w", a.config.HealthcheckPort, err)
		}
	} else {
		a.logger.Warn("Health check server not started: disabled")
	}

	return a.serve(ctx, l, healthL)
}

// serve runs every component on the given listeners. healthL may be nil.
func (a *App) serve(ctx context.Context, l, healthL net.Listener) error {
	srv := server.New(a.engine, a.console,
		server.WithBroadcastInterval(a.config.BroadcastInterval),
		server.WithLogger(a.logger.With("component", "server")),
		server.WithObserver(a.metrics),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.engine.Run(ctx) })
	g.Go(func() error { return srv.Serve(ctx, l) })
	if healthL != nil {
		g.Go(func() error { return a.serveHealthcheck(ctx, healthL) })
	}

	a.logger.Info("🚀 statgraph is running.", "address", l.Addr().String())
	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("🏁 statgraph stopped.")
	return nil
}

// RunConsole runs an interactive console on in/out while the engine ticks
// in the background. It returns when the console ends (EOF or quit) or ctx
// is cancelled.
func (a *App) RunConsole(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.engine.Run(ctx) })
	g.Go(func() error {
		defer cancel()
		return a.console.Run(ctx, in, out)
	})
	return g.Wait()
}
