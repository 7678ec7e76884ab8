package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/vk/statgraph/internal/builder"
)

// healthProbeTimeout bounds how long /health waits for the engine.
const healthProbeTimeout = time.Second

// healthHandler reports OK while the engine goroutine is answering requests.
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	a.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)

	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()
	if err := a.engine.Do(ctx, func(*builder.Character) {}); err != nil {
		a.logger.Warn("Health check failed: engine unavailable.", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprintln(w, "engine unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

func (a *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.healthHandler)
	mux.Handle("/metrics", a.metrics.Handler())
	return mux
}

// serveHealthcheck runs the health and metrics server on l until ctx ends.
func (a *App) serveHealthcheck(ctx context.Context, l net.Listener) error {
	httpServer := &http.Server{Handler: a.healthMux()}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://%s/health", l.Addr()))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("health check server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.logger.Info("🩺 Shutting down health check server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health check server shutdown failed: %w", err)
	}
	a.logger.Debug("Health check server shut down gracefully.")
	return nil
}
