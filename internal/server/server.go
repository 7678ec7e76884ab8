package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vk/statgraph/internal/console"
	"github.com/vk/statgraph/internal/engine"
	"github.com/zishang520/socket.io/v2/socket"
)

// Event names.
const (
	EventGraph   = "graph"
	EventCommand = "command"
	EventResult  = "result"
)

// DefaultBroadcastInterval is how often pending changes are pushed.
const DefaultBroadcastInterval = 50 * time.Millisecond

// Result is the reply to a command event.
type Result struct {
	ID      string `json:"id"`
	Command string `json:"command"`
	Output  string `json:"output,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ClientObserver is notified of connection and broadcast activity.
type ClientObserver interface {
	ClientConnected()
	ClientDisconnected()
	Broadcast()
}

// Server bridges an engine to socket.io clients.
type Server struct {
	eng      *engine.Engine
	console  *console.Console
	io       *socket.Server
	interval time.Duration
	logger   *slog.Logger
	observer ClientObserver

	clients atomic.Int64
	// ctx is the lifetime of Serve; socket.io callbacks use it for engine calls.
	ctx context.Context
}

// Option configures a Server.
type Option func(*Server)

// WithBroadcastInterval overrides DefaultBroadcastInterval.
func WithBroadcastInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithObserver reports client activity, e.g. to metrics.
func WithObserver(o ClientObserver) Option {
	return func(s *Server) { s.observer = o }
}

// New creates a server. Commands are dispatched through cons.
func New(eng *engine.Engine, cons *console.Console, opts ...Option) *Server {
	s := &Server{
		eng:      eng,
		console:  cons,
		io:       socket.NewServer(nil, nil),
		interval: DefaultBroadcastInterval,
		logger:   slog.New(slog.DiscardHandler),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.io.On("connection", func(clients ...any) {
		client, ok := clients[0].(*socket.Socket)
		if !ok {
			return
		}
		s.onConnect(client)
	})
	return s
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int { return int(s.clients.Load()) }

// Handler returns the HTTP handler serving the socket.io endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/socket.io/", s.io.ServeHandler(nil))
	return mux
}

func (s *Server) onConnect(client *socket.Socket) {
	logger := s.logger.With("client", client.Id())
	s.clients.Add(1)
	if s.observer != nil {
		s.observer.ClientConnected()
	}
	logger.Info("Client connected.")

	client.On("disconnect", func(reason ...any) {
		s.clients.Add(-1)
		if s.observer != nil {
			s.observer.ClientDisconnected()
		}
		logger.Info("Client disconnected.", "reason", fmt.Sprint(reason...))
	})

	client.On(EventCommand, func(args ...any) {
		line, ok := firstString(args)
		if !ok {
			logger.Warn("Ignoring malformed command event.", "args", fmt.Sprint(args...))
			return
		}
		res := s.execute(line)
		if err := client.Emit(EventResult, res); err != nil {
			logger.Warn("Failed to send command result.", "error", err)
		}
	})

	snap, err := s.eng.Snapshot(s.ctx)
	if err != nil {
		logger.Warn("Could not snapshot for new client.", "error", err)
		return
	}
	if err := client.Emit(EventGraph, snap); err != nil {
		logger.Warn("Failed to send initial snapshot.", "error", err)
	}
}

func (s *Server) execute(line string) Result {
	res := Result{ID: uuid.NewString(), Command: line}
	out, err := s.console.Execute(s.ctx, line)
	res.Output = out
	if err != nil && !errors.Is(err, console.ErrQuit) {
		res.Error = err.Error()
	}
	s.logger.Debug("Remote command executed.", "id", res.ID, "command", line, "error", res.Error)
	return res
}

func firstString(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	line, ok := args[0].(string)
	return line, ok
}

// broadcast pushes a snapshot when something changed since the last push.
func (s *Server) broadcast(ctx context.Context) error {
	snap, ok, err := s.eng.SnapshotIfChanged(ctx, false)
	if err != nil || !ok {
		return err
	}
	if s.Clients() == 0 {
		return nil
	}
	s.io.Emit(EventGraph, snap)
	if s.observer != nil {
		s.observer.Broadcast()
	}
	return nil
}

// Serve accepts connections on l and broadcasts until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	s.ctx = ctx
	httpServer := &http.Server{Handler: s.Handler()}

	serveErr := make(chan error, 1)
	go func() {
		s.logger.Info("Socket.io server starting.", "address", l.Addr().String())
		if err := httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case err, ok := <-serveErr:
			if ok {
				return fmt.Errorf("socket.io server failed: %w", err)
			}
			return nil
		case <-ticker.C:
			if err := s.broadcast(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("Broadcast failed.", "error", err)
			}
		case <-ctx.Done():
			return s.shutdown(httpServer)
		}
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, l)
}

func (s *Server) shutdown(httpServer *http.Server) error {
	s.logger.Info("Shutting down socket.io server...")
	s.io.Close(nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("socket.io server shutdown failed: %w", err)
	}
	s.logger.Debug("Socket.io server shut down gracefully.")
	return nil
}
