// Package watch is a socket.io client for a running statgraph server. It
// decodes the snapshots the server broadcasts and can send console commands.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/vk/statgraph/internal/registry"
	"github.com/vk/statgraph/internal/server"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ConnectTimeout bounds how long Dial waits for the first connect event.
const ConnectTimeout = 15 * time.Second

// Client is a connected watcher.
type Client struct {
	io        *socket.Socket
	logger    *slog.Logger
	snapshots chan registry.Snapshot
	results   chan server.Result
}

// Option configures Dial.
type Option func(*dialOptions)

type dialOptions struct {
	namespace string
	logger    *slog.Logger
	buffer    int
}

// WithNamespace selects a socket.io namespace. The default is "/".
func WithNamespace(ns string) Option {
	return func(o *dialOptions) { o.namespace = ns }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *dialOptions) { o.logger = l }
}

// WithBuffer sets how many undelivered snapshots are kept before new ones
// are dropped.
func WithBuffer(n int) Option {
	return func(o *dialOptions) {
		if n > 0 {
			o.buffer = n
		}
	}
}

// Dial connects to rawURL (e.g. http://localhost:8080) and waits for the
// connection to be established.
func Dial(ctx context.Context, rawURL string, opts ...Option) (*Client, error) {
	o := dialOptions{namespace: "/", logger: slog.New(slog.DiscardHandler), buffer: 16}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With("url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("URL %q must include a scheme and host", rawURL)
	}

	sopts := socket.DefaultOptions()
	if p := strings.TrimSuffix(parsedURL.Path, "/"); p != "" {
		sopts.SetPath(parsedURL.Path)
	}
	sopts.SetTransports(types.NewSet(transports.WebSocket))

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, sopts)
	io := manager.Socket(o.namespace, sopts)

	c := &Client{
		io:        io,
		logger:    logger,
		snapshots: make(chan registry.Snapshot, o.buffer),
		results:   make(chan server.Result, o.buffer),
	}

	io.On(types.EventName(server.EventGraph), func(data ...any) {
		snap, err := decode[registry.Snapshot](data)
		if err != nil {
			logger.Warn("Dropping undecodable snapshot.", "error", err)
			return
		}
		select {
		case c.snapshots <- snap:
		default:
			logger.Debug("Snapshot buffer full, dropping snapshot.")
		}
	})
	io.On(types.EventName(server.EventResult), func(data ...any) {
		res, err := decode[server.Result](data)
		if err != nil {
			logger.Warn("Dropping undecodable command result.", "error", err)
			return
		}
		select {
		case c.results <- res:
		default:
			logger.Debug("Result buffer full, dropping result.")
		}
	})

	connectChan := make(chan error, 1)
	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected to statgraph server.", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return c, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", ConnectTimeout)
	}
}

// decode round-trips a generic socket.io payload through JSON.
func decode[T any](data []any) (T, error) {
	var out T
	if len(data) == 0 {
		return out, fmt.Errorf("empty payload")
	}
	raw, err := json.Marshal(data[0])
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// Snapshots delivers decoded snapshots.
func (c *Client) Snapshots() <-chan registry.Snapshot { return c.snapshots }

// Results delivers command results.
func (c *Client) Results() <-chan server.Result { return c.results }

// Send emits a console command.
func (c *Client) Send(line string) {
	c.io.Emit(server.EventCommand, line)
}

// Close disconnects.
func (c *Client) Close() {
	c.logger.Debug("Disconnecting watch client.")
	c.io.Disconnect()
}

// Summary is a one-line digest of a snapshot.
type Summary struct {
	Nodes    int
	Dirty    int
	Tags     []string
	Recently []string
}

// Summarize digests a snapshot.
func Summarize(s registry.Snapshot) Summary {
	sum := Summary{Nodes: len(s.Nodes), Tags: s.Tags}
	for _, n := range s.Nodes {
		if n.IsDirty {
			sum.Dirty++
		}
	}
	for name, st := range s.Recently {
		if st.Active {
			sum.Recently = append(sum.Recently, name)
		}
	}
	sort.Strings(sum.Recently)
	return sum
}

func (s Summary) String() string {
	tags, recent := "-", "-"
	if len(s.Tags) > 0 {
		tags = strings.Join(s.Tags, ",")
	}
	if len(s.Recently) > 0 {
		recent = strings.Join(s.Recently, ",")
	}
	return fmt.Sprintf("nodes=%d dirty=%d tags=%s recently=%s", s.Nodes, s.Dirty, tags, recent)
}

// Run connects to rawURL and writes a summary line per snapshot to out
// until ctx is cancelled.
func Run(ctx context.Context, rawURL string, out io.Writer, opts ...Option) error {
	c, err := Dial(ctx, rawURL, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-c.Snapshots():
			fmt.Fprintf(out, "%s %s\n", time.UnixMilli(snap.Timestamp).UTC().Format(time.RFC3339), Summarize(snap))
		}
	}
}
