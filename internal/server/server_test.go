package server

import (
	"context"
	"encoding/json"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/statgraph/internal/builder"
	"github.com/vk/statgraph/internal/console"
	"github.com/vk/statgraph/internal/engine"
	"github.com/vk/statgraph/internal/hcl_adapter"
	"github.com/vk/statgraph/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	client "github.com/zishang520/socket.io-client-go/socket"
)

type countingObserver struct {
	connected  atomic.Int64
	broadcasts atomic.Int64
}

func (o *countingObserver) ClientConnected()    { o.connected.Add(1) }
func (o *countingObserver) ClientDisconnected() {}
func (o *countingObserver) Broadcast()          { o.broadcasts.Add(1) }

func newServer(t *testing.T, opts ...Option) *Server {
	t.Helper()
	m, err := hcl_adapter.NewLoader().LoadBytes(context.Background(), []byte(`stat "strength" { value = 10 }`), "sheet.hcl")
	require.NoError(t, err)
	ch, err := builder.Build(context.Background(), m)
	require.NoError(t, err)

	eng := engine.New(ch, engine.WithTickInterval(0))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	opts = append([]Option{WithBroadcastInterval(time.Millisecond)}, opts...)
	return New(eng, console.New(eng), opts...)
}

// serve runs s on a loopback listener and returns its base URL.
func serve(t *testing.T, s *Server) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, l) }()
	t.Cleanup(func() {
		cancel()
		assert.NoError(t, <-done)
	})
	return "http://" + l.Addr().String()
}

// dial connects a socket.io client and forwards every graph event it
// receives, decoded, to the returned channel.
func dial(t *testing.T, url string) (*client.Socket, <-chan registry.Snapshot) {
	t.Helper()
	opts := client.DefaultOptions()
	opts.SetTransports(types.NewSet(transports.WebSocket))
	io := client.NewManager(url, opts).Socket("/", opts)
	t.Cleanup(func() { io.Disconnect() })

	graphs := make(chan registry.Snapshot, 16)
	io.On(types.EventName(EventGraph), func(data ...any) {
		if len(data) == 0 {
			return
		}
		raw, err := json.Marshal(data[0])
		if err != nil {
			return
		}
		var snap registry.Snapshot
		if json.Unmarshal(raw, &snap) == nil {
			select {
			case graphs <- snap:
			default:
			}
		}
	})
	io.Connect()
	return io, graphs
}

func strengthOf(s registry.Snapshot) float64 {
	for _, n := range s.Nodes {
		if n.ID == "strength" {
			return n.Value
		}
	}
	return -1
}

func TestServer_Execute(t *testing.T) {
	s := newServer(t)

	res := s.execute("set strength 12")
	assert.Equal(t, "strength = 12.00", res.Output)
	assert.Empty(t, res.Error)
	assert.NotEmpty(t, res.ID)

	res = s.execute("nonsense")
	assert.Equal(t, `unknown command "nonsense" (try help)`, res.Error)

	res = s.execute("quit")
	assert.Empty(t, res.Error, "quit is not an error for remote clients")
}

func TestServer_BroadcastWithoutClientsConsumesChanges(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	s.execute("set strength 30")
	require.NoError(t, s.broadcast(ctx))

	_, pending, err := s.eng.SnapshotIfChanged(ctx, false)
	require.NoError(t, err)
	assert.False(t, pending)
	assert.Equal(t, 0, s.Clients())
}

func TestServer_BroadcastReachesConnectedClient(t *testing.T) {
	// --- Arrange ---
	obs := &countingObserver{}
	s := newServer(t, WithObserver(obs))
	url := serve(t, s)
	io, graphs := dial(t, url)

	select {
	case snap := <-graphs:
		assert.InDelta(t, 10.0, strengthOf(snap), 1e-9, "initial snapshot on connect")
	case <-time.After(10 * time.Second):
		t.Fatal("no initial snapshot received")
	}
	require.Eventually(t, func() bool { return s.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	// --- Act ---
	io.Emit(EventCommand, "set strength 30")

	// --- Assert ---
	deadline := time.After(10 * time.Second)
	for {
		select {
		case snap := <-graphs:
			if strengthOf(snap) == 30 {
				require.Eventually(t, func() bool { return obs.broadcasts.Load() > 0 }, 5*time.Second, 10*time.Millisecond)
				assert.Equal(t, int64(1), obs.connected.Load())
				return
			}
		case <-deadline:
			t.Fatal("no broadcast carried the new strength")
		}
	}
}

func TestFirstString(t *testing.T) {
	line, ok := firstString([]any{"get strength", 1})
	assert.True(t, ok)
	assert.Equal(t, "get strength", line)

	_, ok = firstString(nil)
	assert.False(t, ok)
	_, ok = firstString([]any{42})
	assert.False(t, ok)
}
