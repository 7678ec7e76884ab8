package app

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/statgraph/internal/hcl_adapter"
)

const demoSheet = "../../sheets/character.hcl"

// setupApp creates a new app instance for system testing.
func setupApp(t *testing.T, sheetPath string) (*App, *SafeBuffer) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.SheetPath = sheetPath
	cfg.LogLevel = "debug"
	cfg.TickInterval = 10 * time.Millisecond
	cfg.BroadcastInterval = 10 * time.Millisecond
	valid, err := NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	a, err := NewApp(logBuffer, valid, hcl_adapter.NewLoader())
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("STATGRAPH_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})
	return a, logBuffer
}

func TestNewApp_DemoSheet(t *testing.T) {
	a, logs := setupApp(t, demoSheet)

	assert.NotNil(t, a.Engine())
	assert.NotNil(t, a.Metrics())
	assert.Contains(t, logs.String(), "Stat graph built.")
}

func TestNewApp_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.hcl")
	require.NoError(t, os.WriteFile(broken, []byte(`stat "a" {`), 0o600))
	invalid := filepath.Join(dir, "invalid")
	require.NoError(t, os.Mkdir(invalid, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(invalid, "sheet.hcl"),
		[]byte(`derived "d" { parents = ["ghost"] }`), 0o600))

	testCases := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "missing path", path: filepath.Join(dir, "nope.hcl"), wantErr: "failed to load stat sheet"},
		{name: "syntax error", path: broken, wantErr: "failed to load stat sheet"},
		{name: "unknown parent", path: invalid, wantErr: `parent "ghost" is not a declared stat`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.SheetPath = tc.path

			_, err := NewApp(io.Discard, &cfg, hcl_adapter.NewLoader())

			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestCheck(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, Check(ctx, hcl_adapter.NewLoader(), demoSheet))

	path := filepath.Join(t.TempDir(), "dup.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
stat "a" { value = 1 }
stat "a" { value = 2 }
`), 0o600))
	assert.ErrorContains(t, Check(ctx, hcl_adapter.NewLoader(), path), `duplicate id "a"`)
}

func TestApp_RunConsole(t *testing.T) {
	// --- Arrange ---
	a, _ := setupApp(t, demoSheet)
	in := strings.NewReader("get maxLife\nset strength 30\nget maxLife\nquit\n")
	var out strings.Builder

	// --- Act ---
	err := a.RunConsole(context.Background(), in, &out)

	// --- Assert ---
	require.NoError(t, err)
	text := out.String()
	assert.Contains(t, text, "maxLife (Maximum Life) = 60.00")
	assert.Contains(t, text, "maxLife (Maximum Life) = 65.00")
}

func TestApp_ServeHealthAndMetrics(t *testing.T) {
	// --- Arrange ---
	a, _ := setupApp(t, demoSheet)
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	healthL, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.serve(ctx, l, healthL) }()

	base := "http://" + healthL.Addr().String()
	get := func(path string) (int, string) {
		resp, err := http.Get(base + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, string(body)
	}

	// --- Act & Assert ---
	code, body := get("/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "OK\n", body)

	// Let the engine tick at least once so the tick counter is exported.
	require.Eventually(t, func() bool {
		_, body := get("/metrics")
		return strings.Contains(body, "statgraph_ticks_total")
	}, 2*time.Second, 20*time.Millisecond)
	_, body = get("/metrics")
	assert.Contains(t, body, "statgraph_tick_duration_seconds")

	cancel()
	require.NoError(t, <-done)
}

func TestApp_HealthFailsWhenEngineStopped(t *testing.T) {
	a, _ := setupApp(t, demoSheet)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, a.engine.Run(ctx))

	rec := httptest.NewRecorder()
	a.healthMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "engine unavailable\n", rec.Body.String())
}
