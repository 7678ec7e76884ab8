package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/statgraph/internal/app"
	"github.com/vk/statgraph/internal/hcl_adapter"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
}

// RunSheetTest writes files (relative path -> content) into a temporary
// sheet directory and builds an App from it. Startup errors are returned in
// the result, not failed on, so tests can assert on them.
func RunSheetTest(t *testing.T, files map[string]string) *HarnessResult {
	t.Helper()

	sheetDir := filepath.Join(t.TempDir(), "sheets")
	require.NoError(t, os.Mkdir(sheetDir, 0o755))
	for name, content := range files {
		filePath := filepath.Join(sheetDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg := app.DefaultConfig()
	cfg.SheetPath = sheetDir
	cfg.LogLevel = "debug"
	cfg.TickInterval = 10 * time.Millisecond

	logBuffer := &app.SafeBuffer{}
	testApp, err := app.NewApp(logBuffer, &cfg, hcl_adapter.NewLoader())

	if os.Getenv("STATGRAPH_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}
	if err != nil {
		err = fmt.Errorf("application startup failed | %w", err)
	}
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       err,
		App:       testApp,
	}
}
