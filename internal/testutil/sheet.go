package testutil

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vk/statgraph/internal/builder"
	"github.com/vk/statgraph/internal/clock"
	"github.com/vk/statgraph/internal/config"
	"github.com/vk/statgraph/internal/hcl_adapter"
	"github.com/vk/statgraph/internal/producer"
	"github.com/vk/statgraph/internal/registry"
)

// Epoch is the start time of every manual clock handed out here.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DemoSheetPath returns the absolute path of sheets/character.hcl.
func DemoSheetPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "sheets", "character.hcl")
}

// BuildSheet builds src on a manual clock shared by the registry and the
// producers.
func BuildSheet(t *testing.T, src string) (*builder.Character, *clock.Manual) {
	t.Helper()
	m, err := hcl_adapter.NewLoader().LoadBytes(context.Background(), []byte(src), "sheet.hcl")
	require.NoError(t, err)
	return build(t, m)
}

// BuildDemo builds the demo character sheet on a manual clock.
func BuildDemo(t *testing.T) (*builder.Character, *clock.Manual) {
	t.Helper()
	m, err := hcl_adapter.NewLoader().Load(context.Background(), DemoSheetPath())
	require.NoError(t, err)
	return build(t, m)
}

func build(t *testing.T, m *config.Model) (*builder.Character, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(Epoch)
	c, err := builder.Build(context.Background(), m,
		builder.WithRegistryOptions(registry.WithClock(clk)),
		builder.WithProducerOptions(producer.WithClock(clk)),
	)
	require.NoError(t, err)
	return c, clk
}

// Advance moves clk forward and ticks the producers and the registry the
// way the engine does. It reports whether anything visible changed.
func Advance(c *builder.Character, clk *clock.Manual, d time.Duration) bool {
	clk.Advance(d)
	expired := c.Producers.Tick()
	return c.Registry.Tick() || len(expired) > 0
}
