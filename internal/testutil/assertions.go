package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/statgraph/internal/builder"
)

// Value returns the current value of a node, failing the test if it does
// not exist.
func Value(t *testing.T, c *builder.Character, id string) float64 {
	t.Helper()
	v, ok := c.Registry.NodeValue(id)
	require.True(t, ok, "node %q must exist", id)
	return v
}

// AssertValues checks several node values at once.
func AssertValues(t *testing.T, c *builder.Character, want map[string]float64) {
	t.Helper()
	for id, v := range want {
		assert.InDelta(t, v, Value(t, c, id), 1e-9, "node %q", id)
	}
}
