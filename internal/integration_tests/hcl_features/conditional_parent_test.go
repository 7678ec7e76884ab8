package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/statgraph/internal/tag"
	"github.com/vk/statgraph/internal/testutil"
)

// Test for: a conditional parent only contributes while its tag is present.
func TestHclFeatures_ConditionalParent(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	c, _ := testutil.BuildSheet(t, `
		stat "baseSpeed" { value = 100 }
		stat "sprintBonus" { value = 30 }
		derived "moveSpeed" {
			parents = ["baseSpeed"]
			conditional_parent "sprintBonus" {
				requires_tag = "State.Sprinting"
			}
		}
	`)
	sprinting := tag.New("State.Sprinting")
	require.InDelta(t, 100.0, testutil.Value(t, c, "moveSpeed"), 1e-9)

	// --- Act & Assert ---
	require.True(t, c.Registry.AddTag(sprinting))
	assert.InDelta(t, 130.0, testutil.Value(t, c, "moveSpeed"), 1e-9)

	require.True(t, c.Registry.RemoveTag(sprinting))
	assert.InDelta(t, 100.0, testutil.Value(t, c, "moveSpeed"), 1e-9)
}
