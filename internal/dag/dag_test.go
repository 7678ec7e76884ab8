package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.Equal(t, 0, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Has("a"))

	g.AddNode("a") // Test idempotency
	assert.Equal(t, 1, g.Len())

	g.AddNode("b")
	assert.Equal(t, 2, g.Len())
	assert.False(t, g.Has("c"))
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		require.NoError(t, g.AddEdge("a", "b")) // b depends on a
		require.NoError(t, g.AddEdge("a", "b")) // duplicate is ignored

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		assert.ErrorContains(t, g.AddEdge("dne", "a"), "source node not found: dne")
		assert.ErrorContains(t, g.AddEdge("a", "dne"), "destination node not found: dne")
		assert.ErrorContains(t, g.AddEdge("a", "a"), "self-referential edge not allowed")

		_, err := g.Dependencies("dne")
		assert.Error(t, err)
		_, err = g.Dependents("dne")
		assert.Error(t, err)
	})
}

func TestTopologicalOrder(t *testing.T) {
	// Arrange: strength -> maxLife -> ehp, armour -> ehp
	g := New()
	for _, id := range []string{"ehp", "maxLife", "strength", "armour"} {
		g.AddNode(id)
	}
	require.NoError(t, g.AddEdge("strength", "maxLife"))
	require.NoError(t, g.AddEdge("maxLife", "ehp"))
	require.NoError(t, g.AddEdge("armour", "ehp"))

	// Act
	order, err := g.TopologicalOrder()

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"strength", "maxLife", "armour", "ehp"}, order)
}

func TestDetectCycles(t *testing.T) {
	t.Run("acyclic graph", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("a", "c"))

		assert.NoError(t, g.DetectCycles())
	})

	t.Run("three node cycle", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")
		g.AddNode("c")
		require.NoError(t, g.AddEdge("a", "b"))
		require.NoError(t, g.AddEdge("b", "c"))
		require.NoError(t, g.AddEdge("c", "a"))

		err := g.DetectCycles()
		require.Error(t, err)

		var cycle *CycleError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"a", "c", "b", "a"}, cycle.Path)
		assert.Equal(t, "cycle detected: a -> c -> b -> a", err.Error())
	})
}
