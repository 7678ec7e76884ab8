package builder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/statgraph/internal/clock"
	"github.com/vk/statgraph/internal/config"
	"github.com/vk/statgraph/internal/hcl_adapter"
	"github.com/vk/statgraph/internal/producer"
	"github.com/vk/statgraph/internal/registry"
	"github.com/vk/statgraph/internal/tag"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func load(t *testing.T, src string) *config.Model {
	t.Helper()
	m, err := hcl_adapter.NewLoader().LoadBytes(context.Background(), []byte(src), "test.hcl")
	require.NoError(t, err)
	return m
}

func build(t *testing.T, m *config.Model) (*Character, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	c, err := Build(context.Background(), m,
		WithRegistryOptions(registry.WithClock(clk)),
		WithProducerOptions(producer.WithClock(clk)),
	)
	require.NoError(t, err)
	return c, clk
}

func value(t *testing.T, c *Character, id string) float64 {
	t.Helper()
	v, ok := c.Registry.NodeValue(id)
	require.True(t, ok, "node %q must exist", id)
	return v
}

func TestBuild_DemoSheet(t *testing.T) {
	// --- Arrange ---
	m, err := hcl_adapter.NewLoader().Load(context.Background(), "../../sheets/character.hcl")
	require.NoError(t, err)

	// --- Act ---
	c, clk := build(t, m)

	// --- Assert ---
	assert.False(t, c.Registry.HasPendingChanges())
	assert.InDelta(t, 60.0, value(t, c, "maxLife"), 1e-9)
	assert.InDelta(t, 104.0, value(t, c, "meleePhysDmg"), 1e-9)
	assert.InDelta(t, 140.0, value(t, c, "accuracy"), 1e-9)
	assert.InDelta(t, 52.0, value(t, c, "evasion"), 1e-9)
	assert.InDelta(t, 110.0, value(t, c, "maxMana"), 1e-9)
	assert.InDelta(t, 5.0, value(t, c, "critChance"), 1e-9)
	assert.InDelta(t, 0.0, value(t, c, "physToLightning"), 1e-9)
	assert.InDelta(t, 23.31875, value(t, c, "effectiveDPS"), 1e-9)

	t.Run("crit recently", func(t *testing.T) {
		producer.Crit(c.Registry)
		assert.InDelta(t, 7.5, value(t, c, "critChance"), 1e-9)

		clk.Advance(5 * time.Second)
		require.True(t, c.Registry.Tick())
		assert.InDelta(t, 5.0, value(t, c, "critChance"), 1e-9)
	})

	t.Run("equipment", func(t *testing.T) {
		require.NoError(t, c.Producers.Equip("manaRing"))
		assert.InDelta(t, 148.5, value(t, c, "maxMana"), 1e-9)

		require.NoError(t, c.Producers.Equip("dualDaggers"))
		assert.True(t, c.Registry.HasTag(tag.StateDualWielding))
		assert.InDelta(t, 10.0, value(t, c, "physToLightning"), 1e-9)
		assert.InDelta(t, 8.0, value(t, c, "critChance"), 1e-9)

		require.NoError(t, c.Producers.Equip("critGloves"))
		assert.InDelta(t, 10.4, value(t, c, "critChance"), 1e-9)

		require.NoError(t, c.Producers.Unequip("dualDaggers"))
		assert.InDelta(t, 5.0, value(t, c, "critChance"), 1e-9)
	})

	t.Run("auras", func(t *testing.T) {
		require.NoError(t, c.Producers.StartAura("purityOfElements"))
		assert.InDelta(t, 20.0, value(t, c, "physToLightning"), 1e-9)
		assert.InDelta(t, 15.0, value(t, c, "coldRes"), 1e-9)
	})

	t.Run("block chance from fire damage", func(t *testing.T) {
		require.True(t, producer.TakeDamage(c.Registry, producer.Fire, 450))
		assert.InDelta(t, 2.0, value(t, c, "blockChance"), 1e-9)

		require.NoError(t, c.Producers.Equip("fireShield"))
		assert.InDelta(t, 27.0, value(t, c, "blockChance"), 1e-9)
		assert.InDelta(t, 45.0, value(t, c, "fireRes"), 1e-9)
	})
}

func TestBuild_ImplicitFormulaParent(t *testing.T) {
	m := load(t, `
stat "str" { value = 30 }
derived "life" {
  base    = 10
  formula = base + str * 2
}
`)
	c, _ := build(t, m)

	assert.InDelta(t, 70.0, value(t, c, "life"), 1e-9)

	c.Registry.SetNodeValue("str", 40)
	assert.InDelta(t, 90.0, value(t, c, "life"), 1e-9)
}

func TestBuild_PlainDerivedSumsParentsAndBase(t *testing.T) {
	m := load(t, `
stat "a" { value = 1 }
stat "b" { value = 2 }
derived "sum" {
  base    = 10
  parents = ["a", "b"]
}
`)
	c, _ := build(t, m)
	assert.InDelta(t, 13.0, value(t, c, "sum"), 1e-9)
}

func TestBuild_ConditionalParent(t *testing.T) {
	// --- Arrange ---
	m := load(t, `
stat "baseSpeed" { value = 100 }
stat "onslaughtBonus" { value = 20 }
derived "moveSpeed" {
  parents  = ["baseSpeed"]
  modified = true

  conditional_parent "onslaughtBonus" {
    requires_tag = "Buff.Onslaught"
    description  = "Onslaught"
  }
}
`)
	c, _ := build(t, m)

	// --- Act / Assert ---
	assert.InDelta(t, 100.0, value(t, c, "moveSpeed"), 1e-9)

	c.Registry.AddTag(tag.BuffOnslaught)
	assert.InDelta(t, 120.0, value(t, c, "moveSpeed"), 1e-9)

	edges := c.Registry.Snapshot().Edges
	require.Len(t, edges, 2)
	assert.True(t, edges[1].Conditional)
	assert.Equal(t, "Onslaught", edges[1].Condition)
}

func TestBuild_WhenCondition(t *testing.T) {
	m := load(t, `
derived "damage" {
  base     = 100
  modified = true
}
modifier "lowLife" {
  target = "damage"
  kind   = "more"
  value  = 0.5
  when   = has_tag("State.LowLife") && !has_tag("Buff.Fortify")
}
`)
	c, _ := build(t, m)
	assert.InDelta(t, 100.0, value(t, c, "damage"), 1e-9)

	c.Registry.AddTag(tag.StateLowLife)
	assert.InDelta(t, 150.0, value(t, c, "damage"), 1e-9)

	c.Registry.AddTag(tag.BuffFortify)
	assert.InDelta(t, 100.0, value(t, c, "damage"), 1e-9)
}

func TestBuild_CustomTracker(t *testing.T) {
	m := load(t, `
tracker "dodge" { window = 2 }
derived "evasion" {
  base     = 50
  modified = true
}
modifier "dodged" {
  target          = "evasion"
  kind            = "flat"
  value           = 10
  requires_recent = "dodge"
}
`)
	c, clk := build(t, m)

	require.True(t, c.Registry.Trigger("dodge"))
	assert.InDelta(t, 60.0, value(t, c, "evasion"), 1e-9)

	clk.Advance(3 * time.Second)
	c.Registry.Tick()
	assert.InDelta(t, 50.0, value(t, c, "evasion"), 1e-9)
}

func TestValidate_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "cycle",
			src: `
derived "a" { parents = ["b"] }
derived "b" { parents = ["a"] }
`,
			want: []string{"cycle detected: a -> b -> a"},
		},
		{
			name: "unknown parent",
			src:  `derived "a" { parents = ["ghost"] }`,
			want: []string{`derived "a": parent "ghost" is not a declared stat`},
		},
		{
			name: "duplicate id",
			src: `
stat "a" {}
history "a" {}
`,
			want: []string{`duplicate id "a": declared as stat and history`},
		},
		{
			name: "unknown formula variable",
			src:  `derived "a" { formula = ghost + 1 }`,
			want: []string{`unknown variable "ghost"`},
		},
		{
			name: "bad modifier kind and unmodified target",
			src: `
stat "s" {}
derived "d" { modified = true }
modifier "m1" {
  target = "d"
  kind   = "sideways"
  value  = 1
}
modifier "m2" {
  target = "s"
  kind   = "flat"
  value  = 1
}
`,
			want: []string{`modifier "m1"`, `targets "s", which does not apply modifiers`},
		},
		{
			name: "unknown recency fact",
			src: `
derived "d" { modified = true }
modifier "m" {
  target          = "d"
  kind            = "flat"
  value           = 1
  requires_recent = "dodge"
}
`,
			want: []string{`unknown recency fact "dodge"`},
		},
		{
			name: "bad tag and duplicate producer",
			src: `
item "x" { grants_tags = ["Bad..Tag"] }
aura "x" {}
`,
			want: []string{`item "x"`, `duplicate producer id "x"`},
		},
		{
			name: "duplicate modifier id",
			src: `
derived "d" { modified = true }
modifier "m" {
  target = "d"
  kind   = "flat"
  value  = 1
}
item "ring" {
  modifier "d" {
    id    = "m"
    kind  = "flat"
    value = 2
  }
}
`,
			want: []string{`duplicate modifier id "m"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(context.Background(), load(t, tc.src))
			require.Error(t, err)
			for _, want := range tc.want {
				assert.ErrorContains(t, err, want)
			}
		})
	}
}

func TestValidate_NilModel(t *testing.T) {
	assert.EqualError(t, Validate(context.Background(), nil), "stat sheet is empty")
}
