package registry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/statgraph/internal/clock"
	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/modifier"
	"github.com/vk/statgraph/internal/node"
	"github.com/vk/statgraph/internal/tag"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestRegistry(t *testing.T) (*Registry, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(epoch)
	return New(WithClock(clk)), clk
}

func value(t *testing.T, r *Registry, id string) float64 {
	t.Helper()
	v, ok := r.NodeValue(id)
	require.True(t, ok, "node %q must exist", id)
	return v
}

func TestRegistry_ModifiedStatStacking(t *testing.T) {
	// --- Arrange ---
	r, _ := newTestRegistry(t)
	r.CreateModified("damage", "Damage", "offense", 100)

	// --- Act ---
	require.True(t, r.AddModifier(modifier.New("flat", "damage", modifier.Flat, 20)))
	require.True(t, r.AddModifier(modifier.New("inc", "damage", modifier.Increased, 0.5)))
	require.True(t, r.AddModifier(modifier.New("more", "damage", modifier.More, 0.3)))

	// --- Assert ---
	assert.InDelta(t, 234.0, value(t, r, "damage"), 1e-9)
}

func TestRegistry_ModifiedStatSumsParents(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.CreateSource("baseCrit", "", "", 5)
	r.CreateModified("crit", "", "", 1, "baseCrit")
	r.AddModifier(modifier.New("gloves", "crit", modifier.Increased, 1))

	assert.InDelta(t, 12.0, value(t, r, "crit"), 1e-9)

	require.True(t, r.SetNodeValue("baseCrit", 9))
	assert.InDelta(t, 20.0, value(t, r, "crit"), 1e-9)
}

func TestRegistry_ModifierChangesDirtyTarget(t *testing.T) {
	// --- Arrange ---
	r, _ := newTestRegistry(t)
	r.CreateModified("mana", "", "", 100)
	r.CreateDerived("manaX2", "", "", func(_ eval.Context, in node.Inputs) float64 { return in.Sum() * 2 }, "mana")
	require.Equal(t, 200.0, value(t, r, "manaX2"))
	r.ClearPendingChanges()

	// --- Act & Assert ---
	r.AddModifier(modifier.New("ring_flat", "mana", modifier.Flat, 25, modifier.WithSource("ring")))
	r.AddModifier(modifier.New("ring_inc", "mana", modifier.Increased, 0.1, modifier.WithSource("ring")))
	assert.True(t, r.HasPendingChanges())
	assert.InDelta(t, 275.0, value(t, r, "manaX2"), 1e-9)

	assert.Equal(t, 2, r.RemoveModifiersBySource("ring"))
	assert.Equal(t, 200.0, value(t, r, "manaX2"))

	assert.False(t, r.RemoveModifier("ring_flat"))
	assert.False(t, r.AddModifier(modifier.New("orphan", "missing", modifier.Flat, 1)))
}

func TestRegistry_RemoveAndToggleModifier(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.CreateModified("speed", "", "", 1)
	r.AddModifier(modifier.New("onslaught", "speed", modifier.Increased, 0.2))
	require.InDelta(t, 1.2, value(t, r, "speed"), 1e-9)

	require.True(t, r.SetModifierActive("onslaught", false))
	assert.Equal(t, 1.0, value(t, r, "speed"))

	require.True(t, r.SetModifierActive("onslaught", true))
	assert.InDelta(t, 1.2, value(t, r, "speed"), 1e-9)

	require.True(t, r.RemoveModifier("onslaught"))
	assert.Equal(t, 1.0, value(t, r, "speed"))
	assert.Empty(t, r.Modifiers("speed"))
}

func TestRegistry_TagChangeSweepsConditionalModifiers(t *testing.T) {
	// --- Arrange ---
	r, _ := newTestRegistry(t)
	r.CreateModified("crit", "", "", 10)
	r.AddModifier(modifier.New("crit_recently", "crit", modifier.More, 0.5,
		modifier.WithCondition(modifier.RequiresTag(tag.CombatCritRecently))))
	require.Equal(t, 10.0, value(t, r, "crit"))

	// --- Act & Assert ---
	assert.True(t, r.AddTag(tag.CombatCritRecently))
	assert.InDelta(t, 15.0, value(t, r, "crit"), 1e-9)

	assert.True(t, r.RemoveTag(tag.CombatCritRecently))
	assert.Equal(t, 10.0, value(t, r, "crit"))
	assert.False(t, r.HasTag(tag.CombatCritRecently))
}

func TestRegistry_TagChangeSweepsConditionalParents(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.CreateSource("phys", "", "", 100)
	r.CreateSource("dualWieldBonus", "", "", 10)
	r.CreateDerived("physToLightning", "", "", nil)
	require.True(t, r.AddConditionalParent("physToLightning", "dualWieldBonus",
		modifier.RequiresTag(tag.StateDualWielding), "requires State.DualWielding"))
	require.Equal(t, 0.0, value(t, r, "physToLightning"))

	r.AddTag(tag.StateDualWielding)

	assert.Equal(t, 10.0, value(t, r, "physToLightning"))
	assert.False(t, r.AddConditionalParent("missing", "phys", nil, ""))
}

func TestRegistry_RecencyTriggerAndExpiry(t *testing.T) {
	// --- Arrange ---
	r, clk := newTestRegistry(t)
	r.CreateModified("crit", "", "", 10)
	r.AddModifier(modifier.New("crit_recently", "crit", modifier.More, 0.5,
		modifier.WithCondition(modifier.RequiresRecent(FactCrit))))
	require.Equal(t, 10.0, value(t, r, "crit"))

	// --- Act & Assert ---
	require.True(t, r.Trigger(FactCrit))
	assert.True(t, r.IsRecent(FactCrit))
	assert.InDelta(t, 15.0, value(t, r, "crit"), 1e-9)
	assert.InDelta(t, 4.0, r.RemainingTime(FactCrit), 1e-9)

	clk.Advance(3 * time.Second)
	r.ClearPendingChanges()
	r.Tick()
	assert.InDelta(t, 15.0, value(t, r, "crit"), 1e-9)

	clk.Advance(2 * time.Second)
	assert.True(t, r.Tick(), "the expiry must be reported")
	assert.True(t, r.HasPendingChanges())
	assert.Equal(t, 10.0, value(t, r, "crit"), "expiry must invalidate the cached value")

	assert.False(t, r.Trigger("unknown"))
	assert.Equal(t, 0.0, r.RemainingTime("unknown"))
}

func TestRegistry_TemporalNode(t *testing.T) {
	// --- Arrange ---
	r, clk := newTestRegistry(t)
	r.CreateTemporal("fireDamageTaken", "Fire Damage Taken", "history", 5)
	r.CreateSource("baseBlock", "", "", 0)
	r.CreateDerived("block", "", "", func(_ eval.Context, in node.Inputs) float64 {
		fire, _ := in.Get("fireDamageTaken")
		base, _ := in.Get("baseBlock")
		return base + float64(int(fire/200))
	}, "baseBlock", "fireDamageTaken")
	require.Equal(t, 0.0, value(t, r, "block"))

	// --- Act ---
	require.True(t, r.RecordEvent("fireDamageTaken", 300, "fire"))
	clk.Advance(time.Second)
	require.True(t, r.RecordEvent("fireDamageTaken", 200, "fire"))

	// --- Assert ---
	assert.Equal(t, 500.0, value(t, r, "fireDamageTaken"))
	assert.Equal(t, 2.0, value(t, r, "block"))

	clk.Advance(4500 * time.Millisecond)
	assert.True(t, r.Tick(), "the first event left the window")
	assert.Equal(t, 200.0, value(t, r, "fireDamageTaken"))
	assert.Equal(t, 1.0, value(t, r, "block"))

	assert.False(t, r.Tick(), "nothing moved since the last tick")
	assert.False(t, r.RecordEvent("missing", 1, ""))
}

func TestRegistry_TickCleansUpOldEvents(t *testing.T) {
	r, clk := newTestRegistry(t)
	ch := r.CreateChannel("kills", 60)
	require.True(t, r.RecordEvent("kills", 1, ""))
	clk.Advance(11 * time.Second)

	r.Tick()

	assert.Equal(t, 0, ch.History.Len())
	assert.False(t, ch.HasNode())
}

func TestRegistry_DynamicModifierRefreshedOnTick(t *testing.T) {
	r, clk := newTestRegistry(t)
	r.CreateModified("regen", "", "", 0)
	r.AddModifier(modifier.New("ticking", "regen", modifier.Flat, 0, modifier.WithDynamic(func(c eval.Context) float64 {
		return c.Now.Sub(epoch).Seconds()
	})))
	require.Equal(t, 0.0, value(t, r, "regen"))

	clk.Advance(3 * time.Second)
	require.Equal(t, 0.0, value(t, r, "regen"), "cached until refreshed")
	r.Tick()

	assert.Equal(t, 3.0, value(t, r, "regen"))
}

func TestRegistry_Lookups(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.CreateSource("str", "Strength", "attributes", 20)

	label, ok := r.NodeLabel("str")
	require.True(t, ok)
	assert.Equal(t, "Strength", label)

	info, ok := r.Node("str")
	require.True(t, ok)
	assert.Equal(t, NodeInfo{ID: "str", Label: "Strength", Category: "attributes", Kind: node.Source, Value: 20}, info)

	_, ok = r.Node("nope")
	assert.False(t, ok)
	_, ok = r.NodeValue("nope")
	assert.False(t, ok)
	_, ok = r.NodeLabel("nope")
	assert.False(t, ok)
	assert.False(t, r.SetNodeValue("nope", 1))
	_, ok = r.HistoryChannel("nope")
	assert.False(t, ok)

	assert.Equal(t, []string{"str"}, r.NodeIDs())
	assert.Equal(t, []string{FactCrit, FactBlock, FactKill}, r.TrackerNames())
}

func TestRegistry_DuplicateNodePanics(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.CreateSource("str", "", "", 1)

	assert.Panics(t, func() { r.CreateSource("str", "", "", 2) })
	assert.Panics(t, func() { r.CreateDerived("x", "", "", nil, "missing") })
}

func TestRegistry_PendingChanges(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.CreateSource("str", "", "", 1)
	r.ClearPendingChanges()

	r.SetNodeValue("str", 1)
	assert.False(t, r.HasPendingChanges(), "equal write changes nothing")

	r.SetNodeValue("str", 2)
	assert.True(t, r.ConsumePendingChanges())
	assert.False(t, r.HasPendingChanges())
}

func TestRegistry_ContextSensitiveNodeFollowsTagsAndFacts(t *testing.T) {
	// --- Arrange ---
	r, clk := newTestRegistry(t)
	r.CreateSource("a", "", "", 10)
	r.CreateDerived("burst", "", "", func(c eval.Context, in node.Inputs) float64 {
		a, _ := in.Get("a")
		if c.HasTag(tag.StateDualWielding) || c.IsRecent(FactCrit) {
			return a * 2
		}
		return a
	}, "a")
	require.Equal(t, 10.0, value(t, r, "burst"))

	// --- Act ---
	require.True(t, r.MarkContextSensitive("burst"))

	// --- Assert ---
	r.AddTag(tag.StateDualWielding)
	assert.Equal(t, 20.0, value(t, r, "burst"), "a tag change must recompute the node")
	r.RemoveTag(tag.StateDualWielding)
	assert.Equal(t, 10.0, value(t, r, "burst"))

	r.Trigger(FactCrit)
	assert.Equal(t, 20.0, value(t, r, "burst"), "a trigger must recompute the node")
	clk.Advance(5 * time.Second)
	assert.True(t, r.Tick())
	assert.Equal(t, 10.0, value(t, r, "burst"), "an expiry must recompute the node")

	assert.False(t, r.MarkContextSensitive("missing"))
}

func TestRegistry_NonFiniteValuesAreRejected(t *testing.T) {
	r, _ := newTestRegistry(t)
	r.CreateSource("str", "", "", 3)
	r.CreateTemporal("fireDamageTaken", "", "", 5)
	r.ClearPendingChanges()

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.False(t, r.SetNodeValue("str", v), "%v", v)
		assert.False(t, r.RecordEvent("fireDamageTaken", v, "fire"), "%v", v)
	}

	assert.Equal(t, 3.0, value(t, r, "str"))
	assert.Equal(t, 0.0, value(t, r, "fireDamageTaken"))
	assert.False(t, r.HasPendingChanges())
}
