package history

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/statgraph/internal/clock"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestHistory_WindowBoundaryIsInclusive(t *testing.T) {
	// --- Arrange ---
	clk := clock.NewManual(epoch)
	h := New(WithClock(clk))
	h.Record(10, "fire")

	// --- Act & Assert ---
	clk.Advance(5 * time.Second)
	assert.Equal(t, 10.0, h.SumRecent(5), "an event exactly window seconds old is included")
	assert.Equal(t, 1, h.CountRecent(5))

	clk.Advance(time.Nanosecond)
	assert.Equal(t, 0.0, h.SumRecent(5), "an event a moment older than the window is excluded")
	assert.Equal(t, 0, h.CountRecent(5))
	assert.False(t, h.HasRecent(5))
}

func TestHistory_CapacityEvictsOldest(t *testing.T) {
	h := New(WithCapacity(3), WithClock(clock.NewManual(epoch)))

	for i := 1; i <= 5; i++ {
		h.Record(float64(i), "")
	}

	events := h.Events()
	require.Len(t, events, 3)
	assert.Equal(t, 3.0, events[0].Value)
	assert.Equal(t, 5.0, events[2].Value)
	assert.Equal(t, 12.0, h.SumRecent(1))
}

func TestHistory_DefaultCapacity(t *testing.T) {
	h := New(WithClock(clock.NewManual(epoch)))
	for i := 0; i < DefaultCapacity+10; i++ {
		h.Record(1, "")
	}
	assert.Equal(t, DefaultCapacity, h.Len())
}

func TestHistory_SumRecentByCategory(t *testing.T) {
	clk := clock.NewManual(epoch)
	h := New(WithClock(clk))
	h.Record(100, "fire")
	h.Record(40, "cold")
	clk.Advance(2 * time.Second)
	h.Record(50, "fire")

	assert.Equal(t, 150.0, h.SumRecentByCategory(5, "fire"))
	assert.Equal(t, 50.0, h.SumRecentByCategory(1, "fire"))
	assert.Equal(t, 40.0, h.SumRecentByCategory(5, "cold"))
	assert.Equal(t, 0.0, h.SumRecentByCategory(5, "chaos"))
}

func TestHistory_DecayingValueUsesLastEventOnly(t *testing.T) {
	clk := clock.NewManual(epoch)
	h := New(WithClock(clk))

	assert.Equal(t, 0.0, h.DecayingValue(1))

	h.Record(1000, "")
	h.Record(80, "")
	clk.Advance(2 * time.Second)

	assert.InDelta(t, 20.0, h.DecayingValue(1), 1e-9, "two half-lives of 80 is 20")
	assert.InDelta(t, 80*math.Exp(-math.Ln2*2/4), h.DecayingValue(4), 1e-9)
	assert.Equal(t, 0.0, h.DecayingValue(0))
}

func TestHistory_Cleanup(t *testing.T) {
	clk := clock.NewManual(epoch)
	h := New(WithClock(clk))
	h.Record(1, "")
	clk.Advance(5 * time.Second)
	h.Record(2, "")
	clk.Advance(6 * time.Second)

	removed := h.Cleanup(10)

	assert.Equal(t, 1, removed)
	require.Equal(t, 1, h.Len())
	assert.Equal(t, 2.0, h.Events()[0].Value)
}

func TestHistory_SecondsSinceLast(t *testing.T) {
	clk := clock.NewManual(epoch)
	h := New(WithClock(clk))

	_, ok := h.SecondsSinceLast()
	assert.False(t, ok)

	h.RecordAt(1, "", epoch.Add(-3*time.Second))
	secs, ok := h.SecondsSinceLast()
	require.True(t, ok)
	assert.InDelta(t, 3.0, secs, 1e-9)
}
