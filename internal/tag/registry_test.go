package tag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ChangeFiresOnlyOnNetChange(t *testing.T) {
	// --- Arrange ---
	r := NewRegistry()
	var changes []Change
	r.OnChange(func(c Change) { changes = append(changes, c) })

	// --- Act ---
	assert.True(t, r.Add(StateDualWielding))
	assert.False(t, r.Add(StateDualWielding), "duplicate add must not change membership")
	assert.True(t, r.Remove(StateDualWielding))
	assert.False(t, r.Remove(StateDualWielding), "missing remove must not change membership")
	assert.False(t, r.Add(Tag{}))

	// --- Assert ---
	require.Len(t, changes, 2)
	assert.Equal(t, Change{Tag: StateDualWielding, Added: true}, changes[0])
	assert.Equal(t, Change{Tag: StateDualWielding, Added: false}, changes[1])
}

func TestRegistry_Queries(t *testing.T) {
	r := NewRegistry()
	r.Add(BuffPurityOfElements)
	r.Add(DamageFire)

	assert.True(t, r.Has(DamageFire))
	assert.False(t, r.Has(DamageCold))
	assert.True(t, r.HasAny(DamageCold, DamageFire))
	assert.False(t, r.HasAny(DamageCold, DamageChaos))
	assert.True(t, r.HasAll(DamageFire, BuffPurityOfElements))
	assert.False(t, r.HasAll(DamageFire, DamageCold))
	assert.True(t, r.HasAll())
	assert.True(t, r.HasMatching(New("Damage")))
	assert.False(t, r.HasMatching(New("Dam")))
	assert.False(t, r.HasMatching(New("State")))
	assert.Equal(t, []string{"Buff.PurityOfElements", "Damage.Fire"}, r.Names())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Add(DamageFire)
	r.Add(BuffOnslaught)

	var removed []string
	r.OnChange(func(c Change) {
		assert.False(t, c.Added)
		removed = append(removed, c.Tag.Name())
	})

	r.Clear()

	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []string{"Buff.Onslaught", "Damage.Fire"}, removed)
}

func TestRegistry_ListenerMayQueryRegistry(t *testing.T) {
	r := NewRegistry()
	var seen bool
	r.OnChange(func(c Change) { seen = r.Has(c.Tag) })

	r.Add(StateMoving)

	assert.True(t, seen)
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				r.Add(StateMoving)
			} else {
				r.Has(StateMoving)
				r.Names()
			}
		}(i)
	}
	wg.Wait()

	assert.True(t, r.Has(StateMoving))
}
