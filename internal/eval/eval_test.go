package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vk/statgraph/internal/tag"
)

type fakeFacts map[string]bool

func (f fakeFacts) IsRecent(fact string) bool { return f[fact] }

type doubling struct{}

func (doubling) Apply(_ string, base float64, _ Context) float64 { return base * 2 }

func TestContext_NilViews(t *testing.T) {
	var c Context

	assert.False(t, c.HasTag(tag.DamageFire))
	assert.False(t, c.HasAnyTag(tag.DamageFire))
	assert.False(t, c.HasAllTags())
	assert.False(t, c.HasTagMatching(tag.New("Damage")))
	assert.False(t, c.IsRecent("crit"))
	assert.Equal(t, 7.0, c.Apply("x", 7))
}

func TestContext_Delegates(t *testing.T) {
	tags := tag.NewRegistry()
	tags.Add(tag.DamageFire)
	c := Context{Tags: tags, Facts: fakeFacts{"crit": true}, Modifiers: doubling{}}

	assert.True(t, c.HasTag(tag.DamageFire))
	assert.True(t, c.HasTagMatching(tag.New("Damage")))
	assert.True(t, c.IsRecent("crit"))
	assert.False(t, c.IsRecent("block"))
	assert.Equal(t, 14.0, c.Apply("x", 7))
}

func TestPredicateCombinators(t *testing.T) {
	yes := func(Context) bool { return true }
	no := func(Context) bool { return false }
	c := Context{}

	assert.True(t, Always(c))
	assert.True(t, Not(no)(c))
	assert.True(t, All(yes, yes)(c))
	assert.False(t, All(yes, no)(c))
	assert.True(t, Any(no, yes)(c))
	assert.False(t, Any(no, no)(c))
}
