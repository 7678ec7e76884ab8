// Package eval defines the read-only evaluation context handed to combine
// functions, modifier conditions and dynamic modifier values at call time.
package eval

import (
	"time"

	"github.com/vk/statgraph/internal/tag"
)

// Tags is a read-only view of the asserted tag set.
type Tags interface {
	Has(t tag.Tag) bool
	HasAny(ts ...tag.Tag) bool
	HasAll(ts ...tag.Tag) bool
	HasMatching(prefix tag.Tag) bool
}

// Facts answers "did X happen recently" for named recency trackers.
type Facts interface {
	IsRecent(fact string) bool
}

// Modifiers applies the modifier stack registered for a target stat.
type Modifiers interface {
	Apply(target string, base float64, ctx Context) float64
}

// Context is passed by value into every user-supplied function.
// Any field may be nil, in which case its queries answer false
// and Apply returns base unchanged.
type Context struct {
	Tags      Tags
	Facts     Facts
	Modifiers Modifiers
	Now       time.Time
}

// Predicate is a condition over the evaluation context.
type Predicate func(Context) bool

// HasTag reports whether t is asserted.
func (c Context) HasTag(t tag.Tag) bool {
	return c.Tags != nil && c.Tags.Has(t)
}

// HasAnyTag reports whether any of ts is asserted.
func (c Context) HasAnyTag(ts ...tag.Tag) bool {
	return c.Tags != nil && c.Tags.HasAny(ts...)
}

// HasAllTags reports whether all of ts are asserted.
func (c Context) HasAllTags(ts ...tag.Tag) bool {
	return c.Tags != nil && c.Tags.HasAll(ts...)
}

// HasTagMatching reports whether a tag at or below prefix is asserted.
func (c Context) HasTagMatching(prefix tag.Tag) bool {
	return c.Tags != nil && c.Tags.HasMatching(prefix)
}

// IsRecent reports whether the named fact is currently recent.
func (c Context) IsRecent(fact string) bool {
	return c.Facts != nil && c.Facts.IsRecent(fact)
}

// Apply runs base through the modifier stack of target.
func (c Context) Apply(target string, base float64) float64 {
	if c.Modifiers == nil {
		return base
	}
	return c.Modifiers.Apply(target, base, c)
}

// Always is a Predicate that is always true.
func Always(Context) bool { return true }

// Not negates p.
func Not(p Predicate) Predicate {
	return func(c Context) bool { return !p(c) }
}

// All is true when every predicate is true.
func All(ps ...Predicate) Predicate {
	return func(c Context) bool {
		for _, p := range ps {
			if !p(c) {
				return false
			}
		}
		return true
	}
}

// Any is true when at least one predicate is true.
func Any(ps ...Predicate) Predicate {
	return func(c Context) bool {
		for _, p := range ps {
			if p(c) {
				return true
			}
		}
		return false
	}
}
