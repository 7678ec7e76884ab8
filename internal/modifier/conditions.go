package modifier

import (
	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/tag"
)

// RequiresTag is true while t is asserted.
func RequiresTag(t tag.Tag) eval.Predicate {
	return func(c eval.Context) bool { return c.HasTag(t) }
}

// RequiresAnyTag is true while at least one of ts is asserted.
func RequiresAnyTag(ts ...tag.Tag) eval.Predicate {
	return func(c eval.Context) bool { return c.HasAnyTag(ts...) }
}

// RequiresAllTags is true while all of ts are asserted.
func RequiresAllTags(ts ...tag.Tag) eval.Predicate {
	return func(c eval.Context) bool { return c.HasAllTags(ts...) }
}

// RequiresTagMatching is true while a tag at or below prefix is asserted.
func RequiresTagMatching(prefix tag.Tag) eval.Predicate {
	return func(c eval.Context) bool { return c.HasTagMatching(prefix) }
}

// RequiresRecent is true while the named recency fact holds.
func RequiresRecent(fact string) eval.Predicate {
	return func(c eval.Context) bool { return c.IsRecent(fact) }
}
