package builder

import (
	"fmt"

	"github.com/vk/statgraph/internal/config"
	"github.com/vk/statgraph/internal/eval"
	"github.com/vk/statgraph/internal/formula"
	"github.com/vk/statgraph/internal/modifier"
	"github.com/vk/statgraph/internal/tag"
)

// predicate compiles a condition. An empty condition yields nil.
func (p *buildPlan) predicate(c *config.Condition) (eval.Predicate, error) {
	if c.IsEmpty() {
		return nil, nil
	}
	var ps []eval.Predicate

	if len(c.RequiresTags) > 0 {
		tags, err := parseTags(c.RequiresTags)
		if err != nil {
			return nil, err
		}
		ps = append(ps, modifier.RequiresAllTags(tags...))
	}
	if len(c.RequiresAnyTags) > 0 {
		tags, err := parseTags(c.RequiresAnyTags)
		if err != nil {
			return nil, err
		}
		ps = append(ps, modifier.RequiresAnyTag(tags...))
	}
	if c.RequiresRecent != "" {
		if !p.trackers[c.RequiresRecent] {
			return nil, fmt.Errorf("unknown recency fact %q", c.RequiresRecent)
		}
		ps = append(ps, modifier.RequiresRecent(c.RequiresRecent))
	}
	if c.When != nil {
		cond, err := formula.CompileCondition(c.When)
		if err != nil {
			return nil, err
		}
		ps = append(ps, cond.Eval)
	}

	if len(ps) == 1 {
		return ps[0], nil
	}
	return eval.All(ps...), nil
}

func parseTags(names []string) ([]tag.Tag, error) {
	tags := make([]tag.Tag, 0, len(names))
	for _, name := range names {
		t, err := tag.Parse(name)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}
