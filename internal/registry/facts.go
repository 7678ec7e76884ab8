package registry

import (
	"github.com/vk/statgraph/internal/history"
	"github.com/vk/statgraph/internal/tag"
)

func (r *Registry) onTagChange(c tag.Change) {
	r.logger.Debug("Tag changed.", "tag", c.Tag.Name(), "added", c.Added)
	r.sweep()
	r.pending = true
}

// Tags returns the live tag set.
func (r *Registry) Tags() *tag.Registry { return r.tags }

// AddTag asserts t.
func (r *Registry) AddTag(t tag.Tag) bool { return r.tags.Add(t) }

// RemoveTag retracts t.
func (r *Registry) RemoveTag(t tag.Tag) bool { return r.tags.Remove(t) }

// HasTag reports whether t is asserted.
func (r *Registry) HasTag(t tag.Tag) bool { return r.tags.Has(t) }

// AddTracker installs, or replaces, a named recency tracker.
func (r *Registry) AddTracker(name string, window float64) *history.RecencyTracker {
	if _, exists := r.trackers[name]; !exists {
		r.trackerOrder = append(r.trackerOrder, name)
	}
	tr := history.NewRecencyTracker(window, r.clk)
	r.trackers[name] = tr
	r.lastRecent[name] = false
	return tr
}

// Tracker returns the named tracker.
func (r *Registry) Tracker(name string) (*history.RecencyTracker, bool) {
	tr, ok := r.trackers[name]
	return tr, ok
}

// TrackerNames returns tracker names in creation order.
func (r *Registry) TrackerNames() []string {
	return append([]string(nil), r.trackerOrder...)
}

// Trigger stamps the named fact and sweeps conditional nodes.
func (r *Registry) Trigger(fact string) bool {
	tr, ok := r.trackers[fact]
	if !ok {
		return false
	}
	tr.Trigger()
	r.lastRecent[fact] = true
	r.sweep()
	r.pending = true
	r.logger.Debug("Recency fact triggered.", "fact", fact)
	return true
}

// IsRecent implements eval.Facts.
func (r *Registry) IsRecent(fact string) bool {
	tr, ok := r.trackers[fact]
	return ok && tr.IsRecent()
}

// RemainingTime returns the seconds left in the fact's window, or 0.
func (r *Registry) RemainingTime(fact string) float64 {
	tr, ok := r.trackers[fact]
	if !ok {
		return 0
	}
	return tr.RemainingTime()
}
