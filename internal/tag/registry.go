package tag

import (
	"sort"
	"sync"
)

// Change describes one net membership change in a Registry.
type Change struct {
	Tag   Tag
	Added bool
}

// ChangeFunc receives membership changes.
type ChangeFunc func(Change)

// Registry is the set of currently asserted tags.
//
// The registry has its own mutex, but the listener is always invoked after
// the lock is released so it may query the registry again.
type Registry struct {
	mu       sync.RWMutex
	tags     map[Tag]struct{}
	onChange ChangeFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{tags: make(map[Tag]struct{})}
}

// OnChange installs the single change listener, replacing any previous one.
func (r *Registry) OnChange(fn ChangeFunc) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// Add asserts t and reports whether membership changed.
func (r *Registry) Add(t Tag) bool {
	if t.IsZero() {
		return false
	}
	r.mu.Lock()
	if _, ok := r.tags[t]; ok {
		r.mu.Unlock()
		return false
	}
	r.tags[t] = struct{}{}
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(Change{Tag: t, Added: true})
	}
	return true
}

// Remove retracts t and reports whether membership changed.
func (r *Registry) Remove(t Tag) bool {
	r.mu.Lock()
	if _, ok := r.tags[t]; !ok {
		r.mu.Unlock()
		return false
	}
	delete(r.tags, t)
	fn := r.onChange
	r.mu.Unlock()

	if fn != nil {
		fn(Change{Tag: t, Added: false})
	}
	return true
}

// Has reports whether t is asserted.
func (r *Registry) Has(t Tag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tags[t]
	return ok
}

// HasAny reports whether at least one of ts is asserted.
func (r *Registry) HasAny(ts ...Tag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range ts {
		if _, ok := r.tags[t]; ok {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of ts is asserted. It is true for no tags.
func (r *Registry) HasAll(ts ...Tag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, t := range ts {
		if _, ok := r.tags[t]; !ok {
			return false
		}
	}
	return true
}

// HasMatching reports whether any asserted tag equals prefix or is nested under it.
func (r *Registry) HasMatching(prefix Tag) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for t := range r.tags {
		if t.Matches(prefix) {
			return true
		}
	}
	return false
}

// Names returns the asserted tag names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.tags))
	for t := range r.tags {
		names = append(names, t.Name())
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Len returns the number of asserted tags.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tags)
}

// Clear retracts every tag, notifying the listener once per removed tag.
func (r *Registry) Clear() {
	r.mu.Lock()
	removed := make([]Tag, 0, len(r.tags))
	for t := range r.tags {
		removed = append(removed, t)
	}
	r.tags = make(map[Tag]struct{})
	fn := r.onChange
	r.mu.Unlock()

	if fn == nil {
		return
	}
	sort.Slice(removed, func(i, j int) bool { return removed[i].Name() < removed[j].Name() })
	for _, t := range removed {
		fn(Change{Tag: t, Added: false})
	}
}
