package history

import (
	"math"
	"sync"
	"time"

	"github.com/vk/statgraph/internal/clock"
)

// DefaultCapacity is the hard cap on retained events per channel.
const DefaultCapacity = 1000

// Event is one recorded value.
type Event struct {
	Value     float64
	Timestamp time.Time
	Category  string
}

// History is a bounded FIFO of events in chronological order.
// Queries are computed against the clock at read time.
type History struct {
	mu       sync.Mutex
	clk      clock.Clock
	capacity int
	events   []Event
}

// Option configures a History.
type Option func(*History)

// WithCapacity overrides DefaultCapacity. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(h *History) {
		if n > 0 {
			h.capacity = n
		}
	}
}

// WithClock overrides the real clock.
func WithClock(c clock.Clock) Option {
	return func(h *History) {
		if c != nil {
			h.clk = c
		}
	}
}

// New creates an empty History.
func New(opts ...Option) *History {
	h := &History{clk: clock.Real{}, capacity: DefaultCapacity}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Record appends an event stamped with the current time.
func (h *History) Record(value float64, category string) {
	h.RecordAt(value, category, h.clk.Now())
}

// RecordAt appends an event with an explicit timestamp. Callers must keep
// timestamps non-decreasing; window queries and cleanup assume it.
func (h *History) RecordAt(value float64, category string, ts time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, Event{Value: value, Timestamp: ts, Category: category})
	if over := len(h.events) - h.capacity; over > 0 {
		h.events = append(h.events[:0:0], h.events[over:]...)
	}
}

func age(now, ts time.Time) float64 {
	return now.Sub(ts).Seconds()
}

// SumRecent sums every event whose age is at most window seconds.
func (h *History) SumRecent(window float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clk.Now()
	var sum float64
	for _, e := range h.events {
		if age(now, e.Timestamp) <= window {
			sum += e.Value
		}
	}
	return sum
}

// CountRecent counts events whose age is at most window seconds.
func (h *History) CountRecent(window float64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clk.Now()
	n := 0
	for _, e := range h.events {
		if age(now, e.Timestamp) <= window {
			n++
		}
	}
	return n
}

// SumRecentByCategory is SumRecent restricted to one category.
func (h *History) SumRecentByCategory(window float64, category string) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clk.Now()
	var sum float64
	for _, e := range h.events {
		if e.Category == category && age(now, e.Timestamp) <= window {
			sum += e.Value
		}
	}
	return sum
}

// HasRecent reports whether any event falls inside window.
func (h *History) HasRecent(window float64) bool {
	return h.CountRecent(window) > 0
}

// DecayingValue decays the most recent event exponentially with the given
// half-life. Older events are ignored. It returns 0 when empty or when
// halfLife is not positive.
func (h *History) DecayingValue(halfLife float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 || halfLife <= 0 {
		return 0
	}
	last := h.events[len(h.events)-1]
	a := age(h.clk.Now(), last.Timestamp)
	return last.Value * math.Exp(-math.Ln2*a/halfLife)
}

// SecondsSinceLast reports the age of the newest event.
func (h *History) SecondsSinceLast() (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.events) == 0 {
		return 0, false
	}
	return age(h.clk.Now(), h.events[len(h.events)-1].Timestamp), true
}

// Cleanup evicts events older than maxAge seconds from the front and
// returns how many were removed.
func (h *History) Cleanup(maxAge float64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	now := h.clk.Now()
	n := 0
	for n < len(h.events) && age(now, h.events[n].Timestamp) > maxAge {
		n++
	}
	if n > 0 {
		h.events = append(h.events[:0:0], h.events[n:]...)
	}
	return n
}

// Events returns a copy of the retained events, oldest first.
func (h *History) Events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

// Len returns the number of retained events.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.events)
}

// Clock returns the clock the history reads time from.
func (h *History) Clock() clock.Clock { return h.clk }
