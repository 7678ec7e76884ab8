package history

import (
	"math"
	"sync"
	"time"

	"github.com/vk/statgraph/internal/clock"
)

// DefaultRecencyWindow is the window of the well-known "recently" facts.
const DefaultRecencyWindow = 4.0

// RecencyTracker answers "did this happen within the last window seconds".
type RecencyTracker struct {
	mu        sync.Mutex
	clk       clock.Clock
	window    float64
	last      time.Time
	triggered bool
}

// NewRecencyTracker creates a tracker. A non-positive window falls back to
// DefaultRecencyWindow and a nil clock to the real one.
func NewRecencyTracker(window float64, clk clock.Clock) *RecencyTracker {
	if window <= 0 {
		window = DefaultRecencyWindow
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &RecencyTracker{clk: clk, window: window}
}

// Trigger stamps the tracker with the current time.
func (r *RecencyTracker) Trigger() {
	r.mu.Lock()
	r.last = r.clk.Now()
	r.triggered = true
	r.mu.Unlock()
}

// Reset forgets the last trigger.
func (r *RecencyTracker) Reset() {
	r.mu.Lock()
	r.triggered = false
	r.last = time.Time{}
	r.mu.Unlock()
}

// IsRecent is false before the first trigger, then true while the elapsed
// time is at most the window.
func (r *RecencyTracker) IsRecent() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.triggered {
		return false
	}
	return r.clk.Now().Sub(r.last).Seconds() <= r.window
}

// RemainingTime returns max(0, window - elapsed) in seconds, or 0 if never triggered.
func (r *RecencyTracker) RemainingTime() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.triggered {
		return 0
	}
	return math.Max(0, r.window-r.clk.Now().Sub(r.last).Seconds())
}

// SecondsSince reports the time since the last trigger.
func (r *RecencyTracker) SecondsSince() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.triggered {
		return 0, false
	}
	return r.clk.Now().Sub(r.last).Seconds(), true
}

// Window returns the window in seconds.
func (r *RecencyTracker) Window() float64 { return r.window }
