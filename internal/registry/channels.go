package registry

import (
	"math"
	"time"

	"github.com/vk/statgraph/internal/graph"
	"github.com/vk/statgraph/internal/history"
	"github.com/vk/statgraph/internal/node"
)

// Channel is a named event history, optionally mirrored by a temporal node
// whose value is the sum of events inside Window.
type Channel struct {
	Name    string
	History *history.History
	Window  float64
	Node    node.Handle

	lastValue   float64
	lastCleanup time.Time
}

// HasNode reports whether a temporal node wraps the channel.
func (c *Channel) HasNode() bool { return c.Node != node.None }

// CreateChannel adds a history channel with no node.
func (r *Registry) CreateChannel(name string, window float64, opts ...history.Option) *Channel {
	return r.addChannel(name, window, node.None, opts)
}

// CreateTemporal adds a history channel and the temporal node that exposes
// its windowed sum under the same id.
func (r *Registry) CreateTemporal(id, label, category string, window float64, opts ...history.Option) node.Handle {
	h := r.graph.Add(graph.Spec{ID: id, Label: label, Category: category, Kind: node.Temporal})
	r.addChannel(id, window, h, opts)
	return h
}

func (r *Registry) addChannel(name string, window float64, h node.Handle, opts []history.Option) *Channel {
	if _, exists := r.channels[name]; exists {
		panic("registry: duplicate history channel " + name)
	}
	opts = append([]history.Option{history.WithClock(r.clk)}, opts...)
	ch := &Channel{Name: name, History: history.New(opts...), Window: window, Node: h}
	r.channels[name] = ch
	r.channelOrder = append(r.channelOrder, name)
	return ch
}

// HistoryChannel returns the named channel.
func (r *Registry) HistoryChannel(name string) (*Channel, bool) {
	ch, ok := r.channels[name]
	return ch, ok
}

// ChannelNames returns channel names in creation order.
func (r *Registry) ChannelNames() []string {
	return append([]string(nil), r.channelOrder...)
}

// RecordEvent appends an event to the channel and refreshes its node. It
// reports false for an unknown channel or a NaN or infinite value.
func (r *Registry) RecordEvent(channel string, value float64, category string) bool {
	ch, ok := r.channels[channel]
	if !ok || !finite(value) {
		return false
	}
	ch.History.Record(value, category)
	r.refresh(ch)
	r.pending = true
	r.logger.Debug("Event recorded.", "channel", channel, "value", value, "category", category)
	return true
}

// refresh marks the temporal node dirty, resamples its windowed sum and
// reports whether it moved by more than ChangeEpsilon.
func (r *Registry) refresh(ch *Channel) bool {
	if !ch.HasNode() {
		return false
	}
	r.graph.MarkDirty(ch.Node)
	r.graph.SetBaseValue(ch.Node, ch.History.SumRecent(ch.Window))
	v := r.graph.Value(ch.Node)
	moved := math.Abs(v-ch.lastValue) > ChangeEpsilon
	ch.lastValue = v
	return moved
}

// Tick advances time-dependent state and reports whether anything a
// consumer would see has changed:
//
//   - history channels are cleaned up at most once per second and their
//     temporal nodes resampled
//   - trackers whose recent state flipped since the last check trigger a
//     conditional sweep
//   - stats carrying dynamic modifiers are invalidated
func (r *Registry) Tick() bool {
	now := r.clk.Now()
	changed := false

	for _, name := range r.channelOrder {
		ch := r.channels[name]
		if ch.lastCleanup.IsZero() || now.Sub(ch.lastCleanup) > cleanupInterval {
			ch.History.Cleanup(r.maxEventAge)
			ch.lastCleanup = now
		}
		if r.refresh(ch) {
			changed = true
		}
	}

	flipped := false
	for _, name := range r.trackerOrder {
		cur := r.trackers[name].IsRecent()
		if cur != r.lastRecent[name] {
			r.lastRecent[name] = cur
			flipped = true
		}
	}
	if flipped {
		r.sweep()
		changed = true
	}

	for _, target := range r.aggregatorTargets() {
		if r.aggregators[target].HasDynamic() {
			r.MarkDirty(target)
			changed = true
		}
	}

	if changed {
		r.pending = true
	}
	return changed
}
