package registry

import (
	"encoding/json"
)

// Snapshot is the serialized view of a registry consumed by transports.
type Snapshot struct {
	Nodes     []NodeState             `json:"nodes"`
	Edges     []EdgeState             `json:"edges"`
	Tags      []string                `json:"tags"`
	Recently  map[string]RecencyState `json:"recently"`
	Timestamp int64                   `json:"timestamp"`
	Session   string                  `json:"session"`
}

// NodeState describes one node. IsDirty is sampled before the value is read.
type NodeState struct {
	ID         string          `json:"id"`
	Label      string          `json:"label"`
	Value      float64         `json:"value"`
	IsDirty    bool            `json:"isDirty"`
	Category   string          `json:"category"`
	Type       string          `json:"type"`
	Modifiers  []ModifierState `json:"modifiers,omitempty"`
	EventCount *int            `json:"eventCount,omitempty"`
	Window     *float64        `json:"window,omitempty"`
}

// ModifierState summarizes one modifier. Active means it contributed to
// the node's current value.
type ModifierState struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Value        float64 `json:"value"`
	Source       string  `json:"source"`
	Active       bool    `json:"active"`
	HasCondition bool    `json:"hasCondition"`
	Description  string  `json:"description"`
}

// EdgeState describes one dependency link.
type EdgeState struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Active      bool   `json:"active"`
	Conditional bool   `json:"conditional"`
	Condition   string `json:"condition"`
}

// RecencyState is the public view of a tracker.
type RecencyState struct {
	Active           bool    `json:"active"`
	RemainingSeconds float64 `json:"remainingSeconds"`
}

// Snapshot evaluates every node and captures the full engine state.
func (r *Registry) Snapshot() Snapshot {
	s := Snapshot{
		Nodes:     make([]NodeState, 0, r.graph.Len()),
		Edges:     []EdgeState{},
		Tags:      r.tags.Names(),
		Recently:  make(map[string]RecencyState, len(r.trackers)),
		Timestamp: r.clk.Now().UnixMilli(),
		Session:   r.session,
	}

	for _, h := range r.graph.Handles() {
		n := r.graph.Node(h)
		ns := NodeState{
			ID:       n.ID,
			Label:    n.Label,
			IsDirty:  n.IsDirty(),
			Category: n.Category,
			Type:     n.Kind.String(),
		}
		ns.Value = r.graph.Value(h)

		if agg, ok := r.aggregators[n.ID]; ok {
			for _, m := range agg.Modifiers() {
				ns.Modifiers = append(ns.Modifiers, ModifierState{
					ID:           m.ID,
					Type:         m.Kind.String(),
					Value:        m.Value,
					Source:       m.Source,
					Active:       m.IsContributing(),
					HasCondition: m.HasCondition(),
					Description:  m.Description,
				})
			}
		}
		if ch, ok := r.channels[n.ID]; ok && ch.Node == h {
			count, window := ch.History.Len(), ch.Window
			ns.EventCount, ns.Window = &count, &window
		}
		s.Nodes = append(s.Nodes, ns)
	}

	for _, e := range r.graph.Edges() {
		s.Edges = append(s.Edges, EdgeState(e))
	}

	for _, name := range r.trackerOrder {
		tr := r.trackers[name]
		s.Recently[name] = RecencyState{Active: tr.IsRecent(), RemainingSeconds: tr.RemainingTime()}
	}
	return s
}

// JSON encodes the snapshot.
func (s Snapshot) JSON() ([]byte, error) {
	return json.Marshal(s)
}
