package producer

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/vk/statgraph/internal/clock"
	"github.com/vk/statgraph/internal/tag"
)

var (
	ErrUnknownItem = errors.New("unknown item")
	ErrUnknownAura = errors.New("unknown aura")
	ErrNotEquipped = errors.New("item is not equipped")
	ErrNotActive   = errors.New("aura is not active")
)

// Manager tracks the items and auras of one character and applies them to
// a Target. It is not safe for concurrent use; it shares the registry's
// single-writer domain.
type Manager struct {
	target Target
	clk    clock.Clock
	logger *slog.Logger

	items     map[string]*Item
	itemOrder []string
	auras     map[string]*Aura
	auraOrder []string

	// equipped maps a slot key to the item id occupying it.
	equipped map[string]string
	// active maps an aura id to the time it was started.
	active map[string]time.Time
	grants map[tag.Tag]int
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the real clock used for aura timing.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clk = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates an empty manager writing to target.
func NewManager(target Target, opts ...Option) *Manager {
	m := &Manager{
		target:   target,
		clk:      clock.Real{},
		logger:   slog.New(slog.DiscardHandler),
		items:    make(map[string]*Item),
		auras:    make(map[string]*Aura),
		equipped: make(map[string]string),
		active:   make(map[string]time.Time),
		grants:   make(map[tag.Tag]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterItem makes an item available to Equip.
func (m *Manager) RegisterItem(it *Item) error {
	if _, exists := m.items[it.ID]; exists {
		return fmt.Errorf("item %q is already registered", it.ID)
	}
	m.items[it.ID] = it
	m.itemOrder = append(m.itemOrder, it.ID)
	return nil
}

// RegisterAura makes an aura available to StartAura.
func (m *Manager) RegisterAura(a *Aura) error {
	if _, exists := m.auras[a.ID]; exists {
		return fmt.Errorf("aura %q is already registered", a.ID)
	}
	m.auras[a.ID] = a
	m.auraOrder = append(m.auraOrder, a.ID)
	return nil
}

// Item returns a registered item.
func (m *Manager) Item(id string) (*Item, bool) {
	it, ok := m.items[id]
	return it, ok
}

// Aura returns a registered aura.
func (m *Manager) Aura(id string) (*Aura, bool) {
	a, ok := m.auras[id]
	return a, ok
}

// ItemIDs returns registered items in registration order.
func (m *Manager) ItemIDs() []string { return append([]string(nil), m.itemOrder...) }

// AuraIDs returns registered auras in registration order.
func (m *Manager) AuraIDs() []string { return append([]string(nil), m.auraOrder...) }

// Equip applies an item. An item already in the slot is unequipped first.
// Equipping an item that is already worn is a no-op.
func (m *Manager) Equip(id string) error {
	it, ok := m.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	slot := it.slotKey()
	if current, occupied := m.equipped[slot]; occupied {
		if current == id {
			return nil
		}
		if err := m.Unequip(current); err != nil {
			return err
		}
	}
	m.apply(id, it.Modifiers, it.GrantsTags)
	m.equipped[slot] = id
	m.logger.Info("Item equipped.", "item", id, "slot", it.Slot)
	return nil
}

// Unequip removes an item's modifiers and withdraws its tags.
func (m *Manager) Unequip(id string) error {
	it, ok := m.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	slot := it.slotKey()
	if m.equipped[slot] != id {
		return fmt.Errorf("%w: %s", ErrNotEquipped, id)
	}
	delete(m.equipped, slot)
	m.withdraw(id, it.GrantsTags)
	m.logger.Info("Item unequipped.", "item", id)
	return nil
}

// IsEquipped reports whether the item is worn.
func (m *Manager) IsEquipped(id string) bool {
	it, ok := m.items[id]
	return ok && m.equipped[it.slotKey()] == id
}

// Equipped returns worn item ids in registration order.
func (m *Manager) Equipped() []string {
	var out []string
	for _, id := range m.itemOrder {
		if m.IsEquipped(id) {
			out = append(out, id)
		}
	}
	return out
}

// StartAura applies an aura. Restarting an active aura only resets its timer.
func (m *Manager) StartAura(id string) error {
	a, ok := m.auras[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAura, id)
	}
	if _, running := m.active[id]; !running {
		m.apply(id, a.Modifiers, a.GrantsTags)
	}
	m.active[id] = m.clk.Now()
	m.logger.Info("Aura started.", "aura", id, "duration", a.Duration)
	return nil
}

// ExpireAura removes an active aura.
func (m *Manager) ExpireAura(id string) error {
	a, ok := m.auras[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAura, id)
	}
	if _, running := m.active[id]; !running {
		return fmt.Errorf("%w: %s", ErrNotActive, id)
	}
	delete(m.active, id)
	m.withdraw(id, a.GrantsTags)
	m.logger.Info("Aura expired.", "aura", id)
	return nil
}

// IsActive reports whether the aura is running.
func (m *Manager) IsActive(id string) bool {
	_, ok := m.active[id]
	return ok
}

// Remaining returns the seconds left on an active aura. Permanent auras
// report +Inf. The second result is false when the aura is not running.
func (m *Manager) Remaining(id string) (float64, bool) {
	started, ok := m.active[id]
	if !ok {
		return 0, false
	}
	a := m.auras[id]
	if a.IsPermanent() {
		return math.Inf(1), true
	}
	left := a.Duration - m.clk.Now().Sub(started).Seconds()
	return math.Max(0, left), true
}

// AuraState describes a running aura.
type AuraState struct {
	ID        string
	Name      string
	Permanent bool
	Remaining float64
}

// ActiveAuras returns running auras sorted by id.
func (m *Manager) ActiveAuras() []AuraState {
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]AuraState, 0, len(ids))
	for _, id := range ids {
		a := m.auras[id]
		left, _ := m.Remaining(id)
		st := AuraState{ID: id, Name: a.Name, Permanent: a.IsPermanent()}
		if !st.Permanent {
			st.Remaining = left
		}
		out = append(out, st)
	}
	return out
}

// Tick expires every timed aura whose duration has elapsed and returns
// their ids.
func (m *Manager) Tick() []string {
	var expired []string
	for _, st := range m.ActiveAuras() {
		if !st.Permanent && st.Remaining <= 0 {
			expired = append(expired, st.ID)
		}
	}
	for _, id := range expired {
		_ = m.ExpireAura(id)
	}
	return expired
}

func (m *Manager) apply(source string, specs []ModifierSpec, tags []tag.Tag) {
	for _, spec := range specs {
		if !m.target.AddModifier(spec.build(source)) {
			m.logger.Warn("Producer modifier target not found.", "source", source, "modifier", spec.ID, "target", spec.Target)
		}
	}
	for _, t := range tags {
		m.grants[t]++
		if m.grants[t] == 1 {
			m.target.AddTag(t)
		}
	}
}

func (m *Manager) withdraw(source string, tags []tag.Tag) {
	m.target.RemoveModifiersBySource(source)
	for _, t := range tags {
		if m.grants[t] == 0 {
			continue
		}
		m.grants[t]--
		if m.grants[t] == 0 {
			delete(m.grants, t)
			m.target.RemoveTag(t)
		}
	}
}
