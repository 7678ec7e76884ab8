package producer

import (
	"fmt"
	"strings"

	"github.com/vk/statgraph/internal/registry"
	"github.com/vk/statgraph/internal/tag"
)

// DamageType classifies a hit.
type DamageType int

const (
	Physical DamageType = iota
	Fire
	Cold
	Lightning
	Chaos
)

var damageNames = [...]string{"physical", "fire", "cold", "lightning", "chaos"}

var damageTags = [...]tag.Tag{tag.DamagePhysical, tag.DamageFire, tag.DamageCold, tag.DamageLightning, tag.DamageChaos}

func (d DamageType) String() string {
	if d < 0 || int(d) >= len(damageNames) {
		return fmt.Sprintf("DamageType(%d)", int(d))
	}
	return damageNames[d]
}

// Tag returns the Damage.* tag for the type.
func (d DamageType) Tag() tag.Tag {
	if d < 0 || int(d) >= len(damageTags) {
		return tag.Tag{}
	}
	return damageTags[d]
}

// DamageTypes lists every damage type.
func DamageTypes() []DamageType {
	return []DamageType{Physical, Fire, Cold, Lightning, Chaos}
}

// ParseDamageType accepts a case-insensitive damage type name.
func ParseDamageType(s string) (DamageType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range damageNames {
		if name == s {
			return DamageType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown damage type %q", s)
}

// Channel names written by combat events.
const (
	ChannelDamageTaken = "damageTaken"
	ChannelDamageDealt = "damageDealt"
	ChannelCrits       = "critHistory"
	ChannelBlocks      = "blockHistory"
	ChannelKills       = "killHistory"
)

// Recorder is the slice of the registry combat events write to.
type Recorder interface {
	RecordEvent(channel string, value float64, category string) bool
	Trigger(fact string) bool
}

// TakenChannel is the per-type channel for damage taken, e.g. fireDamageTaken.
func TakenChannel(d DamageType) string { return d.String() + "DamageTaken" }

// DealtChannel is the per-type channel for damage dealt.
func DealtChannel(d DamageType) string { return d.String() + "DamageDealt" }

// TakeDamage records amount on the typed and the total damage-taken
// channels. It reports whether any channel exists.
func TakeDamage(r Recorder, d DamageType, amount float64) bool {
	typed := r.RecordEvent(TakenChannel(d), amount, d.String())
	total := r.RecordEvent(ChannelDamageTaken, amount, d.String())
	return typed || total
}

// DealDamage records amount on the typed and the total damage-dealt channels.
func DealDamage(r Recorder, d DamageType, amount float64) bool {
	typed := r.RecordEvent(DealtChannel(d), amount, d.String())
	total := r.RecordEvent(ChannelDamageDealt, amount, d.String())
	return typed || total
}

// Crit triggers the crit fact and counts the crit.
func Crit(r Recorder) { fact(r, registry.FactCrit, ChannelCrits) }

// Block triggers the block fact and counts the block.
func Block(r Recorder) { fact(r, registry.FactBlock, ChannelBlocks) }

// Kill triggers the kill fact and counts the kill.
func Kill(r Recorder) { fact(r, registry.FactKill, ChannelKills) }

func fact(r Recorder, name, channel string) {
	r.Trigger(name)
	r.RecordEvent(channel, 1, name)
}
