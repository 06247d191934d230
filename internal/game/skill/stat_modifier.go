package skill

import (
	"maps"

	"github.com/udisondev/abilitycore/internal/data"
	"github.com/udisondev/abilitycore/internal/game/entity"
)

// Attribute names the combat core reads itself.
const (
	AttrMaxHP               = "MaxHP"
	AttrAttack              = "Attack"
	AttrDefense             = "Defense"
	AttrCriticalProbability = "CriticalProbability"
)

// StatModifier represents a single attribute modification from an effect.
// Multiple modifiers can stack on the same attribute.
type StatModifier struct {
	Stat  string          // attribute name, e.g. "Attack", "MaxHP"
	Type  data.ModifyType // add or percent_add
	Value float64
}

// ModifierHandle identifies an installed modifier. Zero is never issued.
type ModifierHandle uint32

// Attributes holds base attribute values and the modifiers layered on them.
type Attributes struct {
	entity.ModuleBase
	base      map[string]float64
	modifiers map[ModifierHandle]StatModifier
	next      ModifierHandle
	onChange  func(stat string)
}

func newAttributes(base map[string]float64, onChange func(string)) *Attributes {
	a := &Attributes{
		base:      make(map[string]float64, len(base)+4),
		modifiers: make(map[ModifierHandle]StatModifier, 8),
		onChange:  onChange,
	}
	maps.Copy(a.base, base)
	return a
}

func (a *Attributes) Kind() entity.ModuleKind { return ModuleAttributes }

// Base returns the unmodified value of stat.
func (a *Attributes) Base(stat string) float64 { return a.base[stat] }

// SetBase replaces the base value of stat.
func (a *Attributes) SetBase(stat string, v float64) {
	a.base[stat] = v
	a.changed(stat)
}

// Value returns the effective value of stat.
//
// Additive bonuses are summed first, then the summed percent bonus is applied:
// (base + add) * (1 + pct/100).
func (a *Attributes) Value(stat string) float64 {
	add, pct := 0.0, 0.0
	for _, mod := range a.modifiers {
		if mod.Stat != stat {
			continue
		}
		switch mod.Type {
		case data.ModifyAdd:
			add += mod.Value
		case data.ModifyPercentAdd:
			pct += mod.Value
		}
	}
	return (a.base[stat] + add) * (1 + pct/100)
}

// AddModifier installs mod and returns a handle for removing it.
func (a *Attributes) AddModifier(mod StatModifier) ModifierHandle {
	a.next++
	a.modifiers[a.next] = mod
	a.changed(mod.Stat)
	return a.next
}

// RemoveModifier uninstalls the modifier. Unknown handles are ignored.
func (a *Attributes) RemoveModifier(h ModifierHandle) bool {
	mod, ok := a.modifiers[h]
	if !ok {
		return false
	}
	delete(a.modifiers, h)
	a.changed(mod.Stat)
	return true
}

// ModifierCount returns the number of installed modifiers.
func (a *Attributes) ModifierCount() int { return len(a.modifiers) }

// Snapshot returns the effective value of every known attribute.
func (a *Attributes) Snapshot() map[string]float64 {
	out := make(map[string]float64, len(a.base)+len(a.modifiers))
	for stat := range a.base {
		out[stat] = a.Value(stat)
	}
	for _, mod := range a.modifiers {
		if _, ok := out[mod.Stat]; !ok {
			out[mod.Stat] = a.Value(mod.Stat)
		}
	}
	return out
}

func (a *Attributes) changed(stat string) {
	if a.onChange != nil {
		a.onChange(stat)
	}
}
