// Package stats provides ability scores and modifier-tracked values: a base
// number plus tagged deltas that can be removed by the source that granted
// them, so effects can be unapplied without re-deriving their contributions.
package stats

import "sort"

// Ability identifies one of the six ability scores.
type Ability string

const (
	Strength     Ability = "strength"
	Dexterity    Ability = "dexterity"
	Constitution Ability = "constitution"
	Intelligence Ability = "intelligence"
	Wisdom       Ability = "wisdom"
	Charisma     Ability = "charisma"
)

// Abilities lists every ability in canonical order.
var Abilities = []Ability{Strength, Dexterity, Constitution, Intelligence, Wisdom, Charisma}

// Modifier converts an ability score into its d20 modifier: floor((score-10)/2).
func Modifier(score int) int {
	if score >= 10 {
		return (score - 10) / 2
	}
	// Go integer division truncates toward zero; shift so scores below 10
	// round down.
	return (score - 11) / 2
}

// Delta is one tagged contribution to a Value.
type Delta struct {
	Source string
	Amount int
}

// Value is a base number plus tagged deltas. The zero value is usable.
//
// Invariant: Total() == Base + sum of deltas.
type Value struct {
	Base   int
	deltas []Delta
}

// NewValue creates a Value with the given base and no deltas.
func NewValue(base int) *Value { return &Value{Base: base} }

// Add appends a tagged delta.
func (v *Value) Add(source string, amount int) {
	v.deltas = append(v.deltas, Delta{Source: source, Amount: amount})
}

// RemoveSource removes every delta tagged with source.
//
// Postcondition: no remaining delta has the given source.
func (v *Value) RemoveSource(source string) {
	kept := v.deltas[:0]
	for _, d := range v.deltas {
		if d.Source != source {
			kept = append(kept, d)
		}
	}
	v.deltas = kept
}

// Total returns the base plus every delta.
func (v *Value) Total() int {
	total := v.Base
	for _, d := range v.deltas {
		total += d.Amount
	}
	return total
}

// Deltas returns a copy of the tagged deltas in insertion order.
func (v *Value) Deltas() []Delta {
	out := make([]Delta, len(v.deltas))
	copy(out, v.deltas)
	return out
}

// ValueSet is a map of named values that creates entries on demand.
type ValueSet map[string]*Value

// Get returns the value for name, creating a zero-based entry if absent.
func (s ValueSet) Get(name string) *Value {
	v, ok := s[name]
	if !ok {
		v = NewValue(0)
		s[name] = v
	}
	return v
}

// RemoveSource removes source-tagged deltas from every value in the set.
func (s ValueSet) RemoveSource(source string) {
	for _, v := range s {
		v.RemoveSource(source)
	}
}

// Names returns the set's names in sorted order.
func (s ValueSet) Names() []string {
	out := make([]string, 0, len(s))
	for name := range s {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
