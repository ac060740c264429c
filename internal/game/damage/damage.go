// Package damage implements the typed damage pipeline: multi-component
// damage rolls with crit dice doubling, and the priority-ordered mitigation
// chain (immunity, flat reduction, resistance, vulnerability).
package damage

import (
	"fmt"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
)

// Type identifies a damage type for mitigation purposes.
type Type string

const (
	Slashing    Type = "slashing"
	Piercing    Type = "piercing"
	Bludgeoning Type = "bludgeoning"
	Fire        Type = "fire"
	Cold        Type = "cold"
	Lightning   Type = "lightning"
	Thunder     Type = "thunder"
	Acid        Type = "acid"
	Poison      Type = "poison"
	Necrotic    Type = "necrotic"
	Radiant     Type = "radiant"
	Force       Type = "force"
	Psychic     Type = "psychic"
)

// Component is one typed dice expression within a damage roll.
type Component struct {
	Type Type
	Dice dice.Expression
}

// Roll describes a damage roll before any dice hit the table: a primary
// component that carries the attacker's ability modifier, plus any number of
// bonus components (smite dice, elemental riders) that do not.
type Roll struct {
	Primary         Component
	AbilityModifier int
	Bonus           []Component
}

// ComponentResult is one rolled component of a damage result.
type ComponentResult struct {
	Type     Type
	Roll     dice.RollResult
	Subtotal int
}

// RollResult is an ordered list of rolled components plus their sum. The
// primary component is always first.
//
// Postcondition: Total == sum of Subtotals.
type RollResult struct {
	Components []ComponentResult
	Total      int
}

// String returns a compact audit string like "slashing 7 + fire 2 = 9".
func (r RollResult) String() string {
	s := ""
	for i, c := range r.Components {
		if i > 0 {
			s += " + "
		}
		s += fmt.Sprintf("%s %d", c.Type, c.Subtotal)
	}
	return fmt.Sprintf("%s = %d", s, r.Total)
}

// Roll rolls the primary component and every bonus component independently
// and sums the subtotals. The ability modifier applies to the primary
// component only; a heavily negative modifier cannot drive a subtotal below
// zero.
//
// Precondition: src must be non-nil; every component must hold a parsed
// expression.
// Postcondition: Components[0] is the primary; Total == sum of Subtotals.
func (r Roll) Roll(src dice.Source) RollResult {
	return r.RollCrit(src, false)
}

// RollCrit rolls like Roll but, when isCrit is true, doubles the die count
// of every component first. Flat modifiers and the ability modifier are
// never doubled.
func (r Roll) RollCrit(src dice.Source, isCrit bool) RollResult {
	roll := func(c Component, abilityMod int) ComponentResult {
		expr := c.Dice
		if isCrit {
			expr = expr.Doubled()
		}
		rolled := dice.Roll(expr, src)
		subtotal := rolled.Total() + abilityMod
		if subtotal < 0 {
			subtotal = 0
		}
		return ComponentResult{Type: c.Type, Roll: rolled, Subtotal: subtotal}
	}

	out := RollResult{Components: make([]ComponentResult, 0, 1+len(r.Bonus))}
	out.Components = append(out.Components, roll(r.Primary, r.AbilityModifier))
	for _, bonus := range r.Bonus {
		out.Components = append(out.Components, roll(bonus, 0))
	}
	for _, c := range out.Components {
		out.Total += c.Subtotal
	}
	return out
}
