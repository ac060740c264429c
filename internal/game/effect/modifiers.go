package effect

import (
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
)

// ResistanceGrant is one mitigation entry an effect adds to its owner.
type ResistanceGrant struct {
	Type   damage.Type
	Op     damage.Operation
	Amount int // OpFlatReduction only
}

// Modifiers are the simple, symmetric part of an effect: numeric deltas that
// apply on Apply and reverse exactly on Unapply via the effect's source tag.
type Modifiers struct {
	Abilities    map[stats.Ability]int
	Skills       map[string]int
	SavingThrows map[stats.Ability]int
	ArmorClass   int
	Resistances  []ResistanceGrant
	ResourceMax  map[string]int // resource id -> max uses delta
}

func (m Modifiers) apply(sheet Sheet, source string) {
	for ability, delta := range m.Abilities {
		sheet.Ability(ability).Add(source, delta)
	}
	for skill, delta := range m.Skills {
		sheet.Skill(skill).Add(source, delta)
	}
	for ability, delta := range m.SavingThrows {
		sheet.SavingThrow(ability).Add(source, delta)
	}
	if m.ArmorClass != 0 {
		sheet.ArmorClassValue().Add(source, m.ArmorClass)
	}
	for _, grant := range m.Resistances {
		sheet.ResistanceSet().Add(grant.Type, damage.Mitigation{
			Source: source,
			Op:     grant.Op,
			Amount: grant.Amount,
		})
	}
	for id, delta := range m.ResourceMax {
		if pool, ok := sheet.ResourceLedger().Get(id); ok {
			applyMaxDelta(pool, delta)
		}
	}
}

func (m Modifiers) unapply(sheet Sheet, source string) {
	for ability := range m.Abilities {
		sheet.Ability(ability).RemoveSource(source)
	}
	for skill := range m.Skills {
		sheet.Skill(skill).RemoveSource(source)
	}
	for ability := range m.SavingThrows {
		sheet.SavingThrow(ability).RemoveSource(source)
	}
	if m.ArmorClass != 0 {
		sheet.ArmorClassValue().RemoveSource(source)
	}
	sheet.ResistanceSet().RemoveBySource(source)
	for id, delta := range m.ResourceMax {
		if pool, ok := sheet.ResourceLedger().Get(id); ok {
			applyMaxDelta(pool, -delta)
		}
	}
}

// applyMaxDelta adjusts a flat pool's maximum by delta. Tiered pools are
// skipped; resource-max modifiers address flat budgets only. A reduction
// that would fail (below zero max) is ignored rather than left half-applied.
func applyMaxDelta(pool *resource.Pool, delta int) {
	budget, err := pool.Budget(resource.Flat(0))
	if err != nil {
		return
	}
	switch {
	case delta > 0:
		budget.AddUses(delta)
	case delta < 0:
		_ = budget.RemoveUses(-delta)
	}
}
