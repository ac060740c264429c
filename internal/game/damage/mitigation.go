package damage

import (
	"fmt"
	"sort"
)

// Operation is one damage mitigation transformation. The declaration order
// is the application priority: immunity first, then flat reduction,
// resistance, and vulnerability last.
type Operation int

const (
	OpImmunity Operation = iota
	OpFlatReduction
	OpResistance
	OpVulnerability
)

// Priority returns the application rank; lower ranks apply first.
func (o Operation) Priority() int { return int(o) }

// String returns the YAML-facing name of the operation.
func (o Operation) String() string {
	switch o {
	case OpImmunity:
		return "immunity"
	case OpFlatReduction:
		return "flat_reduction"
	case OpResistance:
		return "resistance"
	case OpVulnerability:
		return "vulnerability"
	default:
		return fmt.Sprintf("Operation(%d)", int(o))
	}
}

// ParseOperation converts a YAML-facing name into an Operation.
func ParseOperation(s string) (Operation, error) {
	switch s {
	case "immunity":
		return OpImmunity, nil
	case "flat_reduction":
		return OpFlatReduction, nil
	case "resistance":
		return OpResistance, nil
	case "vulnerability":
		return OpVulnerability, nil
	default:
		return 0, fmt.Errorf("damage: unknown mitigation operation %q", s)
	}
}

// Mitigation is one mitigation effect granted by some source (an effect id,
// an item, or a per-roll synthesis like half-damage-on-save).
type Mitigation struct {
	Source string
	Op     Operation
	Amount int // used by OpFlatReduction only
}

// apply transforms a running component value.
func (m Mitigation) apply(value int) int {
	switch m.Op {
	case OpImmunity:
		return 0
	case OpFlatReduction:
		v := value - m.Amount
		if v < 0 {
			return 0
		}
		return v
	case OpResistance:
		return value / 2
	case OpVulnerability:
		return value * 2
	default:
		return value
	}
}

// Resistances tracks the mitigation effects an entity carries, keyed by
// damage type in insertion order. It is not safe for concurrent use.
type Resistances struct {
	byType map[Type][]Mitigation
}

// NewResistances creates an empty resistance set.
func NewResistances() *Resistances {
	return &Resistances{byType: make(map[Type][]Mitigation)}
}

// Add appends a mitigation effect for the given damage type. Insertion order
// is preserved; Apply reorders by priority, not by insertion.
func (r *Resistances) Add(t Type, m Mitigation) {
	r.byType[t] = append(r.byType[t], m)
}

// RemoveBySource deletes every mitigation effect granted by source, across
// all damage types. Used to reverse an effect's modifiers symmetrically.
//
// Postcondition: no remaining mitigation has the given source.
func (r *Resistances) RemoveBySource(source string) {
	for t, effects := range r.byType {
		kept := effects[:0]
		for _, m := range effects {
			if m.Source != source {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			delete(r.byType, t)
		} else {
			r.byType[t] = kept
		}
	}
}

// For returns the mitigation effects registered for t, in insertion order.
func (r *Resistances) For(t Type) []Mitigation {
	out := make([]Mitigation, len(r.byType[t]))
	copy(out, r.byType[t])
	return out
}

// AppliedMitigation records one mitigation effect that actually ran, with
// the component value before and after.
type AppliedMitigation struct {
	Mitigation
	Before int
	After  int
}

// MitigatedComponent is the post-mitigation state of one damage component.
type MitigatedComponent struct {
	Type    Type
	Rolled  int
	Final   int
	Applied []AppliedMitigation
}

// MitigationResult is the outcome of running a damage result through the
// mitigation chain.
//
// Postcondition: Total == sum of component Final values; every Final >= 0.
type MitigationResult struct {
	Components []MitigatedComponent
	Total      int
}

// Apply runs every component of result through this entity's mitigation
// chain. Per component: collect the effects for its damage type, order them
// by operation priority (stable with respect to insertion order within a
// priority class), then apply sequentially. Processing stops early once the
// running value reaches zero; skipped effects are not recorded as applied.
// extra effects (e.g. a per-roll half-damage-on-save resistance) participate
// as if they had been inserted last.
//
// Postcondition: the result total is the sum of the per-component floors; no
// additional floor is applied at the total level.
func (r *Resistances) Apply(result RollResult, extra ...Mitigation) MitigationResult {
	out := MitigationResult{Components: make([]MitigatedComponent, 0, len(result.Components))}

	for _, comp := range result.Components {
		effects := append(r.For(comp.Type), extra...)
		sort.SliceStable(effects, func(i, j int) bool {
			return effects[i].Op.Priority() < effects[j].Op.Priority()
		})

		mc := MitigatedComponent{Type: comp.Type, Rolled: comp.Subtotal}
		value := comp.Subtotal
		for _, m := range effects {
			if value <= 0 {
				break
			}
			after := m.apply(value)
			mc.Applied = append(mc.Applied, AppliedMitigation{Mitigation: m, Before: value, After: after})
			value = after
		}
		if value < 0 {
			value = 0
		}
		mc.Final = value
		out.Components = append(out.Components, mc)
		out.Total += value
	}
	return out
}
