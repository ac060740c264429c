// Package effect represents persistent modifiers as a bundle of simple,
// symmetrically reversible stat deltas plus composable hook functions bound
// to the five resolution hook slots.
package effect

import (
	"fmt"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
)

// DurationKind classifies how long an effect persists.
type DurationKind int

const (
	// DurationInstant effects apply their modifiers and are immediately done.
	DurationInstant DurationKind = iota
	// DurationTemporary effects expire after a fixed number of owner turns.
	DurationTemporary
	// DurationConditional effects persist until some external condition
	// revokes them (concentration, equipment).
	DurationConditional
	// DurationPermanent effects never expire on their own.
	DurationPermanent
)

// Duration tracks an effect's lifetime. Elapsed counts owner turn-starts and
// is meaningful only for DurationTemporary.
type Duration struct {
	Kind    DurationKind
	Turns   int
	Elapsed int
}

// Temporary returns a duration that expires after turns owner turn-starts.
//
// Precondition: turns > 0.
func Temporary(turns int) Duration {
	return Duration{Kind: DurationTemporary, Turns: turns}
}

// Permanent returns a duration that never expires.
func Permanent() Duration { return Duration{Kind: DurationPermanent} }

// Conditional returns a duration revoked only by an external condition.
func Conditional() Duration { return Duration{Kind: DurationConditional} }

// Tick advances the duration by one owner turn and reports expiry.
//
// Postcondition: returns true iff the effect should now be removed.
func (d *Duration) Tick() bool {
	if d.Kind != DurationTemporary {
		return false
	}
	d.Elapsed++
	return d.Elapsed >= d.Turns
}

// Sheet is the slice of one entity's mutable state that effects touch. The
// surrounding entity store provides an implementation per entity; the effect
// package never sees the store itself.
type Sheet interface {
	EntityID() string
	Ability(a stats.Ability) *stats.Value
	Skill(name string) *stats.Value
	SavingThrow(a stats.Ability) *stats.Value
	ArmorClassValue() *stats.Value
	ResistanceSet() *damage.Resistances
	ResourceLedger() *resource.Ledger
}

// View is the read-only entity snapshot handed to script hooks.
type View interface {
	EntityID() string
	AbilityModifier(a stats.Ability) int
	ArmorClass() int
}

// Effect is one persistent modifier: an id, a lifetime, simple reversible
// modifiers, and hook functions for the five named slots.
type Effect struct {
	ID          string
	Description string
	Duration    Duration
	Modifiers   Modifiers
	Hooks       HookSet

	// OnApply and OnUnapply run after the simple modifiers are applied and
	// before they are reversed, respectively. Either may be nil.
	OnApply   func(Sheet)
	OnUnapply func(Sheet)
}

// Source returns the ModifierSource tag deltas granted by this effect carry.
func (e *Effect) Source() string { return "effect:" + e.ID }

// Apply applies the effect's simple modifiers to sheet, tagged with the
// effect's source so Unapply can reverse them, then runs OnApply.
//
// Precondition: sheet must be non-nil.
func (e *Effect) Apply(sheet Sheet) {
	e.Modifiers.apply(sheet, e.Source())
	if e.OnApply != nil {
		e.OnApply(sheet)
	}
}

// Unapply runs OnUnapply, then reverses every simple modifier tagged with
// the effect's source.
//
// Postcondition: sheet carries no delta, resistance, or resource-max change
// tagged with e.Source().
func (e *Effect) Unapply(sheet Sheet) {
	if e.OnUnapply != nil {
		e.OnUnapply(sheet)
	}
	e.Modifiers.unapply(sheet, e.Source())
}

// Validate reports content errors: an empty id or a temporary duration
// without a positive turn count.
func (e *Effect) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("effect: empty id")
	}
	if e.Duration.Kind == DurationTemporary && e.Duration.Turns <= 0 {
		return fmt.Errorf("effect %q: temporary duration needs turns > 0", e.ID)
	}
	return nil
}
