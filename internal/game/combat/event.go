// Package combat implements the action resolution core: single-use events
// chained through continuations, the reaction interrupt planner, and the
// encounter engine that drives turns, rests, and effect lifetimes.
package combat

import (
	"github.com/google/uuid"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
)

// EventKind classifies one resolution step.
type EventKind int

const (
	// EventD20Check is an attack roll, saving throw, or skill check in
	// flight: rolled, but not yet compared against its DC.
	EventD20Check EventKind = iota
	// EventDamageRoll is a rolled damage result awaiting mitigation.
	EventDamageRoll
	// EventActionPerformed is the final authoritative outcome of an action.
	EventActionPerformed
)

// String returns "d20_check", "damage_roll", or "action_performed".
func (k EventKind) String() string {
	switch k {
	case EventD20Check:
		return "d20_check"
	case EventDamageRoll:
		return "damage_roll"
	case EventActionPerformed:
		return "action_performed"
	default:
		return "unknown"
	}
}

// CheckKind distinguishes the d20 check variants. Reactions treat them
// uniformly; the kind exists for triggers and the audit log.
type CheckKind int

const (
	CheckAttack CheckKind = iota
	CheckSavingThrow
	CheckSkill
)

// String returns "attack", "saving_throw", or "skill".
func (k CheckKind) String() string {
	switch k {
	case CheckAttack:
		return "attack"
	case CheckSavingThrow:
		return "saving_throw"
	case CheckSkill:
		return "skill"
	default:
		return "unknown"
	}
}

// D20Payload is the kind-specific state of an in-flight d20 check. Reactions
// mutate Result (bonus, reroll) and DC before the owning continuation
// compares them.
type D20Payload struct {
	CheckKind CheckKind
	// Check is the pre-roll state, retained so rerolls use the same mode
	// and crit threshold.
	Check dice.D20Check
	// Ability is the governing ability for saving throws and skill checks.
	Ability stats.Ability
	// DC is the target number: armor class for attacks, difficulty class
	// otherwise.
	DC int
	// Result is filled when the event is emitted, before reactions run.
	Result *dice.D20Result
	// DamageSource identifies what delivers an attack, for hook guards.
	DamageSource string
}

// Success reports whether the rolled total meets the (possibly modified) DC.
//
// Precondition: Result != nil.
func (p *D20Payload) Success() bool { return p.Result.Total() >= p.DC }

// DamagePayload is the kind-specific state of a rolled damage result
// awaiting mitigation.
type DamagePayload struct {
	Roll   damage.Roll
	IsCrit bool
	Result *damage.RollResult
	// Mitigated is filled by the owning continuation after mitigation runs.
	Mitigated *damage.MitigationResult
}

// Event is an ephemeral, single-use record of one resolution step. Events
// are created per step, offered to reactions, consumed by their owning
// continuation, and never persisted.
type Event struct {
	ID     string
	Kind   EventKind
	Actor  string // entity performing the step (the roller, for d20 checks)
	Target string // entity the step is aimed at; may be empty

	Cancelled bool

	D20      *D20Payload
	Damage   *DamagePayload
	ActionID string
	Outcome  *TargetOutcome // EventActionPerformed only
}

// newEvent creates an event with a fresh id.
func newEvent(kind EventKind, actor, target string) *Event {
	return &Event{
		ID:     uuid.NewString(),
		Kind:   kind,
		Actor:  actor,
		Target: target,
	}
}

// Cancel marks the event cancelled; its owning continuation will not run.
func (e *Event) Cancel() { e.Cancelled = true }
