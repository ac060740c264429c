package combat

import (
	"fmt"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/world"
)

// ActionKind selects the resolution chain an action runs through.
type ActionKind int

const (
	// KindUnconditional actions apply their effect and healing with no
	// gating roll; damage, if any, still rolls and mitigates.
	KindUnconditional ActionKind = iota
	// KindAttackRoll actions gate damage and effect behind an attack roll
	// against the target's armor class.
	KindAttackRoll
	// KindSavingThrow actions roll damage first, then let the target save
	// to halve it and dodge the gated effect.
	KindSavingThrow
)

// String returns "unconditional", "attack_roll", or "saving_throw".
func (k ActionKind) String() string {
	switch k {
	case KindUnconditional:
		return "unconditional"
	case KindAttackRoll:
		return "attack_roll"
	case KindSavingThrow:
		return "saving_throw"
	default:
		return "unknown"
	}
}

// TargetRule constrains what an action may be aimed at.
type TargetRule int

const (
	// TargetSelf actions implicitly target their actor.
	TargetSelf TargetRule = iota
	// TargetSingle actions need exactly one living target other than the actor.
	TargetSingle
	// TargetAny actions accept one living target, including the actor.
	TargetAny
)

// Action is the static description of one usable action, compiled from
// content. Actions are immutable at resolution time.
type Action struct {
	ID   string
	Name string
	Kind ActionKind

	Cost          resource.Cost
	CooldownTurns int
	Targeting     TargetRule

	// AttackAbility's modifier plus AttackBonus form the attack roll bonus
	// for KindAttackRoll actions.
	AttackAbility stats.Ability
	AttackBonus   int
	// DamageSource identifies the delivering weapon or spell for attack
	// hook guards; defaults to the action id when empty.
	DamageSource string

	Damage *damage.Roll
	// DamageAbility names the ability whose modifier is added to the
	// primary damage component at roll time. Empty keeps the static
	// AbilityModifier already in Damage.
	DamageAbility stats.Ability
	DamageOnMiss  bool

	// SaveAbility is the target's governing save ability for
	// KindSavingThrow actions; SaveDC the difficulty class.
	SaveAbility      stats.Ability
	SaveDC           int
	HalfDamageOnSave bool

	// Effect is the gated effect template, cloned per application.
	Effect  *effect.Effect
	Healing *dice.Expression
}

// damageSource returns the hook-guard source id for the action.
func (a *Action) damageSource() string {
	if a.DamageSource != "" {
		return a.DamageSource
	}
	return a.ID
}

// effectInstance clones the gated effect template so per-target duration
// state is never shared.
func (a *Action) effectInstance() *effect.Effect {
	if a.Effect == nil {
		return nil
	}
	clone := *a.Effect
	return &clone
}

// Validate reports content errors in the action definition.
func (a *Action) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("combat: action with empty id")
	}
	if a.Kind == KindSavingThrow && a.SaveDC <= 0 {
		return fmt.Errorf("combat: action %q: saving throw needs a positive DC", a.ID)
	}
	if a.Kind == KindSavingThrow && a.SaveAbility == "" {
		return fmt.Errorf("combat: action %q: saving throw needs a governing ability", a.ID)
	}
	if a.Effect != nil {
		if err := a.Effect.Validate(); err != nil {
			return fmt.Errorf("combat: action %q: %w", a.ID, err)
		}
	}
	return nil
}

// OnCooldownError reports an action attempted while still on cooldown.
type OnCooldownError struct {
	ActionID  string
	Remaining int
}

func (e *OnCooldownError) Error() string {
	return fmt.Sprintf("combat: action %q on cooldown for %d more turns", e.ActionID, e.Remaining)
}

// NotEnoughResourcesError reports an unaffordable effective resource cost.
type NotEnoughResourcesError struct {
	ActionID   string
	ResourceID string
	Cause      error
}

func (e *NotEnoughResourcesError) Error() string {
	return fmt.Sprintf("combat: action %q: resource %q: %v", e.ActionID, e.ResourceID, e.Cause)
}

func (e *NotEnoughResourcesError) Unwrap() error { return e.Cause }

// TargetingError reports targets that violate the action's targeting rule.
type TargetingError struct {
	ActionID string
	Reason   string
}

func (e *TargetingError) Error() string {
	return fmt.Sprintf("combat: action %q: invalid target: %s", e.ActionID, e.Reason)
}

// Store is the entity-store capability the resolution core requires: lookup
// of the component bundle for an entity handle.
type Store interface {
	Entity(id string) (*world.StatBlock, bool)
}

// ActionSource is the read-only content registry capability for actions.
type ActionSource interface {
	Action(id string) (*Action, bool)
}

// EffectiveCost returns the action's resource cost after the actor's
// resource-cost hooks have adjusted it. The action's own cost map is never
// mutated. A cost driven negative here is not repaired: the ledger rejects
// negative amounts, so the attempt fails instead of minting uses.
func EffectiveCost(actor *world.StatBlock, a *Action) resource.Cost {
	cost := a.Cost.Clone()
	if cost == nil {
		cost = resource.Cost{}
	}
	actor.Effects().Hooks().RunResourceCost(actor, a.ID, cost)
	return cost
}

// ActionUsable gates an action attempt: off cooldown, every required
// resource present and affordable (after cost hooks), and every target
// satisfying the action's targeting rule.
//
// Postcondition: a nil return means Perform with the same arguments will
// not fail a usability check.
func ActionUsable(store Store, actorID string, a *Action, targets []string) error {
	actor, ok := store.Entity(actorID)
	if !ok {
		return &TargetingError{ActionID: a.ID, Reason: fmt.Sprintf("no such actor %q", actorID)}
	}

	if actor.CooldownMap().OnCooldown(a.ID) {
		return &OnCooldownError{ActionID: a.ID, Remaining: actor.CooldownMap().Remaining(a.ID)}
	}

	cost := EffectiveCost(actor, a)
	if id, err := actor.ResourceLedger().CanAffordAll(cost); err != nil {
		return &NotEnoughResourcesError{ActionID: a.ID, ResourceID: id, Cause: err}
	}

	return validTargets(store, actorID, a, targets)
}

func validTargets(store Store, actorID string, a *Action, targets []string) error {
	switch a.Targeting {
	case TargetSelf:
		if len(targets) != 0 && (len(targets) != 1 || targets[0] != actorID) {
			return &TargetingError{ActionID: a.ID, Reason: "self-targeted action cannot aim elsewhere"}
		}
		return nil
	case TargetSingle, TargetAny:
		if len(targets) != 1 {
			return &TargetingError{ActionID: a.ID, Reason: fmt.Sprintf("needs exactly one target, got %d", len(targets))}
		}
		if a.Targeting == TargetSingle && targets[0] == actorID {
			return &TargetingError{ActionID: a.ID, Reason: "cannot target self"}
		}
		target, ok := store.Entity(targets[0])
		if !ok {
			return &TargetingError{ActionID: a.ID, Reason: fmt.Sprintf("no such entity %q", targets[0])}
		}
		if target.HP().IsDead() {
			return &TargetingError{ActionID: a.ID, Reason: "target is dead"}
		}
		return nil
	default:
		return &TargetingError{ActionID: a.ID, Reason: "unknown targeting rule"}
	}
}
