package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/world"
)

// TargetOutcome is the authoritative result of resolving one action against
// one target.
type TargetOutcome struct {
	Target string

	AttackRoll *dice.D20Result
	AttackDC   int
	Hit        bool
	Crit       bool

	SaveRoll *dice.D20Result
	SaveDC   int
	Saved    bool

	DamageRolled *damage.RollResult
	Damage       *damage.MitigationResult
	DamageDealt  int

	EffectApplied string
	Healing       int

	// Cancelled is set when a reaction cancelled an event in this chain;
	// the remainder of the chain never ran.
	Cancelled bool
}

// ActionResult bundles the outcomes of one performed action.
type ActionResult struct {
	ActionID string
	Actor    string
	Outcomes []TargetOutcome
}

// Resolver drives one or more action resolutions against a store, recording
// every emitted event in order. Resolution is single-threaded and
// continuation-passing: each step that conceptually waits for a sub-result
// stores a continuation the driver invokes synchronously once the
// sub-event has been offered to reactions. Nesting is bounded by content
// (attack -> damage -> reaction -> nested save) and stays well within stack
// limits.
type Resolver struct {
	store   Store
	roller  *dice.Roller
	planner *Planner // may be nil: no reactions
	logger  *zap.Logger
	events  []*Event
}

// NewResolver creates a resolver. planner may be nil to disable reactions.
//
// Precondition: store, roller, and logger must be non-nil.
func NewResolver(store Store, roller *dice.Roller, planner *Planner, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, roller: roller, planner: planner, logger: logger}
}

// Events returns every event emitted so far, in emission order.
func (r *Resolver) Events() []*Event { return r.events }

// emit records ev, offers it to reactions, and, unless a reaction cancelled
// it, runs the owning continuation. This is the entire "async" machinery:
// continuations run synchronously, in emission order, reactions strictly
// before finalization.
func (r *Resolver) emit(ev *Event, cont func(*Event) error) error {
	r.events = append(r.events, ev)
	r.logger.Debug("event emitted",
		zap.String("event", ev.Kind.String()),
		zap.String("actor", ev.Actor),
		zap.String("target", ev.Target),
	)

	if r.planner != nil {
		if err := r.planner.React(r, ev); err != nil {
			return err
		}
	}
	if ev.Cancelled {
		r.logger.Debug("event cancelled", zap.String("event", ev.Kind.String()))
		return nil
	}
	if cont != nil {
		return cont(ev)
	}
	return nil
}

// Resolve runs a full resolution of action a by actorID against targets.
// Usability must have been checked and the cost spent by the caller (the
// engine); Resolve only drives the event chain.
//
// Postcondition: one TargetOutcome per resolved target, in target order.
func (r *Resolver) Resolve(actorID string, a *Action, targets []string) (*ActionResult, error) {
	actor, ok := r.store.Entity(actorID)
	if !ok {
		return nil, fmt.Errorf("combat: resolve: no such actor %q", actorID)
	}

	if a.Targeting == TargetSelf && len(targets) == 0 {
		targets = []string{actorID}
	}

	result := &ActionResult{ActionID: a.ID, Actor: actorID}
	for _, targetID := range targets {
		target, ok := r.store.Entity(targetID)
		if !ok {
			return nil, fmt.Errorf("combat: resolve: no such target %q", targetID)
		}
		outcome, err := r.resolveTarget(actor, a, target)
		if err != nil {
			return nil, err
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result, nil
}

func (r *Resolver) resolveTarget(actor *world.StatBlock, a *Action, target *world.StatBlock) (TargetOutcome, error) {
	outcome := TargetOutcome{Target: target.EntityID()}

	var err error
	switch a.Kind {
	case KindUnconditional:
		err = r.resolveUnconditional(actor, a, target, &outcome)
	case KindAttackRoll:
		err = r.resolveAttackRoll(actor, a, target, &outcome)
	case KindSavingThrow:
		err = r.resolveSavingThrow(actor, a, target, &outcome)
	default:
		err = fmt.Errorf("combat: action %q: unknown kind %d", a.ID, int(a.Kind))
	}
	return outcome, err
}

// resolveUnconditional applies effect and healing with no gating roll, then
// runs the damage chain if a damage payload exists.
func (r *Resolver) resolveUnconditional(actor *world.StatBlock, a *Action, target *world.StatBlock, outcome *TargetOutcome) error {
	r.applyGatedEffect(a, target, outcome)
	r.applyHealing(a, target, outcome)

	if a.Damage == nil {
		return r.emitActionPerformed(actor, a, target, outcome)
	}
	return r.emitDamageRoll(actor, a, target, false, outcome)
}

// resolveAttackRoll gates effect and damage behind an attack roll against
// the target's (hook-adjusted) armor class.
func (r *Resolver) resolveAttackRoll(actor *world.StatBlock, a *Action, target *world.StatBlock, outcome *TargetOutcome) error {
	check := dice.NewD20Check()
	check.AddBonus(actor.AbilityModifier(a.AttackAbility) + a.AttackBonus)

	atk := &effect.AttackRollState{Check: &check, DamageSource: a.damageSource()}
	actor.Effects().Hooks().RunAttackRoll(actor, atk)

	armorClass := target.ArmorClass()
	target.Effects().Hooks().RunArmorClass(target, &armorClass)

	ev := newEvent(EventD20Check, actor.EntityID(), target.EntityID())
	ev.ActionID = a.ID
	rolled := r.roller.RollCheck(check)
	ev.D20 = &D20Payload{
		CheckKind:    CheckAttack,
		Check:        check,
		DC:           armorClass,
		Result:       &rolled,
		DamageSource: a.damageSource(),
	}

	err := r.emit(ev, func(ev *Event) error {
		outcome.AttackRoll = ev.D20.Result
		outcome.AttackDC = ev.D20.DC
		outcome.Crit = ev.D20.Result.IsCrit()
		// Crits hit and fumbles miss regardless of the target number.
		outcome.Hit = (ev.D20.Success() || outcome.Crit) && !ev.D20.Result.IsFumble()

		if outcome.Hit {
			r.applyGatedEffect(a, target, outcome)
		}
		if a.Damage != nil && (outcome.Hit || a.DamageOnMiss) {
			return r.emitDamageRoll(actor, a, target, outcome.Hit && outcome.Crit, outcome)
		}
		return r.emitActionPerformed(actor, a, target, outcome)
	})
	if ev.Cancelled {
		outcome.Cancelled = true
	}
	return err
}

// resolveSavingThrow rolls the action's damage first, unconditionally, then
// lets the target save against it; success halves the damage only when the
// action says so, and the gated effect lands only on a failure.
func (r *Resolver) resolveSavingThrow(actor *world.StatBlock, a *Action, target *world.StatBlock, outcome *TargetOutcome) error {
	if a.Damage == nil {
		return r.emitSavingThrow(actor, a, target, nil, outcome)
	}

	ev := newEvent(EventDamageRoll, actor.EntityID(), target.EntityID())
	ev.ActionID = a.ID
	ev.Damage = r.rollDamage(actor, a, false)

	err := r.emit(ev, func(ev *Event) error {
		return r.emitSavingThrow(actor, a, target, ev.Damage, outcome)
	})
	if ev.Cancelled {
		outcome.Cancelled = true
	}
	return err
}

// emitSavingThrow emits the target's save, carrying the already-rolled
// incoming damage for reactions to inspect. Its continuation applies the
// gated effect on a failure and the (possibly halved) damage either way.
func (r *Resolver) emitSavingThrow(actor *world.StatBlock, a *Action, target *world.StatBlock, dmg *DamagePayload, outcome *TargetOutcome) error {
	check := dice.NewD20Check()
	check.AddBonus(target.SavingThrowBonus(a.SaveAbility))

	ev := newEvent(EventD20Check, target.EntityID(), actor.EntityID())
	ev.ActionID = a.ID
	rolled := r.roller.RollCheck(check)
	ev.D20 = &D20Payload{
		CheckKind: CheckSavingThrow,
		Check:     check,
		Ability:   a.SaveAbility,
		DC:        a.SaveDC,
		Result:    &rolled,
	}
	ev.Damage = dmg

	err := r.emit(ev, func(ev *Event) error {
		outcome.SaveRoll = ev.D20.Result
		outcome.SaveDC = ev.D20.DC
		outcome.Saved = ev.D20.Success()

		if !outcome.Saved {
			r.applyGatedEffect(a, target, outcome)
		}
		if dmg != nil {
			var extra []damage.Mitigation
			if outcome.Saved && a.HalfDamageOnSave {
				// Synthesized per-roll resistance keyed to the governing save
				// ability; it participates in the normal priority ordering.
				extra = append(extra, damage.Mitigation{
					Source: "save:" + string(a.SaveAbility),
					Op:     damage.OpResistance,
				})
			}
			r.applyRolledDamage(target, dmg, extra, outcome)
		}
		return r.emitActionPerformed(actor, a, target, outcome)
	})
	if ev.Cancelled {
		outcome.Cancelled = true
	}
	return err
}

// emitDamageRoll rolls the action's damage (crit-doubled when isCrit) and
// emits the damage event; its continuation applies mitigation and hit
// points, then emits the final action event.
func (r *Resolver) emitDamageRoll(actor *world.StatBlock, a *Action, target *world.StatBlock, isCrit bool, outcome *TargetOutcome) error {
	ev := newEvent(EventDamageRoll, actor.EntityID(), target.EntityID())
	ev.ActionID = a.ID
	ev.Damage = r.rollDamage(actor, a, isCrit)

	err := r.emit(ev, func(ev *Event) error {
		r.applyRolledDamage(target, ev.Damage, nil, outcome)
		return r.emitActionPerformed(actor, a, target, outcome)
	})
	if ev.Cancelled {
		outcome.Cancelled = true
	}
	return err
}

// rollDamage rolls the action's damage with the actor's ability modifier and
// post-damage hooks applied.
func (r *Resolver) rollDamage(actor *world.StatBlock, a *Action, isCrit bool) *DamagePayload {
	roll := *a.Damage
	if a.DamageAbility != "" {
		roll.AbilityModifier = actor.AbilityModifier(a.DamageAbility)
	}
	rolled := roll.RollCrit(r.roller.Source(), isCrit)
	actor.Effects().Hooks().RunDamageRoll(actor, &rolled)
	return &DamagePayload{Roll: roll, IsCrit: isCrit, Result: &rolled}
}

// applyRolledDamage runs the target's mitigations over a rolled damage
// payload and applies the result to its hit points.
func (r *Resolver) applyRolledDamage(target *world.StatBlock, dmg *DamagePayload, extra []damage.Mitigation, outcome *TargetOutcome) {
	mitigated := target.ResistanceSet().Apply(*dmg.Result, extra...)
	dmg.Mitigated = &mitigated

	outcome.DamageRolled = dmg.Result
	outcome.Damage = &mitigated
	outcome.DamageDealt = target.HP().Damage(mitigated.Total)

	r.logger.Debug("damage applied",
		zap.String("target", target.EntityID()),
		zap.Int("rolled", dmg.Result.Total),
		zap.Int("mitigated", mitigated.Total),
		zap.Int("hp", target.HP().Current),
	)
}

// emitActionPerformed emits the final authoritative event carrying the
// combined outcome bundle.
func (r *Resolver) emitActionPerformed(actor *world.StatBlock, a *Action, target *world.StatBlock, outcome *TargetOutcome) error {
	ev := newEvent(EventActionPerformed, actor.EntityID(), target.EntityID())
	ev.ActionID = a.ID
	ev.Outcome = outcome
	return r.emit(ev, nil)
}

func (r *Resolver) applyGatedEffect(a *Action, target *world.StatBlock, outcome *TargetOutcome) {
	instance := a.effectInstance()
	if instance == nil {
		return
	}
	if err := target.Effects().Apply(target, instance); err != nil {
		// Only malformed content reaches here; Validate runs at load time.
		panic(fmt.Sprintf("combat: applying effect %q: %v", instance.ID, err))
	}
	outcome.EffectApplied = instance.ID
}

func (r *Resolver) applyHealing(a *Action, target *world.StatBlock, outcome *TargetOutcome) {
	if a.Healing == nil {
		return
	}
	rolled := r.roller.Roll(*a.Healing)
	outcome.Healing = target.HP().Heal(rolled.Total())
}
