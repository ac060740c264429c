package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/world"
)

// ReactionPlan is a declarative description of what a reaction does to an
// in-flight event. Plans are data, not callbacks: the planner interprets
// them, which keeps scripted and built-in reactions on the same footing.
type ReactionPlan interface {
	isPlan()
}

// PlanSequence runs sub-plans in order. Execution stops early if a sub-plan
// cancels the event.
type PlanSequence []ReactionPlan

// PlanModifyD20Result adds a bonus (or penalty) to an in-flight d20 result.
type PlanModifyD20Result struct {
	Bonus int
}

// PlanModifyD20DC shifts the target number of an in-flight d20 check.
type PlanModifyD20DC struct {
	Delta int
}

// PlanRerollD20Result rerolls an in-flight d20 check with the same mode and
// crit threshold, plus an optional extra bonus. The higher total is kept
// unless ForceUseNew is set.
type PlanRerollD20Result struct {
	Bonus       int
	ForceUseNew bool
}

// PlanCancelEvent cancels the event outright; its owning continuation never
// runs. A non-empty Refund names the exact amounts returned to the acting
// entity's ledger, so partial refunds are expressible.
type PlanCancelEvent struct {
	Refund resource.Cost
}

// PlanRequireSavingThrow interposes a saving throw: the named entity saves
// against DC, then OnSuccess or OnFailure runs against the original event.
// The interposed save is itself an event and can draw further reactions.
type PlanRequireSavingThrow struct {
	Target    string // entity id; empty means the event's actor
	Ability   stats.Ability
	DC        int
	OnSuccess ReactionPlan // may be nil
	OnFailure ReactionPlan // may be nil
}

func (PlanSequence) isPlan()           {}
func (PlanModifyD20Result) isPlan()    {}
func (PlanModifyD20DC) isPlan()        {}
func (PlanRerollD20Result) isPlan()    {}
func (PlanCancelEvent) isPlan()        {}
func (PlanRequireSavingThrow) isPlan() {}

// ReactionDef describes one reaction an entity may hold. Exactly one of
// Trigger/TriggerScript and one of Plan/PlanScript must be set; scripts are
// resolved through the planner's evaluator.
//
// There is no separate targeting rule for reactions: the trigger predicate
// decides both when the reaction fires and which events it may answer, e.g.
// by matching ev.Target against the reactor's own id.
type ReactionDef struct {
	ID   string
	Name string

	// Cost is spent from the reactor's ledger when the reaction fires. A
	// reactor that cannot afford the cost is silently skipped.
	Cost resource.Cost

	Trigger       func(reactor *world.StatBlock, ev *Event) bool
	TriggerScript string

	Plan       func(reactor *world.StatBlock, ev *Event) ReactionPlan
	PlanScript string
}

// Validate reports malformed definitions at registration time.
func (d *ReactionDef) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("combat: reaction with empty id")
	}
	if (d.Trigger == nil) == (d.TriggerScript == "") {
		return fmt.Errorf("combat: reaction %q: exactly one of trigger and trigger script required", d.ID)
	}
	if (d.Plan == nil) == (d.PlanScript == "") {
		return fmt.Errorf("combat: reaction %q: exactly one of plan and plan script required", d.ID)
	}
	return nil
}

// ReactionEvaluator runs scripted triggers and plans. Implementations live
// outside this package; a nil evaluator disables scripted reactions.
type ReactionEvaluator interface {
	EvaluateTrigger(script string, reactor *world.StatBlock, ev *Event) (bool, error)
	EvaluatePlan(script string, reactor *world.StatBlock, ev *Event) (ReactionPlan, error)
}

// DecisionFunc decides whether a reactor actually uses a triggered,
// affordable reaction. It is the seam for player prompts and AI policy;
// AlwaysReact is the default.
type DecisionFunc func(reactorID string, def *ReactionDef, ev *Event) bool

// AlwaysReact uses every triggered reaction.
func AlwaysReact(string, *ReactionDef, *Event) bool { return true }

// Planner offers each emitted event to registered reactors in a fixed
// caller-supplied order and interprets the resulting plans.
type Planner struct {
	store     Store
	evaluator ReactionEvaluator
	decide    DecisionFunc
	logger    *zap.Logger

	order     []string
	reactions map[string][]*ReactionDef
}

// NewPlanner creates a planner. evaluator may be nil; decide defaults to
// AlwaysReact when nil.
func NewPlanner(store Store, evaluator ReactionEvaluator, decide DecisionFunc, logger *zap.Logger) *Planner {
	if decide == nil {
		decide = AlwaysReact
	}
	return &Planner{
		store:     store,
		evaluator: evaluator,
		decide:    decide,
		logger:    logger,
		reactions: make(map[string][]*ReactionDef),
	}
}

// Register gives reactorID a reaction. Reactors are offered events in first
// registration order; a reactor's own reactions run in registration order.
func (p *Planner) Register(reactorID string, def *ReactionDef) error {
	if err := def.Validate(); err != nil {
		return err
	}
	if _, ok := p.reactions[reactorID]; !ok {
		p.order = append(p.order, reactorID)
	}
	p.reactions[reactorID] = append(p.reactions[reactorID], def)
	return nil
}

// React offers ev to every registered reactor in order. Plan execution stops
// for the whole event once a plan cancels it.
func (p *Planner) React(r *Resolver, ev *Event) error {
	for _, reactorID := range p.order {
		reactor, ok := p.store.Entity(reactorID)
		if !ok {
			continue
		}
		for _, def := range p.reactions[reactorID] {
			fired, err := p.triggered(def, reactor, ev)
			if err != nil {
				p.logger.Warn("reaction trigger failed",
					zap.String("reaction", def.ID),
					zap.String("reactor", reactorID),
					zap.Error(err),
				)
				continue
			}
			if !fired {
				continue
			}
			if _, err := reactor.ResourceLedger().CanAffordAll(def.Cost); err != nil {
				continue
			}
			if !p.decide(reactorID, def, ev) {
				continue
			}

			plan, err := p.planOf(def, reactor, ev)
			if err != nil {
				p.logger.Warn("reaction plan failed",
					zap.String("reaction", def.ID),
					zap.String("reactor", reactorID),
					zap.Error(err),
				)
				continue
			}
			if plan == nil {
				continue
			}
			if err := reactor.ResourceLedger().SpendAll(def.Cost); err != nil {
				return fmt.Errorf("combat: reaction %q: %w", def.ID, err)
			}
			p.logger.Debug("reaction fired",
				zap.String("reaction", def.ID),
				zap.String("reactor", reactorID),
				zap.String("event", ev.Kind.String()),
			)
			if err := p.execute(r, reactor, ev, plan); err != nil {
				return err
			}
			if ev.Cancelled {
				return nil
			}
		}
	}
	return nil
}

func (p *Planner) triggered(def *ReactionDef, reactor *world.StatBlock, ev *Event) (bool, error) {
	if def.Trigger != nil {
		return def.Trigger(reactor, ev), nil
	}
	if p.evaluator == nil {
		return false, fmt.Errorf("combat: reaction %q: scripted trigger without evaluator", def.ID)
	}
	return p.evaluator.EvaluateTrigger(def.TriggerScript, reactor, ev)
}

func (p *Planner) planOf(def *ReactionDef, reactor *world.StatBlock, ev *Event) (ReactionPlan, error) {
	if def.Plan != nil {
		return def.Plan(reactor, ev), nil
	}
	if p.evaluator == nil {
		return nil, fmt.Errorf("combat: reaction %q: scripted plan without evaluator", def.ID)
	}
	return p.evaluator.EvaluatePlan(def.PlanScript, reactor, ev)
}

// execute interprets one plan against ev.
func (p *Planner) execute(r *Resolver, reactor *world.StatBlock, ev *Event, plan ReactionPlan) error {
	switch plan := plan.(type) {
	case PlanSequence:
		for _, sub := range plan {
			if err := p.execute(r, reactor, ev, sub); err != nil {
				return err
			}
			if ev.Cancelled {
				return nil
			}
		}
		return nil

	case PlanModifyD20Result:
		if ev.D20 == nil || ev.D20.Result == nil {
			return nil
		}
		ev.D20.Result.Bonus += plan.Bonus
		return nil

	case PlanModifyD20DC:
		if ev.D20 == nil {
			return nil
		}
		ev.D20.DC += plan.Delta
		return nil

	case PlanRerollD20Result:
		if ev.D20 == nil || ev.D20.Result == nil {
			return nil
		}
		check := ev.D20.Check
		check.AddBonus(plan.Bonus)
		rerolled := r.roller.RollCheck(check)
		if plan.ForceUseNew || rerolled.Total() > ev.D20.Result.Total() {
			*ev.D20.Result = rerolled
		}
		return nil

	case PlanCancelEvent:
		ev.Cancel()
		if len(plan.Refund) > 0 {
			p.refund(ev, plan.Refund)
		}
		return nil

	case PlanRequireSavingThrow:
		return p.requireSavingThrow(r, reactor, ev, plan)

	default:
		return fmt.Errorf("combat: unknown reaction plan %T", plan)
	}
}

// refund returns the plan's stated amounts to the cancelled event's actor.
func (p *Planner) refund(ev *Event, cost resource.Cost) {
	actorID := ev.Actor
	if ev.Kind == EventD20Check && ev.D20 != nil && ev.D20.CheckKind == CheckSavingThrow {
		// Saving throw events are rolled by the target; the spender is on
		// the other side.
		actorID = ev.Target
	}
	actor, ok := p.store.Entity(actorID)
	if !ok {
		return
	}
	actor.ResourceLedger().RestoreAll(cost)
	p.logger.Debug("action cost refunded",
		zap.String("action", ev.ActionID),
		zap.String("actor", actorID),
	)
}

// requireSavingThrow interposes a nested saving throw event and runs the
// branch plan against the ORIGINAL event once the save resolves.
func (p *Planner) requireSavingThrow(r *Resolver, reactor *world.StatBlock, original *Event, plan PlanRequireSavingThrow) error {
	saverID := plan.Target
	if saverID == "" {
		saverID = original.Actor
	}
	saver, ok := p.store.Entity(saverID)
	if !ok {
		return fmt.Errorf("combat: interposed save: no such entity %q", saverID)
	}

	check := dice.NewD20Check()
	check.AddBonus(saver.SavingThrowBonus(plan.Ability))

	nested := newEvent(EventD20Check, saverID, reactor.EntityID())
	nested.ActionID = original.ActionID
	rolled := r.roller.RollCheck(check)
	nested.D20 = &D20Payload{
		CheckKind: CheckSavingThrow,
		Check:     check,
		Ability:   plan.Ability,
		DC:        plan.DC,
		Result:    &rolled,
	}

	return r.emit(nested, func(nested *Event) error {
		branch := plan.OnFailure
		if nested.D20.Success() {
			branch = plan.OnSuccess
		}
		if branch == nil {
			return nil
		}
		return p.execute(r, reactor, original, branch)
	})
}
