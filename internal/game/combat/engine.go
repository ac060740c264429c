package combat

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
)

// Engine is the encounter-level facade: it owns a resolver for the duration
// of an encounter and drives turn boundaries, rests, and action performance
// against a shared entity store.
//
// Invariant: all engine methods run on one goroutine; the entity store is
// not synchronized.
type Engine struct {
	store    Store
	actions  ActionSource
	roller   *dice.Roller
	resolver *Resolver
	logger   *zap.Logger
}

// NewEngine creates an engine. planner may be nil to run without reactions.
func NewEngine(store Store, actions ActionSource, roller *dice.Roller, planner *Planner, logger *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		actions:  actions,
		roller:   roller,
		resolver: NewResolver(store, roller, planner, logger),
		logger:   logger,
	}
}

// Events returns every event emitted this encounter, in order.
func (e *Engine) Events() []*Event { return e.resolver.Events() }

// StartTurn advances entityID across a turn boundary: active effects tick
// and expire, cooldowns tick down, and turn-recharged resources refill.
func (e *Engine) StartTurn(entityID string) error {
	entity, ok := e.store.Entity(entityID)
	if !ok {
		return fmt.Errorf("combat: start turn: no such entity %q", entityID)
	}

	expired := entity.Effects().TickTurn(entity)
	for _, id := range expired {
		e.logger.Debug("effect expired",
			zap.String("entity", entityID),
			zap.String("effect", id),
		)
	}
	entity.CooldownMap().Tick()
	entity.ResourceLedger().Recharge(resource.RechargeTurn)
	return nil
}

// Rest recharges entityID's resources across the given rest boundary. A
// long rest also restores the entity to full hit points.
func (e *Engine) Rest(entityID string, boundary resource.Recharge) error {
	entity, ok := e.store.Entity(entityID)
	if !ok {
		return fmt.Errorf("combat: rest: no such entity %q", entityID)
	}
	entity.ResourceLedger().Recharge(boundary)
	if boundary >= resource.RechargeLongRest {
		hp := entity.HP()
		hp.Heal(hp.Max - hp.Current)
	}
	return nil
}

// Perform runs the full performance pipeline for one action: usability
// check, resource spend, cooldown start, then event-chain resolution.
//
// Postcondition: on error before resolution, no state has changed. A
// reaction that cancels the action mid-chain may still have refunded its
// cost; the returned outcomes record what actually happened.
func (e *Engine) Perform(actorID, actionID string, targets ...string) (*ActionResult, error) {
	a, ok := e.actions.Action(actionID)
	if !ok {
		return nil, fmt.Errorf("combat: perform: no such action %q", actionID)
	}
	if err := ActionUsable(e.store, actorID, a, targets); err != nil {
		return nil, err
	}

	actor, _ := e.store.Entity(actorID)
	cost := EffectiveCost(actor, a)
	if err := actor.ResourceLedger().SpendAll(cost); err != nil {
		// ActionUsable verified affordability; only a racing mutation on
		// the same goroutine could land here.
		return nil, fmt.Errorf("combat: perform %q: %w", actionID, err)
	}
	if a.CooldownTurns > 0 {
		actor.CooldownMap().Start(a.ID, a.CooldownTurns)
	}

	e.logger.Info("action performed",
		zap.String("actor", actorID),
		zap.String("action", actionID),
		zap.Strings("targets", targets),
	)

	result, err := e.resolver.Resolve(actorID, a, targets)
	if err != nil {
		return nil, err
	}
	actor.Effects().Hooks().RunAction(actor, a.ID, cost)
	return result, nil
}

// ApplyEffect puts eff on entityID outside of any action, for encounter
// setup and environmental sources.
func (e *Engine) ApplyEffect(entityID string, eff *effect.Effect) error {
	entity, ok := e.store.Entity(entityID)
	if !ok {
		return fmt.Errorf("combat: apply effect: no such entity %q", entityID)
	}
	return entity.Effects().Apply(entity, eff)
}

// RemoveEffect strips an active effect by id. Unknown ids are a no-op.
func (e *Engine) RemoveEffect(entityID, effectID string) error {
	entity, ok := e.store.Entity(entityID)
	if !ok {
		return fmt.Errorf("combat: remove effect: no such entity %q", entityID)
	}
	entity.Effects().Remove(entity, effectID)
	return nil
}
