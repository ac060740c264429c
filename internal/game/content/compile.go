package content

import (
	"fmt"
	"sort"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/combat"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
)

// Registry holds compiled content, indexed by id. It implements
// combat.ActionSource.
type Registry struct {
	resources []ResourceDef
	effects   map[string]*effect.Effect
	actions   map[string]*combat.Action
	reactions map[string]*combat.ReactionDef
}

// Action returns the compiled action for id.
func (r *Registry) Action(id string) (*combat.Action, bool) {
	a, ok := r.actions[id]
	return a, ok
}

// Effect returns the compiled effect template for id.
func (r *Registry) Effect(id string) (*effect.Effect, bool) {
	e, ok := r.effects[id]
	return e, ok
}

// Reaction returns the compiled reaction for id.
func (r *Registry) Reaction(id string) (*combat.ReactionDef, bool) {
	d, ok := r.reactions[id]
	return d, ok
}

// ActionIDs returns every compiled action id in sorted order.
func (r *Registry) ActionIDs() []string {
	out := make([]string, 0, len(r.actions))
	for id := range r.actions {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// NewLedger builds a fresh resource ledger holding every defined resource
// pool at full charge. Each entity gets its own ledger.
func (r *Registry) NewLedger() *resource.Ledger {
	ledger := resource.NewLedger()
	r.PopulateLedger(ledger)
	return ledger
}

// PopulateLedger adds every defined resource pool, at full charge, to an
// existing ledger. Pools are freshly built; ledgers never share state.
func (r *Registry) PopulateLedger(ledger *resource.Ledger) {
	for _, d := range r.resources {
		rule, err := resource.ParseRecharge(d.Recharge)
		if err != nil {
			panic(fmt.Sprintf("content: resource %q passed validation with bad recharge: %v", d.ID, err))
		}
		var pool *resource.Pool
		if len(d.Tiers) > 0 {
			pool, err = resource.NewTieredPool(d.Tiers, rule)
		} else {
			pool, err = resource.NewFlatPool(d.MaxUses, rule)
		}
		if err != nil {
			panic(fmt.Sprintf("content: resource %q passed validation with bad pool: %v", d.ID, err))
		}
		ledger.Add(d.ID, pool)
	}
}

// Compile turns validated documents into engine values. evaluator backs the
// script-based hooks; it may be nil only when no definition references a
// script. Cross-references (action -> effect) are resolved here and dangle
// loudly.
func Compile(docs []Document, evaluator effect.ScriptEvaluator) (*Registry, error) {
	reg := &Registry{
		effects:   make(map[string]*effect.Effect),
		actions:   make(map[string]*combat.Action),
		reactions: make(map[string]*combat.ReactionDef),
	}

	for _, doc := range docs {
		for _, d := range doc.Resources {
			if hasResource(reg.resources, d.ID) {
				return nil, fmt.Errorf("content: duplicate resource id %q", d.ID)
			}
			reg.resources = append(reg.resources, d)
		}
		for i := range doc.Effects {
			d := &doc.Effects[i]
			if _, exists := reg.effects[d.ID]; exists {
				return nil, fmt.Errorf("content: duplicate effect id %q", d.ID)
			}
			e, err := compileEffect(d, evaluator)
			if err != nil {
				return nil, err
			}
			reg.effects[d.ID] = e
		}
	}

	// Actions compile after all effects so references resolve regardless of
	// file order.
	for _, doc := range docs {
		for i := range doc.Actions {
			d := &doc.Actions[i]
			if _, exists := reg.actions[d.ID]; exists {
				return nil, fmt.Errorf("content: duplicate action id %q", d.ID)
			}
			a, err := compileAction(d, reg)
			if err != nil {
				return nil, err
			}
			reg.actions[d.ID] = a
		}
		for i := range doc.Reactions {
			d := &doc.Reactions[i]
			if _, exists := reg.reactions[d.ID]; exists {
				return nil, fmt.Errorf("content: duplicate reaction id %q", d.ID)
			}
			reg.reactions[d.ID] = &combat.ReactionDef{
				ID:            d.ID,
				Name:          d.Name,
				Cost:          compileCost(d.Cost),
				TriggerScript: d.TriggerScript,
				PlanScript:    d.PlanScript,
			}
		}
	}
	return reg, nil
}

func hasResource(defs []ResourceDef, id string) bool {
	for _, d := range defs {
		if d.ID == id {
			return true
		}
	}
	return false
}

func compileCost(m map[string]AmountDef) resource.Cost {
	if len(m) == 0 {
		return nil
	}
	cost := make(resource.Cost, len(m))
	for id, a := range m {
		cost[id] = resource.Amount{Tier: a.Tier, Uses: a.Uses}
	}
	return cost
}

func compileDuration(d DurationDef) effect.Duration {
	switch d.Kind {
	case "temporary":
		return effect.Temporary(d.Turns)
	case "conditional":
		return effect.Conditional()
	default:
		return effect.Permanent()
	}
}

func compileEffect(d *EffectDef, evaluator effect.ScriptEvaluator) (*effect.Effect, error) {
	e := &effect.Effect{
		ID:          d.ID,
		Description: d.Description,
		Duration:    compileDuration(d.Duration),
	}

	mods := effect.Modifiers{ArmorClass: d.Modifiers.ArmorClass}
	if len(d.Modifiers.Abilities) > 0 {
		mods.Abilities = make(map[stats.Ability]int, len(d.Modifiers.Abilities))
		for name, delta := range d.Modifiers.Abilities {
			mods.Abilities[stats.Ability(name)] = delta
		}
	}
	if len(d.Modifiers.Skills) > 0 {
		mods.Skills = d.Modifiers.Skills
	}
	if len(d.Modifiers.SavingThrows) > 0 {
		mods.SavingThrows = make(map[stats.Ability]int, len(d.Modifiers.SavingThrows))
		for name, delta := range d.Modifiers.SavingThrows {
			mods.SavingThrows[stats.Ability(name)] = delta
		}
	}
	for _, r := range d.Modifiers.Resistances {
		op, err := damage.ParseOperation(r.Op)
		if err != nil {
			return nil, fmt.Errorf("content: effect %q: %w", d.ID, err)
		}
		mods.Resistances = append(mods.Resistances, effect.ResistanceGrant{
			Type:   damage.Type(r.Type),
			Op:     op,
			Amount: r.Amount,
		})
	}
	if len(d.Modifiers.ResourceMax) > 0 {
		mods.ResourceMax = d.Modifiers.ResourceMax
	}
	e.Modifiers = mods

	hooks, err := compileHooks(d, evaluator)
	if err != nil {
		return nil, err
	}
	e.Hooks = hooks
	return e, nil
}

func compileHooks(d *EffectDef, evaluator effect.ScriptEvaluator) (effect.HookSet, error) {
	var hooks effect.HookSet
	needScript := func(script string) error {
		if evaluator == nil {
			return fmt.Errorf("content: effect %q references script %q but no evaluator is configured", d.ID, script)
		}
		return nil
	}

	for _, h := range d.Hooks.AttackRoll {
		var mode dice.RollMode
		switch h.Mode {
		case "advantage":
			mode = dice.ModeAdvantage
		case "disadvantage":
			mode = dice.ModeDisadvantage
		}
		hooks.AttackRoll = append(hooks.AttackRoll, effect.AttackBonus{
			Bonus:              h.Bonus,
			Mode:               mode,
			CritThresholdDelta: h.CritThresholdDelta,
			DamageSource:       h.DamageSource,
		})
	}
	for _, h := range d.Hooks.ArmorClass {
		if h.Script != "" {
			if err := needScript(h.Script); err != nil {
				return hooks, err
			}
			hooks.ArmorClass = append(hooks.ArmorClass, effect.ScriptArmorClass{Evaluator: evaluator, ScriptID: h.Script})
			continue
		}
		hooks.ArmorClass = append(hooks.ArmorClass, effect.ACDelta{Delta: h.Delta})
	}
	for _, h := range d.Hooks.DamageRoll {
		if err := needScript(h.Script); err != nil {
			return hooks, err
		}
		hooks.DamageRoll = append(hooks.DamageRoll, effect.ScriptDamageRoll{Evaluator: evaluator, ScriptID: h.Script})
	}
	for _, h := range d.Hooks.ResourceCost {
		if h.Script != "" {
			if err := needScript(h.Script); err != nil {
				return hooks, err
			}
			hooks.ResourceCost = append(hooks.ResourceCost, effect.ScriptResourceCost{Evaluator: evaluator, ScriptID: h.Script})
			continue
		}
		hooks.ResourceCost = append(hooks.ResourceCost, effect.CostAdjust{
			Add:    compileCost(h.Add),
			Remove: h.Remove,
		})
	}
	for _, h := range d.Hooks.Action {
		if err := needScript(h.Script); err != nil {
			return hooks, err
		}
		hooks.Action = append(hooks.Action, effect.ScriptAction{Evaluator: evaluator, ScriptID: h.Script})
	}
	return hooks, nil
}

func compileAction(d *ActionDef, reg *Registry) (*combat.Action, error) {
	a := &combat.Action{
		ID:            d.ID,
		Name:          d.Name,
		Cost:          compileCost(d.Cost),
		CooldownTurns: d.CooldownTurns,
		DamageOnMiss:  d.DamageOnMiss,
	}

	switch d.Kind {
	case "unconditional":
		a.Kind = combat.KindUnconditional
	case "attack_roll":
		a.Kind = combat.KindAttackRoll
		a.AttackAbility = stats.Ability(d.Attack.Ability)
		a.AttackBonus = d.Attack.Bonus
		a.DamageSource = d.Attack.DamageSource
	case "saving_throw":
		a.Kind = combat.KindSavingThrow
		a.SaveAbility = stats.Ability(d.Save.Ability)
		a.SaveDC = d.Save.DC
		a.HalfDamageOnSave = d.Save.HalfDamage
	}

	switch d.Targeting {
	case "self":
		a.Targeting = combat.TargetSelf
	case "single":
		a.Targeting = combat.TargetSingle
	case "any":
		a.Targeting = combat.TargetAny
	}

	if d.Damage != nil {
		roll := &damage.Roll{
			Primary: damage.Component{
				Type: damage.Type(d.Damage.Primary.Type),
				Dice: dice.MustParse(d.Damage.Primary.Dice),
			},
		}
		for _, b := range d.Damage.Bonus {
			roll.Bonus = append(roll.Bonus, damage.Component{
				Type: damage.Type(b.Type),
				Dice: dice.MustParse(b.Dice),
			})
		}
		a.Damage = roll
		a.DamageAbility = stats.Ability(d.Damage.Ability)
	}

	if d.Effect != "" {
		e, ok := reg.effects[d.Effect]
		if !ok {
			return nil, fmt.Errorf("content: action %q references unknown effect %q", d.ID, d.Effect)
		}
		a.Effect = e
	}
	if d.Healing != "" {
		expr := dice.MustParse(d.Healing)
		a.Healing = &expr
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
