package effect

import (
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
)

// AttackRollState is the mutable in-flight attack roll hooks may modify
// before the dice are rolled.
type AttackRollState struct {
	Check *dice.D20Check
	// DamageSource identifies what delivers the attack (a weapon or spell
	// id); hooks with a source guard only fire when it matches.
	DamageSource string
}

// AttackRollHook runs before an attack roll owned by the effect's carrier.
type AttackRollHook interface {
	ModifyAttackRoll(owner Sheet, atk *AttackRollState)
}

// ArmorClassHook runs when the carrier's armor class is read during an
// attack against them.
type ArmorClassHook interface {
	ModifyArmorClass(owner Sheet, armorClass *int)
}

// DamageRollHook runs after the carrier rolls damage; it may rewrite the
// result wholesale.
type DamageRollHook interface {
	ModifyDamageRoll(owner Sheet, result *damage.RollResult)
}

// ResourceCostHook runs before an action's resource cost is checked for
// affordability; it may add, remove, or alter entries.
type ResourceCostHook interface {
	ModifyResourceCost(owner Sheet, actionID string, cost resource.Cost)
}

// ActionHook is the catch-all for side effects of performing an action that
// are not expressible as a simple modifier.
type ActionHook interface {
	OnAction(owner Sheet, actionID string, cost resource.Cost)
}

// HookSet binds zero or more hooks to each of the five named slots. Hooks in
// one slot run in declaration order; combining sets concatenates slot by
// slot, preserving order.
type HookSet struct {
	AttackRoll   []AttackRollHook
	ArmorClass   []ArmorClassHook
	DamageRoll   []DamageRollHook
	ResourceCost []ResourceCostHook
	Action       []ActionHook
}

// Merge returns the combination of h followed by other.
func (h HookSet) Merge(other HookSet) HookSet {
	return HookSet{
		AttackRoll:   append(append([]AttackRollHook{}, h.AttackRoll...), other.AttackRoll...),
		ArmorClass:   append(append([]ArmorClassHook{}, h.ArmorClass...), other.ArmorClass...),
		DamageRoll:   append(append([]DamageRollHook{}, h.DamageRoll...), other.DamageRoll...),
		ResourceCost: append(append([]ResourceCostHook{}, h.ResourceCost...), other.ResourceCost...),
		Action:       append(append([]ActionHook{}, h.Action...), other.Action...),
	}
}

// RunAttackRoll invokes every attack-roll hook in order.
func (h HookSet) RunAttackRoll(owner Sheet, atk *AttackRollState) {
	for _, hook := range h.AttackRoll {
		hook.ModifyAttackRoll(owner, atk)
	}
}

// RunArmorClass invokes every armor-class hook in order.
func (h HookSet) RunArmorClass(owner Sheet, armorClass *int) {
	for _, hook := range h.ArmorClass {
		hook.ModifyArmorClass(owner, armorClass)
	}
}

// RunDamageRoll invokes every damage-roll hook in order.
func (h HookSet) RunDamageRoll(owner Sheet, result *damage.RollResult) {
	for _, hook := range h.DamageRoll {
		hook.ModifyDamageRoll(owner, result)
	}
}

// RunResourceCost invokes every resource-cost hook in order.
func (h HookSet) RunResourceCost(owner Sheet, actionID string, cost resource.Cost) {
	for _, hook := range h.ResourceCost {
		hook.ModifyResourceCost(owner, actionID, cost)
	}
}

// RunAction invokes every action hook in order.
func (h HookSet) RunAction(owner Sheet, actionID string, cost resource.Cost) {
	for _, hook := range h.Action {
		hook.OnAction(owner, actionID, cost)
	}
}

// AttackBonus is the modifier-based attack-roll hook: a flat bonus, an
// advantage grant, and a crit-threshold reduction, optionally guarded by a
// damage source match.
type AttackBonus struct {
	Bonus              int
	Mode               dice.RollMode
	CritThresholdDelta int
	DamageSource       string // empty = applies to every attack
}

func (b AttackBonus) ModifyAttackRoll(_ Sheet, atk *AttackRollState) {
	if b.DamageSource != "" && b.DamageSource != atk.DamageSource {
		return
	}
	atk.Check.AddBonus(b.Bonus)
	atk.Check.AddMode(b.Mode)
	if b.CritThresholdDelta > 0 {
		atk.Check.LowerCritThreshold(b.CritThresholdDelta)
	}
}

// ACDelta is the modifier-based armor-class hook: a signed delta.
type ACDelta struct {
	Delta int
}

func (d ACDelta) ModifyArmorClass(_ Sheet, armorClass *int) {
	*armorClass += d.Delta
}

// CostAdjust is the modifier-based resource-cost hook: entries in Add are
// merged into the cost (summing uses on matching ids and tiers), ids in
// Remove are dropped.
type CostAdjust struct {
	Add    resource.Cost
	Remove []string
}

func (c CostAdjust) ModifyResourceCost(_ Sheet, _ string, cost resource.Cost) {
	for id, amount := range c.Add {
		if existing, ok := cost[id]; ok && existing.Tier == amount.Tier {
			existing.Uses += amount.Uses
			cost[id] = existing
			continue
		}
		cost[id] = amount
	}
	for _, id := range c.Remove {
		delete(cost, id)
	}
}

// ScriptEvaluator is the external script capability the script-backed hook
// variants call through. Implementations must treat script failures as
// neutral no-ops.
type ScriptEvaluator interface {
	EvaluateArmorClassHook(scriptID string, view View) int
	EvaluateDamageRollHook(scriptID string, view View, result *damage.RollResult)
	EvaluateResourceCostHook(scriptID string, view View, actionID string, cost resource.Cost)
	EvaluateActionHook(scriptID string, view View, actionID string)
}

// viewOf adapts a Sheet into the read-only View scripts receive.
func viewOf(sheet Sheet) View {
	if v, ok := sheet.(View); ok {
		return v
	}
	return sheetView{sheet}
}

type sheetView struct{ s Sheet }

func (v sheetView) EntityID() string { return v.s.EntityID() }

func (v sheetView) AbilityModifier(a stats.Ability) int {
	return stats.Modifier(v.s.Ability(a).Total())
}

func (v sheetView) ArmorClass() int { return v.s.ArmorClassValue().Total() }

// ScriptArmorClass is the script-backed armor-class hook.
type ScriptArmorClass struct {
	Evaluator ScriptEvaluator
	ScriptID  string
}

func (s ScriptArmorClass) ModifyArmorClass(owner Sheet, armorClass *int) {
	*armorClass += s.Evaluator.EvaluateArmorClassHook(s.ScriptID, viewOf(owner))
}

// ScriptDamageRoll is the script-backed damage recalculation hook.
type ScriptDamageRoll struct {
	Evaluator ScriptEvaluator
	ScriptID  string
}

func (s ScriptDamageRoll) ModifyDamageRoll(owner Sheet, result *damage.RollResult) {
	s.Evaluator.EvaluateDamageRollHook(s.ScriptID, viewOf(owner), result)
}

// ScriptResourceCost is the script-backed resource-cost hook.
type ScriptResourceCost struct {
	Evaluator ScriptEvaluator
	ScriptID  string
}

func (s ScriptResourceCost) ModifyResourceCost(owner Sheet, actionID string, cost resource.Cost) {
	s.Evaluator.EvaluateResourceCostHook(s.ScriptID, viewOf(owner), actionID, cost)
}

// ScriptAction is the script-backed catch-all action hook.
type ScriptAction struct {
	Evaluator ScriptEvaluator
	ScriptID  string
}

func (s ScriptAction) OnAction(owner Sheet, actionID string, _ resource.Cost) {
	s.Evaluator.EvaluateActionHook(s.ScriptID, viewOf(owner), actionID)
}
