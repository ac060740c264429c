package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/combat"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
)

// viewTable snapshots a read-only entity view for Lua:
//
//	{ id = "...", armor_class = 15, modifiers = { strength = 3, ... } }
func viewTable(L *lua.LState, view effect.View) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("id", lua.LString(view.EntityID()))
	tbl.RawSetString("armor_class", lua.LNumber(view.ArmorClass()))

	mods := L.NewTable()
	for _, a := range stats.Abilities {
		mods.RawSetString(string(a), lua.LNumber(view.AbilityModifier(a)))
	}
	tbl.RawSetString("modifiers", mods)
	return tbl
}

// damageTable snapshots a rolled damage result:
//
//	{ total = 9, components = { {type="slashing", subtotal=9}, ... } }
func damageTable(L *lua.LState, result *damage.RollResult) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("total", lua.LNumber(result.Total))

	comps := L.NewTable()
	for _, c := range result.Components {
		comp := L.NewTable()
		comp.RawSetString("type", lua.LString(string(c.Type)))
		comp.RawSetString("subtotal", lua.LNumber(c.Subtotal))
		comps.Append(comp)
	}
	tbl.RawSetString("components", comps)
	return tbl
}

// applyDamageTable rewrites result's component subtotals from a returned
// array of {type=..., subtotal=...} entries, positionally, clamping at zero,
// then recomputes the total. Extra or missing entries are ignored.
func applyDamageTable(tbl *lua.LTable, result *damage.RollResult) {
	for i := range result.Components {
		entry, ok := tbl.RawGetInt(i + 1).(*lua.LTable)
		if !ok {
			continue
		}
		n, ok := entry.RawGetString("subtotal").(lua.LNumber)
		if !ok {
			continue
		}
		sub := int(n)
		if sub < 0 {
			sub = 0
		}
		result.Components[i].Subtotal = sub
		if t, ok := entry.RawGetString("type").(lua.LString); ok {
			result.Components[i].Type = damage.Type(t)
		}
	}
	result.Total = 0
	for _, c := range result.Components {
		result.Total += c.Subtotal
	}
}

// costTable snapshots a resource cost map:
//
//	{ spell_slot = { tier = 2, uses = 1 }, ... }
func costTable(L *lua.LState, cost resource.Cost) *lua.LTable {
	tbl := L.NewTable()
	for id, amount := range cost {
		entry := L.NewTable()
		entry.RawSetString("tier", lua.LNumber(amount.Tier))
		entry.RawSetString("uses", lua.LNumber(amount.Uses))
		tbl.RawSetString(id, entry)
	}
	return tbl
}

// applyCostTable replaces cost's entries with the returned table's. A table
// carrying a negative tier or uses is rejected wholesale and cost is left
// untouched.
func applyCostTable(tbl *lua.LTable, cost resource.Cost) error {
	replacement, err := costFromTable(tbl)
	if err != nil {
		return err
	}
	for id := range cost {
		delete(cost, id)
	}
	for id, amount := range replacement {
		cost[id] = amount
	}
	return nil
}

// costFromTable converts a {resource_id = {tier=..., uses=...}} table into
// a Cost, rejecting negative tiers and uses.
func costFromTable(tbl *lua.LTable) (resource.Cost, error) {
	cost := resource.Cost{}
	var convErr error
	tbl.ForEach(func(key, value lua.LValue) {
		if convErr != nil {
			return
		}
		id, ok := key.(lua.LString)
		if !ok {
			return
		}
		entry, ok := value.(*lua.LTable)
		if !ok {
			return
		}
		amount := resource.Amount{}
		if n, ok := entry.RawGetString("tier").(lua.LNumber); ok {
			amount.Tier = int(n)
		}
		if n, ok := entry.RawGetString("uses").(lua.LNumber); ok {
			amount.Uses = int(n)
		}
		if amount.Tier < 0 || amount.Uses < 0 {
			convErr = fmt.Errorf("scripting: cost entry %q: tier and uses must be non-negative, got tier=%d uses=%d",
				string(id), amount.Tier, amount.Uses)
			return
		}
		cost[string(id)] = amount
	})
	if convErr != nil {
		return nil, convErr
	}
	return cost, nil
}

// eventTable snapshots an in-flight event for trigger and plan scripts:
//
//	{
//	  kind = "d20_check", actor = "...", target = "...", action = "slash",
//	  d20 = { check_kind="attack", dc=12, total=15, natural=12,
//	          crit=false, fumble=false, ability="" },
//	  damage = { total = 9, is_crit = false, components = {...} },
//	}
func eventTable(L *lua.LState, ev *combat.Event) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("kind", lua.LString(ev.Kind.String()))
	tbl.RawSetString("actor", lua.LString(ev.Actor))
	tbl.RawSetString("target", lua.LString(ev.Target))
	tbl.RawSetString("action", lua.LString(ev.ActionID))

	if ev.D20 != nil && ev.D20.Result != nil {
		d20 := L.NewTable()
		d20.RawSetString("check_kind", lua.LString(ev.D20.CheckKind.String()))
		d20.RawSetString("ability", lua.LString(string(ev.D20.Ability)))
		d20.RawSetString("dc", lua.LNumber(ev.D20.DC))
		d20.RawSetString("total", lua.LNumber(ev.D20.Result.Total()))
		d20.RawSetString("natural", lua.LNumber(ev.D20.Result.Kept))
		d20.RawSetString("crit", lua.LBool(ev.D20.Result.IsCrit()))
		d20.RawSetString("fumble", lua.LBool(ev.D20.Result.IsFumble()))
		tbl.RawSetString("d20", d20)
	}
	if ev.Damage != nil && ev.Damage.Result != nil {
		dmg := damageTable(L, ev.Damage.Result)
		dmg.RawSetString("is_crit", lua.LBool(ev.Damage.IsCrit))
		tbl.RawSetString("damage", dmg)
	}
	return tbl
}

// parsePlan converts a plan table returned by a reaction script into a
// ReactionPlan. The "kind" field selects the plan; remaining fields are
// kind-specific.
func parsePlan(tbl *lua.LTable) (combat.ReactionPlan, error) {
	kind, ok := tbl.RawGetString("kind").(lua.LString)
	if !ok {
		return nil, fmt.Errorf("scripting: plan table missing string field %q", "kind")
	}

	switch string(kind) {
	case "sequence":
		plans, ok := tbl.RawGetString("plans").(*lua.LTable)
		if !ok {
			return nil, fmt.Errorf("scripting: sequence plan missing %q table", "plans")
		}
		var seq combat.PlanSequence
		var parseErr error
		plans.ForEach(func(_, value lua.LValue) {
			if parseErr != nil {
				return
			}
			sub, ok := value.(*lua.LTable)
			if !ok {
				parseErr = fmt.Errorf("scripting: sequence entry is not a table")
				return
			}
			plan, err := parsePlan(sub)
			if err != nil {
				parseErr = err
				return
			}
			seq = append(seq, plan)
		})
		if parseErr != nil {
			return nil, parseErr
		}
		return seq, nil

	case "modify_d20_result":
		return combat.PlanModifyD20Result{Bonus: intField(tbl, "bonus")}, nil

	case "modify_d20_dc":
		return combat.PlanModifyD20DC{Delta: intField(tbl, "delta")}, nil

	case "reroll_d20_result":
		return combat.PlanRerollD20Result{
			Bonus:       intField(tbl, "bonus"),
			ForceUseNew: boolField(tbl, "force_use_new"),
		}, nil

	case "cancel_event":
		plan := combat.PlanCancelEvent{}
		if sub, ok := tbl.RawGetString("refund").(*lua.LTable); ok {
			refund, err := costFromTable(sub)
			if err != nil {
				return nil, err
			}
			plan.Refund = refund
		}
		return plan, nil

	case "require_saving_throw":
		plan := combat.PlanRequireSavingThrow{
			DC: intField(tbl, "dc"),
		}
		if s, ok := tbl.RawGetString("target").(lua.LString); ok {
			plan.Target = string(s)
		}
		if s, ok := tbl.RawGetString("ability").(lua.LString); ok {
			plan.Ability = stats.Ability(s)
		}
		if sub, ok := tbl.RawGetString("on_success").(*lua.LTable); ok {
			branch, err := parsePlan(sub)
			if err != nil {
				return nil, err
			}
			plan.OnSuccess = branch
		}
		if sub, ok := tbl.RawGetString("on_failure").(*lua.LTable); ok {
			branch, err := parsePlan(sub)
			if err != nil {
				return nil, err
			}
			plan.OnFailure = branch
		}
		return plan, nil

	default:
		return nil, fmt.Errorf("scripting: unknown plan kind %q", string(kind))
	}
}

func intField(tbl *lua.LTable, field string) int {
	if n, ok := tbl.RawGetString(field).(lua.LNumber); ok {
		return int(n)
	}
	return 0
}

func boolField(tbl *lua.LTable, field string) bool {
	if b, ok := tbl.RawGetString(field).(lua.LBool); ok {
		return bool(b)
	}
	return false
}
