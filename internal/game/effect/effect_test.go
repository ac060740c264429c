package effect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/world"
)

func newSheet(t *testing.T) *world.StatBlock {
	t.Helper()
	sb := world.NewStatBlock("test subject", 14, 20)
	pool, err := resource.NewFlatPool(2, resource.RechargeShortRest)
	require.NoError(t, err)
	sb.ResourceLedger().Add("ki", pool)
	return sb
}

func blessEffect() *effect.Effect {
	return &effect.Effect{
		ID:       "shield-of-faith",
		Duration: effect.Temporary(3),
		Modifiers: effect.Modifiers{
			Abilities:   map[stats.Ability]int{stats.Strength: 2},
			ArmorClass:  2,
			Resistances: []effect.ResistanceGrant{{Type: damage.Fire, Op: damage.OpResistance}},
			ResourceMax: map[string]int{"ki": 1},
		},
	}
}

// TestEffect_ApplyUnapplyRoundTrip verifies every simple modifier is applied
// and reversed symmetrically via the effect's source tag.
func TestEffect_ApplyUnapplyRoundTrip(t *testing.T) {
	sheet := newSheet(t)
	e := blessEffect()

	baseAC := sheet.ArmorClass()
	baseStr := sheet.Ability(stats.Strength).Total()
	pool, _ := sheet.ResourceLedger().Get("ki")
	budget, _ := pool.Budget(resource.Flat(0))
	baseKiMax := budget.Max()

	e.Apply(sheet)
	assert.Equal(t, baseAC+2, sheet.ArmorClass())
	assert.Equal(t, baseStr+2, sheet.Ability(stats.Strength).Total())
	assert.Len(t, sheet.ResistanceSet().For(damage.Fire), 1)
	assert.Equal(t, baseKiMax+1, budget.Max())

	e.Unapply(sheet)
	assert.Equal(t, baseAC, sheet.ArmorClass())
	assert.Equal(t, baseStr, sheet.Ability(stats.Strength).Total())
	assert.Empty(t, sheet.ResistanceSet().For(damage.Fire))
	assert.Equal(t, baseKiMax, budget.Max())
}

func TestActiveSet_TemporaryExpiry(t *testing.T) {
	sheet := newSheet(t)
	set := sheet.Effects()
	baseAC := sheet.ArmorClass()

	e := blessEffect()
	e.Duration = effect.Temporary(2)
	require.NoError(t, set.Apply(sheet, e))
	assert.Equal(t, baseAC+2, sheet.ArmorClass())

	assert.Empty(t, set.TickTurn(sheet), "turn 1: not yet expired")
	expired := set.TickTurn(sheet)
	assert.Equal(t, []string{"shield-of-faith"}, expired)
	assert.False(t, set.Has("shield-of-faith"))
	assert.Equal(t, baseAC, sheet.ArmorClass(), "expiry unapplies the modifiers")
}

func TestActiveSet_ReapplyRefreshesWithoutStacking(t *testing.T) {
	sheet := newSheet(t)
	set := sheet.Effects()
	baseAC := sheet.ArmorClass()

	require.NoError(t, set.Apply(sheet, blessEffect()))
	require.NoError(t, set.Apply(sheet, blessEffect()))
	assert.Equal(t, baseAC+2, sheet.ArmorClass(), "re-apply must not stack modifiers")

	set.Remove(sheet, "shield-of-faith")
	assert.Equal(t, baseAC, sheet.ArmorClass())
}

func TestActiveSet_OnApplyOnUnapplyCallbacks(t *testing.T) {
	sheet := newSheet(t)
	set := sheet.Effects()

	var calls []string
	e := &effect.Effect{
		ID:        "watcher",
		Duration:  effect.Permanent(),
		OnApply:   func(effect.Sheet) { calls = append(calls, "apply") },
		OnUnapply: func(effect.Sheet) { calls = append(calls, "unapply") },
	}
	require.NoError(t, set.Apply(sheet, e))
	set.Remove(sheet, "watcher")
	assert.Equal(t, []string{"apply", "unapply"}, calls)
}

func TestAttackBonus_DamageSourceGuard(t *testing.T) {
	sheet := newSheet(t)
	hook := effect.AttackBonus{Bonus: 2, DamageSource: "longsword"}

	check := dice.NewD20Check()
	atk := &effect.AttackRollState{Check: &check, DamageSource: "shortbow"}
	hook.ModifyAttackRoll(sheet, atk)
	assert.Equal(t, 0, check.Bonus, "guard mismatch: hook must not fire")

	atk.DamageSource = "longsword"
	hook.ModifyAttackRoll(sheet, atk)
	assert.Equal(t, 2, check.Bonus)
}

func TestAttackBonus_AdvantageAndCritThreshold(t *testing.T) {
	sheet := newSheet(t)
	hook := effect.AttackBonus{Mode: dice.ModeAdvantage, CritThresholdDelta: 1}

	check := dice.NewD20Check()
	atk := &effect.AttackRollState{Check: &check}
	hook.ModifyAttackRoll(sheet, atk)
	assert.Equal(t, dice.ModeAdvantage, check.Mode)
	assert.Equal(t, 19, check.CritThreshold)
}

func TestHookSet_MergePreservesOrder(t *testing.T) {
	sheet := newSheet(t)
	a := effect.HookSet{ArmorClass: []effect.ArmorClassHook{effect.ACDelta{Delta: 1}}}
	b := effect.HookSet{ArmorClass: []effect.ArmorClassHook{effect.ACDelta{Delta: 10}}}

	merged := a.Merge(b)
	require.Len(t, merged.ArmorClass, 2)

	ac := 0
	merged.RunArmorClass(sheet, &ac)
	assert.Equal(t, 11, ac)
}

func TestCostAdjust(t *testing.T) {
	sheet := newSheet(t)
	hook := effect.CostAdjust{
		Add:    resource.Cost{"ki": resource.Flat(1)},
		Remove: []string{"action"},
	}

	cost := resource.Cost{
		"action": resource.Flat(1),
		"ki":     resource.Flat(1),
	}
	hook.ModifyResourceCost(sheet, "flurry", cost)
	assert.NotContains(t, cost, "action")
	assert.Equal(t, resource.Flat(2), cost["ki"], "matching ids sum their uses")
}

func TestEffect_Validate(t *testing.T) {
	assert.Error(t, (&effect.Effect{}).Validate())
	assert.Error(t, (&effect.Effect{ID: "x", Duration: effect.Temporary(0)}).Validate())
	assert.NoError(t, (&effect.Effect{ID: "x", Duration: effect.Permanent()}).Validate())
}
