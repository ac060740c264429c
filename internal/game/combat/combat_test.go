package combat_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/combat"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/world"
)

// scriptedSource returns pre-scripted values (Intn results, zero-based) in
// order, cycling when exhausted.
type scriptedSource struct {
	values []int
	next   int
}

func (s *scriptedSource) Intn(n int) int {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}

type actionMap map[string]*combat.Action

func (m actionMap) Action(id string) (*combat.Action, bool) {
	a, ok := m[id]
	return a, ok
}

// slashAction is a STR melee attack: 1d8 slashing plus the ability modifier.
func slashAction() *combat.Action {
	return &combat.Action{
		ID:            "slash",
		Name:          "Slash",
		Kind:          combat.KindAttackRoll,
		Targeting:     combat.TargetSingle,
		AttackAbility: stats.Strength,
		Damage: &damage.Roll{
			Primary:         damage.Component{Type: damage.Slashing, Dice: dice.MustParse("1d8")},
			AbilityModifier: 3,
		},
	}
}

// fireballAction is a DC 13 dexterity save for 2d6 fire, half on success.
func fireballAction() *combat.Action {
	return &combat.Action{
		ID:               "fireball",
		Name:             "Fireball",
		Kind:             combat.KindSavingThrow,
		Targeting:        combat.TargetAny,
		SaveAbility:      stats.Dexterity,
		SaveDC:           13,
		HalfDamageOnSave: true,
		Damage: &damage.Roll{
			Primary: damage.Component{Type: damage.Fire, Dice: dice.MustParse("2d6")},
		},
	}
}

func newAttacker(t *testing.T) *world.StatBlock {
	t.Helper()
	sb := world.NewStatBlock("attacker", 14, 20)
	sb.Ability(stats.Strength).Base = 16 // +3
	return sb
}

func setup(t *testing.T, src dice.Source, actions actionMap, configure func(*combat.Planner)) (*combat.Engine, *world.StatBlock, *world.StatBlock) {
	t.Helper()
	store := world.NewStore()
	attacker := newAttacker(t)
	target := world.NewStatBlock("target", 12, 20)
	store.Add(attacker)
	store.Add(target)

	logger := zap.NewNop()
	roller := dice.NewRoller(src, logger)
	var planner *combat.Planner
	if configure != nil {
		planner = combat.NewPlanner(store, nil, nil, logger)
		configure(planner)
	}
	return combat.NewEngine(store, actions, roller, planner, logger), attacker, target
}

func TestPerform_AttackHit(t *testing.T) {
	// Natural 10 + 3 (STR) = 13 vs AC 12: hit. Damage die rolls 6.
	src := &scriptedSource{values: []int{9, 5}}
	engine, attacker, target := setup(t, src, actionMap{"slash": slashAction()}, nil)

	res, err := engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 1)

	out := res.Outcomes[0]
	assert.True(t, out.Hit)
	assert.False(t, out.Crit)
	assert.Equal(t, 13, out.AttackRoll.Total())
	assert.Equal(t, 12, out.AttackDC)
	require.NotNil(t, out.Damage)
	assert.Equal(t, 9, out.Damage.Total) // 6 + 3 STR
	assert.Equal(t, 9, out.DamageDealt)
	assert.Equal(t, 11, target.HP().Current)
}

func TestPerform_AttackMiss(t *testing.T) {
	// Natural 5 + 3 = 8 vs AC 12: miss, no damage event.
	src := &scriptedSource{values: []int{4}}
	engine, attacker, target := setup(t, src, actionMap{"slash": slashAction()}, nil)

	res, err := engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	require.NoError(t, err)

	out := res.Outcomes[0]
	assert.False(t, out.Hit)
	assert.Nil(t, out.Damage)
	assert.Equal(t, 20, target.HP().Current)

	for _, ev := range engine.Events() {
		assert.NotEqual(t, combat.EventDamageRoll, ev.Kind)
	}
}

func TestPerform_CritDoublesDice(t *testing.T) {
	// Natural 20: crit doubles the damage dice (2d8 rolling 6 and 3) but
	// not the ability modifier.
	src := &scriptedSource{values: []int{19, 5, 2}}
	engine, attacker, target := setup(t, src, actionMap{"slash": slashAction()}, nil)

	res, err := engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	require.NoError(t, err)

	out := res.Outcomes[0]
	assert.True(t, out.Hit)
	assert.True(t, out.Crit)
	assert.Equal(t, 12, out.Damage.Total) // 6 + 3 + 3 STR
}

func TestPerform_NaturalOneAlwaysMisses(t *testing.T) {
	a := slashAction()
	a.AttackBonus = 20 // total 24 vs AC 12, but the die shows 1
	src := &scriptedSource{values: []int{0}}
	engine, attacker, target := setup(t, src, actionMap{"slash": a}, nil)

	res, err := engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	require.NoError(t, err)
	assert.False(t, res.Outcomes[0].Hit)
	assert.Equal(t, 20, target.HP().Current)
}

func TestPerform_NaturalTwentyAlwaysHits(t *testing.T) {
	a := slashAction()
	src := &scriptedSource{values: []int{19, 5, 2}}
	engine, attacker, target := setup(t, src, actionMap{"slash": a}, nil)
	target.ArmorClassValue().Base = 30

	res, err := engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	require.NoError(t, err)
	assert.True(t, res.Outcomes[0].Hit)
}

func TestPerform_SaveSuccessHalvesDamage(t *testing.T) {
	// 2d6 rolls 4+5 = 9 before the save; natural 15 vs DC 13 halves it to 4.
	src := &scriptedSource{values: []int{3, 4, 14}}
	engine, attacker, target := setup(t, src, actionMap{"fireball": fireballAction()}, nil)

	res, err := engine.Perform(attacker.EntityID(), "fireball", target.EntityID())
	require.NoError(t, err)

	out := res.Outcomes[0]
	assert.True(t, out.Saved)
	assert.Equal(t, 13, out.SaveDC)
	assert.Equal(t, 9, out.DamageRolled.Total)
	assert.Equal(t, 4, out.Damage.Total)
	assert.Equal(t, 16, target.HP().Current)
}

func TestPerform_SaveSuccessWithoutHalvingDealsFullDamage(t *testing.T) {
	a := fireballAction()
	a.HalfDamageOnSave = false

	// 2d6 rolls 4+5 = 9; natural 15 vs DC 13 saves, but the damage still
	// lands in full because the action grants no half on save.
	src := &scriptedSource{values: []int{3, 4, 14}}
	engine, attacker, target := setup(t, src, actionMap{"fireball": a}, nil)

	res, err := engine.Perform(attacker.EntityID(), "fireball", target.EntityID())
	require.NoError(t, err)

	out := res.Outcomes[0]
	assert.True(t, out.Saved)
	require.NotNil(t, out.DamageRolled)
	assert.Equal(t, 9, out.DamageRolled.Total)
	assert.Equal(t, 9, out.Damage.Total)
	assert.Equal(t, 9, out.DamageDealt)
	assert.Equal(t, 11, target.HP().Current)
}

func TestPerform_SaveEventsDamageRollsFirst(t *testing.T) {
	// The damage roll is committed (and offered to reactors) before the
	// target ever rolls its save.
	src := &scriptedSource{values: []int{3, 4, 14}}
	engine, attacker, target := setup(t, src, actionMap{"fireball": fireballAction()}, nil)

	_, err := engine.Perform(attacker.EntityID(), "fireball", target.EntityID())
	require.NoError(t, err)

	events := engine.Events()
	kinds := make([]combat.EventKind, 0, len(events))
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []combat.EventKind{
		combat.EventDamageRoll,
		combat.EventD20Check,
		combat.EventActionPerformed,
	}, kinds)

	// The save event carries the incoming damage for reactors to inspect.
	save := events[1]
	require.NotNil(t, save.Damage)
	assert.Equal(t, 9, save.Damage.Result.Total)
	assert.Equal(t, combat.CheckSavingThrow, save.D20.CheckKind)
}

func TestPerform_SaveFailureAppliesEffectAndFullDamage(t *testing.T) {
	a := fireballAction()
	a.Effect = &effect.Effect{ID: "burning", Duration: effect.Temporary(2)}

	// 2d6 rolls 4+5 = 9; natural 3 vs DC 13 fails, damage taken in full.
	src := &scriptedSource{values: []int{3, 4, 2}}
	engine, attacker, target := setup(t, src, actionMap{"fireball": a}, nil)

	res, err := engine.Perform(attacker.EntityID(), "fireball", target.EntityID())
	require.NoError(t, err)

	out := res.Outcomes[0]
	assert.False(t, out.Saved)
	assert.Equal(t, 9, out.Damage.Total)
	assert.Equal(t, "burning", out.EffectApplied)
	assert.True(t, target.Effects().Has("burning"))
}

func TestPerform_SaveEffectNotSharedBetweenTargets(t *testing.T) {
	a := fireballAction()
	a.Effect = &effect.Effect{ID: "burning", Duration: effect.Temporary(2)}

	src := &scriptedSource{values: []int{3, 4, 2}}
	engine, attacker, target := setup(t, src, actionMap{"fireball": a}, nil)

	_, err := engine.Perform(attacker.EntityID(), "fireball", target.EntityID())
	require.NoError(t, err)

	applied, ok := target.Effects().Get("burning")
	require.True(t, ok)
	assert.NotSame(t, a.Effect, applied)
}

func TestPerform_ResistanceAndImmunity(t *testing.T) {
	src := &scriptedSource{values: []int{9, 5}}
	engine, attacker, target := setup(t, src, actionMap{"slash": slashAction()}, nil)
	target.ResistanceSet().Add(damage.Slashing, damage.Mitigation{Source: "hide", Op: damage.OpResistance})

	res, err := engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	require.NoError(t, err)
	assert.Equal(t, 4, res.Outcomes[0].Damage.Total) // (6+3)/2
}

func TestPerform_SpendsCostAndStartsCooldown(t *testing.T) {
	a := slashAction()
	a.Cost = resource.Cost{"action_point": resource.Flat(1)}
	a.CooldownTurns = 2

	pool, err := resource.NewFlatPool(1, resource.RechargeTurn)
	require.NoError(t, err)

	src := &scriptedSource{values: []int{9, 5}}
	engine, attacker, target := setup(t, src, actionMap{"slash": a}, nil)
	attacker.ResourceLedger().Add("action_point", pool)

	_, err = engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	require.NoError(t, err)
	assert.True(t, attacker.CooldownMap().OnCooldown("slash"))

	_, err = engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	var cdErr *combat.OnCooldownError
	require.ErrorAs(t, err, &cdErr)
	assert.Equal(t, 2, cdErr.Remaining)
}

func TestPerform_InsufficientResources(t *testing.T) {
	a := slashAction()
	a.Cost = resource.Cost{"action_point": resource.Flat(1)}

	src := &scriptedSource{values: []int{9, 5}}
	engine, attacker, target := setup(t, src, actionMap{"slash": a}, nil)
	// No action_point pool registered at all.

	_, err := engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	var resErr *combat.NotEnoughResourcesError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "action_point", resErr.ResourceID)
}

func TestPerform_NegativeCostRejected(t *testing.T) {
	a := slashAction()
	a.Cost = resource.Cost{"action_point": resource.Flat(-1)}

	pool, err := resource.NewFlatPool(1, resource.RechargeTurn)
	require.NoError(t, err)

	src := &scriptedSource{values: []int{9, 5}}
	engine, attacker, target := setup(t, src, actionMap{"slash": a}, nil)
	attacker.ResourceLedger().Add("action_point", pool)

	_, err = engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	var resErr *combat.NotEnoughResourcesError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "action_point", resErr.ResourceID)

	// The pool must not have been credited by the failed attempt.
	b, err := pool.Budget(resource.Flat(0))
	require.NoError(t, err)
	assert.Equal(t, 1, b.Current())
	assert.Equal(t, 1, b.Max())
}

func TestPerform_Healing(t *testing.T) {
	heal := dice.MustParse("1d4+2")
	a := &combat.Action{
		ID:        "second_wind",
		Name:      "Second Wind",
		Kind:      combat.KindUnconditional,
		Targeting: combat.TargetSelf,
		Healing:   &heal,
	}

	src := &scriptedSource{values: []int{2}} // d4 rolls 3
	engine, attacker, _ := setup(t, src, actionMap{"second_wind": a}, nil)
	attacker.HP().Damage(10)

	res, err := engine.Perform(attacker.EntityID(), "second_wind")
	require.NoError(t, err)
	assert.Equal(t, 5, res.Outcomes[0].Healing) // 3 + 2
	assert.Equal(t, 15, attacker.HP().Current)
}

func TestPerform_UnknownAction(t *testing.T) {
	src := &scriptedSource{values: []int{0}}
	engine, attacker, target := setup(t, src, actionMap{}, nil)

	_, err := engine.Perform(attacker.EntityID(), "nope", target.EntityID())
	require.Error(t, err)
}

func TestStartTurn_TicksEffectsCooldownsAndRecharge(t *testing.T) {
	src := &scriptedSource{values: []int{0}}
	engine, attacker, _ := setup(t, src, actionMap{}, nil)

	require.NoError(t, attacker.Effects().Apply(attacker, &effect.Effect{
		ID:       "blessed",
		Duration: effect.Temporary(1),
		Modifiers: effect.Modifiers{
			SavingThrows: map[stats.Ability]int{stats.Wisdom: 2},
		},
	}))
	assert.Equal(t, 2, attacker.SavingThrowBonus(stats.Wisdom))

	attacker.CooldownMap().Start("slash", 1)
	pool, err := resource.NewFlatPool(2, resource.RechargeTurn)
	require.NoError(t, err)
	attacker.ResourceLedger().Add("action_point", pool)
	require.NoError(t, attacker.ResourceLedger().SpendAll(resource.Cost{"action_point": resource.Flat(2)}))

	require.NoError(t, engine.StartTurn(attacker.EntityID()))

	assert.False(t, attacker.Effects().Has("blessed"))
	assert.Equal(t, 0, attacker.SavingThrowBonus(stats.Wisdom))
	assert.False(t, attacker.CooldownMap().OnCooldown("slash"))
	assert.NoError(t, attacker.ResourceLedger().CanAfford("action_point", resource.Flat(2)))
}

func TestRest_LongRestHealsAndRecharges(t *testing.T) {
	src := &scriptedSource{values: []int{0}}
	engine, attacker, _ := setup(t, src, actionMap{}, nil)

	pool, err := resource.NewFlatPool(3, resource.RechargeLongRest)
	require.NoError(t, err)
	attacker.ResourceLedger().Add("spell_slot", pool)
	require.NoError(t, attacker.ResourceLedger().SpendAll(resource.Cost{"spell_slot": resource.Flat(3)}))
	attacker.HP().Damage(15)

	require.NoError(t, engine.Rest(attacker.EntityID(), resource.RechargeShortRest))
	assert.Error(t, attacker.ResourceLedger().CanAfford("spell_slot", resource.Flat(1)))
	assert.Equal(t, 5, attacker.HP().Current)

	require.NoError(t, engine.Rest(attacker.EntityID(), resource.RechargeLongRest))
	assert.NoError(t, attacker.ResourceLedger().CanAfford("spell_slot", resource.Flat(3)))
	assert.Equal(t, 20, attacker.HP().Current)
}

func TestEvents_OrderedPerResolution(t *testing.T) {
	src := &scriptedSource{values: []int{9, 5}}
	engine, attacker, target := setup(t, src, actionMap{"slash": slashAction()}, nil)

	_, err := engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	require.NoError(t, err)

	kinds := make([]combat.EventKind, 0, 3)
	for _, ev := range engine.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []combat.EventKind{
		combat.EventD20Check,
		combat.EventDamageRoll,
		combat.EventActionPerformed,
	}, kinds)
}
