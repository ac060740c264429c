package content_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/combat"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/content"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/world"
)

const sampleContent = `
resources:
  - id: action_point
    max_uses: 1
    recharge: turn
  - id: spell_slot
    recharge: long_rest
    tiers:
      1: 4
      2: 3

effects:
  - id: blessed
    description: Favored by fortune.
    duration:
      kind: temporary
      turns: 3
    modifiers:
      saving_throws:
        wisdom: 2
    hooks:
      attack_roll:
        - bonus: 2
  - id: stoneskin
    duration:
      kind: permanent
    modifiers:
      resistances:
        - type: slashing
          op: resistance

actions:
  - id: slash
    name: Slash
    kind: attack_roll
    targeting: single
    cost:
      action_point:
        uses: 1
    attack:
      ability: strength
    damage:
      primary:
        type: slashing
        dice: 1d8
      ability: strength
  - id: bless
    name: Bless
    kind: unconditional
    targeting: any
    effect: blessed

reactions:
  - id: shield
    name: Shield
    cost:
      reaction:
        uses: 1
    trigger_script: on_incoming_attack
    plan_script: shield_plan
`

func writeContentDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestLoadDirectoryAndCompile(t *testing.T) {
	dir := writeContentDir(t, map[string]string{"core.yaml": sampleContent})

	docs, err := content.LoadDirectory(dir)
	require.NoError(t, err)

	reg, err := content.Compile(docs, nil)
	require.NoError(t, err)

	slash, ok := reg.Action("slash")
	require.True(t, ok)
	assert.Equal(t, combat.KindAttackRoll, slash.Kind)
	assert.Equal(t, stats.Strength, slash.AttackAbility)
	assert.Equal(t, stats.Strength, slash.DamageAbility)
	assert.Equal(t, resource.Cost{"action_point": resource.Flat(1)}, slash.Cost)

	bless, ok := reg.Action("bless")
	require.True(t, ok)
	require.NotNil(t, bless.Effect)
	assert.Equal(t, "blessed", bless.Effect.ID)
	assert.Len(t, bless.Effect.Hooks.AttackRoll, 1)

	_, ok = reg.Effect("stoneskin")
	assert.True(t, ok)

	shield, ok := reg.Reaction("shield")
	require.True(t, ok)
	assert.Equal(t, "on_incoming_attack", shield.TriggerScript)

	assert.Equal(t, []string{"bless", "slash"}, reg.ActionIDs())
}

func TestRegistry_NewLedger(t *testing.T) {
	docs, err := content.LoadDirectory(writeContentDir(t, map[string]string{"core.yaml": sampleContent}))
	require.NoError(t, err)
	reg, err := content.Compile(docs, nil)
	require.NoError(t, err)

	ledger := reg.NewLedger()
	assert.NoError(t, ledger.CanAfford("action_point", resource.Flat(1)))
	assert.NoError(t, ledger.CanAfford("spell_slot", resource.Tiered(2, 3)))
	assert.Error(t, ledger.CanAfford("spell_slot", resource.Tiered(2, 4)))

	// Ledgers are independent per call.
	require.NoError(t, ledger.SpendAll(resource.Cost{"action_point": resource.Flat(1)}))
	assert.NoError(t, reg.NewLedger().CanAfford("action_point", resource.Flat(1)))
}

func TestLoadDirectory_UnknownFieldRejected(t *testing.T) {
	dir := writeContentDir(t, map[string]string{"bad.yaml": `
actions:
  - id: slash
    name: Slash
    kind: attack_roll
    targeting: single
    attack:
      ability: strength
    sneaky_extra_field: true
`})
	_, err := content.LoadDirectory(dir)
	require.Error(t, err)
}

func TestLoadDirectory_BadDiceExpression(t *testing.T) {
	dir := writeContentDir(t, map[string]string{"bad.yaml": `
actions:
  - id: slash
    name: Slash
    kind: attack_roll
    targeting: single
    attack:
      ability: strength
    damage:
      primary:
        type: slashing
        dice: 1dwat
`})
	_, err := content.LoadDirectory(dir)
	require.Error(t, err)
}

func TestLoadDirectory_SaveNeedsDC(t *testing.T) {
	dir := writeContentDir(t, map[string]string{"bad.yaml": `
actions:
  - id: hold
    name: Hold Person
    kind: saving_throw
    targeting: single
    save:
      ability: wisdom
`})
	_, err := content.LoadDirectory(dir)
	require.Error(t, err)
}

func TestLoadDirectory_NonPositiveCostRejected(t *testing.T) {
	dir := writeContentDir(t, map[string]string{"bad.yaml": `
actions:
  - id: slash
    name: Slash
    kind: attack_roll
    targeting: single
    cost:
      action_point:
        uses: -1
    attack:
      ability: strength
`})
	_, err := content.LoadDirectory(dir)
	require.ErrorContains(t, err, "uses must be >= 1")
}

func TestLoadDirectory_ReactionCostNeedsPositiveUses(t *testing.T) {
	dir := writeContentDir(t, map[string]string{"bad.yaml": `
reactions:
  - id: shield
    name: Shield
    cost:
      reaction:
        uses: 0
    trigger_script: shield_trigger
    plan_script: shield_plan
`})
	_, err := content.LoadDirectory(dir)
	require.ErrorContains(t, err, "uses must be >= 1")
}

func TestCompile_DanglingEffectReference(t *testing.T) {
	dir := writeContentDir(t, map[string]string{"bad.yaml": `
actions:
  - id: bless
    name: Bless
    kind: unconditional
    targeting: any
    effect: no_such_effect
`})
	docs, err := content.LoadDirectory(dir)
	require.NoError(t, err)
	_, err = content.Compile(docs, nil)
	require.ErrorContains(t, err, "no_such_effect")
}

func TestCompile_DuplicateActionID(t *testing.T) {
	dir := writeContentDir(t, map[string]string{
		"a.yaml": `
actions:
  - id: slash
    name: Slash
    kind: attack_roll
    targeting: single
    attack:
      ability: strength
`,
		"b.yaml": `
actions:
  - id: slash
    name: Slash Again
    kind: attack_roll
    targeting: single
    attack:
      ability: strength
`,
	})
	docs, err := content.LoadDirectory(dir)
	require.NoError(t, err)
	_, err = content.Compile(docs, nil)
	require.ErrorContains(t, err, "duplicate action")
}

func TestCompile_ScriptHookWithoutEvaluator(t *testing.T) {
	dir := writeContentDir(t, map[string]string{"scripted.yaml": `
effects:
  - id: arcane_ward
    duration:
      kind: permanent
    hooks:
      armor_class:
        - script: ward_bonus
`})
	docs, err := content.LoadDirectory(dir)
	require.NoError(t, err)
	_, err = content.Compile(docs, nil)
	require.ErrorContains(t, err, "ward_bonus")
}

// Compiled content drives an actual resolution end to end.
func TestCompiledActionResolves(t *testing.T) {
	docs, err := content.LoadDirectory(writeContentDir(t, map[string]string{"core.yaml": sampleContent}))
	require.NoError(t, err)
	reg, err := content.Compile(docs, nil)
	require.NoError(t, err)

	store := world.NewStore()
	attacker := world.NewStatBlock("attacker", 14, 20)
	attacker.Ability(stats.Strength).Base = 16
	attacker.ResourceLedger().Add("action_point", mustFlatPool(t, 1, resource.RechargeTurn))
	target := world.NewStatBlock("target", 12, 20)
	store.Add(attacker)
	store.Add(target)

	logger := zap.NewNop()
	// Natural 10 + 3 hits AC 12; 1d8 rolls 6, +3 strength at roll time.
	roller := dice.NewRoller(&seqSource{values: []int{9, 5}}, logger)
	engine := combat.NewEngine(store, reg, roller, nil, logger)

	res, err := engine.Perform(attacker.EntityID(), "slash", target.EntityID())
	require.NoError(t, err)
	assert.True(t, res.Outcomes[0].Hit)
	assert.Equal(t, 9, res.Outcomes[0].Damage.Total)
	assert.Equal(t, 11, target.HP().Current)
}

func mustFlatPool(t *testing.T, max int, recharge resource.Recharge) *resource.Pool {
	t.Helper()
	pool, err := resource.NewFlatPool(max, recharge)
	require.NoError(t, err)
	return pool
}

type seqSource struct {
	values []int
	next   int
}

func (s *seqSource) Intn(n int) int {
	v := s.values[s.next%len(s.values)]
	s.next++
	return v % n
}
