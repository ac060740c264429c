package world_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/world"
)

func TestHitPoints_DamageAndHeal(t *testing.T) {
	hp := world.NewHitPoints(20)

	assert.Equal(t, 7, hp.Damage(7))
	assert.Equal(t, 13, hp.Current)

	assert.Equal(t, 5, hp.Heal(5))
	assert.Equal(t, 18, hp.Current)

	// Overheal clamps to max.
	assert.Equal(t, 2, hp.Heal(10))
	assert.Equal(t, 20, hp.Current)
	assert.Equal(t, 0, hp.Heal(3))
}

func TestHitPoints_TemporaryAbsorbsFirst(t *testing.T) {
	hp := world.NewHitPoints(20)
	hp.AddTemporary(5)

	assert.Equal(t, 3, hp.Damage(3))
	assert.Equal(t, 2, hp.Temporary)
	assert.Equal(t, 20, hp.Current)

	assert.Equal(t, 6, hp.Damage(6))
	assert.Equal(t, 0, hp.Temporary)
	assert.Equal(t, 16, hp.Current)
}

func TestHitPoints_TemporaryDoesNotStack(t *testing.T) {
	hp := world.NewHitPoints(20)
	hp.AddTemporary(5)
	hp.AddTemporary(3)
	assert.Equal(t, 5, hp.Temporary)
	hp.AddTemporary(8)
	assert.Equal(t, 8, hp.Temporary)
}

func TestHitPoints_DeathAtZero(t *testing.T) {
	hp := world.NewHitPoints(10)
	hp.Damage(25)
	assert.Equal(t, 0, hp.Current)
	assert.True(t, hp.IsDead())
}

func TestCooldowns_TickAndExpiry(t *testing.T) {
	cd := world.NewCooldowns()
	cd.Start("fireball", 2)

	require.True(t, cd.OnCooldown("fireball"))
	assert.Equal(t, 2, cd.Remaining("fireball"))
	assert.False(t, cd.OnCooldown("longsword"))

	cd.Tick()
	assert.True(t, cd.OnCooldown("fireball"))
	assert.Equal(t, 1, cd.Remaining("fireball"))

	cd.Tick()
	assert.False(t, cd.OnCooldown("fireball"))
	assert.Equal(t, 0, cd.Remaining("fireball"))
}

func TestStatBlock_Defaults(t *testing.T) {
	sb := world.NewStatBlock("Korgan", 16, 30)

	assert.NotEmpty(t, sb.EntityID())
	assert.Equal(t, "Korgan", sb.Name())
	assert.Equal(t, 16, sb.ArmorClass())
	assert.Equal(t, 30, sb.HP().Max)
	for _, a := range stats.Abilities {
		assert.Equal(t, 0, sb.AbilityModifier(a))
	}
}

func TestStatBlock_SavingThrowBonusStacksOnModifier(t *testing.T) {
	sb := world.NewStatBlock("Seraphine", 12, 22)
	sb.Ability(stats.Dexterity).Base = 14
	sb.SavingThrow(stats.Dexterity).Add("cloak", 2)

	assert.Equal(t, 4, sb.SavingThrowBonus(stats.Dexterity))
	sb.SavingThrow(stats.Dexterity).RemoveSource("cloak")
	assert.Equal(t, 2, sb.SavingThrowBonus(stats.Dexterity))
}

func TestStore_AddAndLookup(t *testing.T) {
	store := world.NewStore()
	a := world.NewStatBlock("a", 10, 10)
	b := world.NewStatBlock("b", 10, 10)

	idA := store.Add(a)
	idB := store.Add(b)
	require.NotEqual(t, idA, idB)

	got, ok := store.Entity(idA)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = store.Entity("missing")
	assert.False(t, ok)
	assert.Len(t, store.IDs(), 2)
}

func TestProperty_HitPointsStayInRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		max := rapid.IntRange(1, 100).Draw(t, "max")
		hp := world.NewHitPoints(max)
		ops := rapid.IntRange(1, 20).Draw(t, "ops")
		for i := 0; i < ops; i++ {
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				hp.Damage(rapid.IntRange(0, 150).Draw(t, "dmg"))
			case 1:
				hp.Heal(rapid.IntRange(0, 150).Draw(t, "heal"))
			default:
				hp.AddTemporary(rapid.IntRange(0, 30).Draw(t, "temp"))
			}
			if hp.Current < 0 || hp.Current > hp.Max || hp.Temporary < 0 {
				t.Fatalf("invariant broken: current=%d max=%d temp=%d",
					hp.Current, hp.Max, hp.Temporary)
			}
		}
	})
}
