package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
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

// TestRollResult_Total verifies the postcondition: Total() == sum(Dice) + Modifier.
func TestRollResult_Total(t *testing.T) {
	r := dice.RollResult{
		Expression: "2d6+3",
		Dice:       []int{4, 5},
		Modifier:   3,
	}
	assert.Equal(t, 12, r.Total(), "Total() must equal sum(Dice)+Modifier")
}

// TestRollResult_Total_Property verifies Total() == sum(Dice) + Modifier for
// arbitrary inputs.
func TestRollResult_Total_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rolled := rapid.SliceOf(rapid.IntRange(1, 20)).Draw(rt, "dice")
		modifier := rapid.Int().Draw(rt, "modifier")

		r := dice.RollResult{Expression: "Nd20+M", Dice: rolled, Modifier: modifier}

		expected := modifier
		for _, d := range rolled {
			expected += d
		}
		assert.Equal(rt, expected, r.Total())
	})
}

func TestParse(t *testing.T) {
	tests := []struct {
		expr string
		want dice.Expression
	}{
		{"d20", dice.Expression{Raw: "d20", Count: 1, Sides: 20}},
		{"2d6", dice.Expression{Raw: "2d6", Count: 2, Sides: 6}},
		{"2d6+3", dice.Expression{Raw: "2d6+3", Count: 2, Sides: 6, Modifier: 3}},
		{"4d8-2", dice.Expression{Raw: "4d8-2", Count: 4, Sides: 8, Modifier: -2}},
	}
	for _, tc := range tests {
		t.Run(tc.expr, func(t *testing.T) {
			got, err := dice.Parse(tc.expr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, expr := range []string{"", "20", "0d6", "2d1", "2dx", "ad6"} {
		t.Run(expr, func(t *testing.T) {
			_, err := dice.Parse(expr)
			assert.Error(t, err)
		})
	}
}

// TestExpression_Doubled verifies crit doubling doubles die count, not the modifier.
func TestExpression_Doubled(t *testing.T) {
	e := dice.MustParse("2d6+3")
	d := e.Doubled()
	assert.Equal(t, 4, d.Count)
	assert.Equal(t, 6, d.Sides)
	assert.Equal(t, 3, d.Modifier, "flat modifier must not be doubled")
}

func TestRoll_DiceCountAndRange(t *testing.T) {
	src := &scriptedSource{values: []int{0, 5, 3}}
	r := dice.Roll(dice.MustParse("3d6+2"), src)
	assert.Equal(t, []int{1, 6, 4}, r.Dice)
	assert.Equal(t, 13, r.Total())
}

func TestRollMode_Combine(t *testing.T) {
	assert.Equal(t, dice.ModeAdvantage, dice.ModeNormal.Combine(dice.ModeAdvantage))
	assert.Equal(t, dice.ModeAdvantage, dice.ModeAdvantage.Combine(dice.ModeAdvantage))
	assert.Equal(t, dice.ModeNormal, dice.ModeAdvantage.Combine(dice.ModeDisadvantage))
	assert.Equal(t, dice.ModeDisadvantage, dice.ModeDisadvantage.Combine(dice.ModeNormal))
}

func TestD20Check_Roll_Advantage(t *testing.T) {
	// Scripted natural rolls: 7 then 18 (Intn values are zero-based).
	src := &scriptedSource{values: []int{6, 17}}
	c := dice.NewD20Check()
	c.AddMode(dice.ModeAdvantage)
	c.AddBonus(3)

	r := c.Roll(src)
	assert.Equal(t, []int{7, 18}, r.Rolls)
	assert.Equal(t, 18, r.Kept, "advantage keeps the higher die")
	assert.Equal(t, 21, r.Total())
	assert.False(t, r.IsCrit())
}

func TestD20Check_Roll_Disadvantage(t *testing.T) {
	src := &scriptedSource{values: []int{6, 17}}
	c := dice.NewD20Check()
	c.AddMode(dice.ModeDisadvantage)

	r := c.Roll(src)
	assert.Equal(t, 7, r.Kept, "disadvantage keeps the lower die")
}

func TestD20Check_CritThreshold(t *testing.T) {
	src := &scriptedSource{values: []int{18}} // natural 19
	c := dice.NewD20Check()
	c.LowerCritThreshold(1)

	r := c.Roll(src)
	assert.Equal(t, 19, r.Kept)
	assert.True(t, r.IsCrit(), "natural 19 crits at threshold 19")
}

func TestD20Check_LowerCritThreshold_Floor(t *testing.T) {
	c := dice.NewD20Check()
	c.LowerCritThreshold(100)
	assert.Equal(t, 2, c.CritThreshold, "crit threshold never drops below 2")
}

// TestD20Check_CritIgnoresBonus verifies flat bonuses never affect crit detection.
func TestD20Check_CritIgnoresBonus(t *testing.T) {
	src := &scriptedSource{values: []int{14}} // natural 15
	c := dice.NewD20Check()
	c.AddBonus(10)

	r := c.Roll(src)
	assert.Equal(t, 25, r.Total())
	assert.False(t, r.IsCrit(), "a total of 25 from bonuses is not a crit")
}

func TestSeededSource_Deterministic(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Intn(20), b.Intn(20))
	}
}
