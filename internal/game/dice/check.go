package dice

// DefaultCritThreshold is the natural roll that counts as a critical success
// when no effect has lowered the threshold.
const DefaultCritThreshold = 20

// RollMode selects between a straight d20 roll, advantage (roll two, keep
// higher), and disadvantage (roll two, keep lower).
type RollMode int

const (
	ModeNormal RollMode = iota
	ModeAdvantage
	ModeDisadvantage
)

// String returns "normal", "advantage", or "disadvantage".
func (m RollMode) String() string {
	switch m {
	case ModeAdvantage:
		return "advantage"
	case ModeDisadvantage:
		return "disadvantage"
	default:
		return "normal"
	}
}

// Combine merges two roll modes. Advantage and disadvantage cancel out to
// normal; identical or normal modes keep the stronger of the two.
func (m RollMode) Combine(other RollMode) RollMode {
	if m == ModeNormal {
		return other
	}
	if other == ModeNormal || other == m {
		return m
	}
	return ModeNormal
}

// D20Check is the mutable state of an in-flight d20 check before it is rolled.
// Effect hooks and reactions mutate it through AddBonus, AddMode, and
// LowerCritThreshold before Roll consumes it.
//
// Invariant: CritThreshold is in [2, 20] after NewD20Check.
type D20Check struct {
	Mode          RollMode
	Bonus         int
	CritThreshold int
}

// NewD20Check returns a check with no bonus, normal mode, and the default
// crit threshold.
func NewD20Check() D20Check {
	return D20Check{CritThreshold: DefaultCritThreshold}
}

// AddBonus adds a flat (possibly negative) bonus to the check.
func (c *D20Check) AddBonus(n int) { c.Bonus += n }

// AddMode merges mode into the check's roll mode via Combine.
func (c *D20Check) AddMode(mode RollMode) { c.Mode = c.Mode.Combine(mode) }

// LowerCritThreshold reduces the crit threshold by n, floored at 2 so a
// natural 1 can never crit.
//
// Postcondition: c.CritThreshold >= 2.
func (c *D20Check) LowerCritThreshold(n int) {
	c.CritThreshold -= n
	if c.CritThreshold < 2 {
		c.CritThreshold = 2
	}
}

// Roll performs the check, rolling one d20 (or two under advantage or
// disadvantage) and recording every die for the audit trail.
//
// Precondition: src must be non-nil.
// Postcondition: result.Kept is one of result.Rolls; result.CritThreshold ==
// c.CritThreshold (defaulted to DefaultCritThreshold when zero).
func (c D20Check) Roll(src Source) D20Result {
	threshold := c.CritThreshold
	if threshold == 0 {
		threshold = DefaultCritThreshold
	}

	first := src.Intn(20) + 1
	rolls := []int{first}
	kept := first

	if c.Mode != ModeNormal {
		second := src.Intn(20) + 1
		rolls = append(rolls, second)
		if c.Mode == ModeAdvantage && second > kept {
			kept = second
		}
		if c.Mode == ModeDisadvantage && second < kept {
			kept = second
		}
	}

	return D20Result{
		Rolls:         rolls,
		Kept:          kept,
		Bonus:         c.Bonus,
		Mode:          c.Mode,
		CritThreshold: threshold,
	}
}

// D20Result is the immutable outcome of a rolled d20 check.
type D20Result struct {
	Rolls         []int // every die rolled; two entries under advantage/disadvantage
	Kept          int   // the natural die that counts
	Bonus         int
	Mode          RollMode
	CritThreshold int
}

// Total returns the kept die plus the flat bonus.
func (r D20Result) Total() int { return r.Kept + r.Bonus }

// IsCrit reports whether the kept natural die meets the crit threshold.
// Flat bonuses never affect crit detection.
func (r D20Result) IsCrit() bool { return r.Kept >= r.CritThreshold }

// IsFumble reports whether the kept natural die is a 1.
func (r D20Result) IsFumble() bool { return r.Kept == 1 }
