// Package world provides the per-entity components the resolution core
// manipulates (hit points, ability scores, armor class, cooldowns) and an
// in-memory entity store for the harness and tests. The core consumes the
// store through a narrow interface; any component-store backend that hands
// out the same components can replace it.
package world

// HitPoints tracks current, maximum, and temporary hit points.
//
// Invariant: 0 <= Current <= Max; Temporary >= 0.
type HitPoints struct {
	Current   int
	Max       int
	Temporary int
}

// NewHitPoints creates a full hit point pool.
//
// Precondition: max > 0.
func NewHitPoints(max int) *HitPoints {
	return &HitPoints{Current: max, Max: max}
}

// Damage applies amount, consuming temporary hit points first, and returns
// the amount actually dealt.
//
// Precondition: amount >= 0.
// Postcondition: Current >= 0.
func (hp *HitPoints) Damage(amount int) int {
	if amount <= 0 {
		return 0
	}
	dealt := amount
	if hp.Temporary > 0 {
		if hp.Temporary >= amount {
			hp.Temporary -= amount
			return dealt
		}
		amount -= hp.Temporary
		hp.Temporary = 0
	}
	hp.Current -= amount
	if hp.Current < 0 {
		hp.Current = 0
	}
	return dealt
}

// Heal restores up to amount hit points and returns the amount actually
// restored.
//
// Precondition: amount >= 0.
// Postcondition: Current <= Max.
func (hp *HitPoints) Heal(amount int) int {
	if amount <= 0 || hp.Current >= hp.Max {
		return 0
	}
	before := hp.Current
	hp.Current += amount
	if hp.Current > hp.Max {
		hp.Current = hp.Max
	}
	return hp.Current - before
}

// AddTemporary grants temporary hit points. Grants do not stack; the larger
// pool wins.
func (hp *HitPoints) AddTemporary(amount int) {
	if amount > hp.Temporary {
		hp.Temporary = amount
	}
}

// IsDead reports whether the entity is at zero hit points.
func (hp *HitPoints) IsDead() bool { return hp.Current <= 0 }

// Cooldowns tracks per-action cooldown turns remaining.
type Cooldowns struct {
	remaining map[string]int
}

// NewCooldowns creates an empty cooldown map.
func NewCooldowns() *Cooldowns {
	return &Cooldowns{remaining: make(map[string]int)}
}

// Start puts actionID on cooldown for the given number of turns.
//
// Precondition: turns > 0.
func (c *Cooldowns) Start(actionID string, turns int) {
	c.remaining[actionID] = turns
}

// OnCooldown reports whether actionID is currently on cooldown.
func (c *Cooldowns) OnCooldown(actionID string) bool {
	return c.remaining[actionID] > 0
}

// Remaining returns the turns left on actionID's cooldown.
func (c *Cooldowns) Remaining(actionID string) int {
	return c.remaining[actionID]
}

// Tick decrements every cooldown by one turn, dropping those that reach zero.
func (c *Cooldowns) Tick() {
	for id, turns := range c.remaining {
		if turns <= 1 {
			delete(c.remaining, id)
		} else {
			c.remaining[id] = turns - 1
		}
	}
}
