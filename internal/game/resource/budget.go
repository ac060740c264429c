// Package resource tracks consumable action budgets: flat counters, tiered
// pools such as spell slots, recharge rules, and a per-entity ledger with
// atomic multi-resource spending.
package resource

// Budget tracks current and maximum uses of a single consumable.
//
// Invariant: 0 <= current <= max and max > 0 for every reachable Budget.
type Budget struct {
	current int
	max     int
}

// NewBudget creates a full budget with the given maximum.
//
// Precondition: maxUses > 0, else a *ZeroMaxUsesError is returned.
// Postcondition: Current() == Max() == maxUses.
func NewBudget(maxUses int) (*Budget, error) {
	if maxUses <= 0 {
		return nil, &ZeroMaxUsesError{MaxUses: maxUses}
	}
	return &Budget{current: maxUses, max: maxUses}, nil
}

// MustBudget creates a budget and panics on error. For statically authored
// content and tests.
func MustBudget(maxUses int) *Budget {
	b, err := NewBudget(maxUses)
	if err != nil {
		panic("resource: MustBudget: " + err.Error())
	}
	return b
}

// Current returns the remaining uses.
func (b *Budget) Current() int { return b.current }

// Max returns the maximum uses.
func (b *Budget) Max() int { return b.max }

// Spend decrements current uses by n. Negative n is rejected with a
// *NegativeAmountError rather than silently granting uses.
//
// Postcondition: on success current is decremented by n; on
// *InsufficientResourcesError the budget is unchanged.
func (b *Budget) Spend(n int) error {
	if n < 0 {
		return &NegativeAmountError{Uses: n}
	}
	if n > b.current {
		return &InsufficientResourcesError{Needed: n, Available: b.current}
	}
	b.current -= n
	return nil
}

// Restore increments current uses by n, saturating at the maximum. Restore
// never fails; overshoot is silently clamped and non-positive n is a no-op.
//
// Postcondition: Current() <= Max().
func (b *Budget) Restore(n int) {
	if n <= 0 {
		return
	}
	b.current += n
	if b.current > b.max {
		b.current = b.max
	}
}

// AddUses raises the maximum by n and grants the new uses immediately.
// Non-positive n is a no-op.
//
// Postcondition: Max() and Current() are both increased by n.
func (b *Budget) AddUses(n int) {
	if n <= 0 {
		return
	}
	b.max += n
	b.current += n
}

// RemoveUses lowers the maximum by n. Removing more than the current maximum
// is an error, not a clamp, mirroring the asymmetry with Restore. Removing
// exactly the maximum would leave a zero-max budget and fails too. Current
// uses are clamped down to the new maximum.
//
// Postcondition: on success Max() is decreased by n and Current() <= Max();
// on error the budget is unchanged.
func (b *Budget) RemoveUses(n int) error {
	if n < 0 {
		return &NegativeAmountError{Uses: n}
	}
	if n > b.max {
		return &NegativeMaxUsesError{Reduction: n, MaxUses: b.max}
	}
	if n == b.max {
		return &ZeroMaxUsesError{MaxUses: 0}
	}
	b.max -= n
	if b.current > b.max {
		b.current = b.max
	}
	return nil
}

// SetCurrentUses sets the remaining uses to n.
//
// Postcondition: on success Current() == n; a negative request or one above
// Max() fails and leaves the budget unchanged.
func (b *Budget) SetCurrentUses(n int) error {
	if n < 0 {
		return &NegativeAmountError{Uses: n}
	}
	if n > b.max {
		return &CurrentUsesAboveMaxError{Requested: n, MaxUses: b.max}
	}
	b.current = n
	return nil
}

// SetMaxUses sets the maximum to n, clamping current uses down if needed.
//
// Postcondition: on success Max() == n and Current() <= n; n <= 0 fails with
// *ZeroMaxUsesError.
func (b *Budget) SetMaxUses(n int) error {
	if n <= 0 {
		return &ZeroMaxUsesError{MaxUses: n}
	}
	b.max = n
	if b.current > b.max {
		b.current = b.max
	}
	return nil
}

// RechargeFull restores the budget to its maximum. Never fails.
//
// Postcondition: Current() == Max().
func (b *Budget) RechargeFull() { b.current = b.max }
