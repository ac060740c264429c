package resource

import (
	"fmt"
	"sort"
)

// Amount is a quantity of a resource to spend or restore. Tier 0 means a
// flat amount; a positive tier addresses one tier of a tiered pool.
type Amount struct {
	Tier int
	Uses int
}

// Flat returns a flat amount of n uses.
func Flat(n int) Amount { return Amount{Uses: n} }

// Tiered returns an amount of n uses at the given tier.
//
// Precondition: tier > 0.
func Tiered(tier, n int) Amount { return Amount{Tier: tier, Uses: n} }

// IsTiered reports whether the amount addresses a specific tier.
func (a Amount) IsTiered() bool { return a.Tier > 0 }

// String returns "3 uses" or "2 uses (tier 1)".
func (a Amount) String() string {
	if a.IsTiered() {
		return fmt.Sprintf("%d uses (tier %d)", a.Uses, a.Tier)
	}
	return fmt.Sprintf("%d uses", a.Uses)
}

// Pool is one named resource: either a single flat budget or an ordered set
// of per-tier budgets (spell slots), plus the rule that refills it.
//
// Invariant: exactly one of flat and tiers is set.
type Pool struct {
	recharge Recharge
	flat     *Budget
	tiers    map[int]*Budget
}

// NewFlatPool creates a full flat pool.
//
// Precondition: maxUses > 0.
func NewFlatPool(maxUses int, recharge Recharge) (*Pool, error) {
	b, err := NewBudget(maxUses)
	if err != nil {
		return nil, err
	}
	return &Pool{recharge: recharge, flat: b}, nil
}

// NewTieredPool creates a full tiered pool from tier -> max uses.
//
// Precondition: every tier > 0 and every max > 0; maxByTier must be non-empty.
func NewTieredPool(maxByTier map[int]int, recharge Recharge) (*Pool, error) {
	if len(maxByTier) == 0 {
		return nil, fmt.Errorf("resource: tiered pool needs at least one tier")
	}
	tiers := make(map[int]*Budget, len(maxByTier))
	for tier, max := range maxByTier {
		if tier <= 0 {
			return nil, &InvalidTierError{Tier: tier}
		}
		b, err := NewBudget(max)
		if err != nil {
			return nil, fmt.Errorf("resource: tier %d: %w", tier, err)
		}
		tiers[tier] = b
	}
	return &Pool{recharge: recharge, tiers: tiers}, nil
}

// IsTiered reports whether the pool tracks per-tier budgets.
func (p *Pool) IsTiered() bool { return p.tiers != nil }

// RechargeRule returns the pool's recharge rule.
func (p *Pool) RechargeRule() Recharge { return p.recharge }

// Tiers returns the pool's tier numbers in ascending order. Empty for flat pools.
func (p *Pool) Tiers() []int {
	out := make([]int, 0, len(p.tiers))
	for t := range p.tiers {
		out = append(out, t)
	}
	sort.Ints(out)
	return out
}

// Budget resolves the budget an amount addresses, validating that the amount
// kind matches the pool kind and that the tier exists.
//
// Postcondition: Returns a non-nil *Budget, or *InvalidKindError /
// *InvalidTierError.
func (p *Pool) Budget(a Amount) (*Budget, error) {
	if p.IsTiered() {
		if !a.IsTiered() {
			return nil, &InvalidKindError{Op: "flat amount on tiered pool"}
		}
		b, ok := p.tiers[a.Tier]
		if !ok {
			return nil, &InvalidTierError{Tier: a.Tier}
		}
		return b, nil
	}
	if a.IsTiered() {
		return nil, &InvalidKindError{Op: "tiered amount on flat pool"}
	}
	return p.flat, nil
}

// CanAfford reports whether spending a would succeed, returning the concrete
// failure otherwise.
func (p *Pool) CanAfford(a Amount) error {
	if a.Uses < 0 {
		return &NegativeAmountError{Uses: a.Uses}
	}
	b, err := p.Budget(a)
	if err != nil {
		return err
	}
	if a.Uses > b.Current() {
		return &InsufficientResourcesError{Needed: a.Uses, Available: b.Current()}
	}
	return nil
}

// Spend decrements the addressed budget.
//
// Postcondition: on error the pool is unchanged.
func (p *Pool) Spend(a Amount) error {
	b, err := p.Budget(a)
	if err != nil {
		return err
	}
	return b.Spend(a.Uses)
}

// Restore increments the addressed budget, saturating at its maximum. Tier
// and kind mismatches still fail; a valid restore never does.
func (p *Pool) Restore(a Amount) error {
	b, err := p.Budget(a)
	if err != nil {
		return err
	}
	b.Restore(a.Uses)
	return nil
}

// RechargeFull refills every budget in the pool.
func (p *Pool) RechargeFull() {
	if p.flat != nil {
		p.flat.RechargeFull()
	}
	for _, b := range p.tiers {
		b.RechargeFull()
	}
}

// Recharge refills the pool if its rule is recharged by the given boundary.
func (p *Pool) Recharge(boundary Recharge) {
	if p.recharge.IsRechargedBy(boundary) {
		p.RechargeFull()
	}
}
