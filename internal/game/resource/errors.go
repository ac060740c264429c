package resource

import "fmt"

// InsufficientResourcesError reports a Spend that exceeded the current uses.
type InsufficientResourcesError struct {
	Needed    int
	Available int
}

func (e *InsufficientResourcesError) Error() string {
	return fmt.Sprintf("resource: insufficient uses: needed %d, available %d", e.Needed, e.Available)
}

// NegativeAmountError reports a budget or pool operation handed a negative
// number of uses.
type NegativeAmountError struct {
	Uses int
}

func (e *NegativeAmountError) Error() string {
	return fmt.Sprintf("resource: uses must be non-negative, got %d", e.Uses)
}

// ZeroMaxUsesError reports an attempt to create or resize a budget to a
// non-positive maximum.
type ZeroMaxUsesError struct {
	MaxUses int
}

func (e *ZeroMaxUsesError) Error() string {
	return fmt.Sprintf("resource: max uses must be positive, got %d", e.MaxUses)
}

// NegativeMaxUsesError reports a RemoveUses that would drive max uses below zero.
type NegativeMaxUsesError struct {
	Reduction int
	MaxUses   int
}

func (e *NegativeMaxUsesError) Error() string {
	return fmt.Sprintf("resource: cannot remove %d uses from a max of %d", e.Reduction, e.MaxUses)
}

// CurrentUsesAboveMaxError reports a SetCurrentUses above the maximum.
type CurrentUsesAboveMaxError struct {
	Requested int
	MaxUses   int
}

func (e *CurrentUsesAboveMaxError) Error() string {
	return fmt.Sprintf("resource: current uses %d above max %d", e.Requested, e.MaxUses)
}

// InvalidTierError reports a tiered operation against a tier the pool does
// not track.
type InvalidTierError struct {
	Tier int
}

func (e *InvalidTierError) Error() string {
	return fmt.Sprintf("resource: no such tier %d", e.Tier)
}

// InvalidKindError reports a flat amount applied to a tiered pool or vice versa.
type InvalidKindError struct {
	Op string
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("resource: %s: amount kind does not match pool kind", e.Op)
}

// NotFoundError reports a ledger operation against an unknown resource id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource: no resource %q in ledger", e.ID)
}
