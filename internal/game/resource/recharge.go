package resource

import "fmt"

// Recharge is the rest or turn boundary at which a resource refills. The
// values form a total order: Turn < ShortRest < LongRest < Daily < Never.
type Recharge int

const (
	RechargeTurn Recharge = iota
	RechargeShortRest
	RechargeLongRest
	RechargeDaily
	RechargeNever
)

// IsRechargedBy reports whether a boundary of kind other refills a resource
// with this rule. Never-recharging resources are refilled by nothing.
func (r Recharge) IsRechargedBy(other Recharge) bool {
	return r != RechargeNever && other >= r
}

// String returns the YAML-facing name of the recharge rule.
func (r Recharge) String() string {
	switch r {
	case RechargeTurn:
		return "turn"
	case RechargeShortRest:
		return "short_rest"
	case RechargeLongRest:
		return "long_rest"
	case RechargeDaily:
		return "daily"
	case RechargeNever:
		return "never"
	default:
		return fmt.Sprintf("Recharge(%d)", int(r))
	}
}

// ParseRecharge converts a YAML-facing name into a Recharge rule.
//
// Postcondition: Returns a valid Recharge or a descriptive error.
func ParseRecharge(s string) (Recharge, error) {
	switch s {
	case "turn":
		return RechargeTurn, nil
	case "short_rest":
		return RechargeShortRest, nil
	case "long_rest":
		return RechargeLongRest, nil
	case "daily":
		return RechargeDaily, nil
	case "never", "":
		return RechargeNever, nil
	default:
		return RechargeNever, fmt.Errorf("resource: unknown recharge rule %q", s)
	}
}
