package resource

import (
	"fmt"
	"sort"
)

// Cost maps resource ids to the amount an action requires from each.
// Hooks may add, remove, or alter entries before affordability is checked.
type Cost map[string]Amount

// Clone returns an independent copy of the cost map.
func (c Cost) Clone() Cost {
	out := make(Cost, len(c))
	for id, a := range c {
		out[id] = a
	}
	return out
}

// ids returns the cost's resource ids in sorted order so verification and
// error reporting are deterministic.
func (c Cost) ids() []string {
	out := make([]string, 0, len(c))
	for id := range c {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Ledger holds every resource pool owned by one entity, keyed by resource id.
// It is not safe for concurrent use; the resolution loop is single-threaded.
type Ledger struct {
	pools map[string]*Pool
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{pools: make(map[string]*Pool)}
}

// Add registers pool under id. Registering a pool under an id that already
// holds a pool of a different kind is a content authoring bug and panics.
// Same-kind duplicates merge: flat maxima add, tier maps union (adding uses
// on shared tiers).
//
// Precondition: pool must be non-nil.
func (l *Ledger) Add(id string, pool *Pool) {
	existing, ok := l.pools[id]
	if !ok {
		l.pools[id] = pool
		return
	}
	if existing.IsTiered() != pool.IsTiered() {
		panic(fmt.Sprintf("resource: ledger.Add: pool kind mismatch for %q", id))
	}
	if !pool.IsTiered() {
		existing.flat.AddUses(pool.flat.Max())
		return
	}
	for tier, b := range pool.tiers {
		if eb, ok := existing.tiers[tier]; ok {
			eb.AddUses(b.Max())
		} else {
			existing.tiers[tier] = b
		}
	}
}

// Remove deletes the pool registered under id. Unknown ids are a no-op.
func (l *Ledger) Remove(id string) { delete(l.pools, id) }

// Get returns the pool registered under id.
func (l *Ledger) Get(id string) (*Pool, bool) {
	p, ok := l.pools[id]
	return p, ok
}

// IDs returns every registered resource id in sorted order.
func (l *Ledger) IDs() []string {
	out := make([]string, 0, len(l.pools))
	for id := range l.pools {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// CanAfford reports whether spending a from the pool registered under id
// would succeed.
func (l *Ledger) CanAfford(id string, a Amount) error {
	p, ok := l.pools[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	return p.CanAfford(a)
}

// CanAffordAll verifies every entry of cost. On failure it returns the first
// unaffordable resource id (in sorted id order) and the concrete error.
//
// Postcondition: err == nil implies every entry is individually affordable.
func (l *Ledger) CanAffordAll(cost Cost) (string, error) {
	for _, id := range cost.ids() {
		if err := l.CanAfford(id, cost[id]); err != nil {
			return id, err
		}
	}
	return "", nil
}

// SpendAll spends every entry of cost atomically: verification runs first,
// and only if every entry is affordable does any pool get decremented. A
// partial spend never occurs.
//
// Postcondition: on error, no pool has changed.
func (l *Ledger) SpendAll(cost Cost) error {
	if id, err := l.CanAffordAll(cost); err != nil {
		return fmt.Errorf("resource: spend_all %q: %w", id, err)
	}
	for _, id := range cost.ids() {
		// Cannot fail: affordability was verified above and nothing runs
		// between verification and commit.
		if err := l.pools[id].Spend(cost[id]); err != nil {
			panic(fmt.Sprintf("resource: spend_all commit failed after verification for %q: %v", id, err))
		}
	}
	return nil
}

// Restore returns a to the pool registered under id, saturating at its maximum.
func (l *Ledger) Restore(id string, a Amount) error {
	p, ok := l.pools[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	return p.Restore(a)
}

// RestoreAll returns every entry of cost to the ledger, e.g. when a cancelled
// event refunds a reactor. Unknown ids and tier mismatches are skipped; a
// refund must never fail an otherwise-resolved reaction.
func (l *Ledger) RestoreAll(cost Cost) {
	for _, id := range cost.ids() {
		if p, ok := l.pools[id]; ok {
			_ = p.Restore(cost[id])
		}
	}
}

// Recharge refills every pool whose recharge rule is satisfied by boundary.
func (l *Ledger) Recharge(boundary Recharge) {
	for _, p := range l.pools {
		p.Recharge(boundary)
	}
}
