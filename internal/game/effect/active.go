package effect

import "fmt"

// ActiveSet tracks every effect currently applied to one entity, in
// application order. It is not safe for concurrent use; the resolution loop
// is single-threaded.
type ActiveSet struct {
	effects map[string]*Effect
	order   []string
}

// NewActiveSet creates an empty ActiveSet.
func NewActiveSet() *ActiveSet {
	return &ActiveSet{effects: make(map[string]*Effect)}
}

// Apply applies e's modifiers to sheet and tracks it. Re-applying an id that
// is already active refreshes its duration without stacking the modifiers.
//
// Precondition: e must be non-nil and pass Validate.
// Postcondition: Has(e.ID) is true.
func (s *ActiveSet) Apply(sheet Sheet, e *Effect) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("effect: apply: %w", err)
	}
	if existing, ok := s.effects[e.ID]; ok {
		existing.Duration = e.Duration
		return nil
	}
	e.Apply(sheet)
	s.effects[e.ID] = e
	s.order = append(s.order, e.ID)
	return nil
}

// Remove unapplies and drops the effect with the given id. Unknown ids are a
// no-op.
//
// Postcondition: Has(id) is false.
func (s *ActiveSet) Remove(sheet Sheet, id string) {
	e, ok := s.effects[id]
	if !ok {
		return
	}
	e.Unapply(sheet)
	delete(s.effects, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// TickTurn advances every temporary effect by one owner turn, unapplying and
// dropping those that expire. Expired ids are returned in application order.
func (s *ActiveSet) TickTurn(sheet Sheet) []string {
	var expired []string
	for _, id := range s.order {
		if s.effects[id].Duration.Tick() {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		s.Remove(sheet, id)
	}
	return expired
}

// Has reports whether id is active.
func (s *ActiveSet) Has(id string) bool {
	_, ok := s.effects[id]
	return ok
}

// Get returns the active effect with the given id.
func (s *ActiveSet) Get(id string) (*Effect, bool) {
	e, ok := s.effects[id]
	return e, ok
}

// IDs returns the active effect ids in application order.
func (s *ActiveSet) IDs() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Hooks returns every active effect's hooks folded into one HookSet, in
// application order.
func (s *ActiveSet) Hooks() HookSet {
	var merged HookSet
	for _, id := range s.order {
		merged = merged.Merge(s.effects[id].Hooks)
	}
	return merged
}
