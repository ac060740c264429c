package world

import (
	"sort"

	"github.com/google/uuid"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
)

// StatBlock bundles every component one entity owns. It implements
// effect.Sheet and effect.View so effects and scripts can read and mutate it
// without seeing the store.
type StatBlock struct {
	id   string
	name string

	abilities   map[stats.Ability]*stats.Value
	skills      stats.ValueSet
	saves       map[stats.Ability]*stats.Value
	armorClass  *stats.Value
	resistances *damage.Resistances
	ledger      *resource.Ledger
	hp          *HitPoints
	cooldowns   *Cooldowns
	effects     *effect.ActiveSet
}

// NewStatBlock creates an entity with the given name, base armor class, and
// hit points. Ability scores default to 10; adjust via Ability(...).Base.
//
// Precondition: maxHP > 0.
func NewStatBlock(name string, armorClass, maxHP int) *StatBlock {
	sb := &StatBlock{
		id:          uuid.NewString(),
		name:        name,
		abilities:   make(map[stats.Ability]*stats.Value, len(stats.Abilities)),
		skills:      make(stats.ValueSet),
		saves:       make(map[stats.Ability]*stats.Value, len(stats.Abilities)),
		armorClass:  stats.NewValue(armorClass),
		resistances: damage.NewResistances(),
		ledger:      resource.NewLedger(),
		hp:          NewHitPoints(maxHP),
		cooldowns:   NewCooldowns(),
		effects:     effect.NewActiveSet(),
	}
	for _, a := range stats.Abilities {
		sb.abilities[a] = stats.NewValue(10)
		sb.saves[a] = stats.NewValue(0)
	}
	return sb
}

// EntityID returns the entity's unique id.
func (sb *StatBlock) EntityID() string { return sb.id }

// Name returns the entity's display name.
func (sb *StatBlock) Name() string { return sb.name }

// Ability returns the modifier-tracked value for ability a.
func (sb *StatBlock) Ability(a stats.Ability) *stats.Value { return sb.abilities[a] }

// AbilityModifier returns the d20 modifier for ability a.
func (sb *StatBlock) AbilityModifier(a stats.Ability) int {
	return stats.Modifier(sb.abilities[a].Total())
}

// Skill returns the modifier-tracked bonus for the named skill.
func (sb *StatBlock) Skill(name string) *stats.Value { return sb.skills.Get(name) }

// SavingThrow returns the modifier-tracked save bonus for ability a. The
// save bonus stacks on top of the ability modifier.
func (sb *StatBlock) SavingThrow(a stats.Ability) *stats.Value { return sb.saves[a] }

// SavingThrowBonus returns the full save bonus: ability modifier plus
// tracked save deltas.
func (sb *StatBlock) SavingThrowBonus(a stats.Ability) int {
	return sb.AbilityModifier(a) + sb.saves[a].Total()
}

// ArmorClassValue returns the modifier-tracked armor class.
func (sb *StatBlock) ArmorClassValue() *stats.Value { return sb.armorClass }

// ArmorClass returns the current armor class total.
func (sb *StatBlock) ArmorClass() int { return sb.armorClass.Total() }

// ResistanceSet returns the entity's damage mitigation entries.
func (sb *StatBlock) ResistanceSet() *damage.Resistances { return sb.resistances }

// ResourceLedger returns the entity's resource ledger.
func (sb *StatBlock) ResourceLedger() *resource.Ledger { return sb.ledger }

// HP returns the entity's hit point component.
func (sb *StatBlock) HP() *HitPoints { return sb.hp }

// CooldownMap returns the entity's per-action cooldowns.
func (sb *StatBlock) CooldownMap() *Cooldowns { return sb.cooldowns }

// Effects returns the entity's active effect set.
func (sb *StatBlock) Effects() *effect.ActiveSet { return sb.effects }

// Store is an in-memory entity store keyed by entity id.
// It is not safe for concurrent use; the resolution loop is single-threaded.
type Store struct {
	entities map[string]*StatBlock
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entities: make(map[string]*StatBlock)}
}

// Add registers sb and returns its entity id.
//
// Precondition: sb must be non-nil.
func (s *Store) Add(sb *StatBlock) string {
	s.entities[sb.id] = sb
	return sb.id
}

// Entity returns the StatBlock for id.
func (s *Store) Entity(id string) (*StatBlock, bool) {
	sb, ok := s.entities[id]
	return sb, ok
}

// IDs returns every entity id in sorted order.
func (s *Store) IDs() []string {
	out := make([]string, 0, len(s.entities))
	for id := range s.entities {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
