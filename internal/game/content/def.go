// Package content loads action, effect, reaction, and resource definitions
// from YAML and compiles them into engine values. Loading is strict:
// unknown fields, dangling references, and malformed dice expressions fail
// loudly at load time rather than surfacing mid-encounter.
package content

import (
	"errors"
	"fmt"
	"sort"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
)

// Document is the top-level shape of a content YAML file. A file may carry
// any mix of sections; ids must be unique across all loaded files.
type Document struct {
	Resources []ResourceDef `yaml:"resources"`
	Effects   []EffectDef   `yaml:"effects"`
	Actions   []ActionDef   `yaml:"actions"`
	Reactions []ReactionDef `yaml:"reactions"`
}

// ResourceDef defines one resource pool an entity's ledger starts with.
type ResourceDef struct {
	ID       string      `yaml:"id"`
	MaxUses  int         `yaml:"max_uses"` // flat pools
	Tiers    map[int]int `yaml:"tiers"`    // tiered pools: tier -> max uses
	Recharge string      `yaml:"recharge"` // turn|short_rest|long_rest|daily|never
}

// Validate checks the ResourceDef's invariants.
func (d *ResourceDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if (d.MaxUses > 0) == (len(d.Tiers) > 0) {
		errs = append(errs, errors.New("exactly one of max_uses and tiers required"))
	}
	for tier, max := range d.Tiers {
		if tier < 1 {
			errs = append(errs, fmt.Errorf("tier %d must be >= 1", tier))
		}
		if max < 1 {
			errs = append(errs, fmt.Errorf("tier %d max uses must be >= 1", tier))
		}
	}
	if _, err := resource.ParseRecharge(d.Recharge); err != nil {
		errs = append(errs, err)
	}
	return joinDefErrors("resource", d.ID, errs)
}

// AmountDef is a YAML resource amount: flat when tier is omitted.
type AmountDef struct {
	Tier int `yaml:"tier"`
	Uses int `yaml:"uses"`
}

// DurationDef is a YAML effect duration.
type DurationDef struct {
	Kind  string `yaml:"kind"` // temporary|conditional|permanent
	Turns int    `yaml:"turns"`
}

// ResistanceDef is a YAML mitigation grant.
type ResistanceDef struct {
	Type   string `yaml:"type"`
	Op     string `yaml:"op"` // immunity|flat_reduction|resistance|vulnerability
	Amount int    `yaml:"amount"`
}

// ModifiersDef is the declarative modifier block of an effect.
type ModifiersDef struct {
	Abilities    map[string]int  `yaml:"abilities"`
	Skills       map[string]int  `yaml:"skills"`
	SavingThrows map[string]int  `yaml:"saving_throws"`
	ArmorClass   int             `yaml:"armor_class"`
	Resistances  []ResistanceDef `yaml:"resistances"`
	ResourceMax  map[string]int  `yaml:"resource_max"`
}

// AttackRollHookDef is a YAML attack-roll hook: a flat bonus, an optional
// roll mode, a crit-threshold reduction, and an optional source guard.
type AttackRollHookDef struct {
	Bonus              int    `yaml:"bonus"`
	Mode               string `yaml:"mode"` // ""|advantage|disadvantage
	CritThresholdDelta int    `yaml:"crit_threshold_delta"`
	DamageSource       string `yaml:"damage_source"`
}

// ArmorClassHookDef is either a flat delta or a script reference.
type ArmorClassHookDef struct {
	Delta  int    `yaml:"delta"`
	Script string `yaml:"script"`
}

// DamageRollHookDef references a script that rewrites rolled damage.
type DamageRollHookDef struct {
	Script string `yaml:"script"`
}

// ResourceCostHookDef is either a declarative adjustment or a script.
type ResourceCostHookDef struct {
	Add    map[string]AmountDef `yaml:"add"`
	Remove []string             `yaml:"remove"`
	Script string               `yaml:"script"`
}

// ActionHookDef references a script run after an action is performed.
type ActionHookDef struct {
	Script string `yaml:"script"`
}

// HooksDef groups the five hook slots of an effect.
type HooksDef struct {
	AttackRoll   []AttackRollHookDef   `yaml:"attack_roll"`
	ArmorClass   []ArmorClassHookDef   `yaml:"armor_class"`
	DamageRoll   []DamageRollHookDef   `yaml:"damage_roll"`
	ResourceCost []ResourceCostHookDef `yaml:"resource_cost"`
	Action       []ActionHookDef       `yaml:"action"`
}

// EffectDef defines one effect template.
type EffectDef struct {
	ID          string       `yaml:"id"`
	Description string       `yaml:"description"`
	Duration    DurationDef  `yaml:"duration"`
	Modifiers   ModifiersDef `yaml:"modifiers"`
	Hooks       HooksDef     `yaml:"hooks"`
}

// Validate checks the EffectDef's invariants.
func (d *EffectDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	switch d.Duration.Kind {
	case "temporary":
		if d.Duration.Turns < 1 {
			errs = append(errs, errors.New("temporary duration needs turns >= 1"))
		}
	case "conditional", "permanent":
		if d.Duration.Turns != 0 {
			errs = append(errs, fmt.Errorf("%s duration must not set turns", d.Duration.Kind))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown duration kind %q", d.Duration.Kind))
	}
	for _, r := range d.Modifiers.Resistances {
		if r.Type == "" {
			errs = append(errs, errors.New("resistance grant missing type"))
		}
		if _, err := damage.ParseOperation(r.Op); err != nil {
			errs = append(errs, err)
		}
	}
	for _, h := range d.Hooks.AttackRoll {
		if h.Mode != "" && h.Mode != "advantage" && h.Mode != "disadvantage" {
			errs = append(errs, fmt.Errorf("unknown roll mode %q", h.Mode))
		}
	}
	for _, h := range d.Hooks.ArmorClass {
		if (h.Delta != 0) && (h.Script != "") {
			errs = append(errs, errors.New("armor class hook sets both delta and script"))
		}
	}
	for _, h := range d.Hooks.DamageRoll {
		if h.Script == "" {
			errs = append(errs, errors.New("damage roll hook needs a script"))
		}
	}
	for _, h := range d.Hooks.ResourceCost {
		if h.Script != "" && (len(h.Add) > 0 || len(h.Remove) > 0) {
			errs = append(errs, errors.New("resource cost hook sets both script and adjustments"))
		}
	}
	for _, h := range d.Hooks.Action {
		if h.Script == "" {
			errs = append(errs, errors.New("action hook needs a script"))
		}
	}
	return joinDefErrors("effect", d.ID, errs)
}

// DamageComponentDef is one typed dice expression of an action's damage.
type DamageComponentDef struct {
	Type string `yaml:"type"`
	Dice string `yaml:"dice"`
}

// DamageDef is an action's damage block.
type DamageDef struct {
	Primary DamageComponentDef   `yaml:"primary"`
	Ability string               `yaml:"ability"` // modifier added to primary at roll time
	Bonus   []DamageComponentDef `yaml:"bonus"`
}

// AttackDef is the attack-roll block of an action.
type AttackDef struct {
	Ability      string `yaml:"ability"`
	Bonus        int    `yaml:"bonus"`
	DamageSource string `yaml:"damage_source"`
}

// SaveDef is the saving-throw block of an action.
type SaveDef struct {
	Ability    string `yaml:"ability"`
	DC         int    `yaml:"dc"`
	HalfDamage bool   `yaml:"half_damage"`
}

// ActionDef defines one action.
type ActionDef struct {
	ID            string               `yaml:"id"`
	Name          string               `yaml:"name"`
	Kind          string               `yaml:"kind"` // unconditional|attack_roll|saving_throw
	Cost          map[string]AmountDef `yaml:"cost"`
	CooldownTurns int                  `yaml:"cooldown_turns"`
	Targeting     string               `yaml:"targeting"` // self|single|any
	Attack        *AttackDef           `yaml:"attack"`
	Save          *SaveDef             `yaml:"save"`
	Damage        *DamageDef           `yaml:"damage"`
	DamageOnMiss  bool                 `yaml:"damage_on_miss"`
	Effect        string               `yaml:"effect"` // effect id, applied on hit / failed save
	Healing       string               `yaml:"healing"`
}

// Validate checks the ActionDef's structural invariants. Cross-references
// (effect ids) are checked at compile time against the full registry.
func (d *ActionDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	switch d.Kind {
	case "unconditional":
		if d.Attack != nil || d.Save != nil {
			errs = append(errs, errors.New("unconditional action must not set attack or save"))
		}
	case "attack_roll":
		if d.Attack == nil {
			errs = append(errs, errors.New("attack_roll action needs an attack block"))
		} else if d.Attack.Ability == "" {
			errs = append(errs, errors.New("attack block needs an ability"))
		}
		if d.Save != nil {
			errs = append(errs, errors.New("attack_roll action must not set save"))
		}
	case "saving_throw":
		if d.Save == nil {
			errs = append(errs, errors.New("saving_throw action needs a save block"))
		} else {
			if d.Save.Ability == "" {
				errs = append(errs, errors.New("save block needs an ability"))
			}
			if d.Save.DC < 1 {
				errs = append(errs, errors.New("save dc must be >= 1"))
			}
		}
		if d.Attack != nil {
			errs = append(errs, errors.New("saving_throw action must not set attack"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown action kind %q", d.Kind))
	}
	switch d.Targeting {
	case "self", "single", "any":
	default:
		errs = append(errs, fmt.Errorf("unknown targeting rule %q", d.Targeting))
	}
	if d.Damage != nil {
		if _, err := dice.Parse(d.Damage.Primary.Dice); err != nil {
			errs = append(errs, err)
		}
		if d.Damage.Primary.Type == "" {
			errs = append(errs, errors.New("primary damage component missing type"))
		}
		for _, b := range d.Damage.Bonus {
			if _, err := dice.Parse(b.Dice); err != nil {
				errs = append(errs, err)
			}
			if b.Type == "" {
				errs = append(errs, errors.New("bonus damage component missing type"))
			}
		}
	}
	if d.DamageOnMiss && d.Kind != "attack_roll" {
		errs = append(errs, errors.New("damage_on_miss only applies to attack_roll actions"))
	}
	if d.Healing != "" {
		if _, err := dice.Parse(d.Healing); err != nil {
			errs = append(errs, err)
		}
	}
	errs = append(errs, validateCost(d.Cost)...)
	return joinDefErrors("action", d.ID, errs)
}

// validateCost rejects cost amounts a ledger could never spend: zero or
// negative uses, or a negative tier.
func validateCost(cost map[string]AmountDef) []error {
	ids := make([]string, 0, len(cost))
	for id := range cost {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		a := cost[id]
		if a.Uses < 1 {
			errs = append(errs, fmt.Errorf("cost %q: uses must be >= 1, got %d", id, a.Uses))
		}
		if a.Tier < 0 {
			errs = append(errs, fmt.Errorf("cost %q: tier must be >= 0, got %d", id, a.Tier))
		}
	}
	return errs
}

// ReactionDef defines one scripted reaction.
type ReactionDef struct {
	ID            string               `yaml:"id"`
	Name          string               `yaml:"name"`
	Cost          map[string]AmountDef `yaml:"cost"`
	TriggerScript string               `yaml:"trigger_script"`
	PlanScript    string               `yaml:"plan_script"`
}

// Validate checks the ReactionDef's invariants.
func (d *ReactionDef) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if d.TriggerScript == "" {
		errs = append(errs, errors.New("trigger_script must not be empty"))
	}
	if d.PlanScript == "" {
		errs = append(errs, errors.New("plan_script must not be empty"))
	}
	errs = append(errs, validateCost(d.Cost)...)
	return joinDefErrors("reaction", d.ID, errs)
}

func joinDefErrors(kind, id string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("content: %s %q: %w", kind, id, errors.Join(errs...))
}
