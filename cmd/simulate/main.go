// Package main provides the simulate binary: it loads content and scripts,
// builds a small roster, and runs a scripted skirmish through the combat
// engine, logging every resolution.
package main

import (
	"flag"
	"log"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/MadsWedendahlKruse/nat20-go/internal/config"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/combat"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/content"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/dice"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/stats"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/world"
	"github.com/MadsWedendahlKruse/nat20-go/internal/observability"
	"github.com/MadsWedendahlKruse/nat20-go/internal/scripting"
)

// combatant describes one roster entry: base stats plus the action ids it
// prefers, in order, and the reaction ids it holds.
type combatant struct {
	name       string
	armorClass int
	maxHP      int
	abilities  map[stats.Ability]int
	actions    []string
	reactions  []string
}

func roster() []combatant {
	return []combatant{
		{
			name:       "Korgan",
			armorClass: 16,
			maxHP:      30,
			abilities: map[stats.Ability]int{
				stats.Strength:     16,
				stats.Dexterity:    12,
				stats.Constitution: 14,
			},
			actions: []string{"second_wind", "longsword"},
		},
		{
			name:       "Seraphine",
			armorClass: 12,
			maxHP:      22,
			abilities: map[stats.Ability]int{
				stats.Intelligence: 16,
				stats.Dexterity:    14,
				stats.Wisdom:       13,
			},
			actions:   []string{"fireball", "firebolt"},
			reactions: []string{"shield"},
		},
	}
}

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/simulate.yaml", "path to configuration file")
	turns := flag.Int("turns", 0, "override simulation.turns when > 0")
	seed := flag.Int64("seed", 0, "override simulation.seed when != 0")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *turns > 0 {
		cfg.Simulation.Turns = *turns
	}
	if *seed != 0 {
		cfg.Simulation.Seed = *seed
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	var src dice.Source
	if cfg.Simulation.Seed != 0 {
		src = dice.NewSeededSource(cfg.Simulation.Seed)
		logger.Info("using seeded dice source", zap.Int64("seed", cfg.Simulation.Seed))
	} else {
		src = dice.NewCryptoSource()
	}
	roller := dice.NewRoller(src, logger)

	// Scripting is optional: without a script dir, only declarative content
	// loads and script-referencing definitions fail compilation.
	var evaluator *scripting.Evaluator
	var hookEval effect.ScriptEvaluator
	var reactionEval combat.ReactionEvaluator
	if cfg.Content.ScriptDir != "" {
		scriptStart := time.Now()
		evaluator = scripting.NewEvaluator(logger, cfg.Content.ScriptInstructionLimit)
		defer evaluator.Close()
		if err := evaluator.LoadDirectory(cfg.Content.ScriptDir); err != nil {
			logger.Fatal("loading scripts", zap.String("dir", cfg.Content.ScriptDir), zap.Error(err))
		}
		hookEval = evaluator
		reactionEval = evaluator
		logger.Info("scripts loaded",
			zap.String("dir", cfg.Content.ScriptDir),
			zap.Duration("elapsed", time.Since(scriptStart)),
		)
	}

	contentStart := time.Now()
	docs, err := content.LoadDirectory(cfg.Content.Dir)
	if err != nil {
		logger.Fatal("loading content", zap.String("dir", cfg.Content.Dir), zap.Error(err))
	}
	registry, err := content.Compile(docs, hookEval)
	if err != nil {
		logger.Fatal("compiling content", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.String("dir", cfg.Content.Dir),
		zap.Int("actions", len(registry.ActionIDs())),
		zap.Duration("elapsed", time.Since(contentStart)),
	)

	store := world.NewStore()
	planner := combat.NewPlanner(store, reactionEval, nil, logger)

	fighters := roster()
	ids := make([]string, len(fighters))
	for i, c := range fighters {
		sb := world.NewStatBlock(c.name, c.armorClass, c.maxHP)
		for ability, score := range c.abilities {
			sb.Ability(ability).Base = score
		}
		registry.PopulateLedger(sb.ResourceLedger())
		ids[i] = store.Add(sb)
		for _, reactionID := range c.reactions {
			def, ok := registry.Reaction(reactionID)
			if !ok {
				logger.Fatal("unknown reaction",
					zap.String("combatant", c.name),
					zap.String("reaction", reactionID),
				)
			}
			if err := planner.Register(ids[i], def); err != nil {
				logger.Fatal("registering reaction", zap.Error(err))
			}
		}
		logger.Info("combatant ready",
			zap.String("name", c.name),
			zap.String("id", ids[i]),
			zap.Int("ac", c.armorClass),
			zap.Int("hp", c.maxHP),
		)
	}

	engine := combat.NewEngine(store, registry, roller, planner, logger)

	// Initiative: d20 + dexterity modifier, ties broken by roster order.
	order := make([]initEntry, len(fighters))
	for i := range fighters {
		sb, _ := store.Entity(ids[i])
		check := dice.NewD20Check()
		check.AddBonus(sb.AbilityModifier(stats.Dexterity))
		result := roller.RollCheck(check)
		order[i] = initEntry{index: i, total: result.Total()}
		logger.Info("initiative",
			zap.String("name", fighters[i].name),
			zap.Int("total", result.Total()),
		)
	}
	sort.SliceStable(order, func(a, b int) bool { return order[a].total > order[b].total })

	winner := runSkirmish(engine, store, registry, fighters, ids, order, cfg.Simulation.Turns, logger)
	if winner >= 0 {
		logger.Info("skirmish over",
			zap.String("winner", fighters[winner].name),
			zap.Int("events", len(engine.Events())),
			zap.Duration("elapsed", time.Since(start)),
		)
	} else {
		logger.Info("skirmish ended without a winner",
			zap.Int("turns", cfg.Simulation.Turns),
			zap.Int("events", len(engine.Events())),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	for i, c := range fighters {
		sb, _ := store.Entity(ids[i])
		logger.Info("final state",
			zap.String("name", c.name),
			zap.Int("hp", sb.HP().Current),
			zap.Int("max_hp", sb.HP().Max),
		)
	}
}

// initEntry pairs a roster index with its rolled initiative total.
type initEntry struct {
	index int
	total int
}

// runSkirmish drives full rounds until one combatant drops or the turn
// budget runs out. Returns the winner's roster index, or -1 on a draw.
func runSkirmish(
	engine *combat.Engine,
	store *world.Store,
	registry *content.Registry,
	fighters []combatant,
	ids []string,
	order []initEntry,
	maxTurns int,
	logger *zap.Logger,
) int {
	for round := 1; round <= maxTurns; round++ {
		logger.Info("round start", zap.Int("round", round))
		for _, entry := range order {
			actorID := ids[entry.index]
			actor, _ := store.Entity(actorID)
			if actor.HP().IsDead() {
				continue
			}
			if err := engine.StartTurn(actorID); err != nil {
				logger.Fatal("starting turn", zap.Error(err))
			}

			opponent := pickOpponent(store, ids, entry.index)
			if opponent < 0 {
				return entry.index
			}
			actionID, targets := chooseAction(store, registry, fighters[entry.index], actorID, ids[opponent])
			if actionID == "" {
				logger.Info("no usable action, passing",
					zap.String("name", fighters[entry.index].name),
				)
				continue
			}

			result, err := engine.Perform(actorID, actionID, targets...)
			if err != nil {
				logger.Warn("action failed",
					zap.String("name", fighters[entry.index].name),
					zap.String("action", actionID),
					zap.Error(err),
				)
				continue
			}
			logOutcomes(logger, store, fighters[entry.index].name, result)

			if target, _ := store.Entity(ids[opponent]); target.HP().IsDead() {
				logger.Info("combatant down", zap.String("name", fighters[opponent].name))
				return entry.index
			}
		}
	}
	return -1
}

// pickOpponent returns the roster index of the first living combatant other
// than self, or -1 when none remain.
func pickOpponent(store *world.Store, ids []string, self int) int {
	for i, id := range ids {
		if i == self {
			continue
		}
		if sb, ok := store.Entity(id); ok && !sb.HP().IsDead() {
			return i
		}
	}
	return -1
}

// chooseAction walks the combatant's preference list and returns the first
// usable action with its targets. Self-healing is skipped above half health.
func chooseAction(store *world.Store, registry *content.Registry, c combatant, actorID, opponentID string) (string, []string) {
	actor, _ := store.Entity(actorID)
	for _, id := range c.actions {
		a, ok := registry.Action(id)
		if !ok {
			continue
		}
		var targets []string
		switch a.Targeting {
		case combat.TargetSelf:
			if a.Healing != nil && actor.HP().Current*2 > actor.HP().Max {
				continue
			}
		default:
			targets = []string{opponentID}
		}
		if combat.ActionUsable(store, actorID, a, targets) == nil {
			return id, targets
		}
	}
	return "", nil
}

func logOutcomes(logger *zap.Logger, store *world.Store, actorName string, result *combat.ActionResult) {
	for _, outcome := range result.Outcomes {
		fields := []zap.Field{
			zap.String("actor", actorName),
			zap.String("action", result.ActionID),
		}
		if target, ok := store.Entity(outcome.Target); ok {
			fields = append(fields,
				zap.String("target", target.Name()),
				zap.Int("target_hp", target.HP().Current),
			)
		}
		switch {
		case outcome.Cancelled:
			fields = append(fields, zap.Bool("cancelled", true))
		case outcome.AttackRoll != nil:
			fields = append(fields,
				zap.Int("attack_total", outcome.AttackRoll.Total()),
				zap.Int("vs_ac", outcome.AttackDC),
				zap.Bool("hit", outcome.Hit),
				zap.Bool("crit", outcome.Crit),
			)
		case outcome.SaveRoll != nil:
			fields = append(fields,
				zap.Int("save_total", outcome.SaveRoll.Total()),
				zap.Int("vs_dc", outcome.SaveDC),
				zap.Bool("saved", outcome.Saved),
			)
		}
		if outcome.DamageDealt > 0 {
			fields = append(fields, zap.Int("damage", outcome.DamageDealt))
		}
		if outcome.Healing > 0 {
			fields = append(fields, zap.Int("healing", outcome.Healing))
		}
		if outcome.EffectApplied != "" {
			fields = append(fields, zap.String("effect", outcome.EffectApplied))
		}
		logger.Info("outcome", fields...)
	}
}
