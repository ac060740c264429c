package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/MadsWedendahlKruse/nat20-go/internal/game/combat"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/damage"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/effect"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/resource"
	"github.com/MadsWedendahlKruse/nat20-go/internal/game/world"
)

// Evaluator owns one sandboxed LState holding every loaded content script.
// Hook and reaction scripts are plain Lua global functions named by their
// script id.
//
// Effect-hook evaluation treats script failures as neutral no-ops: the error
// is logged at Warn level and the hook contributes nothing. Reaction trigger
// and plan evaluation propagates errors so the planner can skip the reaction
// and log it.
//
// The mutex serializes all calls; a single LState is not reentrant.
type Evaluator struct {
	mu     sync.Mutex
	state  *lua.LState
	cancel context.CancelFunc
	logger *zap.Logger
}

// NewEvaluator creates an evaluator with a fresh sandboxed VM.
//
// Precondition: logger must be non-nil; instLimit 0 uses the default.
func NewEvaluator(logger *zap.Logger, instLimit int) *Evaluator {
	L, cancel := NewSandboxedState(instLimit)
	return &Evaluator{state: L, cancel: cancel, logger: logger}
}

// Close terminates the VM. The evaluator must not be used afterwards.
func (e *Evaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancel()
	e.state.Close()
}

// LoadDirectory executes every *.lua file in dir in lexicographic order,
// defining their global functions in the VM.
func (e *Evaluator) LoadDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".lua" {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)

	e.mu.Lock()
	defer e.mu.Unlock()
	for _, path := range files {
		if err := e.state.DoFile(path); err != nil {
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	return nil
}

// LoadString executes src directly. Intended for tests and embedded content.
func (e *Evaluator) LoadString(src string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.state.DoString(src); err != nil {
		return fmt.Errorf("scripting: loading inline script: %w", err)
	}
	return nil
}

// call invokes the Lua global fn with args, protected, returning its first
// return value. A missing global returns (LNil, errUndefined).
func (e *Evaluator) call(fn string, args ...lua.LValue) (lua.LValue, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	f := e.state.GetGlobal(fn)
	if f == lua.LNil {
		return lua.LNil, fmt.Errorf("scripting: function %q is not defined", fn)
	}
	if err := e.state.CallByParam(lua.P{Fn: f, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, fmt.Errorf("scripting: calling %q: %w", fn, err)
	}
	ret := e.state.Get(-1)
	e.state.Pop(1)
	return ret, nil
}

// warnHook logs a failed effect-hook script; the hook becomes a no-op.
func (e *Evaluator) warnHook(scriptID string, err error) {
	e.logger.Warn("script hook failed, ignoring",
		zap.String("script", scriptID),
		zap.Error(err),
	)
}

// EvaluateArmorClassHook returns the armor class delta the script computes,
// or 0 on any failure.
func (e *Evaluator) EvaluateArmorClassHook(scriptID string, view effect.View) int {
	ret, err := e.call(scriptID, viewTable(e.state, view))
	if err != nil {
		e.warnHook(scriptID, err)
		return 0
	}
	n, ok := ret.(lua.LNumber)
	if !ok {
		e.warnHook(scriptID, fmt.Errorf("scripting: expected number, got %s", ret.Type()))
		return 0
	}
	return int(n)
}

// EvaluateDamageRollHook lets the script rewrite the rolled component
// subtotals. The script receives the view and the damage table and returns
// either nil (no change) or an array of {type=..., subtotal=...} entries
// replacing the components positionally.
func (e *Evaluator) EvaluateDamageRollHook(scriptID string, view effect.View, result *damage.RollResult) {
	ret, err := e.call(scriptID, viewTable(e.state, view), damageTable(e.state, result))
	if err != nil {
		e.warnHook(scriptID, err)
		return
	}
	if ret == lua.LNil {
		return
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		e.warnHook(scriptID, fmt.Errorf("scripting: expected table, got %s", ret.Type()))
		return
	}
	applyDamageTable(tbl, result)
}

// EvaluateResourceCostHook lets the script adjust the cost map in place.
// The script returns either nil (no change) or a table of
// {resource_id = {tier=..., uses=...}} entries that replaces the cost.
// A returned table holding negative amounts leaves the cost unchanged.
func (e *Evaluator) EvaluateResourceCostHook(scriptID string, view effect.View, actionID string, cost resource.Cost) {
	ret, err := e.call(scriptID, viewTable(e.state, view), lua.LString(actionID), costTable(e.state, cost))
	if err != nil {
		e.warnHook(scriptID, err)
		return
	}
	if ret == lua.LNil {
		return
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		e.warnHook(scriptID, fmt.Errorf("scripting: expected table, got %s", ret.Type()))
		return
	}
	if err := applyCostTable(tbl, cost); err != nil {
		e.warnHook(scriptID, err)
	}
}

// EvaluateActionHook runs a fire-and-forget action side-effect script.
func (e *Evaluator) EvaluateActionHook(scriptID string, view effect.View, actionID string) {
	if _, err := e.call(scriptID, viewTable(e.state, view), lua.LString(actionID)); err != nil {
		e.warnHook(scriptID, err)
	}
}

// EvaluateTrigger runs a reaction trigger script against an event snapshot.
func (e *Evaluator) EvaluateTrigger(script string, reactor *world.StatBlock, ev *combat.Event) (bool, error) {
	ret, err := e.call(script, viewTable(e.state, reactor), eventTable(e.state, ev))
	if err != nil {
		return false, err
	}
	return lua.LVAsBool(ret), nil
}

// EvaluatePlan runs a reaction plan script and parses the returned table
// into a ReactionPlan. A nil return means the reaction declines to act.
func (e *Evaluator) EvaluatePlan(script string, reactor *world.StatBlock, ev *combat.Event) (combat.ReactionPlan, error) {
	ret, err := e.call(script, viewTable(e.state, reactor), eventTable(e.state, ev))
	if err != nil {
		return nil, err
	}
	if ret == lua.LNil {
		return nil, nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("scripting: plan script %q: expected table, got %s", script, ret.Type())
	}
	return parsePlan(tbl)
}
