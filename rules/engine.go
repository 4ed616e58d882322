package rules

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine runs compiled rules against each owned room every tick.
// Rules fire in priority order; exclusive rules block lower-priority rules
// in the same category, so a room's spawn only gets one order per tick.
type Engine struct {
	mu    sync.RWMutex
	rules []*Rule

	// stateMu guards the name sequence and diagnostics throttle; one engine
	// serves every connected session.
	stateMu sync.Mutex
	// unit names are "<tick>-<n>" with n counting spawns within the tick
	nameTick int
	nameSeq  int

	lastDiagTick int
}

// NewEngine compiles all rule conditions into expr bytecode and sorts by priority.
func NewEngine(rules []*Rule) (*Engine, error) {
	compiled, err := compileRules(rules)
	if err != nil {
		return nil, err
	}
	return &Engine{rules: compiled, lastDiagTick: -diagEvery}, nil
}

const diagEvery = 100

// Evaluate runs all rules for one room and returns the names of those that fired.
func (e *Engine) Evaluate(env RuleEnv) []string {
	e.mu.RLock()
	rules := e.rules
	e.mu.RUnlock()

	env.nextName = func() string { return e.nextName(env.Tick) }
	fired := make(map[string]bool) // category → exclusive rule already fired

	var names []string
	for _, r := range rules {
		if fired[r.Category] {
			continue
		}

		result, err := vm.Run(r.program, env)
		if err != nil {
			slog.Warn("rule condition error", "rule", r.Name, "room", env.Room.Name, "error", err)
			continue
		}

		match, ok := result.(bool)
		if !ok || !match {
			continue
		}

		names = append(names, r.Name)
		slog.Debug("rule fired", "rule", r.Name, "room", env.Room.Name, "priority", r.Priority, "category", r.Category)

		if err := r.Action(env); err != nil {
			slog.Error("rule action error", "rule", r.Name, "room", env.Room.Name, "error", err)
		}

		if r.Exclusive {
			fired[r.Category] = true
		}
	}

	if len(names) == 0 {
		e.logIdleDiagnostics(env)
	}
	return names
}

// Swap atomically replaces the rule set (called on config reload). Compiles
// first; if compilation fails the old rules remain active.
func (e *Engine) Swap(newRules []*Rule) error {
	compiled, err := compileRules(newRules)
	if err != nil {
		return err
	}
	names := make([]string, len(compiled))
	for i, r := range compiled {
		names[i] = r.Name
	}
	e.mu.Lock()
	e.rules = compiled
	e.mu.Unlock()
	slog.Info("rule set swapped", "count", len(compiled), "rules", names)
	return nil
}

func (e *Engine) Rules() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

func (e *Engine) nextName(tick int) string {
	e.stateMu.Lock()
	defer e.stateMu.Unlock()
	if tick != e.nameTick {
		e.nameTick, e.nameSeq = tick, 0
	}
	name := fmt.Sprintf("%d-%d", tick, e.nameSeq)
	e.nameSeq++
	return name
}

// logIdleDiagnostics helps debug "why isn't the colony growing?". Throttled
// to avoid log spam.
func (e *Engine) logIdleDiagnostics(env RuleEnv) {
	e.stateMu.Lock()
	if env.Tick-e.lastDiagTick < diagEvery {
		e.stateMu.Unlock()
		return
	}
	e.lastDiagTick = env.Tick
	e.stateMu.Unlock()
	slog.Info("idle diagnostics",
		"room", env.Room.Name,
		"units", env.TotalUnits(),
		"homed", env.HomedUnits(),
		"energy", env.EnergyAvailable(),
		"bodyCost", env.BodyCost(),
		"spawnIdle", env.SpawnIdle(),
	)
}

func compileRules(rules []*Rule) ([]*Rule, error) {
	for _, r := range rules {
		prog, err := expr.Compile(r.ConditionSrc, expr.Env(RuleEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile rule %q: %w", r.Name, err)
		}
		r.program = prog
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
	return rules, nil
}
