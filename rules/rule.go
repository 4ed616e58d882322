package rules

import "github.com/expr-lang/expr/vm"

// ActionFunc issues colony actions when a rule's condition is true.
type ActionFunc func(env RuleEnv) error

// Rule is a condition → action pair evaluated once per owned room per tick.
// Category + Exclusive stop two rules from competing for the same spawn.
type Rule struct {
	Name         string      // human-readable identifier
	Priority     int         // higher = evaluated first
	Category     string      // grouping for exclusive semantics
	Exclusive    bool        // if true, blocks lower-priority rules in same category
	ConditionSrc string      // expr source
	program      *vm.Program // compiled bytecode
	Action       ActionFunc
}
