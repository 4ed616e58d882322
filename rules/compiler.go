package rules

import (
	"fmt"

	"github.com/nstehr/hive/policy"
)

// Quota asks for Count live units of Role per owned room.
type Quota struct {
	Role  policy.Role
	Count int
}

// ColonyPlan is the spawn posture the compiler turns into rules.
type ColonyPlan struct {
	MaxUnits int // across all rooms
	Quotas   []Quota
}

// Spec is a user rule from configuration.
type Spec struct {
	Name      string
	Priority  int
	Category  string
	Exclusive bool
	Condition string
	Action    string
}

// CompileColony generates the spawn rule set for a plan. Quotas earlier in
// the list get higher priority. Once every quota is met, remaining room under
// MaxUnits is filled with the default role.
func CompileColony(p ColonyPlan) []*Rule {
	var rules []*Rule

	for i, q := range p.Quotas {
		if q.Count <= 0 {
			continue
		}
		rules = append(rules, &Rule{
			Name:      fmt.Sprintf("spawn-%s", q.Role),
			Priority:  500 - 10*i,
			Category:  "spawn",
			Exclusive: true,
			ConditionSrc: fmt.Sprintf(
				`SpawnIdle() && TotalUnits() < %d && RoleCount(%q) < %d && EnergyAvailable() >= BodyCost()`,
				p.MaxUnits, q.Role, q.Count),
			Action: ActionSpawn(q.Role),
		})
	}

	rules = append(rules, &Rule{
		Name:      "spawn-default",
		Priority:  100,
		Category:  "spawn",
		Exclusive: true,
		ConditionSrc: fmt.Sprintf(
			`SpawnIdle() && TotalUnits() < %d && EnergyAvailable() >= BodyCost()`,
			p.MaxUnits),
		Action: ActionSpawn(policy.DefaultRole),
	})

	return rules
}

// CompileSpecs turns configured rules into Rules. Conditions are compiled later
// by NewEngine or Swap.
func CompileSpecs(specs []Spec) ([]*Rule, error) {
	rules := make([]*Rule, 0, len(specs))
	for _, s := range specs {
		action, err := ParseAction(s.Action)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", s.Name, err)
		}
		category := s.Category
		if category == "" {
			category = s.Name
		}
		rules = append(rules, &Rule{
			Name:         s.Name,
			Priority:     s.Priority,
			Category:     category,
			Exclusive:    s.Exclusive,
			ConditionSrc: s.Condition,
			Action:       action,
		})
	}
	return rules, nil
}
