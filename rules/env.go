package rules

import (
	"context"
	"strings"

	"github.com/nstehr/hive/memory"
	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/policy"
	"github.com/nstehr/hive/world"
)

// RuleEnv is the expression environment for one owned room. Methods are
// callable from rule conditions.
type RuleEnv struct {
	Tick   int
	Room   model.Room
	World  world.World
	Census map[policy.Role]int // live units homed in Room, by role
	Body   []model.Part
	Memory *memory.Codec
	Ctx    context.Context

	nextName func() string
}

func (e RuleEnv) RoleCount(role string) int {
	return e.Census[policy.Role(strings.ToLower(role))]
}

func (e RuleEnv) HomedUnits() int {
	n := 0
	for _, c := range e.Census {
		n += c
	}
	return n
}

// TotalUnits counts every owned unit in every room, spawning ones included.
func (e RuleEnv) TotalUnits() int {
	return len(e.World.OwnedUnits())
}

func (e RuleEnv) EnergyAvailable() int { return e.Room.EnergyAvailable }

func (e RuleEnv) EnergyCapacity() int { return e.Room.EnergyCapacity }

func (e RuleEnv) BodyCost() int { return model.BodyCost(e.Body) }

func (e RuleEnv) SpawnIdle() bool {
	_, ok := e.idleSpawn()
	return ok
}

func (e RuleEnv) SiteCount() int {
	return len(e.World.Find(e.Room.Name, model.KindSite))
}

func (e RuleEnv) SourceCount() int {
	return len(e.World.Find(e.Room.Name, model.KindSource))
}

func (e RuleEnv) ControllerLevel() int {
	for _, c := range e.World.Find(e.Room.Name, model.KindController) {
		if c.My {
			return c.Level
		}
	}
	return 0
}

func (e RuleEnv) idleSpawn() (model.Object, bool) {
	for _, s := range e.World.Find(e.Room.Name, model.KindSpawn) {
		if s.My && s.Spawning == "" {
			return s, true
		}
	}
	return model.Object{}, false
}
