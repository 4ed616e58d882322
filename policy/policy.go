// Package policy decides a new goal for a unit that has none, according to
// its role.
package policy

import (
	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/room"
	"github.com/nstehr/hive/task"
	"github.com/nstehr/hive/world"
)

type Role string

const (
	Gatherer  Role = "gatherer"
	Builder   Role = "builder"
	Upgrader  Role = "upgrader"
	Harvester Role = "harvester"
	Hauler    Role = "hauler"
)

// Roles lists every known role in a fixed order.
var Roles = []Role{Gatherer, Builder, Upgrader, Harvester, Hauler}

// DefaultRole is given to units whose stored role is missing or unknown.
const DefaultRole = Upgrader

func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

// Env is what a policy may consult.
type Env struct {
	World world.World
	Rooms *room.Cache
}

// Assign returns the goal for a unit whose current goal is None. Returning
// None is a valid answer: the unit waits this tick.
func Assign(env Env, u model.Unit, role Role, avoid []string) task.Goal {
	switch role {
	case Gatherer, Builder:
		return assignGatherer(env, u, avoid)
	case Upgrader:
		return assignUpgrader(env, u, avoid)
	case Harvester:
		env.World.Say(u, "harvesting")
		return task.None
	case Hauler:
		return assignHauler(env, u, avoid)
	}
	return assignUpgrader(env, u, avoid)
}

// Gatherers treat any energy at all as full and put it into construction.
func assignGatherer(env Env, u model.Unit, avoid []string) task.Goal {
	if !u.Store.Empty() {
		if sites := env.World.Find(u.Pos.Room, model.KindSite); len(sites) > 0 {
			return task.Build(sites[0].ID)
		}
	}
	return harvestBest(env, u, avoid)
}

func assignUpgrader(env Env, u model.Unit, avoid []string) task.Goal {
	if u.Store.Full() {
		if ctrl, ok := env.Rooms.Controller(env.World, u.Pos.Room); ok {
			return task.Upgrade(ctrl.ID)
		}
		return task.None
	}
	return harvestBest(env, u, avoid)
}

func assignHauler(env Env, u model.Unit, avoid []string) task.Goal {
	if u.Store.Empty() {
		return harvestBest(env, u, avoid)
	}
	for _, spawn := range env.World.Find(u.Pos.Room, model.KindSpawn) {
		if spawn.My && !spawn.Store.Full() {
			return task.Deliver(spawn.ID)
		}
	}
	if ctrl, ok := env.Rooms.Controller(env.World, u.Pos.Room); ok {
		return task.Upgrade(ctrl.ID)
	}
	return task.None
}

func harvestBest(env Env, u model.Unit, avoid []string) task.Goal {
	node, ok := room.BestNode(env.World, env.Rooms, u.Pos.Room, avoid)
	if !ok {
		return task.None
	}
	return task.Harvest(node.ID)
}
