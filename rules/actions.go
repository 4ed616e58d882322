package rules

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/nstehr/hive/memory"
	"github.com/nstehr/hive/policy"
	"github.com/nstehr/hive/world"
)

// ActionSpawn creates a unit of the given role from the room's first idle
// spawn and writes its memory record right away, so the unit starts its first
// tick with a role and home room.
func ActionSpawn(role policy.Role) ActionFunc {
	return func(env RuleEnv) error {
		spawn, ok := env.idleSpawn()
		if !ok {
			return nil
		}
		name := env.nextName()
		code := env.World.Spawn(spawn, env.Body, name)
		if code != world.OK {
			slog.Warn("couldn't spawn", "spawn", spawn.ID, "name", name, "role", role, "code", code)
			return nil
		}
		slog.Info("spawning unit", "spawn", spawn.ID, "name", name, "role", role, "room", env.Room.Name)
		rec := memory.UnitRecord{Role: role, HomeRoom: env.Room.Name}
		if err := env.Memory.SaveUnit(env.Ctx, name, rec); err != nil {
			return fmt.Errorf("save memory of %s: %w", name, err)
		}
		return nil
	}
}

// ParseAction turns a config action string into an ActionFunc. The only
// supported form is "spawn:<role>".
func ParseAction(s string) (ActionFunc, error) {
	verb, arg, _ := strings.Cut(s, ":")
	switch verb {
	case "spawn":
		role, ok := policy.ParseRole(arg)
		if !ok {
			return nil, fmt.Errorf("action %q: unknown role %q", s, arg)
		}
		return ActionSpawn(role), nil
	}
	return nil, fmt.Errorf("unknown action %q", s)
}
