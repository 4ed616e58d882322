// Package nav moves units one step per tick toward a destination, routing
// around terrain and around the tiles other units hold this tick.
package nav

import (
	"log/slog"

	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world"
)

type Outcome int

const (
	// Arrived means the unit is already within range 1 of the destination.
	Arrived Outcome = iota
	// Moving means a step was issued, or the unit must wait (fatigue) and retry.
	Moving
	// NoPath means no route exists this tick; nothing was issued.
	NoPath
)

func (o Outcome) String() string {
	switch o {
	case Arrived:
		return "arrived"
	case Moving:
		return "moving"
	case NoPath:
		return "no_path"
	}
	return "unknown"
}

// Planner computes a fresh path on every call. Paths are never cached since
// the occupancy overlay changes whenever any unit moves.
type Planner struct {
	World  world.World
	MaxOps int
}

func NewPlanner(w world.World, maxOps int) *Planner {
	if maxOps <= 0 {
		maxOps = DefaultMaxOps
	}
	return &Planner{World: w, MaxOps: maxOps}
}

// MoveToward issues at most one Move for u toward dest.
func (p *Planner) MoveToward(u model.Unit, dest model.Position) Outcome {
	if u.Pos.IsNear(dest) {
		return Arrived
	}
	overlay := BuildOverlay(p.World, u.Pos.Room, u.Name)
	path, ok := FindPath(p.World, overlay, u.Pos, dest, p.MaxOps)
	if !ok || len(path) == 0 {
		slog.Debug("no path", "unit", u.Name, "from", u.Pos, "to", dest)
		return NoPath
	}

	dir := u.Pos.DirectionTo(path[0])
	code := p.World.Move(u, dir)
	switch code {
	case world.OK, world.ErrTired, world.ErrBusy:
		return Moving
	default:
		slog.Warn("move rejected", "unit", u.Name, "direction", dir, "code", code)
		return NoPath
	}
}
