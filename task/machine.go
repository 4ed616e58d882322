package task

import (
	"log/slog"

	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/nav"
	"github.com/nstehr/hive/room"
	"github.com/nstehr/hive/world"
)

// Mover issues at most one movement step per call.
type Mover interface {
	MoveToward(u model.Unit, dest model.Position) nav.Outcome
}

// Machine executes a unit's goal against the world and decides the next one.
// It holds no per-unit state; everything it needs arrives as arguments.
type Machine struct {
	World world.World
	Mover Mover
	Rooms *room.Cache
}

func NewMachine(w world.World, mover Mover, rooms *room.Cache) *Machine {
	return &Machine{World: w, Mover: mover, Rooms: rooms}
}

// Transition describes one Advance call.
type Transition struct {
	From Goal
	Next Goal
	// Code is the result of the goal's action, or OK when none was attempted.
	Code world.ResultCode
	// Acted is true only when an action ran and the host accepted it.
	Acted bool
	// Move is set when the action was out of range and the planner ran.
	Move       nav.Outcome
	Moved      bool
	PathFailed bool
	Reason     string
}

func (t Transition) Changed() bool { return t.From != t.Next }

var targetKinds = map[Kind]model.ObjectKind{
	KindUpgrade: model.KindController,
	KindHarvest: model.KindSource,
	KindDeliver: model.KindSpawn,
	KindBuild:   model.KindSite,
}

// Advance runs g for u this tick and returns the goal for the next tick.
// For the same world and goal it always picks the same next goal. avoid lists
// node ids the selector should skip when a follow-up harvest is chosen.
func (m *Machine) Advance(u model.Unit, g Goal, avoid []string) Transition {
	t := Transition{From: g, Next: g, Code: world.OK}
	if g.IsNone() {
		t.Reason = "idle"
		return t
	}

	target, ok := m.World.Resolve(g.Target)
	if !ok || target.Kind != targetKinds[g.Kind] {
		return t.clear("unresolved")
	}

	if g.Kind == KindHarvest && u.Store.Full() {
		return t.clear("store full")
	}

	switch g.Kind {
	case KindHarvest:
		t.Code = m.World.Harvest(u, target)
	case KindUpgrade:
		t.Code = m.World.Upgrade(u, target)
	case KindDeliver:
		t.Code = m.World.Transfer(u, target)
	case KindBuild:
		t.Code = m.World.Build(u, target)
	}
	t.Acted = t.Code == world.OK

	switch {
	case t.Code == world.ErrBusy:
		t.Reason = "busy"
		return t
	case t.Code == world.ErrNotInRange:
		return m.approach(t, u, target)
	}

	switch g.Kind {
	case KindHarvest:
		switch t.Code {
		case world.OK:
			t.Reason = "harvesting"
			return t
		case world.ErrFull:
			return t.clear("store full")
		case world.ErrNotEnough:
			return t.clear("node depleted")
		}
	case KindUpgrade:
		switch t.Code {
		case world.OK:
			t.Reason = "upgrading"
			return t
		case world.ErrNotEnough:
			return t.clear("store empty")
		}
	case KindDeliver:
		switch t.Code {
		case world.OK:
			return t.clear("delivered")
		case world.ErrNotEnough:
			t.Next = m.harvestBest(u, avoid)
			t.Reason = "store empty"
			return t
		case world.ErrFull:
			t.Next = m.upgradeController(u)
			t.Reason = "spawn full"
			return t
		}
	case KindBuild:
		switch t.Code {
		case world.OK:
			t.Reason = "building"
			return t
		case world.ErrNotFound, world.ErrNotEnough:
			return t.clear("site gone or store empty")
		}
	}

	slog.Error("unexpected result code", "unit", u.Name, "goal", g, "code", t.Code)
	return t.clear("unexpected code")
}

func (t Transition) clear(reason string) Transition {
	t.Next = None
	t.Reason = reason
	return t
}

func (m *Machine) approach(t Transition, u model.Unit, target model.Object) Transition {
	t.Moved = true
	t.Move = m.Mover.MoveToward(u, target.Pos)
	switch t.Move {
	case nav.NoPath:
		t.PathFailed = true
		return t.clear("no path")
	case nav.Arrived:
		// In range by position but the action still reported range; the
		// target is probably across a room edge. Retry next tick.
		t.Reason = "arrived"
	default:
		t.Reason = "moving"
	}
	return t
}

// harvestBest picks the follow-up node at assignment time so the new goal
// never names an id already known to be gone.
func (m *Machine) harvestBest(u model.Unit, avoid []string) Goal {
	node, ok := room.BestNode(m.World, m.Rooms, u.Pos.Room, avoid)
	if !ok {
		return None
	}
	return Harvest(node.ID)
}

func (m *Machine) upgradeController(u model.Unit) Goal {
	ctrl, ok := m.Rooms.Controller(m.World, u.Pos.Room)
	if !ok {
		return None
	}
	return Upgrade(ctrl.ID)
}
