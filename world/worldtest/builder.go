// Package worldtest builds small deterministic rooms for tests.
package worldtest

import (
	"fmt"

	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world"
)

// DefaultBody is the worker body the colony spawns by default.
var DefaultBody = []model.Part{model.Move, model.Move, model.Carry, model.Work}

// Builder assembles a single-room GameState plus its terrain.
type Builder struct {
	room    string
	gs      model.GameState
	terrain *model.RoomTerrain
}

// New returns an owned room with 300/300 energy at tick 1.
func New(room string) *Builder {
	return &Builder{
		room: room,
		gs: model.GameState{
			Tick:   1,
			Player: "tester",
			Rooms:  []model.Room{{Name: room, Owned: true, EnergyAvailable: 300, EnergyCapacity: 300}},
		},
		terrain: &model.RoomTerrain{Room: room},
	}
}

func (b *Builder) pos(x, y int) model.Position {
	return model.Position{X: x, Y: y, Room: b.room}
}

func (b *Builder) Tick(tick int) *Builder {
	b.gs.Tick = tick
	return b
}

func (b *Builder) Energy(available int) *Builder {
	b.gs.Rooms[0].EnergyAvailable = available
	return b
}

func (b *Builder) Wall(x, y int) *Builder {
	b.terrain.Set(x, y, model.Wall)
	return b
}

func (b *Builder) Swamp(x, y int) *Builder {
	b.terrain.Set(x, y, model.Swamp)
	return b
}

// WallRing surrounds (x, y) with walls, leaving the listed gaps open.
func (b *Builder) WallRing(x, y int, gaps ...model.Position) *Builder {
	open := make(map[[2]int]bool, len(gaps))
	for _, g := range gaps {
		open[[2]int{g.X, g.Y}] = true
	}
	for _, n := range b.pos(x, y).Neighbors() {
		if !open[[2]int{n.X, n.Y}] {
			b.terrain.Set(n.X, n.Y, model.Wall)
		}
	}
	return b
}

func (b *Builder) Source(id string, x, y, energy int) *Builder {
	b.gs.Objects = append(b.gs.Objects, model.Object{
		ID: id, Kind: model.KindSource, Pos: b.pos(x, y),
		Store: model.Store{Energy: energy, Capacity: 3000},
	})
	return b
}

func (b *Builder) Controller(id string, x, y int) *Builder {
	b.gs.Objects = append(b.gs.Objects, model.Object{
		ID: id, Kind: model.KindController, Pos: b.pos(x, y), My: true, Level: 1, ProgressTotal: 200,
	})
	return b
}

func (b *Builder) Spawn(id string, x, y, energy, capacity int) *Builder {
	b.gs.Objects = append(b.gs.Objects, model.Object{
		ID: id, Kind: model.KindSpawn, Pos: b.pos(x, y), My: true, Name: id,
		Store: model.Store{Energy: energy, Capacity: capacity},
	})
	return b
}

func (b *Builder) Site(id string, x, y, progress, total int) *Builder {
	b.gs.Objects = append(b.gs.Objects, model.Object{
		ID: id, Kind: model.KindSite, Pos: b.pos(x, y), My: true,
		StructureType: "extension", Progress: progress, ProgressTotal: total,
	})
	return b
}

func (b *Builder) Mineral(id string, x, y int) *Builder {
	b.gs.Objects = append(b.gs.Objects, model.Object{
		ID: id, Kind: model.KindMineral, Pos: b.pos(x, y), MineralType: "H", Density: 3,
	})
	return b
}

// Unit adds an owned unit with the default body and the given store.
func (b *Builder) Unit(name string, x, y, energy, capacity int) *Builder {
	b.gs.Units = append(b.gs.Units, model.Unit{
		ID: "id-" + name, Name: name, My: true, Pos: b.pos(x, y),
		Store: model.Store{Energy: energy, Capacity: capacity},
		Body:  append([]model.Part(nil), DefaultBody...),
	})
	return b
}

// Spawning marks the most recently added unit as still materializing.
func (b *Builder) Spawning() *Builder {
	if len(b.gs.Units) == 0 {
		panic("worldtest: Spawning called before Unit")
	}
	b.gs.Units[len(b.gs.Units)-1].Spawning = true
	return b
}

// Stranger adds a unit the player does not own.
func (b *Builder) Stranger(name string, x, y int) *Builder {
	b.gs.Units = append(b.gs.Units, model.Unit{
		ID: "id-" + name, Name: name, Pos: b.pos(x, y),
		Body: []model.Part{model.Move},
	})
	return b
}

func (b *Builder) State() model.GameState { return b.gs }

func (b *Builder) Terrain() map[string]*model.RoomTerrain {
	return map[string]*model.RoomTerrain{b.room: b.terrain}
}

func (b *Builder) Snapshot() *world.Snapshot {
	return world.NewSnapshot(b.gs, b.Terrain())
}

// MustUnit finds an owned unit in a snapshot by name.
func MustUnit(w world.World, name string) model.Unit {
	for _, u := range w.OwnedUnits() {
		if u.Name == name {
			return u
		}
	}
	panic(fmt.Sprintf("worldtest: no unit %q", name))
}
