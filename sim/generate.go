// Package sim is an offline host: it generates a room from layered simplex
// noise and applies the intents the controller returns, one tick at a time.
package sim

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/nstehr/hive/model"
)

// Options controls room generation.
type Options struct {
	Seed    int64  // 0 = random
	Room    string
	Player  string
	Sources int
	Sites   int

	WallLevel  float64 // noise above this is wall (0.0–1.0)
	SwampLevel float64 // noise below this is swamp
}

func DefaultOptions() Options {
	return Options{
		Seed:       1,
		Room:       "W1N1",
		Player:     "sim",
		Sources:    2,
		Sites:      2,
		WallLevel:  0.68,
		SwampLevel: 0.30,
	}
}

const (
	spawnCapacity  = 300
	sourceCapacity = 3000
	siteTotal      = 300
)

// Generate builds a fresh room. Equal seeds produce equal rooms, including
// object ids.
func Generate(opts Options) *Sim {
	d := DefaultOptions()
	if opts.Room == "" {
		opts.Room = d.Room
	}
	if opts.Player == "" {
		opts.Player = d.Player
	}
	if opts.Sources <= 0 {
		opts.Sources = d.Sources
	}
	if opts.WallLevel == 0 {
		opts.WallLevel = d.WallLevel
	}
	if opts.SwampLevel == 0 {
		opts.SwampLevel = d.SwampLevel
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	s := &Sim{
		seed:     seed,
		rng:      rand.New(rand.NewSource(seed)),
		terrain:  generateTerrain(opts.Room, seed, opts.WallLevel, opts.SwampLevel),
		spawning: make(map[string]int),
		state: model.GameState{
			Tick:   1,
			Player: opts.Player,
			Rooms:  []model.Room{{Name: opts.Room, Owned: true}},
		},
	}

	center := model.Position{X: model.RoomSize / 2, Y: model.RoomSize / 2, Room: opts.Room}
	s.clear(center, 3)
	s.addObject(model.Object{
		Kind: model.KindSpawn, Pos: center, My: true, Name: "Spawn1",
		Store: model.Store{Energy: spawnCapacity, Capacity: spawnCapacity},
	})

	reach := s.reachable(center)
	placed := map[[2]int]bool{{center.X, center.Y}: true}
	pick := func(minRange int) (model.Position, bool) {
		for range 500 {
			x, y := 2+s.rng.Intn(model.RoomSize-4), 2+s.rng.Intn(model.RoomSize-4)
			p := model.Position{X: x, Y: y, Room: opts.Room}
			if placed[[2]int{x, y}] || p.RangeTo(center) < minRange || !s.touches(p, reach) {
				continue
			}
			placed[[2]int{x, y}] = true
			return p, true
		}
		return model.Position{}, false
	}

	if p, ok := pick(8); ok {
		s.addObject(model.Object{Kind: model.KindController, Pos: p, My: true, Level: 1, ProgressTotal: progressTotal(1)})
	}
	for range opts.Sources {
		if p, ok := pick(5); ok {
			s.addObject(model.Object{
				Kind:                model.KindSource,
				Pos:                 p,
				Store:               model.Store{Energy: sourceCapacity, Capacity: sourceCapacity},
				TicksToRegeneration: regenTicks,
			})
		}
	}
	if p, ok := pick(6); ok {
		s.addObject(model.Object{Kind: model.KindMineral, Pos: p, MineralType: "H", Density: 1 + s.rng.Intn(4)})
	}
	for range opts.Sites {
		if p, ok := pick(2); ok {
			s.addObject(model.Object{Kind: model.KindSite, Pos: p, My: true, StructureType: "extension", ProgressTotal: siteTotal})
		}
	}
	s.refreshRoomEnergy()
	return s
}

func generateTerrain(room string, seed int64, wallLevel, swampLevel float64) *model.RoomTerrain {
	noise := opensimplex.NewNormalized(seed)
	t := &model.RoomTerrain{Room: room}
	for y := range model.RoomSize {
		for x := range model.RoomSize {
			n := octaveNoise(noise, float64(x), float64(y), 3, 0.08, 0.5)
			switch {
			case x == 0 || y == 0 || x == model.RoomSize-1 || y == model.RoomSize-1:
				t.Set(x, y, model.Wall)
			case n > wallLevel:
				t.Set(x, y, model.Wall)
			case n < swampLevel:
				t.Set(x, y, model.Swamp)
			}
		}
	}
	return t
}

// octaveNoise layers several frequencies of normalized noise.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total, amplitude, maxVal := 0.0, 1.0, 0.0
	for range octaves {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}
	return total / maxVal
}

// clear flattens a square around p to plain so the spawn always has exits.
func (s *Sim) clear(p model.Position, radius int) {
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			s.terrain.Set(p.X+dx, p.Y+dy, model.Plain)
		}
	}
}

// reachable flood-fills walkable tiles from start.
func (s *Sim) reachable(start model.Position) map[[2]int]bool {
	seen := map[[2]int]bool{{start.X, start.Y}: true}
	queue := []model.Position{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, n := range p.Neighbors() {
			k := [2]int{n.X, n.Y}
			if seen[k] || s.terrain.At(n.X, n.Y) == model.Wall {
				continue
			}
			seen[k] = true
			queue = append(queue, n)
		}
	}
	return seen
}

// touches reports whether p is walkable and has at least two reachable
// neighbours, so a placed object can be worked from more than one side.
func (s *Sim) touches(p model.Position, reach map[[2]int]bool) bool {
	if s.terrain.At(p.X, p.Y) == model.Wall {
		return false
	}
	n := 0
	for _, nb := range p.Neighbors() {
		if reach[[2]int{nb.X, nb.Y}] {
			n++
		}
	}
	return n >= 2
}

func (s *Sim) addObject(o model.Object) {
	o.ID = s.newID(string(o.Kind))
	s.state.Objects = append(s.state.Objects, o)
}

// newID derives a stable uuid from the seed so replays match.
func (s *Sim) newID(kind string) string {
	s.seq++
	return uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "%d/%s/%d", s.seed, kind, s.seq)).String()
}

// progressTotal is the upgrade progress needed to leave level.
func progressTotal(level int) int {
	return 200 * level * level
}
