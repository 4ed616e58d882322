package sim

import (
	"log/slog"
	"math/rand"
	"slices"

	"github.com/nstehr/hive/model"
)

const (
	regenTicks       = 300
	spawnTimePerPart = 3
	harvestPower     = 2  // energy per work part per tick
	buildPower       = 5  // progress per work part per tick
	upgradePower     = 1  // progress per work part per tick
	moveFatigue      = 2  // fatigue per heavy part on plain
	swampFatigue     = 10 // fatigue per heavy part on swamp
	spawnTrickle     = 1  // energy a spawn refills per tick while below capacity
	extensionEnergy  = 50 // capacity added by a finished extension site
)

// Sim holds the authoritative state of one generated room.
type Sim struct {
	seed     int64
	seq      int
	rng      *rand.Rand
	terrain  *model.RoomTerrain
	state    model.GameState
	spawning map[string]int // unit name → ticks left
}

// Stats summarises what one Step applied.
type Stats struct {
	Tick        int
	Harvested   int
	Built       int
	Upgraded    int
	Transferred int
	Moves       int
	Rejected    int
	Spawned     []string
	Finished    []string // site ids completed this tick
	LevelUps    int
}

// State returns a copy of the current state for the controller.
func (s *Sim) State() model.GameState {
	gs := s.state
	gs.Rooms = slices.Clone(s.state.Rooms)
	gs.Objects = slices.Clone(s.state.Objects)
	gs.Units = make([]model.Unit, len(s.state.Units))
	for i, u := range s.state.Units {
		u.Body = slices.Clone(u.Body)
		gs.Units[i] = u
	}
	return gs
}

func (s *Sim) Terrain() map[string]*model.RoomTerrain {
	return map[string]*model.RoomTerrain{s.terrain.Room: s.terrain}
}

func (s *Sim) Room() string { return s.terrain.Room }

// Step applies one tick of intents in submission order, then advances
// regeneration, fatigue and spawning. Intents that are no longer valid
// against the live state are counted as rejected and skipped.
func (s *Sim) Step(intents []model.Intent) Stats {
	st := Stats{Tick: s.state.Tick}
	for _, in := range intents {
		if !s.apply(in, &st) {
			st.Rejected++
			slog.Debug("sim rejected intent", "tick", s.state.Tick, "unit", in.Unit, "action", in.Action, "target", in.Target)
		}
	}
	s.finishSpawning()
	s.regenerate()
	s.refreshRoomEnergy()
	s.state.Tick++
	return st
}

func (s *Sim) apply(in model.Intent, st *Stats) bool {
	if in.Action == model.IntentSpawn {
		return s.spawn(in, st)
	}
	u := s.unit(in.Unit)
	if u == nil || u.Spawning {
		return false
	}
	switch in.Action {
	case model.IntentSay:
		return true
	case model.IntentMove:
		return s.move(u, in.Direction, st)
	}

	o := s.object(in.Target)
	if o == nil || o.Kind != targetKinds[in.Action] || u.Pos.RangeTo(o.Pos) > rangeFor(in.Action) {
		return false
	}
	work := u.ActiveParts(model.Work)
	switch in.Action {
	case model.IntentHarvest:
		n := min(harvestPower*work, o.Store.Energy, u.Store.Free())
		if n <= 0 {
			return false
		}
		o.Store.Energy -= n
		u.Store.Energy += n
		st.Harvested += n
	case model.IntentTransfer:
		n := min(u.Store.Energy, o.Store.Free())
		if in.Amount > 0 {
			n = min(n, in.Amount)
		}
		if n <= 0 {
			return false
		}
		u.Store.Energy -= n
		o.Store.Energy += n
		st.Transferred += n
	case model.IntentUpgrade:
		n := min(upgradePower*work, u.Store.Energy)
		if n <= 0 {
			return false
		}
		u.Store.Energy -= n
		o.Progress += n
		st.Upgraded += n
		if o.Progress >= o.ProgressTotal {
			o.Level++
			o.Progress -= o.ProgressTotal
			o.ProgressTotal = progressTotal(o.Level)
			st.LevelUps++
		}
	case model.IntentBuild:
		n := min(buildPower*work, u.Store.Energy, o.ProgressTotal-o.Progress)
		if n <= 0 {
			return false
		}
		u.Store.Energy -= n
		o.Progress += n
		st.Built += n
		if o.Progress >= o.ProgressTotal {
			s.completeSite(o.ID)
			st.Finished = append(st.Finished, in.Target)
		}
	default:
		return false
	}
	return true
}

var targetKinds = map[model.IntentAction]model.ObjectKind{
	model.IntentHarvest:  model.KindSource,
	model.IntentTransfer: model.KindSpawn,
	model.IntentUpgrade:  model.KindController,
	model.IntentBuild:    model.KindSite,
}

func rangeFor(action model.IntentAction) int {
	switch action {
	case model.IntentUpgrade, model.IntentBuild:
		return 3
	default:
		return 1
	}
}

func (s *Sim) move(u *model.Unit, d model.Direction, st *Stats) bool {
	if u.Fatigue > 0 || u.ActiveParts(model.Move) == 0 {
		return false
	}
	to := u.Pos.Step(d)
	if to == u.Pos || !s.walkable(to) {
		return false
	}
	heavy := len(u.Body) - u.ActiveParts(model.Move)
	per := moveFatigue
	if s.terrain.At(to.X, to.Y) == model.Swamp {
		per = swampFatigue
	}
	u.Pos = to
	u.Fatigue += heavy * per
	st.Moves++
	return true
}

// walkable is false for walls, other units, and every object except
// construction sites.
func (s *Sim) walkable(p model.Position) bool {
	if !model.InRoom(p.X, p.Y) || s.terrain.At(p.X, p.Y) == model.Wall {
		return false
	}
	for _, u := range s.state.Units {
		if u.Pos == p {
			return false
		}
	}
	for _, o := range s.state.Objects {
		if o.Pos == p && o.Kind != model.KindSite {
			return false
		}
	}
	return true
}

func (s *Sim) spawn(in model.Intent, st *Stats) bool {
	sp := s.object(in.Target)
	if sp == nil || sp.Kind != model.KindSpawn || sp.Spawning != "" || in.Name == "" || s.unit(in.Name) != nil {
		return false
	}
	cost := model.BodyCost(in.Body)
	if len(in.Body) == 0 || sp.Store.Energy < cost {
		return false
	}
	sp.Store.Energy -= cost
	sp.Spawning = in.Name
	capacity := 0
	for _, p := range in.Body {
		if p == model.Carry {
			capacity += model.CarryCapacity
		}
	}
	s.state.Units = append(s.state.Units, model.Unit{
		ID: s.newID("unit"), Name: in.Name, My: true, Pos: sp.Pos,
		Store: model.Store{Capacity: capacity}, Body: slices.Clone(in.Body), Spawning: true,
	})
	s.spawning[in.Name] = spawnTimePerPart * len(in.Body)
	st.Spawned = append(st.Spawned, in.Name)
	return true
}

// finishSpawning counts down spawning units and steps each finished one out
// onto the first free tile next to its spawn. A unit with nowhere to go
// waits another tick.
func (s *Sim) finishSpawning() {
	for i := range s.state.Objects {
		sp := &s.state.Objects[i]
		if sp.Kind != model.KindSpawn || sp.Spawning == "" {
			continue
		}
		name := sp.Spawning
		s.spawning[name]--
		if s.spawning[name] > 0 {
			continue
		}
		u := s.unit(name)
		for _, n := range sp.Pos.Neighbors() {
			if s.walkable(n) {
				u.Pos = n
				u.Spawning = false
				sp.Spawning = ""
				delete(s.spawning, name)
				break
			}
		}
	}
}

func (s *Sim) regenerate() {
	for i := range s.state.Units {
		u := &s.state.Units[i]
		u.Fatigue = max(0, u.Fatigue-2*u.ActiveParts(model.Move))
	}
	for i := range s.state.Objects {
		o := &s.state.Objects[i]
		switch o.Kind {
		case model.KindSource:
			o.TicksToRegeneration--
			if o.TicksToRegeneration <= 0 {
				o.Store.Energy = o.Store.Capacity
				o.TicksToRegeneration = regenTicks
			}
		case model.KindSpawn:
			if o.Store.Energy < o.Store.Capacity {
				o.Store.Energy += spawnTrickle
			}
		}
	}
}

// completeSite removes a finished site. Extensions grow the first spawn's
// store, which stands in for the extension's own capacity.
func (s *Sim) completeSite(id string) {
	idx := slices.IndexFunc(s.state.Objects, func(o model.Object) bool { return o.ID == id })
	if idx < 0 {
		return
	}
	site := s.state.Objects[idx]
	s.state.Objects = slices.Delete(s.state.Objects, idx, idx+1)
	if site.StructureType != "extension" {
		return
	}
	for i := range s.state.Objects {
		if s.state.Objects[i].Kind == model.KindSpawn {
			s.state.Objects[i].Store.Capacity += extensionEnergy
			return
		}
	}
}

func (s *Sim) refreshRoomEnergy() {
	for i := range s.state.Rooms {
		r := &s.state.Rooms[i]
		r.EnergyAvailable, r.EnergyCapacity = 0, 0
		for _, o := range s.state.Objects {
			if o.Kind == model.KindSpawn && o.Pos.Room == r.Name {
				r.EnergyAvailable += o.Store.Energy
				r.EnergyCapacity += o.Store.Capacity
			}
		}
	}
}

func (s *Sim) unit(name string) *model.Unit {
	for i := range s.state.Units {
		if s.state.Units[i].Name == name {
			return &s.state.Units[i]
		}
	}
	return nil
}

func (s *Sim) object(id string) *model.Object {
	for i := range s.state.Objects {
		if s.state.Objects[i].ID == id {
			return &s.state.Objects[i]
		}
	}
	return nil
}

// FromState wraps an existing state, for replaying a recorded tick or
// hand-built fixtures. Units already marked spawning finish on the next Step.
func FromState(gs model.GameState, terrain *model.RoomTerrain) *Sim {
	s := &Sim{
		seed:     int64(gs.Tick),
		rng:      rand.New(rand.NewSource(int64(gs.Tick))),
		terrain:  terrain,
		spawning: make(map[string]int),
	}
	s.state = gs
	s.state = s.State()
	return s
}
