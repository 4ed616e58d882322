package world

import (
	"sort"

	"github.com/nstehr/hive/model"
)

// Action ranges enforced by the host.
const (
	HarvestRange  = 1
	TransferRange = 1
	BuildRange    = 3
	UpgradeRange  = 3
)

// Snapshot answers World queries from one decoded GameState and validates
// actions the way the host does. Accepted actions are queued as intents; the
// snapshot itself is never mutated by them, so repeated calls within a tick
// observe the same world.
type Snapshot struct {
	state   model.GameState
	terrain map[string]*model.RoomTerrain

	objects   map[string]model.Object
	byRoom    map[string]map[model.ObjectKind][]model.Object
	unitsIn   map[string][]model.Unit
	unitNames map[string]bool
	owned     []model.Unit
	rooms     map[string]model.Room

	intents      []model.Intent
	intentIndex  map[intentKey]int
	spawnsBooked map[string]bool
	energySpent  map[string]int
}

type intentKey struct {
	actor  string
	action model.IntentAction
}

// NewSnapshot indexes gs. Rooms without terrain read as all plain.
func NewSnapshot(gs model.GameState, terrain map[string]*model.RoomTerrain) *Snapshot {
	s := &Snapshot{
		state:        gs,
		terrain:      terrain,
		objects:      make(map[string]model.Object, len(gs.Objects)),
		byRoom:       make(map[string]map[model.ObjectKind][]model.Object),
		unitsIn:      make(map[string][]model.Unit),
		unitNames:    make(map[string]bool, len(gs.Units)),
		rooms:        make(map[string]model.Room, len(gs.Rooms)),
		intentIndex:  make(map[intentKey]int),
		spawnsBooked: make(map[string]bool),
		energySpent:  make(map[string]int),
	}
	for _, r := range gs.Rooms {
		s.rooms[r.Name] = r
	}
	for _, o := range gs.Objects {
		s.objects[o.ID] = o
		kinds := s.byRoom[o.Pos.Room]
		if kinds == nil {
			kinds = make(map[model.ObjectKind][]model.Object)
			s.byRoom[o.Pos.Room] = kinds
		}
		kinds[o.Kind] = append(kinds[o.Kind], o)
	}
	for _, u := range gs.Units {
		s.unitsIn[u.Pos.Room] = append(s.unitsIn[u.Pos.Room], u)
		s.unitNames[u.Name] = true
		if u.My {
			s.owned = append(s.owned, u)
		}
	}
	sort.SliceStable(s.owned, func(i, j int) bool { return s.owned[i].Name < s.owned[j].Name })
	return s
}

func (s *Snapshot) Tick() int { return s.state.Tick }

func (s *Snapshot) Rooms() []model.Room { return s.state.Rooms }

func (s *Snapshot) Room(name string) (model.Room, bool) {
	r, ok := s.rooms[name]
	return r, ok
}

func (s *Snapshot) OwnedUnits() []model.Unit { return s.owned }

func (s *Snapshot) UnitsIn(room string) []model.Unit { return s.unitsIn[room] }

func (s *Snapshot) Resolve(id string) (model.Object, bool) {
	o, ok := s.objects[id]
	return o, ok
}

func (s *Snapshot) Find(room string, kind model.ObjectKind) []model.Object {
	return s.byRoom[room][kind]
}

func (s *Snapshot) TerrainAt(room string, x, y int) model.Terrain {
	if !model.InRoom(x, y) {
		return model.Wall
	}
	t, ok := s.terrain[room]
	if !ok {
		return model.Plain
	}
	return t.At(x, y)
}

// Intents returns the accepted actions in submission order.
func (s *Snapshot) Intents() []model.Intent {
	out := make([]model.Intent, len(s.intents))
	copy(out, s.intents)
	return out
}

// record keeps at most one intent per actor and action kind, matching the
// host's "last call wins" rule within a tick.
func (s *Snapshot) record(actor string, in model.Intent) {
	key := intentKey{actor: actor, action: in.Action}
	if i, ok := s.intentIndex[key]; ok {
		s.intents[i] = in
		return
	}
	s.intentIndex[key] = len(s.intents)
	s.intents = append(s.intents, in)
}

func (s *Snapshot) checkActor(u model.Unit) ResultCode {
	if !u.My {
		return ErrNotOwner
	}
	if u.Spawning {
		return ErrBusy
	}
	return OK
}

func (s *Snapshot) Harvest(u model.Unit, node model.Object) ResultCode {
	if code := s.checkActor(u); code != OK {
		return code
	}
	if u.ActiveParts(model.Work) == 0 {
		return ErrNoBodypart
	}
	if node.Kind != model.KindSource {
		return ErrInvalidTarget
	}
	if u.Store.Full() {
		return ErrFull
	}
	if node.Store.Energy <= 0 {
		return ErrNotEnough
	}
	if u.Pos.RangeTo(node.Pos) > HarvestRange {
		return ErrNotInRange
	}
	s.record(u.Name, model.Intent{Unit: u.Name, Action: model.IntentHarvest, Target: node.ID})
	return OK
}

func (s *Snapshot) Build(u model.Unit, site model.Object) ResultCode {
	if code := s.checkActor(u); code != OK {
		return code
	}
	if u.ActiveParts(model.Work) == 0 {
		return ErrNoBodypart
	}
	if site.Kind != model.KindSite {
		return ErrInvalidTarget
	}
	if _, ok := s.objects[site.ID]; !ok {
		return ErrNotFound
	}
	if u.Store.Empty() {
		return ErrNotEnough
	}
	if u.Pos.RangeTo(site.Pos) > BuildRange {
		return ErrNotInRange
	}
	s.record(u.Name, model.Intent{Unit: u.Name, Action: model.IntentBuild, Target: site.ID})
	return OK
}

func (s *Snapshot) Upgrade(u model.Unit, controller model.Object) ResultCode {
	if code := s.checkActor(u); code != OK {
		return code
	}
	if u.ActiveParts(model.Work) == 0 {
		return ErrNoBodypart
	}
	if controller.Kind != model.KindController {
		return ErrInvalidTarget
	}
	if !controller.My {
		return ErrNotOwner
	}
	if u.Store.Empty() {
		return ErrNotEnough
	}
	if u.Pos.RangeTo(controller.Pos) > UpgradeRange {
		return ErrNotInRange
	}
	s.record(u.Name, model.Intent{Unit: u.Name, Action: model.IntentUpgrade, Target: controller.ID})
	return OK
}

func (s *Snapshot) Transfer(u model.Unit, target model.Object) ResultCode {
	if code := s.checkActor(u); code != OK {
		return code
	}
	if target.Kind != model.KindSpawn {
		return ErrInvalidTarget
	}
	if u.Store.Empty() {
		return ErrNotEnough
	}
	if target.Store.Full() {
		return ErrFull
	}
	if u.Pos.RangeTo(target.Pos) > TransferRange {
		return ErrNotInRange
	}
	amount := min(u.Store.Energy, target.Store.Free())
	s.record(u.Name, model.Intent{Unit: u.Name, Action: model.IntentTransfer, Target: target.ID, Amount: amount})
	return OK
}

func (s *Snapshot) Move(u model.Unit, d model.Direction) ResultCode {
	if code := s.checkActor(u); code != OK {
		return code
	}
	if u.ActiveParts(model.Move) == 0 {
		return ErrNoBodypart
	}
	if _, _, ok := d.Offset(); !ok {
		return ErrInvalidArgs
	}
	if u.Fatigue > 0 {
		return ErrTired
	}
	s.record(u.Name, model.Intent{Unit: u.Name, Action: model.IntentMove, Direction: d})
	return OK
}

func (s *Snapshot) Say(u model.Unit, msg string) ResultCode {
	if !u.My {
		return ErrNotOwner
	}
	s.record(u.Name, model.Intent{Unit: u.Name, Action: model.IntentSay, Message: msg})
	return OK
}

func (s *Snapshot) Spawn(spawn model.Object, body []model.Part, name string) ResultCode {
	if spawn.Kind != model.KindSpawn {
		return ErrInvalidTarget
	}
	if !spawn.My {
		return ErrNotOwner
	}
	if spawn.Spawning != "" || s.spawnsBooked[spawn.ID] {
		return ErrBusy
	}
	if name == "" || s.unitNames[name] {
		return ErrNameExists
	}
	if len(body) == 0 {
		return ErrInvalidArgs
	}
	for _, p := range body {
		if !p.Valid() {
			return ErrInvalidArgs
		}
	}
	cost := model.BodyCost(body)
	if s.rooms[spawn.Pos.Room].EnergyAvailable-s.energySpent[spawn.Pos.Room] < cost {
		return ErrNotEnough
	}
	s.energySpent[spawn.Pos.Room] += cost
	s.spawnsBooked[spawn.ID] = true
	s.unitNames[name] = true
	s.record(spawn.ID, model.Intent{Action: model.IntentSpawn, Target: spawn.ID, Body: body, Name: name})
	return OK
}
