package sim

import (
	"testing"

	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world/worldtest"
)

func fixture(b *worldtest.Builder) *Sim {
	return FromState(b.State(), b.Terrain()["W1N1"])
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(Options{Seed: 42})
	b := Generate(Options{Seed: 42})
	if a.terrain.Grid != b.terrain.Grid {
		t.Error("expected equal terrain for equal seeds")
	}
	ga, gb := a.State(), b.State()
	if len(ga.Objects) != len(gb.Objects) {
		t.Fatalf("expected equal object counts, got %d and %d", len(ga.Objects), len(gb.Objects))
	}
	for i := range ga.Objects {
		if ga.Objects[i].ID != gb.Objects[i].ID || ga.Objects[i].Pos != gb.Objects[i].Pos {
			t.Errorf("object %d differs: %+v vs %+v", i, ga.Objects[i], gb.Objects[i])
		}
	}
}

func TestGenerate_PlacesColony(t *testing.T) {
	s := Generate(Options{Seed: 7, Sources: 3})
	gs := s.State()
	counts := map[model.ObjectKind]int{}
	for _, o := range gs.Objects {
		counts[o.Kind]++
		if s.terrain.At(o.Pos.X, o.Pos.Y) == model.Wall {
			t.Errorf("expected %s placed off walls, got %v", o.Kind, o.Pos)
		}
	}
	if counts[model.KindSpawn] != 1 {
		t.Errorf("expected 1 spawn, got %d", counts[model.KindSpawn])
	}
	if counts[model.KindSource] == 0 || counts[model.KindController] != 1 {
		t.Errorf("expected sources and a controller, got %+v", counts)
	}
	if gs.Rooms[0].EnergyAvailable != spawnCapacity || gs.Rooms[0].EnergyCapacity != spawnCapacity {
		t.Errorf("expected room energy %d/%d, got %d/%d", spawnCapacity, spawnCapacity, gs.Rooms[0].EnergyAvailable, gs.Rooms[0].EnergyCapacity)
	}
	if s.terrain.At(0, 10) != model.Wall {
		t.Error("expected walled room edge")
	}
}

func TestStep_Harvest(t *testing.T) {
	s := fixture(worldtest.New("W1N1").Source("src", 10, 10, 3000).Unit("alice", 11, 10, 0, 50))
	st := s.Step([]model.Intent{{Unit: "alice", Action: model.IntentHarvest, Target: "src"}})
	if st.Harvested != harvestPower {
		t.Errorf("expected %d harvested, got %d", harvestPower, st.Harvested)
	}
	gs := s.State()
	if gs.Units[0].Store.Energy != harvestPower {
		t.Errorf("expected unit energy %d, got %d", harvestPower, gs.Units[0].Store.Energy)
	}
	if gs.Tick != 2 {
		t.Errorf("expected tick 2, got %d", gs.Tick)
	}
}

func TestStep_RejectsOutOfRangeAndWrongKind(t *testing.T) {
	s := fixture(worldtest.New("W1N1").Source("src", 10, 10, 3000).Controller("ctrl", 40, 40).Unit("alice", 20, 20, 10, 50))
	st := s.Step([]model.Intent{
		{Unit: "alice", Action: model.IntentHarvest, Target: "src"},
		{Unit: "alice", Action: model.IntentBuild, Target: "ctrl"},
	})
	if st.Rejected != 2 {
		t.Errorf("expected 2 rejected, got %d", st.Rejected)
	}
}

func TestStep_MoveBlockedAndFatigue(t *testing.T) {
	s := fixture(worldtest.New("W1N1").Wall(11, 10).Swamp(10, 11).Unit("alice", 10, 10, 0, 50))
	st := s.Step([]model.Intent{{Unit: "alice", Action: model.IntentMove, Direction: model.Right}})
	if st.Moves != 0 || st.Rejected != 1 {
		t.Errorf("expected move into wall rejected, got %+v", st)
	}

	s.Step([]model.Intent{{Unit: "alice", Action: model.IntentMove, Direction: model.Bottom}})
	u := s.State().Units[0]
	if u.Pos.X != 10 || u.Pos.Y != 11 {
		t.Fatalf("expected unit at 10,11, got %v", u.Pos)
	}
	// two heavy parts on swamp, minus two move parts' recovery
	if want := 2*swampFatigue - 2*2; u.Fatigue != want {
		t.Errorf("expected fatigue %d, got %d", want, u.Fatigue)
	}
	st = s.Step([]model.Intent{{Unit: "alice", Action: model.IntentMove, Direction: model.Bottom}})
	if st.Rejected != 1 {
		t.Errorf("expected tired unit's move rejected, got %+v", st)
	}
}

func TestStep_SpawnLifecycle(t *testing.T) {
	s := fixture(worldtest.New("W1N1").Spawn("spawn1", 25, 25, 300, 300))
	body := worldtest.DefaultBody
	st := s.Step([]model.Intent{{Action: model.IntentSpawn, Target: "spawn1", Body: body, Name: "2-0"}})
	if len(st.Spawned) != 1 {
		t.Fatalf("expected 1 spawned, got %+v", st)
	}
	gs := s.State()
	if len(gs.Units) != 1 || !gs.Units[0].Spawning {
		t.Fatalf("expected one spawning unit, got %+v", gs.Units)
	}
	if gs.Units[0].Store.Capacity != model.CarryCapacity {
		t.Errorf("expected capacity %d, got %d", model.CarryCapacity, gs.Units[0].Store.Capacity)
	}
	if gs.Rooms[0].EnergyAvailable != 300-model.BodyCost(body)+spawnTrickle {
		t.Errorf("expected spawn energy spent, got %d", gs.Rooms[0].EnergyAvailable)
	}

	for range spawnTimePerPart*len(body) - 1 {
		s.Step(nil)
	}
	u := s.State().Units[0]
	if u.Spawning {
		t.Fatal("expected unit to finish spawning")
	}
	if u.Pos.RangeTo(model.Position{X: 25, Y: 25, Room: "W1N1"}) != 1 {
		t.Errorf("expected unit beside spawn, got %v", u.Pos)
	}
}

func TestStep_BuildCompletesExtension(t *testing.T) {
	s := fixture(worldtest.New("W1N1").
		Spawn("spawn1", 25, 25, 300, 300).
		Site("site", 12, 10, 98, 100).
		Unit("alice", 10, 10, 50, 50))
	st := s.Step([]model.Intent{{Unit: "alice", Action: model.IntentBuild, Target: "site"}})
	if st.Built != 2 || len(st.Finished) != 1 {
		t.Fatalf("expected site finished with 2 progress, got %+v", st)
	}
	gs := s.State()
	for _, o := range gs.Objects {
		if o.ID == "site" {
			t.Error("expected site removed")
		}
	}
	if gs.Rooms[0].EnergyCapacity != 300+extensionEnergy {
		t.Errorf("expected capacity %d, got %d", 300+extensionEnergy, gs.Rooms[0].EnergyCapacity)
	}
}

func TestStep_UpgradeLevelsController(t *testing.T) {
	s := fixture(worldtest.New("W1N1").Controller("ctrl", 10, 10).Unit("alice", 12, 10, 50, 50))
	s.state.Objects[0].Progress = progressTotal(1) - 1
	st := s.Step([]model.Intent{{Unit: "alice", Action: model.IntentUpgrade, Target: "ctrl"}})
	if st.LevelUps != 1 {
		t.Fatalf("expected a level up, got %+v", st)
	}
	if c := s.State().Objects[0]; c.Level != 2 || c.ProgressTotal != progressTotal(2) {
		t.Errorf("expected level 2, got %+v", c)
	}
}
