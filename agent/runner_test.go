package agent

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/nstehr/hive/memory"
	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/nav"
	"github.com/nstehr/hive/policy"
	"github.com/nstehr/hive/rules"
	"github.com/nstehr/hive/task"
	"github.com/nstehr/hive/world"
	"github.com/nstehr/hive/world/worldtest"
)

func newRunner(t *testing.T, store memory.Store, withRules bool) *Runner {
	t.Helper()
	var engine *rules.Engine
	if withRules {
		var err error
		engine, err = rules.NewEngine(rules.CompileColony(rules.ColonyPlan{
			MaxUnits: 5,
			Quotas:   []rules.Quota{{Role: policy.Gatherer, Count: 1}},
		}))
		if err != nil {
			t.Fatalf("NewEngine: %v", err)
		}
	}
	return NewRunner(memory.NewCodec(store), engine, Options{})
}

func TestRunTick_PrunesAbsentUnitsBeforeAssigning(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMapStore()
	r := newRunner(t, store, false)
	r.Memory.SaveUnit(ctx, "ghost", memory.UnitRecord{Role: policy.Gatherer, Goal: task.Harvest("src")})

	w := worldtest.New("W1N1").Source("src", 10, 10, 3000).Unit("alice", 20, 20, 0, 50).Snapshot()
	rep, err := r.RunTick(ctx, w)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if !slices.Equal(rep.Pruned, []string{"ghost"}) {
		t.Errorf("expected ghost pruned, got %v", rep.Pruned)
	}
	if _, ok, _ := r.Memory.LoadUnit(ctx, "ghost"); ok {
		t.Error("expected ghost record removed")
	}
}

func TestRunTick_NewUnitGetsDefaultRoleAndGoal(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, memory.NewMapStore(), false)
	w := worldtest.New("W1N1").
		Source("src", 10, 10, 3000).
		Controller("ctrl", 30, 30).
		Unit("alice", 20, 20, 0, 50).
		Snapshot()

	rep, err := r.RunTick(ctx, w)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	rec, ok, _ := r.Memory.LoadUnit(ctx, "alice")
	if !ok {
		t.Fatal("expected alice's record to be written")
	}
	if rec.Role != policy.DefaultRole || rec.HomeRoom != "W1N1" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Goal != task.Harvest("src") || !rec.Working {
		t.Errorf("expected a working harvest(src), got %s working=%v", rec.Goal, rec.Working)
	}
	if len(rep.Transitions) != 1 || !rep.Transitions[0].Assigned {
		t.Errorf("expected one assignment, got %+v", rep.Transitions)
	}
}

func TestRunTick_SpawnsAndSavesNewUnitMemory(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, memory.NewMapStore(), true)
	w := worldtest.New("W1N1").Tick(9).Spawn("spawn1", 25, 25, 300, 300).Snapshot()

	rep, err := r.RunTick(ctx, w)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if !slices.Equal(rep.Fired, []string{"spawn-gatherer"}) {
		t.Errorf("expected spawn-gatherer, got %v", rep.Fired)
	}
	rec, ok, _ := r.Memory.LoadUnit(ctx, "9-0")
	if !ok || rec.Role != policy.Gatherer {
		t.Errorf("expected gatherer memory for 9-0, got %+v ok=%v", rec, ok)
	}
}

func TestRunTick_UnknownRoleIsReplaced(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMapStore()
	store.Put(ctx, memory.BucketUnits, "alice", []byte(`{"type":"miner","target":null,"working":false,"homeroom":"W1N1"}`))
	r := newRunner(t, store, false)
	w := worldtest.New("W1N1").Controller("ctrl", 30, 30).Unit("alice", 20, 20, 50, 50).Snapshot()

	if _, err := r.RunTick(ctx, w); err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	rec, _, _ := r.Memory.LoadUnit(ctx, "alice")
	if rec.Role != policy.Upgrader || rec.Goal != task.Upgrade("ctrl") {
		t.Errorf("expected upgrader with upgrade(ctrl), got %+v", rec)
	}
}

func TestRunTick_StuckUnitAvoidsNode(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, memory.NewMapStore(), false)
	r.StuckLimit = 2

	// "fenced" has all 8 neighbours free but sits inside a wall fence, so it
	// outscores "open" (three neighbours taken) while being unreachable.
	build := func(tick int) *worldtest.Builder {
		b := worldtest.New("W1N1").Tick(tick).
			Source("fenced", 10, 10, 3000).
			Source("open", 40, 40, 3000).
			Stranger("x1", 39, 39).
			Stranger("x2", 40, 39).
			Stranger("x3", 41, 39).
			Unit("alice", 25, 25, 0, 50)
		for d := -2; d <= 2; d++ {
			b.Wall(10+d, 8).Wall(10+d, 12).Wall(8, 10+d).Wall(12, 10+d)
		}
		return b
	}

	for tick := 1; tick <= 2; tick++ {
		if _, err := r.RunTick(ctx, build(tick).Snapshot()); err != nil {
			t.Fatalf("RunTick %d: %v", tick, err)
		}
		rec, _, _ := r.Memory.LoadUnit(ctx, "alice")
		if !rec.Goal.IsNone() {
			t.Fatalf("tick %d: expected none after a path failure, got %s", tick, rec.Goal)
		}
	}

	rec, _, _ := r.Memory.LoadUnit(ctx, "alice")
	if len(rec.Avoid) != 1 || rec.Avoid[0].ID != "fenced" {
		t.Fatalf("expected fenced to be avoided, got %+v", rec.Avoid)
	}
	if rec.Stuck != 0 {
		t.Errorf("expected stuck counter reset, got %d", rec.Stuck)
	}

	if _, err := r.RunTick(ctx, build(3).Snapshot()); err != nil {
		t.Fatalf("RunTick 3: %v", err)
	}
	rec, _, _ = r.Memory.LoadUnit(ctx, "alice")
	if rec.Goal != task.Harvest("open") {
		t.Errorf("expected harvest(open), got %s", rec.Goal)
	}
}

type failingStore struct {
	memory.Store
	failKey string
}

func (s failingStore) Put(ctx context.Context, bucket, key string, blob []byte) error {
	if key == s.failKey {
		return errors.New("disk on fire")
	}
	return s.Store.Put(ctx, bucket, key, blob)
}

func TestRunTick_UnitFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, failingStore{Store: memory.NewMapStore(), failKey: "alice"}, false)
	w := worldtest.New("W1N1").
		Source("src", 10, 10, 3000).
		Unit("alice", 20, 20, 0, 50).
		Unit("bob", 30, 30, 0, 50).
		Snapshot()

	rep, err := r.RunTick(ctx, w)
	if err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if rep.Errors != 1 {
		t.Errorf("expected 1 unit error, got %d", rep.Errors)
	}
	if _, ok, _ := r.Memory.LoadUnit(ctx, "bob"); !ok {
		t.Error("expected bob to be processed despite alice failing")
	}
	moved := 0
	for _, in := range w.Intents() {
		if in.Action == model.IntentMove {
			moved++
		}
	}
	if moved != 2 {
		t.Errorf("expected both units to move, got %d moves", moved)
	}
}

func TestRunTick_PersistsRebuiltRooms(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, memory.NewMapStore(), false)
	w := worldtest.New("W1N1").Source("src", 10, 10, 3000).Unit("alice", 20, 20, 0, 50).Snapshot()

	if _, err := r.RunTick(ctx, w); err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	rec, ok, _ := r.Memory.LoadRoom(ctx, "W1N1")
	if !ok || !slices.Equal(rec.Sources, []string{"src"}) {
		t.Errorf("expected persisted room record, got %+v ok=%v", rec, ok)
	}
}

func TestRunTick_SpawningUnitIsNotDriven(t *testing.T) {
	ctx := context.Background()
	r := newRunner(t, memory.NewMapStore(), false)
	w := worldtest.New("W1N1").Source("src", 10, 10, 3000).Unit("baby", 20, 20, 0, 50).Spawning().Snapshot()

	if _, err := r.RunTick(ctx, w); err != nil {
		t.Fatalf("RunTick: %v", err)
	}
	if len(w.Intents()) != 0 {
		t.Errorf("expected no intents for a spawning unit, got %+v", w.Intents())
	}
	if rec, ok, _ := r.Memory.LoadUnit(ctx, "baby"); !ok || !rec.Goal.IsNone() {
		t.Errorf("expected an idle record, got %+v ok=%v", rec, ok)
	}
}

func TestTrackStuck_OnlyRealProgressResets(t *testing.T) {
	r := newRunner(t, memory.NewMapStore(), false)
	rec := memory.UnitRecord{Stuck: 1}

	r.trackStuck(&rec, task.None, task.Transition{Code: world.OK, Reason: "idle"}, 5)
	if rec.Stuck != 1 {
		t.Errorf("expected idle tick to keep stuck at 1, got %d", rec.Stuck)
	}
	r.trackStuck(&rec, task.Harvest("src"), task.Transition{Code: world.OK, Reason: "unresolved"}, 5)
	if rec.Stuck != 1 {
		t.Errorf("expected unresolved tick to keep stuck at 1, got %d", rec.Stuck)
	}
	r.trackStuck(&rec, task.Harvest("src"), task.Transition{Code: world.OK, Acted: true}, 5)
	if rec.Stuck != 0 {
		t.Errorf("expected accepted action to reset stuck, got %d", rec.Stuck)
	}
}

func TestTrackStuck_IgnoresNonHarvestPathFailures(t *testing.T) {
	r := newRunner(t, memory.NewMapStore(), false)
	rec := memory.UnitRecord{}
	failed := task.Transition{Code: world.ErrNotInRange, Moved: true, Move: nav.NoPath, PathFailed: true}

	for tick := range 10 {
		r.trackStuck(&rec, task.Upgrade("ctrl"), failed, tick)
	}
	if rec.Stuck != 0 || len(rec.Avoid) != 0 {
		t.Errorf("expected upgrade path failures not counted, got stuck=%d avoid=%+v", rec.Stuck, rec.Avoid)
	}
}

func TestRunTick_SessionsSharingStoreKeepTheirUnits(t *testing.T) {
	ctx := context.Background()
	store := memory.NewMapStore()
	a := newRunner(t, store, false)
	b := newRunner(t, store, false)
	a.SetScope("alpha")
	b.SetScope("beta")

	wa := worldtest.New("W1N1").Source("src", 10, 10, 3000).Unit("alice", 11, 10, 0, 50).Snapshot()
	wb := worldtest.New("W5N5").Source("other", 10, 10, 3000).Unit("bob", 11, 10, 0, 50).Snapshot()
	if _, err := a.RunTick(ctx, wa); err != nil {
		t.Fatalf("RunTick alpha: %v", err)
	}
	rep, err := b.RunTick(ctx, wb)
	if err != nil {
		t.Fatalf("RunTick beta: %v", err)
	}
	if len(rep.Pruned) != 0 {
		t.Errorf("expected beta to prune nothing, got %v", rep.Pruned)
	}
	rec, ok, _ := a.Memory.LoadUnit(ctx, "alice")
	if !ok || rec.Goal != task.Harvest("src") {
		t.Errorf("expected alice to keep harvest(src), got ok=%v goal=%s", ok, rec.Goal)
	}
}
