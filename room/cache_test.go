package room_test

import (
	"testing"

	"github.com/nstehr/hive/room"
	"github.com/nstehr/hive/world/worldtest"
)

func TestCache_RebuildsWhenStale(t *testing.T) {
	c := room.NewCache(10)
	w := worldtest.New("W1N1").Source("src", 5, 5, 3000).Snapshot()
	rec := c.Get(w, "W1N1")
	if rec.BuiltAt != 1 || len(rec.Sources) != 1 {
		t.Fatalf("unexpected record %+v", rec)
	}

	later := worldtest.New("W1N1").Tick(5).Source("src", 5, 5, 3000).Source("src2", 9, 9, 3000).Snapshot()
	if rec := c.Get(later, "W1N1"); rec.BuiltAt != 1 {
		t.Errorf("expected fresh record from tick 1, got built at %d", rec.BuiltAt)
	}

	stale := worldtest.New("W1N1").Tick(11).Source("src", 5, 5, 3000).Source("src2", 9, 9, 3000).Snapshot()
	rec = c.Get(stale, "W1N1")
	if rec.BuiltAt != 11 {
		t.Errorf("expected rebuild at tick 11, got %d", rec.BuiltAt)
	}
	if len(rec.Sources) != 2 {
		t.Errorf("expected 2 sources after rebuild, got %d", len(rec.Sources))
	}
}

func TestCache_RecordsControllerAndMineral(t *testing.T) {
	w := worldtest.New("W1N1").
		Controller("ctrl", 25, 25).
		Mineral("min", 40, 40).
		Snapshot()
	rec := room.NewCache(0).Get(w, "W1N1")
	if rec.Controller != "ctrl" {
		t.Errorf("expected controller ctrl, got %q", rec.Controller)
	}
	if rec.Mineral == nil || rec.Mineral.ID != "min" || rec.Mineral.Type != "H" || rec.Mineral.Density != 3 {
		t.Errorf("unexpected mineral %+v", rec.Mineral)
	}
}

func TestCache_DrainReturnsRebuiltOnce(t *testing.T) {
	c := room.NewCache(0)
	w := worldtest.New("W1N1").Source("src", 5, 5, 3000).Snapshot()
	c.Get(w, "W1N1")

	if got := c.Drain(); len(got) != 1 {
		t.Errorf("expected 1 drained record, got %d", len(got))
	}
	if got := c.Drain(); len(got) != 0 {
		t.Errorf("expected drain to be empty on second call, got %d", len(got))
	}
}

func TestCache_SeedIsNotDirty(t *testing.T) {
	c := room.NewCache(100)
	c.Seed("W1N1", room.Record{Sources: []string{"src"}, BuiltAt: 1})
	w := worldtest.New("W1N1").Tick(3).Source("src", 5, 5, 3000).Snapshot()

	if rec := c.Get(w, "W1N1"); rec.BuiltAt != 1 {
		t.Errorf("expected seeded record, got built at %d", rec.BuiltAt)
	}
	if got := c.Drain(); len(got) != 0 {
		t.Errorf("expected nothing to persist, got %d", len(got))
	}
}

func TestCache_ControllerResolves(t *testing.T) {
	w := worldtest.New("W1N1").Controller("ctrl", 25, 25).Snapshot()
	ctrl, ok := room.NewCache(0).Controller(w, "W1N1")
	if !ok || ctrl.ID != "ctrl" {
		t.Errorf("expected ctrl, got %q ok=%v", ctrl.ID, ok)
	}
}

func TestCache_SeedFromFutureTickIsStale(t *testing.T) {
	c := room.NewCache(10)
	c.Seed("W1N1", room.Record{Sources: []string{"old"}, BuiltAt: 5000})

	w := worldtest.New("W1N1").Tick(3).Source("src", 5, 5, 3000).Snapshot()
	rec := c.Get(w, "W1N1")
	if rec.BuiltAt != 3 {
		t.Errorf("expected rebuild at tick 3, got built at %d", rec.BuiltAt)
	}
	if len(rec.Sources) != 1 || rec.Sources[0] != "src" {
		t.Errorf("expected sources [src], got %v", rec.Sources)
	}
}
