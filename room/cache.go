// Package room keeps the per-room snapshot of static object ids and picks
// the best resource node to work.
package room

import (
	"log/slog"

	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world"
)

// DefaultTTL is how many ticks a rebuilt snapshot stays fresh.
const DefaultTTL = 100

// Record is the persisted per-room snapshot. It is a cache, never the source
// of truth: any id in it may have stopped resolving.
type Record struct {
	Sources    []string       `json:"sources"`
	Controller string         `json:"controller,omitempty"`
	Mineral    *MineralRecord `json:"mineral,omitempty"`
	BuiltAt    int            `json:"builtAt"`
}

type MineralRecord struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type,omitempty"`
	Density int    `json:"density,omitempty"`
}

// Cache holds one Record per room. Get rebuilds a record when it is absent or
// older than TTL ticks; Invalidate forces the next Get to rebuild. Processing
// within a tick is sequential, so a rebuild is visible to every later reader.
type Cache struct {
	TTL     int
	entries map[string]Record
	dirty   map[string]bool
}

func NewCache(ttl int) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		TTL:     ttl,
		entries: make(map[string]Record),
		dirty:   make(map[string]bool),
	}
}

// Seed installs a record loaded from persistent memory without marking it
// dirty. Staleness is still judged by its BuiltAt tick.
func (c *Cache) Seed(room string, rec Record) {
	c.entries[room] = rec
}

// Has reports whether a record is present, fresh or not.
func (c *Cache) Has(room string) bool {
	_, ok := c.entries[room]
	return ok
}

// Get returns the room record, rebuilding it if absent or stale. A record
// built in the future (the host's clock went back) counts as stale.
func (c *Cache) Get(w world.World, room string) Record {
	rec, ok := c.entries[room]
	if age := w.Tick() - rec.BuiltAt; ok && age >= 0 && age < c.TTL {
		return rec
	}
	return c.Rebuild(w, room)
}

func (c *Cache) Invalidate(room string) {
	delete(c.entries, room)
}

// Rebuild re-queries the world for the room's static objects.
func (c *Cache) Rebuild(w world.World, room string) Record {
	rec := Record{BuiltAt: w.Tick()}
	for _, src := range w.Find(room, model.KindSource) {
		rec.Sources = append(rec.Sources, src.ID)
	}
	if ctrls := w.Find(room, model.KindController); len(ctrls) > 0 {
		rec.Controller = ctrls[0].ID
	}
	if minerals := w.Find(room, model.KindMineral); len(minerals) > 0 {
		m := minerals[0]
		rec.Mineral = &MineralRecord{ID: m.ID, Type: m.MineralType, Density: m.Density}
	}
	c.entries[room] = rec
	c.dirty[room] = true
	slog.Debug("room snapshot rebuilt", "room", room, "sources", len(rec.Sources), "tick", rec.BuiltAt)
	return rec
}

// Drain returns the records rebuilt since the last call so they can be
// persisted, and clears the dirty set.
func (c *Cache) Drain() map[string]Record {
	out := make(map[string]Record, len(c.dirty))
	for room := range c.dirty {
		if rec, ok := c.entries[room]; ok {
			out[room] = rec
		}
	}
	c.dirty = make(map[string]bool)
	return out
}

// Controller resolves the room controller through the cache.
func (c *Cache) Controller(w world.World, room string) (model.Object, bool) {
	rec := c.Get(w, room)
	if rec.Controller == "" {
		return model.Object{}, false
	}
	ctrl, ok := w.Resolve(rec.Controller)
	if !ok {
		c.Invalidate(room)
		rec = c.Get(w, room)
		if rec.Controller == "" {
			return model.Object{}, false
		}
		ctrl, ok = w.Resolve(rec.Controller)
	}
	return ctrl, ok
}
