package agent

import (
	"fmt"
	"slices"

	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world"
)

// EventKind identifies a colony-level change worth recording.
type EventKind string

const (
	EventUnitLost           EventKind = "unit_lost"
	EventUnitBorn           EventKind = "unit_born"
	EventSpawnLost          EventKind = "spawn_lost"
	EventControllerUpgraded EventKind = "controller_upgraded"
	EventSiteFinished       EventKind = "site_finished"
	EventColonyWiped        EventKind = "colony_wiped"
)

// Event is detected by diffing consecutive ticks.
type Event struct {
	Kind   EventKind
	Tick   int
	Detail string
}

// stateSnapshot captures the diffable parts of one tick.
type stateSnapshot struct {
	tick        int
	units       map[string]bool   // owned unit names
	spawns      map[string]string // id → room
	controllers map[string]int    // room → level, owned only
	sites       map[string]string // id → room
}

func takeSnapshot(w world.World) stateSnapshot {
	s := stateSnapshot{
		tick:        w.Tick(),
		units:       make(map[string]bool),
		spawns:      make(map[string]string),
		controllers: make(map[string]int),
		sites:       make(map[string]string),
	}
	for _, u := range w.OwnedUnits() {
		s.units[u.Name] = true
	}
	for _, r := range w.Rooms() {
		for _, sp := range w.Find(r.Name, model.KindSpawn) {
			if sp.My {
				s.spawns[sp.ID] = r.Name
			}
		}
		for _, c := range w.Find(r.Name, model.KindController) {
			if c.My {
				s.controllers[r.Name] = c.Level
			}
		}
		for _, site := range w.Find(r.Name, model.KindSite) {
			if site.My {
				s.sites[site.ID] = r.Name
			}
		}
	}
	return s
}

// detectEvents compares cur against prev. A nil prev (first tick of a
// session) yields no events.
func detectEvents(cur stateSnapshot, prev *stateSnapshot) []Event {
	if prev == nil {
		return nil
	}
	var events []Event
	add := func(kind EventKind, format string, args ...any) {
		events = append(events, Event{Kind: kind, Tick: cur.tick, Detail: fmt.Sprintf(format, args...)})
	}

	for _, name := range sortedKeys(prev.units) {
		if !cur.units[name] {
			add(EventUnitLost, "%s is gone", name)
		}
	}
	for _, name := range sortedKeys(cur.units) {
		if !prev.units[name] {
			add(EventUnitBorn, "%s appeared", name)
		}
	}
	for _, id := range sortedKeys(prev.spawns) {
		if _, ok := cur.spawns[id]; !ok {
			add(EventSpawnLost, "spawn %s in %s lost", id, prev.spawns[id])
		}
	}
	for _, room := range sortedKeys(cur.controllers) {
		if before, ok := prev.controllers[room]; ok && cur.controllers[room] > before {
			add(EventControllerUpgraded, "%s controller %d → %d", room, before, cur.controllers[room])
		}
	}
	for _, id := range sortedKeys(prev.sites) {
		if _, ok := cur.sites[id]; !ok {
			add(EventSiteFinished, "site %s in %s finished or removed", id, prev.sites[id])
		}
	}
	if len(prev.units) > 0 && len(cur.units) == 0 {
		add(EventColonyWiped, "no owned units left")
	}
	return events
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
