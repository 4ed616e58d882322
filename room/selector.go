package room

import (
	"slices"

	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world"
)

// FreeSlots returns the tiles around a node a worker could stand on right
// now: the 8-neighbourhood minus walls and tiles holding any unit.
func FreeSlots(w world.World, node model.Object) []model.Position {
	occupied := make(map[model.Position]bool)
	for _, u := range w.UnitsIn(node.Pos.Room) {
		occupied[u.Pos] = true
	}
	var free []model.Position
	for _, p := range node.Pos.Neighbors() {
		if occupied[p] {
			continue
		}
		if w.TerrainAt(p.Room, p.X, p.Y) == model.Wall {
			continue
		}
		free = append(free, p)
	}
	return free
}

// BestNode picks the resource node with the most free working positions.
// Ties go to the node seen first. A node with no free position is still
// returned when it is the best candidate; reaching it is the caller's retry
// problem. Nodes listed in avoid are skipped unless every node is avoided.
func BestNode(w world.World, c *Cache, room string, avoid []string) (model.Object, bool) {
	nodes := resolveNodes(w, c, room)
	if len(nodes) == 0 {
		return model.Object{}, false
	}

	candidates := nodes
	if len(avoid) > 0 {
		candidates = candidates[:0:0]
		for _, n := range nodes {
			if !slices.Contains(avoid, n.ID) {
				candidates = append(candidates, n)
			}
		}
		if len(candidates) == 0 {
			candidates = nodes
		}
	}

	best := candidates[0]
	bestScore := -1
	for _, n := range candidates {
		score := len(FreeSlots(w, n))
		if score > bestScore {
			best, bestScore = n, score
		}
	}
	return best, true
}

// resolveNodes maps the cached source ids to live objects. One stale id
// invalidates the snapshot and triggers a single rebuild.
func resolveNodes(w world.World, c *Cache, room string) []model.Object {
	rec := c.Get(w, room)
	nodes, stale := resolveAll(w, rec.Sources)
	if stale {
		c.Invalidate(room)
		rec = c.Get(w, room)
		nodes, _ = resolveAll(w, rec.Sources)
	}
	return nodes
}

func resolveAll(w world.World, ids []string) ([]model.Object, bool) {
	out := make([]model.Object, 0, len(ids))
	stale := false
	for _, id := range ids {
		o, ok := w.Resolve(id)
		if !ok || o.Kind != model.KindSource {
			stale = true
			continue
		}
		out = append(out, o)
	}
	return out, stale
}
