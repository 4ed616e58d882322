package nav

import (
	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world"
)

// Terrain step costs. A wall is never entered.
const (
	PlainCost = 2
	SwampCost = 10
	// Blocked marks a tile as unusable for this tick's search. The overlay is
	// rebuilt every call, so a tile blocked by a unit opens again once it moves.
	Blocked = 255
)

// CostMatrix overrides terrain costs for one room. Zero means "use terrain".
type CostMatrix struct {
	cells [model.RoomSize * model.RoomSize]uint8
}

func (m *CostMatrix) Set(x, y int, cost uint8) {
	if !model.InRoom(x, y) {
		return
	}
	m.cells[y*model.RoomSize+x] = cost
}

func (m *CostMatrix) Get(x, y int) uint8 {
	if !model.InRoom(x, y) {
		return Blocked
	}
	return m.cells[y*model.RoomSize+x]
}

// obstacleKinds are room objects no unit can stand on.
var obstacleKinds = []model.ObjectKind{
	model.KindSource,
	model.KindController,
	model.KindSpawn,
	model.KindMineral,
}

// BuildOverlay marks every tile in room occupied by a unit other than self,
// and every obstacle object, as Blocked.
func BuildOverlay(w world.World, room, self string) *CostMatrix {
	m := &CostMatrix{}
	for _, u := range w.UnitsIn(room) {
		if u.Name == self {
			continue
		}
		m.Set(u.Pos.X, u.Pos.Y, Blocked)
	}
	for _, kind := range obstacleKinds {
		for _, o := range w.Find(room, kind) {
			m.Set(o.Pos.X, o.Pos.Y, Blocked)
		}
	}
	return m
}

// stepCost returns the cost of entering (x, y), or false when it cannot be
// entered this tick.
func stepCost(w world.World, overlay *CostMatrix, room string, x, y int) (int, bool) {
	if c := overlay.Get(x, y); c == Blocked {
		return 0, false
	} else if c > 0 {
		return int(c), true
	}
	switch w.TerrainAt(room, x, y) {
	case model.Wall:
		return 0, false
	case model.Swamp:
		return SwampCost, true
	default:
		return PlainCost, true
	}
}
