package model

import "fmt"

// Terrain classifies a single room tile. The byte values match the host's
// terrain export so a serialized room can be read back without a lookup table.
type Terrain byte

const (
	Plain Terrain = 0 // walkable, base cost
	Wall  Terrain = 1 // impassable
	Swamp Terrain = 2 // walkable, slow
)

// RoomSize is the edge length of every room; coordinates run 0..RoomSize-1.
const RoomSize = 50

func (t Terrain) String() string {
	switch t {
	case Plain:
		return "plain"
	case Wall:
		return "wall"
	case Swamp:
		return "swamp"
	default:
		return fmt.Sprintf("terrain(%d)", byte(t))
	}
}

// RoomTerrain is the static terrain of one room, row-major: Grid[y*RoomSize+x].
type RoomTerrain struct {
	Room string
	Grid [RoomSize * RoomSize]Terrain
}

// At returns the terrain at (x, y). Out-of-room coordinates read as Wall so
// callers never path off the edge of a room.
func (t *RoomTerrain) At(x, y int) Terrain {
	if !InRoom(x, y) {
		return Wall
	}
	return t.Grid[y*RoomSize+x]
}

// Set overwrites one tile. Out-of-room coordinates are ignored.
func (t *RoomTerrain) Set(x, y int, v Terrain) {
	if !InRoom(x, y) {
		return
	}
	t.Grid[y*RoomSize+x] = v
}

// ParseTerrain decodes the host's 2500 character terrain string. Each
// character is the tile mask digit; a mask of 3 (wall over swamp) is a wall.
func ParseTerrain(room, encoded string) (*RoomTerrain, error) {
	if len(encoded) != RoomSize*RoomSize {
		return nil, fmt.Errorf("terrain for %s: expected %d tiles, got %d", room, RoomSize*RoomSize, len(encoded))
	}
	t := &RoomTerrain{Room: room}
	for i := 0; i < len(encoded); i++ {
		switch encoded[i] {
		case '0':
			t.Grid[i] = Plain
		case '1', '3':
			t.Grid[i] = Wall
		case '2':
			t.Grid[i] = Swamp
		default:
			return nil, fmt.Errorf("terrain for %s: invalid tile %q at %d", room, encoded[i], i)
		}
	}
	return t, nil
}

// Encode is the inverse of ParseTerrain.
func (t *RoomTerrain) Encode() string {
	buf := make([]byte, len(t.Grid))
	for i, v := range t.Grid {
		buf[i] = '0' + byte(v)
	}
	return string(buf)
}
