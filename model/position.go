package model

import "fmt"

// Position is a tile inside a named room.
type Position struct {
	X    int    `json:"x"`
	Y    int    `json:"y"`
	Room string `json:"room" jsonschema:"required"`
}

func (p Position) String() string {
	return fmt.Sprintf("[%s %d,%d]", p.Room, p.X, p.Y)
}

// InRoom reports whether (x, y) is a valid room coordinate.
func InRoom(x, y int) bool {
	return x >= 0 && x < RoomSize && y >= 0 && y < RoomSize
}

// RangeTo is the Chebyshev distance used for every "in range" check.
// Positions in different rooms are infinitely far apart.
func (p Position) RangeTo(o Position) int {
	if p.Room != o.Room {
		return int(^uint(0) >> 1)
	}
	return max(abs(p.X-o.X), abs(p.Y-o.Y))
}

// IsNear reports whether o is on or adjacent to p.
func (p Position) IsNear(o Position) bool {
	return p.RangeTo(o) <= 1
}

// Neighbors returns the 8-neighbourhood of p clipped to the room.
func (p Position) Neighbors() []Position {
	out := make([]Position, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			x, y := p.X+dx, p.Y+dy
			if !InRoom(x, y) {
				continue
			}
			out = append(out, Position{X: x, Y: y, Room: p.Room})
		}
	}
	return out
}

// Direction is a single-step move, numbered clockwise from Top like the host API.
type Direction int

const (
	Top Direction = iota + 1
	TopRight
	Right
	BottomRight
	Bottom
	BottomLeft
	Left
	TopLeft
)

var directionOffsets = map[Direction][2]int{
	Top:         {0, -1},
	TopRight:    {1, -1},
	Right:       {1, 0},
	BottomRight: {1, 1},
	Bottom:      {0, 1},
	BottomLeft:  {-1, 1},
	Left:        {-1, 0},
	TopLeft:     {-1, -1},
}

// Offset returns the (dx, dy) of a direction, or ok=false for an invalid one.
func (d Direction) Offset() (dx, dy int, ok bool) {
	off, ok := directionOffsets[d]
	return off[0], off[1], ok
}

// Step returns the position one tile away in direction d.
func (p Position) Step(d Direction) Position {
	dx, dy, _ := d.Offset()
	return Position{X: p.X + dx, Y: p.Y + dy, Room: p.Room}
}

// DirectionTo returns the direction of an adjacent tile, or 0 when o is not
// a neighbour of p.
func (p Position) DirectionTo(o Position) Direction {
	if p.Room != o.Room {
		return 0
	}
	dx, dy := o.X-p.X, o.Y-p.Y
	for d, off := range directionOffsets {
		if off[0] == dx && off[1] == dy {
			return d
		}
	}
	return 0
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
