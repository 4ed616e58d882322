// Package world is the boundary to the host simulation: object lookup by id,
// spatial queries, terrain, and action primitives that answer with a result
// code instead of an error.
package world

import (
	"fmt"

	"github.com/nstehr/hive/model"
)

// ResultCode is the host's classification of an attempted action. The values
// mirror the host API so codes can be logged and compared verbatim.
type ResultCode int

const (
	OK               ResultCode = 0
	ErrNotOwner      ResultCode = -1
	ErrNoPath        ResultCode = -2
	ErrNameExists    ResultCode = -3
	ErrBusy          ResultCode = -4
	ErrNotFound      ResultCode = -5
	ErrNotEnough     ResultCode = -6
	ErrInvalidTarget ResultCode = -7
	ErrFull          ResultCode = -8
	ErrNotInRange    ResultCode = -9
	ErrInvalidArgs   ResultCode = -10
	ErrTired         ResultCode = -11
	ErrNoBodypart    ResultCode = -12
)

var codeNames = map[ResultCode]string{
	OK:               "ok",
	ErrNotOwner:      "not_owner",
	ErrNoPath:        "no_path",
	ErrNameExists:    "name_exists",
	ErrBusy:          "busy",
	ErrNotFound:      "not_found",
	ErrNotEnough:     "not_enough",
	ErrInvalidTarget: "invalid_target",
	ErrFull:          "full",
	ErrNotInRange:    "not_in_range",
	ErrInvalidArgs:   "invalid_args",
	ErrTired:         "tired",
	ErrNoBodypart:    "no_bodypart",
}

func (c ResultCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code(%d)", int(c))
}

// World is everything the controller may ask of the host during one tick.
// Objects returned are copies valid for the current tick only; persist ids,
// never the values.
type World interface {
	Tick() int
	Rooms() []model.Room
	Room(name string) (model.Room, bool)

	// OwnedUnits lists the player's units in a stable order.
	OwnedUnits() []model.Unit
	// UnitsIn lists every unit (owned or not) currently in a room.
	UnitsIn(room string) []model.Unit

	Resolve(id string) (model.Object, bool)
	Find(room string, kind model.ObjectKind) []model.Object
	TerrainAt(room string, x, y int) model.Terrain

	Harvest(u model.Unit, node model.Object) ResultCode
	Build(u model.Unit, site model.Object) ResultCode
	Upgrade(u model.Unit, controller model.Object) ResultCode
	Transfer(u model.Unit, target model.Object) ResultCode
	Move(u model.Unit, d model.Direction) ResultCode
	Say(u model.Unit, msg string) ResultCode
	Spawn(spawn model.Object, body []model.Part, name string) ResultCode
}
