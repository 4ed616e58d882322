package ipc

import "github.com/nstehr/hive/model"

// Message types exchanged with the host bridge.
const (
	TypeHello     = "hello"
	TypeAck       = "ack"
	TypeGameState = "game_state"
	TypeIntents   = "intents"
)

// HelloMessage opens a session. Terrain is static, so it is sent once here
// rather than with every game_state.
type HelloMessage struct {
	Player string        `json:"player"`
	Rooms  []RoomTerrain `json:"rooms,omitempty"`
}

// RoomTerrain is a room's 50x50 terrain as 2500 row-major digits
// ('0' plain, '1' wall, '2' swamp).
type RoomTerrain struct {
	Room    string `json:"room"`
	Terrain string `json:"terrain"`
}

type AckMessage struct {
	Status  string `json:"status"`
	Session string `json:"session"`
}

// IntentsMessage answers a game_state with every action accepted that tick.
type IntentsMessage struct {
	Tick    int            `json:"tick"`
	Intents []model.Intent `json:"intents"`
}
