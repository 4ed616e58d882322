package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nstehr/hive/ipc"
	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world"
)

// Agent owns one host session: it keeps the terrain sent at hello and turns
// every game_state into an intents reply.
type Agent struct {
	Conn      *ipc.Connection
	Player    string
	Runner    *Runner
	Validator *model.Validator // optional

	ctx     context.Context
	terrain map[string]*model.RoomTerrain
}

func New(ctx context.Context, conn *ipc.Connection, runner *Runner, validator *model.Validator) *Agent {
	return &Agent{
		Conn:      conn,
		Runner:    runner,
		Validator: validator,
		ctx:       ctx,
		terrain:   make(map[string]*model.RoomTerrain),
	}
}

// Register wires the agent's handlers into its connection.
func (a *Agent) Register() {
	a.Conn.RegisterHandler(ipc.TypeHello, a.HandleHello)
	a.Conn.RegisterHandler(ipc.TypeGameState, a.HandleGameState)
}

// HandleHello completes the handshake so the host knows the controller is ready.
func (a *Agent) HandleHello(env ipc.Envelope) (*ipc.Envelope, error) {
	var hello ipc.HelloMessage
	if err := json.Unmarshal(env.Data, &hello); err != nil {
		return nil, fmt.Errorf("unmarshal hello: %w", err)
	}

	for _, rt := range hello.Rooms {
		t, err := model.ParseTerrain(rt.Room, rt.Terrain)
		if err != nil {
			return nil, fmt.Errorf("hello terrain: %w", err)
		}
		a.terrain[rt.Room] = t
	}
	a.Player = hello.Player
	a.Runner.SetScope(hello.Player)
	if a.Conn != nil {
		a.Conn.Player = hello.Player
	}
	slog.Info("player identified", "player", a.Player, "rooms", len(hello.Rooms))

	session := ""
	if a.Conn != nil {
		session = a.Conn.ID
	}
	ack, err := ipc.NewEnvelope(ipc.TypeAck, ipc.AckMessage{Status: "ok", Session: session})
	if err != nil {
		return nil, err
	}
	return &ack, nil
}

func (a *Agent) HandleGameState(env ipc.Envelope) (*ipc.Envelope, error) {
	if a.Validator != nil {
		if err := a.Validator.Validate(env.Data); err != nil {
			return nil, fmt.Errorf("invalid game_state: %w", err)
		}
	}
	var gs model.GameState
	if err := json.Unmarshal(env.Data, &gs); err != nil {
		return nil, fmt.Errorf("unmarshal GameState: %w", err)
	}

	slog.Debug("game state received",
		"player", a.Player,
		"tick", gs.Tick,
		"rooms", len(gs.Rooms),
		"units", len(gs.Units),
		"objects", len(gs.Objects),
	)

	snap := world.NewSnapshot(gs, a.terrain)
	if _, err := a.Runner.RunTick(a.ctx, snap); err != nil {
		return nil, err
	}

	reply, err := ipc.NewEnvelope(ipc.TypeIntents, ipc.IntentsMessage{Tick: gs.Tick, Intents: snap.Intents()})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}
