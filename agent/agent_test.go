package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nstehr/hive/ipc"
	"github.com/nstehr/hive/memory"
	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world/worldtest"
)

func newTestAgent(t *testing.T, withValidator bool) *Agent {
	t.Helper()
	var v *model.Validator
	if withValidator {
		var err error
		if v, err = model.NewValidator(); err != nil {
			t.Fatalf("NewValidator: %v", err)
		}
	}
	conn := ipc.NewConnection(nil, nil)
	runner := NewRunner(memory.NewCodec(memory.NewMapStore()), nil, Options{})
	a := New(context.Background(), conn, runner, v)
	a.Register()
	return a
}

func TestHandleHello_AcksWithSession(t *testing.T) {
	a := newTestAgent(t, false)
	terrain := []byte(strings.Repeat("0", model.RoomSize*model.RoomSize))
	terrain[0] = '1'
	env, err := ipc.NewEnvelope(ipc.TypeHello, ipc.HelloMessage{
		Player: "tester",
		Rooms:  []ipc.RoomTerrain{{Room: "W1N1", Terrain: string(terrain)}},
	})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	reply, err := a.HandleHello(env)
	if err != nil {
		t.Fatalf("HandleHello: %v", err)
	}
	if reply == nil || reply.Type != ipc.TypeAck {
		t.Fatalf("expected ack reply, got %+v", reply)
	}
	var ack ipc.AckMessage
	if err := json.Unmarshal(reply.Data, &ack); err != nil {
		t.Fatalf("unmarshal ack: %v", err)
	}
	if ack.Status != "ok" || ack.Session != a.Conn.ID {
		t.Errorf("expected ok ack for session %s, got %+v", a.Conn.ID, ack)
	}
	if a.Player != "tester" || a.Conn.Player != "tester" {
		t.Errorf("expected player tester, got %q/%q", a.Player, a.Conn.Player)
	}
	if a.Runner.Memory.Scope() != "tester" {
		t.Errorf("expected memory scoped to tester, got %q", a.Runner.Memory.Scope())
	}
	if got := a.terrain["W1N1"].At(0, 0); got != model.Wall {
		t.Errorf("expected wall at 0,0, got %v", got)
	}
}

func TestHandleHello_RejectsBadTerrain(t *testing.T) {
	a := newTestAgent(t, false)
	env, _ := ipc.NewEnvelope(ipc.TypeHello, ipc.HelloMessage{
		Player: "tester",
		Rooms:  []ipc.RoomTerrain{{Room: "W1N1", Terrain: "012"}},
	})
	if _, err := a.HandleHello(env); err == nil {
		t.Error("expected error for short terrain")
	}
}

func TestHandleGameState_RepliesWithIntents(t *testing.T) {
	a := newTestAgent(t, true)
	gs := worldtest.New("W1N1").
		Tick(7).
		Source("src", 10, 10, 3000).
		Unit("alice", 11, 10, 0, 50).
		State()
	env, err := ipc.NewEnvelope(ipc.TypeGameState, gs)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}

	reply, err := a.HandleGameState(env)
	if err != nil {
		t.Fatalf("HandleGameState: %v", err)
	}
	if reply == nil || reply.Type != ipc.TypeIntents {
		t.Fatalf("expected intents reply, got %+v", reply)
	}
	var msg ipc.IntentsMessage
	if err := json.Unmarshal(reply.Data, &msg); err != nil {
		t.Fatalf("unmarshal intents: %v", err)
	}
	if msg.Tick != 7 {
		t.Errorf("expected tick 7, got %d", msg.Tick)
	}
	found := false
	for _, in := range msg.Intents {
		if in.Unit == "alice" && in.Action == model.IntentHarvest && in.Target == "src" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected alice to harvest src, got %+v", msg.Intents)
	}
}

func TestHandleGameState_RejectsInvalidPayload(t *testing.T) {
	a := newTestAgent(t, true)
	env := ipc.Envelope{Type: ipc.TypeGameState, Data: json.RawMessage(`{"tick":"soon"}`)}
	if _, err := a.HandleGameState(env); err == nil {
		t.Error("expected validation error")
	}
}
