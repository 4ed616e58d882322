package model

import (
	"encoding/json"
	"testing"
)

func TestValidatorAcceptsEncodedState(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator failed: %v", err)
	}

	gs := GameState{
		Tick:  12,
		Rooms: []Room{{Name: "W1N1", Owned: true, EnergyAvailable: 300}},
		Units: []Unit{{
			ID: "u1", Name: "1-0", My: true,
			Pos:   Position{X: 1, Y: 2, Room: "W1N1"},
			Store: Store{Energy: 0, Capacity: 50},
			Body:  []Part{Move, Carry, Work},
		}},
		Objects: []Object{{ID: "s1", Kind: KindSource, Pos: Position{X: 5, Y: 5, Room: "W1N1"}}},
	}
	raw, err := json.Marshal(gs)
	if err != nil {
		t.Fatal(err)
	}
	if err := v.Validate(raw); err != nil {
		t.Errorf("expected valid game state, got %v", err)
	}
}

func TestValidatorRejectsMalformedState(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("NewValidator failed: %v", err)
	}

	cases := map[string]string{
		"missing tick":    `{"units":[]}`,
		"string tick":     `{"tick":"12"}`,
		"unit without id": `{"tick":1,"units":[{"name":"a","pos":{"x":1,"y":1,"room":"W1N1"}}]}`,
		"not json":        `{"tick":`,
	}
	for name, raw := range cases {
		if err := v.Validate([]byte(raw)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
