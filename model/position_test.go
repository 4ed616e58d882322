package model

import "testing"

func TestPositionRangeTo(t *testing.T) {
	a := Position{X: 10, Y: 10, Room: "W1N1"}

	if got := a.RangeTo(Position{X: 13, Y: 11, Room: "W1N1"}); got != 3 {
		t.Errorf("expected range 3, got %d", got)
	}
	if !a.IsNear(Position{X: 11, Y: 9, Room: "W1N1"}) {
		t.Error("expected diagonal neighbour to be near")
	}
	if a.IsNear(Position{X: 11, Y: 9, Room: "W2N1"}) {
		t.Error("positions in different rooms must never be near")
	}
}

func TestPositionNeighborsClipped(t *testing.T) {
	corner := Position{X: 0, Y: 0, Room: "W1N1"}
	if got := len(corner.Neighbors()); got != 3 {
		t.Errorf("expected 3 neighbours at the corner, got %d", got)
	}
	edge := Position{X: 25, Y: 49, Room: "W1N1"}
	if got := len(edge.Neighbors()); got != 5 {
		t.Errorf("expected 5 neighbours on the edge, got %d", got)
	}
	mid := Position{X: 25, Y: 25, Room: "W1N1"}
	if got := len(mid.Neighbors()); got != 8 {
		t.Errorf("expected 8 neighbours mid-room, got %d", got)
	}
}

func TestPositionDirectionTo(t *testing.T) {
	p := Position{X: 5, Y: 5, Room: "W1N1"}
	for d := Top; d <= TopLeft; d++ {
		next := p.Step(d)
		if got := p.DirectionTo(next); got != d {
			t.Errorf("DirectionTo(Step(%d)) = %d", d, got)
		}
	}
	if got := p.DirectionTo(Position{X: 7, Y: 5, Room: "W1N1"}); got != 0 {
		t.Errorf("expected 0 for non-adjacent tile, got %d", got)
	}
}

func TestBodyCost(t *testing.T) {
	body := []Part{Move, Move, Carry, Work}
	if got := BodyCost(body); got != 250 {
		t.Errorf("expected body cost 250, got %d", got)
	}
}
