// Package task holds the per-unit goal and the single function that advances
// it by one tick.
package task

import (
	"encoding/json"
	"fmt"
)

type Kind string

const (
	KindNone    Kind = ""
	KindUpgrade Kind = "upgrade"
	KindHarvest Kind = "harvest"
	KindDeliver Kind = "deliver"
	KindBuild   Kind = "build"
)

// Goal is a closed tagged union. Target is the id of a controller, source,
// spawn or construction site depending on Kind, and is resolved fresh every
// tick. The zero Goal is None.
type Goal struct {
	Kind   Kind
	Target string
}

var None = Goal{}

func Upgrade(controller string) Goal { return Goal{Kind: KindUpgrade, Target: controller} }
func Harvest(node string) Goal       { return Goal{Kind: KindHarvest, Target: node} }
func Deliver(spawn string) Goal      { return Goal{Kind: KindDeliver, Target: spawn} }
func Build(site string) Goal         { return Goal{Kind: KindBuild, Target: site} }

func (g Goal) IsNone() bool { return g.Kind == KindNone }

func (g Goal) String() string {
	if g.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s(%s)", g.Kind, g.Target)
}

type goalJSON struct {
	Kind   Kind   `json:"kind"`
	Target string `json:"target"`
}

// MarshalJSON encodes None as null.
func (g Goal) MarshalJSON() ([]byte, error) {
	if g.IsNone() {
		return []byte("null"), nil
	}
	return json.Marshal(goalJSON{Kind: g.Kind, Target: g.Target})
}

func (g *Goal) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = None
		return nil
	}
	var raw goalJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode goal: %w", err)
	}
	switch raw.Kind {
	case KindUpgrade, KindHarvest, KindDeliver, KindBuild:
	default:
		return fmt.Errorf("decode goal: unknown kind %q", raw.Kind)
	}
	if raw.Target == "" {
		return fmt.Errorf("decode goal: %s without target", raw.Kind)
	}
	*g = Goal{Kind: raw.Kind, Target: raw.Target}
	return nil
}
