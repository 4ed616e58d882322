package model

// GameState is the per-tick world snapshot pushed by the host. It is only
// valid for the tick it was sent on; nothing in it may be cached as a live
// reference across ticks, only the ids.
type GameState struct {
	Tick    int      `json:"tick" jsonschema:"required"`
	Player  string   `json:"player"`
	Rooms   []Room   `json:"rooms,omitempty"`
	Units   []Unit   `json:"units,omitempty"`
	Objects []Object `json:"objects,omitempty"`
}

type Room struct {
	Name            string `json:"name" jsonschema:"required"`
	Owned           bool   `json:"owned"`
	EnergyAvailable int    `json:"energyAvailable"`
	EnergyCapacity  int    `json:"energyCapacity"`
}

// Store is a capacity-limited resource container. Only energy is tracked.
type Store struct {
	Energy   int `json:"energy"`
	Capacity int `json:"capacity"`
}

func (s Store) Free() int   { return max(s.Capacity-s.Energy, 0) }
func (s Store) Empty() bool { return s.Energy == 0 }

// Full is true when no capacity remains. A zero-capacity store is both full
// and empty.
func (s Store) Full() bool { return s.Free() == 0 }

type Unit struct {
	ID       string   `json:"id" jsonschema:"required"`
	Name     string   `json:"name" jsonschema:"required"`
	My       bool     `json:"my"`
	Pos      Position `json:"pos" jsonschema:"required"`
	Store    Store    `json:"store"`
	Body     []Part   `json:"body,omitempty"`
	Spawning bool     `json:"spawning"`
	Fatigue  int      `json:"fatigue"`
}

// ActiveParts counts body parts of one type.
func (u Unit) ActiveParts(p Part) int {
	n := 0
	for _, b := range u.Body {
		if b == p {
			n++
		}
	}
	return n
}

// ObjectKind tags the non-unit objects a room can contain.
type ObjectKind string

const (
	KindSource     ObjectKind = "source"
	KindController ObjectKind = "controller"
	KindSpawn      ObjectKind = "spawn"
	KindSite       ObjectKind = "constructionSite"
	KindMineral    ObjectKind = "mineral"
)

// Object is a flat record for every non-unit room object. Fields that do not
// apply to a kind stay zero.
type Object struct {
	ID   string     `json:"id" jsonschema:"required"`
	Kind ObjectKind `json:"kind" jsonschema:"required"`
	Pos  Position   `json:"pos" jsonschema:"required"`
	My   bool       `json:"my"`

	// source energy / spawn energy
	Store Store `json:"store"`

	// controller level progress, construction site progress
	Level         int `json:"level,omitempty"`
	Progress      int `json:"progress,omitempty"`
	ProgressTotal int `json:"progressTotal,omitempty"`

	// spawn
	Name     string `json:"name,omitempty"`
	Spawning string `json:"spawning,omitempty"`

	// construction site
	StructureType string `json:"structureType,omitempty"`

	// mineral
	MineralType string `json:"mineralType,omitempty"`
	Density     int    `json:"density,omitempty"`

	// source regeneration
	TicksToRegeneration int `json:"ticksToRegeneration,omitempty"`
}
