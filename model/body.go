package model

// Part is a single unit body part.
type Part string

const (
	Move  Part = "move"
	Work  Part = "work"
	Carry Part = "carry"
)

var partCosts = map[Part]int{
	Move:  50,
	Work:  100,
	Carry: 50,
}

// CarryCapacity is the store capacity added by each carry part.
const CarryCapacity = 50

// Cost returns the spawn energy cost of a part; unknown parts cost 0.
func (p Part) Cost() int { return partCosts[p] }

func (p Part) Valid() bool {
	_, ok := partCosts[p]
	return ok
}

// BodyCost sums the spawn energy of a body.
func BodyCost(body []Part) int {
	total := 0
	for _, p := range body {
		total += p.Cost()
	}
	return total
}
