package nav

import (
	"container/heap"

	"github.com/nstehr/hive/model"
	"github.com/nstehr/hive/world"
)

// DefaultMaxOps bounds the number of tiles a single search may expand.
const DefaultMaxOps = 2000

var searchDirections = [...]model.Direction{
	model.Top, model.TopRight, model.Right, model.BottomRight,
	model.Bottom, model.BottomLeft, model.Left, model.TopLeft,
}

type searchNode struct {
	pos    model.Position
	g      int
	f      int
	seq    int
	index  int
	parent *searchNode
}

type searchQueue []*searchNode

func (q searchQueue) Len() int { return len(q) }

// Less orders by estimated total cost, then by insertion order so equal-cost
// frontiers always expand the same way.
func (q searchQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}

func (q searchQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *searchQueue) Push(x any) {
	n := x.(*searchNode)
	n.index = len(*q)
	*q = append(*q, n)
}

func (q *searchQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*q = old[:n-1]
	return item
}

// heuristic never overestimates: every step costs at least PlainCost and the
// search stops one tile short of dest.
func heuristic(p, dest model.Position) int {
	return PlainCost * max(0, p.RangeTo(dest)-1)
}

// FindPath runs a range-1 A* from start toward dest inside a single room. The
// returned path excludes start and ends on a tile adjacent to dest. The search
// is incomplete, and ok is false, when dest is unreachable or maxOps tiles
// have been expanded without reaching it.
func FindPath(w world.World, overlay *CostMatrix, start, dest model.Position, maxOps int) ([]model.Position, bool) {
	if start.Room != dest.Room {
		return nil, false
	}
	if start.IsNear(dest) {
		return nil, true
	}
	if maxOps <= 0 {
		maxOps = DefaultMaxOps
	}

	open := &searchQueue{}
	heap.Init(open)
	seq := 0
	heap.Push(open, &searchNode{pos: start, f: heuristic(start, dest)})
	best := map[model.Position]int{start: 0}
	closed := make(map[model.Position]bool)

	ops := 0
	for open.Len() > 0 {
		current := heap.Pop(open).(*searchNode)
		if closed[current.pos] {
			continue
		}
		closed[current.pos] = true
		if current.pos.IsNear(dest) {
			return reconstruct(current), true
		}
		ops++
		if ops > maxOps {
			return nil, false
		}

		for _, d := range searchDirections {
			next := current.pos.Step(d)
			if !model.InRoom(next.X, next.Y) || closed[next] {
				continue
			}
			cost, ok := stepCost(w, overlay, start.Room, next.X, next.Y)
			if !ok {
				continue
			}
			g := current.g + cost
			if prev, seen := best[next]; seen && g >= prev {
				continue
			}
			best[next] = g
			seq++
			heap.Push(open, &searchNode{
				pos:    next,
				g:      g,
				f:      g + heuristic(next, dest),
				seq:    seq,
				parent: current,
			})
		}
	}
	return nil, false
}

func reconstruct(end *searchNode) []model.Position {
	var path []model.Position
	for n := end; n.parent != nil; n = n.parent {
		path = append(path, n.pos)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
