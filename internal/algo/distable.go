package algo

import (
	"container/heap"
	"math"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// DistTable maps a vertex to its distance to one agent's goal.
type DistTable map[core.VertexID]float64

// Get returns the distance of v, +Inf when v cannot reach the goal.
func (d DistTable) Get(v core.VertexID) float64 {
	if x, ok := d[v]; ok {
		return x
	}
	return math.Inf(1)
}

// ArcWeight turns an arc into a scalar search cost.
type ArcWeight func(u, v core.VertexID, c core.CostVec) float64

// overrideWeight prefers edge-cost overrides, then weighted components, then
// the primary component.
func overrideWeight(overrides map[core.Arc]float64, weights []float64) ArcWeight {
	return func(u, v core.VertexID, c core.CostVec) float64 {
		if x, ok := overrides[core.Arc{From: u, To: v}]; ok {
			return x
		}
		if len(weights) > 0 {
			return c.Weighted(weights)
		}
		return c.Primary()
	}
}

type distNode struct {
	v     core.VertexID
	d     float64
	index int
}

type distHeap []*distNode

func (h distHeap) Len() int { return len(h) }
func (h distHeap) Less(i, j int) bool {
	if h[i].d != h[j].d {
		return h[i].d < h[j].d
	}
	return h[i].v < h[j].v
}
func (h distHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *distHeap) Push(x any) {
	n := x.(*distNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *distHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return x
}

// BackwardDijkstra computes the distance from every vertex to goal by a
// uniform-cost search over predecessors.
func BackwardDijkstra(g core.Graph, goal core.VertexID, w ArcWeight) DistTable {
	dist := DistTable{goal: 0}
	nodes := map[core.VertexID]*distNode{}
	closed := map[core.VertexID]bool{}

	open := &distHeap{}
	heap.Init(open)
	start := &distNode{v: goal}
	nodes[goal] = start
	heap.Push(open, start)

	for open.Len() > 0 {
		cur := heap.Pop(open).(*distNode)
		if closed[cur.v] {
			continue
		}
		closed[cur.v] = true

		preds := g.Preds(cur.v)
		costs := g.PredCosts(cur.v)
		for i, p := range preds {
			if closed[p] {
				continue
			}
			nd := cur.d + w(p, cur.v, costs[i])
			if old, ok := dist[p]; ok && old <= nd {
				continue
			}
			dist[p] = nd
			if n, ok := nodes[p]; ok && n.index >= 0 && n.index < open.Len() && (*open)[n.index] == n {
				n.d = nd
				heap.Fix(open, n.index)
				continue
			}
			n := &distNode{v: p, d: nd}
			nodes[p] = n
			heap.Push(open, n)
		}
	}
	return dist
}

// GenerateDistTables runs one backward search per distinct goal.
func GenerateDistTables(g core.Graph, goals []core.VertexID, w ArcWeight) []DistTable {
	byGoal := make(map[core.VertexID]DistTable)
	out := make([]DistTable, len(goals))
	for i, goal := range goals {
		if d, ok := byGoal[goal]; ok {
			out[i] = d
			continue
		}
		d := BackwardDijkstra(g, goal, w)
		byGoal[goal] = d
		out[i] = d
	}
	return out
}
