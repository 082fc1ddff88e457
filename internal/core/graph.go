package core

import "sort"

// Graph is the read/mutate view of a directed vector-cost graph consumed by
// the planner. Succs and SuccCosts (Preds and PredCosts) are aligned by index.
type Graph interface {
	HasVertex(v VertexID) bool
	HasArc(u, v VertexID) bool
	Succs(v VertexID) []VertexID
	Preds(v VertexID) []VertexID
	// Cost returns nil when the arc does not exist.
	Cost(u, v VertexID) CostVec
	SuccCosts(v VertexID) []CostVec
	PredCosts(v VertexID) []CostVec

	NumVertices() int
	NumArcs() int
	// NumEdges is NumArcs/2 and fails if the arc count is odd.
	NumEdges() (int, error)
	CostDim() int
	AllVertices() []VertexID

	CapacityTracker
}

// CapacityTracker owns per-vertex capacity bookkeeping.
type CapacityTracker interface {
	MaxCapacity(v VertexID) int
	OccupiedCapacity(v VertexID) int
	SetMaxCapacity(v VertexID, k int)
	IncreaseOccupied(v VertexID)
	// DecreaseOccupied saturates at zero.
	DecreaseOccupied(v VertexID)
	ClearOccupied()
}

// Positioner is implemented by graphs whose vertices have a planar layout.
type Positioner interface {
	Position(v VertexID) (Pos, bool)
}

// Capacities is a sparse capacity table. Vertices without an entry have
// max capacity 1 and zero occupancy.
type Capacities struct {
	max map[VertexID]int
	occ map[VertexID]int
}

// MaxCapacity returns the max capacity of v (default 1).
func (c *Capacities) MaxCapacity(v VertexID) int {
	if k, ok := c.max[v]; ok {
		return k
	}
	return 1
}

// OccupiedCapacity returns the number of units currently held on v.
func (c *Capacities) OccupiedCapacity(v VertexID) int {
	return c.occ[v]
}

// SetMaxCapacity sets the capacity of v. Negative values are treated as 0.
func (c *Capacities) SetMaxCapacity(v VertexID, k int) {
	if c.max == nil {
		c.max = make(map[VertexID]int)
	}
	if k < 0 {
		k = 0
	}
	c.max[v] = k
}

// IncreaseOccupied takes one unit on v.
func (c *Capacities) IncreaseOccupied(v VertexID) {
	if c.occ == nil {
		c.occ = make(map[VertexID]int)
	}
	c.occ[v]++
}

// DecreaseOccupied releases one unit on v, never going below zero.
func (c *Capacities) DecreaseOccupied(v VertexID) {
	if c.occ[v] > 0 {
		c.occ[v]--
		if c.occ[v] == 0 {
			delete(c.occ, v)
		}
	}
}

// ClearOccupied drops all occupancy, keeping max capacities.
func (c *Capacities) ClearOccupied() {
	c.occ = nil
}

// CapacityOverrides lists every vertex with a non-default max capacity.
func (c *Capacities) CapacityOverrides() map[VertexID]int {
	out := make(map[VertexID]int, len(c.max))
	for v, k := range c.max {
		out[v] = k
	}
	return out
}

// HasRoom reports whether v can take one more unit.
func HasRoom(g CapacityTracker, v VertexID) bool {
	return g.OccupiedCapacity(v) < g.MaxCapacity(v)
}

// sortedIDs returns map keys in ascending order.
func sortedIDs[T any](m map[VertexID]T) []VertexID {
	ids := make([]VertexID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
