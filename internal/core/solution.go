package core

import "sort"

// TimedVertex is a position at a specific time.
type TimedVertex struct {
	V VertexID
	T float64 // Time
}

// Path is a sequence of timed positions. Between two entries the agent is
// either waiting (same vertex) or traversing the arc between them.
type Path []TimedVertex

// End returns the last entry, or false for an empty path.
func (p Path) End() (TimedVertex, bool) {
	if len(p) == 0 {
		return TimedVertex{}, false
	}
	return p[len(p)-1], true
}

// PositionAt returns the vertex most recently reached at time t.
func (p Path) PositionAt(t float64) (VertexID, bool) {
	if len(p) == 0 {
		return 0, false
	}
	i := sort.Search(len(p), func(i int) bool { return p[i].T > t })
	if i == 0 {
		return p[0].V, true
	}
	return p[i-1].V, true
}

// Segment is one stay of an agent on a vertex.
type Segment struct {
	V      VertexID
	Arrive float64
	Depart float64
}

// Solution is the result of a planning run.
type Solution struct {
	Paths    map[AgentID]Path
	Segments map[AgentID][]Segment
	Costs    map[AgentID]CostVec
	AtGoal   map[AgentID]bool
	// Infeasible lists agents whose goal is unreachable from their start.
	Infeasible []AgentID

	SoC      float64
	Makespan float64
	Status   Status
	Feasible bool
	Stats    map[string]float64
}

// NewSolution creates an empty solution.
func NewSolution() *Solution {
	return &Solution{
		Paths:    make(map[AgentID]Path),
		Segments: make(map[AgentID][]Segment),
		Costs:    make(map[AgentID]CostVec),
		AtGoal:   make(map[AgentID]bool),
		Stats:    make(map[string]float64),
	}
}

// AgentIDs returns agent IDs in ascending order.
func (s *Solution) AgentIDs() []AgentID {
	ids := make([]AgentID, 0, len(s.Paths))
	for id := range s.Paths {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ComputeMakespan recomputes the makespan from path end times.
func (s *Solution) ComputeMakespan() float64 {
	maxT := 0.0
	for _, p := range s.Paths {
		if last, ok := p.End(); ok && last.T > maxT {
			maxT = last.T
		}
	}
	s.Makespan = maxT
	return maxT
}

// ComputeSoC recomputes the sum of path end times.
func (s *Solution) ComputeSoC() float64 {
	sum := 0.0
	for _, id := range s.AgentIDs() {
		if last, ok := s.Paths[id].End(); ok {
			sum += last.T
		}
	}
	s.SoC = sum
	return sum
}

// NumAtGoal counts agents that reached their goal.
func (s *Solution) NumAtGoal() int {
	n := 0
	for _, ok := range s.AtGoal {
		if ok {
			n++
		}
	}
	return n
}

// MeetDeadline checks if the solution finishes by deadline.
func (s *Solution) MeetDeadline(deadline float64) bool {
	return s.Makespan <= deadline
}
