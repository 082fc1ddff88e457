package core

import (
	"fmt"
	"math"
)

// AgentSpec defines one agent of an instance.
type AgentSpec struct {
	ID    AgentID
	Start VertexID
	Goal  VertexID
	// Duration scales the primary arc cost of this agent's moves; 0 means 1.
	Duration float64
}

// Instance is a capacity-aware multi-agent planning problem.
type Instance struct {
	Name   string
	Graph  Graph
	Agents []AgentSpec

	// EdgeCosts overrides the traversal duration of individual arcs.
	EdgeCosts map[Arc]float64
	// Capacities overrides per-vertex max capacity.
	Capacities map[VertexID]int

	TimeLimit float64 // wall-clock seconds, 0 for the planner default
}

// NewInstance creates an empty instance over g.
func NewInstance(g Graph) *Instance {
	return &Instance{
		Graph:      g,
		EdgeCosts:  make(map[Arc]float64),
		Capacities: make(map[VertexID]int),
	}
}

// AddAgent appends an agent with the next free ID.
func (inst *Instance) AddAgent(start, goal VertexID, duration float64) AgentID {
	id := AgentID(len(inst.Agents))
	inst.Agents = append(inst.Agents, AgentSpec{ID: id, Start: start, Goal: goal, Duration: duration})
	return id
}

// Starts returns start vertices indexed by agent.
func (inst *Instance) Starts() []VertexID {
	out := make([]VertexID, len(inst.Agents))
	for i, a := range inst.Agents {
		out[i] = a.Start
	}
	return out
}

// Goals returns goal vertices indexed by agent.
func (inst *Instance) Goals() []VertexID {
	out := make([]VertexID, len(inst.Agents))
	for i, a := range inst.Agents {
		out[i] = a.Goal
	}
	return out
}

// Durations returns per-agent duration factors indexed by agent.
func (inst *Instance) Durations() []float64 {
	out := make([]float64, len(inst.Agents))
	for i, a := range inst.Agents {
		out[i] = a.Duration
	}
	return out
}

// AgentByID finds an agent by ID.
func (inst *Instance) AgentByID(id AgentID) *AgentSpec {
	for i := range inst.Agents {
		if inst.Agents[i].ID == id {
			return &inst.Agents[i]
		}
	}
	return nil
}

// ApplyCapacities writes the capacity overrides into the graph.
func (inst *Instance) ApplyCapacities() {
	for _, v := range sortedIDs(inst.Capacities) {
		inst.Graph.SetMaxCapacity(v, inst.Capacities[v])
	}
}

// Validate checks instance consistency. Capacity overrides are taken into
// account whether or not they were applied to the graph yet.
func (inst *Instance) Validate() error {
	if inst.Graph == nil {
		return fmt.Errorf("no graph: %w", ErrInvalidInstance)
	}
	if len(inst.Agents) == 0 {
		return fmt.Errorf("no agents: %w", ErrInvalidInstance)
	}
	load := make(map[VertexID]int)
	for i, a := range inst.Agents {
		if a.ID != AgentID(i) {
			return fmt.Errorf("agent %d has ID %d, IDs must be dense: %w", i, a.ID, ErrInvalidInstance)
		}
		if !inst.Graph.HasVertex(a.Start) {
			return fmt.Errorf("agent %d start %d: %w", i, a.Start, ErrVertexNotFound)
		}
		if !inst.Graph.HasVertex(a.Goal) {
			return fmt.Errorf("agent %d goal %d: %w", i, a.Goal, ErrVertexNotFound)
		}
		if a.Duration < 0 || math.IsNaN(a.Duration) || math.IsInf(a.Duration, 0) {
			return fmt.Errorf("agent %d duration %v: %w", i, a.Duration, ErrInvalidInstance)
		}
		load[a.Start]++
	}
	for v, n := range load {
		k := inst.Graph.MaxCapacity(v)
		if o, ok := inst.Capacities[v]; ok {
			k = o
		}
		if n > k {
			return fmt.Errorf("%d agents start on vertex %d with capacity %d: %w", n, v, k, ErrInvalidInstance)
		}
	}
	for arc, c := range inst.EdgeCosts {
		if !inst.Graph.HasArc(arc.From, arc.To) {
			return fmt.Errorf("edge cost override %v: %w", arc, ErrArcNotFound)
		}
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("edge cost override %v = %v: %w", arc, c, ErrInvalidInstance)
		}
	}
	for v := range inst.Capacities {
		if !inst.Graph.HasVertex(v) {
			return fmt.Errorf("capacity override on %d: %w", v, ErrVertexNotFound)
		}
	}
	return nil
}
