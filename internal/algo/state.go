package algo

import (
	"fmt"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// State is one agent's planned occupancy of V during [Start, End), having
// arrived from Parent. A wait has Parent == V.
type State struct {
	Parent core.VertexID
	V      core.VertexID
	Start  float64
	End    float64
}

// IsWait reports whether the state keeps the agent in place.
func (s State) IsWait() bool { return s.Parent == s.V }

func (s State) String() string {
	return fmt.Sprintf("(%d->%d [%.3f,%.3f))", s.Parent, s.V, s.Start, s.End)
}

// Agent is a planning entity. Its states live in an append-only log;
// Curr mirrors the last entry.
type Agent struct {
	ID           core.AgentID
	Start        core.VertexID
	Goal         core.VertexID
	Priority     float64
	InitPriority float64
	AtGoal       bool
	Infeasible   bool
	GoalTime     float64
	Curr         State

	log       []State
	lastVisit map[core.VertexID]int
}

func newAgent(id core.AgentID, start, goal core.VertexID) *Agent {
	a := &Agent{
		ID:        id,
		Start:     start,
		Goal:      goal,
		lastVisit: make(map[core.VertexID]int),
	}
	a.set(State{Parent: start, V: start})
	return a
}

// set appends s to the log and makes it current.
func (a *Agent) set(s State) {
	a.log = append(a.log, s)
	a.Curr = s
	a.lastVisit[s.V] = len(a.log) - 1
}

// head is the log index of Curr.
func (a *Agent) head() int { return len(a.log) - 1 }

// cameFrom is the vertex a left to reach its current one.
func (a *Agent) cameFrom() (core.VertexID, bool) {
	for i := len(a.log) - 1; i >= 0; i-- {
		if s := a.log[i]; !s.IsWait() {
			return s.Parent, true
		}
	}
	return 0, false
}

// Log returns the agent's states in order.
func (a *Agent) Log() []State { return a.log }

// forbidden is an immutable set of vertices and agents carried down a push
// chain. Extending it never affects the caller's copy.
type forbidden struct {
	vertices *vnode
	agents   *anode
}

type vnode struct {
	v    core.VertexID
	next *vnode
}

type anode struct {
	id   core.AgentID
	next *anode
}

func newForbidden(id core.AgentID, v core.VertexID) forbidden {
	return forbidden{vertices: &vnode{v: v}, agents: &anode{id: id}}
}

func (f forbidden) with(id core.AgentID, v core.VertexID) forbidden {
	return forbidden{
		vertices: &vnode{v: v, next: f.vertices},
		agents:   &anode{id: id, next: f.agents},
	}
}

func (f forbidden) withVertex(v core.VertexID) forbidden {
	return forbidden{vertices: &vnode{v: v, next: f.vertices}, agents: f.agents}
}

func (f forbidden) hasVertex(v core.VertexID) bool {
	for n := f.vertices; n != nil; n = n.next {
		if n.v == v {
			return true
		}
	}
	return false
}

func (f forbidden) hasAgent(id core.AgentID) bool {
	for n := f.agents; n != nil; n = n.next {
		if n.id == id {
			return true
		}
	}
	return false
}

// passPair shares one unit of V between the two members of a pass-through
// swap until both have left it.
type passPair struct {
	v         core.VertexID
	remaining int
}

// passHold forces an agent's next move to a vertex whose unit it already holds.
type passHold struct {
	to   core.VertexID
	pair *passPair
}
