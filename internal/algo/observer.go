package algo

import (
	"fmt"
	"sync"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// Commit is one recorded planner decision.
type Commit struct {
	Agent core.AgentID
	State State
	Kind  MoveKind
}

// Recorder is an Observer that keeps every decision and checks the graph's
// occupancy counters against max capacity after each round.
type Recorder struct {
	mu sync.Mutex

	Commits    []Commit
	Rounds     []float64
	Violations []string
}

var _ Observer = (*Recorder)(nil)

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnCommit records a decision.
func (r *Recorder) OnCommit(agent core.AgentID, s State, kind MoveKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Commits = append(r.Commits, Commit{Agent: agent, State: s, Kind: kind})
}

// OnRound records the round and audits the counters.
func (r *Recorder) OnRound(t float64, g core.Graph, states []State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Rounds = append(r.Rounds, t)
	for _, v := range g.AllVertices() {
		if occ, limit := g.OccupiedCapacity(v), g.MaxCapacity(v); occ > limit || occ < 0 {
			r.Violations = append(r.Violations, fmt.Sprintf("t=%v vertex %d: %d/%d", t, v, occ, limit))
		}
	}
}

// Count returns how many commits of kind were recorded.
func (r *Recorder) Count(kind MoveKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.Commits {
		if c.Kind == kind {
			n++
		}
	}
	return n
}
