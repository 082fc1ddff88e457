package state

import (
	"sort"
	"sync"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// Move is one recorded planner decision.
type Move struct {
	Agent core.AgentID
	From  core.VertexID
	To    core.VertexID
	Start float64
	End   float64
	Kind  string
}

// Trace collects planner decisions for the timeline. It is filled from the
// planning goroutine and read by the UI.
type Trace struct {
	mu     sync.Mutex
	moves  []Move
	rounds []float64
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// AddMove records a decision.
func (t *Trace) AddMove(m Move) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.moves = append(t.moves, m)
}

// AddRound records a round time.
func (t *Trace) AddRound(at float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rounds = append(t.rounds, at)
}

// Rounds returns the recorded round times.
func (t *Trace) Rounds() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]float64(nil), t.rounds...)
}

// Active returns the non-wait moves in progress at time at, ordered by
// agent.
func (t *Trace) Active(at float64) []Move {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Move
	for _, m := range t.moves {
		if m.From != m.To && m.Start <= at && at < m.End {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

// Counts returns how many moves of each kind were recorded.
func (t *Trace) Counts() map[string]int {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]int)
	for _, m := range t.moves {
		out[m.Kind]++
	}
	return out
}

// Len returns the number of recorded moves.
func (t *Trace) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.moves)
}
