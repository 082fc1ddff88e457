// Package observer feeds planner decisions into the visualization state.
package observer

import (
	"github.com/elektrokombinacija/lsrp-capaset/internal/algo"
	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/state"
)

// TraceObserver adapts a state.Trace to algo.Observer.
type TraceObserver struct {
	trace *state.Trace
}

var _ algo.Observer = (*TraceObserver)(nil)

// NewTraceObserver creates a new observer backed by trace.
func NewTraceObserver(trace *state.Trace) *TraceObserver {
	return &TraceObserver{trace: trace}
}

// OnCommit records the committed state as a move.
func (o *TraceObserver) OnCommit(agent core.AgentID, s algo.State, kind algo.MoveKind) {
	o.trace.AddMove(state.Move{
		Agent: agent,
		From:  s.Parent,
		To:    s.V,
		Start: s.Start,
		End:   s.End,
		Kind:  kind.String(),
	})
}

// OnRound records the round time.
func (o *TraceObserver) OnRound(t float64, g core.Graph, states []algo.State) {
	o.trace.AddRound(t)
}
