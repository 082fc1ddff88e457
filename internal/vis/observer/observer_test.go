package observer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lsrp-capaset/internal/algo"
	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/state"
)

func TestTraceObserverRecordsPlannerRun(t *testing.T) {
	ws := core.NewWorkspace()
	require.NoError(t, ws.AddEdge(0, 1, core.CostVec{1}))
	require.NoError(t, ws.AddEdge(1, 2, core.CostVec{1}))
	inst := core.NewInstance(ws)
	inst.AddAgent(0, 2, 0)
	inst.AddAgent(2, 0, 0)

	trace := state.NewTrace()
	opts := algo.DefaultOptions()
	opts.Observer = NewTraceObserver(trace)

	sol, err := algo.NewLsrp(ws, opts).SolveInstance(context.Background(), inst)
	require.NoError(t, err)
	require.Equal(t, core.StatusSuccess, sol.Status)

	assert.NotZero(t, trace.Len())
	assert.NotEmpty(t, trace.Rounds())

	known := map[string]bool{"step": true, "push": true, "swap": true, "pass": true, "forced": true, "wait": true}
	reached := map[core.AgentID]bool{}
	for kind, n := range trace.Counts() {
		assert.True(t, known[kind], kind)
		assert.Positive(t, n)
	}
	for _, at := range []float64{0, 0.5, 1, 1.5} {
		for _, m := range trace.Active(at) {
			assert.NotEqual(t, m.From, m.To)
			assert.LessOrEqual(t, m.Start, at)
			if m.To == inst.Agents[m.Agent].Goal {
				reached[m.Agent] = true
			}
		}
	}
	assert.True(t, reached[0])
	assert.True(t, reached[1])
}
