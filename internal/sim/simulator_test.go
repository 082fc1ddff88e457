package sim

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lsrp-capaset/internal/algo"
	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// lineInstance builds the 1x3 corridor with two agents exchanging ends.
func lineInstance(t *testing.T) *core.Instance {
	t.Helper()
	ws := core.NewWorkspace()
	require.NoError(t, ws.AddEdge(0, 1, core.CostVec{1}))
	require.NoError(t, ws.AddEdge(1, 2, core.CostVec{1}))
	inst := core.NewInstance(ws)
	inst.Name = "line"
	inst.AddAgent(0, 2, 0)
	inst.AddAgent(2, 0, 0)
	return inst
}

func TestSimulatePassThrough(t *testing.T) {
	inst := lineInstance(t)
	s := NewSimulator(SimulationConfig{
		Instance: inst,
		Solver:   algo.NewLsrp(inst.Graph, algo.DefaultOptions()),
		TimeStep: 0.5,
	})

	m, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "success", m.Status)
	assert.Equal(t, 5, m.Steps)
	assert.InDelta(t, 2.0, m.SimulatedTime, 1e-9)
	assert.Equal(t, 2, m.AgentsAtGoal)
	assert.Equal(t, 4, m.Moves)
	assert.Equal(t, 1, m.PassThroughs)
	assert.Zero(t, m.OverloadEvents)
	assert.GreaterOrEqual(t, m.OverloadSteps, 1)
	assert.Equal(t, 2.0, m.PeakLoad)

	pos := s.Positions()
	assert.Equal(t, core.VertexID(2), pos[0])
	assert.Equal(t, core.VertexID(0), pos[1])
}

func TestSimulateWideCorridor(t *testing.T) {
	inst := lineInstance(t)
	inst.Capacities[1] = 2
	opts := algo.DefaultOptions()
	opts.Swap = false

	res, err := RunSimulation(context.Background(), SimulationConfig{
		Instance: inst,
		Solver:   algo.NewLsrp(inst.Graph, opts),
		TimeStep: 0.25,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "line", res.Scenario)
	assert.Equal(t, "LSRP", res.Solver)
	assert.Zero(t, res.Metrics.OverloadSteps)
	assert.Zero(t, res.Metrics.PassThroughs)
	assert.Equal(t, 1.0, res.Metrics.PeakLoad)
}

func TestReplayPaths(t *testing.T) {
	inst := lineInstance(t)
	sol := core.NewSolution()
	sol.Status = core.StatusSuccess
	sol.Makespan = 2
	sol.Paths[0] = core.Path{{V: 0, T: 0}, {V: 1, T: 1}, {V: 2, T: 2}}
	sol.Paths[1] = core.Path{{V: 2, T: 0}, {V: 1, T: 1}, {V: 0, T: 2}}
	sol.AtGoal[0], sol.AtGoal[1] = true, true

	s := NewSimulator(SimulationConfig{Instance: inst, TimeStep: 0.5})
	m, err := s.Replay(context.Background(), sol)
	require.NoError(t, err)
	assert.Equal(t, 2, m.AgentsAtGoal)
	// both paths sit on vertex 1 during [1, 2)
	assert.Equal(t, 2, m.OverloadSteps)
	assert.Zero(t, m.OverloadEvents, "no segments to attribute overloads")
	assert.Nil(t, s.config.Solver)
}

func TestSimulateCancelled(t *testing.T) {
	inst := lineInstance(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSimulator(SimulationConfig{
		Instance: inst,
		Solver:   algo.NewLsrp(inst.Graph, algo.DefaultOptions()),
	})
	m, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "timeout", m.Status)
	assert.Zero(t, m.Steps)
	assert.Zero(t, m.AgentsAtGoal)
}

func TestSimulateNeedsSolver(t *testing.T) {
	_, err := NewSimulator(SimulationConfig{Instance: lineInstance(t)}).Run(context.Background())
	assert.ErrorIs(t, err, core.ErrInvalidInstance)

	res, err := RunSimulation(context.Background(), SimulationConfig{})
	assert.Error(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestExportMetrics(t *testing.T) {
	inst := lineInstance(t)
	s := NewSimulator(SimulationConfig{
		Instance: inst,
		Solver:   algo.NewLsrp(inst.Graph, algo.DefaultOptions()),
	})
	_, err := s.Run(context.Background())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "metrics.json")
	require.NoError(t, s.ExportMetrics(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var m SimulationMetrics
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "success", m.Status)
	assert.Equal(t, 2, m.NumAgents)
	assert.InDelta(t, 4.0, m.SoC, 1e-9)
}
