package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacities(t *testing.T) {
	var c Capacities

	assert.Equal(t, 1, c.MaxCapacity(3), "default capacity")
	assert.Equal(t, 0, c.OccupiedCapacity(3))

	c.DecreaseOccupied(3)
	assert.Equal(t, 0, c.OccupiedCapacity(3), "decrease saturates at zero")

	c.SetMaxCapacity(3, 2)
	c.IncreaseOccupied(3)
	assert.True(t, HasRoom(&c, 3))
	c.IncreaseOccupied(3)
	assert.False(t, HasRoom(&c, 3))

	c.ClearOccupied()
	assert.Equal(t, 0, c.OccupiedCapacity(3))
	assert.Equal(t, 2, c.MaxCapacity(3), "clear keeps max capacity")
}

func TestCostVec(t *testing.T) {
	var sum CostVec
	sum = sum.Add(CostVec{1, 2})
	sum = sum.Add(CostVec{0.5, 1, 3})
	assert.Equal(t, CostVec{1.5, 3, 3}, sum)
	assert.Equal(t, 1.5, sum.Primary())
	assert.InDelta(t, 1.5+6, sum.Weighted([]float64{1, 2}), 1e-9)
	assert.Equal(t, 0.0, CostVec(nil).Primary())
}

func TestStatusRoundTrip(t *testing.T) {
	for st := StatusSuccess; st <= StatusInfeasible; st++ {
		got, err := ParseStatus(st.String())
		require.NoError(t, err)
		assert.Equal(t, st, got)
	}
	_, err := ParseStatus("bogus")
	assert.Error(t, err)
}

func TestWorkspaceArcs(t *testing.T) {
	w := NewWorkspace()
	require.NoError(t, w.AddEdge(0, 1, CostVec{1, 5}))
	require.NoError(t, w.AddArc(1, 2, CostVec{2, 1}))

	assert.Equal(t, 3, w.NumVertices())
	assert.Equal(t, 3, w.NumArcs())
	assert.Equal(t, 2, w.CostDim())
	assert.True(t, w.HasArc(1, 2))
	assert.False(t, w.HasArc(2, 1))
	assert.Equal(t, []VertexID{0, 2}, w.Succs(1))
	assert.Equal(t, []VertexID{1}, w.Preds(2))
	assert.Equal(t, CostVec{2, 1}, w.Cost(1, 2))
	assert.Nil(t, w.Cost(2, 1))

	_, err := w.NumEdges()
	assert.ErrorIs(t, err, ErrInvariant, "odd arc count")

	err = w.AddArc(2, 0, CostVec{1})
	assert.ErrorIs(t, err, ErrCostDim)

	require.NoError(t, w.SetArcCost(1, 2, CostVec{4, 4}))
	assert.Equal(t, []CostVec{{4, 4}}, w.PredCosts(2))
	assert.ErrorIs(t, w.SetArcCost(2, 1, CostVec{1, 1}), ErrArcNotFound)
	assert.ErrorIs(t, w.SetArcCost(1, 9, CostVec{1, 1}), ErrVertexNotFound)
	assert.ErrorIs(t, w.SetArcCost(1, 2, CostVec{1}), ErrCostDim)

	w.ChangeCostDim(3, 7)
	assert.Equal(t, CostVec{4, 4, 7}, w.Cost(1, 2))
	assert.Equal(t, CostVec{4, 4, 7}, w.PredCosts(2)[0])
	assert.Contains(t, w.String(), "roadmap: 3 vertices")
}

func TestGridNeighborhood(t *testing.T) {
	g, err := NewGrid([][]float64{
		{0, 0, 0},
		{0, 1, 0},
		{0, 0, 0},
	})
	require.NoError(t, err)

	center := g.ID(1, 1)
	assert.False(t, g.HasVertex(center), "obstacle is not a vertex")
	assert.Len(t, g.AllVertices(), 8)
	assert.Equal(t, 9, g.NumVertices())
	assert.ElementsMatch(t, []VertexID{1, 3}, g.Succs(0))

	n, err := g.NumEdges()
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	require.NoError(t, g.SetNeighborhood(8))
	g.SetScale(2)
	assert.True(t, g.HasArc(g.ID(0, 1), g.ID(1, 0)))
	assert.InDelta(t, 2*math.Sqrt2, g.Cost(g.ID(0, 1), g.ID(1, 0)).Primary(), 1e-9)
	assert.InDelta(t, 2.0, g.Cost(0, 1).Primary(), 1e-9)
	assert.ErrorIs(t, g.SetNeighborhood(6), ErrNotImplemented)

	_, err = NewGrid([][]float64{{0, 0}, {0}})
	assert.ErrorIs(t, err, ErrInvalidInstance)
}

func TestHybridIDRanges(t *testing.T) {
	g := NewOpenGrid(2, 2) // global 0..3
	w := NewWorkspace()
	require.NoError(t, w.AddEdge(0, 1, CostVec{3})) // global 4..5

	h := NewHybrid()
	h.AddGrid(g, Pos{})
	rm := h.AddRoadmap(w, Pos{X: 10})
	assert.Equal(t, VertexID(4), rm.Start)
	assert.Equal(t, VertexID(6), rm.End)

	require.NoError(t, h.AddLink(3, 4, CostVec{2}))
	require.NoError(t, h.AddLink(4, 3, CostVec{2}))
	assert.ErrorIs(t, h.AddLink(3, 40, CostVec{2}), ErrVertexNotFound)
	assert.ErrorIs(t, h.AddLink(3, 5, CostVec{2, 2}), ErrCostDim)

	assert.Equal(t, 6, h.NumVertices())
	assert.Equal(t, []VertexID{0, 1, 2, 3, 4, 5}, h.AllVertices())
	assert.ElementsMatch(t, []VertexID{1, 2, 4}, h.Succs(3))
	assert.ElementsMatch(t, []VertexID{5, 3}, h.Preds(4))
	assert.Equal(t, CostVec{3}, h.Cost(4, 5))
	assert.Equal(t, CostVec{2}, h.Cost(3, 4))
	assert.Nil(t, h.Cost(0, 5))
	assert.True(t, h.HasArc(4, 3))
	assert.False(t, h.HasArc(0, 4))

	succ, costs := h.Succs(3), h.SuccCosts(3)
	require.Len(t, costs, len(succ))

	n, err := h.NumEdges()
	require.NoError(t, err)
	assert.Equal(t, 4+1+1, n)

	p, ok := h.Position(5)
	require.True(t, ok)
	assert.Equal(t, 10.0, p.X)

	h.SetMaxCapacity(4, 3)
	assert.Equal(t, 3, h.MaxCapacity(4))
	assert.Equal(t, 1, w.MaxCapacity(0), "member tables are independent")
}

func TestInstanceValidate(t *testing.T) {
	line := func(t *testing.T) *Workspace {
		w := NewWorkspace()
		for i := 0; i < 2; i++ {
			require.NoError(t, w.AddEdge(VertexID(i), VertexID(i+1), CostVec{1}))
		}
		return w
	}

	tests := []struct {
		name  string
		setup func(inst *Instance)
		want  error
	}{
		{"ok", func(inst *Instance) { inst.AddAgent(0, 2, 0) }, nil},
		{"no agents", func(inst *Instance) {}, ErrInvalidInstance},
		{"missing start", func(inst *Instance) { inst.AddAgent(7, 2, 0) }, ErrVertexNotFound},
		{"missing goal", func(inst *Instance) { inst.AddAgent(0, 9, 0) }, ErrVertexNotFound},
		{"negative duration", func(inst *Instance) { inst.AddAgent(0, 2, -1) }, ErrInvalidInstance},
		{"shared start", func(inst *Instance) {
			inst.AddAgent(1, 2, 0)
			inst.AddAgent(1, 0, 0)
		}, ErrInvalidInstance},
		{"shared start with capacity", func(inst *Instance) {
			inst.AddAgent(1, 2, 0)
			inst.AddAgent(1, 0, 0)
			inst.Capacities[1] = 2
		}, nil},
		{"bad override arc", func(inst *Instance) {
			inst.AddAgent(0, 2, 0)
			inst.EdgeCosts[Arc{0, 2}] = 1
		}, ErrArcNotFound},
		{"zero override", func(inst *Instance) {
			inst.AddAgent(0, 2, 0)
			inst.EdgeCosts[Arc{0, 1}] = 0
		}, ErrInvalidInstance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := NewInstance(line(t))
			tt.setup(inst)
			err := inst.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPathPositionAt(t *testing.T) {
	p := Path{{V: 0, T: 0}, {V: 1, T: 1}, {V: 1, T: 2}, {V: 2, T: 3}}

	tests := []struct {
		t    float64
		want VertexID
	}{
		{-1, 0}, {0, 0}, {0.5, 0}, {1, 1}, {2.5, 1}, {3, 2}, {9, 2},
	}
	for _, tt := range tests {
		got, ok := p.PositionAt(tt.t)
		require.True(t, ok)
		assert.Equal(t, tt.want, got, "t=%v", tt.t)
	}

	_, ok := Path(nil).PositionAt(0)
	assert.False(t, ok)
}

func TestSolutionAggregates(t *testing.T) {
	s := NewSolution()
	s.Paths[0] = Path{{0, 0}, {1, 1}, {2, 2}}
	s.Paths[1] = Path{{2, 0}, {2, 1.5}}
	s.AtGoal[0] = true

	assert.Equal(t, 3.5, s.ComputeSoC())
	assert.Equal(t, 2.0, s.ComputeMakespan())
	assert.Equal(t, 1, s.NumAtGoal())
	assert.True(t, s.MeetDeadline(2))
	assert.Equal(t, []AgentID{0, 1}, s.AgentIDs())
}
