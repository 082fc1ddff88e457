package algo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

func TestBackwardDijkstraDirected(t *testing.T) {
	ws := core.NewWorkspace()
	require.NoError(t, ws.AddArc(0, 1, core.CostVec{1}))
	require.NoError(t, ws.AddArc(1, 2, core.CostVec{2}))
	require.NoError(t, ws.AddArc(2, 0, core.CostVec{5}))

	d := BackwardDijkstra(ws, 2, overrideWeight(nil, nil))
	assert.Equal(t, 0.0, d.Get(2))
	assert.Equal(t, 2.0, d.Get(1))
	assert.Equal(t, 3.0, d.Get(0))

	d = BackwardDijkstra(ws, 0, overrideWeight(nil, nil))
	assert.Equal(t, 5.0, d.Get(2))
	assert.Equal(t, 7.0, d.Get(1))
	assert.True(t, math.IsInf(d.Get(9), 1))

	over := overrideWeight(map[core.Arc]float64{{From: 1, To: 2}: 0.25}, nil)
	d = BackwardDijkstra(ws, 2, over)
	assert.Equal(t, 1.25, d.Get(0))
}

func TestGenerateDistTablesSharesGoals(t *testing.T) {
	g := createGrid(4)
	tables := GenerateDistTables(g, ids(15, 0, 15), overrideWeight(nil, nil))
	require.Len(t, tables, 3)
	assert.Equal(t, 6.0, tables[0].Get(0))
	assert.Equal(t, 6.0, tables[1].Get(15))
	tables[0][99] = 1
	assert.Equal(t, 1.0, tables[2].Get(99), "agents with the same goal share a table")
}

func TestEventQueue(t *testing.T) {
	q := newEventQueue()
	assert.True(t, q.Push(2))
	assert.True(t, q.Push(1))
	assert.False(t, q.Push(1))
	assert.False(t, q.Push(1+1e-12), "times are normalised before dedupe")
	assert.True(t, q.Push(1.0005))
	assert.True(t, q.Push(3))
	assert.Equal(t, 4, q.Len())

	next, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 1.0, next)

	got, ok := q.Pop(TimeTolerance)
	require.True(t, ok)
	assert.Equal(t, 1.0, got)
	assert.Equal(t, 2, q.Len(), "1.0005 merges into 1")

	got, _ = q.Pop(TimeTolerance)
	assert.Equal(t, 2.0, got)
	assert.True(t, q.Push(2), "popped times can be queued again")

	got, _ = q.Pop(TimeTolerance)
	assert.Equal(t, 2.0, got)
	got, _ = q.Pop(TimeTolerance)
	assert.Equal(t, 3.0, got)
	_, ok = q.Pop(TimeTolerance)
	assert.False(t, ok)
}

func TestSnapshotCache(t *testing.T) {
	a := newAgent(0, 3, 5)
	b := newAgent(1, 7, 7)
	c := newSnapshotCache()

	c.store(0, []*Agent{a, b})
	a.set(State{Parent: 3, V: 4, Start: 0, End: 1})
	c.store(1, []*Agent{a, b})

	assert.Equal(t, []float64{0, 1}, c.Times())
	s0, ok := c.states(0, []*Agent{a, b})
	require.True(t, ok)
	assert.Equal(t, core.VertexID(3), s0[0].V)
	s1, _ := c.states(1, []*Agent{a, b})
	assert.Equal(t, core.VertexID(4), s1[0].V)
	assert.Equal(t, core.VertexID(7), s1[1].V)

	_, ok = c.states(2, []*Agent{a, b})
	assert.False(t, ok)
}

func TestForbiddenIsPersistent(t *testing.T) {
	root := newForbidden(0, 1).withVertex(2)
	left := root.with(1, 3)
	right := root.with(2, 4)

	assert.True(t, root.hasVertex(1))
	assert.True(t, root.hasVertex(2))
	assert.False(t, root.hasVertex(3))
	assert.True(t, root.hasAgent(0))
	assert.False(t, root.hasAgent(1))

	assert.True(t, left.hasVertex(3))
	assert.False(t, left.hasVertex(4))
	assert.True(t, left.hasAgent(1))
	assert.False(t, left.hasAgent(2))

	assert.True(t, right.hasVertex(4))
	assert.False(t, right.hasVertex(3))
}

func TestAgentLog(t *testing.T) {
	a := newAgent(2, 5, 9)
	assert.True(t, a.Curr.IsWait())
	assert.Equal(t, 0, a.head())

	a.set(State{Parent: 5, V: 6, Start: 0, End: 1.5})
	a.set(State{Parent: 6, V: 6, Start: 1.5, End: 2})
	assert.Equal(t, 2, a.head())
	assert.Equal(t, core.VertexID(6), a.Curr.V)
	assert.Equal(t, 2, a.lastVisit[6])
	assert.Equal(t, 0, a.lastVisit[5])
	require.NoError(t, CheckLog(a.Log()))

	a.set(State{Parent: 7, V: 8, Start: 2, End: 3})
	assert.Error(t, CheckLog(a.Log()))
}

func TestFindCapacityViolations(t *testing.T) {
	g := lineGraph(t, 3)

	t.Run("sequential", func(t *testing.T) {
		segs := map[core.AgentID][]core.Segment{
			0: {{V: 0, Arrive: 0, Depart: 1}, {V: 1, Arrive: 2, Depart: 2}, {V: 2, Arrive: 3, Depart: 3}},
			1: {{V: 1, Arrive: 0, Depart: 1}, {V: 2, Arrive: 2, Depart: 2}},
		}
		// agent 0 enters 1 as agent 1 leaves it, both end on 2
		v := FindCapacityViolations(g, segs)
		require.Len(t, v, 1)
		assert.Equal(t, core.VertexID(2), v[0].Vertex)
		assert.Equal(t, 2, v[0].Load)
		assert.False(t, v[0].PassThrough)
	})

	t.Run("crossing", func(t *testing.T) {
		segs := map[core.AgentID][]core.Segment{
			0: {{V: 0, Arrive: 0, Depart: 0}, {V: 1, Arrive: 1, Depart: 1}, {V: 2, Arrive: 2, Depart: 2}},
			1: {{V: 2, Arrive: 0, Depart: 0}, {V: 1, Arrive: 1, Depart: 1}, {V: 0, Arrive: 2, Depart: 2}},
		}
		v := FindCapacityViolations(g, segs)
		require.Len(t, v, 1)
		assert.Equal(t, core.VertexID(1), v[0].Vertex)
		assert.Equal(t, []core.AgentID{0, 1}, v[0].Agents)
		assert.True(t, v[0].PassThrough)
	})

	t.Run("within capacity", func(t *testing.T) {
		g := lineGraph(t, 3)
		g.SetMaxCapacity(1, 2)
		segs := map[core.AgentID][]core.Segment{
			0: {{V: 0, Arrive: 0, Depart: 0}, {V: 1, Arrive: 1, Depart: 1}, {V: 2, Arrive: 2, Depart: 2}},
			1: {{V: 2, Arrive: 0, Depart: 0}, {V: 1, Arrive: 1, Depart: 1}, {V: 0, Arrive: 2, Depart: 2}},
		}
		assert.Empty(t, FindCapacityViolations(g, segs))
	})
}

func TestCheckContiguity(t *testing.T) {
	g := lineGraph(t, 3)

	ok := map[core.AgentID]core.Path{
		0: {{V: 0, T: 0}, {V: 0, T: 1}, {V: 1, T: 2}},
	}
	assert.NoError(t, CheckContiguity(g, ok))

	jump := map[core.AgentID]core.Path{
		0: {{V: 0, T: 0}, {V: 2, T: 1}},
	}
	assert.ErrorIs(t, CheckContiguity(g, jump), core.ErrArcNotFound)

	back := map[core.AgentID]core.Path{
		0: {{V: 0, T: 2}, {V: 1, T: 1}},
	}
	assert.Error(t, CheckContiguity(g, back))
}

func TestBuildPathSkipsWaits(t *testing.T) {
	states := []State{
		{Parent: 0, V: 0},
		{Parent: 0, V: 0, Start: 0, End: 1},
		{Parent: 0, V: 1, Start: 1, End: 2},
		{Parent: 1, V: 1, Start: 2, End: 3},
	}
	path := buildPath(0, states, TimeTolerance)
	assert.Equal(t, core.Path{{V: 0, T: 0}, {V: 0, T: 1}, {V: 1, T: 2}, {V: 1, T: 3}}, path)

	segs := buildSegments(0, states)
	assert.Equal(t, []core.Segment{{V: 0, Arrive: 0, Depart: 1}, {V: 1, Arrive: 2, Depart: 3}}, segs)
}

func TestMoveKindNames(t *testing.T) {
	for _, k := range []MoveKind{MoveStep, MovePush, MoveSwap, MovePass, MoveForced, MoveWait} {
		assert.NotEmpty(t, k.String())
	}
	assert.Equal(t, "lenient", SwapLenient.String())
	assert.Equal(t, "strict", SwapStrict.String())
}
