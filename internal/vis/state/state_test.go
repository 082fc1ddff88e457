package state

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// corridor is a 1x4 grid: agent 0 walks 0->2, agent 1 rests on 3.
func corridor(t *testing.T) *State {
	t.Helper()
	g := core.NewOpenGrid(1, 4)
	inst := core.NewInstance(g)
	inst.AddAgent(0, 2, 0)
	inst.AddAgent(3, 3, 0)

	sol := core.NewSolution()
	sol.Paths[0] = core.Path{{V: 0, T: 0}, {V: 1, T: 1}, {V: 2, T: 2}}
	sol.Paths[1] = core.Path{{V: 3, T: 0}}
	sol.Segments[0] = []core.Segment{{V: 0, Arrive: 0, Depart: 0}, {V: 1, Arrive: 1, Depart: 1}, {V: 2, Arrive: 2, Depart: 2}}
	sol.Segments[1] = []core.Segment{{V: 3, Arrive: 0, Depart: 0}}
	sol.AtGoal[0], sol.AtGoal[1] = true, true
	sol.Makespan = 2
	sol.Status = core.StatusSuccess
	return NewState(inst, sol, nil)
}

func TestLayoutGrid(t *testing.T) {
	pos := Layout(core.NewOpenGrid(2, 3))
	require.Len(t, pos, 6)
	assert.Equal(t, core.Pos{X: 2, Y: 1}, pos[5])

	minX, minY, maxX, maxY := Bounds(pos)
	assert.Equal(t, []float64{0, 0, 2, 1}, []float64{minX, minY, maxX, maxY})
}

func TestLayoutEdgeOnlyRoadmap(t *testing.T) {
	ws := core.NewWorkspace()
	require.NoError(t, ws.AddEdge(0, 1, core.CostVec{1}))
	require.NoError(t, ws.AddEdge(1, 2, core.CostVec{1}))

	pos := Layout(ws)
	require.Len(t, pos, 3)
	assert.NotEqual(t, pos[0], pos[1])
	assert.NotEqual(t, pos[1], pos[2])
	for _, p := range pos {
		assert.InDelta(t, 1, math.Hypot(p.X, p.Y), 1e-9)
	}
}

func TestBoundsEmpty(t *testing.T) {
	minX, minY, maxX, maxY := Bounds(nil)
	assert.Zero(t, minX+minY+maxX+maxY)
}

func TestCurrentPositions(t *testing.T) {
	s := corridor(t)

	s.Playback.SetTime(0.5)
	pos := s.CurrentPositions()
	assert.InDelta(t, 0.5, pos[0].X, 1e-9)
	assert.Equal(t, core.Pos{X: 3}, pos[1])

	s.Playback.SetTime(10)
	assert.Equal(t, 2.0, s.Playback.CurrentTime)
	assert.Equal(t, core.Pos{X: 2}, s.CurrentPositions()[0])
}

func TestPathHistoryAndFuture(t *testing.T) {
	s := corridor(t)
	s.Playback.SetTime(1.5)

	history := s.PathHistory(0)
	require.Len(t, history, 3)
	assert.InDelta(t, 1.5, history[2].X, 1e-9)

	future := s.FuturePath(0)
	require.Len(t, future, 2)
	assert.InDelta(t, 1.5, future[0].X, 1e-9)
	assert.Equal(t, core.Pos{X: 2}, future[1])

	assert.Nil(t, s.PathHistory(7))
}

func TestLoad(t *testing.T) {
	s := corridor(t)

	// agent 0 holds vertex 1 from the moment it leaves 0
	assert.Equal(t, map[core.VertexID]int{1: 1, 3: 1}, s.Load())

	s.Playback.SetTime(2)
	assert.Equal(t, map[core.VertexID]int{2: 1, 3: 1}, s.Load())

	// loaded plans carry no segments
	s.Solution.Segments = map[core.AgentID][]core.Segment{}
	s.Playback.SetTime(0.5)
	assert.Equal(t, map[core.VertexID]int{0: 1, 3: 1}, s.Load())
}

func TestEventTimes(t *testing.T) {
	s := corridor(t)
	assert.Equal(t, []float64{0, 1, 2}, s.Playback.Events)
	assert.Equal(t, 2.0, s.Playback.MaxTime)
}

func TestPlaybackAdvance(t *testing.T) {
	clock := time.Unix(0, 0)
	p := NewPlaybackState(4, nil)
	p.now = func() time.Time { return clock }

	p.Play()
	clock = clock.Add(time.Second)
	p.Advance()
	assert.InDelta(t, 1, p.CurrentTime, 1e-9)

	p.SetSpeed(2)
	clock = clock.Add(time.Second)
	p.Advance()
	assert.InDelta(t, 3, p.CurrentTime, 1e-9)

	clock = clock.Add(5 * time.Second)
	p.Advance()
	assert.Equal(t, 4.0, p.CurrentTime)
	assert.False(t, p.Playing)
	assert.Equal(t, 1.0, p.Progress())

	p.TogglePlay()
	assert.True(t, p.Playing)
	assert.Zero(t, p.CurrentTime)

	p.Pause()
	clock = clock.Add(time.Second)
	p.Advance()
	assert.Zero(t, p.CurrentTime)
}

func TestPlaybackStep(t *testing.T) {
	p := NewPlaybackState(4, []float64{0, 1, 2.5, 4})
	p.Play()

	p.StepForward()
	assert.False(t, p.Playing)
	assert.Equal(t, 1.0, p.CurrentTime)
	p.StepForward()
	assert.Equal(t, 2.5, p.CurrentTime)

	p.StepBack()
	assert.Equal(t, 1.0, p.CurrentTime)
	p.StepBack()
	assert.Zero(t, p.CurrentTime)
	p.StepBack()
	assert.Zero(t, p.CurrentTime)

	p.SetTime(3)
	p.StepForward()
	assert.Equal(t, 4.0, p.CurrentTime)
	p.StepForward()
	assert.Equal(t, 4.0, p.CurrentTime)

	p.Reset()
	assert.Zero(t, p.CurrentTime)
}

func TestPlaybackSpeedClamp(t *testing.T) {
	p := NewPlaybackState(1, nil)
	p.SetSpeed(100)
	assert.Equal(t, 10.0, p.Speed)
	p.SetSpeed(0)
	assert.Equal(t, 0.1, p.Speed)

	assert.Zero(t, NewPlaybackState(0, nil).Progress())
}

func TestSelection(t *testing.T) {
	s := NewSelection()
	assert.True(t, s.Highlighted(3))

	s.SelectAgent(1, false)
	s.SelectAgent(2, true)
	assert.Equal(t, map[core.AgentID]bool{1: true, 2: true}, s.Agents)
	assert.False(t, s.Highlighted(3))

	s.SelectAgent(2, true)
	assert.Equal(t, map[core.AgentID]bool{1: true}, s.Agents)

	s.SelectAgent(1, false)
	assert.Empty(t, s.Agents)

	s.SelectVertex(4)
	assert.True(t, s.HasVertex)
	assert.Equal(t, core.VertexID(4), s.Vertex)
	s.Clear()
	assert.False(t, s.HasVertex)
}

func TestTrace(t *testing.T) {
	tr := NewTrace()
	tr.AddMove(Move{Agent: 1, From: 2, To: 1, Start: 0, End: 1, Kind: "swap"})
	tr.AddMove(Move{Agent: 0, From: 0, To: 1, Start: 0, End: 1, Kind: "step"})
	tr.AddMove(Move{Agent: 2, From: 5, To: 5, Start: 0, End: 3, Kind: "wait"})
	tr.AddMove(Move{Agent: 0, From: 1, To: 2, Start: 1, End: 2, Kind: "step"})
	tr.AddRound(0)
	tr.AddRound(1)

	active := tr.Active(0.5)
	require.Len(t, active, 2)
	assert.Equal(t, core.AgentID(0), active[0].Agent)
	assert.Equal(t, core.AgentID(1), active[1].Agent)
	assert.Len(t, tr.Active(1), 1)

	assert.Equal(t, map[string]int{"swap": 1, "step": 2, "wait": 1}, tr.Counts())
	assert.Equal(t, 4, tr.Len())

	rounds := tr.Rounds()
	rounds[0] = 9
	assert.Equal(t, []float64{0, 1}, tr.Rounds())
}
