// Package state manages the visualization state.
package state

import (
	"math"
	"sort"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// State holds all visualization state.
type State struct {
	Instance  *core.Instance
	Solution  *core.Solution
	Playback  *PlaybackState
	Selection *Selection
	Trace     *Trace

	layout map[core.VertexID]core.Pos
}

// NewState creates a new visualization state. trace may be nil when the
// plan was loaded from a file.
func NewState(inst *core.Instance, sol *core.Solution, trace *Trace) *State {
	maxTime := 0.0
	var events []float64
	if sol != nil {
		maxTime = sol.Makespan
		events = eventTimes(sol)
	}
	if trace == nil {
		trace = NewTrace()
	}

	return &State{
		Instance:  inst,
		Solution:  sol,
		Playback:  NewPlaybackState(maxTime, events),
		Selection: NewSelection(),
		Trace:     trace,
		layout:    Layout(inst.Graph),
	}
}

// Layout places every vertex of g. Vertices with a planar position keep
// it; the rest are spread on a circle around the positioned ones. When all
// positions coincide, as for roadmaps built from edges only, every vertex
// goes on the circle.
func Layout(g core.Graph) map[core.VertexID]core.Pos {
	out := make(map[core.VertexID]core.Pos, g.NumVertices())
	var missing []core.VertexID
	pos, _ := g.(core.Positioner)
	for _, v := range g.AllVertices() {
		if pos != nil {
			if p, ok := pos.Position(v); ok {
				out[v] = p
				continue
			}
		}
		missing = append(missing, v)
	}
	if minX, minY, maxX, maxY := Bounds(out); len(out) > 1 && minX == maxX && minY == maxY {
		clear(out)
		missing = g.AllVertices()
	}
	if len(missing) == 0 {
		return out
	}

	minX, minY, maxX, maxY := Bounds(out)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	r := math.Max(math.Max(maxX-minX, maxY-minY)/2+1, float64(len(missing))/(2*math.Pi))
	for i, v := range missing {
		a := 2 * math.Pi * float64(i) / float64(len(missing))
		out[v] = core.Pos{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return out
}

// Bounds returns the bounding box of positions, or zeros if it is empty.
func Bounds(positions map[core.VertexID]core.Pos) (minX, minY, maxX, maxY float64) {
	first := true
	for _, p := range positions {
		if first {
			minX, minY, maxX, maxY = p.X, p.Y, p.X, p.Y
			first = false
			continue
		}
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		maxX, maxY = math.Max(maxX, p.X), math.Max(maxY, p.Y)
	}
	return
}

// VertexPos returns the drawing position of v.
func (s *State) VertexPos(v core.VertexID) (core.Pos, bool) {
	p, ok := s.layout[v]
	return p, ok
}

// VertexPositions returns the drawing position of every vertex.
func (s *State) VertexPositions() map[core.VertexID]core.Pos {
	return s.layout
}

// CurrentPositions returns interpolated agent positions at current playback time.
func (s *State) CurrentPositions() map[core.AgentID]core.Pos {
	positions := make(map[core.AgentID]core.Pos)
	if s.Solution == nil || s.Instance == nil {
		return positions
	}

	for _, a := range s.Instance.Agents {
		path := s.Solution.Paths[a.ID]
		if len(path) == 0 {
			positions[a.ID] = s.layout[a.Start]
			continue
		}
		positions[a.ID] = s.interpolatePosition(path, s.Playback.CurrentTime)
	}
	return positions
}

// interpolatePosition computes position along path at given time.
func (s *State) interpolatePosition(path core.Path, t float64) core.Pos {
	if t <= path[0].T {
		return s.layout[path[0].V]
	}
	last := path[len(path)-1]
	if t >= last.T {
		return s.layout[last.V]
	}

	i := sort.Search(len(path), func(i int) bool { return path[i].T > t }) - 1
	from, to := path[i], path[i+1]
	p1, p2 := s.layout[from.V], s.layout[to.V]
	dt := to.T - from.T
	if dt <= 0 || from.V == to.V {
		return p1
	}

	alpha := (t - from.T) / dt
	return core.Pos{
		X: p1.X + alpha*(p2.X-p1.X),
		Y: p1.Y + alpha*(p2.Y-p1.Y),
		Z: p1.Z + alpha*(p2.Z-p1.Z),
	}
}

// PathHistory returns the positions visited by agent up to current time,
// ending with its interpolated position.
func (s *State) PathHistory(agent core.AgentID) []core.Pos {
	if s.Solution == nil {
		return nil
	}
	path := s.Solution.Paths[agent]
	if len(path) == 0 {
		return nil
	}

	var history []core.Pos
	for _, tv := range path {
		if tv.T > s.Playback.CurrentTime {
			break
		}
		history = append(history, s.layout[tv.V])
	}
	if len(history) > 0 {
		history = append(history, s.interpolatePosition(path, s.Playback.CurrentTime))
	}
	return history
}

// FuturePath returns the positions agent still has to visit after the
// current time, starting from where it is now.
func (s *State) FuturePath(agent core.AgentID) []core.Pos {
	if s.Solution == nil {
		return nil
	}
	path := s.Solution.Paths[agent]
	if len(path) == 0 {
		return nil
	}
	t := s.Playback.CurrentTime
	out := []core.Pos{s.interpolatePosition(path, t)}
	for _, tv := range path {
		if tv.T > t {
			out = append(out, s.layout[tv.V])
		}
	}
	return out
}

// Load returns how many agents hold each vertex at the current time. With
// segments an agent holds a vertex from leaving the previous one until it
// leaves this one; otherwise the last reached vertex counts.
func (s *State) Load() map[core.VertexID]int {
	load := make(map[core.VertexID]int)
	if s.Solution == nil || s.Instance == nil {
		return load
	}
	t := s.Playback.CurrentTime
	for _, a := range s.Instance.Agents {
		if segs := s.Solution.Segments[a.ID]; len(segs) > 0 {
			i := sort.Search(len(segs), func(i int) bool { return segs[i].Depart > t })
			if i == len(segs) {
				i = len(segs) - 1
			}
			load[segs[i].V]++
			continue
		}
		if v, ok := s.Solution.Paths[a.ID].PositionAt(t); ok {
			load[v]++
		} else {
			load[a.Start]++
		}
	}
	return load
}

// eventTimes returns the sorted distinct path times of sol.
func eventTimes(sol *core.Solution) []float64 {
	seen := make(map[float64]bool)
	var out []float64
	for _, path := range sol.Paths {
		for _, tv := range path {
			if !seen[tv.T] {
				seen[tv.T] = true
				out = append(out, tv.T)
			}
		}
	}
	sort.Float64s(out)
	return out
}
