package algo

import (
	"fmt"
	"math"
	"sort"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// CapacityViolation is an instant at which more agents hold a vertex than
// its capacity allows.
type CapacityViolation struct {
	Vertex   core.VertexID
	Time     float64
	Agents   []core.AgentID
	Load     int
	Capacity int
	// PassThrough marks an overload of exactly one caused by two agents
	// crossing each other through the vertex.
	PassThrough bool
}

// stay is the interval during which an agent holds a vertex: from leaving
// the previous vertex until leaving this one.
type stay struct {
	agent      core.AgentID
	v          core.VertexID
	from, to   float64
	prev, next core.VertexID
}

const noVertex core.VertexID = -1

func buildStays(segs map[core.AgentID][]core.Segment) map[core.VertexID][]stay {
	out := make(map[core.VertexID][]stay)
	for _, id := range sortedAgentIDs(segs) {
		s := segs[id]
		for k, seg := range s {
			st := stay{agent: id, v: seg.V, to: seg.Depart, prev: noVertex, next: noVertex}
			if k > 0 {
				st.from = s[k-1].Depart
				st.prev = s[k-1].V
			}
			if k == len(s)-1 {
				st.to = math.Inf(1)
			} else {
				st.next = s[k+1].V
			}
			out[seg.V] = append(out[seg.V], st)
		}
	}
	return out
}

func sortedAgentIDs[T any](m map[core.AgentID]T) []core.AgentID {
	ids := make([]core.AgentID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// FindCapacityViolations replays segments against the graph's max capacity.
// Load is evaluated at every instant an agent starts holding a vertex.
func FindCapacityViolations(g core.CapacityTracker, segs map[core.AgentID][]core.Segment) []CapacityViolation {
	var out []CapacityViolation
	byVertex := buildStays(segs)

	vertices := make([]core.VertexID, 0, len(byVertex))
	for v := range byVertex {
		vertices = append(vertices, v)
	}
	sort.Slice(vertices, func(i, j int) bool { return vertices[i] < vertices[j] })

	for _, v := range vertices {
		stays := byVertex[v]
		capacity := g.MaxCapacity(v)
		seen := make(map[float64]bool)
		for _, probe := range stays {
			t := probe.from
			if seen[t] {
				continue
			}
			seen[t] = true

			var holders []stay
			for _, s := range stays {
				if s.from <= t+TimeTolerance && t < s.to-TimeTolerance {
					holders = append(holders, s)
				}
			}
			if len(holders) <= capacity {
				continue
			}
			viol := CapacityViolation{Vertex: v, Time: t, Load: len(holders), Capacity: capacity}
			for _, h := range holders {
				viol.Agents = append(viol.Agents, h.agent)
			}
			viol.PassThrough = len(holders) == capacity+1 && hasCrossing(holders)
			out = append(out, viol)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out
}

func hasCrossing(holders []stay) bool {
	for i := 0; i < len(holders); i++ {
		for j := i + 1; j < len(holders); j++ {
			a, b := holders[i], holders[j]
			if a.prev != noVertex && a.prev == b.next && a.next == b.prev {
				return true
			}
		}
	}
	return false
}

// CheckContiguity verifies that every path is a walk in g with
// non-decreasing times.
func CheckContiguity(g core.Graph, paths map[core.AgentID]core.Path) error {
	for _, id := range sortedAgentIDs(paths) {
		path := paths[id]
		for i := 1; i < len(path); i++ {
			prev, cur := path[i-1], path[i]
			if cur.T < prev.T-TimeTolerance {
				return fmt.Errorf("agent %d: time goes back at step %d (%v < %v)", id, i, cur.T, prev.T)
			}
			if cur.V != prev.V && !g.HasArc(prev.V, cur.V) {
				return fmt.Errorf("agent %d: no arc %d->%d at step %d: %w", id, prev.V, cur.V, i, core.ErrArcNotFound)
			}
		}
	}
	return nil
}

// CheckLog verifies that consecutive states are contiguous in time and space.
func CheckLog(states []State) error {
	for i := 1; i < len(states); i++ {
		prev, next := states[i-1], states[i]
		if next.Start > next.End {
			return fmt.Errorf("state %d ends before it starts: %v", i, next)
		}
		if !timeEqual(next.Start, prev.End) {
			return fmt.Errorf("state %d starts at %v, previous ends at %v", i, next.Start, prev.End)
		}
		if next.Parent != prev.V {
			return fmt.Errorf("state %d leaves %d, previous holds %d", i, next.Parent, prev.V)
		}
	}
	return nil
}

// Validate rechecks the last extracted plan: every path is a walk in the
// graph and no vertex holds more agents than its capacity, apart from the
// momentary overlap of a pass-through crossing.
func (p *Lsrp) Validate() error {
	if !p.solved {
		return ErrNotSolved
	}
	if err := CheckContiguity(p.g, p.paths); err != nil {
		return err
	}
	for _, a := range p.agents {
		if err := CheckLog(a.log); err != nil {
			return fmt.Errorf("agent %d: %s: %w", a.ID, err, core.ErrInvariant)
		}
	}
	for _, v := range FindCapacityViolations(p.g, p.segments) {
		if !v.PassThrough {
			return fmt.Errorf("vertex %d holds %d of %d at t=%v (agents %v): %w",
				v.Vertex, v.Load, v.Capacity, v.Time, v.Agents, core.ErrInvariant)
		}
	}
	return nil
}
