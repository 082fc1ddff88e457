package algo

import (
	"math"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// extractPolicy rebuilds each agent's state sequence from the snapshot cache
// and derives its path and segments.
func (p *Lsrp) extractPolicy() {
	p.paths = make(map[core.AgentID]core.Path, len(p.agents))
	p.segments = make(map[core.AgentID][]core.Segment, len(p.agents))
	for i, a := range p.agents {
		states := p.history(i)
		p.paths[a.ID] = buildPath(a.Start, states, p.eps)
		p.segments[a.ID] = buildSegments(a.Start, states)
	}
}

// history lists the distinct states of agent i in cache order, starting
// with its initial state.
func (p *Lsrp) history(i int) []State {
	a := p.agents[i]
	out := []State{a.log[0]}
	last := 0
	for _, t := range p.cache.Times() {
		h := p.cache.heads[t][i]
		if h != last {
			out = append(out, a.log[h])
			last = h
		}
	}
	return out
}

func buildPath(start core.VertexID, states []State, eps float64) core.Path {
	path := core.Path{{V: start, T: 0}}
	for _, s := range states[1:] {
		if s.IsWait() {
			continue
		}
		if s.Start > path[len(path)-1].T+eps {
			path = append(path, core.TimedVertex{V: s.Parent, T: s.Start})
		}
		path = append(path, core.TimedVertex{V: s.V, T: s.End})
	}
	if last := states[len(states)-1]; last.IsWait() && last.End > path[len(path)-1].T+eps {
		path = append(path, core.TimedVertex{V: last.V, T: last.End})
	}
	return path
}

func buildSegments(start core.VertexID, states []State) []core.Segment {
	var segs []core.Segment
	cur := core.Segment{V: start}
	for _, s := range states[1:] {
		if s.IsWait() {
			continue
		}
		cur.Depart = s.Start
		segs = append(segs, cur)
		cur = core.Segment{V: s.V, Arrive: s.End}
	}
	cur.Depart = math.Max(cur.Arrive, states[len(states)-1].End)
	return append(segs, cur)
}

// States returns the snapshot cached for decision time t.
func (p *Lsrp) States(t float64) ([]State, bool) {
	if p.cache == nil {
		return nil, false
	}
	return p.cache.states(normTime(t), p.agents)
}

// EventTimes returns every decision time of the last run.
func (p *Lsrp) EventTimes() []float64 {
	if p.cache == nil {
		return nil
	}
	return p.cache.Times()
}

// Plan returns the time-stamped path of agent id, or of every agent for id -1.
func (p *Lsrp) Plan(id int) map[core.AgentID]core.Path {
	out := make(map[core.AgentID]core.Path)
	for aid, path := range p.paths {
		if id < 0 || int(aid) == id {
			out[aid] = path
		}
	}
	return out
}

// Segments returns the per-vertex stays of every agent.
func (p *Lsrp) Segments() map[core.AgentID][]core.Segment {
	return p.segments
}

// agentCost is arrival time at the end of the path in component 0 and the
// summed remaining arc cost components of every move.
func (p *Lsrp) agentCost(id core.AgentID) core.CostVec {
	dim := p.g.CostDim()
	if dim < 1 {
		dim = 1
	}
	c := make(core.CostVec, dim)
	path := p.paths[id]
	if last, ok := path.End(); ok {
		c[0] = last.T
	}
	for i := 1; i < len(path); i++ {
		if path[i].V == path[i-1].V {
			continue
		}
		arc := p.g.Cost(path[i-1].V, path[i].V)
		for k := 1; k < dim && k < len(arc); k++ {
			c[k] += arc[k]
		}
	}
	return c
}

// PlanCost returns the cost of agent id, or the sum over agents for id -1.
func (p *Lsrp) PlanCost(id int) core.CostVec {
	if id >= 0 {
		if id >= len(p.agents) || p.paths == nil {
			return nil
		}
		return p.agentCost(core.AgentID(id))
	}
	var sum core.CostVec
	for _, a := range p.agents {
		sum = sum.Add(p.agentCost(a.ID))
	}
	return sum
}

// SoC is the sum of goal arrival times accumulated while planning.
func (p *Lsrp) SoC() float64 { return p.soc }

// Makespan is the latest goal arrival accumulated while planning.
func (p *Lsrp) Makespan() float64 { return p.makespan }

// RecomputeSoC sums path end times.
func (p *Lsrp) RecomputeSoC() float64 {
	sum := 0.0
	for _, a := range p.agents {
		if last, ok := p.paths[a.ID].End(); ok {
			sum += last.T
		}
	}
	return sum
}

// RecomputeMakespan is the latest path end time.
func (p *Lsrp) RecomputeMakespan() float64 {
	m := 0.0
	for _, path := range p.paths {
		if last, ok := path.End(); ok && last.T > m {
			m = last.T
		}
	}
	return m
}

// Runtime is the wall-clock duration of the last run in seconds.
func (p *Lsrp) Runtime() float64 { return p.runtime }

// Status is the outcome of the last run.
func (p *Lsrp) Status() core.Status { return p.status }

// Stats reports run metrics.
func (p *Lsrp) Stats() map[string]float64 {
	success := 0.0
	if p.solved && p.status == core.StatusSuccess {
		success = 1
	}
	infeasible := 0
	for _, a := range p.agents {
		if a.Infeasible {
			infeasible++
		}
	}
	return map[string]float64{
		"runtime":        p.runtime,
		"soc":            p.RecomputeSoC(),
		"makespan":       p.RecomputeMakespan(),
		"soc_goal":       p.soc,
		"makespan_goal":  p.makespan,
		"num_agents":     float64(len(p.agents)),
		"num_at_goal":    float64(p.numAtGoal()),
		"num_infeasible": float64(infeasible),
		"rounds":         float64(p.rounds),
		"pushes":         float64(p.pushes),
		"swaps":          float64(p.swaps),
		"passes":         float64(p.passes),
		"waits":          float64(p.waits),
		"refusals":       float64(p.refusals),
		"detours":        float64(p.detoursTaken),
		"status":         float64(p.status),
		"success":        success,
	}
}

// Solution packages the last run.
func (p *Lsrp) Solution() *core.Solution {
	sol := core.NewSolution()
	if !p.solved {
		return sol
	}
	for _, a := range p.agents {
		sol.Paths[a.ID] = p.paths[a.ID]
		sol.Segments[a.ID] = p.segments[a.ID]
		sol.Costs[a.ID] = p.agentCost(a.ID)
		sol.AtGoal[a.ID] = a.AtGoal
		if a.Infeasible {
			sol.Infeasible = append(sol.Infeasible, a.ID)
		}
	}
	sol.SoC = p.RecomputeSoC()
	sol.Makespan = p.RecomputeMakespan()
	sol.Status = p.status
	sol.Feasible = p.status == core.StatusSuccess
	sol.Stats = p.Stats()
	return sol
}
