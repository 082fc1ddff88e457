package algo

import (
	"fmt"
	"math"
	"sort"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// take occupies one unit of v and fails loudly on overflow.
func (p *Lsrp) take(v core.VertexID) error {
	p.g.IncreaseOccupied(v)
	if occ, limit := p.g.OccupiedCapacity(v), p.g.MaxCapacity(v); occ > limit {
		return fmt.Errorf("vertex %d holds %d of %d at t=%v: %w", v, occ, limit, p.t, core.ErrInvariant)
	}
	return nil
}

// release frees one unit of v; releasing an empty vertex is a bookkeeping bug.
func (p *Lsrp) release(v core.VertexID) error {
	if p.g.OccupiedCapacity(v) <= 0 {
		return fmt.Errorf("vertex %d released below zero at t=%v: %w", v, p.t, core.ErrInvariant)
	}
	p.g.DecreaseOccupied(v)
	return nil
}

// move records the transition of a to v starting now.
func (p *Lsrp) move(a *Agent, v core.VertexID, kind MoveKind) {
	from := a.Curr.V
	s := State{Parent: from, V: v, Start: p.t, End: normTime(p.t + p.duration(a, from, v))}
	a.set(s)
	p.committed[a.ID] = true
	p.events.Push(s.End)
	p.notify(a.ID, s, kind)
	p.log.Debug().Int("agent", int(a.ID)).Int("from", int(from)).Int("to", int(v)).
		Float64("end", s.End).Str("kind", kind.String()).Msg("commit")
}

// step moves a to v, transferring one unit of capacity.
func (p *Lsrp) step(a *Agent, v core.VertexID, kind MoveKind) error {
	if err := p.release(a.Curr.V); err != nil {
		return err
	}
	if err := p.take(v); err != nil {
		return err
	}
	p.move(a, v, kind)
	return nil
}

// undecided reports whether a arrived this round and has not committed.
func (p *Lsrp) undecided(a *Agent) bool {
	return p.arriving[a.ID] && !p.committed[a.ID]
}

// occupants returns agents whose current state holds v, lowest priority first.
func (p *Lsrp) occupants(v core.VertexID) []*Agent {
	var out []*Agent
	for _, a := range p.agents {
		if a.Curr.V == v {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return p.before(out[j], out[i]) })
	return out
}

// candidates orders the successors of u by arc cost plus remaining distance
// to a's goal. Ties go to the closer vertex, then the most recently visited
// one, then the seeded rank.
func (p *Lsrp) candidates(a *Agent, u core.VertexID, keep func(core.VertexID) bool) []core.VertexID {
	d := p.dist[a.ID]
	costs := p.g.SuccCosts(u)
	score := make(map[core.VertexID]float64)
	var out []core.VertexID
	for i, v := range p.g.Succs(u) {
		if !keep(v) {
			continue
		}
		s := p.weight(u, v, costs[i]) + d.Get(v)
		if old, ok := score[v]; !ok || s < old {
			if !ok {
				out = append(out, v)
			}
			score[v] = s
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		vi, vj := out[i], out[j]
		if si, sj := score[vi], score[vj]; si != sj {
			return si < sj
		}
		if di, dj := d.Get(vi), d.Get(vj); di != dj {
			return di < dj
		}
		li, oki := a.lastVisit[vi]
		lj, okj := a.lastVisit[vj]
		if oki != okj {
			return oki
		}
		if oki && li != lj {
			return li > lj
		}
		if p.rank[vi] != p.rank[vj] {
			return p.rank[vi] < p.rank[vj]
		}
		return vi < vj
	})
	return out
}

// progress lists the successors of u strictly closer to a's goal.
func (p *Lsrp) progress(a *Agent, u core.VertexID) []core.VertexID {
	du := p.dist[a.ID].Get(u)
	return p.candidates(a, u, func(v core.VertexID) bool {
		return p.dist[a.ID].Get(v) < du
	})
}

// detours lists the successors of u that do not bring a closer but still
// reach its goal, leaving out the vertex a just came from.
func (p *Lsrp) detours(a *Agent, u core.VertexID) []core.VertexID {
	d := p.dist[a.ID]
	du := d.Get(u)
	back, hasBack := a.cameFrom()
	return p.candidates(a, u, func(v core.VertexID) bool {
		if hasBack && v == back {
			return false
		}
		dv := d.Get(v)
		return dv >= du && !math.IsInf(dv, 1)
	})
}

// mayDetour reports whether a has waited long enough to step away from its
// goal.
func (p *Lsrp) mayDetour(a *Agent) bool {
	k := p.opts.DetourAfter
	if k < 0 {
		return false
	}
	if k == 0 {
		k = DefaultDetourAfter
	}
	return a.Priority >= a.InitPriority+float64(k)*p.opts.AgingDelta-p.eps
}

// nextHop is the vertex a would request from u.
func (p *Lsrp) nextHop(a *Agent, u core.VertexID) (core.VertexID, bool) {
	if u == a.Goal {
		return 0, false
	}
	c := p.progress(a, u)
	if len(c) == 0 {
		return 0, false
	}
	return c[0], true
}

// headOn reports whether some agent is still traversing v->u.
func (p *Lsrp) headOn(u, v core.VertexID) bool {
	for _, o := range p.agents {
		if o.Curr.Parent == v && o.Curr.V == u && o.Curr.End > p.t+p.eps {
			return true
		}
	}
	return false
}

// resolve commits the best move available to a, or leaves it waiting.
func (p *Lsrp) resolve(a *Agent) (bool, error) {
	u := a.Curr.V
	for _, v := range p.progress(a, u) {
		if p.headOn(u, v) {
			p.refusals++
			continue
		}
		if core.HasRoom(p.g, v) {
			if p.checkPotentialDeadlock(a, u, v) {
				p.refusals++
				continue
			}
			return true, p.step(a, v, MoveStep)
		}

		ok, err := p.pushOccupants(a, u, v)
		if err != nil || ok {
			return ok, err
		}
		if !p.opts.Swap {
			continue
		}
		if ok, err := p.trySwap(a, u, v); err != nil || ok {
			return ok, err
		}
	}
	if !p.mayDetour(a) {
		return false, nil
	}
	for _, v := range p.detours(a, u) {
		if p.headOn(u, v) || !core.HasRoom(p.g, v) || p.checkPotentialDeadlock(a, u, v) {
			continue
		}
		p.detoursTaken++
		p.log.Debug().Int("agent", int(a.ID)).Int("from", int(u)).Int("to", int(v)).Msg("detour")
		return true, p.step(a, v, MoveStep)
	}
	return false, nil
}

// pushable reports whether o may be asked to vacate by a chain running at pri.
func (p *Lsrp) pushable(o *Agent, pri float64, chain forbidden) bool {
	if !p.undecided(o) || chain.hasAgent(o.ID) {
		return false
	}
	if _, held := p.holds[o.ID]; held {
		return false
	}
	return o.Priority < pri
}

// pushOccupants asks a lower-priority occupant of v to make room for a.
func (p *Lsrp) pushOccupants(a *Agent, u, v core.VertexID) (bool, error) {
	if p.checkPotentialDeadlock(a, u, v) {
		return false, nil
	}
	root := newForbidden(a.ID, u).withVertex(v)
	for _, o := range p.occupants(v) {
		if !p.pushable(o, a.Priority, root) {
			continue
		}
		ok, err := p.push(o, root.with(o.ID, v), a.Priority, 1)
		if err != nil {
			return false, err
		}
		if ok {
			p.pushes++
			p.log.Debug().Int("agent", int(a.ID)).Int("pushed", int(o.ID)).Int("vertex", int(v)).Msg("push")
			return true, p.step(a, v, MoveStep)
		}
	}
	return false, nil
}

// push moves b to any successor outside chain, recursively pushing that
// successor's occupants. Every pushed agent runs at the root priority pri.
func (p *Lsrp) push(b *Agent, chain forbidden, pri float64, depth int) (bool, error) {
	if depth > len(p.agents) {
		return false, nil
	}
	from := b.Curr.V
	next := p.candidates(b, from, func(w core.VertexID) bool { return !chain.hasVertex(w) })
	for _, w := range next {
		if p.headOn(from, w) {
			continue
		}
		if core.HasRoom(p.g, w) {
			return true, p.step(b, w, MovePush)
		}
	}
	for _, w := range next {
		if p.headOn(from, w) {
			continue
		}
		for _, o := range p.occupants(w) {
			if !p.pushable(o, pri, chain) {
				continue
			}
			ok, err := p.push(o, chain.with(o.ID, w), pri, depth+1)
			if err != nil {
				return false, err
			}
			if ok {
				return true, p.step(b, w, MovePush)
			}
		}
	}
	return false, nil
}

// trySwap attempts an edge exchange with an occupant of v heading to u,
// then, in lenient mode, a pass-through with an agent entering v.
func (p *Lsrp) trySwap(a *Agent, u, v core.VertexID) (bool, error) {
	for _, o := range p.occupants(v) {
		if o == a || !p.undecided(o) {
			continue
		}
		if _, held := p.holds[o.ID]; held {
			continue
		}
		if h, ok := p.nextHop(o, v); !ok || h != u {
			continue
		}
		if p.opts.SwapMode == SwapStrict && (!core.HasRoom(p.g, u) || !core.HasRoom(p.g, v)) {
			continue
		}
		// one unit moves each way, counters are unchanged
		p.move(a, v, MoveSwap)
		p.move(o, u, MoveSwap)
		p.swaps++
		p.log.Debug().Int("agent", int(a.ID)).Int("with", int(o.ID)).Int("u", int(u)).Int("v", int(v)).Msg("swap")
		return true, nil
	}
	if p.opts.SwapMode != SwapLenient {
		return false, nil
	}
	return p.tryPass(a, u, v)
}

// tryPass lets a enter v while o, still traversing y0->v, will continue to
// u and a will continue to y0. a and o share o's unit on v; a's unit on u
// passes to o and a takes y0 right away.
func (p *Lsrp) tryPass(a *Agent, u, v core.VertexID) (bool, error) {
	if _, held := p.holds[a.ID]; held {
		return false, nil
	}
	arrive := p.t + p.duration(a, u, v)
	for _, o := range p.occupants(v) {
		y0 := o.Curr.Parent
		if o == a || o.Curr.IsWait() || o.Curr.End <= p.t+p.eps || o.Goal == v {
			continue
		}
		if _, held := p.holds[o.ID]; held {
			continue
		}
		if o.Curr.End > arrive+p.eps || y0 == u || !core.HasRoom(p.g, y0) {
			continue
		}
		if h, ok := p.nextHop(o, v); !ok || h != u {
			continue
		}
		if h, ok := p.nextHop(a, v); !ok || h != y0 {
			continue
		}
		if err := p.take(y0); err != nil {
			return false, err
		}
		pair := &passPair{v: v, remaining: 2}
		p.holds[a.ID] = passHold{to: y0, pair: pair}
		p.holds[o.ID] = passHold{to: u, pair: pair}
		p.move(a, v, MovePass)
		p.passes++
		p.log.Debug().Int("agent", int(a.ID)).Int("with", int(o.ID)).Int("via", int(v)).Msg("pass-through")
		return true, nil
	}
	return false, nil
}

// forced completes a pass-through: the destination unit is already held and
// the shared unit is released by whichever member leaves last.
func (p *Lsrp) forced(a *Agent, h passHold) error {
	delete(p.holds, a.ID)
	h.pair.remaining--
	if h.pair.remaining == 0 {
		if err := p.release(h.pair.v); err != nil {
			return err
		}
	}
	p.move(a, h.to, MoveForced)
	return nil
}

// checkPotentialDeadlock reports whether moving a from u to v fills v and
// closes a wait-for cycle: following the next hop of one occupant per full
// vertex leads back to v. Two-vertex cycles are left to the swap protocol
// when it is enabled.
func (p *Lsrp) checkPotentialDeadlock(a *Agent, u, v core.VertexID) bool {
	occ := func(x core.VertexID) int {
		n := p.g.OccupiedCapacity(x)
		switch x {
		case u:
			n--
		case v:
			n++
		}
		return n
	}
	full := func(x core.VertexID) bool { return occ(x) >= p.g.MaxCapacity(x) }
	if !full(v) {
		return false
	}

	cur, ok := p.nextHop(a, v)
	length := 1
	for steps := 0; ok && steps <= len(p.agents); steps++ {
		if cur == v {
			if length == 2 && p.opts.Swap {
				return false
			}
			return true
		}
		if !full(cur) {
			return false
		}
		var blocker *Agent
		for _, o := range p.occupants(cur) {
			if o != a && !o.AtGoal && !o.Infeasible {
				blocker = o
				break
			}
		}
		if blocker == nil {
			return false
		}
		cur, ok = p.nextHop(blocker, cur)
		length++
	}
	return false
}
