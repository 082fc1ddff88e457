package algo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// Lsrp is the asynchronous priority-driven planner. Agents decide at the
// times their current state ends; contention is resolved by push and swap.
// A planner is not safe for concurrent use.
type Lsrp struct {
	g    core.Graph
	opts Options
	log  zerolog.Logger

	agents []*Agent
	dist   []DistTable
	weight ArcWeight
	dmax   float64
	rank   map[core.VertexID]float64

	events *eventQueue
	cache  *snapshotCache

	eps         float64
	minDuration float64

	// round state
	t         float64
	committed map[core.AgentID]bool
	arriving  map[core.AgentID]bool
	holds     map[core.AgentID]passHold

	soc      float64
	makespan float64
	runtime  float64
	rounds   int
	pushes   int
	swaps    int
	passes   int
	waits    int
	refusals int
	// detoursTaken counts moves away from the goal by aged agents.
	detoursTaken int
	status       core.Status
	solved       bool

	paths    map[core.AgentID]core.Path
	segments map[core.AgentID][]core.Segment
}

var _ Solver = (*Lsrp)(nil)

// NewLsrp creates a planner over g. The graph's occupancy counters are
// owned by the planner while Solve runs.
func NewLsrp(g core.Graph, opts Options) *Lsrp {
	if opts.AgingDelta == 0 {
		opts.AgingDelta = 1
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Lsrp{
		g:    g,
		opts: opts,
		log:  log.With().Str("planner", "lsrp").Logger(),
	}
}

// Name returns the algorithm name.
func (p *Lsrp) Name() string { return "LSRP" }

// SetDurations sets per-agent duration factors.
func (p *Lsrp) SetDurations(d []float64) { p.opts.Durations = d }

// SetEdgeCosts sets the sparse edge-cost override table.
func (p *Lsrp) SetEdgeCosts(c map[core.Arc]float64) { p.opts.EdgeCosts = c }

// SetSwap enables or disables the swap protocol.
func (p *Lsrp) SetSwap(on bool) { p.opts.Swap = on }

// SetTolerance sets the event-time tolerance used by SolveInstance.
func (p *Lsrp) SetTolerance(eps float64) { p.eps = eps }

// Agents exposes the agents of the last run, indexed by ID.
func (p *Lsrp) Agents() []*Agent { return p.agents }

// DistTables exposes the distance tables of the last run.
func (p *Lsrp) DistTables() []DistTable { return p.dist }

// Solve plans agent i from starts[i] to goals[i]. timeLimit is wall-clock
// seconds (0 selects DefaultTimeLimit); eps is the tolerance under which two
// event times coincide (0 selects TimeTolerance). Errors are configuration
// errors or internal invariant violations; partial plans are reported by
// the status.
func (p *Lsrp) Solve(starts, goals []core.VertexID, timeLimit, eps float64) (core.Status, error) {
	return p.SolveContext(context.Background(), starts, goals, timeLimit, eps)
}

// SolveContext is Solve with cooperative cancellation, polled once per round.
func (p *Lsrp) SolveContext(ctx context.Context, starts, goals []core.VertexID, timeLimit, eps float64) (core.Status, error) {
	begin := time.Now()
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	if eps <= 0 {
		eps = TimeTolerance
	}
	p.eps = eps

	if err := p.setup(starts, goals); err != nil {
		return core.StatusBlocked, err
	}

	deadline := begin.Add(time.Duration(timeLimit * float64(time.Second)))
	status, err := p.run(ctx, deadline)
	p.runtime = time.Since(begin).Seconds()
	if err != nil {
		p.log.Error().Err(err).Float64("t", p.t).Msg("planning aborted")
		return status, err
	}

	p.status = status
	p.solved = true
	p.extractPolicy()

	p.log.Info().
		Str("status", status.String()).
		Int("agents", len(p.agents)).
		Int("at_goal", p.numAtGoal()).
		Float64("soc", p.soc).
		Float64("makespan", p.makespan).
		Int("rounds", p.rounds).
		Float64("runtime", p.runtime).
		Msg("planning finished")
	return status, nil
}

// SolveInstance applies the instance's capacities, durations and edge-cost
// overrides and plans all agents.
func (p *Lsrp) SolveInstance(ctx context.Context, inst *core.Instance) (*core.Solution, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if inst.Graph != p.g {
		return nil, fmt.Errorf("instance graph differs from planner graph: %w", core.ErrInvalidInstance)
	}
	inst.ApplyCapacities()
	p.opts.Durations = inst.Durations()
	if len(inst.EdgeCosts) > 0 {
		p.opts.EdgeCosts = inst.EdgeCosts
	}
	if _, err := p.SolveContext(ctx, inst.Starts(), inst.Goals(), inst.TimeLimit, p.eps); err != nil {
		return nil, err
	}
	return p.Solution(), nil
}

func (p *Lsrp) setup(starts, goals []core.VertexID) error {
	if len(starts) == 0 || len(starts) != len(goals) {
		return fmt.Errorf("got %d starts and %d goals: %w", len(starts), len(goals), core.ErrInvalidInstance)
	}
	if p.g.NumArcs() > 0 && p.g.CostDim() < 1 {
		return fmt.Errorf("graph has arcs without cost components: %w", core.ErrCostDim)
	}
	if len(p.opts.CostWeights) > p.g.CostDim() {
		return fmt.Errorf("%d cost weights for %d cost components: %w",
			len(p.opts.CostWeights), p.g.CostDim(), core.ErrCostDim)
	}
	for i := range starts {
		if !p.g.HasVertex(starts[i]) {
			return fmt.Errorf("agent %d start %d: %w", i, starts[i], core.ErrVertexNotFound)
		}
		if !p.g.HasVertex(goals[i]) {
			return fmt.Errorf("agent %d goal %d: %w", i, goals[i], core.ErrVertexNotFound)
		}
	}
	for i, d := range p.opts.Durations {
		if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
			return fmt.Errorf("agent %d duration %v: %w", i, d, core.ErrInvalidInstance)
		}
	}
	for arc, c := range p.opts.EdgeCosts {
		if c <= 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return fmt.Errorf("edge cost %v = %v: %w", arc, c, core.ErrInvalidInstance)
		}
	}

	p.g.ClearOccupied()
	p.agents = make([]*Agent, len(starts))
	p.events = newEventQueue()
	p.cache = newSnapshotCache()
	p.holds = make(map[core.AgentID]passHold)
	p.soc, p.makespan = 0, 0
	p.rounds, p.pushes, p.swaps, p.passes, p.waits, p.refusals = 0, 0, 0, 0, 0, 0
	p.detoursTaken = 0
	p.solved = false
	p.paths, p.segments = nil, nil

	for i := range starts {
		a := newAgent(core.AgentID(i), starts[i], goals[i])
		p.agents[i] = a
		p.g.IncreaseOccupied(starts[i])
		if p.g.OccupiedCapacity(starts[i]) > p.g.MaxCapacity(starts[i]) {
			return fmt.Errorf("%d agents start on vertex %d with capacity %d: %w",
				p.g.OccupiedCapacity(starts[i]), starts[i], p.g.MaxCapacity(starts[i]), core.ErrInvalidInstance)
		}
	}

	p.weight = overrideWeight(p.opts.EdgeCosts, p.opts.CostWeights)
	p.dist = GenerateDistTables(p.g, goals, p.weight)
	p.dmax = 0
	for i, a := range p.agents {
		d := p.dist[i].Get(a.Start)
		if math.IsInf(d, 1) {
			a.Infeasible = true
			p.log.Warn().Int("agent", i).Int("start", int(a.Start)).Int("goal", int(a.Goal)).
				Msg("goal unreachable, agent stays in place")
			continue
		}
		if d > p.dmax {
			p.dmax = d
		}
	}
	for i, a := range p.agents {
		if a.Infeasible {
			continue
		}
		// farther agents start slightly more urgent; the fraction stays
		// below one aging step
		a.InitPriority = p.dist[i].Get(a.Start) / (p.dmax + 1)
		a.Priority = a.InitPriority
	}

	rng := rand.New(rand.NewSource(p.opts.Seed))
	vertices := p.g.AllVertices()
	p.rank = make(map[core.VertexID]float64, len(vertices))
	for _, v := range vertices {
		p.rank[v] = rng.Float64()
	}
	p.minDuration = p.computeMinDuration(vertices)

	p.events.Push(0)
	return nil
}

// computeMinDuration is the shortest traversal any agent can make; a round
// in which nobody moves and nothing is pending advances time by this much.
func (p *Lsrp) computeMinDuration(vertices []core.VertexID) float64 {
	minArc := math.Inf(1)
	for _, u := range vertices {
		for i, v := range p.g.Succs(u) {
			c := p.g.SuccCosts(u)[i].Primary()
			if x, ok := p.opts.EdgeCosts[core.Arc{From: u, To: v}]; ok {
				c = x
			}
			if c > 0 && c < minArc {
				minArc = c
			}
		}
	}
	factor := math.Inf(1)
	for i := range p.agents {
		factor = math.Min(factor, p.factor(core.AgentID(i)))
	}
	d := minArc * factor
	if math.IsInf(d, 0) || d <= 0 {
		return 1
	}
	return normTime(d)
}

func (p *Lsrp) factor(id core.AgentID) float64 {
	if int(id) < len(p.opts.Durations) && p.opts.Durations[id] > 0 {
		return p.opts.Durations[id]
	}
	return 1
}

// duration applies, in order: a custom DurationFunc, an edge-cost
// override, the agent factor times the primary arc cost.
func (p *Lsrp) duration(a *Agent, u, v core.VertexID) float64 {
	var d float64
	switch {
	case p.opts.Duration != nil:
		d = p.opts.Duration(a.ID, u, v)
	default:
		if x, ok := p.opts.EdgeCosts[core.Arc{From: u, To: v}]; ok {
			d = x
		} else {
			d = p.factor(a.ID) * p.g.Cost(u, v).Primary()
		}
	}
	if d < p.eps || math.IsNaN(d) {
		d = p.eps
	}
	return d
}

func (p *Lsrp) maxStallRounds() int {
	if p.opts.MaxStallRounds > 0 {
		return p.opts.MaxStallRounds
	}
	return 50 + 10*len(p.agents)
}

// reachGoal reports whether every feasible agent is at its goal.
func (p *Lsrp) reachGoal() bool {
	for _, a := range p.agents {
		if !a.AtGoal && !a.Infeasible {
			return false
		}
	}
	return true
}

func (p *Lsrp) anyInfeasible() bool {
	for _, a := range p.agents {
		if a.Infeasible {
			return true
		}
	}
	return false
}

func (p *Lsrp) numAtGoal() int {
	n := 0
	for _, a := range p.agents {
		if a.AtGoal {
			n++
		}
	}
	return n
}

// totalDistance sums remaining distance over agents still planning.
func (p *Lsrp) totalDistance() float64 {
	sum := 0.0
	for i, a := range p.agents {
		if a.Infeasible || a.AtGoal {
			continue
		}
		sum += p.dist[i].Get(a.Curr.V)
	}
	return sum
}

func (p *Lsrp) run(ctx context.Context, deadline time.Time) (core.Status, error) {
	best := math.Inf(1)
	stall := 0
	for {
		if p.reachGoal() {
			if p.anyInfeasible() {
				return core.StatusInfeasible, nil
			}
			return core.StatusSuccess, nil
		}
		if ctx.Err() != nil || time.Now().After(deadline) {
			return core.StatusTimeout, nil
		}
		t, ok := p.events.Pop(p.eps)
		if !ok {
			return core.StatusBlocked, nil
		}
		if p.opts.Horizon > 0 && t > p.opts.Horizon {
			return core.StatusTimeout, nil
		}
		if err := p.round(t); err != nil {
			return core.StatusBlocked, err
		}

		if d := p.totalDistance(); d < best-p.eps {
			best = d
			stall = 0
			continue
		}
		stall++
		if stall >= p.maxStallRounds() {
			p.log.Debug().Float64("t", t).Int("rounds", stall).Msg("no progress, giving up")
			return core.StatusBlocked, nil
		}
	}
}

// ExtractAgents returns the agents that must decide at t, highest priority
// first. Ties go to the agent closer to its goal, then the lower ID.
func (p *Lsrp) ExtractAgents(t float64) []*Agent {
	var out []*Agent
	for _, a := range p.agents {
		if a.AtGoal || a.Infeasible {
			continue
		}
		if math.Abs(a.Curr.End-t) < p.eps {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return p.before(out[i], out[j]) })
	return out
}

// before is the total decision order.
func (p *Lsrp) before(a, b *Agent) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	da, db := p.dist[a.ID].Get(a.Curr.V), p.dist[b.ID].Get(b.Curr.V)
	if da != db {
		return da < db
	}
	return a.ID < b.ID
}

// round resolves every agent arriving at t.
func (p *Lsrp) round(t float64) error {
	p.t = t
	p.rounds++
	p.committed = make(map[core.AgentID]bool)
	p.arriving = make(map[core.AgentID]bool)

	var active []*Agent
	for _, a := range p.ExtractAgents(t) {
		if a.Curr.V == a.Goal {
			a.AtGoal = true
			a.GoalTime = t
			p.soc += t
			p.makespan = math.Max(p.makespan, t)
			p.log.Debug().Int("agent", int(a.ID)).Float64("t", t).Msg("goal reached")
			continue
		}
		active = append(active, a)
		p.arriving[a.ID] = true
	}
	p.log.Debug().Float64("t", t).Int("arriving", len(active)).Msg("round")

	for _, a := range active {
		if h, ok := p.holds[a.ID]; ok {
			if err := p.forced(a, h); err != nil {
				return err
			}
		}
	}
	for _, a := range active {
		if p.committed[a.ID] {
			continue
		}
		if _, err := p.resolve(a); err != nil {
			return err
		}
	}

	next, ok := p.events.Peek()
	if !ok {
		next = normTime(t + p.minDuration)
		p.events.Push(next)
	}
	for _, a := range active {
		if p.committed[a.ID] {
			continue
		}
		s := State{Parent: a.Curr.V, V: a.Curr.V, Start: t, End: next}
		a.set(s)
		p.waits++
		p.notify(a.ID, s, MoveWait)
	}

	p.updatePriority(active)
	p.cache.store(t, p.agents)
	if p.opts.Observer != nil {
		states, _ := p.cache.states(t, p.agents)
		p.opts.Observer.OnRound(t, p.g, states)
	}
	return nil
}

// updatePriority ages agents that did not move this round and resets the
// ones that did.
func (p *Lsrp) updatePriority(active []*Agent) {
	for _, a := range active {
		if p.committed[a.ID] {
			a.Priority = a.InitPriority
			continue
		}
		delta := p.opts.AgingDelta
		if p.opts.DistanceWeightedAging && p.dmax > 0 {
			delta *= 1 + p.dist[a.ID].Get(a.Curr.V)/p.dmax
		}
		a.Priority += delta
	}
}

func (p *Lsrp) notify(id core.AgentID, s State, kind MoveKind) {
	if p.opts.Observer != nil {
		p.opts.Observer.OnCommit(id, s, kind)
	}
}
