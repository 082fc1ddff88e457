// Package sim replays plans at a fixed time step and audits them.
//
// The simulator plans once with the configured solver, then advances a
// clock over the resulting segments, recomputing how many agents hold each
// vertex and comparing that with the graph's capacity. A vertex is held
// from the moment an agent leaves the previous vertex until it leaves this
// one, which is how the planner books capacity.
package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/elektrokombinacija/lsrp-capaset/internal/algo"
	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// SimulationConfig configures the simulation parameters
type SimulationConfig struct {
	// Instance to simulate
	Instance *core.Instance

	// Solver to use
	Solver algo.Solver

	// Simulated duration in seconds; 0 runs until the plan's makespan.
	Duration float64

	// Time step for simulation (seconds)
	TimeStep float64

	Logger *zerolog.Logger
}

// DefaultConfig returns default simulation configuration
func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		TimeStep: 0.1,
	}
}

// SimulationMetrics collects metrics during simulation
type SimulationMetrics struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	SimulatedTime float64   `json:"simulated_time"`
	Steps         int       `json:"steps"`

	// Planning
	Status         string  `json:"status"`
	PlanningTimeMs float64 `json:"planning_time_ms"`
	SoC            float64 `json:"soc"`
	Makespan       float64 `json:"makespan"`

	// Agents
	NumAgents    int `json:"num_agents"`
	AgentsAtGoal int `json:"agents_at_goal"`
	Infeasible   int `json:"infeasible"`
	Moves        int `json:"moves"`

	// Capacity, sampled at every step
	PeakLoad       float64 `json:"peak_load"`      // highest held/capacity ratio
	OverloadSteps  int     `json:"overload_steps"` // includes pass-through crossings
	OverloadEvents int     `json:"overload_events"`
	PassThroughs   int     `json:"pass_throughs"`
}

// Simulator replays one plan.
type Simulator struct {
	mu sync.Mutex

	config SimulationConfig
	log    zerolog.Logger

	// State
	currentTime float64
	solution    *core.Solution
	positions   map[core.AgentID]core.VertexID
	held        map[core.AgentID]core.VertexID
	load        map[core.VertexID]int

	metrics SimulationMetrics
}

// NewSimulator creates a new simulation instance
func NewSimulator(config SimulationConfig) *Simulator {
	if config.TimeStep <= 0 {
		config.TimeStep = DefaultConfig().TimeStep
	}
	log := zerolog.Nop()
	if config.Logger != nil {
		log = *config.Logger
	}
	s := &Simulator{
		config:    config,
		log:       log.With().Str("component", "sim").Logger(),
		positions: make(map[core.AgentID]core.VertexID),
		held:      make(map[core.AgentID]core.VertexID),
		load:      make(map[core.VertexID]int),
	}
	if config.Instance != nil {
		for _, a := range config.Instance.Agents {
			s.positions[a.ID] = a.Start
			s.held[a.ID] = a.Start
		}
	}
	return s
}

// Run plans and replays. Cancelling ctx stops the replay early; the metrics
// gathered so far are still returned.
func (s *Simulator) Run(ctx context.Context) (*SimulationMetrics, error) {
	if s.config.Instance == nil || s.config.Solver == nil {
		return nil, fmt.Errorf("simulator needs an instance and a solver: %w", core.ErrInvalidInstance)
	}
	s.metrics.StartTime = time.Now()

	if err := s.plan(ctx); err != nil {
		return nil, fmt.Errorf("initial planning failed: %w", err)
	}

	end := s.config.Duration
	if end <= 0 {
		end = s.solution.Makespan
	}

	for {
		if ctx.Err() != nil {
			s.log.Warn().Float64("t", s.currentTime).Msg("simulation cancelled")
			break
		}
		s.step()
		if s.currentTime >= end-algo.TimeTolerance {
			break
		}
		s.currentTime = math.Min(s.currentTime+s.config.TimeStep, end)
	}

	s.finish()
	m := s.Metrics()
	return &m, nil
}

// Replay audits an existing solution without planning.
func (s *Simulator) Replay(ctx context.Context, sol *core.Solution) (*SimulationMetrics, error) {
	solver := s.config.Solver
	s.config.Solver = replayed{sol}
	defer func() { s.config.Solver = solver }()
	return s.Run(ctx)
}

// replayed is a Solver returning a fixed solution.
type replayed struct{ sol *core.Solution }

func (r replayed) SolveInstance(context.Context, *core.Instance) (*core.Solution, error) {
	return r.sol, nil
}

func (r replayed) Name() string { return "replay" }

// plan runs the solver
func (s *Simulator) plan(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	startTime := time.Now()
	solution, err := s.config.Solver.SolveInstance(ctx, s.config.Instance)
	if err != nil {
		return err
	}
	s.metrics.PlanningTimeMs = float64(time.Since(startTime).Microseconds()) / 1000

	s.solution = solution
	s.metrics.Status = solution.Status.String()
	s.metrics.SoC = solution.SoC
	s.metrics.Makespan = solution.Makespan
	s.metrics.NumAgents = len(s.config.Instance.Agents)
	s.metrics.Infeasible = len(solution.Infeasible)

	s.log.Info().
		Str("solver", s.config.Solver.Name()).
		Str("status", s.metrics.Status).
		Float64("planning_ms", s.metrics.PlanningTimeMs).
		Msg("plan ready")
	return nil
}

// step samples positions and capacity at the current time.
func (s *Simulator) step() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.Steps++
	t := s.currentTime

	for id := range s.held {
		v, at := s.heldAt(id, t)
		if v != s.held[id] {
			s.metrics.Moves++
		}
		s.held[id] = v
		s.positions[id] = at
	}

	for v := range s.load {
		delete(s.load, v)
	}
	for _, v := range s.held {
		s.load[v]++
	}

	g := s.config.Instance.Graph
	overloaded := false
	for _, v := range sortedVertices(s.load) {
		n, k := s.load[v], g.MaxCapacity(v)
		if k > 0 {
			s.metrics.PeakLoad = math.Max(s.metrics.PeakLoad, float64(n)/float64(k))
		}
		if n > k {
			overloaded = true
			s.log.Debug().Float64("t", t).Int("vertex", int(v)).Int("held", n).Int("capacity", k).Msg("overload")
		}
	}
	if overloaded {
		s.metrics.OverloadSteps++
	}
}

// heldAt returns the vertex agent id holds at t and the vertex it last
// reached. Without segments the path is used and both coincide.
func (s *Simulator) heldAt(id core.AgentID, t float64) (held, at core.VertexID) {
	segs := s.solution.Segments[id]
	if len(segs) == 0 {
		v, ok := s.solution.Paths[id].PositionAt(t)
		if !ok {
			return s.held[id], s.positions[id]
		}
		return v, v
	}
	// first segment still being held: not yet departed
	i := sort.Search(len(segs), func(i int) bool { return segs[i].Depart > t+algo.TimeTolerance })
	if i == len(segs) {
		i = len(segs) - 1
	}
	held = segs[i].V
	at = held
	if t < segs[i].Arrive-algo.TimeTolerance && i > 0 {
		at = segs[i-1].V
	}
	return held, at
}

// finish computes end-of-run metrics.
func (s *Simulator) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.EndTime = time.Now()
	s.metrics.SimulatedTime = s.currentTime

	atGoal := 0
	for _, a := range s.config.Instance.Agents {
		if s.positions[a.ID] == a.Goal && s.solution.AtGoal[a.ID] {
			atGoal++
		}
	}
	s.metrics.AgentsAtGoal = atGoal

	if len(s.solution.Segments) > 0 {
		for _, v := range algo.FindCapacityViolations(s.config.Instance.Graph, s.solution.Segments) {
			if v.PassThrough {
				s.metrics.PassThroughs++
				continue
			}
			s.metrics.OverloadEvents++
		}
	}

	s.log.Info().
		Float64("t", s.currentTime).
		Int("steps", s.metrics.Steps).
		Int("at_goal", atGoal).
		Int("overload_events", s.metrics.OverloadEvents).
		Msg("simulation finished")
}

// Positions returns the vertex each agent last reached.
func (s *Simulator) Positions() map[core.AgentID]core.VertexID {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[core.AgentID]core.VertexID, len(s.positions))
	for id, v := range s.positions {
		out[id] = v
	}
	return out
}

// Metrics returns current simulation metrics
func (s *Simulator) Metrics() SimulationMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metrics
}

// ExportMetrics writes metrics to a JSON file
func (s *Simulator) ExportMetrics(path string) error {
	s.mu.Lock()
	metrics := s.metrics
	s.mu.Unlock()

	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SimulationResult is the final output of a simulation run
type SimulationResult struct {
	Scenario string            `json:"scenario"`
	Solver   string            `json:"solver"`
	Metrics  SimulationMetrics `json:"metrics"`
	Success  bool              `json:"success"`
	Error    string            `json:"error,omitempty"`
}

// RunSimulation is a convenience function to run a complete simulation
func RunSimulation(ctx context.Context, config SimulationConfig) (*SimulationResult, error) {
	sim := NewSimulator(config)
	metrics, err := sim.Run(ctx)

	result := &SimulationResult{Success: err == nil}
	if config.Instance != nil {
		result.Scenario = config.Instance.Name
	}
	if config.Solver != nil {
		result.Solver = config.Solver.Name()
	}
	if err != nil {
		result.Error = err.Error()
	}
	if metrics != nil {
		result.Metrics = *metrics
		result.Success = metrics.Status == core.StatusSuccess.String() && metrics.OverloadEvents == 0
	}
	return result, err
}

func sortedVertices(m map[core.VertexID]int) []core.VertexID {
	out := make([]core.VertexID, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
