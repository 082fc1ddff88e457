// Package session prepares the state the viewer plays back: a scenario
// with either a saved plan or a fresh planner run traced for the timeline.
package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/elektrokombinacija/lsrp-capaset/internal/algo"
	"github.com/elektrokombinacija/lsrp-capaset/internal/scenario"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/observer"
	"github.com/elektrokombinacija/lsrp-capaset/internal/vis/state"
)

// Config selects what to show.
type Config struct {
	Scenario string
	// Plan is an exported plan to replay; empty runs the planner.
	Plan    string
	Options algo.Options
	// TimeLimit applies when the scenario sets none.
	TimeLimit float64
	Eps       float64
}

// Open loads cfg.Scenario and returns the state to visualize.
func Open(ctx context.Context, cfg Config, log zerolog.Logger) (*state.State, error) {
	_, inst, err := scenario.Load(cfg.Scenario)
	if err != nil {
		return nil, err
	}
	log = log.With().Str("scenario", inst.Name).Logger()

	if cfg.Plan != "" {
		pf, err := scenario.LoadPlan(cfg.Plan)
		if err != nil {
			return nil, err
		}
		if pf.Scenario != "" && pf.Scenario != inst.Name {
			log.Warn().Str("plan_scenario", pf.Scenario).Msg("plan was made for another scenario")
		}
		sol, err := pf.Solution()
		if err != nil {
			return nil, err
		}
		if n := len(sol.Paths); n != len(inst.Agents) {
			return nil, fmt.Errorf("plan has %d agents, scenario %d: %w", n, len(inst.Agents), scenario.ErrFormat)
		}
		inst.ApplyCapacities()
		log.Info().Str("plan", cfg.Plan).Str("status", sol.Status.String()).Msg("plan loaded")
		return state.NewState(inst, sol, nil), nil
	}

	trace := state.NewTrace()
	opts := cfg.Options
	opts.Observer = observer.NewTraceObserver(trace)
	opts.Logger = &log

	if inst.TimeLimit <= 0 {
		inst.TimeLimit = cfg.TimeLimit
	}
	p := algo.NewLsrp(inst.Graph, opts)
	p.SetTolerance(cfg.Eps)
	sol, err := p.SolveInstance(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("planning %s: %w", inst.Name, err)
	}
	log.Info().
		Str("status", sol.Status.String()).
		Float64("soc", sol.SoC).
		Int("moves", trace.Len()).
		Msg("plan ready")
	return state.NewState(inst, sol, trace), nil
}
