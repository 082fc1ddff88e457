package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/elektrokombinacija/lsrp-capaset/internal/algo"
	"github.com/elektrokombinacija/lsrp-capaset/internal/config"
	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
	"github.com/elektrokombinacija/lsrp-capaset/internal/scenario"
)

// plannerFlags are the planner overrides shared by solve, bench and simulate.
type plannerFlags struct {
	swap      bool
	strict    bool
	seed      int64
	horizon   float64
	timeLimit float64
	maxStall  int
	durations string
}

func (pf *plannerFlags) register(f *pflag.FlagSet) {
	f.BoolVar(&pf.swap, "swap", true, "enable the swap protocol")
	f.BoolVar(&pf.strict, "strict", false, "require spare capacity on both ends of a swap")
	f.Int64Var(&pf.seed, "seed", 0, "tie-break seed")
	f.Float64Var(&pf.horizon, "horizon", 0, "stop once simulated time exceeds this (0 = none)")
	f.Float64Var(&pf.timeLimit, "time-limit", 0, "wall-clock limit in seconds")
	f.IntVar(&pf.maxStall, "max-stall", 0, "rounds without progress before giving up (0 = auto)")
	f.StringVar(&pf.durations, "durations", "", "agents.txt duration list overriding the scenario")
}

// apply copies the flags that were set on the command line into pc.
func (pf *plannerFlags) apply(f *pflag.FlagSet, pc *config.PlannerConfig) {
	if f.Changed("swap") {
		pc.Swap = pf.swap
	}
	if f.Changed("strict") {
		pc.SwapMode = algo.SwapLenient.String()
		if pf.strict {
			pc.SwapMode = algo.SwapStrict.String()
		}
	}
	if f.Changed("seed") {
		pc.Seed = pf.seed
	}
	if f.Changed("horizon") {
		pc.Horizon = pf.horizon
	}
	if f.Changed("time-limit") {
		pc.TimeLimit = pf.timeLimit
	}
	if f.Changed("max-stall") {
		pc.MaxStallRounds = pf.maxStall
	}
}

// plannerConfig returns the configured planner settings with the command
// line overrides applied.
func (a *app) plannerConfig(f *pflag.FlagSet, pf *plannerFlags) config.PlannerConfig {
	pc := a.cfg.Planner
	pf.apply(f, &pc)
	return pc
}

// newPlanner builds a planner for inst. The scenario's time limit wins over
// pc unless overrideLimit is set.
func newPlanner(pc config.PlannerConfig, inst *core.Instance, log zerolog.Logger, overrideLimit bool) (*algo.Lsrp, error) {
	opts, err := pc.Options()
	if err != nil {
		return nil, err
	}
	if inst.TimeLimit <= 0 || overrideLimit {
		inst.TimeLimit = pc.TimeLimit
	}
	opts.Logger = &log

	p := algo.NewLsrp(inst.Graph, opts)
	p.SetTolerance(pc.Eps)
	return p, nil
}

// loadScenario loads path and, when durations is set, replaces the agent
// durations with the list in that file.
func loadScenario(path, durations string) (*scenario.File, *core.Instance, error) {
	f, inst, err := scenario.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if durations == "" {
		return f, inst, nil
	}

	d, err := scenario.ReadDurations(durations)
	if err != nil {
		return nil, nil, err
	}
	if err := f.ApplyDurations(d); err != nil {
		return nil, nil, err
	}
	inst, err = f.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building %s: %w", path, err)
	}
	return f, inst, nil
}

// printSolution writes a short human summary of sol.
func printSolution(w io.Writer, inst *core.Instance, sol *core.Solution, paths bool) {
	fmt.Fprintf(w, "Scenario: %s (%d agents, %d vertices)\n",
		inst.Name, len(inst.Agents), inst.Graph.NumVertices())
	fmt.Fprintf(w, "Status:   %s (%d/%d at goal)\n", sol.Status, sol.NumAtGoal(), len(inst.Agents))
	fmt.Fprintf(w, "SoC:      %.2f\n", sol.SoC)
	fmt.Fprintf(w, "Makespan: %.2f\n", sol.Makespan)
	fmt.Fprintf(w, "Runtime:  %.1fms, %.0f rounds\n", sol.Stats["runtime"]*1000, sol.Stats["rounds"])
	fmt.Fprintf(w, "Moves:    %.0f pushes, %.0f swaps, %.0f passes, %.0f waits\n",
		sol.Stats["pushes"], sol.Stats["swaps"], sol.Stats["passes"], sol.Stats["waits"])
	if len(sol.Infeasible) > 0 {
		fmt.Fprintf(w, "Infeasible agents: %v\n", sol.Infeasible)
	}
	if !paths {
		return
	}

	fmt.Fprintln(w)
	for _, id := range sol.AgentIDs() {
		steps := make([]string, 0, len(sol.Paths[id]))
		for _, tv := range sol.Paths[id] {
			steps = append(steps, fmt.Sprintf("%d@%.2f", tv.V, tv.T))
		}
		mark := ""
		if sol.AtGoal[id] {
			mark = " (goal)"
		}
		fmt.Fprintf(w, "  agent %d: %s%s\n", id, strings.Join(steps, " -> "), mark)
	}
}
