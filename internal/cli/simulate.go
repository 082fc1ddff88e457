// simulate.go implements the "lsrp simulate" command.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/lsrp-capaset/internal/scenario"
	"github.com/elektrokombinacija/lsrp-capaset/internal/sim"
)

// ErrOverload is returned when a replayed plan exceeds a vertex capacity
// outside of a swap.
var ErrOverload = errors.New("cli: capacity exceeded")

func newSimulateCmd(a *app) *cobra.Command {
	var (
		pf       plannerFlags
		planPath string
		step     float64
		duration float64
		metrics  string
	)

	cmd := &cobra.Command{
		Use:   "simulate <scenario.yaml>",
		Short: "Replay a plan and audit vertex capacities",
		Long: `Plan the scenario (or load an exported plan with --plan) and replay
it at a fixed time step, counting agents on each vertex against its
capacity. Metrics can be exported as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, inst, err := loadScenario(args[0], pf.durations)
			if err != nil {
				return err
			}

			sc := a.cfg.Sim
			if cmd.Flags().Changed("step") {
				sc.TimeStep = step
			}
			if cmd.Flags().Changed("metrics") {
				sc.Metrics = metrics
			}

			runID := uuid.NewString()
			log := a.log.With().Str("run", runID).Str("scenario", inst.Name).Logger()
			simCfg := sim.SimulationConfig{
				Instance: inst,
				Duration: duration,
				TimeStep: sc.TimeStep,
				Logger:   &log,
			}

			var (
				s *sim.Simulator
				m *sim.SimulationMetrics
			)
			if planPath != "" {
				plan, err := scenario.LoadPlan(planPath)
				if err != nil {
					return err
				}
				sol, err := plan.Solution()
				if err != nil {
					return err
				}
				inst.ApplyCapacities()
				s = sim.NewSimulator(simCfg)
				if m, err = s.Replay(cmd.Context(), sol); err != nil {
					return err
				}
			} else {
				p, err := newPlanner(a.plannerConfig(cmd.Flags(), &pf), inst, log, cmd.Flags().Changed("time-limit"))
				if err != nil {
					return err
				}
				simCfg.Solver = p
				s = sim.NewSimulator(simCfg)
				if m, err = s.Run(cmd.Context()); err != nil {
					return err
				}
			}

			printMetrics(cmd.OutOrStdout(), runID, m)
			if sc.Metrics != "" {
				if err := s.ExportMetrics(sc.Metrics); err != nil {
					return fmt.Errorf("writing metrics: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Metrics written to: %s\n", sc.Metrics)
			}

			if m.OverloadEvents > 0 {
				return fmt.Errorf("%d overload events: %w", m.OverloadEvents, ErrOverload)
			}
			return nil
		},
	}

	pf.register(cmd.Flags())
	f := cmd.Flags()
	f.StringVar(&planPath, "plan", "", "replay this exported plan instead of planning")
	f.Float64Var(&step, "step", 0.1, "simulation time step")
	f.Float64Var(&duration, "duration", 0, "simulated seconds (0 = until makespan)")
	f.StringVar(&metrics, "metrics", "", "write metrics JSON to this file")
	return cmd
}

func printMetrics(w io.Writer, runID string, m *sim.SimulationMetrics) {
	fmt.Fprintf(w, "Run:       %s\n", runID)
	fmt.Fprintf(w, "Status:    %s (%d/%d at goal)\n", m.Status, m.AgentsAtGoal, m.NumAgents)
	fmt.Fprintf(w, "Simulated: %.2fs in %d steps, %d moves\n", m.SimulatedTime, m.Steps, m.Moves)
	fmt.Fprintf(w, "Capacity:  peak load %.2f, %d overload steps, %d pass-throughs, %d overload events\n",
		m.PeakLoad, m.OverloadSteps, m.PassThroughs, m.OverloadEvents)
}
