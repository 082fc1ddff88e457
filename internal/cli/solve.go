// solve.go implements the "lsrp solve" command.
package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
	"github.com/elektrokombinacija/lsrp-capaset/internal/scenario"
)

func newSolveCmd(a *app) *cobra.Command {
	var (
		pf      plannerFlags
		planOut string
		check   bool
		paths   bool
	)

	cmd := &cobra.Command{
		Use:   "solve <scenario.yaml>",
		Short: "Plan all agents of a scenario",
		Long: `Plan all agents of a scenario and print a summary. The command
fails when the plan is incomplete; the partial plan is still printed
and exported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, inst, err := loadScenario(args[0], pf.durations)
			if err != nil {
				return err
			}

			runID := uuid.NewString()
			log := a.log.With().Str("run", runID).Str("scenario", inst.Name).Logger()
			pc := a.plannerConfig(cmd.Flags(), &pf)
			p, err := newPlanner(pc, inst, log, cmd.Flags().Changed("time-limit"))
			if err != nil {
				return err
			}

			sol, err := p.SolveInstance(cmd.Context(), inst)
			if err != nil {
				return fmt.Errorf("solving %s: %w", inst.Name, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run:      %s\n", runID)
			printSolution(out, inst, sol, paths)

			if planOut != "" {
				plan := scenario.NewPlanFile(inst.Name, sol)
				plan.RunID = runID
				if err := scenario.SavePlan(planOut, plan); err != nil {
					return err
				}
				fmt.Fprintf(out, "Plan written to: %s\n", planOut)
			}

			if check {
				if err := p.Validate(); err != nil {
					return fmt.Errorf("plan check: %w", err)
				}
				fmt.Fprintln(out, "Check:    ok")
			}

			if sol.Status != core.StatusSuccess {
				return fmt.Errorf("%s: %w", sol.Status, ErrUnsolved)
			}
			return nil
		},
	}

	pf.register(cmd.Flags())
	cmd.Flags().StringVarP(&planOut, "plan", "o", "", "write the plan to this YAML file")
	cmd.Flags().BoolVar(&check, "check", false, "validate the plan after solving")
	cmd.Flags().BoolVar(&paths, "paths", false, "print every agent's path")
	return cmd
}
