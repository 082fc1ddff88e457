// gen.go implements the "lsrp gen" command.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/elektrokombinacija/lsrp-capaset/internal/scenario"
)

func newGenCmd(a *app) *cobra.Command {
	var (
		params    = scenario.DefaultParams()
		output    string
		scaling   bool
		splitDurs bool
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate random grid scenarios",
		Long: `Generate deterministic grid scenarios. With --scaling a suite of
growing instances is written to the output directory; otherwise one
scenario is written to the output file or directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			suite := []scenario.Params{params}
			if scaling {
				suite = scenario.ScalingParams(params)
			}

			out := cmd.OutOrStdout()
			for _, p := range suite {
				f, err := scenario.Generate(p)
				if err != nil {
					return err
				}
				f.Generated = time.Now().UTC().Format(time.RFC3339)

				path := output
				if scaling || !strings.HasSuffix(output, ".yaml") {
					path = filepath.Join(output, f.Name+".yaml")
				}
				if splitDurs {
					if err := writeDurations(path, f); err != nil {
						return err
					}
				}
				if err := scenario.Save(path, f); err != nil {
					return err
				}

				a.log.Debug().Str("scenario", f.Name).Str("path", path).Msg("generated")
				fmt.Fprintf(out, "Generated %s: %d agents, %dx%d grid, %d capacity overrides\n",
					path, p.NumAgents, p.GridWidth, p.GridHeight, len(f.Capacities))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.Int64Var(&params.Seed, "seed", params.Seed, "random seed")
	f.IntVar(&params.NumAgents, "agents", params.NumAgents, "number of agents")
	f.IntVar(&params.GridWidth, "width", params.GridWidth, "grid width")
	f.IntVar(&params.GridHeight, "height", params.GridHeight, "grid height")
	f.IntVar(&params.Neighborhood, "neighborhood", params.Neighborhood, "grid connectivity (4 or 8)")
	f.Float64Var(&params.ObstacleDensity, "obstacles", params.ObstacleDensity, "fraction of blocked cells")
	f.Float64Var(&params.CapacityDensity, "capacity-density", params.CapacityDensity, "fraction of cells with capacity above 1")
	f.IntVar(&params.MaxCapacity, "max-capacity", params.MaxCapacity, "largest generated capacity")
	f.Float64Var(&params.DurationMin, "duration-min", params.DurationMin, "smallest agent duration")
	f.Float64Var(&params.DurationMax, "duration-max", params.DurationMax, "largest agent duration (0 = unit)")
	f.StringVarP(&output, "output", "o", "scenarios", "output file (.yaml) or directory")
	f.BoolVar(&scaling, "scaling", false, "generate the scaling suite")
	f.BoolVar(&splitDurs, "split-durations", false, "write durations to a separate agents.txt list")
	return cmd
}

// writeDurations moves the agent durations of f into <scenario>.agents.txt
// next to path and points the scenario at it.
func writeDurations(path string, f *scenario.File) error {
	name := strings.TrimSuffix(filepath.Base(path), ".yaml") + ".agents.txt"
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating scenario directory: %w", err)
	}
	file, err := os.Create(filepath.Join(filepath.Dir(path), name))
	if err != nil {
		return fmt.Errorf("creating durations file: %w", err)
	}
	defer file.Close()

	d := make([]float64, len(f.Agents))
	for i := range f.Agents {
		d[i] = f.Agents[i].Duration
		f.Agents[i].Duration = 0
	}
	if err := scenario.WriteDurations(file, d); err != nil {
		return err
	}
	f.DurationsFile = name
	return file.Close()
}
