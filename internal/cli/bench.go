// bench.go implements the "lsrp bench" command.
package cli

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
)

// BenchmarkResult stores results from a single planner run.
type BenchmarkResult struct {
	RunID      string
	Timestamp  string
	CommitHash string
	GoVersion  string
	OS         string
	Arch       string

	Scenario    string
	NumAgents   int
	NumVertices int
	Seed        int64
	Repeat      int

	Status    string
	Success   bool
	RuntimeMs float64
	SoC       float64
	Makespan  float64
	AtGoal    int
	Rounds    int
	Pushes    int
	Swaps     int
	Passes    int
	Waits     int
}

// scenarioMetrics holds per-scenario aggregates.
type scenarioMetrics struct {
	Name           string
	TotalRuns      int
	Successes      int
	TotalRuntimeMs float64
	TotalSoC       float64
	TotalMakespan  float64
}

func newBenchCmd(a *app) *cobra.Command {
	var (
		pf      plannerFlags
		dir     string
		output  string
		repeats int
		seeds   []int64
		agents  int
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the planner over a directory of scenarios",
		Long: `Run every *.yaml scenario in a directory once per seed and repeat,
write one CSV row per run and print a per-scenario summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bc := a.cfg.Bench
			if cmd.Flags().Changed("dir") {
				bc.Dir = dir
			}
			if cmd.Flags().Changed("output") {
				bc.Output = output
			}
			if cmd.Flags().Changed("repeats") {
				bc.Repeats = repeats
			}
			if cmd.Flags().Changed("seeds") {
				bc.Seeds = seeds
			}
			if bc.Repeats < 1 {
				bc.Repeats = 1
			}
			if len(bc.Seeds) == 0 {
				bc.Seeds = []int64{a.cfg.Planner.Seed}
			}

			files, err := filepath.Glob(filepath.Join(bc.Dir, "*.yaml"))
			if err != nil {
				return fmt.Errorf("finding scenarios: %w", err)
			}
			if len(files) == 0 {
				return fmt.Errorf("no scenarios found in %s; generate some with: lsrp gen", bc.Dir)
			}
			sort.Strings(files)

			out := cmd.OutOrStdout()
			total := len(files) * len(bc.Seeds) * bc.Repeats
			fmt.Fprintf(out, "Running benchmarks: %d scenarios x %d seeds x %d repeats = %d runs\n",
				len(files), len(bc.Seeds), bc.Repeats, total)

			commit := gitCommit()
			var results []*BenchmarkResult
			run := 0
			for _, file := range files {
				for _, seed := range bc.Seeds {
					for rep := 0; rep < bc.Repeats; rep++ {
						if err := cmd.Context().Err(); err != nil {
							return err
						}
						run++
						r, err := a.benchOne(cmd.Context(), cmd.Flags(), &pf, file, seed, agents)
						if err != nil {
							return err
						}
						if r == nil {
							continue
						}
						r.Repeat = rep
						r.CommitHash = commit
						results = append(results, r)
						if verbose {
							fmt.Fprintf(out, "[%d/%d] %s seed=%d: %s (%.2fms, soc=%.2f)\n",
								run, total, r.Scenario, seed, r.Status, r.RuntimeMs, r.SoC)
						}
					}
				}
			}

			if err := writeCSV(results, bc.Output); err != nil {
				return fmt.Errorf("writing results: %w", err)
			}
			fmt.Fprintf(out, "Results written to: %s\n", bc.Output)
			printSummary(out, results)
			return nil
		},
	}

	pf.register(cmd.Flags())
	f := cmd.Flags()
	f.StringVar(&dir, "dir", "", "directory containing scenario files")
	f.StringVarP(&output, "output", "o", "", "output CSV file")
	f.IntVar(&repeats, "repeats", 1, "runs per scenario and seed")
	f.Int64SliceVar(&seeds, "seeds", nil, "tie-break seeds (default: planner seed)")
	f.IntVar(&agents, "agents", 0, "run only scenarios with this many agents (0 = all)")
	f.BoolVarP(&verbose, "verbose", "v", false, "print every run")
	return cmd
}

// benchOne plans one scenario. The scenario is reloaded for every run so no
// occupancy state leaks between runs. A nil result means it was filtered.
func (a *app) benchOne(ctx context.Context, f *pflag.FlagSet, pf *plannerFlags, path string, seed int64, agents int) (*BenchmarkResult, error) {
	_, inst, err := loadScenario(path, pf.durations)
	if err != nil {
		return nil, err
	}
	if agents > 0 && len(inst.Agents) != agents {
		return nil, nil
	}

	runID := uuid.NewString()
	log := a.log.With().Str("run", runID).Str("scenario", inst.Name).Int64("seed", seed).Logger()
	pc := a.plannerConfig(f, pf)
	pc.Seed = seed
	p, err := newPlanner(pc, inst, log, f.Changed("time-limit"))
	if err != nil {
		return nil, err
	}

	start := time.Now()
	sol, err := p.SolveInstance(ctx, inst)
	if err != nil {
		return nil, fmt.Errorf("solving %s: %w", inst.Name, err)
	}

	return &BenchmarkResult{
		RunID:       runID,
		Timestamp:   start.UTC().Format(time.RFC3339),
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		Scenario:    inst.Name,
		NumAgents:   len(inst.Agents),
		NumVertices: inst.Graph.NumVertices(),
		Seed:        seed,
		Status:      sol.Status.String(),
		Success:     sol.Status == core.StatusSuccess,
		RuntimeMs:   sol.Stats["runtime"] * 1000,
		SoC:         sol.SoC,
		Makespan:    sol.Makespan,
		AtGoal:      sol.NumAtGoal(),
		Rounds:      int(sol.Stats["rounds"]),
		Pushes:      int(sol.Stats["pushes"]),
		Swaps:       int(sol.Stats["swaps"]),
		Passes:      int(sol.Stats["passes"]),
		Waits:       int(sol.Stats["waits"]),
	}, nil
}

func gitCommit() string {
	output, err := exec.Command("git", "rev-parse", "--short", "HEAD").Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

var csvHeader = []string{
	"run_id", "timestamp", "commit_hash", "go_version", "os", "arch",
	"scenario", "num_agents", "num_vertices", "seed", "repeat",
	"status", "success", "runtime_ms", "soc", "makespan", "at_goal",
	"rounds", "pushes", "swaps", "passes", "waits",
}

func writeCSV(results []*BenchmarkResult, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.RunID, r.Timestamp, r.CommitHash, r.GoVersion, r.OS, r.Arch,
			r.Scenario, strconv.Itoa(r.NumAgents), strconv.Itoa(r.NumVertices),
			strconv.FormatInt(r.Seed, 10), strconv.Itoa(r.Repeat),
			r.Status, strconv.FormatBool(r.Success),
			fmt.Sprintf("%.3f", r.RuntimeMs), fmt.Sprintf("%.3f", r.SoC), fmt.Sprintf("%.3f", r.Makespan),
			strconv.Itoa(r.AtGoal), strconv.Itoa(r.Rounds), strconv.Itoa(r.Pushes),
			strconv.Itoa(r.Swaps), strconv.Itoa(r.Passes), strconv.Itoa(r.Waits),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func printSummary(w io.Writer, results []*BenchmarkResult) {
	metrics := make(map[string]*scenarioMetrics)
	for _, r := range results {
		m, ok := metrics[r.Scenario]
		if !ok {
			m = &scenarioMetrics{Name: r.Scenario}
			metrics[r.Scenario] = m
		}
		m.TotalRuns++
		if r.Success {
			m.Successes++
			m.TotalRuntimeMs += r.RuntimeMs
			m.TotalSoC += r.SoC
			m.TotalMakespan += r.Makespan
		}
	}

	fmt.Fprintln(w, "\n=== BENCHMARK SUMMARY ===")
	fmt.Fprintf(w, "%-28s %6s %8s %12s %10s %10s\n",
		"Scenario", "Runs", "Success", "Avg Time(ms)", "Avg SoC", "Makespan")
	fmt.Fprintln(w, strings.Repeat("-", 79))

	names := make([]string, 0, len(metrics))
	for name := range metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := metrics[name]
		var avgTime, avgSoC, avgMakespan float64
		if m.Successes > 0 {
			n := float64(m.Successes)
			avgTime = m.TotalRuntimeMs / n
			avgSoC = m.TotalSoC / n
			avgMakespan = m.TotalMakespan / n
		}
		fmt.Fprintf(w, "%-28s %6d %8d %12.2f %10.2f %10.2f\n",
			m.Name, m.TotalRuns, m.Successes, avgTime, avgSoC, avgMakespan)
	}
}
