package cli

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lsrp-capaset/internal/config"
	"github.com/elektrokombinacija/lsrp-capaset/internal/scenario"
)

const lineScenario = `name: line
graph:
  kind: roadmap
  roadmap:
    vertices:
      - {id: 0, x: 0, y: 0}
      - {id: 1, x: 1, y: 0}
      - {id: 2, x: 2, y: 0}
    edges:
      - {from: 0, to: 1}
      - {from: 1, to: 2}
agents:
  - {start: 0, goal: 2}
  - {start: 2, goal: 0}
`

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func writeLine(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "line.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lineScenario), 0644))
	return path
}

func TestSolve(t *testing.T) {
	dir := t.TempDir()
	path := writeLine(t, dir)
	planPath := filepath.Join(dir, "plans", "line.plan.yaml")

	out, err := execute(t, "solve", path, "--plan", planPath, "--check", "--paths")
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: line (2 agents, 3 vertices)")
	assert.Contains(t, out, "Status:   success (2/2 at goal)")
	assert.Contains(t, out, "SoC:      4.00")
	assert.Contains(t, out, "agent 0: 0@0.00 -> 1@1.00 -> 2@2.00 (goal)")
	assert.Contains(t, out, "Check:    ok")

	plan, err := scenario.LoadPlan(planPath)
	require.NoError(t, err)
	assert.Equal(t, "line", plan.Scenario)
	assert.Equal(t, "success", plan.Status)
	assert.NotEmpty(t, plan.RunID)
	assert.Len(t, plan.Agents, 2)
}

func TestSolveIncomplete(t *testing.T) {
	path := writeLine(t, t.TempDir())

	out, err := execute(t, "solve", path, "--swap=false", "--max-stall", "20")
	assert.ErrorIs(t, err, ErrUnsolved)
	assert.Contains(t, out, "Status:   blocked")
}

func TestSolveConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := writeLine(t, dir)

	cfg := config.DefaultConfig()
	cfg.Planner.Swap = false
	cfg.Planner.MaxStallRounds = 20
	cfgPath := filepath.Join(dir, config.FileName)
	require.NoError(t, config.WriteConfig(cfgPath, cfg))

	_, err := execute(t, "--config", cfgPath, "solve", path)
	assert.ErrorIs(t, err, ErrUnsolved)

	// flags win over the file
	_, err = execute(t, "--config", cfgPath, "solve", path, "--swap")
	assert.NoError(t, err)

	_, err = execute(t, "--config", filepath.Join(dir, "missing.yaml"), "solve", path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSolveErrors(t *testing.T) {
	_, err := execute(t, "solve")
	assert.Error(t, err)

	_, err = execute(t, "solve", filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := writeLine(t, t.TempDir())
	_, err = execute(t, "solve", path, "--log-format", "xml")
	assert.Error(t, err)
}

func TestSolveDurationsOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeLine(t, dir)
	durs := filepath.Join(dir, "agents.txt")
	require.NoError(t, os.WriteFile(durs, []byte("agent1: 2\nagent2: 2\n"), 0644))

	out, err := execute(t, "solve", path, "--durations", durs)
	require.NoError(t, err)
	assert.Contains(t, out, "SoC:      8.00")
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", config.FileName)

	out, err := execute(t, "--config", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote")

	cfg, err := config.ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = execute(t, "--config", path, "init")
	assert.Error(t, err)
	_, err = execute(t, "--config", path, "init", "--force")
	assert.NoError(t, err)
}

func TestGenAndBench(t *testing.T) {
	dir := t.TempDir()
	scenarios := filepath.Join(dir, "scenarios")

	out, err := execute(t, "gen", "--agents", "4", "--width", "6", "--height", "6",
		"--seed", "1", "--split-durations", "-o", scenarios)
	require.NoError(t, err)
	assert.Contains(t, out, "4 agents, 6x6 grid")

	name := "lsrp_4_6x6_1"
	assert.FileExists(t, filepath.Join(scenarios, name+".agents.txt"))
	f, inst, err := scenario.Load(filepath.Join(scenarios, name+".yaml"))
	require.NoError(t, err)
	assert.Equal(t, name+".agents.txt", f.DurationsFile)
	assert.NotEmpty(t, f.Generated)
	for _, d := range inst.Durations() {
		assert.Greater(t, d, 0.0)
	}

	csvPath := filepath.Join(dir, "out", "results.csv")
	out, err = execute(t, "bench", "--dir", scenarios, "-o", csvPath, "--seeds", "1,2", "-v")
	require.NoError(t, err)
	assert.Contains(t, out, "1 scenarios x 2 seeds x 1 repeats = 2 runs")
	assert.Contains(t, out, "BENCHMARK SUMMARY")
	assert.Contains(t, out, name)

	file, err := os.Open(csvPath)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, name, rows[1][6])
	assert.Equal(t, "1", rows[1][9])
	assert.Equal(t, "2", rows[2][9])
	assert.NotEqual(t, rows[1][0], rows[2][0], "run ids are unique")

	// filtered out by agent count
	out, err = execute(t, "bench", "--dir", scenarios, "-o", csvPath, "--agents", "7")
	require.NoError(t, err)
	assert.NotContains(t, out, name)

	_, err = execute(t, "bench", "--dir", filepath.Join(dir, "empty"))
	assert.Error(t, err)
}

func TestGenSingleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.yaml")
	_, err := execute(t, "gen", "--agents", "2", "-o", path)
	require.NoError(t, err)
	assert.FileExists(t, path)

	_, err = execute(t, "gen", "--obstacles", "1", "-o", path)
	assert.ErrorIs(t, err, scenario.ErrFormat)
}

func TestSimulate(t *testing.T) {
	dir := t.TempDir()
	path := writeLine(t, dir)
	metrics := filepath.Join(dir, "metrics.json")

	out, err := execute(t, "simulate", path, "--step", "0.5", "--metrics", metrics)
	require.NoError(t, err)
	assert.Contains(t, out, "Status:    success (2/2 at goal)")
	assert.Contains(t, out, "Simulated: 2.00s in 5 steps")
	assert.Contains(t, out, "1 pass-throughs, 0 overload events")
	assert.FileExists(t, metrics)

	planPath := filepath.Join(dir, "line.plan.yaml")
	_, err = execute(t, "solve", path, "-o", planPath)
	require.NoError(t, err)
	out, err = execute(t, "simulate", path, "--plan", planPath)
	require.NoError(t, err)
	assert.Contains(t, out, "(2/2 at goal)")
}
