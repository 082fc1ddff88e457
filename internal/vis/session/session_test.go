package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lsrp-capaset/internal/algo"
	"github.com/elektrokombinacija/lsrp-capaset/internal/core"
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

func writeLine(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "line.yaml")
	require.NoError(t, os.WriteFile(path, []byte(lineScenario), 0644))
	return path
}

func TestOpenPlans(t *testing.T) {
	path := writeLine(t)

	st, err := Open(context.Background(), Config{Scenario: path, Options: algo.DefaultOptions()}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "line", st.Instance.Name)
	assert.Equal(t, core.StatusSuccess, st.Solution.Status)
	assert.Equal(t, 2.0, st.Playback.MaxTime)
	assert.NotZero(t, st.Trace.Len())

	p, ok := st.VertexPos(2)
	require.True(t, ok)
	assert.Equal(t, core.Pos{X: 2}, p)
}

func TestOpenSavedPlan(t *testing.T) {
	path := writeLine(t)
	st, err := Open(context.Background(), Config{Scenario: path, Options: algo.DefaultOptions()}, zerolog.Nop())
	require.NoError(t, err)

	planPath := filepath.Join(filepath.Dir(path), "line.plan.yaml")
	require.NoError(t, scenario.SavePlan(planPath, scenario.NewPlanFile("line", st.Solution)))

	replay, err := Open(context.Background(), Config{Scenario: path, Plan: planPath}, zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, replay.Trace.Len())
	assert.Equal(t, st.Solution.SoC, replay.Solution.SoC)
	assert.Equal(t, st.Solution.Paths, replay.Solution.Paths)
	assert.Equal(t, st.Playback.Events, replay.Playback.Events)
}

func TestOpenPlanMismatch(t *testing.T) {
	path := writeLine(t)
	planPath := filepath.Join(filepath.Dir(path), "short.plan.yaml")
	require.NoError(t, scenario.SavePlan(planPath, &scenario.PlanFile{
		Scenario: "line",
		Status:   "success",
		Agents:   []scenario.PlanAgent{{ID: 0, Path: []scenario.Waypoint{{V: 0, T: 0}}}},
	}))

	_, err := Open(context.Background(), Config{Scenario: path, Plan: planPath}, zerolog.Nop())
	assert.ErrorIs(t, err, scenario.ErrFormat)

	_, err = Open(context.Background(), Config{Scenario: filepath.Join(filepath.Dir(path), "missing.yaml")}, zerolog.Nop())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
