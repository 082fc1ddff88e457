package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elektrokombinacija/lsrp-capaset/internal/algo"
)

func TestConfigYAMLRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", FileName)

	cfg := DefaultConfig()
	cfg.Planner.SwapMode = "strict"
	cfg.Planner.Seed = 7
	cfg.Planner.CostWeights = []float64{1, 0.5}
	cfg.Bench.Seeds = []int64{1, 2, 3}

	require.NoError(t, WriteConfig(path, cfg))
	loaded, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestReadConfigKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("planner:\n  seed: 9\n"), 0644))

	cfg, err := ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, int64(9), cfg.Planner.Seed)
	assert.True(t, cfg.Planner.Swap)
	assert.Equal(t, 1.0, cfg.Planner.AgingDelta)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 0.1, cfg.Sim.TimeStep)
}

func TestReadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("planner: [1, 2"), 0644))
	_, err = ReadConfig(bad)
	assert.Error(t, err)

	mode := filepath.Join(dir, "mode.yaml")
	require.NoError(t, os.WriteFile(mode, []byte("planner:\n  swap_mode: sideways\n"), 0644))
	_, err = ReadConfig(mode)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestPlannerOptions(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PlannerConfig
		want    algo.Options
		wantErr bool
	}{
		{
			name: "defaults",
			cfg:  DefaultConfig().Planner,
			want: algo.DefaultOptions(),
		},
		{
			name: "strict no swap",
			cfg:  PlannerConfig{SwapMode: "strict", Seed: 4, MaxStallRounds: 30, Horizon: 12},
			want: algo.Options{SwapMode: algo.SwapStrict, Seed: 4, AgingDelta: 1, MaxStallRounds: 30, Horizon: 12},
		},
		{
			name: "weighted aging",
			cfg:  PlannerConfig{Swap: true, AgingDelta: 0.5, DistanceWeightedAging: true},
			want: algo.Options{Swap: true, AgingDelta: 0.5, DistanceWeightedAging: true},
		},
		{
			name: "no detours",
			cfg:  PlannerConfig{Swap: true, DetourAfter: -1},
			want: algo.Options{Swap: true, AgingDelta: 1, DetourAfter: -1},
		},
		{name: "bad mode", cfg: PlannerConfig{SwapMode: "x"}, wantErr: true},
		{name: "negative aging", cfg: PlannerConfig{AgingDelta: -1}, wantErr: true},
		{name: "negative horizon", cfg: PlannerConfig{Horizon: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cfg.Options()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
