package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/drawsim/sim"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drawsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_NoFile_ReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	simCfg, err := cfg.SimConfig()
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultSimConfig(), simCfg)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	// GIVEN a file that sets some fields
	path := writeConfig(t, `
simulation:
  population_size: 25
  rounds_per_generation: 50
  tick_interval: 50ms
store:
  backend: sqlite
`)

	// WHEN loaded
	cfg, err := LoadConfig(path)

	// THEN set fields change and the rest keep their defaults
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Simulation.PopulationSize)
	assert.Equal(t, 50, cfg.Simulation.RoundsPerGeneration)
	assert.Equal(t, 50*time.Millisecond, cfg.Simulation.TickInterval)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, sim.DefaultBoardSize, cfg.Simulation.BoardSize)
	assert.Equal(t, "drawsim.db", cfg.Store.SQLitePath)
}

func TestLoadConfig_UnknownField_ReturnsError(t *testing.T) {
	// Typos must cause errors.
	path := writeConfig(t, "simulation:\n  populaton_size: 5\n")
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "populaton_size")
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "simulation:\n  seed: 7\n  population_size: 3\n")
	t.Setenv("DRAWSIM_SEED", "99")
	t.Setenv("DRAWSIM_SERVER_ALLOWED_ORIGINS", "http://a,http://b")
	t.Setenv("DRAWSIM_INFERENCE_TIMEOUT", "2s")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, int64(99), cfg.Simulation.Seed)
	assert.Equal(t, 3, cfg.Simulation.PopulationSize)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 2*time.Second, cfg.Simulation.InferenceTimeout)
}

func TestLoadConfig_EnvOverridesModelAndServer(t *testing.T) {
	path := writeConfig(t, "model:\n  hidden_units: 16\nserver:\n  autoplay: false\n")
	t.Setenv("DRAWSIM_MODEL_HIDDEN_UNITS", "32")
	t.Setenv("DRAWSIM_SERVER_AUTOPLAY", "true")

	cfg, err := LoadConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 32, cfg.Model.HiddenUnits)
	assert.True(t, cfg.Server.Autoplay)
}

func TestLoadConfig_BadHiddenUnitsEnv_ReturnsError(t *testing.T) {
	t.Setenv("DRAWSIM_MODEL_HIDDEN_UNITS", "wide")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "DRAWSIM_MODEL_HIDDEN_UNITS")
}

func TestLoadConfig_BadEnvValue_ReturnsError(t *testing.T) {
	t.Setenv("DRAWSIM_POPULATION_SIZE", "many")
	_, err := LoadConfig("")
	assert.ErrorContains(t, err, "DRAWSIM_POPULATION_SIZE")
}

func TestConfig_SimConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Simulation.PopulationSize = 0
	_, err := cfg.SimConfig()
	assert.ErrorContains(t, err, "population size")
}

func TestApplyFlagOverrides_OnlyChangedFlags(t *testing.T) {
	// GIVEN a command with simulation flags where only --population is set
	cmd := &cobra.Command{Use: "test"}
	registerSimulationFlags(cmd)
	require.NoError(t, cmd.Flags().Parse([]string{"--population", "12"}))
	cfg := DefaultConfig()
	cfg.Simulation.Seed = 1234

	// WHEN overrides are applied
	applyFlagOverrides(cmd, &cfg)

	// THEN only the changed flag wins
	assert.Equal(t, 12, cfg.Simulation.PopulationSize)
	assert.Equal(t, int64(1234), cfg.Simulation.Seed)
}
