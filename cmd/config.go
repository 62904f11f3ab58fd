package cmd

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/drawsim/sim"
	"github.com/inference-sim/drawsim/sim/history"
	"github.com/inference-sim/drawsim/sim/trace"
)

// envPrefix namespaces every environment override.
const envPrefix = "DRAWSIM_"

// SimulationSection configures the engine and the real-time loop.
type SimulationSection struct {
	PopulationSize      int           `yaml:"population_size"`
	BoardSize           int           `yaml:"board_size"`
	NumberMin           int           `yaml:"number_min"`
	NumberMax           int           `yaml:"number_max"`
	RoundsPerGeneration int           `yaml:"rounds_per_generation"`
	Seed                int64         `yaml:"seed"`
	TickInterval        time.Duration `yaml:"tick_interval"`
	InferenceTimeout    time.Duration `yaml:"inference_timeout"`
	TraceLevel          string        `yaml:"trace_level"`
}

// ModelSection points at a descriptor/weights pair.
type ModelSection struct {
	Descriptor  string `yaml:"descriptor"`
	Weights     string `yaml:"weights"`
	Placeholder bool   `yaml:"placeholder"`  // use an untrained seeded network when no files are given
	HiddenUnits int    `yaml:"hidden_units"` // placeholder hidden layer width
}

// DataSection points at a CSV draw history.
type DataSection struct {
	CSV string `yaml:"csv"`
}

// StoreSection selects the run history backend.
type StoreSection struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path"`
}

// ServerSection configures `serve`.
type ServerSection struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Autoplay       bool     `yaml:"autoplay"`
}

// Config represents the full config file structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Config struct {
	Simulation SimulationSection `yaml:"simulation"`
	Model      ModelSection      `yaml:"model"`
	Data       DataSection       `yaml:"data"`
	Store      StoreSection      `yaml:"store"`
	Server     ServerSection     `yaml:"server"`
}

// DefaultConfig returns the values used when neither file, environment nor
// flags set anything.
func DefaultConfig() Config {
	d := sim.DefaultSimConfig()
	return Config{
		Simulation: SimulationSection{
			PopulationSize:      d.Population.Size,
			BoardSize:           d.Board.Size,
			NumberMin:           d.Board.NumberMin,
			NumberMax:           d.Board.NumberMax,
			RoundsPerGeneration: d.Generation.RoundsPerGeneration,
			Seed:                d.Seed,
			TickInterval:        sim.DefaultTickInterval,
			TraceLevel:          string(d.TraceLevel),
		},
		Model:  ModelSection{HiddenUnits: 64},
		Store:  StoreSection{Backend: history.BackendMemory, SQLitePath: "drawsim.db"},
		Server: ServerSection{Port: 8080, AllowedOrigins: []string{"*"}},
	}
}

// LoadConfig layers defaults, the optional YAML file at path, an optional
// .env file and DRAWSIM_* environment variables, in that order.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config: %w", err)
		}
		// Strict field checking: typos must cause errors.
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	// .env is optional.
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var err error
	s := &cfg.Simulation
	if s.PopulationSize, err = getEnvAsInt("POPULATION_SIZE", s.PopulationSize); err != nil {
		return err
	}
	if s.BoardSize, err = getEnvAsInt("BOARD_SIZE", s.BoardSize); err != nil {
		return err
	}
	if s.NumberMin, err = getEnvAsInt("NUMBER_MIN", s.NumberMin); err != nil {
		return err
	}
	if s.NumberMax, err = getEnvAsInt("NUMBER_MAX", s.NumberMax); err != nil {
		return err
	}
	if s.RoundsPerGeneration, err = getEnvAsInt("ROUNDS_PER_GENERATION", s.RoundsPerGeneration); err != nil {
		return err
	}
	if s.Seed, err = getEnvAsInt64("SEED", s.Seed); err != nil {
		return err
	}
	if s.TickInterval, err = getEnvAsDuration("TICK_INTERVAL", s.TickInterval); err != nil {
		return err
	}
	if s.InferenceTimeout, err = getEnvAsDuration("INFERENCE_TIMEOUT", s.InferenceTimeout); err != nil {
		return err
	}
	s.TraceLevel = getEnv("TRACE_LEVEL", s.TraceLevel)

	cfg.Model.Descriptor = getEnv("MODEL_DESCRIPTOR", cfg.Model.Descriptor)
	cfg.Model.Weights = getEnv("MODEL_WEIGHTS", cfg.Model.Weights)
	if cfg.Model.Placeholder, err = getEnvAsBool("MODEL_PLACEHOLDER", cfg.Model.Placeholder); err != nil {
		return err
	}
	if cfg.Model.HiddenUnits, err = getEnvAsInt("MODEL_HIDDEN_UNITS", cfg.Model.HiddenUnits); err != nil {
		return err
	}
	cfg.Data.CSV = getEnv("DATA_CSV", cfg.Data.CSV)
	cfg.Store.Backend = getEnv("STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.SQLitePath = getEnv("STORE_SQLITE_PATH", cfg.Store.SQLitePath)
	if cfg.Server.Port, err = getEnvAsInt("SERVER_PORT", cfg.Server.Port); err != nil {
		return err
	}
	if cfg.Server.Autoplay, err = getEnvAsBool("SERVER_AUTOPLAY", cfg.Server.Autoplay); err != nil {
		return err
	}
	if origins := getEnv("SERVER_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	return nil
}

// SimConfig maps the simulation section onto the engine configuration.
func (c Config) SimConfig() (sim.SimConfig, error) {
	out := sim.SimConfig{
		Population: sim.PopulationConfig{Size: c.Simulation.PopulationSize},
		Board: sim.BoardConfig{
			Size:      c.Simulation.BoardSize,
			NumberMin: c.Simulation.NumberMin,
			NumberMax: c.Simulation.NumberMax,
		},
		Generation: sim.GenerationConfig{RoundsPerGeneration: c.Simulation.RoundsPerGeneration},
		Seed:       c.Simulation.Seed,
		TraceLevel: trace.TraceLevel(c.Simulation.TraceLevel),
	}
	if err := out.Validate(); err != nil {
		return sim.SimConfig{}, err
	}
	return out, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func getEnvAsInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func getEnvAsBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return b, nil
}

func getEnvAsDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(envPrefix + key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return d, nil
}
