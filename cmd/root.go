package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/drawsim/sim/history"
	"github.com/inference-sim/drawsim/sim/trace"
)

var (
	// Shared flags
	configPath string // YAML config file
	logLevel   string // Log verbosity level

	// Simulation flags; applied only when explicitly set
	seed                int64  // Seed for boards and placeholder weights
	populationSize      int    // Number of players
	boardSize           int    // Numbers per synthesized board
	numberMin           int    // Smallest drawable number
	numberMax           int    // Largest drawable number
	roundsPerGeneration int    // Rounds before evolution
	traceLevel          string // none, generations or rounds
	modelDescriptor     string // Model descriptor YAML
	modelWeights        string // Model weights (gob)
	placeholderModel    bool   // Use an untrained seeded network
	dataPath            string // CSV draw history
	storeBackend        string // memory or sqlite
	sqlitePath          string // sqlite database file

	// run-only flags
	generations int    // Generations to play in batch mode
	resultsPath string // Optional JSON results file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "drawsim",
	Short: "Generational simulation of players predicting lottery draws",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd plays a fixed number of generations as fast as possible
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the simulation headless for a number of generations",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig(cmd)
		if generations <= 0 {
			logrus.Fatalf("--generations must be > 0, got %d", generations)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, store, err := buildSimulator(ctx, cfg)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() {
			if err := history.CloseIfSupported(store); err != nil {
				logrus.Warnf("Closing history store: %v", err)
			}
		}()
		if !s.ModelReady() {
			logrus.Fatalf("run needs a model: set --model-descriptor and --model-weights, or --placeholder")
		}

		horizon := int64(generations) * int64(s.Config.Generation.RoundsPerGeneration)
		logrus.Infof("Starting run %s: %d players, %d generations (%d rounds)",
			s.RunID, s.Config.Population.Size, generations, horizon)

		if err := s.Run(ctx, horizon); err != nil {
			logrus.Fatalf("Simulation stopped: %v", err)
		}

		printGenerations(s.Trace.Generations)
		s.Metrics.Print(trace.Summarize(s.Trace))
		if resultsPath != "" {
			if err := s.Metrics.SaveResults(s.Snapshot(), resultsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		logrus.Info("Simulation complete.")
	},
}

func printGenerations(records []trace.GenerationRecord) {
	fmt.Println("=== Generations ===")
	for _, r := range records {
		fmt.Printf("%6d : %d\n", r.Generation, r.Score)
	}
}

// mustLoadConfig resolves config file, environment and explicitly set flags.
func mustLoadConfig(cmd *cobra.Command) Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		logrus.Fatalf("%v", err)
	}
	applyFlagOverrides(cmd, &cfg)
	return cfg
}

// applyFlagOverrides copies flags the user actually set over cfg.
func applyFlagOverrides(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if flags.Changed("population") {
		cfg.Simulation.PopulationSize = populationSize
	}
	if flags.Changed("board-size") {
		cfg.Simulation.BoardSize = boardSize
	}
	if flags.Changed("number-min") {
		cfg.Simulation.NumberMin = numberMin
	}
	if flags.Changed("number-max") {
		cfg.Simulation.NumberMax = numberMax
	}
	if flags.Changed("rounds") {
		cfg.Simulation.RoundsPerGeneration = roundsPerGeneration
	}
	if flags.Changed("trace-level") {
		cfg.Simulation.TraceLevel = traceLevel
	}
	if flags.Changed("model-descriptor") {
		cfg.Model.Descriptor = modelDescriptor
	}
	if flags.Changed("model-weights") {
		cfg.Model.Weights = modelWeights
	}
	if flags.Changed("placeholder") {
		cfg.Model.Placeholder = placeholderModel
	}
	if flags.Changed("data") {
		cfg.Data.CSV = dataPath
	}
	if flags.Changed("store") {
		cfg.Store.Backend = storeBackend
	}
	if flags.Changed("sqlite-path") {
		cfg.Store.SQLitePath = sqlitePath
	}
	if flags.Changed("port") {
		cfg.Server.Port = serverPort
	}
	if flags.Changed("tick") {
		cfg.Simulation.TickInterval = tickInterval
	}
	if flags.Changed("inference-timeout") {
		cfg.Simulation.InferenceTimeout = inferenceTimeout
	}
	if flags.Changed("autoplay") {
		cfg.Server.Autoplay = autoplay
	}
}

// registerSimulationFlags adds the flags shared by run and serve.
func registerSimulationFlags(cmd *cobra.Command) {
	d := DefaultConfig()
	cmd.Flags().Int64Var(&seed, "seed", d.Simulation.Seed, "Seed for boards and placeholder weights")
	cmd.Flags().IntVar(&populationSize, "population", d.Simulation.PopulationSize, "Number of players")
	cmd.Flags().IntVar(&boardSize, "board-size", d.Simulation.BoardSize, "Numbers per synthesized board")
	cmd.Flags().IntVar(&numberMin, "number-min", d.Simulation.NumberMin, "Smallest drawable number")
	cmd.Flags().IntVar(&numberMax, "number-max", d.Simulation.NumberMax, "Largest drawable number")
	cmd.Flags().IntVar(&roundsPerGeneration, "rounds", d.Simulation.RoundsPerGeneration, "Rounds per generation")
	cmd.Flags().StringVar(&traceLevel, "trace-level", d.Simulation.TraceLevel, "Trace detail (none, generations, rounds)")
	cmd.Flags().StringVar(&modelDescriptor, "model-descriptor", "", "Model descriptor YAML")
	cmd.Flags().StringVar(&modelWeights, "model-weights", "", "Model weights file")
	cmd.Flags().BoolVar(&placeholderModel, "placeholder", false, "Use an untrained seeded model when no model files are given")
	cmd.Flags().StringVar(&dataPath, "data", "", "CSV draw history")
	cmd.Flags().StringVar(&storeBackend, "store", d.Store.Backend, "Run history backend (memory, sqlite)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", d.Store.SQLitePath, "SQLite database file")
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerSimulationFlags(runCmd)
	runCmd.Flags().IntVar(&generations, "generations", 10, "Generations to play")
	runCmd.Flags().StringVar(&resultsPath, "results-path", "", "Write snapshot and metrics as JSON to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(modelCmd)
	rootCmd.AddCommand(rewardCmd)
}

