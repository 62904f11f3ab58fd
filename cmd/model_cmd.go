package cmd

import (
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/drawsim/sim"
	"github.com/inference-sim/drawsim/sim/model"
)

var (
	initBoardSize  int    // Board width the model predicts
	initHidden     int    // Hidden layer width
	initSeed       int64  // Weight seed
	initDescriptor string // Output descriptor path
	initWeights    string // Output weights path
)

var modelCmd = &cobra.Command{
	Use:   "model",
	Short: "Manage model files",
}

// modelInitCmd writes an untrained placeholder network. There is no training.
var modelInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write an untrained placeholder descriptor and weights pair",
	Run: func(cmd *cobra.Command, args []string) {
		if initBoardSize <= 0 {
			logrus.Fatalf("--board-size must be > 0, got %d", initBoardSize)
		}
		net, err := model.NewPlaceholder(placeholderDescriptor(initBoardSize, initHidden), placeholderRNG(initSeed))
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := net.Save(initDescriptor, initWeights); err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Wrote %s and %s (%d inputs, %d outputs)", initDescriptor, initWeights, net.Desc.Inputs, net.Desc.Outputs())
	},
}

// placeholderRNG returns the seeded stream used for placeholder weights.
func placeholderRNG(seed int64) *rand.Rand {
	return sim.NewPartitionedRNG(sim.NewSimulationKey(seed)).ForSubsystem(sim.SubsystemModel)
}

func init() {
	modelInitCmd.Flags().IntVar(&initBoardSize, "board-size", sim.DefaultBoardSize, "Board width the model predicts")
	modelInitCmd.Flags().IntVar(&initHidden, "hidden", 64, "Hidden layer width")
	modelInitCmd.Flags().Int64Var(&initSeed, "seed", sim.DefaultSeed, "Weight seed")
	modelInitCmd.Flags().StringVar(&initDescriptor, "descriptor", "model.yaml", "Descriptor output path")
	modelInitCmd.Flags().StringVar(&initWeights, "weights", "model.gob", "Weights output path")
	modelCmd.AddCommand(modelInitCmd)
}
