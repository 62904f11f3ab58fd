package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/drawsim/sim"
)

var (
	rewardPopulation int // Population size used in the competition factor
	rewardMaxMatches int // Largest match count to tabulate
)

// rewardCmd prints the reward table
var rewardCmd = &cobra.Command{
	Use:   "reward",
	Short: "Print rewards per match count for a population size",
	Run: func(cmd *cobra.Command, args []string) {
		if rewardPopulation <= 0 {
			logrus.Fatalf("--population must be > 0, got %d", rewardPopulation)
		}
		if rewardMaxMatches < 0 {
			logrus.Fatalf("--max-matches must be >= 0, got %d", rewardMaxMatches)
		}
		printRewardTable(cmd.OutOrStdout(), rewardPopulation, rewardMaxMatches)
	},
}

func printRewardTable(w io.Writer, population, maxMatches int) {
	fmt.Fprintf(w, "=== Rewards (population %d) ===\n", population)
	fmt.Fprintln(w, "Matches  Reward")
	for m := 0; m <= maxMatches; m++ {
		fmt.Fprintf(w, "%7d  %d\n", m, sim.Reward(m, population))
	}
}

func init() {
	rewardCmd.Flags().IntVar(&rewardPopulation, "population", sim.DefaultPopulationSize, "Population size")
	rewardCmd.Flags().IntVar(&rewardMaxMatches, "max-matches", sim.DefaultBoardSize, "Largest match count to tabulate")
}
