package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "papertrade",
	Short: "Deterministic day-by-day paper-trading simulator",
	Long: `papertrade replays historical end-of-day quotes through a
paper-trading simulation: buy/sell rules (or a trained classifier)
decide trades, which execute one day later with no lookahead.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// optional; env vars may come from the environment directly
		_ = godotenv.Load()
	},
}

func main() {
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(ingestCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
