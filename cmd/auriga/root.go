package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "auriga",
	Short: "Autonomous request orchestration engine",
	Long: `Auriga turns a natural-language request into a plan of dependent
tasks, executes them concurrently against an AI model, and synthesizes
the results into one answer.

Completed runs feed a persistent experience network: similar future
requests are enhanced with what worked before, and repeated use builds
per-user need predictions.

Core capabilities:
- Analyzes requests for objective, constraints and complexity
- Plans tasks with dependencies and rejects cyclic plans
- Executes independent tasks in parallel
- Performs remote control actions when explicitly allowed
- Learns from every run and suggests prompts per user`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
