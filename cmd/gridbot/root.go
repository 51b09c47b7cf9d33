package main

import "github.com/spf13/cobra"

var version = "dev"

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "gridbot",
		Short:         "Conversational status assistant for grid computing jobs and services",
		Long:          "gridbot answers spoken or typed questions about a user's grid jobs and tasks, site load and the health of the distributed computing systems behind them.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	rootCmd.AddCommand(
		newServeCmd(&envFile),
		newMCPCmd(&envFile),
		newAskCmd(&envFile),
		newStatsCmd(&envFile),
	)
	return rootCmd
}
