package main

import (
	"os"

	"github.com/airchains-network/state-conformance/cmd/conformance/commands"
	"github.com/spf13/cobra"
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "conformance",
		Short: "State conformance checks against a running node",
		Long: `Drives conformance checks against a running blockchain node: funds and deploys
pre-state accounts, submits transactions or custom blocks, and verifies the
resulting account state against an expected post-state.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.state-conformance/config.toml)")

	// Add commands
	rootCmd.AddCommand(commands.InitCmd)
	rootCmd.AddCommand(commands.CreateAccountCmd)
	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.HistoryCmd)
	rootCmd.AddCommand(commands.ServeCmd)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
