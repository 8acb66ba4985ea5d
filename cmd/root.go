// Package cmd defines and implements the CLI commands for the scout
// executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scout",
		Short: "Finds trending wholesale products and delivers a ranked digest.",
		Long: `scout scrapes wholesale marketplaces for trending products, scores them
by resale potential (via an AI ranking service, with a deterministic
fallback), and delivers the top picks to a Telegram channel.`,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); defaults and SCOUT_* env vars apply without one")

	cmd.AddCommand(newRunCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
