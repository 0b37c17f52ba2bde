// Package cmd defines the CLI commands for the regwatch executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regwatch",
		Short: "Extracts recent regulatory news from EMA, FDA, PMDA, and WHO.",
		Long: `regwatch walks the news listings of four regulatory bodies, extracts
each item's title, date, summary, and body lead, filters them to a lookback
window, and writes the surviving records to a JSON run manifest. Sources
that need JavaScript are rendered through headless Chrome.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults to environment variables only)")

	cmd.AddCommand(newExtractCmd())
	cmd.AddCommand(newSourcesCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
