package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/volley/packages/output"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "volley",
	Short: "Declarative HTTP requests from YAML files.",
	Long: `volley reads YAML files describing HTTP requests, sends them in
order against their targets, and writes a JSON report with the status,
server response time and body of every exchange.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		output.NewConsole().Error(err)
		os.Exit(ExitFailure)
	}
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}
