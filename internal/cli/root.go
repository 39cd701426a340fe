package cli

import (
	"github.com/spf13/cobra"
)

// Execute builds and runs the CLI.
func Execute() error {
	var (
		cfgFile   string
		logLevel  string
		logFile   string
		logPretty bool
	)

	rootCmd := &cobra.Command{
		Use:   "flowlog-analyzer",
		Short: "Tags VPC flow log traffic by destination port and protocol",
		Long: `flowlog-analyzer ingests AWS VPC flow logs, attributes every record to a
destination port / protocol combination, matches the combinations against a
CSV rule table and writes an aggregate report.

Records resolve against the standard version 2 layout by default. Logs with
a custom format are handled through an explicit field list, and an IANA
protocol numbers CSV can replace the built-in protocol set.

In watch mode the report is rewritten whenever an input file changes.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./flowlog.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this rotating file")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "human-readable console logs")

	rootCmd.AddCommand(
		NewRunCmd(&cfgFile, &logLevel, &logFile, &logPretty),
		NewValidateCmd(&cfgFile),
		NewGenerateCmd(&logLevel, &logFile, &logPretty),
		NewVersionCmd(),
	)

	return rootCmd.Execute()
}
