package cli

import (
	"github.com/spf13/cobra"

	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/sample"
)

// NewGenerateCmd creates the generate command.
func NewGenerateCmd(logLevel, logFile *string, logPretty *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a sample rule table and flow log",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := SetupLogging(*logLevel, *logFile, *logPretty)

			rulesOut, _ := cmd.Flags().GetString("rules-out")
			logOut, _ := cmd.Flags().GetString("log-out")
			lines, _ := cmd.Flags().GetInt("lines")
			seed, _ := cmd.Flags().GetInt64("seed")

			return sample.Generate(sample.Options{
				RulesPath: rulesOut,
				LogPath:   logOut,
				Lines:     lines,
				Seed:      seed,
			}, log)
		},
	}

	cmd.Flags().String("rules-out", "mapping.csv", "rule table output path")
	cmd.Flags().String("log-out", "flow_logs.txt", "flow log output path")
	cmd.Flags().Int("lines", 50000, "number of flow log records")
	cmd.Flags().Int64("seed", 0, "random seed (0 uses the clock)")

	return cmd
}
