package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/analyzer"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/config"
)

// NewRunCmd creates the run command.
func NewRunCmd(cfgFile, logLevel, logFile *string, logPretty *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest a flow log and write the tag report",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, cfgFile, logLevel, logFile, logPretty)
		},
	}

	// Input flags
	cmd.Flags().String("flow-log", "", `flow log path ("-" reads stdin, .gz is decompressed)`)
	cmd.Flags().String("rules", "", "rule table CSV path")
	cmd.Flags().String("protocols", "", "IANA protocol numbers CSV path")

	// Engine flags
	cmd.Flags().String("delimiter", "", "token delimiter (default: single space)")
	cmd.Flags().String("schema", "", "built-in layout name (v2-default, legacy)")
	cmd.Flags().StringSlice("fields", nil, "explicit ordered field names (overrides --schema)")
	cmd.Flags().Int("workers", 0, "parallel attribution workers")

	// Report flags
	cmd.Flags().StringP("output", "o", "", "report path (- for stdout)")
	cmd.Flags().String("format", "", "report format (text, json)")

	// Watch flag
	cmd.Flags().Bool("watch", false, "rerun whenever an input file changes")

	return cmd
}

func runAnalysis(cmd *cobra.Command, cfgFile, logLevel, logFile *string, logPretty *bool) error {
	log := SetupLogging(*logLevel, *logFile, *logPretty)

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	applyCLIOverrides(cmd, cfg)

	a, err := analyzer.New(cfg, log)
	if err != nil {
		return fmt.Errorf("creating analyzer: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	watch, _ := cmd.Flags().GetBool("watch")
	if !watch {
		if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	return runWatch(ctx, cfg, a, log)
}

// runWatch performs an initial pass, then reruns the analysis whenever an
// input file changes. Failed reruns keep the watch alive; only a watcher
// that cannot start aborts.
func runWatch(ctx context.Context, cfg *config.Config, a *analyzer.Analyzer, log zerolog.Logger) error {
	if err := a.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		log.Error().Err(err).Msg("initial run failed")
	}

	watcher := analyzer.NewWatcher(cfg.WatchPaths(), log)
	if err := watcher.Start(ctx); err != nil {
		return fmt.Errorf("starting input watcher: %w", err)
	}

	log.Info().Strs("paths", cfg.WatchPaths()).Msg("watching for input changes")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("watch stopped")
			return nil

		case path := <-watcher.Changes():
			log.Info().Str("path", path).Msg("input changed, rerunning")

			// Rebuild from scratch so rule table and registry edits
			// take effect too.
			fresh, err := analyzer.New(cfg, log)
			if err != nil {
				log.Error().Err(err).Msg("reload failed")
				continue
			}
			if err := fresh.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("rerun failed")
			}

		case err := <-watcher.Errors():
			log.Error().Err(err).Msg("input watcher error")
		}
	}
}

// applyCLIOverrides layers explicitly set flags over the loaded config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("flow-log"); v != "" {
		cfg.Inputs.FlowLog = v
	}
	if v, _ := cmd.Flags().GetString("rules"); v != "" {
		cfg.Inputs.Rules = v
	}
	if v, _ := cmd.Flags().GetString("protocols"); v != "" {
		cfg.Inputs.Registry = v
	}
	if v, _ := cmd.Flags().GetString("delimiter"); v != "" {
		cfg.Engine.Delimiter = v
	}
	if v, _ := cmd.Flags().GetString("schema"); v != "" {
		cfg.Engine.Schema = v
	}
	if v, _ := cmd.Flags().GetStringSlice("fields"); len(v) > 0 {
		cfg.Engine.Fields = v
	}
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		cfg.Engine.Workers = v
	}
	if v, _ := cmd.Flags().GetString("output"); v != "" {
		cfg.Report.Path = v
	}
	if v, _ := cmd.Flags().GetString("format"); v != "" {
		cfg.Report.Format = v
	}
}
