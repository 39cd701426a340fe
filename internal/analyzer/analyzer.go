// Package analyzer wires the rule table, protocol resolver, engine and
// report writer into complete runs.
package analyzer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/config"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/engine"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/protocol"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/report"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/rules"
	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/schema"
)

// Analyzer holds the loaded collaborators for a run. Construction performs
// every load that can fail ahead of the flow log pass, so a successful New
// means the configuration and rule inputs are usable.
type Analyzer struct {
	cfg       *config.Config
	log       zerolog.Logger
	schema    *schema.Schema
	rules     *rules.Table
	protocols *protocol.Resolver
	engine    *engine.Engine
	writer    *report.Writer
}

// New validates the configuration and loads the rule table, protocol
// registry and schema.
func New(cfg *config.Config, log zerolog.Logger) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	sch, err := buildSchema(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("building schema: %w", err)
	}

	table, err := rules.Load(cfg.Inputs.Rules, log)
	if err != nil {
		return nil, fmt.Errorf("loading rule table: %w", err)
	}

	resolver := protocol.NewResolver()
	if cfg.Inputs.Registry != "" {
		resolver = protocol.LoadRegistry(cfg.Inputs.Registry, log)
	}

	return &Analyzer{
		cfg:       cfg,
		log:       log.With().Str("component", "analyzer").Logger(),
		schema:    sch,
		rules:     table,
		protocols: resolver,
		engine:    engine.New(cfg.Engine, sch, table, resolver, log),
		writer:    report.NewWriter(report.Format(cfg.Report.Format)),
	}, nil
}

func buildSchema(cfg config.EngineConfig) (*schema.Schema, error) {
	if len(cfg.Fields) > 0 {
		return schema.New(cfg.Fields)
	}
	return schema.ByName(cfg.Schema)
}

// Run performs one pass over the flow log and writes the report.
func (a *Analyzer) Run(ctx context.Context) error {
	state, err := a.engine.Process(ctx, a.cfg.Inputs.FlowLog)
	if err != nil {
		return fmt.Errorf("processing flow log: %w", err)
	}

	if err := a.writer.Write(state, a.cfg.Report.Path); err != nil {
		return err
	}

	a.log.Info().
		Str("report", a.cfg.Report.Path).
		Str("format", a.cfg.Report.Format).
		Int64("processed", state.Processed).
		Int64("skipped", state.Skipped).
		Msg("report written")
	return nil
}

// RuleCount returns the number of loaded tagging rules.
func (a *Analyzer) RuleCount() int {
	return a.rules.Len()
}

// ProtocolCount returns the number of known protocol mappings.
func (a *Analyzer) ProtocolCount() int {
	return a.protocols.Size()
}

// Schema returns the layout the engine resolves lines against.
func (a *Analyzer) Schema() *schema.Schema {
	return a.schema
}
