// Package config provides configuration loading with layered overrides.
// Load order: defaults -> YAML/JSON file -> environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/SaiVenkatM/FlowLog-Analyzer/internal/schema"
)

// envPrefix namespaces the environment overrides, e.g.
// FLOWLOG_ENGINE_WORKERS -> engine.workers.
const envPrefix = "FLOWLOG_"

// Config is the root configuration structure for the analyzer.
type Config struct {
	LogLevel  string       `koanf:"loglevel"`
	LogPretty bool         `koanf:"logpretty"`
	LogFile   string       `koanf:"logfile"`
	Inputs    InputConfig  `koanf:"inputs"`
	Engine    EngineConfig `koanf:"engine"`
	Report    ReportConfig `koanf:"report"`
}

// InputConfig names the files a run reads.
type InputConfig struct {
	// FlowLog is the flow log path. "-" reads from stdin, and files
	// ending in .gz are decompressed transparently.
	FlowLog string `koanf:"flowlog"`

	// Rules is the CSV rule table path.
	Rules string `koanf:"rules"`

	// Registry optionally points at an IANA-style protocol numbers CSV.
	// When empty or unreadable the built-in protocol set applies.
	Registry string `koanf:"registry"`
}

// EngineConfig controls how lines are split and attributed.
type EngineConfig struct {
	// Delimiter separates tokens on each line.
	Delimiter string `koanf:"delimiter"`

	// Schema selects a built-in layout when Fields is empty.
	Schema string `koanf:"schema"`

	// Fields is an explicit ordered field list. Setting it switches the
	// engine to strict token counting and overrides Schema.
	Fields []string `koanf:"fields"`

	// Workers is the number of parallel attribution workers.
	Workers int `koanf:"workers"`
}

// ReportConfig controls the report output.
type ReportConfig struct {
	// Path is the report destination. "-" writes to stdout.
	Path   string `koanf:"path"`
	Format string `koanf:"format"` // "text" or "json"
}

// defaults returns the default configuration values.
func defaults() Config {
	return Config{
		LogLevel:  "info",
		LogPretty: false,
		LogFile:   "",
		Engine: EngineConfig{
			Delimiter: " ",
			Schema:    schema.NameDefault,
			Workers:   1,
		},
		Report: ReportConfig{
			Path:   "report.txt",
			Format: "text",
		},
	}
}

// Load reads configuration from all sources with proper override order.
// Order: defaults -> config file -> environment variables.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	// Use the given file, or fall back to the default locations.
	if configPath == "" {
		for _, path := range []string{"./flowlog.yaml", "/etc/flowlog-analyzer/config.yaml"} {
			if _, err := os.Stat(path); err == nil {
				configPath = path
				break
			}
		}
	}
	if configPath != "" {
		var parser koanf.Parser = yaml.Parser()
		if strings.EqualFold(filepath.Ext(configPath), ".json") {
			parser = json.Parser()
		}
		if err := k.Load(file.Provider(configPath), parser); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// Validate reports the first statically detectable problem with the
// configuration. It does not touch the filesystem; missing input files
// surface when the run opens them.
func (c *Config) Validate() error {
	if c.Inputs.FlowLog == "" {
		return fmt.Errorf("inputs.flowlog is required")
	}
	if c.Inputs.Rules == "" {
		return fmt.Errorf("inputs.rules is required")
	}
	if c.Report.Path == "" {
		return fmt.Errorf("report.path is required")
	}
	if c.Engine.Delimiter == "" {
		return fmt.Errorf("engine.delimiter must not be empty")
	}
	if c.Engine.Workers < 1 {
		return fmt.Errorf("engine.workers must be at least 1, got %d", c.Engine.Workers)
	}
	if c.Report.Format != "text" && c.Report.Format != "json" {
		return fmt.Errorf("report.format must be text or json, got %q", c.Report.Format)
	}
	if len(c.Engine.Fields) == 0 {
		if _, err := schema.ByName(c.Engine.Schema); err != nil {
			return fmt.Errorf("engine.schema: %w", err)
		}
	} else if _, err := schema.New(c.Engine.Fields); err != nil {
		return fmt.Errorf("engine.fields: %w", err)
	}
	return nil
}

// WatchPaths lists the input files a watch-mode run should monitor.
// Stdin is not watchable.
func (c *Config) WatchPaths() []string {
	var paths []string
	if c.Inputs.FlowLog != "" && c.Inputs.FlowLog != "-" {
		paths = append(paths, c.Inputs.FlowLog)
	}
	if c.Inputs.Rules != "" {
		paths = append(paths, c.Inputs.Rules)
	}
	if c.Inputs.Registry != "" {
		paths = append(paths, c.Inputs.Registry)
	}
	return paths
}
