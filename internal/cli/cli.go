// Package cli implements the wfdiagram command-line interface.
//
// # Commands
//
//   - layout: position a workflow and write diagram JSON
//   - render: write SVG, PNG, PDF, DOT or JSON from a workflow or diagram
//   - hints: recompute and print the merge hints of a diagram
//   - fetch: read a workflow from the job database (or a workflow directory)
//   - serve: run the HTTP API
//   - inspect: browse merge targets and their incoming edges interactively
//   - cache: manage the local cache
//
// All commands accept --verbose (-v) for debug logging and --config to
// select a TOML config file.
package cli

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wfdiagram/pkg/buildinfo"
	"github.com/matzehuels/wfdiagram/pkg/cache"
	"github.com/matzehuels/wfdiagram/pkg/config"
	"github.com/matzehuels/wfdiagram/pkg/errors"
	"github.com/matzehuels/wfdiagram/pkg/graph"
	"github.com/matzehuels/wfdiagram/pkg/pipeline"
	"github.com/matzehuels/wfdiagram/pkg/source"
	"github.com/matzehuels/wfdiagram/pkg/source/file"
	"github.com/matzehuels/wfdiagram/pkg/source/postgres"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display and completion scripts.
const appName = "wfdiagram"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is set by --config; empty selects the default location.
	ConfigPath string
	// Config is loaded before any subcommand runs.
	Config config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "wfdiagram lays out workflow task graphs as diagrams",
		Long:         `wfdiagram turns workflow task graphs into positioned diagrams with merge-aware edge routing, and renders them to SVG, PNG, PDF or DOT.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/wfdiagram/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.hintsCommand())
	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("loaded config", "path", c.ConfigPath, "cache", cfg.Cache.Backend, "engine", cfg.Layout.Engine)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. An unreachable shared
// cache falls back to no caching rather than failing the command.
func (c *CLI) newRunner(ctx context.Context, noCache bool) *pipeline.Runner {
	return pipeline.NewRunner(c.newCache(ctx, noCache), c.Config.Keyer(), c.Logger)
}

func (c *CLI) newCache(ctx context.Context, noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	ch, err := cache.Open(ctx, c.Config.CacheOptions())
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without cache", "backend", c.Config.Cache.Backend, "error", err)
		return cache.NewNullCache()
	}
	return ch
}

// openSource returns the Postgres source when a database URL is configured
// and dir is empty, otherwise a workflow directory source.
func (c *CLI) openSource(ctx context.Context, dir string) (source.Source, error) {
	if dir == "" {
		dir = c.Config.Server.WorkflowDir
	}
	if dir != "" {
		src, err := file.New(dir)
		if err != nil {
			return nil, err
		}
		return src, nil
	}
	if c.Config.Database.URL == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput,
			"no workflow source: set %s, [database] url or pass --dir", config.EnvDatabaseURL)
	}
	src, err := postgres.Open(ctx, c.Config.PostgresConfig())
	if err != nil {
		return nil, err
	}
	return src, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the file cache directory from config, or the per-user default.
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// pipelineOptions builds pipeline options from the loaded config. Command
// flags are applied on top by the caller.
func (c *CLI) pipelineOptions() pipeline.Options {
	cfg := c.Config
	return pipeline.Options{
		Engine:     cfg.Layout.Engine,
		Direction:  cfg.Layout.Direction,
		NodeWidth:  cfg.Layout.NodeWidth,
		NodeHeight: cfg.Layout.NodeHeight,
		RankSep:    cfg.Layout.RankSep,
		NodeSep:    cfg.Layout.NodeSep,
		NoHints:    cfg.Hints.Disabled,
		Hinter:     cfg.Hints.Hinter(),
		Logger:     c.Logger,
	}
}

// layoutFlags binds the layout flags shared by layout, render and serve.
type layoutFlags struct {
	engine      string
	direction   string
	noHints     bool
	breakCycles bool
	noCache     bool
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.engine, "engine", "e", "", "layout engine: layered, graphviz (default from config)")
	cmd.Flags().StringVarP(&f.direction, "direction", "d", "", "layout direction: LR, TB (default from config)")
	cmd.Flags().BoolVar(&f.noHints, "no-hints", false, "disable merge hints")
	cmd.Flags().BoolVar(&f.breakCycles, "break-cycles", false, "remove dependency cycles instead of failing")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
}

// apply overrides config-derived options with explicitly set flags.
func (f *layoutFlags) apply(opts *pipeline.Options) {
	if f.engine != "" {
		opts.Engine = f.engine
	}
	if f.direction != "" {
		opts.Direction = strings.ToUpper(f.direction)
	}
	if f.noHints {
		opts.NoHints = true
	}
	opts.BreakCycles = f.breakCycles
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{graph.FormatSVG}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(strings.ToLower(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout
