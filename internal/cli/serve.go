package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/wfdiagram/internal/server"
	"github.com/matzehuels/wfdiagram/pkg/source"
)

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		dir       string
		stateless bool
		flags     layoutFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the diagram HTTP API",
		Long: `Run the diagram HTTP API.

Workflows are read from --dir, the configured workflow_dir, or the job database.
With --stateless only the POST routes (/api/v1/diagrams, /api/v1/hints) are
served and no workflow source is opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), addr, dir, stateless, flags)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config or :8080)")
	cmd.Flags().StringVar(&dir, "dir", "", "directory of <id>.json workflow files")
	cmd.Flags().BoolVar(&stateless, "stateless", false, "serve only the POST routes")
	flags.register(cmd)

	return cmd
}

func (c *CLI) runServe(ctx context.Context, addr, dir string, stateless bool, flags layoutFlags) error {
	defaults := c.pipelineOptions()
	flags.apply(&defaults)
	defaults = defaults.WithDefaults()
	if err := defaults.Validate(); err != nil {
		return err
	}

	var src source.Source
	if !stateless {
		s, err := c.openSource(ctx, dir)
		if err != nil {
			return err
		}
		defer s.Close()
		src = s
		c.Logger.Info("workflow source ready", "source", src.Name())
	}

	runner := c.newRunner(ctx, flags.noCache)
	defer runner.Close()

	cfg := c.Config.Server
	if addr == "" {
		addr = cfg.Addr
	}
	srv := server.New(runner, src, c.Logger, server.Options{
		Addr:         addr,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		CORSOrigins:  cfg.CORSOrigins,
		Defaults:     defaults,
	})

	printInfo("Listening on %s", styleValue.Render(addr))
	return srv.ListenAndServe(ctx)
}
