package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockgraph/lockgraph/pkg/server"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr   string
		tables []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve results tables and charts over HTTP",
		Long: `Serve results tables as JSON and charts as SVG until interrupted.

Tables are given as name=path pairs; a bare path is named after its file. The
first table is the default for every endpoint. Without --table the configured
results file is served as "results".

  GET /healthz
  GET /api/tables
  GET /api/metrics?table=NAME
  GET /api/metrics/{project}
  GET /charts/{density,mismatch,radar}.svg?a=NAME&b=NAME`,
		Example: `  lockgraph serve --table v1=results_v1.csv --table v2=results_v2.csv`,
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.Config.Serve.Addr
			}
			specs := tables
			if len(specs) == 0 {
				specs = []string{"results=" + c.Config.Paths.Results}
			}
			parsed, err := parseTables(specs)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), addr, parsed)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config: :8080)")
	cmd.Flags().StringArrayVarP(&tables, "table", "t", nil, "results table as name=path, repeatable")
	return cmd
}

// parseTables converts name=path flags into tables. Names must be unique.
func parseTables(specs []string) ([]server.Table, error) {
	seen := make(map[string]bool, len(specs))
	out := make([]server.Table, 0, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok {
			path = spec
			name = strings.TrimSuffix(filepath.Base(spec), filepath.Ext(spec))
		}
		if name == "" || path == "" {
			return nil, fmt.Errorf("invalid table %q (want name=path)", spec)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate table name %q", name)
		}
		seen[name] = true
		out = append(out, server.Table{Name: name, Path: path})
	}
	return out, nil
}

func (c *CLI) runServe(ctx context.Context, addr string, tables []server.Table) error {
	logger := loggerFromContext(ctx)
	srv := server.New(addr, server.NewRouter(tables, logger), logger)

	printInfo("Serving %d tables on %s", len(tables), addr)
	for _, t := range tables {
		printDetail("%s: %s", t.Name, t.Path)
	}
	if err := srv.Run(ctx); err != nil {
		return err
	}
	// Run returns nil after a graceful shutdown; report the interrupt to main.
	return ctx.Err()
}
