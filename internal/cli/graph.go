package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lockgraph/lockgraph/pkg/config"
	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/importer"
	"github.com/lockgraph/lockgraph/pkg/metrics"
	"github.com/lockgraph/lockgraph/pkg/pipeline"
)

// importCommand creates the import command.
func (c *CLI) importCommand() *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a dependency map into the graph store",
		Long: `Load a canonical dependency map into the graph store, one node per
name@version and one typed relationship per declared dependency.

The store is cleared first unless --keep is set. With the memory store the
graph only lives for the duration of the command.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], keep)
		},
	}

	cmd.Flags().BoolVar(&keep, "keep", false, "merge into the existing graph instead of clearing it")
	return cmd
}

func (c *CLI) runImport(ctx context.Context, file string, keep bool) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	if !keep {
		if err := store.Clear(ctx); err != nil {
			return fmt.Errorf("clear store: %w", err)
		}
	}

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	stats, err := importer.New(store, logger).ImportFile(ctx, file)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Imported %d packages", stats.Packages))

	printSuccess("Imported %s", file)
	printCounts("records", stats.Packages, "nodes", stats.Nodes, "relationships", stats.Relationships)
	printDetail("Run %s", stats.RunID)
	if c.Config.Store != config.StoreMemory {
		printNextStep("Query it with", "lockgraph query "+pipeline.ProjectName(file))
	}
	return nil
}

// queryCommand creates the query command.
func (c *CLI) queryCommand() *cobra.Command {
	var (
		results  string
		noAppend bool
	)

	cmd := &cobra.Command{
		Use:   "query <project>",
		Short: "Run the metrics battery against the current graph",
		Long: `Run the fixed battery of graph queries against the graph currently in the
store and append one row, labeled with the project name, to the results table.
With the memory store the graph is always empty here, so the row is only printed.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if results == "" {
				results = c.Config.Paths.Results
			}
			return c.runQuery(cmd.Context(), args[0], results, noAppend)
		},
	}

	cmd.Flags().StringVarP(&results, "results", "r", "", "results CSV file (default from config: results.csv)")
	cmd.Flags().BoolVar(&noAppend, "no-append", false, "print the row without recording it")
	return cmd
}

func (c *CLI) runQuery(ctx context.Context, project, results string, noAppend bool) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	runner := &metrics.Runner{Store: store, Logger: logger}
	row, err := runner.Run(ctx, project)
	if err != nil {
		return err
	}
	prog.done("Queries complete")

	fmt.Println(StyleTitle.Render(project))
	for _, q := range graphstore.Battery {
		printKeyValue(string(q), formatValue(row.Value(q)))
	}
	if noAppend {
		return nil
	}
	if c.Config.Store == config.StoreMemory {
		printNewline()
		printWarning("Not appended: the memory store starts empty in every command")
		printDetail("Use 'lockgraph run <dir>' to import and query in one process")
		return nil
	}

	sinks, err := c.openSinks(ctx, results)
	if err != nil {
		return err
	}
	defer closeSinks(ctx, sinks)
	for _, s := range sinks {
		if err := s.Append(ctx, row); err != nil {
			return err
		}
	}
	printNewline()
	printSuccess("Appended to %s", results)
	return nil
}

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var results string

	cmd := &cobra.Command{
		Use:   "run <dir>",
		Short: "Import and query every dependency map in a directory",
		Long: `Process every *.json dependency map of a directory in name order: clear the
store, import the map, run the metrics battery and append the row to the
results table (and to MongoDB when mongo.uri is configured).

A file that fails is reported and skipped.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if results == "" {
				results = c.Config.Paths.Results
			}
			return c.runDir(cmd.Context(), args[0], results)
		},
	}

	cmd.Flags().StringVarP(&results, "results", "r", "", "results CSV file (default from config: results.csv)")
	return cmd
}

func (c *CLI) runDir(ctx context.Context, dir, results string) error {
	store, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close(ctx)

	sinks, err := c.openSinks(ctx, results)
	if err != nil {
		return err
	}
	defer closeSinks(ctx, sinks)

	spinner := newSpinnerWithContext(ctx, "Starting...")
	runner := pipeline.NewRunner(store, sinks, loggerFromContext(ctx))
	runner.Progress = func(i, total int, file string) {
		spinner.Update("[%d/%d] %s", i, total, pipeline.ProjectName(file))
	}

	spinner.Start()
	res, err := runner.RunDir(ctx, dir)
	spinner.Stop()
	if err != nil {
		return err
	}

	printSuccess("Recorded %d projects in %s", len(res.Rows), res.Elapsed.Round(time.Millisecond))
	for _, s := range res.Skipped {
		printWarning("Skipped %s: %v", s.File, s.Err)
	}
	printFile(results)
	if len(res.Rows) > 0 {
		printNextStep("Inspect them with", "lockgraph metrics show -r "+results)
	}
	return nil
}
