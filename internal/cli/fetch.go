package cli

import (
	"context"
	"math/rand/v2"

	"github.com/spf13/cobra"

	"github.com/lockgraph/lockgraph/pkg/integrations/github"
	"github.com/lockgraph/lockgraph/pkg/projects"
)

// fetchOpts holds the flags of the fetch command.
type fetchOpts struct {
	output  string
	target  int
	seed    uint64
	noCache bool
	refresh bool
}

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOpts

	cmd := &cobra.Command{
		Use:   "fetch <projects.csv>",
		Short: "Download package-lock.json files for a sample of GitHub projects",
		Long: `Download package-lock.json files for a random sample of the projects listed in a
CSV file with Name and Url columns.

Projects are visited in random order until --target lockfiles are saved or the
list is exhausted. Projects without a lockfile are reported and skipped.
Set GITHUB_TOKEN to raise the API rate limit.`,
		Example: `  lockgraph fetch projects.csv --target 100
  lockgraph fetch projects.csv -o lockfiles --seed 42`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "directory for downloaded lockfiles (default from config: json_files)")
	cmd.Flags().IntVarP(&opts.target, "target", "n", 0, "number of lockfiles to collect (0 for every project)")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "random seed for the project order (0 for a random order)")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the download cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "download again even when cached")

	return cmd
}

func (c *CLI) runFetch(ctx context.Context, listPath string, opts fetchOpts) error {
	logger := loggerFromContext(ctx)

	list, err := projects.ReadList(listPath)
	if err != nil {
		return err
	}

	store, err := c.openCache(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer store.Close()

	out := opts.output
	if out == "" {
		out = c.Config.Paths.Lockfiles
	}

	collector := &projects.Collector{
		Fetcher: github.NewLockfileClient(github.Options{
			Token: c.Config.GitHub.Token,
			Cache: store,
			TTL:   c.Config.Cache.TTL,
		}),
		Dir:     out,
		Target:  opts.target,
		Refresh: opts.refresh,
		Logger:  logger,
	}
	if opts.seed != 0 {
		collector.Rand = rand.New(rand.NewPCG(opts.seed, opts.seed))
	}

	prog := newProgress(logger)
	report, err := collector.Collect(ctx, list)
	if err != nil {
		return err
	}
	prog.done("Fetch complete")

	printSuccess("Saved %d lockfiles", len(report.Saved))
	printCounts("without lockfile", len(report.Missing), "failed", len(report.Failed))
	printDetail("Directory: %s", out)
	if len(report.Saved) > 0 {
		printNextStep("Normalize them with", "lockgraph parse auto "+out)
	}
	return nil
}
