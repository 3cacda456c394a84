package cli

import (
	"github.com/spf13/cobra"

	"github.com/lockgraph/lockgraph/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The config file and environment are read in PersistentPreRunE, so every
// subcommand sees a validated [CLI.Config].
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Lockgraph analyzes npm dependency graphs from package-lock.json files",
		Long: `Lockgraph collects package-lock.json files from GitHub projects, normalizes them
into dependency maps, loads each map into a graph database and records a fixed
battery of graph metrics per project.

A typical session:
  lockgraph fetch projects.csv       # download lockfiles into json_files/
  lockgraph parse auto json_files    # normalize them into parsed/
  lockgraph run parsed               # import, query and append to results.csv
  lockgraph metrics show             # inspect the results table`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: lockgraph.toml or lockgraph.yaml in the working directory)")
	root.PersistentFlags().StringVar(&c.storeName, "store", "", "graph store backend: neo4j or memory")

	root.AddCommand(c.fetchCommand())
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.queryCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.metricsCommand())
	root.AddCommand(c.chartCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// usageArgs wraps v so that a wrong argument count also prints the command
// usage. Runtime errors stay usage-free through SilenceUsage.
func usageArgs(v cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := v(cmd, args); err != nil {
			cmd.Usage()
			return err
		}
		return nil
	}
}
