package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lockgraph/lockgraph/pkg/lockfile"
)

// parseCommand creates the parse command with one subcommand per schema.
func (c *CLI) parseCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Normalize package-lock.json files into dependency maps",
		Long: `Normalize every package-lock.json file of a directory into a canonical
dependency map, keyed by name@version.

  v1    lockfileVersion 1 (nested "dependencies"); outputs get a _parsed suffix
  v2    lockfileVersion 2 and 3 (flat "packages"); outputs keep the input name
  auto  detect the schema per file

Files that fail to parse are reported and skipped.`,
	}

	cmd.PersistentFlags().StringVarP(&output, "output", "o", "", "directory for dependency maps (default from config: parsed)")

	for _, schema := range []lockfile.Schema{lockfile.SchemaV1, lockfile.SchemaV2, lockfile.SchemaAuto} {
		cmd.AddCommand(&cobra.Command{
			Use:   schema.String() + " <dir>",
			Short: "Parse " + schema.String() + " lockfiles in a directory",
			Args:  usageArgs(cobra.ExactArgs(1)),
			RunE: func(cmd *cobra.Command, args []string) error {
				out := output
				if out == "" {
					out = c.Config.Paths.Parsed
				}
				return runParse(cmd.Context(), args[0], out, schema)
			},
		})
	}

	return cmd
}

func runParse(ctx context.Context, in, out string, schema lockfile.Schema) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	report, err := lockfile.ProcessDir(ctx, in, out, schema, lockfile.Options{Logger: logger})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Parsed %d of %d lockfiles", len(report.Parsed), len(report.Parsed)+len(report.Skipped)))

	printSuccess("Parsed %d lockfiles", len(report.Parsed))
	for _, f := range report.Skipped {
		printWarning("Skipped %s", f)
	}
	printDetail("Directory: %s", out)
	if len(report.Parsed) > 0 {
		printNextStep("Collect metrics with", "lockgraph run "+out)
	}
	return nil
}
