package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	errs "github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/metrics"
)

// metricsCommand creates the metrics command.
func (c *CLI) metricsCommand() *cobra.Command {
	var results string

	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Inspect a results table",
	}
	cmd.PersistentFlags().StringVarP(&results, "results", "r", "", "results CSV file (default from config: results.csv)")

	path := func() string {
		if results != "" {
			return results
		}
		return c.Config.Paths.Results
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the results table",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMetrics(path())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "browse",
		Short: "Browse the results table interactively",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return browseMetrics(cmd.Context(), path())
		},
	})

	return cmd
}

func readResults(path string) ([]metrics.Row, error) {
	rows, err := metrics.ReadCSV(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errs.New(errs.ErrCodeNoData, "%s has no rows", path)
	}
	return rows, nil
}

func showMetrics(path string) error {
	rows, err := readResults(path)
	if err != nil {
		return err
	}
	fmt.Println(metricsTable(rows))
	printDetail("%d rows from %s", len(rows), path)
	return nil
}

func browseMetrics(ctx context.Context, path string) error {
	rows, err := readResults(path)
	if err != nil {
		return err
	}
	p := tea.NewProgram(NewMetricsBrowser(rows), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
