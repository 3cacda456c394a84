package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockgraph/lockgraph/pkg/render/chart"
)

// chartOpts holds the flags shared by the chart subcommands.
type chartOpts struct {
	output string
	labels []string
	title  string
	width  float64
	height float64
}

func (o chartOpts) options() []chart.Option {
	var opts []chart.Option
	if o.title != "" {
		opts = append(opts, chart.WithTitle(o.title))
	}
	if o.width > 0 && o.height > 0 {
		opts = append(opts, chart.WithSize(o.width, o.height))
	}
	return opts
}

// chartCommand creates the chart command.
func (c *CLI) chartCommand() *cobra.Command {
	var opts chartOpts

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Draw SVG charts from results tables",
		Long: `Draw SVG charts from results tables.

  density  <a.csv> <b.csv>  graph density per project, one line per table
  mismatch <table.csv>      version mismatches (bars) against the most depended-on package (line)
  radar    <a.csv> <b.csv>  averages of the relationship metrics, normalized by package count

Tables are labeled with their file names unless --label is given.`,
		Example: `  lockgraph chart density results_v1.csv results_v2.csv -o density.svg
  lockgraph chart radar v1.csv v2.csv --label "Version 1" --label "Version 2"`,
	}

	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output file (default: <kind>.svg)")
	cmd.PersistentFlags().StringArrayVar(&opts.labels, "label", nil, "series label, once per table")
	cmd.PersistentFlags().StringVar(&opts.title, "title", "", "chart title")
	cmd.PersistentFlags().Float64Var(&opts.width, "width", 0, "width in pixels")
	cmd.PersistentFlags().Float64Var(&opts.height, "height", 0, "height in pixels")

	cmd.AddCommand(&cobra.Command{
		Use:   "density <a.csv> <b.csv>",
		Short: "Compare graph density of two tables",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return drawChart("density", args, opts, func(s []chart.Series) []byte {
				return chart.Density(s[0], s[1], opts.options()...)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "mismatch <table.csv>",
		Short: "Plot version mismatches of one table",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return drawChart("mismatch", args, opts, func(s []chart.Series) []byte {
				return chart.Mismatch(s[0], opts.options()...)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "radar <a.csv> <b.csv>",
		Short: "Compare relationship profiles of two tables",
		Args:  usageArgs(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return drawChart("radar", args, opts, func(s []chart.Series) []byte {
				return chart.Radar(s[0], s[1], opts.options()...)
			})
		},
	})

	return cmd
}

func drawChart(kind string, paths []string, opts chartOpts, draw func([]chart.Series) []byte) error {
	series := make([]chart.Series, len(paths))
	for i, p := range paths {
		rows, err := readResults(p)
		if err != nil {
			return err
		}
		series[i] = chart.Series{Name: seriesLabel(p, i, opts.labels), Rows: rows}
	}

	out := opts.output
	if out == "" {
		out = kind + ".svg"
	}
	if err := os.WriteFile(out, draw(series), 0o644); err != nil {
		return err
	}
	printSuccess("Drew %s chart", kind)
	printFile(out)
	return nil
}

// seriesLabel is the i-th --label, or the file name without extension.
func seriesLabel(path string, i int, labels []string) string {
	if i < len(labels) {
		return labels[i]
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
