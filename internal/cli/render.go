package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lockgraph/lockgraph/pkg/lockfile"
	"github.com/lockgraph/lockgraph/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output     string   // output file path (or base path for multiple formats)
	formats    []string // "svg", "png", "dot"
	detailed   bool     // add install paths to node labels
	categories []string // dependency categories to draw
}

// renderCommand creates the render command for drawing a dependency map.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a dependency map as a node-link diagram",
		Long: `Render a canonical dependency map as a Graphviz node-link diagram.

Nodes are name@version. Regular dependencies are solid edges, peer
dependencies dashed and optional dependencies dotted. Packages referenced
without a record of their own are drawn with a dashed outline.`,
		Example: `  lockgraph render parsed/express.json
  lockgraph render parsed/express.json -f svg,png --category dependencies`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			for _, cat := range opts.categories {
				if !slices.Contains(lockfile.Categories, cat) {
					return fmt.Errorf("invalid category: %s (must be one of %s)", cat, strings.Join(lockfile.Categories, ", "))
				}
			}
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input path with the format extension)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output formats: svg, png, dot (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show install paths in node labels")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "only draw these dependency categories")

	return cmd
}

// parseFormats parses the --format flag, defaulting to svg.
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	return strings.Split(s, ",")
}

var validFormats = map[string]bool{"svg": true, "png": true, "dot": true}

func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'png' or 'dot')", f)
		}
	}
	return nil
}

// basePath derives the output path without extension. A known format
// extension on output is stripped.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	m, err := lockfile.ReadFile(input)
	if err != nil {
		return err
	}
	logger.Debug("Loaded dependency map", "file", input, "records", m.Len())

	dot := nodelink.ToDOT(m, nodelink.Options{Detailed: opts.detailed, Categories: opts.categories})
	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		data, err := renderDOT(ctx, dot, format)
		if err != nil {
			return fmt.Errorf("%s: %w", format, err)
		}
		path := base + "." + format
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return err
		}
		logger.Infof("Generated %s", path)
		printFile(path)
	}
	return nil
}

func renderDOT(ctx context.Context, dot, format string) ([]byte, error) {
	switch format {
	case "svg":
		return nodelink.RenderSVG(ctx, dot)
	case "png":
		return nodelink.RenderPNG(ctx, dot)
	case "dot":
		return []byte(dot), nil
	}
	return nil, fmt.Errorf("unknown format: %s", format)
}
