package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/lockgraph/lockgraph/pkg/lockfile"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the install path to node labels.
	Detailed bool
	// Categories limits the drawn edges. Empty draws every category.
	Categories []string
}

// edgeStyles distinguishes the dependency categories.
var edgeStyles = map[string]string{
	lockfile.CategoryDependencies:         `color="#334155"`,
	lockfile.CategoryPeerDependencies:     `style=dashed, color="#2563eb"`,
	lockfile.CategoryOptionalDependencies: `style=dotted, color="#9333ea"`,
}

type node struct {
	id    string
	label string
	dev   bool
	stub  bool
}

// ToDOT converts a dependency map to Graphviz DOT format.
//
// Nodes are keyed by name@version, the same identity the graph store uses,
// so records that differ only in install path share a node. References to
// packages without a record of their own are drawn dashed. Development
// dependencies are filled grey.
func ToDOT(m *lockfile.DependencyMap, opts Options) string {
	nodes, order := collectNodes(m, opts.Detailed)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.15,0.05\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.2;\n")
	buf.WriteString("\n")

	for _, id := range order {
		n := nodes[id]
		fmt.Fprintf(&buf, "  %q [%s];\n", n.id, strings.Join(fmtAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for key, rec := range m.All() {
		from := nodeID(lockfile.ParseIdentifier(key))
		for _, cat := range categories(opts) {
			for _, ref := range rec.Category(cat) {
				to := nodeID(lockfile.ParseIdentifier(ref))
				fmt.Fprintf(&buf, "  %q -> %q [%s];\n", from, to, edgeStyles[cat])
			}
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func categories(opts Options) []string {
	if len(opts.Categories) == 0 {
		return lockfile.Categories
	}
	return opts.Categories
}

func nodeID(id lockfile.Identifier) string {
	return id.Name + "@" + id.Version
}

// collectNodes returns every record and referenced package, in first-seen order.
func collectNodes(m *lockfile.DependencyMap, detailed bool) (map[string]*node, []string) {
	nodes := make(map[string]*node)
	var order []string
	add := func(id lockfile.Identifier, stub bool) *node {
		key := nodeID(id)
		n, ok := nodes[key]
		if !ok {
			n = &node{id: key, label: key, stub: stub}
			nodes[key] = n
			order = append(order, key)
		}
		if !stub {
			n.stub = false
			if detailed && id.Path != "" && n.label == key {
				n.label = key + "\n" + id.Path
			}
		}
		return n
	}

	for key, rec := range m.All() {
		n := add(lockfile.ParseIdentifier(key), false)
		n.dev = n.dev || rec.IsDevDependency
	}
	for _, rec := range m.All() {
		for _, cat := range lockfile.Categories {
			for _, ref := range rec.Category(cat) {
				add(lockfile.ParseIdentifier(ref), true)
			}
		}
	}
	return nodes, order
}

func fmtAttrs(n *node) []string {
	attrs := []string{fmt.Sprintf("label=%q", n.label)}
	switch {
	case n.stub:
		attrs = append(attrs, "style=\"rounded,dashed\"", "fontcolor=\"#64748b\"")
	case n.dev:
		attrs = append(attrs, "fillcolor=lightgrey")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	out, err := render(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(ctx context.Context, dot string) ([]byte, error) {
	return render(ctx, dot, graphviz.PNG)
}

func render(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
