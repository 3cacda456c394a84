// Package chart draws SVG charts over results tables.
//
// Three charts compare projects or whole tables:
//
//   - [Density]: graph density per project, one line per table
//   - [Mismatch]: version-mismatch bars against the most-depended-on line
//   - [Radar]: per-table averages of five dependency metrics, relative to
//     the average package count and log-scaled
//
// Tables are passed as [Series], usually read with [metrics.ReadCSV].
//
// [metrics.ReadCSV]: github.com/lockgraph/lockgraph/pkg/metrics.ReadCSV
package chart

import (
	"fmt"
	"math"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/metrics"
)

// Series is a named results table.
type Series struct {
	Name string
	Rows []metrics.Row
}

const (
	colorFirst  = "#2563eb"
	colorSecond = "#dc2626"
	colorBars   = "#6b7280"
)

// Option configures a chart.
type Option func(*config)

type config struct {
	width, height float64
	title         string
}

// WithSize sets the SVG dimensions in pixels.
func WithSize(width, height float64) Option {
	return func(c *config) { c.width, c.height = width, height }
}

// WithTitle replaces the default title.
func WithTitle(title string) Option { return func(c *config) { c.title = title } }

func newConfig(width, height float64, title string, opts []Option) config {
	c := config{width: width, height: height, title: title}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// plot is the rectangular drawing area of a cartesian chart.
type plot struct {
	x0, y0, x1, y1 float64
	n              int
}

func newPlot(cfg config, n int) plot {
	return plot{x0: 70, y0: 50, x1: cfg.width - 70, y1: cfg.height - 120, n: n}
}

// x returns the center of category i.
func (p plot) x(i int) float64 {
	return p.x0 + (float64(i)+0.5)*(p.x1-p.x0)/float64(max(p.n, 1))
}

func (p plot) y(v, top float64) float64 {
	return p.y1 - v/top*(p.y1-p.y0)
}

func (p plot) band() float64 { return (p.x1 - p.x0) / float64(max(p.n, 1)) }

// axes draws the frame, horizontal grid, left ticks and category labels.
func (p plot) axes(c *canvas, top float64, labels []string, yLabel string) {
	const ticks = 5
	for i := 0; i <= ticks; i++ {
		v := top * float64(i) / ticks
		y := p.y(v, top)
		if i > 0 {
			c.line(p.x0, y, p.x1, y, `class="grid"`)
		}
		c.text(p.x0-6, y+3, formatTick(v), "end", `class="tick"`)
	}
	c.line(p.x0, p.y1, p.x1, p.y1, `class="axis"`)
	c.line(p.x0, p.y0, p.x0, p.y1, `class="axis"`)
	for i, l := range labels {
		c.rotatedText(p.x(i), p.y1+12, -45, l, "end", `class="tick"`)
	}
	c.rotatedText(18, (p.y0+p.y1)/2, -90, yLabel, "middle", `class="label"`)
}

// rightAxis draws ticks for a secondary scale on the right edge.
func (p plot) rightAxis(c *canvas, top float64, label, color string) {
	const ticks = 5
	c.line(p.x1, p.y0, p.x1, p.y1, `class="axis"`)
	for i := 0; i <= ticks; i++ {
		v := top * float64(i) / ticks
		c.text(p.x1+6, p.y(v, top)+3, formatTick(v), "start", fmt.Sprintf(`class="tick" style="fill:%s"`, color))
	}
	c.rotatedText(p.x1+55, (p.y0+p.y1)/2, 90, label, "middle", fmt.Sprintf(`class="label" style="fill:%s"`, color))
}

type legendEntry struct {
	label, color string
	bar          bool
}

func legend(c *canvas, x, y float64, entries []legendEntry) {
	for i, e := range entries {
		ly := y + float64(i)*18
		if e.bar {
			c.rect(x, ly-8, 14, 10, fmt.Sprintf(`fill="%s" fill-opacity="0.7"`, e.color))
		} else {
			c.line(x, ly-3, x+14, ly-3, fmt.Sprintf(`stroke="%s" stroke-width="2"`, e.color))
		}
		c.text(x+20, ly, e.label, "start", `class="label"`)
	}
}

// projectOrder lists project names in first-seen order across series.
func projectOrder(series ...Series) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range series {
		for _, r := range s.Rows {
			if !seen[r.Project] {
				seen[r.Project] = true
				out = append(out, r.Project)
			}
		}
	}
	return out
}

// Density draws a line chart of GraphDensity per project for two tables.
func Density(a, b Series, opts ...Option) []byte {
	cfg := newConfig(1000, 520, "Graph Density Comparison Across Projects", opts)
	projects := projectOrder(a, b)
	index := make(map[string]int, len(projects))
	for i, p := range projects {
		index[p] = i
	}

	top := 0.0
	for _, s := range []Series{a, b} {
		for _, r := range s.Rows {
			top = math.Max(top, r.Value(graphstore.GraphDensity))
		}
	}
	top = niceMax(top)

	c := newCanvas(cfg.width, cfg.height, cfg.title)
	p := newPlot(cfg, len(projects))
	p.axes(c, top, projects, "Graph Density")

	for si, s := range []Series{a, b} {
		color := []string{colorFirst, colorSecond}[si]
		pts := make([]point, 0, len(s.Rows))
		for _, r := range s.Rows {
			pts = append(pts, point{p.x(index[r.Project]), p.y(r.Value(graphstore.GraphDensity), top)})
		}
		c.polyline(pts, fmt.Sprintf(`stroke="%s" stroke-width="1"`, color))
		for _, pt := range pts {
			if si == 0 {
				c.circle(pt.x, pt.y, 3.5, fmt.Sprintf(`fill="%s"`, color))
			} else {
				c.rect(pt.x-3.5, pt.y-3.5, 7, 7, fmt.Sprintf(`fill="%s"`, color))
			}
		}
	}
	legend(c, p.x1-200, p.y0+10, []legendEntry{
		{label: "Graph Density - " + a.Name, color: colorFirst},
		{label: "Graph Density - " + b.Name, color: colorSecond},
	})
	return c.bytes()
}

// Mismatch draws VersionMismatch as bars and MostDependedOnPackage as a line
// on a secondary axis, one category per project.
func Mismatch(s Series, opts ...Option) []byte {
	cfg := newConfig(1000, 520, "Version Duplication vs. Most Depended-On Packages", opts)
	projects := projectOrder(s)

	var barTop, lineTop float64
	for _, r := range s.Rows {
		barTop = math.Max(barTop, r.Value(graphstore.VersionMismatch))
		lineTop = math.Max(lineTop, r.Value(graphstore.MostDependedOnPackage))
	}
	barTop, lineTop = niceMax(barTop), niceMax(lineTop)

	c := newCanvas(cfg.width, cfg.height, cfg.title)
	p := newPlot(cfg, len(projects))
	p.axes(c, barTop, projects, "Version Mismatch")
	p.rightAxis(c, lineTop, "Most Depended-On Packages", colorFirst)

	w := p.band() * 0.7
	pts := make([]point, 0, len(s.Rows))
	for i, r := range s.Rows {
		v := r.Value(graphstore.VersionMismatch)
		y := p.y(v, barTop)
		c.rect(p.x(i)-w/2, y, w, p.y1-y, fmt.Sprintf(`fill="%s" fill-opacity="0.7"`, colorBars))
		pts = append(pts, point{p.x(i), p.y(r.Value(graphstore.MostDependedOnPackage), lineTop)})
	}
	c.polyline(pts, fmt.Sprintf(`stroke="%s" stroke-width="1.5" stroke-opacity="0.7"`, colorFirst))
	for _, pt := range pts {
		c.circle(pt.x, pt.y, 3.5, fmt.Sprintf(`fill="%s" fill-opacity="0.7"`, colorFirst))
	}
	legend(c, p.x1-220, p.y0+10, []legendEntry{
		{label: "Version Mismatch", color: colorBars, bar: true},
		{label: "Most Depended-On Packages", color: colorFirst},
	})
	return c.bytes()
}
