package chart

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
)

const chartCSS = `
    text { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; fill: #1e293b; }
    .title { font-size: 18px; font-weight: 600; }
    .axis { stroke: #475569; stroke-width: 1; }
    .grid { stroke: #cbd5e1; stroke-width: 0.5; stroke-dasharray: 4 3; }
    .tick { font-size: 10px; }
    .label { font-size: 12px; }`

// canvas accumulates SVG elements.
type canvas struct {
	buf    bytes.Buffer
	width  float64
	height float64
}

func newCanvas(width, height float64, title string) *canvas {
	c := &canvas{width: width, height: height}
	fmt.Fprintf(&c.buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		width, height, width, height)
	fmt.Fprintf(&c.buf, "  <style>%s\n  </style>\n", chartCSS)
	fmt.Fprintf(&c.buf, `  <rect width="100%%" height="100%%" fill="white"/>`+"\n")
	if title != "" {
		c.text(width/2, 28, title, "middle", `class="title"`)
	}
	return c
}

func (c *canvas) line(x1, y1, x2, y2 float64, attrs string) {
	fmt.Fprintf(&c.buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" %s/>`+"\n", x1, y1, x2, y2, attrs)
}

func (c *canvas) rect(x, y, w, h float64, attrs string) {
	fmt.Fprintf(&c.buf, `  <rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" %s/>`+"\n", x, y, w, h, attrs)
}

func (c *canvas) circle(x, y, r float64, attrs string) {
	fmt.Fprintf(&c.buf, `  <circle cx="%.2f" cy="%.2f" r="%.2f" %s/>`+"\n", x, y, r, attrs)
}

func (c *canvas) polyline(pts []point, attrs string) {
	fmt.Fprintf(&c.buf, `  <polyline points="%s" fill="none" %s/>`+"\n", formatPoints(pts), attrs)
}

func (c *canvas) polygon(pts []point, attrs string) {
	fmt.Fprintf(&c.buf, `  <polygon points="%s" %s/>`+"\n", formatPoints(pts), attrs)
}

func (c *canvas) text(x, y float64, s, anchor, attrs string) {
	fmt.Fprintf(&c.buf, `  <text x="%.2f" y="%.2f" text-anchor="%s" %s>%s</text>`+"\n", x, y, anchor, attrs, escape(s))
}

// rotatedText draws s rotated by deg degrees around its anchor point.
func (c *canvas) rotatedText(x, y, deg float64, s, anchor, attrs string) {
	fmt.Fprintf(&c.buf, `  <text x="%.2f" y="%.2f" text-anchor="%s" transform="rotate(%.0f %.2f %.2f)" %s>%s</text>`+"\n",
		x, y, anchor, deg, x, y, attrs, escape(s))
}

func (c *canvas) bytes() []byte {
	c.buf.WriteString("</svg>\n")
	return c.buf.Bytes()
}

type point struct{ x, y float64 }

func formatPoints(pts []point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = fmt.Sprintf("%.2f,%.2f", p.x, p.y)
	}
	return strings.Join(parts, " ")
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// niceMax rounds v up to 1, 2, 2.5 or 5 times a power of ten.
func niceMax(v float64) float64 {
	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if v <= m*exp {
			return m * exp
		}
	}
	return 10 * exp
}

// formatTick prints a tick value with at most three significant decimals.
func formatTick(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
