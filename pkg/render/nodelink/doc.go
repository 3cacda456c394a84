// Package nodelink renders normalized dependency maps as node-link diagrams.
//
// # Usage
//
// Convert a map to DOT format, then render to SVG or PNG:
//
//	dot := nodelink.ToDOT(m, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot)
//
// Edges are styled per category: regular dependencies solid, peer
// dependencies dashed and blue, optional dependencies dotted and purple.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering;
// no Graphviz installation is needed.
package nodelink
