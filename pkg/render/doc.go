// Package render groups the presentation layers of lockgraph.
//
//   - [nodelink]: a normalized dependency map as a Graphviz node-link diagram
//   - [chart]: SVG charts over results tables
//
// [nodelink]: github.com/lockgraph/lockgraph/pkg/render/nodelink
// [chart]: github.com/lockgraph/lockgraph/pkg/render/chart
package render
