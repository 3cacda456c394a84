// Package pipeline drives the batch clear → import → query → append cycle
// over a directory of canonical dependency maps.
//
// # Architecture
//
// For every *.json file, in name order:
//
//  1. Clear: the graph store is emptied
//  2. Import: the file is loaded into the store in one transaction
//  3. Query: the metrics battery runs with the file's base name as project
//  4. Append: the row goes to every configured sink
//
// A file that fails at any stage is logged, reported as skipped and the run
// continues with the next file. Context cancellation stops the run.
//
// # Usage
//
//	runner := pipeline.NewRunner(store, []metrics.Sink{metrics.NewCSVSink("results.csv")}, logger)
//	result, err := runner.RunDir(ctx, "parsed_files")
package pipeline

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/lockgraph/lockgraph/pkg/metrics"
)

// Result summarizes a directory run.
type Result struct {
	Rows    []metrics.Row
	Skipped []Skip
	Elapsed time.Duration
}

// Skip records a file dropped by the run.
type Skip struct {
	File string
	Err  error
}

// ProjectName derives the project name from a canonical map file: the base
// name without extension. A "_parsed" suffix is kept, so v1 and v2 results of
// the same repository stay distinguishable.
func ProjectName(file string) string {
	base := filepath.Base(file)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
