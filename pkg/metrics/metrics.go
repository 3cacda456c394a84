// Package metrics runs the analytical query battery against a graph store and
// records one row per project.
//
// A [Row] always carries a value for every column of [Header]: queries that
// return no rows or a null value contribute 0. Rows are appended to a results
// table through a [Sink]; [CSVSink] writes the append-only CSV file and
// [MongoSink] stores the same rows as documents.
package metrics

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/observability"
)

// ProjectColumn is the first column of every results table.
const ProjectColumn = "Project"

// Header returns the results-table header: Project followed by the battery.
func Header() []string {
	h := make([]string, 0, len(graphstore.Battery)+1)
	h = append(h, ProjectColumn)
	for _, q := range graphstore.Battery {
		h = append(h, string(q))
	}
	return h
}

// Row is one project's metrics.
type Row struct {
	Project string
	Values  map[string]float64
	// RunID links the row to the import that produced the graph. It is not
	// part of the CSV table.
	RunID string
}

// Value returns the metric for q, 0 when absent.
func (r Row) Value(q graphstore.Query) float64 {
	return r.Values[string(q)]
}

// Record renders the row in [Header] order.
func (r Row) Record() []string {
	rec := make([]string, 0, len(graphstore.Battery)+1)
	rec = append(rec, r.Project)
	for _, q := range graphstore.Battery {
		rec = append(rec, strconv.FormatFloat(r.Value(q), 'f', -1, 64))
	}
	return rec
}

// Runner executes the battery against Store.
type Runner struct {
	Store  graphstore.Store
	Logger *log.Logger
}

// Run executes every query for project and returns a complete row.
func (r *Runner) Run(ctx context.Context, project string) (Row, error) {
	logger := r.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	row := Row{Project: project, Values: make(map[string]float64, len(graphstore.Battery))}

	for _, q := range graphstore.Battery {
		if err := ctx.Err(); err != nil {
			return row, err
		}
		observability.Pipeline().OnQueryStart(ctx, project, string(q))
		start := time.Now()
		v, err := r.scalar(ctx, q)
		elapsed := time.Since(start)
		observability.Pipeline().OnQueryComplete(ctx, project, string(q), elapsed, err)
		if err != nil {
			return row, err
		}
		logger.Debug("query", "project", project, "query", q, "value", v, "took", elapsed.Round(time.Millisecond))
		row.Values[string(q)] = v
	}
	return row, nil
}

func (r *Runner) scalar(ctx context.Context, q graphstore.Query) (float64, error) {
	rows, err := r.Store.Query(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", q, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	raw, ok := rows[0][string(q)]
	if !ok {
		// stores that alias differently fall back to the only column
		for _, v := range rows[0] {
			raw = v
			break
		}
	}
	v, err := toFloat(raw)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, err, "%s result", q)
	}
	return v, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	}
	return 0, fmt.Errorf("unexpected value %v (%T)", v, v)
}
