package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/importer"
	"github.com/lockgraph/lockgraph/pkg/metrics"
	"github.com/lockgraph/lockgraph/pkg/observability"
)

// Runner executes the batch cycle against one store.
//
// The store is cleared before every file, so a Runner must not share its
// store with concurrent users.
type Runner struct {
	Store  graphstore.Store
	Sinks  []metrics.Sink
	Logger *log.Logger

	// Progress, if set, is called before each file with its 1-based index.
	Progress func(i, total int, file string)
}

// NewRunner creates a runner. If logger is nil, log.Default() is used.
func NewRunner(store graphstore.Store, sinks []metrics.Sink, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Store: store, Sinks: sinks, Logger: logger}
}

// Files lists the *.json files of dir in name order.
func Files(dir string) ([]string, error) {
	if err := errors.ValidatePath(dir); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "directory %s", dir)
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// RunDir processes every canonical map in dir.
func (r *Runner) RunDir(ctx context.Context, dir string) (*Result, error) {
	start := time.Now()
	files, err := Files(dir)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if r.Progress != nil {
			r.Progress(i+1, len(files), file)
		}

		row, err := r.RunFile(ctx, file)
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			r.Logger.Warn("skipping file", "file", file, "err", err)
			observability.Pipeline().OnFileSkipped(ctx, file, err)
			result.Skipped = append(result.Skipped, Skip{File: file, Err: err})
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	result.Elapsed = time.Since(start)
	r.Logger.Info("run complete", "projects", len(result.Rows), "skipped", len(result.Skipped),
		"duration", result.Elapsed.Round(time.Millisecond))
	return result, nil
}

// RunFile clears the store, imports file, runs the battery and appends the
// row to every sink.
func (r *Runner) RunFile(ctx context.Context, file string) (metrics.Row, error) {
	project := ProjectName(file)
	logger := r.Logger.With("project", project)

	if err := r.Store.Clear(ctx); err != nil {
		return metrics.Row{}, fmt.Errorf("clear store: %w", err)
	}

	stats, err := importer.New(r.Store, logger).ImportFile(ctx, file)
	if err != nil {
		return metrics.Row{}, err
	}

	row, err := (&metrics.Runner{Store: r.Store, Logger: logger}).Run(ctx, project)
	if err != nil {
		return row, fmt.Errorf("query: %w", err)
	}
	row.RunID = stats.RunID

	for _, sink := range r.Sinks {
		if err := sink.Append(ctx, row); err != nil {
			return row, fmt.Errorf("append results: %w", err)
		}
	}
	logger.Info("metrics recorded", "packages", row.Value(graphstore.TotalPackages))
	return row, nil
}
