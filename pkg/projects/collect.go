package projects

import (
	"context"
	"errors"
	"io"
	"iter"
	"math/rand/v2"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	errs "github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/integrations/github"
	"github.com/lockgraph/lockgraph/pkg/lockfile"
)

// Fetcher downloads the lockfile of a repository.
type Fetcher interface {
	Fetch(ctx context.Context, repoURL string, refresh bool) ([]byte, error)
}

// Collector samples a project list and saves lockfiles into Dir.
type Collector struct {
	Fetcher Fetcher
	Dir     string
	// Target is the number of lockfiles to collect. Zero means every project.
	Target int
	// Refresh bypasses the fetch cache.
	Refresh bool
	Rand    *rand.Rand
	Logger  *log.Logger
	// Progress, if set, is called after each attempt with the running count
	// of saved files.
	Progress func(saved int, p Project, err error)
}

// Report summarizes a [Collector.Collect] run.
type Report struct {
	Saved   []string // paths written
	Missing []string // projects without a lockfile
	Failed  []string // projects that errored for another reason
}

// Sample yields every project once, in random order. Projects sharing a name
// are visited only the first time the name comes up.
func Sample(list []Project, rng *rand.Rand) iter.Seq[Project] {
	return func(yield func(Project) bool) {
		seen := make(map[string]bool, len(list))
		for _, i := range rng.Perm(len(list)) {
			p := list[i]
			if seen[p.Name] {
				continue
			}
			seen[p.Name] = true
			if !yield(p) {
				return
			}
		}
	}
}

// Collect visits projects in random order until Target lockfiles are saved
// or the list is exhausted. Missing lockfiles and per-project failures are
// logged and counted; only context cancellation stops the run early.
func (c *Collector) Collect(ctx context.Context, list []Project) (*Report, error) {
	logger := c.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	rng := c.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	target := c.Target
	if target <= 0 || target > len(list) {
		target = len(list)
	}

	report := &Report{}
	for p := range Sample(list, rng) {
		if len(report.Saved) >= target {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}

		logger.Info("Processing", "project", p.Name)
		path, err := c.collectOne(ctx, p)
		switch {
		case err == nil:
			logger.Info("Saved", "file", path)
			report.Saved = append(report.Saved, path)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return report, err
		case errors.Is(err, github.ErrNoLockfile):
			logger.Warn("No package-lock.json", "project", p.Name)
			report.Missing = append(report.Missing, p.Name)
		default:
			logger.Warn("Fetch failed", "project", p.Name, "error", err)
			report.Failed = append(report.Failed, p.Name)
		}
		if c.Progress != nil {
			c.Progress(len(report.Saved), p, err)
		}
	}
	logger.Info("Done", "retrieved", len(report.Saved))
	return report, nil
}

func (c *Collector) collectOne(ctx context.Context, p Project) (string, error) {
	name := strings.TrimSuffix(FileName(p.Name), ".json")
	if err := errs.ValidateProjectName(name); err != nil {
		return "", err
	}
	data, err := c.Fetcher.Fetch(ctx, p.URL, c.Refresh)
	if err != nil {
		return "", err
	}
	path := filepath.Join(c.Dir, FileName(p.Name))
	if err := lockfile.WriteRaw(path, data); err != nil {
		return "", err
	}
	return path, nil
}
