package pipeline

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/graphstore/memory"
	"github.com/lockgraph/lockgraph/pkg/metrics"
)

func TestProjectName(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"parsed/express_parsed.json", "express_parsed"},
		{"express.json", "express"},
		{"/abs/path/socket.io.json", "socket.io"},
	}
	for _, tt := range tests {
		if got := ProjectName(tt.file); got != tt.want {
			t.Errorf("ProjectName(%q) = %q, want %q", tt.file, got, tt.want)
		}
	}
}

type memorySink struct{ rows []metrics.Row }

func (s *memorySink) Append(_ context.Context, row metrics.Row) error {
	s.rows = append(s.rows, row)
	return nil
}

func (s *memorySink) Close(context.Context) error { return nil }

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "beta.json", `{"b@1.0.0": {"dependencies": ["c@1.0.0", "d@1.0.0"], "isDevDependency": false}}`)
	writeFile(t, dir, "alpha.json", `{"a@1.0.0": {"dependencies": ["b@2.0.0"], "isDevDependency": false}}`)
	writeFile(t, dir, "broken.json", `{"a@1": `)
	writeFile(t, dir, "README.md", `ignored`)

	sink := &memorySink{}
	csvPath := filepath.Join(t.TempDir(), "results.csv")
	r := NewRunner(memory.New(), []metrics.Sink{sink, metrics.NewCSVSink(csvPath)}, log.New(io.Discard))

	var seen []string
	r.Progress = func(i, total int, file string) {
		seen = append(seen, filepath.Base(file))
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	}

	result, err := r.RunDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("RunDir: %v", err)
	}

	if len(seen) != 3 || seen[0] != "alpha.json" || seen[2] != "broken.json" {
		t.Errorf("processing order = %v", seen)
	}
	if len(result.Rows) != 2 || len(result.Skipped) != 1 {
		t.Fatalf("rows = %d, skipped = %d; want 2 and 1", len(result.Rows), len(result.Skipped))
	}
	if filepath.Base(result.Skipped[0].File) != "broken.json" {
		t.Errorf("skipped = %v", result.Skipped)
	}

	// the store is cleared per file, so counts do not accumulate
	if got := sink.rows[0].Value(graphstore.TotalPackages); got != 2 {
		t.Errorf("alpha TotalPackages = %v, want 2", got)
	}
	if got := sink.rows[1].Value(graphstore.TotalPackages); got != 3 {
		t.Errorf("beta TotalPackages = %v, want 3", got)
	}
	if sink.rows[1].Project != "beta" || sink.rows[1].RunID == "" {
		t.Errorf("row = %+v", sink.rows[1])
	}

	rows, err := metrics.ReadCSV(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Errorf("csv rows = %d, want 2", len(rows))
	}
}

func TestRunDir_MissingDir(t *testing.T) {
	r := NewRunner(memory.New(), nil, log.New(io.Discard))
	_, err := r.RunDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("err = %v, want FILE_NOT_FOUND", err)
	}
}

func TestRunDir_Canceled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(memory.New(), nil, log.New(io.Discard))
	if _, err := r.RunDir(ctx, dir); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
