package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/graphstore/memory"
	"github.com/lockgraph/lockgraph/pkg/importer"
	"github.com/lockgraph/lockgraph/pkg/lockfile"
)

func TestHeader(t *testing.T) {
	want := []string{
		"Project", "TotalPackages", "TotalTransitiveDependencies", "TotalCyclicDependencies",
		"TotalOptionalDependencies", "TotalPeerDependencies", "GraphDensity", "AveragePathLength",
		"UnusedDependencies", "MostDependedOnPackage", "VersionMismatch",
	}
	if got := Header(); !slices.Equal(got, want) {
		t.Errorf("Header = %v, want %v", got, want)
	}
}

func TestRunner_EmptyGraphIsComplete(t *testing.T) {
	row, err := (&Runner{Store: memory.New()}).Run(context.Background(), "empty")
	if err != nil {
		t.Fatal(err)
	}
	if len(row.Values) != len(graphstore.Battery) {
		t.Fatalf("row has %d values, want %d", len(row.Values), len(graphstore.Battery))
	}
	for _, q := range graphstore.Battery {
		if v := row.Value(q); v != 0 {
			t.Errorf("%s = %v, want 0", q, v)
		}
	}
}

func TestRunner_AfterImport(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	m, err := lockfile.ParseV1([]byte(`{"dependencies": {"a": {"version": "1.0.0", "requires": {"b": "2.0.0"}}}}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := importer.New(store, nil).Import(ctx, m); err != nil {
		t.Fatal(err)
	}

	row, err := (&Runner{Store: store}).Run(ctx, "demo")
	if err != nil {
		t.Fatal(err)
	}
	checks := map[graphstore.Query]float64{
		graphstore.TotalPackages:         2,
		graphstore.GraphDensity:          1,
		graphstore.AveragePathLength:     1,
		graphstore.MostDependedOnPackage: 1,
		graphstore.UnusedDependencies:    0,
	}
	for q, want := range checks {
		if got := row.Value(q); got != want {
			t.Errorf("%s = %v, want %v", q, got, want)
		}
	}
}

type emptyStore struct{ *memory.Store }

func (emptyStore) Query(context.Context, graphstore.Query) ([]graphstore.Row, error) {
	return nil, nil
}

type badStore struct{ *memory.Store }

func (badStore) Query(context.Context, graphstore.Query) ([]graphstore.Row, error) {
	return nil, errors.New("server gone")
}

func TestRunner_EmptyResultIsZero(t *testing.T) {
	row, err := (&Runner{Store: emptyStore{memory.New()}}).Run(context.Background(), "p")
	if err != nil {
		t.Fatal(err)
	}
	if got := row.Record(); len(got) != len(Header()) {
		t.Errorf("Record has %d fields, want %d", len(got), len(Header()))
	}
}

func TestRunner_QueryError(t *testing.T) {
	_, err := (&Runner{Store: badStore{memory.New()}}).Run(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "TotalPackages") {
		t.Errorf("err = %v, want failure naming the first query", err)
	}
}

func TestToFloat(t *testing.T) {
	tests := []struct {
		in      any
		want    float64
		wantErr bool
	}{
		{nil, 0, false},
		{int64(7), 7, false},
		{3, 3, false},
		{0.25, 0.25, false},
		{"7", 0, true},
	}
	for _, tt := range tests {
		got, err := toFloat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("toFloat(%v) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func sampleRow(project string, packages float64) Row {
	return Row{Project: project, Values: map[string]float64{
		string(graphstore.TotalPackages): packages,
		string(graphstore.GraphDensity):  0.5,
	}}
}

func TestCSVSink_AppendsWithSingleHeader(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "results.csv")
	sink := NewCSVSink(path)

	for _, row := range []Row{sampleRow("a", 3), sampleRow("b", 4)} {
		if err := sink.Append(ctx, row); err != nil {
			t.Fatal(err)
		}
	}
	// a new sink on the same file keeps appending
	if err := NewCSVSink(path).Append(ctx, sampleRow("c", 5)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4:\n%s", len(lines), data)
	}
	if lines[0] != strings.Join(Header(), ",") {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "a,3,0,0,0,0,0.5,0,0,0,0" {
		t.Errorf("row = %q", lines[1])
	}

	rows, err := ReadCSV(path)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if len(rows) != 3 || rows[2].Project != "c" || rows[2].Value(graphstore.TotalPackages) != 5 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestReadCSV_ReorderedColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "r.csv")
	content := "GraphDensity,Project,Extra\n0.25,express,x\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadCSV(path)
	if err == nil {
		t.Fatalf("expected parse error for non-numeric Extra column, got rows %+v", rows)
	}

	content = "GraphDensity,Project\n0.25,express\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	rows, err = ReadCSV(path)
	if err != nil {
		t.Fatal(err)
	}
	if rows[0].Project != "express" || rows[0].Value(graphstore.GraphDensity) != 0.25 {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestReadCSV_Missing(t *testing.T) {
	if _, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestDocument(t *testing.T) {
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	row := sampleRow("express", 12)
	row.RunID = "run-1"

	doc := Document(row, at)
	m := doc.Map()
	if m["project"] != "express" || m["run_id"] != "run-1" || m["recorded_at"] != at {
		t.Errorf("doc = %v", doc)
	}
	metrics, ok := m["metrics"].(bson.D)
	if !ok || len(metrics) != len(graphstore.Battery) {
		t.Fatalf("metrics = %v", m["metrics"])
	}
	if metrics[0].Key != "TotalPackages" || metrics[0].Value != 12.0 {
		t.Errorf("first metric = %v", metrics[0])
	}
}
