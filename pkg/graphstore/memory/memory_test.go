package memory

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
)

func pkg(name, version, path string) graphstore.Package {
	return graphstore.Package{Name: name, Version: version, Path: path}
}

type rel struct {
	from, to graphstore.Package
	rt       graphstore.RelType
}

func load(t *testing.T, nodes []graphstore.Package, rels []rel) *Store {
	t.Helper()
	ctx := context.Background()
	s := New()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range nodes {
		if err := tx.MergeNode(ctx, n); err != nil {
			t.Fatal(err)
		}
	}
	for _, r := range rels {
		if err := tx.MergeRelationship(ctx, r.from.Key(), r.to.Key(), r.rt); err != nil {
			t.Fatal(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	return s
}

func query(t *testing.T, s *Store, q graphstore.Query) any {
	t.Helper()
	rows, err := s.Query(context.Background(), q)
	if err != nil {
		t.Fatalf("Query(%s): %v", q, err)
	}
	if len(rows) != 1 {
		t.Fatalf("Query(%s) returned %d rows, want 1", q, len(rows))
	}
	return rows[0][string(q)]
}

// triangle: a->b->c->a plus a shortcut a->c and an isolated d.
func triangle(t *testing.T) *Store {
	a := pkg("a", "1", "node_modules/a")
	b := pkg("b", "1", "node_modules/b")
	c := pkg("c", "1", "node_modules/c")
	d := pkg("d", "1", "node_modules/d")
	return load(t, []graphstore.Package{a, b, c, d}, []rel{
		{a, b, graphstore.RelDependencies},
		{b, c, graphstore.RelDependencies},
		{c, a, graphstore.RelPeerDependencies},
		{a, c, graphstore.RelOptionalDependencies},
	})
}

func TestQuery_Battery(t *testing.T) {
	s := triangle(t)

	tests := []struct {
		q    graphstore.Query
		want any
	}{
		{graphstore.TotalPackages, int64(4)},
		{graphstore.TotalTransitiveDependencies, int64(3)},
		{graphstore.TotalCyclicDependencies, int64(5)},
		{graphstore.TotalOptionalDependencies, int64(1)},
		{graphstore.TotalPeerDependencies, int64(1)},
		{graphstore.UnusedDependencies, int64(1)},
		{graphstore.MostDependedOnPackage, int64(2)},
		{graphstore.VersionMismatch, int64(0)},
	}
	for _, tt := range tests {
		t.Run(string(tt.q), func(t *testing.T) {
			if got := query(t, s, tt.q); got != tt.want {
				t.Errorf("%s = %v (%T), want %v", tt.q, got, got, tt.want)
			}
		})
	}

	t.Run("GraphDensity", func(t *testing.T) {
		got := query(t, s, graphstore.GraphDensity).(float64)
		if math.Abs(got-8.0/12.0) > 1e-9 {
			t.Errorf("GraphDensity = %v, want %v", got, 8.0/12.0)
		}
	})

	t.Run("AveragePathLength", func(t *testing.T) {
		got := query(t, s, graphstore.AveragePathLength).(float64)
		if math.Abs(got-37.0/16.0) > 1e-9 {
			t.Errorf("AveragePathLength = %v, want %v", got, 37.0/16.0)
		}
	})
}

func TestQuery_EmptyGraph(t *testing.T) {
	s := New()
	if got := query(t, s, graphstore.AveragePathLength); got != nil {
		t.Errorf("AveragePathLength = %v, want nil", got)
	}
	if got := query(t, s, graphstore.MostDependedOnPackage); got != int64(0) {
		t.Errorf("MostDependedOnPackage = %v, want 0", got)
	}
}

func TestQuery_DensityGuard(t *testing.T) {
	s := load(t, []graphstore.Package{pkg("solo", "1", "node_modules/solo")}, nil)
	if got := query(t, s, graphstore.GraphDensity); got != 0.0 {
		t.Errorf("GraphDensity = %v, want 0", got)
	}
}

func TestQuery_SelfLoopNotTransitive(t *testing.T) {
	a := pkg("a", "1", "node_modules/a")
	s := load(t, []graphstore.Package{a}, []rel{{a, a, graphstore.RelDependencies}})

	if got := query(t, s, graphstore.TotalTransitiveDependencies); got != int64(0) {
		t.Errorf("TotalTransitiveDependencies = %v, want 0", got)
	}
	if got := query(t, s, graphstore.TotalCyclicDependencies); got != int64(1) {
		t.Errorf("TotalCyclicDependencies = %v, want 1", got)
	}
}

func TestQuery_VersionMismatch(t *testing.T) {
	root := pkg("root", "1", "node_modules/root")
	x1 := pkg("x", "1.0.0", "node_modules/x")
	x2 := pkg("x", "2.0.0", "node_modules/x")
	y := pkg("y", "1.0.0", "node_modules/y")
	s := load(t, []graphstore.Package{root, x1, x2, y}, []rel{
		{root, x1, graphstore.RelDependencies},
		{root, x2, graphstore.RelPeerDependencies},
		{root, y, graphstore.RelDependencies},
	})
	if got := query(t, s, graphstore.VersionMismatch); got != int64(1) {
		t.Errorf("VersionMismatch = %v, want 1", got)
	}
}

func TestQuery_Unknown(t *testing.T) {
	_, err := New().Query(context.Background(), "Nope")
	if !errors.Is(err, graphstore.ErrUnknownQuery) {
		t.Errorf("err = %v, want ErrUnknownQuery", err)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	a := pkg("a", "1", "node_modules/a")
	b := pkg("b", "1", "node_modules/b")
	s := load(t, []graphstore.Package{a, b, a}, []rel{
		{a, b, graphstore.RelDependencies},
		{a, b, graphstore.RelDependencies},
		{a, b, graphstore.RelPeerDependencies},
	})
	if n := len(s.Nodes()); n != 2 {
		t.Errorf("nodes = %d, want 2", n)
	}
	if n := s.RelationshipCount(); n != 2 {
		t.Errorf("relationships = %d, want 2", n)
	}
}

func TestMerge_UpdatesPath(t *testing.T) {
	s := load(t, []graphstore.Package{
		pkg("a", "1", "node_modules/a"),
		pkg("a", "1", "node_modules/b/node_modules/a"),
	}, nil)
	got, ok := s.Node(graphstore.Key{Name: "a", Version: "1"})
	if !ok {
		t.Fatal("node missing")
	}
	if got.Path != "node_modules/b/node_modules/a" {
		t.Errorf("Path = %q, want latest merge", got.Path)
	}
}

func TestTx_Rollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx, _ := s.Begin(ctx)
	_ = tx.MergeNode(ctx, pkg("a", "1", "p"))
	if err := tx.Rollback(ctx); err != nil {
		t.Fatal(err)
	}
	if len(s.Nodes()) != 0 {
		t.Error("rollback should discard buffered writes")
	}
	if err := tx.Commit(ctx); !errors.Is(err, ErrTxDone) {
		t.Errorf("Commit after Rollback = %v, want ErrTxDone", err)
	}
}

func TestTx_CommitAtomic(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx, _ := s.Begin(ctx)
	_ = tx.MergeNode(ctx, pkg("a", "1", "p"))
	_ = tx.MergeRelationship(ctx, graphstore.Key{Name: "a", Version: "1"}, graphstore.Key{Name: "ghost", Version: "1"}, graphstore.RelDependencies)

	if err := tx.Commit(ctx); !errors.Is(err, ErrNodeNotFound) {
		t.Fatalf("Commit = %v, want ErrNodeNotFound", err)
	}
	if len(s.Nodes()) != 0 {
		t.Error("failed commit must not apply any write")
	}
}

func TestClear(t *testing.T) {
	s := triangle(t)
	if err := s.Clear(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := query(t, s, graphstore.TotalPackages); got != int64(0) {
		t.Errorf("TotalPackages after Clear = %v", got)
	}
}
