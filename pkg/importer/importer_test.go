package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/graphstore/memory"
	"github.com/lockgraph/lockgraph/pkg/lockfile"
)

func mustParse(t *testing.T, schema lockfile.Schema, doc string) *lockfile.DependencyMap {
	t.Helper()
	m, err := lockfile.Parse([]byte(doc), schema)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return m
}

const v1Doc = `{"dependencies": {
  "a": {"version": "1.0.0", "requires": {"b": "2.0.0", "c": "3.0.0"}},
  "b": {"version": "2.0.0", "dev": true}
}}`

func TestDefaultPathsAreLiteral(t *testing.T) {
	tests := []struct {
		parent, child, want string
	}{
		{"node_modules/a", "b", "node_modules/a/node_modules/b"},
		{"node_modules/a/", "b", "node_modules/a//node_modules/b"},
		{"node_modules/a", "", "node_modules/a/node_modules/"},
		{"node_modules/a", "@babel/core", "node_modules/a/node_modules/@babel/core"},
	}
	for _, tt := range tests {
		if got := DefaultChildPath(tt.parent, tt.child); got != tt.want {
			t.Errorf("DefaultChildPath(%q, %q) = %q, want %q", tt.parent, tt.child, got, tt.want)
		}
	}
	if got := DefaultRootPath("@babel/core"); got != "node_modules/@babel/core" {
		t.Errorf("DefaultRootPath = %q", got)
	}
}

func TestImport_DefaultPaths(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	stats, err := New(store, nil).Import(ctx, mustParse(t, lockfile.SchemaV1, v1Doc))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}

	if stats.Packages != 2 || stats.Nodes != 3 || stats.Relationships != 2 {
		t.Errorf("stats = %+v, want 2 packages, 3 nodes, 2 relationships", stats)
	}
	if stats.RunID == "" {
		t.Error("RunID should be set")
	}

	tests := []struct {
		key  graphstore.Key
		path string
	}{
		{graphstore.Key{Name: "a", Version: "1.0.0"}, "node_modules/a"},
		{graphstore.Key{Name: "b", Version: "2.0.0"}, "node_modules/a/node_modules/b"},
		{graphstore.Key{Name: "c", Version: "3.0.0"}, "node_modules/a/node_modules/c"},
	}
	for _, tt := range tests {
		got, ok := store.Node(tt.key)
		if !ok {
			t.Errorf("node %s missing", tt.key)
			continue
		}
		if got.Path != tt.path {
			t.Errorf("%s path = %q, want %q", tt.key, got.Path, tt.path)
		}
	}
}

func TestImport_Idempotent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	im := New(store, nil)
	m := mustParse(t, lockfile.SchemaV2, `{"packages": {
  "": {"name": "root"},
  "node_modules/a": {"version": "1.0.0", "dependencies": {"b": "^2.0.0"}, "peerDependencies": {"react": ">=16"}},
  "node_modules/b": {"version": "2.1.0", "optionalDependencies": {"fsevents": "~2.3.2"}}
}}`)

	if _, err := im.Import(ctx, m); err != nil {
		t.Fatal(err)
	}
	nodes, rels := len(store.Nodes()), store.RelationshipCount()

	if _, err := im.Import(ctx, m); err != nil {
		t.Fatal(err)
	}
	if got := len(store.Nodes()); got != nodes {
		t.Errorf("nodes after second import = %d, want %d", got, nodes)
	}
	if got := store.RelationshipCount(); got != rels {
		t.Errorf("relationships after second import = %d, want %d", got, rels)
	}

	if got := store.RelationshipCount(graphstore.RelPeerDependencies); got != 1 {
		t.Errorf("peer relationships = %d, want 1", got)
	}
	if got := store.RelationshipCount(graphstore.RelOptionalDependencies); got != 1 {
		t.Errorf("optional relationships = %d, want 1", got)
	}
}

func TestImport_DanglingReferenceBecomesStub(t *testing.T) {
	store := memory.New()
	m := mustParse(t, lockfile.SchemaV2, `{"packages": {"node_modules/a": {"version": "1.0.0", "dependencies": {"ghost": "9.9.9"}}}}`)
	if _, err := New(store, nil).Import(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	stub, ok := store.Node(graphstore.Key{Name: "ghost", Version: "9.9.9"})
	if !ok {
		t.Fatal("dangling reference should be imported as a stub node")
	}
	if stub.Path != "node_modules/a/node_modules/ghost" {
		t.Errorf("stub path = %q", stub.Path)
	}
}

func TestImport_EmbeddedPathWins(t *testing.T) {
	store := memory.New()
	m := mustParse(t, lockfile.SchemaV2, `{"packages": {"node_modules/x/node_modules/a": {"version": "1.0.0"}}}`)
	if _, err := New(store, nil).Import(context.Background(), m); err != nil {
		t.Fatal(err)
	}
	got, _ := store.Node(graphstore.Key{Name: "a", Version: "1.0.0"})
	if got.Path != "node_modules/x/node_modules/a" {
		t.Errorf("path = %q, want embedded path", got.Path)
	}
}

type failingStore struct {
	*memory.Store
	tx *failingTx
}

type failingTx struct {
	graphstore.Tx
	rolledBack bool
}

func (f *failingTx) MergeRelationship(context.Context, graphstore.Key, graphstore.Key, graphstore.RelType) error {
	return errors.New("connection reset")
}

func (f *failingTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return f.Tx.Rollback(ctx)
}

func (s *failingStore) Begin(ctx context.Context) (graphstore.Tx, error) {
	inner, err := s.Store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	s.tx = &failingTx{Tx: inner}
	return s.tx, nil
}

func TestImport_StoreErrorRollsBack(t *testing.T) {
	store := &failingStore{Store: memory.New()}
	_, err := New(store, nil).Import(context.Background(), mustParse(t, lockfile.SchemaV1, v1Doc))
	if err == nil {
		t.Fatal("Import should fail")
	}
	if !store.tx.rolledBack {
		t.Error("transaction should be rolled back")
	}
	if n := len(store.Store.Nodes()); n != 0 {
		t.Errorf("nodes = %d, want 0 after rollback", n)
	}
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proj_parsed.json")
	if err := lockfile.WriteFile(path, mustParse(t, lockfile.SchemaV1, v1Doc)); err != nil {
		t.Fatal(err)
	}
	store := memory.New()
	stats, err := New(store, nil).ImportFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ImportFile: %v", err)
	}
	if stats.Nodes != 3 {
		t.Errorf("Nodes = %d, want 3", stats.Nodes)
	}

	if _, err := New(store, nil).ImportFile(context.Background(), filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file err = %v, want ErrNotExist", err)
	}
}
