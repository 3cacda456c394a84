// Package graphstore defines the property-graph boundary the importer and the
// metrics runner work against.
//
// A store holds Package nodes, deduplicated by (name, version), connected by
// directed relationships typed with an upper-cased dependency category. It
// supports merge-style upserts inside a transaction and a fixed set of named
// analytical queries. Each implementation evaluates those queries in its own
// dialect:
//
//   - [github.com/lockgraph/lockgraph/pkg/graphstore/neo4jstore] runs Cypher
//     against a Neo4j server.
//   - [github.com/lockgraph/lockgraph/pkg/graphstore/memory] evaluates them
//     natively over an in-process graph.
package graphstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Label is the node label every package carries.
const Label = "Package"

// Key is the merge key of a package node.
type Key struct {
	Name    string
	Version string
}

// String renders "name@version".
func (k Key) String() string { return k.Name + "@" + k.Version }

// Package is a node in the graph.
type Package struct {
	Name    string
	Version string
	Path    string
}

// Key returns the merge key of p.
func (p Package) Key() Key { return Key{Name: p.Name, Version: p.Version} }

// RelType is a relationship type.
type RelType string

const (
	RelDependencies         RelType = "DEPENDENCIES"
	RelPeerDependencies     RelType = "PEERDEPENDENCIES"
	RelOptionalDependencies RelType = "OPTIONALDEPENDENCIES"
)

// RelTypes lists every relationship type in canonical order.
var RelTypes = []RelType{RelDependencies, RelPeerDependencies, RelOptionalDependencies}

// ErrUnknownRelType is returned for a category with no relationship type.
var ErrUnknownRelType = errors.New("unknown relationship type")

// RelTypeFor upper-cases a dependency category name ("peerDependencies")
// into its relationship type. Categories outside the three known ones are
// rejected.
func RelTypeFor(category string) (RelType, error) {
	rt := RelType(strings.ToUpper(category))
	if !rt.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRelType, category)
	}
	return rt, nil
}

// Valid reports whether rt is one of [RelTypes].
func (rt RelType) Valid() bool {
	switch rt {
	case RelDependencies, RelPeerDependencies, RelOptionalDependencies:
		return true
	}
	return false
}

// Row is one result row of a query, keyed by column name.
type Row map[string]any

// Store is a property-graph store.
type Store interface {
	// Begin starts a write transaction.
	Begin(ctx context.Context) (Tx, error)
	// Clear removes every node and relationship.
	Clear(ctx context.Context) error
	// EnsureSchema creates the (name, version) uniqueness constraint the
	// merge semantics depend on across runs.
	EnsureSchema(ctx context.Context) error
	// Query runs a named query. Scalar queries return at most one row with a
	// single column named after the query.
	Query(ctx context.Context, q Query) ([]Row, error)
	Close(ctx context.Context) error
}

// Tx is a write transaction. Writes become visible on Commit; Rollback
// discards them and is a no-op after Commit.
type Tx interface {
	// MergeNode creates the node for p's key if absent and sets its path.
	MergeNode(ctx context.Context, p Package) error
	// MergeRelationship creates a typed edge between two existing nodes if
	// absent.
	MergeRelationship(ctx context.Context, from, to Key, rt RelType) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
