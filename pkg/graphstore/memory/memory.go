// Package memory is an in-process [graphstore.Store].
//
// Nodes and relationships follow the same merge semantics as the Neo4j
// store: one node per (name, version) whose path is overwritten by the latest
// merge, and at most one relationship per (from, to, type). Transactions are
// buffered and applied atomically on commit.
//
// Path queries follow Cypher's variable-length semantics: a path may revisit
// nodes but never reuses a relationship. Path enumeration is exponential in
// the worst case, exactly like the equivalent Cypher, so this store suits
// tests and small lockfiles.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
)

// ErrNodeNotFound is returned when a relationship endpoint has not been
// merged.
var ErrNodeNotFound = errors.New("node not found")

// ErrTxDone is returned when a committed or rolled back transaction is used.
var ErrTxDone = errors.New("transaction already finished")

type edge struct {
	from, to int
	rt       graphstore.RelType
}

type edgeKey struct {
	from, to graphstore.Key
	rt       graphstore.RelType
}

type graph struct {
	nodes []graphstore.Package
	index map[graphstore.Key]int
	edges []edge
	seen  map[edgeKey]struct{}
}

func newGraph() *graph {
	return &graph{
		index: make(map[graphstore.Key]int),
		seen:  make(map[edgeKey]struct{}),
	}
}

func (g *graph) clone() *graph {
	c := &graph{
		nodes: append([]graphstore.Package(nil), g.nodes...),
		index: make(map[graphstore.Key]int, len(g.index)),
		edges: append([]edge(nil), g.edges...),
		seen:  make(map[edgeKey]struct{}, len(g.seen)),
	}
	for k, v := range g.index {
		c.index[k] = v
	}
	for k := range g.seen {
		c.seen[k] = struct{}{}
	}
	return c
}

func (g *graph) mergeNode(p graphstore.Package) {
	if i, ok := g.index[p.Key()]; ok {
		g.nodes[i].Path = p.Path
		return
	}
	g.index[p.Key()] = len(g.nodes)
	g.nodes = append(g.nodes, p)
}

func (g *graph) mergeRelationship(from, to graphstore.Key, rt graphstore.RelType) error {
	fi, ok := g.index[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	ti, ok := g.index[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	k := edgeKey{from: from, to: to, rt: rt}
	if _, dup := g.seen[k]; dup {
		return nil
	}
	g.seen[k] = struct{}{}
	g.edges = append(g.edges, edge{from: fi, to: ti, rt: rt})
	return nil
}

// Store is an in-memory graph store. The zero value is not usable; use [New].
type Store struct {
	mu sync.RWMutex
	g  *graph
}

// New returns an empty store.
func New() *Store {
	return &Store{g: newGraph()}
}

// Begin starts a buffered transaction.
func (s *Store) Begin(ctx context.Context) (graphstore.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &tx{store: s}, nil
}

// Clear removes every node and relationship.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.g = newGraph()
	return nil
}

// EnsureSchema is a no-op; uniqueness is structural here.
func (s *Store) EnsureSchema(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// Nodes returns a copy of all nodes in merge order.
func (s *Store) Nodes() []graphstore.Package {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]graphstore.Package(nil), s.g.nodes...)
}

// Node returns the node for k.
func (s *Store) Node(k graphstore.Key) (graphstore.Package, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.g.index[k]
	if !ok {
		return graphstore.Package{}, false
	}
	return s.g.nodes[i], true
}

// RelationshipCount returns the number of relationships of the given types,
// or of every type when none are given.
func (s *Store) RelationshipCount(types ...graphstore.RelType) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g.countEdges(types...)
}

type op func(*graph) error

type tx struct {
	store *Store
	ops   []op
	done  bool
}

func (t *tx) MergeNode(ctx context.Context, p graphstore.Package) error {
	if t.done {
		return ErrTxDone
	}
	t.ops = append(t.ops, func(g *graph) error {
		g.mergeNode(p)
		return nil
	})
	return nil
}

func (t *tx) MergeRelationship(ctx context.Context, from, to graphstore.Key, rt graphstore.RelType) error {
	if t.done {
		return ErrTxDone
	}
	if !rt.Valid() {
		return fmt.Errorf("%w: %q", graphstore.ErrUnknownRelType, rt)
	}
	t.ops = append(t.ops, func(g *graph) error {
		return g.mergeRelationship(from, to, rt)
	})
	return nil
}

// Commit applies every buffered write to a copy of the graph and swaps it in
// only if all of them succeed.
func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := ctx.Err(); err != nil {
		return err
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	staged := t.store.g.clone()
	for _, apply := range t.ops {
		if err := apply(staged); err != nil {
			return err
		}
	}
	t.store.g = staged
	return nil
}

func (t *tx) Rollback(context.Context) error {
	t.done = true
	t.ops = nil
	return nil
}
