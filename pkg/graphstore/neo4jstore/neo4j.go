// Package neo4jstore implements [graphstore.Store] on a Neo4j server.
//
// Every import runs in one explicit write transaction. Nodes are merged on
// (name, version) and the uniqueness constraint created by EnsureSchema keeps
// repeated runs from producing duplicates.
package neo4jstore

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/graphstore"
)

// Config holds connection settings.
type Config struct {
	URI      string `toml:"uri" yaml:"uri"`
	Username string `toml:"username" yaml:"username"`
	Password string `toml:"password" yaml:"password"`
	// Database selects a named database; empty uses the server default.
	Database string `toml:"database" yaml:"database"`
}

// Store is a Neo4j-backed graph store.
type Store struct {
	driver neo4j.DriverWithContext
	db     string
	logger *log.Logger
}

// Open connects to Neo4j and verifies the server is reachable.
func Open(ctx context.Context, cfg Config, logger *log.Logger) (*Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "neo4j driver for %s", cfg.URI)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "connect to %s", cfg.URI)
	}
	if logger != nil {
		logger.Debug("connected to neo4j", "uri", cfg.URI, "database", cfg.Database)
	}
	return &Store{driver: driver, db: cfg.Database, logger: logger}, nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.db})
}

// Begin opens a write session and an explicit transaction on it.
func (s *Store) Begin(ctx context.Context) (graphstore.Tx, error) {
	sess := s.session(ctx, neo4j.AccessModeWrite)
	t, err := sess.BeginTransaction(ctx)
	if err != nil {
		sess.Close(ctx)
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "begin transaction")
	}
	return &tx{sess: sess, tx: t}, nil
}

// Clear deletes every node and relationship.
func (s *Store) Clear(ctx context.Context) error {
	return s.write(ctx, clearCypher)
}

// EnsureSchema creates the (name, version) uniqueness constraint if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.write(ctx, constraintCypher)
}

func (s *Store) write(ctx context.Context, cypher string) error {
	_, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, nil, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.db), neo4j.ExecuteQueryWithWritersRouting())
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "run %q", firstLine(cypher))
	}
	return nil
}

// Query runs one of the battery's Cypher statements.
func (s *Store) Query(ctx context.Context, q graphstore.Query) ([]graphstore.Row, error) {
	cypher, ok := batteryCypher[q]
	if !ok {
		return nil, fmt.Errorf("%w: %q", graphstore.ErrUnknownQuery, q)
	}
	res, err := neo4j.ExecuteQuery(ctx, s.driver, cypher, nil, neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(s.db), neo4j.ExecuteQueryWithReadersRouting())
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, err, "query %s", q)
	}
	rows := make([]graphstore.Row, 0, len(res.Records))
	for _, rec := range res.Records {
		rows = append(rows, graphstore.Row(rec.AsMap()))
	}
	return rows, nil
}

// Close releases the driver.
func (s *Store) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

type tx struct {
	sess neo4j.SessionWithContext
	tx   neo4j.ExplicitTransaction
	done bool
}

func (t *tx) run(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error) {
	res, err := t.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreUnavailable, err, "run %q", firstLine(cypher))
	}
	return res, nil
}

func (t *tx) MergeNode(ctx context.Context, p graphstore.Package) error {
	res, err := t.run(ctx, mergeNodeCypher, map[string]any{
		"name":    p.Name,
		"version": p.Version,
		"path":    p.Path,
	})
	if err != nil {
		return err
	}
	_, err = res.Consume(ctx)
	return err
}

func (t *tx) MergeRelationship(ctx context.Context, from, to graphstore.Key, rt graphstore.RelType) error {
	if !rt.Valid() {
		return fmt.Errorf("%w: %q", graphstore.ErrUnknownRelType, rt)
	}
	res, err := t.run(ctx, mergeRelationshipCypher(rt), map[string]any{
		"fromName":    from.Name,
		"fromVersion": from.Version,
		"toName":      to.Name,
		"toVersion":   to.Version,
	})
	if err != nil {
		return err
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotFound, err, "relationship %s -[%s]-> %s", from, rt, to)
	}
	if n, _ := rec.Get("merged"); n == int64(0) {
		return errors.New(errors.ErrCodeNotFound, "relationship %s -[%s]-> %s: endpoint missing", from, rt, to)
	}
	return nil
}

func (t *tx) Commit(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.sess.Close(ctx)
	if err := t.tx.Commit(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeStoreUnavailable, err, "commit")
	}
	return nil
}

func (t *tx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	defer t.sess.Close(ctx)
	return t.tx.Rollback(ctx)
}
