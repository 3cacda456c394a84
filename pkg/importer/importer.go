// Package importer loads canonical dependency maps into a graph store.
//
// Each [Importer.Import] call is one store transaction: every package in the
// map is merged as a node, every child reference under dependencies,
// peerDependencies and optionalDependencies becomes a merged child node plus a
// typed relationship. The isDevDependency flag is never treated as a
// category. On any store error the transaction is rolled back and the error
// returned; the caller decides whether to retry the whole file.
//
// Child references that have no record of their own in the map still become
// nodes, so dangling references are preserved as stubs.
package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/lockfile"
	"github.com/lockgraph/lockgraph/pkg/observability"
)

// Stats summarizes one import.
type Stats struct {
	RunID         string
	Packages      int // records in the map
	Nodes         int // distinct (name, version) nodes merged
	Relationships int // relationship merges issued
	Duration      time.Duration
}

// Importer writes dependency maps into Store.
type Importer struct {
	Store  graphstore.Store
	Logger *log.Logger
}

// New returns an importer for store. A nil logger discards output.
func New(store graphstore.Store, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Importer{Store: store, Logger: logger}
}

// DefaultRootPath is the install path assumed for a package whose identifier
// embeds none.
func DefaultRootPath(name string) string {
	return "node_modules/" + name
}

// DefaultChildPath is the install path assumed for a child reference. The
// parts are joined as given, without cleaning.
func DefaultChildPath(parentPath, child string) string {
	return parentPath + "/node_modules/" + child
}

// Import merges m into the store in a single transaction.
func (im *Importer) Import(ctx context.Context, m *lockfile.DependencyMap) (stats Stats, err error) {
	start := time.Now()
	stats = Stats{RunID: uuid.NewString(), Packages: m.Len()}
	logger := im.logger().With("run", stats.RunID)

	observability.Pipeline().OnImportStart(ctx, stats.RunID, m.Len())
	defer func() {
		stats.Duration = time.Since(start)
		observability.Pipeline().OnImportComplete(ctx, stats.RunID, stats.Nodes, stats.Relationships, stats.Duration, err)
	}()

	tx, err := im.Store.Begin(ctx)
	if err != nil {
		return stats, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				logger.Warn("rollback failed", "err", rbErr)
			}
		}
	}()

	merged := make(map[graphstore.Key]bool)
	mergeNode := func(p graphstore.Package) error {
		if merged[p.Key()] {
			return nil
		}
		if err := tx.MergeNode(ctx, p); err != nil {
			return fmt.Errorf("merge %s: %w", p.Key(), err)
		}
		merged[p.Key()] = true
		return nil
	}

	for id, rec := range m.All() {
		parent := packageFor(lockfile.ParseIdentifier(id), "")
		if err := mergeNode(parent); err != nil {
			return stats, err
		}

		for _, category := range lockfile.Categories {
			rt, err := graphstore.RelTypeFor(category)
			if err != nil {
				return stats, err
			}
			for _, ref := range rec.Category(category) {
				child := packageFor(lockfile.ParseIdentifier(ref), parent.Path)
				if err := mergeNode(child); err != nil {
					return stats, err
				}
				if err := tx.MergeRelationship(ctx, parent.Key(), child.Key(), rt); err != nil {
					return stats, fmt.Errorf("relate %s -> %s: %w", parent.Key(), child.Key(), err)
				}
				stats.Relationships++
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return stats, fmt.Errorf("commit import: %w", err)
	}
	stats.Nodes = len(merged)
	logger.Debug("import committed", "packages", stats.Packages, "nodes", stats.Nodes,
		"relationships", stats.Relationships)
	return stats, nil
}

// ImportFile reads a canonical map from path and imports it.
func (im *Importer) ImportFile(ctx context.Context, file string) (Stats, error) {
	m, err := lockfile.ReadFile(file)
	if err != nil {
		return Stats{}, fmt.Errorf("read %s: %w", file, err)
	}
	stats, err := im.Import(ctx, m)
	if err != nil {
		return stats, err
	}
	im.logger().Info("imported", "file", file, "nodes", stats.Nodes, "relationships", stats.Relationships)
	return stats, nil
}

func (im *Importer) logger() *log.Logger {
	if im.Logger == nil {
		im.Logger = log.New(io.Discard)
	}
	return im.Logger
}

// packageFor turns an identifier into a node, filling in the default path.
// Roots (parentPath == "") default to node_modules/<name>; children default
// to <parentPath>/node_modules/<name>.
func packageFor(id lockfile.Identifier, parentPath string) graphstore.Package {
	p := graphstore.Package{Name: id.Name, Version: id.Version, Path: id.Path}
	if p.Path == "" {
		if parentPath == "" {
			p.Path = DefaultRootPath(id.Name)
		} else {
			p.Path = DefaultChildPath(parentPath, id.Name)
		}
	}
	return p
}
