package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"

	"github.com/lockgraph/lockgraph/pkg/cache"
	"github.com/lockgraph/lockgraph/pkg/config"
	errs "github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/graphstore"
	"github.com/lockgraph/lockgraph/pkg/graphstore/memory"
	"github.com/lockgraph/lockgraph/pkg/graphstore/neo4jstore"
	"github.com/lockgraph/lockgraph/pkg/metrics"
	"github.com/lockgraph/lockgraph/pkg/observability"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "lockgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Config is loaded before any command runs.
	Config *config.Config

	configPath string
	storeName  string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadConfig reads the config file and environment, then applies flags.
func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.storeName != "" {
		cfg.Store = c.storeName
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.Config = cfg
	if cfg.File != "" {
		c.Logger.Debug("Loaded config", "file", cfg.File)
	}
	observability.NewLogHooks(c.Logger).Register()
	return nil
}

// =============================================================================
// Factories
// =============================================================================

// openStore connects to the configured graph backend and ensures its schema.
func (c *CLI) openStore(ctx context.Context) (graphstore.Store, error) {
	var store graphstore.Store
	switch c.Config.Store {
	case config.StoreMemory:
		store = memory.New()
	default:
		s, err := neo4jstore.Open(ctx, c.Config.Neo4j, c.Logger)
		if err != nil {
			return nil, err
		}
		store = s
	}
	if err := store.EnsureSchema(ctx); err != nil {
		store.Close(ctx)
		return nil, err
	}
	c.Logger.Debug("Opened graph store", "backend", c.Config.Store)
	return store, nil
}

// openCache returns the null cache with noCache, Redis when an address is
// configured and the file cache otherwise.
func (c *CLI) openCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	switch {
	case noCache:
		return cache.NewNullCache(), nil
	case cfg.RedisAddr != "":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}
	return cache.NewFileCache(cfg.Dir)
}

// openSinks returns the CSV sink for path, plus the Mongo sink when a URI is
// configured.
func (c *CLI) openSinks(ctx context.Context, path string) ([]metrics.Sink, error) {
	sinks := []metrics.Sink{metrics.NewCSVSink(path)}
	if c.Config.Mongo.URI == "" {
		return sinks, nil
	}
	mongo, err := metrics.OpenMongoSink(ctx, c.Config.Mongo)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeStoreUnavailable, err, "open mongo sink")
	}
	c.Logger.Debug("Writing rows to MongoDB", "database", c.Config.Mongo.Database, "collection", c.Config.Mongo.Collection)
	return append(sinks, mongo), nil
}

func closeSinks(ctx context.Context, sinks []metrics.Sink) {
	for _, s := range sinks {
		_ = s.Close(ctx)
	}
}
