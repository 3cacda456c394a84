// Package config loads lockgraph settings.
//
// Values are layered, later sources overriding earlier ones:
//
//  1. built-in defaults ([Default])
//  2. a config file, lockgraph.toml or lockgraph.yaml
//  3. a .env file in the working directory
//  4. environment variables (NEO4J_URI, GITHUB_TOKEN, REDIS_ADDR, ...)
//
// Command-line flags are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	errs "github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/graphstore/neo4jstore"
	"github.com/lockgraph/lockgraph/pkg/metrics"
)

const appName = "lockgraph"

// Store backends.
const (
	StoreNeo4j  = "neo4j"
	StoreMemory = "memory"
)

// SearchFiles are tried in order when no config path is given.
var SearchFiles = []string{"lockgraph.toml", "lockgraph.yaml", "lockgraph.yml"}

// Config is the full settings tree.
type Config struct {
	// Store selects the graph backend, neo4j or memory.
	Store  string              `toml:"store" yaml:"store"`
	Neo4j  neo4jstore.Config   `toml:"neo4j" yaml:"neo4j"`
	Paths  Paths               `toml:"paths" yaml:"paths"`
	GitHub GitHub              `toml:"github" yaml:"github"`
	Cache  Cache               `toml:"cache" yaml:"cache"`
	Mongo  metrics.MongoConfig `toml:"mongo" yaml:"mongo"`
	Serve  Serve               `toml:"serve" yaml:"serve"`

	// File is the config file that was read, empty if none.
	File string `toml:"-" yaml:"-"`
}

// Paths are the default locations of each pipeline stage's data.
type Paths struct {
	Lockfiles string `toml:"lockfiles" yaml:"lockfiles"`
	Parsed    string `toml:"parsed" yaml:"parsed"`
	Results   string `toml:"results" yaml:"results"`
}

// GitHub holds API credentials.
type GitHub struct {
	Token string `toml:"token" yaml:"token"`
}

// Cache configures the lockfile download cache.
type Cache struct {
	Dir           string        `toml:"dir" yaml:"dir"`
	RedisAddr     string        `toml:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `toml:"redis_password" yaml:"redis_password"`
	RedisDB       int           `toml:"redis_db" yaml:"redis_db"`
	TTL           time.Duration `toml:"ttl" yaml:"ttl"`
}

// Serve configures the results HTTP server.
type Serve struct {
	Addr string `toml:"addr" yaml:"addr"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Store: StoreNeo4j,
		Neo4j: neo4jstore.Config{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
		},
		Paths: Paths{
			Lockfiles: "json_files",
			Parsed:    "parsed",
			Results:   "results.csv",
		},
		Cache: Cache{
			Dir: DefaultCacheDir(),
			TTL: 24 * time.Hour,
		},
		Mongo: metrics.MongoConfig{
			Database:   appName,
			Collection: "results",
		},
		Serve: Serve{Addr: ":8080"},
	}
}

// DefaultCacheDir is $XDG_CACHE_HOME/lockgraph, falling back to
// ~/.cache/lockgraph.
func DefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName)
	}
	return filepath.Join(home, ".cache", appName)
}

// Load builds a Config. If path is empty the working directory is searched
// for one of [SearchFiles]; a missing file is not an error then. An explicit
// path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		for _, name := range SearchFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, errs.Wrap(errs.ErrCodeInvalidConfig, err, "read .env")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return errs.Wrap(errs.ErrCodeFileNotFound, err, "config file %s", path)
	}
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
		}
	default:
		md, err := toml.Decode(string(data), c)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "parse %s", path)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return errs.New(errs.ErrCodeInvalidConfig, "%s: unknown key %s", path, undecoded[0])
		}
	}
	c.File = path
	return nil
}

// envString maps environment variables onto string settings.
func (c *Config) envString() map[string]*string {
	return map[string]*string{
		"LOCKGRAPH_STORE":     &c.Store,
		"NEO4J_URI":           &c.Neo4j.URI,
		"NEO4J_USERNAME":      &c.Neo4j.Username,
		"NEO4J_PASSWORD":      &c.Neo4j.Password,
		"NEO4J_DATABASE":      &c.Neo4j.Database,
		"GITHUB_TOKEN":        &c.GitHub.Token,
		"LOCKGRAPH_CACHE_DIR": &c.Cache.Dir,
		"REDIS_ADDR":          &c.Cache.RedisAddr,
		"REDIS_PASSWORD":      &c.Cache.RedisPassword,
		"MONGO_URI":           &c.Mongo.URI,
		"MONGO_DATABASE":      &c.Mongo.Database,
		"LOCKGRAPH_ADDR":      &c.Serve.Addr,
	}
}

func (c *Config) applyEnv() error {
	for key, dst := range c.envString() {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_DB")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "REDIS_DB")
		}
		c.Cache.RedisDB = n
	}
	if v := strings.TrimSpace(os.Getenv("LOCKGRAPH_CACHE_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errs.Wrap(errs.ErrCodeInvalidConfig, err, "LOCKGRAPH_CACHE_TTL")
		}
		c.Cache.TTL = d
	}
	return nil
}

var neo4jSchemes = []string{"bolt", "bolt+s", "bolt+ssc", "neo4j", "neo4j+s", "neo4j+ssc"}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreNeo4j:
		if c.Neo4j.URI == "" {
			return errs.New(errs.ErrCodeInvalidConfig, "neo4j.uri is required for the neo4j store")
		}
		u, err := url.Parse(c.Neo4j.URI)
		if err != nil || !slices.Contains(neo4jSchemes, u.Scheme) {
			return errs.New(errs.ErrCodeInvalidConfig, "neo4j.uri %q: want one of %v", c.Neo4j.URI, neo4jSchemes)
		}
	case StoreMemory:
	default:
		return errs.New(errs.ErrCodeInvalidConfig, "unknown store %q (want %s or %s)", c.Store, StoreNeo4j, StoreMemory)
	}
	if c.Cache.TTL < 0 {
		return errs.New(errs.ErrCodeInvalidConfig, "cache.ttl must not be negative")
	}
	if c.Mongo.URI != "" && (c.Mongo.Database == "" || c.Mongo.Collection == "") {
		return errs.New(errs.ErrCodeInvalidConfig, "mongo.database and mongo.collection are required with mongo.uri")
	}
	return nil
}
