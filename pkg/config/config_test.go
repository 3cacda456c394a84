package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	errs "github.com/lockgraph/lockgraph/pkg/errors"
)

// isolate runs the test in an empty directory with no lockgraph variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{
		"LOCKGRAPH_STORE", "NEO4J_URI", "NEO4J_USERNAME", "NEO4J_PASSWORD", "NEO4J_DATABASE",
		"GITHUB_TOKEN", "LOCKGRAPH_CACHE_DIR", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"MONGO_URI", "MONGO_DATABASE", "LOCKGRAPH_ADDR", "LOCKGRAPH_CACHE_TTL",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Store != StoreNeo4j || cfg.Neo4j.URI != "bolt://localhost:7687" {
		t.Errorf("store = %q, uri = %q", cfg.Store, cfg.Neo4j.URI)
	}
	if cfg.Paths.Results != "results.csv" || cfg.Cache.TTL != 24*time.Hour {
		t.Errorf("paths = %+v, cache = %+v", cfg.Paths, cfg.Cache)
	}
	if cfg.File != "" {
		t.Errorf("File = %q, want none", cfg.File)
	}
}

func TestLoad_TOML(t *testing.T) {
	dir := isolate(t)
	write(t, filepath.Join(dir, "lockgraph.toml"), `
store = "memory"

[neo4j]
uri = "neo4j://db:7687"
username = "admin"

[paths]
results = "out/results.csv"

[cache]
ttl = "2h"
redis_addr = "localhost:6379"
`)
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.File != "lockgraph.toml" {
		t.Errorf("File = %q", cfg.File)
	}
	if cfg.Store != StoreMemory || cfg.Neo4j.Username != "admin" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Paths.Results != "out/results.csv" || cfg.Paths.Parsed != "parsed" {
		t.Errorf("paths = %+v", cfg.Paths)
	}
	if cfg.Cache.TTL != 2*time.Hour || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoad_YAML(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	write(t, path, `
store: neo4j
neo4j:
  uri: bolt://graph:7687
  password: secret
mongo:
  uri: mongodb://localhost:27017
serve:
  addr: ":9090"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Neo4j.URI != "bolt://graph:7687" || cfg.Neo4j.Password != "secret" {
		t.Errorf("neo4j = %+v", cfg.Neo4j)
	}
	if cfg.Mongo.URI != "mongodb://localhost:27017" || cfg.Mongo.Collection != "results" {
		t.Errorf("mongo = %+v", cfg.Mongo)
	}
	if cfg.Serve.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Serve.Addr)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := isolate(t)
	write(t, filepath.Join(dir, "lockgraph.toml"), "[github]\ntoken = \"from-file\"\n")
	t.Setenv("GITHUB_TOKEN", "from-env")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("LOCKGRAPH_CACHE_TTL", "90m")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GitHub.Token != "from-env" {
		t.Errorf("token = %q", cfg.GitHub.Token)
	}
	if cfg.Cache.RedisDB != 3 || cfg.Cache.TTL != 90*time.Minute {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	os.Unsetenv("NEO4J_PASSWORD")
	t.Cleanup(func() { os.Unsetenv("NEO4J_PASSWORD") })
	write(t, filepath.Join(dir, ".env"), "NEO4J_PASSWORD=dotenv-secret\n")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Neo4j.Password != "dotenv-secret" {
		t.Errorf("password = %q", cfg.Neo4j.Password)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		env     map[string]string
		code    errs.Code
	}{
		{"missing explicit file", "nope.toml", "", nil, errs.ErrCodeFileNotFound},
		{"bad toml", "bad.toml", "store = ", nil, errs.ErrCodeInvalidConfig},
		{"unknown toml key", "extra.toml", "colour = \"red\"\n", nil, errs.ErrCodeInvalidConfig},
		{"unknown yaml key", "extra.yaml", "colour: red\n", nil, errs.ErrCodeInvalidConfig},
		{"unknown store", "s.toml", "store = \"sqlite\"\n", nil, errs.ErrCodeInvalidConfig},
		{"bad neo4j scheme", "n.toml", "[neo4j]\nuri = \"http://x\"\n", nil, errs.ErrCodeInvalidConfig},
		{"bad redis db", "", "", map[string]string{"REDIS_DB": "x"}, errs.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = filepath.Join(dir, tt.file)
				if tt.content != "" {
					write(t, path, tt.content)
				}
			}
			_, err := Load(path)
			if !errs.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestValidate_Memory(t *testing.T) {
	cfg := Default()
	cfg.Store = StoreMemory
	cfg.Neo4j.URI = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("memory store should not need neo4j: %v", err)
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	if got := DefaultCacheDir(); got != filepath.Join("/tmp/xdg", "lockgraph") {
		t.Errorf("DefaultCacheDir = %q", got)
	}
}
