package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug lines to a
// charmbracelet logger.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks that log through l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l}
}

// Register installs h for pipeline, cache and HTTP events.
func (h *LogHooks) Register() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) OnImportStart(_ context.Context, runID string, packages int) {
	h.logger.Debug("import start", "run", runID, "packages", packages)
}

func (h *LogHooks) OnImportComplete(_ context.Context, runID string, nodes, rels int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("import failed", "run", runID, "duration", d.Round(time.Millisecond), "err", err)
		return
	}
	h.logger.Debug("import done", "run", runID, "nodes", nodes, "relationships", rels, "duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnQueryStart(_ context.Context, project, query string) {
	h.logger.Debug("query start", "project", project, "query", query)
}

func (h *LogHooks) OnQueryComplete(_ context.Context, project, query string, d time.Duration, err error) {
	h.logger.Debug("query done", "project", project, "query", query, "duration", d.Round(time.Millisecond), "err", err)
}

func (h *LogHooks) OnFileSkipped(_ context.Context, file string, err error) {
	h.logger.Warn("skipped", "file", file, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status,
		"duration", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}
