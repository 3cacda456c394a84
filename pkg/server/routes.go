package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	errs "github.com/lockgraph/lockgraph/pkg/errors"
	"github.com/lockgraph/lockgraph/pkg/metrics"
	"github.com/lockgraph/lockgraph/pkg/render/chart"
)

// Table is a named results CSV file.
type Table struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type handler struct {
	tables []Table
	logger *log.Logger
}

// NewRouter builds the HTTP routes over tables. The first table is the
// default for every endpoint that takes one.
func NewRouter(tables []Table, logger *log.Logger) http.Handler {
	h := &handler{tables: tables, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Route("/api", func(r chi.Router) {
		r.Get("/tables", h.listTables)
		r.Get("/metrics", h.listMetrics)
		r.Get("/metrics/{project}", h.getMetrics)
	})
	r.Get("/charts/{kind}.svg", h.chart)
	return r
}

// requestLogger logs one line per request at debug level.
func requestLogger(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).Round(time.Microsecond),
				"request_id", middleware.GetReqID(r.Context()))
		})
	}
}

// rowView is the JSON shape of a results row.
type rowView struct {
	Project string             `json:"project"`
	Metrics map[string]float64 `json:"metrics"`
}

func viewOf(row metrics.Row) rowView {
	return rowView{Project: row.Project, Metrics: row.Values}
}

type tableView struct {
	Table
	Rows int `json:"rows"`
}

func (h *handler) listTables(w http.ResponseWriter, r *http.Request) {
	out := make([]tableView, 0, len(h.tables))
	for _, t := range h.tables {
		rows, err := metrics.ReadCSV(t.Path)
		if err != nil && !errs.Is(err, errs.ErrCodeFileNotFound) {
			h.fail(w, r, err)
			return
		}
		out = append(out, tableView{Table: t, Rows: len(rows)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) listMetrics(w http.ResponseWriter, r *http.Request) {
	rows, err := h.rows(r.URL.Query().Get("table"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]rowView, len(rows))
	for i, row := range rows {
		out[i] = viewOf(row)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handler) getMetrics(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	rows, err := h.rows(r.URL.Query().Get("table"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// the latest row wins when a project was run more than once
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Project == project {
			writeJSON(w, http.StatusOK, viewOf(rows[i]))
			return
		}
	}
	h.fail(w, r, errs.New(errs.ErrCodeNotFound, "project %q not found", project))
}

func (h *handler) chart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, err := h.series(q.Get("a"), 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var svg []byte
	switch kind := chi.URLParam(r, "kind"); kind {
	case "mismatch":
		svg = chart.Mismatch(a)
	case "density", "radar":
		b, err := h.series(q.Get("b"), 1)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if kind == "density" {
			svg = chart.Density(a, b)
		} else {
			svg = chart.Radar(a, b)
		}
	default:
		h.fail(w, r, errs.New(errs.ErrCodeNotFound, "unknown chart %q", kind))
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

// table resolves a table by name; empty selects the table at index def, or
// the last table when there are fewer.
func (h *handler) table(name string, def int) (Table, error) {
	if len(h.tables) == 0 {
		return Table{}, errs.New(errs.ErrCodeNoData, "no results tables configured")
	}
	if name == "" {
		return h.tables[min(def, len(h.tables)-1)], nil
	}
	for _, t := range h.tables {
		if t.Name == name {
			return t, nil
		}
	}
	return Table{}, errs.New(errs.ErrCodeNotFound, "unknown table %q", name)
}

func (h *handler) rows(name string) ([]metrics.Row, error) {
	t, err := h.table(name, 0)
	if err != nil {
		return nil, err
	}
	return metrics.ReadCSV(t.Path)
}

func (h *handler) series(name string, def int) (chart.Series, error) {
	t, err := h.table(name, def)
	if err != nil {
		return chart.Series{}, err
	}
	rows, err := metrics.ReadCSV(t.Path)
	if err != nil {
		return chart.Series{}, err
	}
	return chart.Series{Name: t.Name, Rows: rows}, nil
}

func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.HTTPStatus(err)
	if status >= 500 {
		h.logger.Error("request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{
		"error": errs.UserMessage(err),
		"code":  string(errs.GetCode(err)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
