// CLAUDE:SUMMARY HTTP API over a Capturer: run captures, browse the catalog, preview sanitized markup, serve capture files.
package capture

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/cors"

	"github.com/hazyhaar/pagesnap/capture/internal/kit"
	"github.com/hazyhaar/pagesnap/capture/internal/layout"
)

// maxRequestBody bounds POST /api/captures bodies.
const maxRequestBody = 1 << 20

type server struct {
	c       *Capturer
	logger  *slog.Logger
	policy  *bluemonday.Policy
	capture kit.Endpoint
}

// NewServer returns the HTTP API of c:
//
//	GET  /health
//	GET  /api/captures?limit=N
//	POST /api/captures                 {"url": "...", "output_dir": "...", "pdf": true}
//	GET  /api/captures/{id}
//	GET  /captures/{id}/preview        sanitized index.html
//	GET  /captures/{id}/files/*        any file under the capture root
func NewServer(c *Capturer, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	policy := bluemonday.UGCPolicy()
	policy.AllowStyling()
	policy.AllowAttrs("style").Globally()
	policy.AllowElements("header", "footer", "nav", "section", "article", "aside", "main", "figure", "figcaption")

	s := &server{c: c, logger: logger, policy: policy}
	s.capture = kit.Logging(logger, "capture")(func(ctx context.Context, req any) (any, error) {
		rep, err := c.Capture(ctx, *req.(*Request))
		if err != nil {
			return nil, err
		}
		return Summarize(rep), nil
	})

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Origin", "Content-Type", "Content-Length"},
	}).Handler)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/captures", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}", s.get)
	})
	r.Get("/captures/{id}/preview", s.preview)
	r.Get("/captures/{id}/files/*", s.file)
	return r
}

func (s *server) list(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}
	entries, err := s.c.List(r.Context(), limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *server) create(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid body: %w", err))
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}
	ctx := kit.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	resp, err := s.capture(ctx, &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	sum := resp.(CaptureSummary)
	code := http.StatusCreated
	if sum.Error != "" {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, sum)
}

func (s *server) get(w http.ResponseWriter, r *http.Request) {
	rep, err := s.c.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *server) preview(w http.ResponseWriter, r *http.Request) {
	l, ok := s.root(w, r)
	if !ok {
		return
	}
	markup, err := l.ReadFile(IndexFile)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("no %s for this capture", IndexFile))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(s.policy.SanitizeBytes(markup))
}

func (s *server) file(w http.ResponseWriter, r *http.Request) {
	l, ok := s.root(w, r)
	if !ok {
		return
	}
	p, err := l.Path(chi.URLParam(r, "*"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	f, err := os.Open(p)
	if err != nil {
		writeError(w, http.StatusNotFound, errors.New("file not found"))
		return
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		writeError(w, http.StatusNotFound, errors.New("file not found"))
		return
	}
	// ServeFile would redirect .../index.html to the directory.
	http.ServeContent(w, r, fi.Name(), fi.ModTime(), f)
}

// root resolves the output directory of the capture named in the path.
func (s *server) root(w http.ResponseWriter, r *http.Request) (*layout.Layout, bool) {
	e, err := s.c.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return &layout.Layout{Root: e.OutputDir}, true
}

func (s *server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, ErrNoCatalog):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		s.logger.Error("capture: api", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
