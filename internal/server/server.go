// Package server exposes on-demand ruleset conversion over HTTP.
package server

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/cache"
	"github.com/ez4y2f/SurgeRulesAutoBuild/internal/converter"
)

// ArchiveProvider supplies the upstream archive the conversions read from.
// *fetcher.Fetcher implements it; tests use an in-memory stub.
type ArchiveProvider interface {
	Archive(ctx context.Context) (*zip.Reader, string, error)
}

// Server converts rule-sets on demand from the upstream archive, caching
// rendered results per archive ETag.
type Server struct {
	archive ArchiveProvider
	results *cache.ResultCache
	opts    converter.Options
	metrics *Metrics
	logger  *slog.Logger
}

func New(archive ArchiveProvider, results *cache.ResultCache, opts converter.Options, metrics *Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		archive: archive,
		results: results,
		opts:    opts,
		metrics: metrics,
		logger:  logger,
	}
}

// Router builds the HTTP routing tree, middleware included.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logging(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/rulesets", s.handleIndex)
	r.Get("/rulesets/{name}", s.handleRuleset)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

// handleIndex returns the JSON list of available rule-set names.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	reader, _, err := s.archive.Archive(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch upstream: %v", err), http.StatusInternalServerError)
		return
	}

	names, err := converter.ZipSource{Reader: reader}.Names()
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to list rule-sets: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=1800")
	_ = json.NewEncoder(w).Encode(map[string]any{"rulesets": names})
}

// handleRuleset serves /rulesets/{name}, where name may carry an attribute
// filter as name@attr.
func (s *Server) handleRuleset(w http.ResponseWriter, r *http.Request) {
	nameWithAttr := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "name")))
	if nameWithAttr == "" {
		http.Error(w, "Invalid name parameter", http.StatusBadRequest)
		return
	}

	name, attr := nameWithAttr, ""
	if i := strings.IndexByte(nameWithAttr, '@'); i >= 0 {
		name, attr = nameWithAttr[:i], nameWithAttr[i+1:]
	}
	if name == "" {
		http.Error(w, "Invalid name parameter", http.StatusBadRequest)
		return
	}

	reader, etag, err := s.archive.Archive(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to fetch upstream: %v", err), http.StatusInternalServerError)
		return
	}

	cacheKey := "surge:" + nameWithAttr
	if result, ok := s.results.Get(cacheKey, etag); ok {
		s.metrics.ResultCacheHits.Inc()
		s.writeRuleset(w, result)
		return
	}

	source := converter.ZipSource{Reader: reader}
	if _, err := source.Read(name); err != nil {
		http.Error(w, fmt.Sprintf("Unknown ruleset: %s", name), http.StatusNotFound)
		return
	}

	rules := converter.NewResolver(source).Resolve(name)
	if attr != "" {
		rules = converter.FilterByAttr(rules, attr)
	}
	lines, dropped := converter.RenderRuleset(rules, s.opts)
	if dropped > 0 {
		s.metrics.InvalidLinesDropped.Add(float64(dropped))
		s.logger.Warn("invalid lines dropped", "ruleset", nameWithAttr, "dropped", dropped)
	}

	result := strings.Join(lines, "\n")
	s.results.Set(cacheKey, result, etag)
	s.metrics.ConversionsServed.Inc()
	s.writeRuleset(w, result)
}

func (s *Server) writeRuleset(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=1800")
	_, _ = w.Write([]byte(body))
}
