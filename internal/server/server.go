// Package server exposes the HTTP surface: status root, feed reads, manual
// ingestion trigger, single-text analysis, and CSV batch upload. Handlers are
// thin wrappers over the orchestrator and the enrichment pipeline.
package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/threatlens-io/threatlens/internal/config"
	"github.com/threatlens-io/threatlens/internal/enrich"
	"github.com/threatlens-io/threatlens/internal/ingest"
	"github.com/threatlens-io/threatlens/internal/redact"
	"github.com/threatlens-io/threatlens/internal/store"
)

// Server wraps the HTTP components for threatlens.
type Server struct {
	cfg          *config.Config
	router       *mux.Router
	orchestrator *ingest.Orchestrator
	pipeline     *enrich.Pipeline
	feedStore    *store.FeedStore
	statusStore  *store.StatusStore
}

func New(cfg *config.Config, orchestrator *ingest.Orchestrator, pipeline *enrich.Pipeline,
	feedStore *store.FeedStore, statusStore *store.StatusStore) *Server {
	s := &Server{
		cfg:          cfg,
		router:       mux.NewRouter(),
		orchestrator: orchestrator,
		pipeline:     pipeline,
		feedStore:    feedStore,
		statusStore:  statusStore,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/feed", s.handleFeed).Methods(http.MethodGet)
	s.router.HandleFunc("/ingest_now", s.handleIngestNow).Methods(http.MethodPost)
	s.router.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	s.router.HandleFunc("/upload_csv", s.handleUploadCSV).Methods(http.MethodPost)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
}

// Router exposes the handler tree for tests and embedding.
func (s *Server) Router() http.Handler { return s.router }

// Start blocks serving HTTP until the listener fails.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
	}
	redact.Logf("threatlens API listening on %s", s.cfg.Server.Addr)
	return srv.ListenAndServe()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok\n"))
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "threatlens backend running with real-time ingestion",
		"ingestion_status": s.statusStore.Read(),
	})
}

func (s *Server) handleIngestNow(w http.ResponseWriter, r *http.Request) {
	status, err := s.orchestrator.RunOnce(r.Context())
	if err != nil {
		redact.Logf("server: manual ingestion failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":  "error",
			"message": err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"message":           "ingestion cycle completed",
		"ingestion_summary": status,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		redact.Logf("server: write response: %v", err)
	}
}

func writeAPIError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
