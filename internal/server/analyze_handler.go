package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/threatlens-io/threatlens/internal/feed"
	"github.com/threatlens-io/threatlens/internal/metrics"
	"github.com/threatlens-io/threatlens/internal/redact"
)

type analyzeRequest struct {
	Text string `json:"text"`
}

type analyzeResponse struct {
	OriginalText string        `json:"original_text"`
	Entities     []feed.Entity `json:"entities"`
	ThreatType   string        `json:"threat_type"`
	Severity     string        `json:"severity"`
}

// handleAnalyze enriches one text interactively. Unlike the batch path, any
// stage failure here surfaces as a request-level error.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.AnalyzeRequests.WithLabelValues("bad_request").Inc()
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		metrics.AnalyzeRequests.WithLabelValues("bad_request").Inc()
		writeAPIError(w, http.StatusBadRequest, "No input text provided.")
		return
	}

	result, err := s.pipeline.Enrich(r.Context(), req.Text)
	if err != nil {
		metrics.AnalyzeRequests.WithLabelValues("error").Inc()
		redact.Logf("server: analyze failed: %v", err)
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.AnalyzeRequests.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, analyzeResponse{
		OriginalText: req.Text,
		Entities:     result.Entities,
		ThreatType:   result.ThreatType,
		Severity:     result.Severity,
	})
}
