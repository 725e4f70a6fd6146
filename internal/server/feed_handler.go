package server

import (
	"net/http"
	"strconv"

	"github.com/threatlens-io/threatlens/internal/redact"
)

const defaultFeedLimit = 20

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeedLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeAPIError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.feedStore.ReadLatest(limit)
	if err != nil {
		redact.Logf("server: read feed: %v", err)
		writeAPIError(w, http.StatusInternalServerError, "failed to read feed")
		return
	}
	writeJSON(w, http.StatusOK, records)
}
