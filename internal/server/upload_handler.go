package server

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/threatlens-io/threatlens/internal/redact"
)

// handleUploadCSV batch-enriches a CSV with a "text" column. One bad row
// never fails the batch: rows with empty or numeric (non-string) text cells
// are silently skipped. The result is served as a downloadable JSON file by
// default, or inline with ?format=json.
func (s *Server) handleUploadCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "multipart 'file' field is required")
		return
	}
	defer file.Close()

	results, err := s.enrichCSV(r, file)
	if err != nil {
		var badCSV *csvFormatError
		if errors.As(err, &badCSV) {
			writeAPIError(w, http.StatusBadRequest, badCSV.Error())
			return
		}
		redact.Logf("server: upload_csv failed: %v", err)
		writeAPIError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if r.URL.Query().Get("format") != "json" {
		w.Header().Set("Content-Disposition", `attachment; filename="cti_batch_results.json"`)
	}
	writeJSON(w, http.StatusOK, results)
}

type csvFormatError struct{ msg string }

func (e *csvFormatError) Error() string { return e.msg }

func (s *Server) enrichCSV(r *http.Request, file io.Reader) ([]analyzeResponse, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, &csvFormatError{"CSV is empty or unreadable"}
	}
	textCol := -1
	for i, name := range header {
		if strings.TrimSpace(name) == "text" {
			textCol = i
			break
		}
	}
	if textCol < 0 {
		return nil, &csvFormatError{"CSV must contain a 'text' column"}
	}

	results := []analyzeResponse{}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row, not a malformed file: skip it.
			redact.Logf("server: skip malformed CSV row: %v", err)
			continue
		}
		if textCol >= len(row) {
			continue
		}
		text := row[textCol]
		if !isStringCell(text) {
			continue
		}

		// Batch semantics: a soft stage error degrades the row in place,
		// it never fails the upload. Only hard failures abort the batch.
		enrichment, err := s.pipeline.EnrichDegraded(r.Context(), text)
		if err != nil {
			return nil, err
		}
		results = append(results, analyzeResponse{
			OriginalText: text,
			Entities:     enrichment.Entities,
			ThreatType:   enrichment.ThreatType,
			Severity:     enrichment.Severity,
		})
	}
	return results, nil
}

// isStringCell reports whether a cell holds analyzable text: empty cells
// and cells that parse cleanly as numbers are skipped.
func isStringCell(cell string) bool {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return false
	}
	if _, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return false
	}
	return true
}
