// Package feed defines the record shapes that flow through the ingestion
// pipeline: raw source output, normalized text, enriched records, and the
// per-cycle run status.
package feed

import "time"

// RawRecord is one unprocessed item as returned by a source adapter.
type RawRecord struct {
	Source   string         `json:"source"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// NormalizedRecord is a RawRecord after cleaning, language detection, and
// (when needed) translation to English. Text is never empty: the normalizer
// drops records that clean down to nothing.
type NormalizedRecord struct {
	Source       string         `json:"source"`
	Text         string         `json:"text"`
	OriginalText string         `json:"original_text,omitempty"`
	Lang         string         `json:"lang"`
	Translated   bool           `json:"translated"`
	ErrorNote    string         `json:"error_translation,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Entity is one extracted named entity. The canonical entity shape is an
// ordered slice of these pairs, deduplicated per type with first-seen order
// preserved.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// EnrichedRecord is the terminal record shape appended to the feed store.
// Immutable once written.
type EnrichedRecord struct {
	Source       string         `json:"source"`
	Text         string         `json:"text"`
	OriginalText string         `json:"original_text,omitempty"`
	Lang         string         `json:"lang,omitempty"`
	Translated   bool           `json:"translated"`
	Entities     []Entity       `json:"entities"`
	ThreatType   string         `json:"threat_type"`
	Severity     string         `json:"severity"`
	Timestamp    string         `json:"timestamp"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// RunStatus summarizes the outcome of one ingestion cycle. It is a single
// overwritten slot, not a log: each cycle fully replaces the previous status.
type RunStatus struct {
	LastRun string `json:"last_run"`
	// Summary has one entry per configured source, zero for sources whose
	// fetch failed.
	Summary map[string]int `json:"summary"`
	// TotalRecords counts records actually enriched and appended this cycle.
	TotalRecords int `json:"total_records"`
	// Errors has an entry only for sources whose fetch failed.
	Errors map[string]string `json:"errors,omitempty"`
	// RecordFailures counts per-record enrichment failures when the
	// orchestrator is configured to track them; zero otherwise.
	RecordFailures int `json:"record_failures,omitempty"`
}

// EmptyStatus returns the zero-value status served before any cycle has run.
func EmptyStatus() *RunStatus {
	return &RunStatus{
		Summary: map[string]int{},
		Errors:  map[string]string{},
	}
}

// Now returns the ISO-8601 UTC timestamp used to stamp enriched records and
// run statuses.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
