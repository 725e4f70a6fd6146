package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/threatlens-io/threatlens/internal/feed"
)

type fakeExtractor struct {
	entities []feed.Entity
	err      error
}

func (f fakeExtractor) Extract(context.Context, string) ([]feed.Entity, error) {
	return f.entities, f.err
}

type fakeLabeler struct {
	label string
	err   error
}

func (f fakeLabeler) Label(context.Context, string) (string, error) {
	return f.label, f.err
}

func TestEnrichHappyPath(t *testing.T) {
	p := NewPipeline(
		fakeExtractor{entities: []feed.Entity{{Type: "CVE", Value: "CVE-2024-1234"}}},
		fakeLabeler{label: "Malware"},
		fakeLabeler{label: "High"},
	)
	got, err := p.Enrich(context.Background(), "some text")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if got.ThreatType != "Malware" || got.Severity != "High" {
		t.Errorf("labels = %q/%q", got.ThreatType, got.Severity)
	}
	if len(got.Entities) != 1 {
		t.Errorf("entities = %v", got.Entities)
	}
}

func TestEnrichFailsFastOnStageError(t *testing.T) {
	p := NewPipeline(
		fakeExtractor{},
		fakeLabeler{err: errors.New("model crashed")},
		fakeLabeler{label: "High"},
	)
	if _, err := p.Enrich(context.Background(), "text"); err == nil {
		t.Fatal("expected hard failure on classification error")
	}
}

func TestEnrichDegradedSoftErrorsStayInBand(t *testing.T) {
	p := NewPipeline(
		fakeExtractor{err: errors.New("ner down")},
		fakeLabeler{err: errors.New("classifier down")},
		fakeLabeler{label: "Medium"},
	)
	got, err := p.EnrichDegraded(context.Background(), "text")
	if err != nil {
		t.Fatalf("soft errors must not fail the record: %v", err)
	}
	if got.Entities == nil || len(got.Entities) != 0 {
		t.Errorf("entities should be empty non-nil, got %v", got.Entities)
	}
	if !strings.HasPrefix(got.ThreatType, "classification error:") {
		t.Errorf("threat_type = %q, want in-band error label", got.ThreatType)
	}
	if got.Severity != "Medium" {
		t.Errorf("healthy stage should still produce, got %q", got.Severity)
	}
}

func TestEnrichDegradedHardErrorDropsRecord(t *testing.T) {
	p := NewPipeline(
		fakeExtractor{},
		fakeLabeler{err: fmt.Errorf("model file vanished: %w", ErrHard)},
		fakeLabeler{label: "Low"},
	)
	if _, err := p.EnrichDegraded(context.Background(), "text"); err == nil {
		t.Fatal("hard stage failure must fail the record")
	}
}

func TestDedupeEntitiesKeepsFirstSeenOrder(t *testing.T) {
	in := []feed.Entity{
		{Type: "Malware", Value: "Emotet"},
		{Type: "CVE", Value: "CVE-2024-1"},
		{Type: "Malware", Value: "Emotet"},
		{Type: "Malware", Value: "Qbot"},
		{Type: "CVE", Value: "CVE-2024-1"},
	}
	out := dedupeEntities(in)
	want := []feed.Entity{
		{Type: "Malware", Value: "Emotet"},
		{Type: "CVE", Value: "CVE-2024-1"},
		{Type: "Malware", Value: "Qbot"},
	}
	if len(out) != len(want) {
		t.Fatalf("deduped to %d, want %d", len(out), len(want))
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}
}

func TestApplyStampsTimestamp(t *testing.T) {
	rec := feed.NormalizedRecord{
		Source: "social",
		Text:   "text",
		Lang:   "en",
		Metadata: map[string]any{
			"score": float32(0.5),
		},
	}
	out := Apply(rec, &Enrichment{Entities: []feed.Entity{}, ThreatType: "Malware", Severity: "Low"})
	if out.Timestamp == "" {
		t.Error("timestamp not stamped")
	}
	if _, ok := out.Metadata["score"].(float64); !ok {
		t.Errorf("metadata not sanitized to primitives: %T", out.Metadata["score"])
	}
}
