package enrich

import (
	"context"
	"errors"
	"fmt"

	"github.com/threatlens-io/threatlens/internal/feed"
	"github.com/threatlens-io/threatlens/internal/redact"
)

// ErrHard marks a stage failure that must drop the whole record in batch
// mode instead of degrading to an in-band label. Stages opt in by wrapping:
// fmt.Errorf("...: %w", enrich.ErrHard). Unwrapped errors are soft.
var ErrHard = errors.New("hard stage failure")

// Pipeline fans one text out to the three stages.
//
// Two entry points with different failure semantics: Enrich fails fast on
// any stage error (interactive /analyze path); EnrichDegraded converts stage
// errors into in-band error labels so a single bad record never aborts a
// batch.
type Pipeline struct {
	entities EntityExtractor
	threat   Labeler
	severity Labeler
}

func NewPipeline(entities EntityExtractor, threat, severity Labeler) *Pipeline {
	return &Pipeline{entities: entities, threat: threat, severity: severity}
}

// Enrich runs all stages and returns the first hard failure, if any.
func (p *Pipeline) Enrich(ctx context.Context, text string) (*Enrichment, error) {
	entities, err := p.entities.Extract(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("entity extraction: %w", err)
	}
	threat, err := p.threat.Label(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("classification: %w", err)
	}
	severity, err := p.severity.Label(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("severity scoring: %w", err)
	}
	return &Enrichment{
		Entities:   dedupeEntities(entities),
		ThreatType: threat,
		Severity:   severity,
	}, nil
}

// EnrichDegraded is the batch entry point. Soft stage errors yield a
// degraded-but-present result with an error-describing label in that stage's
// slot; only a stage error wrapping ErrHard fails the record.
func (p *Pipeline) EnrichDegraded(ctx context.Context, text string) (*Enrichment, error) {
	entities, err := p.entities.Extract(ctx, text)
	if err != nil {
		if errors.Is(err, ErrHard) {
			return nil, fmt.Errorf("entity extraction: %w", err)
		}
		redact.Logf("enrich: entity extraction degraded: %v", err)
		entities = nil
	}
	threat, err := p.threat.Label(ctx, text)
	if err != nil {
		if errors.Is(err, ErrHard) {
			return nil, fmt.Errorf("classification: %w", err)
		}
		redact.Logf("enrich: classification degraded: %v", err)
		threat = "classification error: " + err.Error()
	}
	severity, err := p.severity.Label(ctx, text)
	if err != nil {
		if errors.Is(err, ErrHard) {
			return nil, fmt.Errorf("severity scoring: %w", err)
		}
		redact.Logf("enrich: severity scoring degraded: %v", err)
		severity = "severity error: " + err.Error()
	}
	return &Enrichment{
		Entities:   dedupeEntities(entities),
		ThreatType: threat,
		Severity:   severity,
	}, nil
}

// Apply stamps a normalized record with an enrichment result, producing the
// immutable feed-store shape.
func Apply(rec feed.NormalizedRecord, e *Enrichment) feed.EnrichedRecord {
	return feed.EnrichedRecord{
		Source:       rec.Source,
		Text:         rec.Text,
		OriginalText: rec.OriginalText,
		Lang:         rec.Lang,
		Translated:   rec.Translated,
		Entities:     e.Entities,
		ThreatType:   e.ThreatType,
		Severity:     e.Severity,
		Timestamp:    feed.Now(),
		Metadata:     feed.SanitizeMetadata(rec.Metadata),
	}
}
