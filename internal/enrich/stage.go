// Package enrich applies the three NLP stages — entity extraction, threat
// classification, and severity scoring — to normalized text. Stages are
// injected interfaces; model-backed and keyword-backed implementations are
// interchangeable.
package enrich

import (
	"context"

	"github.com/threatlens-io/threatlens/internal/feed"
)

// EntityExtractor pulls typed entities out of a text. Implementations may
// return duplicates; the pipeline deduplicates per type preserving
// first-seen order.
type EntityExtractor interface {
	Extract(ctx context.Context, text string) ([]feed.Entity, error)
}

// Labeler assigns exactly one label to a text. Both the threat classifier
// and the severity scorer implement it.
type Labeler interface {
	Label(ctx context.Context, text string) (string, error)
}

// Enrichment is one pipeline result. All values are plain primitives.
type Enrichment struct {
	Entities   []feed.Entity
	ThreatType string
	Severity   string
}

// dedupeEntities collapses duplicate (type, value) pairs, keeping first-seen
// order within each type and across the slice.
func dedupeEntities(entities []feed.Entity) []feed.Entity {
	if len(entities) == 0 {
		return []feed.Entity{}
	}
	seen := make(map[feed.Entity]struct{}, len(entities))
	out := make([]feed.Entity, 0, len(entities))
	for _, e := range entities {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
