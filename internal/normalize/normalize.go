// Package normalize turns raw source records into canonical English text:
// trim, URL-strip, whitespace-collapse, language detection, and translation
// with graceful degradation.
package normalize

import (
	"context"
	"regexp"
	"strings"

	"github.com/threatlens-io/threatlens/internal/feed"
	"github.com/threatlens-io/threatlens/internal/redact"
)

var (
	urlRe        = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Detector reports the language of a text. ok is false when detection is
// unreliable; callers treat that as "unknown" and skip translation.
type Detector interface {
	Detect(text string) (lang string, ok bool)
}

// Translator converts text to English. Implementations are external
// collaborators (HTTP services); failures must be survivable.
type Translator interface {
	Translate(ctx context.Context, text, sourceLang string) (string, error)
}

// Normalizer cleans and language-normalizes raw records.
type Normalizer struct {
	detector   Detector
	translator Translator
}

// New builds a Normalizer. A nil detector falls back to whatlang; a nil
// translator disables translation (non-English text passes through
// annotated).
func New(detector Detector, translator Translator) *Normalizer {
	if detector == nil {
		detector = WhatlangDetector{}
	}
	return &Normalizer{detector: detector, translator: translator}
}

// Normalize processes a batch. Records whose text cleans down to nothing are
// dropped; translation failures keep the original text with an error note.
// Output length is always <= input length.
func (n *Normalizer) Normalize(ctx context.Context, records []feed.RawRecord) []feed.NormalizedRecord {
	out := make([]feed.NormalizedRecord, 0, len(records))
	for _, raw := range records {
		rec, ok := n.normalizeOne(ctx, raw)
		if !ok {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func (n *Normalizer) normalizeOne(ctx context.Context, raw feed.RawRecord) (feed.NormalizedRecord, bool) {
	text := Clean(raw.Text)
	if text == "" {
		return feed.NormalizedRecord{}, false
	}

	rec := feed.NormalizedRecord{
		Source:   raw.Source,
		Text:     text,
		Lang:     "unknown",
		Metadata: raw.Metadata,
	}

	lang, ok := n.detector.Detect(text)
	if !ok {
		// Unknown language: treat as already canonical.
		return rec, true
	}
	rec.Lang = lang

	if lang == "en" || n.translator == nil {
		return rec, true
	}

	translated, err := n.translator.Translate(ctx, text, lang)
	if err != nil {
		redact.Logf("normalize: translate %s record failed: %v", raw.Source, err)
		rec.ErrorNote = err.Error()
		return rec, true
	}
	translated = Clean(translated)
	if translated == "" {
		// A translator that eats the text entirely is worse than no
		// translation; keep the original.
		rec.ErrorNote = "translation produced empty text"
		return rec, true
	}
	rec.OriginalText = text
	rec.Text = translated
	rec.Translated = true
	return rec, true
}

// Clean strips URL-like substrings, collapses internal whitespace, and trims.
func Clean(text string) string {
	text = urlRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
