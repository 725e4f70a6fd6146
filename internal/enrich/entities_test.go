package enrich

import (
	"context"
	"testing"

	"github.com/threatlens-io/threatlens/internal/feed"
)

func extract(t *testing.T, text string) []feed.Entity {
	t.Helper()
	out, err := NewRegexExtractor().Extract(context.Background(), text)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	return out
}

func hasEntity(entities []feed.Entity, typ, value string) bool {
	for _, e := range entities {
		if e.Type == typ && e.Value == value {
			return true
		}
	}
	return false
}

func TestExtractIndicators(t *testing.T) {
	text := "Emotet dropper exploiting CVE-2024-21413 via T1059, C2 at 203.0.113.7, " +
		"payload sha https://evil.example.com/x d41d8cd98f00b204e9800998ecf8427e, contact ops@evil.example.com"
	got := extract(t, text)

	checks := []struct{ typ, value string }{
		{"CVE", "CVE-2024-21413"},
		{"Technique", "T1059"},
		{"IP", "203.0.113.7"},
		{"URL", "https://evil.example.com/x"},
		{"Hash", "d41d8cd98f00b204e9800998ecf8427e"},
		{"Email", "ops@evil.example.com"},
		{"Malware", "Emotet"},
	}
	for _, c := range checks {
		if !hasEntity(got, c.typ, c.value) {
			t.Errorf("missing %s entity %q in %v", c.typ, c.value, got)
		}
	}
}

func TestExtractOSWholeWordOnly(t *testing.T) {
	got := extract(t, "patched on Linux hosts")
	if !hasEntity(got, "OS", "Linux") {
		t.Errorf("expected OS entity, got %v", got)
	}

	got = extract(t, "installed a new windowsill")
	if hasEntity(got, "OS", "Windows") {
		t.Errorf("substring must not match as OS: %v", got)
	}
}

func TestExtractSubTechniqueID(t *testing.T) {
	got := extract(t, "observed T1059.001 activity")
	if !hasEntity(got, "Technique", "T1059.001") {
		t.Errorf("sub-technique not extracted: %v", got)
	}
}

func TestExtractNothingFromBenignText(t *testing.T) {
	got := extract(t, "quarterly report submitted on time")
	if len(got) != 0 {
		t.Errorf("expected no entities, got %v", got)
	}
}
