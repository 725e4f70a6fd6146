package enrich

import (
	"context"
	"regexp"
	"strings"

	"github.com/threatlens-io/threatlens/internal/feed"
)

// RegexExtractor recognizes the indicator shapes that matter in CTI text:
// CVEs, ATT&CK technique IDs, IPs, URLs, file hashes, emails, plus a small
// gazetteer of malware families and operating systems.
type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor { return &RegexExtractor{} }

var (
	cveRe       = regexp.MustCompile(`(?i)\bCVE-\d{4}-\d{4,7}\b`)
	techniqueRe = regexp.MustCompile(`\bT\d{4}(?:\.\d{3})?\b`)
	ipRe        = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	entityURLRe = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)
	hashRe      = regexp.MustCompile(`\b[a-fA-F0-9]{32}\b|\b[a-fA-F0-9]{40}\b|\b[a-fA-F0-9]{64}\b`)
	emailRe     = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)
)

var malwareFamilies = []string{
	"Emotet", "Qbot", "QakBot", "TrickBot", "LockBit", "Conti", "REvil",
	"Ryuk", "WannaCry", "NotPetya", "Cobalt Strike", "AgentTesla", "Mirai",
}

var operatingSystems = []string{
	"Windows", "Linux", "macOS", "Android", "iOS", "Microsoft",
}

func (x *RegexExtractor) Extract(_ context.Context, text string) ([]feed.Entity, error) {
	var out []feed.Entity

	for _, v := range cveRe.FindAllString(text, -1) {
		out = append(out, feed.Entity{Type: "CVE", Value: strings.ToUpper(v)})
	}
	for _, v := range techniqueRe.FindAllString(text, -1) {
		out = append(out, feed.Entity{Type: "Technique", Value: v})
	}
	for _, v := range ipRe.FindAllString(text, -1) {
		out = append(out, feed.Entity{Type: "IP", Value: v})
	}
	for _, v := range entityURLRe.FindAllString(text, -1) {
		out = append(out, feed.Entity{Type: "URL", Value: strings.TrimRight(v, ".,;)")})
	}
	for _, v := range hashRe.FindAllString(text, -1) {
		out = append(out, feed.Entity{Type: "Hash", Value: strings.ToLower(v)})
	}
	for _, v := range emailRe.FindAllString(text, -1) {
		out = append(out, feed.Entity{Type: "Email", Value: v})
	}

	lower := strings.ToLower(text)
	for _, fam := range malwareFamilies {
		if strings.Contains(lower, strings.ToLower(fam)) {
			out = append(out, feed.Entity{Type: "Malware", Value: fam})
		}
	}
	for _, os := range operatingSystems {
		if containsWord(lower, strings.ToLower(os)) {
			out = append(out, feed.Entity{Type: "OS", Value: os})
		}
	}

	return out, nil
}

// containsWord avoids gazetteer hits inside larger words ("windowsill").
func containsWord(haystack, needle string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		beforeOK := start == 0 || !isWordChar(haystack[start-1])
		afterOK := end == len(haystack) || !isWordChar(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= '0' && c <= '9'
}
