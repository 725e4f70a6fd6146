package enrich

import (
	"context"
	"strings"
)

// KeywordClassifier maps threat keywords to labels, first match wins.
// It is the fallback when no ONNX classifier bundle is configured.
type KeywordClassifier struct{}

func NewKeywordClassifier() *KeywordClassifier { return &KeywordClassifier{} }

var threatKeywords = []struct {
	keyword string
	label   string
}{
	{"ransomware", "Ransomware"},
	{"phishing", "Phishing"},
	{"ddos", "DDoS"},
	{"denial of service", "DDoS"},
	{"botnet", "Botnet"},
	{"malware", "Malware"},
	{"trojan", "Malware"},
	{"exploit", "Exploit"},
	{"vulnerability", "Exploit"},
	{"data breach", "Data Breach"},
	{"credential", "Credential Theft"},
	{"combo list", "Credential Theft"},
	{"rdp access", "Initial Access"},
	{"initial access", "Initial Access"},
}

func (c *KeywordClassifier) Label(_ context.Context, text string) (string, error) {
	lower := strings.ToLower(text)
	for _, kw := range threatKeywords {
		if strings.Contains(lower, kw.keyword) {
			return kw.label, nil
		}
	}
	return "General Threat", nil
}

// KeywordSeverity scores severity from indicator words, highest tier first.
type KeywordSeverity struct{}

func NewKeywordSeverity() *KeywordSeverity { return &KeywordSeverity{} }

var severityTiers = []struct {
	label    string
	keywords []string
}{
	{"Critical", []string{"critical", "zero-day", "0-day", "actively exploited", "wormable"}},
	{"High", []string{"ransomware", "rce", "remote code execution", "data breach", "exfiltration", "banking"}},
	{"Medium", []string{"phishing", "malware", "trojan", "credential", "ddos", "exploit"}},
}

func (s *KeywordSeverity) Label(_ context.Context, text string) (string, error) {
	lower := strings.ToLower(text)
	for _, tier := range severityTiers {
		for _, kw := range tier.keywords {
			if strings.Contains(lower, kw) {
				return tier.label, nil
			}
		}
	}
	return "Low", nil
}
