package enrich

import (
	"context"
	"testing"
)

func TestKeywordClassifier(t *testing.T) {
	c := NewKeywordClassifier()
	tests := []struct{ text, want string }{
		{"New ransomware variant targeting healthcare", "Ransomware"},
		{"phishing campaign against bank customers", "Phishing"},
		{"massive DDoS attack on DNS provider", "DDoS"},
		{"malware sample uploaded", "Malware"},
		{"Selling RDP access to corporate networks.", "Initial Access"},
		{"nothing to see here", "General Threat"},
	}
	for _, tt := range tests {
		got, err := c.Label(context.Background(), tt.text)
		if err != nil {
			t.Fatalf("label(%q): %v", tt.text, err)
		}
		if got != tt.want {
			t.Errorf("label(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestKeywordClassifierRansomwareBeatsMalware(t *testing.T) {
	// Both keywords present; the more specific label wins.
	got, err := NewKeywordClassifier().Label(context.Background(), "ransomware is a kind of malware")
	if err != nil {
		t.Fatal(err)
	}
	if got != "Ransomware" {
		t.Errorf("label = %q, want Ransomware", got)
	}
}

func TestKeywordSeverity(t *testing.T) {
	s := NewKeywordSeverity()
	tests := []struct{ text, want string }{
		{"zero-day actively exploited in the wild", "Critical"},
		{"ransomware deployed after exfiltration", "High"},
		{"phishing emails observed", "Medium"},
		{"vendor published an advisory", "Low"},
	}
	for _, tt := range tests {
		got, err := s.Label(context.Background(), tt.text)
		if err != nil {
			t.Fatalf("label(%q): %v", tt.text, err)
		}
		if got != tt.want {
			t.Errorf("severity(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}
