// Package redact scrubs credentials from log output. Source adapters log
// fetch errors that can embed Authorization headers or token-bearing URLs;
// every log line in this codebase goes through here.
package redact

import (
	"fmt"
	"log"
	"regexp"
	"strings"
)

var (
	bearerRe   = regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9._\-+/=]+)`)
	apiKeyRe   = regexp.MustCompile(`(?i)(api[_-]?key\s*[:=]\s*)([A-Za-z0-9._\-+/=]+)`)
	tokenRe    = regexp.MustCompile(`(?i)(token\s*[:=]\s*)([A-Za-z0-9._\-+/=]{6,})`)
	urlTokenRe = regexp.MustCompile(`(?i)([?&](?:token|key|access_token|bearer)=)([^&\s"']+)`)
)

// String redacts known credential patterns from a free-form string.
func String(s string) string {
	if s == "" {
		return s
	}
	out := s
	out = bearerRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = apiKeyRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = tokenRe.ReplaceAllString(out, "${1}[REDACTED]")
	out = urlTokenRe.ReplaceAllString(out, "${1}[REDACTED]")
	for strings.Contains(out, "[REDACTED][REDACTED]") {
		out = strings.ReplaceAll(out, "[REDACTED][REDACTED]", "[REDACTED]")
	}
	return out
}

// Sprintf formats like fmt.Sprintf and redacts the result.
func Sprintf(format string, args ...interface{}) string {
	return String(fmt.Sprintf(format, args...))
}

// Logf prints a redacted log line.
func Logf(format string, args ...interface{}) {
	log.Print(Sprintf(format, args...))
}

// Fatalf prints a redacted fatal log line.
func Fatalf(format string, args ...interface{}) {
	log.Fatal(Sprintf(format, args...))
}
