// Package redact masks secrets in a submission before it leaves the
// process for a remote analyzer.
package redact

import (
	"regexp"
	"strings"
)

// Mask replaces every redacted span.
const Mask = "[REDACTED]"

var patterns []*regexp.Regexp

func init() {
	raw := []string{
		// AWS access key IDs
		`AKIA[0-9A-Z]{16}`,
		// AWS secret access keys (40 char base64 after common prefixes)
		`(?i)(aws_secret_access_key|aws_secret)\s*[:=]\s*[A-Za-z0-9/+=]{40}`,
		// Private key blocks
		`-----BEGIN [A-Z ]+PRIVATE KEY-----[\s\S]*?-----END [A-Z ]+PRIVATE KEY-----`,
		// Bearer tokens
		`Bearer\s+[A-Za-z0-9\-._~+/]+=*`,
		// GitHub and OpenAI style tokens pasted as literals
		`\b(ghp|gho|ghs)_[A-Za-z0-9]{20,}`,
		`\bsk-[A-Za-z0-9]{20,}`,
		// Generic key/secret/token/password assignments, quoted or not
		`(?i)(api[_-]?key|api[_-]?secret|secret[_-]?key|token|password|passwd|credentials)\s*[:=]\s*("[^"\n]*"|'[^'\n]*'|\S+)`,
		// Email addresses, typically a student's own in a header comment
		`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
	}
	for _, r := range raw {
		patterns = append(patterns, regexp.MustCompile(r))
	}
}

// Redact replaces secret patterns in text with [REDACTED]. Newlines inside
// a redacted span are kept, so line numbers reported against the redacted
// text still match the original.
func Redact(text string) string {
	for _, p := range patterns {
		text = p.ReplaceAllStringFunc(text, mask)
	}
	return text
}

func mask(s string) string {
	if n := strings.Count(s, "\n"); n > 0 {
		return Mask + strings.Repeat("\n", n)
	}
	return Mask
}
