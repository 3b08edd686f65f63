// Package pattern evaluates user-authored pattern rules against raw
// source text.
package pattern

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/edulint/internal/diag"
)

// Rule is one user-supplied pattern check.
type Rule struct {
	ID       string        `json:"id,omitempty" yaml:"id"`
	Message  string        `json:"message" yaml:"message"`
	Pattern  string        `json:"pattern" yaml:"pattern"`
	Flags    string        `json:"flags,omitempty" yaml:"flags,omitempty"`
	Severity diag.Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
}

// UnmarshalJSON accepts "regex" as an alias for "pattern".
func (r *Rule) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string  `json:"id"`
		Message  string  `json:"message"`
		Pattern  string  `json:"pattern"`
		Regex    string  `json:"regex"`
		Flags    *string `json:"flags"`
		Severity string  `json:"severity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.ID = raw.ID
	r.Message = raw.Message
	r.Pattern = raw.Pattern
	if r.Pattern == "" {
		r.Pattern = raw.Regex
	}
	r.Flags = ""
	if raw.Flags != nil {
		r.Flags = *raw.Flags
	}
	r.Severity = ""
	if raw.Severity != "" {
		r.Severity = diag.ParseSeverity(raw.Severity)
	}
	return nil
}

// Label names the rule in diagnostics; rules without an id are "rule".
func (r Rule) Label() string {
	if r.ID == "" {
		return "rule"
	}
	return r.ID
}

// effectiveSeverity is the rule severity, defaulting to warning.
func (r Rule) effectiveSeverity() diag.Severity {
	if r.Severity.Valid() {
		return r.Severity
	}
	return diag.SeverityWarning
}

// ParseSource decodes the raw pattern-rule list. The text must be a JSON
// array; elements that are not objects or carry mistyped fields are
// dropped, the same as rules missing a pattern or message are skipped
// later during evaluation.
func ParseSource(text string) ([]Rule, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	var top any
	if err := dec.Decode(&top); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON: unexpected data after top-level value")
	}
	if _, ok := top.([]any); !ok {
		return nil, fmt.Errorf("expected a JSON array of rules, got %s", jsonKind(top))
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(text), &elems); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	rules := make([]Rule, 0, len(elems))
	for _, el := range elems {
		trimmed := bytes.TrimSpace(el)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}
		var r Rule
		if err := json.Unmarshal(el, &r); err != nil {
			continue
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// FormatSource renders rules as the indented JSON users edit.
func FormatSource(rules []Rule) string {
	if rules == nil {
		rules = []Rule{}
	}
	data, err := json.MarshalIndent(rules, "", "  ")
	if err != nil {
		// Rule holds only strings.
		panic(fmt.Sprintf("pattern.FormatSource: %v", err))
	}
	return string(data)
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	}
	return "an unknown value"
}
