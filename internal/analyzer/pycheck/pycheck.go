// Package pycheck is the built-in structural analyzer for short Python
// exercise solutions.
//
// It is modeled after a vet-style linter: each check is an independent
// Check that inspects the scanned file and reports findings through a
// Pass. Results leave the package as loosely typed records, the same
// shape an out-of-process analyzer would return.
package pycheck

import (
	"context"
	"fmt"
)

// Check is one built-in rule.
type Check struct {
	// ID matches the rule id in the catalogs.
	ID string
	// Doc is a one-line description.
	Doc string
	// Severity is the default severity of reports.
	Severity string
	Run      func(p *Pass)
}

// Pass carries one check over one file.
type Pass struct {
	Check *Check
	File  *File

	records []any
}

// Report records a finding at line:col.
func (p *Pass) Report(line, col int, message string) {
	p.records = append(p.records, map[string]any{
		"message":  message,
		"severity": p.Check.Severity,
		"location": fmt.Sprintf("%d:%d", line, col),
	})
}

// Checker runs the registered checks in registration order.
type Checker struct {
	checks []*Check
}

// New returns a Checker with every built-in check registered.
func New() *Checker {
	return &Checker{checks: DefaultChecks()}
}

func (c *Checker) Name() string { return "builtin" }

// IDs lists the registered check ids.
func (c *Checker) IDs() []string {
	ids := make([]string, 0, len(c.checks))
	for _, ch := range c.checks {
		ids = append(ids, ch.ID)
	}
	return ids
}

// Analyze runs every enabled check. A syntax error short-circuits the
// checks and is the only record returned. Unknown ids are ignored.
func (c *Checker) Analyze(ctx context.Context, source string, enabled []string) (any, error) {
	f, err := Parse(source)
	if err != nil {
		serr := err.(*SyntaxError)
		return []any{map[string]any{
			"message":  "Syntax error: " + serr.Msg,
			"severity": "error",
			"location": fmt.Sprintf("%d:%d", serr.Line, serr.Col),
		}}, nil
	}

	on := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		on[id] = true
	}

	records := []any{}
	for _, ch := range c.checks {
		if !on[ch.ID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := &Pass{Check: ch, File: f}
		ch.Run(p)
		records = append(records, p.records...)
	}
	return records, nil
}
