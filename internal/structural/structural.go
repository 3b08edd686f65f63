// Package structural runs the enabled built-in rules through an analyzer
// and normalizes what comes back into diagnostics.
package structural

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/dshills/edulint/internal/analyzer"
	"github.com/dshills/edulint/internal/diag"
)

// SourceName tags every diagnostic produced by the client.
const SourceName = "structural"

// Default field values for records that omit them.
const (
	DefaultMessage = "unknown diagnostic"
	unexpectedMsg  = "analyzer returned an unexpected result format"
)

// Client lazily loads an analyzer and keeps it for the rest of the
// process. It is safe for concurrent use.
type Client struct {
	load analyzer.Loader

	mu       sync.Mutex
	analyzer analyzer.Analyzer
	group    singleflight.Group
}

// New returns a client that calls load on first use. A nil loader makes
// every evaluation report the analyzer as unavailable.
func New(load analyzer.Loader) *Client {
	return &Client{load: load}
}

// NewWith returns a client around an already loaded analyzer.
func NewWith(a analyzer.Analyzer) *Client {
	return &Client{analyzer: a}
}

// Ready reports whether an analyzer has been loaded.
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.analyzer != nil
}

// Prime loads the analyzer if it is not loaded yet. Concurrent callers
// share one load. A failed load is not kept, so a later call retries.
func (c *Client) Prime(ctx context.Context) (analyzer.Analyzer, error) {
	c.mu.Lock()
	a := c.analyzer
	c.mu.Unlock()
	if a != nil {
		return a, nil
	}
	if c.load == nil {
		return nil, fmt.Errorf("structural.Prime: no analyzer configured")
	}

	v, err, _ := c.group.Do("load", func() (any, error) {
		c.mu.Lock()
		if c.analyzer != nil {
			a := c.analyzer
			c.mu.Unlock()
			return a, nil
		}
		c.mu.Unlock()

		a, err := c.safeLoad(ctx)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, fmt.Errorf("structural.Prime: loader returned no analyzer")
		}
		c.mu.Lock()
		c.analyzer = a
		c.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(analyzer.Analyzer), nil
}

func (c *Client) safeLoad(ctx context.Context) (a analyzer.Analyzer, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("structural.Prime: loader panicked: %v", r)
		}
	}()
	return c.load(ctx)
}

// Evaluate runs the enabled rules against buffer. It never fails: any
// load, evaluation or shape problem becomes a single error diagnostic at
// "1:1".
func (c *Client) Evaluate(ctx context.Context, buffer string, enabled []string) []diag.Diagnostic {
	a, err := c.Prime(ctx)
	if err != nil {
		return []diag.Diagnostic{failure(err)}
	}
	raw, err := analyze(ctx, a, buffer, enabled)
	if err != nil {
		return []diag.Diagnostic{failure(err)}
	}
	out, ok := Normalize(raw)
	if !ok {
		return []diag.Diagnostic{{
			Message:  unexpectedMsg,
			Severity: diag.SeverityError,
			Location: diag.LocationStart,
			Source:   SourceName,
		}}
	}
	return out
}

func analyze(ctx context.Context, a analyzer.Analyzer, buffer string, enabled []string) (raw any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("analyzer panicked: %v", r)
		}
	}()
	return a.Analyze(ctx, buffer, append([]string{}, enabled...))
}

func failure(err error) diag.Diagnostic {
	return diag.Diagnostic{
		Message:  "failed to run structural analyzer: " + err.Error(),
		Severity: diag.SeverityError,
		Location: diag.LocationStart,
		Source:   SourceName,
	}
}

// Normalize converts loosely typed analyzer output into diagnostics.
// Entries that are not objects are dropped. It returns false when raw is
// not a list at all.
func Normalize(raw any) ([]diag.Diagnostic, bool) {
	var records []any
	switch v := raw.(type) {
	case []any:
		records = v
	case []map[string]any:
		records = make([]any, len(v))
		for i, m := range v {
			records[i] = m
		}
	default:
		return nil, false
	}

	out := make([]diag.Diagnostic, 0, len(records))
	for _, rec := range records {
		m, ok := rec.(map[string]any)
		if !ok || m == nil {
			continue
		}
		out = append(out, diag.Diagnostic{
			Message:  stringField(m, "message", DefaultMessage),
			Severity: diag.ParseSeverity(stringField(m, "severity", "")),
			Location: stringField(m, "location", diag.LocationStart),
			Source:   SourceName,
		})
	}
	return out, true
}

// stringField returns m[key] when it is a non-empty string.
func stringField(m map[string]any, key, def string) string {
	if s, ok := m[key].(string); ok && s != "" {
		return s
	}
	return def
}
