// Package analyzer defines the structural analyzer boundary and its
// implementations.
//
// An analyzer is opaque: it receives the source text and the ids of the
// enabled built-in rules and returns loosely typed records, normally a
// JSON-like list of objects with "message", "severity" and "location"
// keys. Normalizing that shape is the caller's job.
package analyzer

import "context"

// Analyzer evaluates the enabled built-in rules against source.
type Analyzer interface {
	Analyze(ctx context.Context, source string, enabled []string) (any, error)
}

// Func adapts a plain function to Analyzer.
type Func func(ctx context.Context, source string, enabled []string) (any, error)

func (f Func) Analyze(ctx context.Context, source string, enabled []string) (any, error) {
	return f(ctx, source, enabled)
}

// Loader builds and primes an analyzer. Loading can be slow (process
// lookup, script preparation) so callers load lazily and keep the result.
type Loader func(ctx context.Context) (Analyzer, error)

// Request is the wire payload sent to out-of-process analyzers.
type Request struct {
	Source       string   `json:"source"`
	EnabledRules []string `json:"enabled_rules"`
}

// Name describes an analyzer for logs.
func Name(a Analyzer) string {
	if n, ok := a.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}
