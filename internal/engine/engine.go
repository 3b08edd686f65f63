// Package engine runs one full lint pass over a buffer: the pattern-rule
// source is parsed, structural and pattern rules are evaluated, and their
// findings are merged into a single counted feed.
package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/edulint/internal/catalog"
	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/marker"
	"github.com/dshills/edulint/internal/pattern"
	"github.com/dshills/edulint/internal/structural"
)

// SourcePattern tags diagnostics about the pattern-rule source itself.
const SourcePattern = "pattern"

// Host supplies the state a run reads. Implementations must be safe to
// call from the goroutine running Run.
type Host interface {
	Text() string
	PatternSource() string
}

// Snapshot is a fixed Host.
type Snapshot struct {
	Code  string
	Rules string
}

func (s Snapshot) Text() string          { return s.Code }
func (s Snapshot) PatternSource() string { return s.Rules }

// Engine ties a catalog to a structural client. The catalog is read on
// every run, so toggles apply to the next run.
type Engine struct {
	Catalog    *catalog.Catalog
	Structural *structural.Client
	Pattern    pattern.Options
}

// New returns an engine. A nil client reports the structural analyzer as
// unavailable on every run.
func New(cat *catalog.Catalog, client *structural.Client, opts pattern.Options) *Engine {
	if client == nil {
		client = structural.New(nil)
	}
	return &Engine{Catalog: cat, Structural: client, Pattern: opts}
}

// Run evaluates every enabled rule against the host's buffer. It always
// returns a result; failures are diagnostics in the feed.
//
// Order: pattern-source parse errors, then structural diagnostics in
// analyzer order, then pattern diagnostics by rule then by match.
func (e *Engine) Run(ctx context.Context, h Host) diag.RunResult {
	text := h.Text()
	var b diag.Builder

	rules, err := pattern.ParseSource(h.PatternSource())
	if err != nil {
		b.Add(diag.Diagnostic{
			Message:  "invalid pattern rules: " + err.Error(),
			Severity: diag.SeverityError,
			Location: diag.LocationCustom,
			Source:   SourcePattern,
		})
	}

	var enabled []string
	if e.Catalog != nil {
		enabled = e.Catalog.EnabledIDs()
	}

	var fromStructural, fromPatterns []diag.Diagnostic
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fromStructural = e.Structural.Evaluate(gctx, text, enabled)
		return nil
	})
	g.Go(func() error {
		fromPatterns = pattern.Evaluate(text, rules, e.Pattern)
		return nil
	})
	_ = g.Wait()

	b.AddAll(fromStructural)
	b.AddAll(fromPatterns)
	return b.Result()
}

// RunWithMarkers is Run plus the editor markers for the result.
func (e *Engine) RunWithMarkers(ctx context.Context, h Host) (diag.RunResult, []marker.Marker) {
	res := e.Run(ctx, h)
	return res, marker.Build(res.Diagnostics)
}
