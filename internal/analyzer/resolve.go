package analyzer

import (
	"context"
	"fmt"
	"strings"

	"github.com/dshills/edulint/internal/analyzer/pycheck"
)

// Options configures Resolve.
type Options struct {
	// Redact applies to remote analyzers only.
	Redact bool
}

// Resolve turns an analyzer spec into a Loader. Accepted forms:
//
//	builtin (or empty)    in-process Python checker
//	none                  no structural diagnostics
//	exec:<command line>   subprocess speaking JSON on stdin/stdout
//	http(s)://...         HTTP analyzer service
func Resolve(spec string, opts Options) (Loader, error) {
	spec = strings.TrimSpace(spec)
	lower := strings.ToLower(spec)
	switch {
	case lower == "" || lower == "builtin":
		return func(context.Context) (Analyzer, error) {
			return pycheck.New(), nil
		}, nil

	case lower == "none":
		return func(context.Context) (Analyzer, error) {
			return Func(func(context.Context, string, []string) (any, error) {
				return []any{}, nil
			}), nil
		}, nil

	case strings.HasPrefix(lower, "exec:"):
		cmdline := strings.TrimSpace(spec[len("exec:"):])
		if cmdline == "" {
			return nil, fmt.Errorf("analyzer.Resolve: exec analyzer needs a command")
		}
		return func(context.Context) (Analyzer, error) {
			return NewExec(cmdline)
		}, nil

	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		if _, err := NewRemote(spec); err != nil {
			return nil, err
		}
		return func(context.Context) (Analyzer, error) {
			a, err := NewRemote(spec)
			if err != nil {
				return nil, err
			}
			a.Redact = opts.Redact
			return a, nil
		}, nil
	}
	return nil, fmt.Errorf("analyzer.Resolve: unknown analyzer %q (want builtin, none, exec:<cmd> or an http(s) URL)", spec)
}
