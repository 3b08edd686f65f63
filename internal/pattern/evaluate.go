package pattern

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/position"
)

// Options tunes evaluation.
type Options struct {
	// MatchTimeout bounds the time one rule may spend matching. Zero
	// means no limit, so a pathological pattern can stall the run.
	MatchTimeout time.Duration
}

// Match is one hit, in rune offsets.
type Match struct {
	Offset int
	Length int
}

// Matcher is a compiled rule.
type Matcher struct {
	rule  Rule
	re    *regexp2.Regexp
	flags flagSet
}

// Compile validates a rule's flags and expression.
func Compile(r Rule, opts Options) (*Matcher, error) {
	fs, err := parseFlags(r.Flags)
	if err != nil {
		return nil, err
	}
	re, err := regexp2.Compile(r.Pattern, fs.options)
	if err != nil {
		return nil, err
	}
	if opts.MatchTimeout > 0 {
		re.MatchTimeout = opts.MatchTimeout
	}
	return &Matcher{rule: r, re: re, flags: fs}, nil
}

// FindAll returns every non-overlapping match in text. Matches found
// before an error (such as a timeout) are returned along with it.
func (m *Matcher) FindAll(text []rune) ([]Match, error) {
	var out []Match
	start := 0
	for start <= len(text) {
		hit, err := m.re.FindRunesMatchStartingAt(text, start)
		if err != nil {
			return out, err
		}
		if hit == nil {
			break
		}
		if m.flags.sticky && hit.Index != start {
			break
		}
		out = append(out, Match{Offset: hit.Index, Length: hit.Length})
		if !m.flags.global {
			break
		}
		next := hit.Index + hit.Length
		if hit.Length == 0 {
			// Step past an empty match or the scan never moves.
			next++
		}
		start = next
	}
	return out, nil
}

// Evaluate runs every usable rule against buffer. Rules missing a pattern
// or a message are skipped. A rule that fails to compile contributes one
// error diagnostic at "custom" and nothing else; other rules are
// unaffected.
func Evaluate(buffer string, rules []Rule, opts Options) []diag.Diagnostic {
	var (
		out   []diag.Diagnostic
		text  []rune
		index *position.Index
	)
	for _, r := range rules {
		if r.Pattern == "" || r.Message == "" {
			continue
		}
		m, err := Compile(r, opts)
		if err != nil {
			out = append(out, diag.Diagnostic{
				Message:  fmt.Sprintf("invalid pattern in %s: %v", r.Label(), err),
				Severity: diag.SeverityError,
				Location: diag.LocationCustom,
				Source:   r.Label(),
			})
			continue
		}
		if text == nil {
			text = []rune(buffer)
			index = position.NewIndex(buffer)
		}
		matches, err := m.FindAll(text)
		sev := r.effectiveSeverity()
		for _, hit := range matches {
			out = append(out, diag.Diagnostic{
				Message:  r.Message,
				Severity: sev,
				Location: index.Locate(hit.Offset).String(),
				Source:   r.Label(),
				Length:   hit.Length,
			})
		}
		if err != nil {
			out = append(out, diag.Diagnostic{
				Message:  fmt.Sprintf("pattern %s aborted: %v", r.Label(), err),
				Severity: diag.SeverityError,
				Location: diag.LocationCustom,
				Source:   r.Label(),
			})
		}
	}
	return out
}
