package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/position"
)

// TextOptions controls terminal output.
type TextOptions struct {
	// Color forces ANSI colors on or off.
	Color bool
	// Snippets shows the offending source line under each diagnostic.
	Snippets bool
}

type palette struct {
	err, warn, info, gutter, caret *color.Color
}

func newPalette(on bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.gutter, p.caret} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SeverityError:
		return p.err
	case diag.SeverityInfo:
		return p.info
	}
	return p.warn
}

// errWriter keeps the first write error so callers can print freely.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, a ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, a...)
}

// Text writes one "[line:col] message" row per diagnostic followed by a
// summary line.
func Text(w io.Writer, r *Report, opts TextOptions) error {
	bw := bufio.NewWriter(w)
	ew := &errWriter{w: bw}
	p := newPalette(opts.Color)

	var lines []string
	if opts.Snippets && r.Source != "" {
		lines = strings.Split(r.Source, "\n")
	}

	if len(r.Result.Diagnostics) == 0 {
		ew.printf("No problems found.\n")
	}
	for _, d := range r.Result.Diagnostics {
		label := p.severity(d.Severity).Sprintf("%-7s", d.Severity)
		ew.printf("%s [%s] %s\n", label, d.Location, d.Message)
		if lines != nil {
			writeSnippet(ew, p, lines, d)
		}
	}

	c := r.Result.Counts
	if c.Total() > 0 {
		ew.printf("\n%s, %s, %s\n",
			p.err.Sprint(plural(c.Error, "error")),
			p.warn.Sprint(plural(c.Warning, "warning")),
			p.info.Sprint(fmt.Sprintf("%d info", c.Info)))
	}

	if ew.err != nil {
		return ew.err
	}
	return bw.Flush()
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func writeSnippet(ew *errWriter, p palette, lines []string, d diag.Diagnostic) {
	pos, err := position.Parse(d.Location)
	if err != nil || pos.Line > len(lines) {
		return
	}
	src := strings.ReplaceAll(lines[pos.Line-1], "\t", "    ")
	runes := []rune(lines[pos.Line-1])

	start := min(pos.Column-1, len(runes))
	prefix := strings.ReplaceAll(string(runes[:start]), "\t", "    ")
	end := min(start+max(1, d.Length), len(runes))
	under := runewidth.StringWidth(string(runes[start:end]))
	if under < 1 {
		under = 1
	}

	num := fmt.Sprintf("%d", pos.Line)
	pad := strings.Repeat(" ", len(num))
	ew.printf("  %s %s\n", p.gutter.Sprint(num+" |"), src)
	ew.printf("  %s %s%s\n", p.gutter.Sprint(pad+" |"),
		strings.Repeat(" ", runewidth.StringWidth(prefix)),
		p.caret.Sprint(strings.Repeat("^", under)))
}
