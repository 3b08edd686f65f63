// Package render formats run results for terminals, Markdown and JSON.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/marker"
)

// Report is one run plus what is needed to present it.
type Report struct {
	File    string
	Catalog string
	// Source is the analyzed buffer, used for snippets.
	Source  string
	Enabled []string
	Result  diag.RunResult
	Markers []marker.Marker
}

// Markdown renders a report as a Markdown document.
func Markdown(r *Report) string {
	var b strings.Builder

	b.WriteString("# edulint Report\n\n")
	if r.File != "" {
		fmt.Fprintf(&b, "**File:** %s\n", r.File)
	}
	if r.Catalog != "" {
		fmt.Fprintf(&b, "**Catalog:** %s\n", r.Catalog)
	}
	c := r.Result.Counts
	fmt.Fprintf(&b, "**Problems:** %d errors, %d warnings, %d info\n\n", c.Error, c.Warning, c.Info)

	sections := []struct {
		sev   diag.Severity
		title string
	}{
		{diag.SeverityError, "Errors"},
		{diag.SeverityWarning, "Warnings"},
		{diag.SeverityInfo, "Info"},
	}
	for _, s := range sections {
		ds := filterDiagnostics(r.Result.Diagnostics, s.sev)
		if len(ds) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", s.title)
		for _, d := range ds {
			renderDiagnostic(&b, d)
		}
		b.WriteString("\n")
	}

	if len(r.Result.Diagnostics) == 0 {
		b.WriteString("No problems found.\n\n")
	}

	if len(r.Enabled) > 0 {
		b.WriteString("## Rules Applied\n\n")
		for _, id := range r.Enabled {
			fmt.Fprintf(&b, "- %s\n", id)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func filterDiagnostics(ds []diag.Diagnostic, sev diag.Severity) []diag.Diagnostic {
	var result []diag.Diagnostic
	for _, d := range ds {
		if d.Severity == sev {
			result = append(result, d)
		}
	}
	return result
}

func renderDiagnostic(b *strings.Builder, d diag.Diagnostic) {
	fmt.Fprintf(b, "- `%s` %s", d.Location, d.Message)
	if d.Source != "" {
		fmt.Fprintf(b, " _(%s)_", d.Source)
	}
	b.WriteString("\n")
}

// jsonReport is the machine-readable output of a run.
type jsonReport struct {
	File    string          `json:"file,omitempty"`
	Catalog string          `json:"catalog,omitempty"`
	Enabled []string        `json:"enabled_rules"`
	Result  diag.RunResult  `json:"result"`
	Markers []marker.Marker `json:"markers,omitempty"`
}

// JSON renders a report as indented JSON.
func JSON(r *Report) ([]byte, error) {
	enabled := r.Enabled
	if enabled == nil {
		enabled = []string{}
	}
	data, err := json.MarshalIndent(jsonReport{
		File:    r.File,
		Catalog: r.Catalog,
		Enabled: enabled,
		Result:  r.Result,
		Markers: r.Markers,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render.JSON: %w", err)
	}
	return append(data, '\n'), nil
}
