// Package marker projects diagnostics onto editor underline markers.
package marker

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/position"
)

// Level is an editor marker severity. Values match the Monaco editor.
type Level int

const (
	LevelHint    Level = 1
	LevelInfo    Level = 2
	LevelWarning Level = 4
	LevelError   Level = 8
)

// LevelOf maps a diagnostic severity to a marker level. Unknown severities
// are warnings.
func LevelOf(s diag.Severity) Level {
	switch s {
	case diag.SeverityError:
		return LevelError
	case diag.SeverityInfo:
		return LevelInfo
	}
	return LevelWarning
}

// Marker is one inline underline. Markers never span lines.
type Marker struct {
	StartLine   int           `json:"startLineNumber"`
	StartColumn int           `json:"startColumn"`
	EndLine     int           `json:"endLineNumber"`
	EndColumn   int           `json:"endColumn"`
	Message     string        `json:"message"`
	Severity    diag.Severity `json:"-"`
	Level       Level         `json:"severity"`
}

// Build derives markers from diagnostics whose location is "line:column".
// Other diagnostics ("custom" and the like) have no marker. The underline
// covers the match length, or one column when the length is unknown.
func Build(diags []diag.Diagnostic) []Marker {
	out := make([]Marker, 0, len(diags))
	for _, d := range diags {
		pos, err := position.Parse(d.Location)
		if err != nil {
			continue
		}
		out = append(out, Marker{
			StartLine:   pos.Line,
			StartColumn: pos.Column,
			EndLine:     pos.Line,
			EndColumn:   pos.Column + max(1, d.Length),
			Message:     d.Message,
			Severity:    d.Severity,
			Level:       LevelOf(d.Severity),
		})
	}
	return out
}

// WriteFile writes markers as a JSON array to path.
// If there are no markers, no file is created.
func WriteFile(markers []Marker, path string) error {
	if len(markers) == 0 {
		return nil
	}
	data, err := json.MarshalIndent(markers, "", "  ")
	if err != nil {
		return fmt.Errorf("marker.WriteFile: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("marker.WriteFile: %w", err)
	}
	return nil
}
