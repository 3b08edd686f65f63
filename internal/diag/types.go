// Package diag defines the diagnostic feed produced by a lint run.
package diag

// Location values that do not point into the buffer.
const (
	LocationCustom = "custom"
	LocationStart  = "1:1"
)

// Diagnostic is one reported issue. It is a value object: producers build
// it once and nothing downstream mutates it.
type Diagnostic struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
	Location string   `json:"location"`
	// Source names the producer: "structural", or the pattern rule id.
	Source string `json:"source,omitempty"`
	// Length is the matched text length in characters, used for markers.
	Length int `json:"length,omitempty"`
}

// Counts holds per-severity totals.
type Counts struct {
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
}

// Of returns the count for a severity.
func (c Counts) Of(s Severity) int {
	switch s {
	case SeverityError:
		return c.Error
	case SeverityWarning:
		return c.Warning
	case SeverityInfo:
		return c.Info
	}
	return 0
}

// Total is the number of counted diagnostics.
func (c Counts) Total() int {
	return c.Error + c.Warning + c.Info
}

// RunResult is the output of one full evaluation of the buffer.
type RunResult struct {
	RunID       uint64       `json:"run_id,omitempty"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Counts      Counts       `json:"counts"`
}

// Worst returns the most severe level present, or "" for an empty result.
func (r *RunResult) Worst() Severity {
	switch {
	case r.Counts.Error > 0:
		return SeverityError
	case r.Counts.Warning > 0:
		return SeverityWarning
	case r.Counts.Info > 0:
		return SeverityInfo
	}
	return ""
}
