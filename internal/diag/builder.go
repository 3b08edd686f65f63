package diag

// Builder accumulates diagnostics and keeps Counts in lockstep with the
// list. Severity is normalized on append so an unset or unknown level is
// both stored and counted as warning.
type Builder struct {
	diags  []Diagnostic
	counts Counts
}

// Add appends one diagnostic.
func (b *Builder) Add(d Diagnostic) {
	if !d.Severity.Valid() {
		d.Severity = SeverityWarning
	}
	if d.Location == "" {
		d.Location = LocationStart
	}
	b.diags = append(b.diags, d)
	switch d.Severity {
	case SeverityError:
		b.counts.Error++
	case SeverityWarning:
		b.counts.Warning++
	case SeverityInfo:
		b.counts.Info++
	}
}

// AddAll appends diagnostics in order.
func (b *Builder) AddAll(ds []Diagnostic) {
	for _, d := range ds {
		b.Add(d)
	}
}

// Error appends an error-severity diagnostic at loc.
func (b *Builder) Error(loc, message string) {
	b.Add(Diagnostic{Message: message, Severity: SeverityError, Location: loc})
}

// Len reports how many diagnostics have been added.
func (b *Builder) Len() int { return len(b.diags) }

// Result returns the accumulated feed. The builder must not be reused.
func (b *Builder) Result() RunResult {
	diags := b.diags
	if diags == nil {
		diags = []Diagnostic{}
	}
	return RunResult{Diagnostics: diags, Counts: b.counts}
}

// Count recomputes per-severity totals from a list. The engine never uses
// it to build results; it exists to check the lockstep invariant.
func Count(ds []Diagnostic) Counts {
	var c Counts
	for _, d := range ds {
		switch d.Severity {
		case SeverityError:
			c.Error++
		case SeverityWarning:
			c.Warning++
		case SeverityInfo:
			c.Info++
		}
	}
	return c
}
