package catalog

import (
	"fmt"

	"github.com/dshills/edulint/internal/pattern"
)

// ValidationError describes a single catalog problem.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a catalog for structural validity.
func (c *Catalog) Validate() []ValidationError {
	var errs []ValidationError

	if c.Name == "" {
		errs = append(errs, ValidationError{"name", "required"})
	}

	ids := make(map[string]bool)
	for i, r := range c.Rules() {
		prefix := fmt.Sprintf("rules[%d]", i)
		if r.ID == "" {
			errs = append(errs, ValidationError{prefix + ".id", "required"})
		} else if ids[r.ID] {
			errs = append(errs, ValidationError{prefix + ".id", fmt.Sprintf("duplicate ID: %q", r.ID)})
		} else {
			ids[r.ID] = true
		}
		if r.Title == "" {
			errs = append(errs, ValidationError{prefix + ".title", "required"})
		}
		if !r.Severity.Valid() {
			errs = append(errs, ValidationError{prefix + ".severity", fmt.Sprintf("invalid: %q", r.Severity)})
		}
	}

	errs = append(errs, ValidatePatterns("patterns", c.Patterns)...)
	return errs
}

// ValidatePatterns checks a pattern-rule list. Unlike evaluation, which
// skips incomplete rules silently, every rule must carry a message and a
// compilable pattern.
func ValidatePatterns(prefix string, rules []pattern.Rule) []ValidationError {
	var errs []ValidationError
	ids := make(map[string]bool)
	for i, r := range rules {
		p := fmt.Sprintf("%s[%d]", prefix, i)
		if r.ID != "" {
			if ids[r.ID] {
				errs = append(errs, ValidationError{p + ".id", fmt.Sprintf("duplicate ID: %q", r.ID)})
			}
			ids[r.ID] = true
		}
		if r.Message == "" {
			errs = append(errs, ValidationError{p + ".message", "required"})
		}
		if r.Pattern == "" {
			errs = append(errs, ValidationError{p + ".pattern", "required"})
			continue
		}
		if r.Severity != "" && !r.Severity.Valid() {
			errs = append(errs, ValidationError{p + ".severity", fmt.Sprintf("invalid: %q", r.Severity)})
		}
		if _, err := pattern.Compile(r, pattern.Options{}); err != nil {
			errs = append(errs, ValidationError{p + ".pattern", err.Error()})
		}
	}
	return errs
}
