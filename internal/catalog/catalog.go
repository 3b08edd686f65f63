// Package catalog loads built-in rule catalogs and holds their mutable
// enabled flags.
package catalog

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/pattern"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Default is the catalog used when none is named.
const Default = "games"

// Rule is a built-in structural rule. Enabled is the only field that
// changes after load.
type Rule struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Description string        `json:"description" yaml:"description"`
	Severity    diag.Severity `json:"severity" yaml:"severity"`
	Enabled     bool          `json:"enabled" yaml:"enabled"`
}

// file is the on-disk shape. Rules are enabled unless they say otherwise.
type file struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Rules       []struct {
		ID          string `yaml:"id"`
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		Severity    string `yaml:"severity"`
		Enabled     *bool  `yaml:"enabled"`
	} `yaml:"rules"`
	Patterns []pattern.Rule `yaml:"patterns"`
	Sample   string         `yaml:"sample"`
}

// Catalog is one exercise family's rule set. The rule flags are guarded so
// a server can toggle them while runs read the enabled set.
type Catalog struct {
	Name        string
	Description string
	// Patterns is the default pattern-rule set.
	Patterns []pattern.Rule
	// Sample is a reference solution that passes every rule.
	Sample string

	mu    sync.RWMutex
	rules []Rule
}

// Load loads a built-in catalog by name.
func Load(name string) (*Catalog, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: unknown catalog %q: %w", name, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog.Load: parse %q: %w", name, err)
	}
	return c, nil
}

// LoadFile loads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog.LoadFile: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog.LoadFile: parse %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes catalog YAML. Severities are normalized; the result is not
// validated.
func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	c := &Catalog{
		Name:        f.Name,
		Description: strings.TrimSpace(f.Description),
		Patterns:    f.Patterns,
		Sample:      f.Sample,
	}
	for _, r := range f.Rules {
		on := true
		if r.Enabled != nil {
			on = *r.Enabled
		}
		sev := diag.Severity(strings.ToLower(strings.TrimSpace(r.Severity)))
		if r.Severity == "" {
			sev = diag.SeverityWarning
		}
		c.rules = append(c.rules, Rule{
			ID:          r.ID,
			Title:       r.Title,
			Description: r.Description,
			Severity:    sev,
			Enabled:     on,
		})
	}
	return c, nil
}

// List returns the names of all built-in catalogs.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	return names, nil
}

// Rules returns a snapshot of the rules in catalog order.
func (c *Catalog) Rules() []Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Rule(nil), c.rules...)
}

// Rule looks up a rule by id.
func (c *Catalog) Rule(id string) (Rule, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, r := range c.rules {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// EnabledIDs returns the ids of enabled rules in catalog order. The slice
// is never nil.
func (c *Catalog) EnabledIDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		if r.Enabled {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// SetEnabled sets one rule's flag. Unknown ids are ignored; the result
// reports whether id was found.
func (c *Catalog) SetEnabled(id string, on bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.rules {
		if c.rules[i].ID == id {
			c.rules[i].Enabled = on
			return true
		}
	}
	return false
}

// Toggle flips one rule's flag and returns its new state. Unknown ids are
// ignored and report false.
func (c *Catalog) Toggle(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.rules {
		if c.rules[i].ID == id {
			c.rules[i].Enabled = !c.rules[i].Enabled
			return c.rules[i].Enabled
		}
	}
	return false
}

// SetAll enables every rule, or disables every rule when on is false.
func (c *Catalog) SetAll(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.rules {
		c.rules[i].Enabled = on
	}
}

// Clone returns an independent copy, so one session's toggles do not leak
// into another's.
func (c *Catalog) Clone() *Catalog {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return &Catalog{
		Name:        c.Name,
		Description: c.Description,
		Patterns:    append([]pattern.Rule(nil), c.Patterns...),
		Sample:      c.Sample,
		rules:       append([]Rule(nil), c.rules...),
	}
}

// DefaultPatternSource renders the default pattern rules as the initial
// JSON text of the editable rule source.
func (c *Catalog) DefaultPatternSource() string {
	return pattern.FormatSource(c.Patterns)
}
