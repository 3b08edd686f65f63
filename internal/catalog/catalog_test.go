package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/pattern"
)

func TestLoadAll(t *testing.T) {
	names := []string{"games", "divisors"}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			c, err := Load(name)
			if err != nil {
				t.Fatalf("Load(%q): %v", name, err)
			}
			if c.Name != name {
				t.Errorf("got name %q, want %q", c.Name, name)
			}
			if len(c.Rules()) == 0 {
				t.Error("catalog has no rules")
			}
			if len(c.Patterns) == 0 {
				t.Error("catalog has no default pattern rules")
			}
			if strings.TrimSpace(c.Sample) == "" {
				t.Error("catalog has no sample")
			}
			if errs := c.Validate(); len(errs) > 0 {
				t.Errorf("built-in catalog is invalid: %v", errs)
			}
		})
	}
}

func TestLoadNotFound(t *testing.T) {
	if _, err := Load("nonexistent"); err == nil {
		t.Error("expected error for unknown catalog")
	}
}

func TestList(t *testing.T) {
	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	found := map[string]bool{}
	for _, n := range names {
		found[n] = true
	}
	for _, want := range []string{"games", "divisors"} {
		if !found[want] {
			t.Errorf("missing catalog: %s", want)
		}
	}
}

func TestGamesCatalog(t *testing.T) {
	c, err := Load("games")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"require-function", "recursion", "base-case", "no-input", "memo"}
	got := c.EnabledIDs()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got enabled %v, want %v", got, want)
	}
	sev := map[string]diag.Severity{}
	for _, r := range c.Rules() {
		sev[r.ID] = r.Severity
	}
	if sev["recursion"] != diag.SeverityError || sev["base-case"] != diag.SeverityWarning || sev["memo"] != diag.SeverityInfo {
		t.Errorf("unexpected severities: %v", sev)
	}
}

func TestDefaultPatternSource(t *testing.T) {
	c, err := Load("games")
	if err != nil {
		t.Fatal(err)
	}
	src := c.DefaultPatternSource()
	rules, err := pattern.ParseSource(src)
	if err != nil {
		t.Fatalf("default source does not parse: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if rules[0].ID != "no-while" || rules[0].Pattern != `\bwhile\b` {
		t.Errorf("unexpected first rule: %+v", rules[0])
	}
	if rules[1].Severity != diag.SeverityInfo {
		t.Errorf("use-set severity = %s, want info", rules[1].Severity)
	}
}

func TestToggleAndSetEnabled(t *testing.T) {
	c, err := Load("games")
	if err != nil {
		t.Fatal(err)
	}
	if !c.SetEnabled("memo", false) {
		t.Fatal("memo should be known")
	}
	for _, id := range c.EnabledIDs() {
		if id == "memo" {
			t.Error("memo still enabled")
		}
	}
	if on := c.Toggle("memo"); !on {
		t.Error("toggle should re-enable memo")
	}
	if len(c.EnabledIDs()) != 5 {
		t.Errorf("got %d enabled, want 5", len(c.EnabledIDs()))
	}
}

func TestUnknownIDIsNoOp(t *testing.T) {
	c, err := Load("games")
	if err != nil {
		t.Fatal(err)
	}
	before := c.Rules()
	if c.SetEnabled("no-such-rule", false) {
		t.Error("SetEnabled reported an unknown id as found")
	}
	if c.Toggle("no-such-rule") {
		t.Error("Toggle of unknown id should report false")
	}
	after := c.Rules()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("rule %d changed: %+v -> %+v", i, before[i], after[i])
		}
	}
}

func TestCloneIsIndependent(t *testing.T) {
	c, err := Load("games")
	if err != nil {
		t.Fatal(err)
	}
	cp := c.Clone()
	cp.SetAll(false)
	if len(cp.EnabledIDs()) != 0 {
		t.Error("clone should have nothing enabled")
	}
	if len(c.EnabledIDs()) != 5 {
		t.Error("toggling the clone changed the original")
	}
}

func TestEnabledIDsNeverNil(t *testing.T) {
	c, err := Load("divisors")
	if err != nil {
		t.Fatal(err)
	}
	c.SetAll(false)
	if ids := c.EnabledIDs(); ids == nil {
		t.Error("EnabledIDs returned nil")
	}
}

func TestConcurrentToggle(t *testing.T) {
	c, err := Load("games")
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Toggle("memo")
		}()
		go func() {
			defer wg.Done()
			_ = c.EnabledIDs()
		}()
	}
	wg.Wait()
	// An even number of flips leaves the flag where it started.
	if r, _ := c.Rule("memo"); !r.Enabled {
		t.Error("memo should be enabled after 50 toggles")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	data := `name: custom
rules:
  - id: recursion
    title: Recursion
    severity: ERROR
  - id: memo
    title: Caching
    enabled: false
patterns:
  - id: no-global
    message: avoid global
    pattern: '\bglobal\b'
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	rules := c.Rules()
	if rules[0].Severity != diag.SeverityError {
		t.Errorf("severity = %q, want error", rules[0].Severity)
	}
	if rules[1].Severity != diag.SeverityWarning {
		t.Errorf("default severity = %q, want warning", rules[1].Severity)
	}
	if got := c.EnabledIDs(); len(got) != 1 || got[0] != "recursion" {
		t.Errorf("got enabled %v, want [recursion]", got)
	}
	if errs := c.Validate(); len(errs) != 0 {
		t.Errorf("unexpected validation errors: %v", errs)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	c, err := Parse([]byte(`rules:
  - id: a
    title: A
    severity: fatal
  - id: a
  - title: no id
patterns:
  - id: p
    message: m
    pattern: '('
  - id: p
    pattern: 'x'
`))
	if err != nil {
		t.Fatal(err)
	}
	errs := c.Validate()
	want := []string{
		"name",
		"rules[0].severity",
		"rules[1].id",
		"rules[1].title",
		"rules[2].id",
		"patterns[0].pattern",
		"patterns[1].id",
		"patterns[1].message",
	}
	var got []string
	for _, e := range errs {
		got = append(got, e.Path)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("got paths %v\nwant %v", got, want)
	}
}
