package internal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/dshills/edulint/internal/analyzer/pycheck"
	"github.com/dshills/edulint/internal/catalog"
	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/engine"
	"github.com/dshills/edulint/internal/marker"
	"github.com/dshills/edulint/internal/pattern"
	"github.com/dshills/edulint/internal/source"
	"github.com/dshills/edulint/internal/structural"
)

func projectRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Dir(filepath.Dir(filename))
}

// goldenCase is the expectation file next to each submission. A nil
// Rules uses the catalog's default pattern rules. Messages are matched
// as prefixes so regex engine wording may vary.
type goldenCase struct {
	Catalog string   `json:"catalog"`
	Disable []string `json:"disable"`
	Rules   *string  `json:"rules"`
	Want    []struct {
		Message  string        `json:"message"`
		Severity diag.Severity `json:"severity"`
		Location string        `json:"location"`
		Source   string        `json:"source"`
	} `json:"want"`
	Counts diag.Counts `json:"counts"`
}

func loadGoldenCase(t *testing.T, path string) goldenCase {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read golden file: %v", err)
	}
	var gc goldenCase
	if err := json.Unmarshal(data, &gc); err != nil {
		t.Fatalf("failed to parse golden JSON: %v", err)
	}
	return gc
}

func TestGoldenSubmissions(t *testing.T) {
	dir := filepath.Join(projectRoot(), "testdata", "golden")
	cases, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cases) == 0 {
		t.Fatal("no golden cases found")
	}

	for _, path := range cases {
		name := strings.TrimSuffix(filepath.Base(path), ".json")
		t.Run(name, func(t *testing.T) {
			gc := loadGoldenCase(t, path)

			src, err := source.Load(filepath.Join(dir, name+".py"))
			if err != nil {
				t.Fatalf("failed to load submission: %v", err)
			}
			cat, err := catalog.Load(gc.Catalog)
			if err != nil {
				t.Fatalf("failed to load catalog: %v", err)
			}
			for _, id := range gc.Disable {
				if !cat.SetEnabled(id, false) {
					t.Fatalf("unknown rule %q in golden case", id)
				}
			}
			rules := cat.DefaultPatternSource()
			if gc.Rules != nil {
				rules = *gc.Rules
			}

			eng := engine.New(cat, structural.NewWith(pycheck.New()), pattern.Options{})
			res, markers := eng.RunWithMarkers(context.Background(), engine.Snapshot{Code: src.Text, Rules: rules})

			if len(res.Diagnostics) != len(gc.Want) {
				t.Fatalf("got %d diagnostics, want %d: %+v", len(res.Diagnostics), len(gc.Want), res.Diagnostics)
			}
			for i, want := range gc.Want {
				got := res.Diagnostics[i]
				if !strings.HasPrefix(got.Message, want.Message) {
					t.Errorf("[%d] message = %q, want prefix %q", i, got.Message, want.Message)
				}
				if got.Severity != want.Severity {
					t.Errorf("[%d] severity = %s, want %s", i, got.Severity, want.Severity)
				}
				if got.Location != want.Location {
					t.Errorf("[%d] location = %s, want %s", i, got.Location, want.Location)
				}
				if got.Source != want.Source {
					t.Errorf("[%d] source = %s, want %s", i, got.Source, want.Source)
				}
			}
			if res.Counts != gc.Counts {
				t.Errorf("counts = %+v, want %+v", res.Counts, gc.Counts)
			}
			if res.Counts != diag.Count(res.Diagnostics) {
				t.Errorf("counts %+v disagree with diagnostics", res.Counts)
			}

			// Every positioned diagnostic becomes exactly one marker.
			positioned := 0
			for _, d := range res.Diagnostics {
				if d.Location != diag.LocationCustom {
					positioned++
				}
			}
			if len(markers) != positioned {
				t.Errorf("got %d markers, want %d", len(markers), positioned)
			}
			for _, m := range markers {
				if m.Level != marker.LevelOf(m.Severity) {
					t.Errorf("marker level %d does not match severity %s", m.Level, m.Severity)
				}
			}

			// A second run over the same input is identical.
			again := eng.Run(context.Background(), engine.Snapshot{Code: src.Text, Rules: rules})
			if len(again.Diagnostics) != len(res.Diagnostics) || again.Counts != res.Counts {
				t.Errorf("second run differs: %+v vs %+v", again, res)
			}
		})
	}
}

func TestGoldenSamplesClean(t *testing.T) {
	names, err := catalog.List()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cat, err := catalog.Load(name)
			if err != nil {
				t.Fatal(err)
			}
			eng := engine.New(cat, structural.NewWith(pycheck.New()), pattern.Options{})
			res := eng.Run(context.Background(), engine.Snapshot{Code: cat.Sample, Rules: cat.DefaultPatternSource()})
			if len(res.Diagnostics) != 0 {
				t.Errorf("sample for %s has diagnostics: %+v", name, res.Diagnostics)
			}
		})
	}
}
