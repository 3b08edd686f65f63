package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/edulint/internal/analyzer"
	"github.com/dshills/edulint/internal/config"
	"github.com/dshills/edulint/internal/diag"
	"github.com/dshills/edulint/internal/engine"
	"github.com/dshills/edulint/internal/marker"
	"github.com/dshills/edulint/internal/pattern"
	"github.com/dshills/edulint/internal/render"
	"github.com/dshills/edulint/internal/source"
)

type checkFlags struct {
	catalog      catalogFlags
	rulesPath    string
	analyzerSpec string
	format       string
	out          string
	markersOut   string
	failOn       string
	matchTimeout time.Duration
	redact       bool
	color        string
	snippets     bool
	verbose      bool

	// analyzer overrides analyzerSpec when set.
	analyzer analyzer.Analyzer
	stdout   io.Writer
}

func (f *checkFlags) apply(cfg *config.Config) {
	f.catalog.apply(cfg)
	f.rulesPath = cfg.Rules
	f.analyzerSpec = cfg.Analyzer
	f.format = cfg.Format
	f.failOn = cfg.FailOn
	f.matchTimeout = cfg.MatchTimeout
	f.redact = cfg.Redact
	f.color = cfg.Color
}

func newCheckCmd(cfgFile *string) *cobra.Command {
	f := &checkFlags{}

	cmd := &cobra.Command{
		Use:   "check [file|-]",
		Short: "Lint a submission and report diagnostics",
		Long: `Lint a submission (a file, or stdin when the argument is "-" or missing)
with the enabled built-in rules and the pattern rules.

Exit codes: 0 ok, 2 --fail-on threshold met, 3 bad input or configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return exitError(3, "failed to load config: %v", err)
			}
			f.apply(cfg)
			path := source.Stdin
			if len(args) == 1 {
				path = args[0]
			}
			f.stdout = cmd.OutOrStdout()
			return runCheck(cmd.Context(), path, f)
		},
	}

	flags := cmd.Flags()
	f.catalog.register(flags)
	flags.StringVar(&f.rulesPath, "rules", "", "Pattern rules JSON file (default: the catalog's pattern rules)")
	flags.StringVar(&f.analyzerSpec, "analyzer", "builtin", "Structural analyzer: builtin, none, exec:<command> or an http(s) URL")
	flags.StringVar(&f.format, "format", "text", "Output format: text, json or md")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.markersOut, "markers-out", "", "Write editor markers as JSON to this path")
	flags.StringVar(&f.failOn, "fail-on", "", "Exit 2 if a diagnostic at or above this severity is reported: error, warning or info")
	flags.DurationVar(&f.matchTimeout, "match-timeout", 0, "Per-rule pattern match time limit (0 = none)")
	flags.BoolVar(&f.redact, "redact", false, "Redact secrets before sending source to a remote analyzer")
	flags.StringVar(&f.color, "color", "auto", `Colored output: "auto", "always" or "never"`)
	flags.BoolVar(&f.snippets, "snippets", true, "Show the source line under each text diagnostic")
	flags.BoolVar(&f.verbose, "verbose", false, "Print processing steps to stderr")

	return cmd
}

func runCheck(ctx context.Context, path string, f *checkFlags) error {
	logger := verboseLogger(f.verbose)
	stdout := f.stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	// Reject bad options before doing any work.
	format := strings.ToLower(f.format)
	switch format {
	case "text", "json", "md":
	default:
		return exitError(3, "unknown format: %s", f.format)
	}
	threshold, err := parseFailOn(f.failOn)
	if err != nil {
		return exitError(3, "%v", err)
	}
	useColor, err := colorEnabled(f.color, f.out != "")
	if err != nil {
		return exitError(3, "%v", err)
	}

	// 1. Load submission
	logger.Printf("Loading source: %s", path)
	src, err := source.Load(path)
	if err != nil {
		return exitError(3, "failed to load source: %v", err)
	}

	// 2. Load catalog
	cat, err := f.catalog.load(logger)
	if err != nil {
		return exitError(3, "failed to load catalog: %v", err)
	}
	logger.Printf("Catalog %s: %d of %d rules enabled", cat.Name, len(cat.EnabledIDs()), len(cat.Rules()))

	// 3. Pattern rules
	rules := cat.DefaultPatternSource()
	if f.rulesPath != "" {
		logger.Printf("Loading pattern rules: %s", f.rulesPath)
		data, err := os.ReadFile(f.rulesPath)
		if err != nil {
			return exitError(3, "failed to load pattern rules: %v", err)
		}
		rules = string(data)
	}

	// 4. Analyzer
	client, err := newClient(f.analyzerSpec, f.redact, f.analyzer)
	if err != nil {
		return exitError(3, "analyzer error: %v", err)
	}

	// 5. Run
	eng := engine.New(cat, client, pattern.Options{MatchTimeout: f.matchTimeout})
	res, markers := eng.RunWithMarkers(ctx, engine.Snapshot{Code: src.Text, Rules: rules})
	logger.Printf("Found %d errors, %d warnings, %d info", res.Counts.Error, res.Counts.Warning, res.Counts.Info)

	// 6. Output
	rep := &render.Report{
		File:    filepath.Base(src.Path),
		Catalog: cat.Name,
		Source:  src.Text,
		Enabled: cat.EnabledIDs(),
		Result:  res,
		Markers: markers,
	}
	w := stdout
	if f.out != "" {
		file, err := os.Create(f.out)
		if err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		defer file.Close()
		w = file
		logger.Printf("Writing output to %s", f.out)
	}
	switch format {
	case "text":
		err = render.Text(w, rep, render.TextOptions{Color: useColor, Snippets: f.snippets})
	case "json":
		var data []byte
		data, err = render.JSON(rep)
		if err == nil {
			_, err = w.Write(data)
		}
	case "md":
		_, err = io.WriteString(w, render.Markdown(rep))
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	// 7. Markers
	if f.markersOut != "" {
		logger.Printf("Writing markers to %s", f.markersOut)
		if err := marker.WriteFile(markers, f.markersOut); err != nil {
			return fmt.Errorf("failed to write markers: %w", err)
		}
	}

	// 8. Exit code based on --fail-on
	if threshold != "" && meetsThreshold(&res, threshold) {
		return exitError(2, "found %s diagnostics at or above %s", res.Worst(), threshold)
	}
	return nil
}

// parseFailOn validates a --fail-on value. Empty disables the check.
func parseFailOn(s string) (diag.Severity, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if s == "warn" {
		s = string(diag.SeverityWarning)
	}
	sev := diag.Severity(s)
	if !sev.Valid() {
		return "", fmt.Errorf("unknown --fail-on level %q (want error, warning or info)", s)
	}
	return sev, nil
}

func meetsThreshold(res *diag.RunResult, threshold diag.Severity) bool {
	worst := res.Worst()
	return worst != "" && worst.Rank() <= threshold.Rank()
}

func colorEnabled(mode string, toFile bool) (bool, error) {
	switch strings.ToLower(mode) {
	case "always":
		return true, nil
	case "never":
		return false, nil
	case "", "auto":
		return !toFile && !color.NoColor, nil
	}
	return false, fmt.Errorf("unknown --color mode %q (want auto, always or never)", mode)
}
