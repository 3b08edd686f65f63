package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/edulint/internal/catalog"
	"github.com/dshills/edulint/internal/config"
	"github.com/dshills/edulint/internal/pattern"
)

func newRulesCmd(cfgFile *string) *cobra.Command {
	var (
		cf     catalogFlags
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the built-in rules of a catalog and whether they are enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return exitError(3, "failed to load config: %v", err)
			}
			cf.apply(cfg)
			cat, err := cf.load(verboseLogger(true))
			if err != nil {
				return exitError(3, "failed to load catalog: %v", err)
			}
			if asJSON {
				return writeRulesJSON(cmd.OutOrStdout(), cat)
			}
			return writeRules(cmd.OutOrStdout(), cat)
		},
	}
	cf.register(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print rules as JSON")
	return cmd
}

func writeRules(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Catalog: %s\n\n", cat.Name)
	for _, r := range cat.Rules() {
		mark := " "
		if r.Enabled {
			mark = "x"
		}
		fmt.Fprintf(tw, "[%s]\t%s\t%s\t%s\n", mark, r.ID, r.Severity, r.Title)
	}
	if len(cat.Patterns) > 0 {
		fmt.Fprintf(tw, "\nDefault pattern rules:\n\n")
		for _, p := range cat.Patterns {
			sev := p.Severity
			if sev == "" {
				sev = "warning"
			}
			fmt.Fprintf(tw, "\t%s\t%s\t%s\n", p.Label(), sev, p.Message)
		}
	}
	return tw.Flush()
}

func writeRulesJSON(w io.Writer, cat *catalog.Catalog) error {
	out := struct {
		Catalog  string         `json:"catalog"`
		Rules    []catalog.Rule `json:"rules"`
		Patterns []pattern.Rule `json:"pattern_rules"`
	}{cat.Name, cat.Rules(), cat.Patterns}
	if out.Patterns == nil {
		out.Patterns = []pattern.Rule{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func newCatalogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List the built-in catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := catalog.List()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range names {
				cat, err := catalog.Load(name)
				if err != nil {
					return err
				}
				desc, _, _ := strings.Cut(cat.Description, ".")
				fmt.Fprintf(tw, "%s\t%d rules\t%s\n", name, len(cat.Rules()), desc)
			}
			return tw.Flush()
		},
	}
}

func newSampleCmd(cfgFile *string) *cobra.Command {
	var (
		cf    catalogFlags
		rules bool
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print the catalog's sample solution, or its default pattern rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return exitError(3, "failed to load config: %v", err)
			}
			cf.apply(cfg)
			cat, err := cf.load(nil)
			if err != nil {
				return exitError(3, "failed to load catalog: %v", err)
			}
			text := cat.Sample
			if rules {
				text = cat.DefaultPatternSource() + "\n"
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
	cf.register(cmd.Flags())
	cmd.Flags().BoolVar(&rules, "rules", false, "Print the default pattern rules JSON instead")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <rules.json|catalog.yaml>",
		Short: "Check a pattern-rule file or a catalog file for mistakes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.OutOrStdout(), args[0])
		},
	}
}

func runValidate(w io.Writer, path string) error {
	var (
		errs  []catalog.ValidationError
		count int
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		cat, err := catalog.LoadFile(path)
		if err != nil {
			return exitError(3, "%v", err)
		}
		errs = cat.Validate()
		count = len(cat.Rules()) + len(cat.Patterns)
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return exitError(3, "failed to read %s: %v", path, err)
		}
		rules, err := pattern.ParseSource(string(data))
		if err != nil {
			return exitError(3, "%s: %v", path, err)
		}
		errs = catalog.ValidatePatterns("rules", rules)
		count = len(rules)
	}

	if len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(w, "  %s\n", e)
		}
		return exitError(3, "%s: %d problems found", path, len(errs))
	}
	fmt.Fprintf(w, "%s: %d rules OK\n", path, count)
	return nil
}
