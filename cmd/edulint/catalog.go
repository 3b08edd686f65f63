package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/dshills/edulint/internal/analyzer"
	"github.com/dshills/edulint/internal/catalog"
	"github.com/dshills/edulint/internal/config"
	"github.com/dshills/edulint/internal/structural"
)

// catalogFlags selects a catalog and adjusts its rule flags.
type catalogFlags struct {
	name    string
	file    string
	enable  []string
	disable []string
}

func (c *catalogFlags) register(flags *pflag.FlagSet) {
	flags.StringVar(&c.name, "catalog", catalog.Default, "Built-in catalog name (see 'edulint catalogs')")
	flags.StringVar(&c.file, "catalog-file", "", "Load the catalog from a YAML file instead")
	flags.StringSliceVar(&c.enable, "enable", nil, "Rule ids to enable, or 'all'")
	flags.StringSliceVar(&c.disable, "disable", nil, "Rule ids to disable, or 'all'")
}

func (c *catalogFlags) apply(cfg *config.Config) {
	c.name = cfg.Catalog
	c.file = cfg.CatalogFile
	c.enable = cfg.Enable
	c.disable = cfg.Disable
}

// load returns the selected catalog with --disable then --enable applied.
func (c *catalogFlags) load(logger *log.Logger) (*catalog.Catalog, error) {
	var (
		cat *catalog.Catalog
		err error
	)
	if c.file != "" {
		cat, err = catalog.LoadFile(c.file)
	} else {
		cat, err = catalog.Load(c.name)
	}
	if err != nil {
		return nil, err
	}
	if errs := cat.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("catalog %s is invalid: %v", cat.Name, errs[0])
	}
	toggle(cat, c.disable, false, logger)
	toggle(cat, c.enable, true, logger)
	return cat, nil
}

func toggle(cat *catalog.Catalog, ids []string, on bool, logger *log.Logger) {
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if strings.EqualFold(id, "all") {
			cat.SetAll(on)
			continue
		}
		if !cat.SetEnabled(id, on) && logger != nil {
			logger.Printf("Ignoring unknown rule %q", id)
		}
	}
}

// newClient builds the structural client. A non-nil injected analyzer
// bypasses resolution; tests use it.
func newClient(spec string, redact bool, injected analyzer.Analyzer) (*structural.Client, error) {
	if injected != nil {
		return structural.NewWith(injected), nil
	}
	load, err := analyzer.Resolve(spec, analyzer.Options{Redact: redact})
	if err != nil {
		return nil, err
	}
	return structural.New(load), nil
}

func verboseLogger(on bool) *log.Logger {
	if !on {
		return log.New(io.Discard, "", 0)
	}
	return log.New(os.Stderr, "", 0)
}
