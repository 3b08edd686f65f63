package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	// A missing .env is normal.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			fmt.Fprintln(os.Stderr, ee.msg)
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:   "edulint",
		Short: "Lint short instructional Python solutions against rule catalogs",
		Long: `edulint checks a single submission against a catalog of built-in
structural rules plus user-authored pattern rules, and reports one ordered
list of errors, warnings and info notes.

Getting started:
  edulint check solution.py          Lint a file with the default catalog
  edulint check --catalog divisors -  Lint stdin with another catalog
  edulint rules                      List the catalog's built-in rules
  edulint sample > solution.py       Write the catalog's sample solution
  edulint serve                      Serve the HTTP and WebSocket API

Settings can also come from .edulint.yaml or EDULINT_* variables.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: ./.edulint.yaml or $HOME/.edulint.yaml)")

	root.AddCommand(
		newCheckCmd(&cfgFile),
		newRulesCmd(&cfgFile),
		newCatalogsCmd(),
		newSampleCmd(&cfgFile),
		newValidateCmd(),
		newServeCmd(&cfgFile),
	)
	return root
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}
