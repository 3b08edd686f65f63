package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/edulint/internal/analyzer"
	"github.com/dshills/edulint/internal/config"
	"github.com/dshills/edulint/internal/pattern"
	"github.com/dshills/edulint/internal/server"
)

func newServeCmd(cfgFile *string) *cobra.Command {
	var (
		cf           catalogFlags
		addr         string
		analyzerSpec string
		matchTimeout time.Duration
		redact       bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lint API over HTTP and WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*cfgFile, cmd.Flags())
			if err != nil {
				return exitError(3, "failed to load config: %v", err)
			}
			cf.apply(cfg)
			logger := log.New(os.Stderr, "", log.LstdFlags)

			cat, err := cf.load(logger)
			if err != nil {
				return exitError(3, "failed to load catalog: %v", err)
			}
			client, err := newClient(cfg.Analyzer, cfg.Redact, nil)
			if err != nil {
				return exitError(3, "analyzer error: %v", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Load the analyzer up front so the first edit is not slow.
			go func() {
				a, err := client.Prime(ctx)
				if err != nil {
					logger.Printf("analyzer not ready, will retry on first run: %v", err)
					return
				}
				logger.Printf("analyzer ready: %s", analyzer.Name(a))
			}()

			h := server.NewHandler(cat, client, pattern.Options{MatchTimeout: cfg.MatchTimeout})
			srv := server.New(cfg.Addr, server.NewMux(h))

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if err != nil {
					return exitError(1, "server failed: %v", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			logger.Printf("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cf.register(cmd.Flags())
	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	flags.StringVar(&analyzerSpec, "analyzer", "builtin", "Structural analyzer: builtin, none, exec:<command> or an http(s) URL")
	flags.DurationVar(&matchTimeout, "match-timeout", 0, "Per-rule pattern match time limit (0 = none)")
	flags.BoolVar(&redact, "redact", false, "Redact secrets before sending source to a remote analyzer")
	return cmd
}
