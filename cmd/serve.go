package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/desertthunder/promptlist/internal/auth"
	"github.com/desertthunder/promptlist/internal/metrics"
	"github.com/desertthunder/promptlist/internal/server"
	"github.com/desertthunder/promptlist/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until SIGINT or SIGTERM.
//
// The expired-state sweeper runs for the lifetime of the server. Playlist generation is disabled when no
// Gemini API key is configured.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.config.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := r.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	flow, err := r.newFlow(store)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	var generator services.Generator
	if g, err := r.textGenerator(ctx); err != nil {
		r.logger.Warn("playlist generation disabled", "error", err)
	} else {
		generator = g
	}

	go auth.RunSweeper(ctx, store, r.config.Auth.SweepInterval(), r.logger)

	srv := server.New(server.Deps{
		Flow:      flow,
		Generator: generator,
		Exporter:  r.newEngine(collector, r.logger),
		Metrics:   collector,
		Gatherer:  registry,
		Config:    r.config.Server,
		Export:    r.config.Export,
		Logger:    r.logger,
	})

	r.logger.Info("starting promptlist", "addr", r.config.Server.Addr(), "store", r.config.Auth.Store)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
