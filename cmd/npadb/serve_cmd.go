package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/natashamoorfield/npm-npadb-admin/internal/lgro"
	"github.com/natashamoorfield/npm-npadb-admin/internal/web"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve read-only reorganization previews over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runServe(cmd.Context())
		},
	}
}

func (a *app) runServe(ctx context.Context) error {
	sess, err := a.open(ctx)
	if err != nil {
		return withCode(exitFatal, err)
	}
	defer sess.Close()

	metrics := lgro.NewMetrics()
	server := web.NewServer(web.Deps{
		Planner: &lgro.Planner{
			Lookup:   sess.Store,
			DataRoot: a.cfg.Data.Root,
			Logger:   a.logger,
			Metrics:  metrics,
		},
		Tables:   sess.Store,
		DB:       sess.DB,
		Gatherer: metrics.Registry(),
	}, a.cfg.Server)

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return withCode(exitFatal, err)
		}
		return nil
	case <-sigCtx.Done():
	}

	a.logger.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return withCode(exitFatal, err)
	}
	return nil
}
