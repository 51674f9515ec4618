package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/exitcode"
	"github.com/gyeh/billingdash/internal/httpapi"
	"github.com/gyeh/billingdash/internal/logging"
)

const shutdownTimeout = 10 * time.Second

var autoMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analytics HTTP API",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&cfg.Listen, "listen", cfg.Listen, "Listen address (or set LISTEN_ADDR)")
	f.BoolVar(&autoMigrate, "migrate", true, "Apply migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logging.WithDebug(logging.Setup(cfg.LogFormat), cfg.Debug)

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DSN, cfg.StatementTimeout)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	if autoMigrate {
		if err := db.ApplyMigrations(ctx, pool, log); err != nil {
			log.Error().Err(err).Msg("migration failed")
			os.Exit(exitcode.TransformError)
		}
	}

	app := httpapi.New(cfg, pool, log, nil).App()
	errc := make(chan error, 1)
	go func() {
		errc <- app.Listen(cfg.Listen)
	}()
	log.Info().
		Str("listen", cfg.Listen).
		Str("upload_dir", cfg.UploadDir).
		Int("rate_limit", cfg.RateLimit).
		Msg("serving")

	select {
	case err := <-errc:
		log.Error().Err(err).Msg("server stopped")
		os.Exit(exitcode.ServeError)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		return err
	}
	return nil
}
