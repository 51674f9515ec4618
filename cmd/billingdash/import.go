package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/exitcode"
	"github.com/gyeh/billingdash/internal/ingest"
	"github.com/gyeh/billingdash/internal/logging"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a billing workbook (.xlsx) or Parquet file into the database",
	RunE:  runImport,
}

func init() {
	f := importCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to .xlsx or .parquet file (required)")
	f.IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Transactions per staging batch")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateFile(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	stat, err := os.Stat(cfg.FilePath)
	if err != nil {
		log.Error().Err(err).Msg("failed to stat file")
		os.Exit(exitcode.ValidationError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN, cfg.StatementTimeout)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	name := filepath.Base(cfg.FilePath)
	up, err := ingest.CreateUpload(ctx, pool, name, name, stat.Size())
	if err != nil {
		log.Error().Err(err).Msg("record upload failed")
		os.Exit(exitcode.DBConnError)
	}

	summary, err := ingest.Run(ctx, pool, log, ingest.Request{
		Path:      cfg.FilePath,
		UploadID:  up.ID,
		BatchSize: cfg.BatchSize,
	})
	if err != nil {
		var pe *ingest.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("import failed")
			switch pe.Phase {
			case ingest.PhaseParse:
				os.Exit(exitcode.ValidationError)
			case ingest.PhaseStage:
				os.Exit(exitcode.CopyError)
			default:
				os.Exit(exitcode.TransformError)
			}
		}
		log.Error().Err(err).Msg("import failed")
		os.Exit(exitcode.TransformError)
	}

	fmt.Printf("Import complete (upload %d): %d transactions imported, %d rejected, %d procedures (%d new, %d updated), %d patients (%.1fs)\n",
		up.ID, summary.RowsImported, summary.RowsRejected, summary.Procedures, summary.ProceduresNew,
		summary.ProceduresUpdate, summary.Patients, summary.DurationTotal.Seconds())
	return nil
}
