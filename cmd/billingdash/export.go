package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/exitcode"
	"github.com/gyeh/billingdash/internal/logging"
	"github.com/gyeh/billingdash/internal/model"
	"github.com/gyeh/billingdash/internal/parquetio"
	"github.com/gyeh/billingdash/internal/store"
)

const exportChunk = 1000

var exportFlags struct {
	dateFrom, dateTo  string
	patientID         int64
	typeCode, carrier string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write procedure summaries to a Parquet file",
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&cfg.OutPath, "out", "", "Output .parquet path (required)")
	f.StringVar(&exportFlags.dateFrom, "date-from", "", "Earliest date of service (YYYY-MM-DD)")
	f.StringVar(&exportFlags.dateTo, "date-to", "", "Latest date of service (YYYY-MM-DD)")
	f.Int64Var(&exportFlags.patientID, "patient-id", 0, "Only this chart number")
	f.StringVar(&exportFlags.typeCode, "type-code", "", "Only this surgery type code")
	f.StringVar(&exportFlags.carrier, "carrier", "", "Only this primary carrier")
	_ = exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

func exportFilter(cmd *cobra.Command) (model.Filter, error) {
	var f model.Filter
	for _, d := range []struct {
		flag, value string
		dst         **time.Time
	}{
		{"date-from", exportFlags.dateFrom, &f.DateFrom},
		{"date-to", exportFlags.dateTo, &f.DateTo},
	} {
		if d.value == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", d.value)
		if err != nil {
			return f, fmt.Errorf("--%s: %w", d.flag, err)
		}
		*d.dst = &t
	}
	if cmd.Flags().Changed("patient-id") {
		f.PatientID = &exportFlags.patientID
	}
	if exportFlags.typeCode != "" {
		f.TypeCode = &exportFlags.typeCode
	}
	if exportFlags.carrier != "" {
		f.Carrier = &exportFlags.carrier
	}
	return f, nil
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}
	filter, err := exportFilter(cmd)
	if err != nil {
		log.Error().Err(err).Msg("invalid filter")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN, cfg.StatementTimeout)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	start := time.Now()
	count, err := export(ctx, store.New(pool), filter, cfg.OutPath)
	if err != nil {
		log.Error().Err(err).Str("out", cfg.OutPath).Msg("export failed")
		os.Remove(cfg.OutPath)
		os.Exit(exitcode.ExportError)
	}

	fmt.Printf("Export complete: %d procedures written to %s (%.1fs)\n",
		count, cfg.OutPath, time.Since(start).Seconds())
	return nil
}

func export(ctx context.Context, s *store.Store, filter model.Filter, path string) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create output: %w", err)
	}
	defer out.Close()

	pw := parquetio.NewProcedureWriter(out)
	if err := s.EachProcedure(ctx, filter, exportChunk, pw.Write); err != nil {
		pw.Close()
		return 0, err
	}
	if err := pw.Close(); err != nil {
		return 0, err
	}
	return pw.Count(), out.Close()
}
