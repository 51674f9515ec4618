package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/model"
	embedsql "github.com/gyeh/billingdash/internal/sql"
)

const upsertBatchSize = 500

// FinalizeResult holds metrics from the finalize phase.
type FinalizeResult struct {
	Inserted int
	Updated  int
	Duration time.Duration
}

// Finalize upserts every summary in a single database transaction, so a
// failed import never leaves a partial set of summaries behind.
func Finalize(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, summaries []*model.ProcedureSummary) (*FinalizeResult, error) {
	start := time.Now()
	res := &FinalizeResult{}

	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for lo := 0; lo < len(summaries); lo += upsertBatchSize {
			hi := min(lo+upsertBatchSize, len(summaries))
			if err := upsertSummaries(ctx, tx, summaries[lo:hi], res); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Duration = time.Since(start)
	log.Info().
		Int("inserted", res.Inserted).
		Int("updated", res.Updated).
		Dur("duration", res.Duration).
		Msg("procedure summaries upserted")
	return res, nil
}

func upsertSummaries(ctx context.Context, tx pgx.Tx, summaries []*model.ProcedureSummary, res *FinalizeResult) error {
	batch := &pgx.Batch{}
	for _, s := range summaries {
		batch.Queue(embedsql.UpsertProcedureSummary, upsertArgs(s)...)
	}

	br := tx.SendBatch(ctx, batch)
	for _, s := range summaries {
		var inserted bool
		if err := br.QueryRow().Scan(&inserted); err != nil {
			br.Close()
			return fmt.Errorf("upsert procedure %s: %w", s.ProcedureID, err)
		}
		if inserted {
			res.Inserted++
		} else {
			res.Updated++
		}
	}
	return br.Close()
}

func upsertArgs(s *model.ProcedureSummary) []any {
	return []any{
		s.ProcedureID, s.ChartNumber, s.DateOfService, s.SurgeryType, s.TypeCode,
		s.PrimaryCarrier, s.SecondaryCarrier, s.FacilityName, s.ProviderProfile,
		model.Numeric(s.TotalCharges), model.Numeric(s.TotalPayments), model.Numeric(s.TotalAdjustments),
		model.Numeric(s.PatientPayments), model.Numeric(s.InsurancePayments),
		model.Numeric(s.ProFeeCharges), model.Numeric(s.ProFeePayments),
		model.Numeric(s.FacilityFeeCharges), model.Numeric(s.FacilityFeePayments),
		s.FirstChargeDate, s.FirstPaymentDate, s.LastPaymentDate, s.DaysToFirstPayment,
		model.Numeric(s.CollectionRate), string(s.Status),
	}
}
