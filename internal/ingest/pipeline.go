package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/metrics"
	"github.com/gyeh/billingdash/internal/model"
	"github.com/gyeh/billingdash/internal/normalize"
)

// Pipeline phases.
const (
	PhaseParse     = "parse"
	PhaseStage     = "stage"
	PhaseAggregate = "aggregate"
	PhaseFinalize  = "finalize"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Request describes one import of a file already registered as an upload.
type Request struct {
	Path      string
	UploadID  int64
	BatchSize int
}

// Run executes the full import pipeline: parse → stage → aggregate →
// finalize. The upload row is completed on success. On failure, staged
// transactions are removed and the upload is marked failed with the cause.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, req Request) (*model.ImportSummary, error) {
	totalStart := time.Now()
	uploadID := req.UploadID
	summary := &model.ImportSummary{
		FilePath: req.Path,
		UploadID: &uploadID,
		BatchID:  uuid.NewString(),
	}
	log = log.With().Int64("upload_id", uploadID).Str("batch_id", summary.BatchID).Logger()

	err := run(ctx, pool, log, req, summary)
	summary.DurationTotal = time.Since(totalStart)
	if err != nil {
		// Cleanup must run even if the caller's context is gone.
		cctx := context.WithoutCancel(ctx)
		var pe *PipelineError
		if errors.As(err, &pe) && pe.Phase != PhaseParse {
			if cerr := Cleanup(cctx, pool, log, uploadID); cerr != nil {
				log.Error().Err(cerr).Msg("cleanup of staged transactions failed")
			}
		}
		if ferr := FailUpload(cctx, pool, uploadID, errors.Unwrap(err).Error()); ferr != nil {
			log.Error().Err(ferr).Msg("mark upload failed")
		}
		metrics.ObserveImport(string(model.UploadFailed), 0, summary.RowsRejected, summary.DurationTotal)
		log.Error().Err(err).Msg("import failed")
		return nil, err
	}

	if err := CompleteUpload(ctx, pool, uploadID, summary); err != nil {
		return nil, &PipelineError{Phase: PhaseFinalize, Err: err}
	}
	metrics.ObserveImport(string(model.UploadCompleted), summary.RowsImported, summary.RowsRejected, summary.DurationTotal)

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_imported", summary.RowsImported).
		Int64("rows_rejected", summary.RowsRejected).
		Int("procedures", summary.Procedures).
		Int("procedures_new", summary.ProceduresNew).
		Int("procedures_updated", summary.ProceduresUpdate).
		Int("patients", summary.Patients).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("import pipeline complete")

	return summary, nil
}

func run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, req Request, summary *model.ImportSummary) error {
	// Phase 1: Parse
	log.Info().Str("file", req.Path).Msg("opening import file")
	parseStart := time.Now()
	sha, err := normalize.FileHash(req.Path)
	if err != nil {
		return &PipelineError{Phase: PhaseParse, Err: err}
	}
	summary.FileSHA256 = sha

	src, err := OpenSource(req.Path, log)
	if err != nil {
		return &PipelineError{Phase: PhaseParse, Err: err}
	}
	defer src.Close()
	summary.DurationParse = time.Since(parseStart)

	// Phase 2: Stage
	log.Info().Msg("starting staging")
	staged, err := Stage(ctx, pool, log, src, req.UploadID, req.BatchSize)
	if err != nil {
		return &PipelineError{Phase: PhaseStage, Err: err}
	}
	summary.RowsRead = staged.RowsRead
	summary.RowsImported = staged.RowsStaged
	summary.RowsRejected = staged.RowsRejected
	summary.DurationStage = staged.Duration

	// Phase 3: Aggregate
	if err := ctx.Err(); err != nil {
		return &PipelineError{Phase: PhaseAggregate, Err: err}
	}
	summaries := Aggregate(staged.Transactions)
	summary.Procedures = len(summaries)
	summary.Patients = CountPatients(staged.Transactions)
	log.Info().Int("procedures", summary.Procedures).Int("patients", summary.Patients).Msg("aggregation complete")

	// Phase 4: Finalize
	log.Info().Msg("finalizing")
	fin, err := Finalize(ctx, pool, log, summaries)
	if err != nil {
		return &PipelineError{Phase: PhaseFinalize, Err: err}
	}
	summary.ProceduresNew = fin.Inserted
	summary.ProceduresUpdate = fin.Updated
	summary.DurationFinalize = fin.Duration

	return nil
}
