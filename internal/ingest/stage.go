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
)

// DefaultBatchSize is the number of transactions committed per COPY.
const DefaultBatchSize = 500

// StageResult holds metrics from the staging phase.
type StageResult struct {
	// Transactions are the accepted rows, in file order, for aggregation.
	Transactions []*model.Transaction
	RowsRead     int64
	RowsStaged   int64
	RowsRejected int64
	Batches      int
	Duration     time.Duration
}

// Stage streams rows from src, normalizes them, and COPY-loads them into the
// transactions table via a channel-backed CopyFromSource. Each batch of
// batchSize rows is its own COPY and commits independently.
func Stage(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, src RowSource, uploadID int64, batchSize int) (*StageResult, error) {
	start := time.Now()
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := make(chan *model.Transaction, batchSize)
	errCh := make(chan error, 1)

	var (
		accepted           []*model.Transaction
		rowsRead, rejected int64
	)

	// Producer goroutine: read file -> normalize -> push to channel
	go func() {
		defer close(ch)
		var err error
		rowsRead, rejected, err = readTransactions(ctx, src, log, func(t *model.Transaction) error {
			t.UploadID = &uploadID
			accepted = append(accepted, t)
			select {
			case ch <- t:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, nil)
		errCh <- err
	}()

	// Consumer: one COPY per batch from the shared channel
	source := db.NewChannelSource(ch, batchSize)
	var (
		rowsStaged int64
		batches    int
		copyErr    error
	)
	for source.NextBatch() {
		n, err := pool.CopyFrom(ctx, pgx.Identifier{"transactions"}, model.TransactionColumns(), source)
		rowsStaged += n
		if err != nil {
			copyErr = err
			cancel()
			break
		}
		if n > 0 {
			batches++
			log.Debug().Int("batch", batches).Int64("rows", n).Msg("batch committed")
		}
	}

	// Wait for producer to finish
	prodErr := <-errCh
	if copyErr != nil {
		return nil, fmt.Errorf("stage copy: %w", copyErr)
	}
	if prodErr != nil {
		return nil, fmt.Errorf("stage producer: %w", prodErr)
	}

	dur := time.Since(start)
	log.Info().
		Int64("rows_read", rowsRead).
		Int64("rows_staged", rowsStaged).
		Int64("rows_rejected", rejected).
		Int("batches", batches).
		Str("duration", dur.String()).
		Float64("rows_per_sec", float64(rowsStaged)/dur.Seconds()).
		Msg("staging complete")

	return &StageResult{
		Transactions: accepted,
		RowsRead:     rowsRead,
		RowsStaged:   rowsStaged,
		RowsRejected: rejected,
		Batches:      batches,
		Duration:     dur,
	}, nil
}
