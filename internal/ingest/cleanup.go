package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/db"
	embedsql "github.com/gyeh/billingdash/internal/sql"
)

// Cleanup deletes the transactions staged under an upload that failed.
func Cleanup(ctx context.Context, q db.Querier, log zerolog.Logger, uploadID int64) error {
	start := time.Now()

	tag, err := q.Exec(ctx, embedsql.DeleteUploadTransactions, uploadID)
	if err != nil {
		return err
	}

	log.Info().
		Int64("upload_id", uploadID).
		Int64("rows_deleted", tag.RowsAffected()).
		Dur("duration", time.Since(start)).
		Msg("staged transactions removed")

	return nil
}
