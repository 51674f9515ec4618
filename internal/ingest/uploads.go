package ingest

import (
	"context"
	"fmt"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/model"
	embedsql "github.com/gyeh/billingdash/internal/sql"
)

// CreateUpload records a new upload in the processing state.
func CreateUpload(ctx context.Context, q db.Querier, storedName, originalName string, size int64) (*model.Upload, error) {
	u := &model.Upload{
		Filename:         storedName,
		OriginalFilename: originalName,
		FileSize:         size,
		Status:           model.UploadProcessing,
	}
	if err := q.QueryRow(ctx, embedsql.InsertUpload, storedName, originalName, size).Scan(&u.ID, &u.UploadedAt); err != nil {
		return nil, fmt.Errorf("insert upload: %w", err)
	}
	return u, nil
}

// CompleteUpload marks an upload completed with the import's counts.
func CompleteUpload(ctx context.Context, q db.Querier, uploadID int64, s *model.ImportSummary) error {
	_, err := q.Exec(ctx, embedsql.CompleteUpload,
		uploadID, s.FileSHA256, s.RowsImported, s.Procedures, s.Patients)
	if err != nil {
		return fmt.Errorf("complete upload %d: %w", uploadID, err)
	}
	return nil
}

// FailUpload marks an upload failed with the cause message.
func FailUpload(ctx context.Context, q db.Querier, uploadID int64, cause string) error {
	if _, err := q.Exec(ctx, embedsql.FailUpload, uploadID, cause); err != nil {
		return fmt.Errorf("fail upload %d: %w", uploadID, err)
	}
	return nil
}
