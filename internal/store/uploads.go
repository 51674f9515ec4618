package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/billingdash/internal/apperr"
	"github.com/gyeh/billingdash/internal/model"
)

const uploadCols = `id, filename, original_filename, file_size, file_sha256, rows_imported,
	procedures_count, patients_count, upload_status, error_message, uploaded_at, processed_at`

func scanUpload(row pgx.Row) (*model.Upload, error) {
	var u model.Upload
	var status string
	err := row.Scan(&u.ID, &u.Filename, &u.OriginalFilename, &u.FileSize, &u.FileSHA256, &u.RowsImported,
		&u.ProceduresCount, &u.PatientsCount, &status, &u.ErrorMessage, &u.UploadedAt, &u.ProcessedAt)
	if err != nil {
		return nil, err
	}
	u.Status = model.UploadStatus(status)
	return &u, nil
}

// ListUploads returns the most recent uploads first.
func (s *Store) ListUploads(ctx context.Context, limit int) ([]*model.Upload, error) {
	rows, err := s.conn().Query(ctx,
		"SELECT "+uploadCols+" FROM uploads ORDER BY uploaded_at DESC, id DESC LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	out := []*model.Upload{}
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUpload returns one upload by id.
func (s *Store) GetUpload(ctx context.Context, id int64) (*model.Upload, error) {
	u, err := scanUpload(s.conn().QueryRow(ctx, "SELECT "+uploadCols+" FROM uploads WHERE id = $1", id))
	if isNoRows(err) {
		return nil, apperr.NotFound("Upload not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get upload: %w", err)
	}
	return u, nil
}

// DeleteUpload removes the upload record and returns it so the caller can
// remove the stored file. Imported transactions are kept and detached.
func (s *Store) DeleteUpload(ctx context.Context, id int64) (*model.Upload, error) {
	u, err := scanUpload(s.conn().QueryRow(ctx, "DELETE FROM uploads WHERE id = $1 RETURNING "+uploadCols, id))
	if isNoRows(err) {
		return nil, apperr.NotFound("Upload not found")
	}
	if err != nil {
		return nil, fmt.Errorf("delete upload: %w", err)
	}
	return u, nil
}
