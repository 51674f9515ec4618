package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/apperr"
	"github.com/gyeh/billingdash/internal/model"
	"github.com/gyeh/billingdash/internal/normalize"
	"github.com/gyeh/billingdash/internal/parquetio"
	"github.com/gyeh/billingdash/internal/xlsxread"
)

const readBatchSize = 1024

// RowSource streams raw rows from an import file.
type RowSource interface {
	Header() []string
	Read(rows []model.RawRow) (int, error)
	Close() error
}

// Workbook extensions accepted for upload.
var WorkbookExtensions = []string{".xlsx", ".xls"}

// IsWorkbook reports whether name has a workbook extension.
func IsWorkbook(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range WorkbookExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// OpenSource opens path as a workbook or a Parquet file, by extension, and
// checks that the required columns are present.
func OpenSource(path string, log zerolog.Logger) (RowSource, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case IsWorkbook(path):
		r, err := xlsxread.Open(path)
		if err != nil {
			return nil, err
		}
		if r.FellBack() {
			log.Warn().
				Str("sheet", r.Sheet()).
				Str("preferred", xlsxread.PreferredSheet).
				Msg("preferred sheet not found, reading first sheet")
		}
		if err := xlsxread.ValidateHeader(r.Header()); err != nil {
			r.Close()
			return nil, err
		}
		return r, nil

	case ext == ".parquet":
		r, err := parquetio.Open(path)
		if err != nil {
			return nil, err
		}
		if err := parquetio.ValidateColumns(r.Header()); err != nil {
			r.Close()
			return nil, apperr.Invalid("%s", err)
		}
		return r, nil

	default:
		return nil, apperr.Invalid("unsupported file type %q", ext)
	}
}

// readTransactions coerces every row of src and hands accepted transactions
// to fn. Rejected rows are logged, counted and passed to onReject if set.
func readTransactions(ctx context.Context, src RowSource, log zerolog.Logger, fn func(*model.Transaction) error, onReject func(error)) (read, rejected int64, err error) {
	buf := make([]model.RawRow, readBatchSize)
	for {
		n, readErr := src.Read(buf)
		for i := 0; i < n; i++ {
			read++
			txn, normErr := normalize.ToTransaction(buf[i])
			if normErr != nil {
				rejected++
				log.Warn().Err(normErr).Int64("row", read).Msg("row rejected")
				if onReject != nil {
					onReject(normErr)
				}
				continue
			}
			if err := fn(txn); err != nil {
				return read, rejected, err
			}
		}
		if readErr == io.EOF {
			return read, rejected, nil
		}
		if readErr != nil {
			return read, rejected, fmt.Errorf("read at row %d: %w", read, readErr)
		}
		if err := ctx.Err(); err != nil {
			return read, rejected, err
		}
	}
}
