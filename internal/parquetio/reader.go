// Package parquetio moves billing data in and out of Parquet files: billing
// lines are read for import, procedure summaries are written for export.
package parquetio

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/gyeh/billingdash/internal/model"
)

// Reader streams TransactionRecords from a Parquet file as RawRows.
type Reader struct {
	file   *os.File
	reader *parquet.GenericReader[TransactionRecord]
	buf    []TransactionRecord
}

// Open opens a Parquet file and returns a streaming Reader.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	r, err := newReader(f, stat.Size())
	if err != nil {
		f.Close()
		return nil, err
	}
	r.file = f
	return r, nil
}

// OpenReaderAt reads a Parquet file from an in-memory source of the given size.
func OpenReaderAt(src io.ReaderAt, size int64) (*Reader, error) {
	return newReader(src, size)
}

func newReader(src io.ReaderAt, size int64) (*Reader, error) {
	pf, err := parquet.OpenFile(src, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	return &Reader{reader: parquet.NewGenericReader[TransactionRecord](pf)}, nil
}

// NumRows returns the total number of rows in the Parquet file.
func (r *Reader) NumRows() int64 {
	return r.reader.NumRows()
}

// Header returns the file's column names.
func (r *Reader) Header() []string {
	fields := r.reader.Schema().Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name()
	}
	return names
}

// Read reads up to len(rows) records into the provided slice.
// Returns the number of rows read and io.EOF when done.
func (r *Reader) Read(rows []model.RawRow) (int, error) {
	if cap(r.buf) < len(rows) {
		r.buf = make([]TransactionRecord, len(rows))
	}
	buf := r.buf[:len(rows)]
	clear(buf)

	n, err := r.reader.Read(buf)
	for i := 0; i < n; i++ {
		rows[i] = buf[i].RawRow()
	}
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("read parquet rows: %w", err)
	}
	return n, err
}

// Close releases all resources.
func (r *Reader) Close() error {
	if err := r.reader.Close(); err != nil {
		if r.file != nil {
			r.file.Close()
		}
		return err
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

// ValidateColumns checks that the file carries every required field, by
// field name, case-insensitively.
func ValidateColumns(names []string) error {
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[strings.ToLower(n)] = true
	}
	var missing []string
	for _, h := range model.RequiredHeaders {
		col, _ := model.SheetColumnByHeader(h)
		if !present[col.Field] {
			missing = append(missing, col.Field)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
