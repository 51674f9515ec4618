package xlsxread

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/billingdash/internal/model"
)

// PreferredSheet is read when present; otherwise the first sheet is used.
const PreferredSheet = "result"

// Reader streams data rows of one workbook sheet as RawRows keyed by field name.
type Reader struct {
	file     *excelize.File
	rows     *excelize.Rows
	sheet    string
	fallback bool
	header   []string
	fields   []string // header index -> field name, "" when unmapped
}

// Open opens a workbook on disk and positions the reader after the header row.
func Open(path string) (*Reader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return newReader(f)
}

// OpenReader opens a workbook from an in-memory stream.
func OpenReader(r io.Reader) (*Reader, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return newReader(f)
}

func newReader(f *excelize.File) (*Reader, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("workbook has no sheets")
	}

	r := &Reader{file: f, sheet: sheets[0], fallback: true}
	for _, s := range sheets {
		if s == PreferredSheet {
			r.sheet = s
			r.fallback = false
			break
		}
	}

	rows, err := f.Rows(r.sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open sheet %q: %w", r.sheet, err)
	}
	r.rows = rows

	if !rows.Next() {
		r.Close()
		return nil, fmt.Errorf("sheet %q has no header row", r.sheet)
	}
	header, err := rows.Columns()
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}

	r.header = make([]string, len(header))
	r.fields = make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		r.header[i] = h
		if col, ok := model.SheetColumnByHeader(h); ok {
			r.fields[i] = col.Field
		}
	}
	return r, nil
}

// Sheet returns the sheet being read.
func (r *Reader) Sheet() string {
	return r.sheet
}

// FellBack reports whether the preferred sheet was missing.
func (r *Reader) FellBack() bool {
	return r.fallback
}

// Header returns the trimmed header row.
func (r *Reader) Header() []string {
	return r.header
}

// Read reads up to len(rows) data rows into the provided slice, skipping
// fully blank rows. Returns the number of rows read and io.EOF when done.
func (r *Reader) Read(rows []model.RawRow) (int, error) {
	n := 0
	for n < len(rows) {
		if !r.rows.Next() {
			if err := r.rows.Error(); err != nil {
				return n, fmt.Errorf("read sheet rows: %w", err)
			}
			return n, io.EOF
		}
		cells, err := r.rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return n, fmt.Errorf("read sheet row: %w", err)
		}
		raw := make(model.RawRow, len(cells))
		blank := true
		for i, v := range cells {
			if i >= len(r.fields) || r.fields[i] == "" {
				continue
			}
			if strings.TrimSpace(v) != "" {
				blank = false
			}
			raw[r.fields[i]] = v
		}
		if blank {
			continue
		}
		rows[n] = raw
		n++
	}
	return n, nil
}

// Close releases all resources.
func (r *Reader) Close() error {
	if r.rows != nil {
		if err := r.rows.Close(); err != nil {
			r.file.Close()
			return err
		}
	}
	return r.file.Close()
}
