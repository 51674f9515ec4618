package xlsxread

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/billingdash/internal/apperr"
	"github.com/gyeh/billingdash/internal/fixture"
	"github.com/gyeh/billingdash/internal/model"
	"github.com/gyeh/billingdash/internal/normalize"
)

func readAll(t *testing.T, r *Reader) []model.RawRow {
	t.Helper()
	var out []model.RawRow
	buf := make([]model.RawRow, 2)
	for {
		n, err := r.Read(buf)
		out = append(out, buf[:n]...)
		if err == io.EOF {
			return out
		}
		require.NoError(t, err)
	}
}

func TestReaderPrefersResultSheet(t *testing.T) {
	wb := fixture.New(
		fixture.Line{"Procedure_ID": "P1", "Date of Service": "2024-01-15", "Charges": 100.5, "Chart Number": 42},
		fixture.Line{"Procedure_ID": "P1", "Date of Service": "2024-01-15", "Total Payments": 50},
		fixture.Line{"Procedure_ID": "P2", "Date of Service": "2024-02-01"},
	)
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	r, err := OpenReader(&buf)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "result", r.Sheet())
	assert.False(t, r.FellBack())
	assert.Equal(t, model.SheetHeaders(), r.Header())
	require.NoError(t, ValidateHeader(r.Header()))

	rows := readAll(t, r)
	require.Len(t, rows, 3)
	assert.Equal(t, "P1", rows[0].Get("procedure_id"))
	assert.Equal(t, "100.5", rows[0].Get("charges"))
	assert.Equal(t, "42", rows[0].Get("chart_number"))
	assert.Equal(t, "50", rows[1].Get("total_payments"))
	assert.Equal(t, "P2", rows[2].Get("procedure_id"))
	assert.Empty(t, rows[2].Get("charges"))
}

func TestReaderFallsBackToFirstSheet(t *testing.T) {
	wb := fixture.New(fixture.Line{"Procedure_ID": "P1", "Date of Service": "2024-01-15"})
	wb.Sheet = "Export"
	path := filepath.Join(t.TempDir(), "billing.xlsx")
	require.NoError(t, wb.SaveAs(path))

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, "Export", r.Sheet())
	assert.True(t, r.FellBack())
	assert.Len(t, readAll(t, r), 1)
}

func TestReaderSkipsBlankRows(t *testing.T) {
	wb := fixture.New(
		fixture.Line{"Procedure_ID": "P1", "Date of Service": "2024-01-15"},
		fixture.Line{},
		fixture.Line{"Procedure_ID": "P2", "Date of Service": "2024-01-16"},
	)
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	r, err := OpenReader(&buf)
	require.NoError(t, err)
	defer r.Close()

	rows := readAll(t, r)
	require.Len(t, rows, 2)
	assert.Equal(t, "P2", rows[1].Get("procedure_id"))
}

func TestReaderReturnsRawDateSerials(t *testing.T) {
	dos := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	wb := fixture.New(fixture.Line{"Procedure_ID": "P1", "Date of Service": dos})
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	r, err := OpenReader(&buf)
	require.NoError(t, err)
	defer r.Close()

	rows := readAll(t, r)
	require.Len(t, rows, 1)
	assert.Equal(t, "45306", rows[0].Get("date_of_service"))

	got := normalize.ParseDate(rows[0].Get("date_of_service"))
	require.NotNil(t, got)
	assert.True(t, dos.Equal(*got))
}

func TestReaderIgnoresUnknownHeaders(t *testing.T) {
	wb := &fixture.Workbook{
		Sheet:   "result",
		Headers: []string{"Procedure_ID", "Notes", "Date of Service"},
		Lines:   []fixture.Line{{"Procedure_ID": "P1", "Notes": "call back", "Date of Service": "2024-01-15"}},
	}
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	r, err := OpenReader(&buf)
	require.NoError(t, err)
	defer r.Close()

	rows := readAll(t, r)
	require.Len(t, rows, 1)
	assert.Len(t, rows[0], 2)
	assert.Equal(t, "2024-01-15", rows[0].Get("date_of_service"))
}

func TestValidateHeaderMissingColumns(t *testing.T) {
	err := ValidateHeader([]string{"Chart Number", "Charges"})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalid))
	assert.Contains(t, err.Error(), "Procedure_ID")
	assert.Contains(t, err.Error(), "Date of Service")
}

func TestFixtureSyntheticParses(t *testing.T) {
	asOf := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	wb := fixture.New(fixture.Synthetic(20, 7, asOf)...)
	var buf bytes.Buffer
	require.NoError(t, wb.Write(&buf))

	r, err := OpenReader(&buf)
	require.NoError(t, err)
	defer r.Close()

	rows := readAll(t, r)
	require.NotEmpty(t, rows)
	for _, raw := range rows {
		_, err := normalize.ToTransaction(raw)
		require.NoError(t, err)
	}
}
