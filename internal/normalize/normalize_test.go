package normalize

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/billingdash/internal/model"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$1,234.50", "1234.5"},
		{" 99 ", "99"},
		{"-12.345", "-12.35"},
		{"", "0"},
		{"nan", "0"},
		{"abc", "0"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got := ParseMoney(tc.in)
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)), "got %s want %s", got, tc.want)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2024-01-15", "01/15/2024", "1/15/2024", "2024-01-15 13:45:00", "45306"} {
		t.Run(in, func(t *testing.T) {
			got := ParseDate(in)
			require.NotNil(t, got)
			assert.True(t, got.Equal(want), "got %v", got)
		})
	}

	for _, in := range []string{"", "nan", "NaT", "not a date", "-3"} {
		assert.Nil(t, ParseDate(in), "input %q", in)
	}
}

func TestCleanString(t *testing.T) {
	assert.Nil(t, CleanString(""))
	assert.Nil(t, CleanString("   "))
	assert.Nil(t, CleanString("nan"))
	got := CleanString("  Blue Cross ")
	require.NotNil(t, got)
	assert.Equal(t, "Blue Cross", *got)
}

func TestParseInt(t *testing.T) {
	got := ParseInt("1001.0")
	require.NotNil(t, got)
	assert.Equal(t, int64(1001), *got)

	got = ParseInt("42")
	require.NotNil(t, got)
	assert.Equal(t, int64(42), *got)

	assert.Nil(t, ParseInt(""))
	assert.Nil(t, ParseInt("n/a"))
}

func TestParseBool(t *testing.T) {
	for _, in := range []string{"1", "TRUE", "yes", "x"} {
		assert.True(t, ParseBool(in), in)
	}
	for _, in := range []string{"", "0", "false", "no", "maybe"} {
		assert.False(t, ParseBool(in), in)
	}
}

func TestToTransaction(t *testing.T) {
	t.Run("full row", func(t *testing.T) {
		tx, err := ToTransaction(model.RawRow{
			"procedure_id":          " P-100 ",
			"chart_number":          "5001.0",
			"date_of_service":       "2024-03-01",
			"date_of_deposit":       "2024-03-20",
			"charges":               "$1,000.00",
			"total_payments":        "250",
			"billing_category":      "Pro Fee",
			"visit_primary_carrier": "Aetna",
			"void":                  "0",
		})
		require.NoError(t, err)
		assert.Equal(t, "P-100", tx.ProcedureID)
		require.NotNil(t, tx.ChartNumber)
		assert.Equal(t, int64(5001), *tx.ChartNumber)
		assert.True(t, tx.Charges.Equal(decimal.NewFromInt(1000)))
		assert.True(t, tx.TotalPayments.Equal(decimal.NewFromInt(250)))
		assert.True(t, tx.Adjustments.IsZero())
		require.NotNil(t, tx.DateOfDeposit)
		assert.Nil(t, tx.DateOfEntry)
		assert.False(t, tx.Void)
	})

	t.Run("missing procedure id", func(t *testing.T) {
		_, err := ToTransaction(model.RawRow{"procedure_id": "nan", "date_of_service": "2024-03-01"})
		assert.ErrorIs(t, err, ErrMissingProcedureID)
	})

	t.Run("missing date of service", func(t *testing.T) {
		_, err := ToTransaction(model.RawRow{"procedure_id": "P-1", "date_of_service": "garbage"})
		assert.ErrorIs(t, err, ErrMissingDateOfService)
	})
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billing.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	sum, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", sum)

	fromReader, n, err := HashReader(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, sum, fromReader)
	assert.Equal(t, int64(3), n)

	_, err = FileHash(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Error(t, err)
}
