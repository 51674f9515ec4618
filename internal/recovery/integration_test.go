package recovery_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/billingdash/internal/fixture"
	"github.com/gyeh/billingdash/internal/logging"
	"github.com/gyeh/billingdash/internal/model"
	"github.com/gyeh/billingdash/internal/recovery"
	"github.com/gyeh/billingdash/internal/testdb"
)

func TestMain(m *testing.M) {
	os.Exit(testdb.Main(m, 15444))
}

var asOf = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

func line(proc, typeCode, carrier, dos string, charges, payments float64, deposit string) fixture.Line {
	l := fixture.Line{
		"Procedure_ID":            proc,
		"Chart Number":            1,
		"Date of Service":         dos,
		"Type_Code":               typeCode,
		"Visit - Primary Carrier": carrier,
		"Charges":                 charges,
		"Total Payments":          payments,
	}
	if deposit != "" {
		l["Date of Deposit"] = deposit
	}
	return l
}

func seed(t *testing.T) *recovery.Service {
	t.Helper()
	pool := testdb.Setup(t)
	testdb.Import(t, pool,
		line("K1", "KNEE", "Aetna", "2024-01-01", 1000, 0, ""),
		line("K1", "KNEE", "Aetna", "2024-01-01", 0, 1000, "2024-01-11"),
		line("H1", "HIP", "Cigna", "2024-02-01", 2000, 0, ""),
		line("H1", "HIP", "Cigna", "2024-02-01", 0, 500, "2024-04-01"),
		line("H1", "HIP", "Cigna", "2024-02-01", 0, 500, "2024-12-01"),
		line("H1", "HIP", "Cigna", "2024-02-01", 0, -50, "2024-02-15"),
	)
	return recovery.New(pool, logging.Setup("text"), func() time.Time { return asOf })
}

func TestCalculate(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	t.Run("single_procedure_paid_in_full", func(t *testing.T) {
		code := "KNEE"
		r, err := s.Calculate(ctx, model.Filter{TypeCode: &code})
		require.NoError(t, err)
		for _, w := range r.Windows() {
			assert.Equal(t, recovery.Window{Percent: 100, Amount: 1000, Procedures: 1}, w)
		}
	})

	t.Run("cohort", func(t *testing.T) {
		r, err := s.Calculate(ctx, model.Filter{})
		require.NoError(t, err)
		assert.Equal(t, 3000.0, r.TotalCharges)
		assert.Equal(t, 1950.0, r.TotalPayments)
		assert.Equal(t, 1000.0, r.Recovery1Month.Amount, "negative payments never count")
		assert.Equal(t, 33.33, r.Recovery1Month.Percent)
		assert.Equal(t, 1500.0, r.Recovery3Month.Amount)
		assert.Equal(t, 50.0, r.Recovery6Month.Percent)
		assert.Equal(t, 2000.0, r.Recovery12Month.Amount)
		assert.Equal(t, 65.0, r.OverallCollectionRate)
	})

	t.Run("empty_cohort", func(t *testing.T) {
		carrier := "Nobody"
		r, err := s.Calculate(ctx, model.Filter{Carrier: &carrier})
		require.NoError(t, err)
		assert.Equal(t, recovery.Window{}, r.Recovery12Month)
	})
}

func TestBreakdowns(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	a, err := s.Analyze(ctx, model.Filter{})
	require.NoError(t, err)
	require.Len(t, a.BreakdownByType, 2)
	assert.Equal(t, "HIP", a.BreakdownByType[0].TypeCode)
	assert.Equal(t, 25.0, a.BreakdownByType[0].Recovery3Month)
	assert.Equal(t, 50.0, a.BreakdownByType[0].Recovery12Month)
	assert.Equal(t, "KNEE", a.BreakdownByType[1].TypeCode)
	assert.Equal(t, 100.0, a.BreakdownByType[1].Recovery1Month)

	require.Len(t, a.BreakdownByCarrier, 2)
	assert.Equal(t, "Aetna", a.BreakdownByCarrier[0].Carrier)
	assert.Equal(t, 1000.0, a.BreakdownByCarrier[0].TotalCharges)

	// A carrier filter narrows the type breakdown but every type on file is listed.
	carrier := "Aetna"
	byType, err := s.BySurgeryType(ctx, model.Filter{Carrier: &carrier})
	require.NoError(t, err)
	require.Len(t, byType, 2)
	assert.Zero(t, byType[0].TotalCharges)
	assert.Equal(t, 1000.0, byType[1].TotalCharges)
}

func TestExpectedRecovery(t *testing.T) {
	s := seed(t)
	from := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	code := "HIP"

	e, err := s.ExpectedRecovery(context.Background(), model.Filter{DateFrom: &from, TypeCode: &code})
	require.NoError(t, err)
	assert.Equal(t, 1, e.BasedOnProcedures, "date range is ignored")
	assert.Equal(t, 0.0, e.Expected1MonthPercent)
	assert.Equal(t, 25.0, e.Expected3MonthPercent)
	assert.Equal(t, 50.0, e.Expected12MonthPercent)
	assert.Equal(t, "HIP", *e.TypeCode)
	assert.Nil(t, e.Carrier)
}
