package recovery

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestIndexPaidBy(t *testing.T) {
	ix := NewIndex([]Deposit{
		{ProcedureID: "P1", Date: day("2024-03-01"), Amount: dec(50)},
		{ProcedureID: "P1", Date: day("2024-01-15"), Amount: dec(100)},
		{ProcedureID: "P1", Date: day("2024-01-15"), Amount: dec(25)},
		{ProcedureID: "P2", Date: day("2024-01-01"), Amount: dec(7)},
	})

	tests := []struct {
		proc string
		end  string
		want float64
	}{
		{"P1", "2024-01-14", 0},
		{"P1", "2024-01-15", 125},
		{"P1", "2024-02-28", 125},
		{"P1", "2024-03-01", 175},
		{"P1", "2025-01-01", 175},
		{"P2", "2024-01-01", 7},
		{"P3", "2025-01-01", 0},
	}
	for _, tt := range tests {
		got := ix.PaidBy(tt.proc, day(tt.end))
		assert.True(t, dec(tt.want).Equal(got), "%s by %s: got %s", tt.proc, tt.end, got)
	}
}

func TestComputeFullPaymentWithinMonth(t *testing.T) {
	cohort := []Procedure{{ID: "P1", DateOfService: day("2024-01-01"), Charges: dec(1000), Payments: dec(1000)}}
	ix := NewIndex([]Deposit{{ProcedureID: "P1", Date: day("2024-01-11"), Amount: dec(1000)}})

	r := Compute(cohort, ix, day("2025-06-01"))
	for i, w := range r.Windows() {
		assert.Equal(t, Window{Percent: 100, Amount: 1000, Procedures: 1}, w, "horizon %d", Horizons[i])
	}
	assert.Equal(t, 100.0, r.OverallCollectionRate)
}

func TestComputeMonotonicAndWindowed(t *testing.T) {
	cohort := []Procedure{
		{ID: "A", DateOfService: day("2024-01-01"), Charges: dec(1000), Payments: dec(900)},
		{ID: "B", DateOfService: day("2024-03-01"), Charges: dec(1000), Payments: dec(300)},
	}
	ix := NewIndex([]Deposit{
		{ProcedureID: "A", Date: day("2024-01-20"), Amount: dec(200)}, // day 19
		{ProcedureID: "A", Date: day("2024-03-15"), Amount: dec(300)}, // day 74
		{ProcedureID: "A", Date: day("2024-06-01"), Amount: dec(400)}, // day 152
		{ProcedureID: "B", Date: day("2025-02-01"), Amount: dec(300)}, // day 337
	})

	r := Compute(cohort, ix, day("2026-01-01"))
	assert.Equal(t, 10.0, r.Recovery1Month.Percent)
	assert.Equal(t, 200.0, r.Recovery1Month.Amount)
	assert.Equal(t, 25.0, r.Recovery3Month.Percent)
	assert.Equal(t, 45.0, r.Recovery6Month.Percent)
	assert.Equal(t, 60.0, r.Recovery12Month.Percent)
	assert.Equal(t, 60.0, r.OverallCollectionRate)
	assert.Equal(t, 2000.0, r.TotalCharges)

	ws := r.Windows()
	for i := 1; i < len(ws); i++ {
		assert.LessOrEqual(t, ws[i-1].Percent, ws[i].Percent)
	}
}

func TestComputeStopsAtToday(t *testing.T) {
	cohort := []Procedure{{ID: "A", DateOfService: day("2024-01-01"), Charges: dec(100)}}
	// Deposit dated after "today" must not count even within the horizon.
	ix := NewIndex([]Deposit{{ProcedureID: "A", Date: day("2024-01-20"), Amount: dec(100)}})

	r := Compute(cohort, ix, day("2024-01-10"))
	assert.Zero(t, r.Recovery1Month.Amount)
	assert.Zero(t, r.Recovery12Month.Percent)
}

func TestComputeCapsAtHundred(t *testing.T) {
	cohort := []Procedure{{ID: "A", DateOfService: day("2024-01-01"), Charges: dec(500), Payments: dec(600)}}
	ix := NewIndex([]Deposit{{ProcedureID: "A", Date: day("2024-01-02"), Amount: dec(600)}})

	r := Compute(cohort, ix, day("2025-01-01"))
	assert.Equal(t, 100.0, r.Recovery1Month.Percent)
	assert.Equal(t, 600.0, r.Recovery1Month.Amount)
	assert.Equal(t, 120.0, r.OverallCollectionRate)
}

func TestComputeEmptyCohort(t *testing.T) {
	r := Compute(nil, nil, time.Now())
	require.NotNil(t, r)
	assert.Equal(t, Window{}, r.Recovery3Month)
	assert.Zero(t, r.TotalCharges)
}

func TestComputeZeroCharges(t *testing.T) {
	cohort := []Procedure{{ID: "A", DateOfService: day("2024-01-01")}}
	ix := NewIndex([]Deposit{{ProcedureID: "A", Date: day("2024-01-02"), Amount: dec(10)}})
	r := Compute(cohort, ix, day("2025-01-01"))
	assert.Zero(t, r.Recovery1Month.Percent)
	assert.Equal(t, 10.0, r.Recovery1Month.Amount)
}
