package anomaly_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/billingdash/internal/anomaly"
	"github.com/gyeh/billingdash/internal/fixture"
	"github.com/gyeh/billingdash/internal/logging"
	"github.com/gyeh/billingdash/internal/model"
	"github.com/gyeh/billingdash/internal/testdb"
)

func TestMain(m *testing.M) {
	os.Exit(testdb.Main(m, 15445))
}

var today = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) string {
	return today.AddDate(0, 0, -n).Format(model.DateLayout)
}

func proc(id string, chart int, dos, typeCode, carrier string, charges, payments float64) fixture.Line {
	return fixture.Line{
		"Procedure_ID":            id,
		"Chart Number":            chart,
		"Date of Service":         dos,
		"Type_Code":               typeCode,
		"Visit - Primary Carrier": carrier,
		"Charges":                 charges,
		"Total Payments":          payments,
		"Date of Deposit":         dos,
	}
}

func seed(t *testing.T) *anomaly.Detector {
	t.Helper()
	pool := testdb.Setup(t)
	testdb.Import(t, pool,
		proc("OVER1", 1, daysAgo(30), "KNEE", "Aetna", 500, 600),
		proc("OVER2", 2, daysAgo(40), "HIP", "Aetna", 1000, 1050),
		proc("OVER3", 2, daysAgo(50), "HIP", "Cigna", 100, 400),
		proc("STALE", 3, daysAgo(200), "KNEE", "Cigna", 300, 0),
		proc("RECENT", 3, daysAgo(100), "KNEE", "Cigna", 300, 0),
		proc("DUP-A", 4, "2024-05-01", "SPINE", "Aetna", 100, 100),
		proc("DUP-B", 4, "2024-05-01", "SPINE", "Aetna", 100, 100),
	)
	return anomaly.New(pool, logging.Setup("text"), func() time.Time { return today.Add(15 * time.Hour) })
}

func TestPaymentsExceedCharges(t *testing.T) {
	d := seed(t)
	r, err := d.PaymentsExceedCharges(context.Background(), model.Filter{})
	require.NoError(t, err)

	assert.Equal(t, "payment_exceeds_charge", r.AnomalyType)
	assert.Equal(t, anomaly.SeverityHigh, r.Severity)
	assert.Equal(t, 3, r.Count)
	assert.Equal(t, 450.0, r.TotalOverpayment)

	require.Len(t, r.Procedures, 3)
	assert.Equal(t, "OVER3", r.Procedures[0].ProcedureID, "largest overpayment first")
	over1 := r.Procedures[1]
	assert.Equal(t, "OVER1", over1.ProcedureID)
	assert.Equal(t, 100.0, over1.Overpayment)
	assert.Equal(t, 20.0, over1.OverpaymentPercent)

	from := today.AddDate(0, 0, -35)
	r, err = d.PaymentsExceedCharges(context.Background(), model.Filter{DateFrom: &from})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Count)
}

func TestMissingPayments(t *testing.T) {
	d := seed(t)
	r, err := d.MissingPayments(context.Background(), model.Filter{}, anomaly.DefaultMissingPaymentDays)
	require.NoError(t, err)

	assert.Equal(t, "Procedures older than 180 days with zero payments", r.Description)
	require.Len(t, r.Procedures, 1)
	assert.Equal(t, "STALE", r.Procedures[0].ProcedureID)
	assert.Equal(t, 200, r.Procedures[0].DaysSinceDOS)
	assert.Equal(t, 300.0, r.TotalUncollected)

	r, err = d.MissingPayments(context.Background(), model.Filter{}, 90)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Count)
}

func TestDuplicateProcedures(t *testing.T) {
	d := seed(t)
	r, err := d.DuplicateProcedures(context.Background())
	require.NoError(t, err)

	require.Len(t, r.Procedures, 1)
	g := r.Procedures[0]
	assert.Equal(t, int64(4), *g.ChartNumber)
	assert.Equal(t, "SPINE", *g.TypeCode)
	assert.Equal(t, 2, g.DuplicateCount)
	assert.Equal(t, []string{"DUP-A", "DUP-B"}, g.ProcedureIDs)
}

func TestDetectAll(t *testing.T) {
	d := seed(t)
	r, err := d.DetectAll(context.Background(), model.Filter{}, anomaly.DefaultMissingPaymentDays)
	require.NoError(t, err)
	assert.Equal(t, 5, r.TotalAnomalies)
}

func TestSummaries(t *testing.T) {
	d := seed(t)
	ctx := context.Background()

	carriers, err := d.ByCarrier(ctx)
	require.NoError(t, err)
	require.Len(t, carriers, 2)
	assert.Equal(t, "Aetna", *carriers[0].Carrier)
	assert.Equal(t, 2, carriers[0].AnomalyCount)
	assert.Equal(t, 150.0, carriers[0].TotalOverpayment)

	patients, err := d.ByPatient(ctx, 1)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, int64(2), *patients[0].ChartNumber)
	assert.Equal(t, 2, patients[0].AnomalyCount)
	assert.Equal(t, 350.0, patients[0].TotalOverpayment)
}
