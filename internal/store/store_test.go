package store_test

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/billingdash/internal/apperr"
	"github.com/gyeh/billingdash/internal/fixture"
	"github.com/gyeh/billingdash/internal/store"
	"github.com/gyeh/billingdash/internal/testdb"
)

func TestMain(m *testing.M) {
	os.Exit(testdb.Main(m, 15442))
}

func seed(t *testing.T) *store.Store {
	t.Helper()
	pool := testdb.Setup(t)
	testdb.Import(t, pool,
		fixture.Line{"Procedure_ID": "P1", "Chart Number": 100, "Date of Service": "2024-01-10", "Date of Entry": "2024-01-11",
			"Type_Code": "KNEE", "Surgery_Type": "Knee Arthroscopy", "Visit - Primary Carrier": "Aetna",
			"Billing_Category": "Pro Fee", "Billing_Subcategory": "Surgeon", "Charges": 1000,
			"Transaction Type": "Charge", "Transaction Code Desc": "Surgeon fee"},
		fixture.Line{"Procedure_ID": "P1", "Chart Number": 100, "Date of Service": "2024-01-10", "Date of Deposit": "2024-01-20",
			"Billing_Category": "Pro Fee", "Billing_Subcategory": "Anesthesia", "Total Payments": 400, "Transaction Type": "Payment"},
		fixture.Line{"Procedure_ID": "P2", "Chart Number": 100, "Date of Service": "2024-03-01", "Date of Entry": "2024-03-01",
			"Type_Code": "HIP", "Visit - Primary Carrier": "Cigna", "Billing_Category": "Facility Fee", "Charges": 500},
		fixture.Line{"Procedure_ID": "P3", "Chart Number": 2100, "Date of Service": "2024-02-01",
			"Type_Code": "KNEE", "Surgery_Type": "Knee Arthroscopy", "Visit - Primary Carrier": "Aetna", "Charges": 200,
			"Total Payments": 200, "Date of Deposit": "2024-02-11"},
	)
	return store.New(pool)
}

func TestProcedures(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	t.Run("list_sorted_desc", func(t *testing.T) {
		page, err := s.ListProcedures(ctx, store.ProcedureQuery{SortBy: "total_charges", SortOrder: "desc", Page: 1, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		require.Len(t, page.Procedures, 2)
		assert.Equal(t, "P1", page.Procedures[0].ProcedureID)
		assert.Equal(t, "P2", page.Procedures[1].ProcedureID)
	})

	t.Run("list_unknown_sort_falls_back", func(t *testing.T) {
		page, err := s.ListProcedures(ctx, store.ProcedureQuery{SortBy: "drop table", SortOrder: "asc", Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Procedures, 3)
		assert.Equal(t, "P1", page.Procedures[0].ProcedureID)
		assert.Equal(t, "P3", page.Procedures[1].ProcedureID)
	})

	t.Run("list_status_filter", func(t *testing.T) {
		status := "collected"
		page, err := s.ListProcedures(ctx, store.ProcedureQuery{Status: &status, Page: 1, Limit: 10})
		require.NoError(t, err)
		require.Len(t, page.Procedures, 1)
		assert.Equal(t, "P3", page.Procedures[0].ProcedureID)
	})

	t.Run("detail", func(t *testing.T) {
		d, err := s.GetProcedure(ctx, "P1")
		require.NoError(t, err)
		assert.Equal(t, 1000.0, d.Procedure.TotalCharges)
		assert.Equal(t, 40.0, d.Procedure.CollectionRate)
		assert.Equal(t, "partial", d.Procedure.Status)
		require.Len(t, d.Transactions, 2)
		assert.Equal(t, 1000.0, d.Transactions[0].Charges)
	})

	t.Run("detail_not_found", func(t *testing.T) {
		_, err := s.GetProcedure(ctx, "nope")
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})

	t.Run("timeline", func(t *testing.T) {
		tl, err := s.ProcedureTimeline(ctx, "P1")
		require.NoError(t, err)
		require.Len(t, tl, 2)
		assert.Equal(t, "2024-01-11", tl[0].Date.Format("2006-01-02"))
		assert.Equal(t, "2024-01-20", tl[1].Date.Format("2006-01-02"), "falls back to deposit date")
		assert.Equal(t, 1000.0, tl[1].CumulativeCharges)
		assert.Equal(t, 400.0, tl[1].CumulativePayments)
		require.NotNil(t, tl[0].Description)
		assert.Equal(t, "Surgeon fee", *tl[0].Description)
	})

	t.Run("stats", func(t *testing.T) {
		st, err := s.ProcedureStats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, st.TotalProcedures)
		assert.Equal(t, map[string]int{"partial": 1, "pending": 1, "collected": 1}, st.ByStatus)
	})
}

func TestPatients(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	t.Run("list", func(t *testing.T) {
		page, err := s.ListPatients(ctx, "", 1, 20)
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		require.Len(t, page.Patients, 2)
		p := page.Patients[0]
		assert.Equal(t, int64(100), p.ChartNumber)
		assert.Equal(t, 2, p.ProcedureCount)
		assert.Equal(t, 1500.0, p.TotalCharges)
		assert.Equal(t, 26.67, p.CollectionRate)
	})

	t.Run("search", func(t *testing.T) {
		page, err := s.ListPatients(ctx, "21", 1, 20)
		require.NoError(t, err)
		require.Len(t, page.Patients, 1)
		assert.Equal(t, int64(2100), page.Patients[0].ChartNumber)
	})

	t.Run("detail", func(t *testing.T) {
		d, err := s.GetPatient(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, []string{"HIP", "KNEE"}, d.SurgeryTypes)
		assert.Equal(t, []string{"Aetna", "Cigna"}, d.PrimaryCarriers)
		require.NotNil(t, d.AvgDaysToPayment)
		assert.Equal(t, 10.0, *d.AvgDaysToPayment)
		assert.Equal(t, "2024-03-01", d.LastVisit.Format("2006-01-02"))
	})

	t.Run("not_found", func(t *testing.T) {
		_, err := s.GetPatient(ctx, 999)
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
		_, err = s.PatientProcedures(ctx, 999)
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
		_, err = s.PatientTimeline(ctx, 999)
		assert.True(t, apperr.Is(err, apperr.CodeNotFound))
	})

	t.Run("procedures_newest_first", func(t *testing.T) {
		procs, err := s.PatientProcedures(ctx, 100)
		require.NoError(t, err)
		require.Len(t, procs, 2)
		assert.Equal(t, "P2", procs[0].ProcedureID)
	})

	t.Run("timeline", func(t *testing.T) {
		events, err := s.PatientTimeline(ctx, 100)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, "P1", events[0].ProcedureID)
		assert.Equal(t, "P2", events[2].ProcedureID)
	})
}

func TestFilterOptions(t *testing.T) {
	s := seed(t)
	opts, err := s.AllFilterOptions(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []store.Option{
		{Value: "100", Label: "Patient 100", Count: 2},
		{Value: "2100", Label: "Patient 2100", Count: 1},
	}, opts.Patients)
	assert.Equal(t, []store.Option{
		{Value: "HIP", Label: "HIP", Count: 1},
		{Value: "KNEE", Label: "Knee Arthroscopy", Count: 2},
	}, opts.SurgeryTypes)
	assert.Equal(t, "Aetna", opts.Carriers[0].Value)
	assert.Equal(t, 2, opts.Carriers[0].Count)

	require.Len(t, opts.BillingCategories, 2)
	assert.Equal(t, "Facility Fee", opts.BillingCategories[0].Value)
	assert.Empty(t, opts.BillingCategories[0].Subcategories)
	assert.Equal(t, []string{"Anesthesia", "Surgeon"}, opts.BillingCategories[1].Subcategories)

	assert.Equal(t, "2024-01-10", opts.DateRange.MinDate.Format("2006-01-02"))
	assert.Equal(t, "2024-03-01", opts.DateRange.MaxDate.Format("2006-01-02"))
}

func TestUploads(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	list, err := s.ListUploads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "completed", string(list[0].Status))
	assert.Equal(t, 4, list[0].RowsImported)

	u, err := s.GetUpload(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "billing.xlsx", u.OriginalFilename)

	_, err = s.DeleteUpload(ctx, u.ID)
	require.NoError(t, err)
	_, err = s.GetUpload(ctx, u.ID)
	assert.True(t, apperr.Is(err, apperr.CodeNotFound))

	// Procedures survive upload deletion.
	st, err := s.ProcedureStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalProcedures)
}
