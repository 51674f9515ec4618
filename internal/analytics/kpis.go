package analytics

import (
	"context"
	"fmt"

	"github.com/gyeh/billingdash/internal/apperr"
	"github.com/gyeh/billingdash/internal/model"
)

// aggregateCols are the metric columns over procedure_summary, scanned by
// scanMetrics after any grouping keys.
const aggregateCols = `count(*), coalesce(sum(total_charges), 0)::float8,
	coalesce(sum(total_payments), 0)::float8, avg(days_to_first_payment)::float8`

// Dashboard is the headline KPI block.
type Dashboard struct {
	TotalCharges     float64  `json:"total_charges"`
	TotalPayments    float64  `json:"total_payments"`
	TotalAdjustments float64  `json:"total_adjustments"`
	CollectionRate   float64  `json:"collection_rate"`
	ProcedureCount   int      `json:"procedure_count"`
	PatientCount     int      `json:"patient_count"`
	AvgDaysToPayment *float64 `json:"avg_days_to_payment"`
}

// Dashboard returns totals, collection rate, distinct patients and mean days
// to first payment for the procedures matching f.
func (e *Engine) Dashboard(ctx context.Context, f model.Filter) (*Dashboard, error) {
	w := summaryWhere(f)
	var (
		d                          Dashboard
		charges, payments, adjusts float64
	)
	err := e.q.QueryRow(ctx, `
		SELECT count(*), count(DISTINCT chart_number),
			coalesce(sum(total_charges), 0)::float8, coalesce(sum(total_payments), 0)::float8,
			coalesce(sum(total_adjustments), 0)::float8, avg(days_to_first_payment)::float8
		FROM procedure_summary`+w.SQL(), w.Args()...).
		Scan(&d.ProcedureCount, &d.PatientCount, &charges, &payments, &adjusts, &d.AvgDaysToPayment)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	d.TotalCharges = model.Round(charges, 2)
	d.TotalPayments = model.Round(payments, 2)
	d.TotalAdjustments = model.Round(adjusts, 2)
	d.CollectionRate = model.Rate(payments, charges)
	d.AvgDaysToPayment = model.RoundPtr(d.AvgDaysToPayment, 1)
	return &d, nil
}

// SurgeryTypeMetrics is one surgery type's row.
type SurgeryTypeMetrics struct {
	TypeCode    *string `json:"type_code"`
	SurgeryType *string `json:"surgery_type"`
	Metrics
}

// BySurgeryType groups procedures by surgery type. The type-code constraint
// of f is ignored.
func (e *Engine) BySurgeryType(ctx context.Context, f model.Filter) ([]SurgeryTypeMetrics, error) {
	f.TypeCode = nil
	w := summaryWhere(f)
	rows, err := e.q.Query(ctx, `
		SELECT type_code, surgery_type, `+aggregateCols+`
		FROM procedure_summary`+w.SQL()+`
		GROUP BY type_code, surgery_type`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("by surgery type: %w", err)
	}
	defer rows.Close()

	out := []SurgeryTypeMetrics{}
	for rows.Next() {
		var r SurgeryTypeMetrics
		var charges, payments float64
		if err := rows.Scan(&r.TypeCode, &r.SurgeryType, &r.ProcedureCount, &charges, &payments, &r.AvgDaysToPayment); err != nil {
			return nil, fmt.Errorf("scan surgery type: %w", err)
		}
		r.Metrics = newMetrics(r.ProcedureCount, charges, payments, r.AvgDaysToPayment)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortByCharges(out, func(r SurgeryTypeMetrics) float64 { return r.TotalCharges })
	return out, nil
}

// InsuranceMetrics is one primary carrier's row.
type InsuranceMetrics struct {
	Carrier string `json:"carrier"`
	Metrics
}

// ByInsurance groups procedures by primary carrier. The carrier constraint
// of f is ignored.
func (e *Engine) ByInsurance(ctx context.Context, f model.Filter) ([]InsuranceMetrics, error) {
	f.Carrier = nil
	w := summaryWhere(f).Add("primary_carrier IS NOT NULL")
	rows, err := e.q.Query(ctx, `
		SELECT primary_carrier, `+aggregateCols+`
		FROM procedure_summary`+w.SQL()+`
		GROUP BY primary_carrier`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("by insurance: %w", err)
	}
	defer rows.Close()

	out := []InsuranceMetrics{}
	for rows.Next() {
		var r InsuranceMetrics
		var charges, payments float64
		if err := rows.Scan(&r.Carrier, &r.ProcedureCount, &charges, &payments, &r.AvgDaysToPayment); err != nil {
			return nil, fmt.Errorf("scan carrier: %w", err)
		}
		r.Metrics = newMetrics(r.ProcedureCount, charges, payments, r.AvgDaysToPayment)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortByCharges(out, func(r InsuranceMetrics) float64 { return r.TotalCharges })
	return out, nil
}

// BillingCategoryMetrics is one category/subcategory pair, summed over
// transactions.
type BillingCategoryMetrics struct {
	BillingCategory    string  `json:"billing_category"`
	BillingSubcategory *string `json:"billing_subcategory"`
	TotalCharges       float64 `json:"total_charges"`
	TotalPayments      float64 `json:"total_payments"`
	CollectionRate     float64 `json:"collection_rate"`
}

// ByBillingCategory groups transactions by billing category and subcategory.
func (e *Engine) ByBillingCategory(ctx context.Context, f model.Filter) ([]BillingCategoryMetrics, error) {
	w := transactionWhere(f).Add("billing_category IS NOT NULL")
	rows, err := e.q.Query(ctx, `
		SELECT billing_category, billing_subcategory,
			coalesce(sum(charges), 0)::float8, coalesce(sum(total_payments), 0)::float8
		FROM transactions`+w.SQL()+`
		GROUP BY billing_category, billing_subcategory
		ORDER BY billing_category, billing_subcategory NULLS FIRST`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("by billing category: %w", err)
	}
	defer rows.Close()

	out := []BillingCategoryMetrics{}
	for rows.Next() {
		var r BillingCategoryMetrics
		var charges, payments float64
		if err := rows.Scan(&r.BillingCategory, &r.BillingSubcategory, &charges, &payments); err != nil {
			return nil, fmt.Errorf("scan billing category: %w", err)
		}
		r.TotalCharges = model.Round(charges, 2)
		r.TotalPayments = model.Round(payments, 2)
		r.CollectionRate = model.Rate(payments, charges)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortByCharges(out, func(r BillingCategoryMetrics) float64 { return r.TotalCharges })
	return out, nil
}

// Granularity is the bucket width of a trend series.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

// periodFormats renders a date of service as its period label. Weeks are ISO
// weeks labelled by ISO year, e.g. "2024-W01".
var periodFormats = map[Granularity]string{
	Day:   "YYYY-MM-DD",
	Week:  `IYYY-"W"IW`,
	Month: "YYYY-MM",
}

// ParseGranularity maps a request value to a Granularity. Empty means Month.
func ParseGranularity(s string) (Granularity, error) {
	if s == "" {
		return Month, nil
	}
	g := Granularity(s)
	if _, ok := periodFormats[g]; !ok {
		return "", apperr.Invalid("invalid granularity %q: expected day, week or month", s)
	}
	return g, nil
}

// TrendPoint is one period of the trend series.
type TrendPoint struct {
	Period         string  `json:"period"`
	Charges        float64 `json:"charges"`
	Payments       float64 `json:"payments"`
	Adjustments    float64 `json:"adjustments"`
	ProcedureCount int     `json:"procedure_count"`
	CollectionRate float64 `json:"collection_rate"`
}

// Trends buckets procedures by date of service at granularity g, oldest
// period first. Procedures without a date of service are excluded.
func (e *Engine) Trends(ctx context.Context, f model.Filter, g Granularity) ([]TrendPoint, error) {
	format, ok := periodFormats[g]
	if !ok {
		return nil, apperr.Invalid("invalid granularity %q: expected day, week or month", g)
	}
	w := summaryWhere(f).Add("date_of_service IS NOT NULL")
	period := "to_char(date_of_service, '" + format + "')"
	rows, err := e.q.Query(ctx, `
		SELECT `+period+` AS period, count(*),
			coalesce(sum(total_charges), 0)::float8, coalesce(sum(total_payments), 0)::float8,
			coalesce(sum(total_adjustments), 0)::float8
		FROM procedure_summary`+w.SQL()+`
		GROUP BY period
		ORDER BY period`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("trends: %w", err)
	}
	defer rows.Close()

	out := []TrendPoint{}
	for rows.Next() {
		var p TrendPoint
		var charges, payments, adjusts float64
		if err := rows.Scan(&p.Period, &p.ProcedureCount, &charges, &payments, &adjusts); err != nil {
			return nil, fmt.Errorf("scan trend: %w", err)
		}
		p.Charges = model.Round(charges, 2)
		p.Payments = model.Round(payments, 2)
		p.Adjustments = model.Round(adjusts, 2)
		p.CollectionRate = model.Rate(payments, charges)
		out = append(out, p)
	}
	return out, rows.Err()
}
