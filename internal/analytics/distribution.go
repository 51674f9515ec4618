package analytics

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gyeh/billingdash/internal/model"
)

type dayRange struct {
	min, max int
	label    string
}

var paymentBuckets = []dayRange{
	{0, 30, "0-30 days"},
	{31, 60, "31-60 days"},
	{61, 90, "61-90 days"},
	{91, 120, "91-120 days"},
	{121, 180, "121-180 days"},
	{181, 365, "181-365 days"},
	{366, 99999, "365+ days"},
}

var agingBuckets = []dayRange{
	{0, 30, "0-30 days"},
	{31, 60, "31-60 days"},
	{61, 90, "61-90 days"},
	{91, 120, "91-120 days"},
	{121, 99999, "120+ days"},
}

func (r dayRange) contains(days int) bool {
	return days >= r.min && days <= r.max
}

// DistributionBucket is one days-to-payment range.
type DistributionBucket struct {
	Range   string  `json:"range"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Distribution summarizes days to first payment.
type Distribution struct {
	AvgDays      *float64             `json:"avg_days"`
	MedianDays   *int                 `json:"median_days"`
	MinDays      *int                 `json:"min_days"`
	MaxDays      *int                 `json:"max_days"`
	Distribution []DistributionBucket `json:"distribution"`
}

// Distribute buckets days and computes mean, median, min and max. The median
// of an even-length list is the upper of the two middle elements. Values
// outside every bucket, such as negative days, still count toward the
// statistics and the percent denominator.
func Distribute(days []int) *Distribution {
	if len(days) == 0 {
		return &Distribution{Distribution: []DistributionBucket{}}
	}
	sorted := slices.Clone(days)
	slices.Sort(sorted)

	sum := 0
	for _, d := range sorted {
		sum += d
	}
	avg := model.Round(float64(sum)/float64(len(sorted)), 1)
	median := sorted[len(sorted)/2]
	lo, hi := sorted[0], sorted[len(sorted)-1]

	buckets := make([]DistributionBucket, len(paymentBuckets))
	for i, b := range paymentBuckets {
		n := 0
		for _, d := range sorted {
			if b.contains(d) {
				n++
			}
		}
		buckets[i] = DistributionBucket{
			Range:   b.label,
			Count:   n,
			Percent: model.Round(float64(n)/float64(len(sorted))*100, 1),
		}
	}
	return &Distribution{AvgDays: &avg, MedianDays: &median, MinDays: &lo, MaxDays: &hi, Distribution: buckets}
}

// DaysToPayment returns the distribution of days to first payment over the
// procedures matching f that have been paid.
func (e *Engine) DaysToPayment(ctx context.Context, f model.Filter) (*Distribution, error) {
	w := summaryWhere(f).Add("days_to_first_payment IS NOT NULL")
	rows, err := e.q.Query(ctx, "SELECT days_to_first_payment FROM procedure_summary"+w.SQL(), w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("days to payment: %w", err)
	}
	defer rows.Close()

	var days []int
	for rows.Next() {
		var d int
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan days: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return Distribute(days), nil
}

// Outstanding is an unpaid balance on one procedure.
type Outstanding struct {
	DateOfService time.Time
	Balance       float64
}

// AgingBucket is one age range of outstanding balances.
type AgingBucket struct {
	AgeBucket        string  `json:"age_bucket"`
	ProcedureCount   int     `json:"procedure_count"`
	TotalOutstanding float64 `json:"total_outstanding"`
	Percent          float64 `json:"percent"`
}

// Age buckets balances by days elapsed from date of service to today.
// Balances dated after today fall in no bucket.
func Age(items []Outstanding, today time.Time) []AgingBucket {
	out := make([]AgingBucket, len(agingBuckets))
	sums := make([]float64, len(agingBuckets))
	for i, b := range agingBuckets {
		out[i].AgeBucket = b.label
		for _, it := range items {
			if b.contains(int(today.Sub(it.DateOfService).Hours() / 24)) {
				out[i].ProcedureCount++
				sums[i] += it.Balance
			}
		}
	}

	var total float64
	for i := range out {
		out[i].TotalOutstanding = model.Round(sums[i], 2)
		total += sums[i]
	}
	if total > 0 {
		for i := range out {
			out[i].Percent = model.Round(out[i].TotalOutstanding/total*100, 1)
		}
	}
	return out
}

// Aging reports outstanding balances of pending and partially paid
// procedures by age. Only the type-code and carrier constraints of f apply.
func (e *Engine) Aging(ctx context.Context, f model.Filter) ([]AgingBucket, error) {
	w := summaryWhere(model.Filter{TypeCode: f.TypeCode, Carrier: f.Carrier}).
		Add("status IN (?, ?)", string(model.StatusPending), string(model.StatusPartial))
	rows, err := e.q.Query(ctx, `
		SELECT date_of_service, (total_charges - total_payments)::float8
		FROM procedure_summary`+w.SQL(), w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("aging: %w", err)
	}
	defer rows.Close()

	var items []Outstanding
	for rows.Next() {
		var it Outstanding
		if err := rows.Scan(&it.DateOfService, &it.Balance); err != nil {
			return nil, fmt.Errorf("scan aging: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return Age(items, e.today()), nil
}
