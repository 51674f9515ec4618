// Package analytics computes the dashboard aggregates over procedure
// summaries and raw transactions: KPIs, groupings, trends, the payment
// distribution, the aging report and the hierarchical matrices.
package analytics

import (
	"cmp"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/model"
)

// Engine runs read-only analytics queries. Each call is independent; nothing
// is cached between calls.
type Engine struct {
	q   db.Querier
	log zerolog.Logger
	now func() time.Time
}

// New returns an Engine over pool. A nil now uses time.Now.
func New(pool *pgxpool.Pool, log zerolog.Logger, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{q: pool, log: log, now: now}
}

// today is the current calendar date at midnight UTC, matching how dates are
// stored.
func (e *Engine) today() time.Time {
	y, m, d := e.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Metrics are the figures every grouped row reports.
type Metrics struct {
	ProcedureCount   int      `json:"procedure_count"`
	TotalCharges     float64  `json:"total_charges"`
	TotalPayments    float64  `json:"total_payments"`
	CollectionRate   float64  `json:"collection_rate"`
	AvgDaysToPayment *float64 `json:"avg_days_to_payment"`
}

func newMetrics(count int, charges, payments float64, avgDays *float64) Metrics {
	return Metrics{
		ProcedureCount:   count,
		TotalCharges:     model.Round(charges, 2),
		TotalPayments:    model.Round(payments, 2),
		CollectionRate:   model.Rate(payments, charges),
		AvgDaysToPayment: model.RoundPtr(avgDays, 1),
	}
}

// sortByCharges orders s by total charges, highest first. Ties keep their
// query order.
func sortByCharges[T any](s []T, charges func(T) float64) {
	slices.SortStableFunc(s, func(a, b T) int {
		return cmp.Compare(charges(b), charges(a))
	})
}

// summaryWhere starts a predicate set over procedure_summary for f.
func summaryWhere(f model.Filter) *db.Where {
	return db.NewWhere().Filter(f, db.SummaryFilter)
}

// transactionWhere starts a predicate set over transactions for f.
func transactionWhere(f model.Filter) *db.Where {
	return db.NewWhere().Filter(f, db.TransactionFilter)
}
