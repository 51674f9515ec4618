package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/model"
)

// Constraint fixes one dimension to a value.
type Constraint struct {
	Dim   Dimension
	Value any
}

// Group is one aggregated group of a grouped query. Keys holds the values of
// the grouping dimensions in order: int64 chart numbers, strings otherwise.
type Group struct {
	Keys       []any
	Name       *string // surgery type name, when a surgery-type key is present
	Count      int
	Charges    float64
	Payments   float64
	AvgDays    *float64 // always nil on the transaction table
	FirstVisit *time.Time
	LastVisit  *time.Time
}

// Metrics returns the rounded metrics of g.
func (g Group) Metrics() Metrics {
	return newMetrics(g.Count, g.Charges, g.Payments, g.AvgDays)
}

// GroupSource answers the per-level aggregate queries of the dynamic matrix.
type GroupSource interface {
	// Groups aggregates by dim over the rows matching every ancestor
	// constraint, skipping rows where dim is null.
	Groups(ctx context.Context, dim Dimension, ancestors []Constraint) ([]Group, error)
	// Totals aggregates the whole population regardless of grouping.
	Totals(ctx context.Context) (Group, error)
	// Table reports which fact table the source reads.
	Table() Table
}

type pgSource struct {
	q     db.Querier
	table Table
	f     model.Filter
}

// NewGroupSource returns a GroupSource reading table through q, restricted
// to the date range of f.
func NewGroupSource(q db.Querier, table Table, f model.Filter) GroupSource {
	return &pgSource{q: q, table: table, f: f.DateRange()}
}

func (s *pgSource) Table() Table { return s.table }

func (s *pgSource) where() *db.Where {
	if s.table == TransactionTable {
		return transactionWhere(s.f)
	}
	return summaryWhere(s.f)
}

func (s *pgSource) Groups(ctx context.Context, dim Dimension, ancestors []Constraint) ([]Group, error) {
	w := s.where()
	for _, c := range ancestors {
		w.Eq(c.Dim.Column(s.table), c.Value)
	}
	return queryGroups(ctx, s.q, s.table, []Dimension{dim}, w)
}

func (s *pgSource) Totals(ctx context.Context) (Group, error) {
	w := s.where()
	count, charges := "count(*)", "total_charges"
	if s.table == TransactionTable {
		count, charges = "count(DISTINCT procedure_id)", "charges"
	}
	var g Group
	err := s.q.QueryRow(ctx, fmt.Sprintf(
		"SELECT %s, coalesce(sum(%s), 0)::float8, coalesce(sum(total_payments), 0)::float8 FROM %s%s",
		count, charges, s.table, w.SQL()), w.Args()...).Scan(&g.Count, &g.Charges, &g.Payments)
	if err != nil {
		return Group{}, fmt.Errorf("matrix totals: %w", err)
	}
	return g, nil
}

// queryGroups runs one grouped aggregate over table by the key columns of
// dims, excluding rows where any key is null. Groups come back in key order.
func queryGroups(ctx context.Context, q db.Querier, table Table, dims []Dimension, w *db.Where) ([]Group, error) {
	cols := make([]string, len(dims))
	nameExpr := "NULL::text"
	for i, d := range dims {
		cols[i] = d.Column(table)
		w.Add(cols[i] + " IS NOT NULL")
		if n := descriptors[d].nameCol; n != "" {
			nameExpr = "max(" + n + ")"
		}
	}
	count, charges, avg := "count(*)", "total_charges", "avg(days_to_first_payment)::float8"
	if table == TransactionTable {
		count, charges, avg = "count(DISTINCT procedure_id)", "charges", "NULL::float8"
	}
	keys := strings.Join(cols, ", ")
	sql := fmt.Sprintf(`SELECT %s, %s, %s, coalesce(sum(%s), 0)::float8, coalesce(sum(total_payments), 0)::float8,
		%s, min(date_of_service), max(date_of_service)
		FROM %s%s GROUP BY %s ORDER BY %s`,
		keys, nameExpr, count, charges, avg, table, w.SQL(), keys, keys)

	rows, err := q.Query(ctx, sql, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("group by %s: %w", keys, err)
	}
	defer rows.Close()

	var out []Group
	for rows.Next() {
		g := Group{Keys: make([]any, len(dims))}
		dest := make([]any, 0, len(dims)+7)
		for i := range g.Keys {
			dest = append(dest, &g.Keys[i])
		}
		dest = append(dest, &g.Name, &g.Count, &g.Charges, &g.Payments, &g.AvgDays, &g.FirstVisit, &g.LastVisit)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
