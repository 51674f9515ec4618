package store

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gyeh/billingdash/internal/apperr"
	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/model"
)

// Sortable procedure columns. Unknown names sort by date of service.
var procedureSortColumns = []string{
	"id", "procedure_id", "chart_number", "date_of_service", "surgery_type", "type_code",
	"primary_carrier", "secondary_carrier", "facility_name", "provider_profile",
	"total_charges", "total_payments", "total_adjustments", "patient_payments", "insurance_payments",
	"pro_fee_charges", "pro_fee_payments", "facility_fee_charges", "facility_fee_payments",
	"first_charge_date", "first_payment_date", "last_payment_date", "days_to_first_payment",
	"collection_rate", "status", "created_at", "updated_at",
}

// ProcedureQuery selects one page of procedures.
type ProcedureQuery struct {
	Filter    model.Filter
	Status    *string
	SortBy    string
	SortOrder string // "asc" or "desc"
	Page      int
	Limit     int
}

// ProcedurePage is one page of procedures.
type ProcedurePage struct {
	Procedures []ProcedureView `json:"procedures"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"total_pages"`
}

// ListProcedures returns one filtered, sorted page of procedure summaries.
func (s *Store) ListProcedures(ctx context.Context, q ProcedureQuery) (*ProcedurePage, error) {
	w := db.NewWhere().Filter(q.Filter, db.SummaryFilter)
	if q.Status != nil {
		w.Eq("status", *q.Status)
	}

	var total int
	if err := s.conn().QueryRow(ctx, "SELECT count(*) FROM procedure_summary"+w.SQL(), w.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count procedures: %w", err)
	}

	sortCol := "date_of_service"
	if slices.Contains(procedureSortColumns, q.SortBy) {
		sortCol = q.SortBy
	}
	dir := "ASC"
	if q.SortOrder == "desc" {
		dir = "DESC"
	}

	sql := fmt.Sprintf("SELECT %s FROM procedure_summary%s ORDER BY %s %s, id LIMIT %s OFFSET %s",
		summaryCols, w.SQL(), sortCol, dir, w.Arg(q.Limit), w.Arg((q.Page-1)*q.Limit))
	rows, err := s.conn().Query(ctx, sql, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list procedures: %w", err)
	}
	summaries, err := collectSummaries(rows)
	if err != nil {
		return nil, fmt.Errorf("scan procedures: %w", err)
	}

	page := &ProcedurePage{
		Procedures: make([]ProcedureView, len(summaries)),
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
	for i, p := range summaries {
		page.Procedures[i] = NewProcedureView(p)
	}
	return page, nil
}

// EachProcedure streams every summary matching f, ordered by date of
// service, to fn in chunks of at most chunk rows.
func (s *Store) EachProcedure(ctx context.Context, f model.Filter, chunk int, fn func([]*model.ProcedureSummary) error) error {
	w := db.NewWhere().Filter(f, db.SummaryFilter)
	rows, err := s.conn().Query(ctx,
		"SELECT "+summaryCols+" FROM procedure_summary"+w.SQL()+" ORDER BY date_of_service, id", w.Args()...)
	if err != nil {
		return fmt.Errorf("query procedures: %w", err)
	}
	defer rows.Close()

	buf := make([]*model.ProcedureSummary, 0, chunk)
	for rows.Next() {
		p, err := scanSummary(rows)
		if err != nil {
			return fmt.Errorf("scan procedure: %w", err)
		}
		buf = append(buf, p)
		if len(buf) == chunk {
			if err := fn(buf); err != nil {
				return err
			}
			buf = buf[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(buf) > 0 {
		return fn(buf)
	}
	return nil
}

// TransactionView is one billing line of a procedure.
type TransactionView struct {
	ID                  int64       `json:"id"`
	TransactionType     *string     `json:"transaction_type"`
	DateOfService       model.Date  `json:"date_of_service"`
	DateOfEntry         *model.Date `json:"date_of_entry"`
	DateOfDeposit       *model.Date `json:"date_of_deposit"`
	ChargeCode          *string     `json:"charge_code"`
	Charges             float64     `json:"charges"`
	TotalPayments       float64     `json:"total_payments"`
	Adjustments         float64     `json:"adjustments"`
	BillingCategory     *string     `json:"billing_category"`
	BillingSubcategory  *string     `json:"billing_subcategory"`
	VisitPrimaryCarrier *string     `json:"visit_primary_carrier"`
	PaymentMethod       *string     `json:"payment_method"`
	CheckNumber         *string     `json:"check_number"`

	description *string
}

// ProcedureDetail is a summary with its billing lines.
type ProcedureDetail struct {
	Procedure    ProcedureView     `json:"procedure"`
	Transactions []TransactionView `json:"transactions"`
}

// GetProcedure returns a summary and its transactions ordered by entry date.
func (s *Store) GetProcedure(ctx context.Context, procedureID string) (*ProcedureDetail, error) {
	p, err := scanSummary(s.conn().QueryRow(ctx,
		"SELECT "+summaryCols+" FROM procedure_summary WHERE procedure_id = $1", procedureID))
	if isNoRows(err) {
		return nil, apperr.NotFound("Procedure not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get procedure: %w", err)
	}

	txns, err := s.procedureTransactions(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	return &ProcedureDetail{Procedure: NewProcedureView(p), Transactions: txns}, nil
}

func (s *Store) procedureTransactions(ctx context.Context, procedureID string) ([]TransactionView, error) {
	rows, err := s.conn().Query(ctx, `
		SELECT id, transaction_type, date_of_service, date_of_entry, date_of_deposit, charge_code,
			charges, total_payments, adjustments, billing_category, billing_subcategory,
			visit_primary_carrier, payment_method, check_number, transaction_code_desc
		FROM transactions
		WHERE procedure_id = $1
		ORDER BY date_of_entry NULLS LAST, id`, procedureID)
	if err != nil {
		return nil, fmt.Errorf("procedure transactions: %w", err)
	}
	defer rows.Close()

	out := []TransactionView{}
	for rows.Next() {
		var (
			v                          TransactionView
			dos                        time.Time
			entry, deposit             *time.Time
			charges, payments, adjusts pgtype.Numeric
		)
		if err := rows.Scan(&v.ID, &v.TransactionType, &dos, &entry, &deposit, &v.ChargeCode,
			&charges, &payments, &adjusts, &v.BillingCategory, &v.BillingSubcategory,
			&v.VisitPrimaryCarrier, &v.PaymentMethod, &v.CheckNumber, &v.description); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		v.DateOfService = model.NewDate(dos)
		v.DateOfEntry = model.DatePtr(entry)
		v.DateOfDeposit = model.DatePtr(deposit)
		v.Charges = model.Decimal(charges).InexactFloat64()
		v.TotalPayments = model.Decimal(payments).InexactFloat64()
		v.Adjustments = model.Decimal(adjusts).InexactFloat64()
		out = append(out, v)
	}
	return out, rows.Err()
}

// TimelineEntry is one step of a procedure's running balance.
type TimelineEntry struct {
	Date               model.Date `json:"date"`
	Type               *string    `json:"type"`
	Charges            float64    `json:"charges"`
	Payments           float64    `json:"payments"`
	CumulativeCharges  float64    `json:"cumulative_charges"`
	CumulativePayments float64    `json:"cumulative_payments"`
	BillingCategory    *string    `json:"billing_category"`
	Description        *string    `json:"description"`
}

// ProcedureTimeline returns the procedure's transactions in entry order
// with running charge and payment totals.
func (s *Store) ProcedureTimeline(ctx context.Context, procedureID string) ([]TimelineEntry, error) {
	txns, err := s.procedureTransactions(ctx, procedureID)
	if err != nil {
		return nil, err
	}
	if len(txns) == 0 {
		return nil, apperr.NotFound("Procedure not found")
	}

	out := make([]TimelineEntry, len(txns))
	var cumCharges, cumPayments float64
	for i, t := range txns {
		cumCharges += t.Charges
		cumPayments += t.TotalPayments
		date := t.DateOfService
		switch {
		case t.DateOfEntry != nil:
			date = *t.DateOfEntry
		case t.DateOfDeposit != nil:
			date = *t.DateOfDeposit
		}
		out[i] = TimelineEntry{
			Date:               date,
			Type:               t.TransactionType,
			Charges:            t.Charges,
			Payments:           t.TotalPayments,
			CumulativeCharges:  model.Round(cumCharges, 2),
			CumulativePayments: model.Round(cumPayments, 2),
			BillingCategory:    t.BillingCategory,
			Description:        t.description,
		}
	}
	return out, nil
}

// ProcedureStats counts procedures overall and per status.
type ProcedureStats struct {
	TotalProcedures int            `json:"total_procedures"`
	ByStatus        map[string]int `json:"by_status"`
}

// ProcedureStats returns the procedure count and the count per status.
func (s *Store) ProcedureStats(ctx context.Context) (*ProcedureStats, error) {
	rows, err := s.conn().Query(ctx, "SELECT status, count(*) FROM procedure_summary GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("procedure stats: %w", err)
	}
	defer rows.Close()

	stats := &ProcedureStats{ByStatus: make(map[string]int)}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.ByStatus[status] = n
		stats.TotalProcedures += n
	}
	return stats, rows.Err()
}
