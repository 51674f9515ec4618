package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gyeh/billingdash/internal/apperr"
	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/model"
)

// PatientSummary is one patient's roll-up across procedures.
type PatientSummary struct {
	ChartNumber    int64       `json:"chart_number"`
	ProcedureCount int         `json:"procedure_count"`
	TotalCharges   float64     `json:"total_charges"`
	TotalPayments  float64     `json:"total_payments"`
	CollectionRate float64     `json:"collection_rate"`
	FirstVisit     *model.Date `json:"first_visit"`
	LastVisit      *model.Date `json:"last_visit"`
}

// PatientPage is one page of patients.
type PatientPage struct {
	Patients []PatientSummary `json:"patients"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Limit    int              `json:"limit"`
}

// ListPatients pages through patients by chart number. A non-empty search
// matches chart numbers containing it as text.
func (s *Store) ListPatients(ctx context.Context, search string, page, limit int) (*PatientPage, error) {
	w := db.NewWhere().Add("chart_number IS NOT NULL")
	if search != "" {
		w.Add("chart_number::text LIKE '%' || ? || '%'", search)
	}
	grouped := `
		SELECT chart_number, count(*), coalesce(sum(total_charges), 0)::float8,
			coalesce(sum(total_payments), 0)::float8, min(date_of_service), max(date_of_service)
		FROM procedure_summary` + w.SQL() + `
		GROUP BY chart_number`

	var total int
	if err := s.conn().QueryRow(ctx, "SELECT count(*) FROM ("+grouped+") g", w.Args()...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count patients: %w", err)
	}

	sql := grouped + " ORDER BY chart_number LIMIT " + w.Arg(limit) + " OFFSET " + w.Arg((page-1)*limit)
	rows, err := s.conn().Query(ctx, sql, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	out := &PatientPage{Patients: []PatientSummary{}, Total: total, Page: page, Limit: limit}
	for rows.Next() {
		var (
			p           PatientSummary
			first, last *time.Time
		)
		if err := rows.Scan(&p.ChartNumber, &p.ProcedureCount, &p.TotalCharges, &p.TotalPayments, &first, &last); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		p.CollectionRate = model.Rate(p.TotalPayments, p.TotalCharges)
		p.TotalCharges = model.Round(p.TotalCharges, 2)
		p.TotalPayments = model.Round(p.TotalPayments, 2)
		p.FirstVisit = model.DatePtr(first)
		p.LastVisit = model.DatePtr(last)
		out.Patients = append(out.Patients, p)
	}
	return out, rows.Err()
}

// PatientDetail extends the roll-up with the patient's surgery types,
// carriers and mean days to first payment.
type PatientDetail struct {
	PatientSummary
	SurgeryTypes     []string `json:"surgery_types"`
	PrimaryCarriers  []string `json:"primary_carriers"`
	AvgDaysToPayment *float64 `json:"avg_days_to_payment"`
}

// GetPatient returns the patient's detail, or not-found when the chart
// number has no procedures.
func (s *Store) GetPatient(ctx context.Context, chart int64) (*PatientDetail, error) {
	var (
		d           PatientDetail
		first, last *time.Time
	)
	err := s.conn().QueryRow(ctx, `
		SELECT count(*), coalesce(sum(total_charges), 0)::float8, coalesce(sum(total_payments), 0)::float8,
			min(date_of_service), max(date_of_service),
			coalesce(array_agg(DISTINCT type_code ORDER BY type_code) FILTER (WHERE type_code IS NOT NULL), '{}'),
			coalesce(array_agg(DISTINCT primary_carrier ORDER BY primary_carrier) FILTER (WHERE primary_carrier IS NOT NULL), '{}'),
			avg(days_to_first_payment)::float8
		FROM procedure_summary
		WHERE chart_number = $1`, chart).
		Scan(&d.ProcedureCount, &d.TotalCharges, &d.TotalPayments, &first, &last,
			&d.SurgeryTypes, &d.PrimaryCarriers, &d.AvgDaysToPayment)
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}
	if d.ProcedureCount == 0 {
		return nil, apperr.NotFound("Patient not found")
	}

	d.ChartNumber = chart
	d.CollectionRate = model.Rate(d.TotalPayments, d.TotalCharges)
	d.TotalCharges = model.Round(d.TotalCharges, 2)
	d.TotalPayments = model.Round(d.TotalPayments, 2)
	d.FirstVisit = model.DatePtr(first)
	d.LastVisit = model.DatePtr(last)
	d.AvgDaysToPayment = model.RoundPtr(d.AvgDaysToPayment, 1)
	return &d, nil
}

// PatientProcedure is one procedure in a patient's history.
type PatientProcedure struct {
	ProcedureID        string     `json:"procedure_id"`
	DateOfService      model.Date `json:"date_of_service"`
	TypeCode           *string    `json:"type_code"`
	SurgeryType        *string    `json:"surgery_type"`
	PrimaryCarrier     *string    `json:"primary_carrier"`
	TotalCharges       float64    `json:"total_charges"`
	TotalPayments      float64    `json:"total_payments"`
	CollectionRate     float64    `json:"collection_rate"`
	Status             string     `json:"status"`
	DaysToFirstPayment *int       `json:"days_to_first_payment"`
}

// PatientProcedures returns the patient's procedures, newest first.
func (s *Store) PatientProcedures(ctx context.Context, chart int64) ([]PatientProcedure, error) {
	rows, err := s.conn().Query(ctx,
		"SELECT "+summaryCols+" FROM procedure_summary WHERE chart_number = $1 ORDER BY date_of_service DESC, id", chart)
	if err != nil {
		return nil, fmt.Errorf("patient procedures: %w", err)
	}
	summaries, err := collectSummaries(rows)
	if err != nil {
		return nil, fmt.Errorf("scan procedures: %w", err)
	}
	if len(summaries) == 0 {
		return nil, apperr.NotFound("Patient not found")
	}

	out := make([]PatientProcedure, len(summaries))
	for i, p := range summaries {
		out[i] = PatientProcedure{
			ProcedureID:        p.ProcedureID,
			DateOfService:      model.NewDate(p.DateOfService),
			TypeCode:           p.TypeCode,
			SurgeryType:        p.SurgeryType,
			PrimaryCarrier:     p.PrimaryCarrier,
			TotalCharges:       p.TotalCharges.InexactFloat64(),
			TotalPayments:      p.TotalPayments.InexactFloat64(),
			CollectionRate:     p.CollectionRate.InexactFloat64(),
			Status:             string(p.Status),
			DaysToFirstPayment: p.DaysToFirstPayment,
		}
	}
	return out, nil
}

// PatientEvent is one billing line in a patient's timeline.
type PatientEvent struct {
	ProcedureID     string      `json:"procedure_id"`
	TransactionType *string     `json:"transaction_type"`
	DateOfService   model.Date  `json:"date_of_service"`
	DateOfEntry     *model.Date `json:"date_of_entry"`
	DateOfDeposit   *model.Date `json:"date_of_deposit"`
	Charges         float64     `json:"charges"`
	TotalPayments   float64     `json:"total_payments"`
	TypeCode        *string     `json:"type_code"`
	BillingCategory *string     `json:"billing_category"`
	Carrier         *string     `json:"carrier"`
}

// PatientTimeline returns every transaction of the patient ordered by
// service date, then entry date.
func (s *Store) PatientTimeline(ctx context.Context, chart int64) ([]PatientEvent, error) {
	rows, err := s.conn().Query(ctx, `
		SELECT procedure_id, transaction_type, date_of_service, date_of_entry, date_of_deposit,
			charges, total_payments, type_code, billing_category, visit_primary_carrier
		FROM transactions
		WHERE chart_number = $1
		ORDER BY date_of_service, date_of_entry NULLS LAST, id`, chart)
	if err != nil {
		return nil, fmt.Errorf("patient timeline: %w", err)
	}
	defer rows.Close()

	var out []PatientEvent
	for rows.Next() {
		var (
			e                 PatientEvent
			dos               time.Time
			entry, deposit    *time.Time
			charges, payments pgtype.Numeric
		)
		if err := rows.Scan(&e.ProcedureID, &e.TransactionType, &dos, &entry, &deposit,
			&charges, &payments, &e.TypeCode, &e.BillingCategory, &e.Carrier); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.DateOfService = model.NewDate(dos)
		e.DateOfEntry = model.DatePtr(entry)
		e.DateOfDeposit = model.DatePtr(deposit)
		e.Charges = model.Decimal(charges).InexactFloat64()
		e.TotalPayments = model.Decimal(payments).InexactFloat64()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, apperr.NotFound("Patient not found")
	}
	return out, nil
}
