// Package anomaly finds data-quality findings in the procedure summaries:
// overpayments, stale unpaid procedures and likely duplicates. Findings are
// results, not errors.
package anomaly

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/model"
)

// DefaultMissingPaymentDays is how old an unpaid procedure must be before it
// is reported.
const DefaultMissingPaymentDays = 180

// Severity ranks a finding.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Detector runs the anomaly checks.
type Detector struct {
	q   db.Querier
	log zerolog.Logger
	now func() time.Time
}

// New returns a Detector over pool. A nil now uses time.Now.
func New(pool *pgxpool.Pool, log zerolog.Logger, now func() time.Time) *Detector {
	if now == nil {
		now = time.Now
	}
	return &Detector{q: pool, log: log, now: now}
}

func (d *Detector) today() time.Time {
	y, m, day := d.now().Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// OverpaidProcedure is a procedure whose payments exceed its charges.
type OverpaidProcedure struct {
	ProcedureID        string     `json:"procedure_id"`
	ChartNumber        *int64     `json:"chart_number"`
	DateOfService      model.Date `json:"date_of_service"`
	TypeCode           *string    `json:"type_code"`
	PrimaryCarrier     *string    `json:"primary_carrier"`
	TotalCharges       float64    `json:"total_charges"`
	TotalPayments      float64    `json:"total_payments"`
	Overpayment        float64    `json:"overpayment"`
	OverpaymentPercent float64    `json:"overpayment_percent"`
}

// PaymentExceedsCharge lists overpaid procedures, largest overpayment first.
type PaymentExceedsCharge struct {
	AnomalyType      string              `json:"anomaly_type"`
	Description      string              `json:"description"`
	Severity         Severity            `json:"severity"`
	Count            int                 `json:"count"`
	TotalOverpayment float64             `json:"total_overpayment"`
	Procedures       []OverpaidProcedure `json:"procedures"`
}

// PaymentsExceedCharges reports procedures with positive charges whose
// payments exceed them. Only the date range of f applies.
func (d *Detector) PaymentsExceedCharges(ctx context.Context, f model.Filter) (*PaymentExceedsCharge, error) {
	w := db.NewWhere().Filter(f.DateRange(), db.SummaryFilter).
		Add("total_payments > total_charges").
		Add("total_charges > 0")
	rows, err := d.q.Query(ctx, `
		SELECT procedure_id, chart_number, date_of_service, type_code, primary_carrier,
			total_charges::float8, total_payments::float8, (total_payments - total_charges)::float8
		FROM procedure_summary`+w.SQL()+`
		ORDER BY total_payments - total_charges DESC, procedure_id`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("overpaid procedures: %w", err)
	}
	defer rows.Close()

	out := &PaymentExceedsCharge{
		AnomalyType: "payment_exceeds_charge",
		Description: "Procedures where total payments exceed total charges",
		Severity:    SeverityHigh,
		Procedures:  []OverpaidProcedure{},
	}
	var total float64
	for rows.Next() {
		var (
			p   OverpaidProcedure
			dos time.Time
		)
		if err := rows.Scan(&p.ProcedureID, &p.ChartNumber, &dos, &p.TypeCode, &p.PrimaryCarrier,
			&p.TotalCharges, &p.TotalPayments, &p.Overpayment); err != nil {
			return nil, fmt.Errorf("scan overpaid procedure: %w", err)
		}
		total += p.Overpayment
		p.DateOfService = model.NewDate(dos)
		p.OverpaymentPercent = model.Rate(p.Overpayment, p.TotalCharges)
		p.Overpayment = model.Round(p.Overpayment, 2)
		out.Procedures = append(out.Procedures, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.Count = len(out.Procedures)
	out.TotalOverpayment = model.Round(total, 2)
	return out, nil
}

// UnpaidProcedure is a charged procedure with no payments.
type UnpaidProcedure struct {
	ProcedureID    string     `json:"procedure_id"`
	ChartNumber    *int64     `json:"chart_number"`
	DateOfService  model.Date `json:"date_of_service"`
	TypeCode       *string    `json:"type_code"`
	PrimaryCarrier *string    `json:"primary_carrier"`
	TotalCharges   float64    `json:"total_charges"`
	TotalPayments  float64    `json:"total_payments"`
	DaysSinceDOS   int        `json:"days_since_dos"`
}

// MissingPayments lists stale unpaid procedures, largest charges first.
type MissingPayments struct {
	AnomalyType      string            `json:"anomaly_type"`
	Description      string            `json:"description"`
	Severity         Severity          `json:"severity"`
	Count            int               `json:"count"`
	TotalUncollected float64           `json:"total_uncollected"`
	Procedures       []UnpaidProcedure `json:"procedures"`
}

// MissingPayments reports procedures with charges, no payments and a date
// of service at least thresholdDays ago. Only the date range of f applies.
func (d *Detector) MissingPayments(ctx context.Context, f model.Filter, thresholdDays int) (*MissingPayments, error) {
	today := d.today()
	w := db.NewWhere().Filter(f.DateRange(), db.SummaryFilter).
		Add("date_of_service <= ?", today.AddDate(0, 0, -thresholdDays)).
		Add("total_charges > 0").
		Add("total_payments = 0")
	rows, err := d.q.Query(ctx, `
		SELECT procedure_id, chart_number, date_of_service, type_code, primary_carrier, total_charges::float8
		FROM procedure_summary`+w.SQL()+`
		ORDER BY total_charges DESC, procedure_id`, w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("unpaid procedures: %w", err)
	}
	defer rows.Close()

	out := &MissingPayments{
		AnomalyType: "missing_payments",
		Description: fmt.Sprintf("Procedures older than %d days with zero payments", thresholdDays),
		Severity:    SeverityMedium,
		Procedures:  []UnpaidProcedure{},
	}
	var total float64
	for rows.Next() {
		var (
			p   UnpaidProcedure
			dos time.Time
		)
		if err := rows.Scan(&p.ProcedureID, &p.ChartNumber, &dos, &p.TypeCode, &p.PrimaryCarrier, &p.TotalCharges); err != nil {
			return nil, fmt.Errorf("scan unpaid procedure: %w", err)
		}
		total += p.TotalCharges
		p.DateOfService = model.NewDate(dos)
		p.DaysSinceDOS = int(today.Sub(dos).Hours() / 24)
		out.Procedures = append(out.Procedures, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.Count = len(out.Procedures)
	out.TotalUncollected = model.Round(total, 2)
	return out, nil
}

// DuplicateGroup is a set of procedures sharing patient, date and type.
type DuplicateGroup struct {
	ChartNumber    *int64     `json:"chart_number"`
	DateOfService  model.Date `json:"date_of_service"`
	TypeCode       *string    `json:"type_code"`
	DuplicateCount int        `json:"duplicate_count"`
	ProcedureIDs   []string   `json:"procedure_ids"`
}

// Duplicates lists likely duplicate procedures.
type Duplicates struct {
	AnomalyType string           `json:"anomaly_type"`
	Description string           `json:"description"`
	Severity    Severity         `json:"severity"`
	Count       int              `json:"count"`
	Procedures  []DuplicateGroup `json:"procedures"`
}

// DuplicateProcedures reports groups of more than one procedure with the
// same chart number, date of service and type code.
func (d *Detector) DuplicateProcedures(ctx context.Context) (*Duplicates, error) {
	rows, err := d.q.Query(ctx, `
		SELECT chart_number, date_of_service, type_code, count(*),
			array_agg(procedure_id ORDER BY procedure_id)
		FROM procedure_summary
		GROUP BY chart_number, date_of_service, type_code
		HAVING count(*) > 1
		ORDER BY date_of_service, chart_number, type_code`)
	if err != nil {
		return nil, fmt.Errorf("duplicate procedures: %w", err)
	}
	defer rows.Close()

	out := &Duplicates{
		AnomalyType: "duplicate_procedures",
		Description: "Potential duplicate procedures (same patient, date, and type)",
		Severity:    SeverityLow,
		Procedures:  []DuplicateGroup{},
	}
	for rows.Next() {
		var (
			g   DuplicateGroup
			dos time.Time
		)
		if err := rows.Scan(&g.ChartNumber, &dos, &g.TypeCode, &g.DuplicateCount, &g.ProcedureIDs); err != nil {
			return nil, fmt.Errorf("scan duplicate group: %w", err)
		}
		g.DateOfService = model.NewDate(dos)
		out.Procedures = append(out.Procedures, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out.Count = len(out.Procedures)
	return out, nil
}

// Report is every check at once.
type Report struct {
	TotalAnomalies       int                   `json:"total_anomalies"`
	PaymentExceedsCharge *PaymentExceedsCharge `json:"payment_exceeds_charge"`
	MissingPayments      *MissingPayments      `json:"missing_payments"`
	DuplicateProcedures  *Duplicates           `json:"duplicate_procedures"`
}

// DetectAll runs every check over the date range of f.
func (d *Detector) DetectAll(ctx context.Context, f model.Filter, thresholdDays int) (*Report, error) {
	over, err := d.PaymentsExceedCharges(ctx, f)
	if err != nil {
		return nil, err
	}
	missing, err := d.MissingPayments(ctx, f, thresholdDays)
	if err != nil {
		return nil, err
	}
	dups, err := d.DuplicateProcedures(ctx)
	if err != nil {
		return nil, err
	}
	r := &Report{
		TotalAnomalies:       over.Count + missing.Count + dups.Count,
		PaymentExceedsCharge: over,
		MissingPayments:      missing,
		DuplicateProcedures:  dups,
	}
	d.log.Debug().
		Int("overpaid", over.Count).
		Int("missing", missing.Count).
		Int("duplicates", dups.Count).
		Msg("anomaly scan")
	return r, nil
}
