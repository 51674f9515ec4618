package recovery

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/model"
)

// Service computes recovery over the stored procedures.
type Service struct {
	q   db.Querier
	log zerolog.Logger
	now func() time.Time
}

// New returns a Service over pool. A nil now uses time.Now.
func New(pool *pgxpool.Pool, log zerolog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{q: pool, log: log, now: now}
}

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Calculate returns the recovery of the procedures matching f.
func (s *Service) Calculate(ctx context.Context, f model.Filter) (*Result, error) {
	cohort, err := s.cohort(ctx, f)
	if err != nil {
		return nil, err
	}
	if len(cohort) == 0 {
		return Compute(nil, nil, s.today()), nil
	}
	deposits, err := s.deposits(ctx, f)
	if err != nil {
		return nil, err
	}
	return Compute(cohort, NewIndex(deposits), s.today()), nil
}

func (s *Service) cohort(ctx context.Context, f model.Filter) ([]Procedure, error) {
	w := db.NewWhere().Filter(f, db.SummaryFilter)
	rows, err := s.q.Query(ctx, `
		SELECT procedure_id, date_of_service, total_charges, total_payments
		FROM procedure_summary`+w.SQL(), w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("recovery cohort: %w", err)
	}
	defer rows.Close()

	var out []Procedure
	for rows.Next() {
		var (
			p                 Procedure
			charges, payments pgtype.Numeric
		)
		if err := rows.Scan(&p.ID, &p.DateOfService, &charges, &payments); err != nil {
			return nil, fmt.Errorf("scan cohort: %w", err)
		}
		p.Charges = model.Decimal(charges)
		p.Payments = model.Decimal(payments)
		out = append(out, p)
	}
	return out, rows.Err()
}

// deposits loads every positive, dated payment of the cohort matching f in
// one query.
func (s *Service) deposits(ctx context.Context, f model.Filter) ([]Deposit, error) {
	w := db.NewWhere().Filter(f, db.FilterColumns{
		Date:     "p.date_of_service",
		Patient:  "p.chart_number",
		TypeCode: "p.type_code",
		Carrier:  "p.primary_carrier",
	}).Add("t.date_of_deposit IS NOT NULL").Add("t.total_payments > 0")
	rows, err := s.q.Query(ctx, `
		SELECT t.procedure_id, t.date_of_deposit, t.total_payments
		FROM transactions t
		JOIN procedure_summary p ON p.procedure_id = t.procedure_id`+w.SQL(), w.Args()...)
	if err != nil {
		return nil, fmt.Errorf("recovery deposits: %w", err)
	}
	defer rows.Close()

	var out []Deposit
	for rows.Next() {
		var (
			d      Deposit
			amount pgtype.Numeric
		)
		if err := rows.Scan(&d.ProcedureID, &d.Date, &amount); err != nil {
			return nil, fmt.Errorf("scan deposit: %w", err)
		}
		d.Amount = model.Decimal(amount)
		out = append(out, d)
	}
	return out, rows.Err()
}

// Rates is the flat form of a Result used by breakdowns.
type Rates struct {
	Recovery1Month        float64 `json:"recovery_1_month"`
	Recovery3Month        float64 `json:"recovery_3_month"`
	Recovery6Month        float64 `json:"recovery_6_month"`
	Recovery12Month       float64 `json:"recovery_12_month"`
	OverallCollectionRate float64 `json:"overall_collection_rate"`
	TotalCharges          float64 `json:"total_charges"`
	TotalPayments         float64 `json:"total_payments"`
}

func ratesOf(r *Result) Rates {
	return Rates{
		Recovery1Month:        r.Recovery1Month.Percent,
		Recovery3Month:        r.Recovery3Month.Percent,
		Recovery6Month:        r.Recovery6Month.Percent,
		Recovery12Month:       r.Recovery12Month.Percent,
		OverallCollectionRate: r.OverallCollectionRate,
		TotalCharges:          r.TotalCharges,
		TotalPayments:         r.TotalPayments,
	}
}

// TypeRecovery is the recovery of one surgery type.
type TypeRecovery struct {
	TypeCode string `json:"type_code"`
	Rates
}

// CarrierRecovery is the recovery of one primary carrier.
type CarrierRecovery struct {
	Carrier string `json:"carrier"`
	Rates
}

func (s *Service) distinct(ctx context.Context, col string) ([]string, error) {
	rows, err := s.q.Query(ctx, fmt.Sprintf(
		"SELECT DISTINCT %[1]s FROM procedure_summary WHERE %[1]s IS NOT NULL AND %[1]s <> '' ORDER BY %[1]s", col))
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", col, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// BySurgeryType recomputes the recovery once per surgery type on file,
// each time as if that type were the only type filter. Only the date range
// and carrier of f apply.
func (s *Service) BySurgeryType(ctx context.Context, f model.Filter) ([]TypeRecovery, error) {
	codes, err := s.distinct(ctx, "type_code")
	if err != nil {
		return nil, err
	}
	base := model.Filter{DateFrom: f.DateFrom, DateTo: f.DateTo, Carrier: f.Carrier}
	out := make([]TypeRecovery, 0, len(codes))
	for _, code := range codes {
		r, err := s.Calculate(ctx, base.WithTypeCode(code))
		if err != nil {
			return nil, err
		}
		out = append(out, TypeRecovery{TypeCode: code, Rates: ratesOf(r)})
	}
	return out, nil
}

// ByInsurance recomputes the recovery once per primary carrier on file.
// Only the date range and type code of f apply.
func (s *Service) ByInsurance(ctx context.Context, f model.Filter) ([]CarrierRecovery, error) {
	carriers, err := s.distinct(ctx, "primary_carrier")
	if err != nil {
		return nil, err
	}
	base := model.Filter{DateFrom: f.DateFrom, DateTo: f.DateTo, TypeCode: f.TypeCode}
	out := make([]CarrierRecovery, 0, len(carriers))
	for _, c := range carriers {
		r, err := s.Calculate(ctx, base.WithCarrier(c))
		if err != nil {
			return nil, err
		}
		out = append(out, CarrierRecovery{Carrier: c, Rates: ratesOf(r)})
	}
	return out, nil
}

// Analysis is the recovery of a cohort with its breakdowns.
type Analysis struct {
	*Result
	BreakdownByType    []TypeRecovery    `json:"breakdown_by_type"`
	BreakdownByCarrier []CarrierRecovery `json:"breakdown_by_carrier"`
}

// Analyze returns the recovery of the procedures matching f together with
// the per-type and per-carrier breakdowns.
func (s *Service) Analyze(ctx context.Context, f model.Filter) (*Analysis, error) {
	start := time.Now()
	res, err := s.Calculate(ctx, f)
	if err != nil {
		return nil, err
	}
	byType, err := s.BySurgeryType(ctx, f)
	if err != nil {
		return nil, err
	}
	byCarrier, err := s.ByInsurance(ctx, f)
	if err != nil {
		return nil, err
	}
	s.log.Debug().
		Int("types", len(byType)).
		Int("carriers", len(byCarrier)).
		Dur("duration", time.Since(start)).
		Msg("recovery analysis")
	return &Analysis{Result: res, BreakdownByType: byType, BreakdownByCarrier: byCarrier}, nil
}

// Expected is the historical recovery used as a planning forecast.
type Expected struct {
	Expected1MonthPercent  float64 `json:"expected_1_month_percent"`
	Expected3MonthPercent  float64 `json:"expected_3_month_percent"`
	Expected6MonthPercent  float64 `json:"expected_6_month_percent"`
	Expected12MonthPercent float64 `json:"expected_12_month_percent"`
	OverallCollectionRate  float64 `json:"overall_collection_rate"`
	BasedOnProcedures      int     `json:"based_on_procedures"`
	TypeCode               *string `json:"type_code"`
	Carrier                *string `json:"carrier"`
}

// ExpectedRecovery returns the all-time recovery of the procedures matching
// the type code and carrier of f.
func (s *Service) ExpectedRecovery(ctx context.Context, f model.Filter) (*Expected, error) {
	r, err := s.Calculate(ctx, model.Filter{TypeCode: f.TypeCode, Carrier: f.Carrier})
	if err != nil {
		return nil, err
	}
	return &Expected{
		Expected1MonthPercent:  r.Recovery1Month.Percent,
		Expected3MonthPercent:  r.Recovery3Month.Percent,
		Expected6MonthPercent:  r.Recovery6Month.Percent,
		Expected12MonthPercent: r.Recovery12Month.Percent,
		OverallCollectionRate:  r.OverallCollectionRate,
		BasedOnProcedures:      r.Recovery12Month.Procedures,
		TypeCode:               f.TypeCode,
		Carrier:                f.Carrier,
	}, nil
}
