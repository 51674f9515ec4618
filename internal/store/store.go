// Package store is the read repository over procedure summaries,
// transactions and uploads backing the browse endpoints.
package store

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gyeh/billingdash/internal/db"
	"github.com/gyeh/billingdash/internal/model"
)

// Store reads from the billing tables.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) conn() db.Querier {
	return s.pool
}

const summaryCols = `id, procedure_id, chart_number, date_of_service, surgery_type, type_code,
	primary_carrier, secondary_carrier, facility_name, provider_profile,
	total_charges, total_payments, total_adjustments, patient_payments, insurance_payments,
	pro_fee_charges, pro_fee_payments, facility_fee_charges, facility_fee_payments,
	first_charge_date, first_payment_date, last_payment_date, days_to_first_payment,
	collection_rate, status, created_at, updated_at`

func scanSummary(row pgx.Row) (*model.ProcedureSummary, error) {
	var (
		p                                            model.ProcedureSummary
		charges, payments, adjustments, patient, ins pgtype.Numeric
		proCharges, proPayments, facCharges, facPaid pgtype.Numeric
		rate                                         pgtype.Numeric
		status                                       string
	)
	err := row.Scan(&p.ID, &p.ProcedureID, &p.ChartNumber, &p.DateOfService, &p.SurgeryType, &p.TypeCode,
		&p.PrimaryCarrier, &p.SecondaryCarrier, &p.FacilityName, &p.ProviderProfile,
		&charges, &payments, &adjustments, &patient, &ins,
		&proCharges, &proPayments, &facCharges, &facPaid,
		&p.FirstChargeDate, &p.FirstPaymentDate, &p.LastPaymentDate, &p.DaysToFirstPayment,
		&rate, &status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.TotalCharges = model.Decimal(charges)
	p.TotalPayments = model.Decimal(payments)
	p.TotalAdjustments = model.Decimal(adjustments)
	p.PatientPayments = model.Decimal(patient)
	p.InsurancePayments = model.Decimal(ins)
	p.ProFeeCharges = model.Decimal(proCharges)
	p.ProFeePayments = model.Decimal(proPayments)
	p.FacilityFeeCharges = model.Decimal(facCharges)
	p.FacilityFeePayments = model.Decimal(facPaid)
	p.CollectionRate = model.Decimal(rate)
	p.Status = model.Status(status)
	return &p, nil
}

func collectSummaries(rows pgx.Rows) ([]*model.ProcedureSummary, error) {
	defer rows.Close()
	var out []*model.ProcedureSummary
	for rows.Next() {
		p, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// ProcedureView is the wire form of a procedure summary.
type ProcedureView struct {
	ID                  int64       `json:"id"`
	ProcedureID         string      `json:"procedure_id"`
	ChartNumber         *int64      `json:"chart_number"`
	DateOfService       model.Date  `json:"date_of_service"`
	SurgeryType         *string     `json:"surgery_type"`
	TypeCode            *string     `json:"type_code"`
	PrimaryCarrier      *string     `json:"primary_carrier"`
	SecondaryCarrier    *string     `json:"secondary_carrier"`
	FacilityName        *string     `json:"facility_name"`
	ProviderProfile     *string     `json:"provider_profile"`
	TotalCharges        float64     `json:"total_charges"`
	TotalPayments       float64     `json:"total_payments"`
	TotalAdjustments    float64     `json:"total_adjustments"`
	PatientPayments     float64     `json:"patient_payments"`
	InsurancePayments   float64     `json:"insurance_payments"`
	ProFeeCharges       float64     `json:"pro_fee_charges"`
	ProFeePayments      float64     `json:"pro_fee_payments"`
	FacilityFeeCharges  float64     `json:"facility_fee_charges"`
	FacilityFeePayments float64     `json:"facility_fee_payments"`
	FirstChargeDate     *model.Date `json:"first_charge_date"`
	FirstPaymentDate    *model.Date `json:"first_payment_date"`
	LastPaymentDate     *model.Date `json:"last_payment_date"`
	DaysToFirstPayment  *int        `json:"days_to_first_payment"`
	CollectionRate      float64     `json:"collection_rate"`
	Status              string      `json:"status"`
	CreatedAt           time.Time   `json:"created_at"`
}

// NewProcedureView converts a summary into its wire form.
func NewProcedureView(p *model.ProcedureSummary) ProcedureView {
	return ProcedureView{
		ID:                  p.ID,
		ProcedureID:         p.ProcedureID,
		ChartNumber:         p.ChartNumber,
		DateOfService:       model.NewDate(p.DateOfService),
		SurgeryType:         p.SurgeryType,
		TypeCode:            p.TypeCode,
		PrimaryCarrier:      p.PrimaryCarrier,
		SecondaryCarrier:    p.SecondaryCarrier,
		FacilityName:        p.FacilityName,
		ProviderProfile:     p.ProviderProfile,
		TotalCharges:        p.TotalCharges.InexactFloat64(),
		TotalPayments:       p.TotalPayments.InexactFloat64(),
		TotalAdjustments:    p.TotalAdjustments.InexactFloat64(),
		PatientPayments:     p.PatientPayments.InexactFloat64(),
		InsurancePayments:   p.InsurancePayments.InexactFloat64(),
		ProFeeCharges:       p.ProFeeCharges.InexactFloat64(),
		ProFeePayments:      p.ProFeePayments.InexactFloat64(),
		FacilityFeeCharges:  p.FacilityFeeCharges.InexactFloat64(),
		FacilityFeePayments: p.FacilityFeePayments.InexactFloat64(),
		FirstChargeDate:     model.DatePtr(p.FirstChargeDate),
		FirstPaymentDate:    model.DatePtr(p.FirstPaymentDate),
		LastPaymentDate:     model.DatePtr(p.LastPaymentDate),
		DaysToFirstPayment:  p.DaysToFirstPayment,
		CollectionRate:      p.CollectionRate.InexactFloat64(),
		Status:              string(p.Status),
		CreatedAt:           p.CreatedAt,
	}
}
