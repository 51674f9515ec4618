package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the collection lifecycle state of a procedure.
type Status string

const (
	StatusPending    Status = "pending"
	StatusPartial    Status = "partial"
	StatusCollected  Status = "collected"
	StatusWrittenOff Status = "written_off"
)

// AllStatuses lists the statuses in lifecycle order.
var AllStatuses = []Status{StatusPending, StatusPartial, StatusCollected, StatusWrittenOff}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Billing categories with dedicated sub-totals. Matching is exact and case-sensitive.
const (
	CategoryProFee      = "Pro Fee"
	CategoryFacilityFee = "Facility Fee"
)

// ProcedureSummary is the derived aggregate of every transaction sharing a
// procedure identifier. It is fully determined by that transaction set.
type ProcedureSummary struct {
	ID          int64
	ProcedureID string

	ChartNumber   *int64
	DateOfService time.Time
	SurgeryType   *string
	TypeCode      *string

	PrimaryCarrier   *string
	SecondaryCarrier *string
	FacilityName     *string
	ProviderProfile  *string

	TotalCharges      decimal.Decimal
	TotalPayments     decimal.Decimal
	TotalAdjustments  decimal.Decimal
	PatientPayments   decimal.Decimal
	InsurancePayments decimal.Decimal

	ProFeeCharges       decimal.Decimal
	ProFeePayments      decimal.Decimal
	FacilityFeeCharges  decimal.Decimal
	FacilityFeePayments decimal.Decimal

	FirstChargeDate    *time.Time
	FirstPaymentDate   *time.Time
	LastPaymentDate    *time.Time
	DaysToFirstPayment *int

	CollectionRate decimal.Decimal
	Status         Status

	CreatedAt time.Time
	UpdatedAt time.Time
}
