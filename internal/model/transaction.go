package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is one raw billing line (charge, payment or adjustment) as
// imported from a workbook. Transactions are append-only.
type Transaction struct {
	ID       int64
	UploadID *int64

	// Identifiers
	OfficeKey    *int64
	ChartNumber  *int64
	VisitNumber  *string
	ProcedureID  string
	ProcedureSeq *int64

	// Transaction info
	TransactionType     *string
	ChargeCode          *string
	TransactionCode     *string
	TransactionCodeDesc *string
	Modifiers           *string

	// Dates
	DateOfService time.Time
	DateOfEntry   *time.Time
	DateOfDeposit *time.Time

	// Money; total_payments is trusted from the source file, never recomputed.
	Charges           decimal.Decimal
	PatientPayments   decimal.Decimal
	InsurancePayments decimal.Decimal
	TotalPayments     decimal.Decimal
	Adjustments       decimal.Decimal
	Units             decimal.Decimal

	// Classification
	SurgeryType        *string
	TypeCode           *string
	BillingCategory    *string
	BillingSubcategory *string
	ChargeCodeNorm     *string

	// Carriers
	VisitPrimaryCarrier   *string
	VisitSecondaryCarrier *string
	TransactionCarrier    *string

	FacilityName    *string
	ProviderProfile *string
	FinancialClass  *string

	PrimaryDxICD9  *string
	PrimaryDxICD10 *string

	PaymentMethod *string
	CheckNumber   *string

	Void                 bool
	FlagProcedureUnknown bool
	FlagBillingUnknown   bool

	DOSStr *string

	CreatedAt time.Time
}

// TransactionColumns returns the ordered column names for COPY into transactions.
func TransactionColumns() []string {
	return []string{
		"upload_id",
		"office_key", "chart_number", "visit_number", "procedure_id", "procedure_seq",
		"transaction_type", "charge_code", "transaction_code", "transaction_code_desc", "modifiers",
		"date_of_service", "date_of_entry", "date_of_deposit",
		"charges", "patient_payments", "insurance_payments", "total_payments", "adjustments", "units",
		"surgery_type", "type_code", "billing_category", "billing_subcategory", "charge_code_norm",
		"visit_primary_carrier", "visit_secondary_carrier", "transaction_carrier",
		"facility_name", "provider_profile", "financial_class",
		"primary_dx_icd9", "primary_dx_icd10",
		"payment_method", "check_number",
		"void", "flag_procedure_unknown", "flag_billing_unknown",
		"dos_str",
	}
}

// CopyValues returns the transaction's values in TransactionColumns order.
func (t *Transaction) CopyValues() []any {
	return []any{
		t.UploadID,
		t.OfficeKey, t.ChartNumber, t.VisitNumber, t.ProcedureID, t.ProcedureSeq,
		t.TransactionType, t.ChargeCode, t.TransactionCode, t.TransactionCodeDesc, t.Modifiers,
		t.DateOfService, t.DateOfEntry, t.DateOfDeposit,
		Numeric(t.Charges), Numeric(t.PatientPayments), Numeric(t.InsurancePayments),
		Numeric(t.TotalPayments), Numeric(t.Adjustments), Numeric(t.Units),
		t.SurgeryType, t.TypeCode, t.BillingCategory, t.BillingSubcategory, t.ChargeCodeNorm,
		t.VisitPrimaryCarrier, t.VisitSecondaryCarrier, t.TransactionCarrier,
		t.FacilityName, t.ProviderProfile, t.FinancialClass,
		t.PrimaryDxICD9, t.PrimaryDxICD10,
		t.PaymentMethod, t.CheckNumber,
		t.Void, t.FlagProcedureUnknown, t.FlagBillingUnknown,
		t.DOSStr,
	}
}
