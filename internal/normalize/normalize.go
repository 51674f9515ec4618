package normalize

import (
	"errors"

	"github.com/gyeh/billingdash/internal/model"
)

// Row rejection reasons.
var (
	ErrMissingProcedureID   = errors.New("missing procedure_id")
	ErrMissingDateOfService = errors.New("missing or unparseable date_of_service")
)

// ToTransaction coerces a raw source row into a Transaction. Rows without a
// procedure identifier or a usable date of service are rejected.
func ToTransaction(raw model.RawRow) (*model.Transaction, error) {
	procID := CleanString(raw.Get("procedure_id"))
	if procID == nil {
		return nil, ErrMissingProcedureID
	}
	dos := ParseDate(raw.Get("date_of_service"))
	if dos == nil {
		return nil, ErrMissingDateOfService
	}

	return &model.Transaction{
		OfficeKey:    ParseInt(raw.Get("office_key")),
		ChartNumber:  ParseInt(raw.Get("chart_number")),
		VisitNumber:  CleanString(raw.Get("visit_number")),
		ProcedureID:  *procID,
		ProcedureSeq: ParseInt(raw.Get("procedure_seq")),

		TransactionType:     CleanString(raw.Get("transaction_type")),
		ChargeCode:          CleanString(raw.Get("charge_code")),
		TransactionCode:     CleanString(raw.Get("transaction_code")),
		TransactionCodeDesc: CleanString(raw.Get("transaction_code_desc")),
		Modifiers:           CleanString(raw.Get("modifiers")),

		DateOfService: *dos,
		DateOfEntry:   ParseDate(raw.Get("date_of_entry")),
		DateOfDeposit: ParseDate(raw.Get("date_of_deposit")),

		Charges:           ParseMoney(raw.Get("charges")),
		PatientPayments:   ParseMoney(raw.Get("patient_payments")),
		InsurancePayments: ParseMoney(raw.Get("insurance_payments")),
		TotalPayments:     ParseMoney(raw.Get("total_payments")),
		Adjustments:       ParseMoney(raw.Get("adjustments")),
		Units:             ParseMoney(raw.Get("units")),

		SurgeryType:        CleanString(raw.Get("surgery_type")),
		TypeCode:           CleanString(raw.Get("type_code")),
		BillingCategory:    CleanString(raw.Get("billing_category")),
		BillingSubcategory: CleanString(raw.Get("billing_subcategory")),
		ChargeCodeNorm:     CleanString(raw.Get("charge_code_norm")),

		VisitPrimaryCarrier:   CleanString(raw.Get("visit_primary_carrier")),
		VisitSecondaryCarrier: CleanString(raw.Get("visit_secondary_carrier")),
		TransactionCarrier:    CleanString(raw.Get("transaction_carrier")),

		FacilityName:    CleanString(raw.Get("facility_name")),
		ProviderProfile: CleanString(raw.Get("provider_profile")),
		FinancialClass:  CleanString(raw.Get("financial_class")),

		PrimaryDxICD9:  CleanString(raw.Get("primary_dx_icd9")),
		PrimaryDxICD10: CleanString(raw.Get("primary_dx_icd10")),

		PaymentMethod: CleanString(raw.Get("payment_method")),
		CheckNumber:   CleanString(raw.Get("check_number")),

		Void:                 ParseBool(raw.Get("void")),
		FlagProcedureUnknown: ParseBool(raw.Get("flag_procedure_unknown")),
		FlagBillingUnknown:   ParseBool(raw.Get("flag_billing_unknown")),

		DOSStr: CleanString(raw.Get("dos_str")),
	}, nil
}
