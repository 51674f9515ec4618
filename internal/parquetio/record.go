package parquetio

import (
	"time"

	"github.com/gyeh/billingdash/internal/model"
)

// TransactionRecord is the columnar form of one billing line. Every column is
// an optional string so files produced by spreadsheet converters load without
// a strict schema; values go through the same coercion as workbook cells.
type TransactionRecord struct {
	OfficeKey             *string `parquet:"office_key,optional"`
	ChartNumber           *string `parquet:"chart_number,optional"`
	VisitNumber           *string `parquet:"visit_number,optional"`
	ProcedureID           *string `parquet:"procedure_id,optional"`
	ProcedureSeq          *string `parquet:"procedure_seq,optional"`
	TransactionType       *string `parquet:"transaction_type,optional"`
	ChargeCode            *string `parquet:"charge_code,optional"`
	TransactionCode       *string `parquet:"transaction_code,optional"`
	TransactionCodeDesc   *string `parquet:"transaction_code_desc,optional"`
	Modifiers             *string `parquet:"modifiers,optional"`
	DateOfService         *string `parquet:"date_of_service,optional"`
	DateOfEntry           *string `parquet:"date_of_entry,optional"`
	DateOfDeposit         *string `parquet:"date_of_deposit,optional"`
	Charges               *string `parquet:"charges,optional"`
	PatientPayments       *string `parquet:"patient_payments,optional"`
	InsurancePayments     *string `parquet:"insurance_payments,optional"`
	TotalPayments         *string `parquet:"total_payments,optional"`
	Adjustments           *string `parquet:"adjustments,optional"`
	Units                 *string `parquet:"units,optional"`
	SurgeryType           *string `parquet:"surgery_type,optional"`
	TypeCode              *string `parquet:"type_code,optional"`
	BillingCategory       *string `parquet:"billing_category,optional"`
	BillingSubcategory    *string `parquet:"billing_subcategory,optional"`
	ChargeCodeNorm        *string `parquet:"charge_code_norm,optional"`
	VisitPrimaryCarrier   *string `parquet:"visit_primary_carrier,optional"`
	VisitSecondaryCarrier *string `parquet:"visit_secondary_carrier,optional"`
	TransactionCarrier    *string `parquet:"transaction_carrier,optional"`
	FacilityName          *string `parquet:"facility_name,optional"`
	ProviderProfile       *string `parquet:"provider_profile,optional"`
	FinancialClass        *string `parquet:"financial_class,optional"`
	PrimaryDxICD9         *string `parquet:"primary_dx_icd9,optional"`
	PrimaryDxICD10        *string `parquet:"primary_dx_icd10,optional"`
	PaymentMethod         *string `parquet:"payment_method,optional"`
	CheckNumber           *string `parquet:"check_number,optional"`
	Void                  *string `parquet:"void,optional"`
	FlagProcedureUnknown  *string `parquet:"flag_procedure_unknown,optional"`
	FlagBillingUnknown    *string `parquet:"flag_billing_unknown,optional"`
	DOSStr                *string `parquet:"dos_str,optional"`
}

// fields maps field names to the record's column slots.
func (r *TransactionRecord) fields() map[string]**string {
	return map[string]**string{
		"office_key":              &r.OfficeKey,
		"chart_number":            &r.ChartNumber,
		"visit_number":            &r.VisitNumber,
		"procedure_id":            &r.ProcedureID,
		"procedure_seq":           &r.ProcedureSeq,
		"transaction_type":        &r.TransactionType,
		"charge_code":             &r.ChargeCode,
		"transaction_code":        &r.TransactionCode,
		"transaction_code_desc":   &r.TransactionCodeDesc,
		"modifiers":               &r.Modifiers,
		"date_of_service":         &r.DateOfService,
		"date_of_entry":           &r.DateOfEntry,
		"date_of_deposit":         &r.DateOfDeposit,
		"charges":                 &r.Charges,
		"patient_payments":        &r.PatientPayments,
		"insurance_payments":      &r.InsurancePayments,
		"total_payments":          &r.TotalPayments,
		"adjustments":             &r.Adjustments,
		"units":                   &r.Units,
		"surgery_type":            &r.SurgeryType,
		"type_code":               &r.TypeCode,
		"billing_category":        &r.BillingCategory,
		"billing_subcategory":     &r.BillingSubcategory,
		"charge_code_norm":        &r.ChargeCodeNorm,
		"visit_primary_carrier":   &r.VisitPrimaryCarrier,
		"visit_secondary_carrier": &r.VisitSecondaryCarrier,
		"transaction_carrier":     &r.TransactionCarrier,
		"facility_name":           &r.FacilityName,
		"provider_profile":        &r.ProviderProfile,
		"financial_class":         &r.FinancialClass,
		"primary_dx_icd9":         &r.PrimaryDxICD9,
		"primary_dx_icd10":        &r.PrimaryDxICD10,
		"payment_method":          &r.PaymentMethod,
		"check_number":            &r.CheckNumber,
		"void":                    &r.Void,
		"flag_procedure_unknown":  &r.FlagProcedureUnknown,
		"flag_billing_unknown":    &r.FlagBillingUnknown,
		"dos_str":                 &r.DOSStr,
	}
}

// RawRow converts the record into the field-keyed form consumed by normalize.
func (r *TransactionRecord) RawRow() model.RawRow {
	raw := make(model.RawRow)
	for field, slot := range r.fields() {
		if *slot != nil {
			raw[field] = **slot
		}
	}
	return raw
}

// NewTransactionRecord builds a record from raw field values. Empty values
// are written as nulls.
func NewTransactionRecord(raw model.RawRow) TransactionRecord {
	var rec TransactionRecord
	for field, slot := range rec.fields() {
		if v := raw.Get(field); v != "" {
			*slot = &v
		}
	}
	return rec
}

// ProcedureRecord is the export form of a procedure summary. Money is written
// as float64 rounded to cents; dates as YYYY-MM-DD strings.
type ProcedureRecord struct {
	ProcedureID         string  `parquet:"procedure_id"`
	ChartNumber         *int64  `parquet:"chart_number,optional"`
	DateOfService       string  `parquet:"date_of_service"`
	SurgeryType         *string `parquet:"surgery_type,optional"`
	TypeCode            *string `parquet:"type_code,optional"`
	PrimaryCarrier      *string `parquet:"primary_carrier,optional"`
	SecondaryCarrier    *string `parquet:"secondary_carrier,optional"`
	FacilityName        *string `parquet:"facility_name,optional"`
	ProviderProfile     *string `parquet:"provider_profile,optional"`
	TotalCharges        float64 `parquet:"total_charges"`
	TotalPayments       float64 `parquet:"total_payments"`
	TotalAdjustments    float64 `parquet:"total_adjustments"`
	PatientPayments     float64 `parquet:"patient_payments"`
	InsurancePayments   float64 `parquet:"insurance_payments"`
	ProFeeCharges       float64 `parquet:"pro_fee_charges"`
	ProFeePayments      float64 `parquet:"pro_fee_payments"`
	FacilityFeeCharges  float64 `parquet:"facility_fee_charges"`
	FacilityFeePayments float64 `parquet:"facility_fee_payments"`
	FirstChargeDate     *string `parquet:"first_charge_date,optional"`
	FirstPaymentDate    *string `parquet:"first_payment_date,optional"`
	LastPaymentDate     *string `parquet:"last_payment_date,optional"`
	DaysToFirstPayment  *int32  `parquet:"days_to_first_payment,optional"`
	CollectionRate      float64 `parquet:"collection_rate"`
	Status              string  `parquet:"status"`
}

// NewProcedureRecord builds the export form of s.
func NewProcedureRecord(s *model.ProcedureSummary) ProcedureRecord {
	rec := ProcedureRecord{
		ProcedureID:         s.ProcedureID,
		ChartNumber:         s.ChartNumber,
		DateOfService:       s.DateOfService.Format(time.DateOnly),
		SurgeryType:         s.SurgeryType,
		TypeCode:            s.TypeCode,
		PrimaryCarrier:      s.PrimaryCarrier,
		SecondaryCarrier:    s.SecondaryCarrier,
		FacilityName:        s.FacilityName,
		ProviderProfile:     s.ProviderProfile,
		TotalCharges:        s.TotalCharges.InexactFloat64(),
		TotalPayments:       s.TotalPayments.InexactFloat64(),
		TotalAdjustments:    s.TotalAdjustments.InexactFloat64(),
		PatientPayments:     s.PatientPayments.InexactFloat64(),
		InsurancePayments:   s.InsurancePayments.InexactFloat64(),
		ProFeeCharges:       s.ProFeeCharges.InexactFloat64(),
		ProFeePayments:      s.ProFeePayments.InexactFloat64(),
		FacilityFeeCharges:  s.FacilityFeeCharges.InexactFloat64(),
		FacilityFeePayments: s.FacilityFeePayments.InexactFloat64(),
		FirstChargeDate:     dateString(s.FirstChargeDate),
		FirstPaymentDate:    dateString(s.FirstPaymentDate),
		LastPaymentDate:     dateString(s.LastPaymentDate),
		CollectionRate:      s.CollectionRate.InexactFloat64(),
		Status:              string(s.Status),
	}
	if s.DaysToFirstPayment != nil {
		d := int32(*s.DaysToFirstPayment)
		rec.DaysToFirstPayment = &d
	}
	return rec
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
