package model

// ColumnKind selects the coercion applied to a workbook cell.
type ColumnKind int

const (
	KindString ColumnKind = iota
	KindInt
	KindMoney
	KindDate
	KindBool
)

// SheetColumn maps one workbook header to a transaction field.
type SheetColumn struct {
	Header string     // workbook header, e.g. "Date of Service"
	Field  string     // column / field name, e.g. "date_of_service"
	Kind   ColumnKind // coercion rule
}

// SheetColumns lists every recognized workbook column in export order.
var SheetColumns = []SheetColumn{
	{Header: "Office Key", Field: "office_key", Kind: KindInt},
	{Header: "Chart Number", Field: "chart_number", Kind: KindInt},
	{Header: "Visit Number", Field: "visit_number", Kind: KindString},
	{Header: "Procedure_ID", Field: "procedure_id", Kind: KindString},
	{Header: "Procedure_Seq", Field: "procedure_seq", Kind: KindInt},
	{Header: "Transaction Type", Field: "transaction_type", Kind: KindString},
	{Header: "Charge Code", Field: "charge_code", Kind: KindString},
	{Header: "Transaction Code", Field: "transaction_code", Kind: KindString},
	{Header: "Transaction Code Desc", Field: "transaction_code_desc", Kind: KindString},
	{Header: "Modifiers", Field: "modifiers", Kind: KindString},
	{Header: "Date of Service", Field: "date_of_service", Kind: KindDate},
	{Header: "Date of Entry", Field: "date_of_entry", Kind: KindDate},
	{Header: "Date of Deposit", Field: "date_of_deposit", Kind: KindDate},
	{Header: "Charges", Field: "charges", Kind: KindMoney},
	{Header: "Patient Payments", Field: "patient_payments", Kind: KindMoney},
	{Header: "Insurance Payments", Field: "insurance_payments", Kind: KindMoney},
	{Header: "Total Payments", Field: "total_payments", Kind: KindMoney},
	{Header: "Adjustments", Field: "adjustments", Kind: KindMoney},
	{Header: "Units", Field: "units", Kind: KindMoney},
	{Header: "Surgery_Type", Field: "surgery_type", Kind: KindString},
	{Header: "Type_Code", Field: "type_code", Kind: KindString},
	{Header: "Billing_Category", Field: "billing_category", Kind: KindString},
	{Header: "Billing_Subcategory", Field: "billing_subcategory", Kind: KindString},
	{Header: "ChargeCodeNorm", Field: "charge_code_norm", Kind: KindString},
	{Header: "Visit - Primary Carrier", Field: "visit_primary_carrier", Kind: KindString},
	{Header: "Visit - Secondary Carrier", Field: "visit_secondary_carrier", Kind: KindString},
	{Header: "Transaction Carrier", Field: "transaction_carrier", Kind: KindString},
	{Header: "Facility Name", Field: "facility_name", Kind: KindString},
	{Header: "Provider Profile", Field: "provider_profile", Kind: KindString},
	{Header: "Financial Class", Field: "financial_class", Kind: KindString},
	{Header: "Primary Dx ICD9", Field: "primary_dx_icd9", Kind: KindString},
	{Header: "Primary Dx ICD10", Field: "primary_dx_icd10", Kind: KindString},
	{Header: "Payment Method", Field: "payment_method", Kind: KindString},
	{Header: "Check Number", Field: "check_number", Kind: KindString},
	{Header: "Void", Field: "void", Kind: KindBool},
	{Header: "Flag_Procedure_Unknown", Field: "flag_procedure_unknown", Kind: KindBool},
	{Header: "Flag_Billing_Unknown", Field: "flag_billing_unknown", Kind: KindBool},
	{Header: "DOS_STR", Field: "dos_str", Kind: KindString},
}

// RequiredHeaders must be present in every imported sheet.
var RequiredHeaders = []string{"Procedure_ID", "Date of Service"}

// SheetColumnByHeader returns the column for the given workbook header, or ok=false.
func SheetColumnByHeader(header string) (SheetColumn, bool) {
	for _, c := range SheetColumns {
		if c.Header == header {
			return c, true
		}
	}
	return SheetColumn{}, false
}

// SheetHeaders returns the workbook headers in export order.
func SheetHeaders() []string {
	headers := make([]string, len(SheetColumns))
	for i, c := range SheetColumns {
		headers[i] = c.Header
	}
	return headers
}

// RawRow is one source record keyed by field name, before coercion.
// Missing fields read as the empty string.
type RawRow map[string]string

// Get returns the raw cell value for field.
func (r RawRow) Get(field string) string {
	return r[field]
}
