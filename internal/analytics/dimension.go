package analytics

import (
	"strings"

	"github.com/gyeh/billingdash/internal/apperr"
)

// Dimension is a categorical axis of the dynamic matrix.
type Dimension int

const (
	DimSurgeryType Dimension = iota + 1
	DimCarrier
	DimBillingSubcategory
	DimPatient
	DimProcedure
)

// MaxDimensions bounds the depth of a dynamic matrix.
const MaxDimensions = 4

// Table is the fact table an aggregate reads from.
type Table int

const (
	SummaryTable Table = iota
	TransactionTable
)

func (t Table) String() string {
	if t == TransactionTable {
		return "transactions"
	}
	return "procedure_summary"
}

type descriptor struct {
	name       string
	summaryCol string // empty when the summary table lacks the dimension
	txnCol     string
	nameCol    string // display name of the value, if any
	key        string // JSON key of the value
	childKey   string // JSON key of a child list grouped by this dimension
}

var descriptors = map[Dimension]descriptor{
	DimSurgeryType: {
		name: "surgery_type", summaryCol: "type_code", txnCol: "type_code", nameCol: "surgery_type",
		key: "type_code", childKey: "surgery_types",
	},
	DimCarrier: {
		name: "carrier", summaryCol: "primary_carrier", txnCol: "visit_primary_carrier",
		key: "carrier", childKey: "carriers",
	},
	DimBillingSubcategory: {
		name: "billing_subcategory", txnCol: "billing_subcategory",
		key: "billing_subcategory", childKey: "billing_subcategories",
	},
	DimPatient: {
		name: "patient", summaryCol: "chart_number", txnCol: "chart_number",
		key: "chart_number", childKey: "patients",
	},
	DimProcedure: {
		name: "procedure_id", summaryCol: "procedure_id", txnCol: "procedure_id",
		key: "procedure_id", childKey: "procedures",
	},
}

// dimensionOrder lists the dimensions in the order error messages name them.
var dimensionOrder = []Dimension{DimSurgeryType, DimCarrier, DimBillingSubcategory, DimPatient, DimProcedure}

func (d Dimension) String() string {
	return descriptors[d].name
}

// Column returns the grouping column of d on table t.
func (d Dimension) Column(t Table) string {
	if t == TransactionTable {
		return descriptors[d].txnCol
	}
	return descriptors[d].summaryCol
}

// ParseDimension maps a request name to its Dimension.
func ParseDimension(name string) (Dimension, error) {
	for _, d := range dimensionOrder {
		if descriptors[d].name == name {
			return d, nil
		}
	}
	valid := make([]string, len(dimensionOrder))
	for i, d := range dimensionOrder {
		valid[i] = d.String()
	}
	return 0, apperr.Invalid("Invalid dimension: %s. Valid: %s", name, strings.Join(valid, ", "))
}

// ParseDimensions parses an ordered list of one to MaxDimensions names.
// Any unknown name fails the whole list.
func ParseDimensions(names []string) ([]Dimension, error) {
	if len(names) == 0 {
		return nil, apperr.Invalid("at least one grouping dimension is required")
	}
	if len(names) > MaxDimensions {
		return nil, apperr.Invalid("at most %d grouping dimensions are allowed, got %d", MaxDimensions, len(names))
	}
	dims := make([]Dimension, len(names))
	for i, n := range names {
		d, err := ParseDimension(n)
		if err != nil {
			return nil, err
		}
		dims[i] = d
	}
	return dims, nil
}

// TableFor returns the table a dimension list must be computed on: any
// billing_subcategory dimension moves the whole query to transactions.
func TableFor(dims []Dimension) Table {
	for _, d := range dims {
		if d.Column(SummaryTable) == "" {
			return TransactionTable
		}
	}
	return SummaryTable
}
