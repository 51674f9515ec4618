package db

import (
	"strconv"
	"strings"

	"github.com/gyeh/billingdash/internal/model"
)

// FilterColumns names the columns a model.Filter constrains on one table.
type FilterColumns struct {
	Date     string
	Patient  string
	TypeCode string
	Carrier  string
}

// Filter column sets for the two fact tables.
var (
	SummaryFilter     = FilterColumns{Date: "date_of_service", Patient: "chart_number", TypeCode: "type_code", Carrier: "primary_carrier"}
	TransactionFilter = FilterColumns{Date: "date_of_service", Patient: "chart_number", TypeCode: "type_code", Carrier: "visit_primary_carrier"}
)

// Where accumulates AND-ed predicates with positional arguments.
type Where struct {
	conds []string
	args  []any
}

// NewWhere returns an empty predicate set.
func NewWhere() *Where {
	return &Where{}
}

// Arg binds v and returns its placeholder.
func (w *Where) Arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

// Add appends a predicate; each "?" in cond binds the next value of args.
func (w *Where) Add(cond string, args ...any) *Where {
	for _, a := range args {
		cond = strings.Replace(cond, "?", w.Arg(a), 1)
	}
	w.conds = append(w.conds, cond)
	return w
}

// Eq appends "col = value".
func (w *Where) Eq(col string, v any) *Where {
	return w.Add(col+" = ?", v)
}

// Filter applies the optional constraints of f against cols.
func (w *Where) Filter(f model.Filter, cols FilterColumns) *Where {
	if f.DateFrom != nil {
		w.Add(cols.Date+" >= ?", *f.DateFrom)
	}
	if f.DateTo != nil {
		w.Add(cols.Date+" <= ?", *f.DateTo)
	}
	if f.PatientID != nil && cols.Patient != "" {
		w.Eq(cols.Patient, *f.PatientID)
	}
	if f.TypeCode != nil && cols.TypeCode != "" {
		w.Eq(cols.TypeCode, *f.TypeCode)
	}
	if f.Carrier != nil && cols.Carrier != "" {
		w.Eq(cols.Carrier, *f.Carrier)
	}
	return w
}

// Clone returns an independent copy.
func (w *Where) Clone() *Where {
	return &Where{
		conds: append([]string(nil), w.conds...),
		args:  append([]any(nil), w.args...),
	}
}

// SQL renders " WHERE a AND b", or "" when empty.
func (w *Where) SQL() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// Args returns the bound values in placeholder order.
func (w *Where) Args() []any {
	return w.args
}
