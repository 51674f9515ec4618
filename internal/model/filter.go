package model

import "time"

// Filter is the common query filter: an inclusive date-of-service range plus
// optional categorical constraints. Nil fields are not applied.
type Filter struct {
	DateFrom  *time.Time
	DateTo    *time.Time
	PatientID *int64
	TypeCode  *string
	Carrier   *string
}

// DateRange returns a copy holding only the date constraints.
func (f Filter) DateRange() Filter {
	return Filter{DateFrom: f.DateFrom, DateTo: f.DateTo}
}

// WithTypeCode returns a copy constrained to one surgery type.
func (f Filter) WithTypeCode(code string) Filter {
	f.TypeCode = &code
	return f
}

// WithCarrier returns a copy constrained to one primary carrier.
func (f Filter) WithCarrier(carrier string) Filter {
	f.Carrier = &carrier
	return f
}
