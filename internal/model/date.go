package model

import (
	"encoding/json"
	"math"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date that encodes as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// DatePtr wraps an optional time; nil stays nil.
func DatePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{Time: *t}
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Round rounds f half away from zero to the given decimal places.
func Round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}

// RoundPtr rounds an optional value; nil stays nil.
func RoundPtr(f *float64, places int) *float64 {
	if f == nil {
		return nil
	}
	r := Round(*f, places)
	return &r
}

// Rate returns num as a percentage of den rounded to two places, or zero
// when den is not positive.
func Rate(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return Round(num/den*100, 2)
}
