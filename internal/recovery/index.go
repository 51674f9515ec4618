// Package recovery measures how much of a cohort's charges was collected
// within fixed horizons of each procedure's date of service.
package recovery

import (
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Deposit is one positive payment with its deposit date.
type Deposit struct {
	ProcedureID string
	Date        time.Time
	Amount      decimal.Decimal
}

type series struct {
	dates  []time.Time
	prefix []decimal.Decimal // prefix[i] is the sum of amounts[0..i]
}

// Index answers "how much was deposited for a procedure by a date" with a
// binary search over deposits sorted by date.
type Index struct {
	byProcedure map[string]*series
}

// NewIndex builds an Index over deposits in any order.
func NewIndex(deposits []Deposit) *Index {
	grouped := make(map[string][]Deposit)
	for _, d := range deposits {
		grouped[d.ProcedureID] = append(grouped[d.ProcedureID], d)
	}

	ix := &Index{byProcedure: make(map[string]*series, len(grouped))}
	for id, ds := range grouped {
		slices.SortStableFunc(ds, func(a, b Deposit) int { return a.Date.Compare(b.Date) })
		s := &series{dates: make([]time.Time, len(ds)), prefix: make([]decimal.Decimal, len(ds))}
		sum := decimal.Zero
		for i, d := range ds {
			sum = sum.Add(d.Amount)
			s.dates[i] = d.Date
			s.prefix[i] = sum
		}
		ix.byProcedure[id] = s
	}
	return ix
}

// PaidBy returns the sum of the procedure's deposits dated on or before end.
func (ix *Index) PaidBy(procedureID string, end time.Time) decimal.Decimal {
	s, ok := ix.byProcedure[procedureID]
	if !ok {
		return decimal.Zero
	}
	n := sort.Search(len(s.dates), func(i int) bool { return s.dates[i].After(end) })
	if n == 0 {
		return decimal.Zero
	}
	return s.prefix[n-1]
}
