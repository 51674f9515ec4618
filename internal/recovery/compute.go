package recovery

import (
	"time"

	"github.com/shopspring/decimal"
)

// Horizons are the recovery windows in days: one, three, six and twelve
// months.
var Horizons = [4]int{30, 90, 180, 365}

// Procedure is one member of a recovery cohort.
type Procedure struct {
	ID            string
	DateOfService time.Time
	Charges       decimal.Decimal
	Payments      decimal.Decimal
}

// Window is the recovery within one horizon.
type Window struct {
	Percent    float64 `json:"percent"`
	Amount     float64 `json:"amount"`
	Procedures int     `json:"procedures"`
}

// Result is the recovery of a cohort at every horizon.
type Result struct {
	Recovery1Month        Window  `json:"recovery_1_month"`
	Recovery3Month        Window  `json:"recovery_3_month"`
	Recovery6Month        Window  `json:"recovery_6_month"`
	Recovery12Month       Window  `json:"recovery_12_month"`
	OverallCollectionRate float64 `json:"overall_collection_rate"`
	TotalCharges          float64 `json:"total_charges"`
	TotalPayments         float64 `json:"total_payments"`
}

// Windows returns the four windows in horizon order.
func (r *Result) Windows() [4]Window {
	return [4]Window{r.Recovery1Month, r.Recovery3Month, r.Recovery6Month, r.Recovery12Month}
}

// Compute measures, for each horizon H, the share of the cohort's charges
// deposited by min(date of service + H days, today) of each procedure. The
// percent is capped at 100.
func Compute(cohort []Procedure, ix *Index, today time.Time) *Result {
	res := &Result{}
	if len(cohort) == 0 {
		return res
	}

	charges, payments := decimal.Zero, decimal.Zero
	for _, p := range cohort {
		charges = charges.Add(p.Charges)
		payments = payments.Add(p.Payments)
	}

	var windows [4]Window
	for i, h := range Horizons {
		paid := decimal.Zero
		for _, p := range cohort {
			end := p.DateOfService.AddDate(0, 0, h)
			if end.After(today) {
				end = today
			}
			paid = paid.Add(ix.PaidBy(p.ID, end))
		}
		windows[i] = Window{
			Percent:    min(rate(paid, charges), 100),
			Amount:     paid.Round(2).InexactFloat64(),
			Procedures: len(cohort),
		}
	}

	res.Recovery1Month, res.Recovery3Month, res.Recovery6Month, res.Recovery12Month =
		windows[0], windows[1], windows[2], windows[3]
	res.OverallCollectionRate = rate(payments, charges)
	res.TotalCharges = charges.Round(2).InexactFloat64()
	res.TotalPayments = payments.Round(2).InexactFloat64()
	return res
}

var hundred = decimal.NewFromInt(100)

// rate is num as a percentage of den to two places, zero when den is not
// positive.
func rate(num, den decimal.Decimal) float64 {
	if !den.IsPositive() {
		return 0
	}
	return num.Mul(hundred).DivRound(den, 2).InexactFloat64()
}
