package ingest

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/gyeh/billingdash/internal/model"
)

var (
	hundred         = decimal.NewFromInt(100)
	settleThreshold = decimal.RequireFromString("0.95")
)

// CollectionRate returns payments as a percentage of charges rounded to two
// places, or zero when there are no charges.
func CollectionRate(charges, payments decimal.Decimal) decimal.Decimal {
	if charges.IsZero() {
		return decimal.Zero
	}
	return payments.Mul(hundred).DivRound(charges, 2)
}

// DeriveStatus applies the collection status rules in priority order.
// Procedures without charges stay pending.
func DeriveStatus(charges, payments, adjustments decimal.Decimal) model.Status {
	if charges.IsZero() {
		return model.StatusPending
	}
	threshold := charges.Mul(settleThreshold)
	switch {
	case payments.GreaterThanOrEqual(threshold):
		return model.StatusCollected
	case payments.IsPositive():
		return model.StatusPartial
	case adjustments.GreaterThanOrEqual(threshold):
		return model.StatusWrittenOff
	default:
		return model.StatusPending
	}
}

// GroupByProcedure partitions transactions by procedure identifier. Keys are
// returned in first-seen order and each group keeps its input order.
func GroupByProcedure(txns []*model.Transaction) ([]string, map[string][]*model.Transaction) {
	var order []string
	groups := make(map[string][]*model.Transaction)
	for _, t := range txns {
		if _, ok := groups[t.ProcedureID]; !ok {
			order = append(order, t.ProcedureID)
		}
		groups[t.ProcedureID] = append(groups[t.ProcedureID], t)
	}
	return order, groups
}

// Summarize folds one procedure's transactions into its summary. Descriptive
// fields come from the first transaction; divergent values on later rows are
// ignored. txns must be non-empty.
func Summarize(txns []*model.Transaction) *model.ProcedureSummary {
	rep := txns[0]
	s := &model.ProcedureSummary{
		ProcedureID:      rep.ProcedureID,
		ChartNumber:      rep.ChartNumber,
		DateOfService:    rep.DateOfService,
		SurgeryType:      rep.SurgeryType,
		TypeCode:         rep.TypeCode,
		PrimaryCarrier:   rep.VisitPrimaryCarrier,
		SecondaryCarrier: rep.VisitSecondaryCarrier,
		FacilityName:     rep.FacilityName,
		ProviderProfile:  rep.ProviderProfile,
	}

	for _, t := range txns {
		s.TotalCharges = s.TotalCharges.Add(t.Charges)
		s.TotalPayments = s.TotalPayments.Add(t.TotalPayments)
		s.TotalAdjustments = s.TotalAdjustments.Add(t.Adjustments)
		s.PatientPayments = s.PatientPayments.Add(t.PatientPayments)
		s.InsurancePayments = s.InsurancePayments.Add(t.InsurancePayments)

		if t.BillingCategory != nil {
			switch *t.BillingCategory {
			case model.CategoryProFee:
				s.ProFeeCharges = s.ProFeeCharges.Add(t.Charges)
				s.ProFeePayments = s.ProFeePayments.Add(t.TotalPayments)
			case model.CategoryFacilityFee:
				s.FacilityFeeCharges = s.FacilityFeeCharges.Add(t.Charges)
				s.FacilityFeePayments = s.FacilityFeePayments.Add(t.TotalPayments)
			}
		}

		if t.Charges.IsPositive() && t.DateOfEntry != nil {
			s.FirstChargeDate = minDate(s.FirstChargeDate, t.DateOfEntry)
		}
		if t.TotalPayments.IsPositive() && t.DateOfDeposit != nil {
			s.FirstPaymentDate = minDate(s.FirstPaymentDate, t.DateOfDeposit)
			s.LastPaymentDate = maxDate(s.LastPaymentDate, t.DateOfDeposit)
		}
	}

	if s.FirstPaymentDate != nil {
		days := daysBetween(s.DateOfService, *s.FirstPaymentDate)
		s.DaysToFirstPayment = &days
	}

	s.CollectionRate = CollectionRate(s.TotalCharges, s.TotalPayments)
	s.Status = DeriveStatus(s.TotalCharges, s.TotalPayments, s.TotalAdjustments)
	return s
}

// Aggregate summarizes every procedure in txns, in first-seen order.
func Aggregate(txns []*model.Transaction) []*model.ProcedureSummary {
	order, groups := GroupByProcedure(txns)
	out := make([]*model.ProcedureSummary, 0, len(order))
	for _, id := range order {
		out = append(out, Summarize(groups[id]))
	}
	return out
}

// CountPatients returns the number of distinct non-null chart numbers.
func CountPatients(txns []*model.Transaction) int {
	seen := make(map[int64]struct{})
	for _, t := range txns {
		if t.ChartNumber != nil {
			seen[*t.ChartNumber] = struct{}{}
		}
	}
	return len(seen)
}

// daysBetween returns the whole calendar days from a to b; negative when b precedes a.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func minDate(cur, cand *time.Time) *time.Time {
	if cur == nil || cand.Before(*cur) {
		d := *cand
		return &d
	}
	return cur
}

func maxDate(cur, cand *time.Time) *time.Time {
	if cur == nil || cand.After(*cur) {
		d := *cand
		return &d
	}
	return cur
}
