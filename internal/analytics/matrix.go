package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/gyeh/billingdash/internal/model"
)

// SubcategoryCell is a billing subcategory under a surgery type and carrier,
// summed over transactions.
type SubcategoryCell struct {
	Category       string  `json:"category"`
	Charges        float64 `json:"charges"`
	Payments       float64 `json:"payments"`
	CollectionRate float64 `json:"collection_rate"`
}

// CarrierCell is a carrier's metrics under a surgery type with its billing
// subcategory breakdown.
type CarrierCell struct {
	Carrier string `json:"carrier"`
	Metrics
	BillingCategories []SubcategoryCell `json:"billing_categories"`
}

// SurgeryCell is the top level of the surgery matrix.
type SurgeryCell struct {
	TypeCode    string  `json:"type_code"`
	SurgeryType *string `json:"surgery_type"`
	Metrics
	Carriers []CarrierCell `json:"carriers"`
}

// PatientSurgeryCell is a surgery type under a patient.
type PatientSurgeryCell struct {
	TypeCode    string  `json:"type_code"`
	SurgeryType *string `json:"surgery_type"`
	Metrics
	Carriers []InsuranceMetrics `json:"carriers"`
}

// PatientCell is a patient's metrics under a carrier and surgery type.
type PatientCell struct {
	ChartNumber int64 `json:"chart_number"`
	Metrics
}

// CarrierSurgeryCell is a surgery type under a carrier.
type CarrierSurgeryCell struct {
	TypeCode    string  `json:"type_code"`
	SurgeryType *string `json:"surgery_type"`
	Metrics
	Patients []PatientCell `json:"patients"`
}

// PatientRow is the top level of the patient matrix.
type PatientRow struct {
	ChartNumber int64 `json:"chart_number"`
	Metrics
	FirstVisit   *model.Date          `json:"first_visit"`
	LastVisit    *model.Date          `json:"last_visit"`
	SurgeryTypes []PatientSurgeryCell `json:"surgery_types"`
}

// CarrierRow is the top level of the insurance matrix.
type CarrierRow struct {
	Carrier string `json:"carrier"`
	Metrics
	SurgeryTypes []CarrierSurgeryCell `json:"surgery_types"`
}

// levels runs one grouped query per prefix of dims on the summary table,
// so levels[i] groups by dims[:i+1].
func (e *Engine) levels(ctx context.Context, f model.Filter, dims ...Dimension) ([][]Group, error) {
	out := make([][]Group, len(dims))
	for i := range dims {
		g, err := queryGroups(ctx, e.q, SummaryTable, dims[:i+1], summaryWhere(f))
		if err != nil {
			return nil, err
		}
		out[i] = g
	}
	return out, nil
}

// childrenOf indexes groups by the key path of their parent.
func childrenOf(groups []Group) map[string][]Group {
	idx := make(map[string][]Group)
	for _, g := range groups {
		k := pathKey(g.Keys[:len(g.Keys)-1])
		idx[k] = append(idx[k], g)
	}
	return idx
}

func pathKey(keys []any) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprint(k)
	}
	return strings.Join(parts, "\x1f")
}

func last(keys []any) any {
	return keys[len(keys)-1]
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt64(v any) int64 {
	n, _ := v.(int64)
	return n
}

// SurgeryInsuranceMatrix breaks each surgery type down by carrier and each
// carrier by billing subcategory.
func (e *Engine) SurgeryInsuranceMatrix(ctx context.Context, f model.Filter) ([]SurgeryCell, error) {
	lv, err := e.levels(ctx, f, DimSurgeryType, DimCarrier)
	if err != nil {
		return nil, err
	}
	subs, err := queryGroups(ctx, e.q, TransactionTable,
		[]Dimension{DimSurgeryType, DimCarrier, DimBillingSubcategory}, transactionWhere(f))
	if err != nil {
		return nil, err
	}
	carriers, subIdx := childrenOf(lv[1]), childrenOf(subs)

	out := make([]SurgeryCell, 0, len(lv[0]))
	for _, t := range lv[0] {
		cell := SurgeryCell{TypeCode: asString(t.Keys[0]), SurgeryType: t.Name, Metrics: t.Metrics(), Carriers: []CarrierCell{}}
		for _, c := range carriers[pathKey(t.Keys)] {
			cc := CarrierCell{Carrier: asString(last(c.Keys)), Metrics: c.Metrics(), BillingCategories: []SubcategoryCell{}}
			for _, s := range subIdx[pathKey(c.Keys)] {
				cc.BillingCategories = append(cc.BillingCategories, SubcategoryCell{
					Category:       asString(last(s.Keys)),
					Charges:        model.Round(s.Charges, 2),
					Payments:       model.Round(s.Payments, 2),
					CollectionRate: model.Rate(s.Payments, s.Charges),
				})
			}
			sortByCharges(cc.BillingCategories, func(s SubcategoryCell) float64 { return s.Charges })
			cell.Carriers = append(cell.Carriers, cc)
		}
		sortByCharges(cell.Carriers, func(c CarrierCell) float64 { return c.TotalCharges })
		out = append(out, cell)
	}
	sortByCharges(out, func(c SurgeryCell) float64 { return c.TotalCharges })
	return out, nil
}

// PatientSurgeryInsuranceMatrix breaks each patient down by surgery type and
// each surgery type by carrier.
func (e *Engine) PatientSurgeryInsuranceMatrix(ctx context.Context, f model.Filter) ([]PatientRow, error) {
	lv, err := e.levels(ctx, f, DimPatient, DimSurgeryType, DimCarrier)
	if err != nil {
		return nil, err
	}
	types, carriers := childrenOf(lv[1]), childrenOf(lv[2])

	out := make([]PatientRow, 0, len(lv[0]))
	for _, p := range lv[0] {
		row := PatientRow{
			ChartNumber:  asInt64(p.Keys[0]),
			Metrics:      p.Metrics(),
			FirstVisit:   model.DatePtr(p.FirstVisit),
			LastVisit:    model.DatePtr(p.LastVisit),
			SurgeryTypes: []PatientSurgeryCell{},
		}
		for _, t := range types[pathKey(p.Keys)] {
			cell := PatientSurgeryCell{TypeCode: asString(last(t.Keys)), SurgeryType: t.Name, Metrics: t.Metrics(), Carriers: []InsuranceMetrics{}}
			for _, c := range carriers[pathKey(t.Keys)] {
				cell.Carriers = append(cell.Carriers, InsuranceMetrics{Carrier: asString(last(c.Keys)), Metrics: c.Metrics()})
			}
			sortByCharges(cell.Carriers, func(c InsuranceMetrics) float64 { return c.TotalCharges })
			row.SurgeryTypes = append(row.SurgeryTypes, cell)
		}
		sortByCharges(row.SurgeryTypes, func(c PatientSurgeryCell) float64 { return c.TotalCharges })
		out = append(out, row)
	}
	sortByCharges(out, func(r PatientRow) float64 { return r.TotalCharges })
	return out, nil
}

// InsuranceSurgeryPatientMatrix breaks each carrier down by surgery type and
// each surgery type by patient.
func (e *Engine) InsuranceSurgeryPatientMatrix(ctx context.Context, f model.Filter) ([]CarrierRow, error) {
	lv, err := e.levels(ctx, f, DimCarrier, DimSurgeryType, DimPatient)
	if err != nil {
		return nil, err
	}
	types, patients := childrenOf(lv[1]), childrenOf(lv[2])

	out := make([]CarrierRow, 0, len(lv[0]))
	for _, c := range lv[0] {
		row := CarrierRow{Carrier: asString(c.Keys[0]), Metrics: c.Metrics(), SurgeryTypes: []CarrierSurgeryCell{}}
		for _, t := range types[pathKey(c.Keys)] {
			cell := CarrierSurgeryCell{TypeCode: asString(last(t.Keys)), SurgeryType: t.Name, Metrics: t.Metrics(), Patients: []PatientCell{}}
			for _, p := range patients[pathKey(t.Keys)] {
				cell.Patients = append(cell.Patients, PatientCell{ChartNumber: asInt64(last(p.Keys)), Metrics: p.Metrics()})
			}
			sortByCharges(cell.Patients, func(p PatientCell) float64 { return p.TotalCharges })
			row.SurgeryTypes = append(row.SurgeryTypes, cell)
		}
		sortByCharges(row.SurgeryTypes, func(c CarrierSurgeryCell) float64 { return c.TotalCharges })
		out = append(out, row)
	}
	sortByCharges(out, func(r CarrierRow) float64 { return r.TotalCharges })
	return out, nil
}
