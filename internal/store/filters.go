package store

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/gyeh/billingdash/internal/model"
)

// Option is one dropdown entry.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// CategoryOption is a billing category with its subcategories.
type CategoryOption struct {
	Value         string   `json:"value"`
	Label         string   `json:"label"`
	Subcategories []string `json:"subcategories"`
}

// DateRange is the span of service dates on file.
type DateRange struct {
	MinDate *model.Date `json:"min_date"`
	MaxDate *model.Date `json:"max_date"`
}

// FilterOptions bundles every dropdown.
type FilterOptions struct {
	Patients          []Option         `json:"patients"`
	SurgeryTypes      []Option         `json:"surgery_types"`
	Carriers          []Option         `json:"carriers"`
	BillingCategories []CategoryOption `json:"billing_categories"`
	DateRange         DateRange        `json:"date_range"`
}

// PatientOptions lists chart numbers with procedure counts.
func (s *Store) PatientOptions(ctx context.Context) ([]Option, error) {
	rows, err := s.conn().Query(ctx, `
		SELECT chart_number, count(*) FROM procedure_summary
		WHERE chart_number IS NOT NULL
		GROUP BY chart_number
		ORDER BY chart_number`)
	if err != nil {
		return nil, fmt.Errorf("patient options: %w", err)
	}
	defer rows.Close()

	out := []Option{}
	for rows.Next() {
		var chart int64
		var n int
		if err := rows.Scan(&chart, &n); err != nil {
			return nil, err
		}
		v := strconv.FormatInt(chart, 10)
		out = append(out, Option{Value: v, Label: "Patient " + v, Count: n})
	}
	return out, rows.Err()
}

// SurgeryTypeOptions lists surgery type codes labelled by name.
func (s *Store) SurgeryTypeOptions(ctx context.Context) ([]Option, error) {
	rows, err := s.conn().Query(ctx, `
		SELECT type_code, surgery_type, count(*) FROM procedure_summary
		WHERE type_code IS NOT NULL
		GROUP BY type_code, surgery_type
		ORDER BY type_code, surgery_type`)
	if err != nil {
		return nil, fmt.Errorf("surgery type options: %w", err)
	}
	defer rows.Close()

	out := []Option{}
	for rows.Next() {
		var (
			code string
			name *string
			n    int
		)
		if err := rows.Scan(&code, &name, &n); err != nil {
			return nil, err
		}
		label := code
		if name != nil && *name != "" {
			label = *name
		}
		out = append(out, Option{Value: code, Label: label, Count: n})
	}
	return out, rows.Err()
}

// CarrierOptions lists primary carriers, most frequent first.
func (s *Store) CarrierOptions(ctx context.Context) ([]Option, error) {
	rows, err := s.conn().Query(ctx, `
		SELECT primary_carrier, count(*) FROM procedure_summary
		WHERE primary_carrier IS NOT NULL
		GROUP BY primary_carrier
		ORDER BY count(*) DESC, primary_carrier`)
	if err != nil {
		return nil, fmt.Errorf("carrier options: %w", err)
	}
	defer rows.Close()

	out := []Option{}
	for rows.Next() {
		var carrier string
		var n int
		if err := rows.Scan(&carrier, &n); err != nil {
			return nil, err
		}
		out = append(out, Option{Value: carrier, Label: carrier, Count: n})
	}
	return out, rows.Err()
}

// BillingCategoryOptions lists billing categories with their sorted,
// distinct subcategories.
func (s *Store) BillingCategoryOptions(ctx context.Context) ([]CategoryOption, error) {
	rows, err := s.conn().Query(ctx, `
		SELECT DISTINCT billing_category, billing_subcategory FROM transactions
		WHERE billing_category IS NOT NULL
		ORDER BY billing_category`)
	if err != nil {
		return nil, fmt.Errorf("billing category options: %w", err)
	}
	defer rows.Close()

	out := []CategoryOption{}
	index := make(map[string]int)
	for rows.Next() {
		var (
			cat string
			sub *string
		)
		if err := rows.Scan(&cat, &sub); err != nil {
			return nil, err
		}
		i, ok := index[cat]
		if !ok {
			i = len(out)
			index[cat] = i
			out = append(out, CategoryOption{Value: cat, Label: cat, Subcategories: []string{}})
		}
		if sub != nil && *sub != "" && !slices.Contains(out[i].Subcategories, *sub) {
			out[i].Subcategories = append(out[i].Subcategories, *sub)
		}
	}
	for i := range out {
		slices.Sort(out[i].Subcategories)
	}
	return out, rows.Err()
}

// ServiceDateRange returns the earliest and latest date of service.
func (s *Store) ServiceDateRange(ctx context.Context) (*DateRange, error) {
	var lo, hi *time.Time
	if err := s.conn().QueryRow(ctx,
		"SELECT min(date_of_service), max(date_of_service) FROM procedure_summary").Scan(&lo, &hi); err != nil {
		return nil, fmt.Errorf("date range: %w", err)
	}
	return &DateRange{MinDate: model.DatePtr(lo), MaxDate: model.DatePtr(hi)}, nil
}

// AllFilterOptions returns every dropdown in one call.
func (s *Store) AllFilterOptions(ctx context.Context) (*FilterOptions, error) {
	var (
		out FilterOptions
		err error
	)
	if out.Patients, err = s.PatientOptions(ctx); err != nil {
		return nil, err
	}
	if out.SurgeryTypes, err = s.SurgeryTypeOptions(ctx); err != nil {
		return nil, err
	}
	if out.Carriers, err = s.CarrierOptions(ctx); err != nil {
		return nil, err
	}
	if out.BillingCategories, err = s.BillingCategoryOptions(ctx); err != nil {
		return nil, err
	}
	dr, err := s.ServiceDateRange(ctx)
	if err != nil {
		return nil, err
	}
	out.DateRange = *dr
	return &out, nil
}
