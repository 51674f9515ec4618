package analytics

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/gyeh/billingdash/internal/model"
)

// Node is one group of the dynamic matrix. Its metrics cover the rows
// matching its own value and every ancestor's; Children, when the node is
// not a leaf, groups those rows by the next dimension.
type Node struct {
	Dim        Dimension
	Value      any
	Name       *string
	Metrics    Metrics
	FirstVisit *model.Date // patient nodes only
	LastVisit  *model.Date // patient nodes only
	ChildDim   Dimension
	Children   []*Node
}

// MarshalJSON keys the value and the child list by their dimensions.
func (n *Node) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		descriptors[n.Dim].key: n.Value,
		"procedure_count":      n.Metrics.ProcedureCount,
		"total_charges":        n.Metrics.TotalCharges,
		"total_payments":       n.Metrics.TotalPayments,
		"collection_rate":      n.Metrics.CollectionRate,
		"avg_days_to_payment":  n.Metrics.AvgDaysToPayment,
	}
	switch n.Dim {
	case DimSurgeryType:
		m["type_name"] = n.Name
	case DimPatient:
		m["first_visit"] = n.FirstVisit
		m["last_visit"] = n.LastVisit
	}
	if n.ChildDim != 0 {
		m[descriptors[n.ChildDim].childKey] = n.Children
	}
	return json.Marshal(m)
}

// MatrixSummary is the population total of a dynamic matrix, independent of
// the grouping.
type MatrixSummary struct {
	TotalProcedures int     `json:"total_procedures"`
	TotalCharges    float64 `json:"total_charges"`
	TotalPayments   float64 `json:"total_payments"`
	CollectionRate  float64 `json:"collection_rate"`
}

// Matrix is the dynamic grouping result.
type Matrix struct {
	Data    []*Node       `json:"data"`
	Summary MatrixSummary `json:"summary"`
}

// BuildTree groups src by dims[0], then recursively groups each group by the
// remaining dimensions restricted to the values fixed so far. Siblings are
// ordered by total charges, highest first.
func BuildTree(ctx context.Context, src GroupSource, dims []Dimension) ([]*Node, error) {
	return buildLevel(ctx, src, dims, nil)
}

func buildLevel(ctx context.Context, src GroupSource, dims []Dimension, ancestors []Constraint) ([]*Node, error) {
	if len(dims) == 0 {
		return nil, nil
	}
	dim, rest := dims[0], dims[1:]
	groups, err := src.Groups(ctx, dim, ancestors)
	if err != nil {
		return nil, err
	}

	nodes := make([]*Node, 0, len(groups))
	for _, g := range groups {
		n := &Node{Dim: dim, Value: g.Keys[0], Metrics: g.Metrics()}
		switch dim {
		case DimSurgeryType:
			n.Name = g.Name
		case DimPatient:
			n.FirstVisit = model.DatePtr(g.FirstVisit)
			n.LastVisit = model.DatePtr(g.LastVisit)
		}
		if len(rest) > 0 {
			n.ChildDim = rest[0]
			scope := append(slices.Clip(ancestors), Constraint{Dim: dim, Value: g.Keys[0]})
			if n.Children, err = buildLevel(ctx, src, rest, scope); err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, n)
	}
	sortByCharges(nodes, func(n *Node) float64 { return n.Metrics.TotalCharges })
	return nodes, nil
}

// DynamicMatrix groups the procedures in the date range of f by dims, in
// order. A billing_subcategory dimension anywhere in dims moves every level
// and the summary to the transaction table, where procedure counts are
// distinct procedure ids and the mean days to payment is always null.
func (e *Engine) DynamicMatrix(ctx context.Context, f model.Filter, dims []Dimension) (*Matrix, error) {
	start := time.Now()
	src := NewGroupSource(e.q, TableFor(dims), f)

	data, err := BuildTree(ctx, src, dims)
	if err != nil {
		return nil, err
	}
	tot, err := src.Totals(ctx)
	if err != nil {
		return nil, err
	}

	e.log.Debug().
		Stringer("table", src.Table()).
		Int("depth", len(dims)).
		Int("groups", len(data)).
		Dur("duration", time.Since(start)).
		Msg("dynamic matrix built")

	return &Matrix{
		Data: data,
		Summary: MatrixSummary{
			TotalProcedures: tot.Count,
			TotalCharges:    model.Round(tot.Charges, 2),
			TotalPayments:   model.Round(tot.Payments, 2),
			CollectionRate:  model.Rate(tot.Payments, tot.Charges),
		},
	}, nil
}
