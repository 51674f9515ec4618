package anomaly

import (
	"context"
	"fmt"

	"github.com/gyeh/billingdash/internal/model"
)

// CarrierAnomalies counts overpaid procedures of one carrier.
type CarrierAnomalies struct {
	Carrier          *string `json:"carrier"`
	AnomalyCount     int     `json:"anomaly_count"`
	TotalOverpayment float64 `json:"total_overpayment"`
}

// PatientAnomalies counts overpaid procedures of one patient.
type PatientAnomalies struct {
	ChartNumber      *int64  `json:"chart_number"`
	AnomalyCount     int     `json:"anomaly_count"`
	TotalOverpayment float64 `json:"total_overpayment"`
}

const overpaidGroup = `count(*), sum(total_payments - total_charges)::float8
	FROM procedure_summary
	WHERE total_payments > total_charges AND total_charges > 0`

// ByCarrier groups overpaid procedures by primary carrier, most first.
func (d *Detector) ByCarrier(ctx context.Context) ([]CarrierAnomalies, error) {
	rows, err := d.q.Query(ctx, `
		SELECT primary_carrier, `+overpaidGroup+`
		GROUP BY primary_carrier
		ORDER BY count(*) DESC, primary_carrier`)
	if err != nil {
		return nil, fmt.Errorf("anomalies by carrier: %w", err)
	}
	defer rows.Close()

	out := []CarrierAnomalies{}
	for rows.Next() {
		var c CarrierAnomalies
		if err := rows.Scan(&c.Carrier, &c.AnomalyCount, &c.TotalOverpayment); err != nil {
			return nil, fmt.Errorf("scan carrier anomalies: %w", err)
		}
		c.TotalOverpayment = model.Round(c.TotalOverpayment, 2)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ByPatient returns up to limit patients with the most overpaid procedures.
func (d *Detector) ByPatient(ctx context.Context, limit int) ([]PatientAnomalies, error) {
	rows, err := d.q.Query(ctx, `
		SELECT chart_number, `+overpaidGroup+`
		GROUP BY chart_number
		ORDER BY count(*) DESC, chart_number
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("anomalies by patient: %w", err)
	}
	defer rows.Close()

	out := []PatientAnomalies{}
	for rows.Next() {
		var p PatientAnomalies
		if err := rows.Scan(&p.ChartNumber, &p.AnomalyCount, &p.TotalOverpayment); err != nil {
			return nil, fmt.Errorf("scan patient anomalies: %w", err)
		}
		p.TotalOverpayment = model.Round(p.TotalOverpayment, 2)
		out = append(out, p)
	}
	return out, rows.Err()
}
