// Package fixture builds billing workbooks shaped like practice-management
// exports, for tests and demos.
package fixture

import (
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/billingdash/internal/model"
)

// Line is one workbook data row keyed by workbook header.
type Line map[string]any

// Workbook describes a single-sheet workbook.
type Workbook struct {
	Sheet   string
	Headers []string
	Lines   []Line
}

// New returns a workbook on the "result" sheet with every known header.
func New(lines ...Line) *Workbook {
	return &Workbook{Sheet: "result", Headers: model.SheetHeaders(), Lines: lines}
}

// Write encodes the workbook as .xlsx into w.
func (wb *Workbook) Write(w io.Writer) error {
	f, err := wb.build()
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveAs writes the workbook to path.
func (wb *Workbook) SaveAs(path string) error {
	f, err := wb.build()
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func (wb *Workbook) build() (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	if wb.Sheet != defaultSheet {
		if _, err := f.NewSheet(wb.Sheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet: %w", err)
		}
		if err := f.DeleteSheet(defaultSheet); err != nil {
			f.Close()
			return nil, fmt.Errorf("drop default sheet: %w", err)
		}
	}

	for i, h := range wb.Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(wb.Sheet, cell, h); err != nil {
			f.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	for r, line := range wb.Lines {
		for i, h := range wb.Headers {
			v, ok := line[h]
			if !ok || v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(wb.Sheet, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("write row %d: %w", r+2, err)
			}
		}
	}
	return f, nil
}

var (
	surgeryTypes = []struct{ code, name string }{
		{"KNEE", "Knee Arthroscopy"},
		{"HIP", "Hip Replacement"},
		{"SPINE", "Spinal Fusion"},
		{"SHLD", "Shoulder Repair"},
	}
	carriers      = []string{"Aetna", "Blue Cross", "Cigna", "Medicare", "United Healthcare"}
	subcategories = map[string][]string{
		model.CategoryProFee:      {"Surgeon", "Anesthesia", "Assistant"},
		model.CategoryFacilityFee: {"OR Time", "Implants", "Recovery"},
	}
)

// Synthetic generates a deterministic set of billing lines for n procedures
// with dates of service in the year before asOf. Each procedure carries one
// charge per fee category and zero or more payments and adjustments.
func Synthetic(n int, seed uint64, asOf time.Time) []Line {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	var lines []Line
	for i := 0; i < n; i++ {
		st := surgeryTypes[rng.IntN(len(surgeryTypes))]
		carrier := carriers[rng.IntN(len(carriers))]
		chart := 1000 + rng.IntN(max(n/2, 1))
		dos := asOf.AddDate(0, 0, -(1 + rng.IntN(365)))
		procID := fmt.Sprintf("PROC-%05d", i+1)

		base := Line{
			"Office Key":              1,
			"Chart Number":            chart,
			"Visit Number":            fmt.Sprintf("V%06d", i+1),
			"Procedure_ID":            procID,
			"Date of Service":         dos.Format("2006-01-02"),
			"Surgery_Type":            st.name,
			"Type_Code":               st.code,
			"Visit - Primary Carrier": carrier,
			"Facility Name":           "Lakeside Surgical Center",
			"Provider Profile":        "Dr. Rivera",
		}

		seq := 0
		for _, category := range []string{model.CategoryProFee, model.CategoryFacilityFee} {
			subs := subcategories[category]
			charge := float64(500+rng.IntN(4500)) + float64(rng.IntN(100))/100
			seq++
			lines = append(lines, merge(base, Line{
				"Procedure_Seq":       seq,
				"Transaction Type":    "Charge",
				"Date of Entry":       dos.AddDate(0, 0, rng.IntN(5)).Format("2006-01-02"),
				"Charges":             charge,
				"Billing_Category":    category,
				"Billing_Subcategory": subs[rng.IntN(len(subs))],
			}))

			switch roll := rng.IntN(10); {
			case roll < 5: // paid in full, possibly in two deposits
				first := charge
				if rng.IntN(2) == 0 {
					first = float64(int(charge*60)) / 100
				}
				seq++
				lines = append(lines, payment(base, seq, category, dos, first, 10+rng.IntN(60)))
				if first < charge {
					seq++
					lines = append(lines, payment(base, seq, category, dos, charge-first, 70+rng.IntN(200)))
				}
			case roll < 8: // partially paid
				seq++
				lines = append(lines, payment(base, seq, category, dos, float64(int(charge*40))/100, 20+rng.IntN(150)))
			case roll < 9: // written off
				seq++
				lines = append(lines, merge(base, Line{
					"Procedure_Seq":    seq,
					"Transaction Type": "Adjustment",
					"Date of Entry":    dos.AddDate(0, 0, 90).Format("2006-01-02"),
					"Adjustments":      charge,
					"Billing_Category": category,
				}))
			}
		}
	}
	return lines
}

func payment(base Line, seq int, category string, dos time.Time, amount float64, afterDays int) Line {
	deposit := dos.AddDate(0, 0, afterDays)
	return merge(base, Line{
		"Procedure_Seq":      seq,
		"Transaction Type":   "Payment",
		"Date of Entry":      deposit.Format("2006-01-02"),
		"Date of Deposit":    deposit.Format("2006-01-02"),
		"Insurance Payments": amount,
		"Total Payments":     amount,
		"Billing_Category":   category,
		"Payment Method":     "EFT",
	})
}

func merge(a, b Line) Line {
	out := make(Line, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}
