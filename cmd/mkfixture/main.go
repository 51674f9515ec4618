// mkfixture writes a synthetic billing workbook shaped like a practice-management export.
// Usage: go run ./cmd/mkfixture --out testdata/billing-sample.xlsx --procedures 200 --seed 7
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gyeh/billingdash/internal/fixture"
)

func main() {
	out := flag.String("out", "testdata/billing-sample.xlsx", "output workbook")
	procedures := flag.Int("procedures", 200, "number of procedures to generate")
	seed := flag.Uint64("seed", 1, "random seed")
	asOf := flag.String("as-of", "", "latest date of service (YYYY-MM-DD), default today")
	sheet := flag.String("sheet", "result", "sheet name")
	flag.Parse()

	end := time.Now().UTC().Truncate(24 * time.Hour)
	if *asOf != "" {
		t, err := time.Parse("2006-01-02", *asOf)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse --as-of: %v\n", err)
			os.Exit(1)
		}
		end = t
	}
	if *procedures <= 0 {
		fmt.Fprintln(os.Stderr, "--procedures must be positive")
		os.Exit(1)
	}

	lines := fixture.Synthetic(*procedures, *seed, end)
	wb := fixture.New(lines...)
	wb.Sheet = *sheet
	if err := wb.SaveAs(*out); err != nil {
		fmt.Fprintf(os.Stderr, "write workbook: %v\n", err)
		os.Exit(1)
	}

	charts := make(map[any]struct{})
	for _, l := range lines {
		charts[l["Chart Number"]] = struct{}{}
	}
	fmt.Printf("Wrote %s: %d lines, %d procedures, %d patients (sheet %q)\n",
		*out, len(lines), *procedures, len(charts), *sheet)
}
