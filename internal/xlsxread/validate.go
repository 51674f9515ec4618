package xlsxread

import (
	"github.com/gyeh/billingdash/internal/apperr"
	"github.com/gyeh/billingdash/internal/model"
)

// ValidateHeader checks that every required column is present.
func ValidateHeader(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	var missing []string
	for _, col := range model.RequiredHeaders {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return apperr.Invalid("missing required columns: %v", missing)
	}
	return nil
}
