package normalize

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyNoise = regexp.MustCompile(`[$,]`)

// ParseMoney converts a currency-formatted cell ("$1,234.50") into a decimal
// rounded to cents. Blank or unparseable input is zero.
func ParseMoney(s string) decimal.Decimal {
	s = strings.TrimSpace(currencyNoise.ReplaceAllString(s, ""))
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}
