package normalize

import (
	"math"
	"strconv"
	"strings"
)

// CleanString trims the input and maps blanks and the literal "nan" to nil.
func CleanString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" || s == "nan" {
		return nil
	}
	return &s
}

// ParseInt accepts integral cells written either as "123" or "123.0".
// Returns nil for blank or non-numeric input.
func ParseInt(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	n := int64(f)
	return &n
}

// ParseBool reads spreadsheet flag cells. Blank and unrecognized values are false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "1.0", "true", "t", "yes", "y", "x":
		return true
	}
	return false
}
