package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/billingdash/internal/apperr"
)

func TestParseDimension(t *testing.T) {
	tests := []struct {
		name string
		want Dimension
	}{
		{"surgery_type", DimSurgeryType},
		{"carrier", DimCarrier},
		{"billing_subcategory", DimBillingSubcategory},
		{"patient", DimPatient},
		{"procedure_id", DimProcedure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDimension(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d)
			assert.Equal(t, tt.name, d.String())
		})
	}
}

func TestParseDimensionUnknown(t *testing.T) {
	_, err := ParseDimension("billing_category")
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.CodeInvalid))
	assert.Contains(t, err.Error(), "Invalid dimension: billing_category")
}

func TestParseDimensions(t *testing.T) {
	dims, err := ParseDimensions([]string{"carrier", "patient"})
	require.NoError(t, err)
	assert.Equal(t, []Dimension{DimCarrier, DimPatient}, dims)

	_, err = ParseDimensions(nil)
	assert.True(t, apperr.Is(err, apperr.CodeInvalid))

	_, err = ParseDimensions([]string{"carrier", "patient", "surgery_type", "procedure_id", "carrier"})
	assert.True(t, apperr.Is(err, apperr.CodeInvalid))

	_, err = ParseDimensions([]string{"carrier", "bogus"})
	assert.True(t, apperr.Is(err, apperr.CodeInvalid), "one bad name fails the whole list")
}

func TestTableFor(t *testing.T) {
	assert.Equal(t, SummaryTable, TableFor([]Dimension{DimSurgeryType, DimCarrier, DimPatient}))
	assert.Equal(t, TransactionTable, TableFor([]Dimension{DimSurgeryType, DimBillingSubcategory}))
}

func TestDimensionColumns(t *testing.T) {
	assert.Equal(t, "primary_carrier", DimCarrier.Column(SummaryTable))
	assert.Equal(t, "visit_primary_carrier", DimCarrier.Column(TransactionTable))
	assert.Equal(t, "", DimBillingSubcategory.Column(SummaryTable))
	assert.Equal(t, "chart_number", DimPatient.Column(TransactionTable))
}
