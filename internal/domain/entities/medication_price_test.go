package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPriceRangeNoQuotes(t *testing.T) {
	med := &MedicationPrice{ID: "med-1", MedicationName: "Amoxicillin"}

	min, max := med.PriceRange()
	assert.True(t, min.IsZero())
	assert.True(t, max.IsZero())
}

func TestPriceRangeOverActiveQuotes(t *testing.T) {
	med := &MedicationPrice{
		ID:             "med-1",
		MedicationName: "Amoxicillin",
		Quotes: []*MedicationPriceQuote{
			{QuotedPrice: dec("10.00"), Source: "GoodRx", IsActive: true},
			{QuotedPrice: dec("25.50"), Source: "Main St Pharmacy", IsActive: true},
			{QuotedPrice: dec("15.00"), Source: "Costco", IsActive: true},
		},
	}

	min, max := med.PriceRange()
	assert.True(t, min.Equal(dec("10.00")), "min: got %s", min)
	assert.True(t, max.Equal(dec("25.50")), "max: got %s", max)
}

func TestPriceRangeIgnoresInactiveQuotes(t *testing.T) {
	med := &MedicationPrice{
		ID:             "med-1",
		MedicationName: "Lisinopril",
		Quotes: []*MedicationPriceQuote{
			{QuotedPrice: dec("4.00"), IsActive: true},
			{QuotedPrice: dec("99.00"), IsActive: false},
			{QuotedPrice: dec("1.50"), IsActive: false},
		},
	}

	min, max := med.PriceRange()
	assert.True(t, min.Equal(dec("4.00")))
	assert.True(t, max.Equal(dec("4.00")))
}

func TestPriceRangeAllQuotesInactive(t *testing.T) {
	med := &MedicationPrice{
		ID: "med-1",
		Quotes: []*MedicationPriceQuote{
			{QuotedPrice: dec("12.00"), IsActive: false},
		},
	}

	min, max := med.PriceRange()
	assert.True(t, min.IsZero())
	assert.True(t, max.IsZero())
}

func TestPriceRangeSingleQuote(t *testing.T) {
	med := &MedicationPrice{
		ID: "med-1",
		Quotes: []*MedicationPriceQuote{
			{QuotedPrice: dec("33.25"), IsActive: true},
		},
	}

	min, max := med.PriceRange()
	assert.True(t, min.Equal(dec("33.25")))
	assert.True(t, max.Equal(dec("33.25")))
}
