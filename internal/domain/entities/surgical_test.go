package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnesthesiaCalculateFee(t *testing.T) {
	fee := &AnesthesiaFee{
		BaseUnits:        dec("4"),
		TimeUnits:        dec("6"),
		ConversionFactor: dec("22.50"),
	}

	got := fee.CalculateFee()
	assert.True(t, got.Equal(dec("225.00")), "got %s", got)
}

func TestAnesthesiaCalculateFeeFractionalUnits(t *testing.T) {
	fee := &AnesthesiaFee{
		BaseUnits:        dec("5.00"),
		TimeUnits:        dec("2.50"),
		ConversionFactor: dec("21.00"),
	}

	got := fee.CalculateFee()
	assert.True(t, got.Equal(dec("157.50")), "got %s", got)
}

func TestAnesthesiaCalculateFeeZeroUnits(t *testing.T) {
	fee := &AnesthesiaFee{
		BaseUnits:        dec("0"),
		TimeUnits:        dec("0"),
		ConversionFactor: dec("22.50"),
	}

	assert.True(t, fee.CalculateFee().IsZero())
}

func TestSurgicalFeeRange(t *testing.T) {
	fee := &SurgicalFee{
		MedFee50: dec("1200.00"),
		MedFee75: dec("1650.00"),
	}

	low, high := fee.Range()
	assert.True(t, low.Equal(dec("1200.00")))
	assert.True(t, high.Equal(dec("1650.00")))
}

func TestFacilityFeeRangeReturnsStoredPair(t *testing.T) {
	fee := &FacilityFee{
		LowFee:  dec("2500.00"),
		HighFee: dec("4100.00"),
	}

	low, high := fee.Range()
	assert.True(t, low.Equal(dec("2500.00")))
	assert.True(t, high.Equal(dec("4100.00")))
}
