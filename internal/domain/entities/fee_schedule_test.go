package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeeAdjustmentApplyPercentage(t *testing.T) {
	adj := &FeeAdjustment{AdjustmentType: AdjustmentPercentage, AdjustmentValue: dec("10")}

	got := adj.Apply(dec("200.00"))
	assert.True(t, got.Equal(dec("220.00")), "got %s", got)

	discount := &FeeAdjustment{AdjustmentType: AdjustmentPercentage, AdjustmentValue: dec("-25")}
	got = discount.Apply(dec("200.00"))
	assert.True(t, got.Equal(dec("150.00")), "got %s", got)
}

func TestFeeAdjustmentApplyFixed(t *testing.T) {
	adj := &FeeAdjustment{AdjustmentType: AdjustmentFixed, AdjustmentValue: dec("15.00")}

	got := adj.Apply(dec("100.00"))
	assert.True(t, got.Equal(dec("115.00")), "got %s", got)
}

func TestFeeAdjustmentApplyMultiplier(t *testing.T) {
	adj := &FeeAdjustment{AdjustmentType: AdjustmentMultiplier, AdjustmentValue: dec("0.80")}

	got := adj.Apply(dec("250.00"))
	assert.True(t, got.Equal(dec("200.00")), "got %s", got)
}

func TestFeeAdjustmentClampsAtZero(t *testing.T) {
	adj := &FeeAdjustment{AdjustmentType: AdjustmentFixed, AdjustmentValue: dec("-500.00")}

	got := adj.Apply(dec("100.00"))
	assert.True(t, got.IsZero(), "got %s", got)
}

func TestFeeAdjustmentUnknownTypeIsNoOp(t *testing.T) {
	adj := &FeeAdjustment{AdjustmentType: AdjustmentType("SURCHARGE"), AdjustmentValue: dec("99")}

	got := adj.Apply(dec("100.00"))
	assert.True(t, got.Equal(dec("100.00")))
}

func TestValidAdjustmentType(t *testing.T) {
	assert.True(t, ValidAdjustmentType("PERCENTAGE"))
	assert.True(t, ValidAdjustmentType("FIXED"))
	assert.True(t, ValidAdjustmentType("MULTIPLIER"))
	assert.False(t, ValidAdjustmentType("percentage"))
	assert.False(t, ValidAdjustmentType(""))
}

func TestFeeScheduleIsEffectiveOn(t *testing.T) {
	effective := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	expires := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	schedule := &FeeSchedule{
		Name:           "2025 Standard",
		EffectiveDate:  effective,
		ExpirationDate: &expires,
		IsActive:       true,
	}

	assert.True(t, schedule.IsEffectiveOn(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
	assert.False(t, schedule.IsEffectiveOn(time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)))
	assert.False(t, schedule.IsEffectiveOn(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	schedule.IsActive = false
	assert.False(t, schedule.IsEffectiveOn(time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)))
}

func TestFeeScheduleNoExpiration(t *testing.T) {
	schedule := &FeeSchedule{
		EffectiveDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		IsActive:      true,
	}

	assert.True(t, schedule.IsEffectiveOn(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
}
