package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeSchedule is a named, dated collection of per-code fees
type FeeSchedule struct {
	ID             string     `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Description    string     `json:"description,omitempty" db:"description"`
	EffectiveDate  time.Time  `json:"effective_date" db:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty" db:"expiration_date"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`

	Items []*FeeScheduleItem `json:"items,omitempty" db:"-"`
}

// IsEffectiveOn reports whether the schedule covers the given date
func (s *FeeSchedule) IsEffectiveOn(date time.Time) bool {
	if date.Before(s.EffectiveDate) {
		return false
	}
	if s.ExpirationDate != nil && date.After(*s.ExpirationDate) {
		return false
	}
	return s.IsActive
}

// FeeScheduleItem maps a procedure code to a flat fee within a schedule.
// Fee is validated non-negative at the API boundary and by a CHECK constraint.
type FeeScheduleItem struct {
	ID              string          `json:"id" db:"id"`
	FeeScheduleID   string          `json:"fee_schedule_id" db:"fee_schedule_id"`
	ProcedureCodeID string          `json:"procedure_code_id" db:"procedure_code_id"`
	Code            string          `json:"code,omitempty" db:"-"`
	Fee             decimal.Decimal `json:"fee" db:"fee"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// AdjustmentType describes how a fee adjustment is applied
type AdjustmentType string

const (
	AdjustmentPercentage AdjustmentType = "PERCENTAGE"
	AdjustmentFixed      AdjustmentType = "FIXED"
	AdjustmentMultiplier AdjustmentType = "MULTIPLIER"
)

// ValidAdjustmentType reports whether s is a supported adjustment type
func ValidAdjustmentType(s string) bool {
	switch AdjustmentType(s) {
	case AdjustmentPercentage, AdjustmentFixed, AdjustmentMultiplier:
		return true
	}
	return false
}

// FeeAdjustment is a schedule-level modifier applied on top of item fees
type FeeAdjustment struct {
	ID              string          `json:"id" db:"id"`
	FeeScheduleID   string          `json:"fee_schedule_id" db:"fee_schedule_id"`
	AdjustmentType  AdjustmentType  `json:"adjustment_type" db:"adjustment_type"`
	AdjustmentValue decimal.Decimal `json:"adjustment_value" db:"adjustment_value"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

var oneHundred = decimal.NewFromInt(100)

// Apply returns the fee after applying this adjustment. PERCENTAGE treats the
// value as a percentage delta (10 means +10%), FIXED adds a flat amount, and
// MULTIPLIER scales the fee directly. Results clamp at zero: an adjustment
// can waive a fee but never produce a negative one.
func (a *FeeAdjustment) Apply(fee decimal.Decimal) decimal.Decimal {
	var adjusted decimal.Decimal
	switch a.AdjustmentType {
	case AdjustmentPercentage:
		adjusted = fee.Add(fee.Mul(a.AdjustmentValue).Div(oneHundred))
	case AdjustmentFixed:
		adjusted = fee.Add(a.AdjustmentValue)
	case AdjustmentMultiplier:
		adjusted = fee.Mul(a.AdjustmentValue)
	default:
		return fee
	}
	if adjusted.IsNegative() {
		return decimal.Zero
	}
	return adjusted
}
