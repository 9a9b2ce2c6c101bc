package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

// ReferencePercentile is a percentile carried by the MFUS/PFR reference
// tables (50, 75, 80 or 85)
type ReferencePercentile int

const (
	Reference50 ReferencePercentile = 50
	Reference75 ReferencePercentile = 75
	Reference80 ReferencePercentile = 80
	Reference85 ReferencePercentile = 85
)

// ParseReferencePercentile converts a query-string value to a
// ReferencePercentile, rejecting anything outside the stored set.
func ParseReferencePercentile(s string) (ReferencePercentile, error) {
	switch s {
	case "50":
		return Reference50, nil
	case "75":
		return Reference75, nil
	case "80":
		return Reference80, nil
	case "85":
		return Reference85, nil
	}
	return 0, apperrors.NewFieldValidationError("percentile", fmt.Sprintf("percentile must be 50, 75, 80 or 85, got %q", s))
}

// PhysicianFeeReference stores per-service fee references from two sources:
// the M-series (MFUS, Medicare-derived) and the P-series (PFR, market-rate),
// each at the 50/75/80/85th percentile. All values are non-negative.
type PhysicianFeeReference struct {
	ID              string          `json:"id" db:"id"`
	ServiceName     string          `json:"service_name" db:"service_name"`
	ProcedureCodeID string          `json:"procedure_code_id" db:"procedure_code_id"`
	Code            string          `json:"code,omitempty" db:"-"`
	M50             decimal.Decimal `json:"m50" db:"m50"`
	M75             decimal.Decimal `json:"m75" db:"m75"`
	M80             decimal.Decimal `json:"m80" db:"m80"`
	M85             decimal.Decimal `json:"m85" db:"m85"`
	P50             decimal.Decimal `json:"p50" db:"p50"`
	P75             decimal.Decimal `json:"p75" db:"p75"`
	P80             decimal.Decimal `json:"p80" db:"p80"`
	P85             decimal.Decimal `json:"p85" db:"p85"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

var two = decimal.NewFromInt(2)

// valuesAt returns the matched (M, P) pair for a percentile. The mapping is
// a fixed switch so an unsupported percentile fails loudly instead of
// resolving a constructed field name.
func (r *PhysicianFeeReference) valuesAt(p ReferencePercentile) (decimal.Decimal, decimal.Decimal, error) {
	switch p {
	case Reference50:
		return r.M50, r.P50, nil
	case Reference75:
		return r.M75, r.P75, nil
	case Reference80:
		return r.M80, r.P80, nil
	case Reference85:
		return r.M85, r.P85, nil
	}
	return decimal.Zero, decimal.Zero, apperrors.NewFieldValidationError("percentile", fmt.Sprintf("percentile must be 50, 75, 80 or 85, got %d", p))
}

// Range returns the (low, high) fee range where each bound is the average of
// the M-series and P-series value at the requested percentile.
func (r *PhysicianFeeReference) Range(low, high ReferencePercentile) (decimal.Decimal, decimal.Decimal, error) {
	mLow, pLow, err := r.valuesAt(low)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	mHigh, pHigh, err := r.valuesAt(high)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	lowRange := mLow.Add(pLow).Div(two)
	highRange := mHigh.Add(pHigh).Div(two)
	return lowRange, highRange, nil
}

func (r *PhysicianFeeReference) String() string {
	return fmt.Sprintf("%s (%s)", r.ServiceName, r.ProcedureCodeID)
}
