package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// MedicationPrice groups sourced price quotes for a single medication
type MedicationPrice struct {
	ID             string    `json:"id" db:"id"`
	MedicationName string    `json:"medication_name" db:"medication_name"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`

	Quotes []*MedicationPriceQuote `json:"quotes,omitempty" db:"-"`
}

// PriceRange returns the (min, max) quoted price over active quotes only.
// With no active quotes both bounds are zero.
func (m *MedicationPrice) PriceRange() (decimal.Decimal, decimal.Decimal) {
	var min, max decimal.Decimal
	found := false
	for _, q := range m.Quotes {
		if !q.IsActive {
			continue
		}
		if !found {
			min, max = q.QuotedPrice, q.QuotedPrice
			found = true
			continue
		}
		if q.QuotedPrice.LessThan(min) {
			min = q.QuotedPrice
		}
		if q.QuotedPrice.GreaterThan(max) {
			max = q.QuotedPrice
		}
	}
	if !found {
		return decimal.Zero, decimal.Zero
	}
	return min, max
}

// MedicationPriceQuote is a single sourced price observation. QuotedPrice is
// non-negative; inactive quotes are kept for history but excluded from
// range calculations.
type MedicationPriceQuote struct {
	ID           string          `json:"id" db:"id"`
	MedicationID string          `json:"medication_id" db:"medication_id"`
	QuotedPrice  decimal.Decimal `json:"quoted_price" db:"quoted_price"`
	Source       string          `json:"source" db:"source"`
	QuoteDate    time.Time       `json:"quote_date" db:"quote_date"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}
