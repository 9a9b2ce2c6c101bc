package repositories

import (
	"context"

	"github.com/zemedica/feereference/backend/internal/domain/entities"
)

// MedicationPriceRepository defines the interface for medication price
// storage. Reads always hydrate quotes so range calculations see the full
// active set.
type MedicationPriceRepository interface {
	// Create creates a new medication record
	Create(ctx context.Context, med *entities.MedicationPrice) error

	// GetByID retrieves a medication with all its quotes
	GetByID(ctx context.Context, id string) (*entities.MedicationPrice, error)

	// List retrieves medications with their quotes, ordered by name
	List(ctx context.Context, filter MedicationPriceFilter) ([]*entities.MedicationPrice, error)

	// AddQuote records a new price quote for a medication
	AddQuote(ctx context.Context, quote *entities.MedicationPriceQuote) error

	// DeactivateQuote marks a quote inactive, removing it from range
	// calculations while keeping it for history
	DeactivateQuote(ctx context.Context, quoteID string) error
}

// MedicationPriceFilter defines filters for listing medications
type MedicationPriceFilter struct {
	Name   string
	Limit  int
	Offset int
}
