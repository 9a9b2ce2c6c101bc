package repositories

import (
	"context"

	"github.com/zemedica/feereference/backend/internal/domain/entities"
)

// PhysicianFeeReferenceRepository defines the interface for MFUS/PFR
// reference storage
type PhysicianFeeReferenceRepository interface {
	// Create creates a new reference
	Create(ctx context.Context, ref *entities.PhysicianFeeReference) error

	// GetByID retrieves a reference by ID
	GetByID(ctx context.Context, id string) (*entities.PhysicianFeeReference, error)

	// List retrieves references, optionally filtered by procedure code
	List(ctx context.Context, filter PhysicianFeeReferenceFilter) ([]*entities.PhysicianFeeReference, error)
}

// PhysicianFeeReferenceFilter defines filters for listing references.
// Code filters by the referenced procedure code's code value.
type PhysicianFeeReferenceFilter struct {
	Code   string
	Limit  int
	Offset int
}
