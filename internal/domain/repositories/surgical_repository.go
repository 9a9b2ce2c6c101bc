package repositories

import (
	"context"

	"github.com/zemedica/feereference/backend/internal/domain/entities"
)

// SurgicalRepository defines the interface for surgery bundle storage
type SurgicalRepository interface {
	// ListBundles retrieves surgery bundles without their services
	ListBundles(ctx context.Context, filter SurgeryBundleFilter) ([]*entities.SurgeryBundle, error)

	// GetBundle retrieves a bundle with its active services and each
	// service's fee components hydrated
	GetBundle(ctx context.Context, id string) (*entities.SurgeryBundle, error)

	// CreateBundle creates a new surgery bundle
	CreateBundle(ctx context.Context, bundle *entities.SurgeryBundle) error

	// CreateService adds a service to a bundle
	CreateService(ctx context.Context, service *entities.SurgicalService) error
}

// SurgeryBundleFilter defines filters for listing surgery bundles
type SurgeryBundleFilter struct {
	IsActive *bool
	Limit    int
	Offset   int
}
