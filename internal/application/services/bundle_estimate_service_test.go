package services_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zemedica/feereference/backend/internal/application/services"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

// StubSurgicalRepository returns a fixed bundle for testing
type StubSurgicalRepository struct {
	bundle *entities.SurgeryBundle
}

func (s *StubSurgicalRepository) ListBundles(ctx context.Context, filter repositories.SurgeryBundleFilter) ([]*entities.SurgeryBundle, error) {
	return []*entities.SurgeryBundle{s.bundle}, nil
}

func (s *StubSurgicalRepository) GetBundle(ctx context.Context, id string) (*entities.SurgeryBundle, error) {
	if s.bundle == nil || s.bundle.ID != id {
		return nil, apperrors.NewNotFoundError("surgery bundle not found")
	}
	return s.bundle, nil
}

func (s *StubSurgicalRepository) CreateBundle(ctx context.Context, bundle *entities.SurgeryBundle) error {
	return nil
}

func (s *StubSurgicalRepository) CreateService(ctx context.Context, service *entities.SurgicalService) error {
	return nil
}

func dec(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestEstimateSumsAllFeeComponents(t *testing.T) {
	bundle := &entities.SurgeryBundle{
		ID:   "bundle-1",
		Name: "Knee Arthroscopy Package",
		Services: []*entities.SurgicalService{
			{
				ID:            "svc-1",
				ProcedureCode: "29881",
				SurgicalFee: &entities.SurgicalFee{
					IsActive: true,
					MedFee50: dec("1200.00"),
					MedFee75: dec("1800.00"),
				},
				AnesthesiaFee: &entities.AnesthesiaFee{
					IsActive:         true,
					BaseUnits:        dec("4"),
					TimeUnits:        dec("6"),
					ConversionFactor: dec("22.50"),
				},
				FacilityFee: &entities.FacilityFee{
					IsActive: true,
					LowFee:   dec("3000.00"),
					HighFee:  dec("4500.00"),
				},
			},
		},
	}

	svc := services.NewBundleEstimateService(&StubSurgicalRepository{bundle: bundle})
	estimate, err := svc.Estimate(context.Background(), "bundle-1")
	require.NoError(t, err)

	// Anesthesia: (4 + 6) x 22.50 = 225.00, same in both bounds
	assert.True(t, estimate.TotalLow.Equal(dec("4425.00")), "got %s", estimate.TotalLow)
	assert.True(t, estimate.TotalHigh.Equal(dec("6525.00")), "got %s", estimate.TotalHigh)
	require.Len(t, estimate.Services, 1)
	assert.Equal(t, "29881", estimate.Services[0].ProcedureCode)
	assert.True(t, estimate.Services[0].AnesthesiaFee.Equal(dec("225.00")))
}

func TestEstimateSkipsMissingAndInactiveComponents(t *testing.T) {
	bundle := &entities.SurgeryBundle{
		ID:   "bundle-2",
		Name: "Partial Package",
		Services: []*entities.SurgicalService{
			{
				ID:            "svc-1",
				ProcedureCode: "47562",
				SurgicalFee: &entities.SurgicalFee{
					IsActive: true,
					MedFee50: dec("900.00"),
					MedFee75: dec("1300.00"),
				},
				// No anesthesia or facility fee recorded
			},
			{
				ID:            "svc-2",
				ProcedureCode: "00790",
				AnesthesiaFee: &entities.AnesthesiaFee{
					IsActive:         false,
					BaseUnits:        dec("7"),
					TimeUnits:        dec("5"),
					ConversionFactor: dec("25.00"),
				},
			},
		},
	}

	svc := services.NewBundleEstimateService(&StubSurgicalRepository{bundle: bundle})
	estimate, err := svc.Estimate(context.Background(), "bundle-2")
	require.NoError(t, err)

	assert.True(t, estimate.TotalLow.Equal(dec("900.00")), "got %s", estimate.TotalLow)
	assert.True(t, estimate.TotalHigh.Equal(dec("1300.00")), "got %s", estimate.TotalHigh)

	require.Len(t, estimate.Services, 2)
	assert.Nil(t, estimate.Services[0].AnesthesiaFee)
	assert.Nil(t, estimate.Services[1].AnesthesiaFee, "inactive component must not contribute")
}

func TestEstimateEmptyBundleIsZero(t *testing.T) {
	bundle := &entities.SurgeryBundle{
		ID:       "bundle-3",
		Name:     "Empty",
		Services: []*entities.SurgicalService{},
	}

	svc := services.NewBundleEstimateService(&StubSurgicalRepository{bundle: bundle})
	estimate, err := svc.Estimate(context.Background(), "bundle-3")
	require.NoError(t, err)

	assert.True(t, estimate.TotalLow.IsZero())
	assert.True(t, estimate.TotalHigh.IsZero())
	assert.Empty(t, estimate.Services)
}

func TestEstimateUnknownBundle(t *testing.T) {
	svc := services.NewBundleEstimateService(&StubSurgicalRepository{})
	_, err := svc.Estimate(context.Background(), "missing")
	require.Error(t, err)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
}
