package services

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
)

// ServiceEstimate is the per-service line of a bundle estimate
type ServiceEstimate struct {
	ProcedureCode string           `json:"procedure_code"`
	Description   string           `json:"description,omitempty"`
	SurgicalLow   *decimal.Decimal `json:"surgical_low,omitempty"`
	SurgicalHigh  *decimal.Decimal `json:"surgical_high,omitempty"`
	AnesthesiaFee *decimal.Decimal `json:"anesthesia_fee,omitempty"`
	FacilityLow   *decimal.Decimal `json:"facility_low,omitempty"`
	FacilityHigh  *decimal.Decimal `json:"facility_high,omitempty"`
}

// BundleEstimate totals the fee components of a surgery bundle. Services
// without a given component contribute nothing to that component's total.
type BundleEstimate struct {
	BundleID   string             `json:"bundle_id"`
	BundleName string             `json:"bundle_name"`
	Services   []*ServiceEstimate `json:"services"`
	TotalLow   decimal.Decimal    `json:"total_low"`
	TotalHigh  decimal.Decimal    `json:"total_high"`
}

// BundleEstimateService computes package price estimates for surgery bundles
type BundleEstimateService struct {
	surgicalRepo repositories.SurgicalRepository
}

// NewBundleEstimateService creates a new bundle estimate service
func NewBundleEstimateService(surgicalRepo repositories.SurgicalRepository) *BundleEstimateService {
	return &BundleEstimateService{surgicalRepo: surgicalRepo}
}

// Estimate computes the (low, high) package estimate for a bundle. The low
// bound sums each service's 50th percentile surgical fee, calculated
// anesthesia fee and low facility fee; the high bound uses the 75th
// percentile surgical fee and high facility fee. Anesthesia is a single
// calculated amount so it contributes equally to both bounds.
func (s *BundleEstimateService) Estimate(ctx context.Context, bundleID string) (*BundleEstimate, error) {
	bundle, err := s.surgicalRepo.GetBundle(ctx, bundleID)
	if err != nil {
		return nil, err
	}

	estimate := &BundleEstimate{
		BundleID:   bundle.ID,
		BundleName: bundle.Name,
		Services:   []*ServiceEstimate{},
		TotalLow:   decimal.Zero,
		TotalHigh:  decimal.Zero,
	}

	for _, svc := range bundle.Services {
		line := s.estimateService(svc)
		estimate.Services = append(estimate.Services, line)

		if line.SurgicalLow != nil {
			estimate.TotalLow = estimate.TotalLow.Add(*line.SurgicalLow)
			estimate.TotalHigh = estimate.TotalHigh.Add(*line.SurgicalHigh)
		}
		if line.AnesthesiaFee != nil {
			estimate.TotalLow = estimate.TotalLow.Add(*line.AnesthesiaFee)
			estimate.TotalHigh = estimate.TotalHigh.Add(*line.AnesthesiaFee)
		}
		if line.FacilityLow != nil {
			estimate.TotalLow = estimate.TotalLow.Add(*line.FacilityLow)
			estimate.TotalHigh = estimate.TotalHigh.Add(*line.FacilityHigh)
		}
	}

	return estimate, nil
}

func (s *BundleEstimateService) estimateService(svc *entities.SurgicalService) *ServiceEstimate {
	line := &ServiceEstimate{
		ProcedureCode: svc.ProcedureCode,
		Description:   svc.Description,
	}

	if svc.SurgicalFee != nil && svc.SurgicalFee.IsActive {
		low, high := svc.SurgicalFee.Range()
		line.SurgicalLow = &low
		line.SurgicalHigh = &high
	}
	if svc.AnesthesiaFee != nil && svc.AnesthesiaFee.IsActive {
		fee := svc.AnesthesiaFee.CalculateFee()
		line.AnesthesiaFee = &fee
	}
	if svc.FacilityFee != nil && svc.FacilityFee.IsActive {
		low, high := svc.FacilityFee.Range()
		line.FacilityLow = &low
		line.FacilityHigh = &high
	}

	return line
}
