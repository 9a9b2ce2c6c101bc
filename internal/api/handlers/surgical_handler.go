package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zemedica/feereference/backend/internal/application/services"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/providers"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

// SurgicalHandler handles surgery bundle HTTP requests
type SurgicalHandler struct {
	repo        repositories.SurgicalRepository
	estimateSvc *services.BundleEstimateService
	eventBus    providers.EventBus
}

// NewSurgicalHandler creates a new surgical handler
func NewSurgicalHandler(
	repo repositories.SurgicalRepository,
	estimateSvc *services.BundleEstimateService,
	eventBus providers.EventBus,
) *SurgicalHandler {
	return &SurgicalHandler{
		repo:        repo,
		estimateSvc: estimateSvc,
		eventBus:    eventBus,
	}
}

// ListBundles handles GET /api/surgery-bundles
func (h *SurgicalHandler) ListBundles(w http.ResponseWriter, r *http.Request) {
	filter := repositories.SurgeryBundleFilter{}
	filter.Limit, filter.Offset = parseLimitOffset(r, 50)

	switch r.URL.Query().Get("active") {
	case "true":
		active := true
		filter.IsActive = &active
	case "false":
		active := false
		filter.IsActive = &active
	}

	bundles, err := h.repo.ListBundles(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if bundles == nil {
		bundles = []*entities.SurgeryBundle{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"surgery_bundles": bundles,
		"count":           len(bundles),
	})
}

// GetBundle handles GET /api/surgery-bundles/{id}
func (h *SurgicalHandler) GetBundle(w http.ResponseWriter, r *http.Request) {
	bundle, err := h.repo.GetBundle(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, bundle)
}

// GetBundleEstimate handles GET /api/surgery-bundles/{id}/estimate
func (h *SurgicalHandler) GetBundleEstimate(w http.ResponseWriter, r *http.Request) {
	estimate, err := h.estimateSvc.Estimate(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, estimate)
}

// CreateBundle handles POST /api/admin/surgery-bundles
func (h *SurgicalHandler) CreateBundle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondWithAppError(w, apperrors.NewFieldValidationError("name", "name is required"))
		return
	}

	now := time.Now()
	bundle := &entities.SurgeryBundle{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.repo.CreateBundle(r.Context(), bundle); err != nil {
		respondWithAppError(w, err)
		return
	}

	publishChange(r.Context(), h.eventBus, entities.ReferenceCreated, "surgery_bundle", bundle.ID)
	respondWithJSON(w, http.StatusCreated, bundle)
}

type surgicalServiceRequest struct {
	ProcedureCode string `json:"procedure_code"`
	Description   string `json:"description"`

	SurgicalFee *struct {
		MedFee50 decimal.Decimal `json:"med_fee_50"`
		MedFee75 decimal.Decimal `json:"med_fee_75"`
	} `json:"surgical_fee"`

	AnesthesiaFee *struct {
		BaseUnits        decimal.Decimal `json:"base_units"`
		TimeUnits        decimal.Decimal `json:"time_units"`
		ConversionFactor decimal.Decimal `json:"conversion_factor"`
	} `json:"anesthesia_fee"`

	FacilityFee *struct {
		LowFee  decimal.Decimal `json:"low_fee"`
		HighFee decimal.Decimal `json:"high_fee"`
	} `json:"facility_fee"`
}

func (req *surgicalServiceRequest) validate() error {
	if req.ProcedureCode == "" {
		return apperrors.NewFieldValidationError("procedure_code", "procedure code is required")
	}
	if f := req.SurgicalFee; f != nil && (f.MedFee50.IsNegative() || f.MedFee75.IsNegative()) {
		return apperrors.NewFieldValidationError("surgical_fee", "fees must not be negative")
	}
	if f := req.AnesthesiaFee; f != nil &&
		(f.BaseUnits.IsNegative() || f.TimeUnits.IsNegative() || f.ConversionFactor.IsNegative()) {
		return apperrors.NewFieldValidationError("anesthesia_fee", "units and conversion factor must not be negative")
	}
	if f := req.FacilityFee; f != nil && (f.LowFee.IsNegative() || f.HighFee.IsNegative()) {
		return apperrors.NewFieldValidationError("facility_fee", "fees must not be negative")
	}
	return nil
}

// CreateService handles POST /api/admin/surgery-bundles/{id}/services
func (h *SurgicalHandler) CreateService(w http.ResponseWriter, r *http.Request) {
	var req surgicalServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		respondWithAppError(w, err)
		return
	}

	now := time.Now()
	service := &entities.SurgicalService{
		ID:              uuid.New().String(),
		SurgeryBundleID: r.PathValue("id"),
		ProcedureCode:   req.ProcedureCode,
		Description:     req.Description,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.SurgicalFee != nil {
		service.SurgicalFee = &entities.SurgicalFee{
			ID:                uuid.New().String(),
			SurgicalServiceID: service.ID,
			IsActive:          true,
			MedFee50:          req.SurgicalFee.MedFee50,
			MedFee75:          req.SurgicalFee.MedFee75,
		}
	}
	if req.AnesthesiaFee != nil {
		service.AnesthesiaFee = &entities.AnesthesiaFee{
			ID:                uuid.New().String(),
			SurgicalServiceID: service.ID,
			IsActive:          true,
			BaseUnits:         req.AnesthesiaFee.BaseUnits,
			TimeUnits:         req.AnesthesiaFee.TimeUnits,
			ConversionFactor:  req.AnesthesiaFee.ConversionFactor,
		}
	}
	if req.FacilityFee != nil {
		service.FacilityFee = &entities.FacilityFee{
			ID:                uuid.New().String(),
			SurgicalServiceID: service.ID,
			IsActive:          true,
			LowFee:            req.FacilityFee.LowFee,
			HighFee:           req.FacilityFee.HighFee,
		}
	}

	if err := h.repo.CreateService(r.Context(), service); err != nil {
		respondWithAppError(w, err)
		return
	}

	publishChange(r.Context(), h.eventBus, entities.ReferenceUpdated, "surgery_bundle", service.SurgeryBundleID)
	respondWithJSON(w, http.StatusCreated, service)
}
