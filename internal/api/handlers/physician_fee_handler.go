package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/providers"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

// PhysicianFeeHandler handles MFUS/PFR physician fee reference requests
type PhysicianFeeHandler struct {
	repo     repositories.PhysicianFeeReferenceRepository
	eventBus providers.EventBus
}

// NewPhysicianFeeHandler creates a new physician fee handler
func NewPhysicianFeeHandler(repo repositories.PhysicianFeeReferenceRepository, eventBus providers.EventBus) *PhysicianFeeHandler {
	return &PhysicianFeeHandler{repo: repo, eventBus: eventBus}
}

// ListReferences handles GET /api/physician-fee-references
func (h *PhysicianFeeHandler) ListReferences(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50)
	refs, err := h.repo.List(r.Context(), repositories.PhysicianFeeReferenceFilter{
		Code:   r.URL.Query().Get("procedure_code"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if refs == nil {
		refs = []*entities.PhysicianFeeReference{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"references": refs,
		"count":      len(refs),
	})
}

// GetReferenceRange handles GET /api/physician-fee-references/{id}/range.
// Bounds default to the 50th and 75th percentile.
func (h *PhysicianFeeHandler) GetReferenceRange(w http.ResponseWriter, r *http.Request) {
	low := entities.Reference50
	high := entities.Reference75

	var err error
	if v := r.URL.Query().Get("low"); v != "" {
		if low, err = entities.ParseReferencePercentile(v); err != nil {
			respondWithAppError(w, err)
			return
		}
	}
	if v := r.URL.Query().Get("high"); v != "" {
		if high, err = entities.ParseReferencePercentile(v); err != nil {
			respondWithAppError(w, err)
			return
		}
	}

	ref, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	lowFee, highFee, err := ref.Range(low, high)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"id":              ref.ID,
		"service_name":    ref.ServiceName,
		"code":            ref.Code,
		"low_percentile":  low,
		"high_percentile": high,
		"low_fee":         lowFee,
		"high_fee":        highFee,
	})
}

type physicianFeeReferenceRequest struct {
	ServiceName     string          `json:"service_name"`
	ProcedureCodeID string          `json:"procedure_code_id"`
	M50             decimal.Decimal `json:"m50"`
	M75             decimal.Decimal `json:"m75"`
	M80             decimal.Decimal `json:"m80"`
	M85             decimal.Decimal `json:"m85"`
	P50             decimal.Decimal `json:"p50"`
	P75             decimal.Decimal `json:"p75"`
	P80             decimal.Decimal `json:"p80"`
	P85             decimal.Decimal `json:"p85"`
}

// CreateReference handles POST /api/admin/physician-fee-references
func (h *PhysicianFeeHandler) CreateReference(w http.ResponseWriter, r *http.Request) {
	var req physicianFeeReferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ServiceName == "" {
		respondWithAppError(w, apperrors.NewFieldValidationError("service_name", "service name is required"))
		return
	}
	if req.ProcedureCodeID == "" {
		respondWithAppError(w, apperrors.NewFieldValidationError("procedure_code_id", "procedure code id is required"))
		return
	}
	for name, v := range map[string]decimal.Decimal{
		"m50": req.M50, "m75": req.M75, "m80": req.M80, "m85": req.M85,
		"p50": req.P50, "p75": req.P75, "p80": req.P80, "p85": req.P85,
	} {
		if v.IsNegative() {
			respondWithAppError(w, apperrors.NewFieldValidationError(name, "fee must not be negative"))
			return
		}
	}

	now := time.Now()
	ref := &entities.PhysicianFeeReference{
		ID:              uuid.New().String(),
		ServiceName:     req.ServiceName,
		ProcedureCodeID: req.ProcedureCodeID,
		M50:             req.M50,
		M75:             req.M75,
		M80:             req.M80,
		M85:             req.M85,
		P50:             req.P50,
		P75:             req.P75,
		P80:             req.P80,
		P85:             req.P85,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.repo.Create(r.Context(), ref); err != nil {
		respondWithAppError(w, err)
		return
	}

	publishChange(r.Context(), h.eventBus, entities.ReferenceCreated, "physician_fee_reference", ref.ID)
	respondWithJSON(w, http.StatusCreated, ref)
}
