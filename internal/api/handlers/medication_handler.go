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

// MedicationHandler handles medication price HTTP requests
type MedicationHandler struct {
	repo     repositories.MedicationPriceRepository
	eventBus providers.EventBus
}

// NewMedicationHandler creates a new medication handler
func NewMedicationHandler(repo repositories.MedicationPriceRepository, eventBus providers.EventBus) *MedicationHandler {
	return &MedicationHandler{repo: repo, eventBus: eventBus}
}

type medicationResponse struct {
	*entities.MedicationPrice
	PriceMin decimal.Decimal `json:"price_min"`
	PriceMax decimal.Decimal `json:"price_max"`
}

func toMedicationResponse(med *entities.MedicationPrice) medicationResponse {
	min, max := med.PriceRange()
	return medicationResponse{MedicationPrice: med, PriceMin: min, PriceMax: max}
}

// ListMedications handles GET /api/medications
func (h *MedicationHandler) ListMedications(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50)
	meds, err := h.repo.List(r.Context(), repositories.MedicationPriceFilter{
		Name:   r.URL.Query().Get("name"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	result := make([]medicationResponse, 0, len(meds))
	for _, med := range meds {
		result = append(result, toMedicationResponse(med))
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"medications": result,
		"count":       len(result),
	})
}

// GetMedication handles GET /api/medications/{id}
func (h *MedicationHandler) GetMedication(w http.ResponseWriter, r *http.Request) {
	med, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, toMedicationResponse(med))
}

// CreateMedication handles POST /api/admin/medications
func (h *MedicationHandler) CreateMedication(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MedicationName string `json:"medication_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MedicationName == "" {
		respondWithAppError(w, apperrors.NewFieldValidationError("medication_name", "medication name is required"))
		return
	}

	now := time.Now()
	med := &entities.MedicationPrice{
		ID:             uuid.New().String(),
		MedicationName: req.MedicationName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := h.repo.Create(r.Context(), med); err != nil {
		respondWithAppError(w, err)
		return
	}

	publishChange(r.Context(), h.eventBus, entities.ReferenceCreated, "medication", med.ID)
	respondWithJSON(w, http.StatusCreated, med)
}

type quoteRequest struct {
	QuotedPrice decimal.Decimal `json:"quoted_price"`
	Source      string          `json:"source"`
	QuoteDate   *time.Time      `json:"quote_date"`
}

// AddQuote handles POST /api/admin/medications/{id}/quotes
func (h *MedicationHandler) AddQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuotedPrice.IsNegative() {
		respondWithAppError(w, apperrors.NewFieldValidationError("quoted_price", "quoted price must not be negative"))
		return
	}
	if req.Source == "" {
		respondWithAppError(w, apperrors.NewFieldValidationError("source", "source is required"))
		return
	}

	now := time.Now()
	quoteDate := now
	if req.QuoteDate != nil {
		quoteDate = *req.QuoteDate
	}

	quote := &entities.MedicationPriceQuote{
		ID:           uuid.New().String(),
		MedicationID: r.PathValue("id"),
		QuotedPrice:  req.QuotedPrice,
		Source:       req.Source,
		QuoteDate:    quoteDate,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.repo.AddQuote(r.Context(), quote); err != nil {
		respondWithAppError(w, err)
		return
	}

	publishChange(r.Context(), h.eventBus, entities.ReferenceUpdated, "medication", quote.MedicationID)
	respondWithJSON(w, http.StatusCreated, quote)
}

// DeactivateQuote handles DELETE /api/admin/medications/{id}/quotes/{quoteId}.
// Quotes are never hard-deleted; deactivation removes them from price ranges
// while preserving quote history.
func (h *MedicationHandler) DeactivateQuote(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeactivateQuote(r.Context(), r.PathValue("quoteId")); err != nil {
		respondWithAppError(w, err)
		return
	}

	publishChange(r.Context(), h.eventBus, entities.ReferenceUpdated, "medication", r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}
