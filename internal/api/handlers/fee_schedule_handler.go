package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/providers"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

// FeeScheduleHandler handles fee schedule HTTP requests
type FeeScheduleHandler struct {
	repo     repositories.FeeScheduleRepository
	eventBus providers.EventBus
}

// NewFeeScheduleHandler creates a new fee schedule handler
func NewFeeScheduleHandler(repo repositories.FeeScheduleRepository, eventBus providers.EventBus) *FeeScheduleHandler {
	return &FeeScheduleHandler{repo: repo, eventBus: eventBus}
}

// ListFeeSchedules handles GET /api/fee-schedules
func (h *FeeScheduleHandler) ListFeeSchedules(w http.ResponseWriter, r *http.Request) {
	filter := repositories.FeeScheduleFilter{}
	filter.Limit, filter.Offset = parseLimitOffset(r, 50)

	switch r.URL.Query().Get("active") {
	case "true":
		active := true
		filter.IsActive = &active
	case "false":
		active := false
		filter.IsActive = &active
	}

	if v := r.URL.Query().Get("effective_on"); v != "" {
		date, err := time.Parse("2006-01-02", v)
		if err != nil {
			respondWithAppError(w, apperrors.NewFieldValidationError("effective_on",
				fmt.Sprintf("effective_on must be a YYYY-MM-DD date, got %q", v)))
			return
		}
		filter.EffectiveOn = &date
	}

	schedules, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if schedules == nil {
		schedules = []*entities.FeeSchedule{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"fee_schedules": schedules,
		"count":         len(schedules),
	})
}

// GetFeeSchedule handles GET /api/fee-schedules/{id}, items included
func (h *FeeScheduleHandler) GetFeeSchedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.repo.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, schedule)
}

// ListFeeScheduleItems handles GET /api/fee-schedules/{id}/items. Each item
// fee is returned raw and with the schedule's adjustments applied.
func (h *FeeScheduleHandler) ListFeeScheduleItems(w http.ResponseWriter, r *http.Request) {
	scheduleID := r.PathValue("id")

	items, err := h.repo.ListItems(r.Context(), scheduleID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	adjustments, err := h.repo.ListAdjustments(r.Context(), scheduleID)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	type itemWithAdjusted struct {
		*entities.FeeScheduleItem
		AdjustedFee decimal.Decimal `json:"adjusted_fee"`
	}

	result := make([]itemWithAdjusted, 0, len(items))
	for _, item := range items {
		adjusted := item.Fee
		for _, adj := range adjustments {
			adjusted = adj.Apply(adjusted)
		}
		result = append(result, itemWithAdjusted{FeeScheduleItem: item, AdjustedFee: adjusted})
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"items": result,
		"count": len(result),
	})
}

type feeScheduleRequest struct {
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	EffectiveDate  time.Time  `json:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date"`
	IsActive       *bool      `json:"is_active"`
}

// CreateFeeSchedule handles POST /api/admin/fee-schedules
func (h *FeeScheduleHandler) CreateFeeSchedule(w http.ResponseWriter, r *http.Request) {
	var req feeScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		respondWithAppError(w, apperrors.NewFieldValidationError("name", "name is required"))
		return
	}
	if req.EffectiveDate.IsZero() {
		respondWithAppError(w, apperrors.NewFieldValidationError("effective_date", "effective date is required"))
		return
	}
	if req.ExpirationDate != nil && req.ExpirationDate.Before(req.EffectiveDate) {
		respondWithAppError(w, apperrors.NewFieldValidationError("expiration_date",
			"expiration date must not precede the effective date"))
		return
	}

	now := time.Now()
	schedule := &entities.FeeSchedule{
		ID:             uuid.New().String(),
		Name:           req.Name,
		Description:    req.Description,
		EffectiveDate:  req.EffectiveDate,
		ExpirationDate: req.ExpirationDate,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.IsActive != nil {
		schedule.IsActive = *req.IsActive
	}

	if err := h.repo.Create(r.Context(), schedule); err != nil {
		respondWithAppError(w, err)
		return
	}

	publishChange(r.Context(), h.eventBus, entities.ReferenceCreated, "fee_schedule", schedule.ID)
	respondWithJSON(w, http.StatusCreated, schedule)
}

type feeScheduleItemRequest struct {
	ProcedureCodeID string          `json:"procedure_code_id"`
	Fee             decimal.Decimal `json:"fee"`
	Notes           string          `json:"notes"`
}

// AddFeeScheduleItem handles POST /api/admin/fee-schedules/{id}/items
func (h *FeeScheduleHandler) AddFeeScheduleItem(w http.ResponseWriter, r *http.Request) {
	var req feeScheduleItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProcedureCodeID == "" {
		respondWithAppError(w, apperrors.NewFieldValidationError("procedure_code_id", "procedure code id is required"))
		return
	}
	if req.Fee.IsNegative() {
		respondWithAppError(w, apperrors.NewFieldValidationError("fee", "fee must not be negative"))
		return
	}

	now := time.Now()
	item := &entities.FeeScheduleItem{
		ID:              uuid.New().String(),
		FeeScheduleID:   r.PathValue("id"),
		ProcedureCodeID: req.ProcedureCodeID,
		Fee:             req.Fee,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.repo.AddItem(r.Context(), item); err != nil {
		respondWithAppError(w, err)
		return
	}

	publishChange(r.Context(), h.eventBus, entities.ReferenceUpdated, "fee_schedule", item.FeeScheduleID)
	respondWithJSON(w, http.StatusCreated, item)
}

type feeAdjustmentRequest struct {
	AdjustmentType  string          `json:"adjustment_type"`
	AdjustmentValue decimal.Decimal `json:"adjustment_value"`
	Notes           string          `json:"notes"`
}

// AddFeeAdjustment handles POST /api/admin/fee-schedules/{id}/adjustments
func (h *FeeScheduleHandler) AddFeeAdjustment(w http.ResponseWriter, r *http.Request) {
	var req feeAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !entities.ValidAdjustmentType(req.AdjustmentType) {
		respondWithAppError(w, apperrors.NewFieldValidationError("adjustment_type",
			fmt.Sprintf("adjustment type must be PERCENTAGE, FIXED or MULTIPLIER, got %q", req.AdjustmentType)))
		return
	}

	now := time.Now()
	adjustment := &entities.FeeAdjustment{
		ID:              uuid.New().String(),
		FeeScheduleID:   r.PathValue("id"),
		AdjustmentType:  entities.AdjustmentType(req.AdjustmentType),
		AdjustmentValue: req.AdjustmentValue,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.repo.AddAdjustment(r.Context(), adjustment); err != nil {
		respondWithAppError(w, err)
		return
	}

	publishChange(r.Context(), h.eventBus, entities.ReferenceUpdated, "fee_schedule", adjustment.FeeScheduleID)
	respondWithJSON(w, http.StatusCreated, adjustment)
}
