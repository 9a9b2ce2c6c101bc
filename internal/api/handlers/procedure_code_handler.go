package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/providers"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

var (
	gafMin     = decimal.NewFromFloat(0.01)
	gafMax     = decimal.NewFromFloat(5.00)
	gafDefault = decimal.NewFromInt(1)
)

// ProcedureCodeHandler handles procedure code HTTP requests
type ProcedureCodeHandler struct {
	repo       repositories.ProcedureCodeRepository
	searchRepo repositories.ProcedureCodeSearchRepository
	eventBus   providers.EventBus
}

// NewProcedureCodeHandler creates a new procedure code handler
func NewProcedureCodeHandler(
	repo repositories.ProcedureCodeRepository,
	searchRepo repositories.ProcedureCodeSearchRepository,
	eventBus providers.EventBus,
) *ProcedureCodeHandler {
	return &ProcedureCodeHandler{
		repo:       repo,
		searchRepo: searchRepo,
		eventBus:   eventBus,
	}
}

// ListProcedureCodes handles GET /api/procedure-codes
func (h *ProcedureCodeHandler) ListProcedureCodes(w http.ResponseWriter, r *http.Request) {
	codeType := r.URL.Query().Get("type")
	if codeType != "" && !entities.ValidCodeType(codeType) {
		respondWithAppError(w, apperrors.NewFieldValidationError("type",
			fmt.Sprintf("code type must be CPT, HCPCS or ASA, got %q", codeType)))
		return
	}

	limit, offset := parseLimitOffset(r, 50)
	filter := repositories.ProcedureCodeFilter{
		CodeType: codeType,
		Category: r.URL.Query().Get("category"),
		Query:    r.URL.Query().Get("q"),
		Limit:    limit,
		Offset:   offset,
	}

	codes, err := h.repo.List(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, err)
		return
	}
	if codes == nil {
		codes = []*entities.ProcedureCode{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"procedure_codes": codes,
		"count":           len(codes),
	})
}

// SearchProcedureCodes handles GET /api/procedure-codes/search. Search goes
// through Typesense; when the index is unavailable it falls back to a
// database ILIKE scan so the endpoint degrades instead of failing.
func (h *ProcedureCodeHandler) SearchProcedureCodes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithAppError(w, apperrors.NewFieldValidationError("q", "search query is required"))
		return
	}

	codeType := r.URL.Query().Get("type")
	if codeType != "" && !entities.ValidCodeType(codeType) {
		respondWithAppError(w, apperrors.NewFieldValidationError("type",
			fmt.Sprintf("code type must be CPT, HCPCS or ASA, got %q", codeType)))
		return
	}

	limit, _ := parseLimitOffset(r, 20)

	var codes []*entities.ProcedureCode
	var err error
	if h.searchRepo != nil {
		codes, err = h.searchRepo.Search(r.Context(), query, codeType, limit)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("search index unavailable, falling back to database")
		}
	}
	if h.searchRepo == nil || err != nil {
		codes, err = h.repo.List(r.Context(), repositories.ProcedureCodeFilter{
			CodeType: codeType,
			Query:    query,
			Limit:    limit,
		})
		if err != nil {
			respondWithAppError(w, err)
			return
		}
	}
	if codes == nil {
		codes = []*entities.ProcedureCode{}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"procedure_codes": codes,
		"count":           len(codes),
	})
}

// GetProcedureCode handles GET /api/procedure-codes/{code}
func (h *ProcedureCodeHandler) GetProcedureCode(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "procedure code is required")
		return
	}

	result, err := h.repo.GetByCode(r.Context(), code)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// adjustedFeeEntry carries the base and adjusted fee at one percentile. Base
// is null when the code has no published fee there; Adjusted is then zero.
type adjustedFeeEntry struct {
	Base     decimal.NullDecimal `json:"base"`
	Adjusted decimal.Decimal     `json:"adjusted"`
}

// GetAdjustedFees handles GET /api/procedure-codes/{code}/adjusted-fees
func (h *ProcedureCodeHandler) GetAdjustedFees(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "procedure code is required")
		return
	}

	gaf, err := parseGAF(r.URL.Query().Get("gaf"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	result, err := h.repo.GetByCode(r.Context(), code)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	fees := make(map[string]adjustedFeeEntry, 2)
	for _, p := range []entities.FeePercentile{entities.Percentile50, entities.Percentile75} {
		base, err := result.FeeByPercentile(p, entities.FeeTypePhysician)
		if err != nil {
			respondWithAppError(w, err)
			return
		}
		adjusted, err := result.AdjustedFee(p, entities.FeeTypePhysician, &gaf)
		if err != nil {
			respondWithAppError(w, err)
			return
		}
		fees[fmt.Sprintf("p%d", p)] = adjustedFeeEntry{Base: base, Adjusted: adjusted}
	}

	var baseUnits *int
	if result.IsASACode() {
		baseUnits = result.BaseUnits
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"code":        result.Code,
		"code_type":   result.CodeType,
		"description": result.Description,
		"gaf_factor":  gaf,
		"fees":        fees,
		"base_units":  baseUnits,
	})
}

// parseGAF parses the geographic adjustment factor query parameter. Absent
// means no adjustment (factor 1.0); values outside [0.01, 5.00] are rejected.
func parseGAF(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return gafDefault, nil
	}

	gaf, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, apperrors.NewFieldValidationError("gaf",
			fmt.Sprintf("GAF factor must be a decimal number, got %q", raw))
	}
	if gaf.LessThan(gafMin) || gaf.GreaterThan(gafMax) {
		return decimal.Zero, apperrors.NewFieldValidationError("gaf",
			"GAF factor must be between 0.01 and 5.00")
	}
	return gaf, nil
}

type procedureCodeRequest struct {
	Code        string              `json:"code"`
	CodeType    string              `json:"code_type"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	BaseUnits   *int                `json:"base_units"`
	PhysFee25   decimal.NullDecimal `json:"phys_fee_25"`
	PhysFee50   decimal.NullDecimal `json:"phys_fee_50"`
	PhysFee75   decimal.NullDecimal `json:"phys_fee_75"`
	MedFee25    decimal.NullDecimal `json:"med_fee_25"`
	MedFee50    decimal.NullDecimal `json:"med_fee_50"`
	MedFee75    decimal.NullDecimal `json:"med_fee_75"`
}

func (req *procedureCodeRequest) validate() error {
	if req.Code == "" {
		return apperrors.NewFieldValidationError("code", "code is required")
	}
	if !entities.ValidCodeType(req.CodeType) {
		return apperrors.NewFieldValidationError("code_type",
			fmt.Sprintf("code type must be CPT, HCPCS or ASA, got %q", req.CodeType))
	}
	if req.Description == "" {
		return apperrors.NewFieldValidationError("description", "description is required")
	}
	for name, fee := range map[string]decimal.NullDecimal{
		"phys_fee_25": req.PhysFee25, "phys_fee_50": req.PhysFee50, "phys_fee_75": req.PhysFee75,
		"med_fee_25": req.MedFee25, "med_fee_50": req.MedFee50, "med_fee_75": req.MedFee75,
	} {
		if fee.Valid && fee.Decimal.IsNegative() {
			return apperrors.NewFieldValidationError(name, "fee must not be negative")
		}
	}
	if req.BaseUnits != nil && *req.BaseUnits < 0 {
		return apperrors.NewFieldValidationError("base_units", "base units must not be negative")
	}
	return nil
}

func (req *procedureCodeRequest) apply(code *entities.ProcedureCode) {
	code.Code = req.Code
	code.CodeType = entities.CodeType(req.CodeType)
	code.Description = req.Description
	code.Category = req.Category
	code.BaseUnits = req.BaseUnits
	code.PhysFee25 = req.PhysFee25
	code.PhysFee50 = req.PhysFee50
	code.PhysFee75 = req.PhysFee75
	code.MedFee25 = req.MedFee25
	code.MedFee50 = req.MedFee50
	code.MedFee75 = req.MedFee75
}

// CreateProcedureCode handles POST /api/admin/procedure-codes
func (h *ProcedureCodeHandler) CreateProcedureCode(w http.ResponseWriter, r *http.Request) {
	var req procedureCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		respondWithAppError(w, err)
		return
	}

	now := time.Now()
	code := &entities.ProcedureCode{
		ID:        uuid.New().String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	req.apply(code)

	if err := h.repo.Create(r.Context(), code); err != nil {
		respondWithAppError(w, err)
		return
	}

	h.indexCode(r, code)
	publishChange(r.Context(), h.eventBus, entities.ReferenceCreated, "procedure_code", code.ID)

	respondWithJSON(w, http.StatusCreated, code)
}

// UpdateProcedureCode handles PUT /api/admin/procedure-codes/{code}
func (h *ProcedureCodeHandler) UpdateProcedureCode(w http.ResponseWriter, r *http.Request) {
	existing, err := h.repo.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	var req procedureCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		respondWithAppError(w, err)
		return
	}

	req.apply(existing)
	if err := h.repo.Update(r.Context(), existing); err != nil {
		respondWithAppError(w, err)
		return
	}

	h.indexCode(r, existing)
	publishChange(r.Context(), h.eventBus, entities.ReferenceUpdated, "procedure_code", existing.ID)

	respondWithJSON(w, http.StatusOK, existing)
}

// DeleteProcedureCode handles DELETE /api/admin/procedure-codes/{code}
func (h *ProcedureCodeHandler) DeleteProcedureCode(w http.ResponseWriter, r *http.Request) {
	existing, err := h.repo.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	if err := h.repo.Delete(r.Context(), existing.ID); err != nil {
		respondWithAppError(w, err)
		return
	}

	if h.searchRepo != nil {
		if err := h.searchRepo.Remove(r.Context(), existing.ID); err != nil {
			log.Warn().Err(err).Str("code", existing.Code).Msg("failed to remove code from search index")
		}
	}
	publishChange(r.Context(), h.eventBus, entities.ReferenceDeleted, "procedure_code", existing.ID)

	w.WriteHeader(http.StatusNoContent)
}

func (h *ProcedureCodeHandler) indexCode(r *http.Request, code *entities.ProcedureCode) {
	if h.searchRepo == nil {
		return
	}
	if err := h.searchRepo.Index(r.Context(), code); err != nil {
		log.Warn().Err(err).Str("code", code.Code).Msg("failed to index procedure code")
	}
}
