package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zemedica/feereference/backend/internal/api/handlers"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

type MockProcedureCodeRepo struct {
	mock.Mock
}

func (m *MockProcedureCodeRepo) Create(ctx context.Context, code *entities.ProcedureCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockProcedureCodeRepo) GetByID(ctx context.Context, id string) (*entities.ProcedureCode, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ProcedureCode), args.Error(1)
}

func (m *MockProcedureCodeRepo) GetByCode(ctx context.Context, code string) (*entities.ProcedureCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ProcedureCode), args.Error(1)
}

func (m *MockProcedureCodeRepo) Update(ctx context.Context, code *entities.ProcedureCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockProcedureCodeRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProcedureCodeRepo) List(ctx context.Context, filter repositories.ProcedureCodeFilter) ([]*entities.ProcedureCode, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ProcedureCode), args.Error(1)
}

type MockSearchRepo struct {
	mock.Mock
}

func (m *MockSearchRepo) InitSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockSearchRepo) Index(ctx context.Context, code *entities.ProcedureCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockSearchRepo) Remove(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSearchRepo) Search(ctx context.Context, query, codeType string, limit int) ([]*entities.ProcedureCode, error) {
	args := m.Called(ctx, query, codeType, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ProcedureCode), args.Error(1)
}

func nullDec(s string) decimal.NullDecimal {
	d, _ := decimal.NewFromString(s)
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

func sampleCode() *entities.ProcedureCode {
	return &entities.ProcedureCode{
		ID:          "pc-1",
		Code:        "99213",
		CodeType:    entities.CodeTypeCPT,
		Description: "Office visit, established patient",
		PhysFee50:   nullDec("110.00"),
		PhysFee75:   nullDec("150.00"),
	}
}

func TestListProcedureCodes_RejectsUnknownType(t *testing.T) {
	repo := new(MockProcedureCodeRepo)
	handler := handlers.NewProcedureCodeHandler(repo, nil, nil)

	req := httptest.NewRequest("GET", "/api/procedure-codes?type=ICD10", nil)
	w := httptest.NewRecorder()

	handler.ListProcedureCodes(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	details := resp["details"].(map[string]interface{})
	assert.Contains(t, details, "type")
	repo.AssertNotCalled(t, "List")
}

func TestGetProcedureCode_NotFound(t *testing.T) {
	repo := new(MockProcedureCodeRepo)
	repo.On("GetByCode", mock.Anything, "00000").
		Return(nil, apperrors.NewNotFoundError("procedure code with code 00000 not found"))

	handler := handlers.NewProcedureCodeHandler(repo, nil, nil)

	req := httptest.NewRequest("GET", "/api/procedure-codes/00000", nil)
	req.SetPathValue("code", "00000")
	w := httptest.NewRecorder()

	handler.GetProcedureCode(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAdjustedFees_AppliesGAF(t *testing.T) {
	repo := new(MockProcedureCodeRepo)
	repo.On("GetByCode", mock.Anything, "99213").Return(sampleCode(), nil)

	handler := handlers.NewProcedureCodeHandler(repo, nil, nil)

	req := httptest.NewRequest("GET", "/api/procedure-codes/99213/adjusted-fees?gaf=1.25", nil)
	req.SetPathValue("code", "99213")
	w := httptest.NewRecorder()

	handler.GetAdjustedFees(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Code      string `json:"code"`
		GAFFactor string `json:"gaf_factor"`
		Fees      map[string]struct {
			Base     *string `json:"base"`
			Adjusted string  `json:"adjusted"`
		} `json:"fees"`
		BaseUnits *int `json:"base_units"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "99213", resp.Code)
	assert.Equal(t, "1.25", resp.GAFFactor)
	require.Contains(t, resp.Fees, "p50")
	assert.Equal(t, "137.5", resp.Fees["p50"].Adjusted)
	assert.Equal(t, "187.5", resp.Fees["p75"].Adjusted)
	assert.Nil(t, resp.BaseUnits, "base_units only set for ASA codes")
}

func TestGetAdjustedFees_DefaultGAFIsIdentity(t *testing.T) {
	repo := new(MockProcedureCodeRepo)
	repo.On("GetByCode", mock.Anything, "99213").Return(sampleCode(), nil)

	handler := handlers.NewProcedureCodeHandler(repo, nil, nil)

	req := httptest.NewRequest("GET", "/api/procedure-codes/99213/adjusted-fees", nil)
	req.SetPathValue("code", "99213")
	w := httptest.NewRecorder()

	handler.GetAdjustedFees(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Fees map[string]struct {
			Adjusted string `json:"adjusted"`
		} `json:"fees"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "110", resp.Fees["p50"].Adjusted)
}

func TestGetAdjustedFees_MissingFeeIsZeroNotError(t *testing.T) {
	code := sampleCode()
	code.PhysFee75 = decimal.NullDecimal{}

	repo := new(MockProcedureCodeRepo)
	repo.On("GetByCode", mock.Anything, "99213").Return(code, nil)

	handler := handlers.NewProcedureCodeHandler(repo, nil, nil)

	req := httptest.NewRequest("GET", "/api/procedure-codes/99213/adjusted-fees?gaf=2.00", nil)
	req.SetPathValue("code", "99213")
	w := httptest.NewRecorder()

	handler.GetAdjustedFees(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Fees map[string]struct {
			Base     *string `json:"base"`
			Adjusted string  `json:"adjusted"`
		} `json:"fees"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Fees["p75"].Base)
	assert.Equal(t, "0", resp.Fees["p75"].Adjusted)
}

func TestGetAdjustedFees_RejectsBadGAF(t *testing.T) {
	repo := new(MockProcedureCodeRepo)
	handler := handlers.NewProcedureCodeHandler(repo, nil, nil)

	for _, gaf := range []string{"abc", "0.009", "5.01", "-1"} {
		req := httptest.NewRequest("GET", "/api/procedure-codes/99213/adjusted-fees?gaf="+gaf, nil)
		req.SetPathValue("code", "99213")
		w := httptest.NewRecorder()

		handler.GetAdjustedFees(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "gaf=%s", gaf)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		details := resp["details"].(map[string]interface{})
		assert.Contains(t, details, "gaf")
	}
	repo.AssertNotCalled(t, "GetByCode")
}

func TestGetAdjustedFees_AcceptsGAFBounds(t *testing.T) {
	repo := new(MockProcedureCodeRepo)
	repo.On("GetByCode", mock.Anything, "99213").Return(sampleCode(), nil)

	handler := handlers.NewProcedureCodeHandler(repo, nil, nil)

	for _, gaf := range []string{"0.01", "5.00"} {
		req := httptest.NewRequest("GET", "/api/procedure-codes/99213/adjusted-fees?gaf="+gaf, nil)
		req.SetPathValue("code", "99213")
		w := httptest.NewRecorder()

		handler.GetAdjustedFees(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "gaf=%s should be inside bounds", gaf)
	}
}

func TestSearchProcedureCodes_FallsBackToDatabase(t *testing.T) {
	searchRepo := new(MockSearchRepo)
	searchRepo.On("Search", mock.Anything, "office", "", 20).
		Return(nil, assert.AnError)

	repo := new(MockProcedureCodeRepo)
	repo.On("List", mock.Anything, mock.MatchedBy(func(f repositories.ProcedureCodeFilter) bool {
		return f.Query == "office" && f.Limit == 20
	})).Return([]*entities.ProcedureCode{sampleCode()}, nil)

	handler := handlers.NewProcedureCodeHandler(repo, searchRepo, nil)

	req := httptest.NewRequest("GET", "/api/procedure-codes/search?q=office", nil)
	w := httptest.NewRecorder()

	handler.SearchProcedureCodes(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	repo.AssertExpectations(t)
}

func TestSearchProcedureCodes_NoSearchIndexUsesDatabase(t *testing.T) {
	repo := new(MockProcedureCodeRepo)
	repo.On("List", mock.Anything, mock.MatchedBy(func(f repositories.ProcedureCodeFilter) bool {
		return f.Query == "office" && f.Limit == 20
	})).Return([]*entities.ProcedureCode{sampleCode()}, nil)

	// A nil search repository is how the server runs when Typesense is down
	handler := handlers.NewProcedureCodeHandler(repo, nil, nil)

	req := httptest.NewRequest("GET", "/api/procedure-codes/search?q=office", nil)
	w := httptest.NewRecorder()

	handler.SearchProcedureCodes(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	repo.AssertExpectations(t)
}

func TestSearchProcedureCodes_RequiresQuery(t *testing.T) {
	handler := handlers.NewProcedureCodeHandler(new(MockProcedureCodeRepo), new(MockSearchRepo), nil)

	req := httptest.NewRequest("GET", "/api/procedure-codes/search", nil)
	w := httptest.NewRecorder()

	handler.SearchProcedureCodes(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
