package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/zemedica/feereference/backend/internal/api/handlers"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
)

type MockMedicationRepo struct {
	mock.Mock
}

func (m *MockMedicationRepo) Create(ctx context.Context, med *entities.MedicationPrice) error {
	args := m.Called(ctx, med)
	return args.Error(0)
}

func (m *MockMedicationRepo) GetByID(ctx context.Context, id string) (*entities.MedicationPrice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MedicationPrice), args.Error(1)
}

func (m *MockMedicationRepo) List(ctx context.Context, filter repositories.MedicationPriceFilter) ([]*entities.MedicationPrice, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.MedicationPrice), args.Error(1)
}

func (m *MockMedicationRepo) AddQuote(ctx context.Context, quote *entities.MedicationPriceQuote) error {
	args := m.Called(ctx, quote)
	return args.Error(0)
}

func (m *MockMedicationRepo) DeactivateQuote(ctx context.Context, quoteID string) error {
	args := m.Called(ctx, quoteID)
	return args.Error(0)
}

func sampleMedication() *entities.MedicationPrice {
	return &entities.MedicationPrice{
		ID:             "med-1",
		MedicationName: "Amoxicillin 500mg (30 capsules)",
		Quotes: []*entities.MedicationPriceQuote{
			{ID: "q-1", MedicationID: "med-1", QuotedPrice: dec("8.99"), Source: "CostPlus", IsActive: true},
			{ID: "q-2", MedicationID: "med-1", QuotedPrice: dec("14.50"), Source: "RetailAvg", IsActive: true},
			{ID: "q-3", MedicationID: "med-1", QuotedPrice: dec("99.00"), Source: "Stale", IsActive: false},
		},
	}
}

func TestGetMedication_PriceRangeIgnoresInactiveQuotes(t *testing.T) {
	repo := new(MockMedicationRepo)
	repo.On("GetByID", mock.Anything, "med-1").Return(sampleMedication(), nil)

	handler := handlers.NewMedicationHandler(repo, nil)

	req := httptest.NewRequest("GET", "/api/medications/med-1", nil)
	req.SetPathValue("id", "med-1")
	w := httptest.NewRecorder()

	handler.GetMedication(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		PriceMin string `json:"price_min"`
		PriceMax string `json:"price_max"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "8.99", resp.PriceMin)
	assert.Equal(t, "14.5", resp.PriceMax)
}

func TestAddQuote_RejectsNegativePrice(t *testing.T) {
	repo := new(MockMedicationRepo)
	handler := handlers.NewMedicationHandler(repo, nil)

	body := `{"quoted_price": "-1.00", "source": "CostPlus"}`
	req := httptest.NewRequest("POST", "/api/admin/medications/med-1/quotes", strings.NewReader(body))
	req.SetPathValue("id", "med-1")
	w := httptest.NewRecorder()

	handler.AddQuote(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "AddQuote")
}

func TestAddQuote_DefaultsQuoteDateAndActive(t *testing.T) {
	before := time.Now()

	repo := new(MockMedicationRepo)
	repo.On("AddQuote", mock.Anything, mock.MatchedBy(func(q *entities.MedicationPriceQuote) bool {
		return q.IsActive && !q.QuoteDate.Before(before) && q.Source == "CostPlus"
	})).Return(nil)

	handler := handlers.NewMedicationHandler(repo, nil)

	body := `{"quoted_price": "8.99", "source": "CostPlus"}`
	req := httptest.NewRequest("POST", "/api/admin/medications/med-1/quotes", strings.NewReader(body))
	req.SetPathValue("id", "med-1")
	w := httptest.NewRecorder()

	handler.AddQuote(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	repo.AssertExpectations(t)
}

func TestDeactivateQuote_ReturnsNoContent(t *testing.T) {
	repo := new(MockMedicationRepo)
	repo.On("DeactivateQuote", mock.Anything, "q-1").Return(nil)

	handler := handlers.NewMedicationHandler(repo, nil)

	req := httptest.NewRequest("DELETE", "/api/admin/medications/med-1/quotes/q-1", nil)
	req.SetPathValue("id", "med-1")
	req.SetPathValue("quoteId", "q-1")
	w := httptest.NewRecorder()

	handler.DeactivateQuote(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	repo.AssertExpectations(t)
}

func TestCreateMedication_RequiresName(t *testing.T) {
	repo := new(MockMedicationRepo)
	handler := handlers.NewMedicationHandler(repo, nil)

	req := httptest.NewRequest("POST", "/api/admin/medications", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.CreateMedication(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "Create")
}
