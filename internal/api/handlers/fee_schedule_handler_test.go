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

type MockFeeScheduleRepo struct {
	mock.Mock
}

func (m *MockFeeScheduleRepo) Create(ctx context.Context, schedule *entities.FeeSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockFeeScheduleRepo) GetByID(ctx context.Context, id string) (*entities.FeeSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FeeSchedule), args.Error(1)
}

func (m *MockFeeScheduleRepo) GetByName(ctx context.Context, name string) (*entities.FeeSchedule, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FeeSchedule), args.Error(1)
}

func (m *MockFeeScheduleRepo) List(ctx context.Context, filter repositories.FeeScheduleFilter) ([]*entities.FeeSchedule, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.FeeSchedule), args.Error(1)
}

func (m *MockFeeScheduleRepo) AddItem(ctx context.Context, item *entities.FeeScheduleItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockFeeScheduleRepo) ListItems(ctx context.Context, scheduleID string) ([]*entities.FeeScheduleItem, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.FeeScheduleItem), args.Error(1)
}

func (m *MockFeeScheduleRepo) ListAdjustments(ctx context.Context, scheduleID string) ([]*entities.FeeAdjustment, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.FeeAdjustment), args.Error(1)
}

func (m *MockFeeScheduleRepo) AddAdjustment(ctx context.Context, adjustment *entities.FeeAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

func TestListFeeScheduleItems_AppliesAdjustmentsInOrder(t *testing.T) {
	repo := new(MockFeeScheduleRepo)
	repo.On("ListItems", mock.Anything, "fs-1").Return([]*entities.FeeScheduleItem{
		{ID: "item-1", FeeScheduleID: "fs-1", ProcedureCodeID: "pc-1", Code: "99213", Fee: dec("100.00")},
	}, nil)
	repo.On("ListAdjustments", mock.Anything, "fs-1").Return([]*entities.FeeAdjustment{
		{ID: "adj-1", FeeScheduleID: "fs-1", AdjustmentType: entities.AdjustmentPercentage, AdjustmentValue: dec("10")},
		{ID: "adj-2", FeeScheduleID: "fs-1", AdjustmentType: entities.AdjustmentFixed, AdjustmentValue: dec("-5")},
	}, nil)

	handler := handlers.NewFeeScheduleHandler(repo, nil)

	req := httptest.NewRequest("GET", "/api/fee-schedules/fs-1/items", nil)
	req.SetPathValue("id", "fs-1")
	w := httptest.NewRecorder()

	handler.ListFeeScheduleItems(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []struct {
			Fee         string `json:"fee"`
			AdjustedFee string `json:"adjusted_fee"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)

	// 100 +10% = 110, then -5 fixed = 105
	assert.Equal(t, "100", resp.Items[0].Fee)
	assert.Equal(t, "105", resp.Items[0].AdjustedFee)
}

func TestListFeeSchedules_RejectsBadEffectiveOnDate(t *testing.T) {
	repo := new(MockFeeScheduleRepo)
	handler := handlers.NewFeeScheduleHandler(repo, nil)

	req := httptest.NewRequest("GET", "/api/fee-schedules?effective_on=01-02-2026", nil)
	w := httptest.NewRecorder()

	handler.ListFeeSchedules(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "List")
}

func TestCreateFeeSchedule_RejectsExpirationBeforeEffective(t *testing.T) {
	repo := new(MockFeeScheduleRepo)
	handler := handlers.NewFeeScheduleHandler(repo, nil)

	body := `{
		"name": "Backwards Schedule",
		"effective_date": "2026-06-01T00:00:00Z",
		"expiration_date": "2026-01-01T00:00:00Z"
	}`
	req := httptest.NewRequest("POST", "/api/admin/fee-schedules", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateFeeSchedule(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "Create")
}

func TestCreateFeeSchedule_DefaultsToActive(t *testing.T) {
	repo := new(MockFeeScheduleRepo)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s *entities.FeeSchedule) bool {
		return s.IsActive && s.Name == "Standard Commercial 2026"
	})).Return(nil)

	handler := handlers.NewFeeScheduleHandler(repo, nil)

	body := `{"name": "Standard Commercial 2026", "effective_date": "2026-01-01T00:00:00Z"}`
	req := httptest.NewRequest("POST", "/api/admin/fee-schedules", strings.NewReader(body))
	w := httptest.NewRecorder()

	handler.CreateFeeSchedule(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	repo.AssertExpectations(t)
}

func TestAddFeeAdjustment_RejectsUnknownType(t *testing.T) {
	repo := new(MockFeeScheduleRepo)
	handler := handlers.NewFeeScheduleHandler(repo, nil)

	body := `{"adjustment_type": "DISCOUNT", "adjustment_value": "10"}`
	req := httptest.NewRequest("POST", "/api/admin/fee-schedules/fs-1/adjustments", strings.NewReader(body))
	req.SetPathValue("id", "fs-1")
	w := httptest.NewRecorder()

	handler.AddFeeAdjustment(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	repo.AssertNotCalled(t, "AddAdjustment")
}

func TestListFeeSchedules_FiltersByEffectiveOn(t *testing.T) {
	wantDate := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	repo := new(MockFeeScheduleRepo)
	repo.On("List", mock.Anything, mock.MatchedBy(func(f repositories.FeeScheduleFilter) bool {
		return f.EffectiveOn != nil && f.EffectiveOn.Equal(wantDate)
	})).Return([]*entities.FeeSchedule{}, nil)

	handler := handlers.NewFeeScheduleHandler(repo, nil)

	req := httptest.NewRequest("GET", "/api/fee-schedules?effective_on=2026-03-15", nil)
	w := httptest.NewRecorder()

	handler.ListFeeSchedules(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}
