package repositories

import (
	"context"
	"time"

	"github.com/zemedica/feereference/backend/internal/domain/entities"
)

// FeeScheduleRepository defines the interface for fee schedule storage
type FeeScheduleRepository interface {
	// Create creates a new fee schedule
	Create(ctx context.Context, schedule *entities.FeeSchedule) error

	// GetByID retrieves a schedule with its items
	GetByID(ctx context.Context, id string) (*entities.FeeSchedule, error)

	// GetByName retrieves a schedule by name
	GetByName(ctx context.Context, name string) (*entities.FeeSchedule, error)

	// List retrieves schedules ordered by effective date descending
	List(ctx context.Context, filter FeeScheduleFilter) ([]*entities.FeeSchedule, error)

	// AddItem adds an item to a schedule
	AddItem(ctx context.Context, item *entities.FeeScheduleItem) error

	// ListItems retrieves all items of a schedule, ordered by code
	ListItems(ctx context.Context, scheduleID string) ([]*entities.FeeScheduleItem, error)

	// ListAdjustments retrieves the adjustments of a schedule
	ListAdjustments(ctx context.Context, scheduleID string) ([]*entities.FeeAdjustment, error)

	// AddAdjustment adds an adjustment to a schedule
	AddAdjustment(ctx context.Context, adjustment *entities.FeeAdjustment) error
}

// FeeScheduleFilter defines filters for listing fee schedules
type FeeScheduleFilter struct {
	IsActive    *bool
	EffectiveOn *time.Time
	Limit       int
	Offset      int
}
