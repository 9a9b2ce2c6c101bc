package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	"github.com/zemedica/feereference/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

// FeeScheduleAdapter implements FeeScheduleRepository
type FeeScheduleAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewFeeScheduleAdapter creates a new fee schedule adapter
func NewFeeScheduleAdapter(client *postgres.Client) repositories.FeeScheduleRepository {
	return &FeeScheduleAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new fee schedule
func (a *FeeScheduleAdapter) Create(ctx context.Context, schedule *entities.FeeSchedule) error {
	record := goqu.Record{
		"id":              schedule.ID,
		"name":            schedule.Name,
		"description":     sql.NullString{String: schedule.Description, Valid: schedule.Description != ""},
		"effective_date":  schedule.EffectiveDate,
		"expiration_date": schedule.ExpirationDate,
		"is_active":       schedule.IsActive,
		"created_at":      schedule.CreatedAt,
		"updated_at":      schedule.UpdatedAt,
	}

	query, args, err := a.db.Insert("fee_schedules").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("fee schedule %s already exists", schedule.Name))
		}
		return apperrors.NewInternalError("failed to create fee schedule", err)
	}

	return nil
}

// GetByID retrieves a schedule with its items
func (a *FeeScheduleAdapter) GetByID(ctx context.Context, id string) (*entities.FeeSchedule, error) {
	schedule, err := a.getByField(ctx, "id", id)
	if err != nil {
		return nil, err
	}

	items, err := a.ListItems(ctx, schedule.ID)
	if err != nil {
		return nil, err
	}
	schedule.Items = items

	return schedule, nil
}

// GetByName retrieves a schedule by name
func (a *FeeScheduleAdapter) GetByName(ctx context.Context, name string) (*entities.FeeSchedule, error) {
	return a.getByField(ctx, "name", name)
}

func (a *FeeScheduleAdapter) getByField(ctx context.Context, field, value string) (*entities.FeeSchedule, error) {
	query, args, err := a.db.Select(
		"id", "name", "description", "effective_date", "expiration_date",
		"is_active", "created_at", "updated_at",
	).From("fee_schedules").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	schedule, err := scanFeeSchedule(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("fee schedule with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get fee schedule", err)
	}

	return schedule, nil
}

// List retrieves schedules ordered by effective date descending
func (a *FeeScheduleAdapter) List(ctx context.Context, filter repositories.FeeScheduleFilter) ([]*entities.FeeSchedule, error) {
	ds := a.db.Select(
		"id", "name", "description", "effective_date", "expiration_date",
		"is_active", "created_at", "updated_at",
	).From("fee_schedules")

	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}
	if filter.EffectiveOn != nil {
		ds = ds.Where(
			goqu.I("effective_date").Lte(*filter.EffectiveOn),
			goqu.Or(
				goqu.I("expiration_date").IsNull(),
				goqu.I("expiration_date").Gte(*filter.EffectiveOn),
			),
		)
	}

	ds = ds.Order(goqu.I("effective_date").Desc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list fee schedules", err)
	}
	defer rows.Close()

	var schedules []*entities.FeeSchedule
	for rows.Next() {
		schedule, err := scanFeeSchedule(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan fee schedule", err)
		}
		schedules = append(schedules, schedule)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating fee schedules", err)
	}

	return schedules, nil
}

// AddItem adds an item to a schedule
func (a *FeeScheduleAdapter) AddItem(ctx context.Context, item *entities.FeeScheduleItem) error {
	record := goqu.Record{
		"id":                item.ID,
		"fee_schedule_id":   item.FeeScheduleID,
		"procedure_code_id": item.ProcedureCodeID,
		"fee":               item.Fee,
		"notes":             sql.NullString{String: item.Notes, Valid: item.Notes != ""},
		"created_at":        item.CreatedAt,
		"updated_at":        item.UpdatedAt,
	}

	query, args, err := a.db.Insert("fee_schedule_items").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError("schedule already has an item for this procedure code")
		}
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError("fee schedule or procedure code not found")
		}
		return apperrors.NewInternalError("failed to add fee schedule item", err)
	}

	return nil
}

// ListItems retrieves all items of a schedule joined with their code value,
// ordered by code
func (a *FeeScheduleAdapter) ListItems(ctx context.Context, scheduleID string) ([]*entities.FeeScheduleItem, error) {
	query, args, err := a.db.Select(
		goqu.I("i.id"),
		goqu.I("i.fee_schedule_id"),
		goqu.I("i.procedure_code_id"),
		goqu.I("p.code"),
		goqu.I("i.fee"),
		goqu.I("i.notes"),
		goqu.I("i.created_at"),
		goqu.I("i.updated_at"),
	).From(goqu.T("fee_schedule_items").As("i")).
		Join(goqu.T("procedure_codes").As("p"), goqu.On(goqu.I("i.procedure_code_id").Eq(goqu.I("p.id")))).
		Where(goqu.Ex{"i.fee_schedule_id": scheduleID}).
		Order(goqu.I("p.code").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build items query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list fee schedule items", err)
	}
	defer rows.Close()

	var items []*entities.FeeScheduleItem
	for rows.Next() {
		item := &entities.FeeScheduleItem{}
		var notes sql.NullString
		err := rows.Scan(
			&item.ID,
			&item.FeeScheduleID,
			&item.ProcedureCodeID,
			&item.Code,
			&item.Fee,
			&notes,
			&item.CreatedAt,
			&item.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan fee schedule item", err)
		}
		item.Notes = notes.String
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating fee schedule items", err)
	}

	return items, nil
}

// ListAdjustments retrieves the adjustments of a schedule
func (a *FeeScheduleAdapter) ListAdjustments(ctx context.Context, scheduleID string) ([]*entities.FeeAdjustment, error) {
	query, args, err := a.db.Select(
		"id", "fee_schedule_id", "adjustment_type", "adjustment_value",
		"notes", "created_at", "updated_at",
	).From("fee_adjustments").
		Where(goqu.Ex{"fee_schedule_id": scheduleID}).
		Order(goqu.I("created_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build adjustments query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list fee adjustments", err)
	}
	defer rows.Close()

	var adjustments []*entities.FeeAdjustment
	for rows.Next() {
		adj := &entities.FeeAdjustment{}
		var adjType string
		var notes sql.NullString
		err := rows.Scan(
			&adj.ID,
			&adj.FeeScheduleID,
			&adjType,
			&adj.AdjustmentValue,
			&notes,
			&adj.CreatedAt,
			&adj.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan fee adjustment", err)
		}
		adj.AdjustmentType = entities.AdjustmentType(adjType)
		adj.Notes = notes.String
		adjustments = append(adjustments, adj)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating fee adjustments", err)
	}

	return adjustments, nil
}

// AddAdjustment adds an adjustment to a schedule
func (a *FeeScheduleAdapter) AddAdjustment(ctx context.Context, adjustment *entities.FeeAdjustment) error {
	record := goqu.Record{
		"id":               adjustment.ID,
		"fee_schedule_id":  adjustment.FeeScheduleID,
		"adjustment_type":  string(adjustment.AdjustmentType),
		"adjustment_value": adjustment.AdjustmentValue,
		"notes":            sql.NullString{String: adjustment.Notes, Valid: adjustment.Notes != ""},
		"created_at":       adjustment.CreatedAt,
		"updated_at":       adjustment.UpdatedAt,
	}

	query, args, err := a.db.Insert("fee_adjustments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("fee schedule with id %s not found", adjustment.FeeScheduleID))
		}
		return apperrors.NewInternalError("failed to add fee adjustment", err)
	}

	return nil
}

func scanFeeSchedule(row rowScanner) (*entities.FeeSchedule, error) {
	schedule := &entities.FeeSchedule{}
	var description sql.NullString
	var expiration sql.NullTime

	err := row.Scan(
		&schedule.ID,
		&schedule.Name,
		&description,
		&schedule.EffectiveDate,
		&expiration,
		&schedule.IsActive,
		&schedule.CreatedAt,
		&schedule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	schedule.Description = description.String
	if expiration.Valid {
		t := expiration.Time
		schedule.ExpirationDate = &t
	}

	return schedule, nil
}
