package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	"github.com/zemedica/feereference/backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/zemedica/feereference/backend/pkg/errors"
)

var procedureCodeColumns = []interface{}{
	"id", "code", "code_type", "description", "category", "base_units",
	"phys_fee_25", "phys_fee_50", "phys_fee_75",
	"med_fee_25", "med_fee_50", "med_fee_75",
	"created_at", "updated_at",
}

// ProcedureCodeAdapter implements ProcedureCodeRepository
type ProcedureCodeAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewProcedureCodeAdapter creates a new procedure code adapter
func NewProcedureCodeAdapter(client *postgres.Client) repositories.ProcedureCodeRepository {
	return &ProcedureCodeAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new procedure code
func (a *ProcedureCodeAdapter) Create(ctx context.Context, code *entities.ProcedureCode) error {
	record := goqu.Record{
		"id":          code.ID,
		"code":        code.Code,
		"code_type":   string(code.CodeType),
		"description": code.Description,
		"category":    sql.NullString{String: code.Category, Valid: code.Category != ""},
		"base_units":  baseUnitsValue(code.BaseUnits),
		"phys_fee_25": code.PhysFee25,
		"phys_fee_50": code.PhysFee50,
		"phys_fee_75": code.PhysFee75,
		"med_fee_25":  code.MedFee25,
		"med_fee_50":  code.MedFee50,
		"med_fee_75":  code.MedFee75,
		"created_at":  code.CreatedAt,
		"updated_at":  code.UpdatedAt,
	}

	query, args, err := a.db.Insert("procedure_codes").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("procedure code %s already exists", code.Code))
		}
		return apperrors.NewInternalError("failed to create procedure code", err)
	}

	return nil
}

// GetByID retrieves a procedure code by ID
func (a *ProcedureCodeAdapter) GetByID(ctx context.Context, id string) (*entities.ProcedureCode, error) {
	return a.getByField(ctx, "id", id)
}

// GetByCode retrieves a procedure code by its code value
func (a *ProcedureCodeAdapter) GetByCode(ctx context.Context, code string) (*entities.ProcedureCode, error) {
	return a.getByField(ctx, "code", code)
}

func (a *ProcedureCodeAdapter) getByField(ctx context.Context, field, value string) (*entities.ProcedureCode, error) {
	query, args, err := a.db.Select(procedureCodeColumns...).
		From("procedure_codes").
		Where(goqu.Ex{field: value}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	code, err := scanProcedureCode(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("procedure code with %s %s not found", field, value))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get procedure code", err)
	}

	return code, nil
}

// Update updates a procedure code
func (a *ProcedureCodeAdapter) Update(ctx context.Context, code *entities.ProcedureCode) error {
	code.UpdatedAt = time.Now()

	record := goqu.Record{
		"code":        code.Code,
		"code_type":   string(code.CodeType),
		"description": code.Description,
		"category":    sql.NullString{String: code.Category, Valid: code.Category != ""},
		"base_units":  baseUnitsValue(code.BaseUnits),
		"phys_fee_25": code.PhysFee25,
		"phys_fee_50": code.PhysFee50,
		"phys_fee_75": code.PhysFee75,
		"med_fee_25":  code.MedFee25,
		"med_fee_50":  code.MedFee50,
		"med_fee_75":  code.MedFee75,
		"updated_at":  code.UpdatedAt,
	}

	query, args, err := a.db.Update("procedure_codes").
		Set(record).
		Where(goqu.Ex{"id": code.ID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update procedure code", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("procedure code with id %s not found", code.ID))
	}

	return nil
}

// Delete deletes a procedure code. The fee_schedule_items foreign key is
// declared ON DELETE RESTRICT, so deleting a referenced code surfaces as a
// conflict rather than cascading into fee schedules.
func (a *ProcedureCodeAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("procedure_codes").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewConflictError("procedure code is referenced by fee schedule items")
		}
		return apperrors.NewInternalError("failed to delete procedure code", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("procedure code with id %s not found", id))
	}

	return nil
}

// List retrieves procedure codes with filters, ordered by code
func (a *ProcedureCodeAdapter) List(ctx context.Context, filter repositories.ProcedureCodeFilter) ([]*entities.ProcedureCode, error) {
	ds := a.db.Select(procedureCodeColumns...).From("procedure_codes")

	if filter.CodeType != "" {
		ds = ds.Where(goqu.Ex{"code_type": filter.CodeType})
	}
	if filter.Category != "" {
		ds = ds.Where(goqu.Ex{"category": filter.Category})
	}
	if filter.Query != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Query)
		ds = ds.Where(goqu.Or(
			goqu.I("code").ILike(pattern),
			goqu.I("description").ILike(pattern),
		))
	}

	ds = ds.Order(goqu.I("code").Asc())

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
		return nil, apperrors.NewInternalError("failed to list procedure codes", err)
	}
	defer rows.Close()

	var codes []*entities.ProcedureCode
	for rows.Next() {
		code, err := scanProcedureCode(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan procedure code", err)
		}
		codes = append(codes, code)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating procedure codes", err)
	}

	return codes, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProcedureCode(row rowScanner) (*entities.ProcedureCode, error) {
	code := &entities.ProcedureCode{}
	var category sql.NullString
	var baseUnits sql.NullInt64
	var codeType string

	err := row.Scan(
		&code.ID,
		&code.Code,
		&codeType,
		&code.Description,
		&category,
		&baseUnits,
		&code.PhysFee25,
		&code.PhysFee50,
		&code.PhysFee75,
		&code.MedFee25,
		&code.MedFee50,
		&code.MedFee75,
		&code.CreatedAt,
		&code.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	code.CodeType = entities.CodeType(codeType)
	code.Category = category.String
	if baseUnits.Valid {
		units := int(baseUnits.Int64)
		code.BaseUnits = &units
	}

	return code, nil
}

func baseUnitsValue(units *int) sql.NullInt64 {
	if units == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*units), Valid: true}
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == "23503"
	}
	return false
}
