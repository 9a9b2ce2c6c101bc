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

// PhysicianFeeReferenceAdapter implements PhysicianFeeReferenceRepository
type PhysicianFeeReferenceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPhysicianFeeReferenceAdapter creates a new physician fee reference adapter
func NewPhysicianFeeReferenceAdapter(client *postgres.Client) repositories.PhysicianFeeReferenceRepository {
	return &PhysicianFeeReferenceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new reference
func (a *PhysicianFeeReferenceAdapter) Create(ctx context.Context, ref *entities.PhysicianFeeReference) error {
	record := goqu.Record{
		"id":                ref.ID,
		"service_name":      ref.ServiceName,
		"procedure_code_id": ref.ProcedureCodeID,
		"m50":               ref.M50,
		"m75":               ref.M75,
		"m80":               ref.M80,
		"m85":               ref.M85,
		"p50":               ref.P50,
		"p75":               ref.P75,
		"p80":               ref.P80,
		"p85":               ref.P85,
		"created_at":        ref.CreatedAt,
		"updated_at":        ref.UpdatedAt,
	}

	query, args, err := a.db.Insert("physician_fee_references").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("procedure code with id %s not found", ref.ProcedureCodeID))
		}
		return apperrors.NewInternalError("failed to create physician fee reference", err)
	}

	return nil
}

// GetByID retrieves a reference by ID
func (a *PhysicianFeeReferenceAdapter) GetByID(ctx context.Context, id string) (*entities.PhysicianFeeReference, error) {
	query, args, err := a.referenceQuery().
		Where(goqu.Ex{"r.id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	ref, err := scanPhysicianFeeReference(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("physician fee reference with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get physician fee reference", err)
	}

	return ref, nil
}

// List retrieves references, optionally filtered by procedure code
func (a *PhysicianFeeReferenceAdapter) List(ctx context.Context, filter repositories.PhysicianFeeReferenceFilter) ([]*entities.PhysicianFeeReference, error) {
	ds := a.referenceQuery()

	if filter.Code != "" {
		ds = ds.Where(goqu.Ex{"p.code": filter.Code})
	}

	ds = ds.Order(goqu.I("r.service_name").Asc())

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
		return nil, apperrors.NewInternalError("failed to list physician fee references", err)
	}
	defer rows.Close()

	var refs []*entities.PhysicianFeeReference
	for rows.Next() {
		ref, err := scanPhysicianFeeReference(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan physician fee reference", err)
		}
		refs = append(refs, ref)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating physician fee references", err)
	}

	return refs, nil
}

func (a *PhysicianFeeReferenceAdapter) referenceQuery() *goqu.SelectDataset {
	return a.db.Select(
		goqu.I("r.id"),
		goqu.I("r.service_name"),
		goqu.I("r.procedure_code_id"),
		goqu.I("p.code"),
		goqu.I("r.m50"),
		goqu.I("r.m75"),
		goqu.I("r.m80"),
		goqu.I("r.m85"),
		goqu.I("r.p50"),
		goqu.I("r.p75"),
		goqu.I("r.p80"),
		goqu.I("r.p85"),
		goqu.I("r.created_at"),
		goqu.I("r.updated_at"),
	).From(goqu.T("physician_fee_references").As("r")).
		Join(goqu.T("procedure_codes").As("p"), goqu.On(goqu.I("r.procedure_code_id").Eq(goqu.I("p.id"))))
}

func scanPhysicianFeeReference(row rowScanner) (*entities.PhysicianFeeReference, error) {
	ref := &entities.PhysicianFeeReference{}
	err := row.Scan(
		&ref.ID,
		&ref.ServiceName,
		&ref.ProcedureCodeID,
		&ref.Code,
		&ref.M50,
		&ref.M75,
		&ref.M80,
		&ref.M85,
		&ref.P50,
		&ref.P75,
		&ref.P80,
		&ref.P85,
		&ref.CreatedAt,
		&ref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return ref, nil
}
