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

// SurgicalAdapter implements SurgicalRepository
type SurgicalAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSurgicalAdapter creates a new surgical adapter
func NewSurgicalAdapter(client *postgres.Client) repositories.SurgicalRepository {
	return &SurgicalAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListBundles retrieves surgery bundles without their services
func (a *SurgicalAdapter) ListBundles(ctx context.Context, filter repositories.SurgeryBundleFilter) ([]*entities.SurgeryBundle, error) {
	ds := a.db.Select(
		"id", "name", "description", "is_active", "created_at", "updated_at",
	).From("surgery_bundles")

	if filter.IsActive != nil {
		ds = ds.Where(goqu.Ex{"is_active": *filter.IsActive})
	}

	ds = ds.Order(goqu.I("name").Asc())

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
		return nil, apperrors.NewInternalError("failed to list surgery bundles", err)
	}
	defer rows.Close()

	var bundles []*entities.SurgeryBundle
	for rows.Next() {
		bundle, err := scanSurgeryBundle(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan surgery bundle", err)
		}
		bundles = append(bundles, bundle)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating surgery bundles", err)
	}

	return bundles, nil
}

// GetBundle retrieves a bundle with its active services and each service's
// fee components hydrated
func (a *SurgicalAdapter) GetBundle(ctx context.Context, id string) (*entities.SurgeryBundle, error) {
	query, args, err := a.db.Select(
		"id", "name", "description", "is_active", "created_at", "updated_at",
	).From("surgery_bundles").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	bundle, err := scanSurgeryBundle(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("surgery bundle with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get surgery bundle", err)
	}

	services, err := a.listServices(ctx, bundle.ID)
	if err != nil {
		return nil, err
	}
	if err := a.hydrateFees(ctx, services); err != nil {
		return nil, err
	}
	bundle.Services = services

	return bundle, nil
}

// CreateBundle creates a new surgery bundle
func (a *SurgicalAdapter) CreateBundle(ctx context.Context, bundle *entities.SurgeryBundle) error {
	record := goqu.Record{
		"id":          bundle.ID,
		"name":        bundle.Name,
		"description": sql.NullString{String: bundle.Description, Valid: bundle.Description != ""},
		"is_active":   bundle.IsActive,
		"created_at":  bundle.CreatedAt,
		"updated_at":  bundle.UpdatedAt,
	}

	query, args, err := a.db.Insert("surgery_bundles").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("surgery bundle %s already exists", bundle.Name))
		}
		return apperrors.NewInternalError("failed to create surgery bundle", err)
	}

	return nil
}

// CreateService adds a service to a bundle. Fee components present on the
// entity are written in the same transaction so a bundle estimate never sees
// a half-created service.
func (a *SurgicalAdapter) CreateService(ctx context.Context, service *entities.SurgicalService) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	record := goqu.Record{
		"id":                service.ID,
		"surgery_bundle_id": service.SurgeryBundleID,
		"procedure_code":    service.ProcedureCode,
		"description":       sql.NullString{String: service.Description, Valid: service.Description != ""},
		"is_active":         service.IsActive,
		"created_at":        service.CreatedAt,
		"updated_at":        service.UpdatedAt,
	}

	query, args, err := a.db.Insert("surgical_services").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("surgery bundle with id %s not found", service.SurgeryBundleID))
		}
		return apperrors.NewInternalError("failed to create surgical service", err)
	}

	if service.SurgicalFee != nil {
		f := service.SurgicalFee
		query, args, err = a.db.Insert("surgical_fees").Rows(goqu.Record{
			"id":                  f.ID,
			"surgical_service_id": service.ID,
			"is_active":           f.IsActive,
			"med_fee_50":          f.MedFee50,
			"med_fee_75":          f.MedFee75,
		}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create surgical fee", err)
		}
	}

	if service.AnesthesiaFee != nil {
		f := service.AnesthesiaFee
		query, args, err = a.db.Insert("anesthesia_fees").Rows(goqu.Record{
			"id":                  f.ID,
			"surgical_service_id": service.ID,
			"is_active":           f.IsActive,
			"base_units":          f.BaseUnits,
			"time_units":          f.TimeUnits,
			"conversion_factor":   f.ConversionFactor,
		}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create anesthesia fee", err)
		}
	}

	if service.FacilityFee != nil {
		f := service.FacilityFee
		query, args, err = a.db.Insert("facility_fees").Rows(goqu.Record{
			"id":                  f.ID,
			"surgical_service_id": service.ID,
			"is_active":           f.IsActive,
			"low_fee":             f.LowFee,
			"high_fee":            f.HighFee,
		}).ToSQL()
		if err != nil {
			return apperrors.NewInternalError("failed to build insert query", err)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return apperrors.NewInternalError("failed to create facility fee", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit transaction", err)
	}

	return nil
}

func (a *SurgicalAdapter) listServices(ctx context.Context, bundleID string) ([]*entities.SurgicalService, error) {
	query, args, err := a.db.Select(
		"id", "surgery_bundle_id", "procedure_code", "description",
		"is_active", "created_at", "updated_at",
	).From("surgical_services").
		Where(goqu.Ex{"surgery_bundle_id": bundleID, "is_active": true}).
		Order(goqu.I("procedure_code").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build services query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list surgical services", err)
	}
	defer rows.Close()

	var services []*entities.SurgicalService
	for rows.Next() {
		svc := &entities.SurgicalService{}
		var description sql.NullString
		err := rows.Scan(
			&svc.ID,
			&svc.SurgeryBundleID,
			&svc.ProcedureCode,
			&description,
			&svc.IsActive,
			&svc.CreatedAt,
			&svc.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan surgical service", err)
		}
		svc.Description = description.String
		services = append(services, svc)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating surgical services", err)
	}

	return services, nil
}

// hydrateFees attaches the active fee components to each service with three
// batched queries, one per component table
func (a *SurgicalAdapter) hydrateFees(ctx context.Context, services []*entities.SurgicalService) error {
	if len(services) == 0 {
		return nil
	}

	byID := make(map[string]*entities.SurgicalService, len(services))
	ids := make([]string, 0, len(services))
	for _, svc := range services {
		byID[svc.ID] = svc
		ids = append(ids, svc.ID)
	}

	if err := a.loadSurgicalFees(ctx, ids, byID); err != nil {
		return err
	}
	if err := a.loadAnesthesiaFees(ctx, ids, byID); err != nil {
		return err
	}
	return a.loadFacilityFees(ctx, ids, byID)
}

func (a *SurgicalAdapter) loadSurgicalFees(ctx context.Context, ids []string, byID map[string]*entities.SurgicalService) error {
	query, args, err := a.db.Select(
		"id", "surgical_service_id", "is_active", "med_fee_50", "med_fee_75",
	).From("surgical_fees").
		Where(goqu.Ex{"surgical_service_id": ids, "is_active": true}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build surgical fees query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to load surgical fees", err)
	}
	defer rows.Close()

	for rows.Next() {
		fee := &entities.SurgicalFee{}
		err := rows.Scan(&fee.ID, &fee.SurgicalServiceID, &fee.IsActive, &fee.MedFee50, &fee.MedFee75)
		if err != nil {
			return apperrors.NewInternalError("failed to scan surgical fee", err)
		}
		if svc, ok := byID[fee.SurgicalServiceID]; ok {
			svc.SurgicalFee = fee
		}
	}
	return rows.Err()
}

func (a *SurgicalAdapter) loadAnesthesiaFees(ctx context.Context, ids []string, byID map[string]*entities.SurgicalService) error {
	query, args, err := a.db.Select(
		"id", "surgical_service_id", "is_active", "base_units", "time_units", "conversion_factor",
	).From("anesthesia_fees").
		Where(goqu.Ex{"surgical_service_id": ids, "is_active": true}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build anesthesia fees query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to load anesthesia fees", err)
	}
	defer rows.Close()

	for rows.Next() {
		fee := &entities.AnesthesiaFee{}
		err := rows.Scan(&fee.ID, &fee.SurgicalServiceID, &fee.IsActive, &fee.BaseUnits, &fee.TimeUnits, &fee.ConversionFactor)
		if err != nil {
			return apperrors.NewInternalError("failed to scan anesthesia fee", err)
		}
		if svc, ok := byID[fee.SurgicalServiceID]; ok {
			svc.AnesthesiaFee = fee
		}
	}
	return rows.Err()
}

func (a *SurgicalAdapter) loadFacilityFees(ctx context.Context, ids []string, byID map[string]*entities.SurgicalService) error {
	query, args, err := a.db.Select(
		"id", "surgical_service_id", "is_active", "low_fee", "high_fee",
	).From("facility_fees").
		Where(goqu.Ex{"surgical_service_id": ids, "is_active": true}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build facility fees query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to load facility fees", err)
	}
	defer rows.Close()

	for rows.Next() {
		fee := &entities.FacilityFee{}
		err := rows.Scan(&fee.ID, &fee.SurgicalServiceID, &fee.IsActive, &fee.LowFee, &fee.HighFee)
		if err != nil {
			return apperrors.NewInternalError("failed to scan facility fee", err)
		}
		if svc, ok := byID[fee.SurgicalServiceID]; ok {
			svc.FacilityFee = fee
		}
	}
	return rows.Err()
}

func scanSurgeryBundle(row rowScanner) (*entities.SurgeryBundle, error) {
	bundle := &entities.SurgeryBundle{}
	var description sql.NullString

	err := row.Scan(
		&bundle.ID,
		&bundle.Name,
		&description,
		&bundle.IsActive,
		&bundle.CreatedAt,
		&bundle.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	bundle.Description = description.String
	return bundle, nil
}
