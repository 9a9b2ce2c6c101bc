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

// MedicationPriceAdapter implements MedicationPriceRepository
type MedicationPriceAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewMedicationPriceAdapter creates a new medication price adapter
func NewMedicationPriceAdapter(client *postgres.Client) repositories.MedicationPriceRepository {
	return &MedicationPriceAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Create creates a new medication record
func (a *MedicationPriceAdapter) Create(ctx context.Context, med *entities.MedicationPrice) error {
	record := goqu.Record{
		"id":              med.ID,
		"medication_name": med.MedicationName,
		"created_at":      med.CreatedAt,
		"updated_at":      med.UpdatedAt,
	}

	query, args, err := a.db.Insert("medication_prices").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewConflictError(fmt.Sprintf("medication %s already exists", med.MedicationName))
		}
		return apperrors.NewInternalError("failed to create medication", err)
	}

	return nil
}

// GetByID retrieves a medication with all its quotes
func (a *MedicationPriceAdapter) GetByID(ctx context.Context, id string) (*entities.MedicationPrice, error) {
	query, args, err := a.db.Select(
		"id", "medication_name", "created_at", "updated_at",
	).From("medication_prices").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	med := &entities.MedicationPrice{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&med.ID,
		&med.MedicationName,
		&med.CreatedAt,
		&med.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("medication with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get medication", err)
	}

	quotes, err := a.listQuotes(ctx, []string{med.ID})
	if err != nil {
		return nil, err
	}
	med.Quotes = quotes[med.ID]

	return med, nil
}

// List retrieves medications with their quotes, ordered by name. Quotes are
// fetched in a single second query to avoid one round trip per medication.
func (a *MedicationPriceAdapter) List(ctx context.Context, filter repositories.MedicationPriceFilter) ([]*entities.MedicationPrice, error) {
	ds := a.db.Select(
		"id", "medication_name", "created_at", "updated_at",
	).From("medication_prices")

	if filter.Name != "" {
		ds = ds.Where(goqu.I("medication_name").ILike(fmt.Sprintf("%%%s%%", filter.Name)))
	}

	ds = ds.Order(goqu.I("medication_name").Asc())

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
		return nil, apperrors.NewInternalError("failed to list medications", err)
	}
	defer rows.Close()

	var meds []*entities.MedicationPrice
	var ids []string
	for rows.Next() {
		med := &entities.MedicationPrice{}
		err := rows.Scan(&med.ID, &med.MedicationName, &med.CreatedAt, &med.UpdatedAt)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan medication", err)
		}
		meds = append(meds, med)
		ids = append(ids, med.ID)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating medications", err)
	}

	if len(ids) == 0 {
		return meds, nil
	}

	quotes, err := a.listQuotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, med := range meds {
		med.Quotes = quotes[med.ID]
	}

	return meds, nil
}

// AddQuote records a new price quote for a medication
func (a *MedicationPriceAdapter) AddQuote(ctx context.Context, quote *entities.MedicationPriceQuote) error {
	record := goqu.Record{
		"id":            quote.ID,
		"medication_id": quote.MedicationID,
		"quoted_price":  quote.QuotedPrice,
		"source":        quote.Source,
		"quote_date":    quote.QuoteDate,
		"is_active":     quote.IsActive,
		"created_at":    quote.CreatedAt,
		"updated_at":    quote.UpdatedAt,
	}

	query, args, err := a.db.Insert("medication_price_quotes").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("medication with id %s not found", quote.MedicationID))
		}
		return apperrors.NewInternalError("failed to add medication price quote", err)
	}

	return nil
}

// DeactivateQuote marks a quote inactive, removing it from range
// calculations while keeping it for history
func (a *MedicationPriceAdapter) DeactivateQuote(ctx context.Context, quoteID string) error {
	query, args, err := a.db.Update("medication_price_quotes").
		Set(goqu.Record{"is_active": false}).
		Where(goqu.Ex{"id": quoteID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to deactivate quote", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("quote with id %s not found", quoteID))
	}

	return nil
}

func (a *MedicationPriceAdapter) listQuotes(ctx context.Context, medicationIDs []string) (map[string][]*entities.MedicationPriceQuote, error) {
	query, args, err := a.db.Select(
		"id", "medication_id", "quoted_price", "source", "quote_date",
		"is_active", "created_at", "updated_at",
	).From("medication_price_quotes").
		Where(goqu.Ex{"medication_id": medicationIDs}).
		Order(goqu.I("quote_date").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build quotes query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list medication price quotes", err)
	}
	defer rows.Close()

	quotes := make(map[string][]*entities.MedicationPriceQuote)
	for rows.Next() {
		quote := &entities.MedicationPriceQuote{}
		err := rows.Scan(
			&quote.ID,
			&quote.MedicationID,
			&quote.QuotedPrice,
			&quote.Source,
			&quote.QuoteDate,
			&quote.IsActive,
			&quote.CreatedAt,
			&quote.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan medication price quote", err)
		}
		quotes[quote.MedicationID] = append(quotes[quote.MedicationID], quote)
	}
	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating medication price quotes", err)
	}

	return quotes, nil
}
