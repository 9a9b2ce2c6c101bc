package repositories

import (
	"context"

	"github.com/zemedica/feereference/backend/internal/domain/entities"
)

// ProcedureCodeRepository defines the interface for procedure code storage
type ProcedureCodeRepository interface {
	// Create creates a new procedure code
	Create(ctx context.Context, code *entities.ProcedureCode) error

	// GetByID retrieves a procedure code by ID
	GetByID(ctx context.Context, id string) (*entities.ProcedureCode, error)

	// GetByCode retrieves a procedure code by its code value
	GetByCode(ctx context.Context, code string) (*entities.ProcedureCode, error)

	// Update updates a procedure code
	Update(ctx context.Context, code *entities.ProcedureCode) error

	// Delete deletes a procedure code. Deletion fails with a conflict error
	// while fee schedule items still reference the code.
	Delete(ctx context.Context, id string) error

	// List retrieves procedure codes with filters, ordered by code
	List(ctx context.Context, filter ProcedureCodeFilter) ([]*entities.ProcedureCode, error)
}

// ProcedureCodeFilter defines filters for listing procedure codes. Query
// matches code or description case-insensitively.
type ProcedureCodeFilter struct {
	CodeType string
	Category string
	Query    string
	Limit    int
	Offset   int
}

// ProcedureCodeSearchRepository defines the full-text search index over
// procedure codes
type ProcedureCodeSearchRepository interface {
	// InitSchema ensures the search collection exists
	InitSchema(ctx context.Context) error

	// Index upserts a procedure code into the search index
	Index(ctx context.Context, code *entities.ProcedureCode) error

	// Remove removes a procedure code from the search index
	Remove(ctx context.Context, id string) error

	// Search searches codes and descriptions, optionally restricted to a
	// code type
	Search(ctx context.Context, query, codeType string, limit int) ([]*entities.ProcedureCode, error)
}
