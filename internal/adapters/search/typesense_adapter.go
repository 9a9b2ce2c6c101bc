package search

import (
	"context"
	"fmt"

	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
	"github.com/zemedica/feereference/backend/internal/domain/entities"
	"github.com/zemedica/feereference/backend/internal/domain/repositories"
	tsclient "github.com/zemedica/feereference/backend/internal/infrastructure/clients/typesense"
)

const collectionName = "procedure_codes"

// TypesenseAdapter implements full-text procedure code search using Typesense
type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements ProcedureCodeSearchRepository
var _ repositories.ProcedureCodeSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter
func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the procedure_codes collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil // Collection exists
	}

	schema := &api.CollectionSchema{
		Name: collectionName,
		Fields: []api.Field{
			{Name: "id", Type: "string"},
			{Name: "code", Type: "string"},
			{Name: "code_type", Type: "string", Facet: pointer.True()},
			{Name: "description", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "created_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("created_at"),
	}

	_, err = a.client.Client().Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create typesense collection: %w", err)
	}

	return nil
}

// Reset drops the collection so the next InitSchema rebuilds it from scratch
func (a *TypesenseAdapter) Reset(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete typesense collection: %w", err)
	}
	return nil
}

// Index upserts a procedure code into the search index
func (a *TypesenseAdapter) Index(ctx context.Context, code *entities.ProcedureCode) error {
	document := map[string]interface{}{
		"id":          code.ID,
		"code":        code.Code,
		"code_type":   string(code.CodeType),
		"description": code.Description,
		"category":    code.Category,
		"created_at":  code.CreatedAt.Unix(),
	}

	_, err := a.client.Client().Collection(collectionName).Documents().Upsert(ctx, document)
	if err != nil {
		return fmt.Errorf("failed to index procedure code: %w", err)
	}

	return nil
}

// Remove removes a procedure code from the search index
func (a *TypesenseAdapter) Remove(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete procedure code from index: %w", err)
	}
	return nil
}

// Search searches codes and descriptions, optionally restricted to a code
// type. Results carry only the indexed fields; callers needing fee data fetch
// full records from the database by code.
func (a *TypesenseAdapter) Search(ctx context.Context, query, codeType string, limit int) ([]*entities.ProcedureCode, error) {
	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("code,description"),
		PerPage: pointer.Int(limit),
	}
	if codeType != "" {
		searchParams.FilterBy = pointer.String(fmt.Sprintf("code_type:=%s", codeType))
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search procedure codes: %w", err)
	}

	codes := []*entities.ProcedureCode{}
	if result.Hits == nil {
		return codes, nil
	}

	for _, hit := range *result.Hits {
		doc := *hit.Document

		code := &entities.ProcedureCode{}
		if val, ok := doc["id"].(string); ok {
			code.ID = val
		}
		if val, ok := doc["code"].(string); ok {
			code.Code = val
		}
		if val, ok := doc["code_type"].(string); ok {
			code.CodeType = entities.CodeType(val)
		}
		if val, ok := doc["description"].(string); ok {
			code.Description = val
		}
		if val, ok := doc["category"].(string); ok {
			code.Category = val
		}

		codes = append(codes, code)
	}

	return codes, nil
}
