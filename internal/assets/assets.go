// Package assets reads the asset register. Assets are maintained elsewhere;
// this package only resolves selectors and looks up display data.
package assets

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SelectorType is the asset attribute a selector matches on.
type SelectorType string

const (
	SelectAsset SelectorType = "asset"
	SelectKit   SelectorType = "kit"
	SelectModel SelectorType = "model"
	SelectTag   SelectorType = "tag"
)

// Selector matches assets by one attribute.
type Selector struct {
	Type SelectorType
	IDs  []uuid.UUID
}

// Asset is the subset of the register the scheduler needs.
type Asset struct {
	ID          uuid.UUID
	AssetNumber string
	Name        string
	Bookable    bool
}

// Repository provides read access to assets.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new assets repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Resolve returns the IDs of every asset of the organization matched by the
// selector, ordered by asset number.
func (r *Repository) Resolve(ctx context.Context, organizationID uuid.UUID, sel Selector) ([]uuid.UUID, error) {
	if len(sel.IDs) == 0 {
		return []uuid.UUID{}, nil
	}

	var condition string
	switch sel.Type {
	case SelectAsset:
		condition = "id = ANY($2)"
	case SelectKit:
		condition = "kit_id = ANY($2)"
	case SelectModel:
		condition = "model_id = ANY($2)"
	case SelectTag:
		condition = "tag_ids && $2"
	default:
		return nil, fmt.Errorf("unknown selector type %q", sel.Type)
	}

	query := `SELECT id FROM assets WHERE organization_id = $1 AND ` + condition + ` ORDER BY asset_number`
	rows, err := r.pool.Query(ctx, query, organizationID, sel.IDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan asset id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return ids, nil
}

// GetByIDs returns the assets of the organization with the given IDs.
// Unknown IDs are skipped.
func (r *Repository) GetByIDs(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]Asset, error) {
	if len(ids) == 0 {
		return []Asset{}, nil
	}

	query := `SELECT id, asset_number, name, bookable FROM assets WHERE organization_id = $1 AND id = ANY($2) ORDER BY asset_number`
	rows, err := r.pool.Query(ctx, query, organizationID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get assets: %w", err)
	}
	defer rows.Close()

	items := make([]Asset, 0, len(ids))
	for rows.Next() {
		var a Asset
		if err := rows.Scan(&a.ID, &a.AssetNumber, &a.Name, &a.Bookable); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assets: %w", err)
	}
	return items, nil
}
