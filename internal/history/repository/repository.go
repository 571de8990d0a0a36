package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Change is one changed attribute in a history entry.
type Change struct {
	Field string `json:"field"`
	From  any    `json:"from,omitempty"`
	To    any    `json:"to,omitempty"`
}

// Entry is one recorded change of an entity.
type Entry struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	EntityType     string
	EntityID       string
	Action         string
	ChangedBy      *uuid.UUID
	ChangedByName  string
	Changes        []Change
	CreatedAt      time.Time
}

// Repository provides database operations for history entries.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new history repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an entry.
func (r *Repository) Create(ctx context.Context, e Entry) error {
	changes := e.Changes
	if changes == nil {
		changes = []Change{}
	}
	raw, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to encode history changes: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO history_entries (
			id, organization_id, entity_type, entity_id, action,
			changed_by, changed_by_name, changes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.OrganizationID, e.EntityType, e.EntityID, e.Action,
		e.ChangedBy, nullable(e.ChangedByName), raw, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert history entry: %w", err)
	}
	return nil
}

// ListForEntity returns an entity's entries, newest first.
func (r *Repository) ListForEntity(ctx context.Context, organizationID uuid.UUID, entityType, entityID string, limit int) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, organization_id, entity_type, entity_id, action,
			changed_by, changed_by_name, changes, created_at
		FROM history_entries
		WHERE organization_id = $1 AND entity_type = $2 AND entity_id = $3
		ORDER BY created_at DESC, id
		LIMIT $4
	`, organizationID, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var (
			e      Entry
			name   *string
			rawLog []byte
		)
		if err := rows.Scan(
			&e.ID, &e.OrganizationID, &e.EntityType, &e.EntityID, &e.Action,
			&e.ChangedBy, &name, &rawLog, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if name != nil {
			e.ChangedByName = *name
		}
		if len(rawLog) > 0 {
			if err := json.Unmarshal(rawLog, &e.Changes); err != nil {
				return nil, fmt.Errorf("failed to decode history changes: %w", err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history entries: %w", err)
	}
	return entries, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
