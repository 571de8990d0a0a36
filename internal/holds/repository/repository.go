package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maintenance_backend/internal/holds/domain"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for calendar holds.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new holds repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListFilter selects holds. Empty fields are not filtered on.
type ListFilter struct {
	OrganizationID uuid.UUID
	PlanID         string
	Status         domain.Status
}

// ListHolds returns the matching holds, oldest first.
func (r *Repository) ListHolds(ctx context.Context, filter ListFilter) ([]domain.Hold, error) {
	where := []string{"organization_id = $1"}
	args := []interface{}{filter.OrganizationID}
	if filter.PlanID != "" {
		args = append(args, filter.PlanID)
		where = append(where, fmt.Sprintf("plan_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT id, organization_id, plan_id, asset_id, start_date, end_date, booking_id, hold_color,
		status, released_at, created_at
		FROM maintenance_calendar_holds WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list holds: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Hold, 0)
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hold: %w", err)
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate holds: %w", err)
	}
	return items, nil
}

// CreateHold inserts an active hold. A second active hold for the same plan
// and asset is rejected by the database and reported as a conflict.
func (r *Repository) CreateHold(ctx context.Context, h *domain.Hold) error {
	query := `
		INSERT INTO maintenance_calendar_holds (
			id, organization_id, plan_id, asset_id, start_date, end_date, booking_id, hold_color, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		h.ID, h.OrganizationID, h.PlanID, h.AssetID, h.StartDate, h.EndDate, h.BookingID, h.HoldColor,
		string(h.Status), h.CreatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("asset already has an active hold for this plan")
		}
		return fmt.Errorf("failed to create hold: %w", err)
	}
	return nil
}

// ReleaseHold marks an active hold released.
func (r *Repository) ReleaseHold(ctx context.Context, organizationID uuid.UUID, id uuid.UUID, releasedAt time.Time) error {
	query := `UPDATE maintenance_calendar_holds SET status = $3, released_at = $4
		WHERE id = $1 AND organization_id = $2 AND status = $5`

	result, err := r.pool.Exec(ctx, query, id, organizationID, string(domain.StatusReleased), releasedAt, string(domain.StatusActive))
	if err != nil {
		return fmt.Errorf("failed to release hold: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("active hold not found")
	}
	return nil
}

func scanHold(row pgx.Row) (domain.Hold, error) {
	var (
		h         domain.Hold
		status    string
		holdColor *string
	)
	err := row.Scan(&h.ID, &h.OrganizationID, &h.PlanID, &h.AssetID, &h.StartDate, &h.EndDate, &h.BookingID,
		&holdColor, &status, &h.ReleasedAt, &h.CreatedAt)
	if err != nil {
		return domain.Hold{}, err
	}
	h.Status = domain.Status(status)
	if holdColor != nil {
		h.HoldColor = *holdColor
	}
	return h, nil
}
