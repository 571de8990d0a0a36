package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Booking represents the booking database model
type Booking struct {
	ID             uuid.UUID  `db:"id"`
	OrganizationID uuid.UUID  `db:"organization_id"`
	AssetID        uuid.UUID  `db:"asset_id"`
	Title          string     `db:"title"`
	StartDate      time.Time  `db:"start_date"`
	EndDate        time.Time  `db:"end_date"`
	Status         string     `db:"status"`
	Color          *string    `db:"color"`
	Notes          *string    `db:"notes"`
	CreatedBy      *uuid.UUID `db:"created_by"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// Repository provides database operations for bookings
type Repository struct {
	pool *pgxpool.Pool
}

const bookingNotFoundMsg = "booking not found"

const selectColumns = `id, organization_id, asset_id, title, start_date, end_date, status, color, notes,
	created_by, created_at, updated_at`

// New creates a new bookings repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new booking
func (r *Repository) Create(ctx context.Context, b *Booking) error {
	query := `
		INSERT INTO bookings (
			id, organization_id, asset_id, title, start_date, end_date, status, color, notes,
			created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.pool.Exec(ctx, query,
		b.ID, b.OrganizationID, b.AssetID, b.Title, b.StartDate, b.EndDate, b.Status, b.Color, b.Notes,
		b.CreatedBy, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (*Booking, error) {
	query := `SELECT ` + selectColumns + ` FROM bookings WHERE id = $1 AND organization_id = $2`

	b, err := scanBooking(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(bookingNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// Update persists the mutable fields of a booking
func (r *Repository) Update(ctx context.Context, b *Booking) error {
	query := `
		UPDATE bookings SET
			title = $3, start_date = $4, end_date = $5, status = $6, color = $7, notes = $8, updated_at = $9
		WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query,
		b.ID, b.OrganizationID, b.Title, b.StartDate, b.EndDate, b.Status, b.Color, b.Notes, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(bookingNotFoundMsg)
	}
	return nil
}

// HasOverlap reports whether a non-cancelled booking of the asset overlaps
// [start, end]. exclude skips the booking being edited.
func (r *Repository) HasOverlap(ctx context.Context, organizationID, assetID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE organization_id = $1 AND asset_id = $2 AND status <> 'cancelled'
				AND start_date <= $4 AND end_date >= $3
				AND ($5::uuid IS NULL OR id <> $5)
		)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, organizationID, assetID, start, end, exclude).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return exists, nil
}

// ListParams contains parameters for listing bookings
type ListParams struct {
	OrganizationID uuid.UUID
	AssetID        *uuid.UUID
	Status         *string
	From           *time.Time
	To             *time.Time
	Page           int
	PageSize       int
}

// ListResult contains one page of bookings
type ListResult struct {
	Items      []Booking
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// List returns a filtered, paginated list of bookings ordered by start
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	where := []string{"organization_id = $1"}
	args := []interface{}{params.OrganizationID}
	if params.AssetID != nil {
		args = append(args, *params.AssetID)
		where = append(where, fmt.Sprintf("asset_id = $%d", len(args)))
	}
	if params.Status != nil {
		args = append(args, *params.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.From != nil {
		args = append(args, *params.From)
		where = append(where, fmt.Sprintf("end_date >= $%d", len(args)))
	}
	if params.To != nil {
		args = append(args, *params.To)
		where = append(where, fmt.Sprintf("start_date <= $%d", len(args)))
	}
	whereSQL := " WHERE " + strings.Join(where, " AND ")

	page, pageSize := params.Page, params.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM bookings"+whereSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count bookings: %w", err)
	}

	args = append(args, pageSize, (page-1)*pageSize)
	query := `SELECT ` + selectColumns + ` FROM bookings` + whereSQL +
		fmt.Sprintf(" ORDER BY start_date ASC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	items := make([]Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		items = append(items, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookings: %w", err)
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + pageSize - 1) / pageSize,
	}, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	err := row.Scan(&b.ID, &b.OrganizationID, &b.AssetID, &b.Title, &b.StartDate, &b.EndDate, &b.Status,
		&b.Color, &b.Notes, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
