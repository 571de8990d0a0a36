package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"maintenance_backend/internal/workorders/domain"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const workOrderNotFoundMsg = "work order not found"

// Repository provides database operations for work orders.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new work orders repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectColumns = `id, organization_id, work_order_number, type, order_type, state, rule_id, title,
	company_id, requested_company_ids, assigned_to, approval_responsible_id, lead_time_days,
	scheduled_start, scheduled_end, actual_start, actual_end, offers, line_items, history,
	created_at, updated_at`

// NextNumber reserves the next WO-YYYYMMDD-NNNN number for day.
func (r *Repository) NextNumber(ctx context.Context, day time.Time) (string, error) {
	query := `
		INSERT INTO work_order_number_sequences (day, last_value) VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET last_value = work_order_number_sequences.last_value + 1
		RETURNING last_value`

	var seq int
	if err := r.pool.QueryRow(ctx, query, day.UTC().Format("2006-01-02")).Scan(&seq); err != nil {
		return "", fmt.Errorf("failed to reserve work order number: %w", err)
	}
	return domain.FormatNumber(day, seq)
}

// Create inserts a new work order.
func (r *Repository) Create(ctx context.Context, w *domain.WorkOrder) error {
	offers, lineItems, history, err := encodeCollections(w)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO work_orders (
			id, organization_id, work_order_number, type, order_type, state, rule_id, title,
			company_id, requested_company_ids, assigned_to, approval_responsible_id, lead_time_days,
			scheduled_start, scheduled_end, actual_start, actual_end, offers, line_items, history,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)`

	_, err = r.pool.Exec(ctx, query,
		w.ID, w.OrganizationID, w.WorkOrderNumber, string(w.Type), string(w.OrderType), string(w.State), w.RuleID, w.Title,
		w.CompanyID, nonNilIDs(w.RequestedCompanyIDs), w.AssignedTo, w.ApprovalResponsibleID, w.LeadTimeDays,
		w.ScheduledStart, w.ScheduledEnd, w.ActualStart, w.ActualEnd, offers, lineItems, history,
		w.CreatedAt, w.UpdatedAt,
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return apperr.Conflict("work order number already exists")
		}
		return fmt.Errorf("failed to create work order: %w", err)
	}
	return nil
}

// GetByID retrieves a work order by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (*domain.WorkOrder, error) {
	query := `SELECT ` + selectColumns + ` FROM work_orders WHERE id = $1 AND organization_id = $2`

	w, err := scanWorkOrder(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(workOrderNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get work order: %w", err)
	}
	return w, nil
}

// Update persists every mutable field of a work order. The write applies only
// while the stored order is still in the expected state; otherwise it reports
// a conflict.
func (r *Repository) Update(ctx context.Context, w *domain.WorkOrder, expected domain.State) error {
	offers, lineItems, history, err := encodeCollections(w)
	if err != nil {
		return err
	}

	query := `
		UPDATE work_orders SET
			state = $3,
			title = $4,
			company_id = $5,
			requested_company_ids = $6,
			assigned_to = $7,
			approval_responsible_id = $8,
			scheduled_start = $9,
			scheduled_end = $10,
			actual_start = $11,
			actual_end = $12,
			offers = $13,
			line_items = $14,
			history = $15,
			updated_at = $16
		WHERE id = $1 AND organization_id = $2 AND state = $17`

	result, err := r.pool.Exec(ctx, query,
		w.ID, w.OrganizationID, string(w.State), w.Title, w.CompanyID, nonNilIDs(w.RequestedCompanyIDs),
		w.AssignedTo, w.ApprovalResponsibleID, w.ScheduledStart, w.ScheduledEnd, w.ActualStart, w.ActualEnd,
		offers, lineItems, history, w.UpdatedAt, string(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update work order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.missingOrChanged(ctx, w.ID, w.OrganizationID, expected)
	}
	return nil
}

func (r *Repository) missingOrChanged(ctx context.Context, id uuid.UUID, organizationID uuid.UUID, expected domain.State) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM work_orders WHERE id = $1 AND organization_id = $2)`
	if err := r.pool.QueryRow(ctx, query, id, organizationID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check work order: %w", err)
	}
	if !exists {
		return apperr.NotFound(workOrderNotFoundMsg)
	}
	return apperr.Conflict(fmt.Sprintf("work order is no longer %s", expected))
}

// Delete removes a work order.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM work_orders WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete work order: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(workOrderNotFoundMsg)
	}
	return nil
}

// DeleteScheduledByRule removes the rule's orders that are still in the
// scheduled state and returns how many were removed.
func (r *Repository) DeleteScheduledByRule(ctx context.Context, organizationID uuid.UUID, ruleID uuid.UUID) (int, error) {
	query := `DELETE FROM work_orders WHERE organization_id = $1 AND rule_id = $2 AND state = $3`

	result, err := r.pool.Exec(ctx, query, organizationID, ruleID, string(domain.StateScheduled))
	if err != nil {
		return 0, fmt.Errorf("failed to delete scheduled work orders: %w", err)
	}
	return int(result.RowsAffected()), nil
}

// ListScheduled returns every scheduled work order across tenants, oldest start first.
func (r *Repository) ListScheduled(ctx context.Context) ([]domain.WorkOrder, error) {
	query := `SELECT ` + selectColumns + ` FROM work_orders WHERE state = $1 ORDER BY scheduled_start ASC NULLS LAST, id`

	rows, err := r.pool.Query(ctx, query, string(domain.StateScheduled))
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled work orders: %w", err)
	}
	defer rows.Close()

	return collectWorkOrders(rows)
}

// ListParams contains parameters for listing work orders.
type ListParams struct {
	OrganizationID uuid.UUID
	States         []domain.State
	Type           string
	OrderType      string
	RuleID         *uuid.UUID
	AssignedTo     *uuid.UUID
	Page           int
	PageSize       int
}

// ListResult contains one page of work orders.
type ListResult struct {
	Items      []domain.WorkOrder
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// List returns a filtered, paginated list of work orders.
func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	page, pageSize, offset := normalizePaging(params.Page, params.PageSize)
	whereSQL, args, argN := buildListWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM work_orders "+whereSQL, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("failed to count work orders: %w", err)
	}

	query := `SELECT ` + selectColumns + ` FROM work_orders ` + whereSQL +
		` ORDER BY scheduled_start ASC NULLS LAST, created_at DESC` +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, pageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to list work orders: %w", err)
	}
	defer rows.Close()

	items, err := collectWorkOrders(rows)
	if err != nil {
		return ListResult{}, err
	}

	return ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: calcTotalPages(total, pageSize),
	}, nil
}

func buildListWhere(params ListParams) (whereSQL string, args []interface{}, nextArg int) {
	where := []string{"organization_id = $1"}
	args = []interface{}{params.OrganizationID}
	nextArg = 2

	if len(params.States) > 0 {
		states := make([]string, 0, len(params.States))
		for _, s := range params.States {
			states = append(states, string(s))
		}
		where = append(where, fmt.Sprintf("state = ANY($%d::text[])", nextArg))
		args = append(args, states)
		nextArg++
	}
	if strings.TrimSpace(params.Type) != "" {
		where = append(where, fmt.Sprintf("type = $%d", nextArg))
		args = append(args, params.Type)
		nextArg++
	}
	if strings.TrimSpace(params.OrderType) != "" {
		where = append(where, fmt.Sprintf("order_type = $%d", nextArg))
		args = append(args, params.OrderType)
		nextArg++
	}
	if params.RuleID != nil {
		where = append(where, fmt.Sprintf("rule_id = $%d", nextArg))
		args = append(args, *params.RuleID)
		nextArg++
	}
	if params.AssignedTo != nil {
		where = append(where, fmt.Sprintf("assigned_to = $%d", nextArg))
		args = append(args, *params.AssignedTo)
		nextArg++
	}

	return "WHERE " + strings.Join(where, " AND "), args, nextArg
}

func normalizePaging(page int, pageSize int) (normalizedPage int, normalizedPageSize int, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}

func calcTotalPages(total int, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

func collectWorkOrders(rows pgx.Rows) ([]domain.WorkOrder, error) {
	items := make([]domain.WorkOrder, 0)
	for rows.Next() {
		w, err := scanWorkOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan work order: %w", err)
		}
		items = append(items, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate work orders: %w", err)
	}
	return items, nil
}

func scanWorkOrder(row pgx.Row) (*domain.WorkOrder, error) {
	var (
		w                          domain.WorkOrder
		typ, orderType, state      string
		title                      *string
		offers, lineItems, history []byte
	)
	err := row.Scan(
		&w.ID, &w.OrganizationID, &w.WorkOrderNumber, &typ, &orderType, &state, &w.RuleID, &title,
		&w.CompanyID, &w.RequestedCompanyIDs, &w.AssignedTo, &w.ApprovalResponsibleID, &w.LeadTimeDays,
		&w.ScheduledStart, &w.ScheduledEnd, &w.ActualStart, &w.ActualEnd, &offers, &lineItems, &history,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	w.Type = domain.Type(typ)
	w.OrderType = domain.OrderType(orderType)
	w.State = domain.State(state)
	if title != nil {
		w.Title = *title
	}
	if err := json.Unmarshal(offers, &w.Offers); err != nil {
		return nil, fmt.Errorf("failed to decode offers: %w", err)
	}
	if err := json.Unmarshal(lineItems, &w.LineItems); err != nil {
		return nil, fmt.Errorf("failed to decode line items: %w", err)
	}
	if err := json.Unmarshal(history, &w.History); err != nil {
		return nil, fmt.Errorf("failed to decode history: %w", err)
	}
	return &w, nil
}

func encodeCollections(w *domain.WorkOrder) (offers, lineItems, history []byte, err error) {
	if offers, err = json.Marshal(nonNil(w.Offers)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode offers: %w", err)
	}
	if lineItems, err = json.Marshal(nonNil(w.LineItems)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode line items: %w", err)
	}
	if history, err = json.Marshal(nonNil(w.History)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode history: %w", err)
	}
	return offers, lineItems, history, nil
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	return nonNil(ids)
}
