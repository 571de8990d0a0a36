package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maintenance_backend/internal/rules/domain"
	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const ruleNotFoundMsg = "maintenance rule not found"

// Repository provides database operations for maintenance rules.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new rules repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const selectColumns = `id, organization_id, name, work_type, custom_work_type, is_internal, service_provider_id,
	target_type, target_ids, interval_type, interval_value, start_date, next_due_date, lead_time_days,
	reschedule_mode, created_by, created_at, updated_by, updated_at`

// Create inserts a new rule.
func (r *Repository) Create(ctx context.Context, rule *domain.Rule) error {
	query := `
		INSERT INTO maintenance_rules (
			id, organization_id, name, work_type, custom_work_type, is_internal, service_provider_id,
			target_type, target_ids, interval_type, interval_value, start_date, next_due_date, lead_time_days,
			reschedule_mode, created_by, created_at, updated_by, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.pool.Exec(ctx, query,
		rule.ID, rule.OrganizationID, rule.Name, string(rule.WorkType), nullable(rule.CustomWorkType), rule.IsInternal,
		rule.ServiceProviderID, string(rule.Target.Type), rule.Target.IDs, string(rule.Interval.Type), rule.Interval.Value,
		domain.DateOf(rule.StartDate), domain.DateOf(rule.NextDueDate), rule.LeadTimeDays, string(rule.RescheduleMode),
		rule.CreatedBy, rule.CreatedAt, rule.UpdatedBy, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create maintenance rule: %w", err)
	}
	return nil
}

// GetByID retrieves a rule scoped to its organization.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (*domain.Rule, error) {
	query := `SELECT ` + selectColumns + ` FROM maintenance_rules WHERE id = $1 AND organization_id = $2`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(ruleNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get maintenance rule: %w", err)
	}
	return rule, nil
}

// Update persists every mutable field of a rule.
func (r *Repository) Update(ctx context.Context, rule *domain.Rule) error {
	query := `
		UPDATE maintenance_rules SET
			name = $3,
			work_type = $4,
			custom_work_type = $5,
			is_internal = $6,
			service_provider_id = $7,
			target_type = $8,
			target_ids = $9,
			interval_type = $10,
			interval_value = $11,
			start_date = $12,
			next_due_date = $13,
			lead_time_days = $14,
			reschedule_mode = $15,
			updated_by = $16,
			updated_at = $17
		WHERE id = $1 AND organization_id = $2`

	result, err := r.pool.Exec(ctx, query,
		rule.ID, rule.OrganizationID, rule.Name, string(rule.WorkType), nullable(rule.CustomWorkType), rule.IsInternal,
		rule.ServiceProviderID, string(rule.Target.Type), rule.Target.IDs, string(rule.Interval.Type), rule.Interval.Value,
		domain.DateOf(rule.StartDate), domain.DateOf(rule.NextDueDate), rule.LeadTimeDays, string(rule.RescheduleMode),
		rule.UpdatedBy, rule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update maintenance rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}
	return nil
}

// Delete removes a rule.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM maintenance_rules WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete maintenance rule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound(ruleNotFoundMsg)
	}
	return nil
}

// ListParams contains parameters for listing rules.
type ListParams struct {
	OrganizationID uuid.UUID
	Search         string
	WorkType       string
	IsInternal     *bool
	Page           int
	PageSize       int
}

// ListResult contains one page of rules.
type ListResult struct {
	Items      []domain.Rule
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// List returns a filtered, paginated list of rules ordered by next due date.
func (r *Repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	page, pageSize, offset := normalizePaging(params.Page, params.PageSize)
	whereSQL, args, argN := buildListWhere(params)

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM maintenance_rules "+whereSQL, args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("failed to count maintenance rules: %w", err)
	}

	query := `SELECT ` + selectColumns + ` FROM maintenance_rules ` + whereSQL +
		` ORDER BY next_due_date ASC, name ASC` +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argN, argN+1)
	args = append(args, pageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to list maintenance rules: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return ListResult{}, fmt.Errorf("failed to scan maintenance rule: %w", err)
		}
		items = append(items, *rule)
	}
	if err := rows.Err(); err != nil {
		return ListResult{}, fmt.Errorf("failed to iterate maintenance rules: %w", err)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return ListResult{Items: items, Total: total, Page: page, PageSize: pageSize, TotalPages: totalPages}, nil
}

func buildListWhere(params ListParams) (whereSQL string, args []interface{}, nextArg int) {
	where := []string{"organization_id = $1"}
	args = []interface{}{params.OrganizationID}
	nextArg = 2

	if search := strings.TrimSpace(params.Search); search != "" {
		where = append(where, fmt.Sprintf("name ILIKE $%d", nextArg))
		args = append(args, "%"+search+"%")
		nextArg++
	}
	if strings.TrimSpace(params.WorkType) != "" {
		where = append(where, fmt.Sprintf("work_type = $%d", nextArg))
		args = append(args, params.WorkType)
		nextArg++
	}
	if params.IsInternal != nil {
		where = append(where, fmt.Sprintf("is_internal = $%d", nextArg))
		args = append(args, *params.IsInternal)
		nextArg++
	}

	return "WHERE " + strings.Join(where, " AND "), args, nextArg
}

func normalizePaging(page int, pageSize int) (int, int, int) {
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

func scanRule(row pgx.Row) (*domain.Rule, error) {
	var (
		rule                                             domain.Rule
		workType, targetType, intervalType, rescheduleMd string
		customWorkType                                   *string
		createdBy, updatedBy                             *uuid.UUID
	)
	err := row.Scan(
		&rule.ID, &rule.OrganizationID, &rule.Name, &workType, &customWorkType, &rule.IsInternal, &rule.ServiceProviderID,
		&targetType, &rule.Target.IDs, &intervalType, &rule.Interval.Value, &rule.StartDate, &rule.NextDueDate,
		&rule.LeadTimeDays, &rescheduleMd, &createdBy, &rule.CreatedAt, &updatedBy, &rule.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.WorkType = domain.WorkType(workType)
	rule.Target.Type = domain.TargetType(targetType)
	rule.Interval.Type = domain.IntervalType(intervalType)
	rule.RescheduleMode = domain.RescheduleMode(rescheduleMd)
	rule.StartDate = domain.DateOf(rule.StartDate)
	rule.NextDueDate = domain.DateOf(rule.NextDueDate)
	if customWorkType != nil {
		rule.CustomWorkType = *customWorkType
	}
	if createdBy != nil {
		rule.CreatedBy = *createdBy
	}
	if updatedBy != nil {
		rule.UpdatedBy = *updatedBy
	}
	return &rule, nil
}

func nullable(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}
