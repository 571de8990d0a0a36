// Package service provides business logic for maintenance rules.
package service

import (
	"context"
	"time"

	"maintenance_backend/internal/events"
	"maintenance_backend/internal/rules/domain"
	"maintenance_backend/internal/rules/repository"
	"maintenance_backend/internal/users"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/logger"
	"maintenance_backend/platform/metrics"

	"github.com/google/uuid"
)

const (
	entityTypeRule = "maintenance_rule"
	// DefaultHorizon is the number of occurrences materialized per rule.
	DefaultHorizon = 4
)

// Repository is the persistence port of the service.
type Repository interface {
	Create(ctx context.Context, rule *domain.Rule) error
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (*domain.Rule, error)
	Update(ctx context.Context, rule *domain.Rule) error
	Delete(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) error
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
}

// AssetResolver expands a rule's target selector into concrete asset IDs.
type AssetResolver interface {
	ResolveTargets(ctx context.Context, organizationID uuid.UUID, target domain.Target) ([]uuid.UUID, error)
}

// ScheduleBatch is the set of scheduled orders generated for one rule.
type ScheduleBatch struct {
	OrganizationID uuid.UUID
	RuleID         uuid.UUID
	IsInternal     bool
	Title          string
	LeadTimeDays   int
	AssetIDs       []uuid.UUID
	DueDates       []time.Time
}

// WorkOrderScheduler owns the rule's scheduled work orders.
type WorkOrderScheduler interface {
	DeleteScheduled(ctx context.Context, organizationID uuid.UUID, ruleID uuid.UUID) (int, error)
	CreateScheduled(ctx context.Context, batch ScheduleBatch) (int, error)
}

// Service provides business logic for maintenance rules.
type Service struct {
	repo      Repository
	assets    AssetResolver
	scheduler WorkOrderScheduler
	users     users.Provider
	eventBus  events.Bus
	metrics   *metrics.Recorder
	log       *logger.Logger
	horizon   int
	now       func() time.Time
}

// New creates a new rules service. A non-positive horizon falls back to DefaultHorizon.
func New(repo Repository, assets AssetResolver, scheduler WorkOrderScheduler, userProvider users.Provider, eventBus events.Bus, rec *metrics.Recorder, log *logger.Logger, horizon int) *Service {
	if log == nil {
		log = logger.Discard()
	}
	if horizon <= 0 {
		horizon = DefaultHorizon
	}
	return &Service{
		repo:      repo,
		assets:    assets,
		scheduler: scheduler,
		users:     userProvider,
		eventBus:  eventBus,
		metrics:   rec,
		log:       log,
		horizon:   horizon,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateInput describes a new rule.
type CreateInput struct {
	Name              string
	WorkType          domain.WorkType
	CustomWorkType    string
	IsInternal        bool
	ServiceProviderID *uuid.UUID
	Target            domain.Target
	Interval          domain.Interval
	StartDate         time.Time
	LeadTimeDays      int
	RescheduleMode    domain.RescheduleMode
}

// Create stores a rule and materializes its first occurrences.
func (s *Service) Create(ctx context.Context, organizationID uuid.UUID, in CreateInput) (*domain.Rule, error) {
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	mode := in.RescheduleMode
	if mode == "" {
		mode = domain.RescheduleActualCompletion
	}
	rule := domain.Rule{
		ID:                uuid.New(),
		OrganizationID:    organizationID,
		Name:              in.Name,
		WorkType:          in.WorkType,
		CustomWorkType:    in.CustomWorkType,
		IsInternal:        in.IsInternal,
		ServiceProviderID: in.ServiceProviderID,
		Target:            in.Target,
		Interval:          in.Interval,
		StartDate:         domain.DateOf(in.StartDate),
		NextDueDate:       domain.DateOf(in.StartDate),
		LeadTimeDays:      in.LeadTimeDays,
		RescheduleMode:    mode,
		CreatedBy:         actor.ID,
		CreatedAt:         now,
		UpdatedBy:         actor.ID,
		UpdatedAt:         now,
	}
	if rule.IsInternal {
		rule.ServiceProviderID = nil
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, &rule); err != nil {
		return nil, err
	}
	s.recordChange(ctx, actor, &rule, "created", []events.FieldChange{{Field: "nextDueDate", To: rule.NextDueDate}})

	if _, err := s.regenerate(ctx, rule); err != nil {
		return &rule, err
	}
	return &rule, nil
}

// GetByID returns one rule.
func (s *Service) GetByID(ctx context.Context, organizationID uuid.UUID, id uuid.UUID) (*domain.Rule, error) {
	return s.repo.GetByID(ctx, id, organizationID)
}

// List returns a page of rules.
func (s *Service) List(ctx context.Context, params repository.ListParams) (repository.ListResult, error) {
	return s.repo.List(ctx, params)
}

// UpdateInput carries a partial rule update. Nil fields are left unchanged.
type UpdateInput struct {
	Name              *string
	WorkType          *domain.WorkType
	CustomWorkType    *string
	IsInternal        *bool
	ServiceProviderID *uuid.UUID
	Target            *domain.Target
	Interval          *domain.Interval
	StartDate         *time.Time
	LeadTimeDays      *int
	RescheduleMode    *domain.RescheduleMode
}

// Update applies a partial update. When a field that shapes the schedule
// changed, the rule's scheduled orders are replaced; other edits leave them
// untouched. Changing the start date resets the next due date to it.
func (s *Service) Update(ctx context.Context, organizationID uuid.UUID, id uuid.UUID, in UpdateInput) (*domain.Rule, error) {
	current, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		return nil, err
	}
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	next := *current
	applyUpdate(&next, in)
	if !domain.DateOf(next.StartDate).Equal(domain.DateOf(current.StartDate)) {
		next.NextDueDate = domain.DateOf(next.StartDate)
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}
	next.UpdatedBy = actor.ID
	next.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, err
	}
	s.recordChange(ctx, actor, &next, "updated", diffRule(*current, next))

	if domain.ScheduleChanged(*current, next) {
		if _, err := s.regenerate(ctx, next); err != nil {
			return &next, err
		}
	}
	return &next, nil
}

func applyUpdate(rule *domain.Rule, in UpdateInput) {
	if in.Name != nil {
		rule.Name = *in.Name
	}
	if in.WorkType != nil {
		rule.WorkType = *in.WorkType
		if rule.WorkType != domain.WorkTypeCustom {
			rule.CustomWorkType = ""
		}
	}
	if in.CustomWorkType != nil {
		rule.CustomWorkType = *in.CustomWorkType
	}
	if in.IsInternal != nil {
		rule.IsInternal = *in.IsInternal
	}
	if in.ServiceProviderID != nil {
		id := *in.ServiceProviderID
		rule.ServiceProviderID = &id
	}
	if rule.IsInternal {
		rule.ServiceProviderID = nil
	}
	if in.Target != nil {
		rule.Target = *in.Target
	}
	if in.Interval != nil {
		rule.Interval = *in.Interval
	}
	if in.StartDate != nil {
		rule.StartDate = domain.DateOf(*in.StartDate)
	}
	if in.LeadTimeDays != nil {
		rule.LeadTimeDays = *in.LeadTimeDays
	}
	if in.RescheduleMode != nil {
		rule.RescheduleMode = *in.RescheduleMode
	}
}

func diffRule(before, after domain.Rule) []events.FieldChange {
	changes := []events.FieldChange{}
	add := func(field string, from, to any) {
		changes = append(changes, events.FieldChange{Field: field, From: from, To: to})
	}
	if before.Name != after.Name {
		add("name", before.Name, after.Name)
	}
	if before.WorkType != after.WorkType || before.CustomWorkType != after.CustomWorkType {
		add("workType", before.WorkType, after.WorkType)
	}
	if before.IsInternal != after.IsInternal {
		add("isInternal", before.IsInternal, after.IsInternal)
	}
	if before.Interval != after.Interval {
		add("interval", before.Interval, after.Interval)
	}
	if !before.Target.Equal(after.Target) {
		add("target", before.Target, after.Target)
	}
	if !before.StartDate.Equal(after.StartDate) {
		add("startDate", before.StartDate, after.StartDate)
	}
	if !before.NextDueDate.Equal(after.NextDueDate) {
		add("nextDueDate", before.NextDueDate, after.NextDueDate)
	}
	if before.LeadTimeDays != after.LeadTimeDays {
		add("leadTimeDays", before.LeadTimeDays, after.LeadTimeDays)
	}
	if before.RescheduleMode != after.RescheduleMode {
		add("rescheduleMode", before.RescheduleMode, after.RescheduleMode)
	}
	return changes
}

// Delete removes the rule's scheduled orders, then the rule. Orders that
// already left the scheduled state are kept.
func (s *Service) Delete(ctx context.Context, organizationID uuid.UUID, id uuid.UUID) error {
	rule, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		return err
	}
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return err
	}

	deleted, err := s.scheduler.DeleteScheduled(ctx, organizationID, id)
	if err != nil {
		return apperr.Dependency("failed to delete scheduled work orders", err)
	}
	if err := s.repo.Delete(ctx, id, organizationID); err != nil {
		return err
	}
	s.log.WithContext(ctx).Info("maintenance rule deleted", "ruleId", id, "scheduledDeleted", deleted)
	s.recordChange(ctx, actor, rule, "deleted", nil)
	return nil
}

func (s *Service) recordChange(ctx context.Context, actor users.Actor, rule *domain.Rule, action string, changes []events.FieldChange) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.EntityChanged{
		BaseEvent:      events.NewBaseEventAt(s.now()),
		OrganizationID: rule.OrganizationID,
		EntityType:     entityTypeRule,
		EntityID:       rule.ID.String(),
		Action:         action,
		ChangedBy:      actor.ID,
		ChangedByName:  actor.Name,
		Changes:        changes,
	})
}
