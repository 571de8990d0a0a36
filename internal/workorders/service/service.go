// Package service provides business logic for work orders.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"maintenance_backend/internal/events"
	"maintenance_backend/internal/users"
	"maintenance_backend/internal/workorders/domain"
	"maintenance_backend/internal/workorders/repository"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/logger"
	"maintenance_backend/platform/metrics"

	"github.com/google/uuid"
)

const (
	entityTypeWorkOrder = "work_order"
	maxNumberAttempts   = 3
)

// Repository is the persistence port of the service.
type Repository interface {
	NextNumber(ctx context.Context, day time.Time) (string, error)
	Create(ctx context.Context, w *domain.WorkOrder) error
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (*domain.WorkOrder, error)
	Update(ctx context.Context, w *domain.WorkOrder, expected domain.State) error
	DeleteScheduledByRule(ctx context.Context, organizationID uuid.UUID, ruleID uuid.UUID) (int, error)
	ListScheduled(ctx context.Context) ([]domain.WorkOrder, error)
	List(ctx context.Context, params repository.ListParams) (repository.ListResult, error)
}

// RuleRescheduler moves a rule's next due date after one of its orders completed.
type RuleRescheduler interface {
	RescheduleAfterCompletion(ctx context.Context, organizationID, ruleID, workOrderID uuid.UUID, actualEnd time.Time) error
}

// Service provides business logic for work orders.
type Service struct {
	repo        Repository
	users       users.Provider
	eventBus    events.Bus
	rescheduler RuleRescheduler
	metrics     *metrics.Recorder
	log         *logger.Logger
	now         func() time.Time
}

// New creates a new work orders service.
func New(repo Repository, userProvider users.Provider, eventBus events.Bus, rec *metrics.Recorder, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		repo:     repo,
		users:    userProvider,
		eventBus: eventBus,
		metrics:  rec,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetRuleRescheduler wires the completion rescheduler. Set after construction
// because the rules module depends on this service.
func (s *Service) SetRuleRescheduler(r RuleRescheduler) {
	s.rescheduler = r
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// CreateInput describes an order created by hand rather than by a rule.
type CreateInput struct {
	Type                  domain.Type
	OrderType             domain.OrderType
	Title                 string
	AssetIDs              []uuid.UUID
	AssignedTo            *uuid.UUID
	ApprovalResponsibleID *uuid.UUID
	ScheduledStart        *time.Time
	ScheduledEnd          *time.Time
}

// Create registers an ad-hoc work order in the backlog.
func (s *Service) Create(ctx context.Context, organizationID uuid.UUID, in CreateInput) (*domain.WorkOrder, error) {
	if _, err := domain.LifecycleFor(in.Type); err != nil {
		return nil, err
	}
	switch in.OrderType {
	case "":
		in.OrderType = domain.OrderTypeUnplanned
	case domain.OrderTypeUnplanned, domain.OrderTypeFollowUp:
	default:
		return nil, apperr.Validation("ad-hoc work orders must be unplanned or follow-up")
	}
	if in.ScheduledStart != nil && in.ScheduledEnd != nil && in.ScheduledEnd.Before(*in.ScheduledStart) {
		return nil, apperr.Validation("scheduledEnd must not be before scheduledStart")
	}

	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	w := domain.WorkOrder{
		ID:                    uuid.New(),
		OrganizationID:        organizationID,
		Type:                  in.Type,
		OrderType:             in.OrderType,
		State:                 domain.StateBacklog,
		Title:                 strings.TrimSpace(in.Title),
		AssignedTo:            in.AssignedTo,
		ApprovalResponsibleID: in.ApprovalResponsibleID,
		ScheduledStart:        in.ScheduledStart,
		ScheduledEnd:          in.ScheduledEnd,
		LineItems:             pendingLineItems(in.AssetIDs, in.ScheduledStart),
		History:               []domain.HistoryEntry{{State: domain.StateBacklog, ChangedBy: actor.ID, ChangedAt: now}},
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	if err := s.insert(ctx, &w); err != nil {
		return nil, err
	}
	s.recordChange(ctx, actor, &w, "created", []events.FieldChange{{Field: "state", To: w.State}})
	return &w, nil
}

// CreateScheduled stores rule generated orders in the scheduled state. Orders
// are created one at a time; the first failure stops the batch and is returned
// with the orders created so far.
func (s *Service) CreateScheduled(ctx context.Context, orders []domain.WorkOrder) ([]domain.WorkOrder, error) {
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	created := make([]domain.WorkOrder, 0, len(orders))
	for _, w := range orders {
		w.ID = uuid.New()
		w.State = domain.StateScheduled
		w.History = []domain.HistoryEntry{{State: domain.StateScheduled, ChangedBy: actor.ID, ChangedAt: now}}
		w.CreatedAt = now
		w.UpdatedAt = now
		if err := s.insert(ctx, &w); err != nil {
			return created, err
		}
		created = append(created, w)
	}
	return created, nil
}

// DeleteScheduledByRule removes the rule's scheduled orders only.
func (s *Service) DeleteScheduledByRule(ctx context.Context, organizationID uuid.UUID, ruleID uuid.UUID) (int, error) {
	return s.repo.DeleteScheduledByRule(ctx, organizationID, ruleID)
}

// insert assigns a number when none is set and stores the order. Generated
// numbers are retried on collision; caller supplied numbers are not.
func (s *Service) insert(ctx context.Context, w *domain.WorkOrder) error {
	if w.WorkOrderNumber != "" {
		if _, _, err := domain.ParseNumber(w.WorkOrderNumber); err != nil {
			return apperr.Validation(err.Error())
		}
		return s.repo.Create(ctx, w)
	}

	var lastErr error
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := s.repo.NextNumber(ctx, w.CreatedAt)
		if err != nil {
			return err
		}
		w.WorkOrderNumber = number
		lastErr = s.repo.Create(ctx, w)
		if lastErr == nil || !apperr.Is(lastErr, apperr.KindConflict) {
			return lastErr
		}
		s.log.WithContext(ctx).Warn("work order number collision, retrying", "number", number)
	}
	w.WorkOrderNumber = ""
	return lastErr
}

// GetByID returns one work order.
func (s *Service) GetByID(ctx context.Context, organizationID uuid.UUID, id uuid.UUID) (*domain.WorkOrder, error) {
	return s.repo.GetByID(ctx, id, organizationID)
}

// List returns a page of work orders.
func (s *Service) List(ctx context.Context, params repository.ListParams) (repository.ListResult, error) {
	return s.repo.List(ctx, params)
}

// UpdateInput carries the editable, non-lifecycle fields of a work order.
type UpdateInput struct {
	Title                 *string
	ApprovalResponsibleID *uuid.UUID
	ScheduledEnd          *time.Time
}

// Update edits descriptive fields. Lifecycle fields only change through events.
func (s *Service) Update(ctx context.Context, organizationID uuid.UUID, id uuid.UUID, in UpdateInput) (*domain.WorkOrder, error) {
	w, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		return nil, err
	}
	if w.State.IsTerminal() {
		return nil, apperr.Conflict(fmt.Sprintf("work order is %s and can no longer be edited", w.State))
	}
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	var changes []events.FieldChange
	if in.Title != nil && strings.TrimSpace(*in.Title) != w.Title {
		changes = append(changes, events.FieldChange{Field: "title", From: w.Title, To: strings.TrimSpace(*in.Title)})
		w.Title = strings.TrimSpace(*in.Title)
	}
	if in.ApprovalResponsibleID != nil {
		changes = append(changes, events.FieldChange{Field: "approvalResponsibleId", From: w.ApprovalResponsibleID, To: *in.ApprovalResponsibleID})
		approver := *in.ApprovalResponsibleID
		w.ApprovalResponsibleID = &approver
	}
	if in.ScheduledEnd != nil {
		if w.ScheduledStart != nil && in.ScheduledEnd.Before(*w.ScheduledStart) {
			return nil, apperr.Validation("scheduledEnd must not be before scheduledStart")
		}
		changes = append(changes, events.FieldChange{Field: "scheduledEnd", From: w.ScheduledEnd, To: *in.ScheduledEnd})
		end := *in.ScheduledEnd
		w.ScheduledEnd = &end
	}
	if len(changes) == 0 {
		return w, nil
	}

	w.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, w, w.State); err != nil {
		return nil, err
	}
	s.recordChange(ctx, actor, w, "updated", changes)
	return w, nil
}

// ApplyEvent runs a lifecycle event against a stored work order and persists
// the result. A completed rule-linked order reschedules its rule; if that
// fails the completion stays committed and a RescheduleFailed error carrying
// the committed order is returned.
func (s *Service) ApplyEvent(ctx context.Context, organizationID uuid.UUID, id uuid.UUID, cmd domain.Command) (*domain.WorkOrder, error) {
	current, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		return nil, err
	}
	lc, err := domain.LifecycleFor(current.Type)
	if err != nil {
		return nil, err
	}
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	next, err := lc.Apply(*current, cmd, actor.ID, s.now())
	s.metrics.Transition(string(current.Type), string(cmd.Event), err == nil)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &next, current.State); err != nil {
		return nil, persistError(err)
	}

	s.afterTransition(ctx, actor, *current, next, cmd.Event)

	if cmd.Event == domain.EventComplete && next.RuleID != nil && s.rescheduler != nil {
		if err := s.rescheduler.RescheduleAfterCompletion(ctx, next.OrganizationID, *next.RuleID, next.ID, *next.ActualEnd); err != nil {
			s.metrics.Reschedule(false)
			s.log.WithContext(ctx).Error("rule reschedule failed after completion",
				"workOrderId", next.ID, "ruleId", *next.RuleID, "error", err)
			committed := next
			return &committed, apperr.Wrap(apperr.KindRescheduleFailed,
				"work order completed but its rule could not be rescheduled", err).WithDetails(&committed)
		}
		s.metrics.Reschedule(true)
	}
	return &next, nil
}

// ReceiveOffer records a contractor offer on an external order.
func (s *Service) ReceiveOffer(ctx context.Context, organizationID uuid.UUID, id uuid.UUID, offer domain.Offer) (*domain.WorkOrder, error) {
	return s.ApplyEvent(ctx, organizationID, id, domain.Command{Event: domain.EventReceiveOffer, Offer: &offer})
}

// AcceptOffer selects the contractor whose offer is accepted.
func (s *Service) AcceptOffer(ctx context.Context, organizationID uuid.UUID, id uuid.UUID, companyID uuid.UUID) (*domain.WorkOrder, error) {
	current, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		return nil, err
	}
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	next, err := domain.AcceptOffer(*current, companyID, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &next, current.State); err != nil {
		return nil, persistError(err)
	}
	s.recordChange(ctx, actor, &next, "offer_accepted", []events.FieldChange{{Field: "companyId", From: current.CompanyID, To: companyID}})
	return &next, nil
}

// BatchResult aggregates a per-item batch operation.
type BatchResult struct {
	Succeeded []uuid.UUID
	Failed    []uuid.UUID
	Errors    []string
}

// UpdateLineItems applies one completion status to several line items. Each
// asset is handled independently; the order is persisted once.
func (s *Service) UpdateLineItems(ctx context.Context, organizationID uuid.UUID, id uuid.UUID, assetIDs []uuid.UUID, status domain.CompletionStatus) (*domain.WorkOrder, BatchResult, error) {
	if !status.Valid() {
		return nil, BatchResult{}, apperr.Validation(fmt.Sprintf("unknown completion status %q", status))
	}
	current, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		return nil, BatchResult{}, err
	}
	if current.State.IsTerminal() || current.State == domain.StateCompleted {
		return nil, BatchResult{}, apperr.Conflict(fmt.Sprintf("line items are locked while the work order is %s", current.State))
	}
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, BatchResult{}, err
	}

	now := s.now()
	next := current.Clone()
	result := BatchResult{}
	for _, assetID := range assetIDs {
		updated, ok := domain.SetLineItemStatus(next, assetID, status, now)
		if !ok {
			result.Failed = append(result.Failed, assetID)
			result.Errors = append(result.Errors, fmt.Sprintf("asset %s is not part of this work order", assetID))
			continue
		}
		next = updated
		result.Succeeded = append(result.Succeeded, assetID)
	}
	if len(result.Succeeded) == 0 {
		return current, result, nil
	}

	if err := s.repo.Update(ctx, &next, current.State); err != nil {
		return nil, BatchResult{}, persistError(err)
	}
	changes := make([]events.FieldChange, 0, len(result.Succeeded))
	for _, assetID := range result.Succeeded {
		changes = append(changes, events.FieldChange{Field: "lineItems." + assetID.String(), To: status})
	}
	s.recordChange(ctx, actor, &next, "line_items_updated", changes)
	return &next, result, nil
}

// persistError keeps typed errors such as a lost state precondition and wraps
// everything else as a dependency failure.
func persistError(err error) error {
	if apperr.GetKind(err) != apperr.KindUnknown {
		return err
	}
	return apperr.Dependency("failed to persist work order", err)
}

func (s *Service) afterTransition(ctx context.Context, actor users.Actor, before, after domain.WorkOrder, event domain.Event) {
	s.log.WithContext(ctx).TransitionApplied(after.ID.String(), string(event), string(before.State), string(after.State))

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.WorkOrderTransitioned{
			BaseEvent:       events.NewBaseEventAt(s.now()),
			OrganizationID:  after.OrganizationID,
			WorkOrderID:     after.ID,
			WorkOrderNumber: after.WorkOrderNumber,
			Event:           string(event),
			FromState:       string(before.State),
			ToState:         string(after.State),
			ChangedBy:       actor.ID,
		})
	}

	changes := []events.FieldChange{}
	if before.State != after.State {
		changes = append(changes, events.FieldChange{Field: "state", From: before.State, To: after.State})
	}
	if len(after.Offers) != len(before.Offers) {
		changes = append(changes, events.FieldChange{Field: "offers", From: len(before.Offers), To: len(after.Offers)})
	}
	s.recordChange(ctx, actor, &after, strings.ToLower(string(event)), changes)
}

// recordChange publishes a fire-and-forget audit record.
func (s *Service) recordChange(ctx context.Context, actor users.Actor, w *domain.WorkOrder, action string, changes []events.FieldChange) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(ctx, events.EntityChanged{
		BaseEvent:      events.NewBaseEventAt(s.now()),
		OrganizationID: w.OrganizationID,
		EntityType:     entityTypeWorkOrder,
		EntityID:       w.ID.String(),
		Action:         action,
		ChangedBy:      actor.ID,
		ChangedByName:  actor.Name,
		Changes:        changes,
	})
}

func pendingLineItems(assetIDs []uuid.UUID, scheduled *time.Time) []domain.LineItem {
	seen := make(map[uuid.UUID]struct{}, len(assetIDs))
	items := make([]domain.LineItem, 0, len(assetIDs))
	for _, id := range assetIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		item := domain.LineItem{AssetID: id, CompletionStatus: domain.CompletionPending}
		if scheduled != nil {
			at := *scheduled
			item.ScheduledDate = &at
		}
		items = append(items, item)
	}
	return items
}

// NewScheduledOrder builds one rule generated order. The caller fills in the
// rule specific fields; storage assigns identity, number and history.
func NewScheduledOrder(organizationID uuid.UUID, ruleID uuid.UUID, typ domain.Type, title string, due time.Time, leadTimeDays int, assetIDs []uuid.UUID) domain.WorkOrder {
	rule := ruleID
	start := due
	return domain.WorkOrder{
		OrganizationID: organizationID,
		Type:           typ,
		OrderType:      domain.OrderTypePlanned,
		State:          domain.StateScheduled,
		RuleID:         &rule,
		Title:          title,
		LeadTimeDays:   leadTimeDays,
		ScheduledStart: &start,
		LineItems:      pendingLineItems(assetIDs, &start),
	}
}
