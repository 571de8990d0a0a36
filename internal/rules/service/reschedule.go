package service

import (
	"context"
	"time"

	"maintenance_backend/internal/events"
	"maintenance_backend/internal/rules/domain"

	"github.com/google/uuid"
)

// RescheduleAfterCompletion moves the rule's next due date after one of its
// work orders was completed at actualEnd. Usage-based rules are left alone.
func (s *Service) RescheduleAfterCompletion(ctx context.Context, organizationID, ruleID, workOrderID uuid.UUID, actualEnd time.Time) error {
	rule, err := s.repo.GetByID(ctx, ruleID, organizationID)
	if err != nil {
		return err
	}
	if !rule.Interval.IsTimeBased() {
		return nil
	}
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return err
	}

	next, err := rule.NextDueAfterCompletion(actualEnd)
	if err != nil {
		return err
	}
	previous := rule.NextDueDate
	updated := *rule
	updated.NextDueDate = next
	updated.UpdatedBy = actor.ID
	updated.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, &updated); err != nil {
		return err
	}

	s.log.WithContext(ctx).Info("rule rescheduled",
		"ruleId", ruleID, "workOrderId", workOrderID, "mode", rule.RescheduleMode,
		"previousDueDate", previous.Format(time.DateOnly), "nextDueDate", next.Format(time.DateOnly))
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.RuleRescheduled{
			BaseEvent:       events.NewBaseEventAt(s.now()),
			OrganizationID:  organizationID,
			RuleID:          ruleID,
			WorkOrderID:     workOrderID,
			PreviousDueDate: previous,
			NextDueDate:     next,
		})
	}
	s.recordChange(ctx, actor, &updated, "rescheduled", []events.FieldChange{
		{Field: "nextDueDate", From: domain.DateOf(previous), To: next},
	})
	return nil
}
