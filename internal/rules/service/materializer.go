package service

import (
	"context"
	"errors"
	"time"

	"maintenance_backend/internal/events"
	"maintenance_backend/internal/rules/domain"
	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
)

// MaterializeResult reports one regeneration of a rule's scheduled orders.
type MaterializeResult struct {
	Deleted int
	Created int
}

// Occurrences returns the first horizon due dates of a rule, anchored at its
// next due date. Occurrence k is computed from the anchor directly so month
// clamping never accumulates.
func Occurrences(rule domain.Rule, horizon int) ([]time.Time, error) {
	dates := make([]time.Time, 0, horizon)
	for k := 0; k < horizon; k++ {
		due, err := rule.Interval.Occurrence(rule.NextDueDate, k)
		if err != nil {
			return nil, err
		}
		dates = append(dates, due)
	}
	return dates, nil
}

// Materialize regenerates the scheduled orders of one rule on demand.
func (s *Service) Materialize(ctx context.Context, organizationID uuid.UUID, id uuid.UUID) (MaterializeResult, error) {
	rule, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		return MaterializeResult{}, err
	}
	return s.regenerate(ctx, *rule)
}

// regenerate deletes every scheduled order of the rule and, once that
// completed, creates the next horizon of occurrences. Usage-based rules and
// rules whose target resolves to no asset end up with no scheduled orders.
func (s *Service) regenerate(ctx context.Context, rule domain.Rule) (MaterializeResult, error) {
	log := s.log.WithContext(ctx)

	deleted, err := s.scheduler.DeleteScheduled(ctx, rule.OrganizationID, rule.ID)
	if err != nil {
		return MaterializeResult{}, apperr.Dependency("failed to delete scheduled work orders", err)
	}
	result := MaterializeResult{Deleted: deleted}

	dates, err := Occurrences(rule, s.horizon)
	if errors.Is(err, domain.ErrUsageBasedInterval) {
		log.Info("usage-based rule has no calendar schedule", "ruleId", rule.ID)
		s.finishMaterialize(ctx, rule, result)
		return result, nil
	}
	if err != nil {
		return result, apperr.Wrap(apperr.KindInternal, "failed to compute occurrences", err)
	}

	assetIDs, err := s.assets.ResolveTargets(ctx, rule.OrganizationID, rule.Target)
	if err != nil {
		return result, apperr.Dependency("failed to resolve rule targets", err)
	}
	if len(assetIDs) == 0 {
		log.Warn("rule target resolved to no assets", "ruleId", rule.ID, "targetType", rule.Target.Type)
		s.finishMaterialize(ctx, rule, result)
		return result, nil
	}

	created, err := s.scheduler.CreateScheduled(ctx, ScheduleBatch{
		OrganizationID: rule.OrganizationID,
		RuleID:         rule.ID,
		IsInternal:     rule.IsInternal,
		Title:          rule.Name,
		LeadTimeDays:   rule.LeadTimeDays,
		AssetIDs:       assetIDs,
		DueDates:       dates,
	})
	result.Created = created
	if err != nil {
		s.finishMaterialize(ctx, rule, result)
		return result, apperr.Dependency("failed to create scheduled work orders", err)
	}

	s.finishMaterialize(ctx, rule, result)
	return result, nil
}

func (s *Service) finishMaterialize(ctx context.Context, rule domain.Rule, result MaterializeResult) {
	s.metrics.Materialized(result.Deleted, result.Created)
	s.log.WithContext(ctx).Info("rule materialized",
		"ruleId", rule.ID, "deleted", result.Deleted, "created", result.Created)
	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.RuleMaterialized{
			BaseEvent:      events.NewBaseEventAt(s.now()),
			OrganizationID: rule.OrganizationID,
			RuleID:         rule.ID,
			Deleted:        result.Deleted,
			Created:        result.Created,
		})
	}
}
