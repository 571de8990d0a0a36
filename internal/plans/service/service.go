// Package service loads a user's maintenance plan, applies changes through
// the reducer and writes it back. Calendar holds are reconciled whenever a
// change moves the set of holds the plan needs, and on request.
package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	holdsdomain "maintenance_backend/internal/holds/domain"
	holds "maintenance_backend/internal/holds/service"
	"maintenance_backend/internal/plans/domain"
	"maintenance_backend/internal/users"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/logger"

	"github.com/google/uuid"
)

// Store persists plan snapshots.
type Store interface {
	Load(ctx context.Context, organizationID, userID uuid.UUID) (domain.Plan, error)
	Save(ctx context.Context, organizationID, userID uuid.UUID, plan domain.Plan) error
	Delete(ctx context.Context, organizationID, userID uuid.UUID) error
}

// AssetLookup resolves asset display data.
type AssetLookup interface {
	LookupAssets(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) ([]domain.AssetRef, error)
}

// HoldSyncer reconciles calendar holds for a plan.
type HoldSyncer interface {
	Sync(ctx context.Context, organizationID uuid.UUID, plan domain.Plan) (holds.Result, error)
}

// Service provides plan operations for the current user.
type Service struct {
	store     Store
	assets    AssetLookup
	holds     HoldSyncer
	users     users.Provider
	log       *logger.Logger
	now       func() time.Time
	newPlanID func() string
}

// New creates a plan service.
func New(store Store, assets AssetLookup, holdSyncer HoldSyncer, userProvider users.Provider, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{
		store:     store,
		assets:    assets,
		holds:     holdSyncer,
		users:     userProvider,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
		newPlanID: uuid.NewString,
	}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// Current returns the user's plan, or a fresh draft.
func (s *Service) Current(ctx context.Context, organizationID uuid.UUID) (domain.Plan, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.Plan{}, err
	}
	return s.store.Load(ctx, organizationID, actor.ID)
}

// The mutating operations below return the hold reconciliation they
// triggered, or nil when the change left the plan's holds untouched.

// SetDetails edits the descriptive fields.
func (s *Service) SetDetails(ctx context.Context, organizationID uuid.UUID, name, description, notes *string) (domain.Plan, *holds.Result, error) {
	return s.apply(ctx, organizationID, func(users.Actor, time.Time) domain.Action {
		return domain.SetDetails{Name: name, Description: description, Notes: notes}
	})
}

// SetSchedule replaces the schedule window.
func (s *Service) SetSchedule(ctx context.Context, organizationID uuid.UUID, schedule domain.Schedule) (domain.Plan, *holds.Result, error) {
	if schedule.StartDate != nil && schedule.EndDate != nil && schedule.EndDate.Before(*schedule.StartDate) {
		return domain.Plan{}, nil, apperr.Validation(domain.WarnEndBeforeStart)
	}
	return s.apply(ctx, organizationID, func(_ users.Actor, now time.Time) domain.Action {
		return domain.SetSchedule{Schedule: schedule, At: now}
	})
}

// AddAssets adds assets from the register. Unknown IDs are rejected.
func (s *Service) AddAssets(ctx context.Context, organizationID uuid.UUID, ids []uuid.UUID) (domain.Plan, *holds.Result, error) {
	refs, err := s.assets.LookupAssets(ctx, organizationID, ids)
	if err != nil {
		return domain.Plan{}, nil, apperr.Dependency("failed to look up assets", err)
	}
	known := make(map[uuid.UUID]struct{}, len(refs))
	for _, r := range refs {
		known[r.AssetID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return domain.Plan{}, nil, apperr.Validation(fmt.Sprintf("unknown asset %s", id))
		}
	}

	return s.apply(ctx, organizationID, func(_ users.Actor, now time.Time) domain.Action {
		return domain.AddAssets{Assets: refs, At: now}
	})
}

// RemoveAsset drops one asset.
func (s *Service) RemoveAsset(ctx context.Context, organizationID uuid.UUID, assetID uuid.UUID) (domain.Plan, *holds.Result, error) {
	return s.apply(ctx, organizationID, func(_ users.Actor, now time.Time) domain.Action {
		return domain.RemoveAsset{AssetID: assetID, At: now}
	})
}

// AdvanceStage requests a stage change. A blocked change is not an error; the
// returned plan lists the reasons in StageWarnings.
func (s *Service) AdvanceStage(ctx context.Context, organizationID uuid.UUID, to domain.Stage) (domain.Plan, *holds.Result, error) {
	return s.apply(ctx, organizationID, func(_ users.Actor, now time.Time) domain.Action {
		return domain.AdvanceStage{To: to, PlanID: s.newPlanID(), At: now}
	})
}

// BatchResult aggregates a per-asset batch operation. Holds is the
// reconciliation the batch triggered, if any.
type BatchResult struct {
	Succeeded []uuid.UUID
	Failed    []uuid.UUID
	Errors    []string
	Holds     *holds.Result
}

// ApplyAssetStatus sets one status on several assets. Assets not in the plan
// are reported as failed; the rest are applied in order, so auto-completion
// happens at most once at the end of the batch.
func (s *Service) ApplyAssetStatus(ctx context.Context, organizationID uuid.UUID, assetIDs []uuid.UUID, status domain.AssetStatus, notes *string) (domain.Plan, BatchResult, error) {
	if !status.Valid() {
		return domain.Plan{}, BatchResult{}, apperr.Validation(fmt.Sprintf("unknown asset status %q", status))
	}
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.Plan{}, BatchResult{}, err
	}
	plan, err := s.store.Load(ctx, organizationID, actor.ID)
	if err != nil {
		return domain.Plan{}, BatchResult{}, err
	}

	before := plan
	now := s.now()
	result := BatchResult{Succeeded: []uuid.UUID{}, Failed: []uuid.UUID{}, Errors: []string{}}
	for _, id := range assetIDs {
		if _, ok := plan.Asset(id); !ok {
			result.Failed = append(result.Failed, id)
			result.Errors = append(result.Errors, fmt.Sprintf("asset %s is not part of the plan", id))
			continue
		}
		plan = domain.Reduce(plan, statusAction(id, status, actor, notes, now))
		result.Succeeded = append(result.Succeeded, id)
	}
	if len(result.Succeeded) == 0 {
		return plan, result, nil
	}

	if err := s.store.Save(ctx, organizationID, actor.ID, plan); err != nil {
		return domain.Plan{}, BatchResult{}, err
	}
	plan, result.Holds = s.reconcile(ctx, organizationID, actor.ID, before, plan)
	return plan, result, nil
}

func statusAction(assetID uuid.UUID, status domain.AssetStatus, actor users.Actor, notes *string, at time.Time) domain.Action {
	switch status {
	case domain.AssetCompleted:
		return domain.MarkAssetCompleted{AssetID: assetID, By: actor.ID, ByName: actor.Name, Notes: notes, At: at}
	case domain.AssetSkipped:
		return domain.MarkAssetSkipped{AssetID: assetID, Notes: notes, At: at}
	default:
		return domain.MarkAssetPending{AssetID: assetID, At: at}
	}
}

// Sync reconciles the plan's calendar holds and records the resulting hold
// IDs on the plan. Per-asset failures are reported in the result; only a
// failure to reconcile at all is returned as an error.
func (s *Service) Sync(ctx context.Context, organizationID uuid.UUID) (domain.Plan, holds.Result, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.Plan{}, holds.Result{}, err
	}
	plan, err := s.store.Load(ctx, organizationID, actor.ID)
	if err != nil {
		return domain.Plan{}, holds.Result{}, err
	}

	result, syncErr := s.holds.Sync(ctx, organizationID, plan)
	if syncErr != nil && len(result.Failed) == 0 {
		return plan, result, syncErr
	}
	if syncErr != nil {
		s.log.WithContext(ctx).Warn("hold reconciliation finished with failures", "planId", plan.PlanID, "error", syncErr)
	}

	plan = domain.Reduce(plan, holdResults(result))
	if err := s.store.Save(ctx, organizationID, actor.ID, plan); err != nil {
		return domain.Plan{}, result, err
	}
	return plan, result, nil
}

// Reset discards the plan. Holds the plan still owns are released first,
// best effort.
func (s *Service) Reset(ctx context.Context, organizationID uuid.UUID) (domain.Plan, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.Plan{}, err
	}
	plan, err := s.store.Load(ctx, organizationID, actor.ID)
	if err != nil {
		return domain.Plan{}, err
	}

	if plan.PlanID != "" && s.holds != nil {
		released := domain.Reduce(plan, domain.AdvanceStage{To: domain.StageDraft, At: s.now()})
		if _, err := s.holds.Sync(ctx, organizationID, released); err != nil {
			s.log.WithContext(ctx).Warn("failed to release holds of discarded plan", "planId", plan.PlanID, "error", err)
		}
	}

	if err := s.store.Delete(ctx, organizationID, actor.ID); err != nil {
		return domain.Plan{}, err
	}
	return domain.Reduce(plan, domain.Reset{}), nil
}

func holdResults(result holds.Result) domain.ApplyHoldResults {
	action := domain.ApplyHoldResults{}
	for _, h := range result.Created {
		action.Created = append(action.Created, domain.HoldRef{AssetID: h.AssetID, HoldID: h.ID})
	}
	for _, h := range result.Released {
		action.Released = append(action.Released, h.ID)
	}
	return action
}

func (s *Service) apply(ctx context.Context, organizationID uuid.UUID, build func(users.Actor, time.Time) domain.Action) (domain.Plan, *holds.Result, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return domain.Plan{}, nil, err
	}
	plan, err := s.store.Load(ctx, organizationID, actor.ID)
	if err != nil {
		return domain.Plan{}, nil, err
	}

	next := domain.Reduce(plan, build(actor, s.now()))
	if err := s.store.Save(ctx, organizationID, actor.ID, next); err != nil {
		return domain.Plan{}, nil, err
	}
	if next.Stage != plan.Stage {
		s.log.WithContext(ctx).Info("plan stage changed", "planId", next.PlanID, "from", plan.Stage, "to", next.Stage)
	}
	next, synced := s.reconcile(ctx, organizationID, actor.ID, plan, next)
	return next, synced, nil
}

// reconcile syncs holds after a saved change when the change altered the
// stage or the holds the plan needs. The plan change itself is already
// committed, so reconciliation failures are reported in the result and the
// plan is returned as saved.
func (s *Service) reconcile(ctx context.Context, organizationID, userID uuid.UUID, before, after domain.Plan) (domain.Plan, *holds.Result) {
	if s.holds == nil || after.PlanID == "" || !holdsChanged(before, after) {
		return after, nil
	}

	result, err := s.holds.Sync(ctx, organizationID, after)
	if err != nil {
		s.log.WithContext(ctx).Warn("automatic hold reconciliation failed", "planId", after.PlanID, "error", err)
		if len(result.Failed) == 0 {
			result.Failed = unreconciled(before, after, err)
			return after, &result
		}
	}

	next := domain.Reduce(after, holdResults(result))
	if err := s.store.Save(ctx, organizationID, userID, next); err != nil {
		s.log.WithContext(ctx).Warn("failed to record hold results on plan", "planId", after.PlanID, "error", err)
		return after, &result
	}
	return next, &result
}

func holdsChanged(before, after domain.Plan) bool {
	if before.Stage != after.Stage {
		return true
	}
	return !slices.EqualFunc(holdsdomain.DesiredHolds(before), holdsdomain.DesiredHolds(after), sameHold)
}

func sameHold(a, b holdsdomain.Desired) bool {
	return a.AssetID == b.AssetID &&
		a.StartDate.Equal(b.StartDate) &&
		a.EndDate.Equal(b.EndDate) &&
		a.HoldColor == b.HoldColor
}

// unreconciled lists every asset whose hold should have been created or
// released when a sync failed before touching any hold.
func unreconciled(before, after domain.Plan, err error) []holds.Failure {
	seen := make(map[uuid.UUID]struct{})
	var failures []holds.Failure
	add := func(assetID uuid.UUID, holdID *uuid.UUID, action string) {
		if _, ok := seen[assetID]; ok {
			return
		}
		seen[assetID] = struct{}{}
		failures = append(failures, holds.Failure{AssetID: assetID, HoldID: holdID, Action: action, Error: err.Error()})
	}
	for _, d := range holdsdomain.DesiredHolds(after) {
		add(d.AssetID, nil, "create")
	}
	for _, list := range [][]domain.PlanAsset{after.Assets, before.Assets} {
		for _, a := range list {
			if a.HoldID != nil {
				add(a.AssetID, a.HoldID, "release")
			}
		}
	}
	return failures
}

func (s *Service) actor(ctx context.Context) (users.Actor, error) {
	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return users.Actor{}, err
	}
	if actor.IsSystem() {
		return users.Actor{}, apperr.Unauthorized("maintenance plans require an authenticated user")
	}
	return actor, nil
}
