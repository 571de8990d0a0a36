// Package service reconciles a plan's calendar holds with the booking calendar.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"maintenance_backend/internal/holds/domain"
	"maintenance_backend/internal/holds/repository"
	plans "maintenance_backend/internal/plans/domain"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/logger"
	"maintenance_backend/platform/metrics"

	"github.com/google/uuid"
)

// HoldStore is the persistence port for holds.
type HoldStore interface {
	ListHolds(ctx context.Context, filter repository.ListFilter) ([]domain.Hold, error)
	CreateHold(ctx context.Context, h *domain.Hold) error
	ReleaseHold(ctx context.Context, organizationID uuid.UUID, id uuid.UUID, releasedAt time.Time) error
}

// BookingRequest describes the calendar booking backing a hold.
type BookingRequest struct {
	OrganizationID uuid.UUID
	AssetID        uuid.UUID
	Title          string
	StartDate      time.Time
	EndDate        time.Time
	Color          string
	Notes          string
}

// BookingClient creates and cancels the bookings behind holds.
type BookingClient interface {
	CreateBooking(ctx context.Context, req BookingRequest) (uuid.UUID, error)
	CancelBooking(ctx context.Context, organizationID uuid.UUID, bookingID uuid.UUID) error
}

// Release reasons.
const (
	ReasonStale     = "stale"
	ReasonDangling  = "dangling"
	ReasonNotNeeded = "not-needed"
	ReasonDuplicate = "duplicate"
)

// Failure is one asset the reconciliation could not bring in line.
type Failure struct {
	AssetID uuid.UUID
	HoldID  *uuid.UUID
	Action  string
	Error   string
}

// Result reports one reconciliation.
type Result struct {
	Created  []domain.Hold
	Released []domain.Hold
	Failed   []Failure
}

// Synchronizer reconciles holds. It never changes the plan; callers fold the
// result back into it.
type Synchronizer struct {
	holds    HoldStore
	bookings BookingClient
	metrics  *metrics.Recorder
	log      *logger.Logger
	now      func() time.Time
}

// NewSynchronizer creates a synchronizer.
func NewSynchronizer(holds HoldStore, bookings BookingClient, rec *metrics.Recorder, log *logger.Logger) *Synchronizer {
	if log == nil {
		log = logger.Discard()
	}
	return &Synchronizer{
		holds:    holds,
		bookings: bookings,
		metrics:  rec,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time source.
func (s *Synchronizer) SetClock(now func() time.Time) {
	s.now = now
}

// Sync brings the plan's active holds in line with the holds it needs. The
// active set is read right before reconciling. All releases run before any
// creation, so a replaced hold is released before its successor exists.
// Each asset is handled independently; the returned error joins every
// per-asset failure and is nil when all succeeded.
func (s *Synchronizer) Sync(ctx context.Context, organizationID uuid.UUID, plan plans.Plan) (Result, error) {
	result := Result{Created: []domain.Hold{}, Released: []domain.Hold{}, Failed: []Failure{}}
	if plan.PlanID == "" {
		return result, nil
	}

	active, err := s.holds.ListHolds(ctx, repository.ListFilter{
		OrganizationID: organizationID,
		PlanID:         plan.PlanID,
		Status:         domain.StatusActive,
	})
	if err != nil {
		return result, apperr.Dependency("failed to list active holds", err)
	}

	desired := domain.DesiredHolds(plan)
	wanted := make(map[uuid.UUID]domain.Desired, len(desired))
	for _, d := range desired {
		wanted[d.AssetID] = d
	}

	var errs []error
	kept := make(map[uuid.UUID]struct{}, len(active))
	blocked := make(map[uuid.UUID]struct{})
	for _, h := range active {
		reason := ""
		d, needed := wanted[h.AssetID]
		_, duplicate := kept[h.AssetID]
		switch {
		case !needed:
			reason = ReasonNotNeeded
			if _, inPlan := plan.Asset(h.AssetID); !inPlan {
				reason = ReasonDangling
			}
		case duplicate:
			reason = ReasonDuplicate
		case !h.Satisfies(d):
			reason = ReasonStale
		default:
			kept[h.AssetID] = struct{}{}
			continue
		}

		released, err := s.release(ctx, h, reason)
		if err != nil {
			blocked[h.AssetID] = struct{}{}
			id := h.ID
			result.Failed = append(result.Failed, Failure{AssetID: h.AssetID, HoldID: &id, Action: "release", Error: err.Error()})
			errs = append(errs, err)
			continue
		}
		result.Released = append(result.Released, released)
	}

	for _, d := range desired {
		if _, ok := kept[d.AssetID]; ok {
			continue
		}
		if _, ok := blocked[d.AssetID]; ok {
			err := fmt.Errorf("asset %s: previous hold could not be released", d.AssetID)
			result.Failed = append(result.Failed, Failure{AssetID: d.AssetID, Action: "create", Error: err.Error()})
			errs = append(errs, err)
			continue
		}

		created, err := s.create(ctx, organizationID, plan, d)
		if err != nil {
			result.Failed = append(result.Failed, Failure{AssetID: d.AssetID, Action: "create", Error: err.Error()})
			errs = append(errs, err)
			continue
		}
		result.Created = append(result.Created, created)
	}

	s.log.WithContext(ctx).HoldsReconciled(plan.PlanID, len(result.Created), len(result.Released), len(result.Failed))
	return result, errors.Join(errs...)
}

// release cancels the backing booking, then marks the hold released. A failed
// booking cancellation is logged and does not stop the release.
func (s *Synchronizer) release(ctx context.Context, h domain.Hold, reason string) (domain.Hold, error) {
	log := s.log.WithContext(ctx)
	if h.BookingID != nil {
		if err := s.bookings.CancelBooking(ctx, h.OrganizationID, *h.BookingID); err != nil {
			s.metrics.HoldOperation("cancel_booking", false)
			log.Warn("failed to cancel hold booking", "holdId", h.ID, "bookingId", *h.BookingID, "error", err)
		}
	}

	at := s.now()
	if err := s.holds.ReleaseHold(ctx, h.OrganizationID, h.ID, at); err != nil {
		s.metrics.HoldOperation("release", false)
		return domain.Hold{}, fmt.Errorf("asset %s: release hold %s: %w", h.AssetID, h.ID, err)
	}
	s.metrics.HoldOperation("release", true)
	log.Debug("hold released", "holdId", h.ID, "assetId", h.AssetID, "reason", reason)

	h.Status = domain.StatusReleased
	h.ReleasedAt = &at
	return h, nil
}

// create books the calendar, then records the hold. When recording fails the
// booking is cancelled again, best effort.
func (s *Synchronizer) create(ctx context.Context, organizationID uuid.UUID, plan plans.Plan, d domain.Desired) (domain.Hold, error) {
	title := plan.Name
	if title == "" {
		title = "Maintenance"
	}
	bookingID, err := s.bookings.CreateBooking(ctx, BookingRequest{
		OrganizationID: organizationID,
		AssetID:        d.AssetID,
		Title:          title,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		Color:          d.HoldColor,
		Notes:          "maintenance plan " + plan.PlanID,
	})
	if err != nil {
		s.metrics.HoldOperation("create", false)
		return domain.Hold{}, fmt.Errorf("asset %s: create booking: %w", d.AssetID, err)
	}

	h := domain.Hold{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		PlanID:         plan.PlanID,
		AssetID:        d.AssetID,
		StartDate:      d.StartDate,
		EndDate:        d.EndDate,
		BookingID:      &bookingID,
		HoldColor:      d.HoldColor,
		Status:         domain.StatusActive,
		CreatedAt:      s.now(),
	}
	if err := s.holds.CreateHold(ctx, &h); err != nil {
		s.metrics.HoldOperation("create", false)
		if cancelErr := s.bookings.CancelBooking(ctx, organizationID, bookingID); cancelErr != nil {
			s.log.WithContext(ctx).Warn("failed to cancel orphaned booking", "bookingId", bookingID, "error", cancelErr)
		}
		return domain.Hold{}, fmt.Errorf("asset %s: create hold: %w", d.AssetID, err)
	}
	s.metrics.HoldOperation("create", true)
	return h, nil
}
