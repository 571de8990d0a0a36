// Package service provides business logic for asset bookings.
package service

import (
	"context"
	"strings"
	"time"

	"maintenance_backend/internal/bookings/repository"
	"maintenance_backend/internal/bookings/transport"
	"maintenance_backend/internal/events"
	"maintenance_backend/internal/users"
	"maintenance_backend/platform/apperr"

	"github.com/google/uuid"
)

const (
	entityTypeBooking    = "booking"
	errEndDateAfterStart = "endDate must not be before startDate"
)

// Repository is the persistence port of the service.
type Repository interface {
	Create(ctx context.Context, b *repository.Booking) error
	GetByID(ctx context.Context, id uuid.UUID, organizationID uuid.UUID) (*repository.Booking, error)
	Update(ctx context.Context, b *repository.Booking) error
	HasOverlap(ctx context.Context, organizationID, assetID uuid.UUID, start, end time.Time, exclude *uuid.UUID) (bool, error)
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
}

// Service provides business logic for bookings
type Service struct {
	repo     Repository
	users    users.Provider
	eventBus events.Bus
	now      func() time.Time
}

// New creates a new bookings service
func New(repo Repository, userProvider users.Provider, eventBus events.Bus) *Service {
	return &Service{
		repo:     repo,
		users:    userProvider,
		eventBus: eventBus,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create books an asset. Confirmed bookings may not overlap another active
// booking of the same asset; maintenance holds are always accepted.
func (s *Service) Create(ctx context.Context, organizationID uuid.UUID, req transport.CreateBookingRequest) (*transport.BookingResponse, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, apperr.Validation(errEndDateAfterStart)
	}
	status := req.Status
	if status == "" {
		status = transport.BookingStatusConfirmed
	}
	if status == transport.BookingStatusConfirmed {
		if err := s.ensureFree(ctx, organizationID, req.AssetID, req.StartDate, req.EndDate, nil); err != nil {
			return nil, err
		}
	}

	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	b := &repository.Booking{
		ID:             uuid.New(),
		OrganizationID: organizationID,
		AssetID:        req.AssetID,
		Title:          strings.TrimSpace(req.Title),
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Status:         string(status),
		Color:          nullable(req.Color),
		Notes:          nullable(req.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if !actor.IsSystem() {
		id := actor.ID
		b.CreatedBy = &id
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}

	s.recordChange(ctx, actor, b, "created", []events.FieldChange{{Field: "status", To: b.Status}})
	resp := toResponse(b)
	return &resp, nil
}

// Update changes a booking. Nil fields are unchanged.
func (s *Service) Update(ctx context.Context, organizationID uuid.UUID, id uuid.UUID, req transport.UpdateBookingRequest) (*transport.BookingResponse, error) {
	b, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		return nil, err
	}
	before := *b

	if req.Title != nil {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.StartDate != nil {
		b.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		b.EndDate = *req.EndDate
	}
	if req.Status != nil {
		b.Status = string(*req.Status)
	}
	if req.Color != nil {
		b.Color = nullable(*req.Color)
	}
	if req.Notes != nil {
		b.Notes = nullable(*req.Notes)
	}
	if b.EndDate.Before(b.StartDate) {
		return nil, apperr.Validation(errEndDateAfterStart)
	}

	timesChanged := !b.StartDate.Equal(before.StartDate) || !b.EndDate.Equal(before.EndDate)
	if b.Status == string(transport.BookingStatusConfirmed) && (timesChanged || before.Status != b.Status) {
		if err := s.ensureFree(ctx, organizationID, b.AssetID, b.StartDate, b.EndDate, &b.ID); err != nil {
			return nil, err
		}
	}

	actor, err := s.users.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, err
	}

	s.recordChange(ctx, actor, b, "updated", diffBooking(before, *b))
	resp := toResponse(b)
	return &resp, nil
}

// Cancel marks a booking cancelled. Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, organizationID uuid.UUID, id uuid.UUID) error {
	b, err := s.repo.GetByID(ctx, id, organizationID)
	if err != nil {
		return err
	}
	if b.Status == string(transport.BookingStatusCancelled) {
		return nil
	}
	status := transport.BookingStatusCancelled
	_, err = s.Update(ctx, organizationID, id, transport.UpdateBookingRequest{Status: &status})
	return err
}

// List returns a page of bookings.
func (s *Service) List(ctx context.Context, organizationID uuid.UUID, req transport.ListBookingsRequest) (*transport.BookingListResponse, error) {
	params := repository.ListParams{
		OrganizationID: organizationID,
		AssetID:        req.AssetID,
		From:           req.From,
		To:             req.To,
		Page:           req.Page,
		PageSize:       req.PageSize,
	}
	if req.Status != nil {
		status := string(*req.Status)
		params.Status = &status
	}

	result, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	items := make([]transport.BookingResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toResponse(&result.Items[i]))
	}
	return &transport.BookingListResponse{
		Items:      items,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	}, nil
}

func (s *Service) ensureFree(ctx context.Context, organizationID, assetID uuid.UUID, start, end time.Time, exclude *uuid.UUID) error {
	overlap, err := s.repo.HasOverlap(ctx, organizationID, assetID, start, end, exclude)
	if err != nil {
		return err
	}
	if overlap {
		return apperr.Conflict("asset is already booked in this period")
	}
	return nil
}

func (s *Service) recordChange(ctx context.Context, actor users.Actor, b *repository.Booking, action string, changes []events.FieldChange) {
	if s.eventBus == nil || (len(changes) == 0 && action == "updated") {
		return
	}
	s.eventBus.Publish(ctx, events.EntityChanged{
		BaseEvent:      events.NewBaseEvent(),
		OrganizationID: b.OrganizationID,
		EntityType:     entityTypeBooking,
		EntityID:       b.ID.String(),
		Action:         action,
		ChangedBy:      actor.ID,
		ChangedByName:  actor.Name,
		Changes:        changes,
	})
}

func diffBooking(before, after repository.Booking) []events.FieldChange {
	changes := []events.FieldChange{}
	if before.Title != after.Title {
		changes = append(changes, events.FieldChange{Field: "title", From: before.Title, To: after.Title})
	}
	if !before.StartDate.Equal(after.StartDate) {
		changes = append(changes, events.FieldChange{Field: "startDate", From: before.StartDate, To: after.StartDate})
	}
	if !before.EndDate.Equal(after.EndDate) {
		changes = append(changes, events.FieldChange{Field: "endDate", From: before.EndDate, To: after.EndDate})
	}
	if before.Status != after.Status {
		changes = append(changes, events.FieldChange{Field: "status", From: before.Status, To: after.Status})
	}
	return changes
}

func toResponse(b *repository.Booking) transport.BookingResponse {
	resp := transport.BookingResponse{
		ID:        b.ID,
		AssetID:   b.AssetID,
		Title:     b.Title,
		StartDate: b.StartDate,
		EndDate:   b.EndDate,
		Status:    transport.BookingStatus(b.Status),
		CreatedBy: b.CreatedBy,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.Color != nil {
		resp.Color = *b.Color
	}
	if b.Notes != nil {
		resp.Notes = *b.Notes
	}
	return resp
}

func nullable(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
