package adapters

import (
	"context"

	bookingsservice "maintenance_backend/internal/bookings/service"
	"maintenance_backend/internal/bookings/transport"
	holdsservice "maintenance_backend/internal/holds/service"

	"github.com/google/uuid"
)

// HoldBookingClient adapts the bookings service to back calendar holds with
// maintenance-hold bookings.
type HoldBookingClient struct {
	svc *bookingsservice.Service
}

func NewHoldBookingClient(svc *bookingsservice.Service) *HoldBookingClient {
	return &HoldBookingClient{svc: svc}
}

// CreateBooking books the asset for the hold window.
func (a *HoldBookingClient) CreateBooking(ctx context.Context, req holdsservice.BookingRequest) (uuid.UUID, error) {
	booking, err := a.svc.Create(ctx, req.OrganizationID, transport.CreateBookingRequest{
		AssetID:   req.AssetID,
		Title:     req.Title,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    transport.BookingStatusMaintenanceHold,
		Color:     req.Color,
		Notes:     req.Notes,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return booking.ID, nil
}

// CancelBooking cancels the booking behind a released hold.
func (a *HoldBookingClient) CancelBooking(ctx context.Context, organizationID uuid.UUID, bookingID uuid.UUID) error {
	return a.svc.Cancel(ctx, organizationID, bookingID)
}

// Compile-time check.
var _ holdsservice.BookingClient = (*HoldBookingClient)(nil)
