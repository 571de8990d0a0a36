package transport

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus defines the status of a booking
type BookingStatus string

const (
	BookingStatusConfirmed       BookingStatus = "confirmed"
	BookingStatusMaintenanceHold BookingStatus = "maintenance-hold"
	BookingStatusCancelled       BookingStatus = "cancelled"
)

// CreateBookingRequest is the request body for creating a booking
type CreateBookingRequest struct {
	AssetID   uuid.UUID     `json:"assetId" validate:"required"`
	Title     string        `json:"title" validate:"required,min=1,max=200"`
	StartDate time.Time     `json:"startDate" validate:"required"`
	EndDate   time.Time     `json:"endDate" validate:"required,gtefield=StartDate"`
	Status    BookingStatus `json:"status" validate:"omitempty,oneof=confirmed maintenance-hold"`
	Color     string        `json:"color,omitempty" validate:"max=32"`
	Notes     string        `json:"notes,omitempty" validate:"max=2000"`
}

// UpdateBookingRequest is the request body for updating a booking
type UpdateBookingRequest struct {
	Title     *string        `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	StartDate *time.Time     `json:"startDate,omitempty"`
	EndDate   *time.Time     `json:"endDate,omitempty"`
	Status    *BookingStatus `json:"status,omitempty" validate:"omitempty,oneof=confirmed maintenance-hold cancelled"`
	Color     *string        `json:"color,omitempty" validate:"omitempty,max=32"`
	Notes     *string        `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ListBookingsRequest is the query parameters for listing bookings
type ListBookingsRequest struct {
	AssetID  *uuid.UUID     `form:"assetId"`
	Status   *BookingStatus `form:"status" validate:"omitempty,oneof=confirmed maintenance-hold cancelled"`
	From     *time.Time     `form:"from" time_format:"2006-01-02"`
	To       *time.Time     `form:"to" time_format:"2006-01-02"`
	Page     int            `form:"page" validate:"omitempty,min=1"`
	PageSize int            `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// BookingResponse is the response for a single booking
type BookingResponse struct {
	ID        uuid.UUID     `json:"id"`
	AssetID   uuid.UUID     `json:"assetId"`
	Title     string        `json:"title"`
	StartDate time.Time     `json:"startDate"`
	EndDate   time.Time     `json:"endDate"`
	Status    BookingStatus `json:"status"`
	Color     string        `json:"color,omitempty"`
	Notes     string        `json:"notes,omitempty"`
	CreatedBy *uuid.UUID    `json:"createdBy,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// BookingListResponse is the response for listing bookings
type BookingListResponse struct {
	Items      []BookingResponse `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"pageSize"`
	TotalPages int               `json:"totalPages"`
}
