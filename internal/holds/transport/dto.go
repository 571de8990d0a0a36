package transport

import (
	"time"

	"maintenance_backend/internal/holds/domain"

	"github.com/google/uuid"
)

// ListHoldsRequest is the query for GET /holds.
type ListHoldsRequest struct {
	PlanID string `form:"planId" validate:"max=100"`
	Status string `form:"status" validate:"omitempty,oneof=active released"`
}

// HoldResponse is the API representation of a calendar hold.
type HoldResponse struct {
	ID         uuid.UUID  `json:"id"`
	PlanID     string     `json:"planId"`
	AssetID    uuid.UUID  `json:"assetId"`
	StartDate  time.Time  `json:"startDate"`
	EndDate    time.Time  `json:"endDate"`
	BookingID  *uuid.UUID `json:"bookingId,omitempty"`
	HoldColor  string     `json:"holdColor,omitempty"`
	Status     string     `json:"status"`
	ReleasedAt *time.Time `json:"releasedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// HoldListResponse wraps a list of holds.
type HoldListResponse struct {
	Items []HoldResponse `json:"items"`
}

// ToResponse maps a hold to its API representation.
func ToResponse(h domain.Hold) HoldResponse {
	return HoldResponse{
		ID:         h.ID,
		PlanID:     h.PlanID,
		AssetID:    h.AssetID,
		StartDate:  h.StartDate,
		EndDate:    h.EndDate,
		BookingID:  h.BookingID,
		HoldColor:  h.HoldColor,
		Status:     string(h.Status),
		ReleasedAt: h.ReleasedAt,
		CreatedAt:  h.CreatedAt,
	}
}

// ToResponses maps a slice of holds.
func ToResponses(holds []domain.Hold) []HoldResponse {
	out := make([]HoldResponse, 0, len(holds))
	for _, h := range holds {
		out = append(out, ToResponse(h))
	}
	return out
}
