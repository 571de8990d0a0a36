// Package domain holds the maintenance calendar hold model.
package domain

import (
	"time"

	plans "maintenance_backend/internal/plans/domain"

	"github.com/google/uuid"
)

// Status is the lifecycle of a hold.
type Status string

const (
	StatusActive   Status = "active"
	StatusReleased Status = "released"
)

// Hold reserves one asset in the booking calendar for one plan.
type Hold struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	PlanID         string
	AssetID        uuid.UUID
	StartDate      time.Time
	EndDate        time.Time
	BookingID      *uuid.UUID
	HoldColor      string
	Status         Status
	ReleasedAt     *time.Time
	CreatedAt      time.Time
}

// Desired is the hold a plan asset should have.
type Desired struct {
	AssetID     uuid.UUID
	AssetNumber string
	AssetName   string
	StartDate   time.Time
	EndDate     time.Time
	HoldColor   string
}

// Satisfies reports whether an existing hold already covers the desired one.
func (h Hold) Satisfies(d Desired) bool {
	return h.AssetID == d.AssetID &&
		h.StartDate.Equal(d.StartDate) &&
		h.EndDate.Equal(d.EndDate) &&
		h.HoldColor == d.HoldColor
}

// DesiredHolds lists the holds a plan needs: one per pending asset while the
// plan is planned and has a complete schedule window. Any other plan needs none.
func DesiredHolds(p plans.Plan) []Desired {
	if p.Stage != plans.StagePlanned || p.Schedule.StartDate == nil || p.Schedule.EndDate == nil {
		return nil
	}
	out := make([]Desired, 0, len(p.Assets))
	for _, a := range p.Assets {
		if a.Status != plans.AssetPending {
			continue
		}
		out = append(out, Desired{
			AssetID:     a.AssetID,
			AssetNumber: a.AssetNumber,
			AssetName:   a.AssetName,
			StartDate:   *p.Schedule.StartDate,
			EndDate:     *p.Schedule.EndDate,
			HoldColor:   p.Schedule.HoldColor,
		})
	}
	return out
}
