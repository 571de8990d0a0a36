package service

import (
	"context"

	"maintenance_backend/internal/holds/domain"
	"maintenance_backend/internal/holds/repository"

	"github.com/google/uuid"
)

// Service exposes read access to holds.
type Service struct {
	holds HoldStore
}

// New creates a holds read service.
func New(holds HoldStore) *Service {
	return &Service{holds: holds}
}

// List returns the organization's holds, optionally narrowed to a plan and status.
func (s *Service) List(ctx context.Context, organizationID uuid.UUID, planID string, status domain.Status) ([]domain.Hold, error) {
	return s.holds.ListHolds(ctx, repository.ListFilter{
		OrganizationID: organizationID,
		PlanID:         planID,
		Status:         status,
	})
}
