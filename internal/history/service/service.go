// Package service records and reads the change history of maintenance
// entities. Entries arrive as EntityChanged events; recording never fails the
// change that produced it.
package service

import (
	"context"
	"time"

	"maintenance_backend/internal/events"
	"maintenance_backend/internal/history/repository"
	"maintenance_backend/platform/apperr"
	"maintenance_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	defaultLimit = 100
	maxLimit     = 500
)

// Store persists history entries.
type Store interface {
	Create(ctx context.Context, e repository.Entry) error
	ListForEntity(ctx context.Context, organizationID uuid.UUID, entityType, entityID string, limit int) ([]repository.Entry, error)
}

// Service records and lists history.
type Service struct {
	store Store
	log   *logger.Logger
	newID func() uuid.UUID
}

// New creates a history service.
func New(store Store, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{store: store, log: log, newID: uuid.New}
}

// Subscribe registers the service for audit events.
func (s *Service) Subscribe(bus events.Bus) {
	bus.Subscribe(events.EntityChanged{}.EventName(), s)
}

// Handle implements events.Handler.
func (s *Service) Handle(ctx context.Context, event events.Event) error {
	e, ok := event.(events.EntityChanged)
	if !ok {
		return nil
	}
	if err := s.Record(ctx, e); err != nil {
		s.log.WithContext(ctx).Error("failed to record history entry",
			"entityType", e.EntityType, "entityId", e.EntityID, "action", e.Action, "error", err)
		return err
	}
	return nil
}

// Record stores one audit event.
func (s *Service) Record(ctx context.Context, e events.EntityChanged) error {
	entry := repository.Entry{
		ID:             s.newID(),
		OrganizationID: e.OrganizationID,
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		Action:         e.Action,
		ChangedByName:  e.ChangedByName,
		Changes:        make([]repository.Change, 0, len(e.Changes)),
		CreatedAt:      e.OccurredAt().UTC(),
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if e.ChangedBy != uuid.Nil {
		by := e.ChangedBy
		entry.ChangedBy = &by
	}
	for _, c := range e.Changes {
		entry.Changes = append(entry.Changes, repository.Change{Field: c.Field, From: c.From, To: c.To})
	}
	return s.store.Create(ctx, entry)
}

// List returns an entity's history, newest first.
func (s *Service) List(ctx context.Context, organizationID uuid.UUID, entityType, entityID string, limit int) ([]repository.Entry, error) {
	if entityType == "" || entityID == "" {
		return nil, apperr.Validation("entity type and id are required")
	}
	switch {
	case limit <= 0:
		limit = defaultLimit
	case limit > maxLimit:
		limit = maxLimit
	}
	entries, err := s.store.ListForEntity(ctx, organizationID, entityType, entityID, limit)
	if err != nil {
		return nil, apperr.Dependency("failed to read history", err)
	}
	return entries, nil
}
