package transport

import (
	"time"

	"maintenance_backend/internal/history/repository"

	"github.com/google/uuid"
)

// ListHistoryRequest is the query for GET /history/:entityType/:entityId.
type ListHistoryRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}

// ChangeResponse is one changed attribute.
type ChangeResponse struct {
	Field string `json:"field"`
	From  any    `json:"from,omitempty"`
	To    any    `json:"to,omitempty"`
}

// EntryResponse is the API representation of a history entry.
type EntryResponse struct {
	ID            uuid.UUID        `json:"id"`
	EntityType    string           `json:"entityType"`
	EntityID      string           `json:"entityId"`
	Action        string           `json:"action"`
	ChangedBy     *uuid.UUID       `json:"changedBy,omitempty"`
	ChangedByName string           `json:"changedByName,omitempty"`
	Changes       []ChangeResponse `json:"changes"`
	CreatedAt     time.Time        `json:"createdAt"`
}

// HistoryResponse wraps an entity's history.
type HistoryResponse struct {
	Items []EntryResponse `json:"items"`
}

// ToResponse maps history entries to their API representation.
func ToResponse(entries []repository.Entry) HistoryResponse {
	items := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		changes := make([]ChangeResponse, 0, len(e.Changes))
		for _, c := range e.Changes {
			changes = append(changes, ChangeResponse(c))
		}
		items = append(items, EntryResponse{
			ID:            e.ID,
			EntityType:    e.EntityType,
			EntityID:      e.EntityID,
			Action:        e.Action,
			ChangedBy:     e.ChangedBy,
			ChangedByName: e.ChangedByName,
			Changes:       changes,
			CreatedAt:     e.CreatedAt,
		})
	}
	return HistoryResponse{Items: items}
}
