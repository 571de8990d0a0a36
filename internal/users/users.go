// Package users resolves the actor behind a request. Other domains depend on
// the Provider interface only.
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"maintenance_backend/platform/httpkit"
	"maintenance_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Actor identifies who performed a change.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// System is the actor recorded for changes made by background jobs.
var System = Actor{ID: uuid.Nil, Name: "system"}

// IsSystem reports whether the actor is the background job actor.
func (a Actor) IsSystem() bool {
	return a.ID == uuid.Nil
}

// Provider returns the current actor.
type Provider interface {
	CurrentUser(ctx context.Context) (Actor, error)
}

// NameReader looks up a display name for a user.
type NameReader interface {
	GetDisplayName(ctx context.Context, userID uuid.UUID) (string, error)
}

// ContextProvider reads the authenticated user from the request context and
// falls back to the system actor when none is present.
type ContextProvider struct {
	names NameReader
	log   *logger.Logger
}

// NewContextProvider creates a provider. names may be nil.
func NewContextProvider(names NameReader, log *logger.Logger) *ContextProvider {
	if log == nil {
		log = logger.Discard()
	}
	return &ContextProvider{names: names, log: log}
}

// CurrentUser implements Provider.
func (p *ContextProvider) CurrentUser(ctx context.Context) (Actor, error) {
	raw, _ := ctx.Value(logger.UserIDKey).(string)
	if raw == "" {
		return System, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return Actor{}, fmt.Errorf("invalid user id in context: %w", err)
	}

	if name, _ := ctx.Value(httpkit.UserNameKey).(string); strings.TrimSpace(name) != "" {
		return Actor{ID: id, Name: name}, nil
	}
	if p.names == nil {
		return Actor{ID: id}, nil
	}

	name, err := p.names.GetDisplayName(ctx, id)
	if err != nil {
		p.log.WithContext(ctx).Warn("failed to resolve user name", "error", err)
		return Actor{ID: id}, nil
	}
	return Actor{ID: id, Name: name}, nil
}

// WithActor returns ctx carrying actor as the authenticated user. Used by
// background callers that act on behalf of a user.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if actor.IsSystem() {
		return ctx
	}
	ctx = context.WithValue(ctx, logger.UserIDKey, actor.ID.String())
	if actor.Name != "" {
		ctx = context.WithValue(ctx, httpkit.UserNameKey, actor.Name)
	}
	return ctx
}

// Repository reads user names from the users table.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new users repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetDisplayName returns the display name, or first and last name joined.
func (r *Repository) GetDisplayName(ctx context.Context, userID uuid.UUID) (string, error) {
	var display, first, last *string
	err := r.pool.QueryRow(ctx,
		`SELECT display_name, first_name, last_name FROM users WHERE id = $1`, userID,
	).Scan(&display, &first, &last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("user %s not found", userID)
		}
		return "", fmt.Errorf("failed to get user name: %w", err)
	}
	return composeName(display, first, last), nil
}

func composeName(display, first, last *string) string {
	if display != nil && strings.TrimSpace(*display) != "" {
		return strings.TrimSpace(*display)
	}
	parts := make([]string, 0, 2)
	for _, p := range []*string{first, last} {
		if p != nil && strings.TrimSpace(*p) != "" {
			parts = append(parts, strings.TrimSpace(*p))
		}
	}
	return strings.Join(parts, " ")
}

var _ Provider = (*ContextProvider)(nil)
