// Package bookings provides the asset booking calendar module.
package bookings

import (
	"maintenance_backend/internal/bookings/handler"
	"maintenance_backend/internal/bookings/repository"
	"maintenance_backend/internal/bookings/service"
	"maintenance_backend/internal/events"
	apphttp "maintenance_backend/internal/http"
	"maintenance_backend/internal/users"
	"maintenance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the bookings domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new bookings module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, userProvider users.Provider, eventBus events.Bus) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, userProvider, eventBus)

	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "bookings"
}

// RegisterRoutes registers the module's routes under /api/v1/bookings
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/bookings"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
