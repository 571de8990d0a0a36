// Package history provides the audit trail of rules, work orders and bookings.
package history

import (
	"maintenance_backend/internal/events"
	"maintenance_backend/internal/history/handler"
	"maintenance_backend/internal/history/repository"
	"maintenance_backend/internal/history/service"
	apphttp "maintenance_backend/internal/http"
	"maintenance_backend/platform/logger"
	"maintenance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the history domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new history module and subscribes it to audit events.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, bus events.Bus, log *logger.Logger) *Module {
	svc := service.New(repository.New(pool), log)
	if bus != nil {
		svc.Subscribe(bus)
	}
	return &Module{
		handler: handler.New(svc, val),
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "history"
}

// RegisterRoutes registers the module's routes under /api/v1/history
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	history := ctx.Protected.Group("/history")
	m.handler.RegisterRoutes(history)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
