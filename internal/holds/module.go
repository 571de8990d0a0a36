// Package holds provides maintenance calendar holds and their reconciliation
// with the booking calendar.
package holds

import (
	"maintenance_backend/internal/holds/handler"
	"maintenance_backend/internal/holds/repository"
	"maintenance_backend/internal/holds/service"
	apphttp "maintenance_backend/internal/http"
	"maintenance_backend/platform/logger"
	"maintenance_backend/platform/metrics"
	"maintenance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the calendar holds module
type Module struct {
	handler      *handler.Handler
	Service      *service.Service
	Synchronizer *service.Synchronizer
}

// NewModule creates a new holds module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, bookings service.BookingClient, rec *metrics.Recorder, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)

	return &Module{
		handler:      handler.New(svc, val),
		Service:      svc,
		Synchronizer: service.NewSynchronizer(repo, bookings, rec, log),
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "holds"
}

// RegisterRoutes registers the module's routes under /api/v1/holds
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/holds"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
