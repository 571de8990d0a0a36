// Package workorders provides the work order lifecycle module.
package workorders

import (
	"maintenance_backend/internal/events"
	apphttp "maintenance_backend/internal/http"
	"maintenance_backend/internal/users"
	"maintenance_backend/internal/workorders/handler"
	"maintenance_backend/internal/workorders/repository"
	"maintenance_backend/internal/workorders/service"
	"maintenance_backend/platform/logger"
	"maintenance_backend/platform/metrics"
	"maintenance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the work orders domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new work orders module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, userProvider users.Provider, eventBus events.Bus, rec *metrics.Recorder, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, userProvider, eventBus, rec, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// SetSweepEnqueuer routes on-demand activation sweeps through the task queue.
func (m *Module) SetSweepEnqueuer(enqueuer handler.SweepEnqueuer) {
	m.handler.SetSweepEnqueuer(enqueuer)
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "workorders"
}

// RegisterRoutes registers the module's routes under /api/v1/work-orders
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	workOrders := ctx.Protected.Group("/work-orders")
	m.handler.RegisterRoutes(workOrders)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
