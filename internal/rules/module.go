// Package rules provides the maintenance rule module: rule CRUD, schedule
// materialization and completion rescheduling.
package rules

import (
	"maintenance_backend/internal/events"
	apphttp "maintenance_backend/internal/http"
	"maintenance_backend/internal/rules/handler"
	"maintenance_backend/internal/rules/repository"
	"maintenance_backend/internal/rules/service"
	"maintenance_backend/internal/users"
	"maintenance_backend/platform/config"
	"maintenance_backend/platform/logger"
	"maintenance_backend/platform/metrics"
	"maintenance_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the maintenance rules domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new rules module with all dependencies wired
func NewModule(
	pool *pgxpool.Pool,
	val *validator.Validator,
	cfg config.PlanningConfig,
	assets service.AssetResolver,
	scheduler service.WorkOrderScheduler,
	userProvider users.Provider,
	eventBus events.Bus,
	rec *metrics.Recorder,
	log *logger.Logger,
) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, assets, scheduler, userProvider, eventBus, rec, log, cfg.GetMaterializationHorizon())
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "rules"
}

// RegisterRoutes registers the module's routes under /api/v1/rules
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rules := ctx.Protected.Group("/rules")
	m.handler.RegisterRoutes(rules)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
