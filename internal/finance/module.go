// Package finance provides the financial state domain module: payment
// allocation, invoice classification, job status derivation and client-level
// rollups.
package finance

import (
	"backoffice_backend/internal/events"
	"backoffice_backend/internal/finance/handler"
	"backoffice_backend/internal/finance/repository"
	"backoffice_backend/internal/finance/service"
	apphttp "backoffice_backend/internal/http"
	"backoffice_backend/platform/logger"
	"backoffice_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the finance domain module
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates a new finance module with all dependencies wired
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, cfg service.Config, log *logger.Logger, val *validator.Validator) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log, cfg)
	svc.SetEventBus(eventBus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "finance"
}

// Service returns the service layer for external use
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes registers the module's routes
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterClientRoutes(ctx.V1.Group("/clients"))
	m.handler.RegisterJobRoutes(ctx.V1.Group("/jobs"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
