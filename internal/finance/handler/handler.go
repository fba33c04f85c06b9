// Package handler exposes the finance module over HTTP.
package handler

import (
	"net/http"

	"backoffice_backend/internal/finance/service"
	"backoffice_backend/internal/finance/transport"
	"backoffice_backend/platform/httpkit"
	"backoffice_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidID      = "invalid id"
	msgInvalidRequest = "invalid request"
)

// Handler handles HTTP requests for financial state.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new finance handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterClientRoutes registers the client-scoped finance routes.
func (h *Handler) RegisterClientRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/financial-summary", h.GetClientSummary)
	rg.GET("/:id/indicators", h.GetClientIndicators)
}

// RegisterJobRoutes registers the job-scoped finance routes.
func (h *Handler) RegisterJobRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/financial-state", h.GetJobState)
	rg.GET("/:id/invoices", h.ListJobInvoices)
}

// GetClientSummary handles GET /api/v1/clients/:id/financial-summary
func (h *Handler) GetClientSummary(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.ClientFinancialSummary(c.Request.Context(), clientID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetClientIndicators handles GET /api/v1/clients/:id/indicators
func (h *Handler) GetClientIndicators(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.ClientIndicators(c.Request.Context(), clientID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// GetJobState handles GET /api/v1/jobs/:id/financial-state
func (h *Handler) GetJobState(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	result, err := h.svc.JobFinancialState(c.Request.Context(), jobID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, result)
}

// ListJobInvoices handles GET /api/v1/jobs/:id/invoices
func (h *Handler) ListJobInvoices(c *gin.Context) {
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}

	var query transport.ListInvoicesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(query); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	result, err := h.svc.JobInvoices(c.Request.Context(), jobID)
	if httpkit.HandleError(c, err) {
		return
	}

	if query.Kind != "" {
		filtered := result.Invoices[:0]
		for _, inv := range result.Invoices {
			if inv.Kind == query.Kind {
				filtered = append(filtered, inv)
			}
		}
		result.Invoices = filtered
	}

	httpkit.OK(c, result)
}
