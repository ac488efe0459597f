package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/application/services"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
)

// DashboardService computes the organization dashboard
type DashboardService interface {
	Stats(ctx context.Context, orgID string) (*models.DashboardStats, error)
}

// SweepService removes dangling pipeline refs on demand
type SweepService interface {
	SweepOrganization(ctx context.Context, orgID string) (*services.SweepResult, error)
}

// DashboardHandler serves analytics and maintenance endpoints
type DashboardHandler struct {
	svc     DashboardService
	sweeper SweepService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(svc DashboardService, sweeper SweepService) *DashboardHandler {
	return &DashboardHandler{svc: svc, sweeper: sweeper}
}

// Stats handles GET /api/dashboard. The stats object is the response body.
func (h *DashboardHandler) Stats(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	stats, err := h.svc.Stats(c.Request.Context(), tenant.OrganizationID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Sweep handles POST /api/maintenance/sweep
func (h *DashboardHandler) Sweep(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	res, err := h.sweeper.SweepOrganization(c.Request.Context(), tenant.OrganizationID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Sweep complete", "result", res)
}
