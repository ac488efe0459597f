package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
)

// CatalogService manages groups and views
type CatalogService interface {
	CreateGroup(ctx context.Context, orgID, name string, manageType models.EntityType) (*models.Group, error)
	EnsureDefaultCustomersGroup(ctx context.Context, orgID string) (*models.Group, error)
	GetGroup(ctx context.Context, orgID, id string) (*models.Group, error)
	ListGroups(ctx context.Context, orgID string) ([]*models.Group, error)
	DeleteGroup(ctx context.Context, orgID, id string) error
	DeleteView(ctx context.Context, orgID, id string) error
}

// CatalogHandler handles group and view endpoints
type CatalogHandler struct {
	svc CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// CreateGroupRequest is the body of POST /api/groups
type CreateGroupRequest struct {
	Name       string `json:"name" binding:"required"`
	ManageType string `json:"manage_type" binding:"required"`
}

// ListGroups handles GET /api/groups
func (h *CatalogHandler) ListGroups(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "groups", func() (interface{}, error) {
		return h.svc.ListGroups(c.Request.Context(), tenant.OrganizationID)
	})
}

// GetGroup handles GET /api/groups/:id
func (h *CatalogHandler) GetGroup(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "group", func() (interface{}, error) {
		return h.svc.GetGroup(c.Request.Context(), tenant.OrganizationID, c.Param("id"))
	})
}

// CreateGroup handles POST /api/groups
func (h *CatalogHandler) CreateGroup(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var req CreateGroupRequest
	if !BindJSON(c, &req) {
		return
	}
	manageType, err := models.ParseEntityType(req.ManageType)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	g, err := h.svc.CreateGroup(c.Request.Context(), tenant.OrganizationID, req.Name, manageType)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Group created", "group", g)
}

// EnsureCustomersGroup handles POST /api/groups/customers
func (h *CatalogHandler) EnsureCustomersGroup(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "group", func() (interface{}, error) {
		return h.svc.EnsureDefaultCustomersGroup(c.Request.Context(), tenant.OrganizationID)
	})
}

// DeleteGroup handles DELETE /api/groups/:id
func (h *CatalogHandler) DeleteGroup(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleDeleteEnvelope(c, "Group deleted", func() error {
		return h.svc.DeleteGroup(c.Request.Context(), tenant.OrganizationID, c.Param("id"))
	})
}

// DeleteView handles DELETE /api/views/:id
func (h *CatalogHandler) DeleteView(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleDeleteEnvelope(c, "View deleted", func() error {
		return h.svc.DeleteView(c.Request.Context(), tenant.OrganizationID, c.Param("id"))
	})
}
