package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/application/services"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
)

// EntityService defines CRUD over the record tables
type EntityService interface {
	List(ctx context.Context, orgID string, t models.EntityType) ([]models.Entity, error)
	Get(ctx context.Context, orgID string, t models.EntityType, id string) (models.Entity, error)
	Create(ctx context.Context, orgID, createdBy string, t models.EntityType, fields services.Patch) (models.Entity, error)
	Update(ctx context.Context, orgID string, t models.EntityType, id string, patch services.Patch) (models.Entity, error)
	Delete(ctx context.Context, orgID string, t models.EntityType, id string) (int, error)
}

// EntityHandler serves one record collection, e.g. /api/deals
type EntityHandler struct {
	svc EntityService
	typ models.EntityType
}

// NewEntityHandler creates a handler for records of type t
func NewEntityHandler(svc EntityService, t models.EntityType) *EntityHandler {
	return &EntityHandler{svc: svc, typ: t}
}

// List handles GET /api/<collection>
func (h *EntityHandler) List(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.svc.List(c.Request.Context(), tenant.OrganizationID, h.typ)
	})
}

// Get handles GET /api/<collection>/:id
func (h *EntityHandler) Get(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "data", func() (interface{}, error) {
		return h.svc.Get(c.Request.Context(), tenant.OrganizationID, h.typ, c.Param("id"))
	})
}

// Create handles POST /api/<collection>
func (h *EntityHandler) Create(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var fields services.Patch
	if !BindJSON(c, &fields) {
		return
	}
	e, err := h.svc.Create(c.Request.Context(), tenant.OrganizationID, tenant.UserID, h.typ, fields)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Record created", "data", e)
}

// Update handles PUT /api/<collection>/:id
func (h *EntityHandler) Update(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var patch services.Patch
	if !BindJSON(c, &patch) {
		return
	}
	e, err := h.svc.Update(c.Request.Context(), tenant.OrganizationID, h.typ, c.Param("id"), patch)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Record updated", "data", e)
}

// Delete handles DELETE /api/<collection>/:id. The response reports how
// many pipeline refs were purged along with the record.
func (h *EntityHandler) Delete(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	purged, err := h.svc.Delete(c.Request.Context(), tenant.OrganizationID, h.typ, c.Param("id"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Record deleted", "refs_purged", purged)
}
