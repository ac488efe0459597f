package rest

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/application/services"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/utils"
)

// PipelineService defines the pipeline operations the handler needs
type PipelineService interface {
	Create(ctx context.Context, orgID string, in services.CreatePipelineInput) (*models.Pipeline, error)
	Get(ctx context.Context, orgID, id string) (*models.Pipeline, error)
	GetByView(ctx context.Context, orgID, viewID string) (*models.Pipeline, error)
	List(ctx context.Context, orgID string, manageType models.EntityType) ([]*models.Pipeline, error)
	Update(ctx context.Context, orgID, id, name string, stages []models.StageInput) (*models.Pipeline, error)
	RemoveStage(ctx context.Context, orgID, id string, stageID int) (*models.Pipeline, error)
	ReorderStages(ctx context.Context, orgID, id string, stages []models.StageInput) (*models.Pipeline, error)
	MoveEntity(ctx context.Context, orgID, id string, entityType models.EntityType, entityID string, toStageID int) (*models.Pipeline, error)
	DetachEntity(ctx context.Context, orgID, id string, entityType models.EntityType, entityID string) (*models.Pipeline, error)
	Delete(ctx context.Context, orgID, id string) error
	ListPipelinesContaining(ctx context.Context, orgID string, entityType models.EntityType, entityID string) ([]models.PipelineMembership, error)
}

// BoardService renders a pipeline with its records joined
type BoardService interface {
	Board(ctx context.Context, orgID, pipelineID string) (*models.Board, error)
}

// PipelineHandler handles pipeline and board endpoints
type PipelineHandler struct {
	svc    PipelineService
	boards BoardService
}

// NewPipelineHandler creates a new PipelineHandler
func NewPipelineHandler(svc PipelineService, boards BoardService) *PipelineHandler {
	return &PipelineHandler{svc: svc, boards: boards}
}

// ============================================================================
// Request Types
// ============================================================================

// CreatePipelineRequest is the body of POST /api/pipelines
type CreatePipelineRequest struct {
	ViewID     string              `json:"view_id" binding:"required"`
	Name       string              `json:"name" binding:"required"`
	ManageType string              `json:"manage_type" binding:"required"`
	Stages     []models.StageInput `json:"stages"`
}

// UpdatePipelineRequest is the body of PUT /api/pipelines/:id
type UpdatePipelineRequest struct {
	Name   string              `json:"name"`
	Stages []models.StageInput `json:"stages"`
}

// ReorderStagesRequest is the body of PUT /api/pipelines/:id/stages/reorder
type ReorderStagesRequest struct {
	Stages []models.StageInput `json:"stages" binding:"required"`
}

// MoveEntityRequest is the body of POST /api/pipelines/:id/move. entity_id
// and to_stage_id may be strings or numbers. Stage id 0 is a valid target.
type MoveEntityRequest struct {
	EntityType string      `json:"entity_type" binding:"required"`
	EntityID   interface{} `json:"entity_id" binding:"required"`
	ToStageID  interface{} `json:"to_stage_id"`
}

// stageID coerces to_stage_id the way stored stage documents are decoded
func (r *MoveEntityRequest) stageID() (int, error) {
	if r.ToStageID == nil {
		return 0, errors.NewValidationError("to_stage_id", "to_stage_id is required")
	}
	id, err := utils.ToInt(r.ToStageID)
	if err != nil {
		return 0, errors.NewValidationError("to_stage_id", "to_stage_id must be a number")
	}
	return id, nil
}

// ============================================================================
// Endpoints
// ============================================================================

// List handles GET /api/pipelines
func (h *PipelineHandler) List(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var manageType models.EntityType
	if raw := c.Query("manage_type"); raw != "" {
		t, err := models.ParseEntityType(raw)
		if err != nil {
			RespondAppError(c, err)
			return
		}
		manageType = t
	}
	HandleGetEnvelope(c, "pipelines", func() (interface{}, error) {
		return h.svc.List(c.Request.Context(), tenant.OrganizationID, manageType)
	})
}

// Create handles POST /api/pipelines
func (h *PipelineHandler) Create(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var req CreatePipelineRequest
	if !BindJSON(c, &req) {
		return
	}
	manageType, err := models.ParseEntityType(req.ManageType)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	p, err := h.svc.Create(c.Request.Context(), tenant.OrganizationID, services.CreatePipelineInput{
		ViewID:     req.ViewID,
		Name:       req.Name,
		ManageType: manageType,
		Stages:     req.Stages,
	})
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusCreated, "Pipeline created", "pipeline", p)
}

// Get handles GET /api/pipelines/:id
func (h *PipelineHandler) Get(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "pipeline", func() (interface{}, error) {
		return h.svc.Get(c.Request.Context(), tenant.OrganizationID, c.Param("id"))
	})
}

// GetByView handles GET /api/pipelines/view/:viewId
func (h *PipelineHandler) GetByView(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "pipeline", func() (interface{}, error) {
		return h.svc.GetByView(c.Request.Context(), tenant.OrganizationID, c.Param("viewId"))
	})
}

// Update handles PUT /api/pipelines/:id
func (h *PipelineHandler) Update(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var req UpdatePipelineRequest
	if !BindJSON(c, &req) {
		return
	}
	p, err := h.svc.Update(c.Request.Context(), tenant.OrganizationID, c.Param("id"), req.Name, req.Stages)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Pipeline updated", "pipeline", p)
}

// Delete handles DELETE /api/pipelines/:id
func (h *PipelineHandler) Delete(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleDeleteEnvelope(c, "Pipeline deleted", func() error {
		return h.svc.Delete(c.Request.Context(), tenant.OrganizationID, c.Param("id"))
	})
}

// RemoveStage handles DELETE /api/pipelines/:id/stages/:stageId
func (h *PipelineHandler) RemoveStage(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	stageID, ok := intParam(c, "stageId")
	if !ok {
		return
	}
	p, err := h.svc.RemoveStage(c.Request.Context(), tenant.OrganizationID, c.Param("id"), stageID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Stage removed", "pipeline", p)
}

// ReorderStages handles PUT /api/pipelines/:id/stages/reorder
func (h *PipelineHandler) ReorderStages(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var req ReorderStagesRequest
	if !BindJSON(c, &req) {
		return
	}
	p, err := h.svc.ReorderStages(c.Request.Context(), tenant.OrganizationID, c.Param("id"), req.Stages)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Stages reordered", "pipeline", p)
}

// Board handles GET /api/pipelines/:id/board
func (h *PipelineHandler) Board(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	HandleGetEnvelope(c, "board", func() (interface{}, error) {
		return h.boards.Board(c.Request.Context(), tenant.OrganizationID, c.Param("id"))
	})
}

// MoveEntity handles POST /api/pipelines/:id/move
func (h *PipelineHandler) MoveEntity(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	var req MoveEntityRequest
	if !BindJSON(c, &req) {
		return
	}
	entityType, err := models.ParseEntityType(req.EntityType)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	toStageID, err := req.stageID()
	if err != nil {
		RespondAppError(c, err)
		return
	}

	p, err := h.svc.MoveEntity(c.Request.Context(), tenant.OrganizationID, c.Param("id"), entityType, utils.ToString(req.EntityID), toStageID)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Entity added to pipeline", "pipeline", p)
}

// DetachEntity handles DELETE /api/pipelines/:id/entities/:type/:entityId
func (h *PipelineHandler) DetachEntity(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	entityType, ok := entityTypeParam(c, "type")
	if !ok {
		return
	}
	p, err := h.svc.DetachEntity(c.Request.Context(), tenant.OrganizationID, c.Param("id"), entityType, c.Param("entityId"))
	if err != nil {
		RespondAppError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Entity removed from pipeline", "pipeline", p)
}

// EntityPipelines handles GET /api/entities/:type/:entityId/pipelines
func (h *PipelineHandler) EntityPipelines(c *gin.Context) {
	tenant, ok := requireTenant(c)
	if !ok {
		return
	}
	entityType, ok := entityTypeParam(c, "type")
	if !ok {
		return
	}
	HandleGetEnvelope(c, "pipelines", func() (interface{}, error) {
		return h.svc.ListPipelinesContaining(c.Request.Context(), tenant.OrganizationID, entityType, c.Param("entityId"))
	})
}
