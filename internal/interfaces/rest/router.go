package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/interfaces/middleware"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/auth"
)

// Services is everything the router dispatches to
type Services struct {
	Pipelines PipelineService
	Boards    BoardService
	Dashboard DashboardService
	Sweeper   SweepService
	Entities  EntityService
	Catalog   CatalogService
}

// entityCollections maps route prefixes to record types
var entityCollections = []struct {
	path string
	typ  models.EntityType
}{
	{"/people", models.EntityPeople},
	{"/companies", models.EntityCompany},
	{"/deals", models.EntityDeal},
	{"/customers", models.EntityCustomers},
}

// NewRouter builds the gin engine with every API route registered
func NewRouter(svc Services, tokens *auth.TokenManager) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"server": "pipeline-engine",
		})
	})

	pipelineHandler := NewPipelineHandler(svc.Pipelines, svc.Boards)
	dashboardHandler := NewDashboardHandler(svc.Dashboard, svc.Sweeper)
	catalogHandler := NewCatalogHandler(svc.Catalog)

	api := router.Group("/api")
	api.Use(middleware.RequireTenant(tokens))
	{
		pipelines := api.Group("/pipelines")
		{
			pipelines.GET("", pipelineHandler.List)
			pipelines.POST("", pipelineHandler.Create)
			pipelines.GET("/view/:viewId", pipelineHandler.GetByView)
			pipelines.GET("/:id", pipelineHandler.Get)
			pipelines.PUT("/:id", pipelineHandler.Update)
			pipelines.DELETE("/:id", pipelineHandler.Delete)
			pipelines.PUT("/:id/stages/reorder", pipelineHandler.ReorderStages)
			pipelines.DELETE("/:id/stages/:stageId", pipelineHandler.RemoveStage)
			pipelines.GET("/:id/board", pipelineHandler.Board)
			pipelines.POST("/:id/move", pipelineHandler.MoveEntity)
			pipelines.DELETE("/:id/entities/:type/:entityId", pipelineHandler.DetachEntity)
		}

		api.GET("/entities/:type/:entityId/pipelines", pipelineHandler.EntityPipelines)
		api.GET("/dashboard", dashboardHandler.Stats)
		api.POST("/maintenance/sweep", dashboardHandler.Sweep)

		for _, coll := range entityCollections {
			h := NewEntityHandler(svc.Entities, coll.typ)
			g := api.Group(coll.path)
			g.GET("", h.List)
			g.POST("", h.Create)
			g.GET("/:id", h.Get)
			g.PUT("/:id", h.Update)
			g.DELETE("/:id", h.Delete)
		}

		groups := api.Group("/groups")
		{
			groups.GET("", catalogHandler.ListGroups)
			groups.POST("", catalogHandler.CreateGroup)
			groups.POST("/customers", catalogHandler.EnsureCustomersGroup)
			groups.GET("/:id", catalogHandler.GetGroup)
			groups.DELETE("/:id", catalogHandler.DeleteGroup)
		}
		api.DELETE("/views/:id", catalogHandler.DeleteView)
	}

	return router
}
