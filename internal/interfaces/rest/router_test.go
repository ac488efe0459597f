package rest_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/application/services"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/interfaces/rest"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/auth"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
)

const org = "org-1"

type harness struct {
	router    *gin.Engine
	token     string
	pipelines *MockPipelineService
	entities  *MockEntityService
	dashboard *MockDashboardService
	catalog   *MockCatalogService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.GenerateToken(auth.TenantSession{UserID: "user-1", OrganizationID: org})
	require.NoError(t, err)

	h := &harness{
		token:     token,
		pipelines: new(MockPipelineService),
		entities:  new(MockEntityService),
		dashboard: new(MockDashboardService),
		catalog:   new(MockCatalogService),
	}
	h.router = rest.NewRouter(rest.Services{
		Pipelines: h.pipelines,
		Boards:    h.pipelines,
		Dashboard: h.dashboard,
		Sweeper:   h.dashboard,
		Entities:  h.entities,
		Catalog:   h.catalog,
	}, tokens)
	return h
}

func (h *harness) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.HeaderAuthorization, "Bearer "+h.token)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthIsPublic(t *testing.T) {
	h := newHarness(t)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIRequiresToken(t *testing.T) {
	h := newHarness(t)
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/pipelines", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	h.pipelines.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineHandler_Create(t *testing.T) {
	h := newHarness(t)

	in := services.CreatePipelineInput{ViewID: "v1", Name: "Sales", ManageType: models.EntityDeal}
	h.pipelines.On("Create", mock.Anything, org, in).Return(&models.Pipeline{ID: "p1", Name: "Sales"}, nil).Once()

	w := h.do(http.MethodPost, "/api/pipelines", map[string]interface{}{
		"view_id": "v1", "name": "Sales", "manage_type": "deals",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, "Pipeline created", body["message"])
	assert.Equal(t, "p1", body["pipeline"].(map[string]interface{})["id"])
	h.pipelines.AssertExpectations(t)
}

func TestPipelineHandler_CreateRejectsUnknownType(t *testing.T) {
	h := newHarness(t)

	w := h.do(http.MethodPost, "/api/pipelines", map[string]interface{}{
		"view_id": "v1", "name": "Sales", "manage_type": "tickets",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])
	h.pipelines.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestPipelineHandler_MoveEntity(t *testing.T) {
	h := newHarness(t)

	h.pipelines.On("MoveEntity", mock.Anything, org, "p1", models.EntityDeal, "7", 2).
		Return(&models.Pipeline{ID: "p1"}, nil).Once()

	// numeric entity ids are accepted
	w := h.do(http.MethodPost, "/api/pipelines/p1/move", map[string]interface{}{
		"entity_type": "deal", "entity_id": 7, "to_stage_id": 2,
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Entity added to pipeline", decode(t, w)["message"])
	h.pipelines.AssertExpectations(t)
}

func TestPipelineHandler_MoveEntityStageIDForms(t *testing.T) {
	tests := []struct {
		name    string
		stageID interface{}
		want    int
	}{
		{"zero id from legacy document", 0, 0},
		{"numeric string", "3", 3},
		{"number", 4, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.pipelines.On("MoveEntity", mock.Anything, org, "p1", models.EntityDeal, "7", tt.want).
				Return(&models.Pipeline{ID: "p1"}, nil).Once()

			w := h.do(http.MethodPost, "/api/pipelines/p1/move", map[string]interface{}{
				"entity_type": "deal", "entity_id": "7", "to_stage_id": tt.stageID,
			})
			assert.Equal(t, http.StatusOK, w.Code)
			h.pipelines.AssertExpectations(t)
		})
	}
}

func TestPipelineHandler_MoveEntityBadStageID(t *testing.T) {
	for _, body := range []map[string]interface{}{
		{"entity_type": "deal", "entity_id": "7"},
		{"entity_type": "deal", "entity_id": "7", "to_stage_id": "next"},
	} {
		h := newHarness(t)
		w := h.do(http.MethodPost, "/api/pipelines/p1/move", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decode(t, w)["code"])
		h.pipelines.AssertNotCalled(t, "MoveEntity", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestPipelineHandler_MoveEntityErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"type mismatch", errors.NewTypeMismatchError("deal", "people"), http.StatusBadRequest, "TYPE_MISMATCH"},
		{"missing entity", errors.NewNotFoundError("Deal", "9"), http.StatusNotFound, "NOT_FOUND"},
		{"conflict", errors.NewStorageConflictError("Pipeline", "p1"), http.StatusConflict, "STORAGE_CONFLICT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.pipelines.On("MoveEntity", mock.Anything, org, "p1", models.EntityDeal, "9", 1).Return(nil, tt.err).Once()

			w := h.do(http.MethodPost, "/api/pipelines/p1/move", map[string]interface{}{
				"entity_type": "deal", "entity_id": "9", "to_stage_id": 1,
			})
			assert.Equal(t, tt.status, w.Code)
			body := decode(t, w)
			assert.Equal(t, tt.code, body["code"])
			assert.Equal(t, tt.err.Error(), body["error"])
			assert.Nil(t, body["data"])
		})
	}
}

func TestPipelineHandler_RemoveStage(t *testing.T) {
	h := newHarness(t)

	h.pipelines.On("RemoveStage", mock.Anything, org, "p1", 3).
		Return(nil, errors.NewInvalidStateError("Pipeline must have at least one stage")).Once()

	w := h.do(http.MethodDelete, "/api/pipelines/p1/stages/3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_STATE", decode(t, w)["code"])

	w = h.do(http.MethodDelete, "/api/pipelines/p1/stages/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	h.pipelines.AssertExpectations(t)
}

func TestPipelineHandler_UpdateAndReorder(t *testing.T) {
	h := newHarness(t)

	one, two := 1, 2
	update := []models.StageInput{{ID: &one, Name: "A", Order: 0}, {Name: "New", Order: 1}}
	h.pipelines.On("Update", mock.Anything, org, "p1", "Renamed", update).Return(&models.Pipeline{ID: "p1"}, nil).Once()
	reorder := []models.StageInput{{ID: &two, Order: 0}, {ID: &one, Order: 1}}
	h.pipelines.On("ReorderStages", mock.Anything, org, "p1", reorder).Return(&models.Pipeline{ID: "p1"}, nil).Once()

	w := h.do(http.MethodPut, "/api/pipelines/p1", map[string]interface{}{
		"name":   "Renamed",
		"stages": []map[string]interface{}{{"id": 1, "name": "A", "order": 0}, {"name": "New", "order": 1}},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// rename only: stages are left alone
	h.pipelines.On("Update", mock.Anything, org, "p1", "Just a name", []models.StageInput(nil)).Return(&models.Pipeline{ID: "p1"}, nil).Once()
	w = h.do(http.MethodPut, "/api/pipelines/p1", map[string]interface{}{"name": "Just a name"})
	assert.Equal(t, http.StatusOK, w.Code)

	// legacy clients send ids as strings
	w = h.do(http.MethodPut, "/api/pipelines/p1/stages/reorder", map[string]interface{}{
		"stages": []map[string]interface{}{{"id": "2", "order": 0}, {"id": 1, "order": "1"}},
	})
	assert.Equal(t, http.StatusOK, w.Code)
	h.pipelines.AssertExpectations(t)
}

func TestPipelineHandler_ListAndLookups(t *testing.T) {
	h := newHarness(t)

	h.pipelines.On("List", mock.Anything, org, models.EntityPeople).Return([]*models.Pipeline{{ID: "p1"}}, nil).Once()
	h.pipelines.On("GetByView", mock.Anything, org, "v9").Return(&models.Pipeline{ID: "p9"}, nil).Once()
	h.pipelines.On("Board", mock.Anything, org, "p1").Return(&models.Board{PipelineID: "p1"}, nil).Once()
	h.pipelines.On("ListPipelinesContaining", mock.Anything, org, models.EntityCompany, "c1").
		Return([]models.PipelineMembership{{PipelineID: "p1", StageName: "Won"}}, nil).Once()
	h.pipelines.On("DetachEntity", mock.Anything, org, "p1", models.EntityCompany, "c1").Return(&models.Pipeline{ID: "p1"}, nil).Once()
	h.pipelines.On("Delete", mock.Anything, org, "p1").Return(nil).Once()

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/pipelines?manage_type=people", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/pipelines/view/v9", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/pipelines/p1/board", nil).Code)

	w := h.do(http.MethodGet, "/api/entities/companies/c1/pipelines", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["pipelines"], 1)

	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/pipelines/p1/entities/company/c1", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/pipelines/p1", nil).Code)
	h.pipelines.AssertExpectations(t)
}

func TestEntityHandler_CRUD(t *testing.T) {
	h := newHarness(t)

	deal := &models.Deal{ID: "d1", Title: "Big"}
	fields := services.Patch{"title": "Big"}
	h.entities.On("Create", mock.Anything, org, "user-1", models.EntityDeal, fields).Return(deal, nil).Once()
	h.entities.On("Get", mock.Anything, org, models.EntityDeal, "d1").Return(deal, nil).Once()
	h.entities.On("Delete", mock.Anything, org, models.EntityDeal, "d1").Return(2, nil).Once()
	h.entities.On("Get", mock.Anything, org, models.EntityPeople, "nobody").Return(nil, errors.NewNotFoundError("Person", "nobody")).Once()

	w := h.do(http.MethodPost, "/api/deals", fields)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = h.do(http.MethodGet, "/api/deals/d1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Big", decode(t, w)["data"].(map[string]interface{})["title"])

	w = h.do(http.MethodDelete, "/api/deals/d1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2.0, decode(t, w)["refs_purged"])

	w = h.do(http.MethodGet, "/api/people/nobody", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	h.entities.AssertExpectations(t)
}

func TestDashboardHandler(t *testing.T) {
	h := newHarness(t)

	stats := &models.DashboardStats{Metrics: models.DashboardMetrics{TotalLeads: 2, TotalRevenue: 8000}}
	h.dashboard.On("Stats", mock.Anything, org).Return(stats, nil).Once()
	h.dashboard.On("SweepOrganization", mock.Anything, org).Return(&services.SweepResult{OrganizationID: org, RefsRemoved: 3}, nil).Once()

	w := h.do(http.MethodGet, "/api/dashboard", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	metrics := decode(t, w)["metrics"].(map[string]interface{})
	assert.Equal(t, 8000.0, metrics["totalRevenue"])

	w = h.do(http.MethodPost, "/api/maintenance/sweep", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3.0, decode(t, w)["result"].(map[string]interface{})["refs_removed"])
	h.dashboard.AssertExpectations(t)
}

func TestCatalogHandler(t *testing.T) {
	h := newHarness(t)

	h.catalog.On("CreateGroup", mock.Anything, org, "Enterprise", models.EntityCompany).Return(&models.Group{ID: "g1"}, nil).Once()
	h.catalog.On("CreateGroup", mock.Anything, org, "Enterprise", models.EntityCompany).
		Return(nil, errors.NewDuplicateNameError("Group", "Enterprise", "organization")).Once()
	h.catalog.On("EnsureDefaultCustomersGroup", mock.Anything, org).Return(&models.Group{ID: "g2"}, nil).Once()
	h.catalog.On("DeleteView", mock.Anything, org, "v1").Return(nil).Once()

	body := map[string]interface{}{"name": "Enterprise", "manage_type": "companies"}
	assert.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/groups", body).Code)
	w := h.do(http.MethodPost, "/api/groups", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_NAME", decode(t, w)["code"])

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/groups/customers", nil).Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/views/v1", nil).Code)
	h.catalog.AssertExpectations(t)
}
