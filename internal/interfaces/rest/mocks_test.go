package rest_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/application/services"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
)

// MockPipelineService is a mock implementation of rest.PipelineService and rest.BoardService
type MockPipelineService struct {
	mock.Mock
}

func (m *MockPipelineService) pipeline(args mock.Arguments) (*models.Pipeline, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Pipeline), args.Error(1)
}

func (m *MockPipelineService) Create(ctx context.Context, orgID string, in services.CreatePipelineInput) (*models.Pipeline, error) {
	return m.pipeline(m.Called(ctx, orgID, in))
}

func (m *MockPipelineService) Get(ctx context.Context, orgID, id string) (*models.Pipeline, error) {
	return m.pipeline(m.Called(ctx, orgID, id))
}

func (m *MockPipelineService) GetByView(ctx context.Context, orgID, viewID string) (*models.Pipeline, error) {
	return m.pipeline(m.Called(ctx, orgID, viewID))
}

func (m *MockPipelineService) List(ctx context.Context, orgID string, manageType models.EntityType) ([]*models.Pipeline, error) {
	args := m.Called(ctx, orgID, manageType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Pipeline), args.Error(1)
}

func (m *MockPipelineService) Update(ctx context.Context, orgID, id, name string, stages []models.StageInput) (*models.Pipeline, error) {
	return m.pipeline(m.Called(ctx, orgID, id, name, stages))
}

func (m *MockPipelineService) RemoveStage(ctx context.Context, orgID, id string, stageID int) (*models.Pipeline, error) {
	return m.pipeline(m.Called(ctx, orgID, id, stageID))
}

func (m *MockPipelineService) ReorderStages(ctx context.Context, orgID, id string, stages []models.StageInput) (*models.Pipeline, error) {
	return m.pipeline(m.Called(ctx, orgID, id, stages))
}

func (m *MockPipelineService) MoveEntity(ctx context.Context, orgID, id string, entityType models.EntityType, entityID string, toStageID int) (*models.Pipeline, error) {
	return m.pipeline(m.Called(ctx, orgID, id, entityType, entityID, toStageID))
}

func (m *MockPipelineService) DetachEntity(ctx context.Context, orgID, id string, entityType models.EntityType, entityID string) (*models.Pipeline, error) {
	return m.pipeline(m.Called(ctx, orgID, id, entityType, entityID))
}

func (m *MockPipelineService) Delete(ctx context.Context, orgID, id string) error {
	return m.Called(ctx, orgID, id).Error(0)
}

func (m *MockPipelineService) ListPipelinesContaining(ctx context.Context, orgID string, entityType models.EntityType, entityID string) ([]models.PipelineMembership, error) {
	args := m.Called(ctx, orgID, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PipelineMembership), args.Error(1)
}

func (m *MockPipelineService) Board(ctx context.Context, orgID, pipelineID string) (*models.Board, error) {
	args := m.Called(ctx, orgID, pipelineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Board), args.Error(1)
}

// MockEntityService is a mock implementation of rest.EntityService
type MockEntityService struct {
	mock.Mock
}

func (m *MockEntityService) entity(args mock.Arguments) (models.Entity, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Entity), args.Error(1)
}

func (m *MockEntityService) List(ctx context.Context, orgID string, t models.EntityType) ([]models.Entity, error) {
	args := m.Called(ctx, orgID, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Entity), args.Error(1)
}

func (m *MockEntityService) Get(ctx context.Context, orgID string, t models.EntityType, id string) (models.Entity, error) {
	return m.entity(m.Called(ctx, orgID, t, id))
}

func (m *MockEntityService) Create(ctx context.Context, orgID, createdBy string, t models.EntityType, fields services.Patch) (models.Entity, error) {
	return m.entity(m.Called(ctx, orgID, createdBy, t, fields))
}

func (m *MockEntityService) Update(ctx context.Context, orgID string, t models.EntityType, id string, patch services.Patch) (models.Entity, error) {
	return m.entity(m.Called(ctx, orgID, t, id, patch))
}

func (m *MockEntityService) Delete(ctx context.Context, orgID string, t models.EntityType, id string) (int, error) {
	args := m.Called(ctx, orgID, t, id)
	return args.Int(0), args.Error(1)
}

// MockDashboardService is a mock implementation of rest.DashboardService and rest.SweepService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Stats(ctx context.Context, orgID string) (*models.DashboardStats, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DashboardStats), args.Error(1)
}

func (m *MockDashboardService) SweepOrganization(ctx context.Context, orgID string) (*services.SweepResult, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SweepResult), args.Error(1)
}

// MockCatalogService is a mock implementation of rest.CatalogService
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) group(args mock.Arguments) (*models.Group, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Group), args.Error(1)
}

func (m *MockCatalogService) CreateGroup(ctx context.Context, orgID, name string, manageType models.EntityType) (*models.Group, error) {
	return m.group(m.Called(ctx, orgID, name, manageType))
}

func (m *MockCatalogService) EnsureDefaultCustomersGroup(ctx context.Context, orgID string) (*models.Group, error) {
	return m.group(m.Called(ctx, orgID))
}

func (m *MockCatalogService) GetGroup(ctx context.Context, orgID, id string) (*models.Group, error) {
	return m.group(m.Called(ctx, orgID, id))
}

func (m *MockCatalogService) ListGroups(ctx context.Context, orgID string) ([]*models.Group, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Group), args.Error(1)
}

func (m *MockCatalogService) DeleteGroup(ctx context.Context, orgID, id string) error {
	return m.Called(ctx, orgID, id).Error(0)
}

func (m *MockCatalogService) DeleteView(ctx context.Context, orgID, id string) error {
	return m.Called(ctx, orgID, id).Error(0)
}
