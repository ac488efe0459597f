package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/ports"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/logger"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/utils"
)

// CreatePipelineInput describes a new pipeline
type CreatePipelineInput struct {
	ViewID     string              `json:"view_id"`
	Name       string              `json:"name"`
	ManageType models.EntityType   `json:"manage_type"`
	Stages     []models.StageInput `json:"stages"`
}

// PipelineService owns every pipeline mutation. Each mutation holds the
// pipeline's lock, reads the row inside a transaction, applies the change in
// memory and writes it back conditionally on the version it read.
type PipelineService struct {
	pipelines  ports.PipelineRepository
	sources    EntitySources
	tx         ports.TxRunner
	locker     ports.Locker
	maxRetries int
}

// NewPipelineService creates a new PipelineService
func NewPipelineService(pipelines ports.PipelineRepository, sources EntitySources, tx ports.TxRunner, locker ports.Locker, maxRetries int) *PipelineService {
	if maxRetries < 1 {
		maxRetries = constants.DefaultMaxRetries
	}
	return &PipelineService{
		pipelines:  pipelines,
		sources:    sources,
		tx:         tx,
		locker:     locker,
		maxRetries: maxRetries,
	}
}

// mutateFunc changes p in place and reports whether anything changed
type mutateFunc func(tx *sql.Tx, p *models.Pipeline) (bool, error)

func lockKey(orgID, pipelineID string) string {
	return orgID + ":" + pipelineID
}

// lock takes the pipeline's lock. Losing the wait to another writer is a
// StorageConflict on the pipeline.
func (s *PipelineService) lock(ctx context.Context, orgID, pipelineID string) (func(), error) {
	release, err := s.locker.Acquire(ctx, lockKey(orgID, pipelineID))
	if err != nil {
		if errors.IsStorageConflict(err) {
			return nil, errors.NewStorageConflictError("Pipeline", pipelineID)
		}
		return nil, fmt.Errorf("lock pipeline %s: %w", pipelineID, err)
	}
	return release, nil
}

func (s *PipelineService) mutate(ctx context.Context, orgID, pipelineID string, fn mutateFunc) (*models.Pipeline, error) {
	release, err := s.lock(ctx, orgID, pipelineID)
	if err != nil {
		return nil, err
	}
	defer release()

	var result *models.Pipeline
	err = s.tx.WithRetry(ctx, func(tx *sql.Tx) error {
		p, err := s.pipelines.FindForUpdate(ctx, tx, orgID, pipelineID)
		if err != nil {
			return err
		}
		if p == nil {
			return errors.NewNotFoundError("Pipeline", pipelineID)
		}
		p.Normalize()

		changed, err := fn(tx, p)
		if err != nil {
			return err
		}
		if changed {
			if err := s.pipelines.Update(ctx, tx, p); err != nil {
				return err
			}
		}
		result = p
		return nil
	}, s.maxRetries)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateStageInputs(inputs []models.StageInput) error {
	for i, in := range inputs {
		if strings.TrimSpace(in.Name) == "" {
			return errors.NewValidationError(fmt.Sprintf("stages[%d].name", i), "stage name is required")
		}
	}
	return nil
}

// Create persists a pipeline with the given stages, or the default six
func (s *PipelineService) Create(ctx context.Context, orgID string, in CreatePipelineInput) (*models.Pipeline, error) {
	var created *models.Pipeline
	err := s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		p, err := s.createTx(ctx, tx, orgID, in)
		created = p
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.L().Infow("✅ Pipeline created", "pipeline_id", created.ID, "organization_id", orgID, "manage_type", created.ManageType)
	return created, nil
}

// createTx is Create inside a caller supplied transaction
func (s *PipelineService) createTx(ctx context.Context, tx *sql.Tx, orgID string, in CreatePipelineInput) (*models.Pipeline, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.NewValidationError("name", "pipeline name is required")
	}
	if strings.TrimSpace(in.ViewID) == "" {
		return nil, errors.NewValidationError("view_id", "view id is required")
	}
	if !in.ManageType.Valid() {
		return nil, errors.NewValidationError("manage_type", "unsupported entity type '"+string(in.ManageType)+"'")
	}
	if err := validateStageInputs(in.Stages); err != nil {
		return nil, err
	}

	existing, err := s.pipelines.FindByName(ctx, tx, orgID, in.ViewID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.NewDuplicateNameError("Pipeline", name, "view")
	}

	p := &models.Pipeline{
		ID:             utils.GenerateID(),
		OrganizationID: orgID,
		ViewID:         in.ViewID,
		Name:           name,
		ManageType:     in.ManageType,
	}
	p.InitStages(in.Stages)

	if err := s.pipelines.Create(ctx, tx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get loads one pipeline
func (s *PipelineService) Get(ctx context.Context, orgID, id string) (*models.Pipeline, error) {
	p, err := s.pipelines.FindByID(ctx, nil, orgID, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Pipeline", id)
	}
	return p, nil
}

// GetByView loads the pipeline attached to a view
func (s *PipelineService) GetByView(ctx context.Context, orgID, viewID string) (*models.Pipeline, error) {
	p, err := s.pipelines.FindByView(ctx, nil, orgID, viewID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Pipeline for view", viewID)
	}
	return p, nil
}

// List returns the organization's pipelines, optionally of one type
func (s *PipelineService) List(ctx context.Context, orgID string, manageType models.EntityType) ([]*models.Pipeline, error) {
	if manageType != "" && !manageType.Valid() {
		return nil, errors.NewValidationError("manage_type", "unsupported entity type '"+string(manageType)+"'")
	}
	return s.pipelines.List(ctx, nil, orgID, manageType)
}

// Update renames the pipeline and reconciles its stage list. An empty name
// keeps the current one.
func (s *PipelineService) Update(ctx context.Context, orgID, id, name string, stages []models.StageInput) (*models.Pipeline, error) {
	if err := validateStageInputs(stages); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)

	p, err := s.mutate(ctx, orgID, id, func(tx *sql.Tx, p *models.Pipeline) (bool, error) {
		if name != "" && name != p.Name {
			other, err := s.pipelines.FindByName(ctx, tx, orgID, p.ViewID, name)
			if err != nil {
				return false, err
			}
			if other != nil && other.ID != p.ID {
				return false, errors.NewDuplicateNameError("Pipeline", name, "view")
			}
		}
		if err := p.ReplaceStages(name, stages); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	logger.L().Infow("✅ Pipeline updated", "pipeline_id", id, "stages", len(p.Stages))
	return p, nil
}

// RemoveStage deletes a stage and moves its entities to the fallback stage
func (s *PipelineService) RemoveStage(ctx context.Context, orgID, id string, stageID int) (*models.Pipeline, error) {
	p, err := s.mutate(ctx, orgID, id, func(_ *sql.Tx, p *models.Pipeline) (bool, error) {
		return true, p.RemoveStage(stageID)
	})
	if err != nil {
		return nil, err
	}
	logger.L().Infow("🗑️ Stage removed", "pipeline_id", id, "stage_id", stageID)
	return p, nil
}

// ReorderStages applies new stage orders
func (s *PipelineService) ReorderStages(ctx context.Context, orgID, id string, stages []models.StageInput) (*models.Pipeline, error) {
	return s.mutate(ctx, orgID, id, func(_ *sql.Tx, p *models.Pipeline) (bool, error) {
		return true, p.ReorderStages(stages)
	})
}

// MoveEntity places an entity in a stage, removing it from any other stage
// of the pipeline first
func (s *PipelineService) MoveEntity(ctx context.Context, orgID, id string, entityType models.EntityType, entityID string, toStageID int) (*models.Pipeline, error) {
	if strings.TrimSpace(entityID) == "" {
		return nil, errors.NewValidationError("entity_id", "entity id is required")
	}

	current, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if current.ManageType != entityType {
		return nil, errors.NewTypeMismatchError(string(current.ManageType), string(entityType))
	}
	exists, err := s.sources.Exists(ctx, orgID, entityType, entityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NewNotFoundError(entityLabel(entityType), entityID)
	}

	return s.mutate(ctx, orgID, id, func(_ *sql.Tx, p *models.Pipeline) (bool, error) {
		if p.ManageType != entityType {
			return false, errors.NewTypeMismatchError(string(p.ManageType), string(entityType))
		}
		return true, p.MoveEntity(entityType, entityID, toStageID)
	})
}

// DetachEntity removes an entity from every stage of one pipeline
func (s *PipelineService) DetachEntity(ctx context.Context, orgID, id string, entityType models.EntityType, entityID string) (*models.Pipeline, error) {
	return s.mutate(ctx, orgID, id, func(_ *sql.Tx, p *models.Pipeline) (bool, error) {
		return p.DetachEntity(entityType, entityID) > 0, nil
	})
}

// Delete removes a pipeline. Its referenced records are untouched.
func (s *PipelineService) Delete(ctx context.Context, orgID, id string) error {
	release, err := s.lock(ctx, orgID, id)
	if err != nil {
		return err
	}
	defer release()

	err = s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		ok, err := s.pipelines.Delete(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewNotFoundError("Pipeline", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.L().Infow("🗑️ Pipeline deleted", "pipeline_id", id, "organization_id", orgID)
	return nil
}

// ListPipelinesContaining reports every pipeline of the entity's type that
// currently holds it, with the holding stage
func (s *PipelineService) ListPipelinesContaining(ctx context.Context, orgID string, entityType models.EntityType, entityID string) ([]models.PipelineMembership, error) {
	pipelines, err := s.pipelines.List(ctx, nil, orgID, entityType)
	if err != nil {
		return nil, err
	}

	out := make([]models.PipelineMembership, 0)
	for _, p := range pipelines {
		stage := p.Locate(entityType, entityID)
		if stage == nil {
			continue
		}
		out = append(out, models.PipelineMembership{
			PipelineID:   p.ID,
			PipelineName: p.Name,
			ViewID:       p.ViewID,
			StageID:      stage.ID,
			StageName:    stage.Name,
		})
	}
	return out, nil
}

// purgeEntityTx detaches an entity from every pipeline of its type in the
// organization. It runs inside the caller's transaction so the purge commits
// or rolls back together with the row delete.
func (s *PipelineService) purgeEntityTx(ctx context.Context, tx *sql.Tx, orgID string, entityType models.EntityType, entityID string) (int, error) {
	pipelines, err := s.pipelines.List(ctx, tx, orgID, entityType)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, p := range pipelines {
		removed := p.DetachEntity(entityType, entityID)
		if removed == 0 {
			continue
		}
		if err := s.pipelines.Update(ctx, tx, p); err != nil {
			return 0, err
		}
		total += removed
	}
	return total, nil
}

func entityLabel(t models.EntityType) string {
	switch t {
	case models.EntityPeople:
		return "Person"
	case models.EntityCompany:
		return "Company"
	case models.EntityDeal:
		return "Deal"
	case models.EntityCustomers:
		return "Customer"
	}
	return "Entity"
}
