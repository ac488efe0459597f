package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/ports"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/logger"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/utils"
)

// CatalogService manages groups and the views that own pipelines
type CatalogService struct {
	catalog   ports.CatalogRepository
	pipelines ports.PipelineRepository
	pipeline  *PipelineService
	tx        ports.TxRunner
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalog ports.CatalogRepository, pipelines ports.PipelineRepository, pipeline *PipelineService, tx ports.TxRunner) *CatalogService {
	return &CatalogService{catalog: catalog, pipelines: pipelines, pipeline: pipeline, tx: tx}
}

// CreateGroup creates a group with a pipeline view, a table view and a
// default-stage pipeline attached to the pipeline view
func (s *CatalogService) CreateGroup(ctx context.Context, orgID, name string, manageType models.EntityType) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.NewValidationError(constants.FieldName, "group name is required")
	}
	if !manageType.Valid() {
		return nil, errors.NewValidationError(constants.FieldManageType, "unsupported entity type '"+string(manageType)+"'")
	}

	var group *models.Group
	err := s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, err := s.catalog.FindGroupByName(ctx, tx, orgID, name)
		if err != nil {
			return err
		}
		if existing != nil {
			return errors.NewDuplicateNameError("Group", name, "organization")
		}

		g := &models.Group{ID: utils.GenerateID(), OrganizationID: orgID, Name: name, ManageType: manageType}
		if err := s.catalog.InsertGroup(ctx, tx, g); err != nil {
			return err
		}

		pipelineView := &models.View{ID: utils.GenerateID(), OrganizationID: orgID, GroupID: g.ID, Name: "Pipeline", ViewType: constants.ViewTypePipeline}
		tableView := &models.View{ID: utils.GenerateID(), OrganizationID: orgID, GroupID: g.ID, Name: "Table", ViewType: constants.ViewTypeTable}
		for _, v := range []*models.View{pipelineView, tableView} {
			if err := s.catalog.InsertView(ctx, tx, v); err != nil {
				return err
			}
		}

		p, err := s.pipeline.createTx(ctx, tx, orgID, CreatePipelineInput{
			ViewID:     pipelineView.ID,
			Name:       name,
			ManageType: manageType,
		})
		if err != nil {
			return err
		}
		pipelineView.PipelineID = p.ID

		g.Views = []models.View{*pipelineView, *tableView}
		group = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.L().Infow("✅ Group created", "group_id", group.ID, "organization_id", orgID, "manage_type", manageType)
	return group, nil
}

// EnsureDefaultCustomersGroup returns the chatbot customers group, creating
// it on first use
func (s *CatalogService) EnsureDefaultCustomersGroup(ctx context.Context, orgID string) (*models.Group, error) {
	if g, err := s.findGroupByName(ctx, orgID, constants.DefaultCustomersGroup); err != nil || g != nil {
		return g, err
	}

	g, err := s.CreateGroup(ctx, orgID, constants.DefaultCustomersGroup, models.EntityCustomers)
	if errors.IsDuplicateName(err) {
		// lost a creation race; the winner's group is what we want
		return s.findGroupByName(ctx, orgID, constants.DefaultCustomersGroup)
	}
	return g, err
}

func (s *CatalogService) findGroupByName(ctx context.Context, orgID, name string) (*models.Group, error) {
	g, err := s.catalog.FindGroupByName(ctx, nil, orgID, name)
	if err != nil || g == nil {
		return nil, err
	}
	if err := s.attachViews(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// attachViews fills g.Views along with the pipeline id of pipeline views
func (s *CatalogService) attachViews(ctx context.Context, g *models.Group) error {
	views, err := s.catalog.ListViews(ctx, nil, g.OrganizationID, g.ID)
	if err != nil {
		return err
	}
	g.Views = make([]models.View, 0, len(views))
	for _, v := range views {
		if v.ViewType == constants.ViewTypePipeline {
			p, err := s.pipelines.FindByView(ctx, nil, g.OrganizationID, v.ID)
			if err != nil {
				return err
			}
			if p != nil {
				v.PipelineID = p.ID
			}
		}
		g.Views = append(g.Views, *v)
	}
	return nil
}

// GetGroup loads a group with its views
func (s *CatalogService) GetGroup(ctx context.Context, orgID, id string) (*models.Group, error) {
	g, err := s.catalog.FindGroup(ctx, nil, orgID, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, errors.NewNotFoundError("Group", id)
	}
	if err := s.attachViews(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// ListGroups returns the organization's groups with their views
func (s *CatalogService) ListGroups(ctx context.Context, orgID string) ([]*models.Group, error) {
	groups, err := s.catalog.ListGroups(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if err := s.attachViews(ctx, g); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// DeleteView removes a view and any pipeline attached to it
func (s *CatalogService) DeleteView(ctx context.Context, orgID, id string) error {
	err := s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		v, err := s.catalog.FindView(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if v == nil {
			return errors.NewNotFoundError("View", id)
		}
		return s.deleteViewTx(ctx, tx, orgID, id)
	})
	if err != nil {
		return err
	}
	logger.L().Infow("🗑️ View deleted", "view_id", id, "organization_id", orgID)
	return nil
}

func (s *CatalogService) deleteViewTx(ctx context.Context, tx *sql.Tx, orgID, viewID string) error {
	if _, err := s.pipelines.DeleteByView(ctx, tx, orgID, viewID); err != nil {
		return err
	}
	_, err := s.catalog.DeleteView(ctx, tx, orgID, viewID)
	return err
}

// DeleteGroup removes a group, its views and their pipelines
func (s *CatalogService) DeleteGroup(ctx context.Context, orgID, id string) error {
	err := s.tx.WithTransaction(ctx, func(tx *sql.Tx) error {
		g, err := s.catalog.FindGroup(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if g == nil {
			return errors.NewNotFoundError("Group", id)
		}
		views, err := s.catalog.ListViews(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		for _, v := range views {
			if err := s.deleteViewTx(ctx, tx, orgID, v.ID); err != nil {
				return err
			}
		}
		_, err = s.catalog.DeleteGroup(ctx, tx, orgID, id)
		return err
	})
	if err != nil {
		return err
	}
	logger.L().Infow("🗑️ Group deleted", "group_id", id, "organization_id", orgID)
	return nil
}
