package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/ports"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
)

// BoardService renders pipelines as Kanban boards
type BoardService struct {
	pipelines ports.PipelineRepository
	people    ports.PeopleRepository
	companies ports.CompanyRepository
	deals     ports.DealRepository
	customers ports.CustomerRepository
}

// NewBoardService creates a new BoardService
func NewBoardService(pipelines ports.PipelineRepository, people ports.PeopleRepository, companies ports.CompanyRepository, deals ports.DealRepository, customers ports.CustomerRepository) *BoardService {
	return &BoardService{
		pipelines: pipelines,
		people:    people,
		companies: companies,
		deals:     deals,
		customers: customers,
	}
}

// boardData holds the bulk loaded records a board needs
type boardData struct {
	people    map[string]*models.People
	companies map[string]*models.Company
	deals     map[string]*models.Deal
	customers map[string]*models.Customer
}

// Board loads a pipeline and joins every entity ref to its record. Refs to
// records that no longer exist are kept with nil Data.
func (s *BoardService) Board(ctx context.Context, orgID, pipelineID string) (*models.Board, error) {
	p, err := s.pipelines.FindByID(ctx, nil, orgID, pipelineID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.NewNotFoundError("Pipeline", pipelineID)
	}
	p.Normalize()

	data, err := s.load(ctx, orgID, p.ManageType)
	if err != nil {
		return nil, err
	}

	board := &models.Board{
		PipelineID: p.ID,
		Pipeline:   p.Name,
		ManageType: p.ManageType,
		Columns:    make([]models.BoardColumn, 0, len(p.Stages)),
	}
	for _, stage := range p.Stages {
		col := models.BoardColumn{
			StageID:    stage.ID,
			StageName:  stage.Name,
			StageColor: stage.Color,
			Order:      stage.Order,
			Entities:   make([]models.BoardCard, 0, len(stage.Entities)),
		}
		for _, ref := range stage.Entities {
			col.Entities = append(col.Entities, models.BoardCard{
				EntityID:   ref.EntityID,
				EntityType: ref.EntityType,
				Sort:       ref.Sort,
				Data:       data.card(ref),
			})
		}
		board.Columns = append(board.Columns, col)
	}
	return board, nil
}

// load fetches every record of the pipeline's type plus the relations its
// cards embed
func (s *BoardService) load(ctx context.Context, orgID string, t models.EntityType) (*boardData, error) {
	data := &boardData{}
	g, gctx := errgroup.WithContext(ctx)

	needPeople := t == models.EntityPeople || t == models.EntityDeal
	needCompanies := needPeople || t == models.EntityCompany

	if needPeople {
		g.Go(func() error {
			list, err := s.people.List(gctx, orgID)
			if err != nil {
				return err
			}
			data.people = make(map[string]*models.People, len(list))
			for _, p := range list {
				data.people[p.ID] = p
			}
			return nil
		})
	}
	if needCompanies {
		g.Go(func() error {
			list, err := s.companies.List(gctx, orgID)
			if err != nil {
				return err
			}
			data.companies = make(map[string]*models.Company, len(list))
			for _, c := range list {
				data.companies[c.ID] = c
			}
			return nil
		})
	}
	if t == models.EntityDeal {
		g.Go(func() error {
			list, err := s.deals.List(gctx, orgID)
			if err != nil {
				return err
			}
			data.deals = make(map[string]*models.Deal, len(list))
			for _, d := range list {
				data.deals[d.ID] = d
			}
			return nil
		})
	}
	if t == models.EntityCustomers {
		g.Go(func() error {
			list, err := s.customers.List(gctx, orgID)
			if err != nil {
				return err
			}
			data.customers = make(map[string]*models.Customer, len(list))
			for _, c := range list {
				data.customers[c.ID] = c
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return data, nil
}

func (d *boardData) company(id *string) *models.Company {
	if id == nil {
		return nil
	}
	return d.companies[*id]
}

// card joins a ref to its record. The result is an untyped nil for a
// dangling ref so that it encodes as JSON null.
func (d *boardData) card(ref models.EntityRef) interface{} {
	switch ref.EntityType {
	case models.EntityPeople:
		if p, ok := d.people[ref.EntityID]; ok {
			return &models.PersonCard{People: p, Company: d.company(p.CompanyID)}
		}
	case models.EntityCompany:
		if c, ok := d.companies[ref.EntityID]; ok {
			return c
		}
	case models.EntityDeal:
		if deal, ok := d.deals[ref.EntityID]; ok {
			card := &models.DealCard{Deal: deal, Company: d.company(deal.CompanyID)}
			if deal.ContactID != nil {
				card.Contact = d.people[*deal.ContactID]
			}
			return card
		}
	case models.EntityCustomers:
		if c, ok := d.customers[ref.EntityID]; ok {
			return &models.CustomerCard{Customer: c, Name: c.Name(), Phone: c.Phone()}
		}
	}
	return nil
}
