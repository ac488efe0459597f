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

// EntityService is CRUD over the four record tables. Deleting a record also
// detaches it from every pipeline of its type in the same transaction.
type EntityService struct {
	people     ports.PeopleRepository
	companies  ports.CompanyRepository
	deals      ports.DealRepository
	customers  ports.CustomerRepository
	sources    EntitySources
	pipelines  *PipelineService
	tx         ports.TxRunner
	maxRetries int
}

// NewEntityService creates a new EntityService
func NewEntityService(people ports.PeopleRepository, companies ports.CompanyRepository, deals ports.DealRepository, customers ports.CustomerRepository, pipelines *PipelineService, tx ports.TxRunner, maxRetries int) *EntityService {
	if maxRetries < 1 {
		maxRetries = constants.DefaultMaxRetries
	}
	return &EntityService{
		people:     people,
		companies:  companies,
		deals:      deals,
		customers:  customers,
		sources:    NewEntitySources(people, companies, deals, customers),
		pipelines:  pipelines,
		tx:         tx,
		maxRetries: maxRetries,
	}
}

// List returns every record of a type
func (s *EntityService) List(ctx context.Context, orgID string, t models.EntityType) ([]models.Entity, error) {
	src, ok := s.sources[t]
	if !ok {
		return nil, errors.NewValidationError("entity_type", "unsupported entity type '"+string(t)+"'")
	}
	return src.FindAll(ctx, orgID)
}

// Get loads one record
func (s *EntityService) Get(ctx context.Context, orgID string, t models.EntityType, id string) (models.Entity, error) {
	src, ok := s.sources[t]
	if !ok {
		return nil, errors.NewValidationError("entity_type", "unsupported entity type '"+string(t)+"'")
	}
	e, err := src.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errors.NewNotFoundError(entityLabel(t), id)
	}
	return e, nil
}

// Create inserts a record built from fields. Records other than customers
// start from the default custom field descriptors of their type.
func (s *EntityService) Create(ctx context.Context, orgID, createdBy string, t models.EntityType, fields Patch) (models.Entity, error) {
	id := utils.GenerateID()
	var (
		record models.Entity
		insert func(tx *sql.Tx) error
	)

	switch t {
	case models.EntityPeople:
		r := &models.People{ID: id, OrganizationID: orgID, CreatedBy: createdBy, Emails: []string{}, Phones: []string{}, Tags: []string{}, CustomFields: models.DefaultCustomFields(t)}
		if err := fields.applyPeople(r); err != nil {
			return nil, err
		}
		if r.FullName == "" {
			return nil, errors.NewValidationError(constants.FieldFullName, "full name is required")
		}
		record, insert = r, func(tx *sql.Tx) error { return s.people.Insert(ctx, tx, r) }
	case models.EntityCompany:
		r := &models.Company{ID: id, OrganizationID: orgID, CreatedBy: createdBy, Tags: []string{}, CustomFields: models.DefaultCustomFields(t)}
		if err := fields.applyCompany(r); err != nil {
			return nil, err
		}
		if r.Name == "" {
			return nil, errors.NewValidationError(constants.FieldName, "company name is required")
		}
		record, insert = r, func(tx *sql.Tx) error { return s.companies.Insert(ctx, tx, r) }
	case models.EntityDeal:
		r := &models.Deal{ID: id, OrganizationID: orgID, CreatedBy: createdBy, Tags: []string{}, CustomFields: models.DefaultCustomFields(t)}
		if err := fields.applyDeal(r); err != nil {
			return nil, err
		}
		if r.Title == "" {
			return nil, errors.NewValidationError(constants.FieldTitle, "deal title is required")
		}
		record, insert = r, func(tx *sql.Tx) error { return s.deals.Insert(ctx, tx, r) }
	case models.EntityCustomers:
		r := &models.Customer{ID: id, OrganizationID: orgID, CustomData: models.CustomFields{}}
		if err := fields.applyCustomer(r); err != nil {
			return nil, err
		}
		record, insert = r, func(tx *sql.Tx) error { return s.customers.Insert(ctx, tx, r) }
	default:
		return nil, errors.NewValidationError("entity_type", "unsupported entity type '"+string(t)+"'")
	}

	if err := s.tx.WithTransaction(ctx, insert); err != nil {
		return nil, err
	}
	logger.L().Infow("✅ Record created", "entity_type", t, "entity_id", id, "organization_id", orgID)
	return record, nil
}

// Update applies a patch. custom_fields are merged one level deep;
// customer custom_data is merged shallowly.
func (s *EntityService) Update(ctx context.Context, orgID string, t models.EntityType, id string, patch Patch) (models.Entity, error) {
	existing, err := s.Get(ctx, orgID, t, id)
	if err != nil {
		return nil, err
	}

	var save func(tx *sql.Tx) error
	switch r := existing.(type) {
	case *models.People:
		if err := patch.applyPeople(r); err != nil {
			return nil, err
		}
		save = func(tx *sql.Tx) error { return s.people.Save(ctx, tx, r) }
	case *models.Company:
		if err := patch.applyCompany(r); err != nil {
			return nil, err
		}
		save = func(tx *sql.Tx) error { return s.companies.Save(ctx, tx, r) }
	case *models.Deal:
		if err := patch.applyDeal(r); err != nil {
			return nil, err
		}
		save = func(tx *sql.Tx) error { return s.deals.Save(ctx, tx, r) }
	case *models.Customer:
		if err := patch.applyCustomer(r); err != nil {
			return nil, err
		}
		save = func(tx *sql.Tx) error { return s.customers.Save(ctx, tx, r) }
	}

	if err := s.tx.WithTransaction(ctx, save); err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a record and purges its refs from every pipeline of its
// type. It returns the number of refs purged.
func (s *EntityService) Delete(ctx context.Context, orgID string, t models.EntityType, id string) (int, error) {
	var remove func(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error)
	switch t {
	case models.EntityPeople:
		remove = s.people.Delete
	case models.EntityCompany:
		remove = s.companies.Delete
	case models.EntityDeal:
		remove = s.deals.Delete
	case models.EntityCustomers:
		remove = s.customers.Delete
	default:
		return 0, errors.NewValidationError("entity_type", "unsupported entity type '"+string(t)+"'")
	}
	if strings.TrimSpace(id) == "" {
		return 0, errors.NewValidationError(constants.FieldID, "id is required")
	}

	purged := 0
	err := s.tx.WithRetry(ctx, func(tx *sql.Tx) error {
		n, err := s.pipelines.purgeEntityTx(ctx, tx, orgID, t, id)
		if err != nil {
			return err
		}
		ok, err := remove(ctx, tx, orgID, id)
		if err != nil {
			return err
		}
		if !ok {
			return errors.NewNotFoundError(entityLabel(t), id)
		}
		purged = n
		return nil
	}, s.maxRetries)
	if err != nil {
		return 0, err
	}

	logger.L().Infow("🗑️ Record deleted", "entity_type", t, "entity_id", id, "refs_purged", purged)
	return purged, nil
}
