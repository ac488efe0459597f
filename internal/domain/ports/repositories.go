package ports

import (
	"context"
	"database/sql"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
)

// PipelineRepository persists pipelines. Methods taking a *sql.Tx run inside
// it when non-nil. Lookups return (nil, nil) when nothing matches.
type PipelineRepository interface {
	Create(ctx context.Context, tx *sql.Tx, p *models.Pipeline) error
	FindByID(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.Pipeline, error)
	// FindForUpdate loads the row and locks it for the rest of tx where the
	// engine supports row locks
	FindForUpdate(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.Pipeline, error)
	FindByView(ctx context.Context, tx *sql.Tx, orgID, viewID string) (*models.Pipeline, error)
	FindByName(ctx context.Context, tx *sql.Tx, orgID, viewID, name string) (*models.Pipeline, error)
	List(ctx context.Context, tx *sql.Tx, orgID string, manageType models.EntityType) ([]*models.Pipeline, error)
	// Update writes name, stages and stage sequence if the stored version
	// still equals p.Version, then bumps p.Version. A lost race yields a
	// StorageConflictError.
	Update(ctx context.Context, tx *sql.Tx, p *models.Pipeline) error
	Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error)
	DeleteByView(ctx context.Context, tx *sql.Tx, orgID, viewID string) (int64, error)
	ListOrganizations(ctx context.Context) ([]string, error)
}

// EntitySource is the read capability every entity table offers to the
// engine. FindByID returns (nil, nil) when the record does not exist.
type EntitySource interface {
	Type() models.EntityType
	FindAll(ctx context.Context, orgID string) ([]models.Entity, error)
	FindByID(ctx context.Context, orgID, id string) (models.Entity, error)
	Count(ctx context.Context, orgID string) (int, error)
}

// PeopleRepository stores people
type PeopleRepository interface {
	EntitySource
	List(ctx context.Context, orgID string) ([]*models.People, error)
	Get(ctx context.Context, orgID, id string) (*models.People, error)
	Insert(ctx context.Context, tx *sql.Tx, p *models.People) error
	Save(ctx context.Context, tx *sql.Tx, p *models.People) error
	Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error)
}

// CompanyRepository stores companies
type CompanyRepository interface {
	EntitySource
	List(ctx context.Context, orgID string) ([]*models.Company, error)
	Get(ctx context.Context, orgID, id string) (*models.Company, error)
	Insert(ctx context.Context, tx *sql.Tx, c *models.Company) error
	Save(ctx context.Context, tx *sql.Tx, c *models.Company) error
	Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error)
}

// DealRepository stores deals
type DealRepository interface {
	EntitySource
	List(ctx context.Context, orgID string) ([]*models.Deal, error)
	Get(ctx context.Context, orgID, id string) (*models.Deal, error)
	Insert(ctx context.Context, tx *sql.Tx, d *models.Deal) error
	Save(ctx context.Context, tx *sql.Tx, d *models.Deal) error
	Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error)
}

// CustomerRepository stores chatbot customers
type CustomerRepository interface {
	EntitySource
	List(ctx context.Context, orgID string) ([]*models.Customer, error)
	Get(ctx context.Context, orgID, id string) (*models.Customer, error)
	Insert(ctx context.Context, tx *sql.Tx, c *models.Customer) error
	Save(ctx context.Context, tx *sql.Tx, c *models.Customer) error
	Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error)
}

// CatalogRepository stores groups and views
type CatalogRepository interface {
	InsertGroup(ctx context.Context, tx *sql.Tx, g *models.Group) error
	FindGroup(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.Group, error)
	FindGroupByName(ctx context.Context, tx *sql.Tx, orgID, name string) (*models.Group, error)
	ListGroups(ctx context.Context, orgID string) ([]*models.Group, error)
	DeleteGroup(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error)
	InsertView(ctx context.Context, tx *sql.Tx, v *models.View) error
	FindView(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.View, error)
	ListViews(ctx context.Context, tx *sql.Tx, orgID, groupID string) ([]*models.View, error)
	DeleteView(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error)
}

// TxRunner runs fn inside a transaction, retrying on storage conflicts and
// deadlocks up to maxRetries attempts
type TxRunner interface {
	WithTransaction(ctx context.Context, fn func(tx *sql.Tx) error) error
	WithRetry(ctx context.Context, fn func(tx *sql.Tx) error, maxRetries int) error
}
