package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/database"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/query"
)

var companyColumns = []string{
	constants.FieldID, constants.FieldOrganizationID, constants.FieldName,
	constants.FieldDomain, constants.FieldWebsite, constants.FieldIndustry,
	constants.FieldSize, constants.FieldLocation, constants.FieldTags,
	constants.FieldCustomFields, constants.FieldCreatedBy,
	constants.FieldCreatedAt, constants.FieldUpdatedAt,
}

// CompanyRepository stores companies
type CompanyRepository struct {
	baseRepository
	now func() time.Time
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(conn *database.Connection) *CompanyRepository {
	return &CompanyRepository{baseRepository: baseRepository{conn: conn}, now: time.Now}
}

func (r *CompanyRepository) Type() models.EntityType { return models.EntityCompany }

func scanCompany(row rowScanner) (*models.Company, error) {
	var (
		c                    models.Company
		tags, cf             sql.NullString
		createdAt, updatedAt nullTime
	)
	if err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Domain, &c.Website, &c.Industry,
		&c.Size, &c.Location, &tags, &cf, &c.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.Tags, err = unmarshalList(tags); err != nil {
		return nil, fmt.Errorf("company %s tags: %w", c.ID, err)
	}
	if c.CustomFields, err = models.ParseCustomFields(cf.String); err != nil {
		return nil, fmt.Errorf("company %s custom_fields: %w", c.ID, err)
	}
	c.CreatedAt = createdAt.Ptr()
	c.UpdatedAt = updatedAt.Ptr()
	return &c, nil
}

func (r *CompanyRepository) List(ctx context.Context, orgID string) ([]*models.Company, error) {
	q := selectByOrg(constants.TableCompany, companyColumns, orgID)
	rows, err := r.GetExecutor(nil).QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	companies := make([]*models.Company, 0)
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

func (r *CompanyRepository) Get(ctx context.Context, orgID, id string) (*models.Company, error) {
	q := selectByID(constants.TableCompany, companyColumns, orgID, id)
	c, err := scanCompany(r.GetExecutor(nil).QueryRowContext(ctx, q.SQL, q.Params...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *CompanyRepository) FindAll(ctx context.Context, orgID string) ([]models.Entity, error) {
	companies, err := r.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entity, len(companies))
	for i, c := range companies {
		out[i] = c
	}
	return out, nil
}

func (r *CompanyRepository) FindByID(ctx context.Context, orgID, id string) (models.Entity, error) {
	c, err := r.Get(ctx, orgID, id)
	if err != nil || c == nil {
		return nil, err
	}
	return c, nil
}

func (r *CompanyRepository) Count(ctx context.Context, orgID string) (int, error) {
	return r.countRows(ctx, constants.TableCompany, orgID)
}

func (r *CompanyRepository) values(c *models.Company) (map[string]interface{}, error) {
	tags, err := marshalList(c.Tags)
	if err != nil {
		return nil, err
	}
	cf, err := c.CustomFields.Marshal()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		constants.FieldName:         c.Name,
		constants.FieldDomain:       c.Domain,
		constants.FieldWebsite:      c.Website,
		constants.FieldIndustry:     c.Industry,
		constants.FieldSize:         c.Size,
		constants.FieldLocation:     c.Location,
		constants.FieldTags:         tags,
		constants.FieldCustomFields: cf,
	}, nil
}

func (r *CompanyRepository) Insert(ctx context.Context, tx *sql.Tx, c *models.Company) error {
	data, err := r.values(c)
	if err != nil {
		return err
	}
	now := dbTime(r.now())
	if c.CreatedAt == nil {
		c.CreatedAt = &now
	}
	c.UpdatedAt = &now
	data[constants.FieldID] = c.ID
	data[constants.FieldOrganizationID] = c.OrganizationID
	data[constants.FieldCreatedBy] = c.CreatedBy
	data[constants.FieldCreatedAt] = dbTimePtr(c.CreatedAt)
	data[constants.FieldUpdatedAt] = now

	_, err = r.execWrite(ctx, tx, query.Insert(constants.TableCompany, data).Build(), "insert company")
	return err
}

func (r *CompanyRepository) Save(ctx context.Context, tx *sql.Tx, c *models.Company) error {
	data, err := r.values(c)
	if err != nil {
		return err
	}
	now := dbTime(r.now())
	c.UpdatedAt = &now
	data[constants.FieldUpdatedAt] = now

	q := query.Update(constants.TableCompany).
		Set(data).
		WhereEq(constants.FieldID, c.ID).
		WhereEq(constants.FieldOrganizationID, c.OrganizationID).
		Build()
	ok, err := r.execWrite(ctx, tx, q, "update company")
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("Company", c.ID)
	}
	return nil
}

func (r *CompanyRepository) Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error) {
	return r.deleteRow(ctx, tx, constants.TableCompany, orgID, id)
}
