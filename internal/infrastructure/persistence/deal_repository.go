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

var dealColumns = []string{
	constants.FieldID, constants.FieldOrganizationID, constants.FieldTitle,
	constants.FieldContactID, constants.FieldCompanyID, constants.FieldStatus,
	constants.FieldTags, constants.FieldCustomFields, constants.FieldCreatedBy,
	constants.FieldCreatedAt, constants.FieldUpdatedAt,
}

// DealRepository stores deals
type DealRepository struct {
	baseRepository
	now func() time.Time
}

// NewDealRepository creates a new DealRepository
func NewDealRepository(conn *database.Connection) *DealRepository {
	return &DealRepository{baseRepository: baseRepository{conn: conn}, now: time.Now}
}

func (r *DealRepository) Type() models.EntityType { return models.EntityDeal }

func scanDeal(row rowScanner) (*models.Deal, error) {
	var (
		d                    models.Deal
		contactID, companyID sql.NullString
		tags, cf             sql.NullString
		createdAt, updatedAt nullTime
	)
	if err := row.Scan(&d.ID, &d.OrganizationID, &d.Title, &contactID, &companyID, &d.Status,
		&tags, &cf, &d.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if d.Tags, err = unmarshalList(tags); err != nil {
		return nil, fmt.Errorf("deal %s tags: %w", d.ID, err)
	}
	if d.CustomFields, err = models.ParseCustomFields(cf.String); err != nil {
		return nil, fmt.Errorf("deal %s custom_fields: %w", d.ID, err)
	}
	d.ContactID = stringPtr(contactID)
	d.CompanyID = stringPtr(companyID)
	d.CreatedAt = createdAt.Ptr()
	d.UpdatedAt = updatedAt.Ptr()
	return &d, nil
}

func (r *DealRepository) List(ctx context.Context, orgID string) ([]*models.Deal, error) {
	q := selectByOrg(constants.TableDeal, dealColumns, orgID)
	rows, err := r.GetExecutor(nil).QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	deals := make([]*models.Deal, 0)
	for rows.Next() {
		d, err := scanDeal(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	return deals, rows.Err()
}

func (r *DealRepository) Get(ctx context.Context, orgID, id string) (*models.Deal, error) {
	q := selectByID(constants.TableDeal, dealColumns, orgID, id)
	d, err := scanDeal(r.GetExecutor(nil).QueryRowContext(ctx, q.SQL, q.Params...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

func (r *DealRepository) FindAll(ctx context.Context, orgID string) ([]models.Entity, error) {
	deals, err := r.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entity, len(deals))
	for i, d := range deals {
		out[i] = d
	}
	return out, nil
}

func (r *DealRepository) FindByID(ctx context.Context, orgID, id string) (models.Entity, error) {
	d, err := r.Get(ctx, orgID, id)
	if err != nil || d == nil {
		return nil, err
	}
	return d, nil
}

func (r *DealRepository) Count(ctx context.Context, orgID string) (int, error) {
	return r.countRows(ctx, constants.TableDeal, orgID)
}

func (r *DealRepository) values(d *models.Deal) (map[string]interface{}, error) {
	tags, err := marshalList(d.Tags)
	if err != nil {
		return nil, err
	}
	cf, err := d.CustomFields.Marshal()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		constants.FieldTitle:        d.Title,
		constants.FieldContactID:    nullableString(d.ContactID),
		constants.FieldCompanyID:    nullableString(d.CompanyID),
		constants.FieldStatus:       d.Status,
		constants.FieldTags:         tags,
		constants.FieldCustomFields: cf,
	}, nil
}

func (r *DealRepository) Insert(ctx context.Context, tx *sql.Tx, d *models.Deal) error {
	data, err := r.values(d)
	if err != nil {
		return err
	}
	now := dbTime(r.now())
	if d.CreatedAt == nil {
		d.CreatedAt = &now
	}
	d.UpdatedAt = &now
	data[constants.FieldID] = d.ID
	data[constants.FieldOrganizationID] = d.OrganizationID
	data[constants.FieldCreatedBy] = d.CreatedBy
	data[constants.FieldCreatedAt] = dbTimePtr(d.CreatedAt)
	data[constants.FieldUpdatedAt] = now

	_, err = r.execWrite(ctx, tx, query.Insert(constants.TableDeal, data).Build(), "insert deal")
	return err
}

func (r *DealRepository) Save(ctx context.Context, tx *sql.Tx, d *models.Deal) error {
	data, err := r.values(d)
	if err != nil {
		return err
	}
	now := dbTime(r.now())
	d.UpdatedAt = &now
	data[constants.FieldUpdatedAt] = now

	q := query.Update(constants.TableDeal).
		Set(data).
		WhereEq(constants.FieldID, d.ID).
		WhereEq(constants.FieldOrganizationID, d.OrganizationID).
		Build()
	ok, err := r.execWrite(ctx, tx, q, "update deal")
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("Deal", d.ID)
	}
	return nil
}

func (r *DealRepository) Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error) {
	return r.deleteRow(ctx, tx, constants.TableDeal, orgID, id)
}
