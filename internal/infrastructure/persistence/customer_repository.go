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

var customerColumns = []string{
	constants.FieldID, constants.FieldOrganizationID, constants.FieldEmail,
	constants.FieldCustomData, constants.FieldCreatedAt, constants.FieldUpdatedAt,
}

// CustomerRepository stores chatbot customers
type CustomerRepository struct {
	baseRepository
	now func() time.Time
}

// NewCustomerRepository creates a new CustomerRepository
func NewCustomerRepository(conn *database.Connection) *CustomerRepository {
	return &CustomerRepository{baseRepository: baseRepository{conn: conn}, now: time.Now}
}

func (r *CustomerRepository) Type() models.EntityType { return models.EntityCustomers }

func scanCustomer(row rowScanner) (*models.Customer, error) {
	var (
		c                    models.Customer
		data                 sql.NullString
		createdAt, updatedAt nullTime
	)
	if err := row.Scan(&c.ID, &c.OrganizationID, &c.Email, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if c.CustomData, err = models.ParseCustomFields(data.String); err != nil {
		return nil, fmt.Errorf("customer %s custom_data: %w", c.ID, err)
	}
	c.CreatedAt = createdAt.Ptr()
	c.UpdatedAt = updatedAt.Ptr()
	return &c, nil
}

func (r *CustomerRepository) List(ctx context.Context, orgID string) ([]*models.Customer, error) {
	q := selectByOrg(constants.TableCustomer, customerColumns, orgID)
	rows, err := r.GetExecutor(nil).QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*models.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *CustomerRepository) Get(ctx context.Context, orgID, id string) (*models.Customer, error) {
	q := selectByID(constants.TableCustomer, customerColumns, orgID, id)
	c, err := scanCustomer(r.GetExecutor(nil).QueryRowContext(ctx, q.SQL, q.Params...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *CustomerRepository) FindAll(ctx context.Context, orgID string) ([]models.Entity, error) {
	customers, err := r.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entity, len(customers))
	for i, c := range customers {
		out[i] = c
	}
	return out, nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, orgID, id string) (models.Entity, error) {
	c, err := r.Get(ctx, orgID, id)
	if err != nil || c == nil {
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepository) Count(ctx context.Context, orgID string) (int, error) {
	return r.countRows(ctx, constants.TableCustomer, orgID)
}

func (r *CustomerRepository) Insert(ctx context.Context, tx *sql.Tx, c *models.Customer) error {
	data, err := c.CustomData.Marshal()
	if err != nil {
		return err
	}
	now := dbTime(r.now())
	if c.CreatedAt == nil {
		c.CreatedAt = &now
	}
	c.UpdatedAt = &now

	q := query.Insert(constants.TableCustomer, map[string]interface{}{
		constants.FieldID:             c.ID,
		constants.FieldOrganizationID: c.OrganizationID,
		constants.FieldEmail:          c.Email,
		constants.FieldCustomData:     data,
		constants.FieldCreatedAt:      dbTimePtr(c.CreatedAt),
		constants.FieldUpdatedAt:      now,
	}).Build()
	_, err = r.execWrite(ctx, tx, q, "insert customer")
	return err
}

func (r *CustomerRepository) Save(ctx context.Context, tx *sql.Tx, c *models.Customer) error {
	data, err := c.CustomData.Marshal()
	if err != nil {
		return err
	}
	now := dbTime(r.now())
	c.UpdatedAt = &now

	q := query.Update(constants.TableCustomer).
		Set(map[string]interface{}{
			constants.FieldEmail:      c.Email,
			constants.FieldCustomData: data,
			constants.FieldUpdatedAt:  now,
		}).
		WhereEq(constants.FieldID, c.ID).
		WhereEq(constants.FieldOrganizationID, c.OrganizationID).
		Build()
	ok, err := r.execWrite(ctx, tx, q, "update customer")
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("Customer", c.ID)
	}
	return nil
}

func (r *CustomerRepository) Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error) {
	return r.deleteRow(ctx, tx, constants.TableCustomer, orgID, id)
}
