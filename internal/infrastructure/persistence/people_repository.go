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

var peopleColumns = []string{
	constants.FieldID, constants.FieldOrganizationID, constants.FieldFullName,
	constants.FieldEmails, constants.FieldPhones, constants.FieldCompanyID,
	constants.FieldJobTitle, constants.FieldTags, constants.FieldCustomFields,
	constants.FieldCreatedBy, constants.FieldCreatedAt, constants.FieldUpdatedAt,
}

// PeopleRepository stores contacts
type PeopleRepository struct {
	baseRepository
	now func() time.Time
}

// NewPeopleRepository creates a new PeopleRepository
func NewPeopleRepository(conn *database.Connection) *PeopleRepository {
	return &PeopleRepository{baseRepository: baseRepository{conn: conn}, now: time.Now}
}

func (r *PeopleRepository) Type() models.EntityType { return models.EntityPeople }

func scanPeople(row rowScanner) (*models.People, error) {
	var (
		p                        models.People
		emails, phones, tags, cf sql.NullString
		companyID                sql.NullString
		createdAt, updatedAt     nullTime
	)
	if err := row.Scan(&p.ID, &p.OrganizationID, &p.FullName, &emails, &phones, &companyID,
		&p.JobTitle, &tags, &cf, &p.CreatedBy, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.Emails, err = unmarshalList(emails); err != nil {
		return nil, fmt.Errorf("person %s emails: %w", p.ID, err)
	}
	if p.Phones, err = unmarshalList(phones); err != nil {
		return nil, fmt.Errorf("person %s phones: %w", p.ID, err)
	}
	if p.Tags, err = unmarshalList(tags); err != nil {
		return nil, fmt.Errorf("person %s tags: %w", p.ID, err)
	}
	if p.CustomFields, err = models.ParseCustomFields(cf.String); err != nil {
		return nil, fmt.Errorf("person %s custom_fields: %w", p.ID, err)
	}
	p.CompanyID = stringPtr(companyID)
	p.CreatedAt = createdAt.Ptr()
	p.UpdatedAt = updatedAt.Ptr()
	return &p, nil
}

func (r *PeopleRepository) List(ctx context.Context, orgID string) ([]*models.People, error) {
	q := selectByOrg(constants.TablePeople, peopleColumns, orgID)
	rows, err := r.GetExecutor(nil).QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	people := make([]*models.People, 0)
	for rows.Next() {
		p, err := scanPeople(rows)
		if err != nil {
			return nil, err
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func (r *PeopleRepository) Get(ctx context.Context, orgID, id string) (*models.People, error) {
	q := selectByID(constants.TablePeople, peopleColumns, orgID, id)
	p, err := scanPeople(r.GetExecutor(nil).QueryRowContext(ctx, q.SQL, q.Params...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

func (r *PeopleRepository) FindAll(ctx context.Context, orgID string) ([]models.Entity, error) {
	people, err := r.List(ctx, orgID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Entity, len(people))
	for i, p := range people {
		out[i] = p
	}
	return out, nil
}

func (r *PeopleRepository) FindByID(ctx context.Context, orgID, id string) (models.Entity, error) {
	p, err := r.Get(ctx, orgID, id)
	if err != nil || p == nil {
		return nil, err
	}
	return p, nil
}

func (r *PeopleRepository) Count(ctx context.Context, orgID string) (int, error) {
	return r.countRows(ctx, constants.TablePeople, orgID)
}

func (r *PeopleRepository) values(p *models.People) (map[string]interface{}, error) {
	emails, err := marshalList(p.Emails)
	if err != nil {
		return nil, err
	}
	phones, err := marshalList(p.Phones)
	if err != nil {
		return nil, err
	}
	tags, err := marshalList(p.Tags)
	if err != nil {
		return nil, err
	}
	cf, err := p.CustomFields.Marshal()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		constants.FieldFullName:     p.FullName,
		constants.FieldEmails:       emails,
		constants.FieldPhones:       phones,
		constants.FieldCompanyID:    nullableString(p.CompanyID),
		constants.FieldJobTitle:     p.JobTitle,
		constants.FieldTags:         tags,
		constants.FieldCustomFields: cf,
	}, nil
}

func (r *PeopleRepository) Insert(ctx context.Context, tx *sql.Tx, p *models.People) error {
	data, err := r.values(p)
	if err != nil {
		return err
	}
	now := dbTime(r.now())
	if p.CreatedAt == nil {
		p.CreatedAt = &now
	}
	p.UpdatedAt = &now
	data[constants.FieldID] = p.ID
	data[constants.FieldOrganizationID] = p.OrganizationID
	data[constants.FieldCreatedBy] = p.CreatedBy
	data[constants.FieldCreatedAt] = dbTimePtr(p.CreatedAt)
	data[constants.FieldUpdatedAt] = now

	_, err = r.execWrite(ctx, tx, query.Insert(constants.TablePeople, data).Build(), "insert person")
	return err
}

func (r *PeopleRepository) Save(ctx context.Context, tx *sql.Tx, p *models.People) error {
	data, err := r.values(p)
	if err != nil {
		return err
	}
	now := dbTime(r.now())
	p.UpdatedAt = &now
	data[constants.FieldUpdatedAt] = now

	q := query.Update(constants.TablePeople).
		Set(data).
		WhereEq(constants.FieldID, p.ID).
		WhereEq(constants.FieldOrganizationID, p.OrganizationID).
		Build()
	ok, err := r.execWrite(ctx, tx, q, "update person")
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewNotFoundError("Person", p.ID)
	}
	return nil
}

func (r *PeopleRepository) Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error) {
	return r.deleteRow(ctx, tx, constants.TablePeople, orgID, id)
}
