package persistence

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestPeopleRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewPeopleRepository(openTestDB(t))

	p := &models.People{
		ID:             "p1",
		OrganizationID: "org-1",
		FullName:       "Ada Lovelace",
		Emails:         []string{"ada@example.com"},
		CompanyID:      strPtr("c1"),
		CustomFields:   models.CustomFields{"notes": map[string]interface{}{"value": "vip"}},
	}
	require.NoError(t, repo.Insert(ctx, nil, p))

	got, err := repo.Get(ctx, "org-1", "p1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada Lovelace", got.FullName)
	assert.Equal(t, []string{"ada@example.com"}, got.Emails)
	assert.Equal(t, []string{}, got.Phones)
	require.NotNil(t, got.CompanyID)
	assert.Equal(t, "c1", *got.CompanyID)
	assert.Equal(t, "vip", got.CustomFields.String("notes"))
	require.NotNil(t, got.CreatedAt)

	got.JobTitle = "Analyst"
	got.CompanyID = nil
	require.NoError(t, repo.Save(ctx, nil, got))

	again, err := repo.Get(ctx, "org-1", "p1")
	require.NoError(t, err)
	assert.Equal(t, "Analyst", again.JobTitle)
	assert.Nil(t, again.CompanyID)

	n, err := repo.Count(ctx, "org-1")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e, err := repo.FindByID(ctx, "org-2", "p1")
	require.NoError(t, err)
	assert.Nil(t, e, "other organizations cannot see the record")

	ok, err := repo.Delete(ctx, nil, "org-1", "p1")
	require.NoError(t, err)
	assert.True(t, ok)

	missing := &models.People{ID: "p1", OrganizationID: "org-1"}
	assert.True(t, errors.IsNotFound(repo.Save(ctx, nil, missing)))
}

func TestDealAndCompanyRepositories(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	deals := NewDealRepository(conn)
	companies := NewCompanyRepository(conn)

	require.NoError(t, companies.Insert(ctx, nil, &models.Company{
		ID: "c1", OrganizationID: "org-1", Name: "Acme", Industry: "Manufacturing",
	}))
	require.NoError(t, deals.Insert(ctx, nil, &models.Deal{
		ID: "d1", OrganizationID: "org-1", Title: "Anvils", CompanyID: strPtr("c1"),
		CustomFields: models.CustomFields{"dealValue": 5000.0},
	}))
	require.NoError(t, deals.Insert(ctx, nil, &models.Deal{
		ID: "d2", OrganizationID: "org-1", Title: "Rockets",
	}))

	all, err := deals.FindAll(ctx, "org-1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, models.EntityDeal, all[0].EntityType())

	d, err := deals.Get(ctx, "org-1", "d1")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, d.CustomFields.DealValue())
	assert.Nil(t, d.ContactID)

	c, err := companies.FindByID(ctx, "org-1", "c1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Acme", c.(*models.Company).Name)
}

func TestCustomerRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewCustomerRepository(openTestDB(t))

	require.NoError(t, repo.Insert(ctx, nil, &models.Customer{
		ID: "u1", OrganizationID: "org-1", Email: "bot@example.com",
		CustomData: models.CustomFields{"name": "Grace", "phone": "555"},
	}))
	c, err := repo.Get(ctx, "org-1", "u1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Grace", c.Name())
	assert.Equal(t, "555", c.Phone())
}

func TestCountRows_SQLShape(t *testing.T) {
	conn, mock := newMockConn(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM `crm_deals` WHERE `organization_id` = ?")).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := NewDealRepository(conn).Count(context.Background(), "org-1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
