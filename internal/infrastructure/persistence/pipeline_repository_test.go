package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
)

func newPipeline(org, view, name string) *models.Pipeline {
	p := &models.Pipeline{
		ID:             "pl-" + name,
		OrganizationID: org,
		ViewID:         view,
		Name:           name,
		ManageType:     models.EntityDeal,
	}
	p.InitStages(nil)
	return p
}

func TestPipelineRepository_UpdateConflict(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPipelineRepository(conn)

	p := newPipeline("org-1", "view-1", "Sales")
	p.Version = 3

	mock.ExpectExec(regexp.QuoteMeta("UPDATE `crm_pipelines` SET")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), p.ID, "org-1", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), nil, p)
	assert.True(t, errors.IsStorageConflict(err))
	assert.Equal(t, int64(3), p.Version, "version untouched on conflict")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipelineRepository_UpdateBumpsVersion(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPipelineRepository(conn)

	p := newPipeline("org-1", "view-1", "Sales")
	p.Version = 3

	mock.ExpectExec(regexp.QuoteMeta("`version` = `version` + 1 WHERE `id` = ? AND `organization_id` = ? AND `version` = ?")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), nil, p))
	assert.Equal(t, int64(4), p.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipelineRepository_FindForUpdateLocksOnMySQL(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPipelineRepository(conn)

	rows := sqlmock.NewRows(pipelineColumns).AddRow(
		"pl-1", "org-1", "view-1", "Sales", "deal",
		`[{"id":"1","name":"Lead","color":"#fff","order":"0","entities":[{"entity_id":42,"entity_type":"deal","sort":0}]}]`,
		1, 7, nil, nil,
	)
	mock.ExpectBegin()
	mock.ExpectQuery(`FROM .crm_pipelines. WHERE .* LIMIT 1 FOR UPDATE`).
		WithArgs("pl-1", "org-1").
		WillReturnRows(rows)
	mock.ExpectCommit()

	tx, err := conn.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	p, err := repo.FindForUpdate(context.Background(), tx, "org-1", "pl-1")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NotNil(t, p)
	assert.Equal(t, int64(7), p.Version)
	require.Len(t, p.Stages, 1)
	assert.Equal(t, 1, p.Stages[0].ID)
	assert.Equal(t, "42", p.Stages[0].Entities[0].EntityID, "legacy numeric ids decode as strings")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPipelineRepository_FindForUpdateNeedsTx(t *testing.T) {
	conn, _ := newMockConn(t)
	_, err := NewPipelineRepository(conn).FindForUpdate(context.Background(), nil, "org-1", "pl-1")
	assert.Error(t, err)
}

func TestPipelineRepository_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewPipelineRepository(openTestDB(t))

	p := newPipeline("org-1", "view-1", "Sales")
	require.NoError(t, repo.Create(ctx, nil, p))
	assert.Equal(t, int64(1), p.Version)

	got, err := repo.FindByID(ctx, nil, "org-1", p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sales", got.Name)
	assert.Len(t, got.Stages, len(models.DefaultStages()))
	assert.Equal(t, len(models.DefaultStages()), got.StageSeq)

	missing, err := repo.FindByID(ctx, nil, "org-2", p.ID)
	require.NoError(t, err)
	assert.Nil(t, missing, "lookups are organization scoped")

	require.NoError(t, got.MoveEntity(models.EntityDeal, "d1", got.Stages[0].ID))
	require.NoError(t, repo.Update(ctx, nil, got))
	assert.Equal(t, int64(2), got.Version)

	// a writer holding the old version loses
	p.Name = "Stale"
	assert.True(t, errors.IsStorageConflict(repo.Update(ctx, nil, p)))

	byView, err := repo.FindByView(ctx, nil, "org-1", "view-1")
	require.NoError(t, err)
	require.NotNil(t, byView)
	assert.Equal(t, "Sales", byView.Name)
	assert.Equal(t, 1, byView.RefCount())
}

func TestEncodeStages_EmptyStagesStoreEmptyArrays(t *testing.T) {
	p := newPipeline("org-1", "view-1", "Sales")

	raw, err := encodeStages(p.Stages)
	require.NoError(t, err)
	assert.NotContains(t, raw, `"entities":null`)

	stages, err := decodeStages(raw)
	require.NoError(t, err)
	for _, s := range stages {
		assert.NotNil(t, s.Entities, "stage %d", s.ID)
	}

	stages, err = decodeStages(`[{"id":1,"name":"Legacy","order":0}]`)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	assert.NotNil(t, stages[0].Entities)
}

func TestPipelineRepository_DuplicateName(t *testing.T) {
	ctx := context.Background()
	repo := NewPipelineRepository(openTestDB(t))

	require.NoError(t, repo.Create(ctx, nil, newPipeline("org-1", "view-1", "Sales")))
	dup := newPipeline("org-1", "view-1", "Sales")
	dup.ID = "pl-other"
	assert.True(t, errors.IsDuplicateName(repo.Create(ctx, nil, dup)))

	other := newPipeline("org-1", "view-2", "Sales")
	other.ID = "pl-view2"
	assert.NoError(t, repo.Create(ctx, nil, other), "same name in another view is fine")
}

func TestPipelineRepository_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	repo := NewPipelineRepository(conn)

	deals := newPipeline("org-1", "view-1", "Deals")
	people := newPipeline("org-1", "view-2", "People")
	people.ManageType = models.EntityPeople
	foreign := newPipeline("org-2", "view-3", "Foreign")
	for _, p := range []*models.Pipeline{deals, people, foreign} {
		require.NoError(t, repo.Create(ctx, nil, p))
	}

	all, err := repo.List(ctx, nil, "org-1", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	onlyPeople, err := repo.List(ctx, nil, "org-1", models.EntityPeople)
	require.NoError(t, err)
	require.Len(t, onlyPeople, 1)
	assert.Equal(t, "People", onlyPeople[0].Name)

	orgs, err := repo.ListOrganizations(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"org-1", "org-2"}, orgs)

	err = (&TransactionManager{db: conn, baseBackoff: 0}).WithTransaction(ctx, func(tx *sql.Tx) error {
		n, err := repo.DeleteByView(ctx, tx, "org-1", "view-2")
		assert.Equal(t, int64(1), n)
		return err
	})
	require.NoError(t, err)

	ok, err := repo.Delete(ctx, nil, "org-1", deals.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, nil, "org-1", deals.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
