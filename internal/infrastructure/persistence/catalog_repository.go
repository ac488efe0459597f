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

var (
	groupColumns = []string{
		constants.FieldID, constants.FieldOrganizationID, constants.FieldName,
		constants.FieldManageType, constants.FieldCreatedAt, constants.FieldUpdatedAt,
	}
	viewColumns = []string{
		constants.FieldID, constants.FieldOrganizationID, constants.FieldGroupID,
		constants.FieldName, constants.FieldViewType, constants.FieldCreatedAt,
		constants.FieldUpdatedAt,
	}
)

// CatalogRepository stores groups and their views
type CatalogRepository struct {
	baseRepository
	now func() time.Time
}

// NewCatalogRepository creates a new CatalogRepository
func NewCatalogRepository(conn *database.Connection) *CatalogRepository {
	return &CatalogRepository{baseRepository: baseRepository{conn: conn}, now: time.Now}
}

func scanGroup(row rowScanner) (*models.Group, error) {
	var (
		g                    models.Group
		manageType           string
		createdAt, updatedAt nullTime
	)
	if err := row.Scan(&g.ID, &g.OrganizationID, &g.Name, &manageType, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	g.ManageType = models.EntityType(manageType)
	g.CreatedAt = createdAt.Time
	g.UpdatedAt = updatedAt.Time
	return &g, nil
}

func scanView(row rowScanner) (*models.View, error) {
	var (
		v                    models.View
		createdAt, updatedAt nullTime
	)
	if err := row.Scan(&v.ID, &v.OrganizationID, &v.GroupID, &v.Name, &v.ViewType, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	v.CreatedAt = createdAt.Time
	v.UpdatedAt = updatedAt.Time
	return &v, nil
}

func (r *CatalogRepository) InsertGroup(ctx context.Context, tx *sql.Tx, g *models.Group) error {
	now := dbTime(r.now())
	g.CreatedAt, g.UpdatedAt = now, now
	q := query.Insert(constants.TableGroup, map[string]interface{}{
		constants.FieldID:             g.ID,
		constants.FieldOrganizationID: g.OrganizationID,
		constants.FieldName:           g.Name,
		constants.FieldManageType:     string(g.ManageType),
		constants.FieldCreatedAt:      now,
		constants.FieldUpdatedAt:      now,
	}).Build()
	if _, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...); err != nil {
		if isUniqueViolation(err) {
			return errors.NewDuplicateNameError("Group", g.Name, "organization")
		}
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (r *CatalogRepository) findGroup(ctx context.Context, tx *sql.Tx, q query.QueryResult) (*models.Group, error) {
	g, err := scanGroup(r.GetExecutor(tx).QueryRowContext(ctx, q.SQL, q.Params...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return g, err
}

func (r *CatalogRepository) FindGroup(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.Group, error) {
	return r.findGroup(ctx, tx, selectByID(constants.TableGroup, groupColumns, orgID, id))
}

func (r *CatalogRepository) FindGroupByName(ctx context.Context, tx *sql.Tx, orgID, name string) (*models.Group, error) {
	q := query.From(constants.TableGroup).
		Select(groupColumns).
		WhereEq(constants.FieldOrganizationID, orgID).
		WhereEq(constants.FieldName, name).
		Limit(1).
		Build()
	return r.findGroup(ctx, tx, q)
}

func (r *CatalogRepository) ListGroups(ctx context.Context, orgID string) ([]*models.Group, error) {
	q := selectByOrg(constants.TableGroup, groupColumns, orgID)
	rows, err := r.GetExecutor(nil).QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *CatalogRepository) DeleteGroup(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error) {
	return r.deleteRow(ctx, tx, constants.TableGroup, orgID, id)
}

func (r *CatalogRepository) InsertView(ctx context.Context, tx *sql.Tx, v *models.View) error {
	now := dbTime(r.now())
	v.CreatedAt, v.UpdatedAt = now, now
	q := query.Insert(constants.TableView, map[string]interface{}{
		constants.FieldID:             v.ID,
		constants.FieldOrganizationID: v.OrganizationID,
		constants.FieldGroupID:        v.GroupID,
		constants.FieldName:           v.Name,
		constants.FieldViewType:       v.ViewType,
		constants.FieldCreatedAt:      now,
		constants.FieldUpdatedAt:      now,
	}).Build()
	_, err := r.execWrite(ctx, tx, q, "insert view")
	return err
}

func (r *CatalogRepository) FindView(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.View, error) {
	q := selectByID(constants.TableView, viewColumns, orgID, id)
	v, err := scanView(r.GetExecutor(tx).QueryRowContext(ctx, q.SQL, q.Params...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *CatalogRepository) ListViews(ctx context.Context, tx *sql.Tx, orgID, groupID string) ([]*models.View, error) {
	q := query.From(constants.TableView).
		Select(viewColumns).
		WhereEq(constants.FieldOrganizationID, orgID).
		WhereEq(constants.FieldGroupID, groupID).
		OrderBy(constants.FieldCreatedAt, "ASC").
		OrderBy(constants.FieldViewType, "ASC").
		Build()
	rows, err := r.GetExecutor(tx).QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()

	views := make([]*models.View, 0)
	for rows.Next() {
		v, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func (r *CatalogRepository) DeleteView(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error) {
	return r.deleteRow(ctx, tx, constants.TableView, orgID, id)
}
