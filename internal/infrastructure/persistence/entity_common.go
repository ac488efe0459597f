package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/query"
)

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// countRows counts an organization's rows in table
func (r baseRepository) countRows(ctx context.Context, table, orgID string) (int, error) {
	q := query.From(table).
		Select([]string{"COUNT(*)"}).
		WhereEq(constants.FieldOrganizationID, orgID).
		Build()
	var n int
	if err := r.GetExecutor(nil).QueryRowContext(ctx, q.SQL, q.Params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// deleteRow removes one organization scoped row by id
func (r baseRepository) deleteRow(ctx context.Context, tx *sql.Tx, table, orgID, id string) (bool, error) {
	q := query.Delete(table).
		WhereEq(constants.FieldID, id).
		WhereEq(constants.FieldOrganizationID, orgID).
		Build()
	res, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// selectByID builds the organization scoped single row lookup for table
func selectByID(table string, columns []string, orgID, id string) query.QueryResult {
	return query.From(table).
		Select(columns).
		WhereEq(constants.FieldID, id).
		WhereEq(constants.FieldOrganizationID, orgID).
		Limit(1).
		Build()
}

// selectByOrg builds the organization wide listing for table, oldest first
func selectByOrg(table string, columns []string, orgID string) query.QueryResult {
	return query.From(table).
		Select(columns).
		WhereEq(constants.FieldOrganizationID, orgID).
		OrderBy(constants.FieldCreatedAt, "ASC").
		OrderBy(constants.FieldID, "ASC").
		Build()
}

// execWrite runs an INSERT or UPDATE and reports whether a row changed
func (r baseRepository) execWrite(ctx context.Context, tx *sql.Tx, q query.QueryResult, what string) (bool, error) {
	res, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return false, fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}
