package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"

	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"mysql duplicate entry", &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'x' for key 'uniq'"}, true},
		{"wrapped mysql duplicate", fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1062}), true},
		{"other mysql error mentioning duplicates", &mysql.MySQLError{Number: 1146, Message: "Table 'duplicate entry' doesn't exist"}, false},
		{"sqlite unique", fmt.Errorf("constraint failed: UNIQUE constraint failed: crm_pipelines.name (2067)"), true},
		{"unrelated", fmt.Errorf("syntax error"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUniqueViolation(tt.err))
		})
	}
}

func TestIsDeadlock_MySQLErrorNumbers(t *testing.T) {
	assert.True(t, isDeadlock(&mysql.MySQLError{Number: 1213, Message: "try restarting transaction"}))
	assert.True(t, isDeadlock(fmt.Errorf("update: %w", &mysql.MySQLError{Number: 1205})))
	assert.False(t, isDeadlock(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}))
}

func TestPipelineRepository_CreateDuplicateOnMySQL(t *testing.T) {
	conn, mock := newMockConn(t)
	repo := NewPipelineRepository(conn)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `crm_pipelines`")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'org-1-view-1-Sales' for key 'uniq_pipeline_name'"})

	err := repo.Create(context.Background(), nil, newPipeline("org-1", "view-1", "Sales"))
	assert.True(t, errors.IsDuplicateName(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
