package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/database"
)

const testOrg = "org-1"

// newTestManager wires every service over a fresh SQLite database
func newTestManager(t *testing.T) *ServiceManager {
	t.Helper()
	return newTestManagerWith(t, Options{MaxConflictRetries: 10})
}

func newTestManagerWith(t *testing.T, opts Options) *ServiceManager {
	t.Helper()
	conn, err := database.OpenSQLite(filepath.Join(t.TempDir(), "engine.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	_, err = database.Migrate(context.Background(), conn)
	require.NoError(t, err)

	sm, err := NewServiceManager(conn, opts)
	require.NoError(t, err)
	return sm
}

func intPtr(i int) *int { return &i }

func stageInputs(names ...string) []models.StageInput {
	out := make([]models.StageInput, len(names))
	for i, n := range names {
		out[i] = models.StageInput{Name: n, Order: i}
	}
	return out
}

func mustCreate(t *testing.T, sm *ServiceManager, typ models.EntityType, fields Patch) models.Entity {
	t.Helper()
	e, err := sm.Entities.Create(context.Background(), testOrg, "user-1", typ, fields)
	require.NoError(t, err)
	return e
}

func mustPipeline(t *testing.T, sm *ServiceManager, name string, typ models.EntityType, stages ...string) *models.Pipeline {
	t.Helper()
	p, err := sm.Pipelines.Create(context.Background(), testOrg, CreatePipelineInput{
		ViewID:     "view-" + name,
		Name:       name,
		ManageType: typ,
		Stages:     stageInputs(stages...),
	})
	require.NoError(t, err)
	return p
}

// stageOf returns the name of the stage holding the entity, or ""
func stageOf(p *models.Pipeline, typ models.EntityType, id string) string {
	if s := p.Locate(typ, id); s != nil {
		return s.Name
	}
	return ""
}
