package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/infrastructure/database"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/query"
)

var pipelineColumns = []string{
	constants.FieldID,
	constants.FieldOrganizationID,
	constants.FieldViewID,
	constants.FieldName,
	constants.FieldManageType,
	constants.FieldStages,
	"stage_seq",
	constants.FieldVersion,
	constants.FieldCreatedAt,
	constants.FieldUpdatedAt,
}

// PipelineRepository stores pipelines with their stage document and an
// optimistic concurrency version
type PipelineRepository struct {
	baseRepository
	now func() time.Time
}

// NewPipelineRepository creates a new PipelineRepository
func NewPipelineRepository(conn *database.Connection) *PipelineRepository {
	return &PipelineRepository{baseRepository: baseRepository{conn: conn}, now: time.Now}
}

func encodeStages(stages []models.Stage) (string, error) {
	b, err := json.Marshal(models.NormalizeStages(stages))
	if err != nil {
		return "", fmt.Errorf("encode stages: %w", err)
	}
	return string(b), nil
}

func decodeStages(raw string) ([]models.Stage, error) {
	if strings.TrimSpace(raw) == "" || raw == "null" {
		return []models.Stage{}, nil
	}
	var stages []models.Stage
	if err := json.Unmarshal([]byte(raw), &stages); err != nil {
		return nil, fmt.Errorf("decode stages: %w", err)
	}
	return models.NormalizeStages(stages), nil
}

func scanPipeline(row interface{ Scan(...interface{}) error }) (*models.Pipeline, error) {
	var (
		p          models.Pipeline
		manageType string
		stagesRaw  sql.NullString
		createdAt  nullTime
		updatedAt  nullTime
	)
	if err := row.Scan(&p.ID, &p.OrganizationID, &p.ViewID, &p.Name, &manageType,
		&stagesRaw, &p.StageSeq, &p.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	stages, err := decodeStages(stagesRaw.String)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.ID, err)
	}
	p.ManageType = models.EntityType(manageType)
	p.Stages = stages
	p.CreatedAt = createdAt.Time
	p.UpdatedAt = updatedAt.Time
	p.Normalize()
	return &p, nil
}

func (r *PipelineRepository) findOne(ctx context.Context, tx *sql.Tx, q query.QueryResult) (*models.Pipeline, error) {
	row := r.GetExecutor(tx).QueryRowContext(ctx, q.SQL, q.Params...)
	p, err := scanPipeline(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new pipeline at version 1
func (r *PipelineRepository) Create(ctx context.Context, tx *sql.Tx, p *models.Pipeline) error {
	stages, err := encodeStages(p.Stages)
	if err != nil {
		return err
	}
	now := dbTime(r.now())
	p.Version = 1
	p.CreatedAt, p.UpdatedAt = now, now

	q := query.Insert(constants.TablePipeline, map[string]interface{}{
		constants.FieldID:             p.ID,
		constants.FieldOrganizationID: p.OrganizationID,
		constants.FieldViewID:         p.ViewID,
		constants.FieldName:           p.Name,
		constants.FieldManageType:     string(p.ManageType),
		constants.FieldStages:         stages,
		"stage_seq":                   p.StageSeq,
		constants.FieldVersion:        p.Version,
		constants.FieldCreatedAt:      now,
		constants.FieldUpdatedAt:      now,
	}).Build()

	if _, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...); err != nil {
		if isUniqueViolation(err) {
			return errors.NewDuplicateNameError("Pipeline", p.Name, "view")
		}
		return fmt.Errorf("insert pipeline: %w", err)
	}
	return nil
}

// FindByID loads a pipeline scoped to its organization
func (r *PipelineRepository) FindByID(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.Pipeline, error) {
	q := query.From(constants.TablePipeline).
		Select(pipelineColumns).
		WhereEq(constants.FieldID, id).
		WhereEq(constants.FieldOrganizationID, orgID).
		Limit(1).
		Build()
	return r.findOne(ctx, tx, q)
}

// FindForUpdate loads a pipeline and, on engines that support it, locks the
// row until tx ends
func (r *PipelineRepository) FindForUpdate(ctx context.Context, tx *sql.Tx, orgID, id string) (*models.Pipeline, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required for locking pipeline %s", id)
	}
	q := query.From(constants.TablePipeline).
		Select(pipelineColumns).
		WhereEq(constants.FieldID, id).
		WhereEq(constants.FieldOrganizationID, orgID).
		Limit(1).
		ForUpdate(r.conn.Dialect().SupportsRowLocks()).
		Build()
	return r.findOne(ctx, tx, q)
}

// FindByView loads the pipeline attached to a view
func (r *PipelineRepository) FindByView(ctx context.Context, tx *sql.Tx, orgID, viewID string) (*models.Pipeline, error) {
	q := query.From(constants.TablePipeline).
		Select(pipelineColumns).
		WhereEq(constants.FieldOrganizationID, orgID).
		WhereEq(constants.FieldViewID, viewID).
		OrderBy(constants.FieldCreatedAt, "ASC").
		Limit(1).
		Build()
	return r.findOne(ctx, tx, q)
}

// FindByName looks up a pipeline by name within a view
func (r *PipelineRepository) FindByName(ctx context.Context, tx *sql.Tx, orgID, viewID, name string) (*models.Pipeline, error) {
	q := query.From(constants.TablePipeline).
		Select(pipelineColumns).
		WhereEq(constants.FieldOrganizationID, orgID).
		WhereEq(constants.FieldViewID, viewID).
		WhereEq(constants.FieldName, name).
		Limit(1).
		Build()
	return r.findOne(ctx, tx, q)
}

// List returns the organization's pipelines, optionally of one manage type
func (r *PipelineRepository) List(ctx context.Context, tx *sql.Tx, orgID string, manageType models.EntityType) ([]*models.Pipeline, error) {
	b := query.From(constants.TablePipeline).
		Select(pipelineColumns).
		WhereEq(constants.FieldOrganizationID, orgID)
	if manageType != "" {
		b = b.WhereEq(constants.FieldManageType, string(manageType))
	}
	q := b.OrderBy(constants.FieldCreatedAt, "ASC").OrderBy(constants.FieldID, "ASC").Build()

	rows, err := r.GetExecutor(tx).QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	pipelines := make([]*models.Pipeline, 0)
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, err
		}
		pipelines = append(pipelines, p)
	}
	return pipelines, rows.Err()
}

// Update performs the conditional write. On success p.Version is advanced.
func (r *PipelineRepository) Update(ctx context.Context, tx *sql.Tx, p *models.Pipeline) error {
	stages, err := encodeStages(p.Stages)
	if err != nil {
		return err
	}
	now := dbTime(r.now())

	q := query.Update(constants.TablePipeline).
		Set(map[string]interface{}{
			constants.FieldName:      p.Name,
			constants.FieldStages:    stages,
			"stage_seq":              p.StageSeq,
			constants.FieldUpdatedAt: now,
		}).
		SetRaw("`version` = `version` + 1").
		WhereEq(constants.FieldID, p.ID).
		WhereEq(constants.FieldOrganizationID, p.OrganizationID).
		WhereEq(constants.FieldVersion, p.Version).
		Build()

	res, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewDuplicateNameError("Pipeline", p.Name, "view")
		}
		return fmt.Errorf("update pipeline: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return errors.NewStorageConflictError("Pipeline", p.ID)
	}

	p.Version++
	p.UpdatedAt = now
	return nil
}

// Delete removes a pipeline; false when nothing matched
func (r *PipelineRepository) Delete(ctx context.Context, tx *sql.Tx, orgID, id string) (bool, error) {
	q := query.Delete(constants.TablePipeline).
		WhereEq(constants.FieldID, id).
		WhereEq(constants.FieldOrganizationID, orgID).
		Build()
	res, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return false, fmt.Errorf("delete pipeline: %w", err)
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// DeleteByView removes every pipeline attached to a view
func (r *PipelineRepository) DeleteByView(ctx context.Context, tx *sql.Tx, orgID, viewID string) (int64, error) {
	q := query.Delete(constants.TablePipeline).
		WhereEq(constants.FieldViewID, viewID).
		WhereEq(constants.FieldOrganizationID, orgID).
		Build()
	res, err := r.GetExecutor(tx).ExecContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return 0, fmt.Errorf("delete view pipelines: %w", err)
	}
	return res.RowsAffected()
}

// ListOrganizations returns every organization that owns a pipeline
func (r *PipelineRepository) ListOrganizations(ctx context.Context) ([]string, error) {
	q := query.From(constants.TablePipeline).
		Select([]string{"DISTINCT `organization_id`"}).
		OrderBy(constants.FieldOrganizationID, "ASC").
		Build()
	rows, err := r.GetExecutor(nil).QueryContext(ctx, q.SQL, q.Params...)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]string, 0)
	for rows.Next() {
		var org string
		if err := rows.Scan(&org); err != nil {
			return nil, err
		}
		orgs = append(orgs, org)
	}
	return orgs, rows.Err()
}
