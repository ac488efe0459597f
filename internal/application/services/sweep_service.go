package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/ports"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/errors"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/logger"
)

// SweepResult reports what one sweep removed
type SweepResult struct {
	OrganizationID   string `json:"organization_id"`
	PipelinesScanned int    `json:"pipelines_scanned"`
	PipelinesChanged int    `json:"pipelines_changed"`
	RefsRemoved      int    `json:"refs_removed"`
}

// SweepService removes refs to records that no longer exist, on demand and
// on a cron schedule
type SweepService struct {
	pipelines ports.PipelineRepository
	sources   EntitySources
	pipeline  *PipelineService
	schedule  string

	cron    *cron.Cron
	mu      sync.Mutex
	running bool
}

// NewSweepService creates a new SweepService. An empty schedule disables the
// background job.
func NewSweepService(pipelines ports.PipelineRepository, sources EntitySources, pipeline *PipelineService, schedule string) *SweepService {
	return &SweepService{
		pipelines: pipelines,
		sources:   sources,
		pipeline:  pipeline,
		schedule:  schedule,
	}
}

// Start registers the sweep job and starts the cron runner
func (s *SweepService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.schedule == "" {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(s.schedule, s.runAll); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c
	s.running = true
	logger.L().Infow("🧹 Sweep scheduler started", "schedule", s.schedule)
	return nil
}

// Stop halts the runner and waits for a sweep in progress
func (s *SweepService) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	c := s.cron
	s.mu.Unlock()

	<-c.Stop().Done()
	logger.L().Infow("🧹 Sweep scheduler stopped")
}

func (s *SweepService) runAll() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.SweepMaxRuntimeMinutes*time.Minute)
	defer cancel()
	if _, err := s.SweepAll(ctx); err != nil {
		logger.L().Errorw("❌ Sweep failed", "error", err)
	}
}

// SweepAll sweeps every organization that owns a pipeline. A failing
// organization is logged and skipped.
func (s *SweepService) SweepAll(ctx context.Context) ([]SweepResult, error) {
	orgs, err := s.pipelines.ListOrganizations(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]SweepResult, 0, len(orgs))
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.SweepOrganization(ctx, org)
		if err != nil {
			logger.L().Warnw("⚠️ Sweep of organization failed", "organization_id", org, "error", err)
			continue
		}
		results = append(results, *res)
	}
	return results, nil
}

// SweepOrganization detaches dangling refs from each of the organization's
// pipelines. Only refs found dangling in the initial scan are removed, so a
// record placed while the sweep runs is never touched.
func (s *SweepService) SweepOrganization(ctx context.Context, orgID string) (*SweepResult, error) {
	pipelines, err := s.pipelines.List(ctx, nil, orgID, "")
	if err != nil {
		return nil, err
	}
	res := &SweepResult{OrganizationID: orgID, PipelinesScanned: len(pipelines)}

	live := make(map[models.EntityType]map[string]bool)
	for _, p := range pipelines {
		dangling := make(map[models.EntityRef]bool)
		for _, stage := range p.Stages {
			for _, ref := range stage.Entities {
				ids, ok := live[ref.EntityType]
				if !ok {
					if ids, err = s.sources.IDs(ctx, orgID, ref.EntityType); err != nil {
						if errors.IsValidation(err) {
							// unknown type: nothing can resolve it
							ids = map[string]bool{}
						} else {
							return nil, err
						}
					}
					live[ref.EntityType] = ids
				}
				if !ids[ref.EntityID] {
					dangling[models.EntityRef{EntityID: ref.EntityID, EntityType: ref.EntityType}] = true
				}
			}
		}
		if len(dangling) == 0 {
			continue
		}

		removed := 0
		_, err := s.pipeline.mutate(ctx, orgID, p.ID, func(_ *sql.Tx, fresh *models.Pipeline) (bool, error) {
			removed = fresh.DetachWhere(func(ref models.EntityRef) bool {
				return dangling[models.EntityRef{EntityID: ref.EntityID, EntityType: ref.EntityType}]
			})
			return removed > 0, nil
		})
		if errors.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if removed > 0 {
			res.PipelinesChanged++
			res.RefsRemoved += removed
		}
	}

	if res.RefsRemoved > 0 {
		logger.L().Infow("🧹 Dangling refs removed", "organization_id", orgID, "refs", res.RefsRemoved, "pipelines", res.PipelinesChanged)
	}
	return res, nil
}
