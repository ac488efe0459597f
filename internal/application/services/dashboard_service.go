package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/ports"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/constants"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/expression"
	"github.com/rhinontech/rhinontech-platform-sub002/pkg/logger"
)

// placement is one entity ref joined to its record
type placement struct {
	pipelineName string
	stageName    string
	entityType   models.EntityType
	record       models.Entity
}

// DashboardService computes organization-wide placement analytics. It takes
// no locks and may observe a pipeline mid-update.
type DashboardService struct {
	pipelines ports.PipelineRepository
	people    ports.PeopleRepository
	companies ports.CompanyRepository
	deals     ports.DealRepository
	engine    *expression.Engine
	rule      string
}

// NewDashboardService creates a new DashboardService. rule is the expression
// deciding whether a placement counts as converted; empty selects the
// default stage name rule.
func NewDashboardService(pipelines ports.PipelineRepository, people ports.PeopleRepository, companies ports.CompanyRepository, deals ports.DealRepository, engine *expression.Engine, rule string) (*DashboardService, error) {
	if strings.TrimSpace(rule) == "" {
		rule = constants.DefaultConversionRule
	}
	if engine == nil {
		engine = expression.NewEngine()
	}
	if err := engine.Validate(rule, ruleEnv("", "", "")); err != nil {
		return nil, fmt.Errorf("invalid conversion rule %q: %w", rule, err)
	}
	return &DashboardService{
		pipelines: pipelines,
		people:    people,
		companies: companies,
		deals:     deals,
		engine:    engine,
		rule:      rule,
	}, nil
}

func ruleEnv(stageName, pipelineName string, t models.EntityType) map[string]interface{} {
	return map[string]interface{}{
		"stage_name":    stageName,
		"pipeline_name": pipelineName,
		"entity_type":   string(t),
	}
}

// dashboardData is everything one rollup reads
type dashboardData struct {
	pipelines []*models.Pipeline
	people    []*models.People
	companies []*models.Company
	deals     []*models.Deal
	counts    models.EntityCounts
}

func (s *DashboardService) load(ctx context.Context, orgID string) (*dashboardData, error) {
	d := &dashboardData{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		d.pipelines, err = s.pipelines.List(gctx, nil, orgID, "")
		return err
	})
	g.Go(func() (err error) {
		d.people, err = s.people.List(gctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		d.companies, err = s.companies.List(gctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		d.deals, err = s.deals.List(gctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		d.counts.People, err = s.people.Count(gctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		d.counts.Companies, err = s.companies.Count(gctx, orgID)
		return err
	})
	g.Go(func() (err error) {
		d.counts.Deals, err = s.deals.Count(gctx, orgID)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

// Stats rescans every pipeline of the organization and rolls up its
// placements. Refs to missing records are skipped.
func (s *DashboardService) Stats(ctx context.Context, orgID string) (*models.DashboardStats, error) {
	data, err := s.load(ctx, orgID)
	if err != nil {
		return nil, err
	}

	people := make(map[string]*models.People, len(data.people))
	for _, p := range data.people {
		people[p.ID] = p
	}
	companies := make(map[string]*models.Company, len(data.companies))
	for _, c := range data.companies {
		companies[c.ID] = c
	}
	deals := make(map[string]*models.Deal, len(data.deals))
	for _, d := range data.deals {
		deals[d.ID] = d
	}

	placements := make([]placement, 0)
	for _, p := range data.pipelines {
		p.Normalize()
		name := p.Name
		if name == "" {
			name = string(p.ManageType)
		}
		for _, stage := range p.Stages {
			for _, ref := range stage.Entities {
				var record models.Entity
				switch ref.EntityType {
				case models.EntityPeople:
					if r, ok := people[ref.EntityID]; ok {
						record = r
					}
				case models.EntityCompany:
					if r, ok := companies[ref.EntityID]; ok {
						record = r
					}
				case models.EntityDeal:
					if r, ok := deals[ref.EntityID]; ok {
						record = r
					}
				}
				if record == nil {
					continue
				}
				placements = append(placements, placement{
					pipelineName: name,
					stageName:    stage.Name,
					entityType:   ref.EntityType,
					record:       record,
				})
			}
		}
	}

	stats, err := s.rollup(placements, companies)
	if err != nil {
		return nil, err
	}
	stats.Counts = data.counts
	return stats, nil
}

func (s *DashboardService) rollup(placements []placement, companies map[string]*models.Company) (*models.DashboardStats, error) {
	var (
		revenue   = decimal.Zero
		qualified int
		byStatus  = newCounter()
		byPrio    = newCounter()
		byInd     = newCounter()
		byMonth   = make(map[time.Time]int)
		byPipe    = make(map[string]decimal.Decimal)
		pipeOrder []string
		topDeals  []models.TopDeal
	)

	for _, pl := range placements {
		ok, err := s.engine.EvaluateBool(s.rule, ruleEnv(pl.stageName, pl.pipelineName, pl.entityType))
		if err != nil {
			return nil, fmt.Errorf("conversion rule: %w", err)
		}
		if ok {
			qualified++
		}

		byStatus.add(pl.stageName)
		byPrio.add(pl.record.Fields().Priority())

		if created := pl.record.CreatedOn(); created != nil {
			u := created.UTC()
			byMonth[time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)]++
		}

		switch rec := pl.record.(type) {
		case *models.Company:
			industry := strings.TrimSpace(rec.Industry)
			if industry == "" {
				industry = constants.DefaultIndustry
			}
			byInd.add(industry)
		case *models.Deal:
			value := decimal.NewFromFloat(rec.CustomFields.DealValue())
			revenue = revenue.Add(value)
			if _, seen := byPipe[pl.pipelineName]; !seen {
				pipeOrder = append(pipeOrder, pl.pipelineName)
			}
			byPipe[pl.pipelineName] = byPipe[pl.pipelineName].Add(value)

			company := ""
			if c := companyOf(rec, companies); c != nil {
				company = c.Name
			}
			topDeals = append(topDeals, models.TopDeal{
				ID:        rec.ID,
				Name:      rec.Title,
				Company:   company,
				DealValue: value.InexactFloat64(),
			})
		}
	}

	total := len(placements)
	metrics := models.DashboardMetrics{
		TotalRevenue: revenue.InexactFloat64(),
		TotalLeads:   total,
	}
	if total > 0 {
		n := decimal.NewFromInt(int64(total))
		metrics.AvgDealValue = revenue.Div(n).InexactFloat64()
		metrics.ConversionRate = decimal.NewFromInt(int64(qualified)).Mul(decimal.NewFromInt(100)).Div(n).InexactFloat64()
	}

	months := make([]time.Time, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	leadsByMonth := make([]models.MonthCount, 0, len(months))
	for _, m := range months {
		leadsByMonth = append(leadsByMonth, models.MonthCount{Month: m.Format(constants.MonthLabelLayout), Count: byMonth[m]})
	}

	scale := decimal.NewFromInt(constants.RevenueScale)
	revenueByPipeline := make([]models.PipelineRevenue, 0, len(pipeOrder))
	for _, name := range pipeOrder {
		revenueByPipeline = append(revenueByPipeline, models.PipelineRevenue{
			Pipeline: name,
			Revenue:  byPipe[name].Div(scale).InexactFloat64(),
		})
	}

	sort.SliceStable(topDeals, func(i, j int) bool {
		if topDeals[i].DealValue != topDeals[j].DealValue {
			return topDeals[i].DealValue > topDeals[j].DealValue
		}
		return topDeals[i].ID < topDeals[j].ID
	})
	if len(topDeals) > constants.TopDealsLimit {
		topDeals = topDeals[:constants.TopDealsLimit]
	}
	if topDeals == nil {
		topDeals = []models.TopDeal{}
	}

	logger.L().Debugw("📊 Dashboard computed", "placements", total, "qualified", qualified)

	return &models.DashboardStats{
		Metrics:           metrics,
		LeadsByStatus:     byStatus.items(),
		LeadsByIndustry:   byInd.items(),
		LeadsByMonth:      leadsByMonth,
		RevenueByPipeline: revenueByPipeline,
		LeadsByPriority:   byPrio.items(),
		TopDeals:          topDeals,
	}, nil
}

func companyOf(d *models.Deal, companies map[string]*models.Company) *models.Company {
	if d.CompanyID == nil {
		return nil
	}
	return companies[*d.CompanyID]
}

// counter counts labels, remembering first-seen order
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(label string) {
	if _, ok := c.counts[label]; !ok {
		c.order = append(c.order, label)
	}
	c.counts[label]++
}

func (c *counter) items() []models.NameValue {
	out := make([]models.NameValue, 0, len(c.order))
	for _, label := range c.order {
		out = append(out, models.NameValue{Name: label, Value: c.counts[label]})
	}
	return out
}
