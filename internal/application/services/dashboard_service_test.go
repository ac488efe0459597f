package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhinontech/rhinontech-platform-sub002/internal/domain/models"
)

func dealFields(title string, value float64) Patch {
	return Patch{
		"title":         title,
		"custom_fields": map[string]interface{}{"dealValue": map[string]interface{}{"value": value}},
	}
}

func TestDashboardService_Stats(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	p := mustPipeline(t, sm, "Deals", models.EntityDeal, "Prospects", "Contacted", "Qualified")
	acme := mustCreate(t, sm, models.EntityCompany, Patch{"name": "Acme", "industry": "Software"})
	big := mustCreate(t, sm, models.EntityDeal, Patch{
		"title":         "Big",
		"company_id":    acme.EntityID(),
		"custom_fields": map[string]interface{}{"dealValue": map[string]interface{}{"value": 5000.0}, "priority": "High"},
	})
	small := mustCreate(t, sm, models.EntityDeal, dealFields("Small", 3000))
	mustCreate(t, sm, models.EntityDeal, dealFields("Unplaced", 99999))

	_, err := sm.Pipelines.MoveEntity(ctx, testOrg, p.ID, models.EntityDeal, small.EntityID(), p.Stages[0].ID)
	require.NoError(t, err)
	_, err = sm.Pipelines.MoveEntity(ctx, testOrg, p.ID, models.EntityDeal, big.EntityID(), p.Stages[2].ID)
	require.NoError(t, err)

	stats, err := sm.Dashboard.Stats(ctx, testOrg)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Metrics.TotalLeads)
	assert.Equal(t, 8000.0, stats.Metrics.TotalRevenue)
	assert.Equal(t, 4000.0, stats.Metrics.AvgDealValue)
	assert.Equal(t, 50.0, stats.Metrics.ConversionRate)

	assert.Equal(t, []models.NameValue{{Name: "Prospects", Value: 1}, {Name: "Qualified", Value: 1}}, stats.LeadsByStatus)
	assert.Equal(t, []models.NameValue{{Name: "Medium", Value: 1}, {Name: "High", Value: 1}}, stats.LeadsByPriority)
	assert.Empty(t, stats.LeadsByIndustry, "only placed companies count toward industry")
	assert.Equal(t, []models.PipelineRevenue{{Pipeline: "Deals", Revenue: 8}}, stats.RevenueByPipeline)

	require.Len(t, stats.TopDeals, 2)
	assert.Equal(t, models.TopDeal{ID: big.EntityID(), Name: "Big", Company: "Acme", DealValue: 5000}, stats.TopDeals[0])
	assert.Equal(t, "", stats.TopDeals[1].Company)

	require.Len(t, stats.LeadsByMonth, 1)
	assert.Equal(t, time.Now().UTC().Format("Jan 06"), stats.LeadsByMonth[0].Month)
	assert.Equal(t, 2, stats.LeadsByMonth[0].Count)

	assert.Equal(t, models.EntityCounts{People: 0, Companies: 1, Deals: 3}, stats.Counts)
}

func TestDashboardService_EmptyOrganization(t *testing.T) {
	sm := newTestManager(t)

	stats, err := sm.Dashboard.Stats(context.Background(), "empty-org")
	require.NoError(t, err)
	assert.Equal(t, models.DashboardMetrics{}, stats.Metrics)
	assert.Empty(t, stats.LeadsByStatus)
	assert.NotNil(t, stats.TopDeals)
}

func TestDashboardService_IndustryAndDanglingRefs(t *testing.T) {
	sm := newTestManager(t)
	ctx := context.Background()

	p := mustPipeline(t, sm, "Accounts", models.EntityCompany, "Lead", "Negotiation")
	known := mustCreate(t, sm, models.EntityCompany, Patch{"name": "Known", "industry": "Retail"})
	blank := mustCreate(t, sm, models.EntityCompany, Patch{"name": "Blank"})
	gone := mustCreate(t, sm, models.EntityCompany, Patch{"name": "Gone"})

	for _, id := range []string{known.EntityID(), blank.EntityID(), gone.EntityID()} {
		_, err := sm.Pipelines.MoveEntity(ctx, testOrg, p.ID, models.EntityCompany, id, p.Stages[1].ID)
		require.NoError(t, err)
	}
	// drop the row without the cascade so the ref dangles
	removed, err := sm.Entities.companies.Delete(ctx, nil, testOrg, gone.EntityID())
	require.NoError(t, err)
	require.True(t, removed)

	stats, err := sm.Dashboard.Stats(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Metrics.TotalLeads)
	assert.Equal(t, 100.0, stats.Metrics.ConversionRate)
	assert.Equal(t, []models.NameValue{{Name: "Retail", Value: 1}, {Name: "Unknown", Value: 1}}, stats.LeadsByIndustry)
	assert.Empty(t, stats.RevenueByPipeline)
}

func TestNewDashboardService_RejectsBadRule(t *testing.T) {
	_, err := NewDashboardService(nil, nil, nil, nil, nil, "stage_name ==")
	assert.Error(t, err)

	svc, err := NewDashboardService(nil, nil, nil, nil, nil, `pipeline_name == "Deals"`)
	require.NoError(t, err)
	assert.Equal(t, `pipeline_name == "Deals"`, svc.rule)
}
