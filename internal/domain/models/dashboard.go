package models

// DashboardStats is the organization-wide rollup over all pipeline placements
type DashboardStats struct {
	Metrics           DashboardMetrics  `json:"metrics"`
	LeadsByStatus     []NameValue       `json:"leadsByStatus"`
	LeadsByIndustry   []NameValue       `json:"leadsByIndustry"`
	LeadsByMonth      []MonthCount      `json:"leadsByMonth"`
	RevenueByPipeline []PipelineRevenue `json:"revenueByPipeline"`
	LeadsByPriority   []NameValue       `json:"leadsByPriority"`
	TopDeals          []TopDeal         `json:"topDeals"`
	Counts            EntityCounts      `json:"counts"`
}

// DashboardMetrics holds the headline numbers
type DashboardMetrics struct {
	TotalRevenue   float64 `json:"totalRevenue"`
	AvgDealValue   float64 `json:"avgDealValue"`
	ConversionRate float64 `json:"conversionRate"`
	TotalLeads     int     `json:"totalLeads"`
}

// NameValue is a labelled count
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// MonthCount is a count for a month label such as "Jan 25"
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// PipelineRevenue is deal revenue per pipeline, in thousands
type PipelineRevenue struct {
	Pipeline string  `json:"pipeline"`
	Revenue  float64 `json:"revenue"`
}

// TopDeal is one of the highest valued placed deals
type TopDeal struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Company   string  `json:"company"`
	DealValue float64 `json:"dealValue"`
}

// EntityCounts are raw table cardinalities
type EntityCounts struct {
	People    int `json:"people"`
	Companies int `json:"companies"`
	Deals     int `json:"deals"`
}
