package constants

import "time"

// Default values for engine operations
const (
	DefaultPriority        = "Medium"
	DefaultIndustry        = "Unknown"
	DefaultCustomersGroup  = "Chatbot Customers"
	DefaultConversionRule  = `stage_name in ["Qualified", "Negotiation"]`
	DefaultMaxRetries      = 5
	DefaultSweepSchedule   = "@every 1h"
	DefaultLockTTL         = 10 * time.Second
	DefaultLockWait        = 5 * time.Second
	TopDealsLimit          = 5
	RevenueScale           = 1000
	MonthLabelLayout       = "Jan 06"
	LockKeyPrefix          = "pipeline-engine:lock:pipeline:"
	SweepMaxRuntimeMinutes = 10
)

// View types
const (
	ViewTypePipeline = "pipeline"
	ViewTypeTable    = "table"
)
