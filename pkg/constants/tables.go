package constants

import "strings"

// Table names used by the repositories and migrations
const (
	CRMTablePrefix = "crm_"

	TableGroup    = "crm_groups"
	TableView     = "crm_views"
	TablePipeline = "crm_pipelines"
	TablePeople   = "crm_people"
	TableCompany  = "crm_companies"
	TableDeal     = "crm_deals"

	// Customer records come from the chatbot side and predate the crm_ prefix
	TableCustomer = "customers"

	TableSchemaVersion = "schema_version"
)

// IsCRMTable checks if a table belongs to the CRM entity/catalog set
func IsCRMTable(tableName string) bool {
	return strings.HasPrefix(tableName, CRMTablePrefix) || tableName == TableCustomer
}
