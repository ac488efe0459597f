package constants

// Column names shared across tables
const (
	FieldID             = "id"
	FieldOrganizationID = "organization_id"
	FieldName           = "name"
	FieldCreatedAt      = "created_at"
	FieldUpdatedAt      = "updated_at"
	FieldCreatedBy      = "created_by"

	FieldViewID     = "view_id"
	FieldGroupID    = "group_id"
	FieldManageType = "manage_type"
	FieldViewType   = "view_type"
	FieldStages     = "stages"
	FieldVersion    = "version"

	FieldFullName     = "full_name"
	FieldEmails       = "emails"
	FieldPhones       = "phones"
	FieldCompanyID    = "company_id"
	FieldJobTitle     = "job_title"
	FieldTags         = "tags"
	FieldCustomFields = "custom_fields"

	FieldDomain   = "domain"
	FieldWebsite  = "website"
	FieldIndustry = "industry"
	FieldSize     = "size"
	FieldLocation = "location"

	FieldTitle     = "title"
	FieldContactID = "contact_id"
	FieldStatus    = "status"

	FieldEmail      = "email"
	FieldCustomData = "custom_data"
)

// Custom field keys read by the dashboard
const (
	CustomFieldDealValue = "dealValue"
	CustomFieldPriority  = "priority"
	CustomFieldCreatedAt = "createdAtField"
	CustomFieldValue     = "value"
)

// Response keys
const (
	ResponseError = "error"
	FieldMessage  = "message"
)

// Context keys
const (
	ContextKeyTenant    = "tenant"
	ContextKeyRequestID = "request_id"
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
)
