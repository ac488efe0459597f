package models

import "time"

// Entity is the capability set the engine needs from any trackable record
type Entity interface {
	EntityID() string
	EntityType() EntityType
	Fields() CustomFields
	// CreatedOn resolves the creation date: created_at, then the
	// createdAtField custom field, then updated_at. Nil when none is known.
	CreatedOn() *time.Time
}

// Timestamps is embedded by every entity record
type Timestamps struct {
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

func resolveCreated(ts Timestamps, cf CustomFields) *time.Time {
	if ts.CreatedAt != nil && !ts.CreatedAt.IsZero() {
		return ts.CreatedAt
	}
	if t := cf.CreatedAtField(); t != nil {
		return t
	}
	if ts.UpdatedAt != nil && !ts.UpdatedAt.IsZero() {
		return ts.UpdatedAt
	}
	return nil
}

// People is a contact record
type People struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	FullName       string       `json:"full_name"`
	Emails         []string     `json:"emails"`
	Phones         []string     `json:"phones"`
	CompanyID      *string      `json:"company_id"`
	JobTitle       string       `json:"job_title"`
	Tags           []string     `json:"tags"`
	CustomFields   CustomFields `json:"custom_fields"`
	CreatedBy      string       `json:"created_by,omitempty"`
	Timestamps
}

// EntityID returns the record id
func (p *People) EntityID() string { return p.ID }

// EntityType returns the type tag pipelines store for People records
func (p *People) EntityType() EntityType { return EntityPeople }

// Fields returns the custom field document
func (p *People) Fields() CustomFields { return p.CustomFields }

// CreatedOn resolves the creation date for dashboard month grouping
func (p *People) CreatedOn() *time.Time { return resolveCreated(p.Timestamps, p.CustomFields) }

// Company is an organization record
type Company struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	Name           string       `json:"name"`
	Domain         string       `json:"domain"`
	Website        string       `json:"website"`
	Industry       string       `json:"industry"`
	Size           string       `json:"size"`
	Location       string       `json:"location"`
	Tags           []string     `json:"tags"`
	CustomFields   CustomFields `json:"custom_fields"`
	CreatedBy      string       `json:"created_by,omitempty"`
	Timestamps
}

// EntityID returns the record id
func (c *Company) EntityID() string { return c.ID }

// EntityType returns the type tag pipelines store for Company records
func (c *Company) EntityType() EntityType { return EntityCompany }

// Fields returns the custom field document
func (c *Company) Fields() CustomFields { return c.CustomFields }

// CreatedOn resolves the creation date for dashboard month grouping
func (c *Company) CreatedOn() *time.Time { return resolveCreated(c.Timestamps, c.CustomFields) }

// Deal is an opportunity record
type Deal struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	Title          string       `json:"title"`
	ContactID      *string      `json:"contact_id"`
	CompanyID      *string      `json:"company_id"`
	Status         string       `json:"status"`
	Tags           []string     `json:"tags"`
	CustomFields   CustomFields `json:"custom_fields"`
	CreatedBy      string       `json:"created_by,omitempty"`
	Timestamps
}

// EntityID returns the record id
func (d *Deal) EntityID() string { return d.ID }

// EntityType returns the type tag pipelines store for Deal records
func (d *Deal) EntityType() EntityType { return EntityDeal }

// Fields returns the custom field document
func (d *Deal) Fields() CustomFields { return d.CustomFields }

// CreatedOn resolves the creation date for dashboard month grouping
func (d *Deal) CreatedOn() *time.Time { return resolveCreated(d.Timestamps, d.CustomFields) }

// Customer is a generic record captured by the chatbot. Its attributes
// live in the free-form CustomData document.
type Customer struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	Email          string       `json:"email"`
	CustomData     CustomFields `json:"custom_data"`
	Timestamps
}

// EntityID returns the record id
func (c *Customer) EntityID() string { return c.ID }

// EntityType returns the type tag pipelines store for Customer records
func (c *Customer) EntityType() EntityType { return EntityCustomers }

// Fields returns custom_data
func (c *Customer) Fields() CustomFields { return c.CustomData }

// CreatedOn resolves the creation date for dashboard month grouping
func (c *Customer) CreatedOn() *time.Time { return resolveCreated(c.Timestamps, c.CustomData) }

// Name projects custom_data.name
func (c *Customer) Name() string { return c.CustomData.String("name") }

// Phone projects custom_data.phone
func (c *Customer) Phone() string { return c.CustomData.String("phone") }
